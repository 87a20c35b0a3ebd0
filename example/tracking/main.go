/*
Example demonstrating multi-object tracking over a video file.

Detections are read from a JSON file produced by an upstream detector, one
entry per frame index.  Each video frame is passed through the tracking
manager; frames that have a detection batch also run an association cycle.
The tracked output video is written with bounding boxes and motion trails
drawn, and the live track set is served over HTTP while processing runs.
*/
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"gocv.io/x/gocv"

	"github.com/objectanalytics/go-tracker/api"
	"github.com/objectanalytics/go-tracker/cvtrack"
	"github.com/objectanalytics/go-tracker/render"
	"github.com/objectanalytics/go-tracker/tracker"
)

// frameDetections holds the detector output for a single frame index
type frameDetections struct {
	Index   int `json:"index"`
	Objects []struct {
		Label string     `json:"label"`
		Prob  float32    `json:"prob"`
		Rect  [4]float32 `json:"rect"`
	} `json:"objects"`
}

func main() {

	configFile := flag.String("c", "config.yaml", "Configuration file to use")
	vidFile := flag.String("v", "video.mp4", "Video file to track objects in")
	detFile := flag.String("d", "detections.json", "Detector output JSON file")
	outFile := flag.String("o", "out.mp4", "Output video file")
	flag.Parse()

	err := initConfig(*configFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	cfg := tracker.Config{
		FrameWindow:    viper.GetInt("tracker.frame-window"),
		GateSigma:      viper.GetFloat64("tracker.gate-sigma"),
		MatchThreshold: float32(viper.GetFloat64("tracker.match-threshold")),
		Algo:           viper.GetString("tracker.algo"),
		TrailLength:    viper.GetInt("tracker.trail-length"),
	}

	mgr := tracker.NewManager(cfg, cvtrack.New, nil)

	// serve the live track set while processing
	go func() {
		router := api.SetRouter(mgr.Registry())
		if err := router.Run(viper.GetString("api.listen")); err != nil {
			log.Printf("API server stopped: %v", err)
		}
	}()

	dets, err := loadDetections(*detFile)
	if err != nil {
		log.Fatalf("Error loading detections: %v", err)
	}

	vid, err := gocv.VideoCaptureFile(*vidFile)
	if err != nil {
		log.Fatalf("Error opening video file %s: %v", *vidFile, err)
	}
	defer vid.Close()

	fps := vid.Get(gocv.VideoCaptureFPS)
	width := int(vid.Get(gocv.VideoCaptureFrameWidth))
	height := int(vid.Get(gocv.VideoCaptureFrameHeight))

	writer, err := gocv.VideoWriterFile(*outFile, "mp4v", fps, width, height, true)
	if err != nil {
		log.Fatalf("Error opening video writer %s: %v", *outFile, err)
	}
	defer writer.Close()

	img := gocv.NewMat()
	defer img.Close()

	font := render.DefaultFont()
	trailStyle := render.DefaultTrailStyle()

	frameInterval := time.Duration(float64(time.Second) / fps)
	stamp := time.Now()

	frameIdx := 0

	for {
		if ok := vid.Read(&img); !ok || img.Empty() {
			break
		}

		// simulate a monotonic capture clock from the video frame rate
		stamp = stamp.Add(frameInterval)
		frame := cvtrack.Frame{Time: stamp, Mat: img}

		// detection batches arrive against frames already admitted, so
		// run the per-frame update first
		mgr.TrackFrame(frame)

		if batch, ok := dets[frameIdx]; ok {
			if err := mgr.ProcessDetections(frame, batch(stamp)); err != nil {
				log.Fatalf("Association cycle failed: %v", err)
			}
		}

		live := mgr.Registry().Live()
		render.TrackBoxes(&img, live, font, 2)
		render.TrackTrails(&img, live, mgr.Trail(), trailStyle)

		if err := writer.Write(img); err != nil {
			log.Fatalf("Error writing output frame: %v", err)
		}

		frameIdx++
	}

	log.Printf("Processed %d frames, %d tracks live at end", frameIdx,
		mgr.Registry().Len())
}

// initConfig sets defaults and loads overrides from the config file if
// one exists
func initConfig(path string) error {

	viper.SetDefault("tracker.frame-window", tracker.DefaultFrameWindow)
	viper.SetDefault("tracker.gate-sigma", tracker.DefaultGateSigma)
	viper.SetDefault("tracker.match-threshold", tracker.DefaultMatchThreshold)
	viper.SetDefault("tracker.algo", cvtrack.AlgoKCF)
	viper.SetDefault("tracker.trail-length", 30)
	viper.SetDefault("api.listen", ":8080")

	if _, err := os.Stat(path); err != nil {
		// no config file, defaults apply
		return nil
	}

	viper.SetConfigFile(path)
	return viper.ReadInConfig()
}

// loadDetections reads the detector output and returns, per frame index,
// a batch builder that stamps the detections with the frame time
func loadDetections(path string) (map[int]func(time.Time) []tracker.Detection, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var frames []frameDetections
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, err
	}

	out := make(map[int]func(time.Time) []tracker.Detection, len(frames))

	for _, fd := range frames {
		fd := fd
		out[fd.Index] = func(stamp time.Time) []tracker.Detection {
			batch := make([]tracker.Detection, 0, len(fd.Objects))
			for _, obj := range fd.Objects {
				batch = append(batch, tracker.NewDetection(obj.Label, obj.Prob,
					tracker.NewRect(obj.Rect[0], obj.Rect[1], obj.Rect[2],
						obj.Rect[3]), stamp))
			}
			return batch
		}
	}

	return out, nil
}
