package tracker

import (
	"time"
)

// Frame represents a single sensor frame flowing through the pipeline.
// The association core only ever reads the timestamp; the image payload
// is carried by concrete implementations (eg: cvtrack.Frame wraps a
// gocv.Mat) and is interpreted solely by SingleTracker implementations.
type Frame interface {
	// Stamp returns the frame capture time in a monotonic clock domain
	Stamp() time.Time
}

// Detection represents a single-frame observation produced by an upstream
// object detector.  Detections are immutable once created.
type Detection struct {
	// Label is the category label of the detected object
	Label string
	// Prob is the detection confidence in [0, 1]
	Prob float32
	// Rect is the bounding box of the detected object
	Rect Rect
	// Stamp is the timestamp of the frame the detection was computed
	// against
	Stamp time.Time
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(label string, prob float32, rect Rect, stamp time.Time) Detection {
	return Detection{
		Label: label,
		Prob:  prob,
		Rect:  rect,
		Stamp: stamp,
	}
}
