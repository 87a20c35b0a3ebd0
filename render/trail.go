package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/objectanalytics/go-tracker/tracker"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be
	// the same color as that of the bounding box.  If set to false then
	// use the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// TrackTrails draws the motion trail of each live track on the source
// image from the centroid history recorded by the pipeline.
func TrackTrails(img *gocv.Mat, tracks []*tracker.Track,
	trail *tracker.Trail, style TrailStyle) {

	for _, t := range tracks {

		objClr := ColorForTrack(t.ID())

		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		points := trail.GetPoints(t.ID())

		if len(points) > 2 {
			for i := 1; i < len(points); i++ {
				gocv.Line(img,
					image.Pt(points[i-1].X, points[i-1].Y),
					image.Pt(points[i].X, points[i].Y),
					lineClr, style.LineThickness)
			}
		}

		// mark the current centroid
		if len(points) > 0 {
			last := points[len(points)-1]
			gocv.Circle(img, image.Pt(last.X, last.Y),
				style.CircleRadius, circleClr, -1)
		}
	}
}
