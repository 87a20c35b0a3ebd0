// Package render draws tracked objects onto gocv Mats: bounding boxes
// with identity labels, and motion trails from the per-track centroid
// history.  It consumes only the read-only track output of the
// association core.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/objectanalytics/go-tracker/tracker"
)

// boxLabel records the label text rendering details for a bounding box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// TrackBoxes renders the bounding boxes of the live tracks with their
// identity and label
func TrackBoxes(img *gocv.Mat, tracks []*tracker.Track, font Font,
	lineThickness int) {

	labels := make([]boxLabel, 0, len(tracks))

	for _, t := range tracks {

		useClr := ColorForTrack(t.ID())

		r := t.Rect()
		rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
		gocv.Rectangle(img, rect, useClr, lineThickness)

		text := fmt.Sprintf("%s #%d", t.Label(), t.ID())
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// anchor the label to the top-left of the bounding box
		textPos := image.Pt(rect.Min.X+font.LeftPad, rect.Min.Y-font.BottomPad)

		bRect := image.Rect(rect.Min.X,
			rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			rect.Min.X+textSize.X+font.LeftPad+font.RightPad, rect.Min.Y)

		labels = append(labels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: textPos,
		})
	}

	// draw all label boxes last so they are the top most layer and don't
	// get overlapped by neighbouring bounding box lines
	for _, box := range labels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// DetectionBoxes renders raw detector output, useful for comparing the
// detector's view against the tracked state
func DetectionBoxes(img *gocv.Mat, dets []tracker.Detection, font Font,
	lineThickness int) {

	for _, det := range dets {

		r := det.Rect
		rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
		gocv.Rectangle(img, rect, Yellow, lineThickness)

		text := fmt.Sprintf("%s %.2f", det.Label, det.Prob)
		textPos := image.Pt(rect.Min.X+font.LeftPad, rect.Min.Y-font.BottomPad)

		gocv.PutTextWithParams(img, text, textPos, font.Face, font.Scale,
			font.Color, font.Thickness, font.LineType, false)
	}
}
