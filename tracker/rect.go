package tracker

import (
	"math"
)

// Rect represents a bounding rectangle in frame pixel coordinates using
// top-left corner, width and height.
type Rect struct {
	X, Y, Width, Height float32
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float32) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Centroid returns the center point of the rectangle
func (r Rect) Centroid() (float32, float32) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the rectangle area
func (r Rect) Area() float32 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// IsEmpty reports whether the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersect returns the overlapping region with another rectangle.  The
// zero Rect is returned when the rectangles do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	x1 := float32(math.Max(float64(r.X), float64(other.X)))
	y1 := float32(math.Max(float64(r.Y), float64(other.Y)))
	x2 := float32(math.Min(float64(r.X+r.Width), float64(other.X+other.Width)))
	y2 := float32(math.Min(float64(r.Y+r.Height), float64(other.Y+other.Height)))

	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}

	return NewRect(x1, y1, x2-x1, y2-y1)
}

// CalcIoU calculates the Intersection over Union (IoU) with another
// rectangle
func (r Rect) CalcIoU(other Rect) float32 {

	inter := r.Intersect(other).Area()

	if inter <= 0 {
		return 0
	}

	union := r.Area() + other.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// CentroidDistance returns the Euclidean distance between the centroids
// of two rectangles
func (r Rect) CentroidDistance(other Rect) float32 {
	cx1, cy1 := r.Centroid()
	cx2, cy2 := other.Centroid()

	dx := float64(cx1 - cx2)
	dy := float64(cy1 - cy2)

	return float32(math.Sqrt(dx*dx + dy*dy))
}
