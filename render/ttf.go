package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TTFLabel renders text with a loaded TTF font face, for labels needing
// glyphs outside the Hershey fonts.  Rendering goes through an RGBA
// overlay so it is slower than the gocv text functions.
type TTFLabel struct {
	face font.Face
}

// LoadTTF loads a TTF font file and sets up a font face at the given
// point size
func LoadTTF(path string, size float64) (*TTFLabel, error) {

	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	return &TTFLabel{face: face}, nil
}

// Draw writes text on the image at the given baseline position
func (l *TTFLabel) Draw(img *gocv.Mat, text string, x, y int) error {

	// render text to a transparent overlay
	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}),
		image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: l.face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	dr.DrawString(text)

	overlay, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(),
		rgba.Bounds().Dx(), gocv.MatTypeCV8UC4, rgba.Pix)

	if err != nil || overlay.Empty() {
		return fmt.Errorf("error creating Mat from RGBA overlay")
	}
	defer overlay.Close()

	gocv.CvtColor(overlay, &overlay, gocv.ColorRGBAToBGR)
	gocv.AddWeighted(*img, 1.0, overlay, 1.0, 0, img)

	return nil
}
