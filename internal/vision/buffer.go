package vision

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

// ErrDegenerateFrame is returned for frames that cannot yield a FeatureSet.
var ErrDegenerateFrame = errors.New("degenerate frame")

// minSide is the smallest width or height that still splits into a 3x3 region grid.
const minSide = 3

// PixelBuffer is an immutable RGB frame stored row-major, three bytes per pixel.
type PixelBuffer struct {
	width  int
	height int
	pix    []uint8
}

// NewPixelBuffer copies pix into a new buffer.
func NewPixelBuffer(width, height int, pix []uint8) PixelBuffer {
	cp := make([]uint8, len(pix))
	copy(cp, pix)
	return PixelBuffer{width: width, height: height, pix: cp}
}

// FromImage converts any image to an RGB buffer, dropping alpha.
func FromImage(img image.Image) PixelBuffer {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	pix := make([]uint8, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			pix = append(pix, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return PixelBuffer{width: w, height: h, pix: pix}
}

// Uniform returns a buffer filled with a single color.
func Uniform(width, height int, r, g, b uint8) PixelBuffer {
	if width < 0 || height < 0 {
		return PixelBuffer{}
	}
	pix := make([]uint8, width*height*3)
	for i := 0; i < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2] = r, g, b
	}
	return PixelBuffer{width: width, height: height, pix: pix}
}

func (p PixelBuffer) Width() int  { return p.width }
func (p PixelBuffer) Height() int { return p.height }

// At returns the color at (x, y). Coordinates must be in range.
func (p PixelBuffer) At(x, y int) (r, g, b uint8) {
	i := (y*p.width + x) * 3
	return p.pix[i], p.pix[i+1], p.pix[i+2]
}

func (p PixelBuffer) validate() error {
	if p.width < minSide || p.height < minSide {
		return errors.Wrapf(ErrDegenerateFrame, "frame %dx%d is smaller than %dx%d",
			p.width, p.height, minSide, minSide)
	}
	if len(p.pix) != p.width*p.height*3 {
		return errors.Wrapf(ErrDegenerateFrame, "frame %dx%d has %d bytes, want %d",
			p.width, p.height, len(p.pix), p.width*p.height*3)
	}
	return nil
}
