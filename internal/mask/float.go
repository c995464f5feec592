package mask

import (
	"image"
	"image/color"
	"math"

	"github.com/Rifine/smix/internal/mix"
)

// Float is a straight-alpha RGBA image with float32 channels in 0..1.
type Float struct {
	Pix    []mix.Color
	Width  int
	Height int
}

func NewFloat(w, h int) *Float {
	return &Float{Pix: make([]mix.Color, w*h), Width: w, Height: h}
}

// ToFloat decodes any image into straight-alpha floats. Straight-alpha sources
// are read directly; premultiplied ones go through the NRGBA64 model.
func ToFloat(src image.Image) *Float {
	b := src.Bounds()
	f := NewFloat(b.Dx(), b.Dy())
	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				c := n.NRGBAAt(b.Min.X+x, b.Min.Y+y)
				f.Pix[y*f.Width+x] = mix.Color{
					float32(c.R) / 0xff,
					float32(c.G) / 0xff,
					float32(c.B) / 0xff,
					float32(c.A) / 0xff,
				}
			}
		}
		return f
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			f.Pix[y*f.Width+x] = mix.Color{
				float32(c.R) / 0xffff,
				float32(c.G) / 0xffff,
				float32(c.B) / 0xffff,
				float32(c.A) / 0xffff,
			}
		}
	}
	return f
}

func (f *Float) Size() image.Point { return image.Pt(f.Width, f.Height) }

func (f *Float) At(x, y int) mix.Color { return f.Pix[y*f.Width+x] }

// NRGBA quantises to 8 bits: clamp to 0..1, scale by 255, round to nearest.
func (f *Float) NRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, p := range f.Pix {
		o := i * 4
		dst.Pix[o+0] = quantize(p[0])
		dst.Pix[o+1] = quantize(p[1])
		dst.Pix[o+2] = quantize(p[2])
		dst.Pix[o+3] = quantize(p[3])
	}
	return dst
}

func quantize(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
