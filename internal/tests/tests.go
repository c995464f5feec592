// Package tests builds mask directories on disk for package tests.
package tests

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type Kind string

const (
	// RGBTest writes pure red, green and blue opaque masks.
	RGBTest Kind = "rgb_channels"
	// Checker writes masks whose alpha alternates between opaque and clear.
	Checker Kind = "checker"
	// Gradient writes an opaque horizontal ramp per channel.
	Gradient Kind = "gradient"
)

// Plan describes a generated mask set.
type Plan struct {
	Kind   Kind
	Width  int
	Height int
}

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Masks renders the three masks of a plan.
func (p Plan) Masks() [3]*image.NRGBA {
	w, h := p.Width, p.Height
	var out [3]*image.NRGBA
	switch p.Kind {
	case Checker:
		for i := range out {
			out[i] = image.NewNRGBA(image.Rect(0, 0, w, h))
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					c := color.NRGBA{A: 255}
					c.R, c.G, c.B = 40*uint8(i+1), 60, 200
					if (x+y)%2 == 1 {
						c.A = 0
					}
					out[i].SetNRGBA(x, y, c)
				}
			}
		}
	case Gradient:
		for i := range out {
			out[i] = image.NewNRGBA(image.Rect(0, 0, w, h))
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					v := uint8(x * 255 / max(1, w-1))
					c := color.NRGBA{A: 255}
					switch i {
					case 0:
						c.R = v
					case 1:
						c.G = v
					default:
						c.B = v
					}
					out[i].SetNRGBA(x, y, c)
				}
			}
		}
	default:
		out[0] = Solid(w, h, color.NRGBA{R: 255, A: 255})
		out[1] = Solid(w, h, color.NRGBA{G: 255, A: 255})
		out[2] = Solid(w, h, color.NRGBA{B: 255, A: 255})
	}
	return out
}

// WriteSet writes r.png, g.png and b.png into root/name and returns the directory.
func WriteSet(t testing.TB, root, name string, r, g, b image.Image) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for i, img := range []image.Image{r, g, b} {
		WritePNG(t, filepath.Join(dir, []string{"r.png", "g.png", "b.png"}[i]), img)
	}
	return dir
}

// WritePlan writes the masks of p into root/name.
func WritePlan(t testing.TB, root, name string, p Plan) string {
	t.Helper()
	m := p.Masks()
	return WriteSet(t, root, name, m[0], m[1], m[2])
}

func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// ReadPNG decodes path into an NRGBA copy.
func ReadPNG(t testing.TB, path string) *image.NRGBA {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
