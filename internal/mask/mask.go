// Package mask loads r/g/b mask sets from disk and blends them into one image.
package mask

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/mix"
)

// Files are the mask file names expected in every mask directory, in channel order.
var Files = [3]string{"r.png", "g.png", "b.png"}

// Set is three same-sized masks loaded from one directory.
type Set struct {
	Label string
	Dir   string
	masks [3]*Float
}

// NewSet builds a set from already decoded masks.
func NewSet(label string, r, g, b *Float) (*Set, error) {
	s := &Set{Label: label, masks: [3]*Float{r, g, b}}
	if err := s.check(); err != nil {
		return nil, diagnostics.Mismatch(label, err)
	}
	return s, nil
}

// Load reads r.png, g.png and b.png from dir.
func Load(dir string) (*Set, error) {
	var masks [3]*Float
	for i, name := range Files {
		path := filepath.Join(dir, name)
		img, err := imaging.Open(path)
		if err != nil {
			return nil, diagnostics.IO("open", path, err)
		}
		masks[i] = ToFloat(img)
	}
	s := &Set{Label: Label(dir), Dir: dir, masks: masks}
	if err := s.check(); err != nil {
		return nil, diagnostics.Mismatch(dir, err)
	}
	return s, nil
}

func (s *Set) check() error {
	r, g, b := s.masks[0].Size(), s.masks[1].Size(), s.masks[2].Size()
	if r != g || g != b {
		return fmt.Errorf("has different dimensions: r=%dx%d g=%dx%d b=%dx%d", r.X, r.Y, g.X, g.Y, b.X, b.Y)
	}
	return nil
}

// Size is the shared mask size.
func (s *Set) Size() image.Point { return s.masks[0].Size() }

// Label derives the export label of a mask directory from its last path element.
func Label(dir string) string {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == "" || strings.Trim(name, `/\`) == "" {
		return "result"
	}
	return name
}

// Blend mixes the set into a float image. Pixels whose R-mask alpha is zero
// stay fully transparent; every other pixel takes the R-mask alpha and the
// weighted RGB of the three masks.
func (s *Set) Blend(w mix.Weight) *Float {
	size := s.Size()
	out := NewFloat(size.X, size.Y)
	r, g, b := s.masks[0], s.masks[1], s.masks[2]
	for i := range out.Pix {
		alpha := r.Pix[i][3]
		if alpha == 0 {
			continue
		}
		px := &out.Pix[i]
		px[3] = alpha
		mix.Pixel(px, w, [3]mix.Color{r.Pix[i], g.Pix[i], b.Pix[i]})
	}
	return out
}

// Generate blends the set and quantises the result to 8 bits per channel.
func (s *Set) Generate(w mix.Weight) *image.NRGBA {
	return s.Blend(w).NRGBA()
}
