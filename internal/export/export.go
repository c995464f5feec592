// Package export writes generated images as PNG files, resampled per scale factor.
package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/scale"
)

// Name is the output file name for label at w x h.
func Name(label string, w, h int) string {
	return fmt.Sprintf("%s_%dx%d.png", label, w, h)
}

// Exporter writes into one output directory using one filter.
type Exporter struct {
	Dir    string
	Filter scale.Filter
	log    zerolog.Logger
}

func New(dir string, filter scale.Filter, log zerolog.Logger) *Exporter {
	return &Exporter{Dir: dir, Filter: filter, log: log}
}

// EnsureDir creates the output directory, parents included, when it is missing.
func (e *Exporter) EnsureDir() error {
	st, err := os.Stat(e.Dir)
	switch {
	case err == nil && st.IsDir():
		e.log.Info().Str("dir", e.Dir).Msg("output directory")
		return nil
	case err == nil:
		return diagnostics.IO("output", e.Dir, fmt.Errorf("not a directory"))
	case !os.IsNotExist(err):
		return diagnostics.IO("stat", e.Dir, err)
	}
	e.log.Info().Str("dir", e.Dir).Msg("output directory does not exist; creating")
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return diagnostics.IO("mkdir", e.Dir, err)
	}
	return nil
}

// Export writes img scaled by factor as <label>_<w>x<h>.png and returns the
// path written. A non-positive factor, or one that empties the image, returns
// a skippable error and writes nothing.
func (e *Exporter) Export(label string, img image.Image, factor float32) (string, error) {
	b := img.Bounds()
	w, h, err := scale.Dimensions(b.Dx(), b.Dy(), factor)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.Dir, Name(label, w, h))
	e.log.Info().Str("file", Name(label, w, h)).Float32("scale", factor).Msg("generating")
	if err := SaveAs(path, img, w, h, e.Filter); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAs writes img to path as PNG. When w x h differs from the image size the
// image is resampled with filter first.
func SaveAs(path string, img image.Image, w, h int, filter scale.Filter) error {
	if w < 1 || h < 1 {
		return diagnostics.Skip("save", fmt.Errorf("cannot save an empty %dx%d image", w, h))
	}
	b := img.Bounds()
	out := img
	if b.Dx() != w || b.Dy() != h {
		out = imaging.Resize(img, w, h, filter.Resample())
	}
	if err := imaging.Save(out, path); err != nil {
		return diagnostics.IO("save", path, err)
	}
	return nil
}
