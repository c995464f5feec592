package scale

import (
	"fmt"
	"sort"

	"github.com/Rifine/smix/internal/diagnostics"
)

// Normalize returns factors plus 1.0, sorted ascending with duplicates removed.
// Non-positive factors are kept; they are rejected one by one at export time.
func Normalize(factors []float32) []float32 {
	out := make([]float32, 0, len(factors)+1)
	out = append(out, factors...)
	out = append(out, 1)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	n := 0
	for i, f := range out {
		if i > 0 && f == out[n-1] {
			continue
		}
		out[n] = f
		n++
	}
	return out[:n]
}

// MaxPixels bounds the size of one output image.
const MaxPixels = 1 << 28

// Dimensions returns the output size for factor, truncating toward zero.
// It fails with a skippable error when factor is not positive, when the
// result would be empty or when it would exceed MaxPixels.
func Dimensions(width, height int, factor float32) (int, int, error) {
	if !(factor > 0) {
		return 0, 0, diagnostics.Skip("scale", fmt.Errorf("scale factor should be positive, but %v is not", factor))
	}
	fw := float32(width) * factor
	fh := float32(height) * factor
	if float64(fw)*float64(fh) > MaxPixels {
		return 0, 0, diagnostics.Skip("scale", fmt.Errorf("scale factor %v turns %dx%d into %.0fx%.0f, over the %d pixel limit", factor, width, height, fw, fh, MaxPixels))
	}
	w := int(fw)
	h := int(fh)
	if w < 1 || h < 1 {
		return 0, 0, diagnostics.Skip("scale", fmt.Errorf("scale factor %v turns %dx%d into an empty %dx%d image", factor, width, height, w, h))
	}
	return w, h, nil
}
