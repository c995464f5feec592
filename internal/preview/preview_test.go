package preview

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/mask"
	"github.com/Rifine/smix/internal/mix"
	"github.com/Rifine/smix/internal/scale"
	"github.com/Rifine/smix/internal/tests"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	root := t.TempDir()
	a := tests.WritePlan(t, root, "alpha", tests.Plan{Kind: tests.RGBTest, Width: 8, Height: 4})
	b := tests.WritePlan(t, root, "beta", tests.Plan{Kind: tests.Checker, Width: 2, Height: 2})
	masks, err := mask.LoadAll([]string{a, b}, zerolog.Nop())
	require.NoError(t, err)
	s, err := New(mix.Weight{1, 0, 0}, masks, 16, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestNewRequiresMasks(t *testing.T) {
	_, err := New(mix.Weight{}, mask.NewCollection(), 256, zerolog.Nop())
	assert.Error(t, err)
}

func TestStateMachine(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, Dirty, s.State(), "first frame always renders")
	assert.Equal(t, "alpha", s.Current().Key)

	img, changed := s.Update()
	require.True(t, changed)
	assert.Equal(t, Clean, s.State())
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
	assert.Equal(t, uint64(1), s.FrameID())

	_, changed = s.Update()
	assert.False(t, changed, "clean state does not re-render")

	s.SetWeight(1, 0.5)
	assert.Equal(t, Dirty, s.State())
	_, changed = s.Update()
	assert.True(t, changed)

	s.SetWeight(1, 0.5)
	assert.Equal(t, Clean, s.State(), "same value is not an edit")

	assert.True(t, s.Select("beta"))
	assert.Equal(t, Dirty, s.State())
	s.Update()

	assert.False(t, s.Select("gamma"))
	assert.Equal(t, Clean, s.State())

	s.SetScale(2)
	assert.Equal(t, Dirty, s.State())
	s.Update()
	assert.Equal(t, uint64(4), s.FrameID())
}

func TestPointerEditsAreClamped(t *testing.T) {
	s := newSession(t)
	s.Update()

	*s.WeightPtr(0) = 3
	*s.ScalePtr() = 0
	assert.Equal(t, Dirty, s.State())
	s.Update()
	assert.Equal(t, mix.Weight{1, 0, 0}, s.Current().Weight)
	assert.Equal(t, float32(MinScale), s.Current().Scale)
	assert.Equal(t, Clean, s.State())
}

func TestRenderContent(t *testing.T) {
	s := newSession(t)
	s.SetWeights(mix.Weight{0, 0, 1})
	img, _ := s.Update()
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.NRGBAAt(7, 7))

	s.Select("beta")
	img, _ = s.Update()
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(15, 0), "transparent checker cell")
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).A)
}

func TestSuggestedNameAndSave(t *testing.T) {
	s := newSession(t)
	s.SetScale(1.5)
	assert.Equal(t, "alpha_12x6.png", s.SuggestedName())

	path := filepath.Join(t.TempDir(), s.SuggestedName())
	require.NoError(t, s.Save(path, scale.Nearest))
	out := tests.ReadPNG(t, path)
	assert.Equal(t, image.Rect(0, 0, 12, 6), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(3, 3))
}

func TestSaveUnwritable(t *testing.T) {
	s := newSession(t)
	err := s.Save(filepath.Join(t.TempDir(), "missing", "x.png"), scale.Lanczos3)
	assert.Equal(t, diagnostics.IOFailure, diagnostics.KindOf(err))
}
