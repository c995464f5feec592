// Package preview holds the interactive preview state independent of any UI
// host. A host calls Update once per frame and redraws only when it reports a
// change.
package preview

import (
	"errors"
	"image"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/Rifine/smix/internal/export"
	"github.com/Rifine/smix/internal/mask"
	"github.com/Rifine/smix/internal/mix"
	"github.com/Rifine/smix/internal/scale"
)

const (
	MinScale = 0.1
	MaxScale = 5
)

// Args is everything a rendered preview depends on.
type Args struct {
	Weight mix.Weight `json:"weights"`
	Scale  float32    `json:"scale"`
	Key    string     `json:"key"`
}

type State int

const (
	Clean State = iota
	Dirty
)

func (s State) String() string {
	if s == Clean {
		return "clean"
	}
	return "dirty"
}

// Session is the preview state machine. It is not safe for concurrent use.
type Session struct {
	masks   *mask.Collection
	size    int
	current Args
	last    Args
	frame   *image.NRGBA
	frameID uint64
	Filter  scale.Filter
	log     zerolog.Logger
}

// New starts a session on the first mask set in masks. The first Update
// always renders.
func New(w mix.Weight, masks *mask.Collection, size int, log zerolog.Logger) (*Session, error) {
	if masks.Len() == 0 {
		return nil, errors.New("preview: no mask sets loaded")
	}
	if size <= 0 {
		size = 256
	}
	return &Session{
		masks:   masks,
		size:    size,
		current: Args{Weight: w, Scale: 1, Key: masks.Labels()[0]},
		Filter:  scale.Lanczos3,
		log:     log,
	}, nil
}

func (s *Session) State() State {
	if s.frame == nil || s.current != s.last {
		return Dirty
	}
	return Clean
}

func (s *Session) Current() Args { return s.current }

func (s *Session) Keys() []string { return s.masks.Labels() }

func (s *Session) Size() int { return s.size }

// FrameID counts renders.
func (s *Session) FrameID() uint64 { return s.frameID }

// SetWeight sets one channel weight, clamped to 0..1.
func (s *Session) SetWeight(channel int, v float32) {
	if channel < 0 || channel > 2 {
		return
	}
	s.current.Weight[channel] = clamp(v, 0, 1)
}

func (s *Session) SetWeights(w mix.Weight) {
	for i, v := range w {
		s.SetWeight(i, v)
	}
}

// SetScale sets the export scale, clamped to MinScale..MaxScale.
func (s *Session) SetScale(v float32) { s.current.Scale = clamp(v, MinScale, MaxScale) }

// Select switches to another mask set. Unknown keys are ignored.
func (s *Session) Select(key string) bool {
	if _, ok := s.masks.Get(key); !ok {
		return false
	}
	s.current.Key = key
	return true
}

// WeightPtr exposes a weight for widgets that bind to a pointer. Values
// written through it are clamped on the next Update.
func (s *Session) WeightPtr(channel int) *float32 { return &s.current.Weight[channel] }

// ScalePtr exposes the scale for widgets that bind to a pointer.
func (s *Session) ScalePtr() *float32 { return &s.current.Scale }

// Update renders when the state is Dirty and returns the frame and whether it
// changed. It moves the session to Clean.
func (s *Session) Update() (*image.NRGBA, bool) {
	s.SetWeights(s.current.Weight)
	s.SetScale(s.current.Scale)
	if s.State() == Clean {
		return s.frame, false
	}
	s.frame = s.Render()
	s.last = s.current
	s.frameID++
	return s.frame, true
}

// Render draws the current selection at the preview size with
// nearest-neighbour sampling.
func (s *Session) Render() *image.NRGBA {
	src := s.full()
	dst := image.NewNRGBA(image.Rect(0, 0, s.size, s.size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func (s *Session) full() *image.NRGBA {
	set, _ := s.masks.Get(s.current.Key)
	return set.Generate(s.current.Weight)
}

// ExportSize is the size a save writes at the current scale.
func (s *Session) ExportSize() (int, int, error) {
	set, _ := s.masks.Get(s.current.Key)
	size := set.Size()
	return scale.Dimensions(size.X, size.Y, s.current.Scale)
}

// SuggestedName is the default file name for a save.
func (s *Session) SuggestedName() string {
	w, h, err := s.ExportSize()
	if err != nil {
		return s.current.Key + ".png"
	}
	return export.Name(s.current.Key, w, h)
}

// Save regenerates the full-resolution image and writes it to path at the
// current scale using filter.
func (s *Session) Save(path string, filter scale.Filter) error {
	w, h, err := s.ExportSize()
	if err != nil {
		return err
	}
	if err := export.SaveAs(path, s.full(), w, h, filter); err != nil {
		return err
	}
	s.log.Info().Str("path", path).Int("width", w).Int("height", h).Str("filter", filter.String()).Msg("saved image")
	return nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
