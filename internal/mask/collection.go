package mask

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Collection keeps mask sets by label in the order they were added.
type Collection struct {
	order []string
	sets  map[string]*Set
}

func NewCollection() *Collection {
	return &Collection{sets: map[string]*Set{}}
}

// Add stores s under its label and reports whether an earlier set was
// replaced. A replaced set keeps its original position.
func (c *Collection) Add(s *Set) bool {
	_, dup := c.sets[s.Label]
	if !dup {
		c.order = append(c.order, s.Label)
	}
	c.sets[s.Label] = s
	return dup
}

func (c *Collection) Get(label string) (*Set, bool) {
	s, ok := c.sets[label]
	return s, ok
}

// Labels returns labels in insertion order.
func (c *Collection) Labels() []string {
	return append([]string(nil), c.order...)
}

func (c *Collection) Len() int { return len(c.order) }

// LoadAll loads every directory and stops at the first failure.
func LoadAll(dirs []string, log zerolog.Logger) (*Collection, error) {
	c := NewCollection()
	for _, dir := range dirs {
		s, err := Load(dir)
		if err != nil {
			return nil, fmt.Errorf("load masks: %w", err)
		}
		size := s.Size()
		if c.Add(s) {
			log.Warn().Str("label", s.Label).Str("dir", dir).Msg("mask label reused; later directory wins")
		}
		log.Debug().Str("label", s.Label).Int("width", size.X).Int("height", size.Y).Msg("mask set loaded")
	}
	return c, nil
}
