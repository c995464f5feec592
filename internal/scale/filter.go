package scale

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"
)

// Filter selects the resampling kernel used when a scale factor is not 1.
type Filter int

const (
	Lanczos3 Filter = iota
	Nearest
	Bilinear
	CatmullRom
	Gaussian
)

var filterNames = map[Filter]string{
	Nearest:    "nearest",
	Bilinear:   "bilinear",
	CatmullRom: "catmull-rom",
	Gaussian:   "gaussian",
	Lanczos3:   "lanczos3",
}

// Filters lists every filter in the order the UI shows them.
func Filters() []Filter {
	return []Filter{Nearest, Bilinear, CatmullRom, Gaussian, Lanczos3}
}

func (f Filter) String() string {
	if s, ok := filterNames[f]; ok {
		return s
	}
	return fmt.Sprintf("filter(%d)", int(f))
}

// ParseFilter accepts the command-line names, case-insensitively.
func ParseFilter(s string) (Filter, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range filterNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q (want nearest, bilinear, catmull-rom, gaussian or lanczos3)", s)
}

// Resample maps the filter onto the imaging kernel.
func (f Filter) Resample() imaging.ResampleFilter {
	switch f {
	case Nearest:
		return imaging.NearestNeighbor
	case Bilinear:
		return imaging.Linear
	case CatmullRom:
		return imaging.CatmullRom
	case Gaussian:
		return imaging.Gaussian
	default:
		return imaging.Lanczos
	}
}

// Set implements flag.Value.
func (f *Filter) Set(s string) error {
	v, err := ParseFilter(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f Filter) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Filter) UnmarshalText(b []byte) error { return f.Set(string(b)) }

func (f Filter) MarshalYAML() (any, error) { return f.String(), nil }

func (f *Filter) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return f.Set(s)
}
