package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/mix"
	"github.com/Rifine/smix/internal/scale"
)

const (
	DefaultOutput      = "output"
	DefaultPreviewSize = 256
)

// Config is the effective run configuration. It is built once by Parse and
// not modified afterwards.
type Config struct {
	Weights         *[3]float32  `yaml:"weights,omitempty"`
	Output          string       `yaml:"output"`
	MaskDirectories []string     `yaml:"mask_directories"`
	Scales          []float32    `yaml:"scale,omitempty"`
	Filter          scale.Filter `yaml:"filter"`
	Preview         bool         `yaml:"preview"`
	PreviewSize     int          `yaml:"preview_size,omitempty"`
	Serve           string       `yaml:"serve,omitempty"`
	AllowOrigins    []string     `yaml:"allow_origins,omitempty"`

	// previewSet records that a loaded file named preview at all, so that an
	// explicit false still overrides the binary default.
	previewSet bool
}

// Weight returns the configured weights, zero when none were given.
func (c *Config) Weight() mix.Weight {
	if c.Weights == nil {
		return mix.Weight{}
	}
	return mix.Weight(*c.Weights)
}

var channelNames = [3]string{"Red", "Green", "Blue"}

// Validate checks ranges. It never touches the filesystem.
func (c *Config) Validate() error {
	if c.Weights == nil {
		return diagnostics.Validationf("r, g and b weights are required")
	}
	for i, w := range c.Weights {
		if !(w >= 0 && w <= 1) {
			return diagnostics.Validationf("%s weight must be in [0, 1], got %v", channelNames[i], w)
		}
	}
	if len(c.MaskDirectories) == 0 {
		return diagnostics.Validationf("at least one mask directory is required")
	}
	if c.Output == "" {
		return diagnostics.Validationf("output directory cannot be empty")
	}
	if c.PreviewSize <= 0 {
		return diagnostics.Validationf("preview size must be positive, got %d", c.PreviewSize)
	}
	return nil
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, diagnostics.IO("read config", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, diagnostics.IO("parse config", path, err)
	}
	var present struct {
		Preview *bool `yaml:"preview"`
	}
	if err := yaml.Unmarshal(b, &present); err != nil {
		return nil, diagnostics.IO("parse config", path, err)
	}
	c.previewSet = present.Preview != nil
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return diagnostics.IO("write config", path, err)
	}
	return nil
}
