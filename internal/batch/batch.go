// Package batch runs the non-interactive export: every mask set at every scale factor.
package batch

import (
	"image"

	"github.com/rs/zerolog"

	"github.com/Rifine/smix/internal/config"
	"github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/export"
	"github.com/Rifine/smix/internal/mask"
)

// Output records one export attempt.
type Output struct {
	Label   string
	Scale   float32
	Path    string
	Skipped error
}

// Tool owns the generated images of one run.
type Tool struct {
	cfg    *config.Config
	log    zerolog.Logger
	exp    *export.Exporter
	labels []string
	images map[string]*image.NRGBA
}

func New(cfg *config.Config, log zerolog.Logger) *Tool {
	return &Tool{
		cfg:    cfg,
		log:    log,
		exp:    export.New(cfg.Output, cfg.Filter, log),
		images: map[string]*image.NRGBA{},
	}
}

// Run validates the config, prepares the output directory, loads and blends
// every mask set, then exports them.
func (t *Tool) Run() ([]Output, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}
	w := t.cfg.Weight()
	t.log.Info().Msgf("RGB weights: (%v, %v, %v)", w[0], w[1], w[2])

	if err := t.exp.EnsureDir(); err != nil {
		return nil, err
	}
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t.Generate()
}

// Load reads every mask directory and blends it with the configured weights.
func (t *Tool) Load() error {
	sets, err := mask.LoadAll(t.cfg.MaskDirectories, t.log)
	if err != nil {
		return err
	}
	w := t.cfg.Weight()
	t.labels = sets.Labels()
	for _, label := range t.labels {
		s, _ := sets.Get(label)
		t.images[label] = s.Generate(w)
	}
	return nil
}

// Generate exports every loaded image at every scale factor. Skippable
// failures are logged and recorded; the first other failure aborts.
func (t *Tool) Generate() ([]Output, error) {
	var outs []Output
	for i, s := range t.cfg.Scales {
		for _, label := range t.labels {
			path, err := t.exp.Export(label, t.images[label], s)
			if diagnostics.IsSkippable(err) {
				t.log.Warn().Err(err).Int("index", i).Str("label", label).Msg("skipping output")
				outs = append(outs, Output{Label: label, Scale: s, Skipped: err})
				continue
			}
			if err != nil {
				return outs, err
			}
			t.log.Info().Str("path", path).Msg("done")
			outs = append(outs, Output{Label: label, Scale: s, Path: path})
		}
	}
	return outs, nil
}
