package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rifine/smix/internal/batch"
	"github.com/Rifine/smix/internal/config"
	"github.com/Rifine/smix/internal/gui"
	"github.com/Rifine/smix/internal/mask"
	"github.com/Rifine/smix/internal/preview"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Parse(os.Args[1:], config.Options{Name: "smix-gui", PreviewDefault: true})
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(1)
	}

	if cfg.Preview {
		err = run(cfg)
	} else {
		_, err = batch.New(cfg, log.Logger).Run()
	}
	if err != nil {
		log.Error().Err(err).Msg("smix-gui failed")
		os.Exit(1)
	}
}

// run opens the preview window. It blocks until the window is closed.
func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	w := cfg.Weight()
	log.Info().Msgf("RGB weights: (%v, %v, %v)", w[0], w[1], w[2])
	masks, err := mask.LoadAll(cfg.MaskDirectories, log.Logger)
	if err != nil {
		return err
	}
	session, err := preview.New(w, masks, cfg.PreviewSize, log.Logger)
	if err != nil {
		return err
	}
	session.Filter = cfg.Filter
	gui.NewIMWindow(session, nil, log.Logger).Start()
	return nil
}
