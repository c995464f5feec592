package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rifine/smix/internal/batch"
	"github.com/Rifine/smix/internal/config"
	"github.com/Rifine/smix/internal/mask"
	"github.com/Rifine/smix/internal/preview"
	"github.com/Rifine/smix/internal/ws"
)

// serveFPS is the render loop rate of the websocket host.
const serveFPS = 30

func main() {
	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Parse(os.Args[1:], config.Options{Name: "smix"})
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(1)
	}

	if cfg.Serve != "" {
		err = serve(cfg)
	} else {
		if cfg.Preview {
			log.Warn().Msg("preview window needs smix-gui; use --serve for a browser preview. Exporting instead")
		}
		_, err = batch.New(cfg, log.Logger).Run()
	}
	if err != nil {
		log.Error().Err(err).Msg("smix failed")
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	masks, err := mask.LoadAll(cfg.MaskDirectories, log.Logger)
	if err != nil {
		return err
	}
	session, err := preview.New(cfg.Weight(), masks, cfg.PreviewSize, log.Logger)
	if err != nil {
		return err
	}
	session.Filter = cfg.Filter

	// ---- HTTP routes ----
	state := ws.NewState(session, serveFPS, cfg.Output, log.Logger)
	state.AllowedOrigins = cfg.AllowOrigins
	mux := http.NewServeMux()
	state.Routes(mux)

	srv := &http.Server{
		Addr:         cfg.Serve,
		Handler:      withCORS(mux, state.CheckOrigin),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Run render loop & server ----
	go state.RunRenderLoop(ctx)
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Serve).Strs("masks", masks.Labels()).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// ---- Graceful shutdown ----
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}

// withCORS echoes the request origin only when allowed accepts it.
func withCORS(h http.Handler, allowed func(*http.Request) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if !allowed(r) {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
