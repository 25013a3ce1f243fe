// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command daemon runs the reelforge backend: HTTP API, worker pool,
// and retention sweeper in one process.
package main

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ManuGH/reelforge/internal/api"
	"github.com/ManuGH/reelforge/internal/cleanup"
	"github.com/ManuGH/reelforge/internal/config"
	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/store"
	"github.com/ManuGH/reelforge/internal/pipeline/worker"
	"github.com/ManuGH/reelforge/internal/render"
	"github.com/ManuGH/reelforge/internal/script"
	"github.com/ManuGH/reelforge/internal/tts"
	"github.com/ManuGH/reelforge/internal/visuals"
	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger := log.L()
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Configure(log.Config{Level: cfg.LogLevel})
	logger := log.WithComponent("daemon")

	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatal().Err(err).Msg("creating data directories failed")
	}

	st, err := store.Open(cfg.JobStoreBackend, cfg.JobStoreDir())
	if err != nil {
		logger.Fatal().Err(err).Msg("opening job store failed")
	}
	defer func() { _ = st.Close() }()

	marked, err := cleanup.LoadMarkedSet(cfg.MarkedFile())
	if err != nil {
		logger.Fatal().Err(err).Msg("loading mark file failed")
	}

	proc := &worker.Processor{
		Store:   st,
		Oracle:  buildOracle(cfg),
		TTS:     tts.Select(cfg.ElevenLabsAPIKey),
		Visuals: buildVisuals(cfg),
		Render:  render.NewAdapter(cfg.FFmpegBin, cfg.TempRenderDir()),
		Cfg:     cfg,
	}
	pool := worker.NewPool(st, proc, cfg.MaxConcurrentJobs)

	sweeper := cleanup.NewSweeper(
		cfg.SweepDirs(), cfg.RetentionAge(), cfg.CleanupInterval(),
		marked, st.ActiveIDs,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pool.Run(ctx)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:           api.NewServer(cfg, st, pool, marked).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Str("env", cfg.NodeEnv).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, syscall.EADDRINUSE) {
			logger.Error().Err(err).Int("port", cfg.Port).Msg("port already in use")
			os.Exit(1)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown incomplete")
		}
	}
}

// buildOracle assembles the script oracle from the configured providers.
// With no keys at all, the adapter serves the deterministic fallback.
func buildOracle(cfg config.Config) script.Oracle {
	var gemini *script.GeminiClient
	var keys *script.KeyRing
	if cfg.GeminiEnabled && len(cfg.GeminiKeys()) > 0 {
		gemini = script.NewGeminiClient()
		keys = script.NewKeyRing(cfg.GeminiKeys())
	}
	var groq *script.GroqClient
	if cfg.GroqAPIKey != "" {
		groq = script.NewGroqClient(cfg.GroqAPIKey)
	}
	return script.NewAdapter(gemini, keys, groq, cfg.GeminiMinInterval(), true)
}

// buildVisuals assembles the stock footage pipeline. Without a Pexels
// key the mock provider keeps the pipeline fully functional offline.
func buildVisuals(cfg config.Config) *visuals.Builder {
	cache := visuals.NewCache()
	download := visuals.NewDownloader(cfg.ClipsDir(), placeholderClip(cfg.ClipsDir()), cache)

	var providers []visuals.Provider
	if cfg.PexelsAPIKey != "" {
		providers = append(providers, visuals.NewPexelsProvider(cfg.PexelsAPIKey))
	}
	providers = append(providers, &visuals.MockProvider{})

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- visual variety only
	return visuals.NewBuilder(cache, download, rng, providers...)
}

// placeholderClip returns the shared placeholder clip when one has been
// provisioned. An empty path makes the downloader fall back to stub
// files, so keyless mock mode works on a fresh data directory.
func placeholderClip(clipsDir string) string {
	p := filepath.Join(clipsDir, "placeholder.mp4")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
