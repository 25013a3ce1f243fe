// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads and validates process configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the complete runtime configuration of the daemon.
type Config struct {
	Port    int    `envconfig:"PORT" default:"5001"`
	NodeEnv string `envconfig:"NODE_ENV" default:"development"`

	// Script oracle
	GeminiAPIKey        string `envconfig:"GEMINI_API_KEY"`
	GeminiAPIKey2       string `envconfig:"GEMINI_API_KEY_2"`
	GeminiAPIKey3       string `envconfig:"GEMINI_API_KEY_3"`
	GeminiAPIKey4       string `envconfig:"GEMINI_API_KEY_4"`
	GeminiAPIKey5       string `envconfig:"GEMINI_API_KEY_5"`
	GeminiEnabled       bool   `envconfig:"GEMINI_ENABLED" default:"true"`
	GeminiMinIntervalMS int    `envconfig:"GEMINI_MIN_INTERVAL_MS" default:"1000"`
	GroqAPIKey          string `envconfig:"GROQ_API_KEY"`

	// Media providers
	ElevenLabsAPIKey string `envconfig:"ELEVENLABS_API_KEY"`
	PexelsAPIKey     string `envconfig:"PEXELS_API_KEY"`

	// Pipeline
	MaxConcurrentJobs int    `envconfig:"MAX_CONCURRENT_JOBS" default:"3"`
	FFmpegBin         string `envconfig:"FFMPEG_BIN" default:"ffmpeg"`

	// Filesystem
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// JobStoreBackend selects job persistence: "memory" (default) or
	// "badger" for restart-safe queues.
	JobStoreBackend string `envconfig:"JOB_STORE" default:"memory"`

	// Retention
	RetentionDays        int `envconfig:"RETENTION_DAYS" default:"7"`
	CleanupIntervalHours int `envconfig:"CLEANUP_INTERVAL_HOURS" default:"24"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MaxConcurrentJobs < 1 {
		return fmt.Errorf("MAX_CONCURRENT_JOBS must be >= 1, got %d", c.MaxConcurrentJobs)
	}
	if c.GeminiMinIntervalMS < 0 {
		return fmt.Errorf("GEMINI_MIN_INTERVAL_MS must be >= 0, got %d", c.GeminiMinIntervalMS)
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("RETENTION_DAYS must be >= 1, got %d", c.RetentionDays)
	}
	return nil
}

// GeminiKeys returns the configured Gemini API keys in rotation order,
// skipping empty slots.
func (c Config) GeminiKeys() []string {
	raw := []string{c.GeminiAPIKey, c.GeminiAPIKey2, c.GeminiAPIKey3, c.GeminiAPIKey4, c.GeminiAPIKey5}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// GeminiMinInterval returns the minimum spacing between oracle calls.
func (c Config) GeminiMinInterval() time.Duration {
	return time.Duration(c.GeminiMinIntervalMS) * time.Millisecond
}

// RetentionAge returns the file age past which the sweeper deletes.
func (c Config) RetentionAge() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// CleanupInterval returns the period between retention sweeps.
func (c Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalHours) * time.Hour
}

// Directory layout under DataDir. Filenames written into these embed the
// owning job ID so the retention sweeper can protect marked jobs.

// AssetsDir is the static root for audio and clip assets.
func (c Config) AssetsDir() string { return filepath.Join(c.DataDir, "assets") }

// AudioDir holds synthesized voice tracks.
func (c Config) AudioDir() string { return filepath.Join(c.DataDir, "assets", "audio") }

// ClipsDir holds downloaded and placeholder stock footage.
func (c Config) ClipsDir() string { return filepath.Join(c.DataDir, "assets", "clips") }

// TempOutputDir holds finished videos awaiting pickup.
func (c Config) TempOutputDir() string { return filepath.Join(c.DataDir, "temp_output") }

// TempRenderDir holds per-scene render intermediates.
func (c Config) TempRenderDir() string { return filepath.Join(c.DataDir, "temp_render") }

// CacheRenderDir holds reusable render artifacts.
func (c Config) CacheRenderDir() string { return filepath.Join(c.DataDir, "cache_render") }

// MarkedFile is the persisted set of retention-protected job IDs.
func (c Config) MarkedFile() string { return filepath.Join(c.DataDir, "marked_assets.json") }

// JobStoreDir is the badger database directory.
func (c Config) JobStoreDir() string { return filepath.Join(c.DataDir, "jobstore") }

// SweepDirs lists the directories subject to retention sweeps.
func (c Config) SweepDirs() []string {
	return []string{c.AudioDir(), c.ClipsDir(), c.TempOutputDir(), c.TempRenderDir(), c.CacheRenderDir()}
}

// EnsureDirs creates the directory layout on demand.
func (c Config) EnsureDirs() error {
	for _, dir := range c.SweepDirs() {
		// #nosec G301 -- served media, 0755 intended
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
