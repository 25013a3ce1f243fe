// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	oracleCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelforge_oracle_calls_total",
		Help: "Oracle calls by provider and result",
	}, []string{"provider", "result"})

	oracleRotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelforge_oracle_key_rotations_total",
		Help: "API key rotations triggered by quota errors",
	})

	oracleFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelforge_oracle_fallback_scripts_total",
		Help: "Canned fallback scripts served after oracle exhaustion",
	})
)

// Oracle produces a Script for a topic request. Implementations wrap
// external language models; a mock satisfies the same contract in tests.
type Oracle interface {
	GenerateScript(ctx context.Context, req Request) (model.Script, error)
}

const (
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxRetries = 3
	maxJitter         = 500 * time.Millisecond
)

// Adapter drives the primary and secondary oracles with pacing, key
// rotation, backoff, and the deterministic last-resort script.
type Adapter struct {
	Gemini *GeminiClient
	Keys   *KeyRing
	Groq   *GroqClient

	// Limiter enforces the process-wide minimum interval between calls.
	Limiter *rate.Limiter

	// AllowFallback permits the canned skeleton after total exhaustion.
	AllowFallback bool

	BaseDelay  time.Duration
	MaxRetries int

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewAdapter wires an adapter. gemini may be nil when disabled; groq may
// be nil when keyless.
func NewAdapter(gemini *GeminiClient, keys *KeyRing, groq *GroqClient, minInterval time.Duration, allowFallback bool) *Adapter {
	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Adapter{
		Gemini:        gemini,
		Keys:          keys,
		Groq:          groq,
		Limiter:       limiter,
		AllowFallback: allowFallback,
		BaseDelay:     defaultBaseDelay,
		MaxRetries:    defaultMaxRetries,
		sleep:         sleepCtx,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter only
	}
}

// GenerateScript implements Oracle.
func (a *Adapter) GenerateScript(ctx context.Context, req Request) (model.Script, error) {
	logger := log.WithComponentFromContext(ctx, "oracle")
	prompt := BuildPrompt(req)

	if a.Gemini != nil && a.Keys != nil && !a.Keys.Empty() {
		text, err := a.withRetries(ctx, "gemini", func(ctx context.Context) (string, error) {
			return a.Gemini.Generate(ctx, a.Keys.Current(), prompt)
		})
		if err == nil {
			return ParseScript(text)
		}
		logger.Warn().Err(err).Msg("primary oracle exhausted, trying secondary")
	}

	if a.Groq != nil && a.Groq.APIKey != "" {
		text, err := a.withRetries(ctx, "groq", func(ctx context.Context) (string, error) {
			return a.Groq.Generate(ctx, prompt)
		})
		if err == nil {
			return ParseScript(text)
		}
		logger.Warn().Err(err).Msg("secondary oracle exhausted")
	}

	if a.AllowFallback {
		oracleFallbackTotal.Inc()
		logger.Warn().Str(log.FieldTopic, req.Topic).Msg("serving deterministic fallback script")
		return FallbackScript(req.Topic), nil
	}

	return model.Script{}, model.NewStageError("script", model.ErrOracleFatal, "all oracle attempts failed")
}

// withRetries applies the failure policy: non-429 4xx is fatal; 429
// rotates keys and retries immediately once per cycle; everything else
// backs off exponentially with jitter up to MaxRetries.
func (a *Adapter) withRetries(ctx context.Context, provider string, call func(context.Context) (string, error)) (string, error) {
	maxRetries := a.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := a.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	retries := 0
	for {
		if err := a.wait(ctx); err != nil {
			return "", err
		}

		text, err := call(ctx)
		if err == nil {
			oracleCallsTotal.WithLabelValues(provider, "ok").Inc()
			return text, nil
		}
		oracleCallsTotal.WithLabelValues(provider, "error").Inc()

		var httpErr *HTTPStatusError
		if errors.As(err, &httpErr) {
			if httpErr.Status == http.StatusTooManyRequests {
				if provider == "gemini" && a.Keys != nil && a.Keys.Len() > 1 {
					if wrapped := a.Keys.Rotate(); !wrapped {
						oracleRotationsTotal.Inc()
						continue // fresh key, retry immediately
					}
				}
			} else if httpErr.Status >= 400 && httpErr.Status < 500 {
				return "", model.WrapStageError("script", model.ErrOracleFatal, "oracle rejected request", err)
			}
		}

		if retries >= maxRetries {
			return "", err
		}
		delay := baseDelay*(1<<retries) + a.jitter()
		if serr := a.sleep(ctx, delay); serr != nil {
			return "", serr
		}
		retries++
	}
}

func (a *Adapter) wait(ctx context.Context) error {
	if a.Limiter == nil {
		return nil
	}
	return a.Limiter.Wait(ctx)
}

func (a *Adapter) jitter() time.Duration {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	if a.rng == nil {
		return 0
	}
	return time.Duration(a.rng.Int63n(int64(maxJitter)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
