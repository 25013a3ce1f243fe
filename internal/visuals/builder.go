// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package visuals

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	fallbackLayerTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelforge_visuals_fallback_layer_total",
		Help: "Asset selections by fallback layer",
	}, []string{"layer"})

	reuseTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelforge_visuals_reuse_total",
		Help: "Asset reuses forced by supply shortage",
	})
)

const (
	// MinClipMS and MaxClipMS bound every placed clip.
	MinClipMS = 800
	MaxClipMS = 3000

	// fallbacksKey caches the generic provider fallback list.
	fallbacksKey = "fallbacks"
)

// Builder constructs contiguous visual timelines. The RNG is injected so
// tests can seed it; the coverage invariants hold for any seed.
type Builder struct {
	Cache     *Cache
	Providers []Provider
	Download  *Downloader

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewBuilder wires a builder over the given providers, tried in order.
func NewBuilder(cache *Cache, download *Downloader, rng *rand.Rand, providers ...Provider) *Builder {
	return &Builder{
		Cache:     cache,
		Providers: providers,
		Download:  download,
		rng:       rng,
	}
}

// Build covers [0, durationMS] with clips selected for the scene's
// keywords, cycling keywords and falling back through supply layers.
func (b *Builder) Build(ctx context.Context, jobID string, keywords []string, durationMS int, usage *Usage) ([]model.VisualClip, error) {
	logger := log.WithComponentFromContext(ctx, "visuals")

	if len(keywords) == 0 {
		keywords = []string{fallbackKeywords[0]}
	}

	if err := b.prefetch(ctx, keywords); err != nil {
		return nil, model.WrapStageError("visuals", model.ErrUnknown, "prefetch failed", err)
	}

	unique := usage.CountUnused(b.Cache.All())
	allowReuse := unique*MaxClipMS < durationMS
	if allowReuse {
		logger.Warn().Int("unique_assets", unique).Int(log.FieldDurationMS, durationMS).
			Msg("asset supply short, enabling last-resort reuse")
	}

	minClip := MinClipMS
	if unique > 0 {
		minClip = int(math.Ceil(float64(durationMS) / float64(unique)))
	} else {
		minClip = durationMS
	}
	if minClip < MinClipMS {
		minClip = MinClipMS
	}
	if minClip > MaxClipMS {
		minClip = MaxClipMS
	}

	var clips []model.VisualClip
	cursor := 0
	kwIdx := 0
	prevID := ""

	for cursor < durationMS {
		rem := durationMS - cursor
		clipDur := b.randRange(minClip, MaxClipMS)
		if clipDur > rem {
			clipDur = rem
		}
		// Tail lookahead: never leave an unformable (0, MinClipMS) remainder.
		if after := rem - clipDur; after > 0 && after < MinClipMS {
			if rem <= MaxClipMS {
				clipDur = rem
			} else {
				clipDur = rem - MinClipMS
			}
		}

		keyword := keywords[kwIdx%len(keywords)]
		kwIdx++

		asset, reused, err := b.selectAsset(ctx, keyword, usage, prevID, allowReuse)
		if err != nil {
			return nil, err
		}

		path, err := b.Download.Ensure(ctx, jobID, asset)
		if err != nil {
			return nil, model.WrapStageError("visuals", model.ErrAssetMissing, "asset fetch failed", err)
		}
		usage.MarkUsed(asset.ID)

		clips = append(clips, model.VisualClip{
			ClipID:   asset.ID,
			Provider: asset.Provider,
			Path:     path,
			StartMS:  cursor,
			EndMS:    cursor + clipDur,
			Keyword:  keyword,
			Zoom:     b.randZoom(),
			Pan:      b.randPan(),
			Reused:   reused,
		})

		prevID = asset.ID
		cursor += clipDur
	}

	return clips, nil
}

// prefetch searches every distinct keyword concurrently and caches the
// results, plus the generic fallback list.
func (b *Builder) prefetch(ctx context.Context, keywords []string) error {
	distinct := make(map[string]struct{})
	for _, kw := range keywords {
		distinct[strings.ToLower(kw)] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for kw := range distinct {
		kw := kw
		if _, ok := b.Cache.Get(kw); ok {
			continue
		}
		g.Go(func() error {
			b.Cache.Put(kw, b.searchAny(gctx, kw))
			return nil
		})
	}
	if _, ok := b.Cache.Get(fallbacksKey); !ok {
		g.Go(func() error {
			b.Cache.Put(fallbacksKey, b.fallbacksAny(gctx))
			return nil
		})
	}
	return g.Wait()
}

// searchAny tries providers in order; an empty result is not an error
// here, the selection layers handle scarcity.
func (b *Builder) searchAny(ctx context.Context, keyword string) []Asset {
	logger := log.WithComponentFromContext(ctx, "visuals")
	for _, p := range b.Providers {
		assets, err := p.Search(ctx, keyword, 5)
		if err != nil {
			logger.Warn().Err(err).Str(log.FieldProvider, p.Name()).Str(log.FieldKeyword, keyword).
				Msg("provider search failed, trying next")
			continue
		}
		if len(assets) > 0 {
			return assets
		}
	}
	return nil
}

func (b *Builder) fallbacksAny(ctx context.Context) []Asset {
	logger := log.WithComponentFromContext(ctx, "visuals")
	for _, p := range b.Providers {
		assets, err := p.Fallbacks(ctx)
		if err != nil {
			logger.Warn().Err(err).Str(log.FieldProvider, p.Name()).Msg("provider fallbacks failed, trying next")
			continue
		}
		if len(assets) > 0 {
			return assets
		}
	}
	return nil
}

// selectAsset walks the four supply layers for the keyword.
func (b *Builder) selectAsset(ctx context.Context, keyword string, usage *Usage, prevID string, allowReuse bool) (Asset, bool, error) {
	// Layer 1: exact keyword cache, unused only.
	if assets, ok := b.Cache.Get(keyword); ok {
		for _, a := range assets {
			if !usage.IsUsed(a.ID) {
				fallbackLayerTotal.WithLabelValues("exact").Inc()
				return a, false, nil
			}
		}
	}

	// Layer 2: generic fallback list.
	if assets, ok := b.Cache.Get(fallbacksKey); ok {
		for _, a := range assets {
			if !usage.IsUsed(a.ID) {
				fallbackLayerTotal.WithLabelValues("generic").Inc()
				return a, false, nil
			}
		}
	}

	// Layer 3: any unused asset anywhere.
	for _, a := range b.Cache.All() {
		if !usage.IsUsed(a.ID) {
			fallbackLayerTotal.WithLabelValues("nuclear").Inc()
			return a, false, nil
		}
	}

	// Layer 4: reuse, avoiding back-to-back duplicates.
	if allowReuse {
		for _, a := range b.Cache.All() {
			if a.ID != prevID {
				fallbackLayerTotal.WithLabelValues("reuse").Inc()
				reuseTotal.Inc()
				return a, true, nil
			}
		}
	}

	return Asset{}, false, model.NewStageError("visuals", model.ErrAssetShortage,
		fmt.Sprintf("no asset available for keyword %q", keyword))
}

func (b *Builder) randRange(low, high int) int {
	if high <= low {
		return low
	}
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return low + b.rng.Intn(high-low+1)
}

func (b *Builder) randZoom() float64 {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	if b.rng.Float64() < 0.5 {
		return 1.0
	}
	if b.rng.Float64() < 0.5 {
		return 1.05
	}
	return 1.10
}

func (b *Builder) randPan() model.Pan {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	if b.rng.Float64() < 0.5 {
		return model.PanNone
	}
	return model.PANS[1+b.rng.Intn(len(model.PANS)-1)]
}
