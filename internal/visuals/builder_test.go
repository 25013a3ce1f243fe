// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package visuals

import (
	"context"
	"math/rand"
	"testing"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyProvider simulates total supply failure.
type emptyProvider struct{}

func (emptyProvider) Name() string { return "empty" }
func (emptyProvider) Search(context.Context, string, int) ([]Asset, error) {
	return nil, nil
}
func (emptyProvider) Fallbacks(context.Context) ([]Asset, error) { return nil, nil }

func newTestBuilder(t *testing.T, seed int64, dir string, providers ...Provider) *Builder {
	t.Helper()
	cache := NewCache()
	dl := NewDownloader(dir, "", cache)
	if len(providers) == 0 {
		providers = []Provider{&MockProvider{}}
	}
	return NewBuilder(cache, dl, rand.New(rand.NewSource(seed)), providers...)
}

func assertTimelineInvariants(t *testing.T, clips []model.VisualClip, durationMS int) {
	t.Helper()
	require.NotEmpty(t, clips)
	assert.Equal(t, 0, clips[0].StartMS)
	for i, c := range clips {
		d := c.EndMS - c.StartMS
		assert.GreaterOrEqual(t, d, MinClipMS, "clip %d", i)
		assert.LessOrEqual(t, d, MaxClipMS, "clip %d", i)
		if i > 0 {
			assert.Equal(t, clips[i-1].EndMS, c.StartMS, "clip %d seam", i)
		}
		assert.Contains(t, []float64{1.0, 1.05, 1.10}, c.Zoom, "clip %d", i)
		assert.Contains(t, model.PANS, c.Pan, "clip %d", i)
	}
	assert.Equal(t, durationMS, clips[len(clips)-1].EndMS)
}

func TestBuild_CoversTimeline(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		b := newTestBuilder(t, seed, t.TempDir())
		clips, err := b.Build(context.Background(), "job1", []string{"coffee", "brain"}, 8000, NewUsage())
		require.NoError(t, err, "seed %d", seed)

		assertTimelineInvariants(t, clips, 8000)
		for i, c := range clips {
			assert.False(t, c.Reused, "clip %d reused with ample supply", i)
			assert.NotEmpty(t, c.Path, "clip %d", i)
		}
		assert.True(t, Gate(clips, 8000).Valid, "seed %d", seed)
	}
}

func TestBuild_NoDuplicatesWithAmpleSupply(t *testing.T) {
	b := newTestBuilder(t, 3, t.TempDir())
	clips, err := b.Build(context.Background(), "job1", []string{"coffee"}, 6000, NewUsage())
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, c := range clips {
		_, dup := seen[c.ClipID]
		assert.False(t, dup, "clip %s placed twice", c.ClipID)
		seen[c.ClipID] = struct{}{}
	}
}

func TestBuild_ExactKeywordPreferred(t *testing.T) {
	b := newTestBuilder(t, 5, t.TempDir())
	clips, err := b.Build(context.Background(), "job1", []string{"coffee"}, 3000, NewUsage())
	require.NoError(t, err)
	assert.Equal(t, "mock_coffee_0", clips[0].ClipID)
}

func TestBuild_ShortageForcesReuse(t *testing.T) {
	// One asset per keyword plus ten generic fallbacks cannot cover 40s
	// without repeats.
	b := newTestBuilder(t, 9, t.TempDir(), &MockProvider{PerKeyword: 1})
	clips, err := b.Build(context.Background(), "job1", []string{"rare"}, 40000, NewUsage())
	require.NoError(t, err)

	assertTimelineInvariants(t, clips, 40000)

	reused := 0
	for i, c := range clips {
		if c.Reused {
			reused++
			if i > 0 {
				assert.NotEqual(t, clips[i-1].ClipID, c.ClipID, "back-to-back reuse at %d", i)
			}
		}
	}
	assert.Positive(t, reused)
	assert.True(t, Gate(clips, 40000).Valid)
}

func TestBuild_TotalShortage(t *testing.T) {
	b := newTestBuilder(t, 1, t.TempDir(), emptyProvider{})
	_, err := b.Build(context.Background(), "job1", []string{"nothing"}, 5000, NewUsage())
	require.Error(t, err)

	var se *model.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, model.ErrAssetShortage, se.Type)
}

func TestBuild_DeterministicForSeed(t *testing.T) {
	dir := t.TempDir()
	a, err := newTestBuilder(t, 11, dir).Build(context.Background(), "job1", []string{"coffee"}, 5000, NewUsage())
	require.NoError(t, err)
	b, err := newTestBuilder(t, 11, dir).Build(context.Background(), "job1", []string{"coffee"}, 5000, NewUsage())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))
}

func TestGateRejections(t *testing.T) {
	clip := func(id string, start, end int, reused bool) model.VisualClip {
		return model.VisualClip{ClipID: id, StartMS: start, EndMS: end, Zoom: 1.0, Pan: model.PanNone, Reused: reused}
	}

	tests := []struct {
		name  string
		clips []model.VisualClip
		dur   int
		valid bool
	}{
		{"empty", nil, 1000, false},
		{"single full", []model.VisualClip{clip("a", 0, 2000, false)}, 2000, true},
		{"single clip spans short scene", []model.VisualClip{clip("a", 0, 600, false)}, 600, true},
		{"short clip in split timeline", []model.VisualClip{clip("a", 0, 600, false), clip("b", 600, 2000, false)}, 2000, false},
		{"late start", []model.VisualClip{clip("a", 100, 2000, false)}, 2000, false},
		{"seam gap", []model.VisualClip{clip("a", 0, 1000, false), clip("b", 1100, 2000, false)}, 2000, false},
		{"too long", []model.VisualClip{clip("a", 0, 3500, false)}, 3500, false},
		{"short tail", []model.VisualClip{clip("a", 0, 1500, false)}, 2000, false},
		{"dup without flag", []model.VisualClip{clip("a", 0, 1000, false), clip("a", 1000, 2000, false)}, 2000, false},
		{"dup with reuse flag", []model.VisualClip{clip("a", 0, 1000, false), clip("a", 1000, 2000, true)}, 2000, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, Gate(tc.clips, tc.dur).Valid)
		})
	}
}

func TestCache(t *testing.T) {
	c := NewCache()

	_, ok := c.Get("coffee")
	assert.False(t, ok)

	c.Put("Coffee", []Asset{{ID: "a1"}})
	got, ok := c.Get("COFFEE")
	require.True(t, ok)
	assert.Equal(t, "a1", got[0].ID)

	c.Put("beans", []Asset{{ID: "a1"}, {ID: "a2"}})
	assert.Len(t, c.All(), 2, "All deduplicates by ID")

	_, ok = c.DownloadedPath("a1")
	assert.False(t, ok)
	c.MarkDownloaded("a1", "/tmp/a1.mp4")
	path, ok := c.DownloadedPath("a1")
	require.True(t, ok)
	assert.Equal(t, "/tmp/a1.mp4", path)
}

func TestUsage(t *testing.T) {
	u := NewUsage()
	assert.False(t, u.IsUsed("a"))
	u.MarkUsed("a")
	assert.True(t, u.IsUsed("a"))
	assert.Equal(t, 1, u.CountUnused([]Asset{{ID: "a"}, {ID: "b"}}))
}
