// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package worker

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ManuGH/reelforge/internal/config"
	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/ManuGH/reelforge/internal/pipeline/store"
	"github.com/ManuGH/reelforge/internal/render"
	"github.com/ManuGH/reelforge/internal/script"
	"github.com/ManuGH/reelforge/internal/timing"
	"github.com/ManuGH/reelforge/internal/tts"
	"github.com/ManuGH/reelforge/internal/visuals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goodScript passes the script gate and the final audit: curiosity hook,
// a stance marker, an abrupt ending, and enough cadence variation that
// the pacing check stays quiet.
func goodScript() model.Script {
	texts := []string{
		"Most people think coffee wakes you, but it blocks adenosine",
		"That jolt you feel is borrowed energy",
		"It floods back the second your receptors clear",
		"The debt compounds in the background",
		"Timing that first cup is the hidden lever",
		"The truth is your tiredness was postponed, not erased",
		"The bill always arrives",
	}
	keywords := [][]string{
		{"coffee", "morning"}, {"energy", "spark"}, {"brain", "receptors"},
		{"debt", "ledger"}, {"espresso", "cup"}, {"tired", "office"}, {"bill", "clock"},
	}
	scenes := make([]model.Scene, model.SceneCount)
	for i, t := range model.SceneTypes {
		scenes[i] = model.Scene{Type: t, Text: texts[i], Keywords: keywords[i]}
	}
	return model.Script{Scenes: scenes}
}

type fakeOracle struct {
	mu      sync.Mutex
	scripts []model.Script
	errs    []error
	calls   int
}

func (f *fakeOracle) GenerateScript(context.Context, script.Request) (model.Script, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return model.Script{}, f.errs[i]
	}
	if i >= len(f.scripts) {
		i = len(f.scripts) - 1
	}
	return f.scripts[i].Clone(), nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	segments int
	concats  int
	fail     error
}

func (f *fakeRenderer) RenderSegment(_ context.Context, _ string, _ int, _ render.SegmentInput, outPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.segments++
	return os.WriteFile(outPath, []byte("segment"), 0o644)
}

func (f *fakeRenderer) Concat(_ context.Context, _ string, _ []string, outPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.concats++
	return os.WriteFile(outPath, []byte("final"), 0o644)
}

func newTestProcessor(t *testing.T, oracle script.Oracle, r Renderer) (*Processor, store.JobStore) {
	t.Helper()
	cfg := config.Config{DataDir: t.TempDir(), MaxConcurrentJobs: 1, Port: 5001, RetentionDays: 7}
	require.NoError(t, cfg.EnsureDirs())

	cache := visuals.NewCache()
	dl := visuals.NewDownloader(cfg.ClipsDir(), "", cache)
	builder := visuals.NewBuilder(cache, dl, rand.New(rand.NewSource(7)), &visuals.MockProvider{})

	st := store.NewMemoryStore()
	return &Processor{
		Store:   st,
		Oracle:  oracle,
		TTS:     &tts.Silent{},
		Visuals: builder,
		Render:  r,
		Cfg:     cfg,
	}, st
}

func queueJob(t *testing.T, st store.JobStore, id string, dryRun bool) *model.Job {
	t.Helper()
	ctx := context.Background()
	job := &model.Job{
		ID:              id,
		Topic:           "the coffee crash",
		DurationSeconds: 30,
		Tone:            model.ToneInformative,
		DryRun:          dryRun,
		Status:          model.StatusQueued,
	}
	require.NoError(t, st.Create(ctx, job))
	claimed, err := st.NextQueued(ctx)
	require.NoError(t, err)
	return claimed
}

func TestProcess_CompletesFullJob(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{scripts: []model.Script{goodScript()}}
	renderer := &fakeRenderer{}
	p, st := newTestProcessor(t, oracle, renderer)

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Zero(t, got.ETASeconds)

	require.NotNil(t, got.Result)
	assert.Equal(t, filepath.Join(p.Cfg.TempOutputDir(), "job1_final.mp4"), got.Result.OutputPath)
	require.NotNil(t, got.Result.Script)
	assert.Len(t, got.Result.Script.Scenes, model.SceneCount)

	wantTotal := 0
	for i, scene := range goodScript().Scenes {
		wantTotal += timing.SynthesizeScene(scene, i, model.SceneCount).DurationMS
	}
	assert.Equal(t, wantTotal, got.Result.TotalDurationMS)

	assert.Equal(t, model.SceneCount, renderer.segments)
	assert.Equal(t, 1, renderer.concats)

	// Narration files landed in the audio dir with the job ID embedded.
	entries, err := os.ReadDir(p.Cfg.AudioDir())
	require.NoError(t, err)
	assert.Len(t, entries, model.SceneCount)
}

func TestProcess_DryRunSkipsPipeline(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{scripts: []model.Script{goodScript()}}
	renderer := &fakeRenderer{}
	p, st := newTestProcessor(t, oracle, renderer)

	claimed := queueJob(t, st, "job1", true)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.NotNil(t, got.Result.Script)
	assert.Empty(t, got.Result.OutputPath)
	assert.Zero(t, renderer.segments)
}

func TestProcess_GateRejectionExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	bad := goodScript()
	bad.Scenes[0].Text = "In this video we talk about coffee"
	oracle := &fakeOracle{scripts: []model.Script{bad}}
	p, st := newTestProcessor(t, oracle, &fakeRenderer{})

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, string(model.ErrGateReject), got.ErrorType)
	assert.Equal(t, script.MaxGateAttempts, oracle.calls)
}

func TestProcess_RegeneratesAfterRejection(t *testing.T) {
	ctx := context.Background()
	bad := goodScript()
	bad.Scenes[0].Text = "Did you know coffee is popular"
	oracle := &fakeOracle{scripts: []model.Script{bad, goodScript()}}
	p, st := newTestProcessor(t, oracle, &fakeRenderer{})

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 2, oracle.calls)
}

func TestProcess_OversizedScriptFailsBeforeRender(t *testing.T) {
	ctx := context.Background()
	long := goodScript()
	// Five 64-word bodies pass the script gate and every per-scene audio
	// gate, but the concatenated total far exceeds the 33s job limit.
	filler := strings.TrimSpace(strings.Repeat("the quiet machinery keeps humming beneath the surface ", 8))
	for i := 1; i <= 5; i++ {
		long.Scenes[i].Text = filler
	}
	oracle := &fakeOracle{scripts: []model.Script{long}}
	renderer := &fakeRenderer{}
	p, st := newTestProcessor(t, oracle, renderer)

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, string(model.ErrGateReject), got.ErrorType)
	assert.Contains(t, got.Error, "total audio duration")
	assert.Zero(t, renderer.segments, "no render work before the duration bound")
}

func TestProcess_OracleFailureFailsJob(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{
		scripts: []model.Script{{}},
		errs:    []error{model.NewStageError("script", model.ErrOracleFatal, "all oracle attempts failed")},
	}
	p, st := newTestProcessor(t, oracle, &fakeRenderer{})

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, string(model.ErrOracleFatal), got.ErrorType)
}

func TestProcess_RenderFailureFailsJob(t *testing.T) {
	ctx := context.Background()
	oracle := &fakeOracle{scripts: []model.Script{goodScript()}}
	renderer := &fakeRenderer{fail: &model.StageError{
		Stage:       "render",
		Type:        model.ErrCodecFailure,
		Msg:         "renderer exited: exit status 1",
		Diagnostics: []string{"moov atom not found"},
	}}
	p, st := newTestProcessor(t, oracle, renderer)

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, string(model.ErrCodecFailure), got.ErrorType)
	require.NotNil(t, got.Result)
	assert.Contains(t, got.Result.Diagnostics, "moov atom not found")
}

func TestProcess_AuditNoGoFailsJob(t *testing.T) {
	ctx := context.Background()
	polite := goodScript()
	polite.Scenes[6].Text = "Thank you for watching"
	oracle := &fakeOracle{scripts: []model.Script{polite}}
	p, st := newTestProcessor(t, oracle, &fakeRenderer{})

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, string(model.ErrAuditNoGo), got.ErrorType)
	assert.Contains(t, got.Error, "Video feels complete/polite instead of intentionally unfinished")
}

type panicOracle struct{}

func (panicOracle) GenerateScript(context.Context, script.Request) (model.Script, error) {
	panic("oracle blew up")
}

func TestProcess_PanicIsContained(t *testing.T) {
	ctx := context.Background()
	p, st := newTestProcessor(t, panicOracle{}, &fakeRenderer{})

	claimed := queueJob(t, st, "job1", false)
	p.Process(ctx, claimed)

	got, err := st.Get(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, string(model.ErrUnknown), got.ErrorType)
}
