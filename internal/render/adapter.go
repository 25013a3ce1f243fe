// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package render drives the external FFmpeg renderer: per-scene segment
// encodes and the final stream-copy concat.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/google/renameio/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelforge_render_total",
		Help: "Renderer invocations by kind and result",
	}, []string{"kind", "result"})

	renderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelforge_render_errors_total",
		Help: "Classified renderer failures",
	}, []string{"type"})
)

// minOutputSize guards against truncated encodes that exit 0.
const minOutputSize = 10 * 1024

// Adapter renders edit plans through the external binary.
type Adapter struct {
	BinPath   string
	TempDir   string
	KillGrace time.Duration
}

// NewAdapter builds an adapter. binPath falls back to "ffmpeg" on PATH.
func NewAdapter(binPath, tempDir string) *Adapter {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &Adapter{
		BinPath:   binPath,
		TempDir:   tempDir,
		KillGrace: 5 * time.Second,
	}
}

// RenderSegment encodes one scene's edit plan into outPath.
func (a *Adapter) RenderSegment(ctx context.Context, jobID string, sceneIndex int, in SegmentInput, outPath string) error {
	logger := log.WithComponentFromContext(ctx, "render")

	graph, inputs, err := BuildGraph(in)
	if err != nil {
		return err
	}

	// The graph goes to a script file to stay clear of argv length
	// limits on long caption chains. Written atomically so a retried
	// scene never hands the renderer a half-written graph.
	graphPath := filepath.Join(a.TempDir, fmt.Sprintf("%s_scene%d_graph.txt", jobID, sceneIndex))
	if err := renameio.WriteFile(graphPath, []byte(graph), 0o600); err != nil {
		return model.WrapStageError("render", model.ErrUnknown, "write filter graph", err)
	}
	defer func() { _ = os.Remove(graphPath) }()

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, p := range inputs {
		args = append(args, "-i", p)
	}
	args = append(args, "-i", in.AudioPath)
	audioIdx := len(inputs)

	args = append(args,
		"-filter_complex_script", graphPath,
		"-map", "[vout]",
		"-map", fmt.Sprintf("%d:a", audioIdx),
		"-c:v", "libx264", "-preset", "medium", "-crf", "18",
		"-c:a", "aac", "-b:a", "192k", "-ar", "44100", "-ac", "2",
		"-movflags", "+faststart",
		"-t", fmt.Sprintf("%.3f", float64(in.DurationMS)/1000),
		outPath,
	)

	logger.Debug().
		Str(log.FieldJobID, jobID).
		Int(log.FieldScene, sceneIndex).
		Int("segments", len(in.Plan)).
		Msg("rendering scene segment")

	if err := a.run(ctx, "segment", args, outPath); err != nil {
		return err
	}
	renderTotal.WithLabelValues("segment", "ok").Inc()
	return nil
}

// Concat joins rendered scene segments into outPath with the stream-copy
// concat demuxer. No re-encode: segments already share codec parameters.
func (a *Adapter) Concat(ctx context.Context, jobID string, segmentPaths []string, outPath string) error {
	logger := log.WithComponentFromContext(ctx, "render")

	var list strings.Builder
	for _, p := range segmentPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	listPath := filepath.Join(a.TempDir, fmt.Sprintf("%s_concat.txt", jobID))
	if err := os.WriteFile(listPath, []byte(list.String()), 0o600); err != nil {
		return model.WrapStageError("render", model.ErrUnknown, "write concat list", err)
	}
	defer func() { _ = os.Remove(listPath) }()

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outPath,
	}

	logger.Info().
		Str(log.FieldJobID, jobID).
		Int("segments", len(segmentPaths)).
		Msg("concatenating scene segments")

	if err := a.run(ctx, "concat", args, outPath); err != nil {
		return err
	}
	renderTotal.WithLabelValues("concat", "ok").Inc()
	return nil
}

// run executes the renderer once and enforces the success contract:
// exit 0 AND output exists AND size at least minOutputSize.
func (a *Adapter) run(ctx context.Context, kind string, args []string, outPath string) error {
	r := newRunner(a.BinPath, a.KillGrace)
	exitErr := r.run(ctx, args)

	if exitErr == nil {
		info, statErr := os.Stat(outPath)
		switch {
		case statErr != nil:
			exitErr = fmt.Errorf("output missing: %w", statErr)
		case info.Size() < minOutputSize:
			exitErr = fmt.Errorf("output truncated: %d bytes", info.Size())
		default:
			return nil
		}
	}

	renderTotal.WithLabelValues(kind, "error").Inc()

	stderr := r.lastLines(20)
	msg := exitErr.Error()
	typ := Classify(msg + " " + strings.Join(stderr, " "))
	renderErrorsTotal.WithLabelValues(string(typ)).Inc()

	return &model.StageError{
		Stage:       "render",
		Type:        typ,
		Msg:         msg,
		Diagnostics: stderr,
		Err:         exitErr,
	}
}
