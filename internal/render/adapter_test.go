// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeRenderer installs a shell script standing in for the encoder
// binary. The script sees the output path as the last argument, exactly
// like the real argv.
func writeFakeRenderer(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake renderer script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

const writeOutput = `for arg in "$@"; do out="$arg"; done
head -c 20480 /dev/zero > "$out"`

func TestRenderSegment_Success(t *testing.T) {
	bin := writeFakeRenderer(t, writeOutput)
	a := NewAdapter(bin, t.TempDir())

	outPath := filepath.Join(t.TempDir(), "scene0.mp4")
	err := a.RenderSegment(context.Background(), "job1", 0, graphInput(), outPath)
	require.NoError(t, err)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Size(), int64(minOutputSize))
}

func TestRenderSegment_ClassifiesStderr(t *testing.T) {
	bin := writeFakeRenderer(t, `echo "moov atom not found" >&2
exit 1`)
	a := NewAdapter(bin, t.TempDir())

	err := a.RenderSegment(context.Background(), "job1", 0, graphInput(), filepath.Join(t.TempDir(), "scene0.mp4"))
	require.Error(t, err)

	var se *model.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, model.ErrCodecFailure, se.Type)
	assert.Contains(t, se.Diagnostics, "moov atom not found")
}

func TestRenderSegment_TruncatedOutput(t *testing.T) {
	bin := writeFakeRenderer(t, `for arg in "$@"; do out="$arg"; done
echo tiny > "$out"`)
	a := NewAdapter(bin, t.TempDir())

	err := a.RenderSegment(context.Background(), "job1", 0, graphInput(), filepath.Join(t.TempDir(), "scene0.mp4"))
	require.Error(t, err)

	var se *model.StageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Msg, "output truncated")
}

func TestRenderSegment_CleansGraphFile(t *testing.T) {
	bin := writeFakeRenderer(t, writeOutput)
	tempDir := t.TempDir()
	a := NewAdapter(bin, tempDir)

	outPath := filepath.Join(t.TempDir(), "scene0.mp4")
	require.NoError(t, a.RenderSegment(context.Background(), "job1", 0, graphInput(), outPath))
	assert.NoFileExists(t, filepath.Join(tempDir, "job1_scene0_graph.txt"))
}

func TestRenderSegment_GraphFileCompleteAtInvocation(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "graph_seen.txt")
	bin := writeFakeRenderer(t, `prev=""
graph=""
for arg in "$@"; do
  [ "$prev" = "-filter_complex_script" ] && graph="$arg"
  prev="$arg"
  out="$arg"
done
cp "$graph" "`+capture+`"
head -c 20480 /dev/zero > "$out"`)
	tempDir := t.TempDir()
	a := NewAdapter(bin, tempDir)

	in := graphInput()
	outPath := filepath.Join(t.TempDir(), "scene0.mp4")
	require.NoError(t, a.RenderSegment(context.Background(), "job1", 0, in, outPath))

	want, _, err := BuildGraph(in)
	require.NoError(t, err)
	seen, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, want, string(seen), "renderer sees the full graph")

	// Neither the graph file nor any write-side temp file lingers.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcat_Success(t *testing.T) {
	bin := writeFakeRenderer(t, writeOutput)
	tempDir := t.TempDir()
	a := NewAdapter(bin, tempDir)

	segDir := t.TempDir()
	segs := []string{filepath.Join(segDir, "s0.mp4"), filepath.Join(segDir, "s1.mp4")}
	for _, p := range segs {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	outPath := filepath.Join(t.TempDir(), "final.mp4")
	require.NoError(t, a.Concat(context.Background(), "job1", segs, outPath))
	assert.FileExists(t, outPath)
	assert.NoFileExists(t, filepath.Join(tempDir, "job1_concat.txt"))
}

func TestRenderSegment_Canceled(t *testing.T) {
	bin := writeFakeRenderer(t, `sleep 30`)
	a := NewAdapter(bin, t.TempDir())
	a.KillGrace = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.RenderSegment(ctx, "job1", 0, graphInput(), filepath.Join(t.TempDir(), "scene0.mp4"))
	assert.Error(t, err)
}
