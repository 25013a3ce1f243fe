// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tts

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSilentWAV_Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, WriteSilentWAV(path, 1000))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// 16000 samples/s * 1s * 2 bytes.
	const dataSize = 32000
	require.Len(t, data, 44+dataSize)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(36+dataSize), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]), "PCM")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]), "mono")
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(data[28:32]), "byte rate")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[32:34]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(dataSize), binary.LittleEndian.Uint32(data[40:44]))

	for _, b := range data[44:] {
		if b != 0 {
			t.Fatal("expected silence")
		}
	}
}

func TestWriteSilentWAV_ZeroAndNegative(t *testing.T) {
	dir := t.TempDir()
	for _, ms := range []int{0, -5} {
		path := filepath.Join(dir, "z.wav")
		require.NoError(t, WriteSilentWAV(path, ms))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, int64(44), info.Size())
	}
}

func TestSilent_Synthesize(t *testing.T) {
	s := &Silent{}
	assert.Equal(t, ".wav", s.Ext())

	path := filepath.Join(t.TempDir(), "scene.wav")
	require.NoError(t, s.Synthesize(context.Background(), "hello", 500, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	// 8000 samples * 2 bytes + header.
	assert.Equal(t, int64(44+16000), info.Size())
}

func TestSelect(t *testing.T) {
	assert.IsType(t, &Silent{}, Select(""))
	assert.IsType(t, &ElevenLabs{}, Select("key"))
	assert.Equal(t, ".mp3", Select("key").Ext())
}
