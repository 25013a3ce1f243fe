// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tts

import (
	"context"
	"encoding/binary"
	"os"
)

// WAV layout constants for the silent fallback track.
const (
	wavSampleRate    = 16000
	wavBitsPerSample = 16
	wavChannels      = 1
)

// Silent writes a zero-amplitude WAV matching the synthesized duration.
// Used when no TTS provider is configured; keeps the render pipeline
// fully functional offline.
type Silent struct{}

// Ext implements Synthesizer.
func (s *Silent) Ext() string { return ".wav" }

// Synthesize implements Synthesizer.
func (s *Silent) Synthesize(_ context.Context, _ string, durationMS int, outPath string) error {
	return WriteSilentWAV(outPath, durationMS)
}

// WriteSilentWAV writes a valid RIFF/WAVE file of silence: 16 kHz mono
// 16-bit PCM, chunkSize = 36 + data, subchunk2Size = numSamples*2.
func WriteSilentWAV(path string, durationMS int) error {
	if durationMS < 0 {
		durationMS = 0
	}
	numSamples := wavSampleRate * durationMS / 1000
	dataSize := numSamples * (wavBitsPerSample / 8)

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:24], wavChannels)
	binary.LittleEndian.PutUint32(header[24:28], wavSampleRate)
	byteRate := wavSampleRate * wavChannels * wavBitsPerSample / 8
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	blockAlign := wavChannels * wavBitsPerSample / 8
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], wavBitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	// #nosec G304 -- path is built from validated job IDs
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if dataSize > 0 {
		zeros := make([]byte, 32*1024)
		remaining := dataSize
		for remaining > 0 {
			n := len(zeros)
			if remaining < n {
				n = remaining
			}
			if _, err := f.Write(zeros[:n]); err != nil {
				_ = f.Close()
				return err
			}
			remaining -= n
		}
	}
	return f.Close()
}
