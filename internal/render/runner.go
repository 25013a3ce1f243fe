// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package render

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/ManuGH/reelforge/internal/procgroup"
)

// runner owns a single renderer process lifecycle: explicit argv, stderr
// captured in a ring buffer, group kill on cancellation.
type runner struct {
	binPath   string
	killGrace time.Duration
	ring      *LineRing
}

func newRunner(binPath string, killGrace time.Duration) *runner {
	if killGrace <= 0 {
		killGrace = 5 * time.Second
	}
	return &runner{
		binPath:   binPath,
		killGrace: killGrace,
		ring:      NewLineRing(256),
	}
}

func (r *runner) run(ctx context.Context, args []string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	cmd := exec.Command(r.binPath, args...) // #nosec G204 -- argv built internally, no shell
	procgroup.Set(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("capture stderr: %w", err)
	}

	var ioWg sync.WaitGroup
	ioWg.Add(1)
	go func() {
		defer ioWg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			_, _ = r.ring.Write(scanner.Bytes())
			_, _ = r.ring.Write([]byte("\n"))
		}
	}()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("renderer start failed: %w", err)
	}

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		waitErr = procgroup.Terminate(cmd, waitCh, r.killGrace)
		if waitErr == nil {
			waitErr = ctx.Err()
		}
	}

	ioWg.Wait()

	if waitErr != nil {
		return fmt.Errorf("renderer exited: %w", waitErr)
	}
	return nil
}

func (r *runner) lastLines(n int) []string {
	return r.ring.LastN(n)
}
