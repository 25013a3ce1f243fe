// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package procgroup

import (
	"os/exec"
	"syscall"
	"time"
)

// Terminate attempts to gracefully stop a process group.
// It sends SIGTERM, waits for the process to exit (via the provided
// wait channel), and if it doesn't exit within grace, sends SIGKILL.
// It consumes and returns the error from waitCh. Safe on nil commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = Kill(cmd, syscall.SIGTERM)

	select {
	case err := <-waitCh:
		return err
	case <-time.After(grace):
		_ = Kill(cmd, syscall.SIGKILL)
		// Always drain waitCh; SIGKILL frees a blocked Wait.
		return <-waitCh
	}
}
