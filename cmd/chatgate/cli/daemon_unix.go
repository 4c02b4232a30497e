//go:build !windows

package cli

import (
	"errors"
	"os"
	"syscall"
)

// isProcessRunning checks whether a process with the given PID is alive.
// EPERM means the process exists but belongs to another user.
func isProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// stopProcess sends SIGTERM, which serve turns into a graceful shutdown.
func stopProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}
