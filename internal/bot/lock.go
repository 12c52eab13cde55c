package bot

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// RunnerLock prevents two scheduler processes from trading concurrently. The
// lock is a file holding the owner's PID; a lock whose process is gone is
// stale and gets taken over.
type RunnerLock struct {
	path string
	held bool
}

func NewRunnerLock(path string) *RunnerLock {
	return &RunnerLock{path: path}
}

// Acquire takes the lock or fails if another live process holds it.
func (l *RunnerLock) Acquire() error {
	if data, err := os.ReadFile(l.path); err == nil {
		pid, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr == nil && processAlive(pid) {
			return fmt.Errorf("another instance is running (pid %d, lock %s)", pid, l.path)
		}
		// Stale lock from a dead process.
		_ = os.Remove(l.path)
	}

	if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("write lock %s: %w", l.path, err)
	}
	l.held = true
	return nil
}

// Release removes the lock if this process acquired it.
func (l *RunnerLock) Release() {
	if l.held {
		_ = os.Remove(l.path)
		l.held = false
	}
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
