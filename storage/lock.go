package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// InstanceLock guards a data directory against a second blendassist process
// mutating the same scene workspace.
// Lock file: <data_dir>/blendassist.lock
// Content: PID of the running instance
type InstanceLock struct {
	path string
}

// NewInstanceLock returns the lock for dataDir. Nothing is written until Lock.
func NewInstanceLock(dataDir string) *InstanceLock {
	return &InstanceLock{path: filepath.Join(dataDir, "blendassist.lock")}
}

// Path returns the lock file location.
func (l *InstanceLock) Path() string {
	return l.path
}

// Lock writes the current PID to the lock file (0600 - user-only access)
func (l *InstanceLock) Lock() error {
	pid := os.Getpid()
	if err := os.WriteFile(l.path, []byte(fmt.Sprintf("%d", pid)), 0600); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// Unlock removes the lock file
func (l *InstanceLock) Unlock() error {
	// Ignore error if file doesn't exist
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// Check reports whether another live process holds the lock.
// Returns (isLocked bool, runningPID int, err error)
// Stale or unreadable lock files are removed.
func (l *InstanceLock) Check() (bool, int, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil || pid <= 0 {
		// Invalid lock file, clean it up
		_ = os.Remove(l.path)
		return false, 0, nil
	}

	switch {
	case pid == os.Getpid():
		return false, 0, nil
	case !processAlive(pid):
		_ = os.Remove(l.path)
		return false, 0, nil
	}

	return true, pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess always succeeds on Unix; signal 0 probes without delivering
	if runtime.GOOS == "windows" {
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
