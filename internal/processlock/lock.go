// Package processlock keeps a second server from opening the same data
// directory.
package processlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

const pidFileName = "mindicons.pid"

// ErrAlreadyRunning is returned when a live process holds the lock.
var ErrAlreadyRunning = errors.New("another mindicons server is already running")

// ProcessLock is a PID file in the data directory.
type ProcessLock struct {
	pidFile string
	logger  *zap.Logger
}

// New creates a lock for dataDir
func New(dataDir string, logger *zap.Logger) *ProcessLock {
	return &ProcessLock{
		pidFile: filepath.Join(dataDir, pidFileName),
		logger:  logger,
	}
}

// Path returns the PID file location
func (p *ProcessLock) Path() string { return p.pidFile }

// Acquire writes the current PID. A PID file left by a dead or unreadable
// process is replaced.
func (p *ProcessLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(p.pidFile), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	pid, err := p.readPID()
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		p.logger.Warn("Removing unreadable PID file", zap.String("pid_file", p.pidFile), zap.Error(err))
	case pid == os.Getpid():
		return nil
	case isProcessRunning(pid):
		return fmt.Errorf("%w (PID %d, %s)", ErrAlreadyRunning, pid, p.pidFile)
	default:
		p.logger.Warn("Removing stale PID file", zap.Int("pid", pid), zap.String("pid_file", p.pidFile))
	}

	if err := os.WriteFile(p.pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	p.logger.Info("Process lock acquired", zap.Int("pid", os.Getpid()), zap.String("pid_file", p.pidFile))
	return nil
}

// Release removes the PID file if it still belongs to this process.
func (p *ProcessLock) Release() error {
	pid, err := p.readPID()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err == nil && pid != os.Getpid() {
		p.logger.Warn("PID file owned by another process, leaving it", zap.Int("pid", pid))
		return nil
	}
	if err := os.Remove(p.pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	p.logger.Info("Process lock released", zap.String("pid_file", p.pidFile))
	return nil
}

func (p *ProcessLock) readPID() (int, error) {
	data, err := os.ReadFile(p.pidFile)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file: %q", s)
	}
	return pid, nil
}

// isProcessRunning checks pid with signal 0.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
