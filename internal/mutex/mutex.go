// Package mutex provides named, advisory, inter-process locks backed by
// flock(2) lock files. Every read-modify-write against a shared document
// (coordination board, project registry) funnels through WithExclusive so two
// cooperating processes never interleave their critical sections.
package mutex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultTimeout bounds how long Acquire waits for a contended lock.
const DefaultTimeout = 10 * time.Second

// ErrAcquireTimeout is returned by WithExclusive when the named lock could
// not be acquired within the service timeout. The critical section was never
// entered; no partial effect occurred.
var ErrAcquireTimeout = errors.New("lock acquisition timed out")

// Service grants exclusive named locks with a bounded wait. Lock files live
// under a single directory; the name maps to one file. Safe for concurrent
// use from multiple goroutines and multiple processes.
type Service struct {
	dir     string
	timeout time.Duration

	mu   sync.Mutex
	held map[string]*os.File
}

// NewService creates a lock service rooted at dir. A timeout <= 0 falls back
// to DefaultTimeout.
func NewService(dir string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		dir:     dir,
		timeout: timeout,
		held:    make(map[string]*os.File),
	}
}

// Acquire takes the named lock, retrying with exponential backoff up to the
// service timeout. Returns false on timeout with no side effects. An error is
// returned only for I/O failures opening the lock file itself.
func (s *Service) Acquire(name string) (bool, error) {
	lockPath := s.lockPath(name)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return false, fmt.Errorf("create lock dir: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // G304: lockPath derived from trusted service dir
	if err != nil {
		return false, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = s.timeout
	b.RandomizationFactor = 0.2

	err = backoff.Retry(func() error {
		flockErr := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if flockErr == nil {
			return nil
		}
		if errors.Is(flockErr, syscall.EWOULDBLOCK) {
			return flockErr // contended, retry until MaxElapsedTime
		}
		return backoff.Permanent(fmt.Errorf("flock %s: %w", lockPath, flockErr))
	}, b)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return false, nil
		}
		return false, err
	}

	s.mu.Lock()
	s.held[name] = f
	s.mu.Unlock()
	return true, nil
}

// Release drops the named lock. Idempotent: releasing a lock that is not held
// is a no-op.
func (s *Service) Release(name string) {
	s.mu.Lock()
	f, ok := s.held[name]
	delete(s.held, name)
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	_ = f.Close()
}

// WithExclusive runs fn while holding the named lock, releasing it
// unconditionally afterward (including when fn fails). Returns
// ErrAcquireTimeout if the lock could not be taken in time; fn was not run.
func (s *Service) WithExclusive(name string, fn func() error) error {
	ok, err := s.Acquire(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAcquireTimeout, name)
	}
	defer s.Release(name)
	return fn()
}

func (s *Service) lockPath(name string) string {
	return filepath.Join(s.dir, sanitizeName(name)+".lock")
}

// sanitizeName maps an arbitrary lock name to a flat filename.
func sanitizeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return r.Replace(name)
}
