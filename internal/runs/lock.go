package runs

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked indicates another process already holds the workspace lock.
var ErrLocked = errors.New("another storyforge run is already in progress")

// Lock enforces single-instance execution over a workspace.
type Lock struct {
	path string
	fl   *flock.Flock
}

// NewLock prepares a workspace lock at path without acquiring it.
func NewLock(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Acquire takes the lock without blocking. It returns ErrLocked when
// another instance holds it.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
