// Package fslock provides advisory whole-file locks for coordinating
// exclusive access between processes.
//
// The low-level surface ([Open], [Lock], [TryLock], [Unlock], [Close],
// [Remove]) is a thin synchronous shim over the platform primitive —
// flock(2) on the Unix family, LockFileEx on Windows. It keeps no
// internal call-order state: locking a handle twice, or closing and
// then using it, inherits exactly the underlying OS behavior. Omitting
// [Close] leaks the OS handle.
//
// [LockFile] wraps a handle with the small amount of portable
// bookkeeping most callers want: it remembers whether the lock is held
// so that [LockFile.Close] can release it first, which is required on
// Windows where closing a handle does not reliably drop its locks.
//
// Locks are advisory. Only cooperating processes that lock the same
// path observe them; a non-cooperating writer can still modify or
// delete the file.
package fslock

import (
	"context"
	"fmt"
	"time"
)

// LockFile is an open lock file and the portable entry point of this
// package. It is not safe for concurrent use by multiple goroutines
// without external synchronization.
type LockFile struct {
	handle Handle
	path   string
	locked bool
}

// New opens the lock file at path, creating it if absent, and returns
// it unlocked. The caller must Close the returned LockFile to release
// the OS handle.
func New(path string) (*LockFile, error) {
	h, err := Open(NewPath(path))
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	return &LockFile{handle: h, path: path}, nil
}

// Lock blocks until the exclusive lock is acquired, for as long as the
// OS takes to grant it. Panics if l already holds the lock.
func (l *LockFile) Lock() error {
	if l.locked {
		panic("fslock: Lock on an already locked file")
	}
	if err := Lock(l.handle); err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking. It returns
// false, with no error, when another holder currently owns the lock.
// Panics if l already holds the lock.
func (l *LockFile) TryLock() (bool, error) {
	if l.locked {
		panic("fslock: TryLock on an already locked file")
	}
	ok, err := TryLock(l.handle)
	if err != nil {
		return false, fmt.Errorf("try lock %s: %w", l.path, err)
	}
	l.locked = ok
	return ok, nil
}

// LockContext polls [LockFile.TryLock] every interval until the lock is
// acquired or ctx is done. The first attempt happens immediately. On
// cancellation the ctx error is returned wrapped; the lock is not held.
func (l *LockFile) LockContext(ctx context.Context, interval time.Duration) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		ok, err := l.TryLock()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock %s: %w", l.path, ctx.Err())
		case <-tick.C:
		}
	}
}

// Unlock releases the lock while keeping the file open, so it can be
// re-acquired through the same LockFile. Panics if l does not hold the
// lock.
func (l *LockFile) Unlock() error {
	if !l.locked {
		panic("fslock: Unlock on an unlocked file")
	}
	if err := Unlock(l.handle); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	l.locked = false
	return nil
}

// WriteString truncates the file and writes s through the handle.
// Useful for PID stamping while the lock is held: on Windows a locked
// range rejects writes from any other handle, so the stamp has to go
// through this one.
func (l *LockFile) WriteString(s string) error {
	if err := writeHandle(l.handle, []byte(s)); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	return nil
}

// Locked reports whether l currently holds the lock.
func (l *LockFile) Locked() bool { return l.locked }

// Path returns the path the lock file was opened with.
func (l *LockFile) Path() string { return l.path }

// Close releases the lock if it is still held, then the OS handle.
// The LockFile must not be used after Close; there is no bookkeeping
// guarding against it.
func (l *LockFile) Close() error {
	if l.locked {
		if err := Unlock(l.handle); err != nil {
			return fmt.Errorf("unlock %s: %w", l.path, err)
		}
		l.locked = false
	}
	Close(l.handle)
	return nil
}
