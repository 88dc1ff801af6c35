// Package pidfile implements single-instance process coordination
// through a PID-stamped advisory lock file.
//
// [Acquire] takes the lock without blocking and stamps the calling
// process ID into the file; a second process finds the lock held and
// receives a [*HeldError] naming the holder when it can be determined.
// Mutual exclusion comes from the OS lock, never from the PID value —
// the file contents are informational, for operators and error
// messages, and a stale PID left by a crashed process does not prevent
// acquisition because the crashed process no longer holds the lock.
package pidfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"tools.zach/dev/fslock"
	"tools.zach/dev/fslock/internal/logger"
)

// HeldError reports that another process holds the PID file lock.
type HeldError struct {
	// PID is the holder's process ID as recorded in the file, or 0 when
	// the file could not be read. On Windows the locked range blocks
	// reads from other handles, so the PID is usually unavailable there.
	PID int
}

func (e *HeldError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("pidfile: held by process %d", e.PID)
	}
	return "pidfile: held by another process"
}

// File is an acquired PID file. Release it exactly once; the OS lock
// and handle stay held until then.
type File struct {
	lock   *fslock.LockFile
	pid    int
	log    *slog.Logger
	closer io.Closer
}

type options struct {
	log        *slog.Logger
	logPath    string
	logMaxMB   int
	useLogFile bool
}

// Option configures Acquire.
type Option func(*options)

// WithLogger routes acquisition and release events to log at debug
// level.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithLogFile routes acquisition and release events to a size-rotated
// log file at path. Takes precedence over WithLogger.
func WithLogFile(path string, maxSizeMB int) Option {
	return func(o *options) {
		o.useLogFile = true
		o.logPath = path
		o.logMaxMB = maxSizeMB
	}
}

// Acquire opens the PID file at path, creating it if absent, takes the
// exclusive lock without blocking, and stamps the current process ID
// followed by a newline. If another process holds the lock, the error
// is a [*HeldError].
func Acquire(path string, opts ...Option) (*File, error) {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	var closer io.Closer
	if o.useLogFile {
		o.log, closer = logger.New(o.logPath, slog.LevelDebug, o.logMaxMB)
	}
	fail := func(err error) (*File, error) {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	lf, err := fslock.New(path)
	if err != nil {
		return fail(err)
	}
	ok, err := lf.TryLock()
	if err != nil {
		lf.Close()
		return fail(err)
	}
	if !ok {
		holder, _ := ReadPID(path)
		lf.Close()
		o.log.Debug("pid file held elsewhere", "path", path, "holder", holder)
		return fail(&HeldError{PID: holder})
	}

	pid := os.Getpid()
	if err := lf.WriteString(strconv.Itoa(pid) + "\n"); err != nil {
		lf.Close()
		return fail(fmt.Errorf("stamp pid file: %w", err))
	}

	o.log.Debug("pid file acquired", "path", path, "pid", pid)
	return &File{lock: lf, pid: pid, log: o.log, closer: closer}, nil
}

// PID returns the process ID stamped into the file.
func (f *File) PID() int { return f.pid }

// Path returns the PID file path.
func (f *File) Path() string { return f.lock.Path() }

// Release unlocks and closes the PID file, then removes it. A removal
// failure because the file is already gone is not an error.
func (f *File) Release() error {
	path := f.lock.Path()
	if err := f.lock.Close(); err != nil {
		return err
	}
	if err := fslock.Remove(fslock.NewPath(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file %s: %w", path, err)
	}
	f.log.Debug("pid file released", "path", path, "pid", f.pid)
	if f.closer != nil {
		f.closer.Close()
	}
	return nil
}

// ReadPID reads the process ID recorded in the PID file at path.
// Intended for reporting; by the time the value is used the holder may
// already have exited.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pid file %s: %w", path, err)
	}
	return pid, nil
}
