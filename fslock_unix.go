// Unix locking backend using flock(2).
//
// This file is compiled on all non-Windows platforms (Linux, macOS,
// *BSD). Locks are whole-file, exclusive and advisory: they bind to the
// open file description, so two descriptors from independent opens of
// the same path contend with each other even inside one process. Paths
// cross into the kernel through [osstr.Str], so a caller that supplies
// an already-terminated path buffer triggers no allocation here.

//go:build !windows

package fslock

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"tools.zach/dev/fslock/oserr"
	"tools.zach/dev/fslock/osstr"
)

// Handle is an open file descriptor held only for locking.
type Handle int

// Path is the native path representation on this platform family.
type Path = osstr.Str

// NewPath converts a Go path string to its native representation.
func NewPath(path string) Path { return osstr.FromString(path) }

// Open opens the file at path for locking, creating it if absent with
// mode 0644 (owner read/write, group and other read). The descriptor is
// write-only and close-on-exec, so it does not survive an exec of
// another program. The state of the file's contents is irrelevant to
// locking; only the open description matters.
func Open(path Path) (Handle, error) {
	dirfd := unix.AT_FDCWD
	fd, _, errno := unix.Syscall6(
		unix.SYS_OPENAT,
		uintptr(dirfd),
		uintptr(unsafe.Pointer(path.Ptr())),
		uintptr(unix.O_WRONLY|unix.O_CREAT|unix.O_CLOEXEC),
		0o644,
		0, 0,
	)
	if errno != 0 {
		return -1, oserr.New(int32(errno))
	}
	return Handle(fd), nil
}

// Lock blocks the calling goroutine's thread until an exclusive lock
// over the whole file is acquired. There is no timeout and no
// cancellation; see [LockFile.LockContext] for a polling alternative.
func Lock(h Handle) error {
	if err := unix.Flock(int(h), unix.LOCK_EX); err != nil {
		return oserr.From(err)
	}
	return nil
}

// TryLock attempts the same acquisition as [Lock] without blocking.
// Contention — EWOULDBLOCK, or EACCES on systems that report it that
// way — is an ordinary false result, not an error.
func TryLock(h Handle) (bool, error) {
	err := unix.Flock(int(h), unix.LOCK_EX|unix.LOCK_NB)
	switch err {
	case nil:
		return true, nil
	case unix.EWOULDBLOCK, unix.EACCES:
		return false, nil
	}
	return false, oserr.From(err)
}

// Unlock releases a lock acquired through h. Calling it when no lock is
// held is passed through to the OS unmodified; Linux treats it as a
// successful no-op.
func Unlock(h Handle) error {
	if err := unix.Flock(int(h), unix.LOCK_UN); err != nil {
		return oserr.From(err)
	}
	return nil
}

// Close releases the descriptor. Failures at close time are not
// actionable and are discarded. On this platform family closing also
// drops any lock still held through the descriptor.
func Close(h Handle) {
	unix.Close(int(h))
}

// Remove deletes the file at path outright, regardless of lock state.
func Remove(path Path) error {
	dirfd := unix.AT_FDCWD
	_, _, errno := unix.Syscall(
		unix.SYS_UNLINKAT,
		uintptr(dirfd),
		uintptr(unsafe.Pointer(path.Ptr())),
		0,
	)
	if errno != 0 {
		return oserr.New(int32(errno))
	}
	return nil
}

// writeHandle truncates the file and writes b at offset zero through h.
// Going through the locked descriptor keeps the write legal on platforms
// where a lock blocks access from other handles.
func writeHandle(h Handle, b []byte) error {
	if err := unix.Ftruncate(int(h), 0); err != nil {
		return oserr.From(err)
	}
	if _, err := unix.Pwrite(int(h), b, 0); err != nil {
		return oserr.From(err)
	}
	return nil
}
