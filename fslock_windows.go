// Windows locking backend using LockFileEx/UnlockFileEx.
//
// This file is compiled only on Windows. Locks cover the maximal byte
// range, so they behave like whole-file locks regardless of the file's
// current size. Unlike the Unix family, a locked range also blocks
// ReadFile/WriteFile issued through other handles, which is why PID
// stamping in pidfile writes through the locking handle itself.

//go:build windows

package fslock

import (
	"golang.org/x/sys/windows"

	"tools.zach/dev/fslock/oserr"
	"tools.zach/dev/fslock/osstr"
)

// Handle is a native file handle held only for locking.
type Handle windows.Handle

// Path is the native path representation on this platform family.
type Path = osstr.WideStr

// NewPath converts a Go path string to its native representation.
func NewPath(path string) Path { return osstr.WideFromString(path) }

// allBytes is used for both halves of the lock length, covering the
// maximal range: offset 0, length 2^64-1.
const allBytes = ^uint32(0)

// Open opens the file at path for locking, creating it if absent.
// The nil security attributes leave the handle non-inheritable, and the
// full sharing mode keeps the lock advisory: other processes can still
// open (and with enough privilege, delete) the file.
func Open(path Path) (Handle, error) {
	h, err := windows.CreateFile(
		path.Ptr(),
		windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_ALWAYS,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return Handle(windows.InvalidHandle), oserr.From(err)
	}
	return Handle(h), nil
}

// Lock blocks the calling goroutine's thread until an exclusive lock
// over the whole file is acquired. There is no timeout and no
// cancellation; see [LockFile.LockContext] for a polling alternative.
func Lock(h Handle) error {
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(
		windows.Handle(h),
		windows.LOCKFILE_EXCLUSIVE_LOCK,
		0,
		allBytes, allBytes,
		ol,
	)
	if err != nil {
		return oserr.From(err)
	}
	return nil
}

// TryLock attempts the same acquisition as [Lock] without blocking.
// A lock violation — the range is held elsewhere — is an ordinary false
// result, not an error.
func TryLock(h Handle) (bool, error) {
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(
		windows.Handle(h),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		allBytes, allBytes,
		ol,
	)
	switch {
	case err == nil:
		return true, nil
	case err == windows.ERROR_LOCK_VIOLATION:
		return false, nil
	}
	return false, oserr.From(err)
}

// Unlock releases a lock acquired through h. Calling it when no lock is
// held is passed through to the OS unmodified; Windows reports
// ERROR_NOT_LOCKED.
func Unlock(h Handle) error {
	ol := new(windows.Overlapped)
	err := windows.UnlockFileEx(
		windows.Handle(h),
		0,
		allBytes, allBytes,
		ol,
	)
	if err != nil {
		return oserr.From(err)
	}
	return nil
}

// Close releases the handle. Failures at close time are not actionable
// and are discarded. Closing does not reliably release locks on this
// platform; a portable caller must unlock first.
func Close(h Handle) {
	windows.CloseHandle(windows.Handle(h))
}

// Remove deletes the file at path outright, regardless of lock state.
func Remove(path Path) error {
	if err := windows.DeleteFile(path.Ptr()); err != nil {
		return oserr.From(err)
	}
	return nil
}

// writeHandle truncates the file and writes b at offset zero through h.
// A locked range rejects writes from any other handle, so the stamp must
// travel through the handle that holds the lock.
func writeHandle(h Handle, b []byte) error {
	wh := windows.Handle(h)
	if _, err := windows.SetFilePointer(wh, 0, nil, windows.FILE_BEGIN); err != nil {
		return oserr.From(err)
	}
	var done uint32
	if err := windows.WriteFile(wh, b, &done, nil); err != nil {
		return oserr.From(err)
	}
	if err := windows.SetEndOfFile(wh); err != nil {
		return oserr.From(err)
	}
	return nil
}
