// Package oserr represents raw operating system status codes as errors.
//
// An [Error] stores only the numeric code; the human-readable message is
// rendered on demand by asking the OS, so constructing an Error is cheap
// even on paths that never format it. Error unwraps to the standard
// library's [syscall.Errno], so errors.Is comparisons against sentinels
// like [os.ErrNotExist] keep working through it.
package oserr

import (
	"errors"
	"syscall"
)

// Error is an OS status code: an errno value on the Unix family, a
// Win32 error code on Windows.
type Error struct {
	code int32
}

// New returns the Error for an explicit status code.
func New(code int32) *Error {
	return &Error{code: code}
}

// From extracts the status code from an error produced by a system call.
// Every raw call in this module reports failure as a [syscall.Errno];
// an error that carries no Errno maps to code 0.
func From(err error) *Error {
	var errno syscall.Errno
	errors.As(err, &errno)
	return &Error{code: int32(errno)}
}

// Code returns the raw status code.
func (e *Error) Code() int32 { return e.code }

// Errno returns the code as a [syscall.Errno].
func (e *Error) Errno() syscall.Errno { return syscall.Errno(e.code) }

// Error renders the OS description for the code. The result is never
// empty, even for codes the OS does not recognize.
func (e *Error) Error() string { return message(e.code) }

// Unwrap exposes the underlying [syscall.Errno] so the standard errors
// taxonomy (os.ErrNotExist and friends) matches through this type.
func (e *Error) Unwrap() error { return syscall.Errno(e.code) }
