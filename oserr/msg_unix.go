//go:build !windows

package oserr

import "syscall"

// message renders the description for an errno value using the
// runtime's errno string table, the same table strerror(3) exposes.
// Unknown values render as "errno <n>".
func message(code int32) string {
	return syscall.Errno(code).Error()
}
