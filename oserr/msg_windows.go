//go:build windows

package oserr

import (
	"strconv"
	"strings"

	"golang.org/x/sys/windows"

	"tools.zach/dev/fslock/osstr"
)

// message renders the description for a Win32 error code via
// FormatMessageW. The system hands the text back in the native wide
// encoding, so it goes through the surrogate-aware [osstr.WideStr]
// decoder. Codes the system does not recognize render as "status <n>".
func message(code int32) string {
	const flags = windows.FORMAT_MESSAGE_FROM_SYSTEM |
		windows.FORMAT_MESSAGE_IGNORE_INSERTS

	var buf [512]uint16
	n, err := windows.FormatMessage(flags, 0, uint32(code), 0, buf[:], nil)
	if err != nil || n == 0 {
		return "status " + strconv.Itoa(int(code))
	}
	text := osstr.FromUTF16(append(buf[:n:n], 0)).String()
	return strings.TrimRight(text, "\r\n ")
}
