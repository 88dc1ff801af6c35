// Package osstr provides OS-native path strings: NUL-terminated byte
// strings for the Unix platform family ([Str]) and zero-terminated
// UTF-16 strings for Windows ([WideStr]).
//
// Conversion avoids copying whenever the input already satisfies the
// termination invariant, so a caller that keeps its paths terminated
// pays no allocation on the syscall path. Decoding back to Unicode is
// implemented as pure functions over the buffers, with no OS calls, so
// both encodings are testable on every platform.
package osstr

import (
	"bytes"
	"iter"
	"strings"
	"unicode/utf8"
)

// Str is a native byte string: a byte slice whose final byte is NUL and
// which contains no interior NUL bytes. The terminator is part of the
// slice, so a Str can be handed to a raw system call without further
// copying. Construct values with [From], [FromString] or [Str.Clone];
// a hand-built slice that violates the invariant is a caller defect.
type Str []byte

// From converts path bytes into a [Str]. If b already ends with exactly
// one NUL byte, the returned Str aliases b and no allocation is made.
// Otherwise a buffer of len(b)+1 bytes is allocated, b is copied into it
// unchanged, and a terminator is appended.
//
// A NUL byte strictly before the final position is never repaired or
// truncated: it indicates a bug in the caller, so From panics.
func From(b []byte) Str {
	if n := len(b); n > 0 && b[n-1] == 0 {
		checkInterior(b[:n-1])
		return Str(b)
	}
	checkInterior(b)
	s := make(Str, len(b)+1)
	copy(s, b)
	return s
}

// FromString converts a Go string into an owned [Str]. Unlike [From] it
// always allocates, since string memory cannot be aliased as a mutable
// buffer. A trailing NUL in str is accepted and reused as the
// terminator; a NUL anywhere else panics.
func FromString(str string) Str {
	if n := len(str); n > 0 && str[n-1] == 0 {
		if strings.IndexByte(str[:n-1], 0) >= 0 {
			panic(interiorNUL)
		}
		return Str(str)
	}
	if strings.IndexByte(str, 0) >= 0 {
		panic(interiorNUL)
	}
	s := make(Str, len(str)+1)
	copy(s, str)
	return s
}

const interiorNUL = "osstr: interior NUL in native string"

func checkInterior(b []byte) {
	if bytes.IndexByte(b, 0) >= 0 {
		panic(interiorNUL)
	}
}

// Len returns the length in bytes, excluding the terminator.
func (s Str) Len() int { return len(s) - 1 }

// Empty reports whether the string holds no bytes besides the terminator.
func (s Str) Empty() bool { return len(s) <= 1 }

// Bytes returns the content without the terminator. The returned slice
// aliases s.
func (s Str) Bytes() []byte { return s[:len(s)-1] }

// Ptr returns a pointer to the first byte, suitable for passing to a raw
// system call expecting a C string.
func (s Str) Ptr() *byte { return &s[0] }

// Clone returns an owned copy of s backed by freshly allocated memory.
func (s Str) Clone() Str {
	c := make(Str, len(s))
	copy(c, s)
	return c
}

// Runes returns a lazy iterator over the Unicode scalar values of s,
// decoded greedily as UTF-8. Each invalid byte yields one U+FFFD
// replacement and decoding resynchronizes at the following byte, so a
// single bad byte never poisons the rest of the string. The sequence is
// finite and may be ranged over any number of times.
func (s Str) Runes() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		b := s.Bytes()
		for len(b) > 0 {
			r, size := utf8.DecodeRune(b)
			if !yield(r) {
				return
			}
			b = b[size:]
		}
	}
}

// String decodes s for display, replacing invalid bytes as described in
// [Str.Runes].
func (s Str) String() string {
	var sb strings.Builder
	sb.Grow(s.Len())
	for r := range s.Runes() {
		sb.WriteRune(r)
	}
	return sb.String()
}
