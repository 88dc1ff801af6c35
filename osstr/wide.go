package osstr

import (
	"iter"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Surrogate ranges of the UTF-16 encoding.
const (
	surrHighMin = 0xD800
	surrHighMax = 0xDBFF
	surrLowMin  = 0xDC00
	surrLowMax  = 0xDFFF
	surrBase    = 0x10000
)

// WideStr is a native wide string as used by the Windows API: a slice of
// 16-bit code units whose final unit is zero, with no interior zero
// unit. The terminator is part of the slice so a WideStr can be passed
// to a system call expecting an LPCWSTR. Construct values with
// [FromUTF16], [WideFromString] or [WideStr.Clone].
type WideStr []uint16

// FromUTF16 converts UTF-16 code units into a [WideStr]. If u already
// ends with exactly one zero unit, the returned WideStr aliases u and no
// allocation is made. Otherwise a buffer of len(u)+1 units is allocated,
// u is copied unchanged, and a terminator is appended.
//
// A zero unit strictly before the final position panics: it is a caller
// defect, not a recoverable condition.
func FromUTF16(u []uint16) WideStr {
	if n := len(u); n > 0 && u[n-1] == 0 {
		checkInteriorWide(u[:n-1])
		return WideStr(u)
	}
	checkInteriorWide(u)
	s := make(WideStr, len(u)+1)
	copy(s, u)
	return s
}

// WideFromString converts a Go string into an owned [WideStr], encoding
// it as UTF-16. Invalid UTF-8 in str encodes as U+FFFD. A NUL rune
// anywhere but the final position panics.
func WideFromString(str string) WideStr {
	return FromUTF16(utf16.Encode([]rune(str)))
}

func checkInteriorWide(u []uint16) {
	for _, c := range u {
		if c == 0 {
			panic(interiorNUL)
		}
	}
}

// Len returns the length in code units, excluding the terminator.
func (s WideStr) Len() int { return len(s) - 1 }

// Empty reports whether the string holds no units besides the terminator.
func (s WideStr) Empty() bool { return len(s) <= 1 }

// Units returns the code units without the terminator. The returned
// slice aliases s.
func (s WideStr) Units() []uint16 { return s[:len(s)-1] }

// Ptr returns a pointer to the first unit, suitable for passing to a
// system call expecting a wide C string.
func (s WideStr) Ptr() *uint16 { return &s[0] }

// Clone returns an owned copy of s backed by freshly allocated memory.
func (s WideStr) Clone() WideStr {
	c := make(WideStr, len(s))
	copy(c, s)
	return c
}

// Runes returns a lazy iterator over the Unicode scalar values of s.
// A unit outside the surrogate ranges decodes directly. A high surrogate
// immediately followed by a low surrogate combines into one scalar value
// beyond the basic plane. The encoding is assumed well formed; an
// unpaired surrogate yields U+FFFD. The sequence is finite and may be
// ranged over any number of times.
func (s WideStr) Runes() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		u := s.Units()
		for i := 0; i < len(u); i++ {
			c := u[i]
			switch {
			case c < surrHighMin || c > surrLowMax:
				if !yield(rune(c)) {
					return
				}
			case c <= surrHighMax && i+1 < len(u) &&
				u[i+1] >= surrLowMin && u[i+1] <= surrLowMax:
				hi := rune(c - surrHighMin)
				lo := rune(u[i+1] - surrLowMin)
				if !yield((hi<<10 | lo) + surrBase) {
					return
				}
				i++
			default:
				if !yield(utf8.RuneError) {
					return
				}
			}
		}
	}
}

// String decodes s for display as described in [WideStr.Runes].
func (s WideStr) String() string {
	var sb strings.Builder
	sb.Grow(s.Len())
	for r := range s.Runes() {
		sb.WriteRune(r)
	}
	return sb.String()
}
