// Package content holds small text helpers shared by the built-in capabilities.
package content

import (
	"strings"
	"unicode/utf8"
)

// binarySampleSize matches Git's heuristic: only the first 8000 bytes are scanned.
const binarySampleSize = 8000

// IsBinary reports whether data looks like binary content (a NUL byte in the
// leading sample). UTF-16/UTF-32 byte order marks are treated as text.
func IsBinary(data []byte) bool {
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		return false
	}
	if len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0xFE && data[3] == 0xFF {
		return false
	}
	n := min(len(data), binarySampleSize)
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

// SplitLines splits on \n and \r\n without a trailing empty element.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return strings.Split(s, "\n")
}

// Truncate cuts s to at most maxChars characters (runes) and reports whether it did.
func Truncate(s string, maxChars int) (string, bool) {
	if maxChars < 0 || utf8.RuneCountInString(s) <= maxChars {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == maxChars {
			return s[:pos], true
		}
		i++
	}
	return s, false
}
