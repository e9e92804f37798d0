// Package memory loads the auxiliary initial-state images that accompany a
// trace: data memory words, the register file image and the instruction
// memory literal of the fetch stage source.
//
// Every loader is stateless. Malformed word lines are skipped; only a
// missing instruction literal or an unreadable file is an error.
package memory

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WordDigits is the number of hex digits in a normalized 64-bit word.
const WordDigits = 16

// scanWords calls fn with every valid hex word line of r, normalized to
// WordDigits lowercase digits. Blank lines and "//" comments are ignored;
// other non-hex lines are counted as skipped. Lines have no length limit.
func scanWords(r io.Reader, fn func(word string)) (skipped int, err error) {
	br := bufio.NewReader(r)
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return skipped, fmt.Errorf("failed to read memory image: %w", readErr)
		}
		line := strings.TrimSpace(raw)
		switch {
		case line == "" || strings.HasPrefix(line, "//"):
		case !isHex(line):
			skipped++
		default:
			fn(normalizeWord(line))
		}
		if readErr == io.EOF {
			return skipped, nil
		}
	}
}

// normalizeWord lowercases s and pads or truncates it on the left to
// WordDigits, keeping the low 64 bits.
func normalizeWord(s string) string {
	s = strings.ToLower(s)
	if len(s) > WordDigits {
		return s[len(s)-WordDigits:]
	}
	return strings.Repeat("0", WordDigits-len(s)) + s
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
