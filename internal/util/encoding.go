package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail canonicalizes an email address for use as a uniqueness key:
// NFC normalization plus ASCII-insensitive lowercasing. The destination
// store compares emails byte-for-byte, so both sides of every guard must go
// through this.
func NormalizeEmail(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
