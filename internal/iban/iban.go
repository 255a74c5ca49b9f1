// Package iban does structural validation of account identifiers.
package iban

import (
	"regexp"
	"strings"
)

// country code, check digits, 3-5 character blocks, optional short tail.
// Separators between blocks are optional.
var pattern = regexp.MustCompile(`^[A-Z]{2}[\s-]?[0-9]{2}(?:[\s-]?[A-Z0-9]{3,5})+(?:[\s-]?[A-Z0-9]{1,3})?$`)

const (
	minBodyLen = 9
	maxBodyLen = 30
)

// Validate reports whether s is a structurally valid IBAN. The mod-97
// checksum is not verified.
func Validate(s string) bool {
	s = strings.TrimSpace(s)
	if !pattern.MatchString(s) {
		return false
	}
	body := len(Normalize(s)) - 4
	return body >= minBodyLen && body <= maxBodyLen
}

// Normalize strips whitespace and hyphen separators.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r', '-':
			return -1
		}
		return r
	}, s)
}
