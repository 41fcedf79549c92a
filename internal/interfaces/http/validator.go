package http

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation constants
const (
	MaxPhoneLength     = 20
	MaxNameLength      = 255
	MaxBodyLength      = 4096
	MaxConfigKeyLength = 50
	MaxConfigValLength = 10000
)

var (
	phonePattern     = regexp.MustCompile(`^\+?[0-9]{6,15}$`)
	configKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// ValidPhone checks for a plausible E.164-style phone number.
func ValidPhone(s string) bool {
	return s != "" && len(s) <= MaxPhoneLength && phonePattern.MatchString(s)
}

// ValidConfigKey checks if a config key is safe
func ValidConfigKey(s string) bool {
	return s != "" && len(s) <= MaxConfigKeyLength && configKeyPattern.MatchString(s)
}

// SanitizeString removes null bytes and invalid UTF-8
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString truncates a string to at most maxLen bytes without
// splitting a multi-byte rune.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
