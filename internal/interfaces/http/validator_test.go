package http

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidPhone(t *testing.T) {
	cases := []struct {
		phone string
		want  bool
	}{
		{"361234567", true},
		{"+361234567", true},
		{"123456", true},
		{"123456789012345", true},
		{"", false},
		{"12345", false},
		{"1234567890123456", false},
		{"+36 12 345", false},
		{"abc123456", false},
		{"36-1234567", false},
	}

	for _, tc := range cases {
		if got := ValidPhone(tc.phone); got != tc.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tc.phone, got, tc.want)
		}
	}
}

func TestValidConfigKey(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"welcome_message", true},
		{"cta_message", true},
		{"Key_2", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
		{strings.Repeat("k", 51), false},
	}

	for _, tc := range cases {
		if got := ValidConfigKey(tc.key); got != tc.want {
			t.Errorf("ValidConfigKey(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("hello\x00world"); got != "helloworld" {
		t.Errorf("null bytes must be stripped, got %q", got)
	}
	if got := SanitizeString("caf\xc3\xa9"); got != "café" {
		t.Errorf("valid UTF-8 must pass through, got %q", got)
	}
	if got := SanitizeString("bad\xffbyte"); got != "badbyte" {
		t.Errorf("invalid UTF-8 must be dropped, got %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("short strings pass through, got %q", got)
	}
	if got := TruncateString("0123456789", 4); got != "0123" {
		t.Errorf("long strings are cut at maxLen, got %q", got)
	}
}

func TestTruncateString_KeepsRuneBoundary(t *testing.T) {
	// "héllo": é is two bytes, so a cut at byte 2 would split it.
	if got := TruncateString("héllo", 2); got != "h" {
		t.Errorf("truncation must back off to the rune boundary, got %q", got)
	}
	for maxLen := 0; maxLen <= 8; maxLen++ {
		got := TruncateString("日本語", maxLen)
		if !utf8.ValidString(got) {
			t.Errorf("TruncateString(%q, %d) = %q is not valid UTF-8", "日本語", maxLen, got)
		}
	}
}
