// Package language normalizes the configured transcription language down to
// the ISO 639-1 code the speech-to-text capability expects.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize parses a BCP-47 tag (or bare ISO code) and returns the two-letter
// base language code, e.g. "en-US" -> "en". The language is fixed per job; no
// detection happens downstream.
func Normalize(tag string) (string, error) {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return "", fmt.Errorf("language tag required")
	}
	parsed, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse language tag %q: %w", trimmed, err)
	}
	base, _ := parsed.Base()
	code := base.String()
	if len(code) != 2 {
		return "", fmt.Errorf("language %q has no two-letter code", trimmed)
	}
	return code, nil
}

// DisplayName returns the English display name for a language tag, falling
// back to the raw tag when it cannot be parsed.
func DisplayName(tag string) string {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return tag
	}
	return display.English.Tags().Name(parsed)
}
