// Package slugify turns arbitrary titles and tag names into identifiers that
// are safe both as file names and as URL path segments.
package slugify

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lower = cases.Lower(language.Und)

	// Keep letters of any script, digits, whitespace, underscores and hyphens.
	// Whitespace and underscores are separators and get collapsed below.
	dropRe     = regexp.MustCompile(`[^\p{L}\p{N}\s_-]+`)
	separateRe = regexp.MustCompile(`[\s_]+`)
)

// Sanitize lowercases the input, keeps letters of any script, digits and
// hyphens, collapses whitespace and underscore runs to a single hyphen, and
// trims leading/trailing hyphens.
//
// The result may be empty; callers that need a non-empty identifier should
// use Safe.
func Sanitize(name string) string {
	s := lower.String(name)
	s = dropRe.ReplaceAllString(s, "")
	s = separateRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Safe sanitizes name and falls back to a short content hash of the raw input
// when sanitization yields an empty string, so the identifier is always
// non-empty and deterministic for a given input.
func Safe(name string) string {
	if s := Sanitize(name); s != "" {
		return s
	}
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])[:8]
}
