// Package util provides common utility functions.
package util

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// NormalizeTagSlug converts a tag name to its canonical slug spelling.
// The slug is advisory: tag identity is the exact name string, and the slug
// is only offered back to users as a "did you mean" suggestion.
//
// Normalization rules:
//  1. Trim whitespace and lowercase
//  2. Replace spaces and underscores with dashes
//  3. Remove non-alphanumeric characters (except dashes)
//  4. Collapse multiple dashes
//  5. Trim leading/trailing dashes
//
// Examples:
//
//	"Slow Burn"     → "slow-burn"
//	"slow_burn"     → "slow-burn"
//	"SLOW-BURN"     → "slow-burn"
//	"🐉 Dragons!"   → "dragons"
//	"  multi   word " → "multi-word"
//	"--leading--"   → "leading"
func NormalizeTagSlug(input string) string {
	// 1. Trim and lowercase
	s := strings.ToLower(strings.TrimSpace(input))

	// 2. Replace word separators (spaces, underscores, slashes) with dashes
	s = wordSeparatorRe.ReplaceAllString(s, "-")

	// 3. Remove non-alphanumeric (except dashes)
	s = nonAlphanumericRe.ReplaceAllString(s, "")

	// 4. Collapse multiple dashes
	s = multipleDashRe.ReplaceAllString(s, "-")

	// 5. Trim leading/trailing dashes
	s = strings.Trim(s, "-")

	return s
}

// TagNameWarnings reports advisory issues with a tag name. None of these
// block creation or import; they surface in validation results as warnings.
func TagNameWarnings(name string) []string {
	var warnings []string

	if trimmed := strings.TrimSpace(name); trimmed != name {
		warnings = append(warnings, fmt.Sprintf("tag %q has leading or trailing whitespace", name))
	}
	if !norm.NFC.IsNormalString(name) {
		warnings = append(warnings, fmt.Sprintf("tag %q is not NFC-normalized unicode", name))
	}
	if name != strings.ToLower(name) && hasLetter(name) {
		warnings = append(warnings, fmt.Sprintf("tag %q contains uppercase characters; canonical form is %q", name, NormalizeTagSlug(name)))
	}

	return warnings
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
