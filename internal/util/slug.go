// Package util provides common utility functions.
package util

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of characters that cannot appear in a slug.
	nonSlugRe = regexp.MustCompile(`[^a-z0-9_-]+`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
	// A stored slug: letters, digits, underscores and dashes.
	validSlugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Slugify converts a page title to a URL-safe slug.
//
// Examples:
//
//	"About Us"        → "about-us"
//	"Café Crème"      → "cafe-creme"
//	"2024/Reports"    → "2024-reports"
//	"  --News!--  "   → "news"
func Slugify(title string) string {
	// Decompose accented characters so the base letter survives.
	s := norm.NFKD.String(title)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NthSlug returns the n-th candidate for a slug that is already taken:
// the slug itself for n < 2, otherwise "slug-n".
func NthSlug(slug string, n int) string {
	if n < 2 {
		return slug
	}
	return slug + "-" + strconv.Itoa(n)
}

// ValidSlug reports whether s can be stored as a page or item slug.
func ValidSlug(s string) bool {
	return validSlugRe.MatchString(s)
}
