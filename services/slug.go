package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SlugSeparator joins words and the collision counter.
const SlugSeparator = "-"

// FallbackSlug is used when a title has no character that survives Slugify.
const FallbackSlug = "article"

var (
	reSlugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	reSlugSeparators = regexp.MustCompile(`[\s-]+`)
)

// Slugify turns a title into a URL-safe base slug: lower case, diacritics
// stripped, only [a-z0-9] kept, runs of whitespace and hyphens collapsed into
// one hyphen, no hyphen at either end. It is deterministic and idempotent.
func Slugify(title string) string {
	s := stripMarks(strings.ToLower(title))
	s = strings.Map(normalizeSpace, s)
	s = reSlugDisallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = reSlugSeparators.ReplaceAllString(s, SlugSeparator)
	return strings.Trim(s, SlugSeparator)
}

// normalizeSpace maps every Unicode space (NBSP, thin space, ideographic
// space) to ' ', since RE2's \s only knows the ASCII ones.
func normalizeSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// stripMarks decomposes s (NFD) and drops the combining marks: "ção" -> "cao".
func stripMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SlugCandidate returns the n-th candidate for base: base, base-2, base-3, ...
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + SlugSeparator + strconv.Itoa(n)
}
