// Package names collapses the many observed spellings of a player into one
// canonical display name, using only the names seen in the current dataset.
package names

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// playerPlaceholderRe matches "игрок", "игрок 3" and similar seat fillers.
var playerPlaceholderRe = regexp.MustCompile(`^игрок\s*\d*$`)

// placeholderTokens are non-person markers that appear in player cells.
var placeholderTokens = map[string]struct{}{
	"":      {},
	"пусто": {},
	".":     {},
	"-":     {},
	"--":    {},
	"---":   {},
}

// cyrillicFold collapses letter variants that differ between sources:
// ё/е, Ukrainian і/ї vs и, ґ vs г.
var cyrillicFold = strings.NewReplacer(
	"ё", "е",
	"і", "и",
	"ї", "и",
	"ґ", "г",
)

// Sanitize trims and collapses whitespace without changing case.
func Sanitize(value string) string {
	value = strings.ReplaceAll(value, " ", " ")
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(value), " ")
}

// Normalize lowercases a sanitized name and folds Cyrillic letter variants.
func Normalize(value string) string {
	return cyrillicFold.Replace(strings.ToLower(Sanitize(value)))
}

// IsPlaceholder reports whether a raw cell value stands in for an absent
// player rather than naming a person.
func IsPlaceholder(value string) bool {
	normalized := Normalize(value)
	if _, ok := placeholderTokens[normalized]; ok {
		return true
	}
	return playerPlaceholderRe.MatchString(normalized)
}

// tokens splits a normalized name into its whitespace-separated tokens.
func tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// initialsOf derives the initials signature of a surname token: the first
// letter of every hyphen-separated part, e.g. "силицкий-бутрим" → "сб" and
// the abbreviated "с-б." → "сб".
func initialsOf(token string) string {
	var sb strings.Builder
	for _, part := range strings.Split(token, "-") {
		part = strings.Trim(part, ".")
		for _, r := range part {
			sb.WriteRune(r)
			break
		}
	}
	return sb.String()
}

// isInitialsToken reports whether a token looks like an abbreviation
// ("т.", "с-б.") rather than a full surname.
func isInitialsToken(token string) bool {
	if !strings.HasSuffix(token, ".") {
		return false
	}
	for _, part := range strings.Split(strings.TrimSuffix(token, "."), "-") {
		if len([]rune(strings.Trim(part, "."))) > 1 {
			return false
		}
	}
	return true
}

// sortedSignature joins the sorted tokens of a multi-token name so that
// reorderings collapse to one key.
func sortedSignature(toks []string) string {
	sorted := make([]string, len(toks))
	copy(sorted, toks)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return strings.Join(sorted, " ")
}

// reversedForm swaps token order ("last first" vs "first last").
func reversedForm(toks []string) string {
	reversed := make([]string, len(toks))
	for i, tok := range toks {
		reversed[len(toks)-1-i] = tok
	}
	return strings.Join(reversed, " ")
}
