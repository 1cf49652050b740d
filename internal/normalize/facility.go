package normalize

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	reNonAlnum = regexp.MustCompile(`[^A-Z0-9\s]`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

// Corporate noise tokens carry no identity signal and defeat fuzzy scoring,
// so they are stripped from the comparison form of a name. The original
// display name is always kept alongside.
var noiseTokens = []string{"PVT", "LTD", "LIMITED", "PRIVATE", "A UNIT OF"}

// CleanName produces the canonical comparison form of a facility name:
// uppercased, transliterated to ASCII, punctuation collapsed to spaces,
// corporate noise removed. Returns "" for blank input.
func CleanName(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = unidecode.Unidecode(s)
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	for _, noise := range noiseTokens {
		s = strings.ReplaceAll(s, noise, "")
	}
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// Tokens splits a canonical name into its word tokens.
func Tokens(cleanName string) []string {
	return strings.Fields(cleanName)
}

// TokenOverlap computes the Jaccard overlap of two canonical names' token
// sets. Used as a cheap prefilter before full similarity scoring.
func TokenOverlap(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	set := make(map[string]bool, len(ta))
	for _, tok := range ta {
		set[tok] = true
	}

	union := make(map[string]bool, len(ta)+len(tb))
	for _, tok := range ta {
		union[tok] = true
	}
	inter := 0
	for _, tok := range tb {
		if set[tok] {
			inter++
			// Count each shared token once even if repeated.
			delete(set, tok)
		}
		union[tok] = true
	}

	return float64(inter) / float64(len(union))
}

// TitleCase uppercases the first letter of each word, lowering the rest.
// District names arrive in every imaginable casing.
func TitleCase(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}
