package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameSuffixes lists generational suffixes stripped during name
// normalization so "Sam Snead Jr." and "Sam Snead" key the same.
var nameSuffixes = []string{
	" JR", " JR.", " SR", " SR.",
	" II", " III", " IV", " V",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics strips combining marks so "Ludvig Åberg" and
// "Ludvig Aberg" normalize identically.
func FoldDiacritics(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName standardizes a person name for identity matching by:
//  1. Trimming whitespace
//  2. Folding diacritics to ASCII
//  3. Converting to uppercase
//  4. Removing generational suffixes (Jr, Sr, III, etc.)
//  5. Stripping punctuation
//  6. Collapsing multiple spaces into single spaces
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = FoldDiacritics(name)
	name = strings.ToUpper(name)

	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"-", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	return name
}

// IdentityKey builds the composite key used for name-based player matching.
func IdentityKey(firstName, lastName string) string {
	return NormalizeName(firstName) + "|" + NormalizeName(lastName)
}

// SplitName breaks a display name into first and last parts. Everything
// after the first token goes to the last name, which matches how the tour
// feeds render multi-word surnames.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
