// Package username derives candidate Mattermost usernames from person names.
//
// Normalization pipeline:
//
//  1. Lowercase
//  2. German digraph fold (ä→ae, ö→oe, ü→ue, ß→ss)
//  3. Strip remaining combining marks via NFD (é→e, ñ→n, ...)
//  4. Drop every character outside [a-z-]
//
// The output always matches [a-z-]* and the pipeline is idempotent.
package username

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// digraphs maps German letters that fold to two ASCII letters. Everything
// else is handled by the generic combining-mark strip.
var digraphs = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// Normalize converts a raw name part into its canonical username token.
// It is total: unmapped characters are dropped, never rejected.
func Normalize(s string) string {
	s = digraphs.Replace(strings.ToLower(s))
	return keepASCII(foldMarks(s))
}

// FoldASCII is the lenient variant used as a secondary override key: umlauts
// lose their mark instead of gaining an e (ö→o), so a configured
// "gaisdorfer" still matches "Gaisdörfer".
func FoldASCII(s string) string {
	return keepASCII(foldMarks(strings.ToLower(s)))
}

func foldMarks(s string) string {
	// NFD exposes combining marks, runes.Remove drops them, NFC recomposes
	// whatever is left.
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return out
}

func keepASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
