// Package extract resolves raw user text into canonical answers for the
// pending question. Resolution never fails: the fallback chain always
// produces some value.
package extract

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
)

// Resolve maps raw user text to the answer values for a question.
//
// Choice kinds try, in order: a 1-based numeric index (multi-choice also
// accepts free-form lists like "1,3"), then a case- and accent-insensitive
// substring match of each option label against the text with catalog order
// breaking ties, then the trimmed raw text verbatim. Free-text kinds return
// the trimmed raw text unconditionally, even when empty. The result always
// has at least one element.
func Resolve(q catalog.Question, raw string) []string {
	text := strings.TrimSpace(raw)

	if !q.Kind.Choice() {
		return []string{text}
	}

	if vals := resolveNumeric(q, text); len(vals) > 0 {
		return vals
	}

	// First option whose label appears inside the text wins. Deliberate
	// first-match in catalog order, not best-match.
	folded := Fold(text)
	for _, opt := range q.Options {
		if strings.Contains(folded, Fold(opt)) {
			return []string{opt}
		}
	}

	// No match: store what the user typed rather than stalling the flow.
	return []string{text}
}

func resolveNumeric(q catalog.Question, text string) []string {
	if q.Kind == catalog.KindMultiChoice {
		return resolveNumericList(q.Options, text)
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(q.Options) {
		return []string{q.Options[n-1]}
	}
	return nil
}

// resolveNumericList parses free-form numeric lists ("1,3", "2 y 4").
// Every token must be a valid 1-based index for the list to resolve.
func resolveNumericList(options []string, text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return nil
	}

	var out []string
	seen := make(map[int]bool)
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 || n > len(options) {
			return nil
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, options[n-1])
		}
	}
	return out
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases text and strips diacritics, so "Teñido" matches "tenido".
func Fold(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}
