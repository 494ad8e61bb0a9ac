package newscorr

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks so "José" matches "Jose".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var stopWords = map[string]struct{}{
	"will": {}, "the": {}, "and": {}, "for": {}, "with": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "have": {}, "has": {}, "had": {},
	"can": {}, "could": {}, "should": {}, "would": {}, "may": {}, "might": {},
	"must": {}, "shall": {}, "are": {}, "was": {}, "were": {}, "been": {},
	"before": {}, "after": {}, "during": {}, "while": {}, "until": {},
	"since": {}, "from": {}, "into": {}, "through": {}, "over": {},
	"under": {}, "above": {}, "below": {}, "out": {}, "off": {},
	"all": {}, "any": {}, "some": {}, "none": {}, "both": {}, "either": {},
	"each": {}, "every": {}, "other": {}, "another": {}, "same": {},
	"new": {}, "old": {}, "first": {}, "last": {}, "next": {}, "more": {},
	"most": {}, "less": {}, "than": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "why": {}, "how": {}, "not": {}, "yet": {},
	"year": {}, "there": {}, "their": {}, "its": {}, "his": {}, "her": {},
}

// tokenize lower-cases, folds diacritics, strips punctuation and stop
// words, and returns the distinct remaining tokens in order.
func tokenize(text string) []string {
	folded, _, err := transform.String(foldDiacritics, text)
	if err != nil {
		folded = text
	}
	folded = strings.ToLower(folded)

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}
