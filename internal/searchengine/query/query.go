// Package query parses raw search-query byte-strings into deduplicated,
// sorted plus/minus term lists.
package query

import (
	"sort"
	"strings"

	"github.com/kestrel-search/searchplatform/internal/searchengine/apperr"
	"github.com/kestrel-search/searchplatform/internal/searchengine/token"
)

// Query is the parsed form of a raw search query: a deduplicated, sorted
// list of required ("plus") terms and a deduplicated, sorted list of
// forbidden ("minus") terms. Order within each list does not affect
// retrieval results.
type Query struct {
	Plus  []string
	Minus []string
}

// Parse classifies the whitespace-separated tokens of raw into plus/minus
// terms, dropping any that appear in stop. It fails with
// apperr.ErrInvalidCharacter if a token (after stripping a leading "-")
// contains a control byte, or apperr.ErrMalformedMinus if a token is a bare
// "-" or begins with "--".
func Parse(raw string, stop *token.StopWords) (Query, error) {
	plusSet := make(map[string]struct{})
	minusSet := make(map[string]struct{})

	for _, word := range token.Split(raw) {
		term := word
		isMinus := false
		if strings.HasPrefix(word, "-") {
			isMinus = true
			term = word[1:]
		}
		if term != "" {
			if err := token.Validate(term); err != nil {
				return Query{}, err
			}
		}
		if isMinus && (term == "" || strings.HasPrefix(term, "-")) {
			return Query{}, apperr.Newf(apperr.ErrMalformedMinus, "query word %q has no term after the minus sign, or repeats it", token.Sanitize(word))
		}
		if stop.Contains(term) {
			continue
		}
		if isMinus {
			minusSet[term] = struct{}{}
		} else {
			plusSet[term] = struct{}{}
		}
	}

	return Query{
		Plus:  sortedKeys(plusSet),
		Minus: sortedKeys(minusSet),
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
