// Package stemmer optionally normalises document text before it reaches
// the search engine core, by replacing every whitespace-separated word
// with its English Snowball stem. It has no relationship to the core's
// tokenizer contract (internal/searchengine/token): the core always
// indexes exactly the bytes it is handed, and never stems on its own.
// Stemming is strictly an ingestion-time choice, toggled per shard by
// config.IndexerConfig.EnableStemming.
package stemmer

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Stem replaces every whitespace-separated word in text with its English
// Snowball stem. A word the stemmer cannot process (non-alphabetic,
// malformed) passes through unchanged rather than failing the whole call.
func Stem(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	out := make([]string, len(words))
	for i, w := range words {
		s, err := snowball.Stem(w, "english", true)
		if err != nil || s == "" {
			out[i] = w
			continue
		}
		out[i] = s
	}
	return strings.Join(out, " ")
}
