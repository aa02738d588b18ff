// Package dedupe removes documents that are duplicates of an
// earlier-indexed document, where "duplicate" means an identical set of
// distinct terms (frequencies may differ).
package dedupe

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kestrel-search/searchplatform/internal/searchengine"
)

// RemoveDuplicates scans engine for documents sharing a distinct-term-set
// signature with an earlier (lower id) document, removes every member of
// each such group but the lowest id, and returns the removed ids in
// ascending order. The ids-to-remove working set is a roaring bitmap,
// since a production index can carry millions of duplicate candidates and
// a plain int set would dominate this pass's memory footprint.
func RemoveDuplicates(engine *searchengine.Engine) []int {
	ids := engine.DocumentIDs()
	sortedIDs := append([]int(nil), ids...)
	sort.Ints(sortedIDs)

	seenSignatures := make(map[string]struct{}, len(sortedIDs))
	toRemove := roaring.New()

	for _, id := range sortedIDs {
		sig := signatureOf(engine.GetWordFrequencies(id))
		if _, duplicate := seenSignatures[sig]; duplicate {
			toRemove.Add(uint32(id))
			continue
		}
		seenSignatures[sig] = struct{}{}
	}

	removed := make([]int, 0, toRemove.GetCardinality())
	it := toRemove.Iterator()
	for it.HasNext() {
		removed = append(removed, int(it.Next()))
	}

	for _, id := range removed {
		engine.RemoveDocument(id)
	}

	if len(removed) > 0 {
		slog.Default().With("component", "dedupe").Info("duplicate documents removed",
			"count", len(removed),
			"ids", removed,
		)
	}

	return removed
}

// signatureOf builds a stable signature from a document's distinct term
// set. Frequencies are deliberately excluded: two documents are duplicates
// if they use the same words at all, regardless of how often.
func signatureOf(freqs map[string]float64) string {
	terms := make([]string, 0, len(freqs))
	for term := range freqs {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return strings.Join(terms, "\x00")
}
