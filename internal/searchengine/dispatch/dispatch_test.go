package dispatch

import (
	"testing"

	"github.com/kestrel-search/searchplatform/internal/searchengine"
)

func mustEngine(t *testing.T) *searchengine.Engine {
	t.Helper()
	e, err := searchengine.New(nil)
	if err != nil {
		t.Fatalf("searchengine.New: %v", err)
	}
	docs := []struct {
		id   int
		text string
	}{
		{0, "white cat with fashionable collar"},
		{1, "fluffy cat fluffy tail"},
		{2, "groomed dog expressive eyes"},
		{3, "groomed starling eugene"},
	}
	for _, d := range docs {
		if err := e.AddDocument(d.id, d.text, searchengine.StatusActual, []int{1}); err != nil {
			t.Fatalf("AddDocument(%d): %v", d.id, err)
		}
	}
	return e
}

func TestProcessQueriesReturnsOnePerQuery(t *testing.T) {
	e := mustEngine(t)
	queries := []string{"cat", "dog", "nonexistent", "groomed"}

	results, err := ProcessQueries(e, queries)
	if err != nil {
		t.Fatalf("ProcessQueries: %v", err)
	}
	if len(results) != len(queries) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(queries))
	}
	if len(results[0]) == 0 {
		t.Fatalf("query %q returned no results", queries[0])
	}
	if len(results[2]) != 0 {
		t.Fatalf("query %q should return no results, got %+v", queries[2], results[2])
	}
}

func TestProcessQueriesJoinedFlattensInOrder(t *testing.T) {
	e := mustEngine(t)
	queries := []string{"cat", "dog"}

	perQuery, err := ProcessQueries(e, queries)
	if err != nil {
		t.Fatalf("ProcessQueries: %v", err)
	}
	joined, err := ProcessQueriesJoined(e, queries)
	if err != nil {
		t.Fatalf("ProcessQueriesJoined: %v", err)
	}

	wantLen := 0
	for _, docs := range perQuery {
		wantLen += len(docs)
	}
	if len(joined) != wantLen {
		t.Fatalf("len(joined) = %d, want %d", len(joined), wantLen)
	}

	idx := 0
	for _, docs := range perQuery {
		for _, d := range docs {
			if joined[idx].ID != d.ID {
				t.Fatalf("joined[%d].ID = %d, want %d", idx, joined[idx].ID, d.ID)
			}
			idx++
		}
	}
}
