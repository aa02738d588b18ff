package requestqueue

import (
	"testing"

	"github.com/kestrel-search/searchplatform/internal/searchengine"
)

func mustEngine(t *testing.T) *searchengine.Engine {
	t.Helper()
	e, err := searchengine.New([]string{"and", "in", "on", "the"})
	if err != nil {
		t.Fatalf("searchengine.New: %v", err)
	}
	if err := e.AddDocument(0, "curly cat curly tail", searchengine.StatusActual, []int{1}); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	return e
}

func TestAddFindRequestTracksNoResultCount(t *testing.T) {
	e := mustEngine(t)
	q := New(e)

	if _, err := q.AddFindRequest("curly"); err != nil {
		t.Fatalf("AddFindRequest: %v", err)
	}
	if got := q.GetNoResultRequests(); got != 0 {
		t.Fatalf("GetNoResultRequests = %d, want 0", got)
	}

	for i := 0; i < 3; i++ {
		if _, err := q.AddFindRequest("nonexistent"); err != nil {
			t.Fatalf("AddFindRequest: %v", err)
		}
	}
	if got := q.GetNoResultRequests(); got != 3 {
		t.Fatalf("GetNoResultRequests = %d, want 3", got)
	}
}

func TestQueueEvictsOldestBeyondWindow(t *testing.T) {
	e := mustEngine(t)
	q := New(e)

	for i := 0; i < WindowSize; i++ {
		if _, err := q.AddFindRequest("nonexistent"); err != nil {
			t.Fatalf("AddFindRequest: %v", err)
		}
	}
	if got := q.GetNoResultRequests(); got != WindowSize {
		t.Fatalf("GetNoResultRequests = %d, want %d", got, WindowSize)
	}

	if _, err := q.AddFindRequest("curly"); err != nil {
		t.Fatalf("AddFindRequest: %v", err)
	}
	if got := q.GetNoResultRequests(); got != WindowSize-1 {
		t.Fatalf("GetNoResultRequests = %d, want %d after a result-bearing request evicts the oldest no-result entry", got, WindowSize-1)
	}
}

func TestAddFindRequestByStatusAndFunc(t *testing.T) {
	e := mustEngine(t)
	q := New(e)

	if _, err := q.AddFindRequestByStatus("curly", searchengine.StatusActual); err != nil {
		t.Fatalf("AddFindRequestByStatus: %v", err)
	}
	if _, err := q.AddFindRequestFunc("curly", func(id int, status searchengine.Status, rating int) bool {
		return rating >= 0
	}); err != nil {
		t.Fatalf("AddFindRequestFunc: %v", err)
	}
	if got := q.GetNoResultRequests(); got != 0 {
		t.Fatalf("GetNoResultRequests = %d, want 0", got)
	}
}
