// Package e2e contains end-to-end tests that exercise the full platform
// stack: gateway → ingestion → indexer → search, with real Kafka, PostgreSQL,
// and Redis.
//
// Prerequisites:
//   - PostgreSQL running with schema applied
//   - Kafka (with Zookeeper) running
//   - Redis running
//
// Run with:
//
//	go test -v -tags=e2e -timeout=120s ./test/e2e/...
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

type e2eConfig struct {
	GatewayURL   string
	IngestionURL string
	SearcherURL  string
}

func loadE2EConfig() e2eConfig {
	return e2eConfig{
		GatewayURL:   envOrDefault("E2E_GATEWAY_URL", "http://localhost:8082"),
		IngestionURL: envOrDefault("E2E_INGESTION_URL", "http://localhost:8081"),
		SearcherURL:  envOrDefault("E2E_SEARCHER_URL", "http://localhost:8080"),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

// TestPlatformHealth verifies all services respond to health checks.
func TestPlatformHealth(t *testing.T) {
	cfg := loadE2EConfig()

	services := []struct {
		name string
		url  string
	}{
		{"search /health/live", cfg.SearcherURL + "/health/live"},
		{"search /health/ready", cfg.SearcherURL + "/health/ready"},
		{"ingestion /health", cfg.IngestionURL + "/health"},
		{"gateway /health", cfg.GatewayURL + "/health"},
	}

	client := &http.Client{Timeout: 5 * time.Second}

	for _, svc := range services {
		t.Run(svc.name, func(t *testing.T) {
			resp, err := client.Get(svc.url)
			if err != nil {
				t.Skipf("service unavailable: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

// TestIngestAndSearch exercises the full document lifecycle:
// ingest → wait for indexing → search → verify results.
func TestIngestAndSearch(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	// Check that ingestion service is reachable.
	if _, err := client.Get(cfg.IngestionURL + "/health"); err != nil {
		t.Skipf("ingestion service unavailable: %v", err)
	}

	// 1. Ingest a document with a unique title.
	uniqueWord := fmt.Sprintf("e2etest%d", time.Now().UnixNano())
	payload := fmt.Sprintf(`{"title":"%s document","body":"This is an end-to-end test document containing the word %s for verification."}`, uniqueWord, uniqueWord)

	resp, err := client.Post(
		cfg.IngestionURL+"/api/v1/documents",
		"application/json",
		strings.NewReader(payload),
	)
	if err != nil {
		t.Fatalf("ingest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, body)
	}

	var ingestResult map[string]any
	json.NewDecoder(resp.Body).Decode(&ingestResult)
	docID := ingestResult["document_id"]
	t.Logf("ingested document: id=%v, shard=%v", docID, ingestResult["shard_id"])

	// 2. Wait for indexing (poll search service).
	t.Log("waiting for document to be indexed...")
	var found bool
	for attempt := 0; attempt < 30; attempt++ {
		time.Sleep(1 * time.Second)

		searchResp, err := client.Get(cfg.SearcherURL + "/api/v1/search?q=" + uniqueWord + "&limit=5")
		if err != nil {
			t.Logf("attempt %d: search request failed: %v", attempt, err)
			continue
		}

		var searchResult map[string]any
		json.NewDecoder(searchResp.Body).Decode(&searchResult)
		searchResp.Body.Close()

		totalHits, _ := searchResult["total_hits"].(float64)
		if totalHits > 0 {
			found = true
			t.Logf("document found after %d seconds (total_hits=%v)", attempt+1, totalHits)
			break
		}
	}

	if !found {
		t.Log("document not found in search within 30s — indexing may be slow or services not fully connected")
		// Don't fail hard — the e2e environment may not have all services wired up.
	}
}

// TestSearchMalformedQueryReturns400 verifies that the searcher service
// classifies a syntactically malformed query (a bare "--" minus term,
// apperr.ErrMalformedMinus in the core engine) as a 400 through the
// pkg/errors.HTTPStatusCode dispatch, rather than the generic 500 a
// blanket error mapping would produce.
func TestSearchMalformedQueryReturns400(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(cfg.SearcherURL + "/api/v1/search?q=hello+--")
	if err != nil {
		t.Skipf("search service unavailable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("expected 400 for malformed minus query, got %d: %s", resp.StatusCode, body)
	}
}

// TestSearchAnalytics verifies that search queries generate analytics events.
func TestSearchAnalytics(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 5 * time.Second}

	// Issue a search query.
	resp, err := client.Get(cfg.SearcherURL + "/api/v1/search?q=analytics+test")
	if err != nil {
		t.Skipf("search service unavailable: %v", err)
	}
	resp.Body.Close()

	// Give time for analytics event to be collected.
	time.Sleep(2 * time.Second)

	// Check analytics endpoint.
	analyticsResp, err := client.Get(cfg.SearcherURL + "/api/v1/analytics")
	if err != nil {
		t.Fatalf("analytics request failed: %v", err)
	}
	defer analyticsResp.Body.Close()

	var stats map[string]any
	json.NewDecoder(analyticsResp.Body).Decode(&stats)

	totalSearches, _ := stats["total_searches"].(float64)
	t.Logf("analytics: total_searches=%v, cache_hits=%v, cache_misses=%v, no_result_ratio=%v, docs_rejected=%v",
		stats["total_searches"], stats["cache_hits"], stats["cache_misses"],
		stats["no_result_ratio"], stats["docs_rejected"])

	if totalSearches < 1 {
		t.Log("expected at least 1 search recorded in analytics")
	}

	// no_result_ratio and docs_rejected are always present once the
	// aggregator has processed at least one event, even if zero.
	for _, field := range []string{"no_result_ratio", "docs_rejected", "docs_failed"} {
		if _, ok := stats[field]; !ok {
			t.Errorf("missing expected analytics field: %s", field)
		}
	}
}

// TestSearchCacheStats verifies that cache statistics are reported.
func TestSearchCacheStats(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(cfg.SearcherURL + "/api/v1/cache/stats")
	if err != nil {
		t.Skipf("search service unavailable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var stats map[string]any
	json.NewDecoder(resp.Body).Decode(&stats)
	t.Logf("cache stats: %v", stats)

	// Verify expected fields exist.
	for _, field := range []string{"hits", "misses", "total", "hit_rate"} {
		if _, ok := stats[field]; !ok {
			// Cache might be disabled — check for "status" field instead.
			if status, ok := stats["status"]; ok && status == "disabled" {
				t.Log("cache is disabled, skipping field check")
				return
			}
			t.Errorf("missing expected field: %s", field)
		}
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
