package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/everything" {
			t.Errorf("Expected path /everything, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("Missing API key header")
		}
		if r.URL.Query().Get("q") != "bitcoin etf" {
			t.Errorf("Wrong query: %s", r.URL.Query().Get("q"))
		}

		resp := searchResponse{
			Status:       "ok",
			TotalResults: 1,
			Articles: []Article{
				{
					Source:      Source{Name: "Reuters"},
					Title:       "Bitcoin ETF approved",
					PublishedAt: time.Now().UTC(),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	articles, err := client.Search(context.Background(), "bitcoin etf", time.Time{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "Bitcoin ETF approved" {
		t.Errorf("Wrong title: %s", articles[0].Title)
	}
}

func TestSearchCaching(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(searchResponse{Status: "ok"})
	}))
	defer server.Close()

	client := NewClient("k", WithBaseURL(server.URL), WithCacheTTL(time.Minute))

	for i := 0; i < 3; i++ {
		if _, err := client.Search(context.Background(), "same query", time.Time{}); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("Expected 1 upstream call, got %d", got)
	}
}

func TestSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{
			Status:  "error",
			Code:    "apiKeyInvalid",
			Message: "Your API key is invalid",
		})
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.Search(context.Background(), "anything", time.Time{})
	if err == nil {
		t.Error("Expected error for rejected key")
	}
}

func TestSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("k", WithBaseURL(server.URL))

	_, err := client.Search(context.Background(), "anything", time.Time{})
	if err == nil {
		t.Error("Expected error for 429 response")
	}
}

func TestRequestObserver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Status: "ok"})
	}))
	defer server.Close()

	var observed int
	var status string
	client := NewClient("k",
		WithBaseURL(server.URL),
		WithCacheTTL(time.Minute),
		WithRequestObserver(func(s string, d time.Duration) {
			observed++
			status = s
		}))

	for i := 0; i < 3; i++ {
		if _, err := client.Search(context.Background(), "same query", time.Time{}); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
	}

	// Two of the three searches were served from cache.
	if observed != 1 {
		t.Errorf("Observed %d requests, want 1", observed)
	}
	if status != "200" {
		t.Errorf("Observed status %q, want 200", status)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := newResponseCache(10 * time.Millisecond)
	cache.set("k", []Article{{Title: "a"}})

	if _, ok := cache.get("k"); !ok {
		t.Error("Expected fresh entry to hit")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestArticleAge(t *testing.T) {
	now := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	a := Article{PublishedAt: now.Add(-48 * time.Hour)}

	if got := a.AgeAt(now); got != 48*time.Hour {
		t.Errorf("AgeAt wrong: %s", got)
	}
}
