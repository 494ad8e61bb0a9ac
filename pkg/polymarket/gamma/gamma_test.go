package gamma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestListMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("Expected path /markets, got %s", r.URL.Path)
		}

		markets := []Market{
			{
				ID:               "1",
				Question:         "Will X happen?",
				Active:           true,
				OutcomePricesRaw: `["0.65", "0.35"]`,
				OutcomesRaw:      `["Yes", "No"]`,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(markets)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	markets, err := client.ListMarkets(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}

	if len(markets) != 1 {
		t.Errorf("Expected 1 market, got %d", len(markets))
	}

	if markets[0].Question != "Will X happen?" {
		t.Errorf("Wrong question: got %s", markets[0].Question)
	}

	if !markets[0].YesPrice().Equal(decimal.NewFromFloat(0.65)) {
		t.Errorf("Wrong YES price: got %s", markets[0].YesPrice())
	}
}

func TestListMarketsWithFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("active") != "true" {
			t.Errorf("Expected active=true, got %s", query.Get("active"))
		}
		if query.Get("limit") != "10" {
			t.Errorf("Expected limit=10, got %s", query.Get("limit"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Market{})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	active := true
	_, err := client.ListMarkets(context.Background(), &MarketsFilter{
		Active: &active,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
}

func TestGetMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/0xabc" {
			t.Errorf("Expected path /markets/0xabc, got %s", r.URL.Path)
		}

		market := Market{
			ID:          "1",
			ConditionID: "0xabc",
			Question:    "Single market",
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(market)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	market, err := client.GetMarket(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}

	if market.ConditionID != "0xabc" {
		t.Errorf("Wrong condition ID: got %s", market.ConditionID)
	}
}

func TestGetMarketBySlug(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("slug") != "will-x-happen" {
			t.Errorf("Expected slug=will-x-happen, got %s", query.Get("slug"))
		}

		markets := []Market{{ID: "1", Slug: "will-x-happen"}}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(markets)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	market, err := client.GetMarketBySlug(context.Background(), "will-x-happen")
	if err != nil {
		t.Fatalf("GetMarketBySlug failed: %v", err)
	}

	if market.ID != "1" {
		t.Errorf("Wrong ID: got %s", market.ID)
	}
}

func TestMarketMethods(t *testing.T) {
	market := Market{
		OutcomePricesRaw: `["0.65", "0.35"]`,
		OutcomesRaw:      `["Yes", "No"]`,
		Active:           true,
		Volume:           JSONFloat(125000),
		Category:         "Politics",
	}

	if !market.YesPrice().Equal(decimal.NewFromFloat(0.65)) {
		t.Errorf("YesPrice wrong: %s", market.YesPrice())
	}

	if !market.NoPrice().Equal(decimal.NewFromFloat(0.35)) {
		t.Errorf("NoPrice wrong: %s", market.NoPrice())
	}

	if !market.IsOpen() {
		t.Error("Market should be open")
	}

	if market.CategoryLabel() != "politics" {
		t.Errorf("CategoryLabel wrong: %s", market.CategoryLabel())
	}

	market.Closed = true
	if market.IsOpen() {
		t.Error("Closed market should not be open")
	}
}

func TestYesPriceFallbacks(t *testing.T) {
	// Outcomes in NO/YES order: the price keyed by the Yes label wins.
	market := Market{
		OutcomePricesRaw: `["0.30", "0.70"]`,
		OutcomesRaw:      `["No", "Yes"]`,
	}
	if !market.YesPrice().Equal(decimal.NewFromFloat(0.70)) {
		t.Errorf("YesPrice wrong for reordered outcomes: %s", market.YesPrice())
	}

	// Unparseable prices fall back to the uninformative midpoint.
	market = Market{OutcomePricesRaw: `not-json`}
	if !market.YesPrice().Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("YesPrice fallback wrong: %s", market.YesPrice())
	}
}

func TestDaysToResolution(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	market := Market{EndDate: now.Add(72 * time.Hour)}

	if got := market.DaysToResolution(now); got != 3 {
		t.Errorf("DaysToResolution wrong: got %d, want 3", got)
	}

	past := Market{EndDate: now.Add(-48 * time.Hour)}
	if got := past.DaysToResolution(now); got >= 0 {
		t.Errorf("Expected negative days for resolved market, got %d", got)
	}
}

func TestJSONFloatBothForms(t *testing.T) {
	var m Market
	raw := `{"volume": "12345.5", "liquidity": 678.9}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m.Volume.Float64() != 12345.5 {
		t.Errorf("Volume wrong: %f", m.Volume.Float64())
	}
	if m.Liquidity.Float64() != 678.9 {
		t.Errorf("Liquidity wrong: %f", m.Liquidity.Float64())
	}
}

func TestClientWithOptions(t *testing.T) {
	customClient := &http.Client{Timeout: 60 * time.Second}

	client := NewClient(
		WithBaseURL("https://custom.api.com"),
		WithHTTPClient(customClient),
		WithRateLimit(5.0, 2),
	)

	if client.baseURL != "https://custom.api.com" {
		t.Errorf("Wrong base URL: %s", client.baseURL)
	}

	if client.httpClient != customClient {
		t.Error("Custom HTTP client not set")
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Bad Request"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.ListMarkets(context.Background(), nil)
	if err == nil {
		t.Error("Expected error for bad request")
	}
}

func TestRequestObserver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Market{})
	}))

	var status string
	var latency time.Duration
	observer := func(s string, d time.Duration) {
		status = s
		latency = d
	}

	client := NewClient(WithBaseURL(server.URL), WithRequestObserver(observer))
	if _, err := client.ListMarkets(context.Background(), nil); err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if status != "200" {
		t.Errorf("Observed status %q, want 200", status)
	}
	if latency <= 0 {
		t.Error("Expected positive observed latency")
	}

	// Transport failure surfaces as "error".
	server.Close()
	if _, err := client.ListMarkets(context.Background(), nil); err == nil {
		t.Fatal("Expected error against closed server")
	}
	if status != "error" {
		t.Errorf("Observed status %q, want error", status)
	}
}

// Integration test - skipped in short mode
func TestIntegrationListOpenMarkets(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := NewClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	markets, err := client.ListOpenMarkets(ctx, 5, 0)
	if err != nil {
		t.Fatalf("ListOpenMarkets failed: %v", err)
	}

	t.Logf("Found %d open markets", len(markets))
	for _, m := range markets {
		t.Logf("  - %s: %s (YES: %s)", m.ID, m.Question, m.YesPrice())
	}
}
