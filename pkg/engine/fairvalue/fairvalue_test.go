package fairvalue

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/news"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

var fvNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func fvMarket(question, category string, price float64, volume float64, days int) *gamma.Market {
	return &gamma.Market{
		ConditionID:      "0xfv",
		Question:         question,
		Category:         category,
		OutcomesRaw:      `["Yes", "No"]`,
		OutcomePricesRaw: `["` + decimal.NewFromFloat(price).String() + `", "` + decimal.NewFromFloat(1-price).String() + `"]`,
		Volume:           gamma.JSONFloat(volume),
		EndDate:          fvNow.Add(time.Duration(days) * 24 * time.Hour),
	}
}

func TestEstimateCompletePipeline(t *testing.T) {
	e := NewDefault()

	m := fvMarket("Will a Bitcoin ETF be approved?", "Crypto", 0.55, 150000, 45)
	est := e.Estimate(m, nil, fvNow)

	if est.MarketID != "0xfv" {
		t.Errorf("Wrong market id: %s", est.MarketID)
	}
	one := decimal.NewFromInt(1)
	if est.FairYES.IsNegative() || est.FairYES.GreaterThan(one) {
		t.Errorf("FairYES out of range: %s", est.FairYES)
	}
	if !est.FairYES.Add(est.FairNO).Equal(one) {
		t.Errorf("FairYES + FairNO != 1: %s + %s", est.FairYES, est.FairNO)
	}
	if len(est.Rationale) == 0 {
		t.Error("Expected rationale strings")
	}
	if est.Model == "" {
		t.Error("Expected a contributing model name")
	}
}

func TestEstimateIsDeterministicAndIndependent(t *testing.T) {
	e := NewDefault()

	markets := []*gamma.Market{
		fvMarket("Will the LDP win the most seats?", "Politics", 0.40, 80000, 60),
		fvMarket("Will a Bitcoin ETF be approved?", "Crypto", 0.55, 150000, 45),
		fvMarket("Will the coach be fired this season?", "Sports", 0.20, 12000, 20),
	}

	// Forward order.
	var forward []decimal.Decimal
	for _, m := range markets {
		forward = append(forward, e.Estimate(m, nil, fvNow).FairYES)
	}

	// Reverse order must produce identical results.
	for i := len(markets) - 1; i >= 0; i-- {
		est := e.Estimate(markets[i], nil, fvNow)
		if !est.FairYES.Equal(forward[i]) {
			t.Errorf("Market %d: order-dependent result %s vs %s",
				i, est.FairYES, forward[i])
		}
	}
}

func TestNewsAdjustmentIsBounded(t *testing.T) {
	e := NewDefault()

	m := fvMarket("Will the Republican candidate win the presidential election?", "Politics", 0.45, 80000, 60)

	without := e.Estimate(m, nil, fvNow)

	articles := []news.Article{
		{
			Title:       "Candidate scores major victory in presidential election polls",
			Source:      news.Source{Name: "Reuters"},
			PublishedAt: fvNow.Add(-time.Hour),
		},
	}
	with := e.Estimate(m, articles, fvNow)

	diff := with.FairYES.Sub(without.FairYES).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(0.05)) {
		t.Errorf("News moved the estimate by %s, above the 0.05 ceiling", diff)
	}
	if with.NewsRelevance.IsZero() {
		t.Error("Expected nonzero news relevance")
	}
}

func TestLongHorizonDiscount(t *testing.T) {
	e := NewDefault()

	near := e.Estimate(fvMarket("Will a Bitcoin ETF be approved?", "Crypto", 0.55, 50000, 5), nil, fvNow)
	far := e.Estimate(fvMarket("Will a Bitcoin ETF be approved?", "Crypto", 0.55, 50000, 200), nil, fvNow)

	if !far.FairYES.LessThan(near.FairYES) {
		t.Errorf("Long horizon should discount the estimate: %s vs %s",
			far.FairYES, near.FairYES)
	}
}

func TestExtremeEstimateDampedTowardMarket(t *testing.T) {
	e := NewDefault()

	// Generic record-breaking long shot (model ~0.05) against an even
	// thinner market price of 0.1%: deviation past the 10x ceiling.
	m := fvMarket("Will the all-time record be broken this year?", "", 0.001, 50000, 60)
	est := e.Estimate(m, nil, fvNow)

	if len(est.Warnings) == 0 {
		t.Fatal("Expected a deviation warning")
	}
	if !est.Damped {
		t.Error("Expected the estimate to be flagged as damped")
	}
	// Damped below the clamp floor's raw value.
	if !est.FairYES.LessThan(decimal.NewFromFloat(0.02)) {
		t.Errorf("Expected damped estimate below clamp floor, got %s", est.FairYES)
	}
	if !est.FairYES.GreaterThan(decimal.NewFromFloat(0.001)) {
		t.Errorf("Damped estimate should stay above market price, got %s", est.FairYES)
	}
}

func TestBoundsClampAndDiminishingReturns(t *testing.T) {
	if !diminishPastExtremes(decimal.NewFromFloat(0.9)).Equal(decimal.NewFromFloat(0.85)) {
		t.Error("0.9 should fold to 0.85")
	}
	if !diminishPastExtremes(decimal.NewFromFloat(0.1)).Equal(decimal.NewFromFloat(0.15)) {
		t.Error("0.1 should fold to 0.15")
	}
	if !diminishPastExtremes(decimal.NewFromFloat(0.5)).Equal(decimal.NewFromFloat(0.5)) {
		t.Error("0.5 should pass through")
	}

	if !clampBounds(decimal.NewFromFloat(0.005)).Equal(decimal.NewFromFloat(0.02)) {
		t.Error("Clamp floor is 0.02")
	}
	if !clampBounds(decimal.NewFromFloat(0.999)).Equal(decimal.NewFromFloat(0.98)) {
		t.Error("Clamp ceiling is 0.98")
	}
}

func TestUnparseableQuestionDegradesGracefully(t *testing.T) {
	e := NewDefault()

	m := fvMarket("", "", 0.5, 10000, 30)
	est := e.Estimate(m, nil, fvNow)

	if est.Confidence.GreaterThan(decimal.NewFromFloat(0.3)) {
		t.Errorf("Unparseable question should cap confidence at 0.3, got %s", est.Confidence)
	}
	one := decimal.NewFromInt(1)
	if est.FairYES.IsNegative() || est.FairYES.GreaterThan(one) {
		t.Errorf("FairYES out of range: %s", est.FairYES)
	}
}
