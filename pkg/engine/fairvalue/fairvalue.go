// Package fairvalue orchestrates the per-market estimation pipeline:
// category model selection, news adjustment, temporal and market-factor
// adjustments, diminishing returns near the extremes, and the final
// sanity check against market consensus. Each market is estimated
// independently, so batches may run in any order or concurrently with
// identical results.
package fairvalue

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/engine/models"
	"github.com/polyedge/engine/pkg/engine/newscorr"
	"github.com/polyedge/engine/pkg/engine/sanity"
	"github.com/polyedge/engine/pkg/news"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// Estimate is the final fair-value output for one market. Immutable
// once produced; a re-run creates a new instance.
type Estimate struct {
	MarketID      string          `json:"market_id"`
	FairYES       decimal.Decimal `json:"fair_yes"` // 0-1
	FairNO        decimal.Decimal `json:"fair_no"`  // 0-1
	Confidence    decimal.Decimal `json:"confidence"`
	Model         string          `json:"model"`
	NewsRelevance decimal.Decimal `json:"news_relevance"`
	Damped        bool            `json:"damped"`
	Rationale     []string        `json:"rationale"`
	Warnings      []string        `json:"warnings,omitempty"`
	EstimatedAt   time.Time       `json:"estimated_at"`
}

// Engine runs the full estimation pipeline.
type Engine struct {
	selector   *models.Selector
	correlator *newscorr.Correlator
	checker    *sanity.Checker
}

// New wires the pipeline stages together.
func New(selector *models.Selector, correlator *newscorr.Correlator, checker *sanity.Checker) *Engine {
	return &Engine{
		selector:   selector,
		correlator: correlator,
		checker:    checker,
	}
}

// NewDefault builds an engine with default-configured stages.
func NewDefault() *Engine {
	return New(
		models.NewSelector(),
		newscorr.New(newscorr.DefaultConfig()),
		sanity.New(sanity.DefaultConfig()),
	)
}

var (
	lowerBound = decimal.NewFromFloat(0.02)
	upperBound = decimal.NewFromFloat(0.98)
)

// Estimate produces the fair value for one market. It is pure in its
// inputs and never fails: degraded inputs produce a low-confidence
// estimate, not an error.
func (e *Engine) Estimate(m *gamma.Market, articles []news.Article, now time.Time) *Estimate {
	base := e.selector.Estimate(m, now)

	est := &Estimate{
		MarketID:    m.ConditionID,
		Model:       base.Model,
		Rationale:   append([]string(nil), base.Rationale...),
		EstimatedAt: now,
	}

	prob := base.Probability

	// News adjustment, already clipped by the correlator.
	corr := e.correlator.Correlate(m, articles, now)
	est.NewsRelevance = corr.Relevance
	if !corr.Adjustment.IsZero() {
		prob = prob.Add(corr.Adjustment)
		est.Rationale = append(est.Rationale, fmt.Sprintf(
			"news sentiment adjustment %s from %d matched articles",
			corr.Adjustment.StringFixed(3), corr.Matched))
	}

	// Temporal conservatism grows with the horizon.
	timeAdj, timeReason := timeAdjustment(m.DaysToResolution(now))
	if !timeAdj.IsZero() {
		prob = prob.Add(timeAdj)
		est.Rationale = append(est.Rationale, timeReason)
	}

	// Market-specific factors: volume and category nudges.
	marketAdj, marketReasons := marketAdjustment(m)
	if !marketAdj.IsZero() {
		prob = prob.Add(marketAdj)
		est.Rationale = append(est.Rationale, marketReasons...)
	}

	prob = diminishPastExtremes(prob)
	prob = clampBounds(prob)

	checked := e.checker.CheckMarket(prob, base.Confidence, m, now)
	est.FairYES = checked.Probability
	est.FairNO = decimal.NewFromInt(1).Sub(checked.Probability)
	est.Confidence = checked.Confidence
	est.Damped = checked.Damped
	est.Warnings = checked.Warnings

	return est
}

// timeAdjustment discounts probability with distance to resolution.
func timeAdjustment(days int) (decimal.Decimal, string) {
	switch {
	case days <= 7:
		return decimal.Zero, "very close to resolution, no time adjustment"
	case days <= 30:
		return decimal.NewFromFloat(-0.02), "near-term event, slight conservatism"
	case days <= 90:
		return decimal.NewFromFloat(-0.05), "medium-term event, moderate conservatism"
	default:
		return decimal.NewFromFloat(-0.08), "long-term event, high uncertainty discount"
	}
}

// marketAdjustment nudges the probability for market structure.
func marketAdjustment(m *gamma.Market) (decimal.Decimal, []string) {
	adj := decimal.Zero
	var reasons []string

	volume := m.VolumeDecimal()
	if volume.GreaterThan(decimal.NewFromInt(100000)) {
		adj = adj.Add(decimal.NewFromFloat(0.02))
		reasons = append(reasons, "high volume market (+0.02)")
	} else if volume.IsPositive() && volume.LessThan(decimal.NewFromInt(5000)) {
		adj = adj.Sub(decimal.NewFromFloat(0.03))
		reasons = append(reasons, "low volume market (-0.03)")
	}

	switch cat := m.CategoryLabel(); {
	case strings.Contains(cat, "politic"):
		adj = adj.Add(decimal.NewFromFloat(0.01))
		reasons = append(reasons, "political market (+0.01)")
	case strings.Contains(cat, "crypto"):
		adj = adj.Sub(decimal.NewFromFloat(0.02))
		reasons = append(reasons, "crypto volatility (-0.02)")
	}

	return adj, reasons
}

// diminishPastExtremes folds the portion of a probability past 0.8 or
// under 0.2 in half, reflecting diminishing returns on extreme
// adjustments.
func diminishPastExtremes(prob decimal.Decimal) decimal.Decimal {
	high := decimal.NewFromFloat(0.8)
	low := decimal.NewFromFloat(0.2)
	half := decimal.NewFromFloat(0.5)

	if prob.GreaterThan(high) {
		excess := prob.Sub(high)
		return high.Add(excess.Mul(half))
	}
	if prob.LessThan(low) {
		deficit := low.Sub(prob)
		return low.Sub(deficit.Mul(half))
	}
	return prob
}

func clampBounds(prob decimal.Decimal) decimal.Decimal {
	if prob.LessThan(lowerBound) {
		return lowerBound
	}
	if prob.GreaterThan(upperBound) {
		return upperBound
	}
	return prob
}

