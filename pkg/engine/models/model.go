// Package models provides the category models that produce raw fair
// probability estimates for a market from domain heuristics: base-rate
// tables, keyword pattern matching on the question text, and
// time-to-resolution decay. Models are pure functions of their inputs.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// Estimate is a raw probability estimate from a single category model.
type Estimate struct {
	Model       string          `json:"model"`
	Probability decimal.Decimal `json:"probability"` // 0-1
	Confidence  decimal.Decimal `json:"confidence"`  // 0-1
	Rationale   []string        `json:"rationale"`
}

// Model estimates a fair probability for markets in its domain.
type Model interface {
	// Name identifies the model in estimate output.
	Name() string

	// Claims reports whether the model's heuristics apply to the market.
	Claims(m *gamma.Market) bool

	// Estimate produces a raw probability and confidence. Implementations
	// never fail: a question they cannot parse yields the neutral
	// estimate instead.
	Estimate(m *gamma.Market, now time.Time) Estimate
}

// --- Shared heuristics ---

var (
	neutralProbability = decimal.New(5, -1)  // 0.5
	neutralConfidence  = decimal.New(3, -1)  // 0.3
	maxConfidence      = decimal.New(9, -1)  // 0.9
	unlikelyThreshold  = decimal.New(2, -1)  // 0.2
)

// neutralEstimate is returned when a model cannot read anything useful
// from the question. Low confidence keeps it from dominating ensembles.
func neutralEstimate(model, reason string) Estimate {
	return Estimate{
		Model:       model,
		Probability: neutralProbability,
		Confidence:  neutralConfidence,
		Rationale:   []string{reason},
	}
}

// baseRate builds an estimate from a base-rate table entry.
func baseRate(model string, prob, conf float64, reason string) Estimate {
	return Estimate{
		Model:       model,
		Probability: decimal.NewFromFloat(prob),
		Confidence:  decimal.NewFromFloat(conf),
		Rationale:   []string{reason},
	}
}

// adjustForHorizon applies the shared time heuristics. An unlikely event
// becomes less likely still as the clock runs out (under 30 days the
// probability shrinks toward half its value), and confidence rises as
// resolution approaches since less time remains for surprises, capped
// at 0.9.
func adjustForHorizon(est Estimate, days int) Estimate {
	if days < 0 {
		return est
	}

	if days < 30 && est.Probability.LessThan(unlikelyThreshold) {
		// factor in [0.5, 1.0], monotone in remaining days
		factor := decimal.New(5, -1).Add(
			decimal.New(5, -1).Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(30)))
		est.Probability = est.Probability.Mul(factor)
		est.Rationale = append(est.Rationale,
			"unlikely event with little time left, probability decayed")
	}

	horizon := days
	if horizon > 90 {
		horizon = 90
	}
	boost := decimal.New(2, -1).Mul(
		decimal.NewFromInt(int64(90 - horizon))).Div(decimal.NewFromInt(90))
	est.Confidence = est.Confidence.Add(boost)
	if est.Confidence.GreaterThan(maxConfidence) {
		est.Confidence = maxConfidence
	}

	return est
}

// questionText returns the lower-cased question plus description for
// keyword matching.
func questionText(m *gamma.Market) string {
	return strings.ToLower(m.Question + " " + m.Description)
}

// containsAny reports whether text contains any of the terms.
func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
