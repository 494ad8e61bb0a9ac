package models

import (
	"time"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// TechnologyModel covers corporate and tech-industry events: mergers,
// executive changes, earnings, product launches, AI milestones.
type TechnologyModel struct{}

func (TechnologyModel) Name() string { return "technology" }

func (TechnologyModel) Claims(m *gamma.Market) bool {
	if containsAny(m.CategoryLabel(), "tech", "business") {
		return true
	}
	return containsAny(questionText(m),
		"merger", "acquisition", "ceo", "earnings", "ipo", "bankruptcy",
		"tesla", "apple", "amazon", "google", "microsoft", "meta", "openai",
		"artificial intelligence", " ai ", "agi")
}

func (t TechnologyModel) Estimate(m *gamma.Market, now time.Time) Estimate {
	q := questionText(m)

	var est Estimate
	switch {
	case containsAny(q, "merger", "acquisition", "buyout"):
		est = baseRate(t.Name(), 0.20, 0.5, "rumored M&A deals complete about a fifth of the time")
	case containsAny(q, "ceo") && containsAny(q, "resign", "fire", "step down"):
		est = baseRate(t.Name(), 0.18, 0.5, "CEO departures under pressure are uncommon in any given year")
	case containsAny(q, "earnings"):
		est = baseRate(t.Name(), 0.55, 0.5, "companies beat earnings expectations slightly more often than not")
	case containsAny(q, "ipo"):
		est = baseRate(t.Name(), 0.20, 0.4, "speculated IPOs rarely complete on schedule")
	case containsAny(q, "agi"):
		est = baseRate(t.Name(), 0.05, 0.5, "AGI milestones remain distant")
	case containsAny(q, "benchmark"):
		est = baseRate(t.Name(), 0.40, 0.4, "AI benchmarks are broken regularly")
	case containsAny(q, "release", "launch", "announce") && containsAny(q, "model", "gpt", "product"):
		est = baseRate(t.Name(), 0.35, 0.4, "new model and product releases are relatively common")
	case containsAny(q, "bankruptcy"):
		est = baseRate(t.Name(), 0.10, 0.5, "large-company bankruptcies are rare")
	case containsAny(q, "tesla", "apple", "amazon", "google", "microsoft", "meta", "openai"):
		est = baseRate(t.Name(), 0.30, 0.4, "generic corporate event baseline")
	default:
		return neutralEstimate(t.Name(), "question does not match known technology patterns")
	}

	return adjustForHorizon(est, m.DaysToResolution(now))
}
