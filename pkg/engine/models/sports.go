package models

import (
	"time"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// SportsModel covers championships, coaching changes, retirements and
// trades.
type SportsModel struct{}

func (SportsModel) Name() string { return "sports" }

func (SportsModel) Claims(m *gamma.Market) bool {
	if containsAny(m.CategoryLabel(), "sport") {
		return true
	}
	return containsAny(questionText(m),
		"nfl", "nba", "mlb", "nhl", "championship", "super bowl", "world series",
		"playoffs", "coach", "mvp", "draft")
}

func (s SportsModel) Estimate(m *gamma.Market, now time.Time) Estimate {
	q := questionText(m)

	var est Estimate
	switch {
	case containsAny(q, "fire", "fired") && containsAny(q, "coach"):
		est = baseRate(s.Name(), 0.25, 0.5, "mid-season coach firings run about a quarter of speculated cases")
	case containsAny(q, "retire"):
		if containsAny(q, "old", "veteran", "aging") {
			est = baseRate(s.Name(), 0.40, 0.5, "veteran retirements are common")
		} else {
			est = baseRate(s.Name(), 0.15, 0.5, "early retirements are rare")
		}
	case containsAny(q, "championship", "super bowl", "world series"):
		// Markets pre-filter to competitive teams, so well above 1/32.
		est = baseRate(s.Name(), 0.25, 0.5, "championship markets pre-filter to competitive teams")
	case containsAny(q, "trade"):
		est = baseRate(s.Name(), 0.30, 0.4, "speculated trades complete about a third of the time")
	case containsAny(q, "nfl", "nba", "mlb", "nhl", "playoffs", "mvp", "draft"):
		est = baseRate(s.Name(), 0.35, 0.4, "generic sports event baseline")
	default:
		return neutralEstimate(s.Name(), "question does not match known sports patterns")
	}

	return adjustForHorizon(est, m.DaysToResolution(now))
}
