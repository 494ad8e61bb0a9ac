package models

import (
	"time"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// PoliticalModel covers elections, legislation, and political events.
// Base rates come from historical election and legislative outcomes.
type PoliticalModel struct{}

func (PoliticalModel) Name() string { return "political" }

func (PoliticalModel) Claims(m *gamma.Market) bool {
	if containsAny(m.CategoryLabel(), "politic", "election") {
		return true
	}
	return containsAny(questionText(m),
		"president", "election", "congress", "senate", "impeach", "resign",
		"tariff", "treaty", "bill", "party", "most seats", "plurality")
}

func (p PoliticalModel) Estimate(m *gamma.Market, now time.Time) Estimate {
	q := questionText(m)

	var est Estimate
	switch {
	case containsAny(q, "most seats", "win the most", "hold the most", "plurality", "largest party"):
		est = p.multiPartyEstimate(q)
	case containsAny(q, "president") && containsAny(q, "elect", "win"):
		switch {
		case containsAny(q, "trump"):
			est = baseRate(p.Name(), 0.48, 0.6, "front-runner historically competitive in presidential races")
		case containsAny(q, "biden", "incumbent"):
			est = baseRate(p.Name(), 0.47, 0.6, "incumbent advantage in presidential races")
		default:
			est = baseRate(p.Name(), 0.45, 0.5, "presidential races are typically close")
		}
	case containsAny(q, "tariff", "tax", "law", "bill"):
		if containsAny(q, "first") && containsAny(q, "month", "100 days") {
			est = baseRate(p.Name(), 0.65, 0.5, "new administrations implement most first-term promises early")
		} else {
			est = baseRate(p.Name(), 0.35, 0.5, "congressional legislation passes about a third of the time")
		}
	case containsAny(q, "war", "military", "troops", "conflict"):
		est = baseRate(p.Name(), 0.25, 0.5, "new military conflicts are relatively rare")
	case containsAny(q, "resign", "impeach", "remove"):
		est = baseRate(p.Name(), 0.15, 0.5, "political removals are historically rare")
	case containsAny(q, "president", "election", "congress", "senate", "party"):
		est = baseRate(p.Name(), 0.40, 0.4, "generic political event baseline")
	default:
		return neutralEstimate(p.Name(), "question does not match known political patterns")
	}

	return adjustForHorizon(est, m.DaysToResolution(now))
}

// multiPartyEstimate prices "which party wins" style markets from
// historical party performance.
func (p PoliticalModel) multiPartyEstimate(q string) Estimate {
	switch {
	case containsAny(q, "ldp", "liberal democratic party"):
		return baseRate(p.Name(), 0.42, 0.6, "LDP historically wins most Japanese elections")
	case containsAny(q, "cdp", "constitutional democratic"):
		return baseRate(p.Name(), 0.28, 0.6, "CDP is the main opposition")
	case containsAny(q, "republican", "gop"):
		return baseRate(p.Name(), 0.45, 0.6, "major US party baseline")
	case containsAny(q, "democratic", "democrat"):
		return baseRate(p.Name(), 0.45, 0.6, "major US party baseline")
	case containsAny(q, "conservative", "tory"):
		return baseRate(p.Name(), 0.40, 0.6, "conservative parties in Westminster systems")
	case containsAny(q, "labour", "labor"):
		return baseRate(p.Name(), 0.35, 0.6, "labour parties historical win rate")
	case containsAny(q, "komeito"):
		return baseRate(p.Name(), 0.12, 0.5, "coalition partner, rarely largest party")
	case containsAny(q, "japan innovation party", "jip"):
		return baseRate(p.Name(), 0.09, 0.5, "growing minor party")
	case containsAny(q, "communist", "socialist"):
		return baseRate(p.Name(), 0.04, 0.5, "far-left parties rarely win in developed democracies")
	case containsAny(q, "social democratic party", "sdp"):
		return baseRate(p.Name(), 0.03, 0.5, "party with very limited support")
	case containsAny(q, "reiwa"):
		return baseRate(p.Name(), 0.02, 0.5, "very small party")
	case containsAny(q, "green", "libertarian", "reform"):
		return baseRate(p.Name(), 0.08, 0.5, "minor parties rarely win major elections")
	case containsAny(q, "new", "citizens", "people's", "workers"):
		return baseRate(p.Name(), 0.04, 0.4, "unknown small party, minimal baseline")
	default:
		return baseRate(p.Name(), 0.08, 0.4, "unknown party, minor party baseline")
	}
}
