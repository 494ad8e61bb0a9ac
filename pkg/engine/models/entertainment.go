package models

import (
	"time"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// EntertainmentModel covers awards, show renewals, and box-office
// outcomes.
type EntertainmentModel struct{}

func (EntertainmentModel) Name() string { return "entertainment" }

func (EntertainmentModel) Claims(m *gamma.Market) bool {
	if containsAny(m.CategoryLabel(), "entertainment", "pop culture", "culture") {
		return true
	}
	return containsAny(questionText(m),
		"oscar", "academy award", "emmy", "grammy", "golden globe",
		"renewed", "box office", "movie", "album", "billboard")
}

func (e EntertainmentModel) Estimate(m *gamma.Market, now time.Time) Estimate {
	q := questionText(m)

	var est Estimate
	switch {
	case containsAny(q, "oscar", "academy award", "emmy", "grammy", "golden globe"):
		if containsAny(q, "guild", "sweep", "favorite") {
			est = baseRate(e.Name(), 0.75, 0.6, "strong precursor support predicts award wins")
		} else {
			est = baseRate(e.Name(), 0.25, 0.5, "typical nominee field of four to five contenders")
		}
	case containsAny(q, "renew", "renewed", "another season"):
		if containsAny(q, "netflix", "streaming", "hulu", "disney+", "max") {
			est = baseRate(e.Name(), 0.65, 0.5, "streaming services renew more often than broadcast")
		} else {
			est = baseRate(e.Name(), 0.55, 0.5, "broadcast renewal baseline")
		}
	case containsAny(q, "box office", "gross"):
		est = baseRate(e.Name(), 0.30, 0.4, "specific box-office targets are hit about a third of the time")
	case containsAny(q, "billboard", "number one", "#1", "album"):
		est = baseRate(e.Name(), 0.20, 0.4, "chart-topping outcomes favor a small set of artists")
	case containsAny(q, "movie", "film", "show", "series"):
		est = baseRate(e.Name(), 0.25, 0.4, "generic entertainment event baseline")
	default:
		return neutralEstimate(e.Name(), "question does not match known entertainment patterns")
	}

	return adjustForHorizon(est, m.DaysToResolution(now))
}
