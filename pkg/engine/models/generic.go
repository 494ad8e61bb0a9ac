package models

import (
	"time"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// GenericModel is the fallback for markets no specialized model claims.
// It prices rare catastrophic events from annual base rates and
// everything else at a conservative baseline.
type GenericModel struct{}

func (GenericModel) Name() string { return "generic" }

// Claims always reports true; the selector consults the generic model
// only when no specialized model claims the market.
func (GenericModel) Claims(m *gamma.Market) bool { return true }

func (g GenericModel) Estimate(m *gamma.Market, now time.Time) Estimate {
	q := questionText(m)
	if q == " " {
		return neutralEstimate(g.Name(), "empty question")
	}

	var est Estimate
	switch {
	case containsAny(q, "pandemic", "outbreak"):
		est = baseRate(g.Name(), 0.08, 0.5, "major pandemics occur roughly once every 12-15 years")
	case containsAny(q, "earthquake", "hurricane", "tsunami"):
		est = baseRate(g.Name(), 0.15, 0.4, "major natural disasters annual probability in risk areas")
	case containsAny(q, "crash", "collapse", "recession"):
		est = baseRate(g.Name(), 0.20, 0.4, "large market corrections annual probability")
	case containsAny(q, "war", "nuclear"):
		est = baseRate(g.Name(), 0.12, 0.4, "new major conflicts annual probability")
	case containsAny(q, "record", "all-time"):
		est = baseRate(g.Name(), 0.05, 0.4, "all-time records broken rarely")
	case containsAny(q, "will "):
		est = baseRate(g.Name(), 0.30, 0.3, "unknown market type, conservative baseline")
	default:
		return neutralEstimate(g.Name(), "unparseable question")
	}

	return adjustForHorizon(est, m.DaysToResolution(now))
}
