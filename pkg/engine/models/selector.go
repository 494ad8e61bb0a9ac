package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// Selector routes a market to the models that claim it and combines
// their estimates. When several specialized models claim the same
// market the result is a confidence-weighted ensemble; when none do,
// the generic fallback applies.
type Selector struct {
	specialized []Model
	fallback    Model
}

// NewSelector creates a selector over the full model set.
func NewSelector() *Selector {
	return &Selector{
		specialized: []Model{
			PoliticalModel{},
			CryptoModel{},
			SportsModel{},
			TechnologyModel{},
			EntertainmentModel{},
		},
		fallback: GenericModel{},
	}
}

// Estimate produces the combined estimate for a market. It never fails:
// a market nothing can price comes back as the neutral estimate.
func (s *Selector) Estimate(m *gamma.Market, now time.Time) Estimate {
	var claimed []Estimate
	for _, model := range s.specialized {
		if model.Claims(m) {
			claimed = append(claimed, model.Estimate(m, now))
		}
	}

	switch len(claimed) {
	case 0:
		return s.fallback.Estimate(m, now)
	case 1:
		return claimed[0]
	default:
		return combineEstimates(claimed)
	}
}

// combineEstimates merges estimates via confidence-weighted averaging.
func combineEstimates(estimates []Estimate) Estimate {
	combined := Estimate{Model: "ensemble"}

	totalWeight := decimal.Zero
	weightedSum := decimal.Zero
	confidenceSum := decimal.Zero

	for _, est := range estimates {
		weight := est.Confidence
		if weight.IsZero() {
			weight = decimal.NewFromFloat(1.0 / float64(len(estimates)))
		}

		totalWeight = totalWeight.Add(weight)
		weightedSum = weightedSum.Add(est.Probability.Mul(weight))
		confidenceSum = confidenceSum.Add(est.Confidence)
		combined.Rationale = append(combined.Rationale, est.Rationale...)
	}

	if !totalWeight.IsZero() {
		combined.Probability = weightedSum.Div(totalWeight)
	} else {
		combined.Probability = neutralProbability
	}
	combined.Confidence = confidenceSum.Div(decimal.NewFromInt(int64(len(estimates))))

	return combined
}
