// Package sanity bounds raw model estimates against the market's own
// implied probability. Heuristic models can be extreme and
// overconfident; this check damps any estimate that strays too many
// multiples from consensus while preserving the direction of the
// signal.
package sanity

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// Config bounds the checker.
type Config struct {
	// MaxDeviation is the largest tolerated ratio between a raw
	// estimate and the market's implied probability, in either
	// direction.
	MaxDeviation decimal.Decimal

	// LowVolumeWarning is the volume below which a consensus-deviation
	// warning also flags thin liquidity.
	LowVolumeWarning decimal.Decimal
}

// DefaultConfig returns the standard bounds: estimates are distrusted
// past a 10x deviation from market.
func DefaultConfig() Config {
	return Config{
		MaxDeviation:     decimal.NewFromInt(10),
		LowVolumeWarning: decimal.NewFromInt(10000),
	}
}

// Result is the outcome of a sanity check.
type Result struct {
	Probability decimal.Decimal `json:"probability"`
	Confidence  decimal.Decimal `json:"confidence"`
	Warnings    []string        `json:"warnings,omitempty"`
	Damped      bool            `json:"damped"`
}

// Checker validates raw estimates against market consensus.
type Checker struct {
	cfg Config
}

// New creates a checker with the given config.
func New(cfg Config) *Checker {
	if cfg.MaxDeviation.IsZero() {
		cfg = DefaultConfig()
	}
	return &Checker{cfg: cfg}
}

// probability floor keeps ratios finite for prices at the book edge
var epsilon = decimal.NewFromFloat(0.001)

// Check compares the raw estimate against the market price. When the
// deviation ratio exceeds MaxDeviation the estimate is blended toward
// the market with weight MaxDeviation/ratio (damped, never overridden)
// and confidence is scaled by sqrt(MaxDeviation/ratio). Deterministic:
// identical inputs always produce the identical result and warning
// text.
func (c *Checker) Check(rawProb, rawConf, marketPrice decimal.Decimal) Result {
	result := Result{Probability: rawProb, Confidence: rawConf}

	market := clampFloor(marketPrice)
	raw := clampFloor(rawProb)

	var ratio decimal.Decimal
	if raw.GreaterThanOrEqual(market) {
		ratio = raw.Div(market)
	} else {
		ratio = market.Div(raw)
	}

	if ratio.LessThanOrEqual(c.cfg.MaxDeviation) {
		return result
	}

	// weight in (0,1): the further past the ceiling, the less the raw
	// estimate is trusted
	weight := c.cfg.MaxDeviation.Div(ratio)
	result.Probability = rawProb.Mul(weight).Add(marketPrice.Mul(decimal.NewFromInt(1).Sub(weight)))

	scale := decimal.NewFromFloat(math.Sqrt(weight.InexactFloat64()))
	result.Confidence = rawConf.Mul(scale)
	result.Damped = true

	result.Warnings = append(result.Warnings, fmt.Sprintf(
		"estimate %s deviates %sx from market %s (ceiling %sx), damped toward consensus",
		rawProb.StringFixed(3), ratio.StringFixed(1),
		marketPrice.StringFixed(3), c.cfg.MaxDeviation.StringFixed(0)))

	return result
}

// CheckMarket runs Check and appends context warnings derived from the
// market snapshot: thin liquidity and short-horizon long shots.
func (c *Checker) CheckMarket(rawProb, rawConf decimal.Decimal, m *gamma.Market, now time.Time) Result {
	result := c.Check(rawProb, rawConf, m.YesPrice())

	if !result.Damped {
		return result
	}

	if m.VolumeDecimal().LessThan(c.cfg.LowVolumeWarning) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"low market volume (%s), price may not reflect true probability",
			m.VolumeDecimal().StringFixed(0)))
	}

	if days := m.DaysToResolution(now); days >= 0 && days < 30 &&
		rawProb.GreaterThan(decimal.NewFromFloat(0.8)) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"high estimate with only %d days remaining", days))
	}

	return result
}

func clampFloor(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(epsilon) {
		return epsilon
	}
	return d
}
