// Package kelly sizes hypothetical positions with a capped fractional
// Kelly criterion. The sizer is purely numeric and total-loss aware: a
// nominally positive edge at extreme loss probability never yields more
// than a token fraction of bankroll.
package kelly

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the safety parameters applied on top of the raw formula.
type Config struct {
	// MaxFraction caps the recommended bankroll fraction.
	MaxFraction decimal.Decimal

	// MinEdge is the minimum expected value per unit stake required to
	// recommend any position.
	MinEdge decimal.Decimal

	// FullConfidence is the confidence level at which no down-scaling
	// applies; below it the fraction is scaled by conf/FullConfidence.
	FullConfidence decimal.Decimal

	// LongShotPrice marks entry prices treated as long shots; the
	// fraction is halved below it.
	LongShotPrice decimal.Decimal

	// ExtremeLossThreshold and ExtremeLossCap bound positions whose
	// total-loss probability is extreme: at or past the threshold the
	// fraction never exceeds the cap.
	ExtremeLossThreshold decimal.Decimal
	ExtremeLossCap       decimal.Decimal
}

// DefaultConfig returns the standard safety parameters.
func DefaultConfig() Config {
	return Config{
		MaxFraction:          decimal.NewFromFloat(0.25),
		MinEdge:              decimal.NewFromFloat(0.05),
		FullConfidence:       decimal.NewFromFloat(0.8),
		LongShotPrice:        decimal.NewFromFloat(0.05),
		ExtremeLossThreshold: decimal.NewFromFloat(0.90),
		ExtremeLossCap:       decimal.NewFromFloat(0.001),
	}
}

// Recommendation is a sized position.
type Recommendation struct {
	Fraction      decimal.Decimal `json:"fraction"`       // 0 to MaxFraction
	RawKelly      decimal.Decimal `json:"raw_kelly"`      // unclipped formula output
	ExpectedValue decimal.Decimal `json:"expected_value"` // per unit stake
	Warnings      []string        `json:"warnings,omitempty"`
}

// Sizer computes capped Kelly fractions.
type Sizer struct {
	cfg Config
}

// New creates a sizer with the given config.
func New(cfg Config) *Sizer {
	if cfg.MaxFraction.IsZero() {
		cfg = DefaultConfig()
	}
	return &Sizer{cfg: cfg}
}

// Size implements f* = (b*p - q) / b for net odds b, win probability p
// and loss probability q, clipped to [0, MaxFraction] with the extreme
// loss cap applied. Negative expected value yields zero.
func (s *Sizer) Size(winProb, netOdds, lossProb decimal.Decimal) decimal.Decimal {
	if !netOdds.IsPositive() {
		return decimal.Zero
	}

	fraction := winProb.Mul(netOdds).Sub(lossProb).Div(netOdds)
	if fraction.IsNegative() {
		return decimal.Zero
	}
	if fraction.GreaterThan(s.cfg.MaxFraction) {
		fraction = s.cfg.MaxFraction
	}

	if lossProb.GreaterThanOrEqual(s.cfg.ExtremeLossThreshold) &&
		fraction.GreaterThan(s.cfg.ExtremeLossCap) {
		fraction = s.cfg.ExtremeLossCap
	}

	return fraction
}

// SizePosition sizes a position in a binary market: entry at price,
// payoff 1 on a win. Win probability is the fair probability of the
// chosen side; confidence scales the fraction below FullConfidence and
// long shots are halved.
func (s *Sizer) SizePosition(winProb, confidence, price decimal.Decimal) Recommendation {
	var rec Recommendation
	one := decimal.NewFromInt(1)

	if !price.IsPositive() || price.GreaterThanOrEqual(one) {
		rec.Warnings = append(rec.Warnings, "invalid entry price, no position")
		return rec
	}

	lossProb := one.Sub(winProb)
	netOdds := one.Sub(price).Div(price)

	rec.ExpectedValue = winProb.Mul(netOdds).Sub(lossProb)
	rec.RawKelly = winProb.Mul(netOdds).Sub(lossProb).Div(netOdds)

	if !rec.ExpectedValue.IsPositive() {
		rec.Warnings = append(rec.Warnings, "negative expected value, no position")
		return rec
	}
	if rec.ExpectedValue.LessThan(s.cfg.MinEdge) {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf(
			"edge %s below minimum %s, no position",
			rec.ExpectedValue.StringFixed(3), s.cfg.MinEdge.StringFixed(3)))
		return rec
	}

	fraction := s.Size(winProb, netOdds, lossProb)

	if confidence.LessThan(s.cfg.FullConfidence) && confidence.IsPositive() {
		fraction = fraction.Mul(confidence.Div(s.cfg.FullConfidence))
		rec.Warnings = append(rec.Warnings, fmt.Sprintf(
			"confidence %s below %s, position scaled down",
			confidence.StringFixed(2), s.cfg.FullConfidence.StringFixed(2)))
	}

	if price.LessThan(s.cfg.LongShotPrice) {
		fraction = fraction.Div(decimal.NewFromInt(2))
		rec.Warnings = append(rec.Warnings, "long-shot entry price, position halved")
	}

	// Re-apply the extreme loss cap after scaling adjustments.
	if lossProb.GreaterThanOrEqual(s.cfg.ExtremeLossThreshold) &&
		fraction.GreaterThan(s.cfg.ExtremeLossCap) {
		fraction = s.cfg.ExtremeLossCap
	}

	rec.Fraction = fraction
	return rec
}
