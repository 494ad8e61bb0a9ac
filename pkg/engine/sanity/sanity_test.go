package sanity

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWithinCeilingPassesThrough(t *testing.T) {
	c := New(DefaultConfig())

	raw := decimal.NewFromFloat(0.40)
	conf := decimal.NewFromFloat(0.7)
	market := decimal.NewFromFloat(0.25)

	result := c.Check(raw, conf, market)

	if !result.Probability.Equal(raw) {
		t.Errorf("Probability changed: %s", result.Probability)
	}
	if !result.Confidence.Equal(conf) {
		t.Errorf("Confidence changed: %s", result.Confidence)
	}
	if result.Damped || len(result.Warnings) != 0 {
		t.Error("In-bounds estimate should not be damped")
	}
}

func TestExtremeDeviationDamped(t *testing.T) {
	c := New(DefaultConfig())

	// The observed failure case: model said 30% where market said 0.6%.
	raw := decimal.NewFromFloat(0.30)
	conf := decimal.NewFromFloat(0.80)
	market := decimal.NewFromFloat(0.006)

	result := c.Check(raw, conf, market)

	if !result.Damped {
		t.Fatal("50x deviation should be damped")
	}

	// Adjusted estimate strictly between market price and raw estimate.
	if !result.Probability.GreaterThan(market) || !result.Probability.LessThan(raw) {
		t.Errorf("Adjusted %s should lie strictly between %s and %s",
			result.Probability, market, raw)
	}

	// Adjusted ratio strictly smaller than raw ratio.
	rawRatio := raw.Div(market)
	adjRatio := result.Probability.Div(market)
	if !adjRatio.LessThan(rawRatio) {
		t.Errorf("Adjusted ratio %s should be < raw ratio %s", adjRatio, rawRatio)
	}

	// Confidence reduced.
	if !result.Confidence.LessThan(conf) {
		t.Errorf("Confidence %s should be < %s", result.Confidence, conf)
	}

	if len(result.Warnings) == 0 {
		t.Error("Expected a warning")
	}
}

func TestDampingIsDeterministic(t *testing.T) {
	c := New(DefaultConfig())

	raw := decimal.NewFromFloat(0.30)
	conf := decimal.NewFromFloat(0.80)
	market := decimal.NewFromFloat(0.006)

	a := c.Check(raw, conf, market)
	b := c.Check(raw, conf, market)

	if !a.Probability.Equal(b.Probability) || !a.Confidence.Equal(b.Confidence) {
		t.Error("Same inputs produced different adjustments")
	}
	if len(a.Warnings) != len(b.Warnings) || a.Warnings[0] != b.Warnings[0] {
		t.Error("Same inputs produced different warning text")
	}
}

func TestDeviationBelowMarketAlsoDamped(t *testing.T) {
	c := New(DefaultConfig())

	// Model far under the market: 1% vs 60%.
	raw := decimal.NewFromFloat(0.01)
	conf := decimal.NewFromFloat(0.7)
	market := decimal.NewFromFloat(0.60)

	result := c.Check(raw, conf, market)

	if !result.Damped {
		t.Fatal("60x below-market deviation should be damped")
	}
	if !result.Probability.GreaterThan(raw) || !result.Probability.LessThan(market) {
		t.Errorf("Adjusted %s should lie strictly between %s and %s",
			result.Probability, raw, market)
	}
	if !result.Confidence.LessThan(conf) {
		t.Errorf("Confidence %s should drop below %s", result.Confidence, conf)
	}
}

func TestZeroPriceDoesNotPanic(t *testing.T) {
	c := New(DefaultConfig())

	result := c.Check(decimal.NewFromFloat(0.3), decimal.NewFromFloat(0.5), decimal.Zero)
	one := decimal.NewFromInt(1)
	if result.Probability.IsNegative() || result.Probability.GreaterThan(one) {
		t.Errorf("Probability out of range: %s", result.Probability)
	}
}

func TestOutputsStayInUnitInterval(t *testing.T) {
	c := New(DefaultConfig())
	one := decimal.NewFromInt(1)

	probs := []float64{0.001, 0.02, 0.3, 0.5, 0.9, 0.999}
	prices := []float64{0.001, 0.006, 0.1, 0.5, 0.99}

	for _, p := range probs {
		for _, mp := range prices {
			result := c.Check(decimal.NewFromFloat(p), decimal.NewFromFloat(0.8), decimal.NewFromFloat(mp))
			if result.Probability.IsNegative() || result.Probability.GreaterThan(one) {
				t.Errorf("p=%v mp=%v probability out of range: %s", p, mp, result.Probability)
			}
			if result.Confidence.IsNegative() || result.Confidence.GreaterThan(one) {
				t.Errorf("p=%v mp=%v confidence out of range: %s", p, mp, result.Confidence)
			}
		}
	}
}
