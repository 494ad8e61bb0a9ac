package scoring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/engine/fairvalue"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

var scNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func scMarket(price, volume float64, days int) *gamma.Market {
	return &gamma.Market{
		ConditionID:      "0xsc",
		Question:         "Will it happen?",
		OutcomesRaw:      `["Yes", "No"]`,
		OutcomePricesRaw: `["` + decimal.NewFromFloat(price).String() + `", "` + decimal.NewFromFloat(1-price).String() + `"]`,
		Volume:           gamma.JSONFloat(volume),
		EndDate:          scNow.Add(time.Duration(days) * 24 * time.Hour),
	}
}

func scEstimate(fair, confidence, relevance float64) *fairvalue.Estimate {
	return &fairvalue.Estimate{
		MarketID:      "0xsc",
		FairYES:       decimal.NewFromFloat(fair),
		FairNO:        decimal.NewFromFloat(1 - fair),
		Confidence:    decimal.NewFromFloat(confidence),
		NewsRelevance: decimal.NewFromFloat(relevance),
		Model:         "test",
	}
}

func TestThinEdgeIsNotAnOpportunity(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// Edge 0.05, below the 0.10 minimum spread.
	opp := s.Score(scMarket(0.50, 20000, 30), scEstimate(0.55, 0.8, 0.5), scNow)
	if opp != nil {
		t.Errorf("Expected nil for thin edge, got overall %s", opp.Overall)
	}
}

func TestThinVolumeIsNotAnOpportunity(t *testing.T) {
	s := New(DefaultConfig(), nil)

	opp := s.Score(scMarket(0.40, 500, 30), scEstimate(0.60, 0.8, 0.5), scNow)
	if opp != nil {
		t.Error("Expected nil for volume below minimum")
	}
}

func TestEdgeEqualsFairMinusMarket(t *testing.T) {
	s := New(DefaultConfig(), nil)

	opp := s.Score(scMarket(0.40, 20000, 30), scEstimate(0.60, 0.8, 0.5), scNow)
	if opp == nil {
		t.Fatal("Expected an opportunity")
	}

	want := decimal.NewFromFloat(0.60).Sub(decimal.NewFromFloat(0.40))
	if !opp.Edge.Equal(want) {
		t.Errorf("Edge %s != fair - market %s", opp.Edge, want)
	}
	if opp.Side != SideBuyYes {
		t.Errorf("Positive edge should recommend BUY_YES, got %s", opp.Side)
	}
}

func TestNegativeEdgeRecommendsBuyNo(t *testing.T) {
	s := New(DefaultConfig(), nil)

	opp := s.Score(scMarket(0.70, 20000, 30), scEstimate(0.50, 0.8, 0.5), scNow)
	if opp == nil {
		t.Fatal("Expected an opportunity")
	}
	if opp.Side != SideBuyNo {
		t.Errorf("Negative edge should recommend BUY_NO, got %s", opp.Side)
	}
	if !opp.Edge.IsNegative() {
		t.Errorf("Edge should be negative, got %s", opp.Edge)
	}
}

func TestOverallIsFixedWeightedSum(t *testing.T) {
	s := New(DefaultConfig(), nil)

	opp := s.Score(scMarket(0.40, 50000, 20), scEstimate(0.60, 0.8, 0.5), scNow)
	if opp == nil {
		t.Fatal("Expected an opportunity")
	}

	want := opp.Scores.Value.Mul(decimal.NewFromFloat(0.30)).
		Add(opp.Scores.Confidence.Mul(decimal.NewFromFloat(0.25))).
		Add(opp.Scores.Volume.Mul(decimal.NewFromFloat(0.20))).
		Add(opp.Scores.Time.Mul(decimal.NewFromFloat(0.15))).
		Add(opp.Scores.News.Mul(decimal.NewFromFloat(0.10)))

	if !opp.Overall.Equal(want) {
		t.Errorf("Overall %s != weighted sum %s", opp.Overall, want)
	}
}

func TestAllScoresInUnitInterval(t *testing.T) {
	s := New(DefaultConfig(), nil)
	one := decimal.NewFromInt(1)

	cases := []struct {
		price, fair, conf, rel, volume float64
		days                           int
	}{
		{0.40, 0.60, 0.8, 0.5, 20000, 30},
		{0.006, 0.0648, 0.36, 0.0, 50000, 10},
		{0.90, 0.50, 0.9, 1.0, 500000, 400},
		{0.30, 0.95, 0.1, 0.0, 2500, -3},
	}

	for _, tc := range cases {
		opp := s.Score(scMarket(tc.price, tc.volume, tc.days), scEstimate(tc.fair, tc.conf, tc.rel), scNow)
		if opp == nil {
			continue
		}
		for name, v := range map[string]decimal.Decimal{
			"value": opp.Scores.Value, "confidence": opp.Scores.Confidence,
			"volume": opp.Scores.Volume, "time": opp.Scores.Time,
			"news": opp.Scores.News, "overall": opp.Overall,
		} {
			if v.IsNegative() || v.GreaterThan(one) {
				t.Errorf("%+v: %s score out of range: %s", tc, name, v)
			}
		}
	}
}

func TestDampedLongShotIsNotAnOpportunity(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// The observed long-shot case after damping: market 0.006, fair
	// value 0.0648. The remaining edge is under the minimum spread, so
	// nothing gets scored or logged.
	opp := s.Score(scMarket(0.006, 500000, 10), scEstimate(0.0648, 0.36, 0.0), scNow)
	if opp != nil {
		t.Errorf("Expected nil after damping shrank the edge, got overall %s", opp.Overall)
	}
}

func TestExtremeLossProbabilityForcesExtremeRisk(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// Buying YES at 0.02 with fair value 0.14: the edge clears the
	// spread gate but the position still loses 86% of the time. Every
	// other dimension can look good and the risk must stay EXTREME.
	opp := s.Score(scMarket(0.02, 500000, 20), scEstimate(0.14, 0.9, 0.8), scNow)
	if opp == nil {
		t.Fatal("Expected an opportunity (edge and volume clear thresholds)")
	}
	if opp.Risk != RiskExtreme {
		t.Errorf("Expected EXTREME risk, got %s", opp.Risk)
	}
}

func TestThinLiquidityForcesExtremeRisk(t *testing.T) {
	s := New(DefaultConfig(), nil)

	// Volume 1500 clears MinVolume but is under 2x: still EXTREME.
	opp := s.Score(scMarket(0.40, 1500, 30), scEstimate(0.60, 0.9, 0.8), scNow)
	if opp == nil {
		t.Fatal("Expected an opportunity")
	}
	if opp.Risk != RiskExtreme {
		t.Errorf("Thin liquidity should force EXTREME, got %s", opp.Risk)
	}
}

func TestRiskLadder(t *testing.T) {
	s := New(DefaultConfig(), nil)

	low := s.Score(scMarket(0.40, 50000, 20), scEstimate(0.60, 0.85, 0.5), scNow)
	if low == nil || low.Risk != RiskLow {
		t.Errorf("High confidence and volume should be LOW, got %+v", low)
	}

	medium := s.Score(scMarket(0.40, 30000, 20), scEstimate(0.60, 0.65, 0.5), scNow)
	if medium == nil || medium.Risk != RiskMedium {
		t.Errorf("Moderate confidence and volume should be MEDIUM, got %+v", medium)
	}

	high := s.Score(scMarket(0.40, 10000, 20), scEstimate(0.60, 0.5, 0.5), scNow)
	if high == nil || high.Risk != RiskHigh {
		t.Errorf("Low confidence should be HIGH, got %+v", high)
	}
}

func TestTimeScorePeaksAtIntermediateHorizon(t *testing.T) {
	peak := timeScore(20)
	if !timeScore(3).LessThan(peak) {
		t.Error("Imminent markets should score below the peak")
	}
	if !timeScore(200).LessThan(peak) {
		t.Error("Distant markets should score below the peak")
	}
	if !timeScore(0).IsZero() {
		t.Error("Expired markets should score zero")
	}
}

func TestNoNewsDownWeightsConfidence(t *testing.T) {
	s := New(DefaultConfig(), nil)

	with := s.Score(scMarket(0.40, 50000, 20), scEstimate(0.60, 0.8, 0.5), scNow)
	without := s.Score(scMarket(0.40, 50000, 20), scEstimate(0.60, 0.8, 0.0), scNow)

	if with == nil || without == nil {
		t.Fatal("Expected opportunities")
	}
	if !without.Scores.Confidence.LessThan(with.Scores.Confidence) {
		t.Errorf("Zero news relevance should down-weight confidence: %s vs %s",
			without.Scores.Confidence, with.Scores.Confidence)
	}
}
