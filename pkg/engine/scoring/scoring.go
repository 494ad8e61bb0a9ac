// Package scoring converts a fair-value estimate plus a market snapshot
// into a scored, risk-classified opportunity. Markets with too little
// edge or volume produce no opportunity at all, which is a normal
// outcome rather than an error.
package scoring

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/engine/fairvalue"
	"github.com/polyedge/engine/pkg/engine/kelly"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// Side is the recommended position.
type Side string

const (
	SideBuyYes Side = "BUY_YES"
	SideBuyNo  Side = "BUY_NO"
	SideNone   Side = "NONE"
)

// Risk classifies the chance of losing the whole stake.
type Risk string

const (
	RiskLow     Risk = "LOW"
	RiskMedium  Risk = "MEDIUM"
	RiskHigh    Risk = "HIGH"
	RiskExtreme Risk = "EXTREME"
)

// DimensionScores are the five component scores, each in [0,1].
type DimensionScores struct {
	Value      decimal.Decimal `json:"value"`
	Confidence decimal.Decimal `json:"confidence"`
	Volume     decimal.Decimal `json:"volume"`
	Time       decimal.Decimal `json:"time"`
	News       decimal.Decimal `json:"news"`
}

// Opportunity is a scored mispricing. Immutable once produced.
type Opportunity struct {
	MarketID      string          `json:"market_id"`
	Question      string          `json:"question"`
	Slug          string          `json:"slug"`
	MarketPrice   decimal.Decimal `json:"market_price"`
	FairValue     decimal.Decimal `json:"fair_value"`
	Edge          decimal.Decimal `json:"edge"` // fair - market, sign meaningful
	Scores        DimensionScores `json:"scores"`
	Overall       decimal.Decimal `json:"overall"`
	Risk          Risk            `json:"risk"`
	Side          Side            `json:"side"`
	KellyFraction decimal.Decimal `json:"kelly_fraction"`
	Confidence    decimal.Decimal `json:"confidence"`
	Rationale     []string        `json:"rationale"`
	Warnings      []string        `json:"warnings,omitempty"`
	ScoredAt      time.Time       `json:"scored_at"`
}

// Config holds the scoring thresholds and policy weights.
type Config struct {
	// MinSpread is the minimum |edge| for an opportunity.
	MinSpread decimal.Decimal

	// MinVolume is the minimum market volume for an opportunity.
	MinVolume decimal.Decimal

	// HighVolume saturates the volume score.
	HighVolume decimal.Decimal

	// ExtremeLossProbability forces EXTREME risk on its own.
	ExtremeLossProbability decimal.Decimal
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinSpread:              decimal.NewFromFloat(0.10),
		MinVolume:              decimal.NewFromInt(1000),
		HighVolume:             decimal.NewFromInt(50000),
		ExtremeLossProbability: decimal.NewFromFloat(0.85),
	}
}

// Fixed policy weights, summing to 1.
var (
	weightValue      = decimal.NewFromFloat(0.30)
	weightConfidence = decimal.NewFromFloat(0.25)
	weightVolume     = decimal.NewFromFloat(0.20)
	weightTime       = decimal.NewFromFloat(0.15)
	weightNews       = decimal.NewFromFloat(0.10)
)

// Scorer builds opportunities from estimates.
type Scorer struct {
	cfg   Config
	sizer *kelly.Sizer
}

// New creates a scorer. A nil sizer gets the default Kelly parameters.
func New(cfg Config, sizer *kelly.Sizer) *Scorer {
	if cfg.MinSpread.IsZero() {
		cfg = DefaultConfig()
	}
	if sizer == nil {
		sizer = kelly.New(kelly.DefaultConfig())
	}
	return &Scorer{cfg: cfg, sizer: sizer}
}

// Score evaluates one market against its estimate. It returns nil when
// the edge or volume is below threshold.
func (s *Scorer) Score(m *gamma.Market, est *fairvalue.Estimate, now time.Time) *Opportunity {
	price := m.YesPrice()
	edge := est.FairYES.Sub(price)

	if edge.Abs().LessThan(s.cfg.MinSpread) {
		return nil
	}
	volume := m.VolumeDecimal()
	if volume.LessThan(s.cfg.MinVolume) {
		return nil
	}

	opp := &Opportunity{
		MarketID:    m.ConditionID,
		Question:    m.Question,
		Slug:        m.Slug,
		MarketPrice: price,
		FairValue:   est.FairYES,
		Edge:        edge,
		Confidence:  est.Confidence,
		Rationale:   append([]string(nil), est.Rationale...),
		Warnings:    append([]string(nil), est.Warnings...),
		ScoredAt:    now,
	}

	if edge.IsPositive() {
		opp.Side = SideBuyYes
	} else {
		opp.Side = SideBuyNo
	}

	opp.Scores = DimensionScores{
		Value:      valueScore(edge),
		Confidence: confidenceScore(est.Confidence, est.NewsRelevance),
		Volume:     volumeScore(volume, s.cfg.HighVolume),
		Time:       timeScore(m.DaysToResolution(now)),
		News:       clampUnit(est.NewsRelevance),
	}

	opp.Overall = opp.Scores.Value.Mul(weightValue).
		Add(opp.Scores.Confidence.Mul(weightConfidence)).
		Add(opp.Scores.Volume.Mul(weightVolume)).
		Add(opp.Scores.Time.Mul(weightTime)).
		Add(opp.Scores.News.Mul(weightNews))

	// Loss probability of the recommended side at fair value.
	var winProb, entryPrice decimal.Decimal
	if opp.Side == SideBuyYes {
		winProb = est.FairYES
		entryPrice = price
	} else {
		winProb = est.FairNO
		entryPrice = m.NoPrice()
	}
	lossProb := decimal.NewFromInt(1).Sub(winProb)

	opp.Risk = s.classifyRisk(lossProb, volume, opp.Scores)

	rec := s.sizer.SizePosition(winProb, est.Confidence, entryPrice)
	opp.KellyFraction = rec.Fraction
	opp.Warnings = append(opp.Warnings, rec.Warnings...)

	return opp
}

// classifyRisk crosses total-loss probability with liquidity. Extreme
// loss probability or near-threshold volume forces EXTREME regardless
// of the overall score: a long shot is never low risk just because it
// scored well.
func (s *Scorer) classifyRisk(lossProb, volume decimal.Decimal, scores DimensionScores) Risk {
	if lossProb.GreaterThanOrEqual(s.cfg.ExtremeLossProbability) {
		return RiskExtreme
	}
	if volume.LessThan(s.cfg.MinVolume.Mul(decimal.NewFromInt(2))) {
		return RiskExtreme
	}

	switch {
	case scores.Confidence.GreaterThanOrEqual(decimal.NewFromFloat(0.8)) &&
		scores.Volume.GreaterThanOrEqual(decimal.NewFromFloat(0.7)):
		return RiskLow
	case scores.Confidence.GreaterThanOrEqual(decimal.NewFromFloat(0.6)) &&
		scores.Volume.GreaterThanOrEqual(decimal.NewFromFloat(0.5)):
		return RiskMedium
	default:
		return RiskHigh
	}
}

// valueScore saturates |edge| of 0.3 or more at 1.
func valueScore(edge decimal.Decimal) decimal.Decimal {
	return clampUnit(edge.Abs().Div(decimal.NewFromFloat(0.3)))
}

// confidenceScore down-weights confidence when no news corroborates.
func confidenceScore(confidence, relevance decimal.Decimal) decimal.Decimal {
	if relevance.LessThan(decimal.NewFromFloat(0.05)) {
		confidence = confidence.Mul(decimal.NewFromFloat(0.8))
	}
	return clampUnit(confidence)
}

// volumeScore saturates at the high-volume threshold.
func volumeScore(volume, high decimal.Decimal) decimal.Decimal {
	if !high.IsPositive() {
		return decimal.Zero
	}
	return clampUnit(volume.Div(high))
}

// timeScore peaks at an intermediate horizon: expired and imminent
// markets leave no room to realize an edge, distant ones carry too much
// uncertainty.
func timeScore(days int) decimal.Decimal {
	switch {
	case days <= 0:
		return decimal.Zero
	case days <= 7:
		return decimal.NewFromFloat(0.6)
	case days <= 30:
		return decimal.NewFromInt(1)
	case days <= 90:
		return decimal.NewFromFloat(0.8)
	default:
		return decimal.NewFromFloat(0.4)
	}
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}
