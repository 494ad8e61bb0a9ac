package tracker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/engine/scoring"
)

// Filter narrows which predictions a metrics pass considers. Zero
// fields match everything.
type Filter struct {
	Since time.Time
	Until time.Time
	Risk  scoring.Risk

	// Confidence bucket, half-open [Min, Max).
	MinConfidence decimal.Decimal
	MaxConfidence decimal.Decimal
}

func (f Filter) matches(rec *PredictionRecord) bool {
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !rec.CreatedAt.Before(f.Until) {
		return false
	}
	if f.Risk != "" && rec.Risk != f.Risk {
		return false
	}
	if !f.MinConfidence.IsZero() && rec.Confidence.LessThan(f.MinConfidence) {
		return false
	}
	if !f.MaxConfidence.IsZero() && !rec.Confidence.LessThan(f.MaxConfidence) {
		return false
	}
	return true
}

// BucketStats summarizes one slice of the prediction log.
type BucketStats struct {
	Total    int             `json:"total"`
	Resolved int             `json:"resolved"`
	Correct  int             `json:"correct"`
	HitRate  decimal.Decimal `json:"hit_rate"`
}

// CalibrationBin is one confidence decile of resolved predictions:
// how often predictions of that stated probability actually won.
type CalibrationBin struct {
	Lower    decimal.Decimal `json:"lower"`
	Upper    decimal.Decimal `json:"upper"`
	Count    int             `json:"count"`
	Correct  int             `json:"correct"`
	HitRate  decimal.Decimal `json:"hit_rate"`
	MeanFair decimal.Decimal `json:"mean_fair"`
}

// PerformanceMetrics is a pure read-side summary of the log.
type PerformanceMetrics struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	Correct  int `json:"correct"`

	HitRate        decimal.Decimal `json:"hit_rate"`
	MeanReturn     decimal.Decimal `json:"mean_return"`
	TotalReturn    decimal.Decimal `json:"total_return"`
	MeanConfidence decimal.Decimal `json:"mean_confidence"`

	// BrierScore is the mean squared error between the recorded fair
	// value of the taken side and the realized binary outcome, over
	// resolved non-void predictions. Lower is better.
	BrierScore decimal.Decimal `json:"brier_score"`

	ByRisk       map[scoring.Risk]BucketStats `json:"by_risk"`
	ByConfidence map[string]BucketStats       `json:"by_confidence"`
	Calibration  []CalibrationBin             `json:"calibration"`

	GeneratedAt time.Time `json:"generated_at"`
}

var confidenceBuckets = []struct {
	label string
	min   decimal.Decimal
	max   decimal.Decimal
}{
	{"0.6-0.7", decimal.NewFromFloat(0.6), decimal.NewFromFloat(0.7)},
	{"0.7-0.8", decimal.NewFromFloat(0.7), decimal.NewFromFloat(0.8)},
	{"0.8-0.9", decimal.NewFromFloat(0.8), decimal.NewFromFloat(0.9)},
	{"0.9-1.0", decimal.NewFromFloat(0.9), decimal.NewFromFloat(1.01)},
}

// Metrics computes performance over the predictions matching filter.
func (t *Tracker) Metrics(filter Filter, now time.Time) PerformanceMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := PerformanceMetrics{
		ByRisk:       make(map[scoring.Risk]BucketStats),
		ByConfidence: make(map[string]BucketStats),
		GeneratedAt:  now,
	}

	var (
		confSum  decimal.Decimal
		retSum   decimal.Decimal
		brierSum decimal.Decimal
		scored   int // resolved, non-void
		matched  []*PredictionRecord
	)

	for _, id := range t.order {
		rec := t.records[id]
		if !filter.matches(rec) {
			continue
		}
		matched = append(matched, rec)

		m.Total++
		confSum = confSum.Add(rec.Confidence)

		if !rec.Outcome.Resolved() {
			continue
		}
		m.Resolved++
		if rec.Correct != nil && *rec.Correct {
			m.Correct++
		}
		if rec.RealizedReturn != nil {
			retSum = retSum.Add(*rec.RealizedReturn)
		}
		if rec.Outcome != OutcomeInvalid {
			brierSum = brierSum.Add(brier(rec))
			scored++
		}
	}

	if m.Total > 0 {
		m.MeanConfidence = confSum.Div(decimal.NewFromInt(int64(m.Total)))
	}
	if m.Resolved > 0 {
		m.HitRate = decimal.NewFromInt(int64(m.Correct)).Div(decimal.NewFromInt(int64(m.Resolved)))
		m.MeanReturn = retSum.Div(decimal.NewFromInt(int64(m.Resolved)))
		m.TotalReturn = retSum
	}
	if scored > 0 {
		m.BrierScore = brierSum.Div(decimal.NewFromInt(int64(scored)))
	}

	for _, risk := range []scoring.Risk{scoring.RiskLow, scoring.RiskMedium, scoring.RiskHigh, scoring.RiskExtreme} {
		m.ByRisk[risk] = bucketStats(matched, func(r *PredictionRecord) bool {
			return r.Risk == risk
		})
	}
	for _, b := range confidenceBuckets {
		min, max := b.min, b.max
		m.ByConfidence[b.label] = bucketStats(matched, func(r *PredictionRecord) bool {
			return !r.Confidence.LessThan(min) && r.Confidence.LessThan(max)
		})
	}
	m.Calibration = calibration(matched)
	return m
}

func bucketStats(recs []*PredictionRecord, in func(*PredictionRecord) bool) BucketStats {
	var s BucketStats
	for _, rec := range recs {
		if !in(rec) {
			continue
		}
		s.Total++
		if rec.Outcome.Resolved() {
			s.Resolved++
			if rec.Correct != nil && *rec.Correct {
				s.Correct++
			}
		}
	}
	if s.Resolved > 0 {
		s.HitRate = decimal.NewFromInt(int64(s.Correct)).Div(decimal.NewFromInt(int64(s.Resolved)))
	}
	return s
}

// brier scores one resolved prediction: (fair - won)^2 where won is 1
// if the recorded side paid out.
func brier(rec *PredictionRecord) decimal.Decimal {
	won := decimal.Zero
	if rec.Correct != nil && *rec.Correct {
		won = decimal.NewFromInt(1)
	}
	diff := rec.FairValue.Sub(won)
	return diff.Mul(diff)
}

// calibration bins resolved non-void predictions into fair-value
// deciles and compares stated probability with realized frequency.
func calibration(recs []*PredictionRecord) []CalibrationBin {
	tenth := decimal.NewFromFloat(0.1)
	bins := make([]CalibrationBin, 10)
	sums := make([]decimal.Decimal, 10)
	for i := range bins {
		bins[i].Lower = tenth.Mul(decimal.NewFromInt(int64(i)))
		bins[i].Upper = tenth.Mul(decimal.NewFromInt(int64(i + 1)))
	}

	for _, rec := range recs {
		if !rec.Outcome.Resolved() || rec.Outcome == OutcomeInvalid {
			continue
		}
		idx := int(rec.FairValue.Div(tenth).IntPart())
		if idx < 0 {
			idx = 0
		}
		if idx > 9 {
			idx = 9
		}
		bins[idx].Count++
		sums[idx] = sums[idx].Add(rec.FairValue)
		if rec.Correct != nil && *rec.Correct {
			bins[idx].Correct++
		}
	}

	for i := range bins {
		if bins[i].Count == 0 {
			continue
		}
		n := decimal.NewFromInt(int64(bins[i].Count))
		bins[i].HitRate = decimal.NewFromInt(int64(bins[i].Correct)).Div(n)
		bins[i].MeanFair = sums[i].Div(n)
	}
	return bins
}
