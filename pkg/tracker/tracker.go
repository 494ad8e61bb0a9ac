// Package tracker persists scored opportunities as predictions and
// settles them against market outcomes, so the engine's accuracy can
// be measured after the fact.
package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/engine/scoring"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// Log thresholds. Opportunities below either are not worth tracking.
var (
	minLogConfidence = decimal.NewFromFloat(0.60)
	minLogOverall    = decimal.NewFromFloat(0.50)
)

// Tracker is an append-only prediction log backed by a JSONL file.
// Each mutation appends a full record; on load the last line per
// market wins, so the file doubles as an audit trail.
type Tracker struct {
	path string

	mu      sync.RWMutex
	records map[string]*PredictionRecord // by market id
	order   []string                     // market ids in first-seen order
}

// New opens (or creates) a tracker at path.
func New(path string) (*Tracker, error) {
	t := &Tracker{
		path:    path,
		records: make(map[string]*PredictionRecord),
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) load() error {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open prediction log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec PredictionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("parse prediction log: %w", err)
		}
		if _, seen := t.records[rec.MarketID]; !seen {
			t.order = append(t.order, rec.MarketID)
		}
		r := rec
		t.records[rec.MarketID] = &r
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read prediction log: %w", err)
	}
	return nil
}

// append writes one record line. Caller holds the write lock.
func (t *Tracker) append(rec *PredictionRecord) error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create prediction log dir: %w", err)
		}
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open prediction log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write prediction: %w", err)
	}
	return nil
}

// Log records an opportunity as a pending prediction. Opportunities
// below the confidence or overall-score thresholds are skipped and
// return (nil, nil). A market can be logged at most once.
func (t *Tracker) Log(opp *scoring.Opportunity, deadline time.Time) (*PredictionRecord, error) {
	if opp.Confidence.LessThan(minLogConfidence) || opp.Overall.LessThan(minLogOverall) {
		return nil, nil
	}

	entry := opp.MarketPrice
	fair := opp.FairValue
	if opp.Side == scoring.SideBuyNo {
		one := decimal.NewFromInt(1)
		entry = one.Sub(opp.MarketPrice)
		fair = one.Sub(opp.FairValue)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.records[opp.MarketID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, opp.MarketID)
	}

	rec := &PredictionRecord{
		ID:         uuid.New().String(),
		MarketID:   opp.MarketID,
		Question:   opp.Question,
		Side:       opp.Side,
		EntryPrice: entry,
		FairValue:  fair,
		Confidence: opp.Confidence,
		Overall:    opp.Overall,
		Risk:       opp.Risk,
		Kelly:      opp.KellyFraction,
		CreatedAt:  opp.ScoredAt,
		Deadline:   deadline,
		Outcome:    OutcomePending,
	}
	if err := t.append(rec); err != nil {
		return nil, err
	}
	t.records[rec.MarketID] = rec
	t.order = append(t.order, rec.MarketID)
	return rec, nil
}

// Resolve settles a prediction. It is a conflict to resolve a market
// twice; the log is left unchanged in that case.
func (t *Tracker) Resolve(marketID string, outcome Outcome, finalPrice decimal.Decimal, resolvedAt time.Time) (*PredictionRecord, error) {
	if !outcome.Resolved() {
		return nil, fmt.Errorf("tracker: %q is not a terminal outcome", outcome)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[marketID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, marketID)
	}
	if rec.Outcome.Resolved() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyResolved, marketID)
	}

	updated := *rec
	updated.Outcome = outcome
	updated.ResolvedAt = &resolvedAt
	updated.FinalPrice = &finalPrice

	correct := (rec.Side == scoring.SideBuyYes && outcome == OutcomeYes) ||
		(rec.Side == scoring.SideBuyNo && outcome == OutcomeNo)
	updated.Correct = &correct

	ret := realizedReturn(rec, outcome, correct)
	updated.RealizedReturn = &ret

	if err := t.append(&updated); err != nil {
		return nil, err
	}
	t.records[marketID] = &updated
	return &updated, nil
}

// realizedReturn is the per-bankroll return of the record's stake. A
// winning side pays (1-entry)/entry on the stake, a losing side loses
// the whole stake, and a voided market returns zero.
func realizedReturn(rec *PredictionRecord, outcome Outcome, correct bool) decimal.Decimal {
	if outcome == OutcomeInvalid {
		return decimal.Zero
	}
	stake := rec.Stake()
	if correct {
		if !rec.EntryPrice.IsPositive() {
			return decimal.Zero
		}
		payout := decimal.NewFromInt(1).Sub(rec.EntryPrice).Div(rec.EntryPrice)
		return payout.Mul(stake)
	}
	return stake.Neg()
}

// ResolveFromMarket settles a prediction from a closed market's final
// prices. Markets that are still open are left alone.
func (t *Tracker) ResolveFromMarket(m *gamma.Market, now time.Time) (*PredictionRecord, error) {
	if !m.Closed {
		return nil, fmt.Errorf("tracker: market %s not closed", m.ConditionID)
	}

	yes := m.YesPrice()
	outcome := OutcomeNo
	if yes.GreaterThanOrEqual(decimal.NewFromFloat(0.5)) {
		outcome = OutcomeYes
	}
	if m.UmaResolutionStatus == "disputed" {
		outcome = OutcomeInvalid
	}
	return t.Resolve(m.ConditionID, outcome, yes, now)
}

// Get returns a copy of the prediction for a market.
func (t *Tracker) Get(marketID string) (*PredictionRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[marketID]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// Records returns a snapshot of all predictions in log order.
func (t *Tracker) Records() []*PredictionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*PredictionRecord, 0, len(t.order))
	for _, id := range t.order {
		cp := *t.records[id]
		out = append(out, &cp)
	}
	return out
}

// Pending returns the market ids with unresolved predictions.
func (t *Tracker) Pending() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, id := range t.order {
		if !t.records[id].Outcome.Resolved() {
			out = append(out, id)
		}
	}
	return out
}
