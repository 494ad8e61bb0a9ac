package tracker

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/engine/scoring"
)

// Outcome is the resolution state of a tracked prediction.
type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomeYes     Outcome = "YES"
	OutcomeNo      Outcome = "NO"
	OutcomeInvalid Outcome = "INVALID"
)

// Resolved reports whether the outcome is terminal.
func (o Outcome) Resolved() bool {
	return o == OutcomeYes || o == OutcomeNo || o == OutcomeInvalid
}

var (
	// ErrDuplicate means a prediction already exists for the market.
	ErrDuplicate = errors.New("tracker: prediction already logged for market")

	// ErrNotFound means no prediction exists for the market.
	ErrNotFound = errors.New("tracker: prediction not found")

	// ErrAlreadyResolved means the prediction has a terminal outcome.
	ErrAlreadyResolved = errors.New("tracker: prediction already resolved")
)

// PredictionRecord is one logged opportunity and, once the market
// settles, its realized result. A record resolves exactly once.
type PredictionRecord struct {
	ID         string          `json:"id"`
	MarketID   string          `json:"market_id"`
	Question   string          `json:"question"`
	Side       scoring.Side    `json:"side"`
	EntryPrice decimal.Decimal `json:"entry_price"` // price of the recommended side at log time
	FairValue  decimal.Decimal `json:"fair_value"`  // fair value of the recommended side
	Confidence decimal.Decimal `json:"confidence"`
	Overall    decimal.Decimal `json:"overall"`
	Risk       scoring.Risk    `json:"risk"`
	Kelly      decimal.Decimal `json:"kelly_fraction"`
	CreatedAt  time.Time       `json:"created_at"`
	Deadline   time.Time       `json:"deadline"` // market end date at log time

	Outcome        Outcome          `json:"outcome"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`
	FinalPrice     *decimal.Decimal `json:"final_price,omitempty"`
	Correct        *bool            `json:"correct,omitempty"`
	RealizedReturn *decimal.Decimal `json:"realized_return,omitempty"`
}

// Stake is the fraction of bankroll the record committed. Records
// sized to zero fall back to a unit stake so realized returns remain
// comparable across the log.
func (r *PredictionRecord) Stake() decimal.Decimal {
	if r.Kelly.IsPositive() {
		return r.Kelly
	}
	return decimal.NewFromInt(1)
}
