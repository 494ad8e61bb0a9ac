package tracker

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

var csvHeader = []string{
	"id", "market_id", "question", "side", "entry_price", "fair_value",
	"confidence", "overall", "risk", "kelly_fraction", "created_at",
	"deadline", "outcome", "resolved_at", "final_price", "correct",
	"realized_return",
}

// ExportCSV writes the full prediction log, one row per record.
func (t *Tracker) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range t.Records() {
		row := []string{
			rec.ID,
			rec.MarketID,
			rec.Question,
			string(rec.Side),
			rec.EntryPrice.String(),
			rec.FairValue.String(),
			rec.Confidence.String(),
			rec.Overall.String(),
			string(rec.Risk),
			rec.Kelly.String(),
			rec.CreatedAt.Format(time.RFC3339),
			rec.Deadline.Format(time.RFC3339),
			string(rec.Outcome),
			"", "", "", "",
		}
		if rec.ResolvedAt != nil {
			row[13] = rec.ResolvedAt.Format(time.RFC3339)
		}
		if rec.FinalPrice != nil {
			row[14] = rec.FinalPrice.String()
		}
		if rec.Correct != nil {
			row[15] = fmt.Sprintf("%t", *rec.Correct)
		}
		if rec.RealizedReturn != nil {
			row[16] = rec.RealizedReturn.String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
