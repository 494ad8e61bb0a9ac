// Package gamma provides a read-only client for the Polymarket Gamma
// Markets API and the market snapshot model consumed by the analysis
// engine. Snapshots are immutable once fetched; the engine never writes
// back to them.
package gamma

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Market is an immutable snapshot of a single binary prediction market,
// taken once per analysis cycle.
type Market struct {
	ID          string    `json:"id"`
	ConditionID string    `json:"conditionId"`
	Question    string    `json:"question"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	Category    string    `json:"category"`
	EndDate     time.Time `json:"endDate"`
	Active      bool      `json:"active"`
	Closed      bool      `json:"closed"`
	Archived    bool      `json:"archived"`

	// Outcomes and prices (JSON-encoded arrays, as served by Gamma)
	OutcomesRaw      string `json:"outcomes"`
	OutcomePricesRaw string `json:"outcomePrices"`

	Liquidity  JSONFloat `json:"liquidity"`
	Volume     JSONFloat `json:"volume"`
	Volume24hr JSONFloat `json:"volume24hr"`
	Spread     JSONFloat `json:"spread"`

	// Resolution
	UmaResolutionStatus string `json:"umaResolutionStatus"`
	ResolutionSource    string `json:"resolutionSource"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Tags []Tag `json:"tags,omitempty"`
}

// Tag represents a category tag.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// IsOpen reports whether the market is still accepting trades and so is
// worth analyzing.
func (m *Market) IsOpen() bool {
	return m.Active && !m.Closed && !m.Archived
}

// YesPrice returns the current YES price in [0,1]. A market whose price
// arrays cannot be parsed reports 0.5, the uninformative midpoint.
func (m *Market) YesPrice() decimal.Decimal {
	outcomes := m.Outcomes()
	prices := m.OutcomePrices()
	for i, o := range outcomes {
		if strings.EqualFold(o, "Yes") && i < len(prices) {
			return prices[i]
		}
	}
	if len(prices) > 0 {
		return prices[0]
	}
	return decimal.New(5, -1)
}

// NoPrice returns the current NO price in [0,1].
func (m *Market) NoPrice() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(m.YesPrice())
}

// VolumeDecimal returns total traded volume in currency units.
func (m *Market) VolumeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(m.Volume))
}

// DaysToResolution returns whole days from now until the resolution
// timestamp. Markets past resolution report a negative count.
func (m *Market) DaysToResolution(now time.Time) int {
	return int(m.EndDate.Sub(now).Hours() / 24)
}

// CategoryLabel returns the market category in lower case, preferring
// the explicit category field over tag labels.
func (m *Market) CategoryLabel() string {
	if m.Category != "" {
		return strings.ToLower(m.Category)
	}
	for _, t := range m.Tags {
		if t.Label != "" {
			return strings.ToLower(t.Label)
		}
	}
	return ""
}

// Outcomes returns the parsed outcome labels.
func (m *Market) Outcomes() []string {
	var outcomes []string
	if m.OutcomesRaw == "" {
		return outcomes
	}
	json.Unmarshal([]byte(m.OutcomesRaw), &outcomes)
	return outcomes
}

// OutcomePrices returns the parsed outcome prices.
func (m *Market) OutcomePrices() []decimal.Decimal {
	var raw []string
	if m.OutcomePricesRaw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(m.OutcomePricesRaw), &raw); err != nil {
		return nil
	}
	prices := make([]decimal.Decimal, 0, len(raw))
	for _, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		prices = append(prices, d)
	}
	return prices
}

// JSONFloat handles both numeric and string JSON values.
type JSONFloat float64

func (j *JSONFloat) UnmarshalJSON(data []byte) error {
	// Try as number first
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*j = JSONFloat(f)
		return nil
	}

	// Try as string
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		*j = 0
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*j = JSONFloat(f)
	return nil
}

func (j JSONFloat) Float64() float64 {
	return float64(j)
}

// MarketsFilter contains filter parameters for listing markets.
type MarketsFilter struct {
	Active      *bool  `url:"active,omitempty"`
	Closed      *bool  `url:"closed,omitempty"`
	ConditionID string `url:"condition_id,omitempty"`
	Slug        string `url:"slug,omitempty"`
	Tag         string `url:"tag,omitempty"`
	Limit       int    `url:"limit,omitempty"`
	Offset      int    `url:"offset,omitempty"`
}
