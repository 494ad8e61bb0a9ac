package models

import (
	"time"

	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// CryptoModel covers cryptocurrency and financial-market events:
// ETF approvals, price targets, regulatory outcomes.
type CryptoModel struct{}

func (CryptoModel) Name() string { return "crypto" }

func (CryptoModel) Claims(m *gamma.Market) bool {
	if containsAny(m.CategoryLabel(), "crypto", "finance") {
		return true
	}
	return containsAny(questionText(m),
		"bitcoin", "ethereum", "crypto", "btc", "eth", "etf", "sec", "stablecoin")
}

func (c CryptoModel) Estimate(m *gamma.Market, now time.Time) Estimate {
	q := questionText(m)

	var est Estimate
	switch {
	case containsAny(q, "etf") && containsAny(q, "approve", "approved", "approval"):
		est = c.etfEstimate(q)
	case containsAny(q, "$", "price", "reach", "100k", "50k", "all-time high"):
		est = baseRate(c.Name(), 0.35, 0.4, "crypto price targets historically hit about a third of the time")
	case containsAny(q, "bitcoin", "ethereum", "crypto", "btc", "eth"):
		est = baseRate(c.Name(), 0.40, 0.4, "generic crypto event baseline")
	default:
		return neutralEstimate(c.Name(), "question does not match known crypto patterns")
	}

	return adjustForHorizon(est, m.DaysToResolution(now))
}

func (c CryptoModel) etfEstimate(q string) Estimate {
	switch {
	case containsAny(q, "bitcoin", "btc"):
		return baseRate(c.Name(), 0.75, 0.6, "Bitcoin ETF precedent already set")
	case containsAny(q, "ethereum", "eth"):
		return baseRate(c.Name(), 0.60, 0.6, "Ethereum ETF following Bitcoin precedent")
	case containsAny(q, "litecoin", "ltc"):
		return baseRate(c.Name(), 0.35, 0.5, "Litecoin ETF unlikely without broader adoption")
	case containsAny(q, "ripple", "xrp"):
		return baseRate(c.Name(), 0.25, 0.5, "Ripple ETF hindered by litigation")
	case containsAny(q, "doge"):
		return baseRate(c.Name(), 0.20, 0.5, "meme-coin ETF approval unlikely")
	default:
		return baseRate(c.Name(), 0.30, 0.4, "generic crypto ETF approval rate")
	}
}
