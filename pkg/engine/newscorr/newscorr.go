// Package newscorr correlates news articles with prediction markets and
// derives a relevance score plus a bounded sentiment adjustment to the
// model probability. News can nudge an estimate but never override it:
// the adjustment is clipped to a small ceiling.
package newscorr

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyedge/engine/pkg/news"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// Config bounds the correlator's output.
type Config struct {
	// MaxAdjustment is the ceiling on the absolute sentiment
	// adjustment applied to a probability.
	MaxAdjustment decimal.Decimal

	// FreshnessWindow is how long an article contributes freshness
	// weight; older articles decay linearly to zero within it.
	FreshnessWindow time.Duration

	// MinRelevance is the per-article score below which an article is
	// not considered a match.
	MinRelevance decimal.Decimal
}

// DefaultConfig returns the standard correlator bounds.
func DefaultConfig() Config {
	return Config{
		MaxAdjustment:   decimal.NewFromFloat(0.05),
		FreshnessWindow: 7 * 24 * time.Hour,
		MinRelevance:    decimal.NewFromFloat(0.1),
	}
}

// Result is the correlation outcome for one market.
type Result struct {
	Relevance  decimal.Decimal `json:"relevance"`  // 0-1
	Adjustment decimal.Decimal `json:"adjustment"` // clipped to +/- MaxAdjustment
	Matched    int             `json:"matched"`
	Headlines  []string        `json:"headlines,omitempty"`
}

// Correlator matches markets against articles.
type Correlator struct {
	cfg Config
}

// New creates a correlator with the given config.
func New(cfg Config) *Correlator {
	if cfg.MaxAdjustment.IsZero() {
		cfg = DefaultConfig()
	}
	return &Correlator{cfg: cfg}
}

// Correlate scores the articles against the market. No matching article
// yields the zero Result; callers treat that as "no corroborating
// news", never as an error.
func (c *Correlator) Correlate(m *gamma.Market, articles []news.Article, now time.Time) Result {
	keywords := tokenize(m.Question + " " + m.Description)
	category := categorize(m)

	var result Result
	best := decimal.Zero
	polaritySum := decimal.Zero

	for i := range articles {
		score := c.articleScore(&articles[i], keywords, category, now)
		if score.LessThan(c.cfg.MinRelevance) {
			continue
		}
		result.Matched++
		result.Headlines = append(result.Headlines, articles[i].Title)
		if score.GreaterThan(best) {
			best = score
		}
		polaritySum = polaritySum.Add(articlePolarity(&articles[i]))
	}

	if result.Matched == 0 {
		return Result{Relevance: decimal.Zero, Adjustment: decimal.Zero}
	}

	// Relevance grows with the best match and with each additional
	// corroborating article, saturating at 1.
	extra := decimal.NewFromFloat(0.1).Mul(decimal.NewFromInt(int64(result.Matched - 1)))
	result.Relevance = clampUnit(best.Add(extra))

	polarity := polaritySum.Div(decimal.NewFromInt(int64(result.Matched)))
	result.Adjustment = clampAbs(polarity.Mul(c.cfg.MaxAdjustment), c.cfg.MaxAdjustment)

	return result
}

// articleScore weighs direct keyword overlap, category keyword overlap,
// freshness, and source quality.
func (c *Correlator) articleScore(a *news.Article, keywords []string, category string, now time.Time) decimal.Decimal {
	text := strings.ToLower(a.Title + " " + a.Description)

	score := decimal.Zero

	// Direct keyword matching (40%)
	if len(keywords) > 0 {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		overlap := decimal.NewFromInt(int64(matches)).Div(decimal.NewFromInt(int64(len(keywords))))
		score = score.Add(overlap.Mul(decimal.NewFromFloat(0.4)))
	}

	// Category keyword matching, normalized by 5 keywords (30%)
	if catKeywords, ok := categoryKeywords[category]; ok {
		matches := 0
		for _, kw := range catKeywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		catScore := decimal.NewFromInt(int64(matches)).Div(decimal.NewFromInt(5))
		if catScore.GreaterThan(decimal.NewFromInt(1)) {
			catScore = decimal.NewFromInt(1)
		}
		score = score.Add(catScore.Mul(decimal.NewFromFloat(0.3)))
	}

	// Freshness, linear decay over the window (20%)
	age := a.AgeAt(now)
	if age < 0 {
		age = 0
	}
	if age < c.cfg.FreshnessWindow {
		fresh := decimal.NewFromFloat(1 - age.Hours()/c.cfg.FreshnessWindow.Hours())
		score = score.Add(fresh.Mul(decimal.NewFromFloat(0.2)))
	}

	// Source quality (10%)
	source := strings.ToLower(a.Source.Name)
	quality := decimal.NewFromFloat(0.5)
	for _, q := range qualitySources {
		if strings.Contains(source, q) {
			quality = decimal.NewFromInt(1)
			break
		}
	}
	score = score.Add(quality.Mul(decimal.NewFromFloat(0.1)))

	return clampUnit(score)
}

// articlePolarity is a lexicon polarity in [-1, 1].
func articlePolarity(a *news.Article) decimal.Decimal {
	text := strings.ToLower(a.Title + " " + a.Description)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}

	if pos+neg == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(pos - neg)).Div(decimal.NewFromInt(int64(pos + neg)))
}

// categorize maps a market to one of the category keyword sets.
func categorize(m *gamma.Market) string {
	label := m.CategoryLabel()
	for cat := range categoryKeywords {
		if strings.Contains(label, cat) {
			return cat
		}
	}

	question := strings.ToLower(m.Question)
	for cat, kws := range categoryKeywords {
		for _, kw := range kws {
			if strings.Contains(question, kw) {
				return cat
			}
		}
	}
	return "general"
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

func clampAbs(d, limit decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(limit) {
		return limit
	}
	if d.LessThan(limit.Neg()) {
		return limit.Neg()
	}
	return d
}

// --- Lexicons ---

var categoryKeywords = map[string][]string{
	"politics": {
		"election", "vote", "poll", "candidate", "president", "congress",
		"senate", "republican", "democrat", "campaign", "primary", "ballot",
	},
	"crypto": {
		"bitcoin", "ethereum", "crypto", "blockchain", "btc", "eth",
		"coinbase", "binance", "defi", "token", "etf", "altcoin",
	},
	"economy": {
		"economy", "inflation", "recession", "gdp", "unemployment", "fed",
		"interest rate", "stock", "nasdaq", "dow", "wall street",
	},
	"technology": {
		"artificial intelligence", "openai", "chatgpt", "google", "apple",
		"microsoft", "amazon", "meta", "tesla", "startup", "software",
	},
	"sports": {
		"nfl", "nba", "mlb", "nhl", "soccer", "football", "basketball",
		"olympics", "super bowl", "championship", "playoffs", "coach",
	},
	"health": {
		"covid", "pandemic", "vaccine", "fda", "cdc", "outbreak",
		"epidemic", "virus", "hospital", "disease",
	},
	"geopolitics": {
		"war", "military", "nato", "ukraine", "russia", "china",
		"sanctions", "treaty", "conflict", "nuclear",
	},
}

var qualitySources = []string{
	"reuters", "associated press", "bbc", "bloomberg", "wall street journal",
	"new york times", "washington post", "financial times", "cnbc", "cnn",
}

var positiveWords = []string{
	"success", "win", "victory", "positive", "strong", "growth",
	"increase", "improve", "better", "gain", "approve", "surge",
}

var negativeWords = []string{
	"fail", "lose", "defeat", "negative", "weak", "decline",
	"decrease", "worse", "loss", "drop", "reject", "crash",
}
