// Package config defines engine configuration and its loading layers.
package config

// Config contains process configuration for the analysis daemon and
// the backtest CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for /metrics, e.g. ":9090".
	Addr string `koanf:"addr"`

	// IntervalSeconds is the pause between analysis batches.
	IntervalSeconds int `koanf:"interval_seconds"`

	// Workers bounds concurrent market analyses per batch.
	Workers int `koanf:"workers"`

	// TopN caps the ranked opportunity report.
	TopN int `koanf:"top_n"`

	// MarketLimit caps how many open markets one batch fetches.
	MarketLimit int `koanf:"market_limit"`

	// GammaBaseURL overrides the Polymarket Gamma API endpoint.
	GammaBaseURL string `koanf:"gamma_base_url"`

	// NewsAPIKey authenticates against NewsAPI. Empty disables news
	// correlation.
	NewsAPIKey string `koanf:"news_api_key"`

	// NewsBaseURL overrides the NewsAPI endpoint.
	NewsBaseURL string `koanf:"news_base_url"`

	// NewsLookbackHours is how far back article searches reach.
	NewsLookbackHours int `koanf:"news_lookback_hours"`

	// PredictionsFile is the JSONL prediction log path.
	PredictionsFile string `koanf:"predictions_file"`

	// MinSpread is the minimum |edge| to surface an opportunity.
	MinSpread float64 `koanf:"min_spread"`

	// MinVolume is the minimum market volume to consider.
	MinVolume float64 `koanf:"min_volume"`

	// StreamEnabled turns on the websocket settlement feed.
	StreamEnabled bool `koanf:"stream_enabled"`

	// StreamURL overrides the settlement feed endpoint.
	StreamURL string `koanf:"stream_url"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		IntervalSeconds:   300,
		Workers:           4,
		TopN:              10,
		MarketLimit:       500,
		NewsLookbackHours: 168,
		PredictionsFile:   "data/predictions.jsonl",
		MinSpread:         0.10,
		MinVolume:         1000,
	}
}
