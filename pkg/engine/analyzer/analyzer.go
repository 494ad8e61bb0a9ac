// Package analyzer runs the fair-value and scoring pipeline over a
// batch of markets with a bounded worker pool. Per-market analysis is
// pure, so the only shared state is the collected result slice.
package analyzer

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/polyedge/engine/pkg/engine/fairvalue"
	"github.com/polyedge/engine/pkg/engine/scoring"
	"github.com/polyedge/engine/pkg/news"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
)

// NewsProvider supplies recent articles for a market question. A nil
// provider runs the pipeline without news input.
type NewsProvider interface {
	Search(ctx context.Context, query string, since time.Time) ([]news.Article, error)
}

// EstimateRecorder receives per-estimate telemetry as markets are
// analyzed. Implemented by metrics.EngineMetrics.
type EstimateRecorder interface {
	RecordEstimate(model string, confidence, newsRelevance float64, damped bool)
}

// Config holds batch parameters.
type Config struct {
	// Workers bounds concurrent market analyses.
	Workers int

	// TopN is how many opportunities Top keeps by default.
	TopN int

	// NewsLookback is how far back to search for articles.
	NewsLookback time.Duration

	// Recorder, when set, is called once per analyzed market.
	Recorder EstimateRecorder
}

// DefaultConfig returns the standard batch parameters.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		TopN:         10,
		NewsLookback: 7 * 24 * time.Hour,
	}
}

// Analyzer evaluates batches of markets.
type Analyzer struct {
	cfg    Config
	engine *fairvalue.Engine
	scorer *scoring.Scorer
	nws    NewsProvider
}

// New creates an analyzer. Nil engine or scorer get defaults; a nil
// news provider disables news correlation.
func New(cfg Config, engine *fairvalue.Engine, scorer *scoring.Scorer, nws NewsProvider) *Analyzer {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	if cfg.NewsLookback <= 0 {
		cfg.NewsLookback = DefaultConfig().NewsLookback
	}
	if engine == nil {
		engine = fairvalue.NewDefault()
	}
	if scorer == nil {
		scorer = scoring.New(scoring.DefaultConfig(), nil)
	}
	return &Analyzer{cfg: cfg, engine: engine, scorer: scorer, nws: nws}
}

// Result is one completed batch run, opportunities ranked best-first.
type Result struct {
	RunID         string                 `json:"run_id"`
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   time.Time              `json:"completed_at"`
	Analyzed      int                    `json:"analyzed"`
	Skipped       int                    `json:"skipped"`
	NewsErrors    int                    `json:"news_errors"`
	Opportunities []*scoring.Opportunity `json:"opportunities"`
}

// Top returns the n best opportunities (fewer if the run produced
// fewer). n <= 0 uses the configured default at run time.
func (r *Result) Top(n int) []*scoring.Opportunity {
	if n <= 0 || n > len(r.Opportunities) {
		n = len(r.Opportunities)
	}
	return r.Opportunities[:n]
}

// Analyze runs the pipeline over markets. Closed or inactive markets
// are skipped. A failed news lookup degrades that market to a no-news
// analysis rather than aborting the batch; only context cancellation
// stops a run early.
func (a *Analyzer) Analyze(ctx context.Context, markets []*gamma.Market, now time.Time) (*Result, error) {
	res := &Result{
		RunID:     uuid.New().String(),
		StartedAt: now,
	}

	var (
		mu         sync.Mutex
		newsErrors int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for _, m := range markets {
		if !m.IsOpen() {
			res.Skipped++
			continue
		}
		res.Analyzed++

		m := m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var articles []news.Article
			if a.nws != nil {
				var err error
				articles, err = a.nws.Search(ctx, m.Question, now.Add(-a.cfg.NewsLookback))
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					log.Printf("analyzer: news lookup failed for %s: %v", m.ConditionID, err)
					mu.Lock()
					newsErrors++
					mu.Unlock()
					articles = nil
				}
			}

			est := a.engine.Estimate(m, articles, now)
			if a.cfg.Recorder != nil {
				conf, _ := est.Confidence.Float64()
				rel, _ := est.NewsRelevance.Float64()
				a.cfg.Recorder.RecordEstimate(est.Model, conf, rel, est.Damped)
			}
			opp := a.scorer.Score(m, est, now)
			if opp == nil {
				return nil
			}

			mu.Lock()
			res.Opportunities = append(res.Opportunities, opp)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(res.Opportunities, func(i, j int) bool {
		return res.Opportunities[i].Overall.GreaterThan(res.Opportunities[j].Overall)
	})
	res.NewsErrors = newsErrors
	res.CompletedAt = time.Now()
	return res, nil
}
