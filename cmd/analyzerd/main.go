// polyedge-analyzerd is the market analysis daemon. It periodically
// fetches open Polymarket markets, estimates fair values, scores
// opportunities, logs qualifying predictions and settles them as
// markets resolve.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/polyedge/engine/pkg/config"
	"github.com/polyedge/engine/pkg/engine/analyzer"
	"github.com/polyedge/engine/pkg/engine/fairvalue"
	"github.com/polyedge/engine/pkg/engine/kelly"
	"github.com/polyedge/engine/pkg/engine/scoring"
	"github.com/polyedge/engine/pkg/metrics"
	"github.com/polyedge/engine/pkg/news"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
	"github.com/polyedge/engine/pkg/polymarket/stream"
	"github.com/polyedge/engine/pkg/tracker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	once    = flag.Bool("once", false, "Run a single analysis batch and exit")
	verbose = flag.Bool("verbose", false, "Verbose logging")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting Polyedge analyzer daemon")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d, err := newDaemon(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}

	go d.startHTTP()

	if cfg.StreamEnabled {
		d.startStream(ctx)
	}

	if *once {
		d.runBatch(ctx)
		d.settlePending(ctx)
		return
	}

	log.Printf("Daemon running (interval=%ds, http=%s)", cfg.IntervalSeconds, cfg.Addr)
	log.Println("Press Ctrl+C to stop")

	ticker := time.NewTicker(time.Duration(cfg.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	d.runBatch(ctx)
	d.settlePending(ctx)

	for {
		select {
		case <-sigCh:
			log.Println("Shutting down...")
			cancel()
			if d.feed != nil {
				d.feed.Close()
			}
			d.logPerformance()
			log.Println("Goodbye!")
			return
		case <-ticker.C:
			d.runBatch(ctx)
			d.settlePending(ctx)
		}
	}
}

type daemon struct {
	cfg *config.Config

	gammaClient *gamma.Client
	analyzer    *analyzer.Analyzer
	tracker     *tracker.Tracker
	metrics     *metrics.EngineMetrics
	feed        *stream.Feed

	mu     sync.RWMutex
	latest *analyzer.Result
}

func newDaemon(cfg *config.Config) (*daemon, error) {
	d := &daemon{
		cfg:     cfg,
		metrics: metrics.NewEngineMetrics(),
	}

	gammaOpts := []gamma.ClientOption{
		gamma.WithRequestObserver(func(status string, latency time.Duration) {
			d.metrics.RecordAPIRequest("gamma", status, latency.Seconds())
		}),
	}
	if cfg.GammaBaseURL != "" {
		gammaOpts = append(gammaOpts, gamma.WithBaseURL(cfg.GammaBaseURL))
	}
	d.gammaClient = gamma.NewClient(gammaOpts...)

	var provider analyzer.NewsProvider
	if cfg.NewsAPIKey != "" {
		newsOpts := []news.ClientOption{
			news.WithRequestObserver(func(status string, latency time.Duration) {
				d.metrics.RecordAPIRequest("newsapi", status, latency.Seconds())
			}),
		}
		if cfg.NewsBaseURL != "" {
			newsOpts = append(newsOpts, news.WithBaseURL(cfg.NewsBaseURL))
		}
		provider = news.NewClient(cfg.NewsAPIKey, newsOpts...)
		log.Println("News correlation enabled")
	} else {
		log.Println("No news API key - running without news correlation")
	}

	scorerCfg := scoring.DefaultConfig()
	scorerCfg.MinSpread = decimal.NewFromFloat(cfg.MinSpread)
	scorerCfg.MinVolume = decimal.NewFromFloat(cfg.MinVolume)
	scorer := scoring.New(scorerCfg, kelly.New(kelly.DefaultConfig()))

	d.analyzer = analyzer.New(analyzer.Config{
		Workers:      cfg.Workers,
		TopN:         cfg.TopN,
		NewsLookback: time.Duration(cfg.NewsLookbackHours) * time.Hour,
		Recorder:     d.metrics,
	}, fairvalue.NewDefault(), scorer, provider)

	tr, err := tracker.New(cfg.PredictionsFile)
	if err != nil {
		return nil, err
	}
	d.tracker = tr

	return d, nil
}

func (d *daemon) runBatch(ctx context.Context) {
	start := time.Now()

	markets, err := d.gammaClient.ListOpenMarkets(ctx, d.cfg.MarketLimit, 0)
	if err != nil {
		log.Printf("[ERROR] fetching markets: %v", err)
		d.metrics.RecordAnalysisRun("error", 0, 0, 0, 0)
		return
	}

	refs := make([]*gamma.Market, len(markets))
	for i := range markets {
		refs[i] = &markets[i]
	}

	res, err := d.analyzer.Analyze(ctx, refs, time.Now().UTC())
	if err != nil {
		log.Printf("[ERROR] batch aborted: %v", err)
		d.metrics.RecordAnalysisRun("aborted", time.Since(start).Seconds(), 0, 0, 0)
		return
	}

	d.mu.Lock()
	d.latest = res
	d.mu.Unlock()

	d.metrics.RecordAnalysisRun("ok", time.Since(start).Seconds(),
		res.Analyzed, res.Skipped, len(res.Opportunities))

	log.Printf("Batch %s: %d markets, %d opportunities (%.1fs)",
		res.RunID, res.Analyzed, len(res.Opportunities), time.Since(start).Seconds())

	if *verbose {
		for _, opp := range res.Top(d.cfg.TopN) {
			log.Printf("[OPP] %s %s edge=%s overall=%s risk=%s kelly=%s",
				opp.Side, opp.Question,
				opp.Edge.StringFixed(3), opp.Overall.StringFixed(3),
				opp.Risk, opp.KellyFraction.StringFixed(4))
		}
	}

	// Every scored opportunity is offered to the tracker; its own
	// confidence and score gate decides what gets logged. TopN only
	// bounds reporting.
	for _, opp := range res.Opportunities {
		d.metrics.RecordOpportunity(string(opp.Side), string(opp.Risk),
			metrics.DecimalToFloat64(opp.Edge.Abs()),
			metrics.DecimalToFloat64(opp.Overall),
			metrics.DecimalToFloat64(opp.KellyFraction))

		deadline := deadlineFor(opp.MarketID, markets)
		rec, err := d.tracker.Log(opp, deadline)
		if err != nil {
			if *verbose {
				log.Printf("[TRACK] %s: %v", opp.MarketID, err)
			}
			continue
		}
		if rec != nil {
			d.metrics.RecordPrediction(string(rec.Side))
			log.Printf("[TRACK] logged %s %s @ %s", rec.Side, rec.MarketID, rec.EntryPrice)
			if d.feed != nil {
				if err := d.feed.Watch(rec.MarketID); err != nil {
					log.Printf("[STREAM] watch %s: %v", rec.MarketID, err)
				}
			}
		}
	}
}

// settlePending polls Gamma for closed markets with open predictions.
// The websocket feed usually gets there first; this is the fallback.
func (d *daemon) settlePending(ctx context.Context) {
	pending := d.tracker.Pending()
	if len(pending) == 0 {
		return
	}

	for _, id := range pending {
		m, err := d.gammaClient.GetMarket(ctx, id)
		if err != nil {
			log.Printf("[SETTLE] fetch %s: %v", id, err)
			continue
		}
		if !m.Closed {
			continue
		}
		rec, err := d.tracker.ResolveFromMarket(m, time.Now().UTC())
		if err != nil {
			log.Printf("[SETTLE] %s: %v", id, err)
			continue
		}
		d.recordResolution(rec)
	}
	d.publishPerformance()
}

func (d *daemon) startStream(ctx context.Context) {
	streamCfg := stream.DefaultConfig(d.cfg.StreamURL)
	d.feed = stream.New(streamCfg, stream.Handlers{
		OnStateChange: func(old, new stream.State) {
			d.metrics.StreamUp(new == stream.StateConnected)
			if new == stream.StateReconnecting {
				d.metrics.RecordStreamReconnect()
			}
			if *verbose {
				log.Printf("[STREAM] %s -> %s", old, new)
			}
		},
		OnError: func(err error) {
			log.Printf("[STREAM] error: %v", err)
		},
	})

	if err := d.feed.Connect(ctx); err != nil {
		log.Printf("[STREAM] connect failed, relying on polling: %v", err)
	}
	if err := d.feed.Watch(d.tracker.Pending()...); err != nil {
		log.Printf("[STREAM] watch pending: %v", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-d.feed.Settlements():
				if !ok {
					return
				}
				d.metrics.RecordStreamMessage("market_resolved")
				rec, err := d.tracker.Resolve(s.ConditionID, tracker.Outcome(s.Outcome), s.FinalPrice, s.At)
				if err != nil {
					log.Printf("[STREAM] resolve %s: %v", s.ConditionID, err)
					continue
				}
				d.recordResolution(rec)
				d.feed.Unwatch(s.ConditionID)
				d.publishPerformance()
			}
		}
	}()
}

func (d *daemon) recordResolution(rec *tracker.PredictionRecord) {
	correct := rec.Correct != nil && *rec.Correct
	d.metrics.RecordResolution(string(rec.Outcome), correct)
	log.Printf("[SETTLE] %s resolved %s (correct=%v, return=%s)",
		rec.MarketID, rec.Outcome, correct, rec.RealizedReturn)
}

func (d *daemon) publishPerformance() {
	m := d.tracker.Metrics(tracker.Filter{}, time.Now().UTC())
	d.metrics.UpdateBacktest(
		metrics.DecimalToFloat64(m.HitRate),
		metrics.DecimalToFloat64(m.TotalReturn),
		metrics.DecimalToFloat64(m.BrierScore))
}

func (d *daemon) logPerformance() {
	m := d.tracker.Metrics(tracker.Filter{}, time.Now().UTC())
	if m.Resolved == 0 {
		log.Printf("Final stats: %d predictions, none resolved yet", m.Total)
		return
	}
	log.Printf("Final stats: %d predictions, hit rate %s%%, total return %s",
		m.Total,
		m.HitRate.Mul(decimal.NewFromInt(100)).StringFixed(1),
		m.TotalReturn.StringFixed(4))
}

func (d *daemon) startHTTP() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/opportunities", func(w http.ResponseWriter, r *http.Request) {
		d.mu.RLock()
		latest := d.latest
		d.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if latest == nil {
			w.Write([]byte("{}"))
			return
		}
		json.NewEncoder(w).Encode(latest)
	})

	mux.HandleFunc("/performance", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d.tracker.Metrics(tracker.Filter{}, time.Now().UTC()))
	})

	mux.HandleFunc("/predictions.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		if err := d.tracker.ExportCSV(w); err != nil {
			log.Printf("[HTTP] csv export: %v", err)
		}
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.metrics.Registry(), promhttp.HandlerOpts{}))

	log.Printf("HTTP server listening on %s", d.cfg.Addr)
	if err := http.ListenAndServe(d.cfg.Addr, mux); err != nil {
		log.Printf("[HTTP] server stopped: %v", err)
	}
}

func deadlineFor(conditionID string, markets []gamma.Market) time.Time {
	for i := range markets {
		if markets[i].ConditionID == conditionID {
			return markets[i].EndDate
		}
	}
	return time.Time{}
}
