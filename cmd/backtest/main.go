// polyedge-backtest is a CLI tool for settling logged predictions and
// reporting the engine's historical performance.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/polyedge/engine/pkg/config"
	"github.com/polyedge/engine/pkg/engine/scoring"
	"github.com/polyedge/engine/pkg/polymarket/gamma"
	"github.com/polyedge/engine/pkg/tracker"

	"github.com/shopspring/decimal"
)

var (
	resolve    = flag.Bool("resolve", false, "Settle pending predictions against Gamma before reporting")
	outputFile = flag.String("output", "", "Export the prediction log (JSON or CSV)")
	window     = flag.Duration("window", 0, "Only report predictions made within this window (e.g. 720h)")
	riskLevel  = flag.String("risk", "", "Only report predictions at this risk level (LOW, MEDIUM, HIGH, EXTREME)")
	verbose    = flag.Bool("verbose", false, "Verbose output")

	// Manual resolution flags
	market  = flag.String("market", "", "Condition ID to resolve manually")
	outcome = flag.String("outcome", "", "Manual outcome: YES, NO or INVALID")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tr, err := tracker.New(cfg.PredictionsFile)
	if err != nil {
		log.Fatalf("Failed to open prediction log: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()

	if *market != "" {
		resolveManually(tr, now)
	}

	if *resolve {
		resolvePending(ctx, cfg, tr, now)
	}

	filter := tracker.Filter{}
	if *window > 0 {
		filter.Since = now.Add(-*window)
	}
	if *riskLevel != "" {
		filter.Risk = parseRisk(*riskLevel)
	}

	m := tr.Metrics(filter, now)
	printReport(m)

	if *verbose {
		printRecords(tr)
	}

	if *outputFile != "" {
		if err := export(tr, *outputFile); err != nil {
			log.Fatalf("Failed to export: %v", err)
		}
		log.Printf("Exported to: %s", *outputFile)
	}
}

func resolveManually(tr *tracker.Tracker, now time.Time) {
	o := tracker.Outcome(strings.ToUpper(*outcome))
	if !o.Resolved() {
		log.Fatalf("Invalid -outcome %q (want YES, NO or INVALID)", *outcome)
	}

	price := decimal.Zero
	if o == tracker.OutcomeYes {
		price = decimal.NewFromInt(1)
	}

	rec, err := tr.Resolve(*market, o, price, now)
	if err != nil {
		log.Fatalf("Manual resolution failed: %v", err)
	}
	log.Printf("Resolved %s as %s (correct=%v, return=%s)",
		rec.MarketID, rec.Outcome, *rec.Correct, rec.RealizedReturn)
}

func resolvePending(ctx context.Context, cfg *config.Config, tr *tracker.Tracker, now time.Time) {
	var opts []gamma.ClientOption
	if cfg.GammaBaseURL != "" {
		opts = append(opts, gamma.WithBaseURL(cfg.GammaBaseURL))
	}
	client := gamma.NewClient(opts...)

	pending := tr.Pending()
	log.Printf("Checking %d pending predictions against Gamma", len(pending))

	settled := 0
	for _, id := range pending {
		m, err := client.GetMarket(ctx, id)
		if err != nil {
			log.Printf("  fetch %s: %v", id, err)
			continue
		}
		if !m.Closed {
			continue
		}
		rec, err := tr.ResolveFromMarket(m, now)
		if err != nil {
			log.Printf("  resolve %s: %v", id, err)
			continue
		}
		settled++
		if *verbose {
			log.Printf("  %s -> %s (correct=%v)", rec.MarketID, rec.Outcome, *rec.Correct)
		}
	}
	log.Printf("Settled %d predictions", settled)
}

func printReport(m tracker.PerformanceMetrics) {
	fmt.Println()
	fmt.Println("==================== PREDICTION PERFORMANCE ====================")
	fmt.Println()
	fmt.Printf("  Predictions:     %d (%d resolved)\n", m.Total, m.Resolved)
	if m.Resolved > 0 {
		fmt.Printf("  Hit Rate:        %.1f%%\n", pct(m.HitRate))
		fmt.Printf("  Mean Return:     %.4f per prediction\n", f(m.MeanReturn))
		fmt.Printf("  Total Return:    %.4f\n", f(m.TotalReturn))
		fmt.Printf("  Brier Score:     %.4f\n", f(m.BrierScore))
	}
	fmt.Printf("  Mean Confidence: %.2f\n", f(m.MeanConfidence))
	fmt.Println()

	fmt.Println("  By risk level:")
	for _, risk := range []string{"LOW", "MEDIUM", "HIGH", "EXTREME"} {
		s := m.ByRisk[parseRisk(risk)]
		if s.Total == 0 {
			continue
		}
		fmt.Printf("    %-8s %3d predictions, %3d resolved, hit rate %.1f%%\n",
			risk, s.Total, s.Resolved, pct(s.HitRate))
	}
	fmt.Println()

	fmt.Println("  By confidence:")
	for _, bucket := range []string{"0.6-0.7", "0.7-0.8", "0.8-0.9", "0.9-1.0"} {
		s := m.ByConfidence[bucket]
		if s.Total == 0 {
			continue
		}
		fmt.Printf("    %-8s %3d predictions, %3d resolved, hit rate %.1f%%\n",
			bucket, s.Total, s.Resolved, pct(s.HitRate))
	}
	fmt.Println()

	fmt.Println("  Calibration (stated fair value vs realized frequency):")
	for _, bin := range m.Calibration {
		if bin.Count == 0 {
			continue
		}
		fmt.Printf("    [%.1f, %.1f)  %3d resolved, stated %.2f, realized %.2f\n",
			f(bin.Lower), f(bin.Upper), bin.Count, f(bin.MeanFair), f(bin.HitRate))
	}
	fmt.Println()
	fmt.Println("================================================================")
}

func printRecords(tr *tracker.Tracker) {
	fmt.Println()
	fmt.Println("Prediction Log:")
	fmt.Println("---------------")
	for i, rec := range tr.Records() {
		line := fmt.Sprintf("  %d. %s %s %s @ %s (conf %.2f)",
			i+1,
			rec.CreatedAt.Format("2006-01-02"),
			rec.Side, rec.MarketID, rec.EntryPrice, f(rec.Confidence))
		if rec.Outcome.Resolved() {
			line += fmt.Sprintf(" -> %s, return %s", rec.Outcome, rec.RealizedReturn)
		}
		fmt.Println(line)
	}
}

func export(tr *tracker.Tracker, filename string) error {
	if strings.HasSuffix(filename, ".csv") {
		fl, err := os.Create(filename)
		if err != nil {
			return err
		}
		defer fl.Close()
		return tr.ExportCSV(fl)
	}

	data, err := json.MarshalIndent(tr.Records(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func parseRisk(s string) scoring.Risk {
	return scoring.Risk(strings.ToUpper(s))
}

func pct(d decimal.Decimal) float64 {
	return f(d.Mul(decimal.NewFromInt(100)))
}

func f(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
