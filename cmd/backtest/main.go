package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"signal-oracle-lab/internal/domain"
	"signal-oracle-lab/internal/pipeline"
	"signal-oracle-lab/internal/reporting"
	"signal-oracle-lab/internal/storage"
	chstore "signal-oracle-lab/internal/storage/clickhouse"
	"signal-oracle-lab/internal/storage/memory"
	"signal-oracle-lab/internal/storage/migrations"
	pgstore "signal-oracle-lab/internal/storage/postgres"
)

func main() {
	// Replay range
	startMs := flag.Int64("start-ms", 0, "Replay range start, Unix ms inclusive")
	endMs := flag.Int64("end-ms", 0, "Replay range end, Unix ms inclusive")

	// Backtest config
	initialCapital := flag.Float64("initial-capital", 10000, "Starting capital in USD")
	positionSizePct := flag.Float64("position-size-pct", 10, "Percent of free capital per trade")
	takeProfitPct := flag.Float64("take-profit-pct", 50, "Take-profit threshold percent")
	stopLossPct := flag.Float64("stop-loss-pct", 30, "Stop-loss threshold percent")
	minScore := flag.Int("min-score", 60, "Minimum adjusted score for entry")
	maxPositions := flag.Int("max-positions", 5, "Concurrent open position cap")
	tokenFilter := flag.String("tokens", "", "Comma-separated token mints to restrict entries to")
	maxRisk := flag.String("max-risk", "", "Skip entries riskier than this level: LOW, MEDIUM, HIGH, EXTREME")
	dedupWindow := flag.Duration("dedup-window", 30*time.Minute, "Duplicate suppression window")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (signals, trades, runs)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (equity curves)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	loadFixtures := flag.Bool("fixtures", false, "Seed demo fixture signals (implies --use-memory)")

	// Output
	outputDir := flag.String("output", "output", "Directory for report and CSV exports, empty to skip")
	outputJSON := flag.Bool("json", false, "Print the report as JSON instead of a summary")
	checkOnly := flag.Bool("check", false, "Run the data sufficiency checks and exit")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *loadFixtures {
		*useMemory = true
		if *startMs == 0 && *endMs == 0 {
			*startMs = pipeline.FixtureStart
			*endMs = pipeline.FixtureEnd
		}
	}
	if *startMs <= 0 || *endMs <= 0 {
		logger.Fatal("--start-ms and --end-ms are required")
	}
	if *endMs < *startMs {
		logger.Fatal("--end-ms must not precede --start-ms")
	}

	maxRiskLevel := domain.RiskLevel(strings.ToUpper(*maxRisk))
	switch maxRiskLevel {
	case "", domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskExtreme:
	default:
		logger.Fatalf("Invalid risk level: %s. Must be LOW, MEDIUM, HIGH, or EXTREME", *maxRisk)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	var signalStore storage.SignalStore = memory.NewSignalStore()
	var tradeStore storage.TradeStore = memory.NewTradeStore()
	var runStore storage.BacktestRunStore = memory.NewBacktestRunStore()
	var equityStore storage.EquityCurveStore = memory.NewEquityCurveStore()

	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required when not using --use-memory (signals, trades, runs)")
		}
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required when not using --use-memory (equity curves)")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}

		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()

		signalStore = pgstore.NewSignalStore(pool)
		tradeStore = pgstore.NewTradeStore(pool)
		runStore = pgstore.NewBacktestRunStore(pool)
		equityStore = chstore.NewEquityCurveStore(conn)
	}

	if *loadFixtures {
		if err := pipeline.LoadFixtures(ctx, signalStore); err != nil {
			logger.Fatalf("load fixtures: %v", err)
		}
		logger.Printf("Loaded fixture signals for %s..%s",
			time.UnixMilli(*startMs).UTC().Format(time.RFC3339),
			time.UnixMilli(*endMs).UTC().Format(time.RFC3339))
	}

	if *checkOnly {
		runSufficiencyCheck(ctx, logger, signalStore, *startMs, *endMs)
		return
	}

	cfg := domain.BacktestConfig{
		InitialCapitalUSD: *initialCapital,
		PositionSizePct:   *positionSizePct,
		TakeProfitPct:     *takeProfitPct,
		StopLossPct:       *stopLossPct,
		MinScore:          *minScore,
		MaxPositions:      *maxPositions,
		MaxRiskLevel:      maxRiskLevel,
	}
	if *tokenFilter != "" {
		cfg.Tokens = strings.Split(*tokenFilter, ",")
	}

	p := pipeline.NewReplayPipeline(signalStore, tradeStore, runStore, equityStore, *outputDir).
		WithDedupWindow(*dedupWindow).
		WithLogger(logger)

	logger.Printf("Replaying signals from %s to %s",
		time.UnixMilli(*startMs).UTC().Format(time.RFC3339),
		time.UnixMilli(*endMs).UTC().Format(time.RFC3339))

	result, stats, err := p.Run(ctx, *startMs, *endMs, cfg)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	if *outputJSON {
		report := reporting.FromResult(result, time.Now().UTC())
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatalf("encode report: %v", err)
		}
		fmt.Println(string(output))
	} else {
		printResult(result, stats)
	}

	if *outputDir != "" {
		logger.Printf("Report written to %s", *outputDir)
	}
}

// runSufficiencyCheck prints the check table and exits non-zero on failure.
func runSufficiencyCheck(ctx context.Context, logger *log.Logger, signalStore storage.SignalStore, start, end int64) {
	checker := pipeline.NewSufficiencyChecker(signalStore)
	result, err := checker.Check(ctx, start, end)
	if err != nil {
		logger.Fatalf("sufficiency check: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Data Sufficiency ===")
	for _, check := range result.Checks {
		status := "PASS"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %-26s %-12s actual: %s\n", status, check.Name, check.Threshold, check.Actual)
	}
	for _, msg := range result.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
	fmt.Println()

	if !result.AllPass {
		logger.Fatal("data sufficiency checks failed")
	}
	fmt.Println("All checks passed.")
}

// printResult outputs a human-readable run summary.
func printResult(r *domain.BacktestResult, stats *pipeline.ReplayStats) {
	m := r.Metrics

	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", r.RunID)
	fmt.Println()

	fmt.Println("Replay:")
	fmt.Printf("  Signals Loaded:   %d\n", stats.SignalsLoaded)
	fmt.Printf("  Duplicates:       %d\n", stats.Duplicates)
	fmt.Printf("  Replayed:         %d\n", stats.SignalsReplayed)
	fmt.Println()

	fmt.Println("Performance:")
	fmt.Printf("  Trades:           %d (%dW / %dL / %dB)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.BreakevenTrades)
	fmt.Printf("  Win Rate:         %.1f%%\n", m.WinRatePct)
	if m.TotalTrades > 0 {
		fmt.Printf("  Profit Factor:    %s\n", formatProfitFactor(m.ProfitFactor))
		fmt.Printf("  Avg PnL:          %.2f%%\n", m.AvgPnlPct)
	}
	fmt.Printf("  Final Capital:    $%.2f\n", r.FinalCapitalUSD)
	pct := (r.FinalCapitalUSD - r.Config.InitialCapitalUSD) / r.Config.InitialCapitalUSD * 100
	fmt.Printf("  Total Return:     %+.2f%%\n", pct)

	if m.BestTrade != nil {
		fmt.Printf("  Best Trade:       %s %+.2f%%\n", m.BestTrade.Symbol, m.BestTrade.PnlPct)
	}
	if m.WorstTrade != nil {
		fmt.Printf("  Worst Trade:      %s %+.2f%%\n", m.WorstTrade.Symbol, m.WorstTrade.PnlPct)
	}

	if len(r.Warnings) > 0 {
		fmt.Println()
		fmt.Println("Warnings:")
		for _, w := range r.Warnings {
			fmt.Printf("  %s: %s\n", w.Token, w.Reason)
		}
	}
}

// formatProfitFactor renders the all-wins case as "inf".
func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
