package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal-oracle-lab/internal/feed"
	"signal-oracle-lab/internal/observability"
	"signal-oracle-lab/internal/pipeline"
	"signal-oracle-lab/internal/storage"
	"signal-oracle-lab/internal/storage/memory"
	"signal-oracle-lab/internal/storage/migrations"
	pgstore "signal-oracle-lab/internal/storage/postgres"
)

func main() {
	feedEndpoint := flag.String("feed-endpoint", "", "Signal feed WebSocket endpoint (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	dedupWindow := flag.Duration("dedup-window", 30*time.Minute, "Duplicate suppression window")
	purgeInterval := flag.Duration("purge-interval", 10*time.Minute, "Dedup state compaction interval")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if *feedEndpoint == "" {
		logger.Fatal("--feed-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, *feedEndpoint, *postgresDSN, *useMemory, *dedupWindow, *purgeInterval)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(
	ctx context.Context,
	logger *log.Logger,
	feedEndpoint, postgresDSN string,
	useMemory bool,
	dedupWindow, purgeInterval time.Duration,
) error {
	var signalStore storage.SignalStore = memory.NewSignalStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return err
		}
		signalStore = pgstore.NewSignalStore(pool)
	}

	client, err := feed.NewClient(ctx, feedEndpoint, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Printf("close feed client: %v", err)
		}
		if dropped := client.Dropped(); dropped > 0 {
			logger.Printf("feed dropped %d undecodable frames", dropped)
		}
		if pda := client.ProgramDerived(); pda > 0 {
			logger.Printf("feed carried %d signals with program-derived mints", pda)
		}
	}()

	ingestor := pipeline.NewIngestor(pipeline.IngestorOptions{
		Signals:       client.Signals(),
		SignalStore:   signalStore,
		DedupWindow:   dedupWindow,
		PurgeInterval: purgeInterval,
		Logger:        logger,
	})

	logger.Printf("Ingesting signals from %s", feedEndpoint)
	return ingestor.Run(ctx)
}
