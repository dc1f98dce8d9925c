package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/moltbridge/moltwatch/internal/adapter/memory"
	"github.com/moltbridge/moltwatch/internal/adapter/metrics"
	"github.com/moltbridge/moltwatch/internal/adapter/postgres"
	"github.com/moltbridge/moltwatch/internal/adapter/redis"
	"github.com/moltbridge/moltwatch/internal/domain"
	"github.com/moltbridge/moltwatch/internal/engine"
	"github.com/moltbridge/moltwatch/internal/guard"
	"github.com/moltbridge/moltwatch/internal/platform/config"
	"github.com/moltbridge/moltwatch/internal/platform/logging"
	"github.com/moltbridge/moltwatch/internal/platform/retry"
	"github.com/moltbridge/moltwatch/internal/sentiment"
	"github.com/moltbridge/moltwatch/internal/text"
	"github.com/moltbridge/moltwatch/internal/trend"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// connectPolicy retries transient store connection failures during startup.
func connectPolicy(target string) retry.Policy {
	return retry.Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Connection attempt failed, retrying",
				"target", target, "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
}

func setupStateStore(ctx context.Context, cfg *config.Config) (domain.EngagementStateStore, func()) {
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set, engagement state will not survive this run")
		return memory.NewStateStore(cfg.MaxCallsPerWindow, cfg.RateWindow), func() {}
	}

	client, err := retry.Do(ctx, connectPolicy("redis"), func(error) retry.Action { return retry.Retry },
		func() (*redis.Client, error) {
			client, err := redis.NewClient(cfg.RedisURL)
			if err != nil {
				return nil, err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return nil, err
			}
			return client, nil
		})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return redis.NewStateStore(client, cfg.MaxCallsPerWindow, cfg.RateWindow), func() { _ = client.Close() }
}

func setupSnapshotStore(ctx context.Context, cfg *config.Config) (domain.SnapshotStore, func()) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, snapshot archive will not survive this run")
		return memory.NewSnapshotStore(), func() {}
	}

	pool, err := retry.Do(ctx, connectPolicy("postgres"), func(error) retry.Action { return retry.Retry },
		func() (*pgxpool.Pool, error) { return postgres.Connect(ctx, cfg.DatabaseURL) })
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewSnapshotRepo(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		slog.Error("Failed to ensure snapshot schema", "error", err)
		os.Exit(1)
	}
	return repo, pool.Close
}

func serveMetrics(addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", "error", err)
		}
	}()
}

func readRecords(r *os.File) ([]domain.Record, error) {
	var records []domain.Record
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	states, closeStates := setupStateStore(ctx, cfg)
	defer closeStates()

	snapshots, closeSnapshots := setupSnapshotStore(ctx, cfg)
	defer closeSnapshots()

	registry := metrics.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)
	serveMetrics(cfg.MetricsAddr, metrics.Handler(registry))

	stopWords := text.DefaultStopWords
	if override := cfg.StopWordList(); override != nil {
		stopWords = override
	}
	normalizer, err := text.NewNormalizer(cfg.MinTokenLength, stopWords)
	if err != nil {
		slog.Error("Failed to build normalizer", "error", err)
		os.Exit(1)
	}

	scorer, err := sentiment.NewScorer(sentiment.DefaultLexicon(), normalizer, cfg.PositiveThreshold, cfg.NegativeThreshold)
	if err != nil {
		slog.Error("Failed to build sentiment scorer", "error", err)
		os.Exit(1)
	}

	analyzer, err := trend.NewAnalyzer(normalizer, trend.Options{
		StableThresholdPct: cfg.StableThresholdPct,
		RecencyWindow:      cfg.RecencyWindow,
	})
	if err != nil {
		slog.Error("Failed to build trend analyzer", "error", err)
		os.Exit(1)
	}

	dedupGuard, err := guard.NewGuard(normalizer, cfg.DenylistPhrases())
	if err != nil {
		slog.Error("Failed to build engagement guard", "error", err)
		os.Exit(1)
	}

	eng, err := engine.NewEngine(analyzer, scorer, dedupGuard, states, snapshots, clock, cfg.HistoryRetention, engineMetrics)
	if err != nil {
		slog.Error("Failed to build engine", "error", err)
		os.Exit(1)
	}

	records, err := readRecords(os.Stdin)
	if err != nil {
		slog.Error("Failed to read records from stdin", "error", err)
		os.Exit(1)
	}

	report, err := eng.AnalyzeRun(ctx, records)
	if err != nil {
		slog.Error("Analysis run failed", "error", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		slog.Error("Failed to write report", "error", err)
		os.Exit(1)
	}
}
