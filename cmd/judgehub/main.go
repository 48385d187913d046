// Command judgehub runs the judge's HTTP server and worker pool from a
// JSON config file describing the problem set and supported languages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/judgehub/judgehub"
	"github.com/judgehub/judgehub/internal/api"
	"github.com/judgehub/judgehub/internal/config"
	"github.com/judgehub/judgehub/internal/queue"
	"github.com/judgehub/judgehub/internal/ranklist"
	"github.com/judgehub/judgehub/internal/store"
	"github.com/judgehub/judgehub/internal/worker"
	"github.com/judgehub/judgehub/middlewares"
	"github.com/judgehub/judgehub/pkg/cache"
	"github.com/judgehub/judgehub/pkg/db"
	"github.com/judgehub/judgehub/pkg/id"
	"github.com/judgehub/judgehub/pkg/logger"
	rdb "github.com/judgehub/judgehub/pkg/redis"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the judge config JSON file (required)")
		flushData  = flag.Bool("flush-data", false, "wipe the database and reapply migrations before starting")
		threads    = flag.Int("threads", 2, "number of judging workers")
		verbose    = flag.Bool("verbose", false, "enable debug-level logging")
	)
	flag.Parse()

	log := newLogger(*verbose)

	if *configPath == "" {
		log.Error("missing required flag", "flag", "-config")
		os.Exit(1)
	}
	if *threads < 1 {
		*threads = 1
	}

	if err := run(*configPath, *flushData, *threads, log); err != nil {
		log.Error("judgehub exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(logger.NewLogHandlerDecorator(h))
}

func run(configPath string, flushData bool, threads int, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbCfg := db.LoadConfig()
	dataDir, err := dataDirectory()
	if err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}
	if !filepath.IsAbs(dbCfg.Path) {
		dbCfg.Path = filepath.Join(dataDir, dbCfg.Path)
	}

	st, err := store.Open(context.Background(), dbCfg.Path,
		store.WithLogger(log),
		store.WithBusyTimeout(dbCfg.BusyTimeout),
		store.WithMaxOpenConns(dbCfg.MaxOpenConns),
		store.WithRetry(dbCfg.RetryAttempts, dbCfg.RetryInterval),
		store.WithMigrationsTable(dbCfg.MigrationsTable),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if flushData {
		log.Info("flushing database before startup")
		if err := st.Reset(context.Background()); err != nil {
			return fmt.Errorf("flush database: %w", err)
		}
	}

	rankCache, closeCache := buildRanklistCache(log)
	if closeCache != nil {
		defer closeCache()
	}

	q := queue.New()
	rank := ranklist.NewAggregator(st, cfg, rankCache, 2*time.Second)
	baseDir := filepath.Join(dataDir, "sandbox")
	pool := worker.NewPool(threads, cfg, st, q, rank, baseDir, log)

	app := judgehub.New(
		judgehub.WithMiddleware(
			middlewares.Recover(),
			middlewares.RequestID(middlewares.WithRequestIDGenerator(id.NewULID)),
		),
		judgehub.WithHandlers(
			api.NewJobsHandler(st, cfg, q, rank),
			api.NewUsersHandler(st),
			api.NewContestsHandler(rank),
			api.NewInternalHandler(),
		),
		judgehub.WithErrorHandler(api.ErrorHandler),
		judgehub.WithHealthChecks(
			judgehub.WithReadinessCheck("store", st.Healthcheck()),
			judgehub.WithReadinessCheck("queue", queueHealthcheck(q)),
		),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.BindPort)
	if cfg.Server.BindAddress == "" && cfg.Server.BindPort == 0 {
		addr = ":8080"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	poolCtx, cancelPool := context.WithCancel(context.Background())
	poolDone := make(chan error, 1)

	log.Info("starting judgehub", "addr", addr, "threads", threads, "blocking", cfg.Server.Blocking)

	return app.Run(addr,
		judgehub.Logger(log),
		judgehub.ShutdownTimeout(30*time.Second),
		judgehub.WithContext(ctx),
		judgehub.StartupHook(func(context.Context) error {
			go func() { poolDone <- pool.Run(poolCtx) }()
			return nil
		}),
		judgehub.ShutdownHook(func(shutdownCtx context.Context) error {
			cancelPool()
			select {
			case err := <-poolDone:
				if err != nil {
					return fmt.Errorf("worker pool: %w", err)
				}
				return nil
			case <-shutdownCtx.Done():
				return shutdownCtx.Err()
			}
		}),
	)
}

// dataDirectory returns the per-user data directory judgehub stores its
// database and sandbox working files under, creating it if necessary.
func dataDirectory() (string, error) {
	base, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, ".local", "share", "judgehub")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// buildRanklistCache wires a Redis-backed scoreboard cache when REDIS_URL is
// set, falling back to an in-process memory cache otherwise. Returns a
// closer to release the backing resources, or nil if none is needed.
func buildRanklistCache(log *slog.Logger) (cache.Cache[[]ranklist.Entry], func()) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		mem := cache.NewMemory[[]ranklist.Entry](cache.WithDefaultTTL(2 * time.Second))
		return mem, func() { _ = mem.Close() }
	}

	client, err := rdb.Open(context.Background(), url)
	if err != nil {
		log.Warn("failed to connect to redis, falling back to memory cache", "error", err)
		mem := cache.NewMemory[[]ranklist.Entry](cache.WithDefaultTTL(2 * time.Second))
		return mem, func() { _ = mem.Close() }
	}

	rc := cache.NewRedis[[]ranklist.Entry](client, nil,
		cache.WithPrefix("judgehub"),
		cache.WithRedisDefaultTTL(2*time.Second),
	)
	shutdown := rdb.Shutdown(client)
	return rc, func() {
		_ = shutdown(context.Background())
		_ = rc.Close()
	}
}

// queueHealthcheck flags readiness as degraded once the backlog grows large
// enough to suggest the workers have stalled or fallen behind.
func queueHealthcheck(q *queue.Queue) func(context.Context) error {
	const maxHealthyBacklog = 1000
	return func(context.Context) error {
		if n := q.Len(); n > maxHealthyBacklog {
			return errors.New("judgehub: job queue backlog exceeds healthy threshold")
		}
		return nil
	}
}
