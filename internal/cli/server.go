package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/config"
	amqppub "adaptive-quiz-service/internal/infra/amqp"
	"adaptive-quiz-service/internal/infra/memory"
	"adaptive-quiz-service/internal/infra/postgres"
	redisstore "adaptive-quiz-service/internal/infra/redis"
	"adaptive-quiz-service/internal/infra/sqlite"
	transport "adaptive-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	service := app.NewQuizService(deps.sessions, deps.pools, deps.results,
		app.WithLogger(logger),
		app.WithEventSink(deps.sink),
		app.WithDefaultQuestionLimit(cfg.Quiz.DefaultLimit),
	)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(service, transport.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Logger:         logger,
		}),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("starting quiz service on :%s", finalPort), "results", cfg.Results.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

type dependencies struct {
	sessions app.SessionRepository
	pools    app.PoolRepository
	results  app.ResultRepository
	sink     app.EventSink
	closers  []func()
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDependencies picks a backend for each repository from the config. Anything left
// unconfigured falls back to the in-memory implementation.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.closers = append(deps.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var loader memory.PoolLoader
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		deps.closers = append(deps.closers, pool.Close)
		loader = postgres.NewPoolLoader(pool)
	case cfg.Quiz.DatasetDir != "":
		loader = memory.NewDirPoolLoader(cfg.Quiz.DatasetDir, logger)
	default:
		loader = memory.NewFallbackPoolLoader()
	}

	if redisClient != nil {
		deps.pools = redisstore.NewPoolRepository(redisClient, loader, quizTTL)
		deps.sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		deps.pools = memory.NewPoolRepository(loader, quizTTL)
		deps.sessions = memory.NewSessionStoreWithTTL(quizTTL)
	}

	switch cfg.Results.Driver {
	case config.ResultsPostgres:
		if cfg.Postgres.URL == "" {
			deps.close()
			return nil, fmt.Errorf("results driver postgres needs postgres.url")
		}
		db := openBunDB(cfg.Postgres.URL)
		deps.closers = append(deps.closers, func() { _ = db.Close() })
		deps.results = postgres.NewResultStore(db)
	case config.ResultsRedis:
		if redisClient == nil {
			deps.close()
			return nil, fmt.Errorf("results driver redis needs redis.addr")
		}
		deps.results = redisstore.NewResultStore(redisClient)
	case config.ResultsSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		deps.closers = append(deps.closers, func() { _ = store.Close() })
		deps.results = store
	case config.ResultsMemory:
		deps.results = memory.NewResultStore()
	default:
		deps.close()
		return nil, fmt.Errorf("unknown results driver %q", cfg.Results.Driver)
	}

	sinks := app.MultiSink{app.NewLogSink(logger)}
	if cfg.AMQP.URL != "" {
		publisher, err := amqppub.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		deps.closers = append(deps.closers, publisher.Close)
		sinks = append(sinks, publisher)
	}
	deps.sink = sinks
	return deps, nil
}
