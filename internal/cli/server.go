package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/config"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/gemini"
	"odyssey-quiz-service/internal/infra/memory"
	"odyssey-quiz-service/internal/infra/postgres"
	redisinfra "odyssey-quiz-service/internal/infra/redis"
	"odyssey-quiz-service/internal/infra/userdir"
	"odyssey-quiz-service/internal/logger"
	transport "odyssey-quiz-service/internal/transport/http"
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

// env bundles the wired infrastructure shared by the server and the one-off
// maintenance commands.
type env struct {
	cfg       config.Config
	log       *logger.Logger
	store     app.Store
	users     app.Directory
	sessions  app.SessionStore
	redis     *redis.Client
	pool      *pgxpool.Pool
	quizCache *redisinfra.QuizCache
	lifecycle *app.Lifecycle
	ledger    *app.Ledger
	sweeper   *app.Sweeper
}

func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
	e.log.Sync()
}

// buildEnv loads config and wires storage, caches, the user directory, and
// the quiz services. Postgres and Redis are optional; without them the
// in-memory implementations are used.
func buildEnv(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, err
		}
		e.pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		e.store = postgres.NewStore(e.pool)
	} else {
		log.Warn("postgres not configured, using in-memory store")
		e.store = memory.NewStore()
	}

	if cfg.Redis.Addr != "" {
		e.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheTTL := config.TTLDuration(cfg.Redis.CacheTTL, 10*time.Minute)
		sessionTTL := config.TTLDuration(cfg.Redis.SessionTTL, 24*time.Hour)
		e.quizCache = redisinfra.NewQuizCache(e.redis, e.store, cacheTTL)
		e.sessions = redisinfra.NewSessionStore(e.redis, sessionTTL)
	} else {
		e.sessions = memory.NewSessionStore()
	}

	if cfg.Users.BaseURL != "" {
		e.users = userdir.NewClient(cfg.Users.BaseURL)
	} else {
		e.users = memory.NewDirectory(staticUsers(cfg))
	}

	generator := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.URL,
		config.TTLDuration(cfg.Gemini.Timeout, 0), log)

	var invalidator app.CacheInvalidator
	if e.quizCache != nil {
		invalidator = e.quizCache
	}
	e.lifecycle = app.NewLifecycle(e.store, generator, invalidator, log)
	e.ledger = app.NewLedger(e.store, e.users, log)
	e.sweeper = app.NewSweeper(e.store, cfg.Quiz.RetentionDays, log)
	return e, nil
}

func staticUsers(cfg config.Config) []domain.User {
	users := make([]domain.User, 0, len(cfg.Users.Static))
	for _, u := range cfg.Users.Static {
		users = append(users, domain.User{
			ID:       u.ID,
			Email:    u.Email,
			Username: u.Username,
			Admin:    u.Admin,
		})
	}
	return users
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	e, err := buildEnv(ctx, configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = e.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	feed := app.NewFeed()
	scoring := app.NewScoring(e.store, e.users, e.ledger, feed, e.log)

	var quizzes transport.QuizSource
	var top transport.TopSource
	if e.quizCache != nil {
		quizzes = e.quizCache
		top = redisinfra.NewLeaderboardCache(e.redis, e.ledger,
			config.TTLDuration(e.cfg.Redis.CacheTTL, 10*time.Minute))
	}

	router := transport.NewRouter(transport.Deps{
		Store:      e.store,
		Quizzes:    quizzes,
		Top:        top,
		Scoring:    scoring,
		Lifecycle:  e.lifecycle,
		Ledger:     e.ledger,
		Feed:       feed,
		Sessions:   e.sessions,
		Users:      e.users,
		SessionTTL: config.TTLDuration(e.cfg.Redis.SessionTTL, 24*time.Hour),
		Log:        e.log,
	})

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	scheduler := app.NewScheduler(e.lifecycle, e.sweeper, e.cfg.Quiz.DailyHour,
		config.TTLDuration(e.cfg.Quiz.StartupDelay, 10*time.Second), e.log)
	go scheduler.Run(schedulerCtx)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		e.log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.log.Error("server failed", "error", err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		e.log.Info("shutting down server")
	case <-ctx.Done():
		e.log.Info("context canceled, shutting down server")
	}
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
