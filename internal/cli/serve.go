package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quizhost-service/internal/app"
	"quizhost-service/internal/auth"
	"quizhost-service/internal/config"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
	pgstore "quizhost-service/internal/infra/postgres"
	redisinfra "quizhost-service/internal/infra/redis"
	"quizhost-service/internal/metrics"
	"quizhost-service/internal/store"
	transport "quizhost-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz hosting server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// serviceFieldHook stamps every entry with the service name so aggregated
// logs stay attributable.
type serviceFieldHook struct{}

func (serviceFieldHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceFieldHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = "quizhost"
	return nil
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.AddHook(&serviceFieldHook{})
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(os.Stdout)
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var docs store.Store
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		docs = pgstore.NewStore(pool)
	} else {
		log.Warn("no postgres configured, using in-memory store with sample data")
		mem := memory.NewStore()
		seedSampleData(ctx, mem)
		docs = mem
	}

	catalog := app.NewCatalog(docs)
	var reader app.CatalogReader = catalog
	organiser := app.NewOrganiser(docs, catalog)
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache := redisinfra.NewCatalogCache(client, catalog, config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute))
		reader = cache
		organiser = organiser.WithInvalidator(cache.Invalidate)
	}

	ledger := app.NewLedger(reader, docs)
	leaderboard := app.NewLeaderboard(docs)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn("jwt secret not configured, tokens will not verify")
	}
	identity := auth.NewJWTVerifier(secret)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	hub := transport.NewLeaderboardHub(leaderboard, log)
	handler := transport.NewHandler(transport.Deps{
		Catalog:     catalog,
		Reader:      reader,
		Organiser:   organiser,
		Ledger:      ledger,
		Leaderboard: leaderboard,
		Identity:    identity,
		Hub:         hub,
		Log:         log,
		Metrics:     m,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting quizhost service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedSampleData loads a demo quiz so the memory-backed server is usable
// out of the box.
func seedSampleData(ctx context.Context, docs store.Store) {
	quiz := domain.Quiz{
		ID:          "demo-quiz",
		Title:       "General Knowledge Demo",
		Guidelines:  "Answer every question. MCQ answers must match an option exactly.",
		Active:      true,
		Visibility:  domain.VisibilityOpen,
		OrganiserID: "demo-organiser",
		CreatedAt:   time.Now().UTC(),
	}
	questions := []domain.Question{
		{ID: "q1", Text: "What is the capital of France?", Type: domain.QuestionMCQ, Options: []string{"Paris", "Lyon", "Marseille"}, Answer: "Paris"},
		{ID: "q2", Text: "Which planet is known as the red planet?", Type: domain.QuestionFillBlank, Answer: "Mars"},
	}

	if fields, err := store.Fields(quiz); err == nil {
		_ = docs.Put(ctx, store.CollectionQuizzes, quiz.ID, fields)
	}
	path := store.QuestionsPath(docs, store.CollectionQuizzes, quiz.ID)
	for _, q := range questions {
		if fields, err := store.Fields(q); err == nil {
			_ = docs.Put(ctx, path, q.ID, fields)
		}
	}
}
