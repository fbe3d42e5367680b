package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/config"
	"travelpro-gamification/internal/domain"
	"travelpro-gamification/internal/infra/memory"
	pgstore "travelpro-gamification/internal/infra/postgres"
	redisnotify "travelpro-gamification/internal/infra/redis"
	"travelpro-gamification/internal/logging"
	transport "travelpro-gamification/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gamification server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var (
		store   app.Store
		reads   app.ReadStore
		catalog app.QuizCatalog
	)
	if cfg.Postgres.URL != "" {
		db, err := openBun(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		pg := pgstore.NewStore(db)
		store = pg
		reads = pg
		catalog = pgstore.NewQuizLoader(pool)
	} else {
		mem := memory.NewStore()
		seedDemoData(mem)
		store = mem
		reads = mem
		catalog = mem
		log.Warn("postgres url not configured, running with in-memory demo data")
	}

	var (
		notifier   app.Notifier
		subscriber app.Subscriber
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		n := redisnotify.NewNotifier(client, log)
		notifier = n
		subscriber = n
	} else {
		hub := memory.NewHub()
		notifier = hub
		subscriber = hub
	}

	submissions := app.NewSubmissionService(store, notifier, log)
	stats := app.NewStatsService(reads)
	auth := transport.NewJWTAuth(cfg.Auth.JWTSecret)
	handler := transport.NewHandler(submissions, stats, catalog, auth, log)
	wsHandler := transport.NewWSHandler(subscriber, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(wsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting gamification service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "error", err)
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

// seedDemoData loads a minimal data set so the service is usable without
// Postgres. Production deployments run the seed subcommand instead.
func seedDemoData(mem *memory.Store) {
	mem.AddUser(1, "Demo Agent", 1)
	mem.AddQuiz(domain.Quiz{
		ID:           1,
		Title:        "Japan Travel Essentials",
		Description:  "Core knowledge for selling trips to Japan",
		Difficulty:   "beginner",
		PassingScore: 70,
		TimeLimit:    600,
		Status:       "active",
	}, []domain.Question{
		{
			ID:            1,
			QuizID:        1,
			Text:          "What is the currency of Japan?",
			Type:          domain.QuestionMultipleChoice,
			Options:       json.RawMessage(`["Yen","Won","Yuan","Ringgit"]`),
			CorrectAnswer: json.RawMessage(`0`),
			Points:        1,
			SortOrder:     1,
		},
		{
			ID:            2,
			QuizID:        1,
			Text:          "Japan Rail Passes must be purchased before arrival.",
			Type:          domain.QuestionTrueFalse,
			Options:       json.RawMessage(`["True","False"]`),
			CorrectAnswer: json.RawMessage(`true`),
			Points:        1,
			SortOrder:     2,
		},
	})
	mem.AddBadge(domain.Badge{ID: 1, Name: "First Steps", Description: "Complete your first quiz", Icon: "🎯", Criteria: json.RawMessage(`{"quiz_count": 1}`), PointsReward: 50, Rarity: "common"})
	mem.AddBadge(domain.Badge{ID: 2, Name: "Perfectionist", Description: "Score 100% on any quiz", Icon: "⭐", Criteria: json.RawMessage(`{"perfect_score": true}`), PointsReward: 100, Rarity: "rare"})
	mem.AddBadge(domain.Badge{ID: 3, Name: "Quiz Master", Description: "Complete 5 quizzes", Icon: "🎓", Criteria: json.RawMessage(`{"quiz_count": 5}`), PointsReward: 200, Rarity: "epic"})
	mem.AddBadge(domain.Badge{ID: 4, Name: "High Performer", Description: "Maintain 85%+ average score", Icon: "🏆", Criteria: json.RawMessage(`{"average_score": 85}`), PointsReward: 150, Rarity: "rare"})
	mem.AddBadge(domain.Badge{ID: 5, Name: "Streak Warrior", Description: "Maintain 7-day learning streak", Icon: "🔥", Criteria: json.RawMessage(`{"streak_days": 7}`), PointsReward: 300, Rarity: "legendary"})
}
