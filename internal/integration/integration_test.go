package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/domain"
	pgstore "travelpro-gamification/internal/infra/postgres"
	pgmigrations "travelpro-gamification/internal/infra/postgres/migrations"
	infraredis "travelpro-gamification/internal/infra/redis"
)

func TestSubmitQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openDB(t, ctx, pgURL)
	defer db.Close()
	userID := seedDatabase(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := pgstore.NewStore(db)
	notifier := infraredis.NewNotifier(redisClient, log)
	service := app.NewSubmissionService(store, notifier, log)
	loader := pgstore.NewQuizLoader(pool)

	quiz, questions, err := loader.GetQuiz(ctx, quizID(t, ctx, db))
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if len(q.CorrectAnswer) != 0 {
			t.Fatalf("answer key leaked from the catalog loader: %+v", q)
		}
	}

	events, cancel, err := notifier.Subscribe(ctx, userID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	answers := []json.RawMessage{[]byte(`0`), []byte(`true`), []byte(`1`)}
	summary, err := service.SubmitQuiz(ctx, userID, quiz.ID, answers, 180)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Score != 100 || !summary.Passed {
		t.Fatalf("expected perfect pass, got %+v", summary)
	}
	if summary.GamificationPoints != 150 {
		t.Fatalf("expected 150 gamification points, got %d", summary.GamificationPoints)
	}

	// quiz_completed plus First Steps, Perfectionist and High Performer.
	types := map[domain.EventType]int{}
	for i := 0; i < 4; i++ {
		select {
		case ev := <-events:
			types[ev.Type]++
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d, got %v", i, types)
		}
	}
	if types[domain.EventQuizCompleted] != 1 || types[domain.EventBadgeEarned] != 3 {
		t.Fatalf("unexpected event mix: %v", types)
	}

	// A second same-day pass must not duplicate badges or inflate the streak.
	if _, err := service.SubmitQuiz(ctx, userID, quiz.ID, answers, 90); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	overview, err := store.UserTotals(ctx, userID)
	if err != nil {
		t.Fatalf("user totals: %v", err)
	}
	if overview.QuizCount != 2 || overview.CurrentStreak != 1 {
		t.Fatalf("expected 2 attempts and streak 1, got %+v", overview)
	}
	if overview.BadgeCount != 3 {
		t.Fatalf("expected 3 badges after repeat submissions, got %+v", overview)
	}

	entries, err := store.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != userID || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}

	_, err = service.SubmitQuiz(ctx, userID, 99999, answers, 10)
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func openDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedDatabase(t *testing.T, ctx context.Context, db *bun.DB) int64 {
	t.Helper()
	if err := pgstore.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var userID int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO users (company_id, name, email) VALUES (1, 'Alice', 'alice@example.com') RETURNING id`,
	).Scan(&userID)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return userID
}

func quizID(t *testing.T, ctx context.Context, db *bun.DB) int64 {
	t.Helper()
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM quizzes WHERE title = 'Japan Travel Essentials'`,
	).Scan(&id)
	if err != nil {
		t.Fatalf("lookup quiz: %v", err)
	}
	return id
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "academy", "POSTGRES_PASSWORD": "academypass", "POSTGRES_DB": "gamification"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://academy:academypass@%s:%s/gamification?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
