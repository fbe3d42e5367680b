package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"travelpro-gamification/internal/domain"
)

// QuizLoader serves the read-only quiz catalog from Postgres over a pgx
// pool, separate from the bun handle the transactional store uses.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) ListQuizzes(ctx context.Context) ([]domain.QuizListing, error) {
	rows, err := l.pool.Query(ctx, `
SELECT q.id, q.destination_id, q.title, COALESCE(q.description, ''), COALESCE(q.difficulty, ''),
       q.passing_score, q.time_limit, q.status,
       (SELECT COUNT(*) FROM quiz_questions qq WHERE qq.quiz_id = q.id) AS question_count,
       (SELECT COUNT(*) FROM quiz_results qr WHERE qr.quiz_id = q.id) AS attempt_count,
       COALESCE((SELECT AVG(qr.score) FROM quiz_results qr WHERE qr.quiz_id = q.id), 0) AS average_score
FROM quizzes q
WHERE q.status = 'active'
ORDER BY q.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var listings []domain.QuizListing
	for rows.Next() {
		var listing domain.QuizListing
		err := rows.Scan(&listing.ID, &listing.DestinationID, &listing.Title, &listing.Description,
			&listing.Difficulty, &listing.PassingScore, &listing.TimeLimit, &listing.Status,
			&listing.QuestionCount, &listing.AttemptCount, &listing.AverageScore)
		if err != nil {
			return nil, fmt.Errorf("scan quiz listing: %w", err)
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func (l *QuizLoader) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, []domain.Question, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx, `
SELECT q.id, q.destination_id, q.title, COALESCE(q.description, ''), COALESCE(q.difficulty, ''),
       q.passing_score, q.time_limit, q.status
FROM quizzes q
WHERE q.id = $1 AND q.status = 'active'`, quizID).
		Scan(&quiz.ID, &quiz.DestinationID, &quiz.Title, &quiz.Description, &quiz.Difficulty,
			&quiz.PassingScore, &quiz.TimeLimit, &quiz.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, `
SELECT qq.id, qq.quiz_id, qq.question_text, qq.question_type, qq.options,
       COALESCE(qq.explanation, ''), qq.points, qq.sort_order
FROM quiz_questions qq
WHERE qq.quiz_id = $1
ORDER BY qq.sort_order ASC`, quizID)
	if err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var qtype string
		err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &qtype, &q.Options,
			&q.Explanation, &q.Points, &q.SortOrder)
		if err != nil {
			return domain.Quiz{}, nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qtype)
		questions = append(questions, q)
	}
	return quiz, questions, rows.Err()
}
