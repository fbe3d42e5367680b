// Package memory backs the gamification ports with process-local state.
// It keeps the same transactional contract as the Postgres store: the
// submission pipeline runs against a private copy of the state which is only
// swapped in when the whole unit succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/domain"
)

type streakKey struct {
	userID     int64
	streakType string
}

type userBadgeKey struct {
	userID  int64
	badgeID int64
}

type user struct {
	name      string
	companyID int64
}

type state struct {
	quizzes    map[int64]domain.Quiz
	questions  map[int64][]domain.Question
	results    []domain.QuizResult
	ledger     []domain.PointLedgerEntry
	streaks    map[streakKey]domain.LearningStreak
	badges     []domain.Badge
	userBadges map[userBadgeKey]domain.UserBadge
	users      map[int64]user
	nextID     int64
}

func newState() *state {
	return &state{
		quizzes:    make(map[int64]domain.Quiz),
		questions:  make(map[int64][]domain.Question),
		streaks:    make(map[streakKey]domain.LearningStreak),
		userBadges: make(map[userBadgeKey]domain.UserBadge),
		users:      make(map[int64]user),
		nextID:     1,
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for id, q := range s.quizzes {
		c.quizzes[id] = q
	}
	for id, qs := range s.questions {
		c.questions[id] = append([]domain.Question(nil), qs...)
	}
	c.results = append([]domain.QuizResult(nil), s.results...)
	c.ledger = append([]domain.PointLedgerEntry(nil), s.ledger...)
	for k, v := range s.streaks {
		c.streaks[k] = v
	}
	c.badges = append([]domain.Badge(nil), s.badges...)
	for k, v := range s.userBadges {
		c.userBadges[k] = v
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	return c
}

// Store implements app.Store, app.ReadStore and app.QuizCatalog in memory.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// Atomically runs fn against a copy of the state and commits the copy only
// when fn succeeds. An error discards every write fn made.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(ctx, &memTx{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// Seeding helpers for tests and demo mode.

func (s *Store) AddUser(id int64, name string, companyID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[id] = user{name: name, companyID: companyID}
}

func (s *Store) AddQuiz(quiz domain.Quiz, questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.Status == "" {
		quiz.Status = "active"
	}
	s.state.quizzes[quiz.ID] = quiz
	sorted := append([]domain.Question(nil), questions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })
	s.state.questions[quiz.ID] = sorted
}

func (s *Store) AddBadge(badge domain.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.badges = append(s.state.badges, badge)
}

// Snapshot accessors for test assertions.

func (s *Store) Results(userID int64) []domain.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.QuizResult
	for _, r := range s.state.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) LedgerEntries(userID int64) []domain.PointLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PointLedgerEntry
	for _, e := range s.state.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Streak(userID int64, streakType string) (domain.LearningStreak, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	streak, ok := s.state.streaks[streakKey{userID, streakType}]
	return streak, ok
}

func (s *Store) BadgesOf(userID int64) []domain.UserBadge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserBadge
	for k, v := range s.state.userBadges {
		if k.userID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BadgeID < out[j].BadgeID })
	return out
}

// memTx applies pipeline writes to the working copy.
type memTx struct {
	state *state
}

var _ app.Tx = (*memTx)(nil)

func (t *memTx) Quiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	quiz, ok := t.state.quizzes[quizID]
	if !ok || quiz.Status != "active" {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (t *memTx) Questions(_ context.Context, quizID int64) ([]domain.Question, error) {
	return append([]domain.Question(nil), t.state.questions[quizID]...), nil
}

func (t *memTx) CountResults(_ context.Context, userID, quizID int64) (int, error) {
	n := 0
	for _, r := range t.state.results {
		if r.UserID == userID && r.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertResult(_ context.Context, result *domain.QuizResult) error {
	result.ID = t.state.nextID
	t.state.nextID++
	t.state.results = append(t.state.results, *result)
	return nil
}

func (t *memTx) InsertLedgerEntry(_ context.Context, entry *domain.PointLedgerEntry) error {
	entry.ID = t.state.nextID
	t.state.nextID++
	t.state.ledger = append(t.state.ledger, *entry)
	return nil
}

func (t *memTx) StreakForUpdate(_ context.Context, userID int64, streakType string) (*domain.LearningStreak, error) {
	streak, ok := t.state.streaks[streakKey{userID, streakType}]
	if !ok {
		return nil, nil
	}
	return &streak, nil
}

func (t *memTx) SaveStreak(_ context.Context, streak *domain.LearningStreak) error {
	t.state.streaks[streakKey{streak.UserID, streak.StreakType}] = *streak
	return nil
}

func (t *memTx) UserStats(_ context.Context, userID int64) (domain.UserStats, error) {
	var stats domain.UserStats
	var sum float64
	for _, r := range t.state.results {
		if r.UserID != userID {
			continue
		}
		stats.QuizCount++
		sum += r.Score
		if r.Score == 100 {
			stats.PerfectScores++
		}
	}
	if stats.QuizCount > 0 {
		stats.AvgScore = sum / float64(stats.QuizCount)
	}
	if streak, ok := t.state.streaks[streakKey{userID, domain.StreakDaily}]; ok {
		stats.CurrentStreak = streak.Current
	}
	return stats, nil
}

func (t *memTx) Badges(_ context.Context) ([]domain.Badge, error) {
	return append([]domain.Badge(nil), t.state.badges...), nil
}

func (t *memTx) UserBadgeIDs(_ context.Context, userID int64) (map[int64]struct{}, error) {
	owned := make(map[int64]struct{})
	for k := range t.state.userBadges {
		if k.userID == userID {
			owned[k.badgeID] = struct{}{}
		}
	}
	return owned, nil
}

func (t *memTx) InsertUserBadge(_ context.Context, award *domain.UserBadge) error {
	key := userBadgeKey{award.UserID, award.BadgeID}
	if _, exists := t.state.userBadges[key]; exists {
		return domain.ErrBadgeAlreadyAwarded
	}
	t.state.userBadges[key] = *award
	return nil
}

// Read-side queries (app.ReadStore).

func (s *Store) Leaderboard(_ context.Context, companyID int64) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []domain.LeaderboardEntry
	for id, u := range s.state.users {
		if u.companyID != companyID {
			continue
		}
		entries = append(entries, s.state.entryFor(id, u.name))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].AverageScore != entries[j].AverageScore {
			return entries[i].AverageScore > entries[j].AverageScore
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (st *state) entryFor(userID int64, name string) domain.LeaderboardEntry {
	e := domain.LeaderboardEntry{UserID: userID, Name: name}
	for _, l := range st.ledger {
		if l.UserID == userID {
			e.TotalPoints += l.Points
		}
	}
	for k := range st.userBadges {
		if k.userID == userID {
			e.BadgeCount++
		}
	}
	if streak, ok := st.streaks[streakKey{userID, domain.StreakDaily}]; ok {
		e.CurrentStreak = streak.Current
	}
	var sum float64
	for _, r := range st.results {
		if r.UserID == userID {
			e.QuizCount++
			sum += r.Score
		}
	}
	if e.QuizCount > 0 {
		e.AverageScore = sum / float64(e.QuizCount)
	}
	return e
}

func (s *Store) UserTotals(_ context.Context, userID int64) (domain.UserOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.users[userID]; !ok {
		return domain.UserOverview{}, domain.ErrUserNotFound
	}

	overview := domain.UserOverview{UserID: userID}
	var sum float64
	for _, r := range s.state.results {
		if r.UserID != userID {
			continue
		}
		overview.QuizCount++
		sum += r.Score
		if r.Passed {
			overview.PassedQuizzes++
		}
		if r.Score == 100 {
			overview.PerfectScores++
		}
	}
	if overview.QuizCount > 0 {
		overview.AverageScore = sum / float64(overview.QuizCount)
	}
	for _, l := range s.state.ledger {
		if l.UserID == userID {
			overview.TotalPoints += l.Points
		}
	}
	for k := range s.state.userBadges {
		if k.userID == userID {
			overview.BadgeCount++
		}
	}
	if streak, ok := s.state.streaks[streakKey{userID, domain.StreakDaily}]; ok {
		overview.CurrentStreak = streak.Current
		overview.LongestStreak = streak.Longest
	}
	return overview, nil
}

func (s *Store) UserBadges(_ context.Context, userID int64) ([]domain.EarnedBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[int64]domain.Badge, len(s.state.badges))
	for _, b := range s.state.badges {
		byID[b.ID] = b
	}
	var earned []domain.EarnedBadge
	for k, ub := range s.state.userBadges {
		if k.userID != userID {
			continue
		}
		if badge, ok := byID[k.badgeID]; ok {
			earned = append(earned, domain.EarnedBadge{Badge: badge, EarnedAt: ub.EarnedAt})
		}
	}
	sort.Slice(earned, func(i, j int) bool { return earned[i].EarnedAt.After(earned[j].EarnedAt) })
	return earned, nil
}

func (s *Store) PointsHistory(_ context.Context, userID int64, limit int) ([]domain.PointLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []domain.PointLedgerEntry
	for i := len(s.state.ledger) - 1; i >= 0 && len(history) < limit; i-- {
		if s.state.ledger[i].UserID == userID {
			history = append(history, s.state.ledger[i])
		}
	}
	return history, nil
}

func (s *Store) UserRank(ctx context.Context, companyID, userID int64) (int, error) {
	entries, err := s.Leaderboard(ctx, companyID)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank, nil
		}
	}
	return len(entries) + 1, nil
}

func (s *Store) BadgeCatalog(_ context.Context) ([]domain.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Badge(nil), s.state.badges...), nil
}

// Quiz catalog reads (app.QuizCatalog).

func (s *Store) ListQuizzes(_ context.Context) ([]domain.QuizListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var listings []domain.QuizListing
	for id, quiz := range s.state.quizzes {
		if quiz.Status != "active" {
			continue
		}
		listing := domain.QuizListing{Quiz: quiz, QuestionCount: len(s.state.questions[id])}
		var sum float64
		for _, r := range s.state.results {
			if r.QuizID == id {
				listing.AttemptCount++
				sum += r.Score
			}
		}
		if listing.AttemptCount > 0 {
			listing.AverageScore = sum / float64(listing.AttemptCount)
		}
		listings = append(listings, listing)
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })
	return listings, nil
}

func (s *Store) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, []domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.state.quizzes[quizID]
	if !ok || quiz.Status != "active" {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	return quiz, append([]domain.Question(nil), s.state.questions[quizID]...), nil
}
