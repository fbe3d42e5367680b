package app

import "travelpro-gamification/internal/domain"

// badgeRules is the closed mapping from catalog badge name to eligibility
// predicate. The criteria JSON stored on badge rows is descriptive metadata
// only; catalog entries whose name has no rule here are never awarded by the
// submission pipeline.
var badgeRules = map[string]func(domain.UserStats) bool{
	"First Steps":    func(s domain.UserStats) bool { return s.QuizCount >= 1 },
	"Perfectionist":  func(s domain.UserStats) bool { return s.PerfectScores >= 1 },
	"Quiz Master":    func(s domain.UserStats) bool { return s.QuizCount >= 5 },
	"High Performer": func(s domain.UserStats) bool { return s.AvgScore >= 85 },
	"Streak Warrior": func(s domain.UserStats) bool { return s.CurrentStreak >= 7 },
}

// EligibleBadges returns the catalog badges the user qualifies for and does
// not already hold, in catalog order.
func EligibleBadges(catalog []domain.Badge, stats domain.UserStats, owned map[int64]struct{}) []domain.Badge {
	var eligible []domain.Badge
	for _, badge := range catalog {
		rule, ok := badgeRules[badge.Name]
		if !ok || !rule(stats) {
			continue
		}
		if _, has := owned[badge.ID]; has {
			continue
		}
		eligible = append(eligible, badge)
	}
	return eligible
}
