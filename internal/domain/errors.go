package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id does not resolve to an active quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidSubmission indicates a malformed submission payload.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrSubmissionFailed wraps any failure inside the submission transaction.
	// The transaction is rolled back, so the client may safely retry.
	ErrSubmissionFailed = errors.New("quiz submission failed")
	// ErrBadgeAlreadyAwarded is the expected outcome of racing on the
	// (user_id, badge_id) unique constraint. Never surfaced to callers.
	ErrBadgeAlreadyAwarded = errors.New("badge already awarded")
	// ErrUserNotFound indicates the user id has no stats to report.
	ErrUserNotFound = errors.New("user not found")
)
