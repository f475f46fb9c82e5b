package domain

import (
	"time"

	"github.com/google/uuid"
)

// The types in this file are derived views over the submission ledger.
// Nothing here is ever persisted: every read recomputes them from the
// ledger rows, so they can never go stale.

// RepresentativeAttempt is the single attempt that stands for a
// (user, problem) pair once the ledger has been resolved: the first
// accepted attempt if one exists, otherwise the latest attempt.
type RepresentativeAttempt struct {
	Submission
	Attempts int `json:"attempts"` // ledger rows folded into this attempt
}

// RepresentativeAttemptResponse represents a resolved attempt in API responses
type RepresentativeAttemptResponse struct {
	SubmissionResponse
	Attempts int `json:"attempts"`
}

// ToResponse converts a RepresentativeAttempt for API output
func (a *RepresentativeAttempt) ToResponse(revealAnswer bool) RepresentativeAttemptResponse {
	return RepresentativeAttemptResponse{
		SubmissionResponse: a.Submission.ToResponse(revealAnswer),
		Attempts:           a.Attempts,
	}
}

// ProblemSummary is one user's resolved outcome on one problem.
// WrongAttempts counts every wrong answer including ones made after the
// accept; only WrongBeforeAccept feeds the penalty.
type ProblemSummary struct {
	ProblemID         uuid.UUID  `json:"problem_id"`
	Label             string     `json:"label"`
	Verdict           Verdict    `json:"verdict"`
	Solved            bool       `json:"solved"`
	Score             int        `json:"score"` // problem score when solved, zero otherwise
	Attempts          int        `json:"attempts"`
	WrongAttempts     int        `json:"wrong_attempts"`
	WrongBeforeAccept int        `json:"wrong_before_accept"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
}

// RankingEntry is one row of the derived standings
type RankingEntry struct {
	Rank         int
	UserID       uuid.UUID
	Username     string
	TotalScore   int
	AdjustedTime time.Duration
	Problems     []ProblemSummary
}

// Solved counts the problems this entry has accepted answers for
func (e *RankingEntry) Solved() int {
	var n int
	for _, p := range e.Problems {
		if p.Solved {
			n++
		}
	}
	return n
}

// RankingEntryResponse represents a standings row in API responses
type RankingEntryResponse struct {
	Rank                int              `json:"rank"`
	Username            string           `json:"username"`
	TotalScore          int              `json:"total_score"`
	AdjustedTimeSeconds int64            `json:"adjusted_time_seconds"`
	Solved              int              `json:"solved"`
	Problems            []ProblemSummary `json:"problems"`
}

// ToResponse converts a RankingEntry for API output
func (e *RankingEntry) ToResponse() RankingEntryResponse {
	return RankingEntryResponse{
		Rank:                e.Rank,
		Username:            e.Username,
		TotalScore:          e.TotalScore,
		AdjustedTimeSeconds: int64(e.AdjustedTime / time.Second),
		Solved:              e.Solved(),
		Problems:            e.Problems,
	}
}

// FirstAcceptance records which user first solved a problem inside the
// ranking window. Problems nobody solved have no entry at all.
type FirstAcceptance struct {
	ProblemID     uuid.UUID `json:"problem_id"`
	Label         string    `json:"label"`
	UserID        uuid.UUID `json:"-"`
	Username      string    `json:"username"`
	AcceptedAt    time.Time `json:"accepted_at"`
	OffsetSeconds int64     `json:"offset_seconds"` // seconds from contest start
}

// ProblemStats aggregates one problem across all users: how many attempted
// it and how many of those solved it, counting each user once through their
// representative attempt. Unlike the ranking it uses the display window, so
// pre-start activity shows up here.
type ProblemStats struct {
	ProblemID  uuid.UUID `json:"problem_id"`
	Label      string    `json:"label"`
	Score      int       `json:"score"`
	Attempters int       `json:"attempters"`
	Solvers    int       `json:"solvers"`
}
