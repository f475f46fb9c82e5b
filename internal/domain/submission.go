package domain

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is the judge's decision for a single submission, fixed at the
// moment the submission is appended to the ledger. It never changes
// afterwards, even if the problem's answer is edited later.
type Verdict string

const (
	VerdictAccepted Verdict = "CA"       // correct answer
	VerdictWrong    Verdict = "WA"       // wrong answer
	VerdictUnjudged Verdict = "UNJUDGED" // problem had no answer to judge against
)

// IsAccepted reports whether the verdict counts as a solve
func (v Verdict) IsAccepted() bool {
	return v == VerdictAccepted
}

// IsJudged reports whether the judge actually compared the answer
func (v Verdict) IsJudged() bool {
	return v == VerdictAccepted || v == VerdictWrong
}

// Submission is one row of the append-only contest ledger. Rows are never
// updated or deleted; rankings are re-derived from the full ledger on every
// read. Username and ProblemLabel are denormalized so standings and feeds
// render without joining back to users and problems.
type Submission struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Seq          int64     `json:"-" gorm:"autoIncrement;uniqueIndex"` // Arrival order within the ledger
	ContestID    uuid.UUID `json:"contest_id" gorm:"type:uuid;not null;index"`
	ProblemID    uuid.UUID `json:"problem_id" gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Username     string    `json:"username" gorm:"not null"`
	ProblemLabel string    `json:"problem_label" gorm:"type:varchar(8);not null"`
	Answer       string    `json:"answer" gorm:"not null"`
	Verdict      Verdict   `json:"verdict" gorm:"type:varchar(10);not null"`
	SubmittedAt  time.Time `json:"submitted_at" gorm:"not null;index"`

	// Relationships
	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Problem Problem `json:"-" gorm:"foreignKey:ProblemID"`
	Contest Contest `json:"-" gorm:"foreignKey:ContestID"`
}

// TableName specifies the table name for GORM
func (Submission) TableName() string {
	return "submissions"
}

// SubmissionRepository defines the interface for ledger access.
// The ledger is append-only: there is no update and no delete.
type SubmissionRepository interface {
	Append(submission *Submission) error
	// FindByContest returns every ledger row for the contest in arrival
	// order (submitted_at, then ledger sequence).
	FindByContest(contestID uuid.UUID) ([]Submission, error)
	// CountForProblem counts the rows a user has already spent on one
	// problem, up to and including the given instant.
	CountForProblem(contestID, userID, problemID uuid.UUID, until time.Time) (int64, error)
}

// SubmissionResponse represents a ledger row in API responses
type SubmissionResponse struct {
	ID           uuid.UUID `json:"id"`
	ProblemLabel string    `json:"problem_label"`
	Username     string    `json:"username"`
	Answer       string    `json:"answer,omitempty"`
	Verdict      Verdict   `json:"verdict"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// ToResponse converts a Submission to a SubmissionResponse. Submitted
// answers stay hidden from the shared feed until revealAnswer is set,
// which callers tie to the contest window being closed.
func (s *Submission) ToResponse(revealAnswer bool) SubmissionResponse {
	resp := SubmissionResponse{
		ID:           s.ID,
		ProblemLabel: s.ProblemLabel,
		Username:     s.Username,
		Verdict:      s.Verdict,
		SubmittedAt:  s.SubmittedAt,
	}
	if revealAnswer {
		resp.Answer = s.Answer
	}
	return resp
}
