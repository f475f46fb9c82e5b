package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContestState classifies a contest relative to its submission window.
// States are derived from the clock on every read and never stored.
type ContestState string

const (
	ContestNotStarted ContestState = "not_started"
	ContestActive     ContestState = "active"
	ContestEnded      ContestState = "ended"
)

// DefaultSubmissionLimit is the per-(user, problem) attempt cap applied
// while a contest is active, unless the contest overrides it.
const DefaultSubmissionLimit = 10

// Contest represents a timed answer contest with a fixed submission window
type Contest struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title           string    `json:"title" gorm:"not null"`
	Description     string    `json:"description"`
	OrganizerID     uuid.UUID `json:"organizer_id" gorm:"type:uuid;not null;index"`
	StartsAt        time.Time `json:"starts_at" gorm:"not null"`
	EndsAt          time.Time `json:"ends_at" gorm:"not null"`
	SubmissionLimit int       `json:"submission_limit" gorm:"not null;default:10"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relationships
	Organizer User      `json:"-" gorm:"foreignKey:OrganizerID"`
	Problems  []Problem `json:"problems,omitempty" gorm:"foreignKey:ContestID"`
}

// TableName specifies the table name for GORM
func (Contest) TableName() string {
	return "contests"
}

// StateAt classifies the contest against the given instant.
// Both window boundaries count as active.
func (c *Contest) StateAt(now time.Time) ContestState {
	switch {
	case now.Before(c.StartsAt):
		return ContestNotStarted
	case now.After(c.EndsAt):
		return ContestEnded
	default:
		return ContestActive
	}
}

// WithinWindow reports whether a submission made at t counts
// "as of contest end". Everything up to and including the end
// instant is in the window, no matter how early it was made.
func (c *Contest) WithinWindow(t time.Time) bool {
	return !t.After(c.EndsAt)
}

// InRankingWindow reports whether a submission made at t may influence
// scores, penalties and first acceptances. Unlike WithinWindow it also
// excludes submissions made before the contest started.
func (c *Contest) InRankingWindow(t time.Time) bool {
	return !t.Before(c.StartsAt) && !t.After(c.EndsAt)
}

// EffectiveSubmissionLimit returns the configured per-problem attempt cap,
// falling back to DefaultSubmissionLimit when unset.
func (c *Contest) EffectiveSubmissionLimit() int {
	if c.SubmissionLimit <= 0 {
		return DefaultSubmissionLimit
	}
	return c.SubmissionLimit
}

// IsOrganizer reports whether the given user manages this contest
func (c *Contest) IsOrganizer(userID uuid.UUID) bool {
	return c.OrganizerID == userID
}

// ContestRepository defines the interface for contest metadata access.
// The judging and ranking code only ever reads through it.
type ContestRepository interface {
	Create(contest *Contest) error
	FindByID(id uuid.UUID) (*Contest, error)
	FindByIDWithProblems(id uuid.UUID) (*Contest, error)
	Count() (int64, error)
}

// ContestResponse represents a contest in API responses
type ContestResponse struct {
	ID              uuid.UUID    `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	StartsAt        time.Time    `json:"starts_at"`
	EndsAt          time.Time    `json:"ends_at"`
	State           ContestState `json:"state"`
	SubmissionLimit int          `json:"submission_limit"`
	TimeRemaining   int          `json:"time_remaining_seconds"`
	ProblemCount    int          `json:"problem_count"`
}

// ToResponse converts a Contest to a ContestResponse as of the given instant
func (c *Contest) ToResponse(now time.Time) ContestResponse {
	// Remaining time is only meaningful while the window is open
	var timeRemaining int
	if c.StateAt(now) == ContestActive {
		if remaining := c.EndsAt.Sub(now); remaining > 0 {
			timeRemaining = int(remaining.Seconds())
		}
	}

	return ContestResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		StartsAt:        c.StartsAt,
		EndsAt:          c.EndsAt,
		State:           c.StateAt(now),
		SubmissionLimit: c.EffectiveSubmissionLimit(),
		TimeRemaining:   timeRemaining,
		ProblemCount:    len(c.Problems),
	}
}
