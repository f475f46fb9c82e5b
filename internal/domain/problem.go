package domain

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Problem represents a single answer problem inside a contest.
// The correct answer is nullable: problems without one accept
// submissions but leave them unjudged.
type Problem struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ContestID     uuid.UUID      `json:"contest_id" gorm:"type:uuid;not null;uniqueIndex:idx_contest_label"`
	Label         string         `json:"label" gorm:"type:varchar(8);not null;uniqueIndex:idx_contest_label"`
	Title         string         `json:"title" gorm:"not null"`
	Statement     string         `json:"statement"`
	Score         int            `json:"score" gorm:"not null"`
	CorrectAnswer *string        `json:"-" gorm:"type:text"`
	Tags          pq.StringArray `json:"tags" gorm:"type:text[]"`
	OrderIndex    int            `json:"order_index" gorm:"not null"` // Display order within the contest

	// Relationships
	Submissions []Submission `json:"-" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (Problem) TableName() string {
	return "problems"
}

// HasAnswer reports whether the problem can be judged at all
func (p *Problem) HasAnswer() bool {
	return p.CorrectAnswer != nil
}

// ProblemRepository defines the interface for problem data access
type ProblemRepository interface {
	Create(problem *Problem) error
	CreateBatch(problems []Problem) error
	FindByID(id uuid.UUID) (*Problem, error)
	FindByContestAndLabel(contestID uuid.UUID, label string) (*Problem, error)
	FindByContest(contestID uuid.UUID) ([]Problem, error)
	Count() (int64, error)
}

// ProblemResponse represents a problem in API responses
type ProblemResponse struct {
	ID            uuid.UUID `json:"id"`
	Label         string    `json:"label"`
	Title         string    `json:"title"`
	Statement     string    `json:"statement"`
	Score         int       `json:"score"`
	Tags          []string  `json:"tags"`
	CorrectAnswer *string   `json:"correct_answer,omitempty"`
}

// ToResponse converts a Problem to a ProblemResponse. The correct answer
// is only attached when revealAnswer is set; callers keep it hidden until
// the contest window has closed.
func (p *Problem) ToResponse(revealAnswer bool) ProblemResponse {
	resp := ProblemResponse{
		ID:        p.ID,
		Label:     p.Label,
		Title:     p.Title,
		Statement: p.Statement,
		Score:     p.Score,
		Tags:      p.Tags,
	}
	if revealAnswer {
		resp.CorrectAnswer = p.CorrectAnswer
	}
	return resp
}
