package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomorunn/zisaku/internal/domain"
)

// submissionRepository implements domain.SubmissionRepository on GORM.
// The submissions table is a ledger: this type only ever inserts and
// reads, there is no update or delete path.
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission ledger repository
func NewSubmissionRepository(db *gorm.DB) domain.SubmissionRepository {
	return &submissionRepository{db: db}
}

// Append writes one new ledger row
func (r *submissionRepository) Append(submission *domain.Submission) error {
	return r.db.Create(submission).Error
}

// FindByContest returns the contest's full ledger in arrival order.
// Consumers re-sort anyway, so this ordering is a convenience, not a
// contract.
func (r *submissionRepository) FindByContest(contestID uuid.UUID) ([]domain.Submission, error) {
	var submissions []domain.Submission
	err := r.db.
		Where("contest_id = ?", contestID).
		Order("submitted_at ASC, seq ASC").
		Find(&submissions).Error
	return submissions, err
}

// CountForProblem counts the ledger rows one user has spent on one
// problem up to and including the given instant
func (r *submissionRepository) CountForProblem(contestID, userID, problemID uuid.UUID, until time.Time) (int64, error) {
	return countRows(r.db.Model(&domain.Submission{}).
		Where("contest_id = ? AND user_id = ? AND problem_id = ? AND submitted_at <= ?",
			contestID, userID, problemID, until))
}
