package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomorunn/zisaku/internal/domain"
)

// problemRepository implements domain.ProblemRepository on GORM
type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository creates a new problem repository
func NewProblemRepository(db *gorm.DB) domain.ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) Create(problem *domain.Problem) error {
	return r.db.Create(problem).Error
}

// CreateBatch inserts a contest's problem set in one round trip
func (r *problemRepository) CreateBatch(problems []domain.Problem) error {
	return r.db.CreateInBatches(problems, 50).Error
}

func (r *problemRepository) FindByID(id uuid.UUID) (*domain.Problem, error) {
	return firstRecord[domain.Problem](r.db.Where("id = ?", id), domain.ErrProblemNotFound)
}

// FindByContestAndLabel resolves the label a submitter addresses ("A",
// "B", ...) to the problem row within one contest
func (r *problemRepository) FindByContestAndLabel(contestID uuid.UUID, label string) (*domain.Problem, error) {
	tx := r.db.Where("contest_id = ? AND label = ?", contestID, label)
	return firstRecord[domain.Problem](tx, domain.ErrProblemNotFound)
}

// FindByContest returns a contest's problems in display order
func (r *problemRepository) FindByContest(contestID uuid.UUID) ([]domain.Problem, error) {
	var problems []domain.Problem
	err := r.db.Where("contest_id = ?", contestID).Order("order_index ASC").Find(&problems).Error
	return problems, err
}

func (r *problemRepository) Count() (int64, error) {
	return countRows(r.db.Model(&domain.Problem{}))
}
