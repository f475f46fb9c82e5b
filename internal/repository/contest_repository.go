package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomorunn/zisaku/internal/domain"
)

// contestRepository implements domain.ContestRepository on GORM
type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository creates a new contest repository
func NewContestRepository(db *gorm.DB) domain.ContestRepository {
	return &contestRepository{db: db}
}

// Create inserts a contest row (used by the seeder)
func (r *contestRepository) Create(contest *domain.Contest) error {
	return r.db.Create(contest).Error
}

// FindByID loads a contest without its problems
func (r *contestRepository) FindByID(id uuid.UUID) (*domain.Contest, error) {
	return firstRecord[domain.Contest](r.db.Where("id = ?", id), domain.ErrContestNotFound)
}

// FindByIDWithProblems loads a contest with its problems preloaded in
// display order
func (r *contestRepository) FindByIDWithProblems(id uuid.UUID) (*domain.Contest, error) {
	tx := r.db.
		Preload("Problems", func(db *gorm.DB) *gorm.DB {
			return db.Order("problems.order_index ASC")
		}).
		Where("id = ?", id)
	return firstRecord[domain.Contest](tx, domain.ErrContestNotFound)
}

// Count returns the number of contests (the seeder skips re-seeding a
// non-empty database)
func (r *contestRepository) Count() (int64, error) {
	return countRows(r.db.Model(&domain.Contest{}))
}
