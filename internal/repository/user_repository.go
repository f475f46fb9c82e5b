package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomorunn/zisaku/internal/domain"
)

// userRepository implements domain.UserRepository on GORM
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new account row. Both email and username carry unique
// indexes; a collision on either surfaces as ErrUserAlreadyExists.
func (r *userRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	return firstRecord[domain.User](r.db.Where("id = ?", id), domain.ErrUserNotFound)
}

func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	return firstRecord[domain.User](r.db.Where("email = ?", email), domain.ErrUserNotFound)
}

func (r *userRepository) FindByUsername(username string) (*domain.User, error) {
	return firstRecord[domain.User](r.db.Where("username = ?", username), domain.ErrUserNotFound)
}

// Count returns the number of registered accounts (used by the seeder)
func (r *userRepository) Count() (int64, error) {
	return countRows(r.db.Model(&domain.User{}))
}
