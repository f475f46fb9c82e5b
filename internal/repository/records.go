package repository

import (
	"errors"

	"gorm.io/gorm"
)

// firstRecord runs First on a prepared query and maps gorm's not-found
// to the entity's domain sentinel.
func firstRecord[T any](tx *gorm.DB, missing error) (*T, error) {
	var row T
	if err := tx.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, missing
		}
		return nil, err
	}
	return &row, nil
}

// countRows runs Count on a prepared query
func countRows(tx *gorm.DB) (int64, error) {
	var n int64
	err := tx.Count(&n).Error
	return n, err
}
