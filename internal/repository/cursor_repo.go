package repository

import (
	"errors"

	"poolvault/internal/models"

	"gorm.io/gorm"
)

type CursorRepository struct {
	db *gorm.DB
}

func NewCursorRepository(db *gorm.DB) *CursorRepository {
	return &CursorRepository{db: db}
}

// Last returns the last fully processed block for the named scanner. The
// second return is false when no cursor has been persisted yet.
func (r *CursorRepository) Last(name string) (uint64, bool, error) {
	var c models.SystemCursor
	err := r.db.Where("name = ?", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return c.BlockNumber, true, nil
}

// Advance moves the cursor forward, never backward. A stale advance (block at
// or below the persisted value) is a no-op.
func (r *CursorRepository) Advance(name string, block uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var c models.SystemCursor
		err := tx.Where("name = ?", name).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.SystemCursor{Name: name, BlockNumber: block}).Error
		}
		if err != nil {
			return err
		}
		if block <= c.BlockNumber {
			return nil
		}
		return tx.Model(&c).Update("block_number", block).Error
	})
}
