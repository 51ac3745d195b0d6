package repository

import (
	"errors"
	"fmt"

	"github.com/camden-git/clipcatalog/models"
	"gorm.io/gorm"
)

// AreaRepository handles database operations for Area entities
type AreaRepository struct {
	DB *gorm.DB
}

// NewAreaRepository creates a new instance of AreaRepository
func NewAreaRepository(db *gorm.DB) *AreaRepository {
	return &AreaRepository{DB: db}
}

// Create validates and stores a new area
func (r *AreaRepository) Create(area *models.Area) error {
	if err := area.Validate(); err != nil {
		return err
	}
	if err := r.DB.Create(area).Error; err != nil {
		return fmt.Errorf("failed to create area: %w", err)
	}
	return nil
}

// GetByID retrieves an area by its ID
func (r *AreaRepository) GetByID(id uint) (*models.Area, error) {
	var area models.Area
	err := r.DB.First(&area, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get area by ID %d: %w", id, err)
	}
	return &area, nil
}

// Delete removes an area and detaches it from every filter
func (r *AreaRepository) Delete(id uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Area{}, id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM filter_areas WHERE area_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Area{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete area ID %d: %w", id, err)
	}
	return nil
}
