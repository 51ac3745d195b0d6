package repository

import (
	"errors"
	"fmt"

	"github.com/camden-git/clipcatalog/models"
	"gorm.io/gorm"
)

// CameraRepository handles database operations for Camera entities
type CameraRepository struct {
	DB *gorm.DB
}

// NewCameraRepository creates a new instance of CameraRepository
func NewCameraRepository(db *gorm.DB) *CameraRepository {
	return &CameraRepository{DB: db}
}

// GetByID retrieves a camera by its ID
func (r *CameraRepository) GetByID(id uint) (*models.Camera, error) {
	var camera models.Camera
	err := r.DB.First(&camera, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get camera by ID %d: %w", id, err)
	}
	return &camera, nil
}

// ListAll retrieves all cameras, ordered by name
func (r *CameraRepository) ListAll() ([]models.Camera, error) {
	var cameras []models.Camera
	if err := r.DB.Order("name ASC, id ASC").Find(&cameras).Error; err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	return cameras, nil
}

// Delete removes a camera. Cameras that still have clips are protected.
func (r *CameraRepository) Delete(id uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Camera{}, id).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Clip{}).Where("camera_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCameraInUse
		}
		return tx.Delete(&models.Camera{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrCameraInUse) {
			return err
		}
		return fmt.Errorf("failed to delete camera ID %d: %w", id, err)
	}
	return nil
}
