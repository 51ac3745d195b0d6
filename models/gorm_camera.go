package models

import (
	"time"

	"github.com/camden-git/clipcatalog/utils"
)

// Camera represents the stationary source of one or more clips using GORM.
// It corresponds to the 'cameras' table and is identified by name and location.
// StartTime and EndTime aggregate the spans of its clips.
type Camera struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"not null;uniqueIndex:idx_camera_identity" json:"name"`
	Latitude  float64    `gorm:"not null;uniqueIndex:idx_camera_identity" json:"latitude"`
	Longitude float64    `gorm:"not null;uniqueIndex:idx_camera_identity" json:"longitude"`
	StartTime *time.Time `gorm:"" json:"start_time,omitempty"` // Nullable until the first clip
	EndTime   *time.Time `gorm:"" json:"end_time,omitempty"`   // Nullable until the first clip

	Clips []Clip `gorm:"foreignKey:CameraID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Camera) TableName() string {
	return "cameras"
}

// Absorb widens the camera's active span so it covers span. A nil bound is
// treated as unset, so the first absorbed span is taken as is.
func (c *Camera) Absorb(span Span) {
	if c.StartTime == nil || span.Start.Before(*c.StartTime) {
		start := span.Start
		c.StartTime = &start
	}
	if c.EndTime == nil || span.End.After(*c.EndTime) {
		end := span.End
		c.EndTime = &end
	}
}

// ValidateLocation checks the coordinate ranges.
func (c *Camera) ValidateLocation() error {
	if !utils.ValidCoordinates(c.Latitude, c.Longitude) {
		return ErrInvalidCoordinates
	}
	return nil
}
