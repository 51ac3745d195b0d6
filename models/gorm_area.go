package models

import "github.com/camden-git/clipcatalog/utils"

// Area represents a circular geographic region used by filters.
// It corresponds to the 'areas' table. Radius uses the same planar units as
// utils.Distance.
type Area struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Radius    float64 `gorm:"not null" json:"radius"`
}

// TableName explicitly sets the table name for GORM.
func (Area) TableName() string {
	return "areas"
}

// IsWithin reports whether the point is at least Radius away from the centre.
// The comparison is radius <= distance, so a point on the centre is NOT
// within a positive-radius area. Stored filters depend on this behaviour.
func (a Area) IsWithin(lon, lat float64) bool {
	return a.Radius <= utils.Distance(a.Longitude, a.Latitude, lon, lat)
}

func (a Area) Validate() error {
	if !utils.ValidCoordinates(a.Latitude, a.Longitude) {
		return ErrInvalidCoordinates
	}
	if a.Radius <= 0 {
		return ErrInvalidRadius
	}
	return nil
}
