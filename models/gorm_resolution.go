package models

import "fmt"

// Resolution represents a distinct frame size using GORM.
// It corresponds to the 'resolutions' table.
type Resolution struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	Width  int  `gorm:"not null;uniqueIndex:idx_resolution_size" json:"width"`
	Height int  `gorm:"not null;uniqueIndex:idx_resolution_size" json:"height"`
}

// TableName explicitly sets the table name for GORM.
func (Resolution) TableName() string {
	return "resolutions"
}

// SameSize compares by (height, width), ignoring ids.
func (r Resolution) SameSize(o Resolution) bool {
	return r.Height == o.Height && r.Width == o.Width
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
