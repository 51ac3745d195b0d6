package models

// Project represents a named view over a set of folders using GORM.
// It corresponds to the 'projects' table.
type Project struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
	UpdatedAt int64  `gorm:"not null" json:"updated_at"`

	Folders []Folder `gorm:"many2many:project_folders;constraint:OnDelete:CASCADE" json:"folders,omitempty"`
	Filters []Filter `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"filters,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Project) TableName() string {
	return "projects"
}
