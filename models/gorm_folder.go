package models

import "path/filepath"

// Folder represents a directory of clips in the database using GORM.
// It corresponds to the 'folders' table. Path is the absolute path of the
// containing directory including a trailing separator.
type Folder struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID  *uint  `gorm:"index" json:"parent_id,omitempty"` // Nullable for root folders
	Path      string `gorm:"not null;uniqueIndex:idx_folder_location" json:"path"`
	Name      string `gorm:"not null;uniqueIndex:idx_folder_location" json:"name"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`

	Subfolders []Folder `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"subfolders,omitempty"`
	Clips      []Clip   `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"clips,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Folder) TableName() string {
	return "folders"
}

// FullPath is the absolute path of the folder itself.
func (f Folder) FullPath() string {
	return filepath.Join(f.Path, f.Name)
}

// ChildPath is the Path value for folders directly inside f.
func (f Folder) ChildPath() string {
	return f.FullPath() + string(filepath.Separator)
}
