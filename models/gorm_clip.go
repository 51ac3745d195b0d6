package models

import (
	"path/filepath"
	"time"
)

// Clip represents a registered video file using GORM.
// It corresponds to the 'clips' table. A clip is unique by folder, name and
// format; Duplicates and Overlapping only ever hold clips of the same camera.
type Clip struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FolderID      uint      `gorm:"not null;uniqueIndex:idx_clip_identity" json:"folder_id"`
	Name          string    `gorm:"not null;uniqueIndex:idx_clip_identity" json:"name"`
	VideoFormat   string    `gorm:"not null;size:5;uniqueIndex:idx_clip_identity" json:"video_format"`
	StartTime     time.Time `gorm:"not null;index" json:"start_time"`
	EndTime       time.Time `gorm:"not null;index" json:"end_time"`
	CameraID      uint      `gorm:"not null;index" json:"camera_id"`
	ResolutionID  uint      `gorm:"not null;index" json:"resolution_id"`
	FrameRate     float64   `gorm:"not null;default:0" json:"frame_rate"`
	HashSum       string    `gorm:"index" json:"hash_sum,omitempty"`
	ThumbnailPath *string   `gorm:"" json:"thumbnail_path,omitempty"` // Nullable
	CreatedAt     int64     `gorm:"not null" json:"created_at"`

	Folder      *Folder           `gorm:"foreignKey:FolderID" json:"-"`
	Camera      *Camera           `gorm:"foreignKey:CameraID" json:"camera,omitempty"`
	Resolution  *Resolution       `gorm:"foreignKey:ResolutionID" json:"resolution,omitempty"`
	Duplicates  []*Clip           `gorm:"many2many:clip_duplicates;joinForeignKey:ClipID;joinReferences:DuplicateID" json:"-"`
	Overlapping []*Clip           `gorm:"many2many:clip_overlaps;joinForeignKey:ClipID;joinReferences:OverlappingID" json:"-"`
	Detections  []ObjectDetection `gorm:"foreignKey:ClipID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Clip) TableName() string {
	return "clips"
}

func (c Clip) Span() Span {
	return Span{Start: c.StartTime, End: c.EndTime}
}

// FileName is the clip's name with its format suffix.
func (c Clip) FileName() string {
	return c.Name + "." + c.VideoFormat
}

// FilePath joins the clip file name onto its folder. The folder must be the
// one referenced by FolderID.
func (c Clip) FilePath(folder Folder) string {
	return filepath.Join(folder.FullPath(), c.FileName())
}
