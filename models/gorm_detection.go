package models

import "time"

// ObjectClass is a deduplicated detection label such as "car" or "person".
type ObjectClass struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"not null;uniqueIndex" json:"name"`
}

// TableName explicitly sets the table name for GORM.
func (ObjectClass) TableName() string {
	return "object_classes"
}

// ObjectDetection represents one detection run over part of a clip.
// It corresponds to the 'object_detections' table. SampleRate is in seconds,
// 0 meaning every frame.
type ObjectDetection struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClipID     uint      `gorm:"not null;index" json:"clip_id"`
	SampleRate float64   `gorm:"not null;default:0" json:"sample_rate"`
	StartTime  time.Time `gorm:"not null" json:"start_time"`
	EndTime    time.Time `gorm:"not null" json:"end_time"`
	CreatedAt  int64     `gorm:"not null" json:"created_at"`

	Objects []Object `gorm:"foreignKey:ObjectDetectionID;constraint:OnDelete:CASCADE" json:"objects,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (ObjectDetection) TableName() string {
	return "object_detections"
}

func (d ObjectDetection) Span() Span {
	return Span{Start: d.StartTime, End: d.EndTime}
}

// Object is one detected instance of a class at a point in time.
type Object struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ObjectDetectionID uint      `gorm:"not null;index" json:"object_detection_id"`
	ObjectClassID     uint      `gorm:"not null;index" json:"object_class_id"`
	Time              time.Time `gorm:"not null;index" json:"time"`

	ObjectClass *ObjectClass `gorm:"foreignKey:ObjectClassID" json:"object_class,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Object) TableName() string {
	return "objects"
}

// ClassName returns the preloaded class label, or "" when it was not loaded.
func (o Object) ClassName() string {
	if o.ObjectClass == nil {
		return ""
	}
	return o.ObjectClass.Name
}
