package models

import "time"

var (
	// MinFilterTime and MaxFilterTime are the default, unbounded filter window.
	MinFilterTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxFilterTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC)
)

// Filter represents a project's clip selection criteria using GORM.
// It corresponds to the 'filters' table. Empty sets mean "no constraint".
type Filter struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID    uint      `gorm:"not null;index" json:"project_id"`
	StartTime    time.Time `gorm:"not null" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	MinFrameRate float64   `gorm:"not null;default:0" json:"min_frame_rate"`
	CreatedAt    int64     `gorm:"not null" json:"created_at"`
	UpdatedAt    int64     `gorm:"not null" json:"updated_at"`

	IncludedClips          []Clip        `gorm:"many2many:filter_included_clips" json:"-"`
	ExcludedClips          []Clip        `gorm:"many2many:filter_excluded_clips" json:"-"`
	Classes                []ObjectClass `gorm:"many2many:filter_classes" json:"classes"`
	WhitelistedResolutions []Resolution  `gorm:"many2many:filter_resolutions" json:"whitelisted_resolutions"`
	Areas                  []Area        `gorm:"many2many:filter_areas" json:"areas"`
}

// TableName explicitly sets the table name for GORM.
func (Filter) TableName() string {
	return "filters"
}

// NewFilter returns a filter for the project with every criterion at its default.
func NewFilter(projectID uint) *Filter {
	return &Filter{
		ProjectID: projectID,
		StartTime: MinFilterTime,
		EndTime:   MaxFilterTime,
	}
}

func (f *Filter) Window() Span {
	return Span{Start: f.StartTime, End: f.EndTime}
}

// Bounded reports whether both ends of the time window are set. A window with
// only one bound set places no time constraint on matching.
func (f *Filter) Bounded() bool {
	return !f.StartTime.Equal(MinFilterTime) && !f.EndTime.Equal(MaxFilterTime)
}

func (f *Filter) Validate() error {
	if f.StartTime.After(f.EndTime) {
		return ErrInvalidTimeWindow
	}
	return nil
}

// ClassNames lists the required class labels.
func (f *Filter) ClassNames() []string {
	names := make([]string, 0, len(f.Classes))
	for _, c := range f.Classes {
		names = append(names, c.Name)
	}
	return names
}
