package services

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/realtime"
	"github.com/camden-git/clipcatalog/repository"
)

// ErrInvalidTimeWindow is returned when an update would put start after end
var ErrInvalidTimeWindow = models.ErrInvalidTimeWindow

// FilterStore persists filters and their criteria
type FilterStore interface {
	GetByID(id uint) (*models.Filter, error)
	Update(filterID uint, update repository.FilterUpdate) error
	AddArea(filterID uint, area *models.Area) error
	RemoveArea(filterID, areaID uint) error
}

// AreaStore creates standalone areas
type AreaStore interface {
	Create(area *models.Area) error
}

// ProjectClipSource is the clip registry as seen by the filter service
type ProjectClipSource interface {
	ClipSource
	ListResolutionsInProject(projectID uint) ([]models.Resolution, error)
}

// FolderSource resolves folders for clip file paths
type FolderSource interface {
	GetByID(id uint) (*models.Folder, error)
}

// ExportWriter persists an export document and returns where it was stored
type ExportWriter interface {
	SaveExport(v interface{}) (string, error)
}

// ModifyFilterRequest is a partial filter update. Each field is Unset (left
// alone), Reset (back to its default) or Set.
type ModifyFilterRequest struct {
	StartTime              Field[time.Time]           `json:"start_time"`
	EndTime                Field[time.Time]           `json:"end_time"`
	MinFrameRate           Field[float64]             `json:"min_frame_rate"`
	Classes                Field[[]string]            `json:"classes"`
	WhitelistedResolutions Field[[]models.Resolution] `json:"whitelisted_resolutions"`
	Areas                  Field[[]uint]              `json:"areas"`
	IncludedClips          Field[[]uint]              `json:"included_clips"`
	ExcludedClips          Field[[]uint]              `json:"excluded_clips"`
}

// Update resolves the request into a repository update, filling in defaults for reset fields
func (r ModifyFilterRequest) Update() repository.FilterUpdate {
	return repository.FilterUpdate{
		StartTime:              resolve(r.StartTime, models.MinFilterTime),
		EndTime:                resolve(r.EndTime, models.MaxFilterTime),
		MinFrameRate:           resolve(r.MinFrameRate, 0),
		Classes:                resolve(r.Classes, []string{}),
		WhitelistedResolutions: resolve(r.WhitelistedResolutions, []models.Resolution{}),
		AreaIDs:                resolve(r.Areas, []uint{}),
		IncludedClipIDs:        resolve(r.IncludedClips, []uint{}),
		ExcludedClipIDs:        resolve(r.ExcludedClips, []uint{}),
	}
}

// MatchResult lists the matching clips and the cameras they come from
type MatchResult struct {
	ClipIDs   []uint `json:"clip_ids"`
	CameraIDs []uint `json:"camera_ids"`
}

// FilterView is a filter with its clip overrides flattened to ids
type FilterView struct {
	*models.Filter
	IncludedClips []uint `json:"included_clips"`
	ExcludedClips []uint `json:"excluded_clips"`
}

type FilterExport struct {
	Filter ExportedFilter `json:"filter"`
	Areas  []ExportedArea `json:"areas"`
	Clips  []ExportedClip `json:"clips"`
}

type ExportedFilter struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Objects   []string  `json:"objects"`
}

type ExportedArea struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

type ExportedClip struct {
	FilePath  string    `json:"file_path"`
	StartTime time.Time `json:"start_time"`
}

// FilterService edits filters and evaluates them against a project's clips
type FilterService struct {
	filters    FilterStore
	areas      AreaStore
	clips      ProjectClipSource
	detections DetectionSource
	folders    FolderSource
	exports    ExportWriter
	events     realtime.Publisher
}

// NewFilterService wires the filter service. exports may be nil, in which
// case exports are only returned, never stored.
func NewFilterService(
	filters FilterStore,
	areas AreaStore,
	clips ProjectClipSource,
	detections DetectionSource,
	folders FolderSource,
	exports ExportWriter,
	events realtime.Publisher,
) *FilterService {
	if events == nil {
		events = realtime.Discard{}
	}
	return &FilterService{
		filters:    filters,
		areas:      areas,
		clips:      clips,
		detections: detections,
		folders:    folders,
		exports:    exports,
		events:     events,
	}
}

// GetFilter loads a filter with all criteria
func (s *FilterService) GetFilter(filterID uint) (*FilterView, error) {
	f, err := s.filters.GetByID(filterID)
	if err != nil {
		return nil, err
	}
	return &FilterView{
		Filter:        f,
		IncludedClips: clipIDList(f.IncludedClips),
		ExcludedClips: clipIDList(f.ExcludedClips),
	}, nil
}

// ModifyFilter applies a partial update. Unknown filter, clip or area ids
// fail with gorm.ErrRecordNotFound; a reversed window with ErrInvalidTimeWindow.
func (s *FilterService) ModifyFilter(filterID uint, req ModifyFilterRequest) error {
	f, err := s.filters.GetByID(filterID)
	if err != nil {
		return err
	}
	update := req.Update()
	if update.Empty() {
		return nil
	}
	if err := s.filters.Update(filterID, update); err != nil {
		return err
	}
	s.events.Publish(realtime.FilterEvent(f.ProjectID, filterID))
	return nil
}

// MatchingClips returns the clips of the filter's project that pass it, by id
func (s *FilterService) MatchingClips(filterID uint, cameraIDs []uint) ([]models.Clip, error) {
	f, err := s.filters.GetByID(filterID)
	if err != nil {
		return nil, err
	}
	clips, err := MatchingClips(f, s.clips, s.detections, cameraIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to match clips for filter %d: %w", filterID, err)
	}
	return clips, nil
}

// GetMatchingClips returns the ids of matching clips and of their cameras
func (s *FilterService) GetMatchingClips(filterID uint, cameraIDs []uint) (*MatchResult, error) {
	clips, err := s.MatchingClips(filterID, cameraIDs)
	if err != nil {
		return nil, err
	}
	return &MatchResult{ClipIDs: clipIDList(clips), CameraIDs: CameraIDs(clips)}, nil
}

// CreateArea stores a standalone area
func (s *FilterService) CreateArea(lat, lon, radius float64) (*models.Area, error) {
	area := &models.Area{Latitude: lat, Longitude: lon, Radius: radius}
	if err := s.areas.Create(area); err != nil {
		return nil, err
	}
	return area, nil
}

// AddAreaToFilter creates an area and attaches it to the filter
func (s *FilterService) AddAreaToFilter(filterID uint, lat, lon, radius float64) (*models.Area, error) {
	f, err := s.filters.GetByID(filterID)
	if err != nil {
		return nil, err
	}
	area := &models.Area{Latitude: lat, Longitude: lon, Radius: radius}
	if err := s.filters.AddArea(filterID, area); err != nil {
		return nil, err
	}
	s.events.Publish(realtime.FilterEvent(f.ProjectID, filterID))
	return area, nil
}

func (s *FilterService) RemoveAreaFromFilter(filterID, areaID uint) error {
	f, err := s.filters.GetByID(filterID)
	if err != nil {
		return err
	}
	if err := s.filters.RemoveArea(filterID, areaID); err != nil {
		return err
	}
	s.events.Publish(realtime.FilterEvent(f.ProjectID, filterID))
	return nil
}

// ResolutionsInProject lists the distinct resolutions of the project's clips
func (s *FilterService) ResolutionsInProject(projectID uint) ([]models.Resolution, error) {
	return s.clips.ListResolutionsInProject(projectID)
}

// ExportFilter describes the filter and its matching clips. With save set
// the document is also written to the export store and its path returned.
func (s *FilterService) ExportFilter(filterID uint, save bool) (*FilterExport, string, error) {
	f, err := s.filters.GetByID(filterID)
	if err != nil {
		return nil, "", err
	}
	clips, err := MatchingClips(f, s.clips, s.detections, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to match clips for filter %d: %w", filterID, err)
	}

	export := &FilterExport{
		Filter: ExportedFilter{
			StartTime: f.StartTime,
			EndTime:   f.EndTime,
			Objects:   f.ClassNames(),
		},
		Areas: make([]ExportedArea, 0, len(f.Areas)),
		Clips: make([]ExportedClip, 0, len(clips)),
	}
	for _, a := range f.Areas {
		export.Areas = append(export.Areas, ExportedArea{Latitude: a.Latitude, Longitude: a.Longitude, Radius: a.Radius})
	}

	folders := make(map[uint]*models.Folder)
	for _, c := range clips {
		folder, ok := folders[c.FolderID]
		if !ok {
			folder, err = s.folders.GetByID(c.FolderID)
			if err != nil {
				return nil, "", fmt.Errorf("failed to resolve folder of clip %d: %w", c.ID, err)
			}
			folders[c.FolderID] = folder
		}
		export.Clips = append(export.Clips, ExportedClip{
			FilePath:  filepath.ToSlash(c.FilePath(*folder)),
			StartTime: c.StartTime,
		})
	}

	if !save || s.exports == nil {
		return export, "", nil
	}
	path, err := s.exports.SaveExport(export)
	if err != nil {
		return nil, "", err
	}
	log.Printf("filter: Exported filter %d with %d clips to %s", filterID, len(export.Clips), path)
	return export, path, nil
}

func clipIDList(clips []models.Clip) []uint {
	ids := make([]uint, 0, len(clips))
	for _, c := range clips {
		ids = append(ids, c.ID)
	}
	return ids
}
