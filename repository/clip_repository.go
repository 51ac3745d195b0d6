package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/clipcatalog/models"
	"gorm.io/gorm"
)

// ClipInput carries everything needed to register a clip
type ClipInput struct {
	FolderID    uint
	Name        string
	VideoFormat string
	StartTime   time.Time
	EndTime     time.Time
	CameraName  string
	Latitude    float64
	Longitude   float64
	Width       int
	Height      int
	FrameRate   float64
	HashSum     string
}

// ClipRepository handles database operations for clips, cameras and resolutions
type ClipRepository struct {
	DB *gorm.DB
}

// NewClipRepository creates a new instance of ClipRepository
func NewClipRepository(db *gorm.DB) *ClipRepository {
	return &ClipRepository{DB: db}
}

func preloadClip(db *gorm.DB) *gorm.DB {
	return db.Preload("Camera").Preload("Resolution")
}

// Create registers a clip. The camera is looked up by (name, latitude,
// longitude) and created if needed, its span widened to cover the clip.
// An existing clip with the same folder, name and format is returned as is.
// Duplicate and overlap relations with the camera's other clips are filled in.
func (r *ClipRepository) Create(input ClipInput) (*models.Clip, error) {
	clip, _, err := r.Register(input)
	return clip, err
}

// Register is Create that also reports whether the clip was newly inserted.
func (r *ClipRepository) Register(input ClipInput) (*models.Clip, bool, error) {
	span := models.Span{Start: input.StartTime.UTC(), End: input.EndTime.UTC()}
	if !span.Valid() {
		return nil, false, models.ErrInvalidTimeWindow
	}
	camera := models.Camera{Name: input.CameraName, Latitude: input.Latitude, Longitude: input.Longitude}
	if err := camera.ValidateLocation(); err != nil {
		return nil, false, err
	}
	format := input.VideoFormat

	var clip models.Clip
	created := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Folder{}, input.FolderID).Error; err != nil {
			return err
		}

		err := preloadClip(tx).
			Where("folder_id = ? AND name = ? AND video_format = ?", input.FolderID, input.Name, format).
			First(&clip).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("name = ? AND latitude = ? AND longitude = ?", camera.Name, camera.Latitude, camera.Longitude).
			FirstOrCreate(&camera).Error
		if err != nil {
			return fmt.Errorf("failed to get or create camera: %w", err)
		}
		camera.Absorb(span)
		if err := tx.Model(&camera).Updates(map[string]interface{}{
			"start_time": camera.StartTime.UTC(),
			"end_time":   camera.EndTime.UTC(),
		}).Error; err != nil {
			return fmt.Errorf("failed to update camera span: %w", err)
		}

		resolution := models.Resolution{Width: input.Width, Height: input.Height}
		err = tx.Where("width = ? AND height = ?", input.Width, input.Height).FirstOrCreate(&resolution).Error
		if err != nil {
			return fmt.Errorf("failed to get or create resolution: %w", err)
		}

		clip = models.Clip{
			FolderID:     input.FolderID,
			Name:         input.Name,
			VideoFormat:  format,
			StartTime:    span.Start,
			EndTime:      span.End,
			CameraID:     camera.ID,
			ResolutionID: resolution.ID,
			FrameRate:    input.FrameRate,
			HashSum:      input.HashSum,
			CreatedAt:    time.Now().Unix(),
		}
		if err := tx.Omit("Folder", "Camera", "Resolution", "Duplicates", "Overlapping", "Detections").Create(&clip).Error; err != nil {
			return err
		}
		clip.Camera = &camera
		clip.Resolution = &resolution
		created = true

		return linkSiblings(tx, clip)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to create clip %s.%s: %w", input.Name, format, err)
	}
	return &clip, created, nil
}

// linkSiblings relates a new clip to the other clips of its camera: equal
// non-empty hashes make duplicates, otherwise overlapping spans make overlaps.
func linkSiblings(tx *gorm.DB, clip models.Clip) error {
	var siblings []models.Clip
	if err := tx.Where("camera_id = ? AND id <> ?", clip.CameraID, clip.ID).Find(&siblings).Error; err != nil {
		return fmt.Errorf("failed to list sibling clips: %w", err)
	}
	for _, s := range siblings {
		table, column := "", ""
		switch {
		case clip.HashSum != "" && clip.HashSum == s.HashSum:
			table, column = "clip_duplicates", "duplicate_id"
		case clip.Span().Overlaps(s.Span()):
			table, column = "clip_overlaps", "overlapping_id"
		default:
			continue
		}
		pairs := [][2]uint{{clip.ID, s.ID}, {s.ID, clip.ID}}
		for _, p := range pairs {
			stmt := fmt.Sprintf("INSERT INTO %s (clip_id, %s) VALUES (?, ?)", table, column)
			if err := tx.Exec(stmt, p[0], p[1]).Error; err != nil {
				return fmt.Errorf("failed to link clips %d and %d: %w", p[0], p[1], err)
			}
		}
	}
	return nil
}

// GetByID retrieves a clip with its folder, camera and resolution
func (r *ClipRepository) GetByID(id uint) (*models.Clip, error) {
	var clip models.Clip
	err := preloadClip(r.DB).Preload("Folder").First(&clip, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get clip by ID %d: %w", id, err)
	}
	return &clip, nil
}

// GetByName retrieves a clip by folder, name and format
func (r *ClipRepository) GetByName(folderID uint, name, videoFormat string) (*models.Clip, error) {
	var clip models.Clip
	err := preloadClip(r.DB).
		Where("folder_id = ? AND name = ? AND video_format = ?", folderID, name, videoFormat).
		First(&clip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get clip %s.%s in folder %d: %w", name, videoFormat, folderID, err)
	}
	return &clip, nil
}

// Delete removes a clip with its detections and every relation that references it
func (r *ClipRepository) Delete(id uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Clip{}, id).Error; err != nil {
			return err
		}
		return deleteClips(tx, []uint{id})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete clip ID %d: %w", id, err)
	}
	return nil
}

// ListByFolder retrieves the clips directly inside a folder
func (r *ClipRepository) ListByFolder(folderID uint) ([]models.Clip, error) {
	if err := r.DB.First(&models.Folder{}, folderID).Error; err != nil {
		return nil, err
	}
	clips := []models.Clip{}
	if err := preloadClip(r.DB).Where("folder_id = ?", folderID).Order("id ASC").Find(&clips).Error; err != nil {
		return nil, fmt.Errorf("failed to list clips of folder %d: %w", folderID, err)
	}
	return clips, nil
}

// ListByFolderRecursive retrieves the clips of a folder and all its descendants
func (r *ClipRepository) ListByFolderRecursive(folderID uint) ([]models.Clip, error) {
	if err := r.DB.First(&models.Folder{}, folderID).Error; err != nil {
		return nil, err
	}
	ids, err := folderTreeIDs(r.DB, []uint{folderID})
	if err != nil {
		return nil, err
	}
	return r.listInFolders(ids)
}

// ListInProject retrieves every clip under the project's folders, with camera and resolution
func (r *ClipRepository) ListInProject(projectID uint) ([]models.Clip, error) {
	ids, err := projectFolderTree(r.DB, projectID)
	if err != nil {
		return nil, err
	}
	return r.listInFolders(ids)
}

func (r *ClipRepository) listInFolders(folderIDs []uint) ([]models.Clip, error) {
	clips := []models.Clip{}
	if len(folderIDs) == 0 {
		return clips, nil
	}
	if err := preloadClip(r.DB).Where("folder_id IN ?", folderIDs).Order("id ASC").Find(&clips).Error; err != nil {
		return nil, fmt.Errorf("failed to list clips in folders: %w", err)
	}
	return clips, nil
}

// ListCamerasInProject retrieves the distinct cameras of the project's clips
func (r *ClipRepository) ListCamerasInProject(projectID uint) ([]models.Camera, error) {
	ids, err := projectFolderTree(r.DB, projectID)
	if err != nil {
		return nil, err
	}
	cameras := []models.Camera{}
	if len(ids) == 0 {
		return cameras, nil
	}
	sub := r.DB.Model(&models.Clip{}).Select("camera_id").Where("folder_id IN ?", ids)
	if err := r.DB.Where("id IN (?)", sub).Order("id ASC").Find(&cameras).Error; err != nil {
		return nil, fmt.Errorf("failed to list cameras of project %d: %w", projectID, err)
	}
	return cameras, nil
}

// ListResolutionsInProject retrieves the distinct resolutions of the project's clips
func (r *ClipRepository) ListResolutionsInProject(projectID uint) ([]models.Resolution, error) {
	ids, err := projectFolderTree(r.DB, projectID)
	if err != nil {
		return nil, err
	}
	resolutions := []models.Resolution{}
	if len(ids) == 0 {
		return resolutions, nil
	}
	sub := r.DB.Model(&models.Clip{}).Select("resolution_id").Where("folder_id IN ?", ids)
	if err := r.DB.Where("id IN (?)", sub).Order("width ASC, height ASC").Find(&resolutions).Error; err != nil {
		return nil, fmt.Errorf("failed to list resolutions of project %d: %w", projectID, err)
	}
	return resolutions, nil
}

// ListDuplicates retrieves the clips with the same camera and content hash
func (r *ClipRepository) ListDuplicates(id uint) ([]models.Clip, error) {
	return r.listRelated(id, "clip_duplicates", "duplicate_id")
}

// ListOverlapping retrieves the clips of the same camera whose span overlaps
func (r *ClipRepository) ListOverlapping(id uint) ([]models.Clip, error) {
	return r.listRelated(id, "clip_overlaps", "overlapping_id")
}

func (r *ClipRepository) listRelated(id uint, table, column string) ([]models.Clip, error) {
	if err := r.DB.First(&models.Clip{}, id).Error; err != nil {
		return nil, err
	}
	clips := []models.Clip{}
	err := preloadClip(r.DB).
		Joins(fmt.Sprintf("JOIN %s rel ON rel.%s = clips.id", table, column)).
		Where("rel.clip_id = ?", id).
		Order("clips.id ASC").
		Find(&clips).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s of clip %d: %w", table, id, err)
	}
	return clips, nil
}

// UpdateThumbnailPath sets or clears the poster thumbnail of a clip
func (r *ClipRepository) UpdateThumbnailPath(id uint, thumbnailPath *string) error {
	result := r.DB.Model(&models.Clip{}).Where("id = ?", id).Update("thumbnail_path", thumbnailPath)
	if result.Error != nil {
		return fmt.Errorf("failed to update thumbnail for clip ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// deleteClips removes clips, their detection runs and objects, and every join row referencing them
func deleteClips(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var detectionIDs []uint
	if err := tx.Model(&models.ObjectDetection{}).Where("clip_id IN ?", ids).Pluck("id", &detectionIDs).Error; err != nil {
		return err
	}
	if len(detectionIDs) > 0 {
		if err := tx.Where("object_detection_id IN ?", detectionIDs).Delete(&models.Object{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", detectionIDs).Delete(&models.ObjectDetection{}).Error; err != nil {
			return err
		}
	}
	statements := []string{
		"DELETE FROM clip_duplicates WHERE clip_id IN ? OR duplicate_id IN ?",
		"DELETE FROM clip_overlaps WHERE clip_id IN ? OR overlapping_id IN ?",
	}
	for _, stmt := range statements {
		if err := tx.Exec(stmt, ids, ids).Error; err != nil {
			return err
		}
	}
	for _, table := range []string{"filter_included_clips", "filter_excluded_clips"} {
		if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE clip_id IN ?", table), ids).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Clip{}).Error
}
