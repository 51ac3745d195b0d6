package repository

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/camden-git/clipcatalog/models"
	"gorm.io/gorm"
)

// FilterUpdate is a resolved partial update. A nil field is left untouched;
// a non-nil field replaces the stored value, an empty slice clearing the set.
type FilterUpdate struct {
	StartTime              *time.Time
	EndTime                *time.Time
	MinFrameRate           *float64
	Classes                *[]string
	WhitelistedResolutions *[]models.Resolution
	IncludedClipIDs        *[]uint
	ExcludedClipIDs        *[]uint
	AreaIDs                *[]uint
}

// Empty reports whether the update changes nothing
func (u FilterUpdate) Empty() bool {
	return u.StartTime == nil && u.EndTime == nil && u.MinFrameRate == nil &&
		u.Classes == nil && u.WhitelistedResolutions == nil &&
		u.IncludedClipIDs == nil && u.ExcludedClipIDs == nil && u.AreaIDs == nil
}

// FilterRepository handles database operations for Filter entities
type FilterRepository struct {
	DB *gorm.DB
}

// NewFilterRepository creates a new instance of FilterRepository
func NewFilterRepository(db *gorm.DB) *FilterRepository {
	return &FilterRepository{DB: db}
}

func preloadFilter(db *gorm.DB) *gorm.DB {
	return db.Preload("IncludedClips").
		Preload("ExcludedClips").
		Preload("Classes").
		Preload("WhitelistedResolutions").
		Preload("Areas")
}

// GetByID retrieves a filter with every criterion set loaded
func (r *FilterRepository) GetByID(id uint) (*models.Filter, error) {
	var filter models.Filter
	err := preloadFilter(r.DB).First(&filter, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get filter by ID %d: %w", id, err)
	}
	return &filter, nil
}

// ListByProject retrieves the filters of a project
func (r *FilterRepository) ListByProject(projectID uint) ([]models.Filter, error) {
	if err := r.DB.First(&models.Project{}, projectID).Error; err != nil {
		return nil, err
	}
	filters := []models.Filter{}
	if err := preloadFilter(r.DB).Where("project_id = ?", projectID).Order("id ASC").Find(&filters).Error; err != nil {
		return nil, fmt.Errorf("failed to list filters of project %d: %w", projectID, err)
	}
	return filters, nil
}

// Update applies a partial update in one transaction. The resulting time
// window is validated; unknown clip or area ids fail with gorm.ErrRecordNotFound.
func (r *FilterRepository) Update(filterID uint, update FilterUpdate) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		filter := models.Filter{ID: filterID}
		if err := tx.First(&filter).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"updated_at": time.Now().Unix(),
		}
		if update.StartTime != nil {
			filter.StartTime = update.StartTime.UTC()
			updates["start_time"] = filter.StartTime
		}
		if update.EndTime != nil {
			filter.EndTime = update.EndTime.UTC()
			updates["end_time"] = filter.EndTime
		}
		if err := filter.Validate(); err != nil {
			return err
		}
		if update.MinFrameRate != nil {
			updates["min_frame_rate"] = *update.MinFrameRate
		}
		if err := tx.Model(&filter).Updates(updates).Error; err != nil {
			return err
		}

		if update.Classes != nil {
			classes, err := resolveClasses(tx, *update.Classes)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, &filter, "Classes", classes); err != nil {
				return err
			}
		}
		if update.WhitelistedResolutions != nil {
			resolutions, err := resolveResolutions(tx, *update.WhitelistedResolutions)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, &filter, "WhitelistedResolutions", resolutions); err != nil {
				return err
			}
		}
		if update.IncludedClipIDs != nil {
			clips, err := loadClips(tx, *update.IncludedClipIDs)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, &filter, "IncludedClips", clips); err != nil {
				return err
			}
		}
		if update.ExcludedClipIDs != nil {
			clips, err := loadClips(tx, *update.ExcludedClipIDs)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, &filter, "ExcludedClips", clips); err != nil {
				return err
			}
		}
		if update.AreaIDs != nil {
			areas, err := loadAreas(tx, *update.AreaIDs)
			if err != nil {
				return err
			}
			if err := replaceAssociation(tx, &filter, "Areas", areas); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, models.ErrInvalidTimeWindow) {
			return err
		}
		return fmt.Errorf("failed to update filter ID %d: %w", filterID, err)
	}
	return nil
}

// AddArea creates the area and attaches it to the filter
func (r *FilterRepository) AddArea(filterID uint, area *models.Area) error {
	if err := area.Validate(); err != nil {
		return err
	}
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Filter{}, filterID).Error; err != nil {
			return err
		}
		if err := tx.Create(area).Error; err != nil {
			return err
		}
		return tx.Exec("INSERT INTO filter_areas (filter_id, area_id) VALUES (?, ?)", filterID, area.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to add area to filter ID %d: %w", filterID, err)
	}
	return nil
}

// RemoveArea detaches an area from the filter
func (r *FilterRepository) RemoveArea(filterID, areaID uint) error {
	if err := r.DB.First(&models.Filter{}, filterID).Error; err != nil {
		return err
	}
	result := r.DB.Exec("DELETE FROM filter_areas WHERE filter_id = ? AND area_id = ?", filterID, areaID)
	if result.Error != nil {
		return fmt.Errorf("failed to remove area %d from filter %d: %w", areaID, filterID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func replaceAssociation(tx *gorm.DB, filter *models.Filter, name string, values interface{}) error {
	assoc := tx.Model(filter).Association(name)
	if err := assoc.Clear(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", name, err)
	}
	if reflect.ValueOf(values).Len() == 0 {
		return nil
	}
	if err := assoc.Append(values); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

func resolveClasses(tx *gorm.DB, names []string) ([]models.ObjectClass, error) {
	classes := []models.ObjectClass{}
	seen := make(map[string]bool)
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		class := models.ObjectClass{Name: name}
		if err := tx.Where("name = ?", name).FirstOrCreate(&class).Error; err != nil {
			return nil, fmt.Errorf("failed to get or create object class %s: %w", name, err)
		}
		classes = append(classes, class)
	}
	return classes, nil
}

func resolveResolutions(tx *gorm.DB, sizes []models.Resolution) ([]models.Resolution, error) {
	resolutions := []models.Resolution{}
	seen := make(map[[2]int]bool)
	for _, size := range sizes {
		key := [2]int{size.Width, size.Height}
		if seen[key] {
			continue
		}
		seen[key] = true
		res := models.Resolution{Width: size.Width, Height: size.Height}
		if err := tx.Where("width = ? AND height = ?", size.Width, size.Height).FirstOrCreate(&res).Error; err != nil {
			return nil, fmt.Errorf("failed to get or create resolution %s: %w", res, err)
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, nil
}

func loadClips(tx *gorm.DB, ids []uint) ([]models.Clip, error) {
	clips := []models.Clip{}
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return clips, nil
	}
	if err := tx.Where("id IN ?", unique).Find(&clips).Error; err != nil {
		return nil, err
	}
	if len(clips) != len(unique) {
		return nil, fmt.Errorf("clip ids %v: %w", missingIDs(unique, clipIDs(clips)), gorm.ErrRecordNotFound)
	}
	return clips, nil
}

func loadAreas(tx *gorm.DB, ids []uint) ([]models.Area, error) {
	areas := []models.Area{}
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return areas, nil
	}
	if err := tx.Where("id IN ?", unique).Find(&areas).Error; err != nil {
		return nil, err
	}
	if len(areas) != len(unique) {
		found := make([]uint, len(areas))
		for i, a := range areas {
			found[i] = a.ID
		}
		return nil, fmt.Errorf("area ids %v: %w", missingIDs(unique, found), gorm.ErrRecordNotFound)
	}
	return areas, nil
}

// deleteFilters removes filters and their criterion join rows
func deleteFilters(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	tables := []string{"filter_included_clips", "filter_excluded_clips", "filter_classes", "filter_resolutions", "filter_areas"}
	for _, table := range tables {
		if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE filter_id IN ?", table), ids).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Filter{}).Error
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func missingIDs(want, found []uint) []uint {
	var missing []uint
	for _, id := range want {
		if !containsID(found, id) {
			missing = append(missing, id)
		}
	}
	return missing
}

func clipIDs(clips []models.Clip) []uint {
	ids := make([]uint, len(clips))
	for i, c := range clips {
		ids[i] = c.ID
	}
	return ids
}
