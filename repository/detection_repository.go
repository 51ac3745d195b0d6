package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/clipcatalog/database"
	"github.com/camden-git/clipcatalog/models"
	"gorm.io/gorm"
)

// DetectedObject is one labelled detection to be stored with a run
type DetectedObject struct {
	Class string
	Time  time.Time
}

// DetectionRepository handles database operations for detection runs and their objects
type DetectionRepository struct {
	DB      *gorm.DB
	Objects *database.ObjectQuerier
}

// NewDetectionRepository creates a new instance of DetectionRepository. Object
// lookups go through hand-built queries on the same connection pool.
func NewDetectionRepository(db *gorm.DB, driver string) (*DetectionRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}
	return &DetectionRepository{DB: db, Objects: database.NewObjectQuerier(sqlDB, driver)}, nil
}

// Create stores a detection run over part of a clip. The run must lie within
// the clip's span and every object within the run's span.
func (r *DetectionRepository) Create(clipID uint, sampleRate float64, span models.Span, objects []DetectedObject) (*models.ObjectDetection, error) {
	if sampleRate < 0 {
		return nil, ErrInvalidSampleRate
	}
	span = models.Span{Start: span.Start.UTC(), End: span.End.UTC()}
	if !span.Valid() {
		return nil, models.ErrInvalidTimeWindow
	}

	var detection models.ObjectDetection
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var clip models.Clip
		if err := tx.First(&clip, clipID).Error; err != nil {
			return err
		}
		if !clip.Span().Contains(span) {
			return fmt.Errorf("detection run %v..%v on clip %d: %w", span.Start, span.End, clipID, ErrSpanOutsideParent)
		}

		classes := make(map[string]models.ObjectClass)
		rows := make([]models.Object, 0, len(objects))
		for _, obj := range objects {
			t := obj.Time.UTC()
			if !span.Contains(models.Span{Start: t, End: t}) {
				return fmt.Errorf("object %s at %v: %w", obj.Class, t, ErrSpanOutsideParent)
			}
			class, ok := classes[obj.Class]
			if !ok {
				class = models.ObjectClass{Name: obj.Class}
				if err := tx.Where("name = ?", obj.Class).FirstOrCreate(&class).Error; err != nil {
					return fmt.Errorf("failed to get or create object class %s: %w", obj.Class, err)
				}
				classes[obj.Class] = class
			}
			rows = append(rows, models.Object{ObjectClassID: class.ID, Time: t})
		}

		detection = models.ObjectDetection{
			ClipID:     clipID,
			SampleRate: sampleRate,
			StartTime:  span.Start,
			EndTime:    span.End,
			CreatedAt:  time.Now().Unix(),
		}
		if err := tx.Create(&detection).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].ObjectDetectionID = detection.ID
		}
		if err := tx.Omit("ObjectClass").CreateInBatches(&rows, 200).Error; err != nil {
			return err
		}
		for i := range rows {
			class := classes[objects[i].Class]
			rows[i].ObjectClass = &class
		}
		detection.Objects = rows
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store detection run for clip %d: %w", clipID, err)
	}
	return &detection, nil
}

// GetByID retrieves a detection run with its objects
func (r *DetectionRepository) GetByID(id uint) (*models.ObjectDetection, error) {
	var detection models.ObjectDetection
	err := r.DB.Preload("Objects", func(db *gorm.DB) *gorm.DB {
		return db.Order("objects.time ASC, objects.id ASC")
	}).Preload("Objects.ObjectClass").First(&detection, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get detection run by ID %d: %w", id, err)
	}
	return &detection, nil
}

// ListByClip retrieves every detection run of a clip with objects and classes
func (r *DetectionRepository) ListByClip(clipID uint) ([]models.ObjectDetection, error) {
	detections := []models.ObjectDetection{}
	err := r.DB.Preload("Objects").Preload("Objects.ObjectClass").
		Where("clip_id = ?", clipID).
		Order("start_time ASC, id ASC").
		Find(&detections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list detection runs of clip %d: %w", clipID, err)
	}
	return detections, nil
}

// GetObjects retrieves the objects of a run, optionally restricted to class
// names and an inclusive time range
func (r *DetectionRepository) GetObjects(detectionID uint, classes []string, from, to *time.Time) ([]models.Object, error) {
	if err := r.DB.First(&models.ObjectDetection{}, detectionID).Error; err != nil {
		return nil, err
	}
	return r.Objects.QueryObjects(database.ObjectQuery{
		DetectionID: detectionID,
		Classes:     classes,
		From:        from,
		To:          to,
	})
}

// CountObjectsByClass returns per-class object counts for a run
func (r *DetectionRepository) CountObjectsByClass(detectionID uint) (map[string]int, error) {
	if err := r.DB.First(&models.ObjectDetection{}, detectionID).Error; err != nil {
		return nil, err
	}
	return r.Objects.CountObjectsByClass(detectionID)
}

// ListClasses retrieves every known object class, ordered by name
func (r *DetectionRepository) ListClasses() ([]models.ObjectClass, error) {
	var classes []models.ObjectClass
	if err := r.DB.Order("name ASC").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("failed to list object classes: %w", err)
	}
	return classes, nil
}
