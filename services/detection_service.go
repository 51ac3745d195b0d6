package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/camden-git/clipcatalog/media"
	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/repository"
)

var ErrDetectorDisabled = errors.New("object detector is not configured")

// ObjectDetector finds labelled objects in a video file
type ObjectDetector interface {
	Detect(path string, opts media.DetectionOptions) ([]media.Label, error)
}

// ClipLookup loads a clip with its folder
type ClipLookup interface {
	GetByID(id uint) (*models.Clip, error)
}

// DetectionStore persists detection runs
type DetectionStore interface {
	Create(clipID uint, sampleRate float64, span models.Span, objects []repository.DetectedObject) (*models.ObjectDetection, error)
}

// DetectionService runs the object detector over clips and stores the results
type DetectionService struct {
	clips     ClipLookup
	store     DetectionStore
	detector  ObjectDetector
	threshold float32
}

// NewDetectionService wires the service. A nil detector makes every run fail
// with ErrDetectorDisabled.
func NewDetectionService(clips ClipLookup, store DetectionStore, detector ObjectDetector, threshold float32) *DetectionService {
	return &DetectionService{clips: clips, store: store, detector: detector, threshold: threshold}
}

// RunDetection analyzes the clip between startOffset and endOffset seconds,
// one frame every rate seconds, and stores the run. endOffset 0 or past the
// clip's end means the end of the clip.
func (s *DetectionService) RunDetection(clipID uint, rate, startOffset, endOffset float64) (*models.ObjectDetection, error) {
	if s.detector == nil {
		return nil, ErrDetectorDisabled
	}
	if rate < 0 {
		return nil, repository.ErrInvalidSampleRate
	}
	clip, err := s.clips.GetByID(clipID)
	if err != nil {
		return nil, err
	}
	if clip.Folder == nil {
		return nil, fmt.Errorf("clip %d loaded without its folder", clipID)
	}

	length := clip.EndTime.Sub(clip.StartTime).Seconds()
	start, end := clampOffsets(startOffset, endOffset, length)
	if start > end {
		return nil, ErrInvalidTimeWindow
	}

	path := clip.FilePath(*clip.Folder)
	labels, err := s.detector.Detect(path, media.DetectionOptions{
		SampleRate:  rate,
		StartOffset: start,
		EndOffset:   end,
		Threshold:   s.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("detection failed for %s: %w", path, err)
	}

	span := models.Span{Start: at(clip.StartTime, start), End: at(clip.StartTime, end)}
	objects := make([]repository.DetectedObject, 0, len(labels))
	for _, l := range labels {
		t := at(clip.StartTime, l.Offset)
		if !span.Contains(models.Span{Start: t, End: t}) {
			continue
		}
		objects = append(objects, repository.DetectedObject{Class: l.Class, Time: t})
	}
	if dropped := len(labels) - len(objects); dropped > 0 {
		log.Printf("detection: Dropped %d label(s) outside %.2fs..%.2fs of clip %d", dropped, start, end, clipID)
	}

	run, err := s.store.Create(clipID, rate, span, objects)
	if err != nil {
		return nil, err
	}
	log.Printf("detection: Stored run %d on clip %d with %d object(s)", run.ID, clipID, len(objects))
	return run, nil
}

func clampOffsets(start, end, length float64) (float64, float64) {
	if start < 0 {
		start = 0
	}
	if end <= 0 || end > length {
		end = length
	}
	if start > length {
		start = length
	}
	return start, end
}

func at(base time.Time, seconds float64) time.Time {
	return base.Add(time.Duration(seconds * float64(time.Second)))
}
