package services

import (
	"fmt"
	"image"

	"github.com/camden-git/clipcatalog/models"
)

// FrameGrabber decodes a single frame of a video file
type FrameGrabber interface {
	GrabFrame(path string, offset float64) (image.Image, error)
}

// ThumbnailRenderer scales and stores a poster image
type ThumbnailRenderer interface {
	GenerateThumbnail(frame image.Image, clipPath string, maxSize int) (string, error)
}

// ClipThumbnailStore reads clips and records their poster path
type ClipThumbnailStore interface {
	GetByID(id uint) (*models.Clip, error)
	UpdateThumbnailPath(id uint, thumbnailPath *string) error
}

type ThumbnailService struct {
	clips    ClipThumbnailStore
	grabber  FrameGrabber
	renderer ThumbnailRenderer
	maxSize  int
}

func NewThumbnailService(clips ClipThumbnailStore, grabber FrameGrabber, renderer ThumbnailRenderer, maxSize int) *ThumbnailService {
	return &ThumbnailService{clips: clips, grabber: grabber, renderer: renderer, maxSize: maxSize}
}

// GenerateClipThumbnail renders the clip's first frame as its poster
func (s *ThumbnailService) GenerateClipThumbnail(clipID uint) (string, error) {
	clip, err := s.clips.GetByID(clipID)
	if err != nil {
		return "", err
	}
	if clip.Folder == nil {
		return "", fmt.Errorf("clip %d loaded without its folder", clipID)
	}
	path := clip.FilePath(*clip.Folder)

	frame, err := s.grabber.GrabFrame(path, 0)
	if err != nil {
		return "", err
	}
	thumb, err := s.renderer.GenerateThumbnail(frame, path, s.maxSize)
	if err != nil {
		return "", err
	}
	if err := s.clips.UpdateThumbnailPath(clipID, &thumb); err != nil {
		return "", fmt.Errorf("failed to record thumbnail of clip %d: %w", clipID, err)
	}
	return thumb, nil
}
