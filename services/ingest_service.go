package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/camden-git/clipcatalog/media"
	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/realtime"
	"github.com/camden-git/clipcatalog/repository"
	"github.com/camden-git/clipcatalog/utils"
)

// VideoProber reads stream properties of a video file
type VideoProber interface {
	Probe(path string) (media.VideoInfo, error)
}

// MetadataReader finds where and when a clip was recorded
type MetadataReader func(clipPath string) (*utils.ClipMetadata, error)

// FolderRegistry creates folder tree nodes
type FolderRegistry interface {
	CreateRoot(path, name string) (*models.Folder, error)
	CreateSubfolder(parentID uint, name string) (*models.Folder, error)
}

// ClipRegistry registers clips, reporting whether each one is new
type ClipRegistry interface {
	Register(input repository.ClipInput) (*models.Clip, bool, error)
}

// ThumbnailQueue accepts background thumbnail jobs
type ThumbnailQueue interface {
	QueueThumbnail(clipID uint) bool
}

// IngestResult summarizes one import
type IngestResult struct {
	RootFolderID uint     `json:"root_folder_id"`
	Folders      int      `json:"folders"`
	ClipIDs      []uint   `json:"clip_ids"`
	KnownClipIDs []uint   `json:"known_clip_ids"`
	Skipped      []string `json:"skipped"`
}

// IngestService mirrors a directory tree into the folder and clip registries
type IngestService struct {
	folders    FolderRegistry
	clips      ClipRegistry
	prober     VideoProber
	metadata   MetadataReader
	thumbnails ThumbnailQueue
	events     realtime.Publisher
}

// NewIngestService wires the service. thumbnails may be nil.
func NewIngestService(folders FolderRegistry, clips ClipRegistry, prober VideoProber, metadata MetadataReader, thumbnails ThumbnailQueue, events realtime.Publisher) *IngestService {
	if metadata == nil {
		metadata = utils.ReadClipMetadata
	}
	if events == nil {
		events = realtime.Discard{}
	}
	return &IngestService{
		folders:    folders,
		clips:      clips,
		prober:     prober,
		metadata:   metadata,
		thumbnails: thumbnails,
		events:     events,
	}
}

// BuildFileStructure registers absPath as a root folder and walks it,
// creating subfolders and registering every video file it can describe.
// Files without metadata or a readable stream are skipped and reported.
func (s *IngestService) BuildFileStructure(absPath string) (*IngestResult, error) {
	if !filepath.IsAbs(absPath) {
		return nil, fmt.Errorf("ingest: path %s is not absolute", absPath)
	}
	absPath = filepath.Clean(absPath)
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("ingest: cannot read %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ingest: %s is not a directory", absPath)
	}

	parent, name := filepath.Split(absPath)
	root, err := s.folders.CreateRoot(parent, name)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{RootFolderID: root.ID, Folders: 1, ClipIDs: []uint{}, KnownClipIDs: []uint{}, Skipped: []string{}}
	if err := s.traverse(absPath, root.ID, result); err != nil {
		return nil, err
	}
	log.Printf("ingest: Imported %s: %d folder(s), %d new clip(s), %d known, %d skipped", absPath, result.Folders, len(result.ClipIDs), len(result.KnownClipIDs), len(result.Skipped))
	return result, nil
}

func (s *IngestService) traverse(dir string, folderID uint, result *IngestResult) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("ingest: failed to list %s: %w", dir, err)
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			sub, err := s.folders.CreateSubfolder(folderID, entry.Name())
			if err != nil {
				return err
			}
			result.Folders++
			if err := s.traverse(path, sub.ID, result); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			isClip, name, format := utils.AnalyzeFile(entry.Name())
			if !isClip {
				continue
			}
			clip, created, err := s.registerClip(folderID, path, name, format)
			if err != nil {
				log.Printf("ingest: Skipping %s: %v", path, err)
				result.Skipped = append(result.Skipped, path)
				continue
			}
			if created {
				result.ClipIDs = append(result.ClipIDs, clip.ID)
				s.events.Publish(realtime.ClipEvent(realtime.EventClipAdded, clip.ID))
			} else {
				result.KnownClipIDs = append(result.KnownClipIDs, clip.ID)
			}
			if s.thumbnails != nil && clip.ThumbnailPath == nil {
				s.thumbnails.QueueThumbnail(clip.ID)
			}
		}
	}
	return nil
}

func (s *IngestService) registerClip(folderID uint, path, name, format string) (*models.Clip, bool, error) {
	meta, err := s.metadata(path)
	if err != nil {
		return nil, false, err
	}
	if s.prober == nil {
		return nil, false, errors.New("no video prober configured")
	}
	video, err := s.prober.Probe(path)
	if err != nil {
		return nil, false, err
	}
	hash, err := utils.HashFile(path)
	if err != nil {
		return nil, false, err
	}

	return s.clips.Register(repository.ClipInput{
		FolderID:    folderID,
		Name:        name,
		VideoFormat: format,
		StartTime:   meta.StartTime,
		EndTime:     meta.StartTime.Add(video.Duration()),
		CameraName:  meta.CameraName,
		Latitude:    meta.Latitude,
		Longitude:   meta.Longitude,
		Width:       video.Width,
		Height:      video.Height,
		FrameRate:   video.FrameRate,
		HashSum:     hash,
	})
}
