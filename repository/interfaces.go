package repository

import (
	"time"

	"github.com/camden-git/clipcatalog/models"
)

// FolderRepositoryInterface defines the methods for folder tree operations
type FolderRepositoryInterface interface {
	CreateRoot(path, name string) (*models.Folder, error)
	CreateSubfolder(parentID uint, name string) (*models.Folder, error)
	GetByID(id uint) (*models.Folder, error)
	GetByPath(path, name string) (*models.Folder, error)
	GetByParent(parentID uint, name string) (*models.Folder, error)
	ListRoots() ([]models.Folder, error)
	ListSubfolders(id uint) ([]models.Folder, error)
	ListSubfoldersRecursive(id uint) ([]models.Folder, error)
	Delete(id uint) error
}

// ProjectRepositoryInterface defines the methods for project data operations
type ProjectRepositoryInterface interface {
	Create(name string) (*models.Project, error)
	GetByID(id uint) (*models.Project, error)
	ListAll() ([]models.Project, error)
	Rename(id uint, name string) error
	Delete(id uint) error
	AddFolder(projectID, folderID uint) error
	RemoveFolder(projectID, folderID uint) error
	ListFolders(projectID uint) ([]models.Folder, error)
}

// ClipRepositoryInterface defines the methods for the clip registry
type ClipRepositoryInterface interface {
	Create(input ClipInput) (*models.Clip, error)
	Register(input ClipInput) (*models.Clip, bool, error)
	GetByID(id uint) (*models.Clip, error)
	GetByName(folderID uint, name, videoFormat string) (*models.Clip, error)
	Delete(id uint) error
	ListByFolder(folderID uint) ([]models.Clip, error)
	ListByFolderRecursive(folderID uint) ([]models.Clip, error)
	ListInProject(projectID uint) ([]models.Clip, error)
	ListCamerasInProject(projectID uint) ([]models.Camera, error)
	ListResolutionsInProject(projectID uint) ([]models.Resolution, error)
	ListDuplicates(id uint) ([]models.Clip, error)
	ListOverlapping(id uint) ([]models.Clip, error)
	UpdateThumbnailPath(id uint, thumbnailPath *string) error
}

// CameraRepositoryInterface defines the methods for camera data operations
type CameraRepositoryInterface interface {
	GetByID(id uint) (*models.Camera, error)
	ListAll() ([]models.Camera, error)
	Delete(id uint) error
}

// DetectionRepositoryInterface defines the methods for the object detection store
type DetectionRepositoryInterface interface {
	Create(clipID uint, sampleRate float64, span models.Span, objects []DetectedObject) (*models.ObjectDetection, error)
	GetByID(id uint) (*models.ObjectDetection, error)
	ListByClip(clipID uint) ([]models.ObjectDetection, error)
	GetObjects(detectionID uint, classes []string, from, to *time.Time) ([]models.Object, error)
	CountObjectsByClass(detectionID uint) (map[string]int, error)
	ListClasses() ([]models.ObjectClass, error)
}

// FilterRepositoryInterface defines the methods for filter data operations
type FilterRepositoryInterface interface {
	GetByID(id uint) (*models.Filter, error)
	ListByProject(projectID uint) ([]models.Filter, error)
	Update(filterID uint, update FilterUpdate) error
	AddArea(filterID uint, area *models.Area) error
	RemoveArea(filterID, areaID uint) error
}

// AreaRepositoryInterface defines the methods for area data operations
type AreaRepositoryInterface interface {
	Create(area *models.Area) error
	GetByID(id uint) (*models.Area, error)
	Delete(id uint) error
}

var (
	_ FolderRepositoryInterface    = (*FolderRepository)(nil)
	_ ProjectRepositoryInterface   = (*ProjectRepository)(nil)
	_ ClipRepositoryInterface      = (*ClipRepository)(nil)
	_ CameraRepositoryInterface    = (*CameraRepository)(nil)
	_ DetectionRepositoryInterface = (*DetectionRepository)(nil)
	_ FilterRepositoryInterface    = (*FilterRepository)(nil)
	_ AreaRepositoryInterface      = (*AreaRepository)(nil)
)
