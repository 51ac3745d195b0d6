package repository

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/camden-git/clipcatalog/models"
	"gorm.io/gorm"
)

// FolderRepository handles database operations for the folder tree
type FolderRepository struct {
	DB *gorm.DB
}

// NewFolderRepository creates a new instance of FolderRepository
func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{DB: db}
}

// normalizeDirPath returns path cleaned and terminated by a separator
func normalizeDirPath(path string) string {
	clean := filepath.Clean(path)
	if clean == string(filepath.Separator) {
		return clean
	}
	return clean + string(filepath.Separator)
}

// CreateRoot returns the folder at path/name, creating it if needed
func (r *FolderRepository) CreateRoot(path, name string) (*models.Folder, error) {
	folder := models.Folder{Path: normalizeDirPath(path), Name: name}
	err := r.DB.Where("path = ? AND name = ?", folder.Path, folder.Name).
		Attrs(models.Folder{CreatedAt: time.Now().Unix()}).
		FirstOrCreate(&folder).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create root folder %s%s: %w", folder.Path, name, err)
	}
	return &folder, nil
}

// CreateSubfolder returns the child of parentID named name, creating it if needed.
// A root folder already registered at the same location is re-parented.
func (r *FolderRepository) CreateSubfolder(parentID uint, name string) (*models.Folder, error) {
	var folder models.Folder
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var parent models.Folder
		if err := tx.First(&parent, parentID).Error; err != nil {
			return err
		}

		path := parent.ChildPath()
		err := tx.Where("path = ? AND name = ?", path, name).First(&folder).Error
		if err == nil {
			if folder.ParentID == nil || *folder.ParentID != parentID {
				folder.ParentID = &parent.ID
				return tx.Model(&folder).Update("parent_id", parent.ID).Error
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		folder = models.Folder{ParentID: &parent.ID, Path: path, Name: name, CreatedAt: time.Now().Unix()}
		return tx.Create(&folder).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create subfolder %s under folder %d: %w", name, parentID, err)
	}
	return &folder, nil
}

// GetByID retrieves a folder by its ID
func (r *FolderRepository) GetByID(id uint) (*models.Folder, error) {
	var folder models.Folder
	err := r.DB.First(&folder, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get folder by ID %d: %w", id, err)
	}
	return &folder, nil
}

// GetByPath retrieves a folder by its containing path and name
func (r *FolderRepository) GetByPath(path, name string) (*models.Folder, error) {
	var folder models.Folder
	err := r.DB.Where("path = ? AND name = ?", normalizeDirPath(path), name).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get folder %s%s: %w", path, name, err)
	}
	return &folder, nil
}

// GetByParent retrieves a direct child of parentID by name
func (r *FolderRepository) GetByParent(parentID uint, name string) (*models.Folder, error) {
	var folder models.Folder
	err := r.DB.Where("parent_id = ? AND name = ?", parentID, name).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get folder %s under %d: %w", name, parentID, err)
	}
	return &folder, nil
}

// ListRoots retrieves all folders without a parent, ordered by path
func (r *FolderRepository) ListRoots() ([]models.Folder, error) {
	var folders []models.Folder
	err := r.DB.Where("parent_id IS NULL").Order("path ASC, name ASC").Find(&folders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list root folders: %w", err)
	}
	return folders, nil
}

// ListSubfolders retrieves the direct children of a folder
func (r *FolderRepository) ListSubfolders(id uint) ([]models.Folder, error) {
	if _, err := r.GetByID(id); err != nil {
		return nil, err
	}
	var folders []models.Folder
	err := r.DB.Where("parent_id = ?", id).Order("name ASC").Find(&folders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subfolders of %d: %w", id, err)
	}
	return folders, nil
}

// ListSubfoldersRecursive retrieves every descendant of a folder, breadth first
func (r *FolderRepository) ListSubfoldersRecursive(id uint) ([]models.Folder, error) {
	if _, err := r.GetByID(id); err != nil {
		return nil, err
	}
	var result []models.Folder
	frontier := []uint{id}
	for len(frontier) > 0 {
		var level []models.Folder
		if err := r.DB.Where("parent_id IN ?", frontier).Order("id ASC").Find(&level).Error; err != nil {
			return nil, fmt.Errorf("failed to list subfolders of %v: %w", frontier, err)
		}
		frontier = frontier[:0]
		for _, f := range level {
			frontier = append(frontier, f.ID)
		}
		result = append(result, level...)
	}
	return result, nil
}

// Delete removes a folder together with its subfolders and their clips
func (r *FolderRepository) Delete(id uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Folder{}, id).Error; err != nil {
			return err
		}
		ids, err := folderTreeIDs(tx, []uint{id})
		if err != nil {
			return err
		}
		var clipIDs []uint
		if err := tx.Model(&models.Clip{}).Where("folder_id IN ?", ids).Pluck("id", &clipIDs).Error; err != nil {
			return err
		}
		if err := deleteClips(tx, clipIDs); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM project_folders WHERE folder_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Folder{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete folder ID %d: %w", id, err)
	}
	return nil
}

// folderTreeIDs returns the given folder ids and all of their descendants
func folderTreeIDs(tx *gorm.DB, roots []uint) ([]uint, error) {
	ids := append([]uint(nil), roots...)
	frontier := roots
	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&models.Folder{}).Where("parent_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
			return nil, fmt.Errorf("failed to walk folder tree: %w", err)
		}
		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}
