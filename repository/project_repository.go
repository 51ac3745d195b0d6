package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/clipcatalog/models"
	"gorm.io/gorm"
)

// ProjectRepository handles database operations for Project entities
type ProjectRepository struct {
	DB *gorm.DB
}

// NewProjectRepository creates a new instance of ProjectRepository
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

// Create creates a project and its default filter
func (r *ProjectRepository) Create(name string) (*models.Project, error) {
	now := time.Now().Unix()
	project := models.Project{Name: name, CreatedAt: now, UpdatedAt: now}

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		filter := models.NewFilter(project.ID)
		filter.CreatedAt = now
		filter.UpdatedAt = now
		if err := tx.Create(filter).Error; err != nil {
			return err
		}
		project.Filters = []models.Filter{*filter}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project %s: %w", name, err)
	}
	return &project, nil
}

// GetByID retrieves a project by its ID
func (r *ProjectRepository) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	err := r.DB.First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get project by ID %d: %w", id, err)
	}
	return &project, nil
}

// ListAll retrieves all projects, ordered by name
func (r *ProjectRepository) ListAll() ([]models.Project, error) {
	var projects []models.Project
	err := r.DB.Order("name ASC, id ASC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Rename changes a project's name
func (r *ProjectRepository) Rename(id uint, name string) error {
	result := r.DB.Model(&models.Project{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":       name,
		"updated_at": time.Now().Unix(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to rename project ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a project, its filters and its folder associations.
// Folders and clips are left untouched.
func (r *ProjectRepository) Delete(id uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Project{}, id).Error; err != nil {
			return err
		}
		var filterIDs []uint
		if err := tx.Model(&models.Filter{}).Where("project_id = ?", id).Pluck("id", &filterIDs).Error; err != nil {
			return err
		}
		if err := deleteFilters(tx, filterIDs); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM project_folders WHERE project_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete project ID %d: %w", id, err)
	}
	return nil
}

// AddFolder associates a folder with a project. Nothing happens when the
// folder or one of its ancestors is already associated; associated
// descendants of the folder are replaced by it.
func (r *ProjectRepository) AddFolder(projectID, folderID uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		project := models.Project{ID: projectID}
		if err := tx.First(&project).Error; err != nil {
			return err
		}
		folder := models.Folder{ID: folderID}
		if err := tx.First(&folder).Error; err != nil {
			return err
		}

		var associated []models.Folder
		if err := tx.Model(&project).Association("Folders").Find(&associated); err != nil {
			return err
		}
		for _, f := range associated {
			subtree, err := folderTreeIDs(tx, []uint{f.ID})
			if err != nil {
				return err
			}
			if containsID(subtree, folderID) {
				return nil
			}
		}

		newSubtree, err := folderTreeIDs(tx, []uint{folderID})
		if err != nil {
			return err
		}
		for _, f := range associated {
			if containsID(newSubtree, f.ID) {
				if err := tx.Exec("DELETE FROM project_folders WHERE project_id = ? AND folder_id = ?", projectID, f.ID).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Exec("INSERT INTO project_folders (project_id, folder_id) VALUES (?, ?)", projectID, folderID).Error; err != nil {
			return err
		}
		return tx.Model(&project).Update("updated_at", time.Now().Unix()).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to add folder %d to project %d: %w", folderID, projectID, err)
	}
	return nil
}

// RemoveFolder drops a folder association from a project
func (r *ProjectRepository) RemoveFolder(projectID, folderID uint) error {
	if _, err := r.GetByID(projectID); err != nil {
		return err
	}
	result := r.DB.Exec("DELETE FROM project_folders WHERE project_id = ? AND folder_id = ?", projectID, folderID)
	if result.Error != nil {
		return fmt.Errorf("failed to remove folder %d from project %d: %w", folderID, projectID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFolders retrieves the folders directly associated with a project
func (r *ProjectRepository) ListFolders(projectID uint) ([]models.Folder, error) {
	project, err := r.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	var folders []models.Folder
	if err := r.DB.Model(project).Order("folders.id ASC").Association("Folders").Find(&folders); err != nil {
		return nil, fmt.Errorf("failed to list folders of project %d: %w", projectID, err)
	}
	return folders, nil
}

// projectFolderTree returns the ids of every folder reachable from the project's associations
func projectFolderTree(tx *gorm.DB, projectID uint) ([]uint, error) {
	if err := tx.First(&models.Project{}, projectID).Error; err != nil {
		return nil, err
	}
	var roots []uint
	if err := tx.Table("project_folders").Where("project_id = ?", projectID).Pluck("folder_id", &roots).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders of project %d: %w", projectID, err)
	}
	if len(roots) == 0 {
		return nil, nil
	}
	return folderTreeIDs(tx, roots)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
