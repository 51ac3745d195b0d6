package handlers

import (
	"net/http"
	"strings"

	"github.com/camden-git/clipcatalog/database"
	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/repository"
)

type ProjectHandler struct {
	Projects repository.ProjectRepositoryInterface
	Clips    repository.ClipRepositoryInterface
	Filters  repository.FilterRepositoryInterface
}

func NewProjectHandler(projects repository.ProjectRepositoryInterface, clips repository.ClipRepositoryInterface, filters repository.FilterRepositoryInterface) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Clips: clips, Filters: filters}
}

type projectPayload struct {
	Name string `json:"name"`
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Projects.ListAll()
	if err != nil {
		writeServiceError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject creates a project together with its default filter
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required field: name")
		return
	}
	project, err := h.Projects.Create(req.Name)
	if err != nil {
		writeServiceError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	project, err := h.Projects.GetByID(id)
	if err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) RenameProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	var req projectPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required field: name")
		return
	}
	if err := h.Projects.Rename(id, req.Name); err != nil {
		writeServiceError(w, "rename project", err)
		return
	}
	project, err := h.Projects.GetByID(id)
	if err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	if err := h.Projects.Delete(id); err != nil {
		writeServiceError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	folders, err := h.Projects.ListFolders(id)
	if err != nil {
		writeServiceError(w, "list project folders", err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

// AddFolder associates {"folder_id": n} with the project
func (h *ProjectHandler) AddFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	var req struct {
		FolderID uint `json:"folder_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FolderID == 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required field: folder_id")
		return
	}
	if err := h.Projects.AddFolder(id, req.FolderID); err != nil {
		writeServiceError(w, "add folder to project", err)
		return
	}
	h.ListFolders(w, r)
}

func (h *ProjectHandler) RemoveFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	folderID, ok := urlID(w, r, "folderID")
	if !ok {
		return
	}
	if err := h.Projects.RemoveFolder(id, folderID); err != nil {
		writeServiceError(w, "remove folder from project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListClips returns every clip reachable from the project's folders, ordered by ?sort=
func (h *ProjectHandler) ListClips(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	clips, err := h.Clips.ListInProject(id)
	if err != nil {
		writeServiceError(w, "list project clips", err)
		return
	}
	database.SortClips(clips, r.URL.Query().Get("sort"))
	writeJSON(w, http.StatusOK, clips)
}

func (h *ProjectHandler) ListCameras(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	cameras, err := h.Clips.ListCamerasInProject(id)
	if err != nil {
		writeServiceError(w, "list project cameras", err)
		return
	}
	writeJSON(w, http.StatusOK, cameras)
}

func (h *ProjectHandler) ListFilters(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	if _, err := h.Projects.GetByID(id); err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	filters, err := h.Filters.ListByProject(id)
	if err != nil {
		writeServiceError(w, "list project filters", err)
		return
	}
	if filters == nil {
		filters = []models.Filter{}
	}
	writeJSON(w, http.StatusOK, filters)
}
