package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/camden-git/clipcatalog/database"
	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/repository"
	"github.com/camden-git/clipcatalog/services"
)

type FolderHandler struct {
	Folders repository.FolderRepositoryInterface
	Clips   repository.ClipRepositoryInterface
	Ingest  *services.IngestService
	// relative import paths are resolved against RootDirectory
	RootDirectory string
}

func NewFolderHandler(folders repository.FolderRepositoryInterface, clips repository.ClipRepositoryInterface, ingest *services.IngestService, rootDirectory string) *FolderHandler {
	return &FolderHandler{Folders: folders, Clips: clips, Ingest: ingest, RootDirectory: rootDirectory}
}

// ImportFolder registers a directory tree and its clips. The request body is
// {"path": "..."}; a relative path is taken from the configured root directory.
func (h *FolderHandler) ImportFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required field: path")
		return
	}
	path := filepath.Clean(req.Path)
	if !filepath.IsAbs(path) {
		if strings.HasPrefix(path, "..") {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "path must not leave the root directory")
			return
		}
		path = filepath.Join(h.RootDirectory, path)
	}

	result, err := h.Ingest.BuildFileStructure(path)
	if err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeInvalidInput, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *FolderHandler) ListRootFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.Folders.ListRoots()
	if err != nil {
		writeServiceError(w, "list folders", err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "folderID")
	if !ok {
		return
	}
	folder, err := h.Folders.GetByID(id)
	if err != nil {
		writeServiceError(w, "get folder", err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// ListSubfolders returns direct children, or every descendant with ?recursive=true
func (h *FolderHandler) ListSubfolders(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "folderID")
	if !ok {
		return
	}
	var folders []models.Folder
	var err error
	if queryBool(r, "recursive") {
		folders, err = h.Folders.ListSubfoldersRecursive(id)
	} else {
		folders, err = h.Folders.ListSubfolders(id)
	}
	if err != nil {
		writeServiceError(w, "list subfolders", err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

// ListClips lists the folder's clips (?recursive=true for the whole subtree) ordered by ?sort=
func (h *FolderHandler) ListClips(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "folderID")
	if !ok {
		return
	}
	sortOrder := r.URL.Query().Get("sort")
	if sortOrder != "" && !database.IsValidSortOrder(sortOrder) {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid sort order '"+sortOrder+"'")
		return
	}
	var clips []models.Clip
	var err error
	if queryBool(r, "recursive") {
		clips, err = h.Clips.ListByFolderRecursive(id)
	} else {
		clips, err = h.Clips.ListByFolder(id)
	}
	if err != nil {
		writeServiceError(w, "list folder clips", err)
		return
	}
	database.SortClips(clips, sortOrder)
	writeJSON(w, http.StatusOK, clips)
}

func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "folderID")
	if !ok {
		return
	}
	if err := h.Folders.Delete(id); err != nil {
		writeServiceError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
