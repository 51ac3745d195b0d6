package handlers

import (
	"net/http"

	"github.com/camden-git/clipcatalog/services"
)

type FilterHandler struct {
	Filters *services.FilterService
}

func NewFilterHandler(filters *services.FilterService) *FilterHandler {
	return &FilterHandler{Filters: filters}
}

type areaPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius"`
}

func (p areaPayload) complete() bool {
	return p.Latitude != nil && p.Longitude != nil && p.Radius != nil
}

func (h *FilterHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "filterID")
	if !ok {
		return
	}
	view, err := h.Filters.GetFilter(id)
	if err != nil {
		writeServiceError(w, "get filter", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ModifyFilter applies a partial update. A key that is absent leaves the
// criterion alone, an explicit null resets it to its default.
func (h *FilterHandler) ModifyFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "filterID")
	if !ok {
		return
	}
	var req services.ModifyFilterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Filters.ModifyFilter(id, req); err != nil {
		writeServiceError(w, "modify filter", err)
		return
	}
	h.GetFilter(w, r)
}

// MatchingClips lists the ids of clips passing the filter, optionally only
// those recorded by ?camera_ids=1,2
func (h *FilterHandler) MatchingClips(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "filterID")
	if !ok {
		return
	}
	cameraIDs, err := parseIDList(r.URL.Query().Get("camera_ids"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	result, err := h.Filters.GetMatchingClips(id, cameraIDs)
	if err != nil {
		writeServiceError(w, "match clips", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportFilter returns the export document; ?save=true also stores it and
// reports the asset path in the X-Export-Path header
func (h *FilterHandler) ExportFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "filterID")
	if !ok {
		return
	}
	export, path, err := h.Filters.ExportFilter(id, queryBool(r, "save"))
	if err != nil {
		writeServiceError(w, "export filter", err)
		return
	}
	if path != "" {
		w.Header().Set("X-Export-Path", path)
	}
	writeJSON(w, http.StatusOK, export)
}

func (h *FilterHandler) AddArea(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "filterID")
	if !ok {
		return
	}
	var req areaPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.complete() {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required fields: latitude, longitude and radius")
		return
	}
	area, err := h.Filters.AddAreaToFilter(id, *req.Latitude, *req.Longitude, *req.Radius)
	if err != nil {
		writeServiceError(w, "add area to filter", err)
		return
	}
	writeJSON(w, http.StatusCreated, area)
}

func (h *FilterHandler) RemoveArea(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "filterID")
	if !ok {
		return
	}
	areaID, ok := urlID(w, r, "areaID")
	if !ok {
		return
	}
	if err := h.Filters.RemoveAreaFromFilter(id, areaID); err != nil {
		writeServiceError(w, "remove area from filter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateArea stores an area that is not yet attached to any filter
func (h *FilterHandler) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req areaPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.complete() {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required fields: latitude, longitude and radius")
		return
	}
	area, err := h.Filters.CreateArea(*req.Latitude, *req.Longitude, *req.Radius)
	if err != nil {
		writeServiceError(w, "create area", err)
		return
	}
	writeJSON(w, http.StatusCreated, area)
}

func (h *FilterHandler) ListResolutions(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	resolutions, err := h.Filters.ResolutionsInProject(id)
	if err != nil {
		writeServiceError(w, "list project resolutions", err)
		return
	}
	writeJSON(w, http.StatusOK, resolutions)
}
