package handlers

import (
	"errors"
	"net/http"

	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/realtime"
	"github.com/camden-git/clipcatalog/repository"
)

// ClipJobQueue accepts background work for clips
type ClipJobQueue interface {
	QueueThumbnail(clipID uint) bool
	QueueDetection(req realtime.DetectionRequest) bool
}

type ClipHandler struct {
	Clips      repository.ClipRepositoryInterface
	Cameras    repository.CameraRepositoryInterface
	Detections repository.DetectionRepositoryInterface
	Jobs       ClipJobQueue
}

func NewClipHandler(clips repository.ClipRepositoryInterface, cameras repository.CameraRepositoryInterface, detections repository.DetectionRepositoryInterface, jobs ClipJobQueue) *ClipHandler {
	return &ClipHandler{Clips: clips, Cameras: cameras, Detections: detections, Jobs: jobs}
}

type clipResponse struct {
	models.Clip
	FilePath string `json:"file_path"`
}

func (h *ClipHandler) GetClip(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "clipID")
	if !ok {
		return
	}
	clip, err := h.Clips.GetByID(id)
	if err != nil {
		writeServiceError(w, "get clip", err)
		return
	}
	resp := clipResponse{Clip: *clip}
	if clip.Folder != nil {
		resp.FilePath = clip.FilePath(*clip.Folder)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ClipHandler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "clipID")
	if !ok {
		return
	}
	if err := h.Clips.Delete(id); err != nil {
		writeServiceError(w, "delete clip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClipHandler) ListDuplicates(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "clipID")
	if !ok {
		return
	}
	clips, err := h.Clips.ListDuplicates(id)
	if err != nil {
		writeServiceError(w, "list duplicate clips", err)
		return
	}
	writeJSON(w, http.StatusOK, clips)
}

func (h *ClipHandler) ListOverlapping(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "clipID")
	if !ok {
		return
	}
	clips, err := h.Clips.ListOverlapping(id)
	if err != nil {
		writeServiceError(w, "list overlapping clips", err)
		return
	}
	writeJSON(w, http.StatusOK, clips)
}

// RequestThumbnail queues a poster regeneration for the clip
func (h *ClipHandler) RequestThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "clipID")
	if !ok {
		return
	}
	if _, err := h.Clips.GetByID(id); err != nil {
		writeServiceError(w, "get clip", err)
		return
	}
	if !h.Jobs.QueueThumbnail(id) {
		WriteAPIError(w, http.StatusConflict, CodeUnavailable, "Thumbnail generation already pending or queue full")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"clip_id": id, "task": "thumbnail"})
}

func (h *ClipHandler) ListDetections(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "clipID")
	if !ok {
		return
	}
	if _, err := h.Clips.GetByID(id); err != nil {
		writeServiceError(w, "get clip", err)
		return
	}
	runs, err := h.Detections.ListByClip(id)
	if err != nil {
		writeServiceError(w, "list detection runs", err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// RequestDetection queues a detection run. Body: {"sample_rate", "start_offset", "end_offset"}.
func (h *ClipHandler) RequestDetection(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "clipID")
	if !ok {
		return
	}
	var req realtime.DetectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ClipID = id
	if err := req.Validate(); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeInvalidInput, err.Error())
		return
	}
	if _, err := h.Clips.GetByID(id); err != nil {
		writeServiceError(w, "get clip", err)
		return
	}
	if !h.Jobs.QueueDetection(req) {
		WriteAPIError(w, http.StatusConflict, CodeUnavailable, "Detection already pending or queue full")
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

func (h *ClipHandler) GetDetection(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "detectionID")
	if !ok {
		return
	}
	run, err := h.Detections.GetByID(id)
	if err != nil {
		writeServiceError(w, "get detection run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ListObjects returns a run's objects, filtered by ?classes=a,b and an RFC 3339 ?start=&end= range
func (h *ClipHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "detectionID")
	if !ok {
		return
	}
	from, err := parseTimeParam(r, "start")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	to, err := parseTimeParam(r, "end")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	objects, err := h.Detections.GetObjects(id, parseList(r.URL.Query().Get("classes")), from, to)
	if err != nil {
		writeServiceError(w, "list detected objects", err)
		return
	}
	writeJSON(w, http.StatusOK, objects)
}

func (h *ClipHandler) CountObjects(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "detectionID")
	if !ok {
		return
	}
	counts, err := h.Detections.CountObjectsByClass(id)
	if err != nil {
		writeServiceError(w, "count detected objects", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *ClipHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.Detections.ListClasses()
	if err != nil {
		writeServiceError(w, "list object classes", err)
		return
	}
	if classes == nil {
		classes = []models.ObjectClass{}
	}
	writeJSON(w, http.StatusOK, classes)
}

func (h *ClipHandler) ListCameras(w http.ResponseWriter, r *http.Request) {
	cameras, err := h.Cameras.ListAll()
	if err != nil {
		writeServiceError(w, "list cameras", err)
		return
	}
	if cameras == nil {
		cameras = []models.Camera{}
	}
	writeJSON(w, http.StatusOK, cameras)
}

func (h *ClipHandler) GetCamera(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "cameraID")
	if !ok {
		return
	}
	camera, err := h.Cameras.GetByID(id)
	if err != nil {
		writeServiceError(w, "get camera", err)
		return
	}
	writeJSON(w, http.StatusOK, camera)
}

// DeleteCamera answers 409 camera_in_use while clips still reference the camera
func (h *ClipHandler) DeleteCamera(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "cameraID")
	if !ok {
		return
	}
	if err := h.Cameras.Delete(id); err != nil {
		if errors.Is(err, repository.ErrCameraInUse) {
			WriteAPIError(w, http.StatusConflict, CodeCameraInUse, "Camera still has clips")
			return
		}
		writeServiceError(w, "delete camera", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
