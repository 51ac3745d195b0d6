package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm/logger"

	"github.com/camden-git/clipcatalog/database"
	"github.com/camden-git/clipcatalog/media"
	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/realtime"
	"github.com/camden-git/clipcatalog/repository"
	"github.com/camden-git/clipcatalog/services"
)

type fakeJobs struct {
	thumbnails []uint
	detections []realtime.DetectionRequest
}

func (f *fakeJobs) QueueThumbnail(clipID uint) bool {
	f.thumbnails = append(f.thumbnails, clipID)
	return true
}

func (f *fakeJobs) QueueDetection(req realtime.DetectionRequest) bool {
	f.detections = append(f.detections, req)
	return true
}

type fixedProber struct{}

func (fixedProber) Probe(string) (media.VideoInfo, error) {
	return media.VideoInfo{FrameRate: 10, FrameCount: 36000, Width: 640, Height: 480}, nil
}

type testServer struct {
	router  http.Handler
	folders *repository.FolderRepository
	clips   *repository.ClipRepository
	store   *media.LocalStorage
	jobs    *fakeJobs
	root    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	db, err := database.InitGormDB(database.DriverSQLite, filepath.Join(dir, "api.db"), logger.Silent)
	if err != nil {
		t.Fatalf("InitGormDB: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := media.NewLocalStorage(filepath.Join(dir, "media"), map[media.AssetType]string{
		media.AssetTypeThumbnail: "thumbnails",
		media.AssetTypeExport:    "exports",
	})
	if err != nil {
		t.Fatal(err)
	}

	folders := repository.NewFolderRepository(db)
	clips := repository.NewClipRepository(db)
	projects := repository.NewProjectRepository(db)
	filters := repository.NewFilterRepository(db)
	detections, err := repository.NewDetectionRepository(db, database.DriverSQLite)
	if err != nil {
		t.Fatal(err)
	}
	jobs := &fakeJobs{}

	filterService := services.NewFilterService(filters, repository.NewAreaRepository(db), clips, detections, folders, media.NewProcessor(store), nil)
	ingest := services.NewIngestService(folders, clips, fixedProber{}, nil, jobs, nil)
	root := filepath.Join(dir, "footage")

	api := API{
		Projects: NewProjectHandler(projects, clips, filters),
		Folders:  NewFolderHandler(folders, clips, ingest, root),
		Clips:    NewClipHandler(clips, repository.NewCameraRepository(db), detections, jobs),
		Filters:  NewFilterHandler(filterService),
		Assets:   store,
	}
	r := chi.NewRouter()
	r.Mount("/api", api.Routes())

	return &testServer{router: r, folders: folders, clips: clips, store: store, jobs: jobs, root: root}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp APIErrorResponse
	decode(t, rec, &resp)
	if len(resp.Errors) != 1 {
		t.Fatalf("error body = %s", rec.Body.String())
	}
	return resp.Errors[0].Code
}

// seed registers two clips of two cameras in one project and returns the
// project's default filter id and the clip ids
func (s *testServer) seed(t *testing.T) (projectID, filterID, clip1, clip2 uint) {
	t.Helper()
	root, err := s.folders.CreateRoot("/data", "cams")
	if err != nil {
		t.Fatal(err)
	}
	day := func(h int) time.Time { return time.Date(2020, 1, 17, h, 0, 0, 0, time.UTC) }
	c1, err := s.clips.Create(repository.ClipInput{FolderID: root.ID, Name: "clip1", VideoFormat: "mp4",
		StartTime: day(0), EndTime: day(1), CameraName: "A", Latitude: 10, Longitude: 20, Width: 300, Height: 200})
	if err != nil {
		t.Fatal(err)
	}
	c2, err := s.clips.Create(repository.ClipInput{FolderID: root.ID, Name: "clip2", VideoFormat: "mp4",
		StartTime: day(2), EndTime: day(3), CameraName: "B", Latitude: 50, Longitude: 60, Width: 400, Height: 500})
	if err != nil {
		t.Fatal(err)
	}

	rec := s.do(t, http.MethodPost, "/api/projects", `{"name": "Survey"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: %d %s", rec.Code, rec.Body.String())
	}
	var project models.Project
	decode(t, rec, &project)
	if len(project.Filters) != 1 {
		t.Fatalf("project filters = %+v", project.Filters)
	}

	rec = s.do(t, http.MethodPost, "/api/projects/"+itoa(project.ID)+"/folders", `{"folder_id": `+itoa(root.ID)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add folder: %d %s", rec.Code, rec.Body.String())
	}
	return project.ID, project.Filters[0].ID, c1.ID, c2.ID
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestProjectEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, http.MethodPost, "/api/projects", `{"name": "  "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("blank name: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/projects", `{"name":`); rec.Code != http.StatusBadRequest || errorCode(t, rec) != CodeBadRequest {
		t.Errorf("malformed body: %d", rec.Code)
	}

	projectID, _, _, _ := s.seed(t)
	path := "/api/projects/" + itoa(projectID)

	rec := s.do(t, http.MethodPatch, path, `{"name": "Renamed"}`)
	var project models.Project
	decode(t, rec, &project)
	if rec.Code != http.StatusOK || project.Name != "Renamed" {
		t.Errorf("rename: %d %+v", rec.Code, project)
	}

	var clips []models.Clip
	rec = s.do(t, http.MethodGet, path+"/clips?sort=date_desc", "")
	decode(t, rec, &clips)
	if len(clips) != 2 || clips[0].Name != "clip2" {
		t.Errorf("project clips = %+v", clips)
	}

	var cameras []models.Camera
	decode(t, s.do(t, http.MethodGet, path+"/cameras", ""), &cameras)
	if len(cameras) != 2 {
		t.Errorf("project cameras = %+v", cameras)
	}
	var resolutions []models.Resolution
	decode(t, s.do(t, http.MethodGet, path+"/resolutions", ""), &resolutions)
	if len(resolutions) != 2 {
		t.Errorf("project resolutions = %+v", resolutions)
	}

	if rec := s.do(t, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, path, ""); rec.Code != http.StatusNotFound || errorCode(t, rec) != CodeNotFound {
		t.Errorf("deleted project: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/projects/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: %d", rec.Code)
	}
}

func TestFilterEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, filterID, clip1, clip2 := s.seed(t)
	path := "/api/filters/" + itoa(filterID)

	var result services.MatchResult
	decode(t, s.do(t, http.MethodGet, path+"/matching_clips", ""), &result)
	if len(result.ClipIDs) != 2 {
		t.Fatalf("default match = %+v", result)
	}

	rec := s.do(t, http.MethodPatch, path, `{"start_time": "2020-01-17T02:00:00Z", "end_time": "2020-01-17T03:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("modify: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, s.do(t, http.MethodGet, path+"/matching_clips", ""), &result)
	if len(result.ClipIDs) != 1 || result.ClipIDs[0] != clip2 {
		t.Errorf("windowed match = %+v", result)
	}

	// explicit null resets, absent keys are untouched
	rec = s.do(t, http.MethodPatch, path, `{"start_time": null, "included_clips": [`+itoa(clip1)+`]}`)
	var view struct {
		StartTime     time.Time `json:"start_time"`
		EndTime       time.Time `json:"end_time"`
		IncludedClips []uint    `json:"included_clips"`
	}
	decode(t, rec, &view)
	if !view.StartTime.Equal(models.MinFilterTime) || !view.EndTime.Equal(time.Date(2020, 1, 17, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("window after partial reset = %v..%v", view.StartTime, view.EndTime)
	}
	if len(view.IncludedClips) != 1 || view.IncludedClips[0] != clip1 {
		t.Errorf("included clips = %v", view.IncludedClips)
	}

	rec = s.do(t, http.MethodPatch, path, `{"start_time": "2020-01-18T00:00:00Z"}`)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != CodeInvalidFilter {
		t.Errorf("reversed window: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPatch, path, `{"excluded_clips": [999]}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown clip id: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/filters/999", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown filter: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, path+"/matching_clips?camera_ids=1,x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad camera ids: %d", rec.Code)
	}
}

func TestAreaEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, filterID, _, clip2 := s.seed(t)
	path := "/api/filters/" + itoa(filterID)

	if rec := s.do(t, http.MethodPost, "/api/areas", `{"latitude": 1, "longitude": 2}`); rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete area: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/areas", `{"latitude": 1, "longitude": 2, "radius": -1}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative radius: %d", rec.Code)
	}

	rec := s.do(t, http.MethodPost, path+"/areas", `{"latitude": 10, "longitude": 20, "radius": 1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add area: %d %s", rec.Code, rec.Body.String())
	}
	var area models.Area
	decode(t, rec, &area)

	var result services.MatchResult
	decode(t, s.do(t, http.MethodGet, path+"/matching_clips", ""), &result)
	if len(result.ClipIDs) != 1 || result.ClipIDs[0] != clip2 {
		t.Errorf("match with area = %+v", result)
	}

	var export services.FilterExport
	rec = s.do(t, http.MethodGet, path+"/export?save=true", "")
	decode(t, rec, &export)
	if len(export.Areas) != 1 || len(export.Clips) != 1 || export.Clips[0].FilePath != "/data/cams/clip2.mp4" {
		t.Errorf("export = %+v", export)
	}
	saved := rec.Header().Get("X-Export-Path")
	if !strings.HasPrefix(saved, "exports/") {
		t.Fatalf("export path header = %q", saved)
	}
	if rec := s.do(t, http.MethodGet, "/api/assets/"+saved, ""); rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("clip2.mp4")) {
		t.Errorf("serving saved export: %d", rec.Code)
	}

	if rec := s.do(t, http.MethodDelete, path+"/areas/"+itoa(area.ID), ""); rec.Code != http.StatusNoContent {
		t.Errorf("remove area: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, path+"/areas/"+itoa(area.ID), ""); rec.Code != http.StatusNotFound {
		t.Errorf("remove detached area: %d", rec.Code)
	}
}

func TestClipAndCameraEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, _, clip1, _ := s.seed(t)
	path := "/api/clips/" + itoa(clip1)

	var clip struct {
		models.Clip
		FilePath string `json:"file_path"`
	}
	decode(t, s.do(t, http.MethodGet, path, ""), &clip)
	if clip.FilePath != "/data/cams/clip1.mp4" || clip.Camera == nil || clip.Camera.Name != "A" {
		t.Errorf("clip = %+v", clip)
	}

	rec := s.do(t, http.MethodPost, path+"/detections", `{"sample_rate": 2, "start_offset": 10, "end_offset": 5}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("reversed offsets: %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, path+"/detections", `{"sample_rate": 2, "start_offset": 10}`)
	if rec.Code != http.StatusAccepted || len(s.jobs.detections) != 1 || s.jobs.detections[0].ClipID != clip1 {
		t.Errorf("queue detection: %d %+v", rec.Code, s.jobs.detections)
	}
	if rec := s.do(t, http.MethodPost, "/api/clips/999/detections", `{}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown clip: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, path+"/thumbnail", ""); rec.Code != http.StatusAccepted || len(s.jobs.thumbnails) != 1 {
		t.Errorf("queue thumbnail: %d", rec.Code)
	}

	var runs []models.ObjectDetection
	decode(t, s.do(t, http.MethodGet, path+"/detections", ""), &runs)
	if len(runs) != 0 {
		t.Errorf("runs = %+v", runs)
	}

	cameraPath := "/api/cameras/" + itoa(clip.CameraID)
	if rec := s.do(t, http.MethodDelete, cameraPath, ""); rec.Code != http.StatusConflict || errorCode(t, rec) != CodeCameraInUse {
		t.Errorf("delete used camera: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete clip: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, cameraPath, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete unused camera: %d %s", rec.Code, rec.Body.String())
	}
}

func TestImportFolderEndpoint(t *testing.T) {
	s := newTestServer(t)
	dir := filepath.Join(s.root, "day1")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gate.mp4"), []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gate.mp4.txt"), []byte("(55.7, 13.2)\n(2020-01-17 06:00:00)\n(Gate)\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if rec := s.do(t, http.MethodPost, "/api/folders", `{"path": "../elsewhere"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("escaping path: %d", rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/folders", `{"path": "day1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", rec.Code, rec.Body.String())
	}
	var result services.IngestResult
	decode(t, rec, &result)
	if len(result.ClipIDs) != 1 || len(s.jobs.thumbnails) != 1 {
		t.Fatalf("import result = %+v, thumbnails %v", result, s.jobs.thumbnails)
	}

	var clips []models.Clip
	decode(t, s.do(t, http.MethodGet, "/api/folders/"+itoa(result.RootFolderID)+"/clips?sort=filename_nat", ""), &clips)
	if len(clips) != 1 || clips[0].EndTime.Sub(clips[0].StartTime) != time.Hour {
		t.Errorf("clips = %+v", clips)
	}
	if rec := s.do(t, http.MethodGet, "/api/folders/"+itoa(result.RootFolderID)+"/clips?sort=random", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid sort: %d", rec.Code)
	}

	var roots []models.Folder
	decode(t, s.do(t, http.MethodGet, "/api/folders", ""), &roots)
	if len(roots) != 1 || roots[0].Name != "day1" {
		t.Errorf("roots = %+v", roots)
	}
}

func TestAssetServerRejectsTraversal(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/api/assets/../../etc/passwd", ""); rec.Code != http.StatusForbidden {
		t.Errorf("traversal: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/assets/thumbnails/missing.jpg", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset: %d", rec.Code)
	}
}
