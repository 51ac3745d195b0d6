package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/clipcatalog/media"
)

// API bundles everything mounted under /api
type API struct {
	Projects *ProjectHandler
	Folders  *FolderHandler
	Clips    *ClipHandler
	Filters  *FilterHandler
	Assets   media.Store
	// websocket endpoint; nil leaves /ws unrouted
	Events http.HandlerFunc
}

// Routes builds the /api sub-router
func (a API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", a.Projects.ListProjects)
		r.Post("/", a.Projects.CreateProject)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", a.Projects.GetProject)
			r.Patch("/", a.Projects.RenameProject)
			r.Delete("/", a.Projects.DeleteProject)
			r.Get("/folders", a.Projects.ListFolders)
			r.Post("/folders", a.Projects.AddFolder)
			r.Delete("/folders/{folderID}", a.Projects.RemoveFolder)
			r.Get("/clips", a.Projects.ListClips)
			r.Get("/cameras", a.Projects.ListCameras)
			r.Get("/resolutions", a.Filters.ListResolutions)
			r.Get("/filters", a.Projects.ListFilters)
		})
	})

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", a.Folders.ListRootFolders)
		r.Post("/", a.Folders.ImportFolder)
		r.Route("/{folderID}", func(r chi.Router) {
			r.Get("/", a.Folders.GetFolder)
			r.Delete("/", a.Folders.DeleteFolder)
			r.Get("/subfolders", a.Folders.ListSubfolders)
			r.Get("/clips", a.Folders.ListClips)
		})
	})

	r.Route("/clips/{clipID}", func(r chi.Router) {
		r.Get("/", a.Clips.GetClip)
		r.Delete("/", a.Clips.DeleteClip)
		r.Get("/duplicates", a.Clips.ListDuplicates)
		r.Get("/overlapping", a.Clips.ListOverlapping)
		r.Post("/thumbnail", a.Clips.RequestThumbnail)
		r.Get("/detections", a.Clips.ListDetections)
		r.Post("/detections", a.Clips.RequestDetection)
	})

	r.Route("/detections/{detectionID}", func(r chi.Router) {
		r.Get("/", a.Clips.GetDetection)
		r.Get("/objects", a.Clips.ListObjects)
		r.Get("/counts", a.Clips.CountObjects)
	})
	r.Get("/classes", a.Clips.ListClasses)

	r.Route("/cameras", func(r chi.Router) {
		r.Get("/", a.Clips.ListCameras)
		r.Get("/{cameraID}", a.Clips.GetCamera)
		r.Delete("/{cameraID}", a.Clips.DeleteCamera)
	})

	r.Route("/filters/{filterID}", func(r chi.Router) {
		r.Get("/", a.Filters.GetFilter)
		r.Patch("/", a.Filters.ModifyFilter)
		r.Get("/matching_clips", a.Filters.MatchingClips)
		r.Get("/export", a.Filters.ExportFilter)
		r.Post("/areas", a.Filters.AddArea)
		r.Delete("/areas/{areaID}", a.Filters.RemoveArea)
	})
	r.Post("/areas", a.Filters.CreateArea)

	if a.Assets != nil {
		r.Get("/assets/*", AssetServer(a.Assets))
	}
	if a.Events != nil {
		r.Get("/ws", a.Events)
	}
	return r
}
