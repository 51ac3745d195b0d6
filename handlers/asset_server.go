package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/clipcatalog/media"
)

// AssetServer serves generated assets (thumbnails, exports) out of the media
// store. It must be mounted on a wildcard route; the wildcard is the
// store-relative path, e.g.
//
//	r.Get("/assets/*", AssetServer(store))
//
// answers /api/assets/thumbnails/<uuid>.jpg.
func AssetServer(store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := chi.URLParam(r, "*")
		if relativePath == "" {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid asset path")
			return
		}

		fullPath, err := store.GetFullPath(relativePath)
		if err != nil {
			WriteAPIError(w, http.StatusForbidden, CodeBadRequest, "Forbidden")
			log.Printf("SECURITY: Attempted asset access outside media store: Request='%s': %v", r.URL.Path, err)
			return
		}

		info, err := os.Stat(fullPath)
		if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Asset not found")
			return
		} else if err != nil {
			WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
			log.Printf("Error stating asset file %s: %v", fullPath, err)
			return
		}

		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, fullPath)
	}
}
