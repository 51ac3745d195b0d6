package services

import (
	"sort"

	"github.com/camden-git/clipcatalog/models"
)

// ClipSource lists the clips reachable from a project's folders, with camera
// and resolution loaded
type ClipSource interface {
	ListInProject(projectID uint) ([]models.Clip, error)
}

// DetectionSource lists the detection runs of a clip, with objects and their
// classes loaded
type DetectionSource interface {
	ListByClip(clipID uint) ([]models.ObjectDetection, error)
}

// ClipMatches decides whether clip passes the filter. runs are the clip's
// detection runs; they are only consulted when the filter requires classes.
//
// Checks run in order and stop at the first decisive one: exclusion, then
// inclusion, then time window (only when both bounds are set), resolution whitelist, areas and classes.
func ClipMatches(f *models.Filter, clip *models.Clip, runs []models.ObjectDetection) bool {
	if containsClip(f.ExcludedClips, clip.ID) {
		return false
	}
	if containsClip(f.IncludedClips, clip.ID) {
		return true
	}

	if f.Bounded() && !clip.Span().Overlaps(f.Window()) {
		return false
	}

	if len(f.WhitelistedResolutions) > 0 {
		if clip.Resolution == nil || !resolutionWhitelisted(f.WhitelistedResolutions, *clip.Resolution) {
			return false
		}
	}

	if len(f.Areas) > 0 {
		if clip.Camera == nil || !inAnyArea(f.Areas, *clip.Camera) {
			return false
		}
	}

	if len(f.Classes) > 0 {
		return hasAllClasses(f, runs)
	}
	return true
}

// MatchingClips returns the project's clips that pass the filter, sorted by
// id. A non-empty cameraIDs restricts the candidates to those cameras first.
func MatchingClips(f *models.Filter, clips ClipSource, detections DetectionSource, cameraIDs []uint) ([]models.Clip, error) {
	candidates, err := clips.ListInProject(f.ProjectID)
	if err != nil {
		return nil, err
	}

	var cameras map[uint]bool
	if len(cameraIDs) > 0 {
		cameras = make(map[uint]bool, len(cameraIDs))
		for _, id := range cameraIDs {
			cameras[id] = true
		}
	}

	matched := []models.Clip{}
	for i := range candidates {
		clip := &candidates[i]
		if cameras != nil && !cameras[clip.CameraID] {
			continue
		}
		var runs []models.ObjectDetection
		if len(f.Classes) > 0 {
			runs, err = detections.ListByClip(clip.ID)
			if err != nil {
				return nil, err
			}
		}
		if ClipMatches(f, clip, runs) {
			matched = append(matched, *clip)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

// CameraIDs returns the distinct camera ids of clips, ascending
func CameraIDs(clips []models.Clip) []uint {
	seen := make(map[uint]bool)
	ids := []uint{}
	for _, c := range clips {
		if !seen[c.CameraID] {
			seen[c.CameraID] = true
			ids = append(ids, c.CameraID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func containsClip(clips []models.Clip, id uint) bool {
	for _, c := range clips {
		if c.ID == id {
			return true
		}
	}
	return false
}

func resolutionWhitelisted(whitelist []models.Resolution, res models.Resolution) bool {
	for _, w := range whitelist {
		if w.SameSize(res) {
			return true
		}
	}
	return false
}

func inAnyArea(areas []models.Area, camera models.Camera) bool {
	for _, a := range areas {
		if a.IsWithin(camera.Longitude, camera.Latitude) {
			return true
		}
	}
	return false
}

// hasAllClasses reports whether every required class was observed. With a
// bounded window only runs overlapping it count.
func hasAllClasses(f *models.Filter, runs []models.ObjectDetection) bool {
	wanted := make(map[string]bool, len(f.Classes))
	for _, name := range f.ClassNames() {
		wanted[name] = true
	}
	bounded, window := f.Bounded(), f.Window()
	observed := make(map[string]bool, len(wanted))
	for _, run := range runs {
		if bounded && !run.Span().Overlaps(window) {
			continue
		}
		for _, obj := range run.Objects {
			if name := obj.ClassName(); wanted[name] {
				observed[name] = true
			}
		}
	}
	return len(observed) == len(wanted)
}
