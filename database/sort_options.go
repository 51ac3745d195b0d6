package database

import (
	"sort"

	"github.com/facette/natsort"

	"github.com/camden-git/clipcatalog/models"
)

const (
	SortFilenameAsc = "filename_asc"
	SortFilenameNat = "filename_nat"
	SortDateDesc    = "date_desc"
	SortDateAsc     = "date_asc"
)

const DefaultSortOrder = SortFilenameAsc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortFilenameAsc, SortDateDesc, SortDateAsc, SortFilenameNat:
		return true
	default:
		return false
	}
}

// SortClips orders clips in place. Unknown orders use DefaultSortOrder.
func SortClips(clips []models.Clip, order string) {
	if !IsValidSortOrder(order) {
		order = DefaultSortOrder
	}
	sort.SliceStable(clips, func(i, j int) bool {
		a, b := clips[i], clips[j]
		switch order {
		case SortFilenameNat:
			if a.FileName() == b.FileName() {
				return a.ID < b.ID
			}
			return natsort.Compare(a.FileName(), b.FileName())
		case SortDateAsc:
			if a.StartTime.Equal(b.StartTime) {
				return a.ID < b.ID
			}
			return a.StartTime.Before(b.StartTime)
		case SortDateDesc:
			if a.StartTime.Equal(b.StartTime) {
				return a.ID < b.ID
			}
			return a.StartTime.After(b.StartTime)
		default:
			if a.FileName() == b.FileName() {
				return a.ID < b.ID
			}
			return a.FileName() < b.FileName()
		}
	})
}
