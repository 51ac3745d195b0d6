package database

import (
	"testing"
	"time"

	"github.com/camden-git/clipcatalog/models"
)

func names(clips []models.Clip) []string {
	out := make([]string, len(clips))
	for i, c := range clips {
		out[i] = c.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortClips(t *testing.T) {
	base := time.Date(2020, 1, 17, 0, 0, 0, 0, time.UTC)
	clips := func() []models.Clip {
		return []models.Clip{
			{ID: 1, Name: "clip10", VideoFormat: "mp4", StartTime: base.Add(time.Hour)},
			{ID: 2, Name: "clip2", VideoFormat: "mp4", StartTime: base},
			{ID: 3, Name: "clip1", VideoFormat: "mp4", StartTime: base.Add(2 * time.Hour)},
		}
	}

	tests := []struct {
		order string
		want  []string
	}{
		{SortFilenameAsc, []string{"clip1", "clip10", "clip2"}},
		{SortFilenameNat, []string{"clip1", "clip2", "clip10"}},
		{SortDateAsc, []string{"clip2", "clip10", "clip1"}},
		{SortDateDesc, []string{"clip1", "clip10", "clip2"}},
		{"nonsense", []string{"clip1", "clip10", "clip2"}},
	}
	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			c := clips()
			SortClips(c, tt.order)
			if got := names(c); !equal(got, tt.want) {
				t.Errorf("SortClips(%s) = %v, want %v", tt.order, got, tt.want)
			}
		})
	}
}

func TestIsValidSortOrder(t *testing.T) {
	if !IsValidSortOrder(SortFilenameNat) {
		t.Error("filename_nat should be valid")
	}
	if IsValidSortOrder("size_desc") {
		t.Error("size_desc should be invalid")
	}
}
