package models

import (
	"errors"
	"testing"
	"time"
)

func ts(hour int) time.Time {
	return time.Date(2020, 1, 17, hour, 0, 0, 0, time.UTC)
}

func TestCameraAbsorb(t *testing.T) {
	var cam Camera

	cam.Absorb(Span{Start: ts(2), End: ts(3)})
	if !cam.StartTime.Equal(ts(2)) || !cam.EndTime.Equal(ts(3)) {
		t.Fatalf("first absorb: got %v..%v, want %v..%v", cam.StartTime, cam.EndTime, ts(2), ts(3))
	}

	cam.Absorb(Span{Start: ts(0), End: ts(1)})
	if !cam.StartTime.Equal(ts(0)) || !cam.EndTime.Equal(ts(3)) {
		t.Errorf("earlier span: got %v..%v, want %v..%v", cam.StartTime, cam.EndTime, ts(0), ts(3))
	}

	cam.Absorb(Span{Start: ts(1), End: ts(5)})
	if !cam.StartTime.Equal(ts(0)) || !cam.EndTime.Equal(ts(5)) {
		t.Errorf("later span: got %v..%v, want %v..%v", cam.StartTime, cam.EndTime, ts(0), ts(5))
	}
}

func TestCameraAbsorbDoesNotAliasSpan(t *testing.T) {
	var cam Camera
	span := Span{Start: ts(1), End: ts(2)}
	cam.Absorb(span)
	span.Start = ts(0)
	if !cam.StartTime.Equal(ts(1)) {
		t.Errorf("camera start changed with caller's span: %v", cam.StartTime)
	}
}

func TestCameraValidateLocation(t *testing.T) {
	if err := (&Camera{Latitude: 55.7, Longitude: 13.2}).ValidateLocation(); err != nil {
		t.Errorf("valid location rejected: %v", err)
	}
	if err := (&Camera{Latitude: 91}).ValidateLocation(); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

// The containment test is inverted relative to its name: it holds for points
// at or beyond the radius and fails at the centre. This looks like an upstream
// defect, but existing filters were authored against it, so it is pinned here.
func TestAreaIsWithinInvertedPredicate(t *testing.T) {
	area := Area{Latitude: 10, Longitude: 20, Radius: 5}

	tests := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"at centre", 20, 10, false},
		{"inside nominal circle", 21, 11, false},
		{"on boundary", 23, 14, true},
		{"far outside", 80, 60, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := area.IsWithin(tt.lon, tt.lat); got != tt.want {
				t.Errorf("IsWithin(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestAreaValidate(t *testing.T) {
	if err := (Area{Latitude: 1, Longitude: 1, Radius: 0}).Validate(); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("expected ErrInvalidRadius, got %v", err)
	}
	if err := (Area{Latitude: 100, Longitude: 1, Radius: 1}).Validate(); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestNewFilterDefaults(t *testing.T) {
	f := NewFilter(7)
	if f.ProjectID != 7 {
		t.Errorf("ProjectID = %d, want 7", f.ProjectID)
	}
	if f.Bounded() {
		t.Error("default filter reports a bounded window")
	}
	if f.MinFrameRate != 0 {
		t.Errorf("MinFrameRate = %v, want 0", f.MinFrameRate)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("default filter invalid: %v", err)
	}

	f.EndTime = ts(3)
	if f.Bounded() {
		t.Error("filter with only an end bound reports bounded")
	}
	f.EndTime, f.StartTime = MaxFilterTime, ts(1)
	if f.Bounded() {
		t.Error("filter with only a start bound reports bounded")
	}
	f.EndTime = ts(3)
	if !f.Bounded() {
		t.Error("filter with both bounds reports unbounded")
	}
	f.StartTime = ts(4)
	if err := f.Validate(); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Errorf("expected ErrInvalidTimeWindow, got %v", err)
	}
}

func TestResolutionSameSize(t *testing.T) {
	a := Resolution{ID: 1, Width: 400, Height: 500}
	if !a.SameSize(Resolution{ID: 9, Width: 400, Height: 500}) {
		t.Error("equal sizes with different ids should match")
	}
	if a.SameSize(Resolution{Width: 500, Height: 400}) {
		t.Error("swapped width/height should not match")
	}
}

func TestFolderPaths(t *testing.T) {
	f := Folder{Path: "/data/", Name: "cams"}
	if got := f.FullPath(); got != "/data/cams" {
		t.Errorf("FullPath() = %q", got)
	}
	if got := f.ChildPath(); got != "/data/cams/" {
		t.Errorf("ChildPath() = %q", got)
	}
	c := Clip{Name: "clip1", VideoFormat: "mp4"}
	if got := c.FilePath(f); got != "/data/cams/clip1.mp4" {
		t.Errorf("FilePath() = %q", got)
	}
}
