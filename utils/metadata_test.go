package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReadClipMetadataSidecar(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip1.mp4")
	writeFile(t, clip, "video")
	writeFile(t, clip+".txt", "(55.703412, 13.196842)\n(2020-01-17 02:00:00)\n(Cam A)\n")

	meta, err := ReadClipMetadata(clip)
	if err != nil {
		t.Fatalf("ReadClipMetadata: %v", err)
	}
	if meta.Latitude != 55.703412 || meta.Longitude != 13.196842 {
		t.Errorf("position = (%v, %v)", meta.Latitude, meta.Longitude)
	}
	want := time.Date(2020, 1, 17, 2, 0, 0, 0, time.UTC)
	if !meta.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", meta.StartTime, want)
	}
	if meta.CameraName != "Cam A" {
		t.Errorf("camera = %q", meta.CameraName)
	}
}

func TestParseSidecarErrors(t *testing.T) {
	tests := map[string]string{
		"short":         "(1, 2)\n(2020-01-17 02:00:00)\n",
		"no parens":     "1, 2\n(2020-01-17 02:00:00)\n(cam)\n",
		"one coord":     "(1)\n(2020-01-17 02:00:00)\n(cam)\n",
		"bad lat":       "(north, 2)\n(2020-01-17 02:00:00)\n(cam)\n",
		"out of range":  "(95, 2)\n(2020-01-17 02:00:00)\n(cam)\n",
		"bad timestamp": "(1, 2)\n(17/01/2020)\n(cam)\n",
	}
	dir := t.TempDir()
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".txt")
			writeFile(t, path, content)
			if _, err := ParseSidecar(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestReadClipMetadataMissing(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	writeFile(t, clip, "video")
	// a poster without EXIF data is skipped
	writeFile(t, filepath.Join(dir, "clip.jpg"), "not a jpeg")

	if _, err := ReadClipMetadata(clip); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("expected ErrNoMetadata, got %v", err)
	}
}
