package media

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func newTestStore(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir(), map[AssetType]string{
		AssetTypeThumbnail: "thumbnails",
		AssetTypeExport:    "exports",
	})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return store
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save(AssetTypeExport, "a.json", strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rel != "exports/a.json" {
		t.Errorf("relative path = %q", rel)
	}

	rc, info, err := store.Get(rel)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != `{"ok":true}` || info.Size() != int64(len(body)) {
		t.Errorf("read back %q (%d bytes)", body, info.Size())
	}

	if err := store.Delete(rel); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(rel); err != nil {
		t.Errorf("deleting a missing asset: %v", err)
	}
	if _, _, err := store.Get(rel); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Get after delete: %v", err)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetFullPath("../../etc/passwd"); !errors.Is(err, ErrOutsideStore) {
		t.Errorf("traversal accepted: %v", err)
	}
	if _, err := store.Save(AssetTypeThumbnail, "../x.jpg", strings.NewReader("x")); err == nil {
		t.Error("Save accepted a name with a directory part")
	}
	if _, err := store.Save(AssetType("banner"), "x.jpg", strings.NewReader("x")); err == nil {
		t.Error("Save accepted an unconfigured asset type")
	}
	if _, err := NewLocalStorage(t.TempDir(), map[AssetType]string{AssetTypeExport: "../out"}); !errors.Is(err, ErrOutsideStore) {
		t.Errorf("subdirectory outside the root accepted: %v", err)
	}
}

func TestGenerateThumbnail(t *testing.T) {
	store := newTestStore(t)
	p := NewProcessor(store)

	frame := imaging.New(800, 400, color.NRGBA{R: 200, A: 255})
	rel, err := p.GenerateThumbnail(frame, "/data/cam/clip.mp4", 200)
	if err != nil {
		t.Fatalf("GenerateThumbnail: %v", err)
	}
	if !strings.HasPrefix(rel, "thumbnails/") || filepath.Ext(rel) != ThumbnailFileExtension {
		t.Errorf("thumbnail path = %q", rel)
	}

	full, _ := store.GetFullPath(rel)
	img, err := imaging.Open(full)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("thumbnail size = %dx%d, want 200x100", b.Dx(), b.Dy())
	}

	if _, err := p.GenerateThumbnail(image.NewRGBA(image.Rect(0, 0, 0, 0)), "empty", 200); err == nil {
		t.Error("expected an error for an empty frame")
	}
}

func TestSaveExport(t *testing.T) {
	store := newTestStore(t)
	p := NewProcessor(store)

	rel, err := p.SaveExport(map[string]int{"clips": 2})
	if err != nil {
		t.Fatal(err)
	}
	rc, _, err := store.Get(rel)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var decoded map[string]int
	if err := json.NewDecoder(rc).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["clips"] != 2 {
		t.Errorf("decoded %v", decoded)
	}
}

func TestVideoInfoDuration(t *testing.T) {
	tests := []struct {
		info VideoInfo
		want time.Duration
	}{
		{VideoInfo{FrameRate: 25, FrameCount: 250}, 10 * time.Second},
		{VideoInfo{FrameRate: 30, FrameCount: 45}, 1500 * time.Millisecond},
		{VideoInfo{FrameRate: 0, FrameCount: 45}, 0},
		{VideoInfo{FrameRate: 25}, 0},
	}
	for _, tt := range tests {
		if got := tt.info.Duration(); got != tt.want {
			t.Errorf("%+v.Duration() = %v, want %v", tt.info, got, tt.want)
		}
	}
}
