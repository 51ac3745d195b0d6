package media

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideStore = errors.New("path resolves outside the media store")

// Store defines the interface for saving, retrieving, and deleting media assets
type Store interface {
	// Save writes data under the asset type's directory and returns the
	// slash-separated path relative to the store root
	Save(assetType AssetType, filename string, data io.Reader) (string, error)
	// Get retrieves a reader for an asset
	Get(relativePath string) (io.ReadCloser, os.FileInfo, error)
	// Delete removes an asset; missing assets are not an error
	Delete(relativePath string) error
	// GetFullPath returns the absolute filesystem path for a relative asset path
	GetFullPath(relativePath string) (string, error)
}

// LocalStorage implements the Store interface using the local filesystem
type LocalStorage struct {
	basePath string               // absolute MEDIA_STORAGE_PATH
	dirs     map[AssetType]string // asset type -> absolute directory
}

// NewLocalStorage creates the store root and one directory per asset type
func NewLocalStorage(basePath string, subDirs map[AssetType]string) (*LocalStorage, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}
	ls := &LocalStorage{basePath: absBase, dirs: make(map[AssetType]string, len(subDirs))}

	for assetType, subDir := range subDirs {
		dir := filepath.Join(absBase, subDir)
		if !ls.contains(dir) {
			return nil, fmt.Errorf("subdirectory '%s' for %s: %w", subDir, assetType, ErrOutsideStore)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory '%s': %w", dir, err)
		}
		ls.dirs[assetType] = dir
	}

	log.Printf("media.store: Initialized LocalStorage at %s", absBase)
	return ls, nil
}

func (ls *LocalStorage) contains(path string) bool {
	rel, err := filepath.Rel(ls.basePath, filepath.Clean(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Save writes data to <asset dir>/<filename>. A partially written file is removed on error.
func (ls *LocalStorage) Save(assetType AssetType, filename string, data io.Reader) (string, error) {
	dir, ok := ls.dirs[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' is not configured", assetType)
	}
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid asset file name '%s'", filename)
	}

	fullPath := filepath.Join(dir, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", fullPath, err)
	}
	if _, err := io.Copy(out, data); err != nil {
		out.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to close '%s': %w", fullPath, err)
	}

	rel, err := filepath.Rel(ls.basePath, fullPath)
	if err != nil {
		return "", fmt.Errorf("internal error calculating relative path: %w", err)
	}
	log.Printf("media.store: Saved asset to %s", fullPath)
	return filepath.ToSlash(rel), nil
}

func (ls *LocalStorage) Get(relativePath string) (io.ReadCloser, os.FileInfo, error) {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open asset '%s': %w", relativePath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat asset '%s': %w", relativePath, err)
	}
	return file, info, nil
}

func (ls *LocalStorage) Delete(relativePath string) error {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete asset '%s': %w", relativePath, err)
	}
	return nil
}

// GetFullPath resolves a store-relative path, rejecting traversal outside the root
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	fullPath := filepath.Join(ls.basePath, filepath.FromSlash(relativePath))
	if !ls.contains(fullPath) || fullPath == ls.basePath {
		return "", fmt.Errorf("'%s': %w", relativePath, ErrOutsideStore)
	}
	return fullPath, nil
}
