package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	ThumbnailJpegQuality   = 85
	ThumbnailFileExtension = ".jpg"
	ExportFileExtension    = ".json"
)

// Processor renders clip posters and filter exports into a Store
type Processor struct {
	store Store
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store}
}

// GenerateThumbnail scales frame so its longest side is at most maxSize and
// saves it as a JPEG under a random name. Returns the store-relative path.
func (p *Processor) GenerateThumbnail(frame image.Image, clipPath string, maxSize int) (string, error) {
	bounds := frame.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return "", fmt.Errorf("invalid frame dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}
	if maxSize <= 0 {
		return "", fmt.Errorf("invalid thumbnail size %d", maxSize)
	}

	thumb := frame
	if bounds.Dx() > maxSize || bounds.Dy() > maxSize {
		thumb = imaging.Fit(frame, maxSize, maxSize, imaging.Lanczos)
	}

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality))
		if err != nil {
			log.Printf("processor: Failed to encode thumbnail: %v", err)
		}
		writer.CloseWithError(err)
	}()

	name, err := randomName(ThumbnailFileExtension)
	if err != nil {
		reader.Close()
		return "", err
	}
	saved, err := p.store.Save(AssetTypeThumbnail, name, reader)
	reader.Close()
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail via store: %w", err)
	}

	log.Printf("processor: Generated thumbnail for %s at %s", clipPath, saved)
	return saved, nil
}

// SaveExport stores v as indented JSON under a random name
func (p *Processor) SaveExport(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	name, err := randomName(ExportFileExtension)
	if err != nil {
		return "", err
	}
	saved, err := p.store.Save(AssetTypeExport, name, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to save export via store: %w", err)
	}
	return saved, nil
}

func randomName(ext string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String() + ext, nil
}
