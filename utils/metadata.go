package utils

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// SidecarTimeLayout is the start time format of a metadata sidecar
const SidecarTimeLayout = "2006-01-02 15:04:05"

// ErrNoMetadata is returned when a clip has neither a sidecar nor a usable poster still
var ErrNoMetadata = errors.New("no clip metadata found")

// ClipMetadata is where and when a clip was recorded
type ClipMetadata struct {
	Latitude   float64
	Longitude  float64
	StartTime  time.Time
	CameraName string
}

// ReadClipMetadata looks for <clip file>.txt next to the clip, then for a
// poster still <clip name>.jpg or .jpeg carrying EXIF GPS and DateTime. In
// the EXIF case the camera is named after the containing folder.
func ReadClipMetadata(clipPath string) (*ClipMetadata, error) {
	sidecar := clipPath + ".txt"
	if _, err := os.Stat(sidecar); err == nil {
		return ParseSidecar(sidecar)
	}

	base := strings.TrimSuffix(clipPath, filepath.Ext(clipPath))
	for _, ext := range []string{".jpg", ".jpeg", ".JPG", ".JPEG"} {
		poster := base + ext
		if _, err := os.Stat(poster); err != nil {
			continue
		}
		meta, err := readExifMetadata(poster)
		if err != nil {
			log.Printf("metadata: No usable EXIF data in %s: %v", poster, err)
			continue
		}
		meta.CameraName = filepath.Base(filepath.Dir(clipPath))
		return meta, nil
	}
	return nil, fmt.Errorf("%s: %w", clipPath, ErrNoMetadata)
}

// ParseSidecar reads the three-line sidecar format:
//
//	(lat, lon)
//	(YYYY-MM-DD HH:MM:SS)
//	(camera name)
func ParseSidecar(path string) (*ClipMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: failed to open sidecar %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 3 {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "(") || !strings.HasSuffix(line, ")") {
			return nil, fmt.Errorf("metadata: malformed line %q in %s", line, path)
		}
		lines = append(lines, strings.TrimSpace(line[1:len(line)-1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("metadata: failed to read sidecar %s: %w", path, err)
	}
	if len(lines) != 3 {
		return nil, fmt.Errorf("metadata: sidecar %s has %d of 3 lines", path, len(lines))
	}

	coords := strings.Split(lines[0], ",")
	if len(coords) != 2 {
		return nil, fmt.Errorf("metadata: malformed coordinates %q in %s", lines[0], path)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("metadata: bad latitude in %s: %w", path, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("metadata: bad longitude in %s: %w", path, err)
	}
	if !ValidCoordinates(lat, lon) {
		return nil, fmt.Errorf("metadata: coordinates (%v, %v) out of range in %s", lat, lon, path)
	}

	start, err := time.ParseInLocation(SidecarTimeLayout, lines[1], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("metadata: bad start time in %s: %w", path, err)
	}

	return &ClipMetadata{Latitude: lat, Longitude: lon, StartTime: start, CameraName: lines[2]}, nil
}

func readExifMetadata(path string) (*ClipMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}
	lat, lon, err := x.LatLong()
	if err != nil {
		return nil, fmt.Errorf("no GPS position: %w", err)
	}
	taken, err := x.DateTime()
	if err != nil {
		return nil, fmt.Errorf("no DateTime: %w", err)
	}
	return &ClipMetadata{Latitude: lat, Longitude: lon, StartTime: taken.UTC()}, nil
}
