// media/types.go
package media

import "time"

type AssetType string

const (
	AssetTypeThumbnail AssetType = "thumbnail"
	AssetTypeExport    AssetType = "export"
)

// VideoInfo holds the stream properties read from a clip file
type VideoInfo struct {
	FrameRate  float64 `json:"frame_rate"`
	FrameCount int     `json:"frame_count"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Duration is frames / fps, or zero when the frame rate is unknown
func (v VideoInfo) Duration() time.Duration {
	if v.FrameRate <= 0 || v.FrameCount <= 0 {
		return 0
	}
	seconds := float64(v.FrameCount) / v.FrameRate
	return time.Duration(seconds * float64(time.Second))
}

// DetectionOptions selects which frames a detector analyzes. Offsets are
// seconds from the start of the clip; EndOffset 0 means the end of the clip.
type DetectionOptions struct {
	SampleRate  float64
	StartOffset float64
	EndOffset   float64
	Threshold   float32
}

// Label is one object found by a detector, Offset seconds into the clip
type Label struct {
	Class      string
	Offset     float64
	Confidence float32
}
