package vision

import (
	"fmt"
	"image"
	"math"

	"github.com/camden-git/clipcatalog/media"
	"gocv.io/x/gocv"
)

// VideoReader reads stream properties and frames with OpenCV
type VideoReader struct{}

func openVideo(path string) (*gocv.VideoCapture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("vision: failed to open video %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("vision: video %s could not be opened", path)
	}
	return vc, nil
}

// Probe returns frame rate, frame count and frame size of a video file
func (VideoReader) Probe(path string) (media.VideoInfo, error) {
	vc, err := openVideo(path)
	if err != nil {
		return media.VideoInfo{}, err
	}
	defer vc.Close()

	info := media.VideoInfo{
		FrameRate:  vc.Get(gocv.VideoCaptureFPS),
		FrameCount: int(vc.Get(gocv.VideoCaptureFrameCount)),
		Width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
	if info.FrameRate <= 0 || math.IsNaN(info.FrameRate) {
		return info, fmt.Errorf("vision: video %s reports no frame rate", path)
	}
	return info, nil
}

// GrabFrame decodes the frame offset seconds into the video
func (VideoReader) GrabFrame(path string, offset float64) (image.Image, error) {
	vc, err := openVideo(path)
	if err != nil {
		return nil, err
	}
	defer vc.Close()

	if fps := vc.Get(gocv.VideoCaptureFPS); fps > 0 && offset > 0 {
		vc.Set(gocv.VideoCapturePosFrames, math.Floor(offset*fps))
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := vc.Read(&frame); !ok || frame.Empty() {
		return nil, fmt.Errorf("vision: no frame at %.2fs in %s", offset, path)
	}
	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("vision: failed to convert frame: %w", err)
	}
	return img, nil
}
