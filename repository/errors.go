package repository

import "errors"

var (
	// ErrCameraInUse is returned when deleting a camera that still has clips
	ErrCameraInUse = errors.New("camera still has clips")
	// ErrSpanOutsideParent is returned when a detection run or object lies outside its parent's span
	ErrSpanOutsideParent = errors.New("time span lies outside its parent span")
	ErrInvalidSampleRate = errors.New("sample rate must not be negative")
)
