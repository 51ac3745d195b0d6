package models

import "errors"

var (
	ErrInvalidTimeWindow  = errors.New("start time is after end time")
	ErrInvalidCoordinates = errors.New("latitude must be within -90..90 and longitude within -180..180")
	ErrInvalidRadius      = errors.New("radius must be positive")
)
