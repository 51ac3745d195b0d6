package utils

import "math"

// Distance returns the straight-line distance between two points in the
// (longitude, latitude) plane. It is not a geodesic distance; area radii are
// expressed in the same planar units.
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	dLon := lon1 - lon2
	dLat := lat1 - lat2
	return math.Sqrt(dLon*dLon + dLat*dLat)
}

// ValidCoordinates reports whether lat/lon lie within -90..90 and -180..180.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
