package utils

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for all distance features.
const EarthRadiusKm = 6371.0

// Haversine calculates the great-circle distance (in km) between two lat/lon points.
// Coordinates are in degrees and are not range-checked.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// HaversineFrom broadcasts one origin against a batch of points.
func HaversineFrom(lat, lon float64, lats, lons []float64) ([]float64, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("haversine: %d latitudes but %d longitudes", len(lats), len(lons))
	}
	out := make([]float64, len(lats))
	for i := range lats {
		out[i] = Haversine(lat, lon, lats[i], lons[i])
	}
	return out, nil
}

// HaversinePairs computes element-wise distances between two equal-length batches.
func HaversinePairs(lats1, lons1, lats2, lons2 []float64) ([]float64, error) {
	n := len(lats1)
	if len(lons1) != n || len(lats2) != n || len(lons2) != n {
		return nil, fmt.Errorf("haversine: batch lengths differ (%d, %d, %d, %d)",
			len(lats1), len(lons1), len(lats2), len(lons2))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = Haversine(lats1[i], lons1[i], lats2[i], lons2[i])
	}
	return out, nil
}
