// Package features turns marketplace history and candidate offerings into the
// fixed, ordered feature vectors shared by training and serving.
package features

import (
	"math"

	"servicehub/models"
)

// SchemaVersion changes whenever Columns or their meaning change.
const SchemaVersion = 1

// Columns is the ordered feature contract.
var Columns = []string{
	"worker_lat",
	"worker_lon",
	"charge",
	"num_bookings",
	"distance_km",
	"distance_bucket",
	"service_match",
	"worker_avg_rating",
	"worker_total_bookings",
	"user_avg_rating",
}

// distanceEdges are right-inclusive upper bounds of buckets 0..2. Anything
// farther falls into bucket 3.
var distanceEdges = []float64{1, 3, 10}

// DistanceBucket discretizes a distance in km into 0..3.
func DistanceBucket(km float64) int {
	if math.IsNaN(km) {
		return len(distanceEdges)
	}
	for i, edge := range distanceEdges {
		if km <= edge {
			return i
		}
	}
	return len(distanceEdges)
}

// Vector returns the row's features in Columns order.
func Vector(row *models.CandidateRow) []float64 {
	return []float64{
		row.WorkerLat,
		row.WorkerLon,
		row.Charge,
		row.NumBookings,
		row.DistanceKm,
		float64(row.DistanceBucket),
		float64(row.ServiceMatch),
		row.WorkerAvgRating,
		row.WorkerTotalBookings,
		row.UserAvgRating,
	}
}

// SameColumns reports whether cols equals Columns element by element.
func SameColumns(cols []string) bool {
	if len(cols) != len(Columns) {
		return false
	}
	for i := range cols {
		if cols[i] != Columns[i] {
			return false
		}
	}
	return true
}
