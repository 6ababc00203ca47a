package features

import (
	"servicehub/models"
	"servicehub/utils"
)

// Enrich attaches distance, bucket and aggregates to candidate rows in place.
// service_match is left as the candidate pool set it.
func Enrich(rows []models.CandidateRow, userID int64, userLat, userLon float64, stats *Stats) error {
	lats := make([]float64, len(rows))
	lons := make([]float64, len(rows))
	for i := range rows {
		lats[i] = rows[i].WorkerLat
		lons[i] = rows[i].WorkerLon
	}
	distances, err := utils.HaversineFrom(userLat, userLon, lats, lons)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].DistanceKm = distances[i]
		rows[i].DistanceBucket = DistanceBucket(distances[i])
		stats.Attach(&rows[i], userID)
	}
	return nil
}
