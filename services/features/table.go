package features

import (
	"math"
	"sort"

	"servicehub/models"
	"servicehub/utils"
)

// WorkerStats aggregates the flat table per worker.
type WorkerStats struct {
	AvgRating     float64
	TotalBookings float64
}

// Stats holds the per-worker and per-user aggregates of the flat table.
type Stats struct {
	Workers map[int64]WorkerStats
	Users   map[int64]float64
}

// FlatRow is one filled row of the (user, worker, service) table.
type FlatRow struct {
	UserID      int64
	WorkerID    int64
	ServiceID   *int64
	WorkerLat   float64
	WorkerLon   float64
	Charge      float64
	NumBookings int
	TotalRating float64
}

// Flatten applies the missing-value fills: bookings to 0, rating to 0.0, charge to 0.
func Flatten(rows []models.InteractionRow) []FlatRow {
	out := make([]FlatRow, len(rows))
	for i, r := range rows {
		f := FlatRow{
			UserID:    r.UserID,
			WorkerID:  r.WorkerID,
			ServiceID: r.ServiceID,
			WorkerLat: r.WorkerLat,
			WorkerLon: r.WorkerLon,
		}
		if r.NumBookings != nil {
			f.NumBookings = *r.NumBookings
		}
		if r.TotalRating != nil {
			f.TotalRating = *r.TotalRating
		}
		if r.Charge != nil {
			f.Charge = *r.Charge
		}
		out[i] = f
	}
	return out
}

// ComputeStats derives worker_avg_rating, worker_total_bookings and user_avg_rating.
func ComputeStats(rows []FlatRow) *Stats {
	type acc struct {
		sum      float64
		n        int
		bookings int
	}
	workers := make(map[int64]*acc)
	users := make(map[int64]*acc)
	for _, r := range rows {
		w, ok := workers[r.WorkerID]
		if !ok {
			w = &acc{}
			workers[r.WorkerID] = w
		}
		w.sum += r.TotalRating
		w.n++
		w.bookings += r.NumBookings

		u, ok := users[r.UserID]
		if !ok {
			u = &acc{}
			users[r.UserID] = u
		}
		u.sum += r.TotalRating
		u.n++
	}

	stats := &Stats{
		Workers: make(map[int64]WorkerStats, len(workers)),
		Users:   make(map[int64]float64, len(users)),
	}
	for id, a := range workers {
		stats.Workers[id] = WorkerStats{AvgRating: a.sum / float64(a.n), TotalBookings: float64(a.bookings)}
	}
	for id, a := range users {
		stats.Users[id] = a.sum / float64(a.n)
	}
	return stats
}

// Attach copies the worker and user aggregates onto a candidate row.
// Workers and users absent from the history get zeros.
func (s *Stats) Attach(row *models.CandidateRow, userID int64) {
	if s == nil {
		return
	}
	if w, ok := s.Workers[row.WorkerID]; ok {
		row.WorkerAvgRating = w.AvgRating
		row.WorkerTotalBookings = w.TotalBookings
	}
	row.UserAvgRating = s.Users[userID]
}

// TrainingRow is one labelled example.
type TrainingRow struct {
	UserID   int64
	WorkerID int64
	Features []float64
	Label    float64
}

// TrainingSet is the enriched flat table ready for a ranking learner.
type TrainingSet struct {
	Rows []TrainingRow
	// DroppedNoLocation counts rows whose user has no location.
	DroppedNoLocation int
	Users             int
}

// BuildTrainingSet joins the flat table with user locations and the
// aggregates, then attaches distance, bucket and service match. Rows are
// returned grouped by user in ascending user id order.
func BuildTrainingSet(interactions []models.InteractionRow, locations []models.UserLocation) *TrainingSet {
	flat := Flatten(interactions)
	stats := ComputeStats(flat)

	locs := make(map[int64]models.UserLocation, len(locations))
	for _, l := range locations {
		locs[l.UserID] = l
	}

	// A user's service history is every service in their own rows, so every
	// training row carries service_match = 1 unless its service is null.
	past := make(map[int64]map[int64]struct{})
	for _, r := range flat {
		if r.ServiceID == nil {
			continue
		}
		if past[r.UserID] == nil {
			past[r.UserID] = make(map[int64]struct{})
		}
		past[r.UserID][*r.ServiceID] = struct{}{}
	}

	set := &TrainingSet{}
	users := make(map[int64]struct{})
	for _, r := range flat {
		loc, ok := locs[r.UserID]
		if !ok {
			set.DroppedNoLocation++
			continue
		}
		row := models.CandidateRow{
			WorkerID:    r.WorkerID,
			ServiceID:   r.ServiceID,
			WorkerLat:   r.WorkerLat,
			WorkerLon:   r.WorkerLon,
			Charge:      r.Charge,
			NumBookings: float64(r.NumBookings),
			TotalRating: r.TotalRating,
		}
		row.DistanceKm = utils.Haversine(loc.Lat, loc.Lon, r.WorkerLat, r.WorkerLon)
		row.DistanceBucket = DistanceBucket(row.DistanceKm)
		if r.ServiceID != nil {
			if _, ok := past[r.UserID][*r.ServiceID]; ok {
				row.ServiceMatch = 1
			}
		}
		stats.Attach(&row, r.UserID)

		set.Rows = append(set.Rows, TrainingRow{
			UserID:   r.UserID,
			WorkerID: r.WorkerID,
			Features: Vector(&row),
			Label:    roundHalfEven(r.TotalRating),
		})
		users[r.UserID] = struct{}{}
	}
	set.Users = len(users)

	sort.SliceStable(set.Rows, func(i, j int) bool { return set.Rows[i].UserID < set.Rows[j].UserID })
	return set
}

// roundHalfEven maps a mean rating to its integer relevance label, ties to even.
func roundHalfEven(v float64) float64 {
	return math.RoundToEven(v)
}
