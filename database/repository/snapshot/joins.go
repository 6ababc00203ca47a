package snapshotRepo

import (
	"sort"

	"servicehub/models"
)

// joinOfferings expands available, located workers into one offering per
// offered service. Workers offering nothing yield one offering with no service.
func joinOfferings(workers []models.Worker, services map[int64]models.Service, completed map[int64]int, filter OfferingFilter) []models.Offering {
	sorted := append([]models.Worker(nil), workers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []models.Offering
	for _, w := range sorted {
		if !w.IsAvailable || !w.Location.Valid() {
			continue
		}
		rating := w.AverageRating
		base := models.Offering{
			WorkerID:    w.ID,
			WorkerName:  w.Name,
			WorkerLat:   w.Location.Lat(),
			WorkerLon:   w.Location.Lon(),
			NumBookings: completed[w.ID],
			TotalRating: &rating,
			IsAvailable: w.IsAvailable,
		}
		if len(w.Services) == 0 {
			if filter.matches(nil) {
				out = append(out, base)
			}
			continue
		}
		for _, ws := range w.Services {
			o := base
			charge := ws.Charge
			o.Charge = &charge
			if svc, ok := services[ws.ServiceID]; ok {
				id := svc.ID
				o.ServiceID = &id
				o.ServiceName = svc.ServiceType
			}
			if filter.matches(o.ServiceID) {
				out = append(out, o)
			}
		}
	}
	return out
}

// completedCounts counts completed bookings per worker.
func completedCounts(bookings []models.Booking) map[int64]int {
	counts := make(map[int64]int)
	for _, b := range bookings {
		if b.Status == models.BookingStatusCompleted && b.WorkerID != nil {
			counts[*b.WorkerID]++
		}
	}
	return counts
}

type interactionKey struct {
	user, worker int64
	service      int64
	hasService   bool
}

// joinInteractions groups active and completed bookings into the flat
// (user, worker, service) table, rated by the mean of their reviews.
func joinInteractions(bookings []models.Booking, reviews []models.Review, workers []models.Worker) []models.InteractionRow {
	byWorker := make(map[int64]models.Worker, len(workers))
	for _, w := range workers {
		byWorker[w.ID] = w
	}
	ratingsByBooking := make(map[int64][]int)
	for _, r := range reviews {
		if r.Rating != nil {
			ratingsByBooking[r.BookingID] = append(ratingsByBooking[r.BookingID], *r.Rating)
		}
	}

	type agg struct {
		row       models.InteractionRow
		count     int
		ratingSum float64
		ratingN   int
	}
	groups := make(map[interactionKey]*agg)
	var order []interactionKey

	for _, b := range bookings {
		if !b.CountsTowardHistory() || b.WorkerID == nil {
			continue
		}
		w, ok := byWorker[*b.WorkerID]
		if !ok || !w.Location.Valid() {
			continue
		}
		key := interactionKey{user: b.UserID, worker: w.ID}
		if b.ServiceID != nil {
			key.service, key.hasService = *b.ServiceID, true
		}
		g, ok := groups[key]
		if !ok {
			row := models.InteractionRow{
				UserID:    b.UserID,
				WorkerID:  w.ID,
				WorkerLat: w.Location.Lat(),
				WorkerLon: w.Location.Lon(),
			}
			if key.hasService {
				sid := key.service
				row.ServiceID = &sid
				for _, ws := range w.Services {
					if ws.ServiceID == sid {
						charge := ws.Charge
						row.Charge = &charge
						break
					}
				}
			}
			g = &agg{row: row}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		for _, rating := range ratingsByBooking[b.ID] {
			g.ratingSum += float64(rating)
			g.ratingN++
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.user != b.user {
			return a.user < b.user
		}
		if a.worker != b.worker {
			return a.worker < b.worker
		}
		if a.hasService != b.hasService {
			return !a.hasService
		}
		return a.service < b.service
	})

	out := make([]models.InteractionRow, 0, len(order))
	for _, key := range order {
		g := groups[key]
		n := g.count
		g.row.NumBookings = &n
		if g.ratingN > 0 {
			mean := g.ratingSum / float64(g.ratingN)
			g.row.TotalRating = &mean
		}
		out = append(out, g.row)
	}
	return out
}

// pastServiceIDs returns the user's distinct non-null booked services, ascending.
func pastServiceIDs(bookings []models.Booking, userID int64) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, b := range bookings {
		if b.UserID != userID || !b.CountsTowardHistory() || b.ServiceID == nil {
			continue
		}
		if _, ok := seen[*b.ServiceID]; ok {
			continue
		}
		seen[*b.ServiceID] = struct{}{}
		ids = append(ids, *b.ServiceID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
