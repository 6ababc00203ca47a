package snapshotRepo

import (
	"context"
	"sort"
	"sync"

	"servicehub/models"
)

// MemoryReader serves a fixed in-process snapshot. It backs tests and
// offline runs against exported data.
type MemoryReader struct {
	mu       sync.RWMutex
	Users    []models.User
	Workers  []models.Worker
	Services []models.Service
	Bookings []models.Booking
	Reviews  []models.Review
}

func (m *MemoryReader) UserLocation(ctx context.Context, userID int64) (*models.UserLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.Users {
		if u.ID != userID {
			continue
		}
		if !u.Location.Valid() {
			return nil, ErrNoLocation
		}
		return &models.UserLocation{UserID: u.ID, Lat: u.Location.Lat(), Lon: u.Location.Lon()}, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryReader) ListUserLocations(ctx context.Context) ([]models.UserLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.UserLocation
	for _, u := range m.Users {
		if u.Location.Valid() {
			out = append(out, models.UserLocation{UserID: u.ID, Lat: u.Location.Lat(), Lon: u.Location.Lon()})
		}
	}
	return out, nil
}

func (m *MemoryReader) CountBookingsByUser(ctx context.Context, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, b := range m.Bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryReader) PastServiceIDs(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pastServiceIDs(m.Bookings, userID), nil
}

func (m *MemoryReader) ListAvailableOfferings(ctx context.Context, filter OfferingFilter) ([]models.Offering, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	services := make(map[int64]models.Service, len(m.Services))
	for _, s := range m.Services {
		services[s.ID] = s
	}
	return joinOfferings(m.Workers, services, completedCounts(m.Bookings), filter), nil
}

func (m *MemoryReader) ListInteractions(ctx context.Context) ([]models.InteractionRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return joinInteractions(m.Bookings, m.Reviews, m.Workers), nil
}

func (m *MemoryReader) RecentWorkerIDs(ctx context.Context, userID int64, limit int) ([]*int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var mine []models.Booking
	for _, b := range m.Bookings {
		if b.UserID == userID {
			mine = append(mine, b)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID > mine[j].ID })
	if limit >= 0 && len(mine) > limit {
		mine = mine[:limit]
	}
	out := make([]*int64, len(mine))
	for i, b := range mine {
		out[i] = b.WorkerID
	}
	return out, nil
}

func (m *MemoryReader) Ping(ctx context.Context) error { return nil }
