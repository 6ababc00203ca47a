package snapshotRepo

import (
	"context"
	"errors"

	"servicehub/models"
)

var (
	// ErrNotFound is returned when the user does not exist.
	ErrNotFound = errors.New("snapshot: not found")
	// ErrNoLocation is returned when the user exists without coordinates.
	ErrNoLocation = errors.New("snapshot: user has no location")
)

// PoolMode selects which worker-service offerings a candidate query returns.
type PoolMode int

const (
	// PoolAll returns every offering, including workers without services.
	PoolAll PoolMode = iota
	// PoolInServices returns offerings whose service is in ServiceIDs.
	PoolInServices
	// PoolNotInServices returns offerings whose service is set and not in ServiceIDs.
	PoolNotInServices
)

// OfferingFilter narrows ListAvailableOfferings.
type OfferingFilter struct {
	Mode       PoolMode
	ServiceIDs []int64
}

// Reader is the read-only view of the marketplace the recommender consumes.
// Every offering it returns belongs to an available worker with a location.
type Reader interface {
	// UserLocation returns the user's point, ErrNotFound or ErrNoLocation.
	UserLocation(ctx context.Context, userID int64) (*models.UserLocation, error)
	// ListUserLocations returns every user with a location.
	ListUserLocations(ctx context.Context) ([]models.UserLocation, error)
	// CountBookingsByUser counts the user's bookings in any status.
	CountBookingsByUser(ctx context.Context, userID int64) (int, error)
	// PastServiceIDs returns the distinct non-null services the user booked.
	PastServiceIDs(ctx context.Context, userID int64) ([]int64, error)
	// ListAvailableOfferings returns raw candidates annotated with completed-booking counts.
	ListAvailableOfferings(ctx context.Context, filter OfferingFilter) ([]models.Offering, error)
	// ListInteractions returns the flat (user, worker, service) history table.
	ListInteractions(ctx context.Context) ([]models.InteractionRow, error)
	// RecentWorkerIDs returns the worker of the user's latest bookings, newest first.
	RecentWorkerIDs(ctx context.Context, userID int64, limit int) ([]*int64, error)
	// Ping probes the backing store.
	Ping(ctx context.Context) error
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// matches applies the pool filter to one offering's service id.
func (f OfferingFilter) matches(serviceID *int64) bool {
	switch f.Mode {
	case PoolInServices:
		return serviceID != nil && containsID(f.ServiceIDs, *serviceID)
	case PoolNotInServices:
		return serviceID != nil && !containsID(f.ServiceIDs, *serviceID)
	default:
		return true
	}
}
