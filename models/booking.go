package models

import "time"

const (
	BookingStatusBooked     = "booked"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

// Booking is a historical (user, worker, service) fact.
type Booking struct {
	ID          int64     `bson:"_id" json:"id"`
	UserID      int64     `bson:"userId" json:"user_id"`
	WorkerID    *int64    `bson:"workerId,omitempty" json:"worker_id,omitempty"`
	ServiceID   *int64    `bson:"serviceId,omitempty" json:"service_id,omitempty"`
	Status      string    `bson:"status" json:"status"`
	BookingTime time.Time `bson:"bookingTime" json:"booking_time"`
}

// CountsTowardHistory reports whether the booking is completed or still active.
func (b Booking) CountsTowardHistory() bool {
	switch b.Status {
	case BookingStatusBooked, BookingStatusInProgress, BookingStatusCompleted:
		return true
	}
	return false
}

// Review is a 1-5 rating a user left for a worker on one booking.
type Review struct {
	ID        int64 `bson:"_id" json:"id"`
	UserID    int64 `bson:"userId" json:"user_id"`
	WorkerID  int64 `bson:"workerId" json:"worker_id"`
	BookingID int64 `bson:"bookingId" json:"booking_id"`
	Rating    *int  `bson:"rating,omitempty" json:"rating,omitempty"`
}
