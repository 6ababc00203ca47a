package snapshotRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"servicehub/models"

	"github.com/lib/pq"
)

const (
	userLocationQuery = `SELECT id, ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon
FROM core_authenticateduser
WHERE id = $1`

	userLocationsQuery = `SELECT id, ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon
FROM core_authenticateduser
WHERE location IS NOT NULL
ORDER BY id`

	countBookingsQuery = `SELECT COUNT(*) AS cnt FROM bookings WHERE user_id = $1`

	pastServicesQuery = `SELECT DISTINCT service_id
FROM bookings
WHERE user_id = $1 AND service_id IS NOT NULL
  AND status IN ('booked', 'in_progress', 'completed')
ORDER BY service_id`

	offeringsBaseQuery = `SELECT w.id AS worker_id,
       COALESCE(wu.name, '') AS worker_name,
       s.id AS service_id,
       COALESCE(s.service_type, '') AS service_name,
       ST_Y(w.location::geometry) AS worker_lat,
       ST_X(w.location::geometry) AS worker_lon,
       COALESCE(b.total_bookings, 0) AS num_bookings,
       w.average_rating AS total_rating,
       ws.charge,
       w.is_available
FROM workers w
LEFT JOIN worker_services ws ON w.id = ws.worker_id
LEFT JOIN core_service s ON ws.service_id = s.id
LEFT JOIN core_authenticateduser wu ON w.user_id = wu.id
LEFT JOIN (
    SELECT worker_id, COUNT(*) AS total_bookings
    FROM bookings
    WHERE status = 'completed'
    GROUP BY worker_id
) b ON w.id = b.worker_id
WHERE w.is_available = TRUE AND w.location IS NOT NULL`

	offeringsOrder = `
ORDER BY w.id, s.id`

	interactionsQuery = `SELECT b.user_id,
       b.worker_id,
       b.service_id,
       ST_Y(w.location::geometry) AS worker_lat,
       ST_X(w.location::geometry) AS worker_lon,
       ws.charge,
       COUNT(DISTINCT b.id) AS num_bookings,
       AVG(r.rating) AS total_rating
FROM bookings b
JOIN workers w ON w.id = b.worker_id
LEFT JOIN worker_services ws ON ws.worker_id = b.worker_id AND ws.service_id = b.service_id
LEFT JOIN core_userreview r ON r.booking_id = b.id
WHERE b.status IN ('booked', 'in_progress', 'completed') AND w.location IS NOT NULL
GROUP BY b.user_id, b.worker_id, b.service_id, w.location, ws.charge
ORDER BY b.user_id, b.worker_id, b.service_id NULLS FIRST`

	recentWorkersQuery = `SELECT worker_id FROM bookings WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
)

// PostgresReader reads the snapshot from the marketplace's PostGIS tables.
type PostgresReader struct {
	db *sql.DB
}

// NewPostgresReader wraps an open database handle.
func NewPostgresReader(db *sql.DB) *PostgresReader {
	return &PostgresReader{db: db}
}

func (r *PostgresReader) UserLocation(ctx context.Context, userID int64) (*models.UserLocation, error) {
	var (
		loc      models.UserLocation
		lat, lon sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, userLocationQuery, userID).Scan(&loc.UserID, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load location for user %d: %w", userID, err)
	}
	if !lat.Valid || !lon.Valid {
		return nil, ErrNoLocation
	}
	loc.Lat, loc.Lon = lat.Float64, lon.Float64
	return &loc, nil
}

func (r *PostgresReader) ListUserLocations(ctx context.Context) ([]models.UserLocation, error) {
	rows, err := r.db.QueryContext(ctx, userLocationsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list user locations: %w", err)
	}
	defer rows.Close()

	var out []models.UserLocation
	for rows.Next() {
		var loc models.UserLocation
		if err := rows.Scan(&loc.UserID, &loc.Lat, &loc.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan user location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (r *PostgresReader) CountBookingsByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countBookingsQuery, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookings for user %d: %w", userID, err)
	}
	return n, nil
}

func (r *PostgresReader) PastServiceIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, pastServicesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load past services for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan service id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresReader) ListAvailableOfferings(ctx context.Context, filter OfferingFilter) ([]models.Offering, error) {
	query := offeringsBaseQuery
	var args []interface{}
	switch filter.Mode {
	case PoolInServices:
		query += "\n  AND s.id = ANY($1)"
		args = append(args, pq.Array(filter.ServiceIDs))
	case PoolNotInServices:
		query += "\n  AND NOT (s.id = ANY($1))"
		args = append(args, pq.Array(filter.ServiceIDs))
	}
	query += offeringsOrder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offerings: %w", err)
	}
	defer rows.Close()

	var out []models.Offering
	for rows.Next() {
		var (
			o         models.Offering
			serviceID sql.NullInt64
			rating    sql.NullFloat64
			charge    sql.NullFloat64
		)
		if err := rows.Scan(&o.WorkerID, &o.WorkerName, &serviceID, &o.ServiceName,
			&o.WorkerLat, &o.WorkerLon, &o.NumBookings, &rating, &charge, &o.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan offering: %w", err)
		}
		o.ServiceID = nullInt(serviceID)
		o.TotalRating = nullFloat(rating)
		o.Charge = nullFloat(charge)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresReader) ListInteractions(ctx context.Context) ([]models.InteractionRow, error) {
	rows, err := r.db.QueryContext(ctx, interactionsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var out []models.InteractionRow
	for rows.Next() {
		var (
			row       models.InteractionRow
			serviceID sql.NullInt64
			charge    sql.NullFloat64
			count     sql.NullInt64
			rating    sql.NullFloat64
		)
		if err := rows.Scan(&row.UserID, &row.WorkerID, &serviceID, &row.WorkerLat, &row.WorkerLon,
			&charge, &count, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		row.ServiceID = nullInt(serviceID)
		row.Charge = nullFloat(charge)
		row.TotalRating = nullFloat(rating)
		if count.Valid {
			n := int(count.Int64)
			row.NumBookings = &n
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresReader) RecentWorkerIDs(ctx context.Context, userID int64, limit int) ([]*int64, error) {
	rows, err := r.db.QueryContext(ctx, recentWorkersQuery, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent bookings for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []*int64
	for rows.Next() {
		var id sql.NullInt64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan worker id: %w", err)
		}
		out = append(out, nullInt(id))
	}
	return out, rows.Err()
}

func (r *PostgresReader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
