package snapshotRepo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockReader(t *testing.T) (*PostgresReader, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresReader(db), mock
}

func TestPostgresReader_UserLocation(t *testing.T) {
	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
		wantLat float64
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(userLocationQuery)).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "lat", "lon"}).AddRow(7, 12.97, 77.59))
			},
			wantLat: 12.97,
		},
		{
			name: "unknown user",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(userLocationQuery)).
					WithArgs(int64(7)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "no location",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(userLocationQuery)).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "lat", "lon"}).AddRow(7, nil, nil))
			},
			wantErr: ErrNoLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, mock := newMockReader(t)
			tt.mock(mock)

			loc, err := reader.UserLocation(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, loc)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantLat, loc.Lat)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresReader_CountAndPastServices(t *testing.T) {
	reader, mock := newMockReader(t)

	mock.ExpectQuery(regexp.QuoteMeta(countBookingsQuery)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(pastServicesQuery)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"service_id"}).AddRow(1).AddRow(4))

	n, err := reader.CountBookingsByUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := reader.PastServiceIDs(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var offeringColumns = []string{
	"worker_id", "worker_name", "service_id", "service_name", "worker_lat", "worker_lon",
	"num_bookings", "total_rating", "charge", "is_available",
}

func TestPostgresReader_ListAvailableOfferings(t *testing.T) {
	tests := []struct {
		name   string
		filter OfferingFilter
		query  string
		args   []interface{}
	}{
		{
			name:   "generic pool",
			filter: OfferingFilter{Mode: PoolAll},
			query:  offeringsBaseQuery + offeringsOrder,
		},
		{
			name:   "familiar pool",
			filter: OfferingFilter{Mode: PoolInServices, ServiceIDs: []int64{1}},
			query:  offeringsBaseQuery + "\n  AND s.id = ANY($1)" + offeringsOrder,
			args:   []interface{}{pq.Array([]int64{1})},
		},
		{
			name:   "exploration pool",
			filter: OfferingFilter{Mode: PoolNotInServices, ServiceIDs: []int64{1}},
			query:  offeringsBaseQuery + "\n  AND NOT (s.id = ANY($1))" + offeringsOrder,
			args:   []interface{}{pq.Array([]int64{1})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, mock := newMockReader(t)
			rows := sqlmock.NewRows(offeringColumns).
				AddRow(1, "Asha", 1, "Plumbing", 12.9, 77.6, 3, 4.5, 200.0, true).
				AddRow(2, "Ravi", nil, "", 12.8, 77.5, 0, nil, nil, true)
			expect := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if len(tt.args) > 0 {
				args := make([]driver.Value, 0, len(tt.args))
				for range tt.args {
					args = append(args, sqlmock.AnyArg())
				}
				expect = expect.WithArgs(args...)
			}
			expect.WillReturnRows(rows)

			got, err := reader.ListAvailableOfferings(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, int64(1), *got[0].ServiceID)
			assert.Equal(t, 200.0, *got[0].Charge)
			assert.Equal(t, 3, got[0].NumBookings)
			assert.Nil(t, got[1].ServiceID)
			assert.Nil(t, got[1].Charge)
			assert.Nil(t, got[1].TotalRating)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresReader_ListInteractions(t *testing.T) {
	reader, mock := newMockReader(t)

	rows := sqlmock.NewRows([]string{
		"user_id", "worker_id", "service_id", "worker_lat", "worker_lon", "charge", "num_bookings", "total_rating",
	}).
		AddRow(1, 10, 5, 12.9, 77.6, 150.0, 2, 4.5).
		AddRow(1, 11, nil, 12.8, 77.5, nil, 1, nil)
	mock.ExpectQuery(regexp.QuoteMeta(interactionsQuery)).WillReturnRows(rows)

	// Reviews are joined per booking; a booking must count once however many it has.
	assert.Contains(t, interactionsQuery, "COUNT(DISTINCT b.id) AS num_bookings")
	assert.Contains(t, interactionsQuery, "AVG(r.rating) AS total_rating")

	got, err := reader.ListInteractions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, *got[0].NumBookings)
	assert.Equal(t, 4.5, *got[0].TotalRating)
	assert.Nil(t, got[1].ServiceID)
	assert.Nil(t, got[1].TotalRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReader_RecentWorkerIDs(t *testing.T) {
	reader, mock := newMockReader(t)

	mock.ExpectQuery(regexp.QuoteMeta(recentWorkersQuery)).
		WithArgs(int64(9), 3).
		WillReturnRows(sqlmock.NewRows([]string{"worker_id"}).AddRow(4).AddRow(nil).AddRow(4))

	got, err := reader.RecentWorkerIDs(context.Background(), 9, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(4), *got[0])
	assert.Nil(t, got[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}
