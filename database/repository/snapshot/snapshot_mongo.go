package snapshotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReader reads the snapshot from the users, workers, services, bookings
// and reviews collections.
type MongoReader struct {
	db       *mongo.Database
	users    *mongo.Collection
	workers  *mongo.Collection
	services *mongo.Collection
	bookings *mongo.Collection
	reviews  *mongo.Collection
}

// NewMongoReader binds the reader to a database and ensures its indexes.
func NewMongoReader(db *mongo.Database) *MongoReader {
	r := &MongoReader{
		db:       db,
		users:    db.Collection("users"),
		workers:  db.Collection("workers"),
		services: db.Collection("services"),
		bookings: db.Collection("bookings"),
		reviews:  db.Collection("reviews"),
	}
	if err := r.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return r
}

// newContext derives a bounded context for one query.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

func (r *MongoReader) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "workerId", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	_, err = r.workers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "isAvailable", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create worker indexes: %w", err)
	}
	return nil
}

var hasLocation = bson.M{"location.coordinates.1": bson.M{"$exists": true}}

func (r *MongoReader) UserLocation(ctx context.Context, userID int64) (*models.UserLocation, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	if !user.Location.Valid() {
		return nil, ErrNoLocation
	}
	return &models.UserLocation{UserID: user.ID, Lat: user.Location.Lat(), Lon: user.Location.Lon()}, nil
}

func (r *MongoReader) ListUserLocations(ctx context.Context) ([]models.UserLocation, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	var users []models.User
	if err := r.findAll(ctx, r.users, hasLocation, &users, opts); err != nil {
		return nil, fmt.Errorf("failed to list user locations: %w", err)
	}
	out := make([]models.UserLocation, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserLocation{UserID: u.ID, Lat: u.Location.Lat(), Lon: u.Location.Lon()})
	}
	return out, nil
}

func (r *MongoReader) CountBookingsByUser(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	n, err := r.bookings.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings for user %d: %w", userID, err)
	}
	return int(n), nil
}

func (r *MongoReader) PastServiceIDs(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var bookings []models.Booking
	filter := bson.M{"userId": userID, "status": bson.M{"$in": historyStatuses}}
	if err := r.findAll(ctx, r.bookings, filter, &bookings); err != nil {
		return nil, fmt.Errorf("failed to load past services for user %d: %w", userID, err)
	}
	return pastServiceIDs(bookings, userID), nil
}

func (r *MongoReader) ListAvailableOfferings(ctx context.Context, filter OfferingFilter) ([]models.Offering, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	var workers []models.Worker
	workerFilter := bson.M{"isAvailable": true, "location.coordinates.1": bson.M{"$exists": true}}
	if err := r.findAll(ctx, r.workers, workerFilter, &workers); err != nil {
		return nil, fmt.Errorf("failed to list available workers: %w", err)
	}

	var services []models.Service
	if err := r.findAll(ctx, r.services, bson.M{}, &services); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	byID := make(map[int64]models.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	counts, err := r.completedCounts(ctx)
	if err != nil {
		return nil, err
	}
	return joinOfferings(workers, byID, counts, filter), nil
}

// completedCounts groups completed bookings per worker server-side.
func (r *MongoReader) completedCounts(ctx context.Context) (map[int64]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.BookingStatusCompleted, "workerId": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$workerId", "total": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate completed bookings: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[int64]int)
	for cursor.Next(ctx) {
		var doc struct {
			WorkerID int64 `bson:"_id"`
			Total    int   `bson:"total"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking count: %w", err)
		}
		counts[doc.WorkerID] = doc.Total
	}
	return counts, cursor.Err()
}

func (r *MongoReader) ListInteractions(ctx context.Context) ([]models.InteractionRow, error) {
	ctx, cancel := newContext(ctx, 60*time.Second)
	defer cancel()

	var bookings []models.Booking
	if err := r.findAll(ctx, r.bookings, bson.M{"status": bson.M{"$in": historyStatuses}}, &bookings); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	var reviews []models.Review
	if err := r.findAll(ctx, r.reviews, bson.M{}, &reviews); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	var workers []models.Worker
	if err := r.findAll(ctx, r.workers, hasLocation, &workers); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return joinInteractions(bookings, reviews, workers), nil
}

func (r *MongoReader) RecentWorkerIDs(ctx context.Context, userID int64, limit int) ([]*int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"workerId": 1})
	var bookings []models.Booking
	if err := r.findAll(ctx, r.bookings, bson.M{"userId": userID}, &bookings, opts); err != nil {
		return nil, fmt.Errorf("failed to load recent bookings for user %d: %w", userID, err)
	}
	out := make([]*int64, len(bookings))
	for i, b := range bookings {
		out[i] = b.WorkerID
	}
	return out, nil
}

func (r *MongoReader) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

var historyStatuses = []string{
	models.BookingStatusBooked,
	models.BookingStatusInProgress,
	models.BookingStatusCompleted,
}

func (r *MongoReader) findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
