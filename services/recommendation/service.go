package recommendation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	snapshotRepo "servicehub/database/repository/snapshot"
	"servicehub/models"
	"servicehub/services/features"
	"servicehub/utils"

	"go.uber.org/zap"
)

// RepeatThreshold is how many latest bookings must share one worker.
const RepeatThreshold = 3

// RecommendationService ranks workers for a user.
type RecommendationService interface {
	Recommend(ctx context.Context, userID int64, topN int) ([]models.Recommendation, error)
	RepeatWorker(ctx context.Context, userID int64) (*int64, error)
	RankerName() string
}

// Options bounds list sizes.
type Options struct {
	DefaultTopN int
	MaxTopN     int
}

// DefaultRecommendationService implements RecommendationService. The scorer
// is fixed at construction and shared read-only across requests.
type DefaultRecommendationService struct {
	reader    snapshotRepo.Reader
	generator *CandidateGenerator
	scorer    Scorer
	cache     *Cache
	logger    *zap.Logger
	opts      Options
}

// NewService wires a recommendation service. cache may be nil.
func NewService(reader snapshotRepo.Reader, scorer Scorer, cache *Cache, logger *zap.Logger, opts Options) *DefaultRecommendationService {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = 5
	}
	if opts.MaxTopN < opts.DefaultTopN {
		opts.MaxTopN = opts.DefaultTopN
	}
	logger = logger.With(zap.String("component", "recommendation"))
	return &DefaultRecommendationService{
		reader:    reader,
		generator: NewCandidateGenerator(reader, logger),
		scorer:    scorer,
		cache:     cache,
		logger:    logger,
		opts:      opts,
	}
}

// RankerName reports the active scorer.
func (s *DefaultRecommendationService) RankerName() string { return s.scorer.Name() }

func (s *DefaultRecommendationService) rankerKind() string {
	name := s.scorer.Name()
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}

// ClampTopN maps a requested size onto [1, MaxTopN]; non-positive means default.
func (s *DefaultRecommendationService) ClampTopN(topN int) int {
	if topN <= 0 {
		return s.opts.DefaultTopN
	}
	if topN > s.opts.MaxTopN {
		return s.opts.MaxTopN
	}
	return topN
}

// Recommend returns up to topN workers ordered by descending score. Missing
// location or an empty marketplace yield an empty list, not an error.
func (s *DefaultRecommendationService) Recommend(ctx context.Context, userID int64, topN int) ([]models.Recommendation, error) {
	topN = s.ClampTopN(topN)
	kind := s.rankerKind()
	start := time.Now()
	defer func() {
		utils.RecommendationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	key := cacheKey(s.scorer.Name(), userID, topN)
	if recs, ok := s.cache.Get(ctx, key); ok {
		utils.RecommendationCacheHits.Inc()
		utils.RecommendationsServed.WithLabelValues(kind, "cached").Inc()
		return recs, nil
	}

	recs, err := s.rank(ctx, userID, topN)
	switch {
	case errors.Is(err, ErrMissingLocation), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNoCandidates):
		s.logger.Debug("No recommendations", zap.Int64("user_id", userID), zap.Error(err))
		utils.RecommendationsServed.WithLabelValues(kind, "empty").Inc()
		return []models.Recommendation{}, nil
	case err != nil:
		utils.RecommendationsServed.WithLabelValues(kind, "error").Inc()
		return nil, err
	}

	s.cache.Set(ctx, key, recs)
	utils.RecommendationsServed.WithLabelValues(kind, "ranked").Inc()
	return recs, nil
}

func (s *DefaultRecommendationService) rank(ctx context.Context, userID int64, topN int) ([]models.Recommendation, error) {
	loc, err := s.reader.UserLocation(ctx, userID)
	switch {
	case errors.Is(err, snapshotRepo.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, snapshotRepo.ErrNoLocation):
		return nil, ErrMissingLocation
	case err != nil:
		return nil, fmt.Errorf("resolve user location: %w", err)
	}

	set, err := s.generator.Generate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(set.Rows) == 0 {
		return nil, ErrNoCandidates
	}

	var stats *features.Stats
	if ss, ok := s.scorer.(statsScorer); ok && ss.NeedsStats() {
		interactions, err := s.reader.ListInteractions(ctx)
		if err != nil {
			return nil, fmt.Errorf("load interaction stats: %w", err)
		}
		stats = features.ComputeStats(features.Flatten(interactions))
	}

	if err := features.Enrich(set.Rows, userID, loc.Lat, loc.Lon, stats); err != nil {
		return nil, err
	}
	for i := range set.Rows {
		set.Rows[i].Score = s.scorer.Score(&set.Rows[i])
	}

	recs := SortAndTruncate(Aggregate(set.Rows), topN)
	s.logger.Debug("Ranked candidates",
		zap.Int64("user_id", userID),
		zap.String("pool", string(set.Pool)),
		zap.Int("rows", len(set.Rows)),
		zap.Int("returned", len(recs)),
	)
	return recs, nil
}

// Aggregate collapses rows to one record per worker, in first-seen order.
func Aggregate(rows []models.CandidateRow) []models.Recommendation {
	type acc struct {
		rec       models.Recommendation
		chargeSum float64
		ratingSum float64
		n         int
	}
	byWorker := make(map[int64]*acc)
	var order []int64

	for _, r := range rows {
		a, ok := byWorker[r.WorkerID]
		if !ok {
			a = &acc{rec: models.Recommendation{
				WorkerID:     r.WorkerID,
				WorkerName:   r.WorkerName,
				ServiceName:  r.ServiceName,
				WorkerLat:    r.WorkerLat,
				WorkerLon:    r.WorkerLon,
				IsAvailable:  r.IsAvailable,
				DistanceKm:   r.DistanceKm,
				ServiceMatch: r.ServiceMatch,
				Score:        r.Score,
			}}
			byWorker[r.WorkerID] = a
			order = append(order, r.WorkerID)
		}
		a.n++
		a.chargeSum += r.Charge
		a.ratingSum += r.TotalRating
		a.rec.NumBookings += r.NumBookings
		if r.DistanceKm < a.rec.DistanceKm {
			a.rec.DistanceKm = r.DistanceKm
		}
		if r.ServiceMatch > a.rec.ServiceMatch {
			a.rec.ServiceMatch = r.ServiceMatch
		}
		if r.Score > a.rec.Score {
			a.rec.Score = r.Score
		}
	}

	out := make([]models.Recommendation, 0, len(order))
	for _, id := range order {
		a := byWorker[id]
		a.rec.Charge = a.chargeSum / float64(a.n)
		a.rec.TotalRating = a.ratingSum / float64(a.n)
		out = append(out, a.rec)
	}
	return out
}

// SortAndTruncate orders by score descending, then worker id ascending, and keeps topN.
func SortAndTruncate(recs []models.Recommendation, topN int) []models.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].WorkerID < recs[j].WorkerID
	})
	if topN >= 0 && len(recs) > topN {
		recs = recs[:topN]
	}
	return recs
}

// RepeatWorker returns the worker behind all of the user's latest
// RepeatThreshold bookings, or nil.
func (s *DefaultRecommendationService) RepeatWorker(ctx context.Context, userID int64) (*int64, error) {
	ids, err := s.reader.RecentWorkerIDs(ctx, userID, RepeatThreshold)
	if err != nil {
		return nil, fmt.Errorf("load recent bookings: %w", err)
	}
	return singleRepeatedWorker(ids), nil
}

// singleRepeatedWorker returns the one distinct non-null worker among ids.
func singleRepeatedWorker(ids []*int64) *int64 {
	var found *int64
	for _, id := range ids {
		if id == nil {
			continue
		}
		if found != nil && *found != *id {
			return nil
		}
		found = id
	}
	return found
}
