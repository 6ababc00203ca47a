package recommendation

import (
	"context"
	"fmt"

	snapshotRepo "servicehub/database/repository/snapshot"
	"servicehub/models"

	"go.uber.org/zap"
)

// Pool names which candidate strategy produced a list.
type Pool string

const (
	PoolGeneric  Pool = "generic"
	PoolPersonal Pool = "personalized"
	PoolFallback Pool = "fallback"
)

// CandidateSet is the output of the generator for one user.
type CandidateSet struct {
	Rows []models.CandidateRow
	Pool Pool
}

// CandidateGenerator builds familiar and exploration pools for returning
// users and the generic pool for new ones.
type CandidateGenerator struct {
	reader snapshotRepo.Reader
	logger *zap.Logger
}

// NewCandidateGenerator creates a generator over reader.
func NewCandidateGenerator(reader snapshotRepo.Reader, logger *zap.Logger) *CandidateGenerator {
	return &CandidateGenerator{reader: reader, logger: logger}
}

// Generate returns raw candidate rows for userID, before distance enrichment.
func (g *CandidateGenerator) Generate(ctx context.Context, userID int64) (*CandidateSet, error) {
	count, err := g.reader.CountBookingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	if count == 0 {
		return g.generic(ctx, PoolGeneric)
	}

	past, err := g.reader.PastServiceIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load past services: %w", err)
	}
	if len(past) == 0 {
		g.logger.Debug("Returning user has no service history", zap.Int64("user_id", userID))
		return g.generic(ctx, PoolFallback)
	}

	familiar, err := g.reader.ListAvailableOfferings(ctx, snapshotRepo.OfferingFilter{
		Mode: snapshotRepo.PoolInServices, ServiceIDs: past,
	})
	if err != nil {
		return nil, fmt.Errorf("load familiar pool: %w", err)
	}
	explore, err := g.reader.ListAvailableOfferings(ctx, snapshotRepo.OfferingFilter{
		Mode: snapshotRepo.PoolNotInServices, ServiceIDs: past,
	})
	if err != nil {
		return nil, fmt.Errorf("load exploration pool: %w", err)
	}
	if len(familiar) == 0 && len(explore) == 0 {
		return g.generic(ctx, PoolFallback)
	}

	rows := make([]models.CandidateRow, 0, len(familiar)+len(explore))
	for _, o := range familiar {
		rows = append(rows, toCandidate(o, 1))
	}
	for _, o := range explore {
		rows = append(rows, toCandidate(o, 0))
	}
	return &CandidateSet{Rows: rows, Pool: PoolPersonal}, nil
}

func (g *CandidateGenerator) generic(ctx context.Context, pool Pool) (*CandidateSet, error) {
	offerings, err := g.reader.ListAvailableOfferings(ctx, snapshotRepo.OfferingFilter{Mode: snapshotRepo.PoolAll})
	if err != nil {
		return nil, fmt.Errorf("load generic pool: %w", err)
	}
	rows := make([]models.CandidateRow, 0, len(offerings))
	for _, o := range offerings {
		rows = append(rows, toCandidate(o, 0))
	}
	return &CandidateSet{Rows: rows, Pool: pool}, nil
}

// toCandidate fills missing rating and charge with zero.
func toCandidate(o models.Offering, serviceMatch int) models.CandidateRow {
	row := models.CandidateRow{
		WorkerID:     o.WorkerID,
		WorkerName:   o.WorkerName,
		ServiceID:    o.ServiceID,
		ServiceName:  o.ServiceName,
		WorkerLat:    o.WorkerLat,
		WorkerLon:    o.WorkerLon,
		NumBookings:  float64(o.NumBookings),
		IsAvailable:  o.IsAvailable,
		ServiceMatch: serviceMatch,
	}
	if o.TotalRating != nil {
		row.TotalRating = *o.TotalRating
	}
	if o.Charge != nil {
		row.Charge = *o.Charge
	}
	return row
}
