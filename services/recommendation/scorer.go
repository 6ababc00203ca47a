package recommendation

import (
	"servicehub/models"
	"servicehub/services/features"
	"servicehub/services/ranking"
)

// Scorer maps one enriched candidate row to a relevance score; higher is better.
type Scorer interface {
	Name() string
	Score(row *models.CandidateRow) float64
}

// statsScorer is implemented by scorers that read the history aggregates.
type statsScorer interface {
	NeedsStats() bool
}

// Heuristic weights.
const (
	DistanceWeight     = -1.0
	RatingWeight       = 1.0
	BookingsWeight     = 0.5
	ServiceMatchWeight = 1.0
	ChargeWeight       = -0.2
)

// HeuristicScorer is the fixed linear scoring function.
type HeuristicScorer struct{}

func (HeuristicScorer) Name() string { return "heuristic" }

func (HeuristicScorer) Score(row *models.CandidateRow) float64 {
	return DistanceWeight*row.DistanceKm +
		RatingWeight*row.TotalRating +
		BookingsWeight*row.NumBookings +
		ServiceMatchWeight*float64(row.ServiceMatch) +
		ChargeWeight*row.Charge
}

// LearnedScorer scores rows with a trained ranking model.
type LearnedScorer struct {
	model *ranking.Model
}

// NewLearnedScorer wraps a model that already passed the feature contract check.
func NewLearnedScorer(model *ranking.Model) *LearnedScorer {
	return &LearnedScorer{model: model}
}

func (s *LearnedScorer) Name() string { return "learned:" + s.model.Version }

func (s *LearnedScorer) Score(row *models.CandidateRow) float64 {
	return s.model.Predict(features.Vector(row))
}

func (s *LearnedScorer) NeedsStats() bool { return true }

// Model returns the wrapped model.
func (s *LearnedScorer) Model() *ranking.Model { return s.model }
