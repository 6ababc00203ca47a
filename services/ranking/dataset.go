package ranking

import (
	"math"
	"math/rand"

	"servicehub/services/features"
)

// Dataset is a feature matrix with relevance labels and per-user group sizes.
// Rows of one group are contiguous and groups appear in row order.
type Dataset struct {
	X      [][]float64
	Labels []float64
	Groups []int
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.X) }

// NewDataset builds a dataset from rows already ordered by user.
func NewDataset(rows []features.TrainingRow) *Dataset {
	d := &Dataset{
		X:      make([][]float64, 0, len(rows)),
		Labels: make([]float64, 0, len(rows)),
	}
	for i, r := range rows {
		d.X = append(d.X, r.Features)
		d.Labels = append(d.Labels, r.Label)
		if i == 0 || rows[i-1].UserID != r.UserID {
			d.Groups = append(d.Groups, 0)
		}
		d.Groups[len(d.Groups)-1]++
	}
	return d
}

// Split holds the outcome of SplitByUser.
type Split struct {
	Train *Dataset
	Valid *Dataset
	// Degenerate is set when fewer than two users exist and both sides
	// are the full set as one group.
	Degenerate bool
	TrainUsers int
	ValidUsers int
}

// SplitByUser shuffles the distinct users with seed and moves
// ceil(testFraction * users) of them to validation, so no user has rows on
// both sides. rows must be ordered by user.
func SplitByUser(rows []features.TrainingRow, testFraction float64, seed int64) Split {
	var users []int64
	for i, r := range rows {
		if i == 0 || rows[i-1].UserID != r.UserID {
			users = append(users, r.UserID)
		}
	}

	if len(users) < 2 {
		full := NewDataset(rows)
		full.Groups = []int{len(rows)}
		return Split{Train: full, Valid: full, Degenerate: true, TrainUsers: len(users), ValidUsers: len(users)}
	}

	nTest := int(math.Ceil(testFraction * float64(len(users))))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= len(users) {
		nTest = len(users) - 1
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(users))
	valid := make(map[int64]struct{}, nTest)
	for _, p := range perm[:nTest] {
		valid[users[p]] = struct{}{}
	}

	var trainRows, validRows []features.TrainingRow
	for _, r := range rows {
		if _, ok := valid[r.UserID]; ok {
			validRows = append(validRows, r)
		} else {
			trainRows = append(trainRows, r)
		}
	}
	return Split{
		Train:      NewDataset(trainRows),
		Valid:      NewDataset(validRows),
		TrainUsers: len(users) - nTest,
		ValidUsers: nTest,
	}
}
