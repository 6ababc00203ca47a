package ranking

import (
	"context"
	"testing"

	"servicehub/config"
	"servicehub/services/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// syntheticRows builds users whose relevant workers are the close ones.
func syntheticRows(users, perUser int) []features.TrainingRow {
	var rows []features.TrainingRow
	for u := 0; u < users; u++ {
		for w := 0; w < perUser; w++ {
			distance := float64(w)
			x := make([]float64, len(features.Columns))
			x[4] = distance
			x[5] = float64(features.DistanceBucket(distance))
			label := 0.0
			if w < 2 {
				label = float64(4 - w)
			}
			rows = append(rows, features.TrainingRow{
				UserID:   int64(u + 1),
				WorkerID: int64(w + 1),
				Features: x,
				Label:    label,
			})
		}
	}
	return rows
}

func smallParams() Params {
	p := DefaultParams()
	p.MinDataInLeaf = 1
	p.NumLeaves = 4
	p.NumBoostRound = 30
	p.EarlyStoppingRounds = 10
	p.LogPeriod = 10
	p.LearningRate = 0.3
	p.FeatureFraction = 1
	return p
}

func TestSplitByUser(t *testing.T) {
	rows := syntheticRows(10, 3)
	split := SplitByUser(rows, 0.2, 42)

	assert.False(t, split.Degenerate)
	assert.Equal(t, 2, split.ValidUsers)
	assert.Equal(t, 8, split.TrainUsers)
	assert.Equal(t, len(rows), split.Train.Len()+split.Valid.Len())
	assert.Len(t, split.Valid.Groups, 2)
	assert.Len(t, split.Train.Groups, 8)
	for _, g := range append(split.Train.Groups, split.Valid.Groups...) {
		assert.Equal(t, 3, g)
	}

	again := SplitByUser(rows, 0.2, 42)
	assert.Equal(t, split.Valid.Labels, again.Valid.Labels)
	assert.Equal(t, split.Valid.X, again.Valid.X)
}

func TestSplitByUser_SingleUser(t *testing.T) {
	rows := syntheticRows(1, 4)
	split := SplitByUser(rows, 0.2, 42)

	assert.True(t, split.Degenerate)
	assert.Same(t, split.Train, split.Valid)
	assert.Equal(t, []int{4}, split.Train.Groups)
}

func TestTrainer_LearnsDistanceOrdering(t *testing.T) {
	split := SplitByUser(syntheticRows(10, 5), 0.2, 42)

	model, err := NewTrainer(smallParams(), zaptest.NewLogger(t)).Train(context.Background(), split.Train, split.Valid)
	require.NoError(t, err)
	require.NotEmpty(t, model.Trees)
	assert.Equal(t, len(model.Trees), model.BestIteration)
	assert.Equal(t, features.Columns, model.Columns)
	assert.InDelta(t, 1.0, model.BestScores["ndcg@5"], 1e-9)

	near := make([]float64, len(features.Columns))
	far := make([]float64, len(features.Columns))
	far[4] = 4
	far[5] = float64(features.DistanceBucket(4))
	assert.Greater(t, model.Predict(near), model.Predict(far))
}

func TestTrainer_SingleUserCompletes(t *testing.T) {
	split := SplitByUser(syntheticRows(1, 6), 0.2, 42)

	model, err := NewTrainer(smallParams(), zaptest.NewLogger(t)).Train(context.Background(), split.Train, split.Valid)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, model.BestIteration, 1)
}

func TestTrainer_DefaultParamsOnTinyData(t *testing.T) {
	// min_data_in_leaf = 50 forbids any split; every tree is a single leaf.
	split := SplitByUser(syntheticRows(3, 4), 0.2, 42)
	model, err := NewTrainer(DefaultParams(), zaptest.NewLogger(t)).Train(context.Background(), split.Train, split.Valid)
	require.NoError(t, err)
	for _, tree := range model.Trees {
		assert.Equal(t, 1, tree.Leaves())
	}
}

func TestTrainer_Errors(t *testing.T) {
	trainer := NewTrainer(smallParams(), zaptest.NewLogger(t))

	_, err := trainer.Train(context.Background(), &Dataset{}, &Dataset{})
	assert.ErrorIs(t, err, ErrNoTrainingData)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	split := SplitByUser(syntheticRows(3, 3), 0.2, 42)
	_, err = trainer.Train(ctx, split.Train, split.Valid)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildTree_RespectsLimits(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	grad := []float64{-1, -1, 1, 1}
	hess := []float64{1, 1, 1, 1}
	p := treeParams{numLeaves: 8, maxDepth: 6, minDataInLeaf: 1, minSumHessian: 1e-3, lambdaL2: 1, shrinkage: 1}

	tree := buildTree(x, grad, hess, allRows(4), []int{0}, p)
	require.GreaterOrEqual(t, tree.Leaves(), 2)
	assert.Greater(t, tree.Predict([]float64{0}), 0.0)
	assert.Less(t, tree.Predict([]float64{3}), 0.0)

	p.minDataInLeaf = 3
	single := buildTree(x, grad, hess, allRows(4), []int{0}, p)
	assert.Equal(t, 1, single.Leaves())
}

func TestParamsFromConfig(t *testing.T) {
	p := ParamsFromConfig(config.Config{})
	assert.Equal(t, DefaultParams(), p)

	p = ParamsFromConfig(config.Config{TrainNumBoostRound: 100, TrainEarlyStoppingRounds: 5, TrainSeed: 7})
	assert.Equal(t, 100, p.NumBoostRound)
	assert.Equal(t, 5, p.EarlyStoppingRounds)
	assert.Equal(t, int64(7), p.Seed)
	assert.Equal(t, 31, p.NumLeaves)
}
