package ranking

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"servicehub/config"
	"servicehub/services/features"

	"go.uber.org/zap"
)

// Params configures LambdaMART training.
type Params struct {
	LearningRate        float64
	NumLeaves           int
	MaxDepth            int
	MinDataInLeaf       int
	MinSumHessianInLeaf float64
	FeatureFraction     float64
	BaggingFraction     float64
	BaggingFreq         int
	LambdaL1            float64
	LambdaL2            float64
	MinGainToSplit      float64
	Sigma               float64
	NumBoostRound       int
	EarlyStoppingRounds int
	EvalAt              []int
	LogPeriod           int
	Seed                int64
	TestFraction        float64
}

// DefaultParams returns the production hyper-parameters.
func DefaultParams() Params {
	return Params{
		LearningRate:        0.05,
		NumLeaves:           31,
		MaxDepth:            6,
		MinDataInLeaf:       50,
		MinSumHessianInLeaf: 1e-3,
		FeatureFraction:     0.8,
		BaggingFraction:     0.8,
		BaggingFreq:         5,
		LambdaL1:            1.0,
		LambdaL2:            1.0,
		MinGainToSplit:      0.01,
		Sigma:               1.0,
		NumBoostRound:       2000,
		EarlyStoppingRounds: 50,
		EvalAt:              []int{1, 3, 5},
		LogPeriod:           50,
		Seed:                42,
		TestFraction:        0.2,
	}
}

// ParamsFromConfig overrides the defaults with configured training limits.
func ParamsFromConfig(cfg config.Config) Params {
	p := DefaultParams()
	if cfg.TrainNumBoostRound > 0 {
		p.NumBoostRound = cfg.TrainNumBoostRound
	}
	if cfg.TrainEarlyStoppingRounds > 0 {
		p.EarlyStoppingRounds = cfg.TrainEarlyStoppingRounds
	}
	if cfg.TrainSeed != 0 {
		p.Seed = cfg.TrainSeed
	}
	return p
}

// Trainer fits ranking models.
type Trainer struct {
	params Params
	logger *zap.Logger
}

// NewTrainer creates a trainer with the given parameters.
func NewTrainer(params Params, logger *zap.Logger) *Trainer {
	if len(params.EvalAt) == 0 {
		params.EvalAt = []int{1, 3, 5}
	}
	return &Trainer{params: params, logger: logger.With(zap.String("component", "ranker_trainer"))}
}

func metricName(k int) string { return fmt.Sprintf("ndcg@%d", k) }

func (t *Trainer) evaluate(scores []float64, d *Dataset) map[string]float64 {
	out := make(map[string]float64, len(t.params.EvalAt))
	for _, k := range t.params.EvalAt {
		out[metricName(k)] = NDCG(scores, d.Labels, d.Groups, k)
	}
	return out
}

func (t *Trainer) logFields(iter int, train, valid map[string]float64) []zap.Field {
	fields := []zap.Field{zap.Int("iteration", iter)}
	for _, k := range t.params.EvalAt {
		fields = append(fields,
			zap.Float64("train_"+metricName(k), train[metricName(k)]),
			zap.Float64("valid_"+metricName(k), valid[metricName(k)]),
		)
	}
	return fields
}

// Train boosts trees on train and stops early when the validation NDCG at
// the largest cutoff stops improving for EarlyStoppingRounds rounds. The
// returned model is cut to its best iteration.
func (t *Trainer) Train(ctx context.Context, train, valid *Dataset) (*Model, error) {
	if train == nil || train.Len() == 0 {
		return nil, ErrNoTrainingData
	}
	p := t.params
	rng := rand.New(rand.NewSource(p.Seed))

	tp := treeParams{
		numLeaves:     p.NumLeaves,
		maxDepth:      p.MaxDepth,
		minDataInLeaf: p.MinDataInLeaf,
		minSumHessian: p.MinSumHessianInLeaf,
		lambdaL1:      p.LambdaL1,
		lambdaL2:      p.LambdaL2,
		minGain:       p.MinGainToSplit,
		shrinkage:     p.LearningRate,
	}
	if tp.numLeaves < 2 {
		tp.numLeaves = 2
	}

	n := train.Len()
	nFeatures := len(train.X[0])
	trainScores := make([]float64, n)
	validScores := make([]float64, valid.Len())
	grad := make([]float64, n)
	hess := make([]float64, n)

	largest := p.EvalAt[0]
	for _, k := range p.EvalAt {
		if k > largest {
			largest = k
		}
	}
	monitored := metricName(largest)

	model := &Model{Columns: append([]string(nil), features.Columns...), SchemaVersion: features.SchemaVersion}
	bestScore := math.Inf(-1)
	var bestScores map[string]float64
	bestIter := 0
	bag := allRows(n)

	for iter := 1; iter <= p.NumBoostRound; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training cancelled at iteration %d: %w", iter, err)
		}

		if p.BaggingFreq > 0 && p.BaggingFraction > 0 && p.BaggingFraction < 1 && (iter-1)%p.BaggingFreq == 0 {
			bag = sampleRows(rng, n, p.BaggingFraction)
		}
		feats := sampleFeatures(rng, nFeatures, p.FeatureFraction)

		lambdaGradients(trainScores, train.Labels, train.Groups, p.Sigma, grad, hess)
		tree := buildTree(train.X, grad, hess, bag, feats, tp)
		model.Trees = append(model.Trees, tree)

		for i, x := range train.X {
			trainScores[i] += tree.Predict(x)
		}
		for i, x := range valid.X {
			validScores[i] += tree.Predict(x)
		}

		validEval := t.evaluate(validScores, valid)
		if p.LogPeriod > 0 && iter%p.LogPeriod == 0 {
			t.logger.Info("Boosting progress", t.logFields(iter, t.evaluate(trainScores, train), validEval)...)
		}

		if score := validEval[monitored]; score > bestScore {
			bestScore = score
			bestScores = validEval
			bestIter = iter
		} else if p.EarlyStoppingRounds > 0 && iter-bestIter >= p.EarlyStoppingRounds {
			t.logger.Info("Early stopping",
				zap.Int("iteration", iter),
				zap.Int("best_iteration", bestIter),
				zap.Float64("best_"+monitored, bestScore),
			)
			break
		}
	}

	model.Trees = model.Trees[:bestIter]
	model.BestIteration = bestIter
	model.BestScores = bestScores
	return model, nil
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// sampleRows draws a sorted subset of round(fraction*n) rows, at least one.
func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Round(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)[:k]
	mark := make([]bool, n)
	for _, i := range perm {
		mark[i] = true
	}
	rows := make([]int, 0, k)
	for i, ok := range mark {
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}

func sampleFeatures(rng *rand.Rand, n int, fraction float64) []int {
	if fraction <= 0 || fraction >= 1 {
		return allRows(n)
	}
	return sampleRows(rng, n, fraction)
}
