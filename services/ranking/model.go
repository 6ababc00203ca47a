package ranking

import "time"

// Model is a trained LambdaMART ensemble. It is immutable once loaded and
// safe for concurrent Predict calls.
type Model struct {
	Columns       []string
	SchemaVersion int
	Trees         []Tree
	BestIteration int
	BestScores    map[string]float64
	Version       string
	TrainedAt     time.Time
}

// Predict sums the tree outputs for one feature vector in Columns order.
func (m *Model) Predict(x []float64) float64 {
	var s float64
	for i := range m.Trees {
		s += m.Trees[i].Predict(x)
	}
	return s
}

// PredictBatch scores every row of x.
func (m *Model) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Predict(row)
	}
	return out
}
