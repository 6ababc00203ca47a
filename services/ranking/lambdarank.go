package ranking

import "math"

// lambdaGradients fills grad and hess with LambdaRank first and second
// derivatives: pairwise logistic loss on every ordered label pair, each pair
// weighted by the NDCG change of swapping it.
func lambdaGradients(scores, labels []float64, groups []int, sigma float64, grad, hess []float64) {
	for i := range grad {
		grad[i] = 0
		hess[i] = 0
	}

	start := 0
	for _, size := range groups {
		idcg := idealDCG(labels, start, size, 0)
		if idcg == 0 {
			start += size
			continue
		}

		pos := make(map[int]int, size)
		for p, i := range orderByScore(scores, start, size) {
			pos[i] = p
		}

		for i := start; i < start+size; i++ {
			for j := start; j < start+size; j++ {
				if labels[i] <= labels[j] {
					continue
				}
				deltaNDCG := math.Abs((gain(labels[i])-gain(labels[j]))*
					(discount(pos[i])-discount(pos[j]))) / idcg
				rho := 1 / (1 + math.Exp(sigma*(scores[i]-scores[j])))
				lambda := sigma * rho * deltaNDCG
				h := sigma * sigma * rho * (1 - rho) * deltaNDCG

				grad[i] -= lambda
				grad[j] += lambda
				hess[i] += h
				hess[j] += h
			}
		}
		start += size
	}
}
