package ranking

import (
	"math"
	"sort"
)

func gain(label float64) float64 {
	return math.Exp2(label) - 1
}

func discount(pos int) float64 {
	return 1 / math.Log2(float64(pos)+2)
}

// orderByScore returns positions start..start+size-1 sorted by descending score.
func orderByScore(scores []float64, start, size int) []int {
	order := make([]int, size)
	for i := range order {
		order[i] = start + i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	return order
}

// idealDCG is the DCG of the group's labels in ideal order, cut at k (k <= 0 means no cut).
func idealDCG(labels []float64, start, size, k int) float64 {
	sorted := append([]float64(nil), labels[start:start+size]...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if k > 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	var dcg float64
	for i, l := range sorted {
		dcg += gain(l) * discount(i)
	}
	return dcg
}

// NDCG is the mean NDCG@k over groups. A group with no relevant rows scores 1.
func NDCG(scores, labels []float64, groups []int, k int) float64 {
	if len(groups) == 0 {
		return 0
	}
	var total float64
	start := 0
	for _, size := range groups {
		idcg := idealDCG(labels, start, size, k)
		if idcg == 0 {
			total++
			start += size
			continue
		}
		order := orderByScore(scores, start, size)
		if k > 0 && k < len(order) {
			order = order[:k]
		}
		var dcg float64
		for pos, i := range order {
			dcg += gain(labels[i]) * discount(pos)
		}
		total += dcg / idcg
		start += size
	}
	return total / float64(len(groups))
}
