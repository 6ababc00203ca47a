package ranking

import (
	"math"
	"sort"
)

// Node is one tree node. Leaves have Left == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a binary regression tree stored as a flat node slice rooted at 0.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree; values <= Threshold go left, everything else
// (including NaN) goes right.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Leaves counts leaf nodes.
func (t *Tree) Leaves() int {
	n := 0
	for _, node := range t.Nodes {
		if node.Left < 0 {
			n++
		}
	}
	return n
}

type treeParams struct {
	numLeaves     int
	maxDepth      int
	minDataInLeaf int
	minSumHessian float64
	lambdaL1      float64
	lambdaL2      float64
	minGain       float64
	shrinkage     float64
}

type splitInfo struct {
	feature   int
	threshold float64
	gain      float64
}

type growingLeaf struct {
	node  int
	idx   []int
	depth int
	split *splitInfo
}

func thresholdL1(g, l1 float64) float64 {
	if g > l1 {
		return g - l1
	}
	if g < -l1 {
		return g + l1
	}
	return 0
}

func (p treeParams) leafScore(g, h float64) float64 {
	t := thresholdL1(g, p.lambdaL1)
	return t * t / (h + p.lambdaL2)
}

func (p treeParams) leafValue(g, h float64) float64 {
	return -thresholdL1(g, p.lambdaL1) / (h + p.lambdaL2)
}

// buildTree grows one tree leaf-wise, always splitting the leaf with the
// largest gain until numLeaves is reached or no split qualifies.
func buildTree(x [][]float64, grad, hess []float64, idx []int, feats []int, p treeParams) Tree {
	tree := Tree{}
	newLeaf := func(rows []int, depth int) *growingLeaf {
		var g, h float64
		for _, i := range rows {
			g += grad[i]
			h += hess[i]
		}
		tree.Nodes = append(tree.Nodes, Node{Left: -1, Right: -1, Value: p.shrinkage * p.leafValue(g, h)})
		leaf := &growingLeaf{node: len(tree.Nodes) - 1, idx: rows, depth: depth}
		if p.maxDepth <= 0 || depth < p.maxDepth {
			leaf.split = bestSplit(x, grad, hess, rows, feats, p)
		}
		return leaf
	}

	leaves := []*growingLeaf{newLeaf(idx, 0)}
	for len(leaves) < p.numLeaves {
		best := -1
		for i, l := range leaves {
			if l.split != nil && (best < 0 || l.split.gain > leaves[best].split.gain) {
				best = i
			}
		}
		if best < 0 {
			break
		}

		parent := leaves[best]
		s := parent.split
		var left, right []int
		for _, i := range parent.idx {
			if x[i][s.feature] <= s.threshold {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}

		l := newLeaf(left, parent.depth+1)
		r := newLeaf(right, parent.depth+1)
		tree.Nodes[parent.node] = Node{
			Feature:   s.feature,
			Threshold: s.threshold,
			Left:      l.node,
			Right:     r.node,
		}
		leaves[best] = l
		leaves = append(leaves, r)
	}
	return tree
}

// bestSplit scans every sampled feature for the exact threshold with the
// highest gain that respects the leaf size and hessian limits.
func bestSplit(x [][]float64, grad, hess []float64, idx []int, feats []int, p treeParams) *splitInfo {
	n := len(idx)
	if n < 2*p.minDataInLeaf || n < 2 {
		return nil
	}
	var gTotal, hTotal float64
	for _, i := range idx {
		gTotal += grad[i]
		hTotal += hess[i]
	}
	parentScore := p.leafScore(gTotal, hTotal)

	var best *splitInfo
	sorted := make([]int, n)
	for _, f := range feats {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			va, vb := x[sorted[a]][f], x[sorted[b]][f]
			if math.IsNaN(vb) {
				return !math.IsNaN(va)
			}
			return va < vb
		})

		var gLeft, hLeft float64
		for k := 0; k < n-1; k++ {
			i := sorted[k]
			gLeft += grad[i]
			hLeft += hess[i]

			cur, next := x[i][f], x[sorted[k+1]][f]
			if cur == next || math.IsNaN(cur) || math.IsNaN(next) {
				continue
			}
			nLeft := k + 1
			if nLeft < p.minDataInLeaf || n-nLeft < p.minDataInLeaf {
				continue
			}
			hRight := hTotal - hLeft
			if hLeft < p.minSumHessian || hRight < p.minSumHessian {
				continue
			}
			gain := p.leafScore(gLeft, hLeft) + p.leafScore(gTotal-gLeft, hRight) - parentScore
			if gain <= p.minGain {
				continue
			}
			if best == nil || gain > best.gain {
				best = &splitInfo{feature: f, threshold: cur, gain: gain}
			}
		}
	}
	return best
}
