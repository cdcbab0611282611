package quality

import (
	"math"
	"math/rand"
	"sort"

	"github.com/KaramelBytes/dqagent/internal/dataset"
)

// IsolationForest scores rows by how quickly random axis-aligned splits
// isolate them. Scores follow the usual convention: the lower the score,
// the more anomalous the row. Results are deterministic for a given Seed.
type IsolationForest struct {
	Trees         int
	MaxSamples    int
	Contamination float64
	Seed          int64
}

// NewIsolationForest returns a forest with 100 trees, 256-row sub-samples,
// 10% contamination and seed 42.
func NewIsolationForest() *IsolationForest {
	return &IsolationForest{Trees: 100, MaxSamples: 256, Contamination: 0.10, Seed: 42}
}

// ForestResult holds per-row scores and outlier labels.
type ForestResult struct {
	Scores   []float64
	Outliers []bool
	// Offset is the score threshold; rows scoring strictly below it are outliers.
	Offset float64
}

type itreeNode struct {
	feature     int
	split       float64
	left, right *itreeNode
	size        int
}

func (n *itreeNode) leaf() bool { return n.left == nil && n.right == nil }

// FitScore builds the forest on x (rows by features) and scores every row.
func (f *IsolationForest) FitScore(x [][]float64) ForestResult {
	n := len(x)
	res := ForestResult{Scores: make([]float64, n), Outliers: make([]bool, n)}
	if n == 0 {
		return res
	}
	psi := f.MaxSamples
	if psi <= 0 || psi > n {
		psi = n
	}
	norm := averagePathLength(psi)
	if n < 2 || norm == 0 {
		for i := range res.Scores {
			res.Scores[i] = -0.5
		}
		res.Offset = -0.5
		return res
	}
	trees := f.Trees
	if trees <= 0 {
		trees = 100
	}
	rng := rand.New(rand.NewSource(f.Seed))
	limit := int(math.Ceil(math.Log2(float64(psi))))

	depthSum := make([]float64, n)
	for t := 0; t < trees; t++ {
		sample := rng.Perm(n)[:psi]
		root := buildITree(x, sample, 0, limit, rng)
		for i, row := range x {
			depthSum[i] += pathLength(row, root, 0)
		}
	}
	for i := range x {
		mean := depthSum[i] / float64(trees)
		res.Scores[i] = -math.Pow(2, -mean/norm)
	}

	sorted := append([]float64(nil), res.Scores...)
	sort.Float64s(sorted)
	res.Offset = dataset.Quantile(sorted, f.Contamination)
	for i, s := range res.Scores {
		res.Outliers[i] = s < res.Offset
	}
	return res
}

func buildITree(x [][]float64, idx []int, depth, limit int, rng *rand.Rand) *itreeNode {
	if depth >= limit || len(idx) <= 1 {
		return &itreeNode{size: len(idx)}
	}
	nfeat := len(x[idx[0]])
	type span struct {
		feature  int
		min, max float64
	}
	var candidates []span
	for j := 0; j < nfeat; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := x[i][j]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if lo < hi {
			candidates = append(candidates, span{feature: j, min: lo, max: hi})
		}
	}
	if len(candidates) == 0 {
		return &itreeNode{size: len(idx)}
	}
	c := candidates[rng.Intn(len(candidates))]
	split := c.min + rng.Float64()*(c.max-c.min)
	var left, right []int
	for _, i := range idx {
		if x[i][c.feature] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &itreeNode{
		feature: c.feature,
		split:   split,
		left:    buildITree(x, left, depth+1, limit, rng),
		right:   buildITree(x, right, depth+1, limit, rng),
		size:    len(idx),
	}
}

func pathLength(row []float64, n *itreeNode, depth int) float64 {
	for !n.leaf() {
		if row[n.feature] < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.size)
}

// averagePathLength is the expected path length of an unsuccessful search
// in a binary search tree of n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+0.5772156649015329) - 2*(fn-1)/fn
	}
}

// standardize centers each column on zero with unit population variance.
// Constant columns become all zeros.
func standardize(x [][]float64) [][]float64 {
	if len(x) == 0 {
		return x
	}
	nfeat := len(x[0])
	out := make([][]float64, len(x))
	for i := range out {
		out[i] = make([]float64, nfeat)
	}
	for j := 0; j < nfeat; j++ {
		var mean float64
		for i := range x {
			mean += x[i][j]
		}
		mean /= float64(len(x))
		var ss float64
		for i := range x {
			d := x[i][j] - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(len(x)))
		if std == 0 {
			std = 1
		}
		for i := range x {
			out[i][j] = (x[i][j] - mean) / std
		}
	}
	return out
}
