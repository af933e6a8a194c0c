package anomaly

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const eulerGamma = 0.5772156649

// IsolationForest configures an ensemble of random partitioning trees.
// Points that are isolated in fewer splits are outliers.
type IsolationForest struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

type isolationNode struct {
	Feature int
	Split   float64
	Left    int
	Right   int
	Size    int
	Leaf    bool
}

// IsolationModel is a fitted forest plus the score threshold separating
// the expected fraction of outliers in the training batch.
type IsolationModel struct {
	trees     [][]isolationNode
	psi       int
	threshold float64
}

// Fit grows the forest on x and derives the contamination threshold from
// the training scores.
func (f IsolationForest) Fit(ctx context.Context, x [][]float64) (*IsolationModel, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("isolation forest needs at least 2 samples, got %d", len(x))
	}
	if f.Trees <= 0 {
		return nil, fmt.Errorf("tree count must be positive, got %d", f.Trees)
	}
	if f.Contamination <= 0 || f.Contamination > 0.5 {
		return nil, fmt.Errorf("contamination must be in (0, 0.5], got %g", f.Contamination)
	}

	psi := f.SampleSize
	if psi <= 0 || psi > len(x) {
		psi = len(x)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(psi))))

	model := &IsolationModel{trees: make([][]isolationNode, f.Trees), psi: psi}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range model.trees {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.Seed + int64(i)))
			sample := rng.Perm(len(x))[:psi]
			b := &isolationBuilder{x: x, rng: rng, maxDepth: maxDepth}
			b.build(sample, 0)
			model.trees[i] = b.nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	neg := make([]float64, len(x))
	for i, row := range x {
		neg[i] = -model.Score(row)
	}
	model.threshold = percentile(neg, f.Contamination)
	return model, nil
}

// Score returns the anomaly score 2^(-E[h(x)]/c(psi)); values near 1 are outliers.
func (m *IsolationModel) Score(x []float64) float64 {
	var total float64
	for _, tree := range m.trees {
		total += pathLength(tree, x)
	}
	mean := total / float64(len(m.trees))
	return math.Pow(2, -mean/averagePathLength(m.psi))
}

// IsOutlier reports whether x scores beyond the fitted threshold.
func (m *IsolationModel) IsOutlier(x []float64) bool {
	return -m.Score(x) < m.threshold
}

func pathLength(tree []isolationNode, x []float64) float64 {
	i, depth := 0, 0
	for {
		node := &tree[i]
		if node.Leaf {
			return float64(depth) + averagePathLength(node.Size)
		}
		if x[node.Feature] <= node.Split {
			i = node.Left
		} else {
			i = node.Right
		}
		depth++
	}
}

// averagePathLength is c(n), the mean path length of an unsuccessful
// binary search tree lookup over n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// percentile is the linearly interpolated q-quantile of values.
func percentile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

type isolationBuilder struct {
	x        [][]float64
	rng      *rand.Rand
	maxDepth int
	nodes    []isolationNode
}

func (b *isolationBuilder) build(samples []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, isolationNode{Size: len(samples)})

	if depth >= b.maxDepth || len(samples) <= 1 {
		b.nodes[idx].Leaf = true
		return idx
	}

	type span struct {
		feature  int
		min, max float64
	}
	var candidates []span
	for f := range b.x[samples[0]] {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, s := range samples {
			v := b.x[s][f]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi > lo {
			candidates = append(candidates, span{f, lo, hi})
		}
	}
	if len(candidates) == 0 {
		b.nodes[idx].Leaf = true
		return idx
	}

	c := candidates[b.rng.Intn(len(candidates))]
	split := c.min + b.rng.Float64()*(c.max-c.min)

	var left, right []int
	for _, s := range samples {
		if b.x[s][c.feature] <= split {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	b.nodes[idx].Feature = c.feature
	b.nodes[idx].Split = split
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}
