package forecasting

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GradientBoosting configures a squared-error boosted ensemble of
// regression trees.
type GradientBoosting struct {
	Trees        int
	LearningRate float64
	MaxDepth     int
}

// DefaultBoosting uses 100 depth-3 trees with learning rate 0.1.
func DefaultBoosting() GradientBoosting {
	return GradientBoosting{Trees: 100, LearningRate: 0.1, MaxDepth: 3}
}

type regressionNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Leaf      bool
	Value     float64
}

// BoostedModel is a fitted ensemble. Predictions start at the training mean
// and add each tree's shrunken residual estimate.
type BoostedModel struct {
	Base         float64
	LearningRate float64
	trees        [][]regressionNode
}

// Fit trains on feature rows x and targets y. Fitting is deterministic.
func (g GradientBoosting) Fit(ctx context.Context, x [][]float64, y []float64) (*BoostedModel, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("need matching non-empty features and targets, got %d and %d", len(x), len(y))
	}
	if g.Trees <= 0 || g.LearningRate <= 0 || g.MaxDepth < 1 {
		return nil, fmt.Errorf("invalid boosting parameters: trees=%d learning_rate=%g max_depth=%d", g.Trees, g.LearningRate, g.MaxDepth)
	}

	model := &BoostedModel{Base: stat.Mean(y, nil), LearningRate: g.LearningRate}
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = model.Base
	}
	residual := make([]float64, len(y))
	samples := make([]int, len(y))
	for i := range samples {
		samples[i] = i
	}

	for t := 0; t < g.Trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		b := &regressionBuilder{x: x, y: residual, maxDepth: g.MaxDepth}
		b.build(samples, 0)
		model.trees = append(model.trees, b.nodes)
		for i := range pred {
			pred[i] += g.LearningRate * evalTree(b.nodes, x[i])
		}
	}
	return model, nil
}

// Predict estimates the target for one feature row.
func (m *BoostedModel) Predict(x []float64) float64 {
	out := m.Base
	for _, tree := range m.trees {
		out += m.LearningRate * evalTree(tree, x)
	}
	return out
}

func evalTree(tree []regressionNode, x []float64) float64 {
	i := 0
	for !tree[i].Leaf {
		if x[tree[i].Feature] <= tree[i].Threshold {
			i = tree[i].Left
		} else {
			i = tree[i].Right
		}
	}
	return tree[i].Value
}

type regressionBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	nodes    []regressionNode
}

func (b *regressionBuilder) build(samples []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, regressionNode{Leaf: true, Value: b.mean(samples)})

	if depth >= b.maxDepth || len(samples) < 2 {
		return idx
	}
	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx] = regressionNode{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit scans every feature and midpoint threshold for the largest
// reduction in squared error. Ties keep the first candidate found.
func (b *regressionBuilder) bestSplit(samples []int) (int, float64, bool) {
	var total, totalSq float64
	for _, s := range samples {
		total += b.y[s]
		totalSq += b.y[s] * b.y[s]
	}
	n := float64(len(samples))
	parentSSE := totalSq - total*total/n

	bestGain := 1e-12
	bestFeature, bestThreshold, found := 0, 0.0, false

	order := make([]int, len(samples))
	for f := range b.x[samples[0]] {
		copy(order, samples)
		sort.SliceStable(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })

		var leftSum, leftSq float64
		for i := 0; i < len(order)-1; i++ {
			v := b.y[order[i]]
			leftSum += v
			leftSq += v * v
			cur, next := b.x[order[i]][f], b.x[order[i+1]][f]
			if cur == next {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if gain := parentSSE - sse; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *regressionBuilder) mean(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += b.y[s]
	}
	return sum / float64(len(samples))
}

// meanAbsoluteError is the average absolute difference between two series.
func meanAbsoluteError(actual, predicted []float64) float64 {
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}
