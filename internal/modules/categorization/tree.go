package categorization

import (
	"math/rand"
	"sort"
)

// minGain is the smallest impurity decrease accepted as a real split.
const minGain = 1e-12

// TreeNode is one node of a flattened classification tree. Leaves carry the
// class distribution of the training samples that reached them.
type TreeNode struct {
	Feature   int       `msgpack:"f"`
	Threshold float64   `msgpack:"t"`
	Left      int       `msgpack:"l"`
	Right     int       `msgpack:"r"`
	Leaf      bool      `msgpack:"leaf"`
	Value     []float64 `msgpack:"v"`
}

// DecisionTree is a CART classification tree split on gini impurity.
type DecisionTree struct {
	Nodes []TreeNode `msgpack:"nodes"`
}

// PredictProba walks the tree and returns the leaf's class distribution.
func (t *DecisionTree) PredictProba(x []float64) []float64 {
	i := 0
	for {
		node := &t.Nodes[i]
		if node.Leaf {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	nClasses    int
	maxFeatures int
	maxDepth    int
	rng         *rand.Rand
	nodes       []TreeNode
}

func (b *treeBuilder) fit(samples []int) *DecisionTree {
	b.build(samples, 0)
	return &DecisionTree{Nodes: b.nodes}
}

func (b *treeBuilder) build(samples []int, depth int) int {
	counts := b.classCounts(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{})

	if len(samples) < 2 || isPure(counts) || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.nodes[idx] = leafNode(counts, len(samples))
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		b.nodes[idx] = leafNode(counts, len(samples))
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
	b.nodes[idx] = TreeNode{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit examines at least maxFeatures random features and keeps looking
// past that budget until some valid split has been found.
func (b *treeBuilder) bestSplit(samples []int, counts []float64) (int, float64, bool) {
	n := float64(len(samples))
	parent := gini(counts, n)

	bestFeature, bestThreshold, bestGain := -1, 0.0, minGain
	sorted := make([]int, len(samples))
	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)

	for visited, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.maxFeatures && bestFeature >= 0 {
			break
		}

		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		for c := range left {
			left[c] = 0
		}
		copy(right, counts)

		for i := 0; i < len(sorted)-1; i++ {
			c := b.y[sorted[i]]
			left[c]++
			right[c]--

			v, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if v == next {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			impurity := (nl*gini(left, nl) + nr*gini(right, nr)) / n
			if gain := parent - impurity; gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, (v+next)/2, gain
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) classCounts(samples []int) []float64 {
	counts := make([]float64, b.nClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func leafNode(counts []float64, n int) TreeNode {
	value := make([]float64, len(counts))
	for i, c := range counts {
		value[i] = c / float64(n)
	}
	return TreeNode{Leaf: true, Value: value}
}
