package categorization

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ForestOptions configures the bagged tree ensemble.
type ForestOptions struct {
	Trees       int
	Seed        int64
	MaxDepth    int // 0 grows trees until leaves are pure
	MaxFeatures int // 0 means sqrt(features)
}

// Forest is an ensemble of bootstrap-trained classification trees.
type Forest struct {
	Classes []string       `msgpack:"classes"`
	Trees   []DecisionTree `msgpack:"trees"`
}

// FitForest trains one tree per bootstrap sample. Tree i draws from its own
// generator seeded with Seed+i, so results do not depend on scheduling.
func FitForest(ctx context.Context, x [][]float64, labels []string, opts ForestOptions) (*Forest, error) {
	if len(x) != len(labels) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ", len(x), len(labels))
	}
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, fmt.Errorf("empty feature matrix")
	}
	if opts.Trees <= 0 {
		return nil, fmt.Errorf("tree count must be positive, got %d", opts.Trees)
	}

	classes := uniqueSorted(labels)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = classIndex[l]
	}

	maxFeatures := opts.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(len(x[0]))))))
	}

	trees := make([]DecisionTree, opts.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
			sample := make([]int, len(x))
			for j := range sample {
				sample[j] = rng.Intn(len(x))
			}
			b := &treeBuilder{
				x:           x,
				y:           y,
				nClasses:    len(classes),
				maxFeatures: maxFeatures,
				maxDepth:    opts.MaxDepth,
				rng:         rng,
			}
			trees[i] = *b.fit(sample)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{Classes: classes, Trees: trees}, nil
}

// PredictProba averages the class distributions of all trees.
func (f *Forest) PredictProba(x []float64) []float64 {
	proba := make([]float64, len(f.Classes))
	for i := range f.Trees {
		for c, p := range f.Trees[i].PredictProba(x) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba
}

// Predict returns the most probable class and its probability. Ties resolve
// to the lexicographically smallest label.
func (f *Forest) Predict(x []float64) (string, float64) {
	proba := f.PredictProba(x)
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.Classes[best], proba[best]
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
