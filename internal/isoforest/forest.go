// Package isoforest implements an isolation forest for unsupervised
// outlier detection. Points isolated in fewer random partitioning
// steps score as more anomalous.
package isoforest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config holds the forest hyperparameters.
type Config struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		Trees:         200,
		SampleSize:    256,
		Contamination: 0.03,
		Seed:          42,
	}
}

// ErrNotFitted is returned when scoring before Fit.
var ErrNotFitted = errors.New("forest has not been fitted")

// ErrEmptyInput is returned when fitting on an empty matrix.
var ErrEmptyInput = errors.New("cannot fit on empty input")

type node struct {
	left      *node
	right     *node
	splitAttr int
	splitVal  float64
	size      int
}

func (n *node) external() bool {
	return n.left == nil
}

// Forest is a fitted isolation forest. Scoring is deterministic for a
// given seed within one process run; determinism across versions of
// this package is not guaranteed.
type Forest struct {
	rng        *rand.Rand
	trees      []*node
	cfg        Config
	sampleSize int
	norm       float64
	offset     float64
	fitted     bool
}

// New creates an unfitted forest with the given hyperparameters,
// falling back to defaults for non-positive values.
func New(cfg Config) *Forest {
	def := DefaultConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.Contamination <= 0 || cfg.Contamination >= 1 {
		cfg.Contamination = def.Contamination
	}
	return &Forest{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Fit builds the ensemble over X. Degenerate inputs (a single row,
// constant columns) fit without error; the resulting trees are just
// shallow.
func (f *Forest) Fit(x [][]float64) error {
	n := len(x)
	if n == 0 {
		return ErrEmptyInput
	}
	for i := range x {
		for j := range x[i] {
			if math.IsNaN(x[i][j]) || math.IsInf(x[i][j], 0) {
				return fmt.Errorf("non-finite value at row %d column %d", i, j)
			}
		}
	}

	f.sampleSize = f.cfg.SampleSize
	if f.sampleSize > n {
		f.sampleSize = n
	}
	f.norm = avgPathLength(f.sampleSize)

	heightLimit := 0
	if f.sampleSize > 1 {
		heightLimit = int(math.Ceil(math.Log2(float64(f.sampleSize))))
	}

	f.trees = make([]*node, f.cfg.Trees)
	for t := 0; t < f.cfg.Trees; t++ {
		sample := f.rng.Perm(n)[:f.sampleSize]
		f.trees[t] = f.buildTree(x, sample, 0, heightLimit)
	}
	f.fitted = true

	// Offset raw scores so that roughly the expected outlier fraction
	// of the training window ends up positive, mirroring the usual
	// decision-function convention.
	scores := make([]float64, n)
	for i := range x {
		scores[i] = f.anomalyScore(x[i])
	}
	f.offset = quantile(scores, 1-f.cfg.Contamination)
	return nil
}

// buildTree grows one isolation tree over the sampled row indices.
func (f *Forest) buildTree(x [][]float64, idx []int, depth, limit int) *node {
	if depth >= limit || len(idx) <= 1 {
		return &node{size: len(idx)}
	}

	// Only attributes with spread can split
	cols := len(x[idx[0]])
	splittable := make([]int, 0, cols)
	for j := 0; j < cols; j++ {
		lo, hi := x[idx[0]][j], x[idx[0]][j]
		for _, i := range idx[1:] {
			v := x[i][j]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi > lo {
			splittable = append(splittable, j)
		}
	}
	if len(splittable) == 0 {
		return &node{size: len(idx)}
	}

	attr := splittable[f.rng.Intn(len(splittable))]
	lo, hi := x[idx[0]][attr], x[idx[0]][attr]
	for _, i := range idx[1:] {
		v := x[i][attr]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	split := lo + f.rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if x[i][attr] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &node{size: len(idx)}
	}

	return &node{
		splitAttr: attr,
		splitVal:  split,
		left:      f.buildTree(x, left, depth+1, limit),
		right:     f.buildTree(x, right, depth+1, limit),
	}
}

// Scores returns one raw decision value per row, higher = more
// anomalous. Every returned value is finite.
func (f *Forest) Scores(x [][]float64) ([]float64, error) {
	if !f.fitted {
		return nil, ErrNotFitted
	}
	scores := make([]float64, len(x))
	for i := range x {
		scores[i] = f.anomalyScore(x[i]) - f.offset
	}
	return scores, nil
}

// anomalyScore computes s(x) = 2^(-E[h(x)]/c(ψ)), bounded in (0, 1].
func (f *Forest) anomalyScore(point []float64) float64 {
	if f.norm == 0 {
		// ψ < 2: the forest cannot isolate anything
		return 0.5
	}
	var total float64
	for _, tree := range f.trees {
		total += pathLength(tree, point, 0)
	}
	mean := total / float64(len(f.trees))
	return math.Exp2(-mean / f.norm)
}

func pathLength(n *node, point []float64, depth float64) float64 {
	if n.external() {
		return depth + avgPathLength(n.size)
	}
	if point[n.splitAttr] < n.splitVal {
		return pathLength(n.left, point, depth+1)
	}
	return pathLength(n.right, point, depth+1)
}

const eulerGamma = 0.5772156649015329

// avgPathLength is c(m), the average path length of an unsuccessful
// BST search over m points.
func avgPathLength(m int) float64 {
	switch {
	case m > 2:
		h := math.Log(float64(m-1)) + eulerGamma
		return 2*h - 2*float64(m-1)/float64(m)
	case m == 2:
		return 1
	default:
		return 0
	}
}

// quantile returns the q-quantile of vals without mutating them.
func quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
