package model

import (
	"errors"
	"fmt"
	"math"
)

// estimator maps an encoded vector to per-class probabilities, ordered like
// the artifact's classes.
type estimator interface {
	proba(x []float64) []float64
}

func newEstimator(def Estimator, enc *encoder) (estimator, error) {
	switch def.Kind {
	case KindLogisticRegression:
		return newLogisticRegression(def, enc)
	case KindRandomForest:
		return newRandomForest(def, enc)
	}
	return nil, fmt.Errorf("unknown estimator kind %q", def.Kind)
}

type logisticRegression struct {
	weights   []float64
	intercept float64
}

func newLogisticRegression(def Estimator, enc *encoder) (*logisticRegression, error) {
	if len(def.Classes) != 2 {
		return nil, fmt.Errorf("logistic regression needs exactly 2 classes, got %d", len(def.Classes))
	}
	if len(def.Coefficients) == 0 {
		return nil, errors.New("logistic regression has no coefficients")
	}

	idx := enc.index()
	weights := make([]float64, len(enc.names))
	for name, w := range def.Coefficients {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("coefficient for unknown encoded feature %q", name)
		}
		weights[i] = w
	}
	return &logisticRegression{weights: weights, intercept: def.Intercept}, nil
}

func (m *logisticRegression) proba(x []float64) []float64 {
	z := m.intercept
	for i, w := range m.weights {
		z += w * x[i]
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}
}

type compiledNode struct {
	feature     int
	threshold   float64
	left, right int
	value       []float64
}

type randomForest struct {
	trees    [][]compiledNode
	nClasses int
}

func newRandomForest(def Estimator, enc *encoder) (*randomForest, error) {
	if len(def.Trees) == 0 {
		return nil, errors.New("random forest has no trees")
	}

	idx := enc.index()
	forest := &randomForest{nClasses: len(def.Classes)}
	for t, tree := range def.Trees {
		nodes := make([]compiledNode, len(tree.Nodes))
		for i, n := range tree.Nodes {
			c, err := compileNode(n, i, len(tree.Nodes), len(def.Classes), idx)
			if err != nil {
				return nil, fmt.Errorf("tree %d node %d: %w", t, i, err)
			}
			nodes[i] = c
		}
		forest.trees = append(forest.trees, nodes)
	}
	return forest, nil
}

// compileNode resolves feature names and checks child references. Children
// must come after their parent so every walk terminates.
func compileNode(n Node, i, nNodes, nClasses int, idx map[string]int) (compiledNode, error) {
	if n.isLeaf() {
		if len(n.Value) != nClasses {
			return compiledNode{}, fmt.Errorf("leaf has %d values, want %d", len(n.Value), nClasses)
		}
		var sum float64
		for _, v := range n.Value {
			sum += v
		}
		if sum <= 0 {
			return compiledNode{}, errors.New("leaf values sum to zero")
		}
		value := make([]float64, nClasses)
		for k, v := range n.Value {
			value[k] = v / sum
		}
		return compiledNode{value: value}, nil
	}

	f, ok := idx[n.Feature]
	if !ok {
		return compiledNode{}, fmt.Errorf("split on unknown encoded feature %q", n.Feature)
	}
	if n.Left == nil || n.Right == nil {
		return compiledNode{}, errors.New("split without both children")
	}
	for _, child := range []int{*n.Left, *n.Right} {
		if child <= i || child >= nNodes {
			return compiledNode{}, fmt.Errorf("child index %d out of range (%d, %d)", child, i, nNodes)
		}
	}
	return compiledNode{feature: f, threshold: n.Threshold, left: *n.Left, right: *n.Right}, nil
}

func (m *randomForest) proba(x []float64) []float64 {
	out := make([]float64, m.nClasses)
	for _, nodes := range m.trees {
		n := nodes[0]
		for n.value == nil {
			if x[n.feature] <= n.threshold {
				n = nodes[n.left]
			} else {
				n = nodes[n.right]
			}
		}
		for k, v := range n.value {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(m.trees))
	}
	return out
}

// argmax returns the first index of the largest value.
func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}
