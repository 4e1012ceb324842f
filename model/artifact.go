package model

import _ "embed"

const (
	FeatureNumeric     = "numeric"
	FeatureCategorical = "categorical"

	KindLogisticRegression = "logistic_regression"
	KindRandomForest       = "random_forest"
)

//go:embed artifact.schema.json
var artifactSchema string

// Artifact is the on-disk form of a trained classifier.
type Artifact struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Features     []Feature    `json:"features"`
	Preprocessor Preprocessor `json:"preprocessor"`
	Estimator    Estimator    `json:"estimator"`
}

// Feature is one input column the model was trained on, in training order.
type Feature struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Preprocessor standard-scales numeric columns and one-hot encodes categorical
// ones. Numeric columns without an entry pass through unscaled.
type Preprocessor struct {
	Numeric     map[string]Scaler   `json:"numeric"`
	Categorical map[string][]string `json:"categorical"`
}

type Scaler struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// Estimator holds either logistic regression weights or a forest of trees,
// selected by Kind. Coefficients and tree features refer to encoded feature
// names: the column name for numeric features, "column=category" for one-hot
// columns.
type Estimator struct {
	Kind         string             `json:"kind"`
	Classes      []int              `json:"classes"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
	Intercept    float64            `json:"intercept,omitempty"`
	Trees        []Tree             `json:"trees,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Value is empty, otherwise a leaf carrying per-class
// weights. Samples with feature <= Threshold go left.
type Node struct {
	Feature   string    `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *int      `json:"left,omitempty"`
	Right     *int      `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) isLeaf() bool {
	return len(n.Value) > 0
}

// EncodedName is the name of a one-hot column.
func EncodedName(feature, category string) string {
	return feature + "=" + category
}
