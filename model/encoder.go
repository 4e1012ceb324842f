package model

import (
	"fmt"
	"strings"

	"loan-predictor/apperrors"
	"loan-predictor/domain"
)

// encoder turns a single-row table into the dense vector the estimator sees.
type encoder struct {
	features []Feature
	scalers  map[string]Scaler
	// categories[i] is the one-hot vocabulary of features[i]; nil for numeric.
	categories [][]string
	// offsets[i] is the position of features[i]'s first encoded column.
	offsets []int
	names   []string
}

func newEncoder(features []Feature, pre Preprocessor) (*encoder, error) {
	enc := &encoder{
		features:   features,
		scalers:    pre.Numeric,
		categories: make([][]string, len(features)),
		offsets:    make([]int, len(features)),
	}

	seen := make(map[string]bool, len(features))
	for i, f := range features {
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
		enc.offsets[i] = len(enc.names)

		switch f.Type {
		case FeatureNumeric:
			enc.names = append(enc.names, f.Name)
		case FeatureCategorical:
			cats, ok := pre.Categorical[f.Name]
			if !ok {
				return nil, fmt.Errorf("categorical feature %q has no categories", f.Name)
			}
			enc.categories[i] = cats
			for _, c := range cats {
				enc.names = append(enc.names, EncodedName(f.Name, c))
			}
		default:
			return nil, fmt.Errorf("feature %q has unknown type %q", f.Name, f.Type)
		}
	}

	for name := range pre.Numeric {
		if !seen[name] {
			return nil, fmt.Errorf("scaler for unknown feature %q", name)
		}
	}
	return enc, nil
}

func (e *encoder) index() map[string]int {
	idx := make(map[string]int, len(e.names))
	for i, n := range e.names {
		idx[n] = i
	}
	return idx
}

// encode checks the row against the training schema (same columns, same
// order, compatible types) and returns the encoded vector. Unknown categories
// encode as all zeros.
func (e *encoder) encode(row domain.Row) ([]float64, error) {
	if len(row) != len(e.features) {
		return nil, apperrors.NewSchemaMismatchError(fmt.Sprintf(
			"expected %d columns [%s], got %d [%s]",
			len(e.features), strings.Join(e.featureNames(), ", "),
			len(row), strings.Join(row.Names(), ", ")))
	}

	x := make([]float64, len(e.names))
	for i, f := range e.features {
		col := row[i]
		if col.Name != f.Name {
			return nil, apperrors.NewSchemaMismatchError(fmt.Sprintf(
				"column %d: expected %q, got %q", i, f.Name, col.Name))
		}

		if f.Type == FeatureNumeric {
			v, ok := toFloat(col.Value)
			if !ok {
				return nil, apperrors.NewSchemaMismatchError(fmt.Sprintf(
					"column %q: expected a number, got %T", f.Name, col.Value))
			}
			if s, ok := e.scalers[f.Name]; ok {
				v = (v - s.Mean) / s.Scale
			}
			x[e.offsets[i]] = v
			continue
		}

		s, ok := col.Value.(string)
		if !ok {
			return nil, apperrors.NewSchemaMismatchError(fmt.Sprintf(
				"column %q: expected a string, got %T", f.Name, col.Value))
		}
		for j, c := range e.categories[i] {
			if c == s {
				x[e.offsets[i]+j] = 1
				break
			}
		}
	}
	return x, nil
}

func (e *encoder) featureNames() []string {
	names := make([]string, len(e.features))
	for i, f := range e.features {
		names[i] = f.Name
	}
	return names
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
