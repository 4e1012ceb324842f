package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"loan-predictor/apperrors"
	"loan-predictor/domain"
)

// Model is a loaded classifier. It is immutable after Load and safe for
// concurrent use.
type Model struct {
	name     string
	version  string
	checksum string
	features []Feature
	classes  []int
	enc      *encoder
	est      estimator
}

// Metadata describes a loaded model.
type Metadata struct {
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Checksum string    `json:"checksum"`
	Features []Feature `json:"features"`
	Classes  []int     `json:"classes"`
}

// Load reads and validates the artifact at path. Every failure is reported as
// a MODEL_UNAVAILABLE error.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError(path, err)
	}
	return m, nil
}

// Parse builds a model from artifact bytes.
func Parse(data []byte) (*Model, error) {
	if err := validateArtifact(data); err != nil {
		return nil, err
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	enc, err := newEncoder(a.Features, a.Preprocessor)
	if err != nil {
		return nil, fmt.Errorf("preprocessor: %w", err)
	}
	est, err := newEstimator(a.Estimator, enc)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}

	sum := sha256.Sum256(data)
	return &Model{
		name:     a.Name,
		version:  a.Version,
		checksum: hex.EncodeToString(sum[:]),
		features: a.Features,
		classes:  a.Estimator.Classes,
		enc:      enc,
		est:      est,
	}, nil
}

func validateArtifact(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(artifactSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate artifact: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.New("artifact schema violation: " + strings.Join(msgs, "; "))
	}
	return nil
}

// Predict returns the raw class value for the row.
func (m *Model) Predict(row domain.Row) (int, error) {
	p, err := m.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return m.classes[argmax(p)], nil
}

// PredictProba returns per-class probabilities ordered like Classes.
func (m *Model) PredictProba(row domain.Row) ([]float64, error) {
	x, err := m.enc.encode(row)
	if err != nil {
		return nil, err
	}
	return m.est.proba(x), nil
}

func (m *Model) Classes() []int {
	out := make([]int, len(m.classes))
	copy(out, m.classes)
	return out
}

// Checksum is the hex SHA-256 of the artifact bytes.
func (m *Model) Checksum() string {
	return m.checksum
}

func (m *Model) Metadata() Metadata {
	features := make([]Feature, len(m.features))
	copy(features, m.features)
	return Metadata{
		Name:     m.name,
		Version:  m.version,
		Checksum: m.checksum,
		Features: features,
		Classes:  m.Classes(),
	}
}
