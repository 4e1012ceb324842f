package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelMapping_LabelFor(t *testing.T) {
	label, ok := DefaultLabelMapping.LabelFor(1)
	assert.True(t, ok)
	assert.Equal(t, LabelGood, label)

	label, ok = DefaultLabelMapping.LabelFor(0)
	assert.True(t, ok)
	assert.Equal(t, LabelBad, label)

	_, ok = DefaultLabelMapping.LabelFor(2)
	assert.False(t, ok)

	inverted := LabelMapping{Good: 0, Bad: 1}
	label, _ = inverted.LabelFor(0)
	assert.Equal(t, LabelGood, label)
}

func TestLabel_Verdict(t *testing.T) {
	good := LabelGood.Verdict()
	assert.Equal(t, "Safe", good.Name)
	assert.Equal(t, "Safe Loan", good.Headline)
	assert.Equal(t, "The borrower is likely to repay.", good.Message)

	bad := PredictionOutcome{Label: LabelBad, ConfidencePct: 91}.Verdict()
	assert.Equal(t, "Risky", bad.Name)
	assert.Equal(t, "Risky Loan", bad.Headline)
	assert.Equal(t, "The borrower is likely to default!", bad.Message)

	assert.Equal(t, bad, Label("").Verdict())
}
