package domain

// Label is the repayment class predicted for an application.
type Label string

const (
	LabelGood Label = "Good"
	LabelBad  Label = "Bad"
)

// Verdict is the human-facing rendering of a Label.
type Verdict struct {
	Name     string `json:"verdict"`
	Headline string `json:"headline"`
	Message  string `json:"message"`
}

var verdicts = map[Label]Verdict{
	LabelGood: {Name: "Safe", Headline: "Safe Loan", Message: "The borrower is likely to repay."},
	LabelBad:  {Name: "Risky", Headline: "Risky Loan", Message: "The borrower is likely to default!"},
}

// Verdict returns the verdict for the label. Unknown labels render as risky.
func (l Label) Verdict() Verdict {
	if v, ok := verdicts[l]; ok {
		return v
	}
	return verdicts[LabelBad]
}

// LabelMapping ties the classifier's raw class values to labels. It depends on
// how the model was trained, so it is configured rather than hard-coded.
type LabelMapping struct {
	Good int
	Bad  int
}

// DefaultLabelMapping is 1 = repays, 0 = defaults.
var DefaultLabelMapping = LabelMapping{Good: 1, Bad: 0}

// LabelFor maps a raw class value to a label.
func (m LabelMapping) LabelFor(class int) (Label, bool) {
	switch class {
	case m.Good:
		return LabelGood, true
	case m.Bad:
		return LabelBad, true
	}
	return "", false
}

// PredictionOutcome is the result of classifying one application.
type PredictionOutcome struct {
	Label         Label   `json:"label"`
	ConfidencePct float64 `json:"confidence_pct"`
}

func (o PredictionOutcome) Verdict() Verdict {
	return o.Label.Verdict()
}
