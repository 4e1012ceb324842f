package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"loan-predictor/apperrors"
	"loan-predictor/collector"
	"loan-predictor/domain"
	"loan-predictor/logger"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type formField struct {
	Name    string
	Label   string
	Value   string
	Min     string
	Max     string
	Step    string
	Options []string
	Error   string
}

type formOutcome struct {
	Safe          bool
	Headline      string
	Message       string
	ConfidencePct string
}

type formPage struct {
	Fields       []formField
	Outcome      *formOutcome
	Error        string
	ModelVersion string
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func termDayOptions() []string {
	opts := make([]string, len(domain.TermDaysOptions))
	for i, d := range domain.TermDaysOptions {
		opts[i] = itoa(d)
	}
	return opts
}

// buildFields lays out the form in the order the raw fields are collected.
func buildFields(values url.Values, fieldErrs map[string]string) []formField {
	fields := []formField{
		{Name: domain.FieldLoanAmount, Label: "Loan Amount", Min: itoa(collector.MinLoanAmount), Max: itoa(collector.MaxLoanAmount), Step: "1"},
		{Name: domain.FieldTermDays, Label: "Loan Length (days)", Options: termDayOptions()},
		{Name: domain.FieldInterestRate, Label: "Interest Rate (%)", Min: ftoa(collector.MinInterestRate), Max: ftoa(collector.MaxInterestRate), Step: "0.01"},
		{Name: domain.FieldBankAccountType, Label: "Account Type", Options: domain.BankAccountTypes},
		{Name: domain.FieldBankName, Label: "Bank Name", Options: domain.BankNames},
		{Name: domain.FieldEmploymentStatus, Label: "Employment Status", Options: domain.EmploymentStatuses},
		{Name: domain.FieldNumPrevLoans, Label: "Previous Loans", Min: itoa(collector.MinNumPrevLoans), Max: itoa(collector.MaxNumPrevLoans), Step: "1"},
		{Name: domain.FieldAvgTermDays, Label: "Avg Previous Loan Length (days)", Min: itoa(collector.MinAvgTermDays), Max: itoa(collector.MaxAvgTermDays), Step: "1"},
		{Name: domain.FieldAvgPrevDelayDays, Label: "Avg Repay Delay (days)", Min: itoa(collector.MinAvgPrevDelayDays), Max: itoa(collector.MaxAvgPrevDelayDays), Step: "1"},
		{Name: domain.FieldAge, Label: "Age", Min: itoa(collector.MinAge), Max: itoa(collector.MaxAge), Step: "1"},
	}
	for i := range fields {
		fields[i].Value = values.Get(fields[i].Name)
		fields[i].Error = fieldErrs[fields[i].Name]
	}
	return fields
}

type FormHandler struct {
	predictor Predictor
	model     ModelInfo
	log       logger.Logger
}

func NewFormHandler(predictor Predictor, info ModelInfo, log logger.Logger) *FormHandler {
	return &FormHandler{predictor: predictor, model: info, log: log}
}

// Index handles GET / with the form prefilled with defaults.
func (h *FormHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, formPage{
		Fields: buildFields(collector.Values(domain.DefaultLoanApplication()), nil),
	})
}

// Predict handles POST /predict and re-renders the form with the verdict.
func (h *FormHandler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, formPage{
			Fields: buildFields(collector.Values(domain.DefaultLoanApplication()), nil),
			Error:  "The form could not be read.",
		})
		return
	}

	app, err := collector.CollectValidated(collector.NewFormCollector(r.PostForm))
	if err == nil {
		var outcome domain.PredictionOutcome
		outcome, err = h.predictor.Predict(r.Context(), app)
		if err == nil {
			verdict := outcome.Verdict()
			h.render(w, http.StatusOK, formPage{
				Fields: buildFields(r.PostForm, nil),
				Outcome: &formOutcome{
					Safe:          outcome.Label == domain.LabelGood,
					Headline:      verdict.Headline,
					Message:       verdict.Message,
					ConfidencePct: fmt.Sprintf("%.2f", outcome.ConfidencePct),
				},
			})
			return
		}
	}

	stdErr := apperrors.From(err)
	page := formPage{Fields: buildFields(r.PostForm, nil)}
	if errors.Is(stdErr, apperrors.ErrInvalidInput) {
		fieldErrs := make(map[string]string, len(stdErr.Fields))
		for _, f := range stdErr.Fields {
			if _, seen := fieldErrs[f.Field]; !seen {
				fieldErrs[f.Field] = f.Message
			}
		}
		page.Fields = buildFields(r.PostForm, fieldErrs)
		page.Error = "Some values are outside the accepted ranges."
	} else {
		h.log.Error("form prediction failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
			"requestId": RequestIDFrom(r.Context()),
		})
		page.Error = "The prediction could not be made: " + stdErr.Message + "."
	}
	h.render(w, apperrors.HTTPStatus(stdErr.Code), page)
}

func (h *FormHandler) render(w http.ResponseWriter, status int, page formPage) {
	page.ModelVersion = h.model.Metadata().Version

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		h.log.Error("render form page", map[string]interface{}{"error": err.Error()})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("write form page", map[string]interface{}{"error": err.Error()})
	}
}
