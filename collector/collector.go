// Package collector turns the raw fields of an input surface into a
// domain.LoanApplication.
package collector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"loan-predictor/apperrors"
	"loan-predictor/domain"
)

// Collector reads one application from an input surface. It parses but does
// not range-check; refusing out-of-range values is the surface's job.
type Collector interface {
	Collect() (domain.LoanApplication, error)
}

// RawFields are the ten raw input fields in the order the form lists them.
// loan_term is derived and never collected.
var RawFields = []string{
	domain.FieldLoanAmount,
	domain.FieldTermDays,
	domain.FieldInterestRate,
	domain.FieldBankAccountType,
	domain.FieldBankName,
	domain.FieldEmploymentStatus,
	domain.FieldNumPrevLoans,
	domain.FieldAvgTermDays,
	domain.FieldAvgPrevDelayDays,
	domain.FieldAge,
}

var numericFields = map[string]bool{
	domain.FieldLoanAmount:       true,
	domain.FieldTermDays:         true,
	domain.FieldInterestRate:     true,
	domain.FieldNumPrevLoans:     true,
	domain.FieldAvgTermDays:      true,
	domain.FieldAvgPrevDelayDays: true,
	domain.FieldAge:              true,
}

// FormCollector collects from HTML form values.
type FormCollector struct {
	values url.Values
}

func NewFormCollector(values url.Values) *FormCollector {
	return &FormCollector{values: values}
}

func (c *FormCollector) Collect() (domain.LoanApplication, error) {
	return collect(func(name string) (string, bool) {
		if _, ok := c.values[name]; !ok {
			return "", false
		}
		return strings.TrimSpace(c.values.Get(name)), true
	})
}

// Fields returns the raw field map for schema validation. Numeric fields that
// parse are passed as numbers so the schema can range-check them.
func (c *FormCollector) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(RawFields))
	for _, name := range RawFields {
		if _, ok := c.values[name]; !ok {
			continue
		}
		raw := strings.TrimSpace(c.values.Get(name))
		if numericFields[name] {
			if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
				fields[name] = f
				continue
			}
		}
		fields[name] = raw
	}
	return fields
}

// JSONCollector collects from a JSON object body.
type JSONCollector struct {
	fields map[string]interface{}
}

// NewJSONCollector decodes body. Malformed JSON is returned as a plain error,
// it is a transport problem rather than refused input.
func NewJSONCollector(body []byte) (*JSONCollector, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode request body: expected a JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode request body: unexpected data after the JSON object")
	}
	return &JSONCollector{fields: fields}, nil
}

func (c *JSONCollector) Fields() map[string]interface{} {
	return c.fields
}

func (c *JSONCollector) Collect() (domain.LoanApplication, error) {
	return collect(func(name string) (string, bool) {
		switch v := c.fields[name].(type) {
		case json.Number:
			return v.String(), true
		case string:
			return strings.TrimSpace(v), true
		case nil:
			return "", false
		default:
			return fmt.Sprint(v), true
		}
	})
}

var maxIntField = decimal.NewFromInt(math.MaxInt32)

type fieldParser struct {
	get    func(name string) (string, bool)
	errors []apperrors.FieldError
}

func (p *fieldParser) fail(name, msg string) {
	p.errors = append(p.errors, apperrors.FieldError{Field: name, Message: msg})
}

func (p *fieldParser) raw(name string) (string, bool) {
	s, ok := p.get(name)
	if !ok {
		p.fail(name, "is required")
		return "", false
	}
	return s, true
}

func (p *fieldParser) decimalField(name string) decimal.Decimal {
	s, ok := p.raw(name)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		p.fail(name, fmt.Sprintf("%q is not a number", s))
		return decimal.Zero
	}
	return d
}

func (p *fieldParser) intField(name string) int {
	s, ok := p.raw(name)
	if !ok {
		return 0
	}
	// Integral values written as 30.0 or 3e1 are accepted.
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || d.Abs().GreaterThan(maxIntField) {
		p.fail(name, fmt.Sprintf("%q is not an integer", s))
		return 0
	}
	return int(d.IntPart())
}

func (p *fieldParser) stringField(name string) string {
	s, ok := p.raw(name)
	if ok && s == "" {
		p.fail(name, "must not be empty")
	}
	return s
}

func collect(get func(name string) (string, bool)) (domain.LoanApplication, error) {
	p := &fieldParser{get: get}
	app := domain.LoanApplication{
		LoanAmount:       p.decimalField(domain.FieldLoanAmount),
		TermDays:         p.intField(domain.FieldTermDays),
		InterestRate:     p.decimalField(domain.FieldInterestRate),
		BankAccountType:  p.stringField(domain.FieldBankAccountType),
		BankName:         p.stringField(domain.FieldBankName),
		EmploymentStatus: p.stringField(domain.FieldEmploymentStatus),
		NumPrevLoans:     p.intField(domain.FieldNumPrevLoans),
		AvgTermDays:      p.intField(domain.FieldAvgTermDays),
		AvgPrevDelayDays: p.intField(domain.FieldAvgPrevDelayDays),
		Age:              p.intField(domain.FieldAge),
	}
	if len(p.errors) > 0 {
		return domain.LoanApplication{}, apperrors.NewInvalidInputError(p.errors)
	}
	return app, nil
}

// Values encodes an application as form values, the inverse of FormCollector.
func Values(app domain.LoanApplication) url.Values {
	v := url.Values{}
	v.Set(domain.FieldLoanAmount, app.LoanAmount.String())
	v.Set(domain.FieldTermDays, strconv.Itoa(app.TermDays))
	v.Set(domain.FieldInterestRate, app.InterestRate.String())
	v.Set(domain.FieldBankAccountType, app.BankAccountType)
	v.Set(domain.FieldBankName, app.BankName)
	v.Set(domain.FieldEmploymentStatus, app.EmploymentStatus)
	v.Set(domain.FieldNumPrevLoans, strconv.Itoa(app.NumPrevLoans))
	v.Set(domain.FieldAvgTermDays, strconv.Itoa(app.AvgTermDays))
	v.Set(domain.FieldAvgPrevDelayDays, strconv.Itoa(app.AvgPrevDelayDays))
	v.Set(domain.FieldAge, strconv.Itoa(app.Age))
	return v
}
