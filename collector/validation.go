package collector

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"loan-predictor/apperrors"
	"loan-predictor/domain"
)

var inputSchema = mustCompileInputSchema()

// InputSchema describes the raw fields an input surface accepts.
func InputSchema() map[string]interface{} {
	numberIn := func(typ string, min, max float64) map[string]interface{} {
		return map[string]interface{}{"type": typ, "minimum": min, "maximum": max}
	}
	oneOf := func(values []string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "enum": values}
	}

	return map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]interface{}{
			domain.FieldLoanAmount:       numberIn("number", MinLoanAmount, MaxLoanAmount),
			domain.FieldTermDays:         map[string]interface{}{"type": "integer", "enum": domain.TermDaysOptions},
			domain.FieldInterestRate:     numberIn("number", MinInterestRate, MaxInterestRate),
			domain.FieldBankAccountType:  oneOf(domain.BankAccountTypes),
			domain.FieldBankName:         oneOf(domain.BankNames),
			domain.FieldEmploymentStatus: oneOf(domain.EmploymentStatuses),
			domain.FieldNumPrevLoans:     numberIn("integer", MinNumPrevLoans, MaxNumPrevLoans),
			domain.FieldAvgTermDays:      numberIn("integer", MinAvgTermDays, MaxAvgTermDays),
			domain.FieldAvgPrevDelayDays: numberIn("integer", MinAvgPrevDelayDays, MaxAvgPrevDelayDays),
			domain.FieldAge:              numberIn("integer", MinAge, MaxAge),
		},
		"required":             RawFields,
		"additionalProperties": false,
	}
}

func mustCompileInputSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(InputSchema()))
	if err != nil {
		panic(fmt.Sprintf("collector: compile input schema: %v", err))
	}
	return schema
}

// Validate checks a raw field map against the input schema. Refusals come back
// as INVALID_INPUT with one FieldError per violation.
func Validate(fields map[string]interface{}) error {
	result, err := inputSchema.Validate(gojsonschema.NewGoLoader(fields))
	if err != nil {
		return apperrors.NewInvalidInputError([]apperrors.FieldError{
			{Field: "(root)", Message: err.Error()},
		})
	}
	if result.Valid() {
		return nil
	}

	fieldErrs := make([]apperrors.FieldError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		field := e.Field()
		if prop, ok := e.Details()["property"].(string); ok && field == "(root)" {
			field = prop
		}
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: field, Message: e.Description()})
	}
	return apperrors.NewInvalidInputError(fieldErrs)
}

// Surface is a collector that also exposes its raw field map.
type Surface interface {
	Collector
	Fields() map[string]interface{}
}

// CollectValidated validates the surface's raw fields before collecting.
func CollectValidated(c Surface) (domain.LoanApplication, error) {
	if err := Validate(c.Fields()); err != nil {
		return domain.LoanApplication{}, err
	}
	return c.Collect()
}
