package collector

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-predictor/apperrors"
	"loan-predictor/domain"
)

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(NewFormCollector(defaultValues()).Fields()))
}

func TestValidate_AcceptsBoundaries(t *testing.T) {
	minimums := map[string]string{
		domain.FieldLoanAmount:       "1000",
		domain.FieldTermDays:         "15",
		domain.FieldInterestRate:     "0.00",
		domain.FieldBankAccountType:  "Unknown",
		domain.FieldBankName:         "Unknown",
		domain.FieldEmploymentStatus: "Unknown",
		domain.FieldNumPrevLoans:     "0",
		domain.FieldAvgTermDays:      "0",
		domain.FieldAvgPrevDelayDays: "-50",
		domain.FieldAge:              "18",
	}
	maximums := map[string]string{
		domain.FieldLoanAmount:       "10000000",
		domain.FieldTermDays:         "90",
		domain.FieldInterestRate:     "100.00",
		domain.FieldBankAccountType:  "Unknown",
		domain.FieldBankName:         "Unknown",
		domain.FieldEmploymentStatus: "Unknown",
		domain.FieldNumPrevLoans:     "100",
		domain.FieldAvgTermDays:      "100",
		domain.FieldAvgPrevDelayDays: "150",
		domain.FieldAge:              "100",
	}

	for name, fields := range map[string]map[string]string{"minimums": minimums, "maximums": maximums} {
		t.Run(name, func(t *testing.T) {
			values := defaultValues()
			for k, v := range fields {
				values.Set(k, v)
			}

			app, err := CollectValidated(NewFormCollector(values))

			require.NoError(t, err)
			assert.Equal(t, fields[domain.FieldAge], strconv.Itoa(app.Age))
		})
	}
}

func TestValidate_RefusesOutOfRange(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{field: domain.FieldLoanAmount, value: "999"},
		{field: domain.FieldLoanAmount, value: "10000001"},
		{field: domain.FieldTermDays, value: "45"},
		{field: domain.FieldInterestRate, value: "100.01"},
		{field: domain.FieldBankAccountType, value: "Checking"},
		{field: domain.FieldBankName, value: "Moniepoint"},
		{field: domain.FieldEmploymentStatus, value: "Freelance"},
		{field: domain.FieldNumPrevLoans, value: "-1"},
		{field: domain.FieldAvgTermDays, value: "101"},
		{field: domain.FieldAvgPrevDelayDays, value: "-51"},
		{field: domain.FieldAge, value: "17"},
		{field: domain.FieldAge, value: "30.5"},
		{field: domain.FieldAge, value: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			values := defaultValues()
			values.Set(tt.field, tt.value)

			_, err := CollectValidated(NewFormCollector(values))

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			names := fieldNames(err)
			require.NotEmpty(t, names)
			for _, name := range names {
				assert.Equal(t, tt.field, name)
			}
		})
	}
}

func TestValidate_RequiredAndUnknownFields(t *testing.T) {
	c, err := NewJSONCollector([]byte(`{
		"loanamount": 5000, "termdays": 15, "interest_rate(%)": 3,
		"bank_account_type": "Current", "bank_name_clients": "UBA",
		"employment_status_clients": "Student", "num_prev_loans": 0,
		"avg_termdays": 0, "avg_prev_delay_days": 0,
		"loan_term": "Long Term"
	}`))
	require.NoError(t, err)

	err = Validate(c.Fields())

	require.Error(t, err)
	assert.ElementsMatch(t, []string{domain.FieldAge, domain.FieldLoanTerm}, fieldNames(err))
}
