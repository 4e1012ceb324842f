package domain

import "github.com/shopspring/decimal"

// Column names in the order the classifier was trained on.
const (
	FieldLoanAmount       = "loanamount"
	FieldTermDays         = "termdays"
	FieldInterestRate     = "interest_rate(%)"
	FieldBankAccountType  = "bank_account_type"
	FieldBankName         = "bank_name_clients"
	FieldEmploymentStatus = "employment_status_clients"
	FieldNumPrevLoans     = "num_prev_loans"
	FieldAvgTermDays      = "avg_termdays"
	FieldAvgPrevDelayDays = "avg_prev_delay_days"
	FieldAge              = "age"
	FieldLoanTerm         = "loan_term"
)

const (
	LoanTermShort = "Short Term"
	LoanTermLong  = "Long Term"

	// ShortTermMaxDays is the largest termdays value still bucketed as short term.
	ShortTermMaxDays = 30
)

var (
	TermDaysOptions = []int{15, 30, 60, 90}

	BankAccountTypes = []string{"Current", "Savings", "Other", "Unknown"}

	BankNames = []string{
		"GT Bank", "Sterling Bank", "Fidelity Bank", "Access Bank", "Eco Bank", "FCMB", "Skye Bank",
		"UBA", "Zenith Bank", "Diamond Bank", "First Bank", "Union Bank", "Stanbic IBTC",
		"Standard Chartered", "Heritage Bank", "Keystone Bank", "Unity Bank", "Wema Bank", "Unknown",
	}

	EmploymentStatuses = []string{
		"Retired", "Permanent", "Contract", "Self-Employed", "Unemployed", "Student", "Unknown",
	}
)

// LoanApplication is one applicant's record. The loan term bucket is derived
// from TermDays and has no field of its own.
type LoanApplication struct {
	LoanAmount       decimal.Decimal
	TermDays         int
	InterestRate     decimal.Decimal
	BankAccountType  string
	BankName         string
	EmploymentStatus string
	NumPrevLoans     int
	AvgTermDays      int
	AvgPrevDelayDays int
	Age              int
}

// LoanTerm buckets TermDays into "Short Term" (<= 30 days) or "Long Term".
func LoanTerm(termDays int) string {
	if termDays <= ShortTermMaxDays {
		return LoanTermShort
	}
	return LoanTermLong
}

func (a LoanApplication) LoanTerm() string {
	return LoanTerm(a.TermDays)
}

// Column is one named cell of a single-row table.
type Column struct {
	Name  string
	Value interface{}
}

// Row is an ordered single-row table.
type Row []Column

// Names returns the column names in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// Row converts the application into the single-row table the classifier expects.
// Decimal amounts become float64, integer fields stay int.
func (a LoanApplication) Row() Row {
	return Row{
		{Name: FieldLoanAmount, Value: a.LoanAmount.InexactFloat64()},
		{Name: FieldTermDays, Value: a.TermDays},
		{Name: FieldInterestRate, Value: a.InterestRate.InexactFloat64()},
		{Name: FieldBankAccountType, Value: a.BankAccountType},
		{Name: FieldBankName, Value: a.BankName},
		{Name: FieldEmploymentStatus, Value: a.EmploymentStatus},
		{Name: FieldNumPrevLoans, Value: a.NumPrevLoans},
		{Name: FieldAvgTermDays, Value: a.AvgTermDays},
		{Name: FieldAvgPrevDelayDays, Value: a.AvgPrevDelayDays},
		{Name: FieldAge, Value: a.Age},
		{Name: FieldLoanTerm, Value: a.LoanTerm()},
	}
}

// DefaultLoanApplication holds the values the form starts with.
func DefaultLoanApplication() LoanApplication {
	return LoanApplication{
		LoanAmount:       decimal.NewFromInt(100000),
		TermDays:         15,
		InterestRate:     decimal.RequireFromString("10.15"),
		BankAccountType:  "Current",
		BankName:         "GT Bank",
		EmploymentStatus: "Retired",
		NumPrevLoans:     5,
		AvgTermDays:      30,
		AvgPrevDelayDays: 10,
		Age:              30,
	}
}
