package collector

// Bounds the input surfaces enforce. The classifier itself accepts anything.
const (
	MinLoanAmount = 1_000
	MaxLoanAmount = 10_000_000

	MinInterestRate = 0.0
	MaxInterestRate = 100.0

	MinNumPrevLoans = 0
	MaxNumPrevLoans = 100

	MinAvgTermDays = 0
	MaxAvgTermDays = 100

	MinAvgPrevDelayDays = -50 // early repayment
	MaxAvgPrevDelayDays = 150

	MinAge = 18
	MaxAge = 100
)
