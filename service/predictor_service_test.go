package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-predictor/apperrors"
	"loan-predictor/domain"
	"loan-predictor/logger"
	"loan-predictor/model"
	"loan-predictor/repository"
	"loan-predictor/service/mocks"
)

func shippedService(t *testing.T, opts ...Option) *PredictorService {
	t.Helper()
	m, err := model.Load(filepath.Join("..", "models", "loan_default_predictor.json"))
	require.NoError(t, err)
	svc, err := NewPredictorService(m, domain.DefaultLabelMapping, logger.NewTestLogger(t), opts...)
	require.NoError(t, err)
	return svc
}

func mockService(t *testing.T, opts ...Option) (*PredictorService, *mocks.MockClassifier) {
	t.Helper()
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	classifier.EXPECT().Classes().Return([]int{0, 1}).AnyTimes()

	svc, err := NewPredictorService(classifier, domain.DefaultLabelMapping, logger.NewTestLogger(t), opts...)
	require.NoError(t, err)
	return svc, classifier
}

func riskyApplication() domain.LoanApplication {
	return domain.LoanApplication{
		LoanAmount:       decimal.NewFromInt(1000000),
		TermDays:         90,
		InterestRate:     decimal.NewFromInt(30),
		BankAccountType:  "Other",
		BankName:         "Skye Bank",
		EmploymentStatus: "Unemployed",
		NumPrevLoans:     0,
		AvgTermDays:      30,
		AvgPrevDelayDays: 60,
		Age:              30,
	}
}

func TestPredict_DefaultApplication(t *testing.T) {
	svc := shippedService(t)

	outcome, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())

	require.NoError(t, err)
	assert.Equal(t, domain.LabelGood, outcome.Label)
	assert.InDelta(t, 78.4886782716671, outcome.ConfidencePct, 1e-9)
	assert.Equal(t, "Safe Loan", outcome.Verdict().Headline)
}

func TestPredict_RiskyApplication(t *testing.T) {
	svc := shippedService(t)

	outcome, err := svc.Predict(context.Background(), riskyApplication())

	require.NoError(t, err)
	assert.Equal(t, domain.LabelBad, outcome.Label)
	assert.Greater(t, outcome.ConfidencePct, 99.0)
	assert.LessOrEqual(t, outcome.ConfidencePct, 100.0)
	assert.Equal(t, "The borrower is likely to default!", outcome.Verdict().Message)
}

func TestPredict_Deterministic(t *testing.T) {
	svc := shippedService(t)
	app := domain.DefaultLoanApplication()

	first, err := svc.Predict(context.Background(), app)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.Predict(context.Background(), app)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredict_Boundaries(t *testing.T) {
	svc := shippedService(t)

	tests := []struct {
		name string
		app  domain.LoanApplication
	}{
		{
			name: "all minimums",
			app: domain.LoanApplication{
				LoanAmount:       decimal.NewFromInt(1000),
				TermDays:         15,
				InterestRate:     decimal.Zero,
				BankAccountType:  "Unknown",
				BankName:         "Unknown",
				EmploymentStatus: "Unknown",
				NumPrevLoans:     0,
				AvgTermDays:      0,
				AvgPrevDelayDays: -50,
				Age:              18,
			},
		},
		{
			name: "all maximums",
			app: domain.LoanApplication{
				LoanAmount:       decimal.NewFromInt(10000000),
				TermDays:         90,
				InterestRate:     decimal.NewFromInt(100),
				BankAccountType:  "Unknown",
				BankName:         "Unknown",
				EmploymentStatus: "Unknown",
				NumPrevLoans:     100,
				AvgTermDays:      100,
				AvgPrevDelayDays: 150,
				Age:              100,
			},
		},
		{
			name: "outside the form ranges",
			app: domain.LoanApplication{
				LoanAmount:       decimal.NewFromInt(-5),
				TermDays:         45,
				InterestRate:     decimal.NewFromInt(99),
				BankAccountType:  "Current",
				BankName:         "GT Bank",
				EmploymentStatus: "Permanent",
				Age:              150,
			},
		},
		{
			name: "category never seen in training",
			app: func() domain.LoanApplication {
				app := domain.DefaultLoanApplication()
				app.BankName = "Moniepoint"
				return app
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := svc.Predict(context.Background(), tt.app)

			require.NoError(t, err)
			assert.Contains(t, []domain.Label{domain.LabelGood, domain.LabelBad}, outcome.Label)
			assert.GreaterOrEqual(t, outcome.ConfidencePct, 0.0)
			assert.LessOrEqual(t, outcome.ConfidencePct, 100.0)
		})
	}
}

func TestPredict_ConfidenceFollowsPredictedClass(t *testing.T) {
	tests := []struct {
		name      string
		class     int
		proba     []float64
		wantLabel domain.Label
		wantPct   float64
	}{
		{name: "good", class: 1, proba: []float64{0.2, 0.8}, wantLabel: domain.LabelGood, wantPct: 80},
		{name: "bad", class: 0, proba: []float64{0.9, 0.1}, wantLabel: domain.LabelBad, wantPct: 90},
		{name: "tie resolves to first class", class: 0, proba: []float64{0.5, 0.5}, wantLabel: domain.LabelBad, wantPct: 50},
		{name: "clamped above", class: 1, proba: []float64{0, 1.0000001}, wantLabel: domain.LabelGood, wantPct: 100},
		{name: "nan", class: 1, proba: []float64{math.NaN(), math.NaN()}, wantLabel: domain.LabelGood, wantPct: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, classifier := mockService(t)
			classifier.EXPECT().Predict(gomock.Any()).Return(tt.class, nil)
			classifier.EXPECT().PredictProba(gomock.Any()).Return(tt.proba, nil)

			outcome, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())

			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, outcome.Label)
			assert.InDelta(t, tt.wantPct, outcome.ConfidencePct, 1e-9)
		})
	}
}

func TestPredict_PassesDerivedLoanTerm(t *testing.T) {
	tests := []struct {
		termDays int
		want     string
	}{
		{termDays: 15, want: domain.LoanTermShort},
		{termDays: 30, want: domain.LoanTermShort},
		{termDays: 60, want: domain.LoanTermLong},
		{termDays: 90, want: domain.LoanTermLong},
	}

	for _, tt := range tests {
		svc, classifier := mockService(t)
		var seen domain.Row
		classifier.EXPECT().Predict(gomock.Any()).DoAndReturn(func(row domain.Row) (int, error) {
			seen = row
			return 1, nil
		})
		classifier.EXPECT().PredictProba(gomock.Any()).Return([]float64{0.3, 0.7}, nil)

		app := domain.DefaultLoanApplication()
		app.TermDays = tt.termDays
		_, err := svc.Predict(context.Background(), app)

		require.NoError(t, err)
		require.Len(t, seen, 11)
		assert.Equal(t, domain.FieldLoanTerm, seen[10].Name)
		assert.Equal(t, tt.want, seen[10].Value, "termdays=%d", tt.termDays)
	}
}

func TestPredict_ClassifierErrors(t *testing.T) {
	t.Run("schema mismatch propagates", func(t *testing.T) {
		svc, classifier := mockService(t)
		classifier.EXPECT().Predict(gomock.Any()).
			Return(0, apperrors.NewSchemaMismatchError("expected 12 columns"))

		_, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())

		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
	})

	t.Run("unclassified error becomes prediction failure", func(t *testing.T) {
		svc, classifier := mockService(t)
		classifier.EXPECT().Predict(gomock.Any()).Return(1, nil)
		classifier.EXPECT().PredictProba(gomock.Any()).Return(nil, errors.New("boom"))

		_, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())

		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrPredictionFailed))
	})

	t.Run("class outside the label mapping", func(t *testing.T) {
		svc, classifier := mockService(t)
		classifier.EXPECT().Predict(gomock.Any()).Return(7, nil)
		classifier.EXPECT().PredictProba(gomock.Any()).Return([]float64{0.5, 0.5}, nil)

		_, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())

		assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
	})

	t.Run("too few probabilities", func(t *testing.T) {
		svc, classifier := mockService(t)
		classifier.EXPECT().Predict(gomock.Any()).Return(1, nil)
		classifier.EXPECT().PredictProba(gomock.Any()).Return([]float64{1}, nil)

		_, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())

		assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
	})
}

func TestNewPredictorService_LabelMappingMustMatchClasses(t *testing.T) {
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	classifier.EXPECT().Classes().Return([]int{0, 1}).AnyTimes()

	_, err := NewPredictorService(classifier, domain.LabelMapping{Good: 2, Bad: 0}, logger.NewNoOpLogger())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrModelUnavailable))
}

func TestPredict_CacheHitSkipsClassifier(t *testing.T) {
	cache := repository.NewMemoryCache()
	svc, classifier := mockService(t, WithCache(cache, "checksum-a", time.Minute))
	classifier.EXPECT().Predict(gomock.Any()).Return(1, nil).Times(1)
	classifier.EXPECT().PredictProba(gomock.Any()).Return([]float64{0.25, 0.75}, nil).Times(1)

	app := domain.DefaultLoanApplication()
	first, err := svc.Predict(context.Background(), app)
	require.NoError(t, err)
	second, err := svc.Predict(context.Background(), app)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestPredict_CacheNamespaceSeparatesModels(t *testing.T) {
	cache := repository.NewMemoryCache()
	a, classifierA := mockService(t, WithCache(cache, "checksum-a", time.Minute))
	b, classifierB := mockService(t, WithCache(cache, "checksum-b", time.Minute))
	classifierA.EXPECT().Predict(gomock.Any()).Return(1, nil)
	classifierA.EXPECT().PredictProba(gomock.Any()).Return([]float64{0.25, 0.75}, nil)
	classifierB.EXPECT().Predict(gomock.Any()).Return(0, nil)
	classifierB.EXPECT().PredictProba(gomock.Any()).Return([]float64{0.6, 0.4}, nil)

	app := domain.DefaultLoanApplication()
	outA, err := a.Predict(context.Background(), app)
	require.NoError(t, err)
	outB, err := b.Predict(context.Background(), app)
	require.NoError(t, err)

	assert.Equal(t, domain.LabelGood, outA.Label)
	assert.Equal(t, domain.LabelBad, outB.Label)
	assert.Equal(t, 2, cache.Len())
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func TestPredict_CacheFailuresAreNotFatal(t *testing.T) {
	svc, classifier := mockService(t, WithCache(failingCache{}, "checksum-a", time.Minute))
	classifier.EXPECT().Predict(gomock.Any()).Return(1, nil)
	classifier.EXPECT().PredictProba(gomock.Any()).Return([]float64{0.25, 0.75}, nil)

	outcome, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())

	require.NoError(t, err)
	assert.Equal(t, domain.LabelGood, outcome.Label)
}

func TestPredict_ConcurrentCallers(t *testing.T) {
	svc := shippedService(t, WithCache(repository.NewMemoryCache(), "shipped", time.Minute))
	want, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())
	require.NoError(t, err)

	results := make(chan domain.PredictionOutcome, 16)
	for i := 0; i < 16; i++ {
		go func() {
			out, err := svc.Predict(context.Background(), domain.DefaultLoanApplication())
			if err != nil {
				results <- domain.PredictionOutcome{}
				return
			}
			results <- out
		}()
	}
	for i := 0; i < 16; i++ {
		assert.Equal(t, want, <-results)
	}
}
