package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"loan-predictor/apperrors"
	"loan-predictor/collector"
	"loan-predictor/domain"
	"loan-predictor/logger"
	"loan-predictor/model"
)

const maxBodyBytes = 64 << 10

// Predictor is the prediction pipeline the handlers drive.
type Predictor interface {
	Predict(ctx context.Context, app domain.LoanApplication) (domain.PredictionOutcome, error)
}

// ModelInfo exposes metadata of the loaded model.
type ModelInfo interface {
	Metadata() model.Metadata
}

type PredictionResponse struct {
	PredictionID  string       `json:"prediction_id"`
	Label         domain.Label `json:"label"`
	Verdict       string       `json:"verdict"`
	Headline      string       `json:"headline"`
	Message       string       `json:"message"`
	ConfidencePct float64      `json:"confidence_pct"`
	LoanTerm      string       `json:"loan_term"`
	ModelVersion  string       `json:"model_version"`
}

type PredictionHandler struct {
	predictor Predictor
	model     ModelInfo
	log       logger.Logger
}

func NewPredictionHandler(predictor Predictor, info ModelInfo, log logger.Logger) *PredictionHandler {
	return &PredictionHandler{predictor: predictor, model: info, log: log}
}

// CreatePrediction handles POST /api/v1/predictions.
func (h *PredictionHandler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	surface, err := collector.NewJSONCollector(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	app, err := collector.CollectValidated(surface)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	outcome, err := h.predictor.Predict(r.Context(), app)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	verdict := outcome.Verdict()
	respondWithJSON(w, http.StatusOK, PredictionResponse{
		PredictionID:  uuid.New().String(),
		Label:         outcome.Label,
		Verdict:       verdict.Name,
		Headline:      verdict.Headline,
		Message:       verdict.Message,
		ConfidencePct: roundTo2Decimals(outcome.ConfidencePct),
		LoanTerm:      app.LoanTerm(),
		ModelVersion:  h.model.Metadata().Version,
	})
}

// GetModel handles GET /api/v1/model.
func (h *PredictionHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.model.Metadata())
}

func (h *PredictionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.From(err)
	if !errors.Is(stdErr, apperrors.ErrInvalidInput) {
		h.log.Error("prediction request failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
			"requestId": RequestIDFrom(r.Context()),
		})
	}
	respondWithAppError(w, stdErr)
}

func roundTo2Decimals(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
