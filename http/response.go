package http

import (
	"encoding/json"
	"net/http"

	"loan-predictor/apperrors"
)

type errorResponse struct {
	Error   string                 `json:"error"`
	Code    apperrors.ErrorCode    `json:"code,omitempty"`
	Details string                 `json:"details,omitempty"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

// respondWithAppError writes a StandardError with the status its code maps to.
func respondWithAppError(w http.ResponseWriter, err *apperrors.StandardError) {
	respondWithJSON(w, apperrors.HTTPStatus(err.Code), errorResponse{
		Error:   err.Message,
		Code:    err.Code,
		Details: err.Details,
		Fields:  err.Fields,
	})
}
