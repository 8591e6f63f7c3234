package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/utils/apperr"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		apperr.Handle(r.Context(), goerr.Wrap(err, "failed to encode response"))
	}
}

// respondError maps a domain error to an HTTP status via its goerr
// tags: validation failures are 400, week conflicts 409, missing
// uploads 404, anything else 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case goerr.HasTag(err, model.ErrTagValidation):
		status = http.StatusBadRequest
	case goerr.HasTag(err, model.ErrTagConflict) || errors.Is(err, model.ErrWeekConflict):
		status = http.StatusConflict
	case goerr.HasTag(err, model.ErrTagNotFound) || errors.Is(err, model.ErrUploadNotFound) || errors.Is(err, model.ErrResultNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		apperr.Handle(r.Context(), err)
	}

	resp := errorResponse{Error: err.Error()}
	if values := goerr.Values(err); len(values) > 0 {
		resp.Details = values
	}
	respondJSON(w, r, status, resp)
}
