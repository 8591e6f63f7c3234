package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/domain/interfaces"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/domain/types"
)

// Handler serves the dashboard API
type Handler struct {
	ledger    interfaces.UploadLedger
	dashboard interfaces.Dashboard
}

// NewHandler creates the API handler
func NewHandler(ledger interfaces.UploadLedger, dashboard interfaces.Dashboard) *Handler {
	return &Handler{ledger: ledger, dashboard: dashboard}
}

type uploadRequest struct {
	WeekEnding string      `json:"week_ending"`
	UploadedBy string      `json:"uploaded_by"`
	Rows       []model.Row `json:"rows"`
}

// HandleCommitUpload handles POST /api/uploads
func (h *Handler) HandleCommitUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(model.ErrTagValidation)))
		return
	}

	weekEnding, err := parseDate(req.WeekEnding)
	if err != nil {
		respondError(w, r, err)
		return
	}

	upload, err := h.ledger.Commit(r.Context(), weekEnding, req.UploadedBy, req.Rows)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, upload)
}

// HandleReplaceUpload handles PUT /api/uploads/{uploadID}
func (h *Handler) HandleReplaceUpload(w http.ResponseWriter, r *http.Request) {
	oldID := types.UploadID(chi.URLParam(r, "uploadID"))

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(model.ErrTagValidation)))
		return
	}

	upload, err := h.ledger.Replace(r.Context(), oldID, req.UploadedBy, req.Rows)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, upload)
}

// HandleListUploads handles GET /api/uploads
func (h *Handler) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	limit := parseIntOr(r.URL.Query().Get("limit"), 20)
	uploads, err := h.dashboard.ListUploads(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, uploads)
}

// HandleGetKPIs handles GET /api/kpis
func (h *Handler) HandleGetKPIs(w http.ResponseWriter, r *http.Request) {
	weekEnding, err := parseDate(r.URL.Query().Get("week"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	category := types.CategoryLabel(r.URL.Query().Get("category"))

	report, err := h.dashboard.GetKPIs(r.Context(), weekEnding, category)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}

// HandleListAgingBugs handles GET /api/aging
func (h *Handler) HandleListAgingBugs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	weekEnding, err := parseDate(q.Get("week"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	sortBy, err := types.ParseSortKey(q.Get("sort"))
	if err != nil {
		respondError(w, r, goerr.Wrap(err, "invalid sort key", goerr.T(model.ErrTagValidation)))
		return
	}
	order, err := types.ParseSortOrder(q.Get("order"))
	if err != nil {
		respondError(w, r, goerr.Wrap(err, "invalid sort order", goerr.T(model.ErrTagValidation)))
		return
	}

	category := types.CategoryLabel(q.Get("category"))
	limit := parseIntOr(q.Get("limit"), 0)

	result, err := h.dashboard.ListAgingBugs(r.Context(), weekEnding, category, sortBy, order, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// HandleListHistory handles GET /api/history
func (h *Handler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weeks := parseIntOr(q.Get("weeks"), 0)
	category := types.CategoryLabel(q.Get("category"))

	points, err := h.dashboard.ListHistory(r.Context(), weeks, category)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, points)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, goerr.New("week date parameter is required", goerr.T(model.ErrTagValidation))
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid date, expected YYYY-MM-DD",
			goerr.T(model.ErrTagValidation), goerr.V("date", s))
	}
	return t, nil
}

func parseIntOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
