package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/ingestion"
	"credit-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type IngestionHandler struct {
	service ingestion.Service
	logger  *slog.Logger
}

func NewIngestionHandler(s ingestion.Service, l *slog.Logger) *IngestionHandler {
	if s == nil {
		panic("ingestion service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &IngestionHandler{
		service: s,
		logger:  l.With("component", "IngestionHandler"),
	}
}

// SubmitIngestion handles POST /ingestions
// @Summary Submit an ingestion run
// @Description Queues a background import of customer and loan tables. Sources are paths under the data directory or gs://bucket/object URIs, in CSV or XLSX format.
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param request body dto.SubmitIngestionRequest true "Table sources"
// @Success 202 {object} dto.IngestionSubmittedResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 503 {object} dto.ErrorResponse "Ingestion queue is full"
// @Router /ingestions [post]
// @Security BearerAuth
func (h *IngestionHandler) SubmitIngestion(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitIngestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	run, err := h.service.Submit(r.Context(), req.CustomerSource, req.LoanSource)
	if err != nil {
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Ingestion run submitted", "runID", run.ID)
	respondJSON(w, http.StatusAccepted, dto.IngestionSubmittedResponse{RunID: run.ID, Status: string(run.Status)})
}

// GetIngestion handles GET /ingestions/{runID}
// @Summary Get an ingestion run
// @Tags Ingestion
// @Produce json
// @Param runID path string true "Run ID"
// @Success 200 {object} dto.IngestionRunResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid run ID"
// @Failure 404 {object} dto.ErrorResponse "Run not found"
// @Router /ingestions/{runID} [get]
// @Security BearerAuth
func (h *IngestionHandler) GetIngestion(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Status(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewIngestionRunResponse(run))
}

// ListIngestions handles GET /ingestions
// @Summary List recent ingestion runs
// @Tags Ingestion
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} dto.IngestionRunResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid limit"
// @Router /ingestions [get]
// @Security BearerAuth
func (h *IngestionHandler) ListIngestions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, apperrors.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}

	runs, err := h.service.List(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]dto.IngestionRunResponse, len(runs))
	for i := range runs {
		out[i] = dto.NewIngestionRunResponse(&runs[i])
	}
	respondJSON(w, http.StatusOK, out)
}
