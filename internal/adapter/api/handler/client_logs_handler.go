package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/human-centric-engineering/sunrise/internal/usecase"
)

// ClientLogHandler handles HTTP requests from browser clients reporting
// their local log buffers.
type ClientLogHandler struct {
	uc          *usecase.ClientLogUseCase
	logger      *slog.Logger
	maxBodySize int64
}

// NewClientLogHandler creates a new ClientLogHandler.
func NewClientLogHandler(uc *usecase.ClientLogUseCase, logger *slog.Logger, maxBodySize int64) *ClientLogHandler {
	return &ClientLogHandler{uc: uc, logger: logger, maxBodySize: maxBodySize}
}

// Report accepts a single report object or an array of them.
// POST /api/v1/client-logs
func (h *ClientLogHandler) Report(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondWithError(w, h.logger, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		respondWithError(w, h.logger, http.StatusBadRequest, "unreadable request body")
		return
	}

	reports, err := decodeReports(body)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(reports) == 0 {
		respondWithError(w, h.logger, http.StatusBadRequest, "no log reports in request")
		return
	}

	accepted, rejected := h.uc.Report(r.Context(), reports)
	respondWithJSON(w, h.logger, http.StatusAccepted, envelope{
		Success: true,
		Data:    map[string]int{"accepted": accepted, "rejected": rejected},
	})
}

func decodeReports(body []byte) ([]usecase.ClientLogReport, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reports []usecase.ClientLogReport
		err := json.Unmarshal(trimmed, &reports)
		return reports, err
	}

	var report usecase.ClientLogReport
	if err := json.Unmarshal(trimmed, &report); err != nil {
		return nil, err
	}
	return []usecase.ClientLogReport{report}, nil
}
