package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/usecase"
)

// AdminLogsHandler handles HTTP requests for the admin log console.
type AdminLogsHandler struct {
	uc     *usecase.AdminLogsUseCase
	logger *slog.Logger
}

// NewAdminLogsHandler creates a new AdminLogsHandler.
func NewAdminLogsHandler(uc *usecase.AdminLogsUseCase, logger *slog.Logger) *AdminLogsHandler {
	return &AdminLogsHandler{uc: uc, logger: logger}
}

// List handles requests for one page of buffered log entries.
// GET /api/admin/logs?level={level}&search={term}&page={n}&limit={n}
func (h *AdminLogsHandler) List(w http.ResponseWriter, r *http.Request) {
	var q domain.LogQuery

	params := r.URL.Query()
	if raw := params.Get("level"); raw != "" {
		level, err := domain.ParseLevel(raw)
		if err != nil {
			respondWithError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("unknown level %q", raw))
			return
		}
		q.Level = level
	}
	q.Search = params.Get("search")

	var err error
	if q.Page, err = intParam(params.Get("page")); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "page must be an integer")
		return
	}
	if q.Limit, err = intParam(params.Get("limit")); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "limit must be an integer")
		return
	}

	page := h.uc.Query(r.Context(), q)
	respondWithJSON(w, h.logger, http.StatusOK, envelope{
		Success: true,
		Data:    page.Entries,
		Meta: &pageMeta{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages(),
		},
	})
}

// Clear handles requests to wipe the buffer.
// DELETE /api/admin/logs
func (h *AdminLogsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.uc.Clear(r.Context())
	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true})
}

// Stats handles requests for buffer occupancy counters.
// GET /api/admin/logs/stats
func (h *AdminLogsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.uc.Stats(r.Context())
	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: stats})
}

// Export streams the whole buffer as a zstd-compressed NDJSON download.
// GET /api/admin/logs/export
func (h *AdminLogsHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("logs-%s.ndjson.zst", time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := h.uc.Export(r.Context(), w); err != nil {
		// Headers are gone by now; all we can do is cut the stream short.
		h.logger.Error("log export failed mid-stream", "error", err)
	}
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
