package handler

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/human-centric-engineering/sunrise/internal/adapter/repository/memory"
	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/usecase"
)

type logListResponse struct {
	Success bool              `json:"success"`
	Data    []domain.LogEntry `json:"data"`
	Meta    struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	} `json:"meta"`
	Error string `json:"error"`
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededAdminLogsHandler(t *testing.T) (*AdminLogsHandler, *memory.LogBuffer) {
	t.Helper()
	store := memory.NewLogBuffer(10)
	base := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	store.Append(domain.LogEntry{Timestamp: base, Level: domain.LevelInfo, Message: "service started"})
	store.Append(domain.LogEntry{Timestamp: base.Add(time.Minute), Level: domain.LevelWarn, Message: "disk filling up"})
	store.Append(domain.LogEntry{Timestamp: base.Add(2 * time.Minute), Level: domain.LevelError, Message: "upstream timeout"})

	uc := usecase.NewAdminLogsUseCase(store, testLogger())
	return NewAdminLogsHandler(uc, testLogger()), store
}

func TestAdminLogsHandler_List(t *testing.T) {
	t.Run("Returns Page With Meta", func(t *testing.T) {
		h, _ := seededAdminLogsHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs?limit=2", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
		}

		var resp logListResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Success {
			t.Error("expected success=true")
		}
		if len(resp.Data) != 2 {
			t.Fatalf("got %d entries, want 2", len(resp.Data))
		}
		if resp.Data[0].Message != "upstream timeout" {
			t.Errorf("got %q first, want newest entry", resp.Data[0].Message)
		}
		if resp.Meta.Page != 1 || resp.Meta.Limit != 2 || resp.Meta.Total != 3 || resp.Meta.TotalPages != 2 {
			t.Errorf("got meta %+v, want page 1, limit 2, total 3, totalPages 2", resp.Meta)
		}
	})

	t.Run("Filters By Level", func(t *testing.T) {
		h, _ := seededAdminLogsHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs?level=warn", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		var resp logListResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Meta.Total != 1 || resp.Data[0].Level != domain.LevelWarn {
			t.Errorf("got total %d level %q, want one warn entry", resp.Meta.Total, resp.Data[0].Level)
		}
	})

	t.Run("Rejects Unknown Level", func(t *testing.T) {
		h, _ := seededAdminLogsHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs?level=verbose", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want %d", rr.Code, http.StatusBadRequest)
		}
		var resp logListResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Success || !strings.Contains(resp.Error, "unknown level") {
			t.Errorf("got %+v, want unknown level error", resp)
		}
	})

	t.Run("Rejects Non Numeric Paging", func(t *testing.T) {
		h, _ := seededAdminLogsHandler(t)

		for _, target := range []string{"/api/admin/logs?page=abc", "/api/admin/logs?limit=abc"} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rr := httptest.NewRecorder()
			h.List(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("%s: got status %d, want %d", target, rr.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("Out Of Range Page Keeps Total", func(t *testing.T) {
		h, _ := seededAdminLogsHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs?page=99", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		var resp logListResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Data == nil {
			t.Error("data must be an empty array, not null")
		}
		if len(resp.Data) != 0 || resp.Meta.Total != 3 {
			t.Errorf("got %d entries total %d, want empty page with total 3", len(resp.Data), resp.Meta.Total)
		}
	})

	t.Run("Accepts Extreme Paging Values", func(t *testing.T) {
		h, _ := seededAdminLogsHandler(t)

		for _, target := range []string{
			"/api/admin/logs?limit=9223372036854775807",
			"/api/admin/logs?page=9223372036854775807",
			"/api/admin/logs?page=9223372036854775807&limit=9223372036854775807",
		} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rr := httptest.NewRecorder()
			h.List(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("%s: got status %d, want %d", target, rr.Code, http.StatusOK)
				continue
			}
			var resp logListResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("%s: failed to decode response: %v", target, err)
			}
			if resp.Meta.Total != 3 {
				t.Errorf("%s: got total %d, want 3", target, resp.Meta.Total)
			}
			if resp.Meta.TotalPages != 1 {
				t.Errorf("%s: got totalPages %d, want 1", target, resp.Meta.TotalPages)
			}
		}
	})
}

func TestAdminLogsHandler_Clear(t *testing.T) {
	h, store := seededAdminLogsHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/logs", nil)
	rr := httptest.NewRecorder()
	h.Clear(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	if store.Size() != 0 {
		t.Errorf("got %d entries after clear, want 0", store.Size())
	}
}

func TestAdminLogsHandler_Stats(t *testing.T) {
	h, _ := seededAdminLogsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs/stats", nil)
	rr := httptest.NewRecorder()
	h.Stats(rr, req)

	var resp struct {
		Success bool               `json:"success"`
		Data    domain.BufferStats `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Size != 3 || resp.Data.Capacity != 10 || resp.Data.NextID != 4 {
		t.Errorf("got stats %+v, want size 3, capacity 10, next ID 4", resp.Data)
	}
}

func TestAdminLogsHandler_Export(t *testing.T) {
	h, _ := seededAdminLogsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs/export", nil)
	rr := httptest.NewRecorder()
	h.Export(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/zstd" {
		t.Errorf("got Content-Type %q, want application/zstd", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("got Content-Disposition %q, want an attachment", cd)
	}

	dec, err := zstd.NewReader(rr.Body)
	if err != nil {
		t.Fatalf("failed to open zstd reader: %v", err)
	}
	defer dec.Close()

	lines := 0
	scanner := bufio.NewScanner(dec)
	for scanner.Scan() {
		var entry domain.LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("bad NDJSON line: %v", err)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("got %d exported entries, want 3", lines)
	}
}
