package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/santiyeai/sitechief/internal/healthcheck"
)

type staticChecker struct {
	status string
}

func (s staticChecker) ListChecks(context.Context) []healthcheck.CheckResult {
	return []healthcheck.CheckResult{{ID: "static", Status: s.status}}
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		status   string
		wantCode int
	}{
		{name: "ok", status: healthcheck.StatusOK, wantCode: http.StatusOK},
		{name: "warn", status: healthcheck.StatusWarn, wantCode: http.StatusOK},
		{name: "error", status: healthcheck.StatusError, wantCode: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := NewHealthHandler(nil, staticChecker{status: tc.status})
			rec := httptest.NewRecorder()
			if err := h.Health(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			var report healthcheck.Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Status != tc.status || len(report.Checks) != 1 {
				t.Fatalf("unexpected report: %+v", report)
			}
		})
	}
}
