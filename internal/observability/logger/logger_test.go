package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/aquabill/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsOnlyKnownIDs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := obscontext.WithRunID(context.Background(), "42")
	ctx = obscontext.WithJobRunID(ctx, "7")
	WithContext(ctx, base).Info("x")
	WithContext(context.Background(), base).Info("y")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0].ContextMap()
	if first["ingest_run_id"] != "42" || first["job_run_id"] != "7" {
		t.Fatalf("unexpected fields %v", first)
	}
	if _, ok := first["request_id"]; ok {
		t.Fatalf("request_id should be omitted when absent")
	}
	if len(entries[1].Context) != 0 {
		t.Fatalf("expected no fields, got %v", entries[1].ContextMap())
	}
}

func TestZapConfig(t *testing.T) {
	cfg, err := zapConfig(Config{Level: "warn", Format: "console"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Encoding != "console" || cfg.Level.Level() != zapcore.WarnLevel {
		t.Fatalf("unexpected config %s %s", cfg.Encoding, cfg.Level.Level())
	}
	if _, err := zapConfig(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestGinMiddlewareLogsUploadFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "validation_error", "missing_required_column" },
	}))
	r.POST("/api/uploads", func(c *gin.Context) {
		c.Set(KeyFileType, "SBRS")
		c.Set(KeyIngestRunID, "99")
		c.Status(http.StatusOK)
	})
	r.GET("/api/kpi", func(c *gin.Context) {
		_ = c.Error(errors.New("bad"))
		c.Status(http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", nil)
	req.Header.Set("X-Request-Id", "req-1")
	r.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "req-1" {
		t.Fatalf("request id not echoed")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kpi?bulan=3&tahun=2025", nil))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 access logs, got %d", len(entries))
	}
	upload := entries[0].ContextMap()
	if upload["file_type"] != "SBRS" || upload["ingest_run_id"] != "99" || upload["request_id"] != "req-1" {
		t.Fatalf("unexpected upload fields %v", upload)
	}
	kpi := entries[1].ContextMap()
	if kpi["periode"] != "3/2025" || kpi["error_code"] != "missing_required_column" {
		t.Fatalf("unexpected kpi fields %v", kpi)
	}
}

func TestAccessLevel(t *testing.T) {
	cases := []struct {
		route     string
		status    int
		errorType string
		want      zapcore.Level
	}{
		{"/api/kpi", 200, "", zap.InfoLevel},
		{"/api/kpi", 500, "internal_error", zap.ErrorLevel},
		{"/metrics", 200, "", zap.DebugLevel},
		{"/api/uploads", 400, "validation_error", zap.DebugLevel},
		{"/api/uploads", 413, "payload_too_large", zap.InfoLevel},
	}
	for _, tc := range cases {
		if got := accessLevel(tc.route, tc.status, tc.errorType); got != tc.want {
			t.Fatalf("accessLevel(%s, %d, %s) = %s, want %s", tc.route, tc.status, tc.errorType, got, tc.want)
		}
	}
}
