package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCustomerData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/anomalies"),
		attribute.String("customer_id", "30045"),
		attribute.String("address", "JL. MERDEKA 1"),
	)
	if len(attrs) != 1 || attrs[0].Key != "http.route" {
		t.Fatalf("expected only http.route, got %v", attrs)
	}
}

func TestSafeErrorTruncates(t *testing.T) {
	err := SafeError(errors.New(strings.Repeat("x", 400)))
	if len(err.Error()) != 256 {
		t.Fatalf("expected truncated message, got %d chars", len(err.Error()))
	}
	if SafeError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestSpanAttributesSkipCustomerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var attrs []attribute.KeyValue
	r.GET("/api/customers/:id/history", func(c *gin.Context) {
		c.Set("ingest_run_id", "5")
		attrs = SafeAttributes(spanAttributes(c, c.FullPath(), http.StatusOK)...)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/customers/30045/history?bulan=3&tahun=2025", nil))

	keys := map[attribute.Key]string{}
	for _, a := range attrs {
		keys[a.Key] = a.Value.Emit()
	}
	if _, ok := keys["customer_id"]; ok {
		t.Fatalf("customer_id must not reach spans: %v", keys)
	}
	if keys["http.route"] != "/api/customers/:id/history" || keys["billing.periode_bulan"] != "3" || keys["ingest.run_id"] != "5" {
		t.Fatalf("unexpected attributes %v", keys)
	}
}
