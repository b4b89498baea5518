package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/aquabill/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	requestIDHeader = "X-Request-Id"

	// Keys handlers set on the gin context so the access log can report what
	// an upload resolved to.
	KeyFileType    = "file_type"
	KeyIngestRunID = "ingest_run_id"
)

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps the last handler error to (error_type, error_code).
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware writes one access log line per request.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestID(c)
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		fields := append(requestFields(c, route, status, start), domainFields(c)...)

		var errorType, errorCode string
		if last := c.Errors.Last(); last != nil {
			errorType = "internal_error"
			if cfg.ErrorClassifier != nil {
				errorType, errorCode = cfg.ErrorClassifier(last.Err)
			}
			fields = append(fields,
				zap.String("error_type", errorType),
				zap.String("error_code", errorCode),
			)
			if cfg.Debug {
				fields = append(fields, zap.String("error", last.Err.Error()))
			}
		}

		if ce := FromContext(c.Request.Context()).Check(accessLevel(route, status, errorType), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(requestIDHeader)); id != "" {
		return id
	}
	return uuid.NewString()
}

func requestFields(c *gin.Context, route string, status int, start time.Time) []zap.Field {
	bytesIn := c.Request.ContentLength
	if bytesIn < 0 {
		bytesIn = 0
	}
	bytesOut := c.Writer.Size()
	if bytesOut < 0 {
		bytesOut = 0
	}
	return []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Int64("bytes_in", bytesIn),
		zap.Int("bytes_out", bytesOut),
	}
}

// domainFields reports the billing period of report queries and what an upload
// was ingested as.
func domainFields(c *gin.Context) []zap.Field {
	var fields []zap.Field
	if bulan, tahun := c.Query("bulan"), c.Query("tahun"); bulan != "" || tahun != "" {
		fields = append(fields, zap.String("periode", strings.TrimSpace(bulan)+"/"+strings.TrimSpace(tahun)))
	}
	if v := c.GetString(KeyFileType); v != "" {
		fields = append(fields, zap.String(KeyFileType, v))
	}
	if v := c.GetString(KeyIngestRunID); v != "" {
		fields = append(fields, zap.String(KeyIngestRunID, v))
	}
	return fields
}

// accessLevel keeps scrape traffic and rejected uploads out of info logs;
// the ingestion service already logs why a file was rejected.
func accessLevel(route string, status int, errorType string) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zap.ErrorLevel
	case route == "/metrics" || route == "/health":
		return zap.DebugLevel
	case route == "/api/uploads" && status >= http.StatusBadRequest && errorType == "validation_error":
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}
