package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	anomalydomain "github.com/smallbiznis/aquabill/internal/anomaly/domain"
	"github.com/smallbiznis/aquabill/internal/derive"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	reportdomain "github.com/smallbiznis/aquabill/internal/report/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal        = errors.New("internal_error")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrPayloadTooLarge = errors.New("payload_too_large")
)

// validationSentinels are domain errors reported as 400 with their text as the code.
var validationSentinels = []error{
	ErrInvalidRequest,
	ingestdomain.ErrInvalidRequest,
	ingestdomain.ErrNoRowsAfterFilter,
	ingestdomain.ErrUnsupportedFormat,
	ingestdomain.ErrEmptyFile,
	ingestdomain.ErrUnknownFileType,
	ingestdomain.ErrUnknownEntity,
	derive.ErrInvalidPeriod,
	anomalydomain.ErrUnknownTag,
	anomalydomain.ErrInvalidCustomer,
	reportdomain.ErrUnknownDimension,
}

// detailedCodes carry the wrapped error text as the message since it names the file problem.
var detailedCodes = map[string]bool{
	ingestdomain.ErrNoRowsAfterFilter.Error(): true,
	ingestdomain.ErrUnsupportedFormat.Error(): true,
	ingestdomain.ErrEmptyFile.Error():         true,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var missing *ingestdomain.MissingRequiredColumnError
	if errors.As(err, &missing) {
		details := make([]ValidationError, 0, len(missing.Columns))
		for _, col := range missing.Columns {
			details = append(details, ValidationError{
				Field:   col,
				Code:    ingestdomain.ErrMissingRequiredColumn.Error(),
				Message: "required column is missing",
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: missing.Error(),
			Errors:  details,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code, err),
				},
			},
		}
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ErrPayloadTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "payload_too_large",
			Message: "upload exceeds the size limit",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the response type and code for request logging.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ingestdomain.ErrRunNotFound),
		errors.Is(err, anomalydomain.ErrCustomerNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) (string, bool) {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case ingestdomain.ErrNoRowsAfterFilter.Error(),
		ingestdomain.ErrUnsupportedFormat.Error(),
		ingestdomain.ErrEmptyFile.Error():
		return "file"
	case ingestdomain.ErrUnknownFileType.Error():
		return "file_type"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "unknown_") {
		return strings.TrimPrefix(code, "unknown_")
	}
	return ""
}

func validationErrorMessage(code string, err error) string {
	if detailedCodes[code] {
		return err.Error()
	}
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
