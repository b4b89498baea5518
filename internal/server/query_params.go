package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/aquabill/internal/derive"
)

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parsePeriodQuery reads the required bulan and tahun query parameters.
func parsePeriodQuery(c *gin.Context) (derive.Period, error) {
	period, err := parseOptionalPeriod(c.Query("bulan"), c.Query("tahun"), "bulan", "tahun")
	if err != nil {
		return derive.Period{}, err
	}
	if period == nil {
		return derive.Period{}, newValidationError("period", "required", "bulan and tahun are required")
	}
	return *period, nil
}

// parseOptionalPeriod returns nil when both month and year are blank.
func parseOptionalPeriod(month, year, monthField, yearField string) (*derive.Period, error) {
	m, err := parseOptionalInt(month)
	if err != nil {
		return nil, newValidationError(monthField, "invalid_"+monthField, "invalid "+monthField)
	}
	y, err := parseOptionalInt(year)
	if err != nil {
		return nil, newValidationError(yearField, "invalid_"+yearField, "invalid "+yearField)
	}
	if m == nil && y == nil {
		return nil, nil
	}
	if m == nil || y == nil {
		return nil, newValidationError("period", "required", monthField+" and "+yearField+" must be given together")
	}
	period := derive.Period{Month: *m, Year: *y}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return &period, nil
}

type pageQuery struct {
	Limit  int
	Offset int
}

func parsePageQuery(c *gin.Context) (pageQuery, error) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil || (limit != nil && *limit < 0) {
		return pageQuery{}, newValidationError("limit", "invalid_limit", "invalid limit")
	}
	offset, err := parseOptionalInt(c.Query("offset"))
	if err != nil || (offset != nil && *offset < 0) {
		return pageQuery{}, newValidationError("offset", "invalid_offset", "invalid offset")
	}
	var q pageQuery
	if limit != nil {
		q.Limit = *limit
	}
	if offset != nil {
		q.Offset = *offset
	}
	return q, nil
}
