package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	anomalydomain "github.com/smallbiznis/aquabill/internal/anomaly/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func parseAnomalyQuery(c *gin.Context) (anomalydomain.Query, error) {
	period, err := parsePeriodQuery(c)
	if err != nil {
		return anomalydomain.Query{}, err
	}
	page, err := parsePageQuery(c)
	if err != nil {
		return anomalydomain.Query{}, err
	}

	q := anomalydomain.Query{
		Period: period,
		Rayon:  strings.TrimSpace(c.Query("rayon")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if raw := strings.TrimSpace(c.Query("tag")); raw != "" {
		tag, ok := anomalydomain.ParseTagCode(strings.ReplaceAll(raw, "_", " "))
		if !ok {
			return anomalydomain.Query{}, anomalydomain.ErrUnknownTag
		}
		q.Tag = tag
	}
	return q, nil
}

func (s *Server) ListAnomalies(c *gin.Context) {
	q, err := parseAnomalyQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.anomalySvc.GetAnomalies(c.Request.Context(), q)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Findings, "total": resp.Total})
}

func (s *Server) GetAnomalySummary(c *gin.Context) {
	period, err := parsePeriodQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.anomalySvc.Summary(c.Request.Context(), period)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportAnomalies(c *gin.Context) {
	q, err := parseAnomalyQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.anomalySvc.Export(c.Request.Context(), q, &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("anomali_%s.xlsx", q.Period.Key())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) GetCustomerHistory(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	resp, err := s.anomalySvc.CustomerHistory(c.Request.Context(), c.Param("id"), n)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
