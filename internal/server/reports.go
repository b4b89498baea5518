package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/aquabill/internal/report/domain"
)

func (s *Server) GetKPI(c *gin.Context) {
	period, err := parsePeriodQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reportSvc.KPI(c.Request.Context(), period)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetKPITrend(c *gin.Context) {
	resp, err := s.reportSvc.Trend(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUnpaid(c *gin.Context) {
	period, err := parsePeriodQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	page, err := parsePageQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows, total, err := s.reportSvc.Unpaid(c.Request.Context(), period, page.Limit, page.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows, "total": total})
}

func (s *Server) GetUnpaidSummary(c *gin.Context) {
	period, err := parsePeriodQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reportSvc.UnpaidSummary(c.Request.Context(), period)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPerformance(c *gin.Context) {
	period, err := parsePeriodQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dim, err := reportdomain.ParseDimension(c.Query("dimension"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reportSvc.Performance(c.Request.Context(), period, dim)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
