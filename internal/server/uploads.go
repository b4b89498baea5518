package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	obslogger "github.com/smallbiznis/aquabill/internal/observability/logger"
)

func (s *Server) UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			AbortWithError(c, ErrPayloadTooLarge)
			return
		}
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}

	fileType, err := ingestdomain.ParseFileType(c.PostForm("file_type"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set(obslogger.KeyFileType, string(fileType))

	period, err := parseOptionalPeriod(c.PostForm("periode_bulan"), c.PostForm("periode_tahun"), "periode_bulan", "periode_tahun")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer f.Close()

	resp, err := s.ingestSvc.Ingest(c.Request.Context(), ingestdomain.IngestRequest{
		FileType: fileType,
		FileName: header.Filename,
		Body:     f,
		Period:   period,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set(obslogger.KeyIngestRunID, resp.RunID.String())

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUploads(c *gin.Context) {
	page, err := parsePageQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filter := ingestdomain.RunFilter{
		Status: ingestdomain.RunStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if raw := strings.TrimSpace(c.Query("file_type")); raw != "" {
		ft, err := ingestdomain.ParseFileType(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filter.FileType = ft
	}

	runs, err := s.ingestSvc.ListRuns(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (s *Server) GetUpload(c *gin.Context) {
	run, err := s.ingestSvc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (s *Server) ListRecords(c *gin.Context) {
	entity, err := ingestdomain.ParseFileType(c.Param("entity"))
	if err != nil {
		AbortWithError(c, ingestdomain.ErrUnknownEntity)
		return
	}
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

	resp, err := s.ingestSvc.GetRecords(c.Request.Context(), ingestdomain.RecordQuery{
		FileType:   entity,
		Period:     period,
		CustomerID: strings.TrimSpace(c.Query("customer_id")),
		Limit:      page.Limit,
		Offset:     page.Offset,
		SortBy:     strings.TrimSpace(c.Query("sort_by")),
		OrderBy:    strings.TrimSpace(c.Query("order_by")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
