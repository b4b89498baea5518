package domain

import (
	"context"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/derive"
)

// Period sources, in detection order.
const (
	PeriodSourceRequest  = "request"
	PeriodSourceColumn   = "column"
	PeriodSourceFilename = "filename"
	PeriodSourceDate     = "date_column"
	PeriodSourceClock    = "current_month"
)

type IngestRequest struct {
	FileType FileType
	FileName string
	Body     io.Reader
	// Period overrides detection when set.
	Period *derive.Period
}

type IngestResult struct {
	RunID        snowflake.ID      `json:"run_id"`
	FileType     FileType          `json:"file_type"`
	FileName     string            `json:"file_name"`
	PeriodeBulan int               `json:"periode_bulan"`
	PeriodeTahun int               `json:"periode_tahun"`
	PeriodSource string            `json:"period_source"`
	Mode         WriteMode         `json:"mode"`
	RowCount     int               `json:"row_count"`
	Stored       int64             `json:"stored"`
	Duplicates   int64             `json:"duplicates"`
	Dropped      int               `json:"dropped"`
	Columns      map[string]string `json:"columns"`
}

type RunFilter struct {
	FileType FileType
	Status   RunStatus
	Limit    int
	Offset   int
}

type RecordQuery struct {
	FileType   FileType
	Period     derive.Period
	CustomerID string
	Limit      int
	Offset     int
	SortBy     string
	OrderBy    string
}

type RecordPage struct {
	Entity       FileType `json:"entity"`
	PeriodeBulan int      `json:"periode_bulan"`
	PeriodeTahun int      `json:"periode_tahun"`
	Total        int64    `json:"total"`
	Records      any      `json:"records"`
}

type Service interface {
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*UploadRun, error)
	GetRun(ctx context.Context, id string) (*UploadRun, error)
	GetRecords(ctx context.Context, query RecordQuery) (RecordPage, error)
}
