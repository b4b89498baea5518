// Package processor turns decoded extracts into canonical record batches.
//
// Every file type is a Layout value driving the same pipeline: resolve the
// header, check required fields, normalize and derive each row, drop rows
// that fail, and stamp the survivors with period and run metadata.
// Persistence happens later, inside the caller's transaction.
package processor

import (
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/columnmap"
	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/internal/normalize"
	"github.com/smallbiznis/aquabill/internal/tabular"
)

// Processor prepares one file type.
type Processor interface {
	FileType() domain.FileType
	Mode() domain.WriteMode
	Columns() columnmap.Table
	Prepare(tbl *tabular.Table, stamp Stamp) (*domain.Batch, error)
}

// Stamp carries the metadata attached to every row of one run.
type Stamp struct {
	Period derive.Period
	RunID  snowflake.ID
	Now    time.Time

	node *snowflake.Node
}

func NewStamp(node *snowflake.Node, runID snowflake.ID, period derive.Period, now time.Time) Stamp {
	return Stamp{Period: period, RunID: runID, Now: now.UTC(), node: node}
}

// NextID returns a fresh row id.
func (s Stamp) NextID() snowflake.ID {
	return s.node.Generate()
}

// Row reads one source row through the resolved mapping.
type Row struct {
	mapping columnmap.Mapping
	cells   []string
}

func (r Row) Has(field string) bool { return r.mapping.Has(field) }

func (r Row) Raw(field string) string { return r.mapping.Value(r.cells, field) }

func (r Row) Text(field string) string { return normalize.Text(r.Raw(field)) }

func (r Row) Float(field string) float64 { return normalize.Float(r.Raw(field)) }

func (r Row) Currency(field string) float64 { return normalize.Currency(r.Raw(field)) }

// Date normalizes to 2006-01-02, passing unparsed values through.
func (r Row) Date(field string) string {
	return strings.TrimSpace(normalize.DateAny(r.Raw(field), normalize.DateLayout))
}

// Label returns a period-like text cell without the spreadsheet ".0" suffix.
func (r Row) Label(field string) string {
	return strings.TrimSuffix(r.Text(field), ".0")
}

// Layout configures the shared pipeline for one file type.
type Layout[T any] struct {
	Type     domain.FileType
	Table    columnmap.Table
	Required []string
	WriteAs  domain.WriteMode
	// FilterReason explains Build rejections in NoRowsAfterFilterError.
	FilterReason string
	// Build derives the canonical record; returning false drops the row.
	Build func(customerID string, row Row, stamp Stamp) (T, bool)
}

func (s Layout[T]) FileType() domain.FileType { return s.Type }

func (s Layout[T]) Mode() domain.WriteMode { return s.WriteAs }

func (s Layout[T]) Columns() columnmap.Table { return s.Table }

func (s Layout[T]) Prepare(tbl *tabular.Table, stamp Stamp) (*domain.Batch, error) {
	if tbl == nil {
		return nil, domain.ErrEmptyFile
	}

	mapping := columnmap.Resolve(s.Table, tbl.Header)
	if missing := mapping.Missing(s.Required...); len(missing) > 0 {
		return nil, &domain.MissingRequiredColumnError{FileType: s.Type, Columns: missing}
	}

	rows := make([]T, 0, len(tbl.Rows))
	dropped := 0
	for _, cells := range tbl.Rows {
		row := Row{mapping: mapping, cells: cells}
		customerID, ok := normalize.CustomerID(row.Raw(columnmap.CustomerID))
		if !ok {
			dropped++
			continue
		}
		rec, keep := s.Build(customerID, row, stamp)
		if !keep {
			dropped++
			continue
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		return nil, &domain.NoRowsAfterFilterError{FileType: s.Type, Reason: s.FilterReason}
	}

	return &domain.Batch{
		FileType: s.Type,
		Mode:     s.WriteAs,
		Model:    new(T),
		Rows:     rows,
		Total:    len(tbl.Rows),
		Dropped:  dropped,
		Sources:  mapping.Sources(),
	}, nil
}

var registry = map[domain.FileType]Processor{
	domain.FileTypeMC:         MC,
	domain.FileTypeCollection: Collection,
	domain.FileTypeMB:         MB,
	domain.FileTypeARDEBT:     ARDEBT,
	domain.FileTypeMainBill:   MainBill,
	domain.FileTypeSBRS:       SBRS,
}

// For returns the processor registered for ft.
func For(ft domain.FileType) (Processor, error) {
	p, ok := registry[ft]
	if !ok {
		return nil, domain.ErrUnknownFileType
	}
	return p, nil
}

func absFloat(v float64) float64 { return math.Abs(v) }
