package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/tabular"
)

var (
	ErrMissingRequiredColumn = errors.New("missing_required_column")
	ErrNoRowsAfterFilter     = errors.New("no_rows_after_filter")
	ErrUnknownFileType       = errors.New("unknown_file_type")
	ErrUnknownEntity         = errors.New("unknown_entity")
	ErrInvalidRequest        = errors.New("invalid_request")
	ErrRunNotFound           = errors.New("run_not_found")

	ErrUnsupportedFormat = tabular.ErrUnsupportedFormat
	ErrEmptyFile         = tabular.ErrEmptyFile
	ErrInvalidPeriod     = derive.ErrInvalidPeriod
)

// MissingRequiredColumnError aborts a file whose header lacks required fields.
type MissingRequiredColumnError struct {
	FileType FileType
	Columns  []string
}

func (e *MissingRequiredColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %s", e.FileType, strings.Join(e.Columns, ", "))
}

func (e *MissingRequiredColumnError) Is(target error) bool {
	return target == ErrMissingRequiredColumn
}

// NoRowsAfterFilterError aborts a file when filtering leaves nothing to store.
type NoRowsAfterFilterError struct {
	FileType FileType
	Reason   string
}

func (e *NoRowsAfterFilterError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: no rows left after filtering", e.FileType)
	}
	return fmt.Sprintf("%s: no rows left after filtering (%s)", e.FileType, e.Reason)
}

func (e *NoRowsAfterFilterError) Is(target error) bool {
	return target == ErrNoRowsAfterFilter
}
