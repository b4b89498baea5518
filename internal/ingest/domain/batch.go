package domain

import "reflect"

// Batch is a validated, fully built set of rows for one file, ready to persist.
type Batch struct {
	FileType FileType
	Mode     WriteMode
	// Model is a pointer to a zero value of the row type, used for deletes in replace mode.
	Model any
	// Rows is a typed slice of records ([]BillingRosterRecord, []CollectionRecord, ...).
	Rows any

	Total   int
	Dropped int
	Sources map[string]string
}

// Len is the number of rows to persist.
func (b *Batch) Len() int {
	if b == nil || b.Rows == nil {
		return 0
	}
	v := reflect.ValueOf(b.Rows)
	if v.Kind() != reflect.Slice {
		return 0
	}
	return v.Len()
}
