package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Append inserts rows, skipping those whose natural key already exists.
	// It returns the number of rows actually inserted.
	Append(ctx context.Context, db *gorm.DB, batch *Batch) (int64, error)
	// Replace deletes every row of the batch's table and inserts the batch.
	Replace(ctx context.Context, db *gorm.DB, batch *Batch) (int64, error)

	InsertRun(ctx context.Context, db *gorm.DB, run *UploadRun) error
	ListRuns(ctx context.Context, db *gorm.DB, filter RunFilter) ([]*UploadRun, error)
	GetRun(ctx context.Context, db *gorm.DB, id int64) (*UploadRun, error)

	FindRecords(ctx context.Context, db *gorm.DB, query RecordQuery) (any, int64, error)
}
