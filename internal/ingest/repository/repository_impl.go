package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/pkg/db/option"
	"github.com/smallbiznis/aquabill/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

var recordSortColumns = map[string]bool{
	"customer_id": true,
	"created_at":  true,
	"id":          true,
}

type repo struct{}

func NewRepository() domain.Repository {
	return &repo{}
}

func (r *repo) Append(ctx context.Context, db *gorm.DB, batch *domain.Batch) (int64, error) {
	if batch.Len() == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(batch.Rows, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("insert %s rows: %w", batch.FileType, res.Error)
	}
	return res.RowsAffected, nil
}

// Replace must run inside a transaction; the delete and insert commit together.
func (r *repo) Replace(ctx context.Context, db *gorm.DB, batch *domain.Batch) (int64, error) {
	if batch.Model == nil {
		return 0, fmt.Errorf("replace %s: batch has no model", batch.FileType)
	}
	if err := db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(batch.Model).Error; err != nil {
		return 0, fmt.Errorf("clear %s rows: %w", batch.FileType, err)
	}
	return r.Append(ctx, db, batch)
}

func (r *repo) InsertRun(ctx context.Context, db *gorm.DB, run *domain.UploadRun) error {
	return repository.ProvideStore[domain.UploadRun](db).Create(ctx, run)
}

func (r *repo) ListRuns(ctx context.Context, db *gorm.DB, filter domain.RunFilter) ([]*domain.UploadRun, error) {
	return repository.ProvideStore[domain.UploadRun](db).Find(ctx,
		&domain.UploadRun{FileType: filter.FileType, Status: filter.Status},
		option.WithOrder("created_at DESC, id DESC"),
		option.WithLimit(filter.Limit),
		option.WithOffset(filter.Offset),
	)
}

func (r *repo) GetRun(ctx context.Context, db *gorm.DB, id int64) (*domain.UploadRun, error) {
	run, err := repository.ProvideStore[domain.UploadRun](db).FindOne(ctx, &domain.UploadRun{ID: snowflake.ID(id)})
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

func (r *repo) FindRecords(ctx context.Context, db *gorm.DB, q domain.RecordQuery) (any, int64, error) {
	switch q.FileType {
	case domain.FileTypeMC:
		return findRecords[domain.BillingRosterRecord](ctx, db, q)
	case domain.FileTypeCollection:
		return findRecords[domain.CollectionRecord](ctx, db, q)
	case domain.FileTypeMB:
		return findRecords[domain.PaymentRecord](ctx, db, q)
	case domain.FileTypeARDEBT:
		return findRecords[domain.ReceivableRecord](ctx, db, q)
	case domain.FileTypeMainBill:
		return findRecords[domain.MainBillRecord](ctx, db, q)
	case domain.FileTypeSBRS:
		return findRecords[domain.MeterReadingRecord](ctx, db, q)
	default:
		return nil, 0, domain.ErrUnknownEntity
	}
}

func findRecords[T any](ctx context.Context, db *gorm.DB, q domain.RecordQuery) (any, int64, error) {
	scope := []option.QueryOption{
		option.WithCondition("periode_bulan = ? AND periode_tahun = ?", q.Period.Month, q.Period.Year),
	}
	if id := strings.TrimSpace(q.CustomerID); id != "" {
		scope = append(scope, option.WithCondition("customer_id = ?", id))
	}

	page := repository.Page{Limit: q.Limit, Offset: q.Offset}
	if q.SortBy != "" {
		page.Order = append(page.Order, option.WithSortBy(option.QuerySortBy{
			SortBy:  q.SortBy,
			OrderBy: q.OrderBy,
			Allow:   recordSortColumns,
		}))
	}
	page.Order = append(page.Order, option.WithOrder("customer_id ASC, id ASC"))

	return repository.ProvideStore[T](db).Paginate(ctx, scope, page)
}
