package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/aquabill/pkg/db/option"
	"gorm.io/gorm"
)

type gormStore[T any] struct {
	db *gorm.DB
}

// ProvideStore binds a Repository to db, which may be a transaction handle.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &gormStore[T]{db: db}
}

func (s *gormStore[T]) Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error) {
	var rows []*T
	if err := s.scoped(ctx, filter, opts).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOne returns nil without an error when nothing matches.
func (s *gormStore[T]) FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error) {
	row := new(T)
	err := s.scoped(ctx, filter, opts).Take(row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return row, nil
}

func (s *gormStore[T]) Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error) {
	var total int64
	err := s.scoped(ctx, filter, opts).Count(&total).Error
	return total, err
}

func (s *gormStore[T]) Paginate(ctx context.Context, scope []option.QueryOption, page Page) ([]*T, int64, error) {
	total, err := s.Count(ctx, nil, scope...)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(page.Offset) >= total {
		return []*T{}, total, nil
	}

	opts := make([]option.QueryOption, 0, len(scope)+len(page.Order)+2)
	opts = append(opts, scope...)
	opts = append(opts, page.Order...)
	opts = append(opts, option.WithLimit(page.Limit), option.WithOffset(page.Offset))

	rows, err := s.Find(ctx, nil, opts...)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *gormStore[T]) Create(ctx context.Context, row *T) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *gormStore[T]) scoped(ctx context.Context, filter *T, opts []option.QueryOption) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		tx = tx.Where(filter)
	}
	for _, opt := range opts {
		tx = opt.Apply(tx)
	}
	return tx
}
