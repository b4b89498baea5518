package repository

import (
	"context"

	"github.com/smallbiznis/aquabill/pkg/db/option"
)

// Repository reads and appends rows of a single model type.
// A nil filter matches every row; options narrow and order the result.
type Repository[T any] interface {
	Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error)
	Paginate(ctx context.Context, scope []option.QueryOption, page Page) ([]*T, int64, error)
	Create(ctx context.Context, row *T) error
}

// Page selects a window of rows. Order options apply to the window only,
// so the total is counted over the scope alone.
type Page struct {
	Limit  int
	Offset int
	Order  []option.QueryOption
}
