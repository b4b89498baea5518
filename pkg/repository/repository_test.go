package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/aquabill/pkg/db"
	"github.com/smallbiznis/aquabill/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRun struct {
	ID       int64  `gorm:"primaryKey"`
	FileType string `gorm:"type:text"`
	Status   string `gorm:"type:text"`
}

func seedRuns(t *testing.T) Repository[sampleRun] {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&sampleRun{}))

	store := ProvideStore[sampleRun](conn)
	ctx := context.Background()
	for i, ft := range []string{"MC", "SBRS", "SBRS", "COLLECTION", "SBRS"} {
		status := "success"
		if i == 3 {
			status = "failed"
		}
		require.NoError(t, store.Create(ctx, &sampleRun{ID: int64(i + 1), FileType: ft, Status: status}))
	}
	return store
}

func TestStoreFindWithOptions(t *testing.T) {
	store := seedRuns(t)
	ctx := context.Background()

	rows, err := store.Find(ctx, &sampleRun{FileType: "SBRS"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	latest, err := store.Find(ctx, nil,
		option.WithSortBy(option.QuerySortBy{SortBy: "id", Allow: map[string]bool{"id": true}}),
		option.WithLimit(1),
	)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.EqualValues(t, 5, latest[0].ID)

	missing, err := store.FindOne(ctx, &sampleRun{FileType: "ARDEBT"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	failed, err := store.Count(ctx, &sampleRun{Status: "failed"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, failed)
}

func TestStorePaginate(t *testing.T) {
	store := seedRuns(t)
	ctx := context.Background()
	scope := []option.QueryOption{option.WithCondition("file_type = ?", "SBRS")}
	byID := []option.QueryOption{option.WithOrder("id ASC")}

	rows, total, err := store.Paginate(ctx, scope, Page{Limit: 2, Order: byID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	assert.EqualValues(t, 2, rows[0].ID)
	assert.EqualValues(t, 3, rows[1].ID)

	rows, total, err = store.Paginate(ctx, scope, Page{Limit: 2, Offset: 2, Order: byID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 5, rows[0].ID)

	rows, total, err = store.Paginate(ctx, scope, Page{Offset: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
