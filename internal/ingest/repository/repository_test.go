package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.BillingRosterRecord{},
		&domain.CollectionRecord{},
		&domain.UploadRun{},
	))
	return conn
}

func collectionBatch(node *snowflake.Node, rows ...domain.CollectionRecord) *domain.Batch {
	for i := range rows {
		rows[i].ID = node.Generate()
		rows[i].PeriodeBulan = 3
		rows[i].PeriodeTahun = 2025
		rows[i].PaymentType = "current"
		rows[i].Source = "collection"
		rows[i].CreatedAt = time.Now()
	}
	return &domain.Batch{
		FileType: domain.FileTypeCollection,
		Mode:     domain.WriteAppend,
		Model:    new(domain.CollectionRecord),
		Rows:     rows,
	}
}

func TestAppendSkipsDuplicateNaturalKeys(t *testing.T) {
	conn := setupDB(t)
	node, _ := snowflake.NewNode(1)
	repo := NewRepository()
	ctx := context.Background()

	first := collectionBatch(node,
		domain.CollectionRecord{CustomerID: "1", PaymentDate: "2025-03-01", Amount: 100},
		domain.CollectionRecord{CustomerID: "2", PaymentDate: "2025-03-01", Amount: 200},
	)
	inserted, err := repo.Append(ctx, conn, first)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	again := collectionBatch(node,
		domain.CollectionRecord{CustomerID: "1", PaymentDate: "2025-03-01", Amount: 100},
		domain.CollectionRecord{CustomerID: "3", PaymentDate: "2025-03-02", Amount: 300},
	)
	inserted, err = repo.Append(ctx, conn, again)
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	var count int64
	require.NoError(t, conn.Model(&domain.CollectionRecord{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestReplaceKeepsOnlyLatestExtract(t *testing.T) {
	conn := setupDB(t)
	node, _ := snowflake.NewNode(1)
	repo := NewRepository()
	ctx := context.Background()

	roster := func(ids ...string) *domain.Batch {
		rows := make([]domain.BillingRosterRecord, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, domain.BillingRosterRecord{
				ID: node.Generate(), CustomerID: id, Rayon: "34", PeriodeBulan: 3, PeriodeTahun: 2025, CreatedAt: time.Now(),
			})
		}
		return &domain.Batch{FileType: domain.FileTypeMC, Mode: domain.WriteReplace, Model: new(domain.BillingRosterRecord), Rows: rows}
	}

	for _, b := range []*domain.Batch{roster("1", "2", "3"), roster("4", "5")} {
		err := conn.Transaction(func(tx *gorm.DB) error {
			_, err := repo.Replace(ctx, tx, b)
			return err
		})
		require.NoError(t, err)
	}

	var ids []string
	require.NoError(t, conn.Model(&domain.BillingRosterRecord{}).Order("customer_id").Pluck("customer_id", &ids).Error)
	assert.Equal(t, []string{"4", "5"}, ids)
}

func TestRunsAndRecords(t *testing.T) {
	conn := setupDB(t)
	node, _ := snowflake.NewNode(1)
	repo := NewRepository()
	ctx := context.Background()

	_, err := repo.Append(ctx, conn, collectionBatch(node,
		domain.CollectionRecord{CustomerID: "9", PaymentDate: "2025-03-01", Amount: 10},
		domain.CollectionRecord{CustomerID: "8", PaymentDate: "2025-03-01", Amount: 20},
	))
	require.NoError(t, err)

	rows, total, err := repo.FindRecords(ctx, conn, domain.RecordQuery{
		FileType: domain.FileTypeCollection,
		Period:   derive.Period{Month: 3, Year: 2025},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	records := rows.([]*domain.CollectionRecord)
	require.Len(t, records, 2)
	assert.Equal(t, "8", records[0].CustomerID)

	rows, total, err = repo.FindRecords(ctx, conn, domain.RecordQuery{
		FileType:   domain.FileTypeCollection,
		Period:     derive.Period{Month: 3, Year: 2025},
		CustomerID: "9",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, rows.([]*domain.CollectionRecord), 1)

	_, _, err = repo.FindRecords(ctx, conn, domain.RecordQuery{FileType: "NOPE"})
	assert.ErrorIs(t, err, domain.ErrUnknownEntity)

	run := &domain.UploadRun{ID: node.Generate(), FileType: domain.FileTypeCollection, FileName: "c.csv", Status: domain.RunStatusSuccess, CreatedAt: time.Now()}
	require.NoError(t, repo.InsertRun(ctx, conn, run))

	got, err := repo.GetRun(ctx, conn, run.ID.Int64())
	require.NoError(t, err)
	assert.Equal(t, "c.csv", got.FileName)

	_, err = repo.GetRun(ctx, conn, 42)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	runs, err := repo.ListRuns(ctx, conn, domain.RunFilter{FileType: domain.FileTypeCollection, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
