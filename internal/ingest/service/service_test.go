package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/clock"
	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/internal/ingest/repository"
	"github.com/smallbiznis/aquabill/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db  *gorm.DB
	svc domain.Service
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(domain.Models()...))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(),
		Clock: clock.NewManual(time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)),
	})
	return testEnv{db: conn, svc: svc}
}

func march2025() *derive.Period {
	return &derive.Period{Month: 3, Year: 2025}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

const rosterCSV = `NOMEN,ZONA_NOVAK,NAMA_PEL,TARIF,NOMINAL,KUBIK
30045.0,340960217,BUDI,R2,"125,000",12
30046,341010305,SITI,R2,98000,9
30047,360010101,ANDI,R3,50000,3
`

func TestIngestRosterKeepsServedRegionOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, domain.IngestRequest{
		FileType: domain.FileTypeMC,
		FileName: "mc.csv",
		Body:     strings.NewReader(rosterCSV),
		Period:   march2025(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Stored)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 3, res.RowCount)
	assert.Equal(t, domain.PeriodSourceRequest, res.PeriodSource)

	var rows []domain.BillingRosterRecord
	require.NoError(t, env.db.Where("periode_bulan = ? AND periode_tahun = ?", 3, 2025).Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "34", r.Rayon)
		assert.Equal(t, res.RunID, r.RunID)
	}

	runs, err := env.svc.ListRuns(ctx, domain.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusSuccess, runs[0].Status)
	assert.EqualValues(t, 2, runs[0].InsertedCount)
}

func TestIngestPaymentFileClassifiesArrears(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Ingest(context.Background(), domain.IngestRequest{
		FileType: domain.FileTypeCollection,
		FileName: "collection.csv",
		Body:     strings.NewReader("NO_PLGGN,TGL_BAYAR,JML_BAYAR,VOLUME_AIR\n30045,05-03-2025,50000,0\n"),
		Period:   march2025(),
	})
	require.NoError(t, err)

	var rec domain.CollectionRecord
	require.NoError(t, env.db.First(&rec).Error)
	assert.Equal(t, "arrears", rec.PaymentType)
	assert.Equal(t, 50000.0, rec.Amount)
}

func TestIngestAppendIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	body := "NO_PLGGN,TGL_BAYAR,JML_BAYAR,VOLUME_AIR\n1,01-03-2025,100,5\n2,02-03-2025,200,0\n"

	first, err := env.svc.Ingest(ctx, domain.IngestRequest{FileType: domain.FileTypeCollection, FileName: "c.csv", Body: strings.NewReader(body), Period: march2025()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, first.Stored)

	second, err := env.svc.Ingest(ctx, domain.IngestRequest{FileType: domain.FileTypeCollection, FileName: "c.csv", Body: strings.NewReader(body), Period: march2025()})
	require.NoError(t, err)
	assert.EqualValues(t, 0, second.Stored)
	assert.EqualValues(t, 2, second.Duplicates)

	assert.EqualValues(t, 2, countRows(t, env.db, &domain.CollectionRecord{}))
}

func TestIngestReplaceKeepsSecondExtractOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Ingest(ctx, domain.IngestRequest{FileType: domain.FileTypeMC, FileName: "mc1.csv", Body: strings.NewReader(rosterCSV), Period: march2025()})
	require.NoError(t, err)

	second := "NOMEN,ZONA_NOVAK\n50001,350960217\n"
	_, err = env.svc.Ingest(ctx, domain.IngestRequest{FileType: domain.FileTypeMC, FileName: "mc2.csv", Body: strings.NewReader(second), Period: &derive.Period{Month: 4, Year: 2025}})
	require.NoError(t, err)

	var ids []string
	require.NoError(t, env.db.Model(&domain.BillingRosterRecord{}).Pluck("customer_id", &ids).Error)
	assert.Equal(t, []string{"50001"}, ids)
}

func TestFailedReplaceLeavesPriorSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Ingest(ctx, domain.IngestRequest{FileType: domain.FileTypeMC, FileName: "mc1.csv", Body: strings.NewReader(rosterCSV), Period: march2025()})
	require.NoError(t, err)

	_, err = env.svc.Ingest(ctx, domain.IngestRequest{
		FileType: domain.FileTypeMC,
		FileName: "mc_bad.csv",
		Body:     strings.NewReader("NOMEN,ZONA_NOVAK\n1,360010101\n"),
		Period:   march2025(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoRowsAfterFilter))
	assert.EqualValues(t, 2, countRows(t, env.db, &domain.BillingRosterRecord{}))

	failed, err := env.svc.ListRuns(ctx, domain.RunFilter{Status: domain.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "mc_bad.csv", failed[0].FileName)
	assert.NotEmpty(t, failed[0].Error)
}

func TestMissingColumnIsReportedAndNothingStored(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Ingest(context.Background(), domain.IngestRequest{
		FileType: domain.FileTypeSBRS,
		FileName: "sbrs.csv",
		Body:     strings.NewReader("cmr_account,cmr_name\n1,X\n"),
		Period:   march2025(),
	})
	var missing *domain.MissingRequiredColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"volume"}, missing.Columns)
	assert.Zero(t, countRows(t, env.db, &domain.MeterReadingRecord{}))
}

func TestIngestDetectsPeriodFromFilename(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Ingest(context.Background(), domain.IngestRequest{
		FileType: domain.FileTypeMC,
		FileName: "MC_202412.csv",
		Body:     strings.NewReader(rosterCSV),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodSourceFilename, res.PeriodSource)
	assert.Equal(t, 1, res.PeriodeBulan)
	assert.Equal(t, 2025, res.PeriodeTahun)
}

func TestIngestRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Ingest(ctx, domain.IngestRequest{FileType: "XYZ", FileName: "a.csv", Body: strings.NewReader("A\n1\n")})
	assert.ErrorIs(t, err, domain.ErrUnknownFileType)

	_, err = env.svc.Ingest(ctx, domain.IngestRequest{FileType: domain.FileTypeMB, FileName: "a.csv"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = env.svc.Ingest(ctx, domain.IngestRequest{
		FileType: domain.FileTypeMB, FileName: "a.csv", Body: strings.NewReader("NOPEL,TGL_BAYAR\n1,01-01-2025\n"),
		Period: &derive.Period{Month: 13, Year: 2025},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = env.svc.Ingest(ctx, domain.IngestRequest{FileType: domain.FileTypeMB, FileName: "a.pdf", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestGetRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Ingest(ctx, domain.IngestRequest{
		FileType: domain.FileTypeARDEBT,
		FileName: "ardebt.csv",
		Body:     strings.NewReader("NOMEN,SALDO\n1,100\n2,200\n"),
		Period:   march2025(),
	})
	require.NoError(t, err)

	page, err := env.svc.GetRecords(ctx, domain.RecordQuery{FileType: domain.FileTypeARDEBT, Period: *march2025(), CustomerID: "2"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	rows := page.Records.([]*domain.ReceivableRecord)
	require.Len(t, rows, 1)
	assert.Equal(t, 200.0, rows[0].OutstandingBalance)

	page, err = env.svc.GetRecords(ctx, domain.RecordQuery{FileType: domain.FileTypeARDEBT, Period: *march2025(), CustomerID: " 2.0 "})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = env.svc.GetRecords(ctx, domain.RecordQuery{FileType: domain.FileTypeARDEBT, Period: *march2025(), CustomerID: "nan"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = env.svc.GetRecords(ctx, domain.RecordQuery{FileType: "nope", Period: *march2025()})
	assert.ErrorIs(t, err, domain.ErrUnknownEntity)
}
