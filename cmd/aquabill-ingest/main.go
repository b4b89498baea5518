// Command aquabill-ingest loads one extract file from disk, the same way an
// upload through the API does.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/clock"
	"github.com/smallbiznis/aquabill/internal/config"
	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/ingest"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/internal/migration"
	"github.com/smallbiznis/aquabill/internal/observability"
	"github.com/smallbiznis/aquabill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	var (
		fileType = flag.String("type", "", "file type (MC, COLLECTION, MB, ARDEBT, MAINBILL, SBRS); inferred from the file name when empty")
		path     = flag.String("file", "", "path to the CSV or Excel file")
		month    = flag.Int("bulan", 0, "billing month override (1-12)")
		year     = flag.Int("tahun", 0, "billing year override")
		timeout  = flag.Duration("timeout", 10*time.Minute, "ingestion timeout")
	)
	flag.Parse()

	if err := run(*fileType, *path, *month, *year, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "aquabill-ingest:", err)
		os.Exit(1)
	}
}

func run(rawType, path string, month, year int, timeout time.Duration) error {
	if path == "" {
		return fmt.Errorf("-file is required")
	}

	req := ingestdomain.IngestRequest{FileName: filepath.Base(path)}
	if rawType != "" {
		ft, err := ingestdomain.ParseFileType(rawType)
		if err != nil {
			return fmt.Errorf("-type %q: %w", rawType, err)
		}
		req.FileType = ft
	} else {
		ft, ok := ingestdomain.FileTypeFromName(req.FileName)
		if !ok {
			return fmt.Errorf("cannot infer file type from %q, pass -type", req.FileName)
		}
		req.FileType = ft
	}
	if month != 0 || year != 0 {
		period := derive.Period{Month: month, Year: year}
		if err := period.Validate(); err != nil {
			return err
		}
		req.Period = &period
	}

	var (
		svc ingestdomain.Service
		log *zap.Logger
	)
	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ingest.Module,
		fx.Populate(&svc, &log),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	req.Body = f

	ctx, cancelRun := context.WithTimeout(context.Background(), timeout)
	defer cancelRun()

	res, err := svc.Ingest(ctx, req)
	if err != nil {
		log.Error("ingest failed", zap.String("file", path), zap.Error(err))
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
