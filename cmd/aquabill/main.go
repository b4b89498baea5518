package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/aquabill/internal/anomaly"
	"github.com/smallbiznis/aquabill/internal/clock"
	"github.com/smallbiznis/aquabill/internal/config"
	"github.com/smallbiznis/aquabill/internal/ingest"
	"github.com/smallbiznis/aquabill/internal/migration"
	"github.com/smallbiznis/aquabill/internal/observability"
	"github.com/smallbiznis/aquabill/internal/report"
	"github.com/smallbiznis/aquabill/internal/scheduler"
	"github.com/smallbiznis/aquabill/internal/server"
	"github.com/smallbiznis/aquabill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domains
		ingest.Module,
		anomaly.Module,
		report.Module,

		// Inbox import runs in-process; disabled unless INBOX_ENABLED is set.
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
