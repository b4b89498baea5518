package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql       string
		operation string
		table     string
	}{
		{`INSERT INTO "collections" ("customer_id") VALUES ($1) ON CONFLICT DO NOTHING`, "INSERT", "collections"},
		{`SELECT count(*) FROM meter_readings WHERE periode_bulan = 3`, "SELECT", "meter_readings"},
		{`DELETE FROM billing_roster`, "DELETE", "billing_roster"},
		{`UPDATE upload_runs SET status = 'failed'`, "UPDATE", "upload_runs"},
		{``, "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		if op != tc.operation || table != tc.table {
			t.Fatalf("describeSQL(%q) = (%q, %q), want (%q, %q)", tc.sql, op, table, tc.operation, tc.table)
		}
	}
}

func TestGormLoggerTraceLogsErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO collections (customer_id) VALUES ('1')", 0
	}, errors.New("boom"))

	entries := logs.FilterMessage("gorm.query").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["table"] != "collections" {
		t.Fatalf("expected table field collections, got %v", entries[0].ContextMap()["table"])
	}
}

func TestGormLoggerSilentDropsEverything(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig()).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	l.Error(context.Background(), "ignored")

	if logs.Len() != 0 {
		t.Fatalf("expected no logs, got %d", logs.Len())
	}
}
