package migration

import (
	"testing"

	"github.com/smallbiznis/aquabill/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init.down.sql", "000001_init.up.sql"}, names)
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(conn))

	for _, table := range []string{
		"billing_roster", "collections", "payments", "receivables",
		"main_bills", "meter_readings", "upload_runs",
	} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasIndex("meter_readings", "ux_meter_readings_customer_period"))
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.ErrorIs(t, RunMigrations(nil, nil), errNoHandle)
	assert.ErrorIs(t, AutoMigrate(nil), errNoHandle)
}
