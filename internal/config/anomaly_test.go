package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnomalyConfigDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewAnomalyConfigHolderFromPaths(nil, t.TempDir())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 150.0, cfg.ExtremeThreshold)
	assert.Equal(t, 3.0, cfg.ExtremeRatio)
	assert.Equal(t, 0.5, cfg.DropRatio)
	assert.Contains(t, cfg.MeterFaultCodes, "MATI")
}

func TestAnomalyConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`anomaly:
  extreme_threshold: 100
  extreme_ratio: 2
  drop_ratio: 0.3
  rebill_markers: ["REBILL"]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anomaly.yml"), content, 0o600))

	holder, err := NewAnomalyConfigHolderFromPaths(nil, dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 100.0, cfg.ExtremeThreshold)
	assert.Equal(t, 2.0, cfg.ExtremeRatio)
	assert.Equal(t, 0.3, cfg.DropRatio)
	assert.Equal(t, []string{"REBILL"}, cfg.RebillMarkers)
	assert.Equal(t, 5.0, cfg.ZeroActivityFloor)
}

func TestAnomalyConfigRejectsInvalidDropRatio(t *testing.T) {
	dir := t.TempDir()
	content := []byte("anomaly:\n  drop_ratio: 1.5\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anomaly.yml"), content, 0o600))

	_, err := NewAnomalyConfigHolderFromPaths(nil, dir)
	if err == nil {
		t.Fatalf("expected validation error for drop_ratio")
	}
}

func TestValidateAnomalyConfig(t *testing.T) {
	cfg := DefaultAnomalyConfig()
	if err := ValidateAnomalyConfig(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.ExtremeRatio = 1
	if err := ValidateAnomalyConfig(cfg); err == nil {
		t.Fatalf("expected error for extreme_ratio <= 1")
	}
}
