package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AnomalyConfig holds the thresholds used by the meter-reading classifier.
type AnomalyConfig struct {
	// ExtremeThreshold is the absolute usage ceiling (m3) above which a reading is EKSTRIM.
	ExtremeThreshold float64 `mapstructure:"extreme_threshold" json:"extreme_threshold"`
	// ExtremeRatio is the multiple of the historical average that triggers EKSTRIM.
	ExtremeRatio float64 `mapstructure:"extreme_ratio" json:"extreme_ratio"`
	// DropRatio is the fraction of the historical average below which usage counts as a drop.
	DropRatio float64 `mapstructure:"drop_ratio" json:"drop_ratio"`
	// ZeroActivityFloor is the minimum historical average for a zero reading to be suspicious.
	ZeroActivityFloor float64 `mapstructure:"zero_activity_floor" json:"zero_activity_floor"`
	// VacantUsageThreshold is the usage tolerated on a dwelling marked vacant.
	VacantUsageThreshold float64 `mapstructure:"vacant_usage_threshold" json:"vacant_usage_threshold"`

	VacantSkipCodes      []string `mapstructure:"vacant_skip_codes" json:"vacant_skip_codes"`
	RebillMarkers        []string `mapstructure:"rebill_markers" json:"rebill_markers"`
	ActualReadMethods    []string `mapstructure:"actual_read_methods" json:"actual_read_methods"`
	EstimatedReadMethods []string `mapstructure:"estimated_read_methods" json:"estimated_read_methods"`
	MeterFaultCodes      []string `mapstructure:"meter_fault_codes" json:"meter_fault_codes"`
}

func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		ExtremeThreshold:     150,
		ExtremeRatio:         3,
		DropRatio:            0.5,
		ZeroActivityFloor:    5,
		VacantUsageThreshold: 5,
		VacantSkipCodes:      []string{"RK", "RUMAH KOSONG", "KOSONG", "VACANT"},
		RebillMarkers:        []string{"REBILL", "KOREKSI"},
		ActualReadMethods:    []string{"ACTUAL", "AC", "NORMAL"},
		EstimatedReadMethods: []string{"ES", "EST", "ESTIMASI", "ESTIMATED", "DL", "PE"},
		MeterFaultCodes:      []string{"MR", "MB", "MATI", "RUSAK", "BURAM", "TERBALIK", "MACET"},
	}
}

type AnomalyConfigHolder struct {
	current atomic.Value // holds AnomalyConfig
}

// NewAnomalyConfigHolder loads anomaly.yml from the standard locations.
func NewAnomalyConfigHolder(log *zap.Logger) (*AnomalyConfigHolder, error) {
	return NewAnomalyConfigHolderFromPaths(log,
		"/var/lib/aquabill/config", // Volume-mounted config
		"/etc/aquabill",            // System config
		".",                        // Current directory (dev mode)
	)
}

func NewAnomalyConfigHolderFromPaths(log *zap.Logger, paths ...string) (*AnomalyConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.anomaly")

	v := viper.New()
	v.SetConfigName("anomaly")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("AQUABILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setAnomalyDefaults(v, DefaultAnomalyConfig())

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var cfg AnomalyConfig
	if err := v.UnmarshalKey("anomaly", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateAnomalyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &AnomalyConfigHolder{}
	holder.current.Store(cfg)

	if !watch {
		log.Info("anomaly config file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AnomalyConfig
		if err := v.UnmarshalKey("anomaly", &updated); err != nil {
			log.Warn("anomaly config reload failed", zap.Error(err))
			return
		}
		if err := ValidateAnomalyConfig(updated); err != nil {
			log.Warn("invalid anomaly config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("anomaly config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticAnomalyConfigHolder wraps a fixed configuration.
func NewStaticAnomalyConfigHolder(cfg AnomalyConfig) *AnomalyConfigHolder {
	holder := &AnomalyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *AnomalyConfigHolder) Get() AnomalyConfig {
	return h.current.Load().(AnomalyConfig)
}

func setAnomalyDefaults(v *viper.Viper, d AnomalyConfig) {
	v.SetDefault("anomaly.extreme_threshold", d.ExtremeThreshold)
	v.SetDefault("anomaly.extreme_ratio", d.ExtremeRatio)
	v.SetDefault("anomaly.drop_ratio", d.DropRatio)
	v.SetDefault("anomaly.zero_activity_floor", d.ZeroActivityFloor)
	v.SetDefault("anomaly.vacant_usage_threshold", d.VacantUsageThreshold)
	v.SetDefault("anomaly.vacant_skip_codes", d.VacantSkipCodes)
	v.SetDefault("anomaly.rebill_markers", d.RebillMarkers)
	v.SetDefault("anomaly.actual_read_methods", d.ActualReadMethods)
	v.SetDefault("anomaly.estimated_read_methods", d.EstimatedReadMethods)
	v.SetDefault("anomaly.meter_fault_codes", d.MeterFaultCodes)
}

func ValidateAnomalyConfig(cfg AnomalyConfig) error {
	if cfg.ExtremeThreshold <= 0 {
		return errors.New("anomaly.extreme_threshold must be positive")
	}
	if cfg.ExtremeRatio <= 1 {
		return errors.New("anomaly.extreme_ratio must be greater than 1")
	}
	if cfg.DropRatio <= 0 || cfg.DropRatio >= 1 {
		return errors.New("anomaly.drop_ratio must be between 0 and 1")
	}
	if cfg.ZeroActivityFloor < 0 {
		return errors.New("anomaly.zero_activity_floor cannot be negative")
	}
	if cfg.VacantUsageThreshold < 0 {
		return errors.New("anomaly.vacant_usage_threshold cannot be negative")
	}
	return nil
}
