package scheduler

import (
	"time"

	"github.com/smallbiznis/aquabill/internal/config"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Config controls the inbox import job.
type Config struct {
	Enabled  bool
	Dir      string
	Schedule string
	// JobTimeout bounds a single inbox scan including every file it ingests.
	JobTimeout time.Duration
	Lock       LockConfig
}

// LockConfig enables the redis lock shared by replicas watching the same inbox.
type LockConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// TTL must outlive JobTimeout; the lock is released early when a scan ends.
	TTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Dir:        "./inbox",
		Schedule:   "@every 5m",
		JobTimeout: 10 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:  cfg.Inbox.Enabled,
		Dir:      cfg.Inbox.Dir,
		Schedule: cfg.Inbox.Schedule,
		Lock: LockConfig{
			RedisAddr:     cfg.Inbox.LockRedisAddr,
			RedisPassword: cfg.Inbox.LockRedisPassword,
			RedisDB:       cfg.Inbox.LockRedisDB,
		},
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Dir == "" {
		c.Dir = defaults.Dir
	}
	if c.Schedule == "" {
		c.Schedule = defaults.Schedule
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.Lock.TTL < c.JobTimeout {
		c.Lock.TTL = c.JobTimeout + time.Minute
	}
	return c
}
