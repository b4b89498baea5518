package clock

import (
	"time"

	"github.com/smallbiznis/aquabill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Clock reports the current time in the zone billing periods are counted in.
type Clock interface {
	Now() time.Time
}

// wib is used when the zone database is unavailable in the container.
var wib = time.FixedZone("WIB", 7*60*60)

// SystemClock reads the wall clock. A zero value reports UTC.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Loc)
}

// Location resolves name, falling back to WIB for the default zone and UTC otherwise.
func Location(name string) (*time.Location, bool) {
	if name == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, true
	}
	if name == "Asia/Jakarta" {
		return wib, true
	}
	return time.UTC, false
}

func New(cfg config.Config, log *zap.Logger) Clock {
	loc, ok := Location(cfg.Timezone)
	if !ok {
		log.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone))
	}
	return SystemClock{Loc: loc}
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
