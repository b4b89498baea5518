// Package classifier evaluates meter readings against the anomaly rule set.
package classifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/aquabill/internal/anomaly/domain"
	"github.com/smallbiznis/aquabill/internal/config"
)

// MaxPriors is how many prior periods feed the historical average.
const MaxPriors = 2

// Classify evaluates every rule against one reading and returns the fired
// tags in domain.TagOrder. It is pure: the same inputs always give the same output.
func Classify(current domain.Reading, priors []domain.Reading, meta domain.Metadata, cfg config.AnomalyConfig) []domain.Tag {
	usage := current.Usage()
	avg := HistoricalAverage(priors)

	var tags []domain.Tag
	add := func(code domain.TagCode, format string, args ...any) {
		tags = append(tags, domain.Tag{Code: code, Reason: fmt.Sprintf(format, args...)})
	}

	if usage < 0 {
		add(domain.TagStandNegatif, "current stand %s is below prior stand %s", num(current.Current), num(current.Prior))
	}

	switch {
	case usage > cfg.ExtremeThreshold:
		add(domain.TagEkstrim, "usage %s m3 exceeds the %s m3 ceiling", num(usage), num(cfg.ExtremeThreshold))
	case avg > 0 && usage > avg*cfg.ExtremeRatio:
		add(domain.TagEkstrim, "usage %s m3 is more than %sx the average of %s m3", num(usage), num(cfg.ExtremeRatio), num(avg))
	}

	if avg > 0 && usage > 0 && usage < avg*cfg.DropRatio {
		add(domain.TagPemakaianTurun, "usage %s m3 is below %s%% of the average of %s m3", num(usage), num(cfg.DropRatio*100), num(avg))
	}

	if usage == 0 && current.Prior > 0 && avg > cfg.ZeroActivityFloor {
		add(domain.TagZero, "no usage recorded while the average is %s m3", num(avg))
	}

	if code := upper(meta.SkipCode); code != "" && contains(cfg.VacantSkipCodes, code) && usage > cfg.VacantUsageThreshold {
		add(domain.TagSalahCatat, "dwelling marked vacant (%s) but usage is %s m3", code, num(usage))
	}

	if marker, field := rebillMarker(meta, cfg.RebillMarkers); marker != "" {
		add(domain.TagRebill, "%s contains %q", field, marker)
	} else if meta.BillAmount < 0 {
		add(domain.TagRebill, "negative bill amount %s", num(meta.BillAmount))
	}

	method := upper(meta.ReadMethod)
	switch {
	case method != "" && contains(cfg.EstimatedReadMethods, method):
		add(domain.TagEstimasi, "read method %s is an estimate", method)
	case method != "" && !contains(cfg.ActualReadMethods, method):
		add(domain.TagEstimasi, "read method %s is not an actual read", method)
	case strings.TrimSpace(meta.SkipCode) != "":
		add(domain.TagEstimasi, "reading skipped with code %s", upper(meta.SkipCode))
	}

	if code := upper(meta.TroubleCode); code != "" && contains(cfg.MeterFaultCodes, code) {
		add(domain.TagMeterIssue, "meter trouble code %s", code)
	}

	return tags
}

// HistoricalAverage is the mean usage of up to MaxPriors prior readings.
// Zero-usage priors count; no priors yields 0.
func HistoricalAverage(priors []domain.Reading) float64 {
	if len(priors) > MaxPriors {
		priors = priors[:MaxPriors]
	}
	if len(priors) == 0 {
		return 0
	}
	var sum float64
	for _, p := range priors {
		sum += p.Usage()
	}
	return sum / float64(len(priors))
}

func rebillMarker(meta domain.Metadata, markers []string) (string, string) {
	fields := []struct{ name, value string }{
		{"special message", meta.SpecialMessage},
		{"spm status", meta.SPMStatus},
		{"skip code", meta.SkipCode},
	}
	for _, f := range fields {
		value := upper(f.value)
		if value == "" {
			continue
		}
		for _, m := range markers {
			m = upper(m)
			if m != "" && strings.Contains(value, m) {
				return m, f.name
			}
		}
	}
	return "", ""
}

func contains(set []string, code string) bool {
	for _, v := range set {
		if upper(v) == code {
			return true
		}
	}
	return false
}

func upper(v string) string {
	return strings.ToUpper(strings.Join(strings.Fields(v), " "))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
