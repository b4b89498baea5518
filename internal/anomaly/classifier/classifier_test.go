package classifier

import (
	"testing"

	"github.com/smallbiznis/aquabill/internal/anomaly/domain"
	"github.com/smallbiznis/aquabill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// priorsWithAverage builds two priors whose usages average to avg.
func priorsWithAverage(avg float64) []domain.Reading {
	return []domain.Reading{
		{Prior: 0, Current: avg},
		{Prior: 1000, Current: 1000 + avg},
	}
}

func codes(tags []domain.Tag) []domain.TagCode {
	out := make([]domain.TagCode, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Code)
	}
	return out
}

func TestClassifyExtreme(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	tags := Classify(domain.Reading{Prior: 100, Current: 300}, priorsWithAverage(120), domain.Metadata{ReadMethod: "ACTUAL"}, cfg)
	assert.Contains(t, codes(tags), domain.TagEkstrim)
}

func TestClassifyExtremeByRatioBelowCeiling(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	tags := Classify(domain.Reading{Prior: 10, Current: 110}, priorsWithAverage(20), domain.Metadata{}, cfg)
	require.Len(t, tags, 1)
	assert.Equal(t, domain.TagEkstrim, tags[0].Code)
	assert.Contains(t, tags[0].Reason, "average")
}

func TestClassifyZero(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	tags := Classify(domain.Reading{Prior: 50, Current: 50}, priorsWithAverage(40), domain.Metadata{}, cfg)
	assert.Equal(t, []domain.TagCode{domain.TagZero}, codes(tags))
}

func TestClassifyZeroNeedsActivity(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	assert.Empty(t, Classify(domain.Reading{Prior: 50, Current: 50}, priorsWithAverage(3), domain.Metadata{}, cfg))
	assert.Empty(t, Classify(domain.Reading{Prior: 0, Current: 0}, priorsWithAverage(40), domain.Metadata{}, cfg))
}

func TestClassifyIsPure(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	current := domain.Reading{Prior: 500, Current: 420}
	priors := priorsWithAverage(30)
	meta := domain.Metadata{ReadMethod: "ES", SpecialMessage: "koreksi rebill", TroubleCode: "mati"}

	first := Classify(current, priors, meta, cfg)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(current, priors, meta, cfg))
	}
}

func TestClassifyMultipleTagsInFixedOrder(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	tags := Classify(
		domain.Reading{Prior: 500, Current: 420},
		priorsWithAverage(30),
		domain.Metadata{ReadMethod: "es", SpecialMessage: "Koreksi tagihan", TroubleCode: "MATI"},
		cfg,
	)
	assert.Equal(t, []domain.TagCode{
		domain.TagStandNegatif,
		domain.TagRebill,
		domain.TagEstimasi,
		domain.TagMeterIssue,
	}, codes(tags))
}

func TestClassifyUsageDrop(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	tags := Classify(domain.Reading{Prior: 100, Current: 110}, priorsWithAverage(40), domain.Metadata{}, cfg)
	assert.Equal(t, []domain.TagCode{domain.TagPemakaianTurun}, codes(tags))

	tags = Classify(domain.Reading{Prior: 100, Current: 125}, priorsWithAverage(40), domain.Metadata{}, cfg)
	assert.Empty(t, tags)
}

func TestClassifyVacantButConsuming(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	tags := Classify(domain.Reading{Prior: 100, Current: 130}, priorsWithAverage(30), domain.Metadata{SkipCode: "rk"}, cfg)
	assert.Equal(t, []domain.TagCode{domain.TagSalahCatat, domain.TagEstimasi}, codes(tags))
}

func TestClassifyNegativeBillAmountIsRebill(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	tags := Classify(domain.Reading{Prior: 100, Current: 120}, priorsWithAverage(20), domain.Metadata{BillAmount: -5000}, cfg)
	assert.Equal(t, []domain.TagCode{domain.TagRebill}, codes(tags))
}

func TestClassifyReadMethods(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	base := domain.Reading{Prior: 100, Current: 120}
	priors := priorsWithAverage(20)

	assert.Empty(t, Classify(base, priors, domain.Metadata{ReadMethod: "actual"}, cfg))
	assert.Empty(t, Classify(base, priors, domain.Metadata{ReadMethod: ""}, cfg))
	assert.Equal(t, []domain.TagCode{domain.TagEstimasi}, codes(Classify(base, priors, domain.Metadata{ReadMethod: "PHOTO?"}, cfg)))
}

func TestClassifyWithoutHistoryUsesAbsoluteRulesOnly(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	assert.Empty(t, Classify(domain.Reading{Prior: 0, Current: 5}, nil, domain.Metadata{}, cfg))
	assert.Equal(t, []domain.TagCode{domain.TagEkstrim},
		codes(Classify(domain.Reading{Prior: 0, Current: 151}, nil, domain.Metadata{}, cfg)))
}

func TestClassifyUsesThresholdConfig(t *testing.T) {
	cfg := config.DefaultAnomalyConfig()
	cfg.ExtremeThreshold = 100
	cfg.ExtremeRatio = 10
	tags := Classify(domain.Reading{Prior: 0, Current: 120}, priorsWithAverage(100), domain.Metadata{}, cfg)
	assert.Equal(t, []domain.TagCode{domain.TagEkstrim}, codes(tags))
}

func TestHistoricalAverage(t *testing.T) {
	assert.Zero(t, HistoricalAverage(nil))
	assert.Equal(t, 20.0, HistoricalAverage([]domain.Reading{{Current: 40}, {Current: 0, Prior: 0}}))
	assert.Equal(t, 10.0, HistoricalAverage([]domain.Reading{{Volume: 10}, {Volume: 10}, {Volume: 1000}}))
}
