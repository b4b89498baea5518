package derive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseZoneWellFormed(t *testing.T) {
	z := ParseZone("350960217")
	assert.Equal(t, ZoneHierarchy{Rayon: "35", PC: "096", EZ: "02", Block: "17", PCEZ: "096/02"}, z)
	assert.True(t, z.Complete())
}

func TestParseZoneStripsSeparatorsAndFloatArtifact(t *testing.T) {
	assert.Equal(t, ParseZone("350960217"), ParseZone("35-096-02-17"))
	assert.Equal(t, ParseZone("350960217"), ParseZone("350960217.0"))
	assert.Equal(t, ParseZone("340010101"), ParseZone(" 34.001.01.01 "))
}

func TestParseZoneEmpty(t *testing.T) {
	z := ParseZone("")
	assert.Equal(t, Unknown, z.Rayon)
	assert.Equal(t, Unknown, z.PC)
	assert.Equal(t, Unknown, z.EZ)
	assert.Equal(t, Unknown, z.Block)
	assert.Equal(t, Unknown, z.PCEZ)
	assert.False(t, z.Complete())
}

func TestParseZoneMissingTrailingSegments(t *testing.T) {
	z := ParseZone("3509602")
	assert.Equal(t, "35", z.Rayon)
	assert.Equal(t, "096", z.PC)
	assert.Equal(t, "02", z.EZ)
	assert.Equal(t, Unknown, z.Block)
	assert.Equal(t, "096/02", z.PCEZ)

	z = ParseZone("3509")
	assert.Equal(t, "35", z.Rayon)
	assert.Equal(t, Unknown, z.PC)
	assert.Equal(t, Unknown, z.PCEZ)
}

func TestParseZoneMalformedNeverPanics(t *testing.T) {
	for _, raw := range []string{"x", "---", "€€€€€€€€€€", "nan", "3", "\t"} {
		assert.NotPanics(t, func() { _ = ParseZone(raw) }, raw)
	}
	assert.Equal(t, Unknown, ParseZone("€€€").Rayon)
	assert.Equal(t, Unknown, ParseZone("nan").Rayon)
}

func TestIsServedRayon(t *testing.T) {
	assert.True(t, IsServedRayon("34"))
	assert.True(t, IsServedRayon(" 35"))
	assert.False(t, IsServedRayon("36"))
	assert.False(t, IsServedRayon(Unknown))
}

func TestClassifyPayment(t *testing.T) {
	assert.Equal(t, PaymentArrears, ClassifyPayment(50000, 0))
	assert.Equal(t, PaymentCurrent, ClassifyPayment(50000, 12))
	assert.Equal(t, PaymentCurrent, ClassifyPayment(0, 0))
	assert.Equal(t, PaymentCurrent, ClassifyPayment(-100, 0))
}

func TestPeriodArithmetic(t *testing.T) {
	p := Period{Month: 12, Year: 2024}
	assert.Equal(t, Period{Month: 1, Year: 2025}, p.AddMonths(1))
	assert.Equal(t, Period{Month: 10, Year: 2024}, p.AddMonths(-2))
	assert.Equal(t, "12/2024", p.Label())
	assert.Equal(t, "202412", p.Key())
	assert.True(t, p.Before(Period{Month: 1, Year: 2025}))
	assert.Equal(t, Period{Month: 3, Year: 2025}, PeriodOf(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodValidate(t *testing.T) {
	_, err := NewPeriod(13, 2025)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
	_, err = NewPeriod(1, 1999)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
	p, err := NewPeriod(6, 2025)
	assert.NoError(t, err)
	assert.Equal(t, 6, p.Month)
}

func TestParsePeriodLabel(t *testing.T) {
	cases := map[string]Period{
		"202503":   {Month: 3, Year: 2025},
		"2025-03":  {Month: 3, Year: 2025},
		"2025/3":   {Month: 3, Year: 2025},
		"03/2025":  {Month: 3, Year: 2025},
		"3-2025":   {Month: 3, Year: 2025},
		"202503.0": {Month: 3, Year: 2025},
	}
	for raw, want := range cases {
		got, ok := ParsePeriodLabel(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"", "202513", "MAR 2025", "12345"} {
		_, ok := ParsePeriodLabel(raw)
		assert.False(t, ok, raw)
	}
}

func TestPeriodFromFilename(t *testing.T) {
	p, ok := PeriodFromFilename("MC_202503_rayon34.xlsx")
	assert.True(t, ok)
	assert.Equal(t, Period{Month: 3, Year: 2025}, p)

	_, ok = PeriodFromFilename("collection_final.csv")
	assert.False(t, ok)
}
