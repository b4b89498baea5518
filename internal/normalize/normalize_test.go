package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomerID(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"30045.0", "30045", true},
		{"30045.05", "30045.05", true},
		{"  30045  ", "30045", true},
		{" 30045.0 ", "30045", true},
		{"AB-301.0", "AB-301", true},
		{"60001234", "60001234", true},
		{"", "", false},
		{"   ", "", false},
		{"nan", "", false},
		{"NaN", "", false},
		{".0", "", false},
	}
	for _, tc := range cases {
		got, ok := CustomerID(tc.raw)
		assert.Equal(t, tc.ok, ok, "CustomerID(%q) ok", tc.raw)
		assert.Equal(t, tc.want, got, "CustomerID(%q)", tc.raw)
	}
}

func TestCustomerIDStripsOnlyOneSuffix(t *testing.T) {
	got, ok := CustomerID("100.0.0")
	assert.True(t, ok)
	assert.Equal(t, "100.0", got)
}

func TestCurrency(t *testing.T) {
	cases := map[string]float64{
		"Rp 1,250,000":  1250000,
		"Rp1,250,000":   1250000,
		"IDR 75,500.50": 75500.5,
		"$ 12.25":       12.25,
		"RP. 1,250,000": 1250000,
		"Rp. 1,250,000": 1250000,
		"rp. 5,000":     5000,
		"IDR. 1,000":    1000,
		"idr 2,500":     2500,
		" 42 ":          42,
		"-15,000":       -15000,
		"":              0,
		"abc":           0,
		"12abc":         0,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Currency(raw), "Currency(%q)", raw)
	}
}

func TestFloat(t *testing.T) {
	assert.Equal(t, 12.0, Float("12.0"))
	assert.Equal(t, 1250.5, Float("1,250.5"))
	assert.Equal(t, -3.0, Float(" -3 "))
	assert.Equal(t, 0.0, Float("nan"))
	assert.Equal(t, 0.0, Float("n/a"))
}

func TestText(t *testing.T) {
	assert.Equal(t, "JL. MERDEKA", Text("  JL. MERDEKA "))
	assert.Equal(t, "", Text("nan"))
	assert.Equal(t, "", Text("None"))
}

func TestDateFailsOpen(t *testing.T) {
	assert.Equal(t, "2025-03-14", Date("14-03-2025", "02-01-2006", DateLayout))
	assert.Equal(t, "14/03/2025", Date("14/03/2025", "02-01-2006", DateLayout))
	assert.Equal(t, "garbage", Date("garbage", "02-01-2006", DateLayout))
}

func TestDateAny(t *testing.T) {
	assert.Equal(t, "2025-03-14", DateAny("14-03-2025", DateLayout))
	assert.Equal(t, "2025-03-14", DateAny("14/03/2025", DateLayout))
	assert.Equal(t, "2025-03-14", DateAny("2025-03-14", DateLayout))
	assert.Equal(t, "2025-03-14", DateAny("2025-03-14 08:30:00", DateLayout))
	assert.Equal(t, "unknown", DateAny("unknown", DateLayout))
	assert.Equal(t, "", DateAny("", DateLayout))
}
