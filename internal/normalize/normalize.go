// Package normalize cleans raw spreadsheet cells into canonical values.
//
// Every function here is total: coercion failures resolve to a safe default
// (zero, empty string, or the unparsed input for dates) and never error.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Output layouts used by the canonical store.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// SourceDateLayouts are tried in order when a column's input format is unknown.
var SourceDateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"01-02-06",
}

// currencyTokens are matched against the upper-cased value; dotted forms come
// before their bare prefix so the dot goes with the symbol.
var currencyTokens = []string{"IDR.", "IDR", "RP.", "RP", "$", "€", "£", "¥", "₹"}

// CustomerID trims the value and strips one trailing ".0" spreadsheet artifact.
// Empty values and "nan" are rejected.
func CustomerID(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if strings.HasSuffix(v, ".0") {
		v = strings.TrimSpace(strings.TrimSuffix(v, ".0"))
	}
	if v == "" || strings.EqualFold(v, "nan") {
		return "", false
	}
	return v, true
}

// Currency strips separators, currency symbols and whitespace and parses the rest.
// Unparsable input yields 0.
func Currency(raw string) float64 {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return 0
	}
	for _, token := range currencyTokens {
		v = strings.ReplaceAll(v, token, "")
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.Join(strings.Fields(v), "")
	v = strings.ReplaceAll(v, " ", "")
	return parseDecimal(v)
}

// Float coerces numeric cells such as volumes, stands and balances. Thousands
// separators are accepted; anything unparsable yields 0.
func Float(raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" || isNullToken(v) {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.Join(strings.Fields(v), "")
	return parseDecimal(v)
}

// Text trims the value and maps spreadsheet null markers to "".
func Text(raw string) string {
	v := strings.TrimSpace(raw)
	if isNullToken(v) {
		return ""
	}
	return v
}

// Date reformats raw from inputLayout to outputLayout. On failure the raw
// value is returned unchanged, so callers must treat the result as possibly unparsed.
func Date(raw, inputLayout, outputLayout string) string {
	v := strings.TrimSpace(raw)
	t, err := time.Parse(inputLayout, v)
	if err != nil {
		return raw
	}
	return t.Format(outputLayout)
}

// DateAny tries each input layout in order (SourceDateLayouts when none are given)
// and fails open like Date.
func DateAny(raw, outputLayout string, inputLayouts ...string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return raw
	}
	if len(inputLayouts) == 0 {
		inputLayouts = SourceDateLayouts
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(outputLayout)
		}
	}
	return raw
}

// ParseDate returns the first successful parse of raw against SourceDateLayouts.
func ParseDate(raw string) (time.Time, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range SourceDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDecimal(v string) float64 {
	if v == "" {
		return 0
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func isNullToken(v string) bool {
	switch strings.ToLower(v) {
	case "nan", "none", "null", "nat", "-":
		return true
	default:
		return false
	}
}
