// Package domain holds anomaly findings and the classifier's input shapes.
package domain

import (
	"strings"

	"github.com/smallbiznis/aquabill/internal/derive"
)

// TagCode names one anomaly rule.
type TagCode string

const (
	TagStandNegatif   TagCode = "STAND NEGATIF"
	TagEkstrim        TagCode = "EKSTRIM"
	TagPemakaianTurun TagCode = "PEMAKAIAN TURUN"
	TagZero           TagCode = "ZERO"
	TagSalahCatat     TagCode = "SALAH CATAT"
	TagRebill         TagCode = "INDIKASI REBILL"
	TagEstimasi       TagCode = "ESTIMASI"
	TagMeterIssue     TagCode = "METER ISSUE"
)

// TagOrder is the fixed emission order of tags.
var TagOrder = []TagCode{
	TagStandNegatif,
	TagEkstrim,
	TagPemakaianTurun,
	TagZero,
	TagSalahCatat,
	TagRebill,
	TagEstimasi,
	TagMeterIssue,
}

// ParseTagCode matches a tag case-insensitively; "REBILL" is accepted for INDIKASI REBILL.
func ParseTagCode(raw string) (TagCode, bool) {
	key := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	if key == "REBILL" {
		return TagRebill, true
	}
	for _, code := range TagOrder {
		if string(code) == key {
			return code, true
		}
	}
	return "", false
}

// Tag is one fired rule with its human-readable reason.
type Tag struct {
	Code   TagCode `json:"code"`
	Reason string  `json:"reason"`
}

// Reading is one period's meter stands.
type Reading struct {
	Period  derive.Period `json:"period"`
	Prior   float64       `json:"prior_reading"`
	Current float64       `json:"current_reading"`
	// Volume is the reported usage, used when no stands were recorded.
	Volume float64 `json:"volume"`
}

// Usage is current minus prior stand, or the reported volume when both stands are zero.
func (r Reading) Usage() float64 {
	if r.Prior != 0 || r.Current != 0 {
		return r.Current - r.Prior
	}
	return r.Volume
}

// Metadata carries the field codes recorded with a reading.
type Metadata struct {
	SkipCode       string  `json:"skip_code"`
	TroubleCode    string  `json:"trouble_code"`
	ReadMethod     string  `json:"read_method"`
	SpecialMessage string  `json:"special_message"`
	SPMStatus      string  `json:"spm_status"`
	BillAmount     float64 `json:"bill_amount"`
}

// Finding is the classification of one customer's current reading.
type Finding struct {
	CustomerID        string        `json:"customer_id"`
	Name              string        `json:"name"`
	Address           string        `json:"address"`
	Rayon             string        `json:"rayon"`
	Period            derive.Period `json:"period"`
	PriorReading      float64       `json:"prior_reading"`
	CurrentReading    float64       `json:"current_reading"`
	Usage             float64       `json:"usage"`
	HistoricalAverage float64       `json:"historical_average"`
	PriorUsages       []float64     `json:"prior_usages"`
	Metadata          Metadata      `json:"metadata"`
	Tags              []Tag         `json:"tags"`
}

// Anomalous reports whether at least one tag fired.
func (f Finding) Anomalous() bool { return len(f.Tags) > 0 }

func (f Finding) HasTag(code TagCode) bool {
	for _, t := range f.Tags {
		if t.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the fired tag codes in emission order.
func (f Finding) Codes() []TagCode {
	out := make([]TagCode, 0, len(f.Tags))
	for _, t := range f.Tags {
		out = append(out, t.Code)
	}
	return out
}
