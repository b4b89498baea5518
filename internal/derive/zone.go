// Package derive holds the business derivations applied during ingestion:
// zone-code hierarchy, payment classification and billing periods.
package derive

import "strings"

// Unknown marks a zone segment that could not be extracted.
const Unknown = "UNKNOWN"

// Zone code layout: RR PPP EE BB (rayon, pc, ez, block), e.g. "350960217".
var zoneSegments = []struct {
	start, end int
}{
	{0, 2}, // rayon
	{2, 5}, // pc
	{5, 7}, // ez
	{7, 9}, // block
}

// ServedRayons are the regions the dashboard covers. MC rows outside them are discarded.
var ServedRayons = []string{"34", "35"}

// ZoneHierarchy is the decomposed form of a composite zone code.
type ZoneHierarchy struct {
	Rayon string `json:"rayon"`
	PC    string `json:"pc"`
	EZ    string `json:"ez"`
	Block string `json:"block"`
	PCEZ  string `json:"pcez"`
}

// Complete reports whether every segment was extracted.
func (z ZoneHierarchy) Complete() bool {
	return z.Rayon != Unknown && z.PC != Unknown && z.EZ != Unknown && z.Block != Unknown
}

// ParseZone splits a composite zone code positionally. Separators and a trailing
// ".0" spreadsheet artifact are removed first. Segments that are not fully
// present are reported as Unknown; the parser never fails.
func ParseZone(code string) ZoneHierarchy {
	clean := cleanZoneCode(code)

	parts := make([]string, len(zoneSegments))
	for i, seg := range zoneSegments {
		if len(clean) >= seg.end {
			parts[i] = clean[seg.start:seg.end]
		} else {
			parts[i] = Unknown
		}
	}

	z := ZoneHierarchy{
		Rayon: parts[0],
		PC:    parts[1],
		EZ:    parts[2],
		Block: parts[3],
		PCEZ:  Unknown,
	}
	if z.PC != Unknown && z.EZ != Unknown {
		z.PCEZ = z.PC + "/" + z.EZ
	}
	return z
}

// IsServedRayon reports whether rayon is one of ServedRayons.
func IsServedRayon(rayon string) bool {
	rayon = strings.TrimSpace(rayon)
	for _, r := range ServedRayons {
		if r == rayon {
			return true
		}
	}
	return false
}

func cleanZoneCode(code string) string {
	v := strings.TrimSpace(code)
	v = strings.TrimSuffix(v, ".0")
	if strings.EqualFold(v, "nan") {
		return ""
	}
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch r {
		case '-', '.', '/', ' ', '_', '\t':
			continue
		}
		// keep the positional layout byte-aligned
		if r > 127 {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
