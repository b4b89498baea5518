// Package columnmap resolves heterogeneous source headers to canonical field names.
package columnmap

import (
	"strings"
)

// Field maps one canonical name to its accepted source headers, in priority order.
type Field struct {
	Name     string
	Synonyms []string
}

// Table is the ordered synonym table for one file type.
type Table []Field

// Names lists the canonical field names in table order.
func (t Table) Names() []string {
	out := make([]string, 0, len(t))
	for _, f := range t {
		out = append(out, f.Name)
	}
	return out
}

// Mapping is the result of resolving a Table against a header row.
type Mapping struct {
	index  map[string]int
	source map[string]string
}

// Resolve matches headers against the table. Matching ignores case and
// surrounding whitespace, then retries with spaces and underscores removed.
// The first synonym present wins. Resolve never fails; unmatched fields are
// simply absent from the mapping.
func Resolve(table Table, headers []string) Mapping {
	exact := make(map[string]int, len(headers))
	compact := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, seen := exact[key]; !seen {
			exact[key] = i
		}
		ck := compactKey(key)
		if _, seen := compact[ck]; !seen {
			compact[ck] = i
		}
	}

	m := Mapping{
		index:  make(map[string]int, len(table)),
		source: make(map[string]string, len(table)),
	}
	for _, field := range table {
		for _, syn := range field.Synonyms {
			key := NormalizeHeader(syn)
			idx, ok := exact[key]
			if !ok {
				idx, ok = compact[compactKey(key)]
			}
			if ok {
				m.index[field.Name] = idx
				m.source[field.Name] = strings.TrimSpace(headers[idx])
				break
			}
		}
	}
	return m
}

// Has reports whether the canonical field was resolved.
func (m Mapping) Has(field string) bool {
	_, ok := m.index[field]
	return ok
}

// Value returns the raw cell for field, or "" when the field is absent or the row is short.
func (m Mapping) Value(row []string, field string) string {
	idx, ok := m.index[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Missing returns the fields from required that were not resolved, in the given order.
func (m Mapping) Missing(required ...string) []string {
	var out []string
	for _, f := range required {
		if !m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Sources returns canonical field → matched source header.
func (m Mapping) Sources() map[string]string {
	out := make(map[string]string, len(m.source))
	for k, v := range m.source {
		out[k] = v
	}
	return out
}

// Len is the number of resolved fields.
func (m Mapping) Len() int { return len(m.index) }

// NormalizeHeader upper-cases a header and trims whitespace and a UTF-8 BOM.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	return strings.ToUpper(strings.TrimSpace(h))
}

func compactKey(key string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(key)
}
