package service

import (
	"path/filepath"
	"time"

	"github.com/smallbiznis/aquabill/internal/columnmap"
	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/internal/normalize"
	"github.com/smallbiznis/aquabill/internal/tabular"
)

var (
	periodColumns = columnmap.Table{{Name: "periode", Synonyms: []string{"PERIODE", "PERIOD", "BLN_REK"}}}
	dateColumns   = columnmap.Table{{Name: "date", Synonyms: []string{"TGL_BAYAR", "TANGGAL", "TGL_TAGIHAN", "DATE"}}}
)

// DetectPeriod decides the billing period of an extract when the caller gave
// none: a period column first, then a YYYYMM token in the file name, then the
// first date column, then the current month. Column and file name periods of
// roster, payment and receivable extracts are shifted one month forward.
func DetectPeriod(ft domain.FileType, fileName string, tbl *tabular.Table, now time.Time) (derive.Period, string) {
	shift := func(p derive.Period) derive.Period {
		if ft.ShiftsPeriod() {
			return p.AddMonths(1)
		}
		return p
	}

	if tbl != nil && len(tbl.Rows) > 0 {
		m := columnmap.Resolve(periodColumns, tbl.Header)
		if p, ok := derive.ParsePeriodLabel(m.Value(tbl.Rows[0], "periode")); ok {
			return shift(p), domain.PeriodSourceColumn
		}
	}

	if p, ok := derive.PeriodFromFilename(filepath.Base(fileName)); ok {
		return shift(p), domain.PeriodSourceFilename
	}

	if tbl != nil && len(tbl.Rows) > 0 {
		m := columnmap.Resolve(dateColumns, tbl.Header)
		if t, ok := normalize.ParseDate(m.Value(tbl.Rows[0], "date")); ok {
			p := derive.PeriodOf(t)
			if p.Validate() == nil {
				return p, domain.PeriodSourceDate
			}
		}
	}

	return derive.PeriodOf(now), domain.PeriodSourceClock
}
