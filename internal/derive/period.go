package derive

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minPeriodYear = 2000
	maxPeriodYear = 2100
)

var ErrInvalidPeriod = errors.New("invalid_period")

// Period is a billing month (periode_bulan, periode_tahun).
type Period struct {
	Month int `json:"periode_bulan"`
	Year  int `json:"periode_tahun"`
}

func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < minPeriodYear || p.Year > maxPeriodYear {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

func (p Period) IsZero() bool { return p.Month == 0 && p.Year == 0 }

// AddMonths shifts the period, rolling over year boundaries.
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return PeriodOf(t)
}

// Label renders the period as "MM/YYYY", the default periode label on stored rows.
func (p Period) Label() string {
	return fmt.Sprintf("%02d/%04d", p.Month, p.Year)
}

// Key renders the period as "YYYYMM".
func (p Period) Key() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

func (p Period) String() string { return p.Label() }

// Before reports whether p is earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

var (
	periodCompact  = regexp.MustCompile(`^(\d{4})(\d{2})$`)
	periodDashed   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	periodMonthFwd = regexp.MustCompile(`^(\d{1,2})[-/](\d{4})$`)
	periodInName   = regexp.MustCompile(`(20\d{2})(0[1-9]|1[0-2])`)
)

// ParsePeriodLabel accepts "YYYYMM", "YYYY-MM", "YYYY/MM", "MM/YYYY" and "MM-YYYY".
func ParsePeriodLabel(raw string) (Period, bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimSuffix(v, ".0")
	for _, re := range []*regexp.Regexp{periodCompact, periodDashed} {
		if m := re.FindStringSubmatch(v); m != nil {
			return periodFromParts(m[2], m[1])
		}
	}
	if m := periodMonthFwd.FindStringSubmatch(v); m != nil {
		return periodFromParts(m[1], m[2])
	}
	return Period{}, false
}

// PeriodFromFilename finds a YYYYMM token in a file name such as "MC_202503.xlsx".
func PeriodFromFilename(name string) (Period, bool) {
	m := periodInName.FindStringSubmatch(name)
	if m == nil {
		return Period{}, false
	}
	return periodFromParts(m[2], m[1])
}

func periodFromParts(month, year string) (Period, bool) {
	mm, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, false
	}
	yy, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, false
	}
	p := Period{Month: mm, Year: yy}
	if p.Validate() != nil {
		return Period{}, false
	}
	return p, true
}
