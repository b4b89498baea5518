package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultUnpaidLimit = 100
	maxUnpaidLimit     = 1000
	unknownGroup       = "UNKNOWN"
)

// dimensionColumns whitelists the roster columns a performance report may group by.
var dimensionColumns = map[domain.Dimension]string{
	domain.DimensionRayon:  "r.rayon",
	domain.DimensionPC:     "r.pc",
	domain.DimensionPCEZ:   "r.pcez",
	domain.DimensionTariff: "r.tariff",
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("report.service"),
	}
}

func (s *Service) KPI(ctx context.Context, period derive.Period) (domain.KPI, error) {
	if err := period.Validate(); err != nil {
		return domain.KPI{}, err
	}

	var roster struct {
		Target    float64 `gorm:"column:target"`
		Customers int64   `gorm:"column:customers"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(target_amount), 0) AS target, COUNT(DISTINCT customer_id) AS customers
		FROM billing_roster
		WHERE periode_bulan = ? AND periode_tahun = ?`,
		period.Month, period.Year,
	).Scan(&roster).Error; err != nil {
		return domain.KPI{}, err
	}

	var collection struct {
		Current float64 `gorm:"column:current_amount"`
		Arrears float64 `gorm:"column:arrears_amount"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN payment_type = ? THEN amount ELSE 0 END), 0) AS current_amount,
			COALESCE(SUM(CASE WHEN payment_type = ? THEN amount ELSE 0 END), 0) AS arrears_amount
		FROM collections
		WHERE periode_bulan = ? AND periode_tahun = ?`,
		string(derive.PaymentCurrent), string(derive.PaymentArrears), period.Month, period.Year,
	).Scan(&collection).Error; err != nil {
		return domain.KPI{}, err
	}

	var outstanding struct {
		Total float64 `gorm:"column:total"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(outstanding_balance), 0) AS total
		FROM receivables
		WHERE periode_bulan = ? AND periode_tahun = ?`,
		period.Month, period.Year,
	).Scan(&outstanding).Error; err != nil {
		return domain.KPI{}, err
	}

	total := collection.Current + collection.Arrears
	return domain.KPI{
		PeriodeBulan:      period.Month,
		PeriodeTahun:      period.Year,
		Target:            roster.Target,
		CollectionCurrent: collection.Current,
		CollectionArrears: collection.Arrears,
		CollectionTotal:   total,
		CollectionPct:     percent(collection.Current, roster.Target),
		ArrearsPct:        percent(collection.Arrears, total),
		Customers:         roster.Customers,
		AveragePayment:    round2(ratio(total, float64(roster.Customers))),
		Outstanding:       outstanding.Total,
	}, nil
}

// unpaidFilter selects roster rows of a period with no collection in the same period.
const unpaidFilter = `
	FROM billing_roster r
	WHERE r.periode_bulan = ? AND r.periode_tahun = ?
	AND NOT EXISTS (
		SELECT 1 FROM collections c
		WHERE c.customer_id = r.customer_id
		AND c.periode_bulan = r.periode_bulan
		AND c.periode_tahun = r.periode_tahun
	)`

func (s *Service) Unpaid(ctx context.Context, period derive.Period, limit, offset int) ([]domain.UnpaidCustomer, int64, error) {
	if err := period.Validate(); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = defaultUnpaidLimit
	}
	if limit > maxUnpaidLimit {
		limit = maxUnpaidLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*)`+unpaidFilter,
		period.Month, period.Year,
	).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.UnpaidCustomer
	if err := s.db.WithContext(ctx).Raw(`
		SELECT r.customer_id, r.name, r.address, r.rayon, r.tariff, r.target_amount AS target`+unpaidFilter+`
		ORDER BY r.rayon, r.customer_id
		LIMIT ? OFFSET ?`,
		period.Month, period.Year, limit, offset,
	).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) UnpaidSummary(ctx context.Context, period derive.Period) (domain.UnpaidSummary, error) {
	if err := period.Validate(); err != nil {
		return domain.UnpaidSummary{}, err
	}

	var totalCustomers int64
	if err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM billing_roster
		WHERE periode_bulan = ? AND periode_tahun = ?`,
		period.Month, period.Year,
	).Scan(&totalCustomers).Error; err != nil {
		return domain.UnpaidSummary{}, err
	}

	var byRayon []domain.UnpaidRayon
	if err := s.db.WithContext(ctx).Raw(`
		SELECT r.rayon AS rayon, COUNT(*) AS count, COALESCE(SUM(r.target_amount), 0) AS amount`+unpaidFilter+`
		GROUP BY r.rayon
		ORDER BY count DESC, r.rayon`,
		period.Month, period.Year,
	).Scan(&byRayon).Error; err != nil {
		return domain.UnpaidSummary{}, err
	}

	summary := domain.UnpaidSummary{
		TotalCustomers: totalCustomers,
		ByRayon:        byRayon,
	}
	for _, r := range byRayon {
		summary.UnpaidCount += r.Count
		summary.UnpaidAmount += r.Amount
	}
	summary.UnpaidPct = percent(float64(summary.UnpaidCount), float64(totalCustomers))
	summary.AverageUnpaid = round2(ratio(summary.UnpaidAmount, float64(summary.UnpaidCount)))
	return summary, nil
}

type performanceRow struct {
	GroupKey         string  `gorm:"column:group_key"`
	Customers        int64   `gorm:"column:customers"`
	Target           float64 `gorm:"column:target"`
	Collected        float64 `gorm:"column:collected"`
	CollectedCurrent float64 `gorm:"column:collected_current"`
	CollectedArrears float64 `gorm:"column:collected_arrears"`
	PayingCustomers  int64   `gorm:"column:paying_customers"`
	Outstanding      float64 `gorm:"column:outstanding"`
}

func (s *Service) Performance(ctx context.Context, period derive.Period, dim domain.Dimension) (domain.Performance, error) {
	if err := period.Validate(); err != nil {
		return domain.Performance{}, err
	}
	column, ok := dimensionColumns[dim]
	if !ok {
		return domain.Performance{}, domain.ErrUnknownDimension
	}

	query := fmt.Sprintf(`
		SELECT
			COALESCE(NULLIF(%[1]s, ''), '%[2]s') AS group_key,
			COUNT(DISTINCT r.customer_id) AS customers,
			COALESCE(SUM(r.target_amount), 0) AS target,
			COALESCE(SUM(c.total_amount), 0) AS collected,
			COALESCE(SUM(c.current_amount), 0) AS collected_current,
			COALESCE(SUM(c.arrears_amount), 0) AS collected_arrears,
			COUNT(DISTINCT CASE WHEN c.customer_id IS NOT NULL THEN r.customer_id END) AS paying_customers,
			COALESCE(SUM(o.balance), 0) AS outstanding
		FROM billing_roster r
		LEFT JOIN (
			SELECT customer_id,
				SUM(amount) AS total_amount,
				SUM(CASE WHEN payment_type = ? THEN amount ELSE 0 END) AS current_amount,
				SUM(CASE WHEN payment_type = ? THEN amount ELSE 0 END) AS arrears_amount
			FROM collections
			WHERE periode_bulan = ? AND periode_tahun = ?
			GROUP BY customer_id
		) c ON c.customer_id = r.customer_id
		LEFT JOIN (
			SELECT customer_id, SUM(outstanding_balance) AS balance
			FROM receivables
			WHERE periode_bulan = ? AND periode_tahun = ?
			GROUP BY customer_id
		) o ON o.customer_id = r.customer_id
		WHERE r.periode_bulan = ? AND r.periode_tahun = ?
		GROUP BY COALESCE(NULLIF(%[1]s, ''), '%[2]s')
		ORDER BY group_key`, column, unknownGroup)

	var rows []performanceRow
	if err := s.db.WithContext(ctx).Raw(query,
		string(derive.PaymentCurrent), string(derive.PaymentArrears),
		period.Month, period.Year,
		period.Month, period.Year,
		period.Month, period.Year,
	).Scan(&rows).Error; err != nil {
		return domain.Performance{}, err
	}

	result := domain.Performance{
		Dimension: dim,
		Rows:      make([]domain.PerformanceRow, 0, len(rows)),
		Total:     domain.PerformanceRow{Key: "TOTAL"},
	}
	for _, row := range rows {
		out := domain.PerformanceRow{
			Key:              row.GroupKey,
			Customers:        row.Customers,
			Target:           row.Target,
			Collected:        row.Collected,
			CollectedCurrent: row.CollectedCurrent,
			CollectedArrears: row.CollectedArrears,
			PayingCustomers:  row.PayingCustomers,
			Outstanding:      row.Outstanding,
		}
		finishRates(&out)
		result.Rows = append(result.Rows, out)

		result.Total.Customers += out.Customers
		result.Total.Target += out.Target
		result.Total.Collected += out.Collected
		result.Total.CollectedCurrent += out.CollectedCurrent
		result.Total.CollectedArrears += out.CollectedArrears
		result.Total.PayingCustomers += out.PayingCustomers
		result.Total.Outstanding += out.Outstanding
	}
	finishRates(&result.Total)
	return result, nil
}

type periodAmount struct {
	PeriodeBulan int     `gorm:"column:periode_bulan"`
	PeriodeTahun int     `gorm:"column:periode_tahun"`
	Amount       float64 `gorm:"column:amount"`
}

// Trend lists target against current collection for every period present in either table.
func (s *Service) Trend(ctx context.Context) ([]domain.TrendPoint, error) {
	var targets []periodAmount
	if err := s.db.WithContext(ctx).Raw(`
		SELECT periode_bulan, periode_tahun, COALESCE(SUM(target_amount), 0) AS amount
		FROM billing_roster
		GROUP BY periode_bulan, periode_tahun`,
	).Scan(&targets).Error; err != nil {
		return nil, err
	}

	var collected []periodAmount
	if err := s.db.WithContext(ctx).Raw(`
		SELECT periode_bulan, periode_tahun, COALESCE(SUM(amount), 0) AS amount
		FROM collections
		WHERE payment_type = ?
		GROUP BY periode_bulan, periode_tahun`,
		string(derive.PaymentCurrent),
	).Scan(&collected).Error; err != nil {
		return nil, err
	}

	points := make(map[derive.Period]*domain.TrendPoint)
	point := func(month, year int) *domain.TrendPoint {
		p := derive.Period{Month: month, Year: year}
		if tp, ok := points[p]; ok {
			return tp
		}
		tp := &domain.TrendPoint{PeriodeBulan: month, PeriodeTahun: year, Periode: p.Label()}
		points[p] = tp
		return tp
	}
	for _, t := range targets {
		point(t.PeriodeBulan, t.PeriodeTahun).Target = t.Amount
	}
	for _, c := range collected {
		point(c.PeriodeBulan, c.PeriodeTahun).Collection = c.Amount
	}

	keys := make([]derive.Period, 0, len(points))
	for p := range points {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	trend := make([]domain.TrendPoint, 0, len(keys))
	for _, p := range keys {
		tp := points[p]
		tp.Pct = percent(tp.Collection, tp.Target)
		trend = append(trend, *tp)
	}
	return trend, nil
}

func finishRates(row *domain.PerformanceRow) {
	row.Rate = percent(row.Collected, row.Target)
	row.PayingRate = percent(float64(row.PayingCustomers), float64(row.Customers))
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

func percent(part, whole float64) float64 {
	return round2(ratio(part, whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
