package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/aquabill/internal/anomaly/classifier"
	"github.com/smallbiznis/aquabill/internal/anomaly/domain"
	"github.com/smallbiznis/aquabill/internal/config"
	"github.com/smallbiznis/aquabill/internal/derive"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/internal/normalize"
	obsmetrics "github.com/smallbiznis/aquabill/internal/observability/metrics"
	"github.com/smallbiznis/aquabill/pkg/db/option"
	"github.com/smallbiznis/aquabill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	classifyWorkers   = 8
	classifyChunkSize = 256
	defaultHistoryLen = 12
	maxHistoryLen     = 60
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Config     *config.AnomalyConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        *config.AnomalyConfigHolder
	readings   repository.Repository[ingestdomain.MeterReadingRecord]
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("anomaly.service"),
		cfg:        p.Config,
		readings:   repository.ProvideStore[ingestdomain.MeterReadingRecord](p.DB),
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) GetAnomalies(ctx context.Context, q domain.Query) (domain.Page, error) {
	if err := q.Period.Validate(); err != nil {
		return domain.Page{}, err
	}

	findings, err := s.classifyPeriod(ctx, q.Period)
	if err != nil {
		return domain.Page{}, err
	}

	rayon := strings.TrimSpace(q.Rayon)
	matched := make([]domain.Finding, 0, len(findings))
	for _, f := range findings {
		if !f.Anomalous() {
			continue
		}
		if q.Tag != "" && !f.HasTag(q.Tag) {
			continue
		}
		if rayon != "" && f.Rayon != rayon {
			continue
		}
		matched = append(matched, f)
	}

	page := domain.Page{Total: len(matched)}
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	page.Findings = matched[start:end]
	return page, nil
}

func (s *Service) Summary(ctx context.Context, period derive.Period) (domain.Summary, error) {
	if err := period.Validate(); err != nil {
		return domain.Summary{}, err
	}

	findings, err := s.classifyPeriod(ctx, period)
	if err != nil {
		return domain.Summary{}, err
	}

	counts := make(map[domain.TagCode]int, len(domain.TagOrder))
	anomalous := 0
	for _, f := range findings {
		if f.Anomalous() {
			anomalous++
		}
		for _, t := range f.Tags {
			counts[t.Code]++
		}
	}

	summary := domain.Summary{
		PeriodeBulan: period.Month,
		PeriodeTahun: period.Year,
		Readings:     len(findings),
		Anomalous:    anomalous,
		Tags:         make([]domain.TagCount, 0, len(domain.TagOrder)),
	}
	for _, code := range domain.TagOrder {
		summary.Tags = append(summary.Tags, domain.TagCount{Code: code, Count: counts[code]})
	}
	return summary, nil
}

func (s *Service) CustomerHistory(ctx context.Context, customerID string, limit int) (domain.History, error) {
	id, ok := normalize.CustomerID(customerID)
	if !ok {
		return domain.History{}, domain.ErrInvalidCustomer
	}
	if limit <= 0 {
		limit = defaultHistoryLen
	}
	if limit > maxHistoryLen {
		limit = maxHistoryLen
	}

	// fetch classifier.MaxPriors extra rows so the oldest shown period still has history
	rows, err := s.readings.Find(ctx, &ingestdomain.MeterReadingRecord{CustomerID: id},
		option.WithOrder("periode_tahun DESC, periode_bulan DESC"),
		option.WithLimit(limit+classifier.MaxPriors),
	)
	if err != nil {
		return domain.History{}, err
	}
	if len(rows) == 0 {
		return domain.History{}, domain.ErrCustomerNotFound
	}

	cfg := s.cfg.Get()
	history := domain.History{
		CustomerID: id,
		Name:       rows[0].Name,
		Address:    rows[0].Address,
		Rayon:      rows[0].Rayon,
	}

	seen := make(map[domain.TagCode]bool)
	shown := rows
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for i, row := range shown {
		current := toReading(row)
		older := make([]domain.Reading, 0, classifier.MaxPriors)
		for _, r := range rows[i+1:] {
			older = append(older, toReading(r))
		}
		tags := classifier.Classify(current, priorWindow(current.Period, older), toMetadata(row), cfg)
		codes := make([]domain.TagCode, 0, len(tags))
		for _, t := range tags {
			codes = append(codes, t.Code)
			seen[t.Code] = true
		}
		history.Entries = append(history.Entries, domain.HistoryEntry{
			Period:         current.Period,
			PriorReading:   row.PriorReading,
			CurrentReading: row.CurrentReading,
			Usage:          current.Usage(),
			ReadMethod:     row.ReadMethod,
			BillAmount:     row.BillAmount,
			Tags:           codes,
		})
	}

	history.Stats = historyStats(history.Entries)
	for _, code := range domain.TagOrder {
		if seen[code] {
			history.AnomalyTypes = append(history.AnomalyTypes, code)
		}
	}
	return history, nil
}

// priorWindow keeps the readings of the two calendar months before period,
// most recent first. A missing month leaves a gap rather than pulling in an older one.
func priorWindow(period derive.Period, candidates []domain.Reading) []domain.Reading {
	window := make([]domain.Reading, 0, classifier.MaxPriors)
	for n := 1; n <= classifier.MaxPriors; n++ {
		want := period.AddMonths(-n)
		for _, r := range candidates {
			if r.Period == want {
				window = append(window, r)
				break
			}
		}
	}
	return window
}

// classifyPeriod evaluates every reading of period against the two preceding periods.
func (s *Service) classifyPeriod(ctx context.Context, period derive.Period) ([]domain.Finding, error) {
	current, err := s.readings.Find(ctx, nil,
		option.WithCondition("periode_bulan = ? AND periode_tahun = ?", period.Month, period.Year),
		option.WithOrder("customer_id ASC"),
	)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, nil
	}

	prev1, prev2 := period.AddMonths(-1), period.AddMonths(-2)
	older, err := s.readings.Find(ctx, nil,
		option.WithCondition("(periode_bulan = ? AND periode_tahun = ?) OR (periode_bulan = ? AND periode_tahun = ?)",
			prev1.Month, prev1.Year, prev2.Month, prev2.Year),
	)
	if err != nil {
		return nil, err
	}

	priors := make(map[string][]domain.Reading, len(older))
	for _, row := range older {
		priors[row.CustomerID] = append(priors[row.CustomerID], toReading(row))
	}
	for id, list := range priors {
		priors[id] = priorWindow(period, list)
	}

	cfg := s.cfg.Get()
	findings := make([]domain.Finding, len(current))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyWorkers)
	for start := 0; start < len(current); start += classifyChunkSize {
		end := start + classifyChunkSize
		if end > len(current) {
			end = len(current)
		}
		start := start
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				findings[i] = buildFinding(current[i], priors[current[i].CustomerID], cfg)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, f := range findings {
		for _, t := range f.Tags {
			counts[string(t.Code)]++
		}
	}
	s.obsMetrics.RecordAnomalyTags(ctx, counts)
	s.log.Debug("classified readings",
		zap.String("period", period.Label()),
		zap.Int("readings", len(findings)),
	)
	return findings, nil
}

func buildFinding(row *ingestdomain.MeterReadingRecord, priors []domain.Reading, cfg config.AnomalyConfig) domain.Finding {
	current := toReading(row)
	meta := toMetadata(row)

	priorUsages := make([]float64, 0, len(priors))
	for _, p := range priors {
		priorUsages = append(priorUsages, p.Usage())
	}

	return domain.Finding{
		CustomerID:        row.CustomerID,
		Name:              row.Name,
		Address:           row.Address,
		Rayon:             row.Rayon,
		Period:            current.Period,
		PriorReading:      row.PriorReading,
		CurrentReading:    row.CurrentReading,
		Usage:             current.Usage(),
		HistoricalAverage: classifier.HistoricalAverage(priors),
		PriorUsages:       priorUsages,
		Metadata:          meta,
		Tags:              classifier.Classify(current, priors, meta, cfg),
	}
}

func toReading(row *ingestdomain.MeterReadingRecord) domain.Reading {
	return domain.Reading{
		Period:  derive.Period{Month: row.PeriodeBulan, Year: row.PeriodeTahun},
		Prior:   row.PriorReading,
		Current: row.CurrentReading,
		Volume:  row.Volume,
	}
}

func toMetadata(row *ingestdomain.MeterReadingRecord) domain.Metadata {
	return domain.Metadata{
		SkipCode:       row.SkipStatus,
		TroubleCode:    row.TroubleStatus,
		ReadMethod:     row.ReadMethod,
		SpecialMessage: row.SpecialMessage,
		SPMStatus:      row.SPMStatus,
		BillAmount:     row.BillAmount,
	}
}

func historyStats(entries []domain.HistoryEntry) domain.HistoryStats {
	stats := domain.HistoryStats{Periods: len(entries)}
	if len(entries) == 0 {
		return stats
	}
	var sum float64
	stats.MaxUsage = entries[0].Usage
	stats.MinUsage = entries[0].Usage
	for _, e := range entries {
		sum += e.Usage
		if e.Usage > stats.MaxUsage {
			stats.MaxUsage = e.Usage
		}
		if e.Usage < stats.MinUsage {
			stats.MinUsage = e.Usage
		}
	}
	stats.AverageUsage = sum / float64(len(entries))
	return stats
}
