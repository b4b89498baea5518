package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/aquabill/internal/derive"
)

var ErrUnknownDimension = errors.New("unknown_dimension")

// Dimension is the roster column performance is grouped by.
type Dimension string

const (
	DimensionRayon  Dimension = "rayon"
	DimensionPC     Dimension = "pc"
	DimensionPCEZ   Dimension = "pcez"
	DimensionTariff Dimension = "tariff"
)

// ParseDimension defaults to rayon when raw is blank.
func ParseDimension(raw string) (Dimension, error) {
	dim := Dimension(strings.ToLower(strings.TrimSpace(raw)))
	switch dim {
	case "":
		return DimensionRayon, nil
	case DimensionRayon, DimensionPC, DimensionPCEZ, DimensionTariff:
		return dim, nil
	}
	return "", ErrUnknownDimension
}

type KPI struct {
	PeriodeBulan      int     `json:"periode_bulan"`
	PeriodeTahun      int     `json:"periode_tahun"`
	Target            float64 `json:"target"`
	CollectionCurrent float64 `json:"collection_current"`
	CollectionArrears float64 `json:"collection_arrears"`
	CollectionTotal   float64 `json:"collection_total"`
	CollectionPct     float64 `json:"collection_pct"`
	ArrearsPct        float64 `json:"arrears_pct"`
	Customers         int64   `json:"customers"`
	AveragePayment    float64 `json:"average_payment"`
	Outstanding       float64 `json:"outstanding"`
}

type UnpaidCustomer struct {
	CustomerID string  `json:"customer_id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Rayon      string  `json:"rayon"`
	Tariff     string  `json:"tariff"`
	Target     float64 `json:"target"`
}

type UnpaidRayon struct {
	Rayon  string  `json:"rayon"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

type UnpaidSummary struct {
	TotalCustomers int64         `json:"total_customers"`
	UnpaidCount    int64         `json:"unpaid_count"`
	UnpaidAmount   float64       `json:"unpaid_amount"`
	UnpaidPct      float64       `json:"unpaid_pct"`
	AverageUnpaid  float64       `json:"average_unpaid"`
	ByRayon        []UnpaidRayon `json:"by_rayon"`
}

type PerformanceRow struct {
	Key              string  `json:"key"`
	Customers        int64   `json:"customers"`
	Target           float64 `json:"target"`
	Collected        float64 `json:"collected"`
	CollectedCurrent float64 `json:"collected_current"`
	CollectedArrears float64 `json:"collected_arrears"`
	Rate             float64 `json:"rate"`
	PayingCustomers  int64   `json:"paying_customers"`
	PayingRate       float64 `json:"paying_rate"`
	Outstanding      float64 `json:"outstanding"`
}

type Performance struct {
	Dimension Dimension        `json:"dimension"`
	Rows      []PerformanceRow `json:"rows"`
	Total     PerformanceRow   `json:"total"`
}

type TrendPoint struct {
	PeriodeBulan int     `json:"periode_bulan"`
	PeriodeTahun int     `json:"periode_tahun"`
	Periode      string  `json:"periode"`
	Target       float64 `json:"target"`
	Collection   float64 `json:"collection"`
	Pct          float64 `json:"pct"`
}

type Service interface {
	KPI(ctx context.Context, period derive.Period) (KPI, error)
	Unpaid(ctx context.Context, period derive.Period, limit, offset int) ([]UnpaidCustomer, int64, error)
	UnpaidSummary(ctx context.Context, period derive.Period) (UnpaidSummary, error)
	Performance(ctx context.Context, period derive.Period, dim Dimension) (Performance, error)
	Trend(ctx context.Context) ([]TrendPoint, error)
}
