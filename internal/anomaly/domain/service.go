package domain

import (
	"context"
	"errors"
	"io"

	"github.com/smallbiznis/aquabill/internal/derive"
)

var (
	ErrUnknownTag       = errors.New("unknown_tag")
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrInvalidCustomer  = errors.New("invalid_customer")
)

type Query struct {
	Period derive.Period
	// Tag restricts results to findings carrying this tag.
	Tag    TagCode
	Rayon  string
	Limit  int
	Offset int
}

type TagCount struct {
	Code  TagCode `json:"code"`
	Count int     `json:"count"`
}

type Summary struct {
	PeriodeBulan int        `json:"periode_bulan"`
	PeriodeTahun int        `json:"periode_tahun"`
	Readings     int        `json:"readings"`
	Anomalous    int        `json:"anomalous"`
	Tags         []TagCount `json:"tags"`
}

type Page struct {
	Total    int       `json:"total"`
	Findings []Finding `json:"findings"`
}

type HistoryEntry struct {
	Period         derive.Period `json:"period"`
	PriorReading   float64       `json:"prior_reading"`
	CurrentReading float64       `json:"current_reading"`
	Usage          float64       `json:"usage"`
	ReadMethod     string        `json:"read_method"`
	BillAmount     float64       `json:"bill_amount"`
	Tags           []TagCode     `json:"tags"`
}

type HistoryStats struct {
	Periods      int     `json:"periods"`
	AverageUsage float64 `json:"average_usage"`
	MaxUsage     float64 `json:"max_usage"`
	MinUsage     float64 `json:"min_usage"`
}

type History struct {
	CustomerID   string         `json:"customer_id"`
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	Rayon        string         `json:"rayon"`
	Entries      []HistoryEntry `json:"entries"`
	Stats        HistoryStats   `json:"stats"`
	AnomalyTypes []TagCode      `json:"anomaly_types"`
}

type Service interface {
	GetAnomalies(ctx context.Context, q Query) (Page, error)
	Summary(ctx context.Context, period derive.Period) (Summary, error)
	CustomerHistory(ctx context.Context, customerID string, limit int) (History, error)
	Export(ctx context.Context, q Query, w io.Writer) error
}
