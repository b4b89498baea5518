// Package domain contains the canonical ingestion records and their contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingRosterRecord is one customer row of the MC extract.
type BillingRosterRecord struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID   string       `gorm:"size:64;not null;uniqueIndex:ux_billing_roster_customer_period,priority:1" json:"customer_id"`
	Name         string       `gorm:"type:text" json:"name"`
	Address      string       `gorm:"type:text" json:"address"`
	ZoneCode     string       `gorm:"size:32" json:"zone_code"`
	Rayon        string       `gorm:"size:16;index" json:"rayon"`
	PC           string       `gorm:"column:pc;size:16" json:"pc"`
	EZ           string       `gorm:"column:ez;size:16" json:"ez"`
	Block        string       `gorm:"size:16" json:"block"`
	PCEZ         string       `gorm:"column:pcez;size:32" json:"pcez"`
	Tariff       string       `gorm:"size:32" json:"tariff"`
	TargetAmount float64      `gorm:"not null;default:0" json:"target_amount"`
	Volume       float64      `gorm:"not null;default:0" json:"volume"`
	PeriodeBulan int          `gorm:"not null;uniqueIndex:ux_billing_roster_customer_period,priority:2" json:"periode_bulan"`
	PeriodeTahun int          `gorm:"not null;uniqueIndex:ux_billing_roster_customer_period,priority:3" json:"periode_tahun"`
	RunID        snowflake.ID `gorm:"not null;index" json:"run_id"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

func (BillingRosterRecord) TableName() string { return "billing_roster" }

// CollectionRecord is one payment event from the collection extract.
type CollectionRecord struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID   string       `gorm:"size:64;not null;uniqueIndex:ux_collections_natural,priority:1" json:"customer_id"`
	PaymentDate  string       `gorm:"size:32;not null;uniqueIndex:ux_collections_natural,priority:2" json:"payment_date"`
	Amount       float64      `gorm:"not null;default:0;uniqueIndex:ux_collections_natural,priority:3" json:"amount"`
	WaterVolume  float64      `gorm:"not null;default:0" json:"water_volume"`
	PaymentType  string       `gorm:"size:16;not null;index" json:"payment_type"`
	BillPeriod   string       `gorm:"size:32;not null;default:'';uniqueIndex:ux_collections_natural,priority:4" json:"bill_period"`
	Source       string       `gorm:"size:32;not null" json:"source"`
	PeriodeBulan int          `gorm:"not null;index:idx_collections_period,priority:1" json:"periode_bulan"`
	PeriodeTahun int          `gorm:"not null;index:idx_collections_period,priority:2" json:"periode_tahun"`
	RunID        snowflake.ID `gorm:"not null;index" json:"run_id"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

func (CollectionRecord) TableName() string { return "collections" }

// PaymentRecord is one row of the MB payment ledger.
type PaymentRecord struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID   string       `gorm:"size:64;not null;uniqueIndex:ux_payments_natural,priority:1" json:"customer_id"`
	PaymentDate  string       `gorm:"size:32;not null;uniqueIndex:ux_payments_natural,priority:2" json:"payment_date"`
	Amount       float64      `gorm:"not null;default:0;uniqueIndex:ux_payments_natural,priority:3" json:"amount"`
	Periode      string       `gorm:"size:32;not null;uniqueIndex:ux_payments_natural,priority:4" json:"periode"`
	Source       string       `gorm:"size:32;not null" json:"source"`
	PeriodeBulan int          `gorm:"not null;index:idx_payments_period,priority:1" json:"periode_bulan"`
	PeriodeTahun int          `gorm:"not null;index:idx_payments_period,priority:2" json:"periode_tahun"`
	RunID        snowflake.ID `gorm:"not null;index" json:"run_id"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

func (PaymentRecord) TableName() string { return "payments" }

// ReceivableRecord is an outstanding balance from the ARDEBT aging extract.
type ReceivableRecord struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID         string       `gorm:"size:64;not null;uniqueIndex:ux_receivables_natural,priority:1" json:"customer_id"`
	OutstandingBalance float64      `gorm:"not null;default:0" json:"outstanding_balance"`
	Periode            string       `gorm:"size:32;not null;uniqueIndex:ux_receivables_natural,priority:4" json:"periode"`
	PeriodeBulan       int          `gorm:"not null;uniqueIndex:ux_receivables_natural,priority:2" json:"periode_bulan"`
	PeriodeTahun       int          `gorm:"not null;uniqueIndex:ux_receivables_natural,priority:3" json:"periode_tahun"`
	RunID              snowflake.ID `gorm:"not null;index" json:"run_id"`
	CreatedAt          time.Time    `gorm:"not null" json:"created_at"`
}

func (ReceivableRecord) TableName() string { return "receivables" }

// MainBillRecord is one issued bill.
type MainBillRecord struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID   string       `gorm:"size:64;not null;uniqueIndex:ux_main_bills_natural,priority:1" json:"customer_id"`
	BillDate     string       `gorm:"size:32;not null;default:'';uniqueIndex:ux_main_bills_natural,priority:4" json:"bill_date"`
	TotalAmount  float64      `gorm:"not null;default:0;uniqueIndex:ux_main_bills_natural,priority:5" json:"total_amount"`
	PCEZBK       string       `gorm:"column:pcezbk;size:32" json:"pcezbk"`
	Tariff       string       `gorm:"size:32" json:"tariff"`
	Periode      string       `gorm:"size:32;not null" json:"periode"`
	PeriodeBulan int          `gorm:"not null;uniqueIndex:ux_main_bills_natural,priority:2" json:"periode_bulan"`
	PeriodeTahun int          `gorm:"not null;uniqueIndex:ux_main_bills_natural,priority:3" json:"periode_tahun"`
	RunID        snowflake.ID `gorm:"not null;index" json:"run_id"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

func (MainBillRecord) TableName() string { return "main_bills" }

// MeterReadingRecord is one SBRS reading. Rows are never updated once stored.
type MeterReadingRecord struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID     string       `gorm:"size:64;not null;uniqueIndex:ux_meter_readings_customer_period,priority:1" json:"customer_id"`
	Name           string       `gorm:"type:text" json:"name"`
	Address        string       `gorm:"type:text" json:"address"`
	Rayon          string       `gorm:"size:32;index" json:"rayon"`
	ReadMethod     string       `gorm:"size:32" json:"read_method"`
	SkipStatus     string       `gorm:"size:64" json:"skip_status"`
	TroubleStatus  string       `gorm:"size:64" json:"trouble_status"`
	SPMStatus      string       `gorm:"column:spm_status;size:64" json:"spm_status"`
	SpecialMessage string       `gorm:"type:text" json:"special_message"`
	PriorReading   float64      `gorm:"not null;default:0" json:"prior_reading"`
	CurrentReading float64      `gorm:"not null;default:0" json:"current_reading"`
	Volume         float64      `gorm:"not null;default:0" json:"volume"`
	BillAmount     float64      `gorm:"not null;default:0" json:"bill_amount"`
	FollowUp       string       `gorm:"type:text" json:"follow_up"`
	Tag1           string       `gorm:"column:tag1;size:64" json:"tag1"`
	Tag2           string       `gorm:"column:tag2;size:64" json:"tag2"`
	PeriodeBulan   int          `gorm:"not null;uniqueIndex:ux_meter_readings_customer_period,priority:2" json:"periode_bulan"`
	PeriodeTahun   int          `gorm:"not null;uniqueIndex:ux_meter_readings_customer_period,priority:3" json:"periode_tahun"`
	RunID          snowflake.ID `gorm:"not null;index" json:"run_id"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (MeterReadingRecord) TableName() string { return "meter_readings" }

// HasReadings reports whether both stands were supplied.
func (r MeterReadingRecord) HasReadings() bool {
	return r.PriorReading != 0 || r.CurrentReading != 0
}

// Usage is current minus prior stand when readings exist, else the reported volume.
func (r MeterReadingRecord) Usage() float64 {
	if r.HasReadings() {
		return r.CurrentReading - r.PriorReading
	}
	return r.Volume
}

// RunStatus is the outcome of one ingestion attempt.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// UploadRun records one ingestion attempt of one file.
type UploadRun struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	FileType      FileType          `gorm:"size:16;not null;index" json:"file_type"`
	FileName      string            `gorm:"type:text;not null" json:"file_name"`
	PeriodeBulan  int               `gorm:"not null;default:0" json:"periode_bulan"`
	PeriodeTahun  int               `gorm:"not null;default:0" json:"periode_tahun"`
	PeriodSource  string            `gorm:"size:32;not null;default:''" json:"period_source"`
	RowCount      int               `gorm:"not null;default:0" json:"row_count"`
	InsertedCount int64             `gorm:"not null;default:0" json:"inserted_count"`
	DroppedCount  int               `gorm:"not null;default:0" json:"dropped_count"`
	Status        RunStatus         `gorm:"size:16;not null;index" json:"status"`
	Error         string            `gorm:"type:text" json:"error,omitempty"`
	Meta          datatypes.JSONMap `gorm:"type:json" json:"meta"`
	CreatedAt     time.Time         `gorm:"not null;index" json:"created_at"`
}

func (UploadRun) TableName() string { return "upload_runs" }

// Models lists every persisted ingestion model, for AutoMigrate.
func Models() []any {
	return []any{
		&BillingRosterRecord{},
		&CollectionRecord{},
		&PaymentRecord{},
		&ReceivableRecord{},
		&MainBillRecord{},
		&MeterReadingRecord{},
		&UploadRun{},
	}
}
