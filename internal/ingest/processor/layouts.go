package processor

import (
	"github.com/smallbiznis/aquabill/internal/columnmap"
	"github.com/smallbiznis/aquabill/internal/derive"
	"github.com/smallbiznis/aquabill/internal/ingest/domain"
)

// MC replaces the billing roster with the served-rayon rows of the extract.
var MC = Layout[domain.BillingRosterRecord]{
	Type:         domain.FileTypeMC,
	Table:        columnmap.MC,
	Required:     []string{columnmap.CustomerID, columnmap.ZoneCode},
	WriteAs:      domain.WriteReplace,
	FilterReason: "no rows in served rayons 34/35",
	Build: func(customerID string, row Row, s Stamp) (domain.BillingRosterRecord, bool) {
		zone := derive.ParseZone(row.Raw(columnmap.ZoneCode))
		if !derive.IsServedRayon(zone.Rayon) {
			return domain.BillingRosterRecord{}, false
		}
		return domain.BillingRosterRecord{
			ID:           s.NextID(),
			CustomerID:   customerID,
			Name:         row.Text(columnmap.Name),
			Address:      row.Text(columnmap.Address),
			ZoneCode:     row.Label(columnmap.ZoneCode),
			Rayon:        zone.Rayon,
			PC:           zone.PC,
			EZ:           zone.EZ,
			Block:        zone.Block,
			PCEZ:         zone.PCEZ,
			Tariff:       row.Text(columnmap.Tariff),
			TargetAmount: row.Currency(columnmap.Target),
			Volume:       absFloat(row.Float(columnmap.Volume)),
			PeriodeBulan: s.Period.Month,
			PeriodeTahun: s.Period.Year,
			RunID:        s.RunID,
			CreatedAt:    s.Now,
		}, true
	},
}

// Collection appends payment events and derives current/arrears.
var Collection = Layout[domain.CollectionRecord]{
	Type:     domain.FileTypeCollection,
	Table:    columnmap.Collection,
	Required: []string{columnmap.CustomerID, columnmap.PaymentDate},
	WriteAs:  domain.WriteAppend,
	Build: func(customerID string, row Row, s Stamp) (domain.CollectionRecord, bool) {
		amount := row.Currency(columnmap.Amount)
		volume := row.Float(columnmap.WaterVolume)
		return domain.CollectionRecord{
			ID:           s.NextID(),
			CustomerID:   customerID,
			PaymentDate:  row.Date(columnmap.PaymentDate),
			Amount:       amount,
			WaterVolume:  volume,
			PaymentType:  string(derive.ClassifyPayment(amount, volume)),
			BillPeriod:   row.Label(columnmap.BillPeriod),
			Source:       "collection",
			PeriodeBulan: s.Period.Month,
			PeriodeTahun: s.Period.Year,
			RunID:        s.RunID,
			CreatedAt:    s.Now,
		}, true
	},
}

// MB appends master-bayar payments.
var MB = Layout[domain.PaymentRecord]{
	Type:     domain.FileTypeMB,
	Table:    columnmap.MB,
	Required: []string{columnmap.CustomerID, columnmap.PaymentDate},
	WriteAs:  domain.WriteAppend,
	Build: func(customerID string, row Row, s Stamp) (domain.PaymentRecord, bool) {
		return domain.PaymentRecord{
			ID:           s.NextID(),
			CustomerID:   customerID,
			PaymentDate:  row.Date(columnmap.PaymentDate),
			Amount:       row.Currency(columnmap.Amount),
			Periode:      periodeLabel(row, s),
			Source:       "mb",
			PeriodeBulan: s.Period.Month,
			PeriodeTahun: s.Period.Year,
			RunID:        s.RunID,
			CreatedAt:    s.Now,
		}, true
	},
}

// ARDEBT appends outstanding balances.
var ARDEBT = Layout[domain.ReceivableRecord]{
	Type:     domain.FileTypeARDEBT,
	Table:    columnmap.ARDEBT,
	Required: []string{columnmap.CustomerID},
	WriteAs:  domain.WriteAppend,
	Build: func(customerID string, row Row, s Stamp) (domain.ReceivableRecord, bool) {
		return domain.ReceivableRecord{
			ID:                 s.NextID(),
			CustomerID:         customerID,
			OutstandingBalance: row.Currency(columnmap.OutstandingBalance),
			Periode:            periodeLabel(row, s),
			PeriodeBulan:       s.Period.Month,
			PeriodeTahun:       s.Period.Year,
			RunID:              s.RunID,
			CreatedAt:          s.Now,
		}, true
	},
}

// MainBill appends issued bills.
var MainBill = Layout[domain.MainBillRecord]{
	Type:     domain.FileTypeMainBill,
	Table:    columnmap.MainBill,
	Required: []string{columnmap.CustomerID},
	WriteAs:  domain.WriteAppend,
	Build: func(customerID string, row Row, s Stamp) (domain.MainBillRecord, bool) {
		rec := domain.MainBillRecord{
			ID:           s.NextID(),
			CustomerID:   customerID,
			TotalAmount:  row.Currency(columnmap.TotalAmount),
			PCEZBK:       row.Label(columnmap.PCEZBK),
			Tariff:       row.Text(columnmap.Tariff),
			Periode:      periodeLabel(row, s),
			PeriodeBulan: s.Period.Month,
			PeriodeTahun: s.Period.Year,
			RunID:        s.RunID,
			CreatedAt:    s.Now,
		}
		if row.Has(columnmap.BillDate) {
			rec.BillDate = row.Date(columnmap.BillDate)
		}
		return rec, true
	},
}

// SBRS appends meter readings.
var SBRS = Layout[domain.MeterReadingRecord]{
	Type:     domain.FileTypeSBRS,
	Table:    columnmap.SBRS,
	Required: []string{columnmap.CustomerID, columnmap.Volume},
	WriteAs:  domain.WriteAppend,
	Build: func(customerID string, row Row, s Stamp) (domain.MeterReadingRecord, bool) {
		return domain.MeterReadingRecord{
			ID:             s.NextID(),
			CustomerID:     customerID,
			Name:           row.Text(columnmap.Name),
			Address:        row.Text(columnmap.Address),
			Rayon:          row.Label(columnmap.Rayon),
			ReadMethod:     row.Text(columnmap.ReadMethod),
			SkipStatus:     row.Text(columnmap.SkipStatus),
			TroubleStatus:  row.Text(columnmap.TroubleStatus),
			SPMStatus:      row.Text(columnmap.SPMStatus),
			SpecialMessage: row.Text(columnmap.SpecialMessage),
			PriorReading:   row.Float(columnmap.PriorReading),
			CurrentReading: row.Float(columnmap.CurrentReading),
			Volume:         row.Float(columnmap.Volume),
			BillAmount:     row.Currency(columnmap.BillAmount),
			FollowUp:       row.Text(columnmap.FollowUp),
			Tag1:           row.Text(columnmap.Tag1),
			Tag2:           row.Text(columnmap.Tag2),
			PeriodeBulan:   s.Period.Month,
			PeriodeTahun:   s.Period.Year,
			RunID:          s.RunID,
			CreatedAt:      s.Now,
		}, true
	},
}

func periodeLabel(row Row, s Stamp) string {
	if v := row.Label(columnmap.Periode); v != "" {
		return v
	}
	return s.Period.Label()
}
