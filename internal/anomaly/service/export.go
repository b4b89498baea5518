package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/smallbiznis/aquabill/internal/anomaly/domain"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Anomali"

var exportHeader = []interface{}{
	"Customer ID", "Name", "Address", "Rayon", "Period",
	"Prior Reading", "Current Reading", "Usage", "Historical Average",
	"Read Method", "Tags", "Reasons",
}

// Export writes the matching findings as an xlsx workbook.
func (s *Service) Export(ctx context.Context, q domain.Query, w io.Writer) error {
	q.Limit, q.Offset = 0, 0
	page, err := s.GetAnomalies(ctx, q)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}

	for i, finding := range page.Findings {
		codes := make([]string, 0, len(finding.Tags))
		reasons := make([]string, 0, len(finding.Tags))
		for _, t := range finding.Tags {
			codes = append(codes, string(t.Code))
			reasons = append(reasons, fmt.Sprintf("%s: %s", t.Code, t.Reason))
		}
		row := []interface{}{
			finding.CustomerID,
			finding.Name,
			finding.Address,
			finding.Rayon,
			finding.Period.Label(),
			finding.PriorReading,
			finding.CurrentReading,
			finding.Usage,
			finding.HistoricalAverage,
			finding.Metadata.ReadMethod,
			strings.Join(codes, ", "),
			strings.Join(reasons, "; "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}
