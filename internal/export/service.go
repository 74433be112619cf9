package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"shopflow/internal/ledger"
)

// Service produces XLSX bytes from ledger history, for the shop's periodic
// review of what got processed, skipped, or stuck.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// LedgerReportXLSX returns a workbook over the given entries, optionally
// bounded to a date window (inclusive, date-only, UTC).
// If only from is provided -> from..today.
// If only to is provided   -> beginning..to.
func (s *Service) LedgerReportXLSX(entries []ledger.Entry, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	f := excelize.NewFile()
	const sheet = "Ledger"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIdx, _ := f.GetSheetIndex("Sheet1"); defIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Timestamp (UTC)",
		"Identifier",
		"Status",
		"Original Name",
		"File Reference",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	written := 0
	counts := map[string]int{}
	for _, e := range entries {
		if fromDate != nil && e.Timestamp.Before(*fromDate) {
			continue
		}
		if toDate != nil && e.Timestamp.After(*toDate) {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.Timestamp.UTC().Format("2006-01-02 15:04:05"))
		write(2, e.Identifier)
		write(3, string(e.Status))
		write(4, e.OriginalName)
		write(5, e.FileReference)
		counts[string(e.Status)]++
		row++
		written++
	}

	// Summary block two rows below the table.
	row++
	for _, status := range []string{"Processed", "Duplicate", "Unmatched", "Error"} {
		c1, _ := excelize.CoordinatesToCellName(1, row)
		c2, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, c1, fmt.Sprintf("Total %s", status))
		_ = f.SetCellValue(sheet, c2, counts[status])
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.ledger_report", "entries", written, "duration_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
