package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"shopflow/constants"
	"shopflow/internal/ledger"
)

func mustOpen(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("generated workbook does not open: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue("Ledger", ref)
	if err != nil {
		t.Fatalf("read %s: %v", ref, err)
	}
	return v
}

func entryAt(ts time.Time, id string, status constants.LedgerStatus) ledger.Entry {
	return ledger.Entry{
		Timestamp:     ts,
		FileReference: "https://drive.google.com/uc?id=x",
		OriginalName:  "back.jpg",
		Identifier:    id,
		Status:        status,
	}
}

func TestLedgerReportLayout(t *testing.T) {
	svc := NewService(nil)
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	entries := []ledger.Entry{
		entryAt(ts, "M6916-RED", constants.StatusProcessed),
		entryAt(ts.Add(time.Hour), "Unknown", constants.StatusUnmatched),
	}

	data, err := svc.LedgerReportXLSX(entries, nil, nil)
	if err != nil {
		t.Fatalf("LedgerReportXLSX failed: %v", err)
	}
	f := mustOpen(t, data)

	if got := cell(t, f, "A1"); got != "Timestamp (UTC)" {
		t.Errorf("A1 = %q", got)
	}
	if got := cell(t, f, "B2"); got != "M6916-RED" {
		t.Errorf("B2 = %q, want the identifier", got)
	}
	if got := cell(t, f, "C2"); got != "Processed" {
		t.Errorf("C2 = %q", got)
	}
	if got := cell(t, f, "A2"); got != "2026-03-14 09:26:53" {
		t.Errorf("A2 = %q", got)
	}

	// Summary block starts two rows below the two data rows.
	if got := cell(t, f, "A5"); got != "Total Processed" {
		t.Errorf("A5 = %q", got)
	}
	if got := cell(t, f, "B5"); got != "1" {
		t.Errorf("B5 = %q, want 1 processed", got)
	}
	if got := cell(t, f, "B7"); got != "1" {
		t.Errorf("B7 = %q, want 1 unmatched", got)
	}
}

func TestLedgerReportDateWindow(t *testing.T) {
	svc := NewService(nil)
	entries := []ledger.Entry{
		entryAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), "A1111", constants.StatusProcessed),
		entryAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), "B2222", constants.StatusProcessed),
		entryAt(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC), "C3333", constants.StatusProcessed),
	}
	from := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	data, err := svc.LedgerReportXLSX(entries, &from, &to)
	if err != nil {
		t.Fatalf("LedgerReportXLSX failed: %v", err)
	}
	f := mustOpen(t, data)

	if got := cell(t, f, "B2"); got != "B2222" {
		t.Errorf("B2 = %q, want the in-window entry", got)
	}
	// Only one data row: the summary starts right after the gap.
	if got := cell(t, f, "A4"); got != "Total Processed" {
		t.Errorf("A4 = %q, want the summary directly after one row", got)
	}
	if got := cell(t, f, "B4"); got != "1" {
		t.Errorf("B4 = %q, want only the in-window entry counted", got)
	}
}

func TestLedgerReportEmpty(t *testing.T) {
	svc := NewService(nil)
	data, err := svc.LedgerReportXLSX(nil, nil, nil)
	if err != nil {
		t.Fatalf("LedgerReportXLSX failed: %v", err)
	}
	f := mustOpen(t, data)
	if got := cell(t, f, "A3"); got != "Total Processed" {
		t.Errorf("A3 = %q, want summary right below the header", got)
	}
}
