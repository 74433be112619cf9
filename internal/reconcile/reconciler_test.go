package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopflow/internal/common"
	"shopflow/internal/identify"
)

type fakeStore struct {
	rows      [][]string
	readErr   error
	batchErr  error
	cellErr   error
	batched   []CellUpdate
	wrote     map[string]string
	readRange string
}

func (f *fakeStore) ReadRange(_ context.Context, readRange string) ([][]string, error) {
	f.readRange = readRange
	return f.rows, f.readErr
}

func (f *fakeStore) BatchWrite(_ context.Context, updates []CellUpdate) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batched = append(f.batched, updates...)
	return nil
}

func (f *fakeStore) WriteCell(_ context.Context, cellRef, value string) error {
	if f.cellErr != nil {
		return f.cellErr
	}
	if f.wrote == nil {
		f.wrote = map[string]string{}
	}
	f.wrote[cellRef] = value
	return nil
}

func testSheetConfig() common.SheetConfig {
	return common.SheetConfig{
		SpreadsheetID:   "sheet-id",
		SheetName:       "Inventory",
		IDColumn:        "A",
		VariantColumn:   "M",
		LinkStartColumn: "N",
		MarkColumn:      "P",
		MarkValue:       "✓",
	}
}

// inventoryRow builds a sheet row with the code in column A and the variant
// in column M.
func inventoryRow(code, variant string) []string {
	row := make([]string, 13)
	row[0] = code
	row[12] = variant
	return row
}

func newTestReconciler(store RecordStore) *Reconciler {
	return NewReconciler(store, testSheetConfig(), time.Second, nil)
}

func TestFindRowMatchesCaseInsensitive(t *testing.T) {
	store := &fakeStore{rows: [][]string{
		{"Toy #"},
		inventoryRow("J4567", "Blue"),
		inventoryRow("m6916", "red"),
	}}
	r := newTestReconciler(store)

	row, err := r.FindRow(context.Background(), identify.Identifier{Code: "M6916", Variant: "RED"})
	if err != nil {
		t.Fatalf("FindRow failed: %v", err)
	}
	if row.Index != 3 {
		t.Errorf("row index = %d, want 3 (1-based)", row.Index)
	}
	if store.readRange != "Inventory!A:M" {
		t.Errorf("read range = %q, want Inventory!A:M", store.readRange)
	}
}

func TestFindRowFirstMatchWins(t *testing.T) {
	store := &fakeStore{rows: [][]string{
		inventoryRow("M6916", "RED"),
		inventoryRow("M6916", "RED"),
	}}
	r := newTestReconciler(store)

	row, err := r.FindRow(context.Background(), identify.Identifier{Code: "M6916", Variant: "RED"})
	if err != nil {
		t.Fatal(err)
	}
	if row.Index != 1 {
		t.Errorf("row index = %d, want the first matching row", row.Index)
	}
}

func TestFindRowEmptyVariantMatchesEmptyCell(t *testing.T) {
	store := &fakeStore{rows: [][]string{
		{"M6916"}, // short row, no variant columns at all
	}}
	r := newTestReconciler(store)

	if _, err := r.FindRow(context.Background(), identify.Identifier{Code: "M6916"}); err != nil {
		t.Fatalf("variant-less identifier should match a variant-less row: %v", err)
	}
}

func TestFindRowNotFound(t *testing.T) {
	store := &fakeStore{rows: [][]string{inventoryRow("J4567", "BLUE")}}
	r := newTestReconciler(store)

	_, err := r.FindRow(context.Background(), identify.Identifier{Code: "M6916", Variant: "RED"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindRowTransientReadError(t *testing.T) {
	store := &fakeStore{readErr: common.Transient(errors.New("503"))}
	r := newTestReconciler(store)

	_, err := r.FindRow(context.Background(), identify.Identifier{Code: "M6916"})
	if !common.IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestWriteBackLinksAndMarker(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	links := []string{
		"https://drive.google.com/uc?id=front",
		"https://drive.google.com/uc?id=back",
	}
	if err := r.WriteBack(context.Background(), Row{Index: 7}, links); err != nil {
		t.Fatalf("WriteBack failed: %v", err)
	}

	if len(store.batched) != 2 {
		t.Fatalf("batched updates = %d, want 2", len(store.batched))
	}
	if store.batched[0].Range != "Inventory!N7" || store.batched[1].Range != "Inventory!O7" {
		t.Errorf("link ranges = %q,%q, want N7,O7", store.batched[0].Range, store.batched[1].Range)
	}
	if got := store.wrote["Inventory!P7"]; got != "✓" {
		t.Errorf("marker cell = %q, want ✓", got)
	}
}

func TestWriteBackMarkerFailureIsError(t *testing.T) {
	store := &fakeStore{cellErr: errors.New("quota exceeded")}
	r := newTestReconciler(store)

	err := r.WriteBack(context.Background(), Row{Index: 2}, []string{"link"})
	if err == nil {
		t.Fatal("marker failure after links landed must surface as an error")
	}
	if len(store.batched) != 1 {
		t.Fatalf("links should have been written before the marker failed")
	}
}

func TestWriteBackNoPartialOnBatchFailure(t *testing.T) {
	store := &fakeStore{batchErr: errors.New("write failed")}
	r := newTestReconciler(store)

	if err := r.WriteBack(context.Background(), Row{Index: 2}, []string{"link"}); err == nil {
		t.Fatal("batch write failure must surface as an error")
	}
	if len(store.wrote) != 0 {
		t.Error("marker must not be written when the link write failed")
	}
}

func TestColumnHelpers(t *testing.T) {
	tests := []struct {
		col string
		idx int
	}{
		{"A", 0}, {"M", 12}, {"N", 13}, {"Z", 25}, {"AA", 26},
	}
	for _, tt := range tests {
		if got := colIndex(tt.col); got != tt.idx {
			t.Errorf("colIndex(%q) = %d, want %d", tt.col, got, tt.idx)
		}
		if got := colName(tt.idx); got != tt.col {
			t.Errorf("colName(%d) = %q, want %q", tt.idx, got, tt.col)
		}
	}
}
