package reconcile

import "context"

// CellUpdate is one cell write in A1 notation, e.g. {"Inventory!N7", link}.
type CellUpdate struct {
	Range string
	Value string
}

// RecordStore is the boundary to the external authoritative tabular store.
// The pipeline only reads matching rows and writes specific cells; it never
// creates or deletes rows.
type RecordStore interface {
	ReadRange(ctx context.Context, readRange string) ([][]string, error)
	BatchWrite(ctx context.Context, updates []CellUpdate) error
	WriteCell(ctx context.Context, cellRef, value string) error
}
