package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shopflow/internal/common"
	"shopflow/internal/identify"
)

// Row is a matched row in the record store. The store owns the row; the
// pipeline only remembers where it is and what matched.
type Row struct {
	Index   int // 1-based sheet row
	Code    string
	Variant string
}

// Reconciler looks up inventory rows by identifier and writes back image
// links plus a completion marker.
type Reconciler struct {
	store   RecordStore
	cfg     common.SheetConfig
	logger  *slog.Logger
	timeout time.Duration
}

func NewReconciler(store RecordStore, cfg common.SheetConfig, timeout time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		timeout: timeout,
	}
}

// FindRow reads the identifier-through-variant column range and matches
// (code, variant) case-insensitively against every row; first match wins.
// ErrNotFound is a normal outcome, not a service failure: the store is
// authoritative for which items are tracked, and untracked items are never
// invented.
func (r *Reconciler) FindRow(ctx context.Context, id identify.Identifier) (Row, error) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	readRange := fmt.Sprintf("%s!%s:%s", r.cfg.SheetName, r.cfg.IDColumn, r.cfg.VariantColumn)
	rows, err := r.store.ReadRange(cctx, readRange)
	if err != nil {
		return Row{}, common.WrapError(err, "read record store")
	}

	variantIdx := colIndex(r.cfg.VariantColumn) - colIndex(r.cfg.IDColumn)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		code := strings.TrimSpace(row[0])
		variant := ""
		if len(row) > variantIdx {
			variant = strings.TrimSpace(row[variantIdx])
		}
		if strings.EqualFold(code, id.Code) && strings.EqualFold(variant, id.Variant) {
			matched := Row{Index: i + 1, Code: code, Variant: variant}
			r.logger.Info("reconciler.row_matched", "identifier", id.Canonical(), "row", matched.Index)
			return matched, nil
		}
	}
	r.logger.Info("reconciler.row_not_found", "identifier", id.Canonical(), "rows_scanned", len(rows))
	return Row{}, common.ErrNotFound
}

// WriteBack writes the public links into consecutive link columns for the
// matched row, then sets the completion marker cell. The two writes are one
// logical operation: a marker failure after the links landed still reports
// an error, so the driver retains the batch instead of archiving a
// half-written row.
func (r *Reconciler) WriteBack(ctx context.Context, row Row, links []string) error {
	start := colIndex(r.cfg.LinkStartColumn)
	updates := make([]CellUpdate, 0, len(links))
	for i, link := range links {
		updates = append(updates, CellUpdate{
			Range: fmt.Sprintf("%s!%s%d", r.cfg.SheetName, colName(start+i), row.Index),
			Value: link,
		})
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.BatchWrite(cctx, updates); err != nil {
		return common.WrapError(err, "write link cells")
	}

	markRef := fmt.Sprintf("%s!%s%d", r.cfg.SheetName, r.cfg.MarkColumn, row.Index)
	mctx, cancel2 := context.WithTimeout(ctx, r.timeout)
	defer cancel2()
	if err := r.store.WriteCell(mctx, markRef, r.cfg.MarkValue); err != nil {
		r.logger.Error("reconciler.marker_failed_after_links", "row", row.Index, "error", err)
		return common.WrapError(err, "write completion marker")
	}

	r.logger.Info("reconciler.write_back_ok", "row", row.Index, "links", len(links))
	return nil
}
