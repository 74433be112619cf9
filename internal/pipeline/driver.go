package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shopflow/constants"
	"shopflow/internal/archive"
	"shopflow/internal/common"
	"shopflow/internal/identify"
	"shopflow/internal/ledger"
	"shopflow/internal/media"
	"shopflow/internal/reconcile"
	"shopflow/internal/upload"
	"shopflow/internal/watch"
)

// Driver sequences the pipeline stages per batch and runs the poll loop.
// Batches run to a terminal state one at a time, in discovery order; every
// failure is localized to the batch in progress, so the loop never aborts
// mid-run once startup auth succeeded.
type Driver struct {
	cfg        *common.Config
	watcher    *watch.Watcher
	extractor  *identify.Extractor
	ledger     *ledger.Ledger
	reconciler *reconcile.Reconciler
	uploader   *upload.Uploader
	archiver   *archive.Archiver
	reader     *media.Reader
	logger     *slog.Logger

	nudge <-chan struct{}
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDriver(
	cfg *common.Config,
	watcher *watch.Watcher,
	extractor *identify.Extractor,
	ldg *ledger.Ledger,
	reconciler *reconcile.Reconciler,
	uploader *upload.Uploader,
	archiver *archive.Archiver,
	reader *media.Reader,
	logger *slog.Logger,
) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		cfg:        cfg,
		watcher:    watcher,
		extractor:  extractor,
		ledger:     ldg,
		reconciler: reconciler,
		uploader:   uploader,
		archiver:   archiver,
		reader:     reader,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// SetNudge wires an optional wake-up channel (filesystem events) into the
// poll loop.
func (d *Driver) SetNudge(ch <-chan struct{}) { d.nudge = ch }

// Run polls until ctx is cancelled. An in-flight batch always finishes to a
// terminal state before the loop exits; cancellation is only observed at
// batch boundaries and during the poll sleep.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("driver.started",
		"source", d.cfg.Paths.SourceDir,
		"poll_interval", d.cfg.Watch.PollInterval,
		"testing_mode", d.cfg.Pipeline.TestingMode,
	)
	for {
		if err := ctx.Err(); err != nil {
			d.logger.Info("driver.stopped")
			return nil
		}
		if err := d.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("driver.poll_failed", "error", err)
		}
		if err := d.waitNext(ctx); err != nil {
			d.logger.Info("driver.stopped")
			return nil
		}
	}
}

// RunCycle performs one poll cycle: discover stable batches and process each
// to a terminal state, FIFO.
func (d *Driver) RunCycle(ctx context.Context) error {
	batches, err := d.watcher.Poll(ctx)
	if err != nil {
		return err
	}
	for _, b := range batches {
		// A stop request between batches wins; the remaining batches are
		// still at the source and will be re-discovered.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		state := d.ProcessBatch(ctx, b)
		d.logger.Info("driver.batch_done", "batch", b.ID, "state", state)
	}
	return nil
}

// ProcessBatch walks one batch through the stage sequence and returns its
// terminal state. The batch's files were already confirmed stable by the
// watcher.
func (d *Driver) ProcessBatch(ctx context.Context, b *watch.Batch) State {
	log := d.logger.With("batch", b.ID)
	log.Info("driver.batch_start", "state", StateStabilized, "files", len(b.Items))

	// Identify.
	id, err := d.extractor.Identify(ctx, b)
	if err != nil {
		if errors.Is(err, common.ErrNoIdentifier) {
			return d.finishUnmatched(b, log)
		}
		// Transient OCR failure: retain for a later cycle, log Error.
		return d.finishRetained(b, constants.OutcomeTransient, constants.UnknownIdentifier, err, log)
	}
	canonical := id.Canonical()
	log = log.With("identifier", canonical)
	log.Info("driver.state", "state", StateIdentified)

	// Dedupe against the ledger before any external write.
	if d.ledger.IsDuplicate(canonical) {
		return d.finishDuplicate(b, canonical, log)
	}

	// Reconcile: the record store is authoritative for tracked items.
	row, err := d.reconciler.FindRow(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Info("driver.state", "state", StateNotFoundInStore)
			return d.finishRetained(b, constants.OutcomeNotFound, canonical, err, log)
		}
		return d.finishRetained(b, constants.OutcomeTransient, canonical, err, log)
	}
	log.Info("driver.state", "state", StateReconciled, "row", row.Index)

	// Upload each slot. An unreadable file is quarantined individually and
	// the batch continues with the remaining slots. A quarantined item has
	// its terminal entry written here, so every later failure path must
	// exclude it: one terminal entry per file.
	kept := &watch.Batch{ID: b.ID}
	var links []string
	quarantined := make([]bool, len(b.Items))
	for i, it := range b.Items {
		data, name, err := d.reader.ReadImage(ctx, it.Path)
		if err != nil {
			log.Warn("driver.invalid_media", "path", it.Path, "error", err)
			d.appendEntry(it, it.Path, constants.UnknownIdentifier, constants.StatusUnmatched, log)
			if qerr := d.archiver.QuarantineFile(it); qerr != nil {
				log.Error("driver.quarantine_failed", "path", it.Path, "error", qerr)
			}
			quarantined[i] = true
			continue
		}
		link, err := d.uploader.Upload(ctx, data, canonical+"_"+name)
		if err != nil {
			log.Error("driver.state", "state", StateUploadFailed, "path", it.Path, "error", err)
			return d.finishRetained(remaining(b, quarantined), constants.OutcomeUploadFailed, canonical, err, log)
		}
		kept.Items = append(kept.Items, it)
		links = append(links, link)
	}
	if len(kept.Items) == 0 {
		log.Warn("driver.no_uploadable_items")
		d.watcher.Forget(paths(b)...)
		return StateQuarantined
	}
	log.Info("driver.state", "state", StateUploaded)

	// Write back links plus completion marker as one logical operation.
	// Links fill the link columns in slot order; slots lost to quarantine
	// leave trailing blanks, never gaps.
	wire := make([]string, len(b.Items))
	copy(wire, links)
	if err := d.reconciler.WriteBack(ctx, row, wire); err != nil {
		return d.finishRetained(kept, constants.OutcomeWriteBackFail, canonical, err, log)
	}

	// Ledger commit, then archive. Archival strictly follows the committed
	// Processed entries.
	for i, it := range kept.Items {
		d.appendEntry(it, links[i], canonical, constants.StatusProcessed, log)
	}
	log.Info("driver.state", "state", StateLedgerCommitted)

	if err := d.archiver.Finalize(kept, constants.OutcomeProcessed, id); err != nil {
		log.Error("driver.archive_failed", "error", err)
		return StateRetained
	}
	d.watcher.Forget(paths(b)...)
	return StateArchived
}

func (d *Driver) finishUnmatched(b *watch.Batch, log *slog.Logger) State {
	log.Info("driver.state", "state", StateUnidentified)
	for _, it := range b.Items {
		d.appendEntry(it, it.Path, constants.UnknownIdentifier, constants.StatusUnmatched, log)
	}
	if err := d.archiver.Finalize(b, constants.OutcomeUnmatched, identify.Identifier{}); err != nil {
		log.Error("driver.quarantine_failed", "error", err)
		return StateRetained
	}
	d.watcher.Forget(paths(b)...)
	return StateQuarantined
}

func (d *Driver) finishDuplicate(b *watch.Batch, canonical string, log *slog.Logger) State {
	log.Info("driver.state", "state", StateDuplicateSkipped)
	for _, it := range b.Items {
		logged, err := d.ledger.AppendDuplicate(ledger.Entry{
			FileReference: it.Path,
			OriginalName:  it.Name,
			Identifier:    canonical,
		}, d.cfg.Pipeline.DuplicateLogCap)
		if err != nil {
			log.Error("driver.ledger_append_failed", "path", it.Path, "error", err)
		} else if !logged {
			log.Debug("driver.duplicate_log_capped", "path", it.Path)
		}
	}
	_ = d.archiver.Finalize(b, constants.OutcomeDuplicate, identify.Identifier{})
	return StateRetained
}

func (d *Driver) finishRetained(b *watch.Batch, outcome constants.Outcome, identifier string, cause error, log *slog.Logger) State {
	log.Error("driver.batch_error", "outcome", outcome, "error", cause)
	for _, it := range b.Items {
		d.appendEntry(it, it.Path, identifier, constants.StatusError, log)
	}
	_ = d.archiver.Finalize(b, outcome, identify.Identifier{})
	return StateRetained
}

func (d *Driver) appendEntry(it watch.WorkItem, ref, identifier string, status constants.LedgerStatus, log *slog.Logger) {
	err := d.ledger.Append(ledger.Entry{
		FileReference: ref,
		OriginalName:  it.Name,
		Identifier:    identifier,
		Status:        status,
	})
	if err != nil {
		log.Error("driver.ledger_append_failed", "path", it.Path, "status", status, "error", err)
	}
}

func (d *Driver) waitNext(ctx context.Context) error {
	if d.nudge == nil {
		return d.sleep(ctx, d.cfg.Watch.PollInterval)
	}
	t := time.NewTimer(d.cfg.Watch.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	case <-d.nudge:
		return nil
	}
}

// remaining returns the batch minus the items that already reached a
// terminal entry via per-file quarantine.
func remaining(b *watch.Batch, quarantined []bool) *watch.Batch {
	rest := &watch.Batch{ID: b.ID}
	for i, it := range b.Items {
		if !quarantined[i] {
			rest.Items = append(rest.Items, it)
		}
	}
	return rest
}

func paths(b *watch.Batch) []string {
	out := make([]string, len(b.Items))
	for i, it := range b.Items {
		out[i] = it.Path
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
