package archive

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"shopflow/constants"
	"shopflow/internal/common"
	"shopflow/internal/identify"
	"shopflow/internal/watch"
)

// Archiver performs the terminal filesystem transition for a batch.
// Precedence: Processed goes to the organized archive, Unmatched goes to
// quarantine, every other outcome retains the files at the source unchanged.
// In testing mode every move becomes a copy, so a dry run never destroys
// source files.
type Archiver struct {
	sourceDir        string
	archiveDir       string
	quarantineDir    string
	testingMode      bool
	archiveOnSuccess bool
	logger           *slog.Logger
}

func NewArchiver(cfg common.PathsConfig, pipeline common.PipelineConfig, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		sourceDir:        cfg.SourceDir,
		archiveDir:       cfg.ArchiveDir,
		quarantineDir:    cfg.QuarantineDir,
		testingMode:      pipeline.TestingMode,
		archiveOnSuccess: pipeline.ArchiveOnSuccess,
		logger:           logger,
	}
}

// Finalize applies the transition for the batch's terminal outcome. id is
// only meaningful for Processed batches, where it names the archive folder.
func (a *Archiver) Finalize(batch *watch.Batch, outcome constants.Outcome, id identify.Identifier) error {
	switch outcome {
	case constants.OutcomeProcessed:
		if !a.archiveOnSuccess {
			a.logger.Info("archiver.archive_disabled", "batch", batch.ID)
			return nil
		}
		return a.archiveBatch(batch, id)
	case constants.OutcomeUnmatched:
		for _, it := range batch.Items {
			if err := a.QuarantineFile(it); err != nil {
				return err
			}
		}
		return a.cleanupSourceDir(batch)
	default:
		// Duplicate, NotFound, upload or write-back failure: retain in
		// place; only the ledger entry records the outcome.
		a.logger.Info("archiver.retained", "batch", batch.ID, "outcome", outcome)
		return nil
	}
}

// archiveBatch relocates the batch into an archive subfolder named for the
// canonical identifier, renaming files to "<identifier>_<n><ext>" in slot
// order.
func (a *Archiver) archiveBatch(batch *watch.Batch, id identify.Identifier) error {
	canonical := id.Canonical()
	targetDir := filepath.Join(a.archiveDir, canonical)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return common.WrapError(err, "create archive folder")
	}

	for i, it := range batch.Items {
		dst := filepath.Join(targetDir, fmt.Sprintf("%s_%d%s", canonical, i+1, filepath.Ext(it.Name)))
		if err := a.transition(it.Path, dst); err != nil {
			return err
		}
	}
	a.logger.Info("archiver.archived", "batch", batch.ID, "identifier", canonical, "dir", targetDir)
	return a.cleanupSourceDir(batch)
}

// QuarantineFile moves (or copies, in testing mode) a single file into the
// quarantine location, keeping its original name. Used for whole unmatched
// batches and for individually unreadable files.
func (a *Archiver) QuarantineFile(it watch.WorkItem) error {
	if err := os.MkdirAll(a.quarantineDir, 0o755); err != nil {
		return common.WrapError(err, "create quarantine folder")
	}
	dst := filepath.Join(a.quarantineDir, it.Name)
	if _, err := os.Stat(dst); err == nil {
		dst = filepath.Join(a.quarantineDir, fmt.Sprintf("%s-%s", it.DiscoveredAt.UTC().Format("20060102T150405"), it.Name))
	}
	if err := a.transition(it.Path, dst); err != nil {
		return err
	}
	a.logger.Info("archiver.quarantined", "path", it.Path, "dst", dst)
	return nil
}

// transition moves src to dst, or copies when testing mode is on.
func (a *Archiver) transition(src, dst string) error {
	if a.testingMode {
		return copyFile(src, dst)
	}
	return moveFile(src, dst)
}

// cleanupSourceDir removes a batch's containing folder if the transition
// emptied it. The watched root itself is never removed.
func (a *Archiver) cleanupSourceDir(batch *watch.Batch) error {
	if a.testingMode || len(batch.Items) == 0 {
		return nil
	}
	dir := filepath.Dir(batch.Items[0].Path)
	if sameDir(dir, a.sourceDir) {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil {
		a.logger.Warn("archiver.rmdir_failed", "dir", dir, "error", err)
		return nil
	}
	a.logger.Info("archiver.removed_empty_dir", "dir", dir)
	return nil
}

func sameDir(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return aa == bb
}

// moveFile renames src to dst, falling back to copy+remove across devices
// (the archive often lives on a different mount than the synced source).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return common.WrapError(err, "open source file")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return common.WrapError(err, "create destination file")
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return common.WrapError(err, "copy file")
	}
	return out.Close()
}
