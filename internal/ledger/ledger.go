package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"shopflow/constants"
	"shopflow/internal/common"
)

// Entry is one immutable terminal record for a file. Exactly one terminal
// entry is written per file once its batch completes.
type Entry struct {
	Timestamp     time.Time
	FileReference string // public link when uploaded, source path otherwise
	OriginalName  string
	Identifier    string // canonical form, or constants.UnknownIdentifier
	Status        constants.LedgerStatus
}

type indexState struct {
	processed  bool
	duplicates int
}

// Ledger is the durable, append-only log of terminal outcomes and the single
// source of truth for idempotency. The durable file is authoritative; the
// in-memory index is a derived cache rebuilt at open and updated on every
// append. A process-level flock enforces the single-writer rule.
type Ledger struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	lock   *flock.Flock
	logger *slog.Logger
	index  map[string]*indexState
}

// Open acquires the writer lock, opens the ledger for appending, and rebuilds
// the duplicate index from the existing log.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, common.WrapError(err, "acquire ledger lock")
	}
	if !ok {
		return nil, fmt.Errorf("ledger %s is locked by another process", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, common.WrapError(err, "open ledger")
	}

	l := &Ledger{
		path:   path,
		f:      f,
		lock:   lock,
		logger: logger,
		index:  make(map[string]*indexState),
	}
	entries, err := ReadEntries(path)
	if err != nil {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, common.WrapError(err, "rebuild ledger index")
	}
	for _, e := range entries {
		l.indexEntry(e)
	}
	logger.Info("ledger.opened", "path", path, "entries", len(entries), "identifiers", len(l.index))
	return l, nil
}

func (l *Ledger) indexEntry(e Entry) {
	if e.Identifier == "" || e.Identifier == constants.UnknownIdentifier {
		return
	}
	st := l.index[e.Identifier]
	if st == nil {
		st = &indexState{}
		l.index[e.Identifier] = st
	}
	switch e.Status {
	case constants.StatusProcessed:
		st.processed = true
	case constants.StatusDuplicate:
		st.duplicates++
	}
}

// IsDuplicate reports whether a prior Processed entry exists for identifier.
func (l *Ledger) IsDuplicate(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.index[identifier]
	return st != nil && st.processed
}

// DuplicateCount returns how many Duplicate entries were logged for
// identifier, used to cap re-delivery noise.
func (l *Ledger) DuplicateCount(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st := l.index[identifier]; st != nil {
		return st.duplicates
	}
	return 0
}

// Append durably writes one entry. The line is flushed and fsynced before
// returning, so a crash immediately after a successful Append still leaves
// the entry visible to the next process start.
func (l *Ledger) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.append(e)
}

// AppendDuplicate appends a Duplicate entry unless the per-identifier log cap
// is already reached. Detection is unaffected by suppression; only log volume
// is bounded. Returns whether the entry was written.
func (l *Ledger) AppendDuplicate(e Entry, maxLogged int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Status = constants.StatusDuplicate
	if st := l.index[e.Identifier]; st != nil && st.duplicates >= maxLogged {
		l.logger.Debug("ledger.duplicate_suppressed", "identifier", e.Identifier, "logged", st.duplicates)
		return false, nil
	}
	if err := l.append(e); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Identifier == "" {
		e.Identifier = constants.UnknownIdentifier
	}

	w := csv.NewWriter(l.f)
	record := []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.FileReference,
		e.OriginalName,
		e.Identifier,
		string(e.Status),
	}
	if err := w.Write(record); err != nil {
		return common.WrapError(err, "write ledger entry")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return common.WrapError(err, "flush ledger entry")
	}
	if err := l.f.Sync(); err != nil {
		return common.WrapError(err, "sync ledger")
	}
	l.indexEntry(e)
	return nil
}

// Close releases the writer lock. Appended entries are already durable.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.f.Close()
	if uerr := l.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// ReadEntries loads every entry from a ledger file. Missing files read as
// empty: a first run has no history.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	var entries []Entry
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse ledger: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse ledger timestamp %q: %w", rec[0], err)
		}
		entries = append(entries, Entry{
			Timestamp:     ts,
			FileReference: rec[1],
			OriginalName:  rec[2],
			Identifier:    rec[3],
			Status:        constants.LedgerStatus(rec[4]),
		})
	}
	return entries, nil
}
