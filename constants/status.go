package constants

// LedgerStatus is the canonical terminal status recorded for a file in the
// processing ledger.
type LedgerStatus string

// Stable values (these exact strings appear in the ledger file).
const (
	StatusProcessed LedgerStatus = "Processed" // reconciled, uploaded, links written back
	StatusDuplicate LedgerStatus = "Duplicate" // identifier already Processed in a prior run
	StatusUnmatched LedgerStatus = "Unmatched" // no identifier could be extracted
	StatusError     LedgerStatus = "Error"     // record not found, upload or write-back failure
)

// UnknownIdentifier is written in the ledger's identifier field when no
// identifier could be extracted for a file.
const UnknownIdentifier = "Unknown"

// Outcome is the terminal outcome of one batch, used by the archiver to pick
// a filesystem transition.
type Outcome string

const (
	OutcomeProcessed     Outcome = "PROCESSED"
	OutcomeUnmatched     Outcome = "UNMATCHED"
	OutcomeDuplicate     Outcome = "DUPLICATE"
	OutcomeNotFound      Outcome = "NOT_FOUND"
	OutcomeUploadFailed  Outcome = "UPLOAD_FAILED"
	OutcomeWriteBackFail Outcome = "WRITEBACK_FAILED"
	OutcomeTransient     Outcome = "TRANSIENT_ERROR"
)
