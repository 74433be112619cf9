package pipeline

// State tracks a batch through its fixed stage sequence. Transitions are
// strictly sequential within one run; a retained batch re-enters at
// Discovered on a later poll cycle when its files are still present.
type State string

const (
	StateDiscovered       State = "DISCOVERED"
	StateStabilized       State = "STABILIZED"
	StateIdentified       State = "IDENTIFIED"
	StateUnidentified     State = "UNIDENTIFIED"
	StateDuplicateSkipped State = "DUPLICATE_SKIPPED"
	StateReconciled       State = "RECONCILED"
	StateNotFoundInStore  State = "NOT_FOUND_IN_STORE"
	StateUploaded         State = "UPLOADED"
	StateUploadFailed     State = "UPLOAD_FAILED"
	StateLedgerCommitted  State = "LEDGER_COMMITTED"

	// Terminal states.
	StateArchived    State = "ARCHIVED"
	StateQuarantined State = "QUARANTINED"
	StateRetained    State = "RETAINED"
)
