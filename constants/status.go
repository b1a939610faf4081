package constants

// UploadStatus is the canonical state of an upload transaction.
type UploadStatus string

// Stable values (these exact strings appear in session snapshots).
const (
	UploadStatusIdle      UploadStatus = "IDLE"      // no transaction in progress
	UploadStatusInFlight  UploadStatus = "IN_FLIGHT" // request outstanding
	UploadStatusSucceeded UploadStatus = "SUCCEEDED" // normalized result produced
	UploadStatusFailed    UploadStatus = "FAILED"    // terminal failure for this transaction
)

// Terminal reports whether a status ends a transaction.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusSucceeded || s == UploadStatusFailed
}
