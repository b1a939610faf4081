package extract

// FileReference identifies a document chosen by the caller. The locator is an
// opaque handle (usually a filesystem path); the caller owns it unless
// Temporary is set.
type FileReference struct {
	Locator  string `json:"locator"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`

	// Temporary marks a spooled copy owned by the pipeline; it is removed
	// once the transaction completes.
	Temporary bool `json:"-"`
}

// UploadResult is the normalized internal record produced from a backend
// payload. Every field is always present on the wire; absent upstream values
// become explicit nulls or the documented defaults, never missing keys.
type UploadResult struct {
	ID                 string         `json:"id"`
	Timestamp          string         `json:"timestamp"` // RFC 3339
	Filename           *string        `json:"filename"`
	FileSize           *int64         `json:"fileSize"`
	OriginalText       *string        `json:"originalText"`
	CorrectedText      *string        `json:"correctedText"`
	RawUrduText        *string        `json:"rawUrduText"`
	StructuredData     any            `json:"structuredData"` // opaque, passed through unmodified
	ExtractionType     string         `json:"extractionType"`
	CorrectionsApplied any            `json:"correctionsApplied"`
	CorrectionStats    map[string]any `json:"correctionStats"`
}
