package extract

import (
	"encoding/json"

	"github.com/firlift/firlift/constants"
	"github.com/firlift/firlift/internal/common"
)

// Normalize maps an arbitrary backend payload into an UploadResult, applying
// the per-field fallback chains. It is pure: the same payload always yields
// the same record. ID and Timestamp are left for the caller to stamp.
//
// Fallback chains (first non-null, non-empty source wins):
//
//	filename           <- filename
//	fileSize           <- file_size
//	originalText       <- original_text, raw_urdu_text
//	correctedText      <- corrected_text, corrected_urdu_text
//	rawUrduText        <- raw_urdu_text
//	structuredData     <- fir_structured_data
//	extractionType     <- extraction_type, "text"
//	correctionsApplied <- corrections_applied
//	correctionStats    <- correction_stats, {}
func Normalize(raw []byte) (UploadResult, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return UploadResult{}, common.NewAppError("MALFORMED_RESPONSE", "response body is not valid JSON", common.ErrMalformedResponse)
	}
	return normalizeMap(m), nil
}

func normalizeMap(m map[string]any) UploadResult {
	res := UploadResult{
		Filename:           stringField(m, "filename"),
		FileSize:           intField(m, "file_size"),
		OriginalText:       stringField(m, "original_text", "raw_urdu_text"),
		CorrectedText:      stringField(m, "corrected_text", "corrected_urdu_text"),
		RawUrduText:        stringField(m, "raw_urdu_text"),
		ExtractionType:     constants.DefaultExtractionType,
		CorrectionsApplied: nil,
		CorrectionStats:    map[string]any{},
	}

	if v, ok := m["fir_structured_data"]; ok && v != nil {
		res.StructuredData = v
	}
	if s := stringField(m, "extraction_type"); s != nil {
		res.ExtractionType = *s
	}
	if v, ok := m["corrections_applied"]; ok && v != nil {
		res.CorrectionsApplied = v
	}
	if v, ok := m["correction_stats"].(map[string]any); ok && v != nil {
		res.CorrectionStats = v
	}
	return res
}

// stringField walks the keys in order and returns the first non-empty string.
func stringField(m map[string]any, keys ...string) *string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return &s
		}
	}
	return nil
}

// intField returns the first numeric value under the keys, truncated to int64.
func intField(m map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		if f, ok := m[k].(float64); ok {
			n := int64(f)
			return &n
		}
	}
	return nil
}
