package constants

import "strings"

// AllowedExtensions holds the default allowed file extensions for document uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// DefaultExtractionType is used when the backend omits extraction_type.
const DefaultExtractionType = "text"

// HistoryCap is the maximum number of retained past results.
const HistoryCap = 20

// HistoryStorageKey is the fixed key for the single durable history record.
const HistoryStorageKey = "fir_history"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMEForExt returns a MIME type for an extension, falling back to octet-stream.
func MIMEForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
