package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for proposal ingestion.
// Scanned-image formats are deliberately absent; there is no OCR path.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether a file extension belongs to the ingestion
// allow-list. The extension may carry a leading dot and any casing.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
