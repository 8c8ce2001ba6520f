package processing

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// supportedTypes maps accepted upload extensions to their content type.
var supportedTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DetectType returns the normalized extension and content type of filename,
// or ok=false when uploads of that kind are not accepted.
func DetectType(filename string) (ext, contentType string, ok bool) {
	ext = strings.ToLower(filepath.Ext(filename))
	contentType, ok = supportedTypes[ext]
	return ext, contentType, ok
}

// IsTextual reports whether content of this type can be read as text directly.
func IsTextual(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/json"
}

var filenameSeparators = regexp.MustCompile(`[_\-.]+`)

// ExtractText returns the text to analyze for an uploaded file. Text-like
// content is used as is; for anything else, which would need OCR, the words
// of the file name stand in.
func ExtractText(data []byte, contentType, filename string) string {
	if IsTextual(contentType) && utf8.Valid(data) {
		if text := strings.TrimSpace(string(data)); text != "" {
			return text
		}
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return strings.TrimSpace(filenameSeparators.ReplaceAllString(base, " "))
}
