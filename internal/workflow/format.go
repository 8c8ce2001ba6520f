package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/DeafMist/docsearch/internal/models"
)

// FormatStructuredData pretty-prints fields as JSON with two-space
// indentation and keys in sorted order.
func FormatStructuredData(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		return "", fmt.Errorf("format structured data: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// BuildResultContent turns a successful task result into panel content.
// Anything but SUCCESS with a result attached is an error.
func BuildResultContent(res *models.TaskResult) (ResultContent, error) {
	if res == nil {
		return ResultContent{}, errors.New("no task result")
	}
	if res.Status != models.TaskSuccess {
		return ResultContent{}, taskFailed(res)
	}
	if res.Result == nil {
		return ResultContent{}, ErrMissingResult
	}

	data, err := FormatStructuredData(res.Result.StructuredData)
	if err != nil {
		return ResultContent{}, err
	}

	return ResultContent{
		DocumentType:   res.Result.DocumentType,
		StructuredData: data,
		PIISummary:     res.Result.PIIDetected,
	}, nil
}

// SanitizeSnippet escapes snippet for HTML while keeping <mark> highlights.
func SanitizeSnippet(snippet string) string {
	escaped := html.EscapeString(snippet)
	escaped = strings.ReplaceAll(escaped, "&lt;mark&gt;", "<mark>")
	return strings.ReplaceAll(escaped, "&lt;/mark&gt;", "</mark>")
}

// RenderList converts hits into list items, preserving order.
func RenderList(hits []models.DocumentHit) []ListItem {
	items := make([]ListItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, ListItem{
			Title:       hit.Filename,
			Badge:       hit.DocumentType,
			SnippetHTML: SanitizeSnippet(hit.Snippet),
		})
	}
	return items
}
