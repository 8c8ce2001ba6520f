package models

import "time"

// Document represents a processed upload as stored in Elasticsearch.
type Document struct {
	ID             string         `json:"id"`
	TaskID         string         `json:"task_id"`
	Filename       string         `json:"filename"`
	ContentType    string         `json:"content_type"`
	DocumentType   string         `json:"doc_type"`
	Confidence     float64        `json:"confidence"`
	Content        string         `json:"content"`
	Summary        string         `json:"summary"`
	Keywords       []string       `json:"keywords"`
	StructuredData map[string]any `json:"structured_data,omitempty"`
	PIICount       int            `json:"pii_count"`
	Timestamp      time.Time      `json:"timestamp"`
}
