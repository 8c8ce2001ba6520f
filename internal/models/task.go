package models

import "time"

// TaskStatus is the lifecycle state of an upload processing task.
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailure TaskStatus = "FAILURE"
)

// IsTerminal reports whether no further status change is expected.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskSuccess, TaskFailure:
		return true
	default:
		return false
	}
}

// UploadTask is returned by the upload call and consumed by status polling.
type UploadTask struct {
	TaskID string `json:"task_id"`
}

// DocumentResult is the processing output shown in the result panel.
// StructuredData values are strings or json.Number.
type DocumentResult struct {
	DocumentType   string         `json:"document_type"`
	StructuredData map[string]any `json:"structured_data"`
	PIIDetected    string         `json:"pii_detected"`
}

// TaskResult is the status payload served by GET /tasks/{task_id}.
type TaskResult struct {
	TaskID  string          `json:"task_id"`
	Status  TaskStatus      `json:"status"`
	Result  *DocumentResult `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Task is the persisted record behind a TaskResult.
type Task struct {
	ID          string          `json:"id"`
	Status      TaskStatus      `json:"status"`
	Filename    string          `json:"filename"`
	ContentType string          `json:"content_type"`
	Size        int64           `json:"size"`
	Result      *DocumentResult `json:"result,omitempty"`
	Message     string          `json:"message,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TaskResult projects the stored task onto its wire shape.
func (t Task) TaskResult() *TaskResult {
	return &TaskResult{
		TaskID:  t.ID,
		Status:  t.Status,
		Result:  t.Result,
		Message: t.Message,
	}
}
