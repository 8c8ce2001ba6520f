package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DeafMist/docsearch/internal/models"
)

// Fixtures are the canned responses served by Mock.
type Fixtures struct {
	TaskID string
	Result models.DocumentResult
	Search models.SearchResultSet
}

type fixtureFile struct {
	TaskID string `yaml:"task_id"`
	Result struct {
		DocumentType   string         `yaml:"document_type"`
		StructuredData map[string]any `yaml:"structured_data"`
		PIIDetected    string         `yaml:"pii_detected"`
	} `yaml:"result"`
	Search struct {
		ExactMatches    []fixtureHit `yaml:"exact_matches"`
		SemanticMatches []fixtureHit `yaml:"semantic_matches"`
	} `yaml:"search"`
}

type fixtureHit struct {
	Filename     string `yaml:"filename"`
	DocumentType string `yaml:"type"`
	Snippet      string `yaml:"snippet"`
}

// DefaultFixtures returns the demo invoice and the "payment terms" result lists.
func DefaultFixtures() Fixtures {
	return Fixtures{
		TaskID: "task-id-12345",
		Result: models.DocumentResult{
			DocumentType: "Invoice (99.2%)",
			StructuredData: map[string]any{
				"vendor":         "CDG",
				"invoice_number": "INV-2023-015",
				"date":           "2023-10-26",
				"total_amount":   json.Number("7500.00"),
			},
			PIIDetected: "2 items masked: ***-**-****",
		},
		Search: models.SearchResultSet{
			ExactMatches: []models.DocumentHit{
				{Filename: "Client_Contract_Alpha.pdf", DocumentType: "Contract", Snippet: "...our standard <mark>payment terms</mark> are Net 30..."},
				{Filename: "Q4_Financial_Report.pdf", DocumentType: "Report", Snippet: "...the section on <mark>payment terms</mark> clearly outlines..."},
			},
			SemanticMatches: []models.DocumentHit{
				{Filename: "Invoice_Processing_SOP.pdf", DocumentType: "Policy", Snippet: "This document outlines the standard operating procedure for handling incoming invoices..."},
				{Filename: "Accounts_Payable_Guide.docx", DocumentType: "Guide", Snippet: "A comprehensive guide for the AP team on managing billing cycles..."},
			},
		},
	}
}

// LoadFixtures reads fixtures from a YAML file. Numeric structured fields
// keep their literal text, so 7500.00 stays 7500.00.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures.
func ParseFixtures(data []byte) (Fixtures, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}

	var raw fixtureFile
	if err := root.Decode(&raw); err != nil {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}

	f := Fixtures{
		TaskID: raw.TaskID,
		Result: models.DocumentResult{
			DocumentType:   raw.Result.DocumentType,
			StructuredData: numericLiterals(&root, raw.Result.StructuredData),
			PIIDetected:    raw.Result.PIIDetected,
		},
	}
	for _, h := range raw.Search.ExactMatches {
		f.Search.ExactMatches = append(f.Search.ExactMatches, models.DocumentHit(h))
	}
	for _, h := range raw.Search.SemanticMatches {
		f.Search.SemanticMatches = append(f.Search.SemanticMatches, models.DocumentHit(h))
	}

	if f.TaskID == "" {
		return Fixtures{}, fmt.Errorf("fixtures: task_id is required")
	}
	return f, nil
}

// numericLiterals swaps YAML ints and floats under result.structured_data for
// json.Number built from the source text.
func numericLiterals(root *yaml.Node, fields map[string]any) map[string]any {
	node := lookup(root, "result", "structured_data")
	if node == nil || node.Kind != yaml.MappingNode {
		return fields
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind == yaml.ScalarNode && (val.Tag == "!!int" || val.Tag == "!!float") {
			out[key.Value] = json.Number(val.Value)
		}
	}
	return out
}

func lookup(n *yaml.Node, path ...string) *yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

// Latency holds the artificial delay of each Mock operation.
type Latency struct {
	Upload time.Duration
	Status time.Duration
	Search time.Duration
}

// DefaultLatency mirrors the demo timings: 0.5s, 2.5s and 1s.
func DefaultLatency() Latency {
	return Latency{
		Upload: 500 * time.Millisecond,
		Status: 2500 * time.Millisecond,
		Search: time.Second,
	}
}

// Mock is a fixed-latency, fixed-output backend. Status always resolves to
// SUCCESS unless overridden with WithStatus; failures can be injected per
// operation.
type Mock struct {
	fixtures Fixtures
	latency  Latency

	mu        sync.Mutex
	status    models.TaskStatus
	uploadErr error
	statusErr error
	searchErr error
	calls     []string
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithFixtures replaces the canned responses.
func WithFixtures(f Fixtures) MockOption {
	return func(m *Mock) { m.fixtures = f }
}

// WithLatency replaces the artificial delays.
func WithLatency(l Latency) MockOption {
	return func(m *Mock) { m.latency = l }
}

// WithStatus makes GetTaskStatus report status instead of SUCCESS.
func WithStatus(status models.TaskStatus) MockOption {
	return func(m *Mock) { m.status = status }
}

// WithErrors injects failures for upload, status and search, in that order.
// Nil entries leave the operation succeeding.
func WithErrors(upload, status, search error) MockOption {
	return func(m *Mock) {
		m.uploadErr = upload
		m.statusErr = status
		m.searchErr = search
	}
}

// NewMock builds the fixture backend.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		fixtures: DefaultFixtures(),
		latency:  DefaultLatency(),
		status:   models.TaskSuccess,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UploadFile returns the fixture task id after the upload delay.
func (m *Mock) UploadFile(ctx context.Context, file File) (models.UploadTask, error) {
	m.record("upload:" + file.Name)
	if err := wait(ctx, m.latency.Upload); err != nil {
		return models.UploadTask{}, err
	}
	if m.uploadErr != nil {
		return models.UploadTask{}, m.uploadErr
	}
	return models.UploadTask{TaskID: m.fixtures.TaskID}, nil
}

// GetTaskStatus returns the fixture result after the status delay.
func (m *Mock) GetTaskStatus(ctx context.Context, taskID string) (*models.TaskResult, error) {
	m.record("status:" + taskID)
	if err := wait(ctx, m.latency.Status); err != nil {
		return nil, err
	}
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if taskID != m.fixtures.TaskID {
		return nil, ErrTaskNotFound
	}

	res := &models.TaskResult{TaskID: taskID, Status: m.status}
	switch m.status {
	case models.TaskSuccess:
		result := m.fixtures.Result
		result.StructuredData = maps.Clone(result.StructuredData)
		res.Result = &result
	case models.TaskFailure:
		res.Message = "processing failed"
	}
	return res, nil
}

// HybridSearch returns the fixture lists regardless of query.
func (m *Mock) HybridSearch(ctx context.Context, query string) (*models.SearchResultSet, error) {
	m.record("search:" + query)
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := wait(ctx, m.latency.Search); err != nil {
		return nil, err
	}
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	set := models.SearchResultSet{
		ExactMatches:    append([]models.DocumentHit(nil), m.fixtures.Search.ExactMatches...),
		SemanticMatches: append([]models.DocumentHit(nil), m.fixtures.Search.SemanticMatches...),
	}
	return &set, nil
}

// Calls lists the operations invoked so far, e.g. "upload:a.pdf".
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
