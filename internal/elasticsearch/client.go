package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/DeafMist/docsearch/internal/models"
)

// ErrNotFound is returned when a task id has no stored record.
var ErrNotFound = errors.New("not found")

const (
	highlightPre  = "<mark>"
	highlightPost = "</mark>"
)

// Client wraps go-elasticsearch with the document and task indices used here.
type Client struct {
	es        *elasticsearch.Client
	index     string
	taskIndex string
	log       *slog.Logger
}

// New instantiates the Elasticsearch client.
func New(addr, index, taskIndex string, logger *slog.Logger) (*Client, error) {
	return newWithConfig(elasticsearch.Config{Addresses: []string{addr}}, index, taskIndex, logger)
}

func newWithConfig(cfg elasticsearch.Config, index, taskIndex string, logger *slog.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, index: index, taskIndex: taskIndex, log: logger}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// EnsureIndices creates the document and task indices when missing.
func (c *Client) EnsureIndices(ctx context.Context) error {
	mappings := map[string]map[string]any{
		c.index:     documentMapping(),
		c.taskIndex: taskMapping(),
	}

	for index, mapping := range mappings {
		res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("check index %s: %w", index, err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			continue
		}

		payload, err := json.Marshal(map[string]any{"mappings": mapping})
		if err != nil {
			return fmt.Errorf("marshal mapping: %w", err)
		}

		res, err = c.es.Indices.Create(index,
			c.es.Indices.Create.WithContext(ctx),
			c.es.Indices.Create.WithBody(bytes.NewReader(payload)),
		)
		if err != nil {
			return fmt.Errorf("create index %s: %w", index, err)
		}
		if res.IsError() {
			body, _ := io.ReadAll(res.Body)
			res.Body.Close()
			// another replica won the race
			if strings.Contains(string(body), "resource_already_exists_exception") {
				continue
			}
			return fmt.Errorf("create index %s failed: %s", index, strings.TrimSpace(string(body)))
		}
		res.Body.Close()
		c.log.Info("created index", slog.String("index", index))
	}

	return nil
}

func documentMapping() map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"id":           map[string]any{"type": "keyword"},
			"task_id":      map[string]any{"type": "keyword"},
			"filename":     map[string]any{"type": "text", "fields": map[string]any{"raw": map[string]any{"type": "keyword"}}},
			"content_type": map[string]any{"type": "keyword"},
			"doc_type":     map[string]any{"type": "keyword"},
			"confidence":   map[string]any{"type": "float"},
			"content":      map[string]any{"type": "text"},
			"summary":      map[string]any{"type": "text"},
			"keywords":     map[string]any{"type": "keyword"},
			"pii_count":    map[string]any{"type": "integer"},
			"timestamp":    map[string]any{"type": "date"},
			"structured_data": map[string]any{
				"type":    "object",
				"enabled": false,
			},
		},
	}
}

func taskMapping() map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"id":         map[string]any{"type": "keyword"},
			"status":     map[string]any{"type": "keyword"},
			"filename":   map[string]any{"type": "keyword"},
			"created_at": map[string]any{"type": "date"},
			"updated_at": map[string]any{"type": "date"},
			"result":     map[string]any{"type": "object", "enabled": false},
		},
	}
}

// IndexDocument writes a processed document into the document index.
func (c *Client) IndexDocument(ctx context.Context, doc models.Document) error {
	return c.put(ctx, c.index, doc.ID, doc, "false")
}

// PutTask creates or replaces a task record. Tasks are refreshed immediately
// so retention and listing see them; status reads go through the realtime GET.
func (c *Client) PutTask(ctx context.Context, task models.Task) error {
	return c.put(ctx, c.taskIndex, task.ID, task, "true")
}

func (c *Client) put(ctx context.Context, index, id string, v any, refresh string) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(payload),
		Refresh:    refresh,
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// GetTask loads a task record by id.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	res, err := c.es.Get(c.taskIndex, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("get task failed: %s", strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Found  bool        `json:"found"`
		Source models.Task `json:"_source"`
	}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	if !parsed.Found {
		return nil, ErrNotFound
	}

	return &parsed.Source, nil
}

type searchHit struct {
	ID        string              `json:"_id"`
	Source    models.Document     `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
}

// HybridSearch runs the lexical lane (phrase match with highlights) and then
// the meaning lane (fuzzy keyword/summary match) excluding lexical hits.
func (c *Client) HybridSearch(ctx context.Context, query string, size int) (*models.SearchResultSet, error) {
	if size <= 0 {
		size = 10
	}
	if size > 200 {
		size = 200
	}

	exact, err := c.search(ctx, buildExactQuery(query, size))
	if err != nil {
		return nil, fmt.Errorf("exact search: %w", err)
	}

	exclude := make([]string, 0, len(exact))
	for _, hit := range exact {
		exclude = append(exclude, hit.ID)
	}

	semantic, err := c.search(ctx, buildSemanticQuery(query, size, exclude))
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	result := &models.SearchResultSet{
		ExactMatches:    make([]models.DocumentHit, 0, len(exact)),
		SemanticMatches: make([]models.DocumentHit, 0, len(semantic)),
	}
	for _, hit := range exact {
		result.ExactMatches = append(result.ExactMatches, toDocumentHit(hit))
	}
	for _, hit := range semantic {
		result.SemanticMatches = append(result.SemanticMatches, toDocumentHit(hit))
	}

	c.log.Debug("hybrid search",
		slog.String("query", query),
		slog.Int("exact", len(result.ExactMatches)),
		slog.Int("semantic", len(result.SemanticMatches)),
	)

	return result, nil
}

func buildExactQuery(query string, size int) map[string]any {
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"type":   "phrase",
				"fields": []string{"filename^2", "summary", "content"},
			},
		},
		"highlight": map[string]any{
			"pre_tags":  []string{highlightPre},
			"post_tags": []string{highlightPost},
			"fields": map[string]any{
				"content": map[string]any{"fragment_size": 120, "number_of_fragments": 1},
				"summary": map[string]any{"number_of_fragments": 0},
			},
		},
		"_source": []string{"filename", "doc_type", "summary"},
	}
}

func buildSemanticQuery(query string, size int, exclude []string) map[string]any {
	boolQuery := map[string]any{
		"must": []map[string]any{
			{
				"multi_match": map[string]any{
					"query":     query,
					"fields":    []string{"keywords^3", "summary^2", "content"},
					"fuzziness": "AUTO",
					"operator":  "or",
				},
			},
		},
	}
	if len(exclude) > 0 {
		boolQuery["must_not"] = []map[string]any{
			{"ids": map[string]any{"values": exclude}},
		}
	}

	return map[string]any{
		"size":    size,
		"query":   map[string]any{"bool": boolQuery},
		"_source": []string{"filename", "doc_type", "summary"},
	}
}

func (c *Client) search(ctx context.Context, body map[string]any) ([]searchHit, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return parsed.Hits.Hits, nil
}

func toDocumentHit(hit searchHit) models.DocumentHit {
	snippet := hit.Source.Summary
	if fragments := hit.Highlight["content"]; len(fragments) > 0 {
		snippet = "..." + strings.TrimSpace(fragments[0]) + "..."
	} else if fragments := hit.Highlight["summary"]; len(fragments) > 0 {
		snippet = fragments[0]
	}

	return models.DocumentHit{
		Filename:     hit.Source.Filename,
		DocumentType: displayType(hit.Source.DocumentType),
		Snippet:      snippet,
	}
}

func displayType(docType string) string {
	r, size := utf8.DecodeRuneInString(docType)
	if r == utf8.RuneError {
		return "Unknown"
	}
	return string(unicode.ToUpper(r)) + docType[size:]
}

// DeleteDocumentsOlderThan removes processed documents whose timestamp is older than maxAge.
func (c *Client) DeleteDocumentsOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	return c.deleteOlderThan(ctx, c.index, "timestamp", maxAge, batchSize)
}

// DeleteTasksOlderThan removes task records created before maxAge.
func (c *Client) DeleteTasksOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	return c.deleteOlderThan(ctx, c.taskIndex, "created_at", maxAge, batchSize)
}

// deleteOlderThan loops batched delete-by-query until a batch deletes fewer
// documents than batchSize.
func (c *Client) deleteOlderThan(ctx context.Context, index, field string, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	totalDeleted := int64(0)

	for {
		body := map[string]any{
			"query": map[string]any{
				"range": map[string]any{
					field: map[string]any{
						"lte": cutoff,
					},
				},
			},
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
		}

		res, err := c.es.DeleteByQuery(
			[]string{index},
			bytes.NewReader(payload),
			c.es.DeleteByQuery.WithContext(ctx),
			c.es.DeleteByQuery.WithWaitForCompletion(true),
			c.es.DeleteByQuery.WithConflicts("proceed"),
			c.es.DeleteByQuery.WithScrollSize(batchSize),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("delete by query: %w", err)
		}

		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode delete response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted

		if parsed.Deleted < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

// Health checks cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
