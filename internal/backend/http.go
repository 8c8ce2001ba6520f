package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/DeafMist/docsearch/internal/models"
)

const maxResponseBytes = 4 << 20

// HTTPClient talks to the api service. Every success body is checked against
// a JSON schema before it is decoded, so a missing or malformed field surfaces
// as ErrMalformedResponse instead of a zero value.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	schemas *responseSchemas
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.http = c }
}

// NewHTTPClient builds a client for the api service rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		schemas: schemas,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UploadFile streams the file as multipart form field "file" to POST /uploadfile.
func (c *HTTPClient) UploadFile(ctx context.Context, file File) (models.UploadTask, error) {
	if file.Content == nil {
		return models.UploadTask{}, ErrEmptyFile
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", file.Name)
		if err == nil {
			_, err = io.Copy(part, file.Content)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("uploadfile"), pr)
	if err != nil {
		pr.Close()
		return models.UploadTask{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var task models.UploadTask
	if err := c.do(req, c.schemas.upload, &task); err != nil {
		return models.UploadTask{}, fmt.Errorf("upload %s: %w", file.Name, err)
	}
	return task, nil
}

// GetTaskStatus fetches GET /tasks/{task_id}.
func (c *HTTPClient) GetTaskStatus(ctx context.Context, taskID string) (*models.TaskResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("tasks", url.PathEscape(taskID)), nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	var res models.TaskResult
	if err := c.do(req, c.schemas.task, &res); err != nil {
		return nil, fmt.Errorf("task %s: %w", taskID, err)
	}
	return &res, nil
}

// HybridSearch fetches GET /hybrid_search?q=query.
func (c *HTTPClient) HybridSearch(ctx context.Context, query string) (*models.SearchResultSet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	endpoint := c.endpoint("hybrid_search") + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	var set models.SearchResultSet
	if err := c.do(req, c.schemas.search, &set); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &set, nil
}

func (c *HTTPClient) endpoint(segments ...string) string {
	return c.baseURL.String() + "/" + strings.Join(segments, "/")
}

func (c *HTTPClient) do(req *http.Request, schema *jsonschema.Schema, out any) error {
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return statusError(res.StatusCode, body)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	dec = json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func statusError(status int, body []byte) error {
	var eb errorBody
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}

	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = ErrTaskNotFound
	case http.StatusRequestEntityTooLarge:
		sentinel = ErrFileTooLarge
	case http.StatusUnsupportedMediaType:
		sentinel = ErrUnsupportedType
	case http.StatusBadRequest:
		for _, known := range []error{ErrEmptyFile, ErrEmptyQuery} {
			if strings.Contains(msg, known.Error()) {
				sentinel = known
			}
		}
	}
	if sentinel == nil && status >= http.StatusInternalServerError {
		sentinel = ErrUnavailable
	}
	if sentinel == nil {
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
	if msg == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
