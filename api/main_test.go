package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/config"
	"github.com/DeafMist/docsearch/internal/logger"
	"github.com/DeafMist/docsearch/internal/models"
)

func testConfig() *config.API {
	return &config.API{MaxUploadBytes: 1 << 10, SearchSize: 10, MaxSearchSize: 50, Mock: true}
}

func newTestServer(t *testing.T, client backend.Client, checks map[string]healthCheck) *httptest.Server {
	t.Helper()
	srv := &server{log: logger.Discard(), cfg: testConfig(), docs: client, checks: checks}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func instantMock(opts ...backend.MockOption) *backend.Mock {
	return backend.NewMock(append([]backend.MockOption{backend.WithLatency(backend.Latency{})}, opts...)...)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

func TestUploadEndpoint(t *testing.T) {
	mock := instantMock()
	ts := newTestServer(t, mock, nil)

	body, ct := multipartBody(t, "file", "invoice.pdf", "%PDF")
	res, err := http.Post(ts.URL+"/uploadfile", ct, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var task models.UploadTask
	decode(t, res, &task)
	require.Equal(t, "task-id-12345", task.TaskID)
	require.Equal(t, []string{"upload:invoice.pdf"}, mock.Calls())
}

func TestUploadEndpointRejects(t *testing.T) {
	ts := newTestServer(t, instantMock(), nil)

	res, err := http.Post(ts.URL+"/uploadfile", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	body, ct := multipartBody(t, "attachment", "a.pdf", "x")
	res, err = http.Post(ts.URL+"/uploadfile", ct, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	var e errorResponse
	decode(t, res, &e)
	require.Equal(t, `missing "file" field`, e.Error)
}

// readingBackend drains the upload body like the real service does.
type readingBackend struct {
	*backend.Mock
}

func (b readingBackend) UploadFile(ctx context.Context, file backend.File) (models.UploadTask, error) {
	if _, err := io.Copy(io.Discard, file.Content); err != nil {
		return models.UploadTask{}, fmt.Errorf("write upload file: %w", err)
	}
	return b.Mock.UploadFile(ctx, file)
}

func TestUploadEndpointBodyLimit(t *testing.T) {
	ts := newTestServer(t, readingBackend{instantMock()}, nil)

	body, ct := multipartBody(t, "file", "big.txt", strings.Repeat("x", 100<<10))
	res, err := http.Post(ts.URL+"/uploadfile", ct, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode)
	var e errorResponse
	decode(t, res, &e)
	require.Equal(t, backend.ErrFileTooLarge.Error(), e.Error)
}

func TestTaskEndpoint(t *testing.T) {
	ts := newTestServer(t, instantMock(), nil)

	res, err := http.Get(ts.URL + "/tasks/task-id-12345")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var raw map[string]any
	decode(t, res, &raw)
	require.Equal(t, "SUCCESS", raw["status"])
	result := raw["result"].(map[string]any)
	require.Equal(t, "Invoice (99.2%)", result["document_type"])
	require.Equal(t, "2 items masked: ***-**-****", result["pii_detected"])
	require.EqualValues(t, 7500, result["structured_data"].(map[string]any)["total_amount"])

	res, err = http.Get(ts.URL + "/tasks/nope")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	var e errorResponse
	decode(t, res, &e)
	require.Equal(t, "task not found", e.Error)
}

func TestSearchEndpoint(t *testing.T) {
	mock := instantMock()
	ts := newTestServer(t, mock, nil)

	res, err := http.Get(ts.URL + "/hybrid_search?q=payment%20terms")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var set models.SearchResultSet
	decode(t, res, &set)
	require.Len(t, set.ExactMatches, 2)
	require.Len(t, set.SemanticMatches, 2)
	require.Equal(t, "Contract", set.ExactMatches[0].DocumentType)

	res, err = http.Get(ts.URL + "/hybrid_search?q=%20")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	require.Equal(t, []string{"search:payment terms"}, mock.Calls())
}

type sizedMock struct {
	*backend.Mock
	sizes []int
}

func (s *sizedMock) HybridSearchN(ctx context.Context, query string, size int) (*models.SearchResultSet, error) {
	s.sizes = append(s.sizes, size)
	return &models.SearchResultSet{}, nil
}

func TestSearchEndpointSize(t *testing.T) {
	sized := &sizedMock{Mock: instantMock()}
	ts := newTestServer(t, sized, nil)

	for _, q := range []string{"q=a", "q=a&size=5", "q=a&size=500", "q=a&size=-1"} {
		res, err := http.Get(ts.URL + "/hybrid_search?" + q)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var raw map[string]json.RawMessage
		decode(t, res, &raw)
		require.JSONEq(t, "[]", string(raw["exact_matches"]))
		require.JSONEq(t, "[]", string(raw["semantic_matches"]))
	}
	require.Equal(t, []int{10, 5, 50, 10}, sized.sizes)
}

func TestHealthEndpoint(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	ts := newTestServer(t, instantMock(), map[string]healthCheck{"elasticsearch": ok, "kafka": ok})
	res, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var h healthResponse
	decode(t, res, &h)
	require.Equal(t, "ok", h.Status)
	require.Equal(t, map[string]string{"elasticsearch": "ok", "kafka": "ok"}, h.Checks)

	ts = newTestServer(t, instantMock(), map[string]healthCheck{"elasticsearch": ok, "kafka": down})
	res, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	decode(t, res, &h)
	require.Equal(t, "degraded", h.Status)
	require.Equal(t, "connection refused", h.Checks["kafka"])
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{err: fmt.Errorf("wrap: %w", backend.ErrUnsupportedType), status: http.StatusUnsupportedMediaType, msg: "unsupported file type"},
		{err: backend.ErrFileTooLarge, status: http.StatusRequestEntityTooLarge, msg: "file too large"},
		{err: &http.MaxBytesError{Limit: 1}, status: http.StatusRequestEntityTooLarge, msg: "file too large"},
		{err: backend.ErrEmptyFile, status: http.StatusBadRequest, msg: "file is empty"},
		{err: backend.ErrEmptyQuery, status: http.StatusBadRequest, msg: "query is empty"},
		{err: backend.ErrTaskNotFound, status: http.StatusNotFound, msg: "task not found"},
		{err: context.DeadlineExceeded, status: http.StatusServiceUnavailable, msg: "backend unavailable"},
		{err: errors.New("disk on fire"), status: http.StatusInternalServerError, msg: "internal error"},
	}
	for _, tt := range tests {
		status, msg := errorStatus(tt.err)
		require.Equal(t, tt.status, status, tt.err.Error())
		require.Equal(t, tt.msg, msg)
	}
}

// The HTTP client and the handlers must agree on the wire format.
func TestHTTPClientRoundTrip(t *testing.T) {
	ts := newTestServer(t, instantMock(), nil)
	client, err := backend.NewHTTPClient(ts.URL)
	require.NoError(t, err)
	ctx := context.Background()

	task, err := client.UploadFile(ctx, backend.File{Name: "invoice.pdf", Content: strings.NewReader("%PDF")})
	require.NoError(t, err)
	require.Equal(t, "task-id-12345", task.TaskID)

	res, err := client.GetTaskStatus(ctx, task.TaskID)
	require.NoError(t, err)
	require.Equal(t, models.TaskSuccess, res.Status)
	require.Equal(t, json.Number("7500.00"), res.Result.StructuredData["total_amount"])

	_, err = client.GetTaskStatus(ctx, "unknown")
	require.ErrorIs(t, err, backend.ErrTaskNotFound)

	set, err := client.HybridSearch(ctx, "payment terms")
	require.NoError(t, err)
	require.Len(t, set.ExactMatches, 2)

	_, err = client.HybridSearch(ctx, "  ")
	require.ErrorIs(t, err, backend.ErrEmptyQuery)
}
