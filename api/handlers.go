package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/config"
	"github.com/DeafMist/docsearch/internal/models"
)

// multipartOverhead is the room left for multipart headers on top of the
// file size limit.
const multipartOverhead = 64 << 10

type healthCheck func(ctx context.Context) error

// sizedSearcher is implemented by backends that accept a result size.
type sizedSearcher interface {
	HybridSearchN(ctx context.Context, query string, size int) (*models.SearchResultSet, error)
}

type server struct {
	log    *slog.Logger
	cfg    *config.API
	docs   backend.Client
	checks map[string]healthCheck
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Mode   string            `json:"mode,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/uploadfile", s.handleUpload)
	r.Get("/tasks/{task_id}", s.handleTask)
	r.Get("/hybrid_search", s.handleSearch)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	if s.cfg.Mock {
		resp.Mode = "mock"
	}
	status := http.StatusOK
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected multipart/form-data"})
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: `missing "file" field`})
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		task, err := s.docs.UploadFile(r.Context(), backend.File{
			Name:        part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Content:     part,
		})
		_ = part.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
		return
	}
}

func (s *server) handleTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.docs.GetTaskStatus(ctx, chi.URLParam(r, "task_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, r, backend.ErrEmptyQuery)
		return
	}

	var (
		set *models.SearchResultSet
		err error
	)
	if sized, ok := s.docs.(sizedSearcher); ok {
		size := clampInt(r.URL.Query().Get("size"), s.cfg.SearchSize, s.cfg.MaxSearchSize)
		set, err = sized.HybridSearchN(ctx, query, size)
	} else {
		set, err = s.docs.HybridSearch(ctx, query)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(set))
}

// nonNil makes empty lists serialize as [] rather than null.
func nonNil(set *models.SearchResultSet) *models.SearchResultSet {
	if set == nil {
		set = &models.SearchResultSet{}
	}
	if set.ExactMatches == nil {
		set.ExactMatches = []models.DocumentHit{}
	}
	if set.SemanticMatches == nil {
		set.SemanticMatches = []models.DocumentHit{}
	}
	return set
}

// errorStatus maps backend errors onto HTTP statuses. Known errors keep
// their text so clients can match on it.
func errorStatus(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, backend.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, backend.ErrFileTooLarge.Error()
	case errors.Is(err, backend.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, backend.ErrUnsupportedType.Error()
	case errors.Is(err, backend.ErrEmptyFile):
		return http.StatusBadRequest, backend.ErrEmptyFile.Error()
	case errors.Is(err, backend.ErrEmptyQuery):
		return http.StatusBadRequest, backend.ErrEmptyQuery.Error()
	case errors.Is(err, backend.ErrTaskNotFound):
		return http.StatusNotFound, backend.ErrTaskNotFound.Error()
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, backend.ErrUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("err", err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", attrs...)
	} else {
		s.log.Debug("request rejected", attrs...)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
