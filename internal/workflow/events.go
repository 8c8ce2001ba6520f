package workflow

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/DeafMist/docsearch/internal/backend"
)

// FileSelected fires when the user picks a file. File.Content is nil when
// the selection was cleared.
type FileSelected struct {
	File backend.File
}

// FormSubmitted fires when the search form is submitted.
type FormSubmitted struct {
	Query string
}

// PageLoaded fires when a page finishes loading at URL.
type PageLoaded struct {
	URL *url.URL
}

// Handler reacts to an event of type T.
type Handler[T any] func(ctx context.Context, ev T) error

// Topic is a typed list of subscribers.
type Topic[T any] struct {
	mu       sync.RWMutex
	handlers []Handler[T]
}

func (t *Topic[T]) Subscribe(h Handler[T]) {
	t.mu.Lock()
	t.handlers = append(t.handlers, h)
	t.mu.Unlock()
}

// Publish calls every subscriber in subscription order and joins their errors.
func (t *Topic[T]) Publish(ctx context.Context, ev T) error {
	t.mu.RLock()
	handlers := append([]Handler[T](nil), t.handlers...)
	t.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Events is the event hub of one page.
type Events struct {
	FileSelected  Topic[FileSelected]
	FormSubmitted Topic[FormSubmitted]
	PageLoaded    Topic[PageLoaded]
}

// Wire subscribes the controllers that are present. Nil controllers are
// skipped, so a page can wire only the flows it hosts.
func Wire(ev *Events, upload *UploadController, redirect *SearchRedirector, results *ResultsRenderer) {
	if upload != nil {
		ev.FileSelected.Subscribe(func(ctx context.Context, e FileSelected) error {
			if e.File.Content == nil {
				return nil
			}
			_, err := upload.Submit(ctx, e.File)
			return err
		})
	}
	if redirect != nil {
		ev.FormSubmitted.Subscribe(func(_ context.Context, e FormSubmitted) error {
			redirect.Submit(e)
			return nil
		})
	}
	if results != nil {
		ev.PageLoaded.Subscribe(results.Load)
	}
}
