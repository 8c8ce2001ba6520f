package workflow_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/page"
	"github.com/DeafMist/docsearch/internal/workflow"
)

func TestTopicPublishOrderAndErrors(t *testing.T) {
	var topic workflow.Topic[workflow.FormSubmitted]
	var seen []string
	first := errors.New("first")

	topic.Subscribe(func(_ context.Context, ev workflow.FormSubmitted) error {
		seen = append(seen, "a:"+ev.Query)
		return first
	})
	topic.Subscribe(func(_ context.Context, ev workflow.FormSubmitted) error {
		seen = append(seen, "b:"+ev.Query)
		return nil
	})

	err := topic.Publish(context.Background(), workflow.FormSubmitted{Query: "q"})
	require.ErrorIs(t, err, first)
	require.Equal(t, []string{"a:q", "b:q"}, seen)

	var empty workflow.Topic[workflow.PageLoaded]
	require.NoError(t, empty.Publish(context.Background(), workflow.PageLoaded{}))
}

func TestWireEndToEnd(t *testing.T) {
	ctx := context.Background()
	mock := instantMock()
	upload, results := page.New(), page.New()

	var events workflow.Events
	workflow.Wire(&events,
		workflow.NewUploadController(mock, upload.UploadRegions(), workflow.WithPollOptions(fastPoll())),
		workflow.NewSearchRedirector(results.Location, "search.html"),
		workflow.NewResultsRenderer(mock, results.ResultsRegions(), nil),
	)

	// Clearing the selection does nothing.
	require.NoError(t, events.FileSelected.Publish(ctx, workflow.FileSelected{}))
	require.Empty(t, upload.Panels.History())

	file := backend.File{Name: "scan.png", Content: strings.NewReader("img")}
	require.NoError(t, events.FileSelected.Publish(ctx, workflow.FileSelected{File: file}))
	require.Equal(t, workflow.PanelResult, upload.Panels.Visible())

	require.NoError(t, events.FormSubmitted.Publish(ctx, workflow.FormSubmitted{Query: " "}))
	require.Empty(t, results.Location.Visits())

	require.NoError(t, events.FormSubmitted.Publish(ctx, workflow.FormSubmitted{Query: "payment terms"}))
	loc, err := url.Parse(results.Location.Current())
	require.NoError(t, err)

	require.NoError(t, events.PageLoaded.Publish(ctx, workflow.PageLoaded{URL: loc}))
	require.Equal(t, "Showing results for 'payment terms'", results.Summary.String())
	require.Len(t, results.Exact.Items(), 2)

	require.Equal(t, []string{"upload:scan.png", "status:task-id-12345", "search:payment terms"}, mock.Calls())
}

func TestWireSkipsMissingControllers(t *testing.T) {
	p := page.New()
	var events workflow.Events
	workflow.Wire(&events, nil, workflow.NewSearchRedirector(p.Location, ""), nil)

	require.NoError(t, events.FileSelected.Publish(context.Background(), workflow.FileSelected{
		File: backend.File{Name: "a.txt", Content: strings.NewReader("a")},
	}))
	require.NoError(t, events.PageLoaded.Publish(context.Background(), workflow.PageLoaded{}))
	require.NoError(t, events.FormSubmitted.Publish(context.Background(), workflow.FormSubmitted{Query: "x"}))
	require.Equal(t, "search.html?q=x", p.Location.Current())
}
