package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v2"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/page"
	"github.com/DeafMist/docsearch/internal/workflow"
)

type uploadOutcome struct {
	path string
	page *page.Page
	err  error
}

func uploadCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("upload needs at least one file", 2)
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	size := c.Int("concurrency")
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return fmt.Errorf("create upload pool: %w", err)
	}
	defer pool.Release()

	outcomes := make([]uploadOutcome, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = s.upload(c.Context, path)
		})
		if err != nil {
			wg.Done()
			outcomes[i] = uploadOutcome{path: path, err: err}
		}
	}
	wg.Wait()

	w := c.App.Writer
	failed := 0
	for _, o := range outcomes {
		fmt.Fprintf(w, "== %s\n", o.path)
		if o.page != nil {
			if err := o.page.RenderUpload(w); err != nil {
				return err
			}
		}
		if o.err != nil {
			failed++
			fmt.Fprintf(w, "error: %v\n", o.err)
		}
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d uploads failed", failed, len(paths)), 1)
	}
	return nil
}

// upload runs one file through its own upload page.
func (s *session) upload(ctx context.Context, path string) uploadOutcome {
	f, err := os.Open(path)
	if err != nil {
		return uploadOutcome{path: path, err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return uploadOutcome{path: path, err: err}
	}

	p := page.New()
	var events workflow.Events
	ctrl := workflow.NewUploadController(s.client, p.UploadRegions(),
		workflow.WithPollOptions(s.pollOptions()),
		workflow.WithUploadLogger(s.log),
	)
	workflow.Wire(&events, ctrl, nil, nil)

	err = events.FileSelected.Publish(ctx, workflow.FileSelected{File: backend.File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Size:        info.Size(),
		Content:     f,
	}})
	return uploadOutcome{path: path, page: p, err: err}
}

func searchCommand(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}

	p := page.New()
	var events workflow.Events
	workflow.Wire(&events, nil,
		workflow.NewSearchRedirector(p.Location, s.cfg.ResultsPage),
		workflow.NewResultsRenderer(s.client, p.ResultsRegions(), s.log),
	)

	query := strings.Join(c.Args().Slice(), " ")
	if err := events.FormSubmitted.Publish(c.Context, workflow.FormSubmitted{Query: query}); err != nil {
		return err
	}

	// A blank query never redirects; the results page then loads without q.
	location := p.Location.Current()
	if location == "" {
		location = s.cfg.ResultsPage
	}
	u, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("parse results location: %w", err)
	}

	loadErr := events.PageLoaded.Publish(c.Context, workflow.PageLoaded{URL: u})
	if err := p.RenderResults(c.App.Writer); err != nil {
		return err
	}
	if loadErr != nil {
		s.log.Error("search failed", slog.Any("err", loadErr))
		return cli.Exit(loadErr.Error(), 1)
	}
	return nil
}
