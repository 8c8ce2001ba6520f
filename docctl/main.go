package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/config"
	"github.com/DeafMist/docsearch/internal/logger"
	"github.com/DeafMist/docsearch/internal/workflow"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			os.Exit(exit.ExitCode())
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "docctl",
		Usage:     "Upload documents for processing and search the processed corpus",
		Writer:    stdout,
		ErrWriter: stderr,
		// main reports errors and picks the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "Document API base URL (default from DOCS_API_URL)",
				EnvVars: []string{"DOCS_API_URL"},
			},
			&cli.BoolFlag{
				Name:  "mock",
				Usage: "Use the built-in fixture backend instead of the API",
			},
			&cli.StringFlag{
				Name:  "mock-fixtures",
				Usage: "YAML file with fixtures for --mock",
			},
			&cli.BoolFlag{
				Name:  "mock-no-delay",
				Usage: "Skip the artificial latency of --mock",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload files and wait for their processing results",
				ArgsUsage: "FILE...",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "concurrency",
						Aliases: []string{"c"},
						Usage:   "Number of files uploaded at once",
						Value:   2,
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Initial delay between status checks",
					},
					&cli.DurationFlag{
						Name:  "poll-max-interval",
						Usage: "Upper bound for the delay between status checks",
					},
					&cli.DurationFlag{
						Name:  "poll-timeout",
						Usage: "Give up waiting for a result after this long",
					},
					&cli.IntFlag{
						Name:  "poll-max-attempts",
						Usage: "Give up after this many status checks (0 for no limit)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search and print both result lists",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "results-page",
						Usage: "Results page the search form redirects to",
					},
				},
			},
		},
	}
}

type session struct {
	cfg    *config.Client
	client backend.Client
	log    *slog.Logger
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("load config: %v", err), 2)
	}
	if c.IsSet("api") {
		cfg.APIURL = c.String("api")
	}
	if c.IsSet("results-page") {
		cfg.ResultsPage = c.String("results-page")
	}
	if c.IsSet("poll-interval") {
		cfg.PollInterval = c.Duration("poll-interval")
	}
	if c.IsSet("poll-max-interval") {
		cfg.PollMaxInterval = c.Duration("poll-max-interval")
	}
	if c.IsSet("poll-timeout") {
		cfg.PollTimeout = c.Duration("poll-timeout")
	}
	if c.IsSet("poll-max-attempts") {
		cfg.PollMaxAttempts = c.Int("poll-max-attempts")
	}

	log := logger.NewCLI(c.App.ErrWriter, "docctl", c.String("log-level"))

	client, err := newClient(c, cfg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, client: client, log: log}, nil
}

func newClient(c *cli.Context, cfg *config.Client) (backend.Client, error) {
	if !c.Bool("mock") {
		client, err := backend.NewHTTPClient(cfg.APIURL)
		if err != nil {
			return nil, cli.Exit(err.Error(), 2)
		}
		return client, nil
	}

	opts := []backend.MockOption{}
	if path := c.String("mock-fixtures"); path != "" {
		fixtures, err := backend.LoadFixtures(path)
		if err != nil {
			return nil, cli.Exit(err.Error(), 2)
		}
		opts = append(opts, backend.WithFixtures(fixtures))
	}
	if c.Bool("mock-no-delay") {
		opts = append(opts, backend.WithLatency(backend.Latency{}))
	}
	return backend.NewMock(opts...), nil
}

func (s *session) pollOptions() workflow.PollOptions {
	opts := workflow.DefaultPollOptions()
	opts.Interval = s.cfg.PollInterval
	opts.MaxInterval = s.cfg.PollMaxInterval
	opts.Timeout = s.cfg.PollTimeout
	opts.MaxAttempts = s.cfg.PollMaxAttempts
	return opts
}
