package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/pagination-go/pkg/cache"
	"github.com/Sternrassler/pagination-go/pkg/config"
	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/fetch"
	"github.com/Sternrassler/pagination-go/pkg/logging"
	"github.com/Sternrassler/pagination-go/pkg/pagination"
)

// app is the state shared by all subcommands.
type app struct {
	configPath   string
	source       string
	totalLocator string
	pageSize     int
	timeout      time.Duration

	file       *config.File
	cache      cache.Cache
	closeCache func() error
	logger     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "pagectl",
		Short:        "Page through local or remote data sources",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeCache != nil {
				return a.closeCache()
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVarP(&a.source, "source", "s", "", "data source: URL or @file.json (overrides the config)")
	flags.StringVar(&a.totalLocator, "total-locator", "", "dotted path of the record total in remote responses")
	flags.IntVar(&a.pageSize, "page-size", 0, "records per page (overrides the config)")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "overall timeout")

	rootCmd.AddCommand(
		newPageCommand(a),
		newDumpCommand(a),
		newServeCommand(a),
	)

	return rootCmd
}

// setup loads the configuration, applies flag overrides and opens the cache.
func (a *app) setup(cmd *cobra.Command) error {
	f, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.source != "" {
		f.Source = a.source
	}
	if a.totalLocator != "" {
		f.TotalLocator = a.totalLocator
	}
	if a.pageSize > 0 {
		f.PageSize = a.pageSize
	}

	logCfg := f.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)
	a.logger = logging.NewLogger(logging.ComponentPagectl)

	c, closeFn, err := f.Cache.OpenCache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	a.file = f
	a.cache = c
	a.closeCache = closeFn
	return nil
}

// engine returns a fetch engine bound to doc and the configured cache.
func (a *app) engine(doc *dom.Document) (*fetch.Engine, error) {
	cfg := fetch.DefaultConfig()
	cfg.Document = doc
	cfg.Cache = a.cache
	return fetch.NewEngine(cfg)
}

// errOutOfRange is returned for pages outside a known total.
var errOutOfRange = errors.New("page out of range")

// pageView is one delivered page.
type pageView struct {
	Page        int    `json:"page"`
	TotalPage   int    `json:"total_page"`
	TotalNumber int    `json:"total_number"`
	Records     []any  `json:"records"`
	Markup      string `json:"markup,omitempty"`
}

// loadPage attaches an instance to a scratch document, requests page and
// waits for the callback or the error handler.
func (a *app) loadPage(ctx context.Context, page int) (*pageView, error) {
	opts, err := a.file.Options()
	if err != nil {
		return nil, err
	}

	doc := dom.NewDocument()
	box := doc.CreateElement("div")
	box.SetID("pagectl")
	doc.Body.AppendChild(box)

	engine, err := a.engine(doc)
	if err != nil {
		return nil, err
	}
	p, err := pagination.New(doc, pagination.WithEngine(engine), pagination.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	type result struct {
		records []any
		model   pagination.Model
	}
	done := make(chan result, 1)
	failed := make(chan error, 1)
	opts.TriggerPagingOnInit = false
	opts.Callback = func(records []any, m pagination.Model) {
		select {
		case done <- result{records, m}:
		default:
		}
	}
	opts.OnError = func(err error, tag fetch.Tag) {
		select {
		case failed <- err:
		default:
		}
	}

	in, err := p.Paginate(box, opts)
	if err != nil {
		return nil, err
	}
	defer in.Destroy()

	// An empty source still has page 1.
	if m := in.Model(); m.TotalKnown && (page < 1 || page > max(m.TotalPage(), 1)) {
		return nil, fmt.Errorf("page %d: %w (1-%d)", page, errOutOfRange, max(m.TotalPage(), 1))
	}
	if page < 1 {
		return nil, fmt.Errorf("page %d: %w", page, errOutOfRange)
	}
	in.Go(page)

	select {
	case r := <-done:
		return &pageView{
			Page:        r.model.PageNumber,
			TotalPage:   r.model.TotalPage(),
			TotalNumber: r.model.TotalNumber,
			Records:     r.records,
			Markup:      in.Element().InnerHTML(),
		}, nil
	case err := <-failed:
		return nil, err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("page %d: timed out", page)
		}
		return nil, ctx.Err()
	}
}
