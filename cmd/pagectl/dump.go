package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/pagination-go/pkg/datasource"
	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/fetch"
	"github.com/Sternrassler/pagination-go/pkg/metrics"
)

func newDumpCommand(a *app) *cobra.Command {
	var (
		concurrency int
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Args:  cobra.NoArgs,
		Short: "Fetch every page of a remote source in parallel",
		Long: `Fetch page 1 to learn the record total, then the remaining pages with
a bounded worker pool. Each page is written as one JSON line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			pages, err := a.remotePages()
			if err != nil {
				return err
			}
			bf := fetch.NewBatchFetcher(pages, fetch.BatchConfig{MaxConcurrency: concurrency})

			results, fetchErr := bf.FetchAll(ctx)
			if err := writePages(cmd, results); err != nil {
				return err
			}
			if showMetrics {
				if err := writeMetrics(cmd); err != nil {
					return err
				}
			}
			return fetchErr
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", fetch.DefaultBatchConfig().MaxConcurrency, "parallel page requests")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the pagination metrics after the dump")
	return cmd
}

// remotePages builds the page fetcher for the configured remote source.
func (a *app) remotePages() (fetch.RemotePages, error) {
	opts, err := a.file.Options()
	if err != nil {
		return fetch.RemotePages{}, err
	}
	if opts.DataSource.Kind() != datasource.KindRemote {
		return fetch.RemotePages{}, errors.New("dump requires a remote source")
	}
	if opts.TotalNumberLocator == nil && *opts.TotalNumber <= 0 {
		return fetch.RemotePages{}, errors.New("dump requires --total-locator or a total_number")
	}

	engine, err := a.engine(dom.NewDocument())
	if err != nil {
		return fetch.RemotePages{}, err
	}
	ajax, err := fetch.MergeAjax(opts.Ajax)
	if err != nil {
		return fetch.RemotePages{}, err
	}

	return fetch.RemotePages{
		Engine: engine,
		Request: fetch.Request{
			URL:      opts.DataSource.URL(),
			PageSize: opts.PageSize,
			Alias:    opts.Alias,
			Ajax:     ajax,
		},
		Locator:     opts.Locator,
		TotalNumber: opts.TotalNumberLocator,
		StaticTotal: *opts.TotalNumber,
	}, nil
}

func writePages(cmd *cobra.Command, results map[int][]any) error {
	numbers := make([]int, 0, len(results))
	for n := range results {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, n := range numbers {
		if err := enc.Encode(pageView{Page: n, Records: results[n]}); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(cmd *cobra.Command) error {
	samples, err := metrics.Snapshot()
	if err != nil {
		return err
	}
	for _, s := range samples {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %g\n", s.Name, s.Value)
	}
	return nil
}
