package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/pagination-go/pkg/locator"
)

// BatchConfig holds batch fetcher configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// Buffer size for channels (default: estimated total pages)
	BufferSize int
}

// DefaultBatchConfig returns the default batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		BufferSize:     100,
	}
}

// PageFetcher fetches a single page of records and the total page count.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageNumber int) (records []any, totalPages int, err error)
}

// PageResult is the outcome of fetching one page.
type PageResult struct {
	PageNumber int
	Records    []any
	Error      error
}

// BatchFetcher fetches every page of a remote source with a worker pool.
type BatchFetcher struct {
	fetcher PageFetcher
	config  BatchConfig
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, config BatchConfig) *BatchFetcher {
	def := DefaultBatchConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.BufferSize <= 0 {
		config.BufferSize = def.BufferSize
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches page 1 to learn the page count, then the remaining pages
// in parallel. It returns pageNumber -> records for every fetched page; on a
// worker error the partial result is returned together with the error.
func (bf *BatchFetcher) FetchAll(ctx context.Context) (map[int][]any, error) {
	start := time.Now()

	first, totalPages, err := bf.fetcher.FetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	log.Info().
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	results := map[int][]any{1: first}
	if totalPages <= 1 {
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pageQueue := make(chan int, bf.config.BufferSize)
	pageResults := make(chan PageResult, bf.config.BufferSize)

	go func() {
		defer close(pageQueue)
		for page := 2; page <= totalPages; page++ {
			select {
			case pageQueue <- page:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, pageResults, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
	}()

	var firstErr error
	for result := range pageResults {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", result.PageNumber, result.Error)
				cancel()
			}
			continue
		}
		results[result.PageNumber] = result.Records
	}

	if firstErr != nil {
		log.Warn().
			Err(firstErr).
			Int("fetched_pages", len(results)).
			Int("total_pages", totalPages).
			Msg("Worker error - returning partial results")
		return results, fmt.Errorf("partial data (%d/%d pages): %w", len(results), totalPages, firstErr)
	}

	log.Info().
		Int("pages", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")
	return results, nil
}

func (bf *BatchFetcher) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		records, _, err := bf.fetcher.FetchPage(pageCtx, pageNum)
		cancel()

		select {
		case results <- PageResult{PageNumber: pageNum, Records: records, Error: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
		pagesProcessed++
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("pages_processed", pagesProcessed).
		Msg("Worker completed")
}

// RemotePages fetches pages of a remote source through an Engine.
type RemotePages struct {
	Engine  *Engine
	Request Request
	Locator locator.Spec

	// TotalNumber reads the record total from a raw response.
	// When nil, StaticTotal is used.
	TotalNumber func(response any) int
	StaticTotal int
}

// FetchPage implements PageFetcher.
func (p RemotePages) FetchPage(ctx context.Context, pageNumber int) ([]any, int, error) {
	req := p.Request
	req.PageNumber = pageNumber
	resp, err := p.Engine.Do(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	total := p.StaticTotal
	if p.TotalNumber != nil {
		total = p.TotalNumber(resp)
	}
	records, err := locator.Resolve(resp, p.Locator)
	if err != nil {
		return nil, 0, err
	}

	totalPages := 0
	if req.PageSize > 0 {
		totalPages = (total + req.PageSize - 1) / req.PageSize
	}
	return records, totalPages, nil
}
