// Package fetch performs remote page requests for paginated data sources.
//
// Two transports are supported: a standard HTTP transport that sends the
// paging parameters in the query string (GET) or a JSON body, and a JSONP
// transport that injects a script element into a document and waits for the
// padded callback. Callbacks live in an engine-scoped registry rather than
// any global namespace.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pagination-go/pkg/cache"
	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/logging"
)

// Config holds the engine configuration.
type Config struct {
	// HTTPClient performs standard transport requests.
	HTTPClient *http.Client

	// Cache stores GET responses of requests with a CacheTTL (optional).
	Cache cache.Cache

	// Document receives the injected JSONP script elements.
	// A private document is used when nil.
	Document *dom.Document

	// ScriptLoader loads injected scripts (default: HTTPScriptLoader).
	ScriptLoader ScriptLoader

	// JSONPTimeout is the default JSONP timeout.
	JSONPTimeout time.Duration
}

// DefaultConfig returns a default engine configuration.
func DefaultConfig() Config {
	return Config{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		JSONPTimeout: 20 * time.Second,
	}
}

// Engine performs remote page requests.
type Engine struct {
	httpClient   *http.Client
	cache        cache.Cache
	doc          *dom.Document
	loader       ScriptLoader
	callbacks    *Callbacks
	jsonpTimeout time.Duration
	logger       zerolog.Logger
}

// NewEngine creates a new fetch engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if cfg.JSONPTimeout <= 0 {
		return nil, fmt.Errorf("jsonp timeout must be > 0 (got %s)", cfg.JSONPTimeout)
	}

	doc := cfg.Document
	if doc == nil {
		doc = dom.NewDocument()
	}
	loader := cfg.ScriptLoader
	if loader == nil {
		loader = &HTTPScriptLoader{Client: cfg.HTTPClient}
	}

	return &Engine{
		httpClient:   cfg.HTTPClient,
		cache:        cfg.Cache,
		doc:          doc,
		loader:       loader,
		callbacks:    NewCallbacks(),
		jsonpTimeout: cfg.JSONPTimeout,
		logger:       logging.NewLogger(logging.ComponentFetch),
	}, nil
}

// Callbacks returns the engine's pending JSONP callback registry.
func (e *Engine) Callbacks() *Callbacks {
	return e.callbacks
}

// Do performs req and returns the decoded JSON response.
// Cancelling ctx abandons the request and returns ctx.Err().
func (e *Engine) Do(ctx context.Context, req Request) (any, error) {
	if req.IsJSONP() {
		return e.doJSONP(ctx, req)
	}
	return e.doStandard(ctx, req)
}

func (e *Engine) doStandard(ctx context.Context, req Request) (any, error) {
	method := req.method()
	query := req.Query()

	startTime := time.Now()
	defer func() {
		fetchRequestDuration.WithLabelValues(transportStandard).Observe(time.Since(startTime).Seconds())
	}()

	if req.Ajax.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Ajax.Timeout)
		defer cancel()
	}

	useCache := e.cache != nil && method == http.MethodGet && req.Ajax.CacheTTL > 0
	cacheKey := cache.Key{URL: req.URL, Method: method, Params: query}
	if useCache {
		entry, err := e.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			var data any
			if err := json.Unmarshal(entry.Data, &data); err == nil {
				fetchRequestsTotal.WithLabelValues(transportCache, strconv.Itoa(entry.StatusCode)).Inc()
				e.logger.Debug().Str("key", cacheKey.String()).Msg("Serving page from cache")
				return data, nil
			}
			e.logger.Warn().Str("key", cacheKey.String()).Msg("Discarding undecodable cache entry")
		case !errors.Is(err, cache.ErrCacheMiss):
			e.logger.Warn().Err(err).Str("url", req.URL).Msg("Cache get error")
		}
	}

	target := req.URL
	var body io.Reader
	if method == http.MethodGet {
		if qs := query.Encode(); qs != "" {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + qs
		}
	} else {
		payload, err := encodeBody(req)
		if err != nil {
			return nil, e.fail(&Error{Tag: TagFetch, Message: "encode request body", Err: err})
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, e.fail(&Error{Tag: TagFetch, Message: "create request", Err: err})
	}
	for k, v := range req.Ajax.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Accept", "application/json")

	e.logger.Debug().
		Str("url", target).
		Str("method", method).
		Int("page", req.PageNumber).
		Msg("Executing page request")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, ctxErr
		}
		fetchRequestsTotal.WithLabelValues(transportStandard, "network_error").Inc()
		return nil, e.fail(&Error{Tag: TagFetch, Message: "request failed", Err: err})
	}
	defer resp.Body.Close()

	fetchRequestsTotal.WithLabelValues(transportStandard, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, e.fail(&Error{
			Tag:        TagFetch,
			StatusCode: resp.StatusCode,
			Message:    "network response was not ok",
		})
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.fail(&Error{Tag: TagFetch, Message: "read response", Err: err})
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, e.fail(&Error{Tag: TagFetch, Message: "decode response", Err: err})
	}

	if useCache {
		if err := e.cache.Set(ctx, cacheKey, cache.NewEntry(raw, resp.StatusCode, req.Ajax.CacheTTL)); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			e.logger.Debug().Str("key", cacheKey.String()).Dur("ttl", req.Ajax.CacheTTL).Msg("Cached response")
		}
	}
	return data, nil
}

func encodeBody(req Request) ([]byte, error) {
	switch b := req.Ajax.Body.(type) {
	case nil:
		return json.Marshal(req.Params())
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

func (e *Engine) fail(err *Error) error {
	fetchErrorsTotal.WithLabelValues(string(err.Tag)).Inc()
	e.logger.Warn().
		Err(err.Err).
		Str("tag", string(err.Tag)).
		Int("status", err.StatusCode).
		Msg(err.Message)
	return err
}
