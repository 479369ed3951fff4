package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sternrassler/pagination-go/pkg/dom"
)

// Callbacks is a registry of pending JSONP callbacks keyed by callback name.
type Callbacks struct {
	mu      sync.Mutex
	pending map[string]func(any)
}

// NewCallbacks returns an empty registry.
func NewCallbacks() *Callbacks {
	return &Callbacks{pending: make(map[string]func(any))}
}

// Register adds fn under name.
func (c *Callbacks) Register(name string, fn func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[name] = fn
	jsonpPending.Inc()
}

// Unregister removes name. Removing an unknown name is a no-op.
func (c *Callbacks) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[name]; ok {
		delete(c.pending, name)
		jsonpPending.Dec()
	}
}

// Invoke calls the callback registered under name with payload and
// reports whether one was registered.
func (c *Callbacks) Invoke(name string, payload any) bool {
	c.mu.Lock()
	fn, ok := c.pending[name]
	c.mu.Unlock()
	if !ok {
		return false
	}
	fn(payload)
	return true
}

// Len returns the number of pending callbacks.
func (c *Callbacks) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ScriptLoader loads an injected script element. A successful load is
// expected to invoke a callback from callbacks; a returned error is a load
// failure. Load must return once ctx is done.
type ScriptLoader interface {
	Load(ctx context.Context, script *dom.Element, callbacks *Callbacks) error
}

// ScriptLoaderFunc adapts a function to ScriptLoader.
type ScriptLoaderFunc func(ctx context.Context, script *dom.Element, callbacks *Callbacks) error

// Load calls f.
func (f ScriptLoaderFunc) Load(ctx context.Context, script *dom.Element, callbacks *Callbacks) error {
	return f(ctx, script, callbacks)
}

// HTTPScriptLoader fetches the script source over HTTP and executes the
// padded call name(<json>) against the callback registry.
type HTTPScriptLoader struct {
	Client *http.Client
}

// Load implements ScriptLoader.
func (l *HTTPScriptLoader) Load(ctx context.Context, script *dom.Element, callbacks *Callbacks) error {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, script.Attr("src"), nil)
	if err != nil {
		return fmt.Errorf("create script request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("load script: status %d", resp.StatusCode)
	}
	src, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	name, payload, err := ParsePadded(string(src))
	if err != nil {
		return err
	}
	if !callbacks.Invoke(name, payload) {
		return fmt.Errorf("callback %q is not registered", name)
	}
	return nil
}

// ParsePadded splits a JSONP body of the form name(<json>); into the
// callback name and the decoded payload.
func ParsePadded(src string) (string, any, error) {
	s := strings.TrimSpace(src)
	s = strings.TrimPrefix(s, "/**/")
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))

	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("script is not a padded call")
	}
	name := strings.TrimSpace(s[:open])
	var payload any
	if err := json.Unmarshal([]byte(s[open+1:len(s)-1]), &payload); err != nil {
		return "", nil, fmt.Errorf("decode padded payload: %w", err)
	}
	return name, payload, nil
}

func callbackName() string {
	return fmt.Sprintf("paginationCallback%d_%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// jsonpURL returns the script src for req: the paging parameters are
// set on the query and the callback placeholder is replaced by name.
// Without a placeholder the callback parameter is appended.
func jsonpURL(req Request, name string) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range req.Params() {
		q.Set(k, fmt.Sprint(v))
	}

	param := req.Ajax.JSONP
	if param == "" {
		param = "callback"
	}
	if q.Get(param) != "?" {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if q.Get(k) == "?" {
				param = k
				break
			}
		}
	}
	q.Set(param, name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (e *Engine) doJSONP(ctx context.Context, req Request) (any, error) {
	startTime := time.Now()
	defer func() {
		fetchRequestDuration.WithLabelValues(transportJSONP).Observe(time.Since(startTime).Seconds())
	}()

	name := callbackName()
	src, err := jsonpURL(req, name)
	if err != nil {
		return nil, e.fail(&Error{Tag: TagJSONPError, Message: "load failed", Err: err})
	}

	timeout := e.jsonpTimeout
	if req.Ajax.Timeout > 0 {
		timeout = req.Ajax.Timeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payloads := make(chan any, 1)
	loadErrs := make(chan error, 1)

	script := e.doc.CreateElement("script")
	script.SetAttr("src", src)

	e.callbacks.Register(name, func(payload any) {
		select {
		case payloads <- payload:
		default:
		}
	})
	defer func() {
		e.callbacks.Unregister(name)
		script.Remove()
	}()
	e.doc.Body.AppendChild(script)

	e.logger.Debug().
		Str("src", src).
		Int("page", req.PageNumber).
		Dur("timeout", timeout).
		Msg("Injected JSONP script")

	go func() {
		err := e.loader.Load(waitCtx, script, e.callbacks)
		if err != nil && waitCtx.Err() == nil {
			loadErrs <- err
		}
	}()

	select {
	case payload := <-payloads:
		fetchRequestsTotal.WithLabelValues(transportJSONP, "ok").Inc()
		return payload, nil
	case err := <-loadErrs:
		fetchRequestsTotal.WithLabelValues(transportJSONP, "load_failed").Inc()
		return nil, e.fail(&Error{Tag: TagJSONPError, Message: "load failed", Err: err})
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		fetchRequestsTotal.WithLabelValues(transportJSONP, "timeout").Inc()
		return nil, e.fail(&Error{Tag: TagJSONPTimeout, Message: "timeout"})
	}
}
