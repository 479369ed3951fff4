// Package pagination attaches pagination controls to container elements of
// a dom.Document.
//
// A Paginator owns the instance registry and the fetch engine used for
// remote data sources. Paginate creates (or replaces) the instance of a
// container; Command offers the string-keyed command interface on top of
// the typed Instance API.
//
// Example:
//
//	doc := dom.NewDocument()
//	box := doc.CreateElement("div")
//	box.SetID("list")
//	doc.Body.AppendChild(box)
//
//	p, err := pagination.New(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts := pagination.DefaultOptions()
//	opts.DataSource = datasource.Slice(items)
//	opts.PageSize = 5
//	opts.Callback = func(records []any, m pagination.Model) {
//	    fmt.Println(m.PageNumber, records)
//	}
//	in, err := p.Paginate("#list", opts)
//	in.Next()
package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/errs"
	"github.com/Sternrassler/pagination-go/pkg/fetch"
	"github.com/Sternrassler/pagination-go/pkg/logging"
	"github.com/Sternrassler/pagination-go/pkg/registry"
)

// Paginator creates pagination instances on the containers of one document.
type Paginator struct {
	doc      *dom.Document
	engine   *fetch.Engine
	registry *registry.Registry[*Instance]
	logger   zerolog.Logger
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithEngine sets the engine used for remote data sources.
func WithEngine(e *fetch.Engine) Option {
	return func(p *Paginator) {
		p.engine = e
	}
}

// WithLogger sets the logger instances derive their loggers from.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Paginator) {
		p.logger = l
	}
}

// New returns a Paginator for doc. Without WithEngine, a default engine
// bound to doc is created.
func New(doc *dom.Document, opts ...Option) (*Paginator, error) {
	if doc == nil {
		return nil, errs.Usage("a document is required")
	}
	p := &Paginator{
		doc:      doc,
		registry: registry.New[*Instance](),
		logger:   logging.NewLogger(logging.ComponentPagination),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		cfg := fetch.DefaultConfig()
		cfg.Document = doc
		e, err := fetch.NewEngine(cfg)
		if err != nil {
			return nil, err
		}
		p.engine = e
	}
	return p, nil
}

// Engine returns the engine used for remote data sources.
func (p *Paginator) Engine() *fetch.Engine {
	return p.engine
}

// Document returns the document the paginator works on.
func (p *Paginator) Document() *dom.Document {
	return p.doc
}

// Paginate attaches a new instance to container, a *dom.Element or a
// selector string. A live instance on the same container is destroyed
// silently first. Option and data source errors are returned and leave no
// instance behind.
func (p *Paginator) Paginate(container any, opts Options) (*Instance, error) {
	el, err := p.resolveContainer(container)
	if err != nil {
		return nil, err
	}
	opts, err = validate(opts)
	if err != nil {
		return nil, err
	}

	if e, ok := p.registry.Get(el); ok && e.Instance != nil {
		e.Instance.Destroy(DestroyOptions{Silent: true})
	}

	in := newInstance(p, el, opts)
	p.registry.Update(el, func(e *registry.Entry[*Instance]) {
		e.Instance = in
		e.Initialized = false
		e.Destroyed = false
		e.CurrentPageData = nil
	})
	activeInstances.Inc()

	if err := in.initialize(); err != nil {
		in.Destroy(DestroyOptions{Silent: true})
		return nil, err
	}
	return in, nil
}

// Instance returns the live instance of container.
func (p *Paginator) Instance(container any) (*Instance, error) {
	el, err := p.resolveContainer(container)
	if err != nil {
		return nil, err
	}
	e, ok := p.registry.Get(el)
	if !ok || e.Instance == nil {
		return nil, errs.State("not initialized")
	}
	return e.Instance, nil
}

// Command runs a named command against the instance of container:
//
//	previous, next, go, refresh    [callback]  -> nil
//	disable, enable, show, hide, destroy      -> nil
//	getCurrentPageNum, getSelectedPageNum     -> int
//	getTotalPage                              -> int
//	getCurrentPageData, getSelectedPageData   -> []any
//	isDisabled                                -> bool
//
// go takes the page number (int, float64 or numeric string) followed by
// an optional Callback. A missing or uncoercible page number is ignored.
func (p *Paginator) Command(container any, cmd string, arg ...any) (any, error) {
	el, err := p.resolveContainer(container)
	if err != nil {
		return nil, err
	}
	e, ok := p.registry.Get(el)
	if !ok || e.Instance == nil {
		return nil, errs.State("not initialized")
	}
	in := e.Instance

	switch cmd {
	case "previous":
		in.Previous(callbackArg(arg, 0)...)
	case "next":
		in.Next(callbackArg(arg, 0)...)
	case "go":
		var page int
		ok := len(arg) > 0
		if ok {
			page, ok = coercePage(arg[0])
		}
		if !ok {
			goRejectedTotal.WithLabelValues("invalid").Inc()
			in.logger.Debug().Interface("page", arg).Msg("Ignoring uncoercible page number")
			return nil, nil
		}
		in.Go(page, callbackArg(arg, 1)...)
	case "refresh":
		in.Refresh(callbackArg(arg, 0)...)
	case "disable":
		in.Disable()
	case "enable":
		in.Enable()
	case "show":
		in.Show()
	case "hide":
		in.Hide()
	case "destroy":
		in.Destroy()
	case "getCurrentPageNum", "getSelectedPageNum":
		return in.Model().PageNumber, nil
	case "getTotalPage":
		return in.TotalPage(), nil
	case "getCurrentPageData", "getSelectedPageData":
		if e.CurrentPageData == nil {
			return []any{}, nil
		}
		return e.CurrentPageData, nil
	case "isDisabled":
		return in.IsDisabled(), nil
	default:
		return nil, errs.Usage("unknown action: %s", cmd)
	}
	return nil, nil
}

func (p *Paginator) resolveContainer(container any) (*dom.Element, error) {
	switch c := container.(type) {
	case *dom.Element:
		if c == nil {
			return nil, errs.Usage("a valid container element is required")
		}
		return c, nil
	case string:
		el := p.doc.QuerySelector(c)
		if el == nil {
			return nil, errs.Usage("selector not found: %s", c)
		}
		return el, nil
	default:
		return nil, errs.Usage("a valid container element is required")
	}
}

// callbackArg returns the Callback at arg[i], if any.
func callbackArg(arg []any, i int) []Callback {
	if i >= len(arg) {
		return nil
	}
	switch cb := arg[i].(type) {
	case Callback:
		return []Callback{cb}
	case func([]any, Model):
		return []Callback{cb}
	}
	return nil
}

// coercePage accepts the numeric shapes a page number can arrive in.
// Strings are parsed like parseInt: leading digits only.
func coercePage(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		end := 0
		for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
			end++
		}
		page, err := strconv.Atoi(s[:end])
		if err != nil {
			return 0, false
		}
		return page, true
	}
	return 0, false
}
