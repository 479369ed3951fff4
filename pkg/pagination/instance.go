package pagination

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"

	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pagination-go/pkg/datasource"
	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/fetch"
	"github.com/Sternrassler/pagination-go/pkg/locator"
	"github.com/Sternrassler/pagination-go/pkg/registry"
	"github.com/Sternrassler/pagination-go/pkg/render"
)

// DestroyOptions control Destroy.
type DestroyOptions struct {
	// Silent skips the destroy hooks.
	Silent bool
}

// Instance is the pagination control attached to one container.
//
// Hooks, callbacks and OnError are never called with the instance lock
// held, so they may call back into the instance.
type Instance struct {
	container *dom.Element
	doc       *dom.Document
	engine    *fetch.Engine
	registry  *registry.Registry[*Instance]
	opts      Options
	logger    zerolog.Logger

	// renderMu serializes writes to the root element.
	renderMu sync.Mutex

	mu           sync.Mutex
	model        Model
	sizeOptions  []int
	el           *dom.Element
	records      []any
	url          string
	async        bool
	dynamicTotal bool
	userDisabled bool
	busy         bool
	pageSet      bool
	initialized  bool
	destroying   bool
	destroyed    bool
	gen          uint64
	reqCancel    context.CancelFunc
	bindCancel   context.CancelFunc
	lastErr      error
}

func newInstance(p *Paginator, container *dom.Element, opts Options) *Instance {
	in := &Instance{
		container:    container,
		doc:          p.doc,
		engine:       p.engine,
		registry:     p.registry,
		opts:         opts,
		logger:       p.logger.With().Str("container", container.ID()).Logger(),
		sizeOptions:  slices.Clone(opts.SizeChangerOptions),
		userDisabled: opts.Disabled,
		model: Model{
			PageNumber: opts.PageNumber,
			PageSize:   opts.PageSize,
		},
	}
	if opts.ShowSizeChanger && len(in.sizeOptions) == 0 {
		in.sizeOptions = render.SizeOptions(nil, opts.PageSize)
	}
	return in
}

// initialize resolves the data source, performs the first render and,
// when configured, loads the first page. Errors raised before initialize
// returns are returned; later ones (from asynchronous producers) are
// recorded in LastError.
func (in *Instance) initialize() error {
	call0(in.opts.Hooks.BeforeInit)

	var (
		mu       sync.Mutex
		returned bool
		syncErr  error
	)
	onError := func(err error) {
		mu.Lock()
		early := !returned
		if early {
			syncErr = err
		}
		mu.Unlock()
		if !early {
			in.setLastError(err)
			in.logger.Error().Err(err).Msg("Data source resolution failed")
		}
	}

	datasource.Resolve(in.opts.DataSource, in.opts.Locator, in.ready, onError)

	mu.Lock()
	returned = true
	err := syncErr
	mu.Unlock()
	return err
}

func (in *Instance) ready(res datasource.Resolved) {
	in.mu.Lock()
	if in.destroyed || in.destroying {
		in.mu.Unlock()
		return
	}
	if res.IsRemote() {
		in.async = true
		in.url = res.URL
		in.dynamicTotal = in.opts.TotalNumberLocator != nil
		if !in.dynamicTotal {
			in.model.TotalNumber = *in.opts.TotalNumber
			in.model.TotalKnown = in.model.TotalNumber > 0
		}
	} else {
		in.records = res.Records
		in.model.TotalNumber = len(res.Records)
		in.model.TotalKnown = true
	}
	in.mu.Unlock()

	in.render(true)

	in.mu.Lock()
	if in.destroyed || in.destroying {
		in.mu.Unlock()
		return
	}
	in.initialized = true
	dynamic := in.dynamicTotal
	totalPage := max(in.model.TotalPage(), 1)
	in.mu.Unlock()

	in.registry.Update(in.container, func(e *registry.Entry[*Instance]) {
		if e.Instance == in {
			e.Initialized = true
		}
	})

	in.logger.Debug().
		Bool("remote", res.IsRemote()).
		Int("records", len(res.Records)).
		Msg("Instance initialized")

	call0(in.opts.Hooks.AfterInit)

	if in.opts.TriggerPagingOnInit {
		page := in.opts.PageNumber
		if dynamic && in.opts.ResetPageNumberOnInit {
			page = 1
		}
		in.Go(min(page, totalPage))
	}
}

// Go requests pageNumber. It is a no-op when the instance is disabled or
// destroyed, when pageNumber < 1, or when the total is known, positive
// and exceeded by pageNumber. Remote pages are delivered
// asynchronously; a newer request supersedes any request in flight.
// cb, when given, replaces the configured Callback for this request.
func (in *Instance) Go(pageNumber int, cb ...Callback) {
	in.goPage(pageNumber, firstCallback(cb))
}

// Previous requests the page before the current one.
func (in *Instance) Previous(cb ...Callback) {
	in.Go(in.currentPage()-1, cb...)
}

// Next requests the page after the current one.
func (in *Instance) Next(cb ...Callback) {
	in.Go(in.currentPage()+1, cb...)
}

// Refresh requests the current page again.
func (in *Instance) Refresh(cb ...Callback) {
	in.Go(in.currentPage(), cb...)
}

func (in *Instance) currentPage() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.model.PageNumber
}

func firstCallback(cbs []Callback) Callback {
	if len(cbs) == 0 {
		return nil
	}
	return cbs[0]
}

func (in *Instance) goPage(page int, cb Callback) bool {
	in.mu.Lock()
	switch {
	case in.destroyed || in.destroying:
		in.mu.Unlock()
		goRejectedTotal.WithLabelValues("destroyed").Inc()
		return false
	case in.userDisabled:
		in.mu.Unlock()
		goRejectedTotal.WithLabelValues("disabled").Inc()
		return false
	case !in.model.accepts(page):
		in.mu.Unlock()
		goRejectedTotal.WithLabelValues("out_of_range").Inc()
		in.logger.Debug().Int("page", page).Msg("Page request rejected")
		return false
	}

	if !in.async {
		in.gen++
		gen := in.gen
		data := slicePage(in.records, page, in.model.PageSize, in.model.TotalNumber)
		in.mu.Unlock()

		call1(in.opts.Hooks.BeforePaging, page)
		in.renderAndCallback(gen, page, data, cb, modeSync)
		return true
	}

	url := in.url
	size := in.model.PageSize
	in.mu.Unlock()

	ajax := in.opts.Ajax
	if in.opts.AjaxFunc != nil {
		ajax = in.opts.AjaxFunc()
	}
	settings, err := fetch.MergeAjax(ajax)
	if err != nil {
		in.fail(err, fetch.TagFetch)
		return false
	}
	req := fetch.Request{
		URL:        url,
		PageNumber: page,
		PageSize:   size,
		Alias:      in.opts.Alias,
		Ajax:       settings,
	}
	if !req.Allowed() {
		goRejectedTotal.WithLabelValues("before_send").Inc()
		return false
	}

	call1(in.opts.Hooks.BeforePaging, page)

	in.mu.Lock()
	if in.destroyed || in.destroying {
		in.mu.Unlock()
		return false
	}
	if in.reqCancel != nil {
		in.reqCancel()
	}
	in.gen++
	gen := in.gen
	ctx, cancel := context.WithCancel(context.Background())
	in.reqCancel = cancel
	in.busy = true
	in.mu.Unlock()

	go func() {
		defer cancel()
		resp, err := in.engine.Do(ctx, req)
		in.complete(gen, page, req.IsJSONP(), resp, err, cb)
	}()
	return true
}

// complete applies the outcome of remote request gen unless a newer
// request or Destroy superseded it.
func (in *Instance) complete(gen uint64, page int, jsonp bool, resp any, err error, cb Callback) {
	tag := fetch.TagFetch
	if jsonp {
		tag = fetch.TagJSONPError
	}

	var (
		records []any
		total   int
	)
	if err == nil {
		if in.opts.TotalNumberLocator != nil {
			total = in.opts.TotalNumberLocator(resp)
		}
		records, err = locator.Resolve(resp, in.opts.Locator)
	} else {
		tag = fetch.TagOf(err)
	}

	in.mu.Lock()
	if in.destroyed || in.destroying || gen != in.gen {
		in.mu.Unlock()
		staleResponsesTotal.Inc()
		in.logger.Debug().Int("page", page).Msg("Discarding stale response")
		return
	}
	in.busy = false
	in.reqCancel = nil
	if err != nil {
		in.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			return
		}
		in.fail(err, tag)
		return
	}
	if in.dynamicTotal {
		in.model.TotalNumber = total
		in.model.TotalKnown = true
	}
	in.mu.Unlock()

	in.renderAndCallback(gen, page, records, cb, modeRemote)
}

// fail routes a failed page request to OnError, or logs it.
func (in *Instance) fail(err error, tag fetch.Tag) {
	in.setLastError(err)
	if in.opts.OnError != nil {
		in.opts.OnError(err, tag)
		return
	}
	if tag == fetch.TagFetch {
		in.logger.Error().Err(err).Str("tag", string(tag)).Msg("Page request failed")
		return
	}
	in.logger.Warn().Err(err).Str("tag", string(tag)).Msg("JSONP page request failed")
}

func (in *Instance) setLastError(err error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.lastErr = err
}

func (in *Instance) renderAndCallback(gen uint64, page int, data []any, cb Callback, mode string) {
	in.mu.Lock()
	if in.destroyed || in.destroying || gen != in.gen {
		in.mu.Unlock()
		return
	}
	switch old := in.model.PageNumber; {
	case !in.pageSet || page == old:
		in.model.Direction = 0
	case page > old:
		in.model.Direction = 1
	default:
		in.model.Direction = -1
	}
	in.pageSet = true
	in.model.PageNumber = page
	in.mu.Unlock()

	in.render(false)

	final := formatResult(data, in.opts.FormatResult)

	in.registry.Update(in.container, func(e *registry.Entry[*Instance]) {
		if e.Instance == in {
			e.CurrentPageData = final
		}
	})

	model := in.Model()
	pageTransitionsTotal.WithLabelValues(mode).Inc()
	in.logger.Debug().
		Int("page", page).
		Int("direction", model.Direction).
		Int("records", len(final)).
		Msg("Page applied")

	switch {
	case cb != nil:
		cb(final, model)
	case in.opts.Callback != nil:
		in.opts.Callback(final, model)
	}

	call1(in.opts.Hooks.AfterPaging, page)
	if page == 1 {
		call0(in.opts.Hooks.AfterIsFirstPage)
	}
	if page == model.TotalPage() {
		call0(in.opts.Hooks.AfterIsLastPage)
	}
}

// formatResult runs fn on a copy of data (see cloneRecord). A non-nil return wins,
// otherwise the copy fn may have mutated is used.
func formatResult(data []any, fn func([]any) []any) []any {
	if data == nil {
		data = []any{}
	}
	if fn == nil {
		return data
	}
	clone := make([]any, len(data))
	for i, r := range data {
		clone[i] = cloneRecord(r)
	}
	if out := fn(clone); out != nil {
		return out
	}
	return clone
}

// cloneRecord copies r for formatResult. Struct values are already copies
// and struct pointers get a shallow copy of their pointee, so unexported
// fields survive; everything else is deep copied.
func cloneRecord(r any) any {
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Struct:
		return r
	case reflect.Pointer:
		if !v.IsNil() && v.Elem().Kind() == reflect.Struct {
			cp := reflect.New(v.Elem().Type())
			cp.Elem().Set(v.Elem())
			return cp.Interface()
		}
	}
	return deepcopy.Copy(r)
}

// render updates the root element, creating and attaching it on first use.
func (in *Instance) render(isBoot bool) {
	isForced := !isBoot
	call1(in.opts.Hooks.BeforeRender, isForced)

	in.renderMu.Lock()
	in.mu.Lock()
	if in.destroyed || in.destroying {
		in.mu.Unlock()
		in.renderMu.Unlock()
		return
	}
	view := in.viewLocked()
	created := in.el == nil
	if created {
		in.el = in.doc.CreateElement("div")
		in.el.SetClassName(render.RootClass)
		if in.opts.ClassName != "" {
			in.el.AddClass(in.opts.ClassName)
		}
	}
	el := in.el
	in.mu.Unlock()

	if in.opts.Header != nil {
		view.Header = in.opts.Header(view.CurrentPage, view.TotalPage, view.TotalNumber)
	}
	if in.opts.Footer != nil {
		view.Footer = in.opts.Footer(view.CurrentPage, view.TotalPage, view.TotalNumber)
	}
	el.SetInnerHTML(render.Markup(view))

	if in.opts.HideOnlyOnePage {
		if view.TotalPage <= 1 {
			el.SetDisplay("none")
		} else {
			el.SetDisplay("")
		}
	}

	// Destroy may have run while the markup was built.
	in.mu.Lock()
	if in.destroyed || in.destroying {
		in.mu.Unlock()
		in.renderMu.Unlock()
		return
	}
	if created {
		if in.opts.Position == PositionTop {
			in.container.InsertBefore(el, in.container.FirstChild())
		} else {
			in.container.AppendChild(el)
		}
	}
	in.mu.Unlock()
	in.bind(el)
	in.renderMu.Unlock()

	call1(in.opts.Hooks.AfterRender, isForced)
}

func (in *Instance) viewLocked() render.View {
	o := in.opts
	current := in.model.PageNumber
	if current == 0 {
		current = 1
	}
	return render.View{
		ClassPrefix:        o.ClassPrefix,
		ActiveClassName:    o.ActiveClassName,
		DisableClassName:   o.DisableClassName,
		ULClassName:        o.ULClassName,
		PrevClassName:      o.PrevClassName,
		NextClassName:      o.NextClassName,
		PageClassName:      o.PageClassName,
		ShowPrevious:       o.ShowPrevious,
		ShowNext:           o.ShowNext,
		ShowPageNumbers:    o.ShowPageNumbers,
		ShowNavigator:      o.ShowNavigator,
		ShowGoInput:        o.ShowGoInput,
		ShowGoButton:       o.ShowGoButton,
		ShowSizeChanger:    o.ShowSizeChanger,
		AutoHidePrevious:   o.AutoHidePrevious,
		AutoHideNext:       o.AutoHideNext,
		PageLink:           o.PageLink,
		PrevText:           o.PrevText,
		NextText:           o.NextText,
		EllipsisText:       o.EllipsisText,
		GoButtonText:       o.GoButtonText,
		FormatNavigator:    o.FormatNavigator,
		FormatGoInput:      o.FormatGoInput,
		FormatGoButton:     o.FormatGoButton,
		FormatSizeChanger:  o.FormatSizeChanger,
		SizeChangerOptions: slices.Clone(in.sizeOptions),
		CurrentPage:        current,
		TotalPage:          in.model.TotalPage(),
		TotalNumber:        in.model.TotalNumber,
		PageSize:           in.model.PageSize,
		PageRange:          o.PageRange,
	}
}

// Disable blocks page requests until Enable.
func (in *Instance) Disable() {
	if in.isDestroyed() {
		return
	}
	call0(in.opts.Hooks.BeforeDisable)
	in.mu.Lock()
	in.userDisabled = true
	in.mu.Unlock()
	call0(in.opts.Hooks.AfterDisable)
}

// Enable lifts Disable.
func (in *Instance) Enable() {
	if in.isDestroyed() {
		return
	}
	call0(in.opts.Hooks.BeforeEnable)
	in.mu.Lock()
	in.userDisabled = false
	in.mu.Unlock()
	call0(in.opts.Hooks.AfterEnable)
}

// Show makes the root element visible.
func (in *Instance) Show() {
	if el := in.Element(); el != nil {
		el.SetDisplay("")
	}
}

// Hide hides the root element without touching the paging state.
func (in *Instance) Hide() {
	if el := in.Element(); el != nil {
		el.SetDisplay("none")
	}
}

// Destroy cancels any request in flight, removes the root element and
// marks the registry entry destroyed. Destroying twice is a no-op.
func (in *Instance) Destroy(opts ...DestroyOptions) {
	silent := len(opts) > 0 && opts[0].Silent

	in.mu.Lock()
	if in.destroying || in.destroyed {
		in.mu.Unlock()
		return
	}
	in.destroying = true
	in.mu.Unlock()

	if !silent {
		call0(in.opts.Hooks.BeforeDestroy)
	}

	in.mu.Lock()
	in.destroyed = true
	in.gen++
	if in.reqCancel != nil {
		in.reqCancel()
		in.reqCancel = nil
	}
	if in.bindCancel != nil {
		in.bindCancel()
		in.bindCancel = nil
	}
	el := in.el
	in.el = nil
	in.model = Model{}
	in.records = nil
	in.mu.Unlock()

	if el != nil {
		el.Remove()
	}
	in.registry.Update(in.container, func(e *registry.Entry[*Instance]) {
		if e.Instance == in {
			e.Destroyed = true
			e.Initialized = false
			e.Instance = nil
			e.CurrentPageData = nil
		}
	})
	activeInstances.Dec()
	in.logger.Debug().Bool("silent", silent).Msg("Instance destroyed")

	if !silent {
		call0(in.opts.Hooks.AfterDestroy)
	}
}

func (in *Instance) isDestroyed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.destroyed || in.destroying
}

// Model returns a snapshot of the paging state. It is the zero Model
// after Destroy.
func (in *Instance) Model() Model {
	in.mu.Lock()
	defer in.mu.Unlock()
	m := in.model
	if !in.destroyed {
		m.Disabled = in.userDisabled || in.busy
	}
	return m
}

// TotalPage returns the number of pages, 0 while the total is unknown.
func (in *Instance) TotalPage() int {
	return in.Model().TotalPage()
}

// CurrentPageData returns the records delivered for the current page.
func (in *Instance) CurrentPageData() []any {
	e, ok := in.registry.Get(in.container)
	if !ok || e.Instance != in || e.CurrentPageData == nil {
		return []any{}
	}
	return e.CurrentPageData
}

// IsDisabled reports whether page requests are blocked.
func (in *Instance) IsDisabled() bool {
	return in.Model().Disabled
}

// IsInitialized reports whether the first render happened.
func (in *Instance) IsInitialized() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.initialized && !in.destroyed
}

// Element returns the root element, nil before the first render and after Destroy.
func (in *Instance) Element() *dom.Element {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.el
}

// Container returns the element the instance is attached to.
func (in *Instance) Container() *dom.Element {
	return in.container
}

// LastError returns the most recent unrecovered error: a failed page
// request or an asynchronous data source failure.
func (in *Instance) LastError() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.lastErr
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}

func call1[T any](fn func(T), v T) {
	if fn != nil {
		fn(v)
	}
}

func call2[A, B any](fn func(A, B), a A, b B) {
	if fn != nil {
		fn(a, b)
	}
}
