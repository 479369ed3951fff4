package pagination

import (
	"github.com/Sternrassler/pagination-go/pkg/datasource"
	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/errs"
	"github.com/Sternrassler/pagination-go/pkg/fetch"
	"github.com/Sternrassler/pagination-go/pkg/locator"
)

// Position of the root element inside its container.
const (
	PositionBottom = "bottom"
	PositionTop    = "top"
)

// Callback receives the records of the current page and a model snapshot.
type Callback func(records []any, model Model)

// Fragment renders a header or footer from the paging numbers.
// Fragments run while the root element is being rendered and must not call
// back into the instance.
type Fragment func(currentPage, totalPage, totalNumber int) string

// Text returns a Fragment that always renders s.
func Text(s string) Fragment {
	return func(int, int, int) string { return s }
}

// Int returns a pointer to v, for the optional numeric options.
func Int(v int) *int {
	return &v
}

// Hooks are optional lifecycle callbacks. A nil hook is skipped.
type Hooks struct {
	BeforeInit func()
	AfterInit  func()

	// isForced is false for the first render of an instance.
	BeforeRender func(isForced bool)
	AfterRender  func(isForced bool)

	BeforePaging func(pageNumber int)
	AfterPaging  func(pageNumber int)

	BeforeSizeSelectorChange func(ev dom.Event, size int)
	AfterSizeSelectorChange  func(ev dom.Event, size int)

	BeforeDestroy func()
	AfterDestroy  func()

	BeforeDisable func()
	AfterDisable  func()
	BeforeEnable  func()
	AfterEnable   func()

	BeforePreviousOnClick func(ev dom.Event, pageNumber int)
	AfterPreviousOnClick  func(ev dom.Event, pageNumber int)
	BeforeNextOnClick     func(ev dom.Event, pageNumber int)
	AfterNextOnClick      func(ev dom.Event, pageNumber int)
	BeforePageOnClick     func(ev dom.Event, pageNumber int)
	AfterPageOnClick      func(ev dom.Event, pageNumber int)
	BeforeGoButtonOnClick func(ev dom.Event, pageNumber int)
	AfterGoButtonOnClick  func(ev dom.Event, pageNumber int)
	BeforeGoInputOnEnter  func(ev dom.Event, pageNumber int)
	AfterGoInputOnEnter   func(ev dom.Event, pageNumber int)

	AfterIsFirstPage func()
	AfterIsLastPage  func()
}

// Options configure an instance. Start from DefaultOptions; boolean
// toggles have no zero-value fallback.
type Options struct {
	// DataSource is required.
	DataSource datasource.Source

	// Locator finds the records inside bag sources and remote responses.
	Locator locator.Spec

	// TotalNumberLocator reads the record total from a remote response.
	TotalNumberLocator func(response any) int

	// TotalNumber is the static total of a remote source. Required for
	// remote sources without TotalNumberLocator.
	TotalNumber *int

	PageNumber int
	PageSize   int

	// PageRange is the number of pages listed on each side of the current
	// page. nil lists every page.
	PageRange *int

	ShowPrevious    bool
	ShowNext        bool
	ShowPageNumbers bool
	ShowNavigator   bool
	ShowGoInput     bool
	ShowGoButton    bool
	ShowSizeChanger bool

	// SizeChangerOptions nil falls back to 5, 10, 20, 50 and 100.
	SizeChangerOptions []int

	PageLink     string
	PrevText     string
	NextText     string
	EllipsisText string
	GoButtonText string

	ClassPrefix      string
	ActiveClassName  string
	DisableClassName string
	ClassName        string
	ULClassName      string
	PrevClassName    string
	NextClassName    string
	PageClassName    string

	FormatNavigator   string
	FormatGoInput     string
	FormatGoButton    string
	FormatSizeChanger string

	Position string

	AutoHidePrevious      bool
	AutoHideNext          bool
	TriggerPagingOnInit   bool
	ResetPageNumberOnInit bool
	HideOnlyOnePage       bool
	Disabled              bool

	Header Fragment
	Footer Fragment

	Callback Callback

	// OnError receives failed remote page requests.
	OnError func(err error, tag fetch.Tag)

	// FormatResult runs on a copy of each page: maps and slices are deep
	// copied, struct records are copied with their unexported fields. A
	// non-nil return replaces the page; otherwise the (possibly mutated)
	// copy is used.
	FormatResult func(records []any) []any

	Alias fetch.Alias

	// Ajax holds the remote request settings. AjaxFunc, when set, is called
	// for every request instead.
	Ajax     fetch.AjaxConfig
	AjaxFunc func() fetch.AjaxConfig

	Hooks Hooks
}

// DefaultOptions returns the default option set.
func DefaultOptions() Options {
	return Options{
		Locator:               locator.Path("data"),
		TotalNumber:           Int(0),
		PageNumber:            1,
		PageSize:              10,
		PageRange:             Int(2),
		ShowPrevious:          true,
		ShowNext:              true,
		ShowPageNumbers:       true,
		SizeChangerOptions:    []int{10, 20, 50, 100},
		PrevText:              "&lsaquo;",
		NextText:              "&rsaquo;",
		EllipsisText:          "...",
		GoButtonText:          "Go",
		ClassPrefix:           "paginationjs",
		ActiveClassName:       "active",
		DisableClassName:      "disabled",
		FormatNavigator:       "Total <%= totalNumber %> items",
		FormatGoInput:         "<%= input %>",
		FormatGoButton:        "<%= button %>",
		Position:              PositionBottom,
		TriggerPagingOnInit:   true,
		ResetPageNumberOnInit: true,
	}
}

// validate checks opts and fills zero numeric fields with their defaults.
func validate(opts Options) (Options, error) {
	src := opts.DataSource
	if src.IsZero() {
		return opts, errs.Validation(`"dataSource" is required`)
	}

	switch src.Kind() {
	case datasource.KindRemote:
		if opts.TotalNumberLocator == nil {
			if opts.TotalNumber == nil {
				return opts, errs.Validation(`"totalNumber" is required when dataSource is a URL with no totalNumberLocator`)
			}
			if *opts.TotalNumber < 0 {
				return opts, errs.Validation(`"totalNumber" is incorrect. Expect a non-negative number`)
			}
		}
	case datasource.KindBag:
		if opts.Locator.IsZero() {
			return opts, errs.Validation(`"dataSource" is an Object, please specify a "locator"`)
		}
	}

	if opts.PageNumber < 0 {
		return opts, errs.Validation(`"pageNumber" is incorrect. Expect a positive number`)
	}
	if opts.PageSize < 0 {
		return opts, errs.Validation(`"pageSize" is incorrect. Expect a positive number`)
	}
	if opts.PageRange != nil && *opts.PageRange < 0 {
		return opts, errs.Validation(`"pageRange" is incorrect. Expect a non-negative number or nil`)
	}
	switch opts.Position {
	case "", PositionBottom, PositionTop:
	default:
		return opts, errs.Validation(`"position" is incorrect. Expect "top" or "bottom"`)
	}

	if opts.PageNumber == 0 {
		opts.PageNumber = 1
	}
	if opts.PageSize == 0 {
		opts.PageSize = 10
	}
	if opts.Locator.IsZero() {
		opts.Locator = locator.Path("data")
	}
	if opts.ClassPrefix == "" {
		opts.ClassPrefix = "paginationjs"
	}
	if opts.Position == "" {
		opts.Position = PositionBottom
	}
	return opts, nil
}
