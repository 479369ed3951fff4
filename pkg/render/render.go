// Package render turns pagination state into navigation markup.
//
// Everything here is pure: Markup, PageItems, SizeOptions and Substitute
// take values and return values. Attaching the markup to a document and
// binding events is done by package pagination.
package render

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Marker classes identify interactive controls inside the rendered markup.
const (
	MarkerPage       = "J-paginationjs-page"
	MarkerPrevious   = "J-paginationjs-previous"
	MarkerNext       = "J-paginationjs-next"
	MarkerNav        = "J-paginationjs-nav"
	MarkerGoInput    = "J-paginationjs-go-pagenumber"
	MarkerGoButton   = "J-paginationjs-go-button"
	MarkerSizeSelect = "J-paginationjs-size-select"
)

// RootClass is the class of the root element every instance attaches.
const RootClass = "paginationjs"

// DefaultSizeOptions is used when the size changer is shown without options.
var DefaultSizeOptions = []int{5, 10, 20, 50, 100}

// View is everything Markup needs to know. Header and Footer are already
// evaluated by the caller.
type View struct {
	ClassPrefix      string
	ActiveClassName  string
	DisableClassName string
	ULClassName      string
	PrevClassName    string
	NextClassName    string
	PageClassName    string

	ShowPrevious     bool
	ShowNext         bool
	ShowPageNumbers  bool
	ShowNavigator    bool
	ShowGoInput      bool
	ShowGoButton     bool
	ShowSizeChanger  bool
	AutoHidePrevious bool
	AutoHideNext     bool

	PageLink     string
	PrevText     string
	NextText     string
	EllipsisText string
	GoButtonText string

	FormatNavigator   string
	FormatGoInput     string
	FormatGoButton    string
	FormatSizeChanger string

	SizeChangerOptions []int

	Header string
	Footer string

	CurrentPage int
	TotalPage   int
	TotalNumber int
	PageSize    int

	// PageRange nil renders every page number.
	PageRange *int
}

// Item is one entry of the page number list.
type Item struct {
	Page     int
	Ellipsis bool
	Active   bool
}

// PageItems computes the page number list for current out of total pages.
//
// With a window, page 1 and the last page are always present, pages within
// pageRange of current are listed and the gaps are marked with ellipses.
func PageItems(current, total int, pageRange *int) []Item {
	page := func(p int) Item {
		return Item{Page: p, Active: p == current}
	}

	if pageRange == nil {
		items := make([]Item, 0, max(total, 0))
		for p := 1; p <= total; p++ {
			items = append(items, page(p))
		}
		return items
	}

	r := *pageRange
	items := []Item{page(1)}
	if current > r+2 {
		items = append(items, Item{Ellipsis: true})
	}
	for p := max(2, current-r); p <= min(total-1, current+r); p++ {
		items = append(items, page(p))
	}
	if current < total-r-1 {
		items = append(items, Item{Ellipsis: true})
	}
	if total > 1 {
		items = append(items, page(total))
	}
	return items
}

// SizeOptions returns opts with current inserted in ascending order when absent.
// An empty opts falls back to DefaultSizeOptions.
func SizeOptions(opts []int, current int) []int {
	if len(opts) == 0 {
		opts = DefaultSizeOptions
	}
	out := slices.Clone(opts)
	if current > 0 && !slices.Contains(out, current) {
		out = append(out, current)
		slices.Sort(out)
	}
	return out
}

// Markup renders the inner markup of the root element.
func Markup(v View) string {
	var b strings.Builder
	prefix := v.ClassPrefix

	b.WriteString(v.Header)

	if v.ShowNavigator && v.FormatNavigator != "" {
		rangeStart := (v.CurrentPage-1)*v.PageSize + 1
		rangeEnd := min(v.CurrentPage*v.PageSize, v.TotalNumber)
		nav := Substitute(v.FormatNavigator, map[string]any{
			"currentPage": v.CurrentPage,
			"totalPage":   v.TotalPage,
			"totalNumber": v.TotalNumber,
			"rangeStart":  rangeStart,
			"rangeEnd":    rangeEnd,
		})
		fmt.Fprintf(&b, `<div class="%s">%s</div>`, classes(prefix+"-nav", MarkerNav), nav)
	}

	if v.ShowPrevious || v.ShowPageNumbers || v.ShowNext {
		b.WriteString(`<div class="paginationjs-pages">`)
		if v.ULClassName != "" {
			fmt.Fprintf(&b, `<ul class="%s">`, v.ULClassName)
		} else {
			b.WriteString("<ul>")
		}
		if v.ShowPrevious {
			writePrevious(&b, v)
		}
		if v.ShowPageNumbers {
			writePages(&b, v)
		}
		if v.ShowNext {
			writeNext(&b, v)
		}
		b.WriteString("</ul></div>")
	}

	if v.ShowSizeChanger {
		b.WriteString(`<div class="paginationjs-size-changer">`)
		b.WriteString(sizeChanger(v))
		b.WriteString("</div>")
	}

	if v.ShowGoInput {
		input := fmt.Sprintf(`<input type="text" class="%s">`, MarkerGoInput)
		if v.FormatGoInput != "" {
			input = Substitute(v.FormatGoInput, map[string]any{
				"currentPage": v.CurrentPage,
				"totalPage":   v.TotalPage,
				"totalNumber": v.TotalNumber,
				"input":       input,
			})
		}
		fmt.Fprintf(&b, `<div class="%s-go-input">%s</div>`, prefix, input)
	}

	if v.ShowGoButton {
		button := fmt.Sprintf(`<input type="button" class="%s" value="%s">`, MarkerGoButton, v.GoButtonText)
		if v.FormatGoButton != "" {
			button = Substitute(v.FormatGoButton, map[string]any{
				"currentPage": v.CurrentPage,
				"totalPage":   v.TotalPage,
				"totalNumber": v.TotalNumber,
				"button":      button,
			})
		}
		fmt.Fprintf(&b, `<div class="%s-go-button">%s</div>`, prefix, button)
	}

	b.WriteString(v.Footer)
	return b.String()
}

func writePrevious(b *strings.Builder, v View) {
	if v.CurrentPage <= 1 {
		if !v.AutoHidePrevious {
			fmt.Fprintf(b, `<li class="%s"><a>%s</a></li>`,
				classes(v.ClassPrefix+"-prev", v.DisableClassName, v.PrevClassName), v.PrevText)
		}
		return
	}
	fmt.Fprintf(b, `<li class="%s" data-num="%d" title="Previous page">%s</li>`,
		classes(v.ClassPrefix+"-prev", MarkerPrevious, v.PrevClassName), v.CurrentPage-1, link(v.PageLink, v.PrevText))
}

func writeNext(b *strings.Builder, v View) {
	if v.CurrentPage >= v.TotalPage {
		if !v.AutoHideNext {
			fmt.Fprintf(b, `<li class="%s"><a>%s</a></li>`,
				classes(v.ClassPrefix+"-next", v.DisableClassName, v.NextClassName), v.NextText)
		}
		return
	}
	fmt.Fprintf(b, `<li class="%s" data-num="%d" title="Next page">%s</li>`,
		classes(v.ClassPrefix+"-next", MarkerNext, v.NextClassName), v.CurrentPage+1, link(v.PageLink, v.NextText))
}

func writePages(b *strings.Builder, v View) {
	for _, it := range PageItems(v.CurrentPage, v.TotalPage, v.PageRange) {
		switch {
		case it.Ellipsis:
			fmt.Fprintf(b, `<li class="%s"><a>%s</a></li>`,
				classes(v.ClassPrefix+"-ellipsis", v.DisableClassName), v.EllipsisText)
		case it.Active:
			fmt.Fprintf(b, `<li class="%s" data-num="%d"><a>%d</a></li>`,
				classes(v.ClassPrefix+"-page", MarkerPage, v.PageClassName, v.ActiveClassName), it.Page, it.Page)
		default:
			fmt.Fprintf(b, `<li class="%s" data-num="%d">%s</li>`,
				classes(v.ClassPrefix+"-page", MarkerPage, v.PageClassName), it.Page, link(v.PageLink, fmt.Sprint(it.Page)))
		}
	}
}

func sizeChanger(v View) string {
	var s strings.Builder
	fmt.Fprintf(&s, `<select class="%s">`, MarkerSizeSelect)
	for _, opt := range SizeOptions(v.SizeChangerOptions, v.PageSize) {
		selected := ""
		if opt == v.PageSize {
			selected = " selected"
		}
		fmt.Fprintf(&s, `<option value="%d"%s>%d / page</option>`, opt, selected, opt)
	}
	s.WriteString("</select>")
	if v.FormatSizeChanger == "" {
		return s.String()
	}
	return Substitute(v.FormatSizeChanger, map[string]any{
		"length": s.String(),
		"total":  v.TotalNumber,
	})
}

func link(pageLink, text string) string {
	if pageLink != "" {
		return fmt.Sprintf(`<a href="%s">%s</a>`, pageLink, text)
	}
	return "<a>" + text + "</a>"
}

func classes(names ...string) string {
	return strings.Join(slices.DeleteFunc(names, func(s string) bool { return s == "" }), " ")
}

// Substitute replaces every <%= name %> token of vars in template with the
// value's default formatting. Unknown tokens are left as they are.
func Substitute(template string, vars map[string]any) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := template
	for _, k := range keys {
		re := regexp.MustCompile(`<%=\s*` + regexp.QuoteMeta(k) + `\s*%>`)
		val := fmt.Sprint(vars[k])
		out = re.ReplaceAllLiteralString(out, val)
	}
	return out
}
