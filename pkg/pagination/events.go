package pagination

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/render"
)

// bind replaces the listeners on el. Listeners of the previous render are
// cancelled so every control is bound exactly once.
func (in *Instance) bind(el *dom.Element) {
	ctx, cancel := context.WithCancel(context.Background())

	in.mu.Lock()
	if in.destroyed || in.destroying {
		in.mu.Unlock()
		cancel()
		return
	}
	if in.bindCancel != nil {
		in.bindCancel()
	}
	in.bindCancel = cancel
	in.mu.Unlock()

	el.AddEventListener(ctx, "click", in.onClick)
	el.AddEventListener(ctx, "keyup", in.onKeyUp)
	el.AddEventListener(ctx, "change", in.onChange)
}

// blocked reports whether UI events must be ignored: the instance is
// disabled, destroyed, or waiting for a remote page.
func (in *Instance) blocked() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.destroyed || in.destroying || in.userDisabled || in.busy
}

func (in *Instance) onClick(ev dom.Event) {
	if ev.Target == nil || in.blocked() {
		return
	}
	item := dom.Closest(ev.Target, "li", "button", "input[type=button]")
	if item == nil {
		return
	}
	if dom.HasClass(item, in.opts.DisableClassName) || dom.HasClass(item, in.opts.ActiveClassName) {
		return
	}

	switch {
	case dom.HasClass(item, render.MarkerPage):
		in.clickPage(ev, item, in.opts.Hooks.BeforePageOnClick, in.opts.Hooks.AfterPageOnClick)
	case dom.HasClass(item, render.MarkerPrevious):
		in.clickPage(ev, item, in.opts.Hooks.BeforePreviousOnClick, in.opts.Hooks.AfterPreviousOnClick)
	case dom.HasClass(item, render.MarkerNext):
		in.clickPage(ev, item, in.opts.Hooks.BeforeNextOnClick, in.opts.Hooks.AfterNextOnClick)
	case dom.HasClass(item, render.MarkerGoButton):
		page, ok := in.goInputPage()
		if !ok {
			return
		}
		call2(in.opts.Hooks.BeforeGoButtonOnClick, ev, page)
		in.Go(page)
		call2(in.opts.Hooks.AfterGoButtonOnClick, ev, page)
	}
}

func (in *Instance) clickPage(ev dom.Event, item *html.Node, before, after func(dom.Event, int)) {
	page, err := strconv.Atoi(dom.Attr(item, "data-num"))
	if err != nil {
		return
	}
	call2(before, ev, page)
	in.Go(page)
	call2(after, ev, page)
}

// goInputPage parses the go input. An empty or non-numeric value is
// ignored.
func (in *Instance) goInputPage() (int, bool) {
	el := in.Element()
	if el == nil {
		return 0, false
	}
	page, err := strconv.Atoi(strings.TrimSpace(el.Value(render.MarkerGoInput)))
	if err != nil {
		return 0, false
	}
	return page, true
}

func (in *Instance) onKeyUp(ev dom.Event) {
	if ev.Key != "Enter" || ev.Target == nil || !dom.HasClass(ev.Target, render.MarkerGoInput) {
		return
	}
	if in.blocked() {
		return
	}
	page, ok := in.goInputPage()
	if !ok {
		return
	}
	call2(in.opts.Hooks.BeforeGoInputOnEnter, ev, page)
	in.Go(page)
	if el := in.Element(); el != nil {
		el.Focus(render.MarkerGoInput)
	}
	call2(in.opts.Hooks.AfterGoInputOnEnter, ev, page)
}

// onChange handles the size changer: the new size becomes one of the
// options and the current page is clamped to the new total pages.
func (in *Instance) onChange(ev dom.Event) {
	if ev.Target == nil || !dom.HasClass(ev.Target, render.MarkerSizeSelect) {
		return
	}
	if in.blocked() {
		return
	}
	size, err := strconv.Atoi(strings.TrimSpace(ev.Value))
	if err != nil || size <= 0 {
		return
	}

	call2(in.opts.Hooks.BeforeSizeSelectorChange, ev, size)

	in.mu.Lock()
	old := in.model.PageSize
	for _, v := range []int{size, old} {
		if v > 0 && !slices.Contains(in.sizeOptions, v) {
			in.sizeOptions = append(in.sizeOptions, v)
		}
	}
	slices.Sort(in.sizeOptions)
	in.model.PageSize = size
	page := in.model.PageNumber
	if total := in.model.TotalPage(); total > 0 && page > total {
		page = total
	}
	in.mu.Unlock()

	in.logger.Debug().Int("old_size", old).Int("size", size).Msg("Page size changed")
	in.Go(page)

	call2(in.opts.Hooks.AfterSizeSelectorChange, ev, size)
}
