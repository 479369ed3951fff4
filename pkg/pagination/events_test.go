package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/Sternrassler/pagination-go/pkg/dom"
	"github.com/Sternrassler/pagination-go/pkg/render"
)

// pageLink returns the anchor inside the page item for num.
func pageLink(t *testing.T, el *dom.Element, num int) *html.Node {
	t.Helper()
	items := el.FindFunc(func(n *html.Node) bool {
		return dom.HasClass(n, render.MarkerPage) && dom.Attr(n, "data-num") == strconv.Itoa(num)
	})
	require.Len(t, items, 1, "page item %d", num)
	if items[0].FirstChild != nil {
		return items[0].FirstChild
	}
	return items[0]
}

func TestEvents_PageClick(t *testing.T) {
	p, box := setup(t)
	cb := newPages()
	var before, after []int

	opts := syncOptions(95, 10, cb)
	opts.Hooks.BeforePageOnClick = func(ev dom.Event, n int) { before = append(before, n) }
	opts.Hooks.AfterPageOnClick = func(ev dom.Event, n int) { after = append(after, n) }
	in, err := p.Paginate(box, opts)
	require.NoError(t, err)

	assert.True(t, in.Element().Click(pageLink(t, in.Element(), 3)))
	assert.Equal(t, 3, in.Model().PageNumber)
	assert.Equal(t, []int{3}, before)
	assert.Equal(t, []int{3}, after)

	// The active page is not clickable.
	in.Element().Click(pageLink(t, in.Element(), 3))
	assert.Equal(t, 2, cb.count())
}

func TestEvents_PreviousNext(t *testing.T) {
	p, box := setup(t)
	cb := newPages()
	var hooks []string

	opts := syncOptions(30, 10, cb)
	opts.Hooks.BeforeNextOnClick = func(ev dom.Event, n int) { hooks = append(hooks, "next:"+strconv.Itoa(n)) }
	opts.Hooks.BeforePreviousOnClick = func(ev dom.Event, n int) { hooks = append(hooks, "prev:"+strconv.Itoa(n)) }
	in, err := p.Paginate(box, opts)
	require.NoError(t, err)
	el := in.Element()

	assert.Nil(t, el.Find(render.MarkerPrevious), "no previous control on the first page")

	el.Click(el.Find(render.MarkerNext))
	el.Click(el.Find(render.MarkerNext))
	assert.Equal(t, 3, in.Model().PageNumber)
	assert.Nil(t, el.Find(render.MarkerNext), "no next control on the last page")

	el.Click(el.Find(render.MarkerPrevious))
	assert.Equal(t, 2, in.Model().PageNumber)
	assert.Equal(t, []string{"next:2", "next:3", "prev:2"}, hooks)
}

func TestEvents_DisabledIgnoresClicks(t *testing.T) {
	p, box := setup(t)
	cb := newPages()
	in, err := p.Paginate(box, syncOptions(30, 10, cb))
	require.NoError(t, err)

	in.Disable()
	in.Element().Click(in.Element().Find(render.MarkerNext))
	assert.Equal(t, 1, in.Model().PageNumber)
	assert.Equal(t, 1, cb.count())
}

func TestEvents_GoButton(t *testing.T) {
	p, box := setup(t)
	cb := newPages()
	var hooked []int

	opts := syncOptions(95, 10, cb)
	opts.ShowGoInput = true
	opts.ShowGoButton = true
	opts.Hooks.BeforeGoButtonOnClick = func(ev dom.Event, n int) { hooked = append(hooked, n) }
	in, err := p.Paginate(box, opts)
	require.NoError(t, err)
	el := in.Element()

	el.SetValue(render.MarkerGoInput, " 7 ")
	el.Click(el.Find(render.MarkerGoButton))
	assert.Equal(t, 7, in.Model().PageNumber)
	assert.Equal(t, []int{7}, hooked)

	el.SetValue(render.MarkerGoInput, "abc")
	el.Click(el.Find(render.MarkerGoButton))
	assert.Equal(t, 7, in.Model().PageNumber, "non-numeric input is ignored")

	el.SetValue(render.MarkerGoInput, "99")
	el.Click(el.Find(render.MarkerGoButton))
	assert.Equal(t, 7, in.Model().PageNumber, "out of range input is ignored")
	assert.Equal(t, []int{7, 99}, hooked)
}

func TestEvents_GoInputEnter(t *testing.T) {
	p, box := setup(t)
	cb := newPages()
	var after []int

	opts := syncOptions(95, 10, cb)
	opts.ShowGoInput = true
	opts.Hooks.AfterGoInputOnEnter = func(ev dom.Event, n int) { after = append(after, n) }
	in, err := p.Paginate(box, opts)
	require.NoError(t, err)
	el := in.Element()

	el.SetValue(render.MarkerGoInput, "4")
	el.KeyUp(el.Find(render.MarkerGoInput), "a")
	assert.Equal(t, 1, in.Model().PageNumber, "only Enter submits")

	el.KeyUp(el.Find(render.MarkerGoInput), "Enter")
	assert.Equal(t, 4, in.Model().PageNumber)
	assert.Equal(t, render.MarkerGoInput, el.Focused())
	assert.Equal(t, []int{4}, after)
}

func TestEvents_SizeChanger(t *testing.T) {
	p, box := setup(t)
	cb := newPages()
	var sizes []int

	opts := syncOptions(195, 5, cb)
	opts.ShowSizeChanger = true
	opts.SizeChangerOptions = []int{10, 20, 50}
	opts.Hooks.BeforeSizeSelectorChange = func(ev dom.Event, n int) { sizes = append(sizes, n) }
	opts.Hooks.AfterSizeSelectorChange = func(ev dom.Event, n int) { sizes = append(sizes, -n) }
	in, err := p.Paginate(box, opts)
	require.NoError(t, err)
	el := in.Element()

	in.Go(39)
	el.Change(el.Find(render.MarkerSizeSelect), "50")

	data, m := cb.last()
	assert.Equal(t, 50, m.PageSize)
	assert.Equal(t, 4, m.PageNumber, "page clamped to the new total pages")
	assert.Len(t, data, 45)
	assert.Equal(t, []int{50, -50}, sizes)

	markup := el.InnerHTML()
	for _, v := range []string{`value="5"`, `value="10"`, `value="50" selected`} {
		assert.Contains(t, markup, v)
	}

	el.Change(el.Find(render.MarkerSizeSelect), "bogus")
	assert.Equal(t, 50, in.Model().PageSize)
}

func TestEvents_ReboundOnRender(t *testing.T) {
	p, box := setup(t)
	in, err := p.Paginate(box, syncOptions(95, 10, newPages()))
	require.NoError(t, err)

	in.Next()
	in.Next()
	assert.Equal(t, 3, in.Element().ListenerCount(), "one listener per event type")

	el := in.Element()
	in.Destroy()
	assert.Equal(t, 0, el.ListenerCount())
}
