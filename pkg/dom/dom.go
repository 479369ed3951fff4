// Package dom is a small in-process document model: elements with identity,
// a child tree, replaceable inner markup, classes, display style, form
// control values and context-scoped event listeners.
//
// Inner markup is opaque text to the tree; Find and FindAll parse it with
// golang.org/x/net/html to locate controls and event targets.
package dom

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Document owns a tree of elements rooted at Body.
type Document struct {
	Body *Element
}

// NewDocument returns a document with an empty body.
func NewDocument() *Document {
	d := &Document{}
	d.Body = d.CreateElement("body")
	return d
}

// CreateElement returns a detached element owned by d.
func (d *Document) CreateElement(tag string) *Element {
	return &Element{
		doc:   d,
		tag:   strings.ToLower(tag),
		attrs: make(map[string]string),
	}
}

// QuerySelector returns the first element in document order matching sel,
// or nil. Supported selectors: "#id", ".class" and a bare tag name.
func (d *Document) QuerySelector(sel string) *Element {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil
	}
	var match func(*Element) bool
	switch sel[0] {
	case '#':
		id := sel[1:]
		match = func(e *Element) bool { return e.ID() == id }
	case '.':
		class := sel[1:]
		match = func(e *Element) bool { return e.HasClass(class) }
	default:
		tag := strings.ToLower(sel)
		match = func(e *Element) bool { return e.Tag() == tag }
	}
	return d.Body.find(match)
}

// Event is delivered to listeners by Element.Dispatch.
type Event struct {
	// Type is the event name: "click", "keyup", "change".
	Type string

	// Target is the node inside the element's inner markup the event originated from.
	Target *html.Node

	// Key is the key name for keyboard events ("Enter").
	Key string

	// Value is the control value for change events.
	Value string
}

type listener struct {
	ctx context.Context
	typ string
	fn  func(Event)
}

// Element is a node of the document tree.
type Element struct {
	mu sync.Mutex

	doc      *Document
	tag      string
	attrs    map[string]string
	classes  []string
	display  string
	inner    string
	parsed   []*html.Node
	parent   *Element
	children []*Element

	listeners []listener
	values    map[string]string
	focused   string
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.tag
}

// ID returns the id attribute.
func (e *Element) ID() string {
	return e.Attr("id")
}

// SetID sets the id attribute.
func (e *Element) SetID(id string) {
	e.SetAttr("id", id)
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attrs[name]
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

// ClassName returns the space separated class list.
func (e *Element) ClassName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.Join(e.classes, " ")
}

// SetClassName replaces the class list.
func (e *Element) SetClassName(className string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classes = strings.Fields(className)
}

// AddClass adds class names that are not present yet.
func (e *Element) AddClass(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range names {
		for _, c := range strings.Fields(name) {
			if !slices.Contains(e.classes, c) {
				e.classes = append(e.classes, c)
			}
		}
	}
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Contains(e.classes, class)
}

// Display returns the inline display style ("" or "none").
func (e *Element) Display() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display
}

// SetDisplay sets the inline display style.
func (e *Element) SetDisplay(display string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.display = display
}

// Hidden reports whether display is "none".
func (e *Element) Hidden() bool {
	return e.Display() == "none"
}

// InnerHTML returns the element's inner markup.
func (e *Element) InnerHTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner
}

// SetInnerHTML replaces the element's inner markup. Form values and focus
// survive so a re-rendered control keeps what the user typed.
func (e *Element) SetInnerHTML(markup string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inner = markup
	e.parsed = nil
}

// Parent returns the parent element or nil when detached.
func (e *Element) Parent() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parent
}

// Children returns a snapshot of the child elements.
func (e *Element) Children() []*Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Element(nil), e.children...)
}

// FirstChild returns the first child element or nil.
func (e *Element) FirstChild() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child *Element) {
	e.InsertBefore(child, nil)
}

// InsertBefore moves child in front of ref. A nil or foreign ref appends.
func (e *Element) InsertBefore(child, ref *Element) {
	child.Remove()

	e.mu.Lock()
	idx := slices.Index(e.children, ref)
	if ref == nil || idx < 0 {
		e.children = append(e.children, child)
	} else {
		e.children = slices.Insert(e.children, idx, child)
	}
	e.mu.Unlock()

	child.mu.Lock()
	child.parent = e
	child.mu.Unlock()
}

// Remove detaches e from its parent. Removing a detached element is a no-op.
func (e *Element) Remove() {
	e.mu.Lock()
	parent := e.parent
	e.parent = nil
	e.mu.Unlock()

	if parent == nil {
		return
	}
	parent.mu.Lock()
	parent.children = slices.DeleteFunc(parent.children, func(c *Element) bool { return c == e })
	parent.mu.Unlock()
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	return e.find(func(c *Element) bool { return c == other }) != nil
}

func (e *Element) find(match func(*Element) bool) *Element {
	if match(e) {
		return e
	}
	for _, c := range e.Children() {
		if found := c.find(match); found != nil {
			return found
		}
	}
	return nil
}

// SetValue stores the current value of the form control with the given class.
func (e *Element) SetValue(class, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.values == nil {
		e.values = make(map[string]string)
	}
	e.values[class] = value
}

// Value returns the current value of the form control with the given class.
func (e *Element) Value(class string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[class]
}

// Focus moves focus to the control with the given class.
func (e *Element) Focus(class string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focused = class
}

// Focused returns the class of the focused control, or "".
func (e *Element) Focused() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

// AddEventListener registers fn for events of typ until ctx is done.
func (e *Element) AddEventListener(ctx context.Context, typ string, fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener{ctx: ctx, typ: typ, fn: fn})
}

// ListenerCount returns the number of live listeners.
func (e *Element) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pruneLocked()
	return len(e.listeners)
}

func (e *Element) pruneLocked() {
	e.listeners = slices.DeleteFunc(e.listeners, func(l listener) bool {
		return l.ctx.Err() != nil
	})
}

// Dispatch delivers ev to every live listener of its type and reports
// whether any listener ran. Listeners run without e's lock held.
func (e *Element) Dispatch(ev Event) bool {
	e.mu.Lock()
	e.pruneLocked()
	var fns []func(Event)
	for _, l := range e.listeners {
		if l.typ == ev.Type {
			fns = append(fns, l.fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return len(fns) > 0
}

// Click dispatches a click on target.
func (e *Element) Click(target *html.Node) bool {
	return e.Dispatch(Event{Type: "click", Target: target})
}

// KeyUp dispatches a keyup of key on target.
func (e *Element) KeyUp(target *html.Node, key string) bool {
	return e.Dispatch(Event{Type: "keyup", Target: target, Key: key})
}

// Change dispatches a change event carrying value on target.
func (e *Element) Change(target *html.Node, value string) bool {
	return e.Dispatch(Event{Type: "change", Target: target, Value: value})
}
