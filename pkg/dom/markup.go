package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nodes returns the parsed inner markup. The parse is cached until the
// markup changes so node identity is stable between Find and Dispatch.
func (e *Element) nodes() []*html.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.parsed != nil || e.inner == "" {
		return e.parsed
	}
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	parsed, err := html.ParseFragment(strings.NewReader(e.inner), context)
	if err != nil {
		return nil
	}
	e.parsed = parsed
	return parsed
}

// Find returns the first node in the inner markup carrying class.
func (e *Element) Find(class string) *html.Node {
	all := e.FindAll(class)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// FindAll returns every node in the inner markup carrying class, in document order.
func (e *Element) FindAll(class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && HasClass(n, class) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range e.nodes() {
		walk(n)
	}
	return out
}

// FindFunc returns the nodes of the inner markup matching fn, in document order.
func (e *Element) FindFunc(fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && fn(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range e.nodes() {
		walk(n)
	}
	return out
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n's class attribute contains class.
func HasClass(n *html.Node, class string) bool {
	if class == "" {
		return false
	}
	return slices.Contains(strings.Fields(Attr(n, "class")), class)
}

// Closest returns n or its nearest ancestor whose tag is one of tags.
// An "input[type=button]" entry matches inputs of type button only.
func Closest(n *html.Node, tags ...string) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		for _, tag := range tags {
			if tag == "input[type=button]" {
				if cur.Data == "input" && Attr(cur, "type") == "button" {
					return cur
				}
				continue
			}
			if cur.Data == tag {
				return cur
			}
		}
	}
	return nil
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}
