package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Namespace URIs accepted in node specs.
const (
	NamespaceXHTML  = "http://www.w3.org/1999/xhtml"
	NamespaceSVG    = "http://www.w3.org/2000/svg"
	NamespaceMathML = "http://www.w3.org/1998/Math/MathML"
)

// Attribute names with structural meaning.
const (
	AttrID    = "id"
	AttrClass = "class"
	AttrStyle = "style"
)

// Markers bracketing a component range.
const (
	markerStartPrefix = "lona-widget:"
	markerEndPrefix   = "end-lona-widget:"
)

// Document is one window's display tree: a root element plus the live
// properties of its form controls, which are state rather than markup.
type Document struct {
	root  *html.Node
	props map[*html.Node]map[string]any
}

// NewDocument wraps root.
func NewDocument(root *html.Node) *Document {
	return &Document{root: root, props: make(map[*html.Node]map[string]any)}
}

// NewRoot returns a detached container element with the given id.
func NewRoot(id string) *html.Node {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if id != "" {
		SetAttr(root, AttrID, id)
	}
	return root
}

// Root returns the document's root element.
func (d *Document) Root() *html.Node { return d.root }

// Clear removes every child of the root and forgets all live properties.
func (d *Document) Clear() {
	ClearChildren(d.root)
	clear(d.props)
}

// NewElement creates an element in the given namespace URI.
func NewElement(namespace, tag string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	switch namespace {
	case "", NamespaceXHTML:
		n.DataAtom = atom.Lookup([]byte(tag))
	case NamespaceSVG:
		n.Namespace = "svg"
	case NamespaceMathML:
		n.Namespace = "math"
	default:
		n.Namespace = namespace
	}
	return n
}

// NewText creates a text node.
func NewText(content string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: content}
}

// NewMarkers creates the start and end comments bracketing component id.
func NewMarkers(id string) (start, end *html.Node) {
	start = &html.Node{Type: html.CommentNode, Data: markerStartPrefix + id}
	end = &html.Node{Type: html.CommentNode, Data: markerEndPrefix + id}
	return start, end
}

// Marker reports whether n is a component marker and which one.
func Marker(n *html.Node) (id string, start bool, ok bool) {
	if n == nil || n.Type != html.CommentNode {
		return "", false, false
	}
	if rest, found := strings.CutPrefix(n.Data, markerEndPrefix); found {
		return rest, false, true
	}
	if rest, found := strings.CutPrefix(n.Data, markerStartPrefix); found {
		return rest, true, true
	}
	return "", false, false
}

// Attr returns the value of an attribute in the default namespace.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, keeping its position when it already exists.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}

// Tokens splits a space separated attribute such as id or class.
func Tokens(n *html.Node, key string) []string {
	val, _ := Attr(n, key)
	return strings.Fields(val)
}

// SetTokens replaces a space separated attribute. An empty list removes it.
func SetTokens(n *html.Node, key string, tokens []string) {
	if len(tokens) == 0 {
		RemoveAttr(n, key)
		return
	}
	SetAttr(n, key, strings.Join(tokens, " "))
}

// AddToken appends token unless it is already present.
func AddToken(n *html.Node, key, token string) {
	tokens := Tokens(n, key)
	if slices.Contains(tokens, token) {
		return
	}
	SetTokens(n, key, append(tokens, token))
}

// RemoveToken deletes every occurrence of token.
func RemoveToken(n *html.Node, key, token string) {
	tokens := Tokens(n, key)
	SetTokens(n, key, slices.DeleteFunc(tokens, func(t string) bool { return t == token }))
}

// StyleProp is one declaration of an inline style.
type StyleProp struct {
	Name  string
	Value string
}

// Style parses the inline style attribute in declaration order.
func Style(n *html.Node) []StyleProp {
	val, _ := Attr(n, AttrStyle)
	var props []StyleProp
	for decl := range strings.SplitSeq(val, ";") {
		name, value, found := strings.Cut(decl, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			continue
		}
		props = append(props, StyleProp{Name: name, Value: strings.TrimSpace(value)})
	}
	return props
}

// SetStyle writes the declarations back. An empty list removes the attribute.
func SetStyle(n *html.Node, props []StyleProp) {
	if len(props) == 0 {
		RemoveAttr(n, AttrStyle)
		return
	}
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Name + ": " + p.Value
	}
	SetAttr(n, AttrStyle, strings.Join(parts, "; "))
}

// SetStyleProp sets one declaration, keeping its position when it exists.
func SetStyleProp(n *html.Node, name, value string) {
	props := Style(n)
	for i := range props {
		if props[i].Name == name {
			props[i].Value = value
			SetStyle(n, props)
			return
		}
	}
	SetStyle(n, append(props, StyleProp{Name: name, Value: value}))
}

// RemoveStyleProp deletes one declaration.
func RemoveStyleProp(n *html.Node, name string) {
	SetStyle(n, slices.DeleteFunc(Style(n), func(p StyleProp) bool { return p.Name == name }))
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ClearChildren detaches every child of n.
func ClearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// Children returns a snapshot of n's children.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's subtree.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// IsElement reports whether n is an HTML element with the given tag.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Namespace == "" && n.Data == tag
}

// InnerHTML renders n's children.
func InnerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			break
		}
	}
	return sb.String()
}
