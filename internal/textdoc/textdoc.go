package textdoc

import (
	"fmt"
	"strings"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/events"
	"github.com/five82/loom/internal/protocol"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind classifies a target.
type Kind int

const (
	Link Kind = iota
	Button
	TextInput
	TextArea
	Checkbox
	Radio
	Select
	// Bound is any other element with an event binding.
	Bound
)

func (k Kind) String() string {
	switch k {
	case Link:
		return "link"
	case Button:
		return "button"
	case TextInput:
		return "input"
	case TextArea:
		return "textarea"
	case Checkbox:
		return "checkbox"
	case Radio:
		return "radio"
	case Select:
		return "select"
	case Bound:
		return "bound"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Editable reports whether the target takes typed text.
func (k Kind) Editable() bool {
	return k == TextInput || k == TextArea
}

// Target is one interactive element of a page.
type Target struct {
	Node  *html.Node
	Kind  Kind
	Label string
	Value string
	// Options lists the option labels of a select.
	Options  []string
	Selected []int
	Checked  bool

	// Line is the index of the line holding the target and Start and End
	// delimit its text within that line.
	Line       int
	Start, End int
}

// Page is a flattened tree.
type Page struct {
	Lines   []string
	Targets []Target
}

// Text joins the lines of the page.
func (p Page) Text() string {
	return strings.Join(p.Lines, "\n")
}

var blocks = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Details: true, atom.Dialog: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true,
	atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Summary: true, atom.Table: true, atom.Tr: true,
	atom.Ul: true,
}

var hidden = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Template: true,
	atom.Noscript: true,
}

type flattener struct {
	doc   *dom.Document
	page  Page
	line  strings.Builder
	space bool
	// afterTarget separates adjacent targets.
	afterTarget bool
	pre         int
}

// Flatten renders the tree under doc's root.
func Flatten(doc *dom.Document) Page {
	f := &flattener{doc: doc}
	for c := doc.Root().FirstChild; c != nil; c = c.NextSibling {
		f.node(c)
	}
	f.breakLine()
	return f.page
}

func (f *flattener) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		f.text(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}
	if hidden[n.DataAtom] {
		return
	}
	if _, ok := dom.Attr(n, "hidden"); ok {
		return
	}

	if kind, ok := f.targetKind(n); ok {
		if blocks[n.DataAtom] {
			f.breakLine()
		}
		f.target(n, kind)
		if blocks[n.DataAtom] {
			f.breakLine()
		}
		return
	}

	switch n.DataAtom {
	case atom.Br:
		f.breakLine()
		return
	case atom.Hr:
		f.breakLine()
		f.write("----")
		f.breakLine()
		return
	}

	block := blocks[n.DataAtom]
	if block {
		f.breakLine()
	}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		f.write(strings.Repeat("#", int(n.Data[1]-'0')) + " ")
	case atom.Li:
		f.write("* ")
	case atom.Td, atom.Th:
		if f.line.Len() > 0 {
			f.space = false
			f.line.WriteString(" | ")
		}
	case atom.Pre:
		f.pre++
		defer func() { f.pre-- }()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.node(c)
	}
	if block {
		f.breakLine()
	}
}

func (f *flattener) targetKind(n *html.Node) (Kind, bool) {
	if _, ignored := dom.Attr(n, protocol.AttrIgnore); ignored {
		return 0, false
	}
	switch n.DataAtom {
	case atom.A:
		if _, ok := dom.Attr(n, "href"); ok {
			return Link, true
		}
	case atom.Button:
		return Button, true
	case atom.Textarea:
		return TextArea, true
	case atom.Select:
		return Select, true
	case atom.Input:
		t, _ := dom.Attr(n, "type")
		switch strings.ToLower(t) {
		case "hidden":
			return 0, false
		case "checkbox":
			return Checkbox, true
		case "radio":
			return Radio, true
		case "submit", "button", "reset", "image":
			return Button, true
		default:
			return TextInput, true
		}
	}
	if attr, ok := dom.Attr(n, protocol.AttrEvents); ok && len(events.ParseBindings(attr)) > 0 {
		return Bound, true
	}
	return 0, false
}

func (f *flattener) target(n *html.Node, kind Kind) {
	t := Target{Node: n, Kind: kind}
	var text string

	switch kind {
	case Link, Button, Bound:
		t.Label = collapse(dom.TextContent(n))
		if t.Label == "" {
			t.Label = f.doc.Value(n)
		}
		if t.Label == "" {
			t.Label = kind.String()
		}
		switch kind {
		case Link:
			text = t.Label
		default:
			text = "[ " + t.Label + " ]"
		}
	case TextInput, TextArea:
		t.Value = f.doc.Value(n)
		t.Label, _ = dom.Attr(n, "placeholder")
		shown := t.Value
		if shown == "" {
			shown = t.Label
		}
		text = "[" + collapse(shown) + "_]"
	case Checkbox, Radio:
		t.Checked = f.doc.Checked(n)
		mark := " "
		if t.Checked {
			mark = "x"
		}
		if kind == Radio {
			text = "(" + mark + ")"
		} else {
			text = "[" + mark + "]"
		}
	case Select:
		selected := map[*html.Node]bool{}
		for _, o := range events.SelectedOptions(f.doc, n) {
			selected[o] = true
		}
		var labels []string
		for i, o := range events.Options(n) {
			label := collapse(dom.TextContent(o))
			t.Options = append(t.Options, label)
			if selected[o] {
				t.Selected = append(t.Selected, i)
				labels = append(labels, label)
			}
		}
		text = "<" + strings.Join(labels, ", ") + " v>"
	}

	if f.line.Len() > 0 && (f.space || f.afterTarget) {
		f.line.WriteByte(' ')
	}
	f.space = false
	t.Line = len(f.page.Lines)
	t.Start = f.line.Len()
	f.line.WriteString(text)
	t.End = f.line.Len()
	f.afterTarget = true
	f.page.Targets = append(f.page.Targets, t)
}

func (f *flattener) text(s string) {
	if f.pre > 0 {
		for i, part := range strings.Split(s, "\n") {
			if i > 0 {
				f.breakLine()
			}
			f.write(part)
		}
		return
	}
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' {
			if f.line.Len() > 0 {
				f.space = true
			}
			continue
		}
		if f.space {
			f.line.WriteByte(' ')
			f.space = false
		}
		f.afterTarget = false
		f.line.WriteRune(r)
	}
}

func (f *flattener) write(s string) {
	if f.space && f.line.Len() > 0 {
		f.line.WriteByte(' ')
	}
	f.space = false
	f.afterTarget = false
	f.line.WriteString(s)
}

// breakLine ends the current line. Empty lines are never emitted.
func (f *flattener) breakLine() {
	f.space = false
	f.afterTarget = false
	if f.line.Len() == 0 {
		return
	}
	f.page.Lines = append(f.page.Lines, f.line.String())
	f.line.Reset()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
