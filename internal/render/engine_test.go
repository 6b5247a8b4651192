package render

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/protocol"
	"github.com/five82/loom/internal/widget"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

type fakeInput struct {
	patched []*html.Node
	resets  int
}

func (f *fakeInput) Patch(n *html.Node)     { f.patched = append(f.patched, n) }
func (f *fakeInput) PatchTree(n *html.Node) { f.patched = append(f.patched, n) }
func (f *fakeInput) Prune()                 {}
func (f *fakeInput) Reset()                 { f.resets++ }

type hookLog struct {
	entries []string
}

type probe struct {
	log *hookLog
	id  string
}

func (p *probe) Setup(any) error {
	p.log.entries = append(p.log.entries, "setup "+p.id)
	return nil
}

func (p *probe) DataUpdated(d any) error {
	data, _ := json.Marshal(d)
	p.log.entries = append(p.log.entries, "update "+p.id+" "+string(data))
	return nil
}

func (p *probe) Destroy() error {
	p.log.entries = append(p.log.entries, "destroy "+p.id)
	return nil
}

func newEngine(t *testing.T) (*Engine, *fakeInput, *hookLog) {
	t.Helper()
	log := &hookLog{}
	registry := widget.Registry{
		"Probe": func(m widget.Mount) widget.Component { return &probe{log: log, id: m.ID} },
	}
	input := &fakeInput{}
	doc := dom.NewDocument(dom.NewRoot("lona"))
	e := NewEngine(doc, widget.NewManager(registry, nil, nil), input, nil)
	return e, input, log
}

func text(id, content string) protocol.NodeSpec {
	return protocol.NodeSpec{Type: protocol.NodeText, ID: id, Content: content}
}

func elem(id, tag string, children ...protocol.NodeSpec) protocol.NodeSpec {
	return protocol.NodeSpec{Type: protocol.NodeElement, ID: id, Namespace: protocol.DefaultNamespace, Tag: tag, Children: children}
}

func patches(t *testing.T, raw string) *protocol.Display {
	t.Helper()
	ps, err := protocol.DecodePatches(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodePatches(%s): %v", raw, err)
	}
	return &protocol.Display{Kind: protocol.PayloadPatch, Patches: ps}
}

func showTree(t *testing.T, e *Engine, spec protocol.NodeSpec) {
	t.Helper()
	if err := e.Show(&protocol.Display{Kind: protocol.PayloadTree, Tree: &spec}); err != nil {
		t.Fatalf("Show tree returned error: %v", err)
	}
}

func TestShow_TreeRendersAndCachesEveryID(t *testing.T) {
	e, input, _ := newEngine(t)

	spec := elem("1", "div", text("2", "a &amp; <b>b</b>"), elem("3", "p", text("4", "x")))
	spec.IDList = []string{"main"}
	spec.ClassList = []string{"c1", "c2"}
	spec.Style = map[string]string{"width": "1px", "color": "red"}
	spec.Attributes = map[string]any{"title": "t", "value": "v", "data-n": float64(3)}
	showTree(t, e, spec)

	if diff := cmp.Diff([]string{"1", "2", "3", "4"}, e.IDs()); diff != "" {
		t.Fatalf("cached ids mismatch (-want +got):\n%s", diff)
	}
	want := `<div data-lona-node-id="1" id="main" class="c1 c2" style="color: red; width: 1px" data-n="3" title="t">a &amp; b<p data-lona-node-id="3">x</p></div>`
	if got := dom.InnerHTML(e.Document().Root()); got != want {
		t.Fatalf("markup = %s\nwant     %s", got, want)
	}
	div, _ := e.Node("1")
	if got := e.Document().Value(div); got != "v" {
		t.Fatalf("value property = %q, want %q", got, "v")
	}
	if len(input.patched) != 2 {
		t.Fatalf("input patched %d elements, want 2", len(input.patched))
	}
}

func TestApply_SetRoundTrip(t *testing.T) {
	e, _, _ := newEngine(t)
	showTree(t, e, elem("1", "div", text("2", "hello")))

	if err := e.Show(patches(t, `[["1",605,701,0,[502,"3","bye"]]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "3"}, e.IDs()); diff != "" {
		t.Fatalf("cached ids mismatch (-want +got):\n%s", diff)
	}
	div, _ := e.Node("1")
	if got := dom.TextContent(div); got != "bye" {
		t.Fatalf("text = %q, want %q", got, "bye")
	}
}

func TestApply_SetReusesID(t *testing.T) {
	e, _, _ := newEngine(t)
	showTree(t, e, elem("1", "div", text("2", "old")))

	if err := e.Show(patches(t, `[[1,605,701,0,[502,2,"new"]]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	node, ok := e.Node("2")
	if !ok || node.Data != "new" {
		t.Fatalf("node 2 = %v, want replacement text", node)
	}
}

func TestApply_RemoveDestroysNestedComponents(t *testing.T) {
	e, _, log := newEngine(t)

	outer := elem("10", "section", elem("11", "div"))
	outer.Component = "Probe"
	outer.Children[0].Component = "Probe"
	showTree(t, e, elem("1", "div", outer, text("2", "keep")))

	if err := e.Show(patches(t, `[[1,605,705,10]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}

	if diff := cmp.Diff([]string{"1", "2"}, e.IDs()); diff != "" {
		t.Fatalf("cached ids mismatch (-want +got):\n%s", diff)
	}
	want := []string{"setup 10", "setup 11", "destroy 10", "destroy 11"}
	if diff := cmp.Diff(want, log.entries); diff != "" {
		t.Fatalf("hooks mismatch (-want +got):\n%s", diff)
	}
}

func TestShow_SetupBeforeUpdateInOnePayload(t *testing.T) {
	e, _, log := newEngine(t)
	showTree(t, e, elem("1", "div"))

	comp := `[501,"5",null,"div",[],[],{},{},[],"Probe",{"items":[]}]`
	raw := `[["1",605,704,0,` + comp + `],["5",606,704,["items"],0,"a"]]`
	if err := e.Show(patches(t, raw)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}

	want := []string{"setup 5", `update 5 {"items":["a"]}`}
	if diff := cmp.Diff(want, log.entries); diff != "" {
		t.Fatalf("hooks mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_ComponentRangeCountsAsOneChild(t *testing.T) {
	e, _, log := newEngine(t)

	rng := protocol.NodeSpec{Type: protocol.NodeWidget, ID: "w", Component: "Probe", Children: []protocol.NodeSpec{text("w1", "in1"), text("w2", "in2")}}
	showTree(t, e, elem("1", "div", text("a", "A"), rng, text("b", "B")))

	// Index 2 is "b" because the range occupies index 1.
	if err := e.Show(patches(t, `[[1,605,701,2,[502,"c","C"]]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	div, _ := e.Node("1")
	if got := dom.TextContent(div); got != "Ain1in2C" {
		t.Fatalf("text = %q, want %q", got, "Ain1in2C")
	}

	// Patching the range itself edits the nodes between its markers.
	if err := e.Show(patches(t, `[["w",605,704,9,[502,"w3","in3"]],["w",605,705,"w1"]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	if got := dom.TextContent(div); got != "Ain2in3C" {
		t.Fatalf("text = %q, want %q", got, "Ain2in3C")
	}

	// Replacing index 1 removes the whole range and destroys its component.
	if err := e.Show(patches(t, `[[1,605,701,1,[502,"r","R"]]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "a", "c", "r"}, e.IDs()); diff != "" {
		t.Fatalf("cached ids mismatch (-want +got):\n%s", diff)
	}
	if got := dom.InnerHTML(div); got != "ARC" {
		t.Fatalf("children = %q, want %q", got, "ARC")
	}
	if log.entries[len(log.entries)-1] != "destroy w" {
		t.Fatalf("hooks = %v, want range destroyed last", log.entries)
	}
}

func TestApply_ResetClearInsert(t *testing.T) {
	e, _, _ := newEngine(t)
	showTree(t, e, elem("1", "ul", elem("2", "li"), elem("3", "li")))

	if err := e.Show(patches(t, `[[1,605,702,[[501,4,null,"li",[],[],{},{},[]]]],[1,605,704,99,[502,5,"end"]],[1,605,704,0,[502,6,"start"]]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	ul, _ := e.Node("1")
	if got := dom.InnerHTML(ul); got != `start<li data-lona-node-id="4"></li>end` {
		t.Fatalf("children = %s", got)
	}
	if diff := cmp.Diff([]string{"1", "4", "5", "6"}, e.IDs()); diff != "" {
		t.Fatalf("cached ids mismatch (-want +got):\n%s", diff)
	}

	if err := e.Show(patches(t, `[[1,605,703]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"1"}, e.IDs()); diff != "" {
		t.Fatalf("cached ids after clear mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_AttributeCategories(t *testing.T) {
	e, input, _ := newEngine(t)
	spec := elem("1", "input")
	spec.IDList = []string{"a"}
	spec.Attributes = map[string]any{"name": "n", "placeholder": "p"}
	showTree(t, e, spec)
	input.patched = nil

	raw := `[
		[1,601,706,"b"],
		[1,602,706,"x"],[1,602,706,"y"],[1,602,705,"x"],
		[1,603,701,"color","red"],
		[1,604,701,"data-lona-events","301"],
		[1,604,701,"checked",true],
		[1,604,705,"placeholder"]
	]`
	if err := e.Show(patches(t, raw)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}

	el, _ := e.Node("1")
	want := `<input data-lona-node-id="1" id="a b" name="n" class="y" style="color: red" data-lona-events="301"/>`
	if got := dom.InnerHTML(e.Document().Root()); got != want {
		t.Fatalf("markup = %s\nwant     %s", got, want)
	}
	if !e.Document().Checked(el) {
		t.Fatalf("checked property not set")
	}
	if len(input.patched) != 1 {
		t.Fatalf("input re-derived %d times, want 1", len(input.patched))
	}

	if err := e.Show(patches(t, `[[1,604,703]]`)); err != nil {
		t.Fatalf("Show patch returned error: %v", err)
	}
	want = `<input data-lona-node-id="1" id="a b" class="y" style="color: red"/>`
	if got := dom.InnerHTML(e.Document().Root()); got != want {
		t.Fatalf("markup after clear = %s\nwant     %s", got, want)
	}
	if e.Document().Checked(el) {
		t.Fatalf("checked survived attribute clear")
	}
}

func TestShow_Errors(t *testing.T) {
	e, _, _ := newEngine(t)
	showTree(t, e, elem("1", "div", text("2", "x")))

	if err := e.Show(patches(t, `[[99,602,706,"x"]]`)); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("unknown target error = %v, want ErrUnknownNode", err)
	}
	if err := e.Show(patches(t, `[[1,605,704,0,[502,2,"dup"]]]`)); !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("duplicate id error = %v, want ErrDuplicateNode", err)
	}

	bad := elem("9", "div")
	bad.Component = "Missing"
	if err := e.Show(&protocol.Display{Kind: protocol.PayloadTree, Tree: &bad}); !errors.Is(err, widget.ErrUnknownComponent) {
		t.Fatalf("unknown component error = %v, want ErrUnknownComponent", err)
	}
}

func TestShow_MarkupResetsState(t *testing.T) {
	e, input, log := newEngine(t)
	spec := elem("1", "div")
	spec.Component = "Probe"
	showTree(t, e, spec)

	if err := e.Show(&protocol.Display{Kind: protocol.PayloadMarkup, Markup: `<a href="/x">x</a>`}); err != nil {
		t.Fatalf("Show markup returned error: %v", err)
	}
	if len(e.IDs()) != 0 {
		t.Fatalf("cache = %v, want empty after markup", e.IDs())
	}
	if got := dom.InnerHTML(e.Document().Root()); got != `<a href="/x">x</a>` {
		t.Fatalf("markup = %s", got)
	}
	if diff := cmp.Diff([]string{"setup 1", "destroy 1"}, log.entries); diff != "" {
		t.Fatalf("hooks mismatch (-want +got):\n%s", diff)
	}
	if input.resets == 0 {
		t.Fatalf("input bindings were not reset")
	}
}
