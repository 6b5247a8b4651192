package events

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/protocol"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrStaleTarget reports an interaction aimed at a node that has left the
// tree.
var ErrStaleTarget = errors.New("interaction target is not in the tree")

// Sink receives what the capture layer produces. Every method is called from
// inside a job on the window's queue, except that Schedule may be called from
// a timer goroutine.
type Sink interface {
	// FireEvent sends an input event with the given descriptors.
	FireEvent(typ protocol.EventType, data any, source, target []any) error
	// Navigate starts a new view, optionally posting form data.
	Navigate(rawURL string, post map[string]any) error
	// Schedule runs job later on the window's queue.
	Schedule(job func() error)
	// URL is the address of the current view.
	URL() string
}

// Kind is the kind of a user interaction.
type Kind int

const (
	// Click activates a node; toggles flip their checked state first.
	Click Kind = iota
	// Input replaces the value of a text control, as a keystroke would.
	Input
	// Change commits the current value of a control.
	Change
	// Select chooses the options of a select by index.
	Select
	// Submit submits the form that contains the target.
	Submit
	Focus
	Blur
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case Input:
		return "input"
	case Change:
		return "change"
	case Select:
		return "select"
	case Submit:
		return "submit"
	case Focus:
		return "focus"
	case Blur:
		return "blur"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Modifiers are the modifier keys held during a click.
type Modifiers struct {
	Alt, Shift, Meta, Ctrl bool
}

// Interaction is one user action against the tree.
type Interaction struct {
	Kind      Kind
	Target    *html.Node
	Value     string
	Selected  []int
	Modifiers Modifiers
}

type handlers struct {
	link     bool
	form     bool
	bindings Bindings
}

type debounce struct {
	timer *time.Timer
	gen   uint64
}

// Capture derives input handlers from the tree and turns interactions into
// input events or navigations. It is not safe for concurrent use; all calls
// are made from jobs on the window's queue.
type Capture struct {
	doc    *dom.Document
	sink   Sink
	logger *slog.Logger

	nodes  map[*html.Node]*handlers
	timers map[*html.Node]*debounce
	gen    uint64
}

// NewCapture returns a capture layer for doc.
func NewCapture(doc *dom.Document, sink Sink, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		doc:    doc,
		sink:   sink,
		logger: logger,
		nodes:  make(map[*html.Node]*handlers),
		timers: make(map[*html.Node]*debounce),
	}
}

// Patch (re)derives the handlers of element n from its current attributes.
func (c *Capture) Patch(n *html.Node) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	delete(c.nodes, n)
	if _, ignored := dom.Attr(n, protocol.AttrIgnore); ignored {
		c.stopTimer(n)
		return
	}

	attr, _ := dom.Attr(n, protocol.AttrEvents)
	h := &handlers{bindings: ParseBindings(attr)}
	if _, ok := h.bindings[protocol.EventClick]; !ok && n.DataAtom == atom.A && n.Namespace == "" {
		h.link = true
	}
	if _, ok := h.bindings[protocol.EventSubmit]; !ok && n.DataAtom == atom.Form && n.Namespace == "" {
		h.form = true
	}
	if _, ok := h.bindings[protocol.EventChange]; !ok {
		c.stopTimer(n)
	}
	if !h.link && !h.form && len(h.bindings) == 0 {
		return
	}
	c.nodes[n] = h
}

// PatchTree patches n and every element below it.
func (c *Capture) PatchTree(n *html.Node) {
	dom.Walk(n, func(node *html.Node) bool {
		c.Patch(node)
		return true
	})
}

// Prune drops handlers and pending debounce timers of nodes that left the
// tree.
func (c *Capture) Prune() {
	root := c.doc.Root()
	for n := range c.nodes {
		if !dom.Contains(root, n) {
			delete(c.nodes, n)
		}
	}
	for n := range c.timers {
		if !dom.Contains(root, n) {
			c.stopTimer(n)
		}
	}
}

// Reset drops every handler and timer.
func (c *Capture) Reset() {
	for n := range c.timers {
		c.stopTimer(n)
	}
	clear(c.nodes)
}

// Bindings returns the explicit bindings of n, if it has handlers.
func (c *Capture) Bindings(n *html.Node) (Bindings, bool) {
	h, ok := c.nodes[n]
	if !ok {
		return nil, false
	}
	return h.bindings, true
}

// Dispatch performs an interaction.
func (c *Capture) Dispatch(in Interaction) error {
	target := in.Target
	if target == nil || !dom.Contains(c.doc.Root(), target) {
		return ErrStaleTarget
	}

	switch in.Kind {
	case Click:
		return c.click(target, in.Modifiers)
	case Input:
		c.doc.SetProperty(target, dom.PropValue, in.Value)
		return c.changed(target, false)
	case Change:
		return c.changed(target, true)
	case Select:
		c.selectOptions(target, in.Selected)
		return c.changed(target, true)
	case Submit:
		form := FormOf(target)
		if form == nil {
			return nil
		}
		return c.submit(form, target)
	case Focus, Blur:
		typ := protocol.EventFocus
		if in.Kind == Blur {
			typ = protocol.EventBlur
		}
		if h, ok := c.nodes[target]; ok {
			if _, bound := h.bindings[typ]; bound {
				return c.fire(target, target, typ, nil)
			}
		}
		return nil
	default:
		return fmt.Errorf("dispatch: unknown interaction kind %v", in.Kind)
	}
}

// FireCustom sends a custom event on behalf of a node id.
func (c *Capture) FireCustom(nodeID string, data any) error {
	desc := DescribeID(nodeID)
	return c.sink.FireEvent(protocol.EventCustom, data, desc, desc)
}

func (c *Capture) click(target *html.Node, mods Modifiers) error {
	toggled := false
	if IsToggle(target) && !isDisabled(target) {
		c.toggle(target)
		toggled = true
	}

	if err := c.bubbleClick(target, mods); err != nil {
		return err
	}
	if toggled {
		return c.changed(target, true)
	}
	return nil
}

func (c *Capture) bubbleClick(target *html.Node, mods Modifiers) error {
	root := c.doc.Root()
	for n := target; n != nil; n = n.Parent {
		if h, ok := c.nodes[n]; ok {
			if h.link {
				href, ok := dom.Attr(n, "href")
				if !ok {
					return nil
				}
				return c.sink.Navigate(href, nil)
			}
			if _, ok := h.bindings[protocol.EventClick]; ok {
				return c.fire(n, target, protocol.EventClick, map[string]any{
					"alt_key":   mods.Alt,
					"shift_key": mods.Shift,
					"meta_key":  mods.Meta,
					"ctrl_key":  mods.Ctrl,
				})
			}
		}
		if IsSubmitter(n) && !isDisabled(n) {
			if form := FormOf(n); form != nil {
				return c.submit(form, target)
			}
		}
		if n == root {
			break
		}
	}
	return nil
}

func (c *Capture) toggle(n *html.Node) {
	if inputType(n) == "checkbox" {
		c.doc.SetProperty(n, dom.PropChecked, !c.doc.Checked(n))
		return
	}

	name, _ := dom.Attr(n, "name")
	scope := FormOf(n)
	if scope == nil {
		scope = c.doc.Root()
	}
	if name != "" {
		dom.Walk(scope, func(other *html.Node) bool {
			if other != n && IsToggle(other) && inputType(other) == "radio" {
				if otherName, _ := dom.Attr(other, "name"); otherName == name {
					c.doc.SetProperty(other, dom.PropChecked, false)
				}
			}
			return true
		})
	}
	c.doc.SetProperty(n, dom.PropChecked, true)
}

func (c *Capture) selectOptions(sel *html.Node, indexes []int) {
	options := Options(sel)
	multiple := isMultiple(sel)
	for i, o := range options {
		on := slices.Contains(indexes, i)
		if !multiple && on {
			// A single select keeps only the first chosen option.
			on = i == firstIndex(indexes, len(options))
		}
		c.doc.SetProperty(o, dom.PropSelected, on)
	}
}

func firstIndex(indexes []int, n int) int {
	for _, i := range indexes {
		if i >= 0 && i < n {
			return i
		}
	}
	return -1
}

// changed reacts to a value change of target. commit is false for
// keystrokes, which only matter to debounced bindings.
func (c *Capture) changed(target *html.Node, commit bool) error {
	root := c.doc.Root()
	for n := target; n != nil; n = n.Parent {
		if h, ok := c.nodes[n]; ok {
			if args, bound := h.bindings[protocol.EventChange]; bound {
				if delay, ok := changeDelay(args); ok {
					c.debounce(n, target, time.Duration(delay)*time.Millisecond)
					return nil
				}
				if !commit {
					return nil
				}
				return c.fire(n, target, protocol.EventChange, ControlValue(c.doc, n))
			}
		}
		if n == root {
			break
		}
	}
	return nil
}

func (c *Capture) debounce(n, target *html.Node, delay time.Duration) {
	c.stopTimer(n)
	c.gen++
	gen := c.gen
	d := &debounce{gen: gen}
	d.timer = time.AfterFunc(delay, func() {
		c.sink.Schedule(func() error {
			current, ok := c.timers[n]
			if !ok || current.gen != gen {
				return nil
			}
			delete(c.timers, n)
			if !dom.Contains(c.doc.Root(), n) {
				return nil
			}
			return c.fire(n, target, protocol.EventChange, ControlValue(c.doc, n))
		})
	})
	c.timers[n] = d
}

func (c *Capture) stopTimer(n *html.Node) {
	if d, ok := c.timers[n]; ok {
		d.timer.Stop()
		delete(c.timers, n)
	}
}

func (c *Capture) submit(form, target *html.Node) error {
	h, ok := c.nodes[form]
	if !ok {
		return nil
	}
	data := FormData(c.doc, form)
	if _, bound := h.bindings[protocol.EventSubmit]; bound {
		return c.fire(form, target, protocol.EventSubmit, data)
	}

	method, _ := dom.Attr(form, "method")
	action, _ := dom.Attr(form, "action")
	if action == "" {
		action = c.sink.URL()
	}

	switch strings.ToLower(method) {
	case "post":
		return c.sink.Navigate(action, data)
	default:
		u, err := url.Parse(action)
		if err != nil {
			return fmt.Errorf("submit form: parse action %q: %w", action, err)
		}
		u.RawQuery = QueryValues(data).Encode()
		u.Fragment = ""
		return c.sink.Navigate(u.String(), nil)
	}
}

func (c *Capture) fire(node, target *html.Node, typ protocol.EventType, data any) error {
	if data == nil {
		data = []any{}
	}
	c.logger.Debug("input event", "type", typ, "node", Describe(node)[0])
	return c.sink.FireEvent(typ, data, Describe(node), Describe(target))
}
