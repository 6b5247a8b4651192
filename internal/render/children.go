package render

import (
	"fmt"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/protocol"
	"golang.org/x/net/html"
)

// slot is one logical child: a single node, or a whole component range from
// its start marker to its end marker.
type slot struct {
	first, last *html.Node
}

func (s slot) nodes() []*html.Node { return siblings(s.first, s.last) }

// container describes where the logical children of a patch target live.
// boundary is the node new children are inserted before when appending; it
// is nil for elements and the end marker for component ranges.
type container struct {
	parent   *html.Node
	first    *html.Node
	boundary *html.Node
}

func (e *Engine) containerOf(h handle) (container, error) {
	if h.isRange() {
		if h.start.Parent == nil {
			return container{}, fmt.Errorf("component range is detached")
		}
		return container{parent: h.start.Parent, first: h.start.NextSibling, boundary: h.end}, nil
	}
	if h.node.Type != html.ElementNode {
		return container{}, fmt.Errorf("target cannot have children")
	}
	return container{parent: h.node, first: h.node.FirstChild}, nil
}

// slots lists the logical children of c.
func (c container) slots() []slot {
	var out []slot
	for n := c.first; n != nil && n != c.boundary; {
		s := slot{first: n, last: n}
		if id, start, ok := dom.Marker(n); ok && start {
			for m := n.NextSibling; m != nil && m != c.boundary; m = m.NextSibling {
				if endID, isStart, ok := dom.Marker(m); ok && !isStart && endID == id {
					s.last = m
					break
				}
			}
		}
		out = append(out, s)
		n = s.last.NextSibling
	}
	return out
}

func (c container) insertBefore(nodes []*html.Node, ref *html.Node) {
	for _, n := range nodes {
		c.parent.InsertBefore(n, ref)
	}
}

func detachAll(nodes []*html.Node) {
	for _, n := range nodes {
		dom.Detach(n)
	}
}

func (e *Engine) applyChildren(h handle, p protocol.Patch) error {
	c, err := e.containerOf(h)
	if err != nil {
		return err
	}

	switch p.Op {
	case protocol.OpSet:
		index, err := p.Int(0)
		if err != nil {
			return err
		}
		spec, err := p.Node(1)
		if err != nil {
			return err
		}
		slots := c.slots()
		if index < 0 || index >= len(slots) {
			return fmt.Errorf("index %d out of range [0,%d)", index, len(slots))
		}
		ref := slots[index].last.NextSibling
		detachAll(slots[index].nodes())
		if err := e.sweep(); err != nil {
			return err
		}
		nodes, err := e.Render(spec)
		if err != nil {
			return err
		}
		c.insertBefore(nodes, ref)

	case protocol.OpReset:
		specs, err := p.Nodes(0)
		if err != nil {
			return err
		}
		for _, s := range c.slots() {
			detachAll(s.nodes())
		}
		if err := e.sweep(); err != nil {
			return err
		}
		for _, spec := range specs {
			nodes, err := e.Render(spec)
			if err != nil {
				return err
			}
			c.insertBefore(nodes, c.boundary)
		}

	case protocol.OpClear:
		for _, s := range c.slots() {
			detachAll(s.nodes())
		}

	case protocol.OpInsert:
		index, err := p.Int(0)
		if err != nil {
			return err
		}
		spec, err := p.Node(1)
		if err != nil {
			return err
		}
		if index < 0 {
			return fmt.Errorf("negative index %d", index)
		}
		nodes, err := e.Render(spec)
		if err != nil {
			return err
		}
		ref := c.boundary
		if slots := c.slots(); index < len(slots) {
			ref = slots[index].first
		}
		c.insertBefore(nodes, ref)

	case protocol.OpRemove:
		id, err := p.ID(0)
		if err != nil {
			return err
		}
		child, ok := e.nodes[id]
		if !ok {
			return fmt.Errorf("%w %s", ErrUnknownNode, id)
		}
		detachAll(child.nodes())

	default:
		return unsupported(p)
	}

	if err := e.sweep(); err != nil {
		return err
	}
	if h.isRange() {
		e.widgets.SetNodes(p.Target, h.inner())
	}
	return nil
}
