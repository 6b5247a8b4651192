package render

import (
	"slices"

	"github.com/five82/loom/internal/dom"
	"golang.org/x/net/html"
)

// handle is a cached node: a single element or text node, or a component
// range bracketed by two marker comments.
type handle struct {
	node       *html.Node
	start, end *html.Node
}

func (h handle) isRange() bool { return h.start != nil }

// anchor is the node whose reachability decides whether h is live.
func (h handle) anchor() *html.Node {
	if h.isRange() {
		return h.start
	}
	return h.node
}

// nodes returns every top-level node h occupies, markers included.
func (h handle) nodes() []*html.Node {
	if !h.isRange() {
		return []*html.Node{h.node}
	}
	return siblings(h.start, h.end)
}

// inner returns the nodes between the markers of a range.
func (h handle) inner() []*html.Node {
	if !h.isRange() || h.start.NextSibling == h.end {
		return nil
	}
	return siblings(h.start.NextSibling, h.end.PrevSibling)
}

// siblings returns first through last. If last is not a later sibling the
// walk stops at the end of the parent.
func siblings(first, last *html.Node) []*html.Node {
	var out []*html.Node
	for n := first; n != nil; n = n.NextSibling {
		out = append(out, n)
		if n == last {
			break
		}
	}
	return out
}

// sweep drops every cached entry that is no longer reachable from the root,
// destroys the components bound to them, and lets the document and input
// layer forget detached nodes. It returns the first destroy hook error after
// finishing the sweep.
func (e *Engine) sweep() error {
	root := e.doc.Root()
	var gone []string
	for id, h := range e.nodes {
		if !dom.Contains(root, h.anchor()) {
			gone = append(gone, id)
		}
	}
	slices.Sort(gone)

	var first error
	for _, id := range gone {
		delete(e.nodes, id)
		if err := e.widgets.Destroy(id); err != nil && first == nil {
			first = err
		}
	}
	e.doc.Prune()
	e.input.Prune()
	if len(gone) > 0 {
		e.logger.Debug("swept detached nodes", "count", len(gone))
	}
	return first
}
