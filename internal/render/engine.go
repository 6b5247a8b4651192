package render

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/protocol"
	"github.com/five82/loom/internal/widget"
	"golang.org/x/net/html"
)

var (
	// ErrUnknownNode reports a patch whose target id is not cached.
	ErrUnknownNode = errors.New("unknown node id")
	// ErrDuplicateNode reports a spec reusing an id that is still live.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// InputPatcher is the input-event layer as seen by the renderer.
type InputPatcher interface {
	Patch(n *html.Node)
	PatchTree(n *html.Node)
	Prune()
	Reset()
}

// Engine keeps one window's display tree in sync with display payloads. It
// is not safe for concurrent use; callers serialise access through the
// window's job queue.
type Engine struct {
	doc     *dom.Document
	widgets *widget.Manager
	input   InputPatcher
	logger  *slog.Logger

	nodes map[string]handle
}

// NewEngine returns an engine rendering into doc.
func NewEngine(doc *dom.Document, widgets *widget.Manager, input InputPatcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		doc:     doc,
		widgets: widgets,
		input:   input,
		logger:  logger,
		nodes:   make(map[string]handle),
	}
}

// Show applies one display payload. Pending component hooks are reset
// first and flushed once the whole payload has been applied.
func (e *Engine) Show(d *protocol.Display) error {
	e.widgets.ResetPending()

	switch d.Kind {
	case protocol.PayloadMarkup:
		if err := e.Reset(); err != nil {
			return err
		}
		nodes, err := dom.ParseMarkup(e.doc.Root(), d.Markup)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			e.doc.Root().AppendChild(n)
		}
		e.input.PatchTree(e.doc.Root())

	case protocol.PayloadTree:
		if err := e.Reset(); err != nil {
			return err
		}
		if d.Tree == nil {
			return errors.New("show tree: missing node spec")
		}
		nodes, err := e.Render(*d.Tree)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			e.doc.Root().AppendChild(n)
		}

	case protocol.PayloadPatch:
		for i, p := range d.Patches {
			if err := e.Apply(p); err != nil {
				return fmt.Errorf("patch %d: %w", i, err)
			}
		}

	default:
		return fmt.Errorf("show: unknown payload kind %d", d.Kind)
	}

	return e.widgets.Flush()
}

// Reset empties the tree, the cache and the input bindings and destroys
// every component.
func (e *Engine) Reset() error {
	e.doc.Clear()
	clear(e.nodes)
	e.input.Reset()
	return e.widgets.DestroyAll()
}

// Node returns the live node cached under id. Component ranges return their
// start marker.
func (e *Engine) Node(id string) (*html.Node, bool) {
	h, ok := e.nodes[id]
	if !ok {
		return nil, false
	}
	return h.anchor(), true
}

// IDs returns the cached ids in sorted order.
func (e *Engine) IDs() []string {
	return slices.Sorted(maps.Keys(e.nodes))
}

// Document returns the document the engine renders into.
func (e *Engine) Document() *dom.Document { return e.doc }

func (e *Engine) cache(id string, h handle) error {
	if _, exists := e.nodes[id]; exists {
		return fmt.Errorf("render %s: %w", id, ErrDuplicateNode)
	}
	e.nodes[id] = h
	return nil
}
