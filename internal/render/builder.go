package render

import (
	"fmt"
	"maps"
	"slices"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/protocol"
	"golang.org/x/net/html"
)

// Render materialises spec into detached nodes and registers every id it
// contains. Elements and text nodes yield one node; component ranges yield
// their markers with the children between them.
func (e *Engine) Render(spec protocol.NodeSpec) ([]*html.Node, error) {
	switch spec.Type {
	case protocol.NodeText:
		n := dom.NewText(dom.DecodeText(spec.Content))
		if err := e.cache(spec.ID, handle{node: n}); err != nil {
			return nil, err
		}
		return []*html.Node{n}, nil

	case protocol.NodeElement:
		el, err := e.renderElement(spec)
		if err != nil {
			return nil, err
		}
		return []*html.Node{el}, nil

	case protocol.NodeWidget:
		return e.renderRange(spec)

	default:
		return nil, fmt.Errorf("render %s: unsupported node type %d", spec.ID, spec.Type)
	}
}

func (e *Engine) renderElement(spec protocol.NodeSpec) (*html.Node, error) {
	el := dom.NewElement(spec.Namespace, spec.Tag)
	dom.SetAttr(el, protocol.AttrNodeID, spec.ID)
	dom.SetTokens(el, dom.AttrID, spec.IDList)
	dom.SetTokens(el, dom.AttrClass, spec.ClassList)
	if len(spec.Style) > 0 {
		dom.SetStyle(el, styleProps(spec.Style))
	}
	for _, key := range slices.Sorted(maps.Keys(spec.Attributes)) {
		e.setAttribute(el, key, spec.Attributes[key])
	}

	for _, child := range spec.Children {
		nodes, err := e.Render(child)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			el.AppendChild(n)
		}
	}

	if err := e.cache(spec.ID, handle{node: el}); err != nil {
		return nil, err
	}
	if spec.Component != "" {
		if err := e.widgets.Bind(spec.ID, spec.Component, []*html.Node{el}, spec.Data); err != nil {
			return nil, fmt.Errorf("render %s: %w", spec.ID, err)
		}
	}
	e.input.Patch(el)
	return el, nil
}

func (e *Engine) renderRange(spec protocol.NodeSpec) ([]*html.Node, error) {
	start, end := dom.NewMarkers(spec.ID)
	var inner []*html.Node
	for _, child := range spec.Children {
		nodes, err := e.Render(child)
		if err != nil {
			return nil, err
		}
		inner = append(inner, nodes...)
	}

	if err := e.cache(spec.ID, handle{start: start, end: end}); err != nil {
		return nil, err
	}
	if err := e.widgets.Bind(spec.ID, spec.Component, inner, spec.Data); err != nil {
		return nil, fmt.Errorf("render %s: %w", spec.ID, err)
	}

	out := make([]*html.Node, 0, len(inner)+2)
	out = append(out, start)
	out = append(out, inner...)
	return append(out, end), nil
}

// setAttribute routes live properties to the document and everything else
// to the attribute list.
func (e *Engine) setAttribute(el *html.Node, key string, value any) {
	if dom.IsProperty(key) {
		e.doc.SetProperty(el, key, value)
		return
	}
	dom.SetAttr(el, key, protocol.Stringify(value))
}

func styleProps(style map[string]string) []dom.StyleProp {
	props := make([]dom.StyleProp, 0, len(style))
	for _, name := range slices.Sorted(maps.Keys(style)) {
		props = append(props, dom.StyleProp{Name: name, Value: style[name]})
	}
	return props
}
