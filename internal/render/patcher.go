package render

import (
	"fmt"
	"maps"
	"slices"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/keypath"
	"github.com/five82/loom/internal/protocol"
	"golang.org/x/net/html"
)

// reserved attributes survive attribute Reset and Clear; they are owned by
// the other patch categories.
var reserved = map[string]bool{
	dom.AttrID:          true,
	dom.AttrClass:       true,
	dom.AttrStyle:       true,
	protocol.AttrNodeID: true,
}

// Apply applies one patch to the live tree.
func (e *Engine) Apply(p protocol.Patch) error {
	h, ok := e.nodes[p.Target]
	if !ok {
		return fmt.Errorf("%s.%s: %w %s", p.Category, p.Op, ErrUnknownNode, p.Target)
	}

	var err error
	switch p.Category {
	case protocol.CategoryIDList:
		err = e.applyTokens(h, p, dom.AttrID)
	case protocol.CategoryClassList:
		err = e.applyTokens(h, p, dom.AttrClass)
	case protocol.CategoryStyle:
		err = e.applyStyle(h, p)
	case protocol.CategoryAttributes:
		err = e.applyAttributes(h, p)
	case protocol.CategoryChildNodes:
		err = e.applyChildren(h, p)
	case protocol.CategoryComponentData:
		err = e.applyComponentData(p)
	default:
		err = fmt.Errorf("unknown patch category %d", int(p.Category))
	}
	if err != nil {
		return fmt.Errorf("%s.%s on %s: %w", p.Category, p.Op, p.Target, err)
	}
	return nil
}

func element(h handle) (*html.Node, error) {
	if h.isRange() || h.node.Type != html.ElementNode {
		return nil, fmt.Errorf("target is not an element")
	}
	return h.node, nil
}

func unsupported(p protocol.Patch) error {
	return fmt.Errorf("unsupported operation %s", p.Op)
}

func (e *Engine) applyTokens(h handle, p protocol.Patch, attr string) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	switch p.Op {
	case protocol.OpAdd:
		token, err := p.String(0)
		if err != nil {
			return err
		}
		dom.AddToken(el, attr, token)
	case protocol.OpRemove:
		token, err := p.String(0)
		if err != nil {
			return err
		}
		dom.RemoveToken(el, attr, token)
	case protocol.OpReset:
		tokens, err := p.Strings(0)
		if err != nil {
			return err
		}
		dom.SetTokens(el, attr, tokens)
	case protocol.OpClear:
		dom.SetTokens(el, attr, nil)
	default:
		return unsupported(p)
	}
	return nil
}

func (e *Engine) applyStyle(h handle, p protocol.Patch) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	switch p.Op {
	case protocol.OpSet:
		name, err := p.String(0)
		if err != nil {
			return err
		}
		value, err := p.Value(1)
		if err != nil {
			return err
		}
		dom.SetStyleProp(el, name, protocol.Stringify(value))
	case protocol.OpRemove:
		name, err := p.String(0)
		if err != nil {
			return err
		}
		dom.RemoveStyleProp(el, name)
	case protocol.OpReset:
		style, err := p.Map(0)
		if err != nil {
			return err
		}
		values := make(map[string]string, len(style))
		for k, v := range style {
			values[k] = protocol.Stringify(v)
		}
		dom.SetStyle(el, styleProps(values))
	case protocol.OpClear:
		dom.RemoveAttr(el, dom.AttrStyle)
	default:
		return unsupported(p)
	}
	return nil
}

func (e *Engine) applyAttributes(h handle, p protocol.Patch) error {
	el, err := element(h)
	if err != nil {
		return err
	}

	rederive := false
	switch p.Op {
	case protocol.OpSet:
		key, err := p.String(0)
		if err != nil {
			return err
		}
		value, err := p.Value(1)
		if err != nil {
			return err
		}
		e.setAttribute(el, key, value)
		rederive = key == protocol.AttrEvents || key == protocol.AttrIgnore
	case protocol.OpRemove:
		key, err := p.String(0)
		if err != nil {
			return err
		}
		if dom.IsProperty(key) {
			e.doc.RemoveProperty(el, key)
		} else {
			dom.RemoveAttr(el, key)
		}
		rederive = key == protocol.AttrEvents || key == protocol.AttrIgnore
	case protocol.OpReset:
		attrs, err := p.Map(0)
		if err != nil {
			return err
		}
		e.clearAttributes(el)
		for _, key := range slices.Sorted(maps.Keys(attrs)) {
			e.setAttribute(el, key, attrs[key])
		}
		rederive = true
	case protocol.OpClear:
		e.clearAttributes(el)
		rederive = true
	default:
		return unsupported(p)
	}

	if rederive {
		e.input.Patch(el)
	}
	return nil
}

func (e *Engine) clearAttributes(el *html.Node) {
	el.Attr = slices.DeleteFunc(el.Attr, func(a html.Attribute) bool {
		return a.Namespace != "" || !reserved[a.Key]
	})
	e.doc.ClearProperties(el)
}

func (e *Engine) applyComponentData(p protocol.Patch) error {
	path, err := p.Path(0)
	if err != nil {
		return err
	}

	var fn func(any) (any, error)
	switch p.Op {
	case protocol.OpSet:
		key, err := p.Value(1)
		if err != nil {
			return err
		}
		value, err := p.Value(2)
		if err != nil {
			return err
		}
		fn = func(v any) (any, error) { return keypath.Set(v, path, key, value) }
	case protocol.OpReset:
		value, err := p.Value(1)
		if err != nil {
			return err
		}
		fn = func(v any) (any, error) { return keypath.Reset(v, path, value) }
	case protocol.OpClear:
		fn = func(v any) (any, error) { return keypath.Clear(v, path) }
	case protocol.OpInsert:
		index, err := p.Value(1)
		if err != nil {
			return err
		}
		value, err := p.Value(2)
		if err != nil {
			return err
		}
		fn = func(v any) (any, error) { return keypath.Insert(v, path, index, value) }
	case protocol.OpRemove:
		key, err := p.Value(1)
		if err != nil {
			return err
		}
		fn = func(v any) (any, error) { return keypath.Remove(v, path, key) }
	default:
		return unsupported(p)
	}
	return e.widgets.Update(p.Target, fn)
}
