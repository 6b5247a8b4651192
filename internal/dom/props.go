package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Live property names. Specs that set these names change control state, not
// markup.
const (
	PropValue    = "value"
	PropChecked  = "checked"
	PropSelected = "selected"
)

// IsProperty reports whether name is handled as a live property.
func IsProperty(name string) bool {
	switch name {
	case PropValue, PropChecked, PropSelected:
		return true
	}
	return false
}

// SetProperty assigns a live property. checked and selected are coerced to
// bool, so anything but false turns them on; value is kept as a string.
func (d *Document) SetProperty(n *html.Node, name string, v any) {
	props := d.props[n]
	if props == nil {
		props = make(map[string]any)
		d.props[n] = props
	}
	switch name {
	case PropChecked, PropSelected:
		b, isBool := v.(bool)
		props[name] = !isBool || b
	default:
		switch s := v.(type) {
		case string:
			props[name] = s
		case nil:
			props[name] = ""
		default:
			props[name] = fmt.Sprint(s)
		}
	}
}

// RemoveProperty resets a live property to its empty form.
func (d *Document) RemoveProperty(n *html.Node, name string) {
	switch name {
	case PropChecked, PropSelected:
		d.SetProperty(n, name, false)
	default:
		d.SetProperty(n, name, "")
	}
}

// ClearProperties drops every live property of n, returning it to what its
// markup says.
func (d *Document) ClearProperties(n *html.Node) {
	delete(d.props, n)
}

func (d *Document) property(n *html.Node, name string) (any, bool) {
	v, ok := d.props[n][name]
	return v, ok
}

// Value returns the current value of a form control.
func (d *Document) Value(n *html.Node) string {
	v, _ := d.LookupValue(n)
	return v
}

// LookupValue is Value that also reports whether n has a value at all, as a
// live property or an attribute. Textareas and options always have one.
func (d *Document) LookupValue(n *html.Node) (string, bool) {
	if v, ok := d.property(n, PropValue); ok {
		return v.(string), true
	}
	switch n.DataAtom {
	case atom.Textarea:
		return TextContent(n), true
	case atom.Option:
		if v, ok := Attr(n, PropValue); ok {
			return v, true
		}
		return strings.TrimSpace(TextContent(n)), true
	}
	return Attr(n, PropValue)
}

// Checked reports the live checked state of a checkbox or radio.
func (d *Document) Checked(n *html.Node) bool {
	if v, ok := d.property(n, PropChecked); ok {
		return v.(bool)
	}
	_, ok := Attr(n, PropChecked)
	return ok
}

// Selected reports the live selected state of an option.
func (d *Document) Selected(n *html.Node) bool {
	if v, ok := d.property(n, PropSelected); ok {
		return v.(bool)
	}
	_, ok := Attr(n, PropSelected)
	return ok
}

// Prune forgets properties of nodes no longer attached under the root.
func (d *Document) Prune() {
	for n := range d.props {
		if !Contains(d.root, n) {
			delete(d.props, n)
		}
	}
}
