package events

import (
	"net/url"
	"strings"

	"github.com/five82/loom/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func inputType(n *html.Node) string {
	t, _ := dom.Attr(n, "type")
	return strings.ToLower(t)
}

// IsToggle reports whether n is a checkbox or radio input.
func IsToggle(n *html.Node) bool {
	if n.DataAtom != atom.Input {
		return false
	}
	t := inputType(n)
	return t == "checkbox" || t == "radio"
}

func isDisabled(n *html.Node) bool {
	_, ok := dom.Attr(n, "disabled")
	return ok
}

// Options returns the option elements of a select, in document order.
func Options(sel *html.Node) []*html.Node {
	var options []*html.Node
	dom.Walk(sel, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			options = append(options, n)
			return false
		}
		return true
	})
	return options
}

func isMultiple(sel *html.Node) bool {
	_, ok := dom.Attr(sel, "multiple")
	return ok
}

// SelectedOptions returns the selected options of sel. A single select with
// nothing selected falls back to its first option.
func SelectedOptions(doc *dom.Document, sel *html.Node) []*html.Node {
	options := Options(sel)
	var selected []*html.Node
	for _, o := range options {
		if doc.Selected(o) {
			selected = append(selected, o)
		}
	}
	if len(selected) == 0 && !isMultiple(sel) && len(options) > 0 {
		selected = options[:1]
	}
	return selected
}

// ControlValue is the value reported by a change event: the checked state
// of toggles, the selected option indexes of selects, and the text value of
// everything else.
func ControlValue(doc *dom.Document, n *html.Node) any {
	switch {
	case IsToggle(n):
		return doc.Checked(n)
	case n.DataAtom == atom.Select:
		options := Options(n)
		selected := SelectedOptions(doc, n)
		indexes := make([]any, 0, len(selected))
		for i, o := range options {
			for _, s := range selected {
				if s == o {
					indexes = append(indexes, i)
				}
			}
		}
		return indexes
	default:
		return doc.Value(n)
	}
}

// FormData serialises the named, enabled controls of form. Multi selects
// contribute the list of their selected values; later controls with the same
// name overwrite earlier ones.
func FormData(doc *dom.Document, form *html.Node) map[string]any {
	data := map[string]any{}
	dom.Walk(form, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n == form {
			return true
		}
		name, ok := dom.Attr(n, "name")
		if !ok || name == "" || isDisabled(n) {
			return n.DataAtom != atom.Select && n.DataAtom != atom.Textarea
		}

		switch n.DataAtom {
		case atom.Input:
			switch inputType(n) {
			case "submit", "button", "reset", "image", "file":
			case "checkbox", "radio":
				if doc.Checked(n) {
					value, ok := doc.LookupValue(n)
					if !ok {
						value = "on"
					}
					data[name] = value
				}
			default:
				data[name] = doc.Value(n)
			}
		case atom.Textarea:
			data[name] = doc.Value(n)
			return false
		case atom.Select:
			selected := SelectedOptions(doc, n)
			if isMultiple(n) {
				values := make([]any, 0, len(selected))
				for _, o := range selected {
					values = append(values, doc.Value(o))
				}
				data[name] = values
			} else if len(selected) > 0 {
				data[name] = doc.Value(selected[0])
			}
			return false
		}
		return true
	})
	return data
}

// QueryValues turns serialised form data into url.Values.
func QueryValues(data map[string]any) url.Values {
	values := url.Values{}
	for k, v := range data {
		switch value := v.(type) {
		case []any:
			for _, item := range value {
				if s, ok := item.(string); ok {
					values.Add(k, s)
				}
			}
		case string:
			values.Add(k, value)
		}
	}
	return values
}

// FormOf returns the nearest form ancestor of n, or n itself.
func FormOf(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Form {
			return n
		}
	}
	return nil
}

// IsSubmitter reports whether activating n submits its form.
func IsSubmitter(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Button:
		t := inputType(n)
		return t == "" || t == "submit"
	case atom.Input:
		t := inputType(n)
		return t == "submit" || t == "image"
	}
	return false
}
