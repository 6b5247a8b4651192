package protocol

import (
	"encoding/json"
	"fmt"
)

// DefaultNamespace is used for elements whose spec carries no namespace.
const DefaultNamespace = "http://www.w3.org/1999/xhtml"

// NodeSpec describes one node to materialise. Only the fields relevant to
// Type are populated.
type NodeSpec struct {
	Type       NodeType
	ID         string
	Namespace  string
	Tag        string
	IDList     []string
	ClassList  []string
	Style      map[string]string
	Attributes map[string]any
	Children   []NodeSpec
	Component  string
	Data       any
	Content    string
}

// Patch is one edit against the live tree. Args holds the operation specific
// arguments undecoded; the accessors decode them on demand.
type Patch struct {
	Target   string
	Category Category
	Op       Operation
	Args     []json.RawMessage
}

// Display is the decoded display part of a Data message.
type Display struct {
	Kind    PayloadKind
	Markup  string
	Tree    *NodeSpec
	Patches []Patch
}

// DecodeData splits a Data payload into its optional title and optional
// display payload.
func DecodeData(payload json.RawMessage) (string, *Display, error) {
	if isNull(payload) {
		return "", nil, nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(payload, &parts); err != nil {
		return "", nil, fmt.Errorf("decode data payload: %w", err)
	}

	var title string
	if len(parts) > 0 && !isNull(parts[0]) {
		if err := json.Unmarshal(parts[0], &title); err != nil {
			return "", nil, fmt.Errorf("decode title: %w", err)
		}
	}
	if len(parts) < 2 || isNull(parts[1]) {
		return title, nil, nil
	}
	display, err := DecodeDisplay(parts[1])
	if err != nil {
		return "", nil, err
	}
	return title, display, nil
}

// DecodeDisplay decodes a [kind, body] display payload.
func DecodeDisplay(raw json.RawMessage) (*Display, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("decode display payload: %w", err)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("decode display payload: expected [kind, body], got %d fields", len(parts))
	}
	var kind int
	if err := json.Unmarshal(parts[0], &kind); err != nil {
		return nil, fmt.Errorf("decode display kind: %w", err)
	}

	display := &Display{Kind: PayloadKind(kind)}
	switch display.Kind {
	case PayloadMarkup:
		if err := json.Unmarshal(parts[1], &display.Markup); err != nil {
			return nil, fmt.Errorf("decode markup: %w", err)
		}
	case PayloadTree:
		spec, err := DecodeNodeSpec(parts[1])
		if err != nil {
			return nil, err
		}
		display.Tree = &spec
	case PayloadPatch:
		patches, err := DecodePatches(parts[1])
		if err != nil {
			return nil, err
		}
		display.Patches = patches
	default:
		return nil, fmt.Errorf("unknown display payload kind %d", kind)
	}
	return display, nil
}

// DecodeNodeSpec decodes one element, text or component range spec.
func DecodeNodeSpec(raw json.RawMessage) (NodeSpec, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return NodeSpec{}, fmt.Errorf("decode node spec: %w", err)
	}
	if len(parts) < 2 {
		return NodeSpec{}, fmt.Errorf("decode node spec: too short (%d fields)", len(parts))
	}

	var nodeType int
	if err := json.Unmarshal(parts[0], &nodeType); err != nil {
		return NodeSpec{}, fmt.Errorf("decode node type: %w", err)
	}
	id, err := NodeIDFrom(parts[1])
	if err != nil {
		return NodeSpec{}, fmt.Errorf("decode node id: %w", err)
	}
	spec := NodeSpec{Type: NodeType(nodeType), ID: id}

	switch spec.Type {
	case NodeText:
		if len(parts) < 3 {
			return NodeSpec{}, fmt.Errorf("decode text node %s: missing content", id)
		}
		if err := json.Unmarshal(parts[2], &spec.Content); err != nil {
			return NodeSpec{}, fmt.Errorf("decode text node %s: %w", id, err)
		}
		return spec, nil

	case NodeElement:
		if len(parts) < 9 {
			return NodeSpec{}, fmt.Errorf("decode element %s: expected at least 9 fields, got %d", id, len(parts))
		}
		fields := []struct {
			name string
			dest any
		}{
			{"namespace", &spec.Namespace},
			{"tag", &spec.Tag},
			{"id list", &spec.IDList},
			{"class list", &spec.ClassList},
		}
		for i, f := range fields {
			if isNull(parts[i+2]) {
				continue
			}
			if err := json.Unmarshal(parts[i+2], f.dest); err != nil {
				return NodeSpec{}, fmt.Errorf("decode element %s %s: %w", id, f.name, err)
			}
		}
		if spec.Namespace == "" {
			spec.Namespace = DefaultNamespace
		}
		style, err := decodeStringMap(parts[6])
		if err != nil {
			return NodeSpec{}, fmt.Errorf("decode element %s style: %w", id, err)
		}
		spec.Style = style
		if !isNull(parts[7]) {
			if err := json.Unmarshal(parts[7], &spec.Attributes); err != nil {
				return NodeSpec{}, fmt.Errorf("decode element %s attributes: %w", id, err)
			}
		}
		if spec.Children, err = DecodeNodeSpecs(parts[8]); err != nil {
			return NodeSpec{}, err
		}
		if len(parts) > 9 && !isNull(parts[9]) {
			if err := json.Unmarshal(parts[9], &spec.Component); err != nil {
				return NodeSpec{}, fmt.Errorf("decode element %s component class: %w", id, err)
			}
		}
		if len(parts) > 10 && !isNull(parts[10]) {
			if err := json.Unmarshal(parts[10], &spec.Data); err != nil {
				return NodeSpec{}, fmt.Errorf("decode element %s component data: %w", id, err)
			}
		}
		return spec, nil

	case NodeWidget:
		if len(parts) < 4 {
			return NodeSpec{}, fmt.Errorf("decode component range %s: expected at least 4 fields, got %d", id, len(parts))
		}
		if err := json.Unmarshal(parts[2], &spec.Component); err != nil {
			return NodeSpec{}, fmt.Errorf("decode component range %s class: %w", id, err)
		}
		if spec.Children, err = DecodeNodeSpecs(parts[3]); err != nil {
			return NodeSpec{}, err
		}
		if len(parts) > 4 && !isNull(parts[4]) {
			if err := json.Unmarshal(parts[4], &spec.Data); err != nil {
				return NodeSpec{}, fmt.Errorf("decode component range %s data: %w", id, err)
			}
		}
		return spec, nil

	default:
		return NodeSpec{}, fmt.Errorf("unsupported node type %d", nodeType)
	}
}

// DecodeNodeSpecs decodes a JSON array of node specs.
func DecodeNodeSpecs(raw json.RawMessage) ([]NodeSpec, error) {
	if isNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode node list: %w", err)
	}
	specs := make([]NodeSpec, 0, len(items))
	for _, item := range items {
		spec, err := DecodeNodeSpec(item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// DecodePatches decodes an ordered patch batch.
func DecodePatches(raw json.RawMessage) ([]Patch, error) {
	var items [][]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode patch batch: %w", err)
	}
	patches := make([]Patch, 0, len(items))
	for i, item := range items {
		if len(item) < 3 {
			return nil, fmt.Errorf("decode patch %d: expected at least 3 fields, got %d", i, len(item))
		}
		target, err := NodeIDFrom(item[0])
		if err != nil {
			return nil, fmt.Errorf("decode patch %d target: %w", i, err)
		}
		var category, op int
		if err := json.Unmarshal(item[1], &category); err != nil {
			return nil, fmt.Errorf("decode patch %d category: %w", i, err)
		}
		if err := json.Unmarshal(item[2], &op); err != nil {
			return nil, fmt.Errorf("decode patch %d operation: %w", i, err)
		}
		patches = append(patches, Patch{
			Target:   target,
			Category: Category(category),
			Op:       Operation(op),
			Args:     item[3:],
		})
	}
	return patches, nil
}

func (p Patch) arg(i int) (json.RawMessage, error) {
	if i >= len(p.Args) {
		return nil, fmt.Errorf("%s.%s on %s: missing argument %d", p.Category, p.Op, p.Target, i)
	}
	return p.Args[i], nil
}

// String decodes argument i as a string.
func (p Patch) String(i int) (string, error) {
	raw, err := p.arg(i)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s.%s on %s: argument %d: %w", p.Category, p.Op, p.Target, i, err)
	}
	return s, nil
}

// Int decodes argument i as an integer.
func (p Patch) Int(i int) (int, error) {
	raw, err := p.arg(i)
	if err != nil {
		return 0, err
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s.%s on %s: argument %d: %w", p.Category, p.Op, p.Target, i, err)
	}
	return n, nil
}

// ID decodes argument i as a node id.
func (p Patch) ID(i int) (string, error) {
	raw, err := p.arg(i)
	if err != nil {
		return "", err
	}
	return NodeIDFrom(raw)
}

// Value decodes argument i into a generic JSON value.
func (p Patch) Value(i int) (any, error) {
	raw, err := p.arg(i)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s.%s on %s: argument %d: %w", p.Category, p.Op, p.Target, i, err)
	}
	return v, nil
}

// Strings decodes argument i as a list of strings.
func (p Patch) Strings(i int) ([]string, error) {
	raw, err := p.arg(i)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%s.%s on %s: argument %d: %w", p.Category, p.Op, p.Target, i, err)
	}
	return list, nil
}

// Map decodes argument i as an object.
func (p Patch) Map(i int) (map[string]any, error) {
	raw, err := p.arg(i)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%s.%s on %s: argument %d: %w", p.Category, p.Op, p.Target, i, err)
	}
	return m, nil
}

// Node decodes argument i as a node spec.
func (p Patch) Node(i int) (NodeSpec, error) {
	raw, err := p.arg(i)
	if err != nil {
		return NodeSpec{}, err
	}
	return DecodeNodeSpec(raw)
}

// Nodes decodes argument i as a list of node specs.
func (p Patch) Nodes(i int) ([]NodeSpec, error) {
	raw, err := p.arg(i)
	if err != nil {
		return nil, err
	}
	return DecodeNodeSpecs(raw)
}

// Path decodes argument i as a key path of strings and numbers.
func (p Patch) Path(i int) ([]any, error) {
	raw, err := p.arg(i)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var path []any
	if err := json.Unmarshal(raw, &path); err != nil {
		return nil, fmt.Errorf("%s.%s on %s: key path: %w", p.Category, p.Op, p.Target, err)
	}
	return path, nil
}

func decodeStringMap(raw json.RawMessage) (map[string]string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Stringify(v)
	}
	return out, nil
}
