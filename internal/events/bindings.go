package events

import (
	"strconv"
	"strings"

	"github.com/five82/loom/internal/dom"
	"github.com/five82/loom/internal/protocol"
	"golang.org/x/net/html"
)

// Bindings maps each event type a node listens for to its arguments.
type Bindings map[protocol.EventType][]string

var eventNames = map[string]protocol.EventType{
	"click":  protocol.EventClick,
	"change": protocol.EventChange,
	"submit": protocol.EventSubmit,
	"custom": protocol.EventCustom,
	"focus":  protocol.EventFocus,
	"blur":   protocol.EventBlur,
}

// ParseBindings reads an event descriptor attribute value of the form
// "TYPE[:arg,...];...". TYPE is the numeric event type or its lower case
// name. Unknown types are skipped.
func ParseBindings(attr string) Bindings {
	bindings := Bindings{}
	for entry := range strings.SplitSeq(attr, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.FieldsFunc(strings.Replace(entry, ":", ",", 1), func(r rune) bool { return r == ',' })
		if len(fields) == 0 {
			continue
		}
		typ, ok := parseEventType(strings.TrimSpace(fields[0]))
		if !ok {
			continue
		}
		args := make([]string, 0, len(fields)-1)
		for _, arg := range fields[1:] {
			args = append(args, strings.TrimSpace(arg))
		}
		bindings[typ] = args
	}
	return bindings
}

func parseEventType(s string) (protocol.EventType, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		typ := protocol.EventType(n)
		switch typ {
		case protocol.EventClick, protocol.EventChange, protocol.EventSubmit,
			protocol.EventCustom, protocol.EventFocus, protocol.EventBlur:
			return typ, true
		}
		return 0, false
	}
	typ, ok := eventNames[strings.ToLower(s)]
	return typ, ok
}

// changeDelay returns the debounce delay of a change binding.
func changeDelay(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		return 0, false
	}
	return ms, true
}

// Describe returns the wire descriptor [nodeId, tagName, id, class] of n.
// A nil node yields nulls.
func Describe(n *html.Node) []any {
	if n == nil || n.Type != html.ElementNode {
		return []any{nil, nil, nil, nil}
	}
	var nodeID any
	if id, ok := dom.Attr(n, protocol.AttrNodeID); ok {
		nodeID = id
	}
	id, _ := dom.Attr(n, dom.AttrID)
	class, _ := dom.Attr(n, dom.AttrClass)
	return []any{nodeID, strings.ToUpper(n.Data), id, class}
}

// DescribeID returns a descriptor that only names a node id.
func DescribeID(nodeID string) []any {
	return []any{nodeID, nil, nil, nil}
}
