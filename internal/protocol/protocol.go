package protocol

import "fmt"

// MessagePrefix marks every frame that belongs to the protocol. Anything else
// on the connection is handed to the generic message handlers.
const MessagePrefix = "lona:"

// Method identifies the kind of a protocol message.
type Method int

const (
	MethodView          Method = 101
	MethodInputEvent    Method = 102
	MethodInputEventAck Method = 103
	MethodClientError   Method = 104
	MethodPing          Method = 105
	MethodRedirect      Method = 201
	MethodHTTPRedirect  Method = 202
	MethodData          Method = 203
	MethodViewStart     Method = 204
	MethodViewStop      Method = 205
	MethodPong          Method = 206
)

func (m Method) String() string {
	switch m {
	case MethodView:
		return "View"
	case MethodInputEvent:
		return "InputEvent"
	case MethodInputEventAck:
		return "InputEventAck"
	case MethodClientError:
		return "ClientError"
	case MethodPing:
		return "Ping"
	case MethodRedirect:
		return "Redirect"
	case MethodHTTPRedirect:
		return "HttpRedirect"
	case MethodData:
		return "Data"
	case MethodViewStart:
		return "ViewStart"
	case MethodViewStop:
		return "ViewStop"
	case MethodPong:
		return "Pong"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// EventType identifies an input event kind.
type EventType int

const (
	EventClick  EventType = 301
	EventChange EventType = 302
	EventSubmit EventType = 303
	EventCustom EventType = 304
	EventFocus  EventType = 305
	EventBlur   EventType = 306
)

func (e EventType) String() string {
	switch e {
	case EventClick:
		return "click"
	case EventChange:
		return "change"
	case EventSubmit:
		return "submit"
	case EventCustom:
		return "custom"
	case EventFocus:
		return "focus"
	case EventBlur:
		return "blur"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// PayloadKind is the first element of a display payload.
type PayloadKind int

const (
	PayloadMarkup PayloadKind = 401
	PayloadTree   PayloadKind = 402
	PayloadPatch  PayloadKind = 403
)

// NodeType is the first element of a node spec.
type NodeType int

const (
	NodeElement NodeType = 501
	NodeText    NodeType = 502
	NodeWidget  NodeType = 503
)

// Category selects which facet of a node a patch touches.
type Category int

const (
	CategoryIDList        Category = 601
	CategoryClassList     Category = 602
	CategoryStyle         Category = 603
	CategoryAttributes    Category = 604
	CategoryChildNodes    Category = 605
	CategoryComponentData Category = 606
)

func (c Category) String() string {
	switch c {
	case CategoryIDList:
		return "IdList"
	case CategoryClassList:
		return "ClassList"
	case CategoryStyle:
		return "Style"
	case CategoryAttributes:
		return "Attributes"
	case CategoryChildNodes:
		return "ChildNodes"
	case CategoryComponentData:
		return "ComponentData"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Operation is the edit applied by a patch.
type Operation int

const (
	OpSet    Operation = 701
	OpReset  Operation = 702
	OpClear  Operation = 703
	OpInsert Operation = 704
	OpRemove Operation = 705
	OpAdd    Operation = 706
)

func (o Operation) String() string {
	switch o {
	case OpSet:
		return "Set"
	case OpReset:
		return "Reset"
	case OpClear:
		return "Clear"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpAdd:
		return "Add"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// Well-known attribute names shared by the renderer and the event layer.
const (
	AttrNodeID = "data-lona-node-id"
	AttrEvents = "data-lona-events"
	AttrIgnore = "data-lona-ignore"
)

// Sender is the outbound half of the connection. Send must be safe for
// concurrent use; callers treat it as fire-and-forget.
type Sender interface {
	Send(message string) error
}
