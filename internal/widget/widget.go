package widget

import (
	"errors"

	"golang.org/x/net/html"
)

// ErrUnknownComponent reports a class name missing from the registry.
var ErrUnknownComponent = errors.New("unknown component class")

// ErrNotBound reports an operation on a component id that is not live.
var ErrNotBound = errors.New("component not bound")

// Host is what a component may call back into.
type Host interface {
	// FireCustomEvent sends a custom input event on behalf of a node.
	FireCustomEvent(nodeID string, data any) error
}

// Mount is handed to a factory when a component is bound. Nodes are the
// element the component is attached to, or the nodes between the markers of
// a component range; the manager refreshes them with SetNodes.
type Mount struct {
	ID    string
	Class string
	Nodes []*html.Node
	Host  Host
}

// Component is a client-side behaviour attached to part of the tree. The
// lifecycle hooks are optional and discovered with the interfaces below.
type Component any

// Setupper is called once, after the payload that bound the component has
// been fully applied.
type Setupper interface {
	Setup(data any) error
}

// DataUpdater is called after a payload patched the component's data.
type DataUpdater interface {
	DataUpdated(data any) error
}

// Destroyer is called once when the component leaves the tree.
type Destroyer interface {
	Destroy() error
}

// NodesUpdater is notified when the nodes of a component range change.
type NodesUpdater interface {
	NodesUpdated(nodes []*html.Node)
}

// Factory builds a component instance.
type Factory func(Mount) Component

// Registry maps class names to factories.
type Registry map[string]Factory

// State is the lifecycle position of a bound component.
type State int

const (
	StateUnbound State = iota
	StateInitialized
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateInitialized:
		return "initialized"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
