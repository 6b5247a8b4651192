package widget

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/five82/loom/internal/keypath"
	"golang.org/x/net/html"
)

type component struct {
	mount    Mount
	raw      any
	instance Component
	state    State
}

// Manager owns the components of one window. It is not safe for concurrent
// use; the window's job queue serialises every call.
type Manager struct {
	registry Registry
	host     Host
	logger   *slog.Logger

	components    map[string]*component
	pendingSetup  []string
	pendingUpdate []string
}

// NewManager returns a manager resolving classes through registry.
func NewManager(registry Registry, host Host, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry:   registry,
		host:       host,
		logger:     logger,
		components: make(map[string]*component),
	}
}

// Bind instantiates class for id and queues its setup hook. Bindings made
// while rendering a subtree are prepended. A parent binds after its
// children, so it sets up first.
func (m *Manager) Bind(id, class string, nodes []*html.Node, data any) error {
	factory, ok := m.registry[class]
	if !ok {
		return fmt.Errorf("bind %s: %w: %q", id, ErrUnknownComponent, class)
	}
	if _, exists := m.components[id]; exists {
		return fmt.Errorf("bind %s: component already bound", id)
	}

	mount := Mount{ID: id, Class: class, Nodes: nodes, Host: m.host}
	c := &component{mount: mount, raw: keypath.Clone(data)}
	c.instance = factory(mount)
	m.components[id] = c
	m.pendingSetup = slices.Insert(m.pendingSetup, 0, id)

	m.logger.Debug("component bound", "id", id, "class", class)
	return nil
}

// Update applies fn to the component's raw data and marks it for a
// DataUpdated hook.
func (m *Manager) Update(id string, fn func(any) (any, error)) error {
	c, ok := m.components[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrNotBound)
	}
	next, err := fn(c.raw)
	if err != nil {
		return fmt.Errorf("update %s data: %w", id, err)
	}
	c.raw = next
	if !slices.Contains(m.pendingUpdate, id) {
		m.pendingUpdate = append(m.pendingUpdate, id)
	}
	return nil
}

// SetNodes refreshes the nodes of a component range.
func (m *Manager) SetNodes(id string, nodes []*html.Node) {
	c, ok := m.components[id]
	if !ok {
		return
	}
	c.mount.Nodes = nodes
	if u, ok := c.instance.(NodesUpdater); ok && c.state != StateDestroyed {
		u.NodesUpdated(nodes)
	}
}

// ResetPending forgets queued hooks. It runs at the start of every display
// payload.
func (m *Manager) ResetPending() {
	m.pendingSetup = m.pendingSetup[:0]
	m.pendingUpdate = m.pendingUpdate[:0]
}

// Flush runs queued setup hooks, then queued update hooks. Components
// destroyed since they were queued are skipped. The first hook error stops
// the flush.
func (m *Manager) Flush() error {
	setups := slices.Clone(m.pendingSetup)
	updates := slices.Clone(m.pendingUpdate)
	m.ResetPending()

	for _, id := range setups {
		c, ok := m.components[id]
		if !ok || c.state != StateUnbound {
			continue
		}
		c.state = StateInitialized
		if s, ok := c.instance.(Setupper); ok {
			if err := s.Setup(keypath.Clone(c.raw)); err != nil {
				return fmt.Errorf("setup component %s (%s): %w", id, c.mount.Class, err)
			}
		}
	}

	for _, id := range updates {
		c, ok := m.components[id]
		if !ok || c.state != StateInitialized {
			continue
		}
		if u, ok := c.instance.(DataUpdater); ok {
			if err := u.DataUpdated(keypath.Clone(c.raw)); err != nil {
				return fmt.Errorf("update component %s (%s): %w", id, c.mount.Class, err)
			}
		}
	}
	return nil
}

// Destroy removes a component. The Destroy hook runs only for components
// that were set up, and at most once. Destroying an unknown id is a no-op.
func (m *Manager) Destroy(id string) error {
	c, ok := m.components[id]
	if !ok {
		return nil
	}
	delete(m.components, id)
	m.pendingSetup = slices.DeleteFunc(m.pendingSetup, func(p string) bool { return p == id })
	m.pendingUpdate = slices.DeleteFunc(m.pendingUpdate, func(p string) bool { return p == id })

	wasSetUp := c.state == StateInitialized
	c.state = StateDestroyed
	m.logger.Debug("component destroyed", "id", id, "class", c.mount.Class)

	if d, ok := c.instance.(Destroyer); ok && wasSetUp {
		if err := d.Destroy(); err != nil {
			return fmt.Errorf("destroy component %s (%s): %w", id, c.mount.Class, err)
		}
	}
	return nil
}

// DestroyAll destroys every component, continuing past hook errors and
// returning the first.
func (m *Manager) DestroyAll() error {
	var first error
	for _, id := range m.IDs() {
		if err := m.Destroy(id); err != nil && first == nil {
			first = err
		}
	}
	m.ResetPending()
	return first
}

// State reports the lifecycle state of id.
func (m *Manager) State(id string) (State, bool) {
	c, ok := m.components[id]
	if !ok {
		return StateDestroyed, false
	}
	return c.state, true
}

// data returns a copy of the component's current data.
func (m *Manager) data(id string) (any, bool) {
	c, ok := m.components[id]
	if !ok {
		return nil, false
	}
	return keypath.Clone(c.raw), true
}
