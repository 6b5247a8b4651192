package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/loom/internal/textdoc"
)

// Snapshot is the latest view of the default window available to the UI.
type Snapshot struct {
	URL         string
	Title       string
	WindowState string
	Page        textdoc.Page
	HasPage     bool
	// Renders counts completed render jobs.
	Renders     int
	Crashed     bool
	LastUpdated time.Time
	LastError   error
	// Notice is the latest transient message, such as a timeout.
	Notice      string
	MissedPongs int
}

// IsOffline reports whether the server has not answered the last two pings.
func (s Snapshot) IsOffline() bool {
	return s.MissedPongs >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetPage records a freshly rendered page.
func (s *Store) SetPage(page textdoc.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Page = clonePage(page)
	s.snapshot.HasPage = true
	s.snapshot.Renders++
	s.snapshot.LastUpdated = time.Now()
}

// SetView records the address, title and protocol state of the window.
func (s *Store) SetView(url, title, windowState string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.URL = url
	s.snapshot.Title = title
	s.snapshot.WindowState = windowState
	s.snapshot.LastUpdated = time.Now()
}

// SetError records err. A crash also marks the snapshot crashed; the page is
// kept so the UI can keep showing it.
func (s *Store) SetError(err error, crashed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastError = err
	if crashed {
		s.snapshot.Crashed = true
	}
	s.snapshot.LastUpdated = time.Now()
}

// SetNotice replaces the transient message.
func (s *Store) SetNotice(notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Notice = notice
}

// PingSent counts a ping that has not been answered yet.
func (s *Store) PingSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.MissedPongs++
}

// PongReceived resets the missed ping counter.
func (s *Store) PongReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.MissedPongs = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Page = clonePage(s.snapshot.Page)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func clonePage(page textdoc.Page) textdoc.Page {
	return textdoc.Page{
		Lines:   slices.Clone(page.Lines),
		Targets: slices.Clone(page.Targets),
	}
}
