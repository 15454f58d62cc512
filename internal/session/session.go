// Package session keeps per-visitor view state in memory. A View lives from
// the visitor's first request until it has been idle for the store's TTL.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ElMariones/portfolio/internal/disclosure"
	"github.com/ElMariones/portfolio/internal/submission"
)

// CVPanel is the single panel of a view's CV modal group.
const CVPanel = "cv"

// View is the state owned by one visitor's page.
type View struct {
	ID string

	mu       sync.Mutex
	source   ProjectSource
	version  uint64
	projects *disclosure.Group[string]
	cv       *disclosure.Group[string]
	contact  *submission.Controller
	lastSeen time.Time
}

// ToggleProject expands or collapses a project panel.
func (v *View) ToggleProject(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.syncLocked()
	v.projects.Toggle(id)
}

// syncLocked rebuilds the project group when the content has changed since
// the group was built. The expanded panel survives if it still exists.
func (v *View) syncLocked() {
	ids, version := v.source()
	if version == v.version {
		return
	}
	prev, open := v.projects.Expanded()
	v.projects = disclosure.New(ids...)
	if open {
		v.projects.Toggle(prev)
	}
	v.version = version
}

// ToggleCV opens or closes the CV modal.
func (v *View) ToggleCV() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cv.Toggle(CVPanel)
}

// CloseCV closes the CV modal if it is open.
func (v *View) CloseCV() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cv.Collapse()
}

// Snapshot is a copy of a view's disclosure state for rendering.
type Snapshot struct {
	ExpandedProject string
	CVOpen          bool
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.syncLocked()
	id, _ := v.projects.Expanded()
	return Snapshot{ExpandedProject: id, CVOpen: v.cv.IsExpanded(CVPanel)}
}

// Contact returns the view's submission controller.
func (v *View) Contact() *submission.Controller {
	return v.contact
}

func (v *View) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *View) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

func (v *View) close() {
	v.contact.Close()
}

// ProjectSource returns the current project ids and a version that changes
// whenever the ids may have.
type ProjectSource func() (ids []string, version uint64)

// Factory supplies what a new view needs.
type Factory struct {
	Projects ProjectSource
	Sender   submission.Sender
	Options  []submission.Option
}

// Store maps session ids to views.
type Store struct {
	factory Factory
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	views  map[string]*View
	closed bool
}

func NewStore(f Factory, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		factory: f,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		views:   make(map[string]*View),
	}
}

// Get returns the view for id and marks it as seen.
func (s *Store) Get(id string) (*View, bool) {
	s.mu.Lock()
	v, ok := s.views[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	v.touch(s.now())
	return v, true
}

// Create starts a new view with a fresh id.
func (s *Store) Create() *View {
	ids, version := s.factory.Projects()
	v := &View{
		ID:       uuid.NewString(),
		source:   s.factory.Projects,
		version:  version,
		projects: disclosure.New(ids...),
		cv:       disclosure.New(CVPanel),
		contact:  submission.New(s.factory.Sender, s.factory.Options...),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		v.close()
		return v
	}
	s.views[v.ID] = v
	s.logger.Debug("session created", "id", v.ID)
	return v
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Sweep evicts views idle for longer than the TTL and returns how many went.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	var expired []*View
	for id, v := range s.views {
		if v.idleSince(now) > s.ttl {
			expired = append(expired, v)
			delete(s.views, id)
		}
	}
	s.mu.Unlock()

	for _, v := range expired {
		v.close()
	}
	if len(expired) > 0 {
		s.logger.Debug("sessions expired", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes the store.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close tears down every view. Views created afterwards are closed at once.
func (s *Store) Close() {
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*View)
	s.closed = true
	s.mu.Unlock()

	for _, v := range views {
		v.close()
	}
}
