// Package views holds the editable requests minimizations read from and
// write to.
package views

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

// DefaultLabel labels views opened for a minimized copy.
const DefaultLabel = "minimized"

// ErrNotFound is returned for unknown view IDs.
var ErrNotFound = errors.New("views: view not found")

// View is a labeled raw request bound to a target. Revision starts at 1 and
// grows with every live replace.
type View struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Target    rawhttp.Target   `json:"target"`
	Request   *rawhttp.Request `json:"-"`
	Revision  int              `json:"revision"`
	Source    string           `json:"source,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store holds views in memory.
type Store struct {
	mu       sync.RWMutex
	views    map[string]*View
	onChange func(View)
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{views: make(map[string]*View)}
}

// OnChange registers fn to be called, outside the lock, after every live
// replace. Only one callback is kept.
func (s *Store) OnChange(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Open stores a new view. An empty label becomes DefaultLabel.
func (s *Store) Open(target rawhttp.Target, req *rawhttp.Request, label, source string) View {
	if label == "" {
		label = DefaultLabel
	}
	now := time.Now()
	v := &View{
		ID:        uuid.NewString(),
		Label:     label,
		Target:    target,
		Request:   req,
		Revision:  1,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.views[v.ID] = v
	s.mu.Unlock()
	return *v
}

// Get returns a snapshot of a view.
func (s *Store) Get(id string) (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[id]
	if !ok {
		return View{}, ErrNotFound
	}
	return *v, nil
}

// ReplaceLive swaps the request of a view and returns the new revision.
func (s *Store) ReplaceLive(id string, req *rawhttp.Request) (int, error) {
	s.mu.Lock()
	v, ok := s.views[id]
	if !ok {
		s.mu.Unlock()
		return 0, ErrNotFound
	}
	v.Request = req
	v.Revision++
	v.UpdatedAt = time.Now()
	snapshot := *v
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return snapshot.Revision, nil
}

// List returns all views, oldest first.
func (s *Store) List() []View {
	s.mu.RLock()
	out := make([]View, 0, len(s.views))
	for _, v := range s.views {
		out = append(out, *v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete removes a view.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.views[id]; !ok {
		return false
	}
	delete(s.views, id)
	return true
}
