package match

import (
	"sync"

	"github.com/danyla1203/chess-live/pkg/matchdto"
)

// Registry tracks sessions through their lifecycle. A session is in the
// pending set or the live set, never both; Promote moves it over exactly
// once.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*Session
	live    map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		pending: map[string]*Session{},
		live:    map[string]*Session{},
	}
}

// AddPending registers a freshly created session awaiting an opponent.
func (r *Registry) AddPending(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[s.ID] = s
}

// FindPending returns a session still in the pending set.
func (r *Registry) FindPending(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.pending[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return s, nil
}

// Find returns a session from either set.
func (r *Registry) Find(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.live[id]; ok {
		return s, nil
	}
	if s, ok := r.pending[id]; ok {
		return s, nil
	}
	return nil, ErrMatchNotFound
}

// Promote moves a session from pending to live. The second caller for the
// same id gets ErrMatchNotFound, which is what makes a join race lose
// cleanly.
func (r *Registry) Promote(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.pending[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	delete(r.pending, id)
	r.live[id] = s
	return s, nil
}

// RemoveLive drops a finished session from the live set.
func (r *Registry) RemoveLive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, id)
}

// FindLiveFor resolves the running session a user is seated in, used for
// reconnects.
func (r *Registry) FindLiveFor(userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.live {
		if s.HasUser(userID) {
			return s, nil
		}
	}
	return nil, ErrMatchNotFound
}

// DropPendingFor removes any pending sessions created by the user and
// returns them, so a disconnecting creator does not leave lobby ghosts.
func (r *Registry) DropPendingFor(userID string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dropped []*Session
	for id, s := range r.pending {
		if s.HasUser(userID) {
			delete(r.pending, id)
			dropped = append(dropped, s)
		}
	}
	return dropped
}

// LobbySnapshot lists joinable pending matches.
func (r *Registry) LobbySnapshot() []matchdto.LobbyEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]matchdto.LobbyEntry, 0, len(r.pending))
	for _, s := range r.pending {
		out = append(out, s.LobbyEntry())
	}
	return out
}
