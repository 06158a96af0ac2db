package match

import (
	"errors"
	"testing"
)

func newPendingSession(t *testing.T, userID string) *Session {
	t.Helper()
	s, err := NewSession(Seat{ConnID: "c-" + userID, UserID: userID, Name: userID}, cfg5min(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestRegistryPromoteIsExclusive(t *testing.T) {
	r := NewRegistry()
	s := newPendingSession(t, "u1")
	r.AddPending(s)

	if _, err := r.FindPending(s.ID); err != nil {
		t.Fatalf("FindPending: %v", err)
	}
	promoted, err := r.Promote(s.ID)
	if err != nil || promoted != s {
		t.Fatalf("Promote: %v", err)
	}
	// Gone from pending, present in live: a second join of the same match
	// must lose.
	if _, err := r.FindPending(s.ID); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("still pending after promote: %v", err)
	}
	if _, err := r.Promote(s.ID); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("second promote: want ErrMatchNotFound, got %v", err)
	}
	if _, err := r.Find(s.ID); err != nil {
		t.Fatalf("Find after promote: %v", err)
	}
}

func TestRegistryFindLiveFor(t *testing.T) {
	r := NewRegistry()
	s := newPendingSession(t, "u1")
	r.AddPending(s)

	if _, err := r.FindLiveFor("u1"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("pending match resolved as live: %v", err)
	}
	if _, err := r.Promote(s.ID); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	got, err := r.FindLiveFor("u1")
	if err != nil || got != s {
		t.Fatalf("FindLiveFor: %v", err)
	}
	r.RemoveLive(s.ID)
	if _, err := r.FindLiveFor("u1"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("removed match still resolvable: %v", err)
	}
}

func TestRegistryDropPendingFor(t *testing.T) {
	r := NewRegistry()
	s1 := newPendingSession(t, "u1")
	s2 := newPendingSession(t, "u1")
	s3 := newPendingSession(t, "u2")
	r.AddPending(s1)
	r.AddPending(s2)
	r.AddPending(s3)

	dropped := r.DropPendingFor("u1")
	if len(dropped) != 2 {
		t.Fatalf("dropped %d sessions, want 2", len(dropped))
	}
	lobby := r.LobbySnapshot()
	if len(lobby) != 1 || lobby[0].MatchID != s3.ID {
		t.Fatalf("lobby after drop: %+v", lobby)
	}
}

func TestRegistryLobbySnapshot(t *testing.T) {
	r := NewRegistry()
	if got := r.LobbySnapshot(); len(got) != 0 {
		t.Fatalf("empty registry lobby: %+v", got)
	}
	s := newPendingSession(t, "u1")
	r.AddPending(s)
	lobby := r.LobbySnapshot()
	if len(lobby) != 1 {
		t.Fatalf("lobby size = %d", len(lobby))
	}
	e := lobby[0]
	if e.MatchID != s.ID || e.CreatorName != "u1" || e.TimeMs != cfg5min().TimeMs {
		t.Fatalf("lobby entry: %+v", e)
	}
}
