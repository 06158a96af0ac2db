package arena

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danyla1203/chess-live/internal/match"
	"github.com/danyla1203/chess-live/internal/rules"
	"github.com/danyla1203/chess-live/pkg/matchdto"
)

func createReq() matchdto.CreateMatch {
	return matchdto.CreateMatch{Side: "white", TimeMs: 5 * 60 * 1000, IncrementMs: 1000}
}

func seat(conn, user string, auth bool) match.Seat {
	return match.Seat{ConnID: conn, UserID: user, Name: user, Authenticated: auth}
}

func TestCreateAndJoin(t *testing.T) {
	m := NewManager(NewMemorySink(), nil)

	s, err := m.CreateMatch(seat("c1", "u1", false), createReq())
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if lobby := m.Lobby(); len(lobby) != 1 || lobby[0].MatchID != s.ID {
		t.Fatalf("lobby after create: %+v", lobby)
	}

	joined, err := m.JoinMatch(seat("c2", "u2", false), s.ID)
	if err != nil {
		t.Fatalf("JoinMatch: %v", err)
	}
	if joined != s {
		t.Fatal("join returned a different session")
	}
	if !s.IsActive() {
		t.Fatal("session not active after join")
	}
	if lobby := m.Lobby(); len(lobby) != 0 {
		t.Fatalf("lobby after join: %+v", lobby)
	}
	if _, err := m.JoinMatch(seat("c3", "u3", false), s.ID); !errors.Is(err, match.ErrMatchNotFound) {
		t.Fatalf("join of live match: want ErrMatchNotFound, got %v", err)
	}
}

func TestCreateRespectsLimits(t *testing.T) {
	m := NewManager(NewMemorySink(), nil)
	m.SetLimits(Limits{MinTimeMs: 60000, MaxTimeMs: 600000, MaxIncrementMs: 5000})

	for _, req := range []matchdto.CreateMatch{
		{Side: "white", TimeMs: 1000, IncrementMs: 0},
		{Side: "white", TimeMs: 3600 * 1000, IncrementMs: 0},
		{Side: "white", TimeMs: 60000, IncrementMs: 60000},
	} {
		if _, err := m.CreateMatch(seat("c1", "u1", false), req); !errors.Is(err, match.ErrInvalidConfig) {
			t.Fatalf("req %+v: want ErrInvalidConfig, got %v", req, err)
		}
	}
	if _, err := m.CreateMatch(seat("c1", "u1", false), matchdto.CreateMatch{
		Side: "white", TimeMs: 60000, IncrementMs: 1000,
	}); err != nil {
		t.Fatalf("in-bounds create: %v", err)
	}
}

func TestJoinOwnMatchKeepsItPending(t *testing.T) {
	m := NewManager(NewMemorySink(), nil)
	s, err := m.CreateMatch(seat("c1", "u1", false), createReq())
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if _, err := m.JoinMatch(seat("c1b", "u1", false), s.ID); !errors.Is(err, match.ErrAlreadySeated) {
		t.Fatalf("self join: want ErrAlreadySeated, got %v", err)
	}
	if lobby := m.Lobby(); len(lobby) != 1 {
		t.Fatalf("failed join must leave match joinable: %+v", lobby)
	}
}

func TestLobbyNotifier(t *testing.T) {
	m := NewManager(NewMemorySink(), nil)
	var mu sync.Mutex
	var calls [][]matchdto.LobbyEntry
	m.SetLobbyNotifier(func(entries []matchdto.LobbyEntry) {
		mu.Lock()
		calls = append(calls, entries)
		mu.Unlock()
	})

	s, err := m.CreateMatch(seat("c1", "u1", false), createReq())
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if _, err := m.JoinMatch(seat("c2", "u2", false), s.ID); err != nil {
		t.Fatalf("JoinMatch: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 {
		t.Fatalf("notifier calls = %d, want 2", len(calls))
	}
	if len(calls[0]) != 1 || len(calls[1]) != 0 {
		t.Fatalf("notifier payloads: %d then %d entries", len(calls[0]), len(calls[1]))
	}
}

func TestMoveRouting(t *testing.T) {
	m := NewManager(NewMemorySink(), nil)
	s, _ := m.CreateMatch(seat("c1", "u1", false), createReq())
	if _, err := m.JoinMatch(seat("c2", "u2", false), s.ID); err != nil {
		t.Fatalf("JoinMatch: %v", err)
	}

	_, rec, err := m.Move(s.ID, "c1", "pawn5", "e4")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if rec.To != "e4" || rec.Side != rules.White {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, _, err := m.Move("no-such-match", "c1", "pawn4", "d4"); !errors.Is(err, match.ErrMatchNotFound) {
		t.Fatalf("unknown match: want ErrMatchNotFound, got %v", err)
	}
}

func waitForResults(t *testing.T, sink *MemorySink, want int) []*match.Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rs := sink.Results(); len(rs) >= want {
			return rs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sink never reached %d results", want)
	return nil
}

func TestFinalizePersistsAuthenticatedMatches(t *testing.T) {
	sink := NewMemorySink()
	m := NewManager(sink, nil)
	s, _ := m.CreateMatch(seat("c1", "u1", true), createReq())
	if _, err := m.JoinMatch(seat("c2", "u2", true), s.ID); err != nil {
		t.Fatalf("JoinMatch: %v", err)
	}
	if _, err := m.Resign(s.ID, "c2"); err != nil {
		t.Fatalf("Resign: %v", err)
	}

	rs := waitForResults(t, sink, 1)
	if rs[0].Reason != matchdto.ReasonResignation {
		t.Fatalf("persisted reason = %q", rs[0].Reason)
	}
	// Finished match is gone from the registry.
	if got := m.HandleDisconnect("u1"); got != nil {
		t.Fatal("finished match still resolvable as live")
	}
}

func TestFinalizeSkipsAnonymousMatches(t *testing.T) {
	sink := NewMemorySink()
	m := NewManager(sink, nil)
	s, _ := m.CreateMatch(seat("c1", "u1", true), createReq())
	if _, err := m.JoinMatch(seat("c2", "u2", false), s.ID); err != nil {
		t.Fatalf("JoinMatch: %v", err)
	}
	if _, err := m.Resign(s.ID, "c1"); err != nil {
		t.Fatalf("Resign: %v", err)
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if s.IsFinished() && len(sink.Results()) == 0 {
			time.Sleep(50 * time.Millisecond)
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := sink.Results(); len(got) != 0 {
		t.Fatalf("anonymous match persisted: %+v", got)
	}
}

func TestDisconnectWithdrawsPendingAndRejoinRestores(t *testing.T) {
	m := NewManager(NewMemorySink(), nil)
	s, _ := m.CreateMatch(seat("c1", "u1", false), createReq())
	if _, err := m.JoinMatch(seat("c2", "u2", false), s.ID); err != nil {
		t.Fatalf("JoinMatch: %v", err)
	}

	live := m.HandleDisconnect("u2")
	if live != s {
		t.Fatalf("disconnect did not resolve live session")
	}

	got, init, err := m.Rejoin("u2", "c2-new", match.NopMessenger{})
	if err != nil {
		t.Fatalf("Rejoin: %v", err)
	}
	if got != s || init.Side != "black" || init.MatchID != s.ID {
		t.Fatalf("rejoin snapshot: %+v", init)
	}
	if _, _, err := m.Rejoin("u-nobody", "cx", nil); !errors.Is(err, match.ErrMatchNotFound) {
		t.Fatalf("rejoin stranger: want ErrMatchNotFound, got %v", err)
	}
}

func TestDrawFlowThroughManager(t *testing.T) {
	m := NewManager(NewMemorySink(), nil)
	s, _ := m.CreateMatch(seat("c1", "u1", false), createReq())
	if _, err := m.JoinMatch(seat("c2", "u2", false), s.ID); err != nil {
		t.Fatalf("JoinMatch: %v", err)
	}

	_, ag, err := m.OfferDraw(s.ID, "c1")
	if err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	if !ag.White {
		t.Fatalf("agreement: %+v", ag)
	}
	if _, err := m.AcceptDraw(s.ID, "c2"); err != nil {
		t.Fatalf("AcceptDraw: %v", err)
	}
	r := s.Result()
	if r == nil || !r.Draw {
		t.Fatalf("result after accepted draw: %+v", r)
	}
}
