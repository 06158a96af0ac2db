package arena

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/danyla1203/chess-live/internal/match"
	"github.com/danyla1203/chess-live/internal/rules"
	"github.com/danyla1203/chess-live/pkg/matchdto"
)

func newTestStore(t *testing.T) (*ResultStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	store, err := NewResultStore(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewResultStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func sampleResult() *match.Result {
	w := match.PlayerInfo{UserID: "u-w", Name: "alice", Side: rules.White, TimeMs: 1000}
	l := match.PlayerInfo{UserID: "u-b", Name: "bob", Side: rules.Black, TimeMs: 0}
	return &match.Result{
		MatchID: "m-1",
		Config:  match.Config{Side: "white", TimeMs: 60000, IncrementMs: 1000},
		Reason:  matchdto.ReasonTimeout,
		Winner:  &w,
		Loser:   &l,
		Players: []match.PlayerInfo{w, l},
		EndedAt: time.Now().UTC(),
	}
}

func TestResultStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleResult()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "m-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.MatchID != "m-1" || got.Reason != matchdto.ReasonTimeout {
		t.Fatalf("loaded result: %+v", got)
	}
	if got.Winner == nil || got.Winner.UserID != "u-w" {
		t.Fatalf("winner lost in round trip: %+v", got.Winner)
	}

	missing, err := store.Load(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing entry: %v %v", missing, err)
	}
}

func TestResultStoreUserIndex(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleResult()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, user := range []string{"u-w", "u-b"} {
		rs, err := store.ResultsByUser(ctx, user)
		if err != nil {
			t.Fatalf("ResultsByUser(%s): %v", user, err)
		}
		if len(rs) != 1 || rs[0].MatchID != "m-1" {
			t.Fatalf("index for %s: %+v", user, rs)
		}
	}
	rs, err := store.ResultsByUser(ctx, "stranger")
	if err != nil || len(rs) != 0 {
		t.Fatalf("stranger index: %v %v", rs, err)
	}
}

func TestResultStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleResult()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(25 * time.Hour)

	got, err := store.Load(ctx, "m-1")
	if err != nil || got != nil {
		t.Fatalf("entry survived expiry: %v %v", got, err)
	}
}
