package match

import (
	"time"

	"github.com/danyla1203/chess-live/internal/rules"
	"github.com/danyla1203/chess-live/pkg/matchdto"
)

// The clock is a single goroutine per ticking side. Instead of holding a
// cancel handle, every (re)start bumps clockGen under the session lock and
// spawns a goroutine pinned to the new value; a stale goroutine notices
// the mismatch on its next tick and exits. Stopping is therefore just
// another bump, and a move that races an expiry tick wins whenever it
// takes the lock first.

// switchClockLocked credits the player who just released the clock and
// starts the other side's countdown.
func (s *Session) switchClockLocked(next, prev *Player) {
	prev.TimeMs += s.cfg.IncrementMs
	s.startClockLocked(next.Side)
}

func (s *Session) startClockLocked(side rules.Side) {
	s.clockGen++
	go s.runClock(s.clockGen, side)
}

func (s *Session) runClock(gen uint64, side rules.Side) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for range ticker.C {
		if !s.tick(gen, side) {
			return
		}
	}
}

// tick burns one step off the ticking side's clock. Returns false once
// this goroutine is stale or the match is over.
func (s *Session) tick(gen uint64, side rules.Side) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.clockGen || !s.active || s.finished {
		return false
	}
	p := s.playerBySideLocked(side)
	p.TimeMs -= s.stepMs
	if p.TimeMs <= 0 {
		p.TimeMs = 0
		s.endLocked(s.opponentOfLocked(p), p, matchdto.ReasonTimeout)
		return false
	}
	upd := s.clocksLocked()
	for _, pl := range s.players {
		pl.Messenger.Send(matchdto.EvTimeTick, upd)
	}
	return true
}
