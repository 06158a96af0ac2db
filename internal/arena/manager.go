package arena

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danyla1203/chess-live/internal/match"
	"github.com/danyla1203/chess-live/internal/obslog"
	"github.com/danyla1203/chess-live/internal/rules"
	"github.com/danyla1203/chess-live/pkg/matchdto"
)

// Manager is the orchestration layer between the transport and the match
// sessions: it owns the registry, routes client operations to the right
// session, and finalizes results into the cache and the durable sink.
type Manager struct {
	registry *match.Registry
	sink     ResultSink
	store    *ResultStore
	limits   Limits

	mu          sync.Mutex
	lobbyNotify func([]matchdto.LobbyEntry)
}

// Limits bounds the clock configuration accepted at match creation. Zero
// values leave a bound unenforced.
type Limits struct {
	MinTimeMs      int64
	MaxTimeMs      int64
	MaxIncrementMs int64
}

func (l Limits) allow(cfg match.Config) bool {
	if l.MinTimeMs > 0 && cfg.TimeMs < l.MinTimeMs {
		return false
	}
	if l.MaxTimeMs > 0 && cfg.TimeMs > l.MaxTimeMs {
		return false
	}
	if l.MaxIncrementMs > 0 && cfg.IncrementMs > l.MaxIncrementMs {
		return false
	}
	return true
}

// NewManager wires a fresh registry to the given persistence backends.
// store may be nil when no Redis is configured.
func NewManager(sink ResultSink, store *ResultStore) *Manager {
	if sink == nil {
		sink = NewMemorySink()
	}
	return &Manager{
		registry: match.NewRegistry(),
		sink:     sink,
		store:    store,
	}
}

// SetLimits installs clock bounds for subsequently created matches.
func (m *Manager) SetLimits(l Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = l
}

// SetLobbyNotifier registers the callback invoked whenever the set of
// joinable matches changes.
func (m *Manager) SetLobbyNotifier(fn func([]matchdto.LobbyEntry)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lobbyNotify = fn
}

func (m *Manager) notifyLobby() {
	m.mu.Lock()
	fn := m.lobbyNotify
	m.mu.Unlock()
	if fn != nil {
		fn(m.registry.LobbySnapshot())
	}
}

// Lobby lists matches waiting for an opponent.
func (m *Manager) Lobby() []matchdto.LobbyEntry {
	return m.registry.LobbySnapshot()
}

// CreateMatch opens a pending match with the creator seated.
func (m *Manager) CreateMatch(seat match.Seat, req matchdto.CreateMatch) (*match.Session, error) {
	cfg := match.Config{
		Side:        match.ParseSideChoice(req.Side),
		TimeMs:      req.TimeMs,
		IncrementMs: req.IncrementMs,
	}
	m.mu.Lock()
	limits := m.limits
	m.mu.Unlock()
	if !limits.allow(cfg) {
		return nil, match.ErrInvalidConfig
	}
	s, err := match.NewSession(seat, cfg, m.finalize)
	if err != nil {
		return nil, err
	}
	m.registry.AddPending(s)
	obslog.L().Info("match_create",
		zap.String("match_id", s.ID),
		zap.String("user_id", seat.UserID),
		zap.String("side", cfg.Side),
		zap.Int64("time_ms", cfg.TimeMs),
	)
	m.notifyLobby()
	return s, nil
}

// JoinMatch seats the second player, promotes the session to live and
// starts the clocks. The session's own seat guard resolves a join race;
// Promote runs only after a seat was actually taken.
func (m *Manager) JoinMatch(seat match.Seat, matchID string) (*match.Session, error) {
	s, err := m.registry.FindPending(matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddPlayer(seat); err != nil {
		return nil, err
	}
	if _, err := m.registry.Promote(matchID); err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	m.notifyLobby()
	return s, nil
}

// Rejoin resolves the live match a user is seated in and swaps in the new
// connection.
func (m *Manager) Rejoin(userID, connID string, msgr match.Messenger) (*match.Session, matchdto.InitData, error) {
	s, err := m.registry.FindLiveFor(userID)
	if err != nil {
		return nil, matchdto.InitData{}, err
	}
	if _, err := s.Reconnect(userID, connID, msgr); err != nil {
		return nil, matchdto.InitData{}, err
	}
	init, err := s.InitData(userID)
	if err != nil {
		return nil, matchdto.InitData{}, err
	}
	return s, init, nil
}

// LeaveMatch is an explicit forfeit of a running match.
func (m *Manager) LeaveMatch(userID, matchID string) (*match.Session, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, err
	}
	if err := s.Leave(userID); err != nil {
		return nil, err
	}
	return s, nil
}

// HandleDisconnect cleans up after a dropped connection: pending matches
// the user created are withdrawn, a live match keeps running with a muted
// seat. Returns the session still running, if any, so the transport can
// tell the opponent.
func (m *Manager) HandleDisconnect(userID string) *match.Session {
	if dropped := m.registry.DropPendingFor(userID); len(dropped) > 0 {
		obslog.L().Info("pending_withdrawn",
			zap.String("user_id", userID),
			zap.Int("count", len(dropped)),
		)
		m.notifyLobby()
	}
	s, err := m.registry.FindLiveFor(userID)
	if err != nil {
		return nil
	}
	if _, err := s.MarkDisconnected(userID); err != nil {
		return nil
	}
	return s
}

// Move applies a turn and returns both the record and the session for
// room-level fan-out.
func (m *Manager) Move(matchID, connID string, piece rules.PieceID, to rules.Square) (*match.Session, match.MoveRecord, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, match.MoveRecord{}, err
	}
	rec, err := s.MakeTurn(connID, piece, to)
	if err != nil {
		return nil, match.MoveRecord{}, err
	}
	return s, rec, nil
}

func (m *Manager) Chat(matchID, connID, text string) (*match.Session, matchdto.ChatMessage, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, matchdto.ChatMessage{}, err
	}
	msg, err := s.AddChatMessage(connID, text)
	if err != nil {
		return nil, matchdto.ChatMessage{}, err
	}
	return s, msg, nil
}

func (m *Manager) Resign(matchID, connID string) (*match.Session, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, err
	}
	if err := s.Resign(connID); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) OfferDraw(matchID, connID string) (*match.Session, matchdto.DrawAgreement, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, matchdto.DrawAgreement{}, err
	}
	ag, err := s.OfferDraw(connID)
	if err != nil {
		return nil, matchdto.DrawAgreement{}, err
	}
	return s, ag, nil
}

func (m *Manager) AcceptDraw(matchID, connID string) (*match.Session, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.AcceptDraw(connID); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) RejectDraw(matchID, connID string) (*match.Session, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.RejectDraw(connID); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) AddTime(matchID, connID string) (*match.Session, matchdto.TimeUpdate, error) {
	s, err := m.registry.Find(matchID)
	if err != nil {
		return nil, matchdto.TimeUpdate{}, err
	}
	upd, err := s.AddTime(connID)
	if err != nil {
		return nil, matchdto.TimeUpdate{}, err
	}
	return s, upd, nil
}

// CachedResult serves a recent outcome from Redis, when configured.
func (m *Manager) CachedResult(ctx context.Context, matchID string) (*match.Result, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.Load(ctx, matchID)
}

// finalize runs once per finished session, off the session goroutine. The
// cache takes every result; the durable sink only matches between two
// authenticated players.
func (m *Manager) finalize(r *match.Result) {
	m.registry.RemoveLive(r.MatchID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if m.store != nil {
		if err := m.store.Save(ctx, r); err != nil {
			obslog.L().Warn("result_cache_failed",
				zap.String("match_id", r.MatchID),
				zap.Error(err),
			)
		}
	}
	if r.BothAuthenticated() {
		if err := m.sink.SaveResult(ctx, r); err != nil {
			obslog.L().Error("result_persist_failed",
				zap.String("match_id", r.MatchID),
				zap.Error(err),
			)
		}
	}
	obslog.L().Info("match_finalized",
		zap.String("match_id", r.MatchID),
		zap.String("reason", r.Reason),
		zap.Bool("persisted", r.BothAuthenticated()),
	)
}
