package match

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danyla1203/chess-live/internal/obslog"
	"github.com/danyla1203/chess-live/internal/rules"
	"github.com/danyla1203/chess-live/pkg/matchdto"
)

// Config is fixed at match creation.
type Config struct {
	Side        string `json:"side"` // white | black | random
	TimeMs      int64  `json:"timeMs"`
	IncrementMs int64  `json:"incrementMs"`
}

func (c Config) validate() error {
	if c.TimeMs <= 0 || c.IncrementMs < 0 {
		return ErrInvalidConfig
	}
	switch c.Side {
	case SideWhite, SideBlack, SideRandom:
		return nil
	default:
		return ErrInvalidConfig
	}
}

// MoveRecord is one entry of the append-only move log.
type MoveRecord struct {
	Side    rules.Side        `json:"side"`
	Piece   rules.PieceID     `json:"piece"`
	From    rules.Square      `json:"from"`
	To      rules.Square      `json:"to"`
	Effects rules.MoveEffects `json:"effects"`
}

// Result is the terminal outcome a session exposes once finished.
type Result struct {
	MatchID string       `json:"matchId"`
	Config  Config       `json:"config"`
	Moves   []MoveRecord `json:"moves"`
	Reason  string       `json:"reason"`
	Draw    bool         `json:"draw"`
	Winner  *PlayerInfo  `json:"winner,omitempty"`
	Loser   *PlayerInfo  `json:"loser,omitempty"`
	Players []PlayerInfo `json:"players"`
	EndedAt time.Time    `json:"endedAt"`
}

// BothAuthenticated reports whether every participant carries a persisted
// identity; anonymous matches are never saved.
func (r *Result) BothAuthenticated() bool {
	if len(r.Players) < 2 {
		return false
	}
	for _, p := range r.Players {
		if !p.Authenticated {
			return false
		}
	}
	return true
}

// Session is one running match. All mutation is serialized behind mu; the
// clock goroutine, inbound client events, and reconnect swaps all contend
// on the same lock, so a move accepted in the same window as an expiry
// tick deterministically wins (the tick observes the bumped generation and
// gives up).
type Session struct {
	ID        string
	cfg       Config
	createdAt time.Time

	onEnd func(*Result)

	mu       sync.Mutex
	engine   *rules.Engine
	players  []*Player
	moves    []MoveRecord
	chat     []matchdto.ChatMessage
	active   bool
	finished bool
	draw     map[rules.Side]bool
	result   *Result

	clockGen  uint64
	tickEvery time.Duration
	stepMs    int64
}

// NewSession creates a pending match with the creator seated on the
// configured (or randomly drawn) side. onEnd is invoked exactly once, in
// its own goroutine, when the session reaches a terminal outcome.
func NewSession(seat Seat, cfg Config, onEnd func(*Result)) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Session{
		ID:        uuid.NewString(),
		cfg:       cfg,
		createdAt: time.Now(),
		onEnd:     onEnd,
		engine:    rules.NewEngine(),
		draw:      map[rules.Side]bool{rules.White: false, rules.Black: false},
		tickEvery: time.Second,
		stepMs:    1000,
	}
	s.players = []*Player{newPlayer(seat, pickSide(cfg.Side), cfg.TimeMs)}
	return s, nil
}

func (s *Session) Config() Config { return s.cfg }

// AddPlayer fills the second seat with the opposite side and a fresh clock.
func (s *Session) AddPlayer(seat Seat) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) >= 2 {
		return nil, ErrMatchFull
	}
	if seat.UserID != "" && seat.UserID == s.players[0].UserID {
		return nil, ErrAlreadySeated
	}
	p := newPlayer(seat, s.players[0].Side.Opposite(), s.cfg.TimeMs)
	s.players = append(s.players, p)
	return p, nil
}

// Start activates the match and begins White's countdown. The non-starting
// side is pre-debited one increment so the increment credited on every
// clock switch balances out over a full game.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) != 2 {
		return ErrMatchInactive
	}
	if s.active || s.finished {
		return ErrMatchInactive
	}
	s.active = true
	white := s.playerBySideLocked(rules.White)
	black := s.playerBySideLocked(rules.Black)
	black.TimeMs -= s.cfg.IncrementMs
	s.switchClockLocked(white, black)
	s.broadcastClocksLocked()
	obslog.L().Info("match_start",
		zap.String("match_id", s.ID),
		zap.String("white", white.UserID),
		zap.String("black", black.UserID),
	)
	return nil
}

// MakeTurn validates and applies a move for the player behind connID.
func (s *Session) MakeTurn(connID string, piece rules.PieceID, to rules.Square) (MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.finished {
		return MoveRecord{}, ErrMatchInactive
	}
	p := s.playerByConnLocked(connID)
	if p == nil {
		return MoveRecord{}, ErrNotParticipant
	}
	side := s.engine.Turn()
	if p.Side != side {
		return MoveRecord{}, ErrNotYourTurn
	}
	from, _ := s.engine.Board().SquareOf(side, piece)
	effects, err := s.engine.ApplyMove(piece, to)
	if err != nil {
		return MoveRecord{}, err
	}
	s.draw[rules.White], s.draw[rules.Black] = false, false

	rec := MoveRecord{Side: side, Piece: piece, From: from, To: to, Effects: effects}
	s.moves = append(s.moves, rec)

	opponent := s.opponentOfLocked(p)
	if effects.Mate != nil {
		s.endLocked(p, opponent, matchdto.ReasonMate)
		return rec, nil
	}
	s.switchClockLocked(opponent, p)
	s.broadcastClocksLocked()
	return rec, nil
}

// OfferDraw raises the caller's draw flag; one raise per side per offer.
func (s *Session) OfferDraw(connID string) (matchdto.DrawAgreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.finished {
		return matchdto.DrawAgreement{}, ErrMatchInactive
	}
	p := s.playerByConnLocked(connID)
	if p == nil {
		return matchdto.DrawAgreement{}, ErrNotParticipant
	}
	if s.draw[p.Side] {
		return matchdto.DrawAgreement{}, ErrDrawAlreadyOffered
	}
	s.draw[p.Side] = true
	return s.drawAgreementLocked(), nil
}

// AcceptDraw completes the handshake and finishes the match drawn.
func (s *Session) AcceptDraw(connID string) (matchdto.DrawAgreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.finished {
		return matchdto.DrawAgreement{}, ErrMatchInactive
	}
	p := s.playerByConnLocked(connID)
	if p == nil {
		return matchdto.DrawAgreement{}, ErrNotParticipant
	}
	if s.draw[p.Side] {
		return matchdto.DrawAgreement{}, ErrDrawAlreadyOffered
	}
	if !s.draw[rules.White] && !s.draw[rules.Black] {
		return matchdto.DrawAgreement{}, ErrNoDrawOffer
	}
	s.draw[p.Side] = true
	s.endDrawLocked()
	return matchdto.DrawAgreement{White: true, Black: true}, nil
}

// RejectDraw clears both flags.
func (s *Session) RejectDraw(connID string) (matchdto.DrawAgreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.finished {
		return matchdto.DrawAgreement{}, ErrMatchInactive
	}
	if s.playerByConnLocked(connID) == nil {
		return matchdto.DrawAgreement{}, ErrNotParticipant
	}
	if !s.draw[rules.White] && !s.draw[rules.Black] {
		return matchdto.DrawAgreement{}, ErrNoDrawOffer
	}
	s.draw[rules.White], s.draw[rules.Black] = false, false
	return matchdto.DrawAgreement{}, nil
}

// Resign ends the match with the caller as loser.
func (s *Session) Resign(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return ErrMatchInactive
	}
	p := s.playerByConnLocked(connID)
	if p == nil {
		return ErrNotParticipant
	}
	opp := s.opponentOfLocked(p)
	if opp == nil {
		return ErrMatchInactive
	}
	s.endLocked(opp, p, matchdto.ReasonResignation)
	return nil
}

// Leave ends the match with the remaining player as winner. Unlike a
// silent disconnect, leaving is an explicit forfeit.
func (s *Session) Leave(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return ErrMatchInactive
	}
	p := s.playerByUserLocked(userID)
	if p == nil {
		return ErrNotParticipant
	}
	opp := s.opponentOfLocked(p)
	if opp == nil {
		return ErrMatchInactive
	}
	s.endLocked(opp, p, matchdto.ReasonOpponentLeft)
	return nil
}

// AddTime grants one increment to the caller's opponent.
func (s *Session) AddTime(connID string) (matchdto.TimeUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.finished {
		return matchdto.TimeUpdate{}, ErrMatchInactive
	}
	p := s.playerByConnLocked(connID)
	if p == nil {
		return matchdto.TimeUpdate{}, ErrNotParticipant
	}
	s.opponentOfLocked(p).TimeMs += s.cfg.IncrementMs
	return s.clocksLocked(), nil
}

// MarkDisconnected swaps the player's messenger for a no-op handle and
// keeps the session running; the match stays resolvable by userID.
func (s *Session) MarkDisconnected(userID string) (*PlayerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerByUserLocked(userID)
	if p == nil {
		return nil, ErrNotParticipant
	}
	p.Connected = false
	p.Messenger = NopMessenger{}
	info := p.info()
	return &info, nil
}

// Reconnect swaps in the new connection handle and restarts exactly one
// clock: the side whose turn it currently is.
func (s *Session) Reconnect(userID, connID string, m Messenger) (*PlayerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil, ErrMatchInactive
	}
	p := s.playerByUserLocked(userID)
	if p == nil {
		return nil, ErrNotParticipant
	}
	p.ConnID = connID
	if m != nil {
		p.Messenger = m
	}
	p.Connected = true
	if s.active {
		s.startClockLocked(s.engine.Turn())
	}
	info := p.info()
	obslog.L().Info("match_reconnect",
		zap.String("match_id", s.ID),
		zap.String("user_id", userID),
		zap.String("side", string(p.Side)),
	)
	return &info, nil
}

// AddChatMessage appends and returns a chat entry.
func (s *Session) AddChatMessage(connID, text string) (matchdto.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerByConnLocked(connID)
	if p == nil {
		return matchdto.ChatMessage{}, ErrNotParticipant
	}
	msg := matchdto.ChatMessage{
		ID:     uuid.NewString(),
		Text:   text,
		Author: matchdto.Author{ID: p.ConnID, Name: p.Name},
		Date:   time.Now(),
	}
	s.chat = append(s.chat, msg)
	return msg, nil
}

// InitData builds the snapshot a (re)joining client needs.
func (s *Session) InitData(userID string) (matchdto.InitData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerByUserLocked(userID)
	if p == nil {
		return matchdto.InitData{}, ErrNotParticipant
	}
	return s.initDataLocked(p), nil
}

func (s *Session) initDataLocked(p *Player) matchdto.InitData {
	clocks := s.clocksLocked()
	return matchdto.InitData{
		MatchID:     s.ID,
		Board:       s.boardSnapshotLocked(),
		Side:        string(p.Side),
		MaxTimeMs:   s.cfg.TimeMs,
		IncrementMs: s.cfg.IncrementMs,
		WhiteMs:     clocks.White,
		BlackMs:     clocks.Black,
	}
}

// SendInitData pushes each player their own side-specific snapshot.
func (s *Session) SendInitData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.Messenger.Send(matchdto.EvGameInit, s.initDataLocked(p))
	}
}

// BoardSnapshot is a plain projection of the current position.
func (s *Session) BoardSnapshot() matchdto.BoardSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boardSnapshotLocked()
}

func (s *Session) boardSnapshotLocked() matchdto.BoardSnapshot {
	snap := matchdto.BoardSnapshot{
		White: map[string]string{},
		Black: map[string]string{},
	}
	for id, sq := range s.engine.Board().Pieces(rules.White) {
		snap.White[string(id)] = string(sq)
	}
	for id, sq := range s.engine.Board().Pieces(rules.Black) {
		snap.Black[string(id)] = string(sq)
	}
	return snap
}

// LobbyEntry is the public projection used in lobby listings.
func (s *Session) LobbyEntry() matchdto.LobbyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return matchdto.LobbyEntry{
		MatchID:     s.ID,
		CreatorName: s.players[0].Name,
		Side:        s.cfg.Side,
		TimeMs:      s.cfg.TimeMs,
		IncrementMs: s.cfg.IncrementMs,
	}
}

func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && !s.finished
}

func (s *Session) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Result returns the terminal outcome, or nil while the match runs.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Players returns read-only projections of the seated participants.
func (s *Session) Players() []PlayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlayerInfo, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.info())
	}
	return out
}

// HasUser reports whether the identity occupies a seat.
func (s *Session) HasUser(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerByUserLocked(userID) != nil
}

// Moves returns a copy of the move log.
func (s *Session) Moves() []MoveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MoveRecord(nil), s.moves...)
}

// Turn reports the side to move.
func (s *Session) Turn() rules.Side {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Turn()
}

// SideOf reports the seated side of an identity.
func (s *Session) SideOf(userID string) (rules.Side, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.playerByUserLocked(userID); p != nil {
		return p.Side, true
	}
	return "", false
}

func (s *Session) playerByConnLocked(connID string) *Player {
	for _, p := range s.players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (s *Session) playerByUserLocked(userID string) *Player {
	for _, p := range s.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *Session) playerBySideLocked(side rules.Side) *Player {
	for _, p := range s.players {
		if p.Side == side {
			return p
		}
	}
	return nil
}

func (s *Session) opponentOfLocked(p *Player) *Player {
	for _, other := range s.players {
		if other != p {
			return other
		}
	}
	return nil
}

func (s *Session) drawAgreementLocked() matchdto.DrawAgreement {
	return matchdto.DrawAgreement{White: s.draw[rules.White], Black: s.draw[rules.Black]}
}

func (s *Session) clocksLocked() matchdto.TimeUpdate {
	var upd matchdto.TimeUpdate
	for _, p := range s.players {
		if p.Side == rules.White {
			upd.White = p.TimeMs
		} else {
			upd.Black = p.TimeMs
		}
	}
	return upd
}

func (s *Session) broadcastClocksLocked() {
	upd := s.clocksLocked()
	for _, p := range s.players {
		p.Messenger.Send(matchdto.EvTimeTick, upd)
	}
}

// endLocked finishes the match with a decided winner. The clock generation
// bump makes any in-flight tick a no-op before the lock is released.
func (s *Session) endLocked(winner, loser *Player, reason string) {
	if s.finished {
		return
	}
	s.finished = true
	s.active = false
	s.clockGen++

	w, l := winner.info(), loser.info()
	s.result = &Result{
		MatchID: s.ID,
		Config:  s.cfg,
		Moves:   append([]MoveRecord(nil), s.moves...),
		Reason:  reason,
		Winner:  &w,
		Loser:   &l,
		Players: []PlayerInfo{w, l},
		EndedAt: time.Now(),
	}
	winner.Messenger.Send(matchdto.EvGameEnd, matchdto.EndData{Reason: reason, WinnerSide: string(winner.Side), Winner: true})
	loser.Messenger.Send(matchdto.EvGameEnd, matchdto.EndData{Reason: reason, WinnerSide: string(winner.Side), Winner: false})
	obslog.L().Info("match_end",
		zap.String("match_id", s.ID),
		zap.String("reason", reason),
		zap.String("winner", w.UserID),
	)
	if s.onEnd != nil {
		go s.onEnd(s.result)
	}
}

func (s *Session) endDrawLocked() {
	if s.finished {
		return
	}
	s.finished = true
	s.active = false
	s.clockGen++

	infos := make([]PlayerInfo, 0, len(s.players))
	for _, p := range s.players {
		infos = append(infos, p.info())
	}
	s.result = &Result{
		MatchID: s.ID,
		Config:  s.cfg,
		Moves:   append([]MoveRecord(nil), s.moves...),
		Reason:  matchdto.ReasonDraw,
		Draw:    true,
		Players: infos,
		EndedAt: time.Now(),
	}
	for _, p := range s.players {
		p.Messenger.Send(matchdto.EvGameEnd, matchdto.EndData{Reason: matchdto.ReasonDraw})
	}
	obslog.L().Info("match_end",
		zap.String("match_id", s.ID),
		zap.String("reason", matchdto.ReasonDraw),
	)
	if s.onEnd != nil {
		go s.onEnd(s.result)
	}
}
