package matchdto

import "time"

// CreateMatch is the inbound payload for EvCreate.
type CreateMatch struct {
	Side        string `json:"side"` // white | black | random
	TimeMs      int64  `json:"timeMs"`
	IncrementMs int64  `json:"incrementMs"`
}

// JoinMatch is the inbound payload for EvJoin.
type JoinMatch struct {
	MatchID string `json:"matchId"`
}

// Move is the inbound payload for EvMove.
type Move struct {
	MatchID string `json:"matchId"`
	Piece   string `json:"piece"`
	Square  string `json:"square"`
}

// Chat is the inbound payload for EvChat.
type Chat struct {
	MatchID string `json:"matchId"`
	Text    string `json:"text"`
}

// MatchRef addresses an in-flight match (resign, draw_*, add_time).
type MatchRef struct {
	MatchID string `json:"matchId"`
}

// BoardSnapshot is a plain projection of both sides' piece placements.
type BoardSnapshot struct {
	White map[string]string `json:"white"`
	Black map[string]string `json:"black"`
}

// InitData seeds a client after join or rejoin.
type InitData struct {
	MatchID     string        `json:"gameId"`
	Board       BoardSnapshot `json:"board"`
	Side        string        `json:"side"`
	MaxTimeMs   int64         `json:"maxTime"`
	IncrementMs int64         `json:"timeIncrement"`
	WhiteMs     int64         `json:"w"`
	BlackMs     int64         `json:"b"`
}

// TimeUpdate carries both clocks in milliseconds.
type TimeUpdate struct {
	White int64 `json:"w"`
	Black int64 `json:"b"`
}

// DrawAgreement reflects the per-side draw flags.
type DrawAgreement struct {
	White bool `json:"w"`
	Black bool `json:"b"`
}

// StrikeData reports a capture.
type StrikeData struct {
	Side  string `json:"strikedSide"`
	Piece string `json:"figure"`
}

// ShahData reports a check.
type ShahData struct {
	Side string `json:"shachedSide"`
	By   string `json:"byFigure"`
}

// MateData reports a checkmate.
type MateData struct {
	Side string `json:"matedSide"`
	By   string `json:"byFigure"`
}

// MoveResult is the per-move board delta broadcast.
type MoveResult struct {
	MatchID string      `json:"gameId"`
	Side    string      `json:"side"`
	Piece   string      `json:"figure"`
	From    string      `json:"from"`
	To      string      `json:"to"`
	Strike  *StrikeData `json:"strike,omitempty"`
	Shah    *ShahData   `json:"shah,omitempty"`
	Mate    *MateData   `json:"mate,omitempty"`
}

// ChatMessage is the broadcast chat entry.
type ChatMessage struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Author Author    `json:"author"`
	Date   time.Time `json:"date"`
}

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EndData closes a match for both clients.
type EndData struct {
	Reason     string `json:"reason"`
	WinnerSide string `json:"winnerSide,omitempty"`
	Winner     bool   `json:"winner"`
}

// AnonToken hands an anonymous client its generated identity.
type AnonToken struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// LobbyEntry is the public projection of a pending match.
type LobbyEntry struct {
	MatchID     string `json:"gameId"`
	CreatorName string `json:"creator"`
	Side        string `json:"side"`
	TimeMs      int64  `json:"timeMs"`
	IncrementMs int64  `json:"incrementMs"`
}
