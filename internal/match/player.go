package match

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/danyla1203/chess-live/internal/rules"
)

// Messenger is the narrow transport capability a session holds per player.
// Send is best-effort: delivery failures are the transport's concern and
// never affect match state.
type Messenger interface {
	Send(event string, payload any)
	JoinRoom(room string)
}

// NopMessenger discards everything; it stands in for a disconnected player
// until a reconnect swaps a live handle back in.
type NopMessenger struct{}

func (NopMessenger) Send(string, any) {}
func (NopMessenger) JoinRoom(string)  {}

// Seat is the identity a client presents when taking a side in a match.
type Seat struct {
	ConnID        string
	UserID        string
	Name          string
	Authenticated bool
	Messenger     Messenger
}

// Player is a seated participant. It is owned exclusively by its Session;
// on reconnect the ConnID and Messenger are swapped wholesale.
type Player struct {
	ConnID        string
	UserID        string
	Name          string
	Authenticated bool
	Side          rules.Side
	TimeMs        int64
	Connected     bool

	Messenger Messenger
}

func newPlayer(seat Seat, side rules.Side, timeMs int64) *Player {
	m := seat.Messenger
	if m == nil {
		m = NopMessenger{}
	}
	return &Player{
		ConnID:        seat.ConnID,
		UserID:        seat.UserID,
		Name:          seat.Name,
		Authenticated: seat.Authenticated,
		Side:          side,
		TimeMs:        timeMs,
		Connected:     true,
		Messenger:     m,
	}
}

// PlayerInfo is the read-only projection exposed in results and snapshots.
type PlayerInfo struct {
	UserID        string     `json:"userId"`
	Name          string     `json:"name"`
	Authenticated bool       `json:"-"`
	Side          rules.Side `json:"side"`
	TimeMs        int64      `json:"timeMs"`
}

func (p *Player) info() PlayerInfo {
	return PlayerInfo{
		UserID:        p.UserID,
		Name:          p.Name,
		Authenticated: p.Authenticated,
		Side:          p.Side,
		TimeMs:        p.TimeMs,
	}
}

// Side assignment choices for match creation.
const (
	SideWhite  = "white"
	SideBlack  = "black"
	SideRandom = "random"
)

// ParseSideChoice normalises a client side preference, defaulting to random.
func ParseSideChoice(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return SideWhite
	case "black", "b":
		return SideBlack
	default:
		return SideRandom
	}
}

func pickSide(choice string) rules.Side {
	switch choice {
	case SideWhite:
		return rules.White
	case SideBlack:
		return rules.Black
	default:
		if n, err := rand.Int(rand.Reader, big.NewInt(2)); err == nil && n.Int64() == 0 {
			return rules.Black
		}
		return rules.White
	}
}
