package matchdto

import "fmt"

// Inbound event names consumed by the orchestrator.
const (
	EvCreate     = "create"
	EvJoin       = "join"
	EvRejoin     = "rejoin"
	EvLeave      = "leave"
	EvMove       = "move"
	EvChat       = "chat"
	EvResign     = "resign"
	EvDrawOffer  = "draw_offer"
	EvDrawAccept = "draw_accept"
	EvDrawReject = "draw_reject"
	EvAddTime    = "add_time"
)

// Outbound event names.
const (
	EvLobbyUpdate    = "lobby:update"
	EvGameCreated    = "game:created"
	EvGamePending    = "game:pending-one"
	EvGameInit       = "game:init-data"
	EvGameStart      = "game:start"
	EvBoardUpdate    = "game:board-update"
	EvShah           = "game:shah"
	EvMate           = "game:mate"
	EvStrike         = "game:strike"
	EvTimeTick       = "game:time"
	EvTimeAdded      = "game:add-time"
	EvChatMessage    = "game:chat-message"
	EvDrawOffered    = "game:draw_purpose"
	EvDraw           = "game:draw"
	EvDrawRejected   = "game:draw_rejected"
	EvSurrender      = "game:surrender"
	EvGameEnd        = "game:end"
	EvOppDisconnect  = "game:opponent-disconnected"
	EvOppReconnected = "game:player-reconnected"
	EvAnonToken      = "user:anon-token"
	EvException      = "exception"
)

// Match end reasons.
const (
	ReasonMate         = "mate"
	ReasonTimeout      = "timeout"
	ReasonResignation  = "resignation"
	ReasonDraw         = "draw"
	ReasonOpponentLeft = "opponent-left"
)

// Room names the per-match broadcast room.
func Room(matchID string) string { return fmt.Sprintf("game:%s", matchID) }
