package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/danyla1203/chess-live/internal/arena"
	"github.com/danyla1203/chess-live/internal/match"
	"github.com/danyla1203/chess-live/internal/obslog"
	"github.com/danyla1203/chess-live/internal/rules"
	"github.com/danyla1203/chess-live/pkg/matchdto"
)

// Envelope is the inbound wire frame.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"data,omitempty"`
}

const outboundBuffer = 64

// Gateway accepts websocket clients and routes their events into the
// arena manager. It owns room membership; sessions talk back to clients
// through the Messenger handle only.
type Gateway struct {
	mgr  *arena.Manager
	auth Authenticator

	mu      sync.Mutex
	clients map[string]*client
	rooms   map[string]map[*client]struct{}
}

func New(mgr *arena.Manager, auth Authenticator) *Gateway {
	if auth == nil {
		auth = TokenAuthenticator{Next: HeaderAuthenticator{}}
	}
	g := &Gateway{
		mgr:     mgr,
		auth:    auth,
		clients: map[string]*client{},
		rooms:   map[string]map[*client]struct{}{},
	}
	mgr.SetLobbyNotifier(func(entries []matchdto.LobbyEntry) {
		g.broadcastAll(matchdto.EvLobbyUpdate, entries)
	})
	return g
}

type client struct {
	id    string
	ident Identity
	conn  *websocket.Conn
	g     *Gateway

	out  chan outFrame
	done chan struct{}
	once sync.Once
}

// send enqueues a frame; a slow consumer loses frames rather than
// stalling a session holding its lock.
func (c *client) send(event string, payload any) {
	select {
	case <-c.done:
	case c.out <- outFrame{Event: event, Payload: payload}:
	default:
		obslog.L().Warn("outbound_dropped",
			zap.String("conn_id", c.id),
			zap.String("event", event),
		)
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident, err := g.auth.Authenticate(r)
	if err != nil {
		// A failed credential check downgrades to anonymous rather than
		// refusing the connection.
		obslog.L().Warn("auth_fallback", zap.Error(err))
		ident = anonymousIdentity()
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}

	c := &client{
		id:    uuid.NewString(),
		ident: ident,
		conn:  conn,
		g:     g,
		out:   make(chan outFrame, outboundBuffer),
		done:  make(chan struct{}),
	}
	g.mu.Lock()
	g.clients[c.id] = c
	g.mu.Unlock()

	obslog.L().Info("client_connected",
		zap.String("conn_id", c.id),
		zap.String("user_id", ident.UserID),
		zap.Bool("authenticated", ident.Authenticated),
	)

	if !ident.Authenticated {
		c.send(matchdto.EvAnonToken, matchdto.AnonToken{Token: ident.UserID, Name: ident.Name})
	}
	c.send(matchdto.EvLobbyUpdate, g.mgr.Lobby())

	ctx := r.Context()
	go c.writeLoop(ctx)
	g.readLoop(ctx, c)

	g.dropClient(c)
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func (c *client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, c.conn, f)
			cancel()
			if err != nil {
				c.close()
				return
			}
		}
	}
}

func (g *Gateway) readLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-c.done:
			return
		default:
		}
		var env Envelope
		if err := wsjson.Read(ctx, c.conn, &env); err != nil {
			return
		}
		g.dispatch(c, env)
	}
}

// dropClient unwinds a gone connection: room membership, pending matches
// it created, and a live-match opponent notification.
func (g *Gateway) dropClient(c *client) {
	c.close()
	g.mu.Lock()
	delete(g.clients, c.id)
	for room, members := range g.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(g.rooms, room)
		}
	}
	g.mu.Unlock()

	if s := g.mgr.HandleDisconnect(c.ident.UserID); s != nil {
		g.broadcast(matchdto.Room(s.ID), matchdto.EvOppDisconnect, matchdto.MatchRef{MatchID: s.ID})
	}
	obslog.L().Info("client_disconnected", zap.String("conn_id", c.id))
}

func (g *Gateway) joinRoom(c *client, room string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.rooms[room]
	if !ok {
		members = map[*client]struct{}{}
		g.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (g *Gateway) broadcast(room, event string, payload any) {
	g.mu.Lock()
	members := make([]*client, 0, len(g.rooms[room]))
	for c := range g.rooms[room] {
		members = append(members, c)
	}
	g.mu.Unlock()
	for _, c := range members {
		c.send(event, payload)
	}
}

func (g *Gateway) broadcastAll(event string, payload any) {
	g.mu.Lock()
	all := make([]*client, 0, len(g.clients))
	for _, c := range g.clients {
		all = append(all, c)
	}
	g.mu.Unlock()
	for _, c := range all {
		c.send(event, payload)
	}
}

func (c *client) seat() match.Seat {
	return match.Seat{
		ConnID:        c.id,
		UserID:        c.ident.UserID,
		Name:          c.ident.Name,
		Authenticated: c.ident.Authenticated,
		Messenger:     connMessenger{c: c},
	}
}

func (g *Gateway) dispatch(c *client, env Envelope) {
	var err error
	switch env.Event {
	case matchdto.EvCreate:
		err = g.handleCreate(c, env.Payload)
	case matchdto.EvJoin:
		err = g.handleJoin(c, env.Payload)
	case matchdto.EvRejoin:
		err = g.handleRejoin(c)
	case matchdto.EvLeave:
		err = g.handleLeave(c, env.Payload)
	case matchdto.EvMove:
		err = g.handleMove(c, env.Payload)
	case matchdto.EvChat:
		err = g.handleChat(c, env.Payload)
	case matchdto.EvResign:
		err = g.handleResign(c, env.Payload)
	case matchdto.EvDrawOffer:
		err = g.handleDrawOffer(c, env.Payload)
	case matchdto.EvDrawAccept:
		err = g.handleDrawAccept(c, env.Payload)
	case matchdto.EvDrawReject:
		err = g.handleDrawReject(c, env.Payload)
	case matchdto.EvAddTime:
		err = g.handleAddTime(c, env.Payload)
	default:
		err = matchdto.DomainError{Code: "unknown_event", Message: "unknown event: " + env.Event}
	}
	if err != nil {
		c.send(matchdto.EvException, toDomainError(err))
	}
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return matchdto.DomainError{Code: "bad_payload", Message: err.Error()}
	}
	return nil
}

func (g *Gateway) handleCreate(c *client, raw json.RawMessage) error {
	var req matchdto.CreateMatch
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, err := g.mgr.CreateMatch(c.seat(), req)
	if err != nil {
		return err
	}
	g.joinRoom(c, matchdto.Room(s.ID))
	c.send(matchdto.EvGameCreated, matchdto.MatchRef{MatchID: s.ID})
	c.send(matchdto.EvGamePending, s.LobbyEntry())
	return nil
}

func (g *Gateway) handleJoin(c *client, raw json.RawMessage) error {
	var req matchdto.JoinMatch
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, err := g.mgr.JoinMatch(c.seat(), req.MatchID)
	if err != nil {
		return err
	}
	g.joinRoom(c, matchdto.Room(s.ID))
	s.SendInitData()
	g.broadcast(matchdto.Room(s.ID), matchdto.EvGameStart, matchdto.MatchRef{MatchID: s.ID})
	return nil
}

func (g *Gateway) handleRejoin(c *client) error {
	s, init, err := g.mgr.Rejoin(c.ident.UserID, c.id, connMessenger{c: c})
	if err != nil {
		return err
	}
	g.joinRoom(c, matchdto.Room(s.ID))
	c.send(matchdto.EvGameInit, init)
	g.broadcast(matchdto.Room(s.ID), matchdto.EvOppReconnected, matchdto.MatchRef{MatchID: s.ID})
	return nil
}

func (g *Gateway) handleLeave(c *client, raw json.RawMessage) error {
	var req matchdto.MatchRef
	if err := decode(raw, &req); err != nil {
		return err
	}
	_, err := g.mgr.LeaveMatch(c.ident.UserID, req.MatchID)
	return err
}

func (g *Gateway) handleMove(c *client, raw json.RawMessage) error {
	var req matchdto.Move
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, rec, err := g.mgr.Move(req.MatchID, c.id, rules.PieceID(req.Piece), rules.Square(req.Square))
	if err != nil {
		return err
	}
	room := matchdto.Room(s.ID)
	res := moveResult(s.ID, rec)
	g.broadcast(room, matchdto.EvBoardUpdate, res)
	if res.Strike != nil {
		g.broadcast(room, matchdto.EvStrike, res.Strike)
	}
	if res.Shah != nil {
		g.broadcast(room, matchdto.EvShah, res.Shah)
	}
	if res.Mate != nil {
		g.broadcast(room, matchdto.EvMate, res.Mate)
	}
	return nil
}

func (g *Gateway) handleChat(c *client, raw json.RawMessage) error {
	var req matchdto.Chat
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, msg, err := g.mgr.Chat(req.MatchID, c.id, req.Text)
	if err != nil {
		return err
	}
	g.broadcast(matchdto.Room(s.ID), matchdto.EvChatMessage, msg)
	return nil
}

func (g *Gateway) handleResign(c *client, raw json.RawMessage) error {
	var req matchdto.MatchRef
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, err := g.mgr.Resign(req.MatchID, c.id)
	if err != nil {
		return err
	}
	if r := s.Result(); r != nil && r.Winner != nil {
		g.broadcast(matchdto.Room(s.ID), matchdto.EvSurrender, matchdto.EndData{
			Reason:     r.Reason,
			WinnerSide: string(r.Winner.Side),
		})
	}
	return nil
}

func (g *Gateway) handleDrawOffer(c *client, raw json.RawMessage) error {
	var req matchdto.MatchRef
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, ag, err := g.mgr.OfferDraw(req.MatchID, c.id)
	if err != nil {
		return err
	}
	g.broadcast(matchdto.Room(s.ID), matchdto.EvDrawOffered, ag)
	return nil
}

func (g *Gateway) handleDrawAccept(c *client, raw json.RawMessage) error {
	var req matchdto.MatchRef
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, err := g.mgr.AcceptDraw(req.MatchID, c.id)
	if err != nil {
		return err
	}
	g.broadcast(matchdto.Room(s.ID), matchdto.EvDraw, matchdto.DrawAgreement{White: true, Black: true})
	return nil
}

func (g *Gateway) handleDrawReject(c *client, raw json.RawMessage) error {
	var req matchdto.MatchRef
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, err := g.mgr.RejectDraw(req.MatchID, c.id)
	if err != nil {
		return err
	}
	g.broadcast(matchdto.Room(s.ID), matchdto.EvDrawRejected, matchdto.DrawAgreement{})
	return nil
}

func (g *Gateway) handleAddTime(c *client, raw json.RawMessage) error {
	var req matchdto.MatchRef
	if err := decode(raw, &req); err != nil {
		return err
	}
	s, upd, err := g.mgr.AddTime(req.MatchID, c.id)
	if err != nil {
		return err
	}
	g.broadcast(matchdto.Room(s.ID), matchdto.EvTimeAdded, upd)
	return nil
}

func moveResult(matchID string, rec match.MoveRecord) matchdto.MoveResult {
	out := matchdto.MoveResult{
		MatchID: matchID,
		Side:    string(rec.Side),
		Piece:   string(rec.Piece),
		From:    string(rec.From),
		To:      string(rec.To),
	}
	if st := rec.Effects.Capture; st != nil {
		out.Strike = &matchdto.StrikeData{Side: string(st.Side), Piece: string(st.Piece)}
	}
	if ch := rec.Effects.Check; ch != nil {
		out.Shah = &matchdto.ShahData{Side: string(ch.Side), By: string(ch.By)}
	}
	if mt := rec.Effects.Mate; mt != nil {
		out.Mate = &matchdto.MateData{Side: string(mt.Side), By: string(mt.By)}
	}
	return out
}

// toDomainError maps internal sentinels to stable client-facing codes.
func toDomainError(err error) matchdto.DomainError {
	var de matchdto.DomainError
	if errors.As(err, &de) {
		return de
	}
	code := "internal"
	switch {
	case errors.Is(err, match.ErrMatchNotFound):
		code = "match_not_found"
	case errors.Is(err, match.ErrMatchInactive):
		code = "match_inactive"
	case errors.Is(err, match.ErrMatchFull):
		code = "match_full"
	case errors.Is(err, match.ErrAlreadySeated):
		code = "already_seated"
	case errors.Is(err, match.ErrNotParticipant):
		code = "not_participant"
	case errors.Is(err, match.ErrNotYourTurn):
		code = "not_your_turn"
	case errors.Is(err, match.ErrDrawAlreadyOffered):
		code = "draw_already_offered"
	case errors.Is(err, match.ErrNoDrawOffer):
		code = "no_draw_offer"
	case errors.Is(err, match.ErrInvalidConfig):
		code = "invalid_config"
	case errors.Is(err, rules.ErrIllegalMove):
		code = "illegal_move"
	}
	return matchdto.DomainError{Code: code, Message: err.Error()}
}
