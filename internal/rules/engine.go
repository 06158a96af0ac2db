package rules

import "fmt"

// Engine executes moves against a Board. It validates raw piece geometry,
// enforces the self-check rules, and derives capture/check/mate effects the
// way the live-match service defines them: checkmate is inferred directly
// from the moved piece's attack line plus interposition and king-flight
// enumeration, not from a full legal-move search.
type Engine struct {
	board *Board
}

func NewEngine() *Engine { return &Engine{board: NewBoard()} }

// Board exposes the underlying position for read access.
func (e *Engine) Board() *Board { return e.board }

func (e *Engine) Turn() Side { return e.board.Turn() }

// view builds the moving side's perspective over the live maps. Callers
// that relocate pieces must clone first.
func (e *Engine) view() view {
	side := e.board.turn
	return view{
		own:  e.board.pieces[side],
		opp:  e.board.pieces[side.Opposite()],
		side: side,
	}
}

// canReach dispatches on the piece's kind, assigned at board setup.
func (e *Engine) canReach(v view, id PieceID, to Square) bool {
	from, ok := v.own[id]
	if !ok {
		return false
	}
	kind, ok := e.board.KindOf(id)
	if !ok {
		return false
	}
	switch kind {
	case Pawn:
		return canPawnMove(v, from, to)
	case Rook:
		return canRookMove(v, from, to)
	case Bishop:
		return canBishopMove(v, from, to)
	case Queen:
		return canQueenMove(v, from, to)
	case Knight:
		return canKnightMove(v, from, to)
	case King:
		return canKingMove(v, from, to)
	default:
		return false
	}
}

// IsLegalMove answers the raw geometry question for the side to move,
// without considering check.
func (e *Engine) IsLegalMove(id PieceID, to Square) bool {
	return e.canReach(e.view(), id, to)
}

// checkRemains reports whether the side to move is currently checked and
// would still be after relocating id to to. Capturing the checking piece
// always resolves the check.
func (e *Engine) checkRemains(v view, id PieceID, to Square) bool {
	chk := e.board.check
	if chk == nil || chk.Side != v.side {
		return false
	}
	if capID, ok := v.enemyPieceAt(to); ok && capID == chk.By {
		return false
	}
	own := cloneSquares(v.own)
	own[id] = to
	hyp := view{own: v.opp, opp: own, side: v.side.Opposite()}
	return e.canReach(hyp, chk.By, own[KingID])
}

// checkAppears replays the recorded threat candidates against the
// hypothetical position to catch a move that exposes the own king.
// A candidate captured by this move is dropped before the replay.
func (e *Engine) checkAppears(v view, id PieceID, to Square) bool {
	candidates := e.board.threatsAgainst(v.side)
	if capID, ok := v.enemyPieceAt(to); ok {
		delete(candidates, capID)
	}
	own := cloneSquares(v.own)
	own[id] = to
	kingSq := own[KingID]
	hyp := view{own: v.opp, opp: own, side: v.side.Opposite()}
	for cand := range candidates {
		if e.canReach(hyp, cand, kingSq) {
			return true
		}
	}
	return false
}

// recordThreat marks the moved piece in the opponent's threat index when,
// on a board holding only this piece and the enemy king, it could reach
// the king's square next move. Occupancy is deliberately ignored; the
// index over-approximates and checkAppears re-verifies on the real board.
func (e *Engine) recordThreat(id PieceID, at Square) {
	v := e.view()
	kingSq, ok := v.opp[KingID]
	if !ok {
		return
	}
	minimal := view{
		own:  map[PieceID]Square{id: at},
		opp:  map[PieceID]Square{KingID: kingSq},
		side: v.side,
	}
	if e.canReach(minimal, id, kingSq) {
		e.board.addThreat(v.side.Opposite(), id)
	}
}

// recordKingRing marks the moved piece as attacking a square adjacent to
// the enemy king, again on the minimal two-piece board. The mate
// derivation prunes king flight squares with this index.
func (e *Engine) recordKingRing(id PieceID, at Square) {
	v := e.view()
	kingSq, ok := v.opp[KingID]
	if !ok {
		return
	}
	minimal := view{
		own:  map[PieceID]Square{id: at},
		opp:  map[PieceID]Square{KingID: kingSq},
		side: v.side,
	}
	for _, sq := range minimal.kingFlightSquares(kingSq) {
		if e.canReach(minimal, id, sq) {
			e.board.addKingRing(v.side.Opposite(), id)
			return
		}
	}
}

// deriveCheck records a check when the moved piece attacks the enemy king
// from its new square.
func (e *Engine) deriveCheck(id PieceID) *Check {
	v := e.view()
	kingSq, ok := v.opp[KingID]
	if !ok {
		return nil
	}
	if e.canReach(v, id, kingSq) {
		e.board.setCheck(v.side.Opposite(), id)
	}
	return e.board.Check()
}

// canCoverCheck reports whether any defending piece except the king can
// capture the checking piece or interpose on the line to the king.
func (e *Engine) canCoverCheck(chk *Check) bool {
	v := e.view()
	checkerSq, ok := v.own[chk.By]
	if !ok {
		return false
	}
	kingSq := v.opp[KingID]
	line := squaresBetween(kingSq, checkerSq)
	defender := v.flip()
	for id := range v.opp {
		if id == KingID {
			continue
		}
		for _, sq := range line {
			if e.canReach(defender, id, sq) {
				return true
			}
		}
		if e.canReach(defender, id, checkerSq) {
			return true
		}
	}
	return false
}

// deriveMate decides checkmate for the pending check: no cover or capture
// of the checker, and no unattacked flight square for the enemy king.
// Flight squares are pruned first by the king-ring index, then against the
// moved piece itself.
func (e *Engine) deriveMate(moved PieceID) *Mate {
	chk := e.board.check
	if chk == nil {
		return nil
	}
	if e.canCoverCheck(chk) {
		return nil
	}
	v := e.view()
	matedSide := v.side.Opposite()
	kingSq := v.opp[KingID]

	ring := e.board.kingRingAgainst(matedSide)
	var safe []Square
	for _, sq := range v.flip().kingFlightSquares(kingSq) {
		covered := false
		for attacker := range ring {
			if e.canReach(v, attacker, sq) {
				covered = true
				break
			}
		}
		if !covered {
			safe = append(safe, sq)
		}
	}
	if len(safe) == 0 {
		return &Mate{Side: matedSide, By: moved}
	}
	remaining := safe[:0]
	for _, sq := range safe {
		if !e.canReach(v, moved, sq) {
			remaining = append(remaining, sq)
		}
	}
	if len(remaining) == 0 {
		return &Mate{Side: matedSide, By: moved}
	}
	return nil
}

// ApplyMove validates and commits a move for the side to move, returning
// the derived effects. On any rejection the board is left untouched; the
// same illegal input fails identically on every call.
func (e *Engine) ApplyMove(id PieceID, to Square) (MoveEffects, error) {
	v := e.view()
	if _, ok := v.own[id]; !ok {
		return MoveEffects{}, fmt.Errorf("%w: no piece %q for %s", ErrIllegalMove, id, v.side)
	}
	if !ValidSquare(to) {
		return MoveEffects{}, fmt.Errorf("%w: square %q off the board", ErrIllegalMove, to)
	}
	if !e.canReach(v, id, to) {
		return MoveEffects{}, fmt.Errorf("%w: %s cannot reach %s", ErrIllegalMove, id, to)
	}
	if e.checkRemains(v, id, to) {
		return MoveEffects{}, fmt.Errorf("%w: own king still in check", ErrIllegalMove)
	}
	if e.checkAppears(v, id, to) {
		return MoveEffects{}, fmt.Errorf("%w: move exposes own king", ErrIllegalMove)
	}

	e.board.clearCheck()

	var effects MoveEffects
	if capID, ok := v.enemyPieceAt(to); ok {
		effects.Capture = &Capture{Side: v.side.Opposite(), Piece: capID}
		e.board.removePiece(v.side.Opposite(), capID)
	}
	e.board.setSquare(v.side, id, to)

	e.recordThreat(id, to)
	e.recordKingRing(id, to)

	effects.Check = e.deriveCheck(id)
	if effects.Check != nil {
		effects.Mate = e.deriveMate(id)
	}

	e.board.advanceTurn()
	return effects, nil
}
