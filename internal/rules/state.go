package rules

// pieceSet is a side-keyed membership index.
type pieceSet map[PieceID]struct{}

func (s pieceSet) clone() pieceSet {
	out := make(pieceSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Board holds the mutable per-match position: piece placements for both
// sides, the side to move, the pending-check marker, and the two
// forward-looking indices maintained by the engine after every move.
//
// threats[side] holds enemy pieces recorded as able to check side's king on
// their next move. kingRing[side] holds enemy pieces recorded as attacking
// squares adjacent to side's king; the mate derivation uses it to prune
// flight squares.
type Board struct {
	pieces map[Side]map[PieceID]Square
	kinds  map[PieceID]PieceKind
	turn   Side
	check  *Check

	threats  map[Side]pieceSet
	kingRing map[Side]pieceSet
}

func startRank(side Side, back, pawns int) map[PieceID]Square {
	sqs := map[PieceID]Square{}
	files := []byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'}
	order := []PieceID{"rook1", "knight1", "bishop1", "queen", "king", "bishop2", "knight2", "rook2"}
	for i, id := range order {
		sqs[id] = Square([]byte{files[i], byte('0' + back)})
	}
	for i := 0; i < 8; i++ {
		id := PieceID("pawn" + string(rune('1'+i)))
		sqs[id] = Square([]byte{files[i], byte('0' + pawns)})
	}
	return sqs
}

// NewBoard returns the standard start position with White to move.
func NewBoard() *Board {
	kinds := map[PieceID]PieceKind{
		"rook1": Rook, "rook2": Rook,
		"knight1": Knight, "knight2": Knight,
		"bishop1": Bishop, "bishop2": Bishop,
		"queen": Queen, KingID: King,
	}
	for i := 0; i < 8; i++ {
		kinds[PieceID("pawn"+string(rune('1'+i)))] = Pawn
	}
	return &Board{
		pieces: map[Side]map[PieceID]Square{
			White: startRank(White, 1, 2),
			Black: startRank(Black, 8, 7),
		},
		kinds: kinds,
		turn:  White,
		threats: map[Side]pieceSet{
			White: {}, Black: {},
		},
		kingRing: map[Side]pieceSet{
			White: {}, Black: {},
		},
	}
}

func (b *Board) Turn() Side { return b.turn }

func (b *Board) advanceTurn() { b.turn = b.turn.Opposite() }

// Pieces returns a copy of side's piece placements.
func (b *Board) Pieces(side Side) map[PieceID]Square {
	out := make(map[PieceID]Square, len(b.pieces[side]))
	for id, sq := range b.pieces[side] {
		out[id] = sq
	}
	return out
}

// SquareOf reports the current square of side's piece, if on the board.
func (b *Board) SquareOf(side Side, id PieceID) (Square, bool) {
	sq, ok := b.pieces[side][id]
	return sq, ok
}

func (b *Board) KindOf(id PieceID) (PieceKind, bool) {
	k, ok := b.kinds[id]
	return k, ok
}

// Check returns a copy of the pending check marker, or nil.
func (b *Board) Check() *Check {
	if b.check == nil {
		return nil
	}
	c := *b.check
	return &c
}

func (b *Board) clearCheck()            { b.check = nil }
func (b *Board) setCheck(side Side, by PieceID) { b.check = &Check{Side: side, By: by} }

func (b *Board) setSquare(side Side, id PieceID, sq Square) { b.pieces[side][id] = sq }

// removePiece drops a captured piece from its owner's map and from the
// indices keyed by the side it was threatening.
func (b *Board) removePiece(owner Side, id PieceID) {
	delete(b.pieces[owner], id)
	threatened := owner.Opposite()
	delete(b.threats[threatened], id)
	delete(b.kingRing[threatened], id)
}

// threatsAgainst returns a copy of the pieces recorded as able to check
// side's king next move.
func (b *Board) threatsAgainst(side Side) pieceSet { return b.threats[side].clone() }

func (b *Board) kingRingAgainst(side Side) pieceSet { return b.kingRing[side].clone() }

func (b *Board) addThreat(against Side, id PieceID)   { b.threats[against][id] = struct{}{} }
func (b *Board) addKingRing(against Side, id PieceID) { b.kingRing[against][id] = struct{}{} }
