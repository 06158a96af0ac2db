package rules

// Side identifies a chess side.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s Side) Opposite() Side {
	if s == White {
		return Black
	}
	return White
}

// Square is a two-character board coordinate: file 'a'-'h' plus rank '1'-'8'.
type Square string

// PieceID is a stable per-match label for a piece instance. Both sides use
// the same label set; a label is unique within its side's map.
type PieceID string

const KingID PieceID = "king"

// PieceKind is assigned once at board setup and never inferred from the label.
type PieceKind uint8

const (
	Pawn PieceKind = iota
	Rook
	Knight
	Bishop
	Queen
	King
)

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Rook:
		return "rook"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "unknown"
	}
}

// Check marks a pending check: which side's king is attacked and by which piece.
type Check struct {
	Side Side    `json:"side"`
	By   PieceID `json:"by"`
}

// Capture reports a piece taken by the last move.
type Capture struct {
	Side  Side    `json:"side"`
	Piece PieceID `json:"piece"`
}

// Mate reports checkmate against Side, delivered by By.
type Mate struct {
	Side Side    `json:"side"`
	By   PieceID `json:"by"`
}

// MoveEffects is the outcome of a committed move. Fields are nil when the
// move produced no such effect. Constructed once by ApplyMove and never
// mutated afterwards.
type MoveEffects struct {
	Capture *Capture `json:"capture,omitempty"`
	Check   *Check   `json:"check,omitempty"`
	Mate    *Mate    `json:"mate,omitempty"`
}

func fileIdx(sq Square) int { return int(sq[0] - 'a') }
func rankOf(sq Square) int  { return int(sq[1] - '0') }

func squareAt(file, rank int) (Square, bool) {
	if file < 0 || file > 7 || rank < 1 || rank > 8 {
		return "", false
	}
	return Square([]byte{byte('a' + file), byte('0' + rank)}), true
}

// ValidSquare reports whether sq names a cell on the 8x8 grid.
func ValidSquare(sq Square) bool {
	if len(sq) != 2 {
		return false
	}
	return sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}
