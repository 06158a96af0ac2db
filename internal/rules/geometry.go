package rules

// view is a snapshot of the board from the moving side's perspective.
// Hypothetical positions are built by cloning own and relocating a piece;
// the live Board is never mutated during what-if checks.
type view struct {
	own  map[PieceID]Square
	opp  map[PieceID]Square
	side Side
}

func cloneSquares(m map[PieceID]Square) map[PieceID]Square {
	out := make(map[PieceID]Square, len(m))
	for id, sq := range m {
		out[id] = sq
	}
	return out
}

// empty reports whether sq is on the grid and unoccupied by either side.
func (v view) empty(sq Square) bool {
	if !ValidSquare(sq) {
		return false
	}
	for _, cur := range v.own {
		if cur == sq {
			return false
		}
	}
	for _, cur := range v.opp {
		if cur == sq {
			return false
		}
	}
	return true
}

func (v view) enemyAt(sq Square) bool {
	for _, cur := range v.opp {
		if cur == sq {
			return true
		}
	}
	return false
}

func (v view) enemyPieceAt(sq Square) (PieceID, bool) {
	for id, cur := range v.opp {
		if cur == sq {
			return id, true
		}
	}
	return "", false
}

func (v view) flip() view {
	return view{own: v.opp, opp: v.own, side: v.side.Opposite()}
}

// cellsAround lists the up-to-eight squares adjacent to center.
func cellsAround(center Square) []Square {
	f, r := fileIdx(center), rankOf(center)
	var out []Square
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			if sq, ok := squareAt(f+df, r+dr); ok {
				out = append(out, sq)
			}
		}
	}
	return out
}

// kingFlightSquares lists the adjacent squares a king could step to:
// empty, or holding an enemy piece.
func (v view) kingFlightSquares(kingSq Square) []Square {
	var out []Square
	for _, sq := range cellsAround(kingSq) {
		if v.empty(sq) || v.enemyAt(sq) {
			out = append(out, sq)
		}
	}
	return out
}

// squaresBetween enumerates the squares strictly between from and to when
// they share a rank, file, or diagonal; otherwise there is no interposition
// line and it returns nil.
func squaresBetween(from, to Square) []Square {
	df := fileIdx(to) - fileIdx(from)
	dr := rankOf(to) - rankOf(from)
	if df != 0 && dr != 0 && abs(df) != abs(dr) {
		return nil
	}
	stepF, stepR := sign(df), sign(dr)
	var out []Square
	f, r := fileIdx(from)+stepF, rankOf(from)+stepR
	for f != fileIdx(to) || r != rankOf(to) {
		sq, ok := squareAt(f, r)
		if !ok {
			return out
		}
		out = append(out, sq)
		f += stepF
		r += stepR
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
