package rules

// Per-piece movement geometry. Each predicate answers whether the piece
// standing on from could land on to, given the occupancy in v. None of
// them consider check; that is layered on in ApplyMove.

func canPawnMove(v view, from, to Square) bool {
	dir := 1
	startRank := 2
	if v.side == Black {
		dir = -1
		startRank = 7
	}
	f, r := fileIdx(from), rankOf(from)

	if fwd, ok := squareAt(f, r+dir); ok && fwd == to && v.empty(to) {
		return true
	}
	for _, df := range []int{-1, 1} {
		if diag, ok := squareAt(f+df, r+dir); ok && diag == to && v.enemyAt(to) {
			return true
		}
	}
	if r == startRank {
		double, ok1 := squareAt(f, r+2*dir)
		path, ok2 := squareAt(f, r+dir)
		return ok1 && ok2 && double == to && v.empty(double) && v.empty(path)
	}
	return false
}

// slide ray-casts from from along each (df, dr) direction: the ray stops at
// the first occupied square, which is reachable only when enemy-held.
func slide(v view, from, to Square, dirs [][2]int) bool {
	for _, d := range dirs {
		f, r := fileIdx(from)+d[0], rankOf(from)+d[1]
		for {
			sq, ok := squareAt(f, r)
			if !ok {
				break
			}
			if sq == to {
				return v.empty(sq) || v.enemyAt(sq)
			}
			if !v.empty(sq) {
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return false
}

var (
	rookDirs   = [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirs = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func canRookMove(v view, from, to Square) bool   { return slide(v, from, to, rookDirs) }
func canBishopMove(v view, from, to Square) bool { return slide(v, from, to, bishopDirs) }

func canQueenMove(v view, from, to Square) bool {
	return canBishopMove(v, from, to) || canRookMove(v, from, to)
}

var knightJumps = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}

func canKnightMove(v view, from, to Square) bool {
	f, r := fileIdx(from), rankOf(from)
	for _, j := range knightJumps {
		if sq, ok := squareAt(f+j[0], r+j[1]); ok && sq == to {
			return v.empty(to) || v.enemyAt(to)
		}
	}
	return false
}

func canKingMove(v view, from, to Square) bool {
	for _, sq := range v.kingFlightSquares(from) {
		if sq == to {
			return true
		}
	}
	return false
}
