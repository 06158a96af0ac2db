package rules

import (
	"errors"
	"reflect"
	"testing"
)

// play applies a scripted sequence, failing the test on any rejection.
func play(t *testing.T, e *Engine, moves ...[2]string) MoveEffects {
	t.Helper()
	var last MoveEffects
	for _, mv := range moves {
		eff, err := e.ApplyMove(PieceID(mv[0]), Square(mv[1]))
		if err != nil {
			t.Fatalf("ApplyMove(%s, %s): %v", mv[0], mv[1], err)
		}
		last = eff
	}
	return last
}

func TestStartPosition(t *testing.T) {
	e := NewEngine()
	if e.Turn() != White {
		t.Fatalf("expected white to move, got %s", e.Turn())
	}
	checks := []struct {
		side Side
		id   PieceID
		sq   Square
	}{
		{White, "pawn1", "a2"}, {White, "pawn8", "h2"},
		{White, "rook1", "a1"}, {White, "knight1", "b1"},
		{White, "bishop1", "c1"}, {White, "queen", "d1"},
		{White, KingID, "e1"}, {White, "rook2", "h1"},
		{Black, "pawn5", "e7"}, {Black, KingID, "e8"},
		{Black, "queen", "d8"}, {Black, "knight2", "g8"},
	}
	for _, c := range checks {
		if sq, ok := e.Board().SquareOf(c.side, c.id); !ok || sq != c.sq {
			t.Errorf("%s %s at %q, want %s", c.side, c.id, sq, c.sq)
		}
	}
	if k, _ := e.Board().KindOf(KingID); k != King {
		t.Errorf("king id must carry King kind, got %s", k)
	}
	if k, _ := e.Board().KindOf("knight2"); k != Knight {
		t.Errorf("knight2 must carry Knight kind, got %s", k)
	}
}

func TestPawnGeometry(t *testing.T) {
	cases := []struct {
		name  string
		piece PieceID
		to    Square
		legal bool
	}{
		{"single forward", "pawn5", "e3", true},
		{"double from start", "pawn5", "e4", true},
		{"triple forward", "pawn5", "e5", false},
		{"diagonal without capture", "pawn5", "d3", false},
		{"sideways", "pawn5", "d2", false},
		{"backward", "pawn5", "e1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine()
			if got := e.IsLegalMove(tc.piece, tc.to); got != tc.legal {
				t.Fatalf("IsLegalMove(%s, %s) = %v, want %v", tc.piece, tc.to, got, tc.legal)
			}
		})
	}
}

func TestPawnDoubleStepBlocked(t *testing.T) {
	e := NewEngine()
	// the g1 knight lands on f3 and blocks the f-pawn's double-step path
	play(t, e, [2]string{"knight2", "f3"}, [2]string{"pawn1", "a6"})
	if e.IsLegalMove("pawn6", "f4") {
		t.Fatalf("double step over an occupied path square must be illegal")
	}
	if e.IsLegalMove("pawn6", "f3") {
		t.Fatalf("single step onto an occupied square must be illegal")
	}
}

func TestPawnCapture(t *testing.T) {
	e := NewEngine()
	eff := play(t, e,
		[2]string{"pawn5", "e4"},
		[2]string{"pawn4", "d5"},
		[2]string{"pawn5", "d5"},
	)
	if eff.Capture == nil || eff.Capture.Side != Black || eff.Capture.Piece != "pawn4" {
		t.Fatalf("expected capture of black pawn4, got %+v", eff.Capture)
	}
	if _, ok := e.Board().SquareOf(Black, "pawn4"); ok {
		t.Fatalf("captured piece must leave the board")
	}
	if sq, _ := e.Board().SquareOf(White, "pawn5"); sq != "d5" {
		t.Fatalf("capturing pawn must occupy target, got %s", sq)
	}
}

func TestSlidersBlockedByOwnPieces(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		piece PieceID
		to    Square
	}{
		{"rook1", "a3"},   // own pawn on a2
		{"bishop1", "e3"}, // own pawn on d2
		{"queen", "d3"},   // own pawn on d2
		{"rook1", "b1"},   // own knight on b1
	}
	for _, tc := range cases {
		if e.IsLegalMove(tc.piece, tc.to) {
			t.Errorf("%s to %s must be blocked", tc.piece, tc.to)
		}
	}
}

func TestSliderRayOpens(t *testing.T) {
	e := NewEngine()
	play(t, e, [2]string{"pawn4", "d4"}, [2]string{"pawn5", "e5"})
	// d2 vacated: the c1 bishop's diagonal is open up to the board edge
	for _, sq := range []Square{"d2", "e3", "f4", "g5", "h6"} {
		if !e.IsLegalMove("bishop1", sq) {
			t.Errorf("bishop1 to %s should be legal on the open diagonal", sq)
		}
	}
	// black e5 pawn is capturable by the d4 pawn but not by the bishop (blocked ray beyond h6 is off-board anyway)
	if e.IsLegalMove("bishop1", "b2") {
		t.Errorf("bishop1 cannot move through its own camp")
	}
}

func TestKnightJumps(t *testing.T) {
	e := NewEngine()
	for _, sq := range []Square{"a3", "c3"} {
		if !e.IsLegalMove("knight1", sq) {
			t.Errorf("knight1 to %s should be legal over the pawn wall", sq)
		}
	}
	for _, sq := range []Square{"b3", "d2", "b5"} {
		if e.IsLegalMove("knight1", sq) {
			t.Errorf("knight1 to %s must be illegal", sq)
		}
	}
}

func TestKingSingleStepOnly(t *testing.T) {
	e := NewEngine()
	play(t, e, [2]string{"pawn5", "e4"}, [2]string{"pawn5", "e5"})
	if !e.IsLegalMove(KingID, "e2") {
		t.Errorf("king to vacated e2 should be legal")
	}
	if e.IsLegalMove(KingID, "e3") {
		t.Errorf("king may not move two squares")
	}
	if e.IsLegalMove(KingID, "d1") {
		t.Errorf("king may not land on its own queen")
	}
}

func TestOffBoardDestinationRejected(t *testing.T) {
	e := NewEngine()
	if _, err := e.ApplyMove("rook1", "a9"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove for off-board square, got %v", err)
	}
	if _, err := e.ApplyMove("pawn1", "i3"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove for bad file, got %v", err)
	}
}

func TestRejectionIsIdempotent(t *testing.T) {
	e := NewEngine()
	before := e.Board().Pieces(White)
	beforeBlack := e.Board().Pieces(Black)
	for i := 0; i < 2; i++ {
		if _, err := e.ApplyMove("rook1", "a5"); !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("attempt %d: expected ErrIllegalMove, got %v", i, err)
		}
	}
	if !reflect.DeepEqual(before, e.Board().Pieces(White)) || !reflect.DeepEqual(beforeBlack, e.Board().Pieces(Black)) {
		t.Fatalf("rejected moves must not mutate the board")
	}
	if e.Turn() != White {
		t.Fatalf("rejected moves must not advance the turn")
	}
}

func TestTurnAlternation(t *testing.T) {
	e := NewEngine()
	moves := [][2]string{
		{"pawn5", "e4"}, {"pawn5", "e5"},
		{"knight2", "f3"}, {"knight1", "c6"},
		{"bishop2", "c4"}, {"bishop2", "c5"},
	}
	for i, mv := range moves {
		want := White
		if i%2 == 1 {
			want = Black
		}
		if e.Turn() != want {
			t.Fatalf("before move %d: turn = %s, want %s", i, e.Turn(), want)
		}
		if _, err := e.ApplyMove(PieceID(mv[0]), Square(mv[1])); err != nil {
			t.Fatalf("move %d (%s %s): %v", i, mv[0], mv[1], err)
		}
	}
	if e.Turn() != White {
		t.Fatalf("after 6 moves turn = %s, want white", e.Turn())
	}
}

func TestWrongSidePieceRejected(t *testing.T) {
	e := NewEngine()
	// white to move: a black piece id resolves against white's map and fails
	if _, err := e.ApplyMove("pawn5", "e5"); err == nil {
		// pawn5 belongs to both sides; white's pawn5 cannot reach e5
		t.Fatalf("white pawn5 to e5 must be illegal")
	}
}

func TestCheckWithCoverIsNotMate(t *testing.T) {
	e := NewEngine()
	eff := play(t, e,
		[2]string{"pawn5", "e4"},
		[2]string{"pawn4", "d5"},
		[2]string{"bishop2", "b5"},
	)
	if eff.Check == nil || eff.Check.Side != Black || eff.Check.By != "bishop2" {
		t.Fatalf("expected check against black by bishop2, got %+v", eff.Check)
	}
	if eff.Mate != nil {
		t.Fatalf("coverable check must not be mate: %+v", eff.Mate)
	}
	// interposing clears the check marker on the next accepted move
	play(t, e, [2]string{"pawn3", "c6"})
	if e.Board().Check() != nil {
		t.Fatalf("check marker must clear after the covering move")
	}
}

func TestMovingWhileCheckedRequiresResolution(t *testing.T) {
	e := NewEngine()
	play(t, e,
		[2]string{"pawn5", "e4"},
		[2]string{"pawn4", "d5"},
		[2]string{"bishop2", "b5"},
	)
	// black is checked; an unrelated move must be rejected
	if _, err := e.ApplyMove("pawn1", "a6"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected still-in-check rejection, got %v", err)
	}
	// capturing or blocking resolves it
	if _, err := e.ApplyMove("pawn3", "c6"); err != nil {
		t.Fatalf("interposition must be accepted: %v", err)
	}
}

func TestExposingOwnKingRejected(t *testing.T) {
	e := NewEngine()
	play(t, e,
		[2]string{"pawn5", "e4"},
		[2]string{"pawn5", "e5"},
		[2]string{"queen", "h5"},
	)
	// f7-f6 opens the h5 queen's diagonal onto e8
	if _, err := e.ApplyMove("pawn6", "f6"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected discovered self-check rejection, got %v", err)
	}
	// a harmless move is still accepted
	if _, err := e.ApplyMove("knight1", "c6"); err != nil {
		t.Fatalf("unrelated legal move rejected: %v", err)
	}
}

func TestFoolsMate(t *testing.T) {
	e := NewEngine()
	eff := play(t, e,
		[2]string{"pawn6", "f3"},
		[2]string{"pawn5", "e5"},
		[2]string{"pawn7", "g4"},
		[2]string{"queen", "h4"},
	)
	if eff.Check == nil || eff.Check.Side != White {
		t.Fatalf("expected check against white, got %+v", eff.Check)
	}
	if eff.Mate == nil {
		t.Fatalf("expected mate")
	}
	if eff.Mate.Side != White || eff.Mate.By != "queen" {
		t.Fatalf("expected white mated by queen, got %+v", eff.Mate)
	}
}

func TestCaptureDropsIndexedAttacker(t *testing.T) {
	e := NewEngine()
	play(t, e,
		[2]string{"pawn5", "e4"},
		[2]string{"pawn5", "e5"},
		[2]string{"queen", "h5"}, // recorded as a threat against black's king
		[2]string{"knight2", "f6"},
	)
	// black knight takes the queen next turn; the threat index must not
	// keep replaying a captured piece
	play(t, e, [2]string{"pawn1", "a3"}, [2]string{"knight2", "h5"})
	if _, ok := e.Board().SquareOf(White, "queen"); ok {
		t.Fatalf("queen should be captured")
	}
	// black can now move freely without phantom self-check rejections
	play(t, e, [2]string{"pawn2", "b3"}, [2]string{"pawn4", "d6"})
}
