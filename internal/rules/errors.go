package rules

import "errors"

// ErrIllegalMove covers every domain-level move rejection: bad geometry,
// a move that leaves the own king in check, or one that exposes it.
// Callers match with errors.Is; the wrapped message carries the detail.
var ErrIllegalMove = errors.New("illegal move")
