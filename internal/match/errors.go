package match

import "errors"

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchInactive      = errors.New("match is inactive")
	ErrMatchFull          = errors.New("match already has two players")
	ErrAlreadySeated      = errors.New("already seated in this match")
	ErrNotParticipant     = errors.New("not a participant of this match")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrDrawAlreadyOffered = errors.New("draw already offered by this side")
	ErrNoDrawOffer        = errors.New("no pending draw offer")
	ErrInvalidConfig      = errors.New("invalid match configuration")
)
