package board

import "errors"

var (
	// ErrInvalidPositionDescription is returned when a FEN string cannot be parsed
	// or describes an impossible position.
	ErrInvalidPositionDescription = errors.New("invalid position description")

	// ErrIllegalMove is returned when a move description is malformed or does
	// not name a legal move in the current position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrMagicTableConstruction is returned when no magic number could be found
	// for a square within the attempt budget.
	ErrMagicTableConstruction = errors.New("magic table construction failed")
)
