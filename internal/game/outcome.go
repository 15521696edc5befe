package game

import "github.com/hailam/chesscore/internal/board"

// Outcome is the result of a game.
type Outcome int

const (
	Ongoing Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

// Reason tells why a game ended.
type Reason int

const (
	NoReason Reason = iota
	Checkmate
	Stalemate
	FiftyMoveRule
	InsufficientMaterial
	ThreefoldRepetition
	MoveLimit
)

func (r Reason) String() string {
	switch r {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case FiftyMoveRule:
		return "fifty-move-rule"
	case InsufficientMaterial:
		return "insufficient-material"
	case ThreefoldRepetition:
		return "threefold-repetition"
	case MoveLimit:
		return "move-limit"
	}
	return "none"
}

// Outcome reports whether the game has ended and why. Mate and stalemate
// take precedence over the draw rules.
func (g *Game) Outcome() (Outcome, Reason) {
	if !g.pos.HasLegalMoves() {
		if !g.pos.InCheck() {
			return Draw, Stalemate
		}
		if g.pos.SideToMove() == board.White {
			return BlackWins, Checkmate
		}
		return WhiteWins, Checkmate
	}
	switch {
	case g.pos.IsFiftyMoveDraw():
		return Draw, FiftyMoveRule
	case g.pos.IsInsufficientMaterial():
		return Draw, InsufficientMaterial
	case g.Repetitions() >= 3:
		return Draw, ThreefoldRepetition
	case g.maxPlies > 0 && len(g.moves) >= g.maxPlies:
		return Draw, MoveLimit
	}
	return Ongoing, NoReason
}
