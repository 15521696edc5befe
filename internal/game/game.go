// Package game keeps the record of a game: the moves played, the positions
// seen for repetition, and how the game ended.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
)

// ErrGameOver is returned when a move is applied to a finished game.
var ErrGameOver = errors.New("game is over")

// Game is a sequence of legal moves from a starting position.
type Game struct {
	startFEN string
	pos      *board.Position
	moves    []board.Move
	hashes   []uint64 // position hash before each move
	maxPlies int
}

// New starts a game from fen.
func New(fen string) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{startFEN: pos.ToFEN(), pos: pos}, nil
}

// NewStandard starts a game from the initial position.
func NewStandard() *Game {
	pos := board.NewPosition()
	return &Game{startFEN: pos.ToFEN(), pos: pos}
}

// SetMoveLimit ends the game as a draw after n plies. Zero disables the limit.
func (g *Game) SetMoveLimit(n int) {
	g.maxPlies = n
}

// Position returns a copy of the current position.
func (g *Game) Position() *board.Position {
	return g.pos.Copy()
}

// StartFEN returns the starting position.
func (g *Game) StartFEN() string {
	return g.startFEN
}

// Moves returns the moves played so far.
func (g *Game) Moves() []board.Move {
	return append([]board.Move(nil), g.moves...)
}

// Hashes returns the hashes of the positions before each move, oldest first.
func (g *Game) Hashes() []uint64 {
	return append([]uint64(nil), g.hashes...)
}

// Plies returns the number of half-moves played.
func (g *Game) Plies() int {
	return len(g.moves)
}

// Apply plays desc, given in coordinate notation or SAN. The game is left
// unchanged on error.
func (g *Game) Apply(desc string) (board.Move, error) {
	if o, _ := g.Outcome(); o != Ongoing {
		return board.NoMove, ErrGameOver
	}
	m, err := g.pos.ParseMove(desc)
	if err != nil {
		var sanErr error
		if m, sanErr = g.pos.ParseSAN(desc); sanErr != nil {
			return board.NoMove, err
		}
	}
	g.play(m)
	return m, nil
}

// Play plays a move taken from the position's legal move list.
func (g *Game) Play(m board.Move) error {
	if o, _ := g.Outcome(); o != Ongoing {
		return ErrGameOver
	}
	if !g.pos.GenerateLegalMoves().Contains(m) {
		return fmt.Errorf("%w: %s", board.ErrIllegalMove, m)
	}
	g.play(m)
	return nil
}

func (g *Game) play(m board.Move) {
	g.hashes = append(g.hashes, g.pos.Hash())
	g.moves = append(g.moves, m)
	g.pos.MakeMove(m)
}

// Repetitions returns how many times the current position has occurred,
// counting the current occurrence.
func (g *Game) Repetitions() int {
	return lo.Count(g.hashes, g.pos.Hash()) + 1
}

// SAN returns the moves played in standard algebraic notation.
func (g *Game) SAN() []string {
	start, _ := board.ParseFEN(g.startFEN)
	return board.MovesToSAN(start, g.moves)
}

// String formats the move list with move numbers, e.g. "1. e4 e5 2. Nf3".
func (g *Game) String() string {
	start, _ := board.ParseFEN(g.startFEN)
	san := g.SAN()
	number := start.FullMoveNumber()
	var sb strings.Builder
	for i, s := range san {
		white := (start.SideToMove() == board.White) == (i%2 == 0)
		switch {
		case white:
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d. %s", number, s)
		case i == 0:
			fmt.Fprintf(&sb, "%d... %s", number, s)
			number++
		default:
			sb.WriteString(" " + s)
			number++
		}
	}
	if o, _ := g.Outcome(); o != Ongoing {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(o.String())
	}
	return sb.String()
}
