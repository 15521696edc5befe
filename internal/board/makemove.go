package board

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// DebugMoveValidation enables consistency checks in MakeMove and UnmakeMove.
// Violations are logged, never repaired.
var DebugMoveValidation = false

// castleRookSquares returns the rook's origin and destination for a castling
// king move to the given square.
func castleRookSquares(kingTo Square) (Square, Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// MakeMove plays m, which must have been generated for this position, and
// returns the information UnmakeMove needs to take it back. Pseudo-legal
// moves are accepted; the caller checks whether the mover's king is left
// attacked.
func (p *Position) MakeMove(m Move) Undo {
	undo := Undo{
		castling:  p.castling,
		enPassant: p.enPassant,
		halfMove:  p.halfMove,
		hash:      p.hash,
		checkers:  p.checkers,
	}

	if DebugMoveValidation {
		p.checkMove(m)
	}

	us := p.sideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	pt := m.Piece()

	if p.enPassant != NoSquare {
		p.hash ^= zobristEnPassant[p.enPassant.File()]
		p.enPassant = NoSquare
	}

	if captured := m.Captured(); captured != NoPieceType {
		capSq := to
		if m.IsEnPassant() {
			capSq = epVictimSquare(to, us)
		}
		p.togglePiece(them, captured, capSq)
	}

	p.movePiece(us, pt, from, to)

	if promo := m.Promotion(); promo != NoPieceType {
		p.togglePiece(us, Pawn, to)
		p.togglePiece(us, promo, to)
	}

	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(to)
		p.movePiece(us, Rook, rookFrom, rookTo)
	}

	if rights := p.castling & castlingMask[from] & castlingMask[to]; rights != p.castling {
		p.hash ^= castlingKey(rights ^ p.castling)
		p.castling = rights
	}

	if m.IsDoublePush() {
		p.enPassant = Square((int(from) + int(to)) / 2)
		p.hash ^= zobristEnPassant[p.enPassant.File()]
	}

	if pt == Pawn || m.IsCapture() {
		p.halfMove = 0
	} else {
		p.halfMove++
	}
	if us == Black {
		p.fullMove++
	}

	p.sideToMove = them
	p.hash ^= zobristSideToMove
	p.updateCheckers()

	return undo
}

// UnmakeMove takes back m, restoring the position bit for bit.
func (p *Position) UnmakeMove(m Move, undo Undo) {
	them := p.sideToMove
	us := them.Other()
	from, to := m.From(), m.To()

	p.sideToMove = us
	if us == Black {
		p.fullMove--
	}

	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(to)
		p.movePiece(us, Rook, rookTo, rookFrom)
	}

	if promo := m.Promotion(); promo != NoPieceType {
		p.togglePiece(us, promo, to)
		p.togglePiece(us, Pawn, to)
	}

	p.movePiece(us, m.Piece(), to, from)

	if captured := m.Captured(); captured != NoPieceType {
		capSq := to
		if m.IsEnPassant() {
			capSq = epVictimSquare(to, us)
		}
		p.togglePiece(them, captured, capSq)
	}

	p.castling = undo.castling
	p.enPassant = undo.enPassant
	p.halfMove = undo.halfMove
	p.hash = undo.hash
	p.checkers = undo.checkers

	if DebugMoveValidation && p.hash != p.ComputeHash() {
		log.Error().Str("move", m.String()).Str("fen", p.ToFEN()).Msg("unmake-hash-mismatch")
	}
}

// epVictimSquare returns the square of the pawn captured en passant.
func epVictimSquare(to Square, us Color) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// checkMove logs moves that do not fit the position they are played on.
func (p *Position) checkMove(m Move) {
	us := p.sideToMove
	if got := p.pieceTypeAt(m.From(), us); got != m.Piece() {
		log.Error().Str("move", m.String()).Str("fen", p.ToFEN()).
			Str("want", m.Piece().String()).Str("got", got.String()).Msg("makemove-wrong-piece")
	}
	if m.Captured() == King {
		log.Error().Str("move", m.String()).Str("fen", p.ToFEN()).Msg("makemove-captures-king")
	}
}

// leavesKingAttacked reports whether the side that just moved left its own
// king attacked.
func (p *Position) leavesKingAttacked() bool {
	mover := p.sideToMove.Other()
	return p.IsSquareAttacked(p.kingSquare[mover], p.sideToMove)
}

// ApplyMove plays the legal move described by desc in coordinate notation
// ("e2e4", "e7e8q"). On error the position is unchanged and the error wraps
// ErrIllegalMove.
func (p *Position) ApplyMove(desc string) (Move, error) {
	m, err := p.ParseMove(desc)
	if err != nil {
		return NoMove, err
	}
	p.MakeMove(m)
	return m, nil
}

// ParseMove resolves a coordinate-notation description against the legal
// moves of the position.
func (p *Position) ParseMove(desc string) (Move, error) {
	if len(desc) != 4 && len(desc) != 5 {
		return NoMove, fmt.Errorf("%w: malformed move %q", ErrIllegalMove, desc)
	}
	from, err := ParseSquare(desc[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	to, err := ParseSquare(desc[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	promo := NoPieceType
	if len(desc) == 5 {
		switch desc[4] {
		case 'n', 'N':
			promo = Knight
		case 'b', 'B':
			promo = Bishop
		case 'r', 'R':
			promo = Rook
		case 'q', 'Q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: bad promotion piece in %q", ErrIllegalMove, desc)
		}
	}

	moves := p.GenerateLegalMoves()
	for _, m := range moves.Slice() {
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s in %s", ErrIllegalMove, desc, p.ToFEN())
}
