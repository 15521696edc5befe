package board

import "github.com/rs/zerolog/log"

// Pre-computed attack tables for the leaping pieces.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
)

func init() {
	initLeaperAttacks()
	if err := initMagics(); err != nil {
		log.Fatal().Err(err).Msg("attack-tables")
	}
}

func initLeaperAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		n := (bb << 17) & NotFileA
		n |= (bb << 15) & NotFileH
		n |= (bb >> 17) & NotFileH
		n |= (bb >> 15) & NotFileA
		n |= (bb << 10) & NotFileAB
		n |= (bb << 6) & NotFileGH
		n |= (bb >> 10) & NotFileGH
		n |= (bb >> 6) & NotFileAB
		knightAttacks[sq] = n

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns bishop attacks from sq given the board occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopMagics[sq].attacks(occupied)
}

// RookAttacks returns rook attacks from sq given the board occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rookMagics[sq].attacks(occupied)
}

// QueenAttacks returns queen attacks from sq given the board occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// AttackersByColor returns the pieces of color c attacking sq.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.pieces[c][Pawn]) |
		(knightAttacks[sq] & p.pieces[c][Knight]) |
		(kingAttacks[sq] & p.pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.pieces[c][Bishop] | p.pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.pieces[c][Rook] | p.pieces[c][Queen]))
}

// IsSquareAttacked reports whether sq is attacked by any piece of color by.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.AttackersByColor(sq, by, p.allOccupied) != 0
}

func (p *Position) updateCheckers() {
	us := p.sideToMove
	if p.pieces[us][King] == 0 {
		p.checkers = 0
		return
	}
	p.checkers = p.AttackersByColor(p.kingSquare[us], us.Other(), p.allOccupied)
}
