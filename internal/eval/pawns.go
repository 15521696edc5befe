package eval

import "github.com/hailam/chesscore/internal/board"

// Passed pawn bonus by relative rank.
var passedPawnMg = [8]int{0, 5, 10, 20, 35, 60, 100, 0}
var passedPawnEg = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	doubledPawnMg  = -15
	doubledPawnEg  = -20
	isolatedPawnMg = -20
	isolatedPawnEg = -25
)

var (
	fileMasks     [8]board.Bitboard
	adjacentFiles [8]board.Bitboard
	passedMasks   [2][64]board.Bitboard
)

func init() {
	for f := 0; f < 8; f++ {
		fileMasks[f] = board.FileA << f
	}
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= fileMasks[f-1]
		}
		if f < 7 {
			adjacentFiles[f] |= fileMasks[f+1]
		}
	}
	for sq := board.A1; sq <= board.H8; sq++ {
		span := fileMasks[sq.File()] | adjacentFiles[sq.File()]
		for r := 0; r < 8; r++ {
			rank := board.Rank1 << (8 * r)
			if r > sq.Rank() {
				passedMasks[board.White][sq] |= span & rank
			}
			if r < sq.Rank() {
				passedMasks[board.Black][sq] |= span & rank
			}
		}
	}
}

// evaluatePawns scores passed, doubled and isolated pawns from White's side.
func evaluatePawns(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ours := pos.Pieces(c, board.Pawn)
		theirs := pos.Pieces(c.Other(), board.Pawn)

		for f := 0; f < 8; f++ {
			if n := (ours & fileMasks[f]).PopCount(); n > 1 {
				mg += sign * doubledPawnMg * (n - 1)
				eg += sign * doubledPawnEg * (n - 1)
			}
		}

		for bb := ours; bb != 0; {
			sq := bb.PopLSB()
			if ours&adjacentFiles[sq.File()] == 0 {
				mg += sign * isolatedPawnMg
				eg += sign * isolatedPawnEg
			}
			if theirs&passedMasks[c][sq] == 0 {
				rank := sq.Rank()
				if c == board.Black {
					rank = 7 - rank
				}
				mg += sign * passedPawnMg[rank]
				eg += sign * passedPawnEg[rank]
			}
		}
	}
	return mg, eg
}
