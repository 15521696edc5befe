package board

import (
	"fmt"
	"strings"
)

// CastlingRights holds the four castling right bits.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// castlingMask[sq] holds the rights that survive a move touching sq.
var castlingMask = func() (m [64]CastlingRights) {
	for i := range m {
		m[i] = AllCastling
	}
	m[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	m[H1] &^= WhiteKingSideCastle
	m[A1] &^= WhiteQueenSideCastle
	m[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	m[H8] &^= BlackKingSideCastle
	m[A8] &^= BlackQueenSideCastle
	return m
}()

// Position is a complete chess position.
//
// Fields are only changed by MakeMove and UnmakeMove (and by the FEN parser
// while building a new value). The struct is comparable, so two positions
// are identical exactly when they are ==.
type Position struct {
	pieces      [2][6]Bitboard // [Color][PieceType]
	occupied    [2]Bitboard
	allOccupied Bitboard

	sideToMove Color
	castling   CastlingRights
	enPassant  Square // target square, NoSquare if none
	halfMove   int
	fullMove   int

	hash       uint64
	kingSquare [2]Square
	checkers   Bitboard // pieces giving check to the side to move
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

func (p *Position) Pieces(c Color, pt PieceType) Bitboard { return p.pieces[c][pt] }
func (p *Position) Occupied(c Color) Bitboard             { return p.occupied[c] }
func (p *Position) AllOccupied() Bitboard                 { return p.allOccupied }
func (p *Position) SideToMove() Color                     { return p.sideToMove }
func (p *Position) CastlingRights() CastlingRights        { return p.castling }
func (p *Position) EnPassant() Square                     { return p.enPassant }
func (p *Position) HalfMoveClock() int                    { return p.halfMove }
func (p *Position) FullMoveNumber() int                   { return p.fullMove }
func (p *Position) Hash() uint64                          { return p.hash }
func (p *Position) KingSquare(c Color) Square             { return p.kingSquare[c] }
func (p *Position) Checkers() Bitboard                    { return p.checkers }

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.checkers != 0
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.allOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// pieceTypeAt returns the type of the piece of color c on sq, or NoPieceType.
func (p *Position) pieceTypeAt(sq Square, c Color) PieceType {
	bb := SquareBB(sq)
	if p.occupied[c]&bb == 0 {
		return NoPieceType
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.pieces[c][pt]&bb != 0 {
			return pt
		}
	}
	return NoPieceType
}

// togglePiece adds or removes a piece and updates the hash.
func (p *Position) togglePiece(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.pieces[c][pt] ^= bb
	p.occupied[c] ^= bb
	p.allOccupied ^= bb
	p.hash ^= zobristPiece[c][pt][sq]
}

// movePiece moves a piece between two squares and updates the hash.
func (p *Position) movePiece(c Color, pt PieceType, from, to Square) {
	bb := SquareBB(from) | SquareBB(to)
	p.pieces[c][pt] ^= bb
	p.occupied[c] ^= bb
	p.allOccupied ^= bb
	p.hash ^= zobristPiece[c][pt][from] ^ zobristPiece[c][pt][to]
	if pt == King {
		p.kingSquare[c] = to
	}
}

// String renders the board with rank 8 on top, followed by the FEN.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "FEN:  %s\n", p.ToFEN())
	fmt.Fprintf(&sb, "Hash: %016x\n", p.hash)
	return sb.String()
}

// validate checks the structural invariants of a freshly parsed position.
func (p *Position) validate() error {
	for c := White; c <= Black; c++ {
		if n := p.pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%s has %d kings", c, n)
		}
	}
	if (p.pieces[White][Pawn]|p.pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawn on first or last rank")
	}
	them := p.sideToMove.Other()
	if p.IsSquareAttacked(p.kingSquare[them], p.sideToMove) {
		return fmt.Errorf("side not to move is in check")
	}
	if p.enPassant != NoSquare {
		wantRank := 5
		if p.sideToMove == Black {
			wantRank = 2
		}
		if p.enPassant.Rank() != wantRank {
			return fmt.Errorf("en passant square %s on wrong rank", p.enPassant)
		}
		// the double push went from behind the target to in front of it
		pushed, origin := p.enPassant-8, p.enPassant+8
		if p.sideToMove == Black {
			pushed, origin = p.enPassant+8, p.enPassant-8
		}
		if p.allOccupied&(SquareBB(p.enPassant)|SquareBB(origin)) != 0 {
			return fmt.Errorf("en passant square %s does not follow a double push", p.enPassant)
		}
		if !p.pieces[them][Pawn].IsSet(pushed) {
			return fmt.Errorf("no pawn to capture en passant on %s", pushed)
		}
	}
	for c, home := range [2]Square{E1, E8} {
		ks, qs := WhiteKingSideCastle, WhiteQueenSideCastle
		rank := 0
		if c == int(Black) {
			ks, qs, rank = BlackKingSideCastle, BlackQueenSideCastle, 7
		}
		if p.castling&(ks|qs) != 0 && p.kingSquare[c] != home {
			return fmt.Errorf("castling rights without king on %s", home)
		}
		if p.castling&ks != 0 && !p.pieces[c][Rook].IsSet(NewSquare(7, rank)) {
			return fmt.Errorf("king side castling right without rook")
		}
		if p.castling&qs != 0 && !p.pieces[c][Rook].IsSet(NewSquare(0, rank)) {
			return fmt.Errorf("queen side castling right without rook")
		}
	}
	return nil
}

// IsInsufficientMaterial reports whether neither side has mating material:
// bare kings, or a single minor piece against a bare king.
func (p *Position) IsInsufficientMaterial() bool {
	if p.pieces[White][Pawn]|p.pieces[Black][Pawn] != 0 ||
		p.pieces[White][Rook]|p.pieces[Black][Rook] != 0 ||
		p.pieces[White][Queen]|p.pieces[Black][Queen] != 0 {
		return false
	}
	minors := [2]int{}
	for c := White; c <= Black; c++ {
		minors[c] = (p.pieces[c][Knight] | p.pieces[c][Bishop]).PopCount()
	}
	return minors[White]+minors[Black] <= 1
}

// IsFiftyMoveDraw reports whether fifty moves have passed without a capture
// or pawn move.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.halfMove >= 100
}
