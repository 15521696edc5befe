package board

// GenerateLegalMoves generates all legal moves for the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := &MoveList{}
	p.generate(ml, false)
	return p.filterLegal(ml)
}

// GeneratePseudoLegalMoves generates moves that obey piece movement but may
// leave the mover's king attacked. Castling is only generated when it is
// fully legal.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := &MoveList{}
	p.generate(ml, false)
	return ml
}

// GenerateCaptures generates the legal captures, en passant captures and
// promotions (quiet promotions included).
func (p *Position) GenerateCaptures() *MoveList {
	ml := &MoveList{}
	p.generate(ml, true)
	return p.filterLegal(ml)
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	ml := &MoveList{}
	p.generate(ml, false)
	for _, m := range ml.Slice() {
		if p.isLegal(m) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// filterLegal keeps the moves that do not leave the mover's king attacked.
func (p *Position) filterLegal(ml *MoveList) *MoveList {
	legal := &MoveList{}
	for _, m := range ml.Slice() {
		if p.isLegal(m) {
			legal.Add(m)
		}
	}
	return legal
}

func (p *Position) isLegal(m Move) bool {
	undo := p.MakeMove(m)
	ok := !p.leavesKingAttacked()
	p.UnmakeMove(m, undo)
	return ok
}

// generate fills ml with pseudo-legal moves. With tactical set only captures
// and promotions are produced.
func (p *Position) generate(ml *MoveList, tactical bool) {
	us := p.sideToMove
	them := us.Other()
	targets := ^p.occupied[us]
	if tactical {
		targets = p.occupied[them]
	}

	p.generatePawnMoves(ml, us, tactical)

	for pt := Knight; pt <= King; pt++ {
		pieces := p.pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := p.pieceAttacks(pt, from) & targets
			for attacks != 0 {
				to := attacks.PopLSB()
				ml.Add(newMove(from, to, pt, p.pieceTypeAt(to, them), NoPieceType, 0))
			}
		}
	}

	if !tactical {
		p.generateCastlingMoves(ml, us)
	}
}

func (p *Position) pieceAttacks(pt PieceType, sq Square) Bitboard {
	switch pt {
	case Knight:
		return KnightAttacks(sq)
	case Bishop:
		return BishopAttacks(sq, p.allOccupied)
	case Rook:
		return RookAttacks(sq, p.allOccupied)
	case Queen:
		return QueenAttacks(sq, p.allOccupied)
	case King:
		return KingAttacks(sq)
	}
	return Empty
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, tactical bool) {
	them := us.Other()
	pawns := p.pieces[us][Pawn]
	empty := ^p.allOccupied
	enemies := p.occupied[them]

	var push1, push2, attackL, attackR, promotionRank Bitboard
	var pushDir int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	if !tactical {
		quiet := push1 &^ promotionRank
		for quiet != 0 {
			to := quiet.PopLSB()
			ml.Add(newMove(Square(int(to)-pushDir), to, Pawn, NoPieceType, NoPieceType, 0))
		}
		for push2 != 0 {
			to := push2.PopLSB()
			ml.Add(newMove(Square(int(to)-2*pushDir), to, Pawn, NoPieceType, NoPieceType, FlagDoublePush))
		}
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to, NoPieceType)
	}

	// attackL moved one file toward a, so the origin is one file toward h.
	for _, side := range [2]struct {
		targets Bitboard
		delta   int
	}{{attackL, pushDir - 1}, {attackR, pushDir + 1}} {
		bb := side.targets
		for bb != 0 {
			to := bb.PopLSB()
			from := Square(int(to) - side.delta)
			captured := p.pieceTypeAt(to, them)
			if promotionRank.IsSet(to) {
				addPromotions(ml, from, to, captured)
			} else {
				ml.Add(newMove(from, to, Pawn, captured, NoPieceType, 0))
			}
		}
	}

	if p.enPassant != NoSquare {
		attackers := pawnAttacks[them][p.enPassant] & pawns
		for attackers != 0 {
			from := attackers.PopLSB()
			ml.Add(newMove(from, p.enPassant, Pawn, Pawn, NoPieceType, FlagEnPassant))
		}
	}
}

func addPromotions(ml *MoveList, from, to Square, captured PieceType) {
	for _, promo := range [4]PieceType{Queen, Rook, Bishop, Knight} {
		ml.Add(newMove(from, to, Pawn, captured, promo, 0))
	}
}

// castlePaths lists, per color and side, the right bit, the king's target,
// the squares that must be empty and the squares the king crosses.
var castlePaths = [2][2]struct {
	right   CastlingRights
	kingTo  Square
	empty   Bitboard
	transit [2]Square
}{
	White: {
		{WhiteKingSideCastle, G1, SquareBB(F1) | SquareBB(G1), [2]Square{F1, G1}},
		{WhiteQueenSideCastle, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [2]Square{D1, C1}},
	},
	Black: {
		{BlackKingSideCastle, G8, SquareBB(F8) | SquareBB(G8), [2]Square{F8, G8}},
		{BlackQueenSideCastle, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [2]Square{D8, C8}},
	},
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	if p.castling == NoCastling || p.InCheck() {
		return
	}
	them := us.Other()
	from := p.kingSquare[us]
	for _, path := range castlePaths[us] {
		if p.castling&path.right == 0 || p.allOccupied&path.empty != 0 {
			continue
		}
		if p.IsSquareAttacked(path.transit[0], them) || p.IsSquareAttacked(path.transit[1], them) {
			continue
		}
		ml.Add(newMove(from, path.kingTo, King, NoPieceType, NoPieceType, FlagCastling))
	}
}
