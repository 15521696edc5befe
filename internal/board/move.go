package board

// Move encodes a chess move in 32 bits:
// bits 0-5:   from square
// bits 6-11:  to square
// bits 12-14: moving piece type
// bits 15-17: captured piece type (NoPieceType if none)
// bits 18-20: promotion piece type (NoPieceType if none)
// bits 21-23: flags
//
// Moves are only built by the generator, so every field is filled in from the
// position the move was generated for.
type Move uint32

const (
	FlagCastling   Move = 1 << 21
	FlagEnPassant  Move = 1 << 22
	FlagDoublePush Move = 1 << 23
)

// NoMove is the zero move.
const NoMove Move = 0

func newMove(from, to Square, piece, captured, promo PieceType, flags Move) Move {
	return Move(from) | Move(to)<<6 | Move(piece)<<12 | Move(captured)<<15 | Move(promo)<<18 | flags
}

// From returns the origin square.
func (m Move) From() Square { return Square(m & 0x3F) }

// To returns the destination square.
func (m Move) To() Square { return Square((m >> 6) & 0x3F) }

// Piece returns the type of the moving piece.
func (m Move) Piece() PieceType { return PieceType((m >> 12) & 7) }

// Captured returns the type of the captured piece, or NoPieceType.
func (m Move) Captured() PieceType { return PieceType((m >> 15) & 7) }

// Promotion returns the promotion piece type, or NoPieceType.
func (m Move) Promotion() PieceType { return PieceType((m >> 18) & 7) }

func (m Move) IsCapture() bool    { return m.Captured() != NoPieceType }
func (m Move) IsPromotion() bool  { return m.Promotion() != NoPieceType }
func (m Move) IsCastling() bool   { return m&FlagCastling != 0 }
func (m Move) IsEnPassant() bool  { return m&FlagEnPassant != 0 }
func (m Move) IsDoublePush() bool { return m&FlagDoublePush != 0 }

// IsQuiet reports whether the move neither captures nor promotes.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the coordinate notation of the move, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// Undo stores what MakeMove cannot recompute when the move is taken back.
type Undo struct {
	castling  CastlingRights
	enPassant Square
	halfMove  int
	hash      uint64
	checkers  Bitboard
}
