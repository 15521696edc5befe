package board

// Zobrist keys. Generated once from a fixed seed so hashes are stable
// across runs.
var (
	zobristPiece      [2][6][64]uint64 // [Color][PieceType][Square]
	zobristCastling   [4]uint64        // one per castling right bit
	zobristEnPassant  [8]uint64        // one per file
	zobristSideToMove uint64           // XOR when black to move
)

func init() {
	initZobrist()
}

type prng struct {
	state uint64
}

// xorshift64*
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := &prng{state: 0x98F107A2BEEF1234}

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// castlingKey returns the XOR of the keys of every right set in cr. Because
// the keys combine by XOR, castlingKey(old^new) is the delta between two sets
// of rights.
func castlingKey(cr CastlingRights) uint64 {
	var key uint64
	for i := range zobristCastling {
		if cr&(1<<i) != 0 {
			key ^= zobristCastling[i]
		}
	}
	return key
}

// ComputeHash computes the Zobrist hash of the position from scratch.
// MakeMove and UnmakeMove maintain the same value incrementally.
func (p *Position) ComputeHash() uint64 {
	var hash uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.pieces[c][pt]
			for bb != 0 {
				hash ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}
	if p.sideToMove == Black {
		hash ^= zobristSideToMove
	}
	hash ^= castlingKey(p.castling)
	if p.enPassant != NoSquare {
		hash ^= zobristEnPassant[p.enPassant.File()]
	}
	return hash
}
