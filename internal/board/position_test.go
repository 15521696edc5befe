package board

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

var testFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
}

func TestCheckmate(t *testing.T) {
	is := is.New(t)
	// back rank mate, black to move
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	is.NoErr(err)
	is.True(pos.InCheck())
	is.Equal(pos.GenerateLegalMoves().Len(), 0)
	is.True(pos.IsCheckmate())
	is.True(!pos.IsStalemate())
}

func TestNotCheckmate(t *testing.T) {
	is := is.New(t)
	// the king can take the checking rook
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	is.NoErr(err)
	is.True(pos.InCheck())
	is.True(!pos.IsCheckmate())
	is.Equal(pos.GenerateLegalMoves().Len(), 2) // Kxg8, Kh7
}

func TestStalemate(t *testing.T) {
	is := is.New(t)
	pos, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	is.NoErr(err)
	is.True(!pos.InCheck())
	is.True(pos.IsStalemate())
}

func TestInsufficientMaterial(t *testing.T) {
	is := is.New(t)
	tests := []struct {
		fen  string
		want bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4KN2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4KB2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/3BKB2 w - - 0 1", false},
		{"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1", false},
		{"8/8/8/4k3/8/8/8/4KR2 w - - 0 1", false},
	}
	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		is.NoErr(err)
		is.Equal(pos.IsInsufficientMaterial(), tc.want) // tc.fen
	}
}

func TestFENRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		is.NoErr(err)
		is.Equal(pos.ToFEN(), fen)
	}
}

func TestParseFENOptionalClocks(t *testing.T) {
	is := is.New(t)
	pos, err := ParseFEN("8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -")
	is.NoErr(err)
	is.Equal(pos.HalfMoveClock(), 0)
	is.Equal(pos.FullMoveNumber(), 1)
}

func TestParseFENInvalid(t *testing.T) {
	is := is.New(t)
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkz - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e9 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"kk6/8/8/8/8/8/8/K7 w - - 0 1",
		"P6k/8/8/8/8/8/8/K7 w - - 0 1",
		"7k/8/8/8/8/8/8/K6R w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w K - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - e3 0 1",
		// en passant target with no pawn that could have double pushed
		"4k3/8/8/3P4/8/8/8/4K3 w - e6 0 1",
		"4k3/8/4p3/3Pp3/8/8/8/4K3 w - e6 0 1",
		"4k3/4p3/8/3Pp3/8/8/8/4K3 w - e6 0 1",
		"4k3/8/8/8/3pP3/8/4P3/4K3 b - e3 0 1",
		"4k3/8/8/8/3pN3/8/8/4K3 b - e3 0 1",
	}
	for _, fen := range []string{
		"4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 1",
		"4k3/8/8/8/3pP3/8/8/4K3 b - e3 0 1",
	} {
		_, err := ParseFEN(fen)
		is.NoErr(err) // real double push
	}
	for _, fen := range bad {
		_, err := ParseFEN(fen)
		is.True(errors.Is(err, ErrInvalidPositionDescription)) // fen should be rejected
	}
}

func TestApplyMove(t *testing.T) {
	is := is.New(t)
	pos := NewPosition()

	m, err := pos.ApplyMove("e2e4")
	is.NoErr(err)
	is.True(m.IsDoublePush())
	is.Equal(pos.EnPassant(), E3)
	is.Equal(pos.SideToMove(), Black)
	is.Equal(pos.ToFEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
}

func TestApplyMoveIllegalLeavesPositionUnchanged(t *testing.T) {
	is := is.New(t)
	pos := NewPosition()
	before := *pos
	for _, desc := range []string{"e2e5", "e7e5", "e1g1", "xx", "e2e4k", "a7a8q", "z9a1"} {
		_, err := pos.ApplyMove(desc)
		is.True(errors.Is(err, ErrIllegalMove)) // desc should be illegal
		is.Equal(*pos, before)
	}
}

func TestApplyMovePromotion(t *testing.T) {
	is := is.New(t)
	pos, err := ParseFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	is.NoErr(err)
	_, err = pos.ApplyMove("a7a8")
	is.True(errors.Is(err, ErrIllegalMove))
	m, err := pos.ApplyMove("a7a8n")
	is.NoErr(err)
	is.Equal(m.Promotion(), Knight)
	is.Equal(pos.PieceAt(A8), WhiteKnight)
}

func TestCastlingMovesRook(t *testing.T) {
	is := is.New(t)
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	is.NoErr(err)
	m, err := pos.ApplyMove("e1c1")
	is.NoErr(err)
	is.True(m.IsCastling())
	is.Equal(pos.PieceAt(D1), WhiteRook)
	is.Equal(pos.PieceAt(A1), NoPiece)
	is.Equal(pos.CastlingRights(), BlackKingSideCastle|BlackQueenSideCastle)
	is.Equal(pos.Hash(), pos.ComputeHash())
}

func TestCastlingThroughAttack(t *testing.T) {
	is := is.New(t)
	// the bishop on a6 covers f1
	pos, err := ParseFEN("4k3/8/b7/8/8/8/8/4K2R w K - 0 1")
	is.NoErr(err)
	_, err = pos.ApplyMove("e1g1")
	is.True(errors.Is(err, ErrIllegalMove))
}

// Random walks through the test positions: every make/unmake pair must
// restore the position exactly, and the incremental hash must match a
// recomputation.
func TestMakeUnmakeRestoresPosition(t *testing.T) {
	is := is.New(t)
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		is.NoErr(err)
		for ply := 0; ply < 200; ply++ {
			moves := pos.GenerateLegalMoves().Slice()
			if len(moves) == 0 {
				break
			}
			for _, m := range moves {
				before := *pos
				undo := pos.MakeMove(m)
				is.Equal(pos.Hash(), pos.ComputeHash()) // incremental hash
				is.Equal(pos.AllOccupied(), pos.Occupied(White)|pos.Occupied(Black))
				pos.UnmakeMove(m, undo)
				is.Equal(*pos, before) // unmake restores every field
			}
			pos.MakeMove(moves[rng.Intn(len(moves))])
		}
	}
}

func TestHashDependsOnState(t *testing.T) {
	is := is.New(t)
	a, _ := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	b, _ := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQk - 0 1")
	c, _ := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1")
	is.True(a.Hash() != b.Hash())
	is.True(a.Hash() != c.Hash())

	// transpositions reach the same hash
	x := NewPosition()
	y := NewPosition()
	for _, d := range []string{"g1f3", "g8f6", "b1c3"} {
		_, err := x.ApplyMove(d)
		is.NoErr(err)
	}
	for _, d := range []string{"b1c3", "g8f6", "g1f3"} {
		_, err := y.ApplyMove(d)
		is.NoErr(err)
	}
	is.Equal(x.Hash(), y.Hash())
}

func TestSAN(t *testing.T) {
	is := is.New(t)
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	is.NoErr(err)
	for _, tc := range []struct{ uci, san string }{
		{"e1g1", "O-O"},
		{"e1c1", "O-O-O"},
		{"e5f7", "Nxf7"},
		{"d5e6", "dxe6"},
		{"f3f6", "Qxf6"},
	} {
		m, err := pos.ParseMove(tc.uci)
		is.NoErr(err)
		is.Equal(pos.SAN(m), tc.san)
		back, err := pos.ParseSAN(tc.san)
		is.NoErr(err)
		is.Equal(back, m)
	}
}

func TestSANDisambiguation(t *testing.T) {
	is := is.New(t)
	tests := []struct{ fen, uci, san string }{
		{"4k3/8/8/8/8/8/8/1N2KN2 w - - 0 1", "b1d2", "Nbd2"},
		{"4k3/8/8/8/8/1N6/8/1N2K3 w - - 0 1", "b1d2", "N1d2"},
		{"4k3/8/8/8/8/8/4K3/R6R w - - 0 1", "h1f1", "Rhf1"},
	}
	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		is.NoErr(err)
		m, err := pos.ParseMove(tc.uci)
		is.NoErr(err)
		is.Equal(pos.SAN(m), tc.san)
		back, err := pos.ParseSAN(tc.san)
		is.NoErr(err)
		is.Equal(back, m)
	}
}

func TestSANMate(t *testing.T) {
	is := is.New(t)
	pos, err := ParseFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	is.NoErr(err)
	m, err := pos.ParseMove("a1a8")
	is.NoErr(err)
	is.Equal(pos.SAN(m), "Ra8#")
}
