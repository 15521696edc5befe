package board

import (
	"context"
	"testing"
)

type perftCase struct {
	depth    int
	expected uint64
}

func runPerft(t *testing.T, fen string, tests []perftCase) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	for _, tc := range tests {
		if testing.Short() && tc.expected > 100000 {
			continue
		}
		got := Perft(pos, tc.depth)
		if got != tc.expected {
			t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
	}
}

func TestPerftStartingPosition(t *testing.T) {
	runPerft(t, StartFEN, []perftCase{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
	})
}

// Kiwipete exercises castling, en passant and promotions together.
func TestPerftKiwipete(t *testing.T) {
	runPerft(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []perftCase{
		{1, 48},
		{2, 2039},
		{3, 97862},
	})
}

func TestPerftPosition3(t *testing.T) {
	runPerft(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []perftCase{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
	})
}

func TestPerftPosition4(t *testing.T) {
	runPerft(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []perftCase{
		{1, 6},
		{2, 264},
		{3, 9467},
	})
}

func TestPerftPosition5(t *testing.T) {
	runPerft(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []perftCase{
		{1, 44},
		{2, 1486},
		{3, 62379},
	})
}

// The black pawn on e4 may not capture en passant: it would expose the king
// on a4 to the rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.IsEnPassant() {
			t.Errorf("en passant move %v should be illegal (horizontal pin)", m)
		}
	}
	runPerft(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []perftCase{
		{1, 6},
		{2, 94},
	})
}

func TestDivideSumsToPerft(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatal(err)
	}
	before := *pos

	entries, err := Divide(context.Background(), pos, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 48 {
		t.Fatalf("divide returned %d root moves, want 48", len(entries))
	}
	var total uint64
	for i, e := range entries {
		total += e.Nodes
		if i > 0 && entries[i-1].Move.String() > e.Move.String() {
			t.Errorf("entries not sorted at %d: %v after %v", i, e.Move, entries[i-1].Move)
		}
	}
	if total != 2039 {
		t.Errorf("divide total = %d, want 2039", total)
	}
	if *pos != before {
		t.Error("divide modified the root position")
	}
}

func TestDivideCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Divide(ctx, NewPosition(), 3); err == nil {
		t.Error("expected error from cancelled divide")
	}
}
