package board

import (
	"sort"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"
)

// Cross-checks against independent move generators.

func sortedMoveStrings(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return out
}

func TestLegalMovesMatchNotnilChess(t *testing.T) {
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		require.NoError(t, err)

		opt, err := chess.FEN(fen)
		require.NoError(t, err)
		game := chess.NewGame(opt)

		var want []string
		for _, m := range game.ValidMoves() {
			want = append(want, m.String())
		}
		sort.Strings(want)

		require.Equal(t, want, sortedMoveStrings(pos.GenerateLegalMoves().Slice()), fen)
	}
}

func dragontoothPerft(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var nodes uint64
	for _, m := range b.GenerateLegalMoves() {
		unapply := b.Apply(m)
		nodes += dragontoothPerft(b, depth-1)
		unapply()
	}
	return nodes
}

func TestPerftMatchesDragontooth(t *testing.T) {
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		require.NoError(t, err)
		dt := dragontoothmg.ParseFen(fen)
		require.Equal(t, dragontoothPerft(&dt, 3), Perft(pos, 3), fen)
	}
}

// Captures are exactly the legal moves that take a piece or promote.
func TestGenerateCapturesSubset(t *testing.T) {
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		require.NoError(t, err)

		var want []Move
		for _, m := range pos.GenerateLegalMoves().Slice() {
			if m.IsCapture() || m.IsPromotion() {
				want = append(want, m)
			}
		}
		require.Equal(t, sortedMoveStrings(want), sortedMoveStrings(pos.GenerateCaptures().Slice()), fen)
	}
}
