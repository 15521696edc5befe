package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/eval"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

var evaluator = EvaluatorFunc(eval.Evaluate)

func newTestEngine(useTT bool) *Engine {
	return NewEngine(evaluator, Options{HashMB: 4, UseTT: useTT})
}

func TestSearchStartPositionDepthOne(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()

	res, err := newTestEngine(true).Search(context.Background(), pos, Limits{Depth: 1})
	is.NoErr(err)
	is.Equal(res.Depth, 1)
	is.True(pos.GenerateLegalMoves().Contains(res.Move))
	is.True(res.Score > -100 && res.Score < 100) // roughly level
	is.Equal(len(res.PV), 1)
	is.Equal(res.PV[0], res.Move)
}

func TestSearchLeavesPositionUntouched(t *testing.T) {
	is := is.New(t)
	pos, err := board.ParseFEN(kiwipete)
	is.NoErr(err)
	before := *pos

	_, err = newTestEngine(true).Search(context.Background(), pos, Limits{Depth: 3})
	is.NoErr(err)
	is.Equal(*pos, before)
}

type minimaxCase struct {
	name  string
	fen   string
	depth int
	long  bool
}

// minimaxQuiescence keeps the unpruned capture search of Minimax small.
const minimaxQuiescence = 3

var minimaxCases = []minimaxCase{
	{"start", board.StartFEN, 3, false},
	{"rook-endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, false},
	{"scholar", "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 2 3", 2, false},
	{"promotion", "4k3/8/8/8/8/8/4p3/6K1 b - - 0 1", 3, false},
	{"kiwipete", kiwipete, 2, true},
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	for _, tc := range minimaxCases {
		for _, useTT := range []bool{false, true} {
			name := tc.name
			if useTT {
				name += "/tt"
			}
			t.Run(name, func(t *testing.T) {
				if tc.long && testing.Short() {
					t.Skip("slow minimax")
				}
				is := is.New(t)
				pos, err := board.ParseFEN(tc.fen)
				is.NoErr(err)

				eng := NewEngine(evaluator, Options{HashMB: 4, UseTT: useTT, QuiescencePly: minimaxQuiescence})
				res, err := eng.Search(context.Background(), pos, Limits{Depth: tc.depth})
				is.NoErr(err)

				best, score := BestMoves(pos, tc.depth, minimaxQuiescence, evaluator)
				is.Equal(res.Score, score)
				is.Equal(Minimax(pos, tc.depth, minimaxQuiescence, evaluator), score)
				is.True(lo.Contains(best, res.Move)) // search picked an optimal move
			})
		}
	}
}

func TestTranspositionTableIsTransparent(t *testing.T) {
	tests := []struct {
		fen   string
		depth int
	}{
		{board.StartFEN, 4},
		{kiwipete, 4},
		{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 4},
		// king walks reach the same position at different plies
		{"8/8/4k3/8/2p5/8/B2K4/8 w - - 0 1", 5},
		{"8/8/4k3/8/2p5/8/B2K4/8 w - - 0 1", 6},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s/%d", tc.fen, tc.depth), func(t *testing.T) {
			is := is.New(t)
			pos, err := board.ParseFEN(tc.fen)
			is.NoErr(err)

			with, err := newTestEngine(true).Search(context.Background(), pos, Limits{Depth: tc.depth})
			is.NoErr(err)
			without, err := newTestEngine(false).Search(context.Background(), pos, Limits{Depth: tc.depth})
			is.NoErr(err)

			is.Equal(with.Move, without.Move)
			is.Equal(with.Score, without.Score)
			is.Equal(with.Depth, without.Depth)
		})
	}
}

func TestSearchRespectsMoveTime(t *testing.T) {
	is := is.New(t)
	pos, err := board.ParseFEN(kiwipete)
	is.NoErr(err)

	const budget = 200 * time.Millisecond
	start := time.Now()
	res, err := newTestEngine(true).Search(context.Background(), pos, Limits{MoveTime: budget})
	elapsed := time.Since(start)

	is.NoErr(err)
	is.True(elapsed < budget+150*time.Millisecond)
	is.True(pos.GenerateLegalMoves().Contains(res.Move))
}

func TestSearchRespectsNodeLimit(t *testing.T) {
	is := is.New(t)
	pos, err := board.ParseFEN(kiwipete)
	is.NoErr(err)

	res, err := newTestEngine(true).Search(context.Background(), pos, Limits{Nodes: 5000})
	is.NoErr(err)
	is.True(res.Nodes <= 5000)
	is.True(pos.GenerateLegalMoves().Contains(res.Move))
}

func TestSearchFallsBackWithoutCompletedIteration(t *testing.T) {
	is := is.New(t)
	pos, err := board.ParseFEN(kiwipete)
	is.NoErr(err)

	res, err := newTestEngine(true).Search(context.Background(), pos, Limits{Nodes: 1})
	is.NoErr(err)
	is.Equal(res.Depth, 0)
	is.True(pos.GenerateLegalMoves().Contains(res.Move))
}

func TestSearchStopsOnCancelledContext(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestEngine(true).Search(ctx, board.NewPosition(), Limits{})
	is.NoErr(err)
	is.True(res.Depth < 10)
	is.True(res.Elapsed < time.Second)
	is.True(res.Move != board.NoMove)
}

func TestSearchFindsMateInOne(t *testing.T) {
	is := is.New(t)
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	is.NoErr(err)

	res, err := newTestEngine(true).Search(context.Background(), pos, Limits{Depth: 4})
	is.NoErr(err)
	is.Equal(res.Move.String(), "a1a8")
	is.Equal(res.Score, MateScore-1)
	is.Equal(MateIn(res.Score), 1)
}

func TestSearchWithoutLegalMoves(t *testing.T) {
	fens := map[string]string{
		"checkmate": "R6k/6pp/8/8/8/8/8/K7 b - - 0 1",
		"stalemate": "7k/5Q2/8/8/8/8/8/K7 b - - 0 1",
	}
	for name, fen := range fens {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			pos, err := board.ParseFEN(fen)
			is.NoErr(err)
			_, err = newTestEngine(true).Search(context.Background(), pos, Limits{Depth: 2})
			is.True(errors.Is(err, ErrNoLegalMoves))
		})
	}
}

func TestSearchBareKingsIsDrawn(t *testing.T) {
	is := is.New(t)
	pos, err := board.ParseFEN("8/8/8/4k3/8/8/8/4K3 w - - 0 1")
	is.NoErr(err)

	res, err := newTestEngine(true).Search(context.Background(), pos, Limits{Depth: 3})
	is.NoErr(err)
	is.Equal(res.Score, 0)
}

func TestRepetitionIsDrawn(t *testing.T) {
	is := is.New(t)
	pos := board.NewPosition()
	var history []uint64
	for _, mv := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		history = append(history, pos.Hash())
		_, err := pos.ApplyMove(mv)
		is.NoErr(err)
	}
	is.Equal(pos.Hash(), history[0])
	is.True(isDrawn(pos, history))
	is.True(!isDrawn(pos, history[1:]))
}

func TestSearchReportsEveryIteration(t *testing.T) {
	is := is.New(t)
	eng := newTestEngine(true)
	var depths []int
	eng.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		is.True(len(info.PV) > 0)
	}

	_, err := eng.Search(context.Background(), board.NewPosition(), Limits{Depth: 3})
	is.NoErr(err)
	is.Equal(depths, []int{1, 2, 3})
}

func TestMateIn(t *testing.T) {
	tests := []struct {
		score int
		want  int
		str   string
	}{
		{MateScore - 1, 1, "mate 1"},
		{MateScore - 3, 2, "mate 2"},
		{-MateScore + 2, -1, "mate -1"},
		{-MateScore + 4, -2, "mate -2"},
		{0, 0, "0.00"},
		{135, 0, "1.35"},
		{-42, 0, "-0.42"},
	}
	for _, tt := range tests {
		is := is.New(t)
		is.Equal(MateIn(tt.score), tt.want)
		is.Equal(ScoreString(tt.score), tt.str)
	}
}

func TestQuiescenceCap(t *testing.T) {
	is := is.New(t)
	is.Equal(quiescenceCap(0), maxQuiescencePly)
	is.Equal(quiescenceCap(-1), maxQuiescencePly)
	is.Equal(quiescenceCap(3), 3)
	is.Equal(quiescenceCap(1000), maxQuiescencePly)
	is.Equal(NewEngine(evaluator, Options{QuiescencePly: 2}).qcap, 2)
}
