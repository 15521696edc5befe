package uci

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/eval"
)

func run(t *testing.T, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	u := New(engine.EvaluatorFunc(eval.Evaluate), engine.Options{HashMB: 4, UseTT: true}, &out)
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	if err := u.Run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestHandshake(t *testing.T) {
	is := is.New(t)
	out := run(t, "uci", "isready", "quit")
	is.True(strings.Contains(out, "id name chesscore"))
	is.True(strings.Contains(out, "option name Hash"))
	is.True(strings.Contains(out, "uciok"))
	is.True(strings.HasSuffix(out, "readyok\n"))
}

func TestGoDepth(t *testing.T) {
	is := is.New(t)
	out := run(t, "position startpos moves e2e4 e7e5", "go depth 2", "isready", "quit")
	is.True(strings.Contains(out, "info depth 1 "))
	is.True(strings.Contains(out, "info depth 2 "))

	// bestmove comes before readyok since isready waits for the search
	best := strings.Index(out, "bestmove ")
	ready := strings.Index(out, "readyok")
	is.True(best >= 0 && best < ready)

	mv := strings.Fields(out[best:])[1]
	pos := board.NewPosition()
	_, err := pos.ApplyMove("e2e4")
	is.NoErr(err)
	_, err = pos.ApplyMove("e7e5")
	is.NoErr(err)
	_, err = pos.ParseMove(mv)
	is.NoErr(err) // bestmove is legal
}

func TestGoWithoutLegalMoves(t *testing.T) {
	is := is.New(t)
	out := run(t, "position fen R6k/6pp/8/8/8/8/8/K7 b - - 0 1", "go depth 2", "isready")
	is.True(strings.Contains(out, "bestmove 0000"))
}

func TestMateScoreReported(t *testing.T) {
	is := is.New(t)
	out := run(t, "position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "go depth 3", "isready")
	is.True(strings.Contains(out, "score mate 1"))
	is.True(strings.Contains(out, "bestmove a1a8"))
}

func TestStopInfiniteSearch(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	u := New(engine.EvaluatorFunc(eval.Evaluate), engine.DefaultOptions(), &out)
	ctx := context.Background()

	u.handle(ctx, "position startpos")
	u.handle(ctx, "go infinite")
	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	u.handle(ctx, "stop")
	is.True(time.Since(start) < time.Second)
	is.True(strings.Contains(out.String(), "bestmove "))
}

func TestPerft(t *testing.T) {
	is := is.New(t)
	out := run(t, "position startpos", "perft 2")
	is.True(strings.Contains(out, "e2e4: 20"))
	is.True(strings.Contains(out, "Nodes searched: 400"))
}

func TestPerftRejectsBadDepth(t *testing.T) {
	for _, arg := range []string{"0", "-2", "deep"} {
		t.Run(arg, func(t *testing.T) {
			is := is.New(t)
			out := run(t, "position startpos", "perft "+arg)
			is.True(strings.Contains(out, "info string perft needs a depth"))
			is.True(!strings.Contains(out, "Nodes searched"))
		})
	}
}

func TestReadLinesStopsWhenDone(t *testing.T) {
	is := is.New(t)
	lines := make(chan string) // never read
	done := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		finished <- readLines(strings.NewReader("isready\nisready\n"), lines, done)
	}()

	close(done)
	select {
	case err := <-finished:
		is.NoErr(err)
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after done")
	}
}

func TestRunReturnsAfterQuitWithPendingInput(t *testing.T) {
	is := is.New(t)
	out := run(t, "quit", "uci", "isready")
	is.Equal(out, "") // nothing after quit is handled
}

func TestBadInput(t *testing.T) {
	is := is.New(t)
	out := run(t,
		"position fen not-a-fen",
		"position startpos moves e2e5",
		"setoption name Hash value zero",
		"setoption name Contempt value 10",
		"frobnicate",
	)
	is.Equal(strings.Count(out, "info string"), 5)
}

func TestPositionKeepsLastValidGame(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	u := New(engine.EvaluatorFunc(eval.Evaluate), engine.Options{HashMB: 1}, &out)
	ctx := context.Background()

	u.handle(ctx, "position startpos moves e2e4")
	u.handle(ctx, "position startpos moves e2e4 e7e5 e1e3")
	is.Equal(u.game.Plies(), 1)
	is.Equal(len(u.game.Hashes()), 1)
}

func TestSetOption(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	u := New(engine.EvaluatorFunc(eval.Evaluate), engine.DefaultOptions(), &out)
	ctx := context.Background()

	u.handle(ctx, "setoption name Hash value 8")
	is.Equal(u.opts.HashMB, 8)
	u.handle(ctx, "setoption name UseTT value false")
	is.True(!u.opts.UseTT)
	is.True(u.eng.TT() == nil)
}

func TestParseGo(t *testing.T) {
	tests := []struct {
		args string
		want GoOptions
	}{
		{"depth 6", GoOptions{Depth: 6}},
		{"nodes 5000 movetime 250", GoOptions{Nodes: 5000, MoveTime: 250 * time.Millisecond}},
		{"infinite", GoOptions{Infinite: true}},
		{"wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20", GoOptions{
			WTime: time.Minute, BTime: 30 * time.Second, WInc: time.Second, BInc: 500 * time.Millisecond, MovesToGo: 20,
		}},
		{"ponder depth 3", GoOptions{Depth: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			is := is.New(t)
			is.Equal(parseGo(strings.Fields(tt.args)), tt.want)
		})
	}
}

func TestLimitsFromClock(t *testing.T) {
	is := is.New(t)
	opts := GoOptions{WTime: time.Minute, BTime: 30 * time.Second, WInc: time.Second, MovesToGo: 20}

	white := opts.limits(board.White)
	is.Equal(white.MoveTime, 3*time.Second+900*time.Millisecond)
	black := opts.limits(board.Black)
	is.Equal(black.MoveTime, 1500*time.Millisecond)

	is.Equal(GoOptions{Infinite: true, Depth: 4}.limits(board.White), engine.Limits{})
	is.Equal(GoOptions{MoveTime: time.Second, WTime: time.Minute}.limits(board.White).MoveTime, time.Second)
}

func TestAllocateTimeKeepsReserve(t *testing.T) {
	is := is.New(t)
	is.Equal(allocateTime(100*time.Millisecond, time.Second, 1), 90*time.Millisecond)
	is.Equal(allocateTime(time.Millisecond, 0, 0), 10*time.Millisecond)
}
