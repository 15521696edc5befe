// Package uci drives the engine over the Universal Chess Interface text
// protocol.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
)

const (
	engineName   = "chesscore"
	engineAuthor = "hailam"
)

// UCI implements the protocol loop. Commands are read from one reader and
// replies written to one writer; searches run in their own goroutine.
type UCI struct {
	eval engine.Evaluator
	opts engine.Options
	eng  *engine.Engine
	game *game.Game

	outMu sync.Mutex
	out   io.Writer

	cancel     context.CancelFunc
	searchDone chan struct{}
	infinite   bool
}

// New creates a protocol handler writing to out.
func New(eval engine.Evaluator, opts engine.Options, out io.Writer) *UCI {
	return &UCI{
		eval: eval,
		opts: opts,
		eng:  engine.NewEngine(eval, opts),
		game: game.NewStandard(),
		out:  out,
	}
}

func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run processes commands until "quit", end of input or ctx is done. A
// running search is stopped before Run returns.
func (u *UCI) Run(ctx context.Context, in io.Reader) error {
	defer u.stop()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanErr <- readLines(in, lines, done)
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// a finite search still gets to report its move
				if !u.infinite {
					u.wait()
				}
				return <-scanErr
			}
			if quit := u.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

// readLines sends the lines of in until it is exhausted or done is closed.
func readLines(in io.Reader, lines chan<- string, done <-chan struct{}) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-done:
			return nil
		}
	}
	return scanner.Err()
}

// handle runs one command and reports whether the loop should end.
func (u *UCI) handle(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]
	log.Debug().Str("cmd", cmd).Strs("args", args).Msg("uci-command")

	switch cmd {
	case "uci":
		u.send("id name %s", engineName)
		u.send("id author %s", engineAuthor)
		u.send("option name Hash type spin default %d min 1 max 4096", u.opts.HashMB)
		u.send("option name UseTT type check default %t", u.opts.UseTT)
		u.send("uciok")
	case "isready":
		if !u.infinite {
			u.wait()
		}
		u.send("readyok")
	case "ucinewgame":
		u.stop()
		u.eng.Clear()
		u.game = game.NewStandard()
	case "position":
		u.stop()
		if err := u.setPosition(args); err != nil {
			u.send("info string %v", err)
		}
	case "go":
		u.stop()
		u.goSearch(ctx, parseGo(args))
	case "stop":
		u.stop()
	case "setoption":
		u.stop()
		u.setOption(args)
	case "d":
		u.send("%s", u.game.Position())
		u.send("Fen: %s", u.game.Position().ToFEN())
		u.send("Key: %016x", u.game.Position().Hash())
	case "perft":
		u.stop()
		u.perft(ctx, args)
	case "quit":
		return true
	default:
		u.send("info string unknown command %s", cmd)
	}
	return false
}

// setPosition handles
//
//	position startpos [moves ...]
//	position fen <fen> [moves ...]
func (u *UCI) setPosition(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("position: missing argument")
	}
	movesAt := lo.IndexOf(args, "moves")
	if movesAt < 0 {
		movesAt = len(args)
	}

	var g *game.Game
	switch args[0] {
	case "startpos":
		g = game.NewStandard()
	case "fen":
		var err error
		if g, err = game.New(strings.Join(args[1:movesAt], " ")); err != nil {
			return err
		}
	default:
		return fmt.Errorf("position: unknown argument %q", args[0])
	}

	for _, mv := range args[min(movesAt+1, len(args)):] {
		if _, err := g.Apply(mv); err != nil {
			return err
		}
	}
	u.game = g
	return nil
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

func parseGo(args []string) GoOptions {
	var opts GoOptions
	ms := func(s string) time.Duration {
		n, _ := strconv.Atoi(s)
		return time.Duration(n) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		if args[i] == "infinite" {
			opts.Infinite = true
			continue
		}
		if i+1 >= len(args) {
			break
		}
		val := args[i+1]
		switch args[i] {
		case "depth":
			opts.Depth, _ = strconv.Atoi(val)
		case "nodes":
			opts.Nodes, _ = strconv.ParseUint(val, 10, 64)
		case "movetime":
			opts.MoveTime = ms(val)
		case "wtime":
			opts.WTime = ms(val)
		case "btime":
			opts.BTime = ms(val)
		case "winc":
			opts.WInc = ms(val)
		case "binc":
			opts.BInc = ms(val)
		case "movestogo":
			opts.MovesToGo, _ = strconv.Atoi(val)
		default:
			continue
		}
		i++
	}
	return opts
}

// limits converts the go options into search limits for the side to move.
func (opts GoOptions) limits(us board.Color) engine.Limits {
	if opts.Infinite {
		return engine.Limits{}
	}
	limits := engine.Limits{Depth: opts.Depth, Nodes: opts.Nodes, MoveTime: opts.MoveTime}
	if limits.MoveTime == 0 {
		left, inc := opts.WTime, opts.WInc
		if us == board.Black {
			left, inc = opts.BTime, opts.BInc
		}
		if left > 0 {
			limits.MoveTime = allocateTime(left, inc, opts.MovesToGo)
		}
	}
	return limits
}

// allocateTime splits the remaining clock over the expected number of moves
// and adds most of the increment, keeping a reserve.
func allocateTime(left, inc time.Duration, movesToGo int) time.Duration {
	if movesToGo <= 0 {
		movesToGo = 30
	}
	t := left/time.Duration(movesToGo) + inc*9/10
	t = min(t, left*9/10)
	return max(t, 10*time.Millisecond)
}

func (u *UCI) goSearch(ctx context.Context, opts GoOptions) {
	pos := u.game.Position()
	limits := opts.limits(pos.SideToMove())
	u.eng.SetRootHistory(u.game.Hashes())
	u.eng.OnInfo = func(info engine.SearchInfo) {
		u.send("info depth %d score %s nodes %d time %d hashfull %d pv %s",
			info.Depth, uciScore(info.Score), info.Nodes, info.Time.Milliseconds(), info.HashFull,
			strings.Join(lo.Map(info.PV, func(m board.Move, _ int) string { return m.String() }), " "))
	}

	ctx, cancel := context.WithCancel(ctx)
	u.cancel = cancel
	u.infinite = opts.Infinite
	u.searchDone = make(chan struct{})
	done := u.searchDone

	go func() {
		defer close(done)
		res, err := u.eng.Search(ctx, pos, limits)
		if err != nil {
			// mated or stalemated
			u.send("bestmove 0000")
			return
		}
		u.send("bestmove %s", res.Move)
	}()
}

// stop cancels a running search and waits for its bestmove.
func (u *UCI) stop() {
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
	u.wait()
}

func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

func (u *UCI) setOption(args []string) {
	nameAt, valueAt := lo.IndexOf(args, "name"), lo.IndexOf(args, "value")
	if nameAt < 0 || valueAt < nameAt {
		u.send("info string malformed setoption")
		return
	}
	name := strings.Join(args[nameAt+1:valueAt], " ")
	value := strings.Join(args[valueAt+1:], " ")

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			u.send("info string bad Hash value %q", value)
			return
		}
		u.opts.HashMB = mb
	case "usett":
		u.opts.UseTT = value == "true"
	default:
		u.send("info string unknown option %s", name)
		return
	}
	u.eng = engine.NewEngine(u.eval, u.opts)
}

func (u *UCI) perft(ctx context.Context, args []string) {
	depth := 1
	if len(args) > 0 {
		var err error
		if depth, err = strconv.Atoi(args[0]); err != nil || depth < 1 {
			u.send("info string perft needs a depth of at least 1")
			return
		}
	}
	start := time.Now()
	entries, err := board.Divide(ctx, u.game.Position(), depth)
	if err != nil {
		u.send("info string perft: %v", err)
		return
	}
	var total uint64
	for _, e := range entries {
		u.send("%s: %d", e.Move, e.Nodes)
		total += e.Nodes
	}
	u.send("")
	u.send("Nodes searched: %d (%s)", total, time.Since(start).Round(time.Millisecond))
}

// uciScore formats a score as "cp N" or "mate N".
func uciScore(score int) string {
	if n := engine.MateIn(score); n != 0 {
		return fmt.Sprintf("mate %d", n)
	}
	return fmt.Sprintf("cp %d", score)
}
