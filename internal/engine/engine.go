package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
)

// ErrNoLegalMoves is returned by Search when the side to move is mated or
// stalemated.
var ErrNoLegalMoves = errors.New("no legal moves")

// SearchInfo describes one completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // permille of hash table used
}

// Result is the outcome of a search. Move, Score and PV come from the deepest
// completed iteration; Depth is zero if not even depth 1 finished.
type Result struct {
	Move    board.Move
	Score   int
	Depth   int
	Nodes   uint64
	PV      []board.Move
	Elapsed time.Duration
}

// Options configures an Engine.
type Options struct {
	HashMB int  // transposition table size
	UseTT  bool // probe and store the transposition table

	// QuiescencePly caps capture sequences searched past the horizon.
	// Zero means the default of 32.
	QuiescencePly int
}

// DefaultOptions returns a 16 MB table, enabled.
func DefaultOptions() Options {
	return Options{HashMB: 16, UseTT: true}
}

// Engine runs searches. It keeps its transposition table and history
// counters between searches; an Engine must not search concurrently.
type Engine struct {
	eval    Evaluator
	tt      *TranspositionTable
	orderer moveOrderer
	qcap    int

	rootHistory []uint64

	// OnInfo is called after every completed iteration.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine scoring leaves with eval.
func NewEngine(eval Evaluator, opts Options) *Engine {
	e := &Engine{eval: eval, qcap: quiescenceCap(opts.QuiescencePly)}
	if opts.UseTT {
		e.tt = NewTranspositionTable(opts.HashMB)
	}
	return e
}

// SetRootHistory sets the hashes of the positions played before the root,
// oldest first, for repetition detection.
func (e *Engine) SetRootHistory(hashes []uint64) {
	e.rootHistory = append(e.rootHistory[:0], hashes...)
}

// Clear empties the transposition table and forgets move ordering history.
func (e *Engine) Clear() {
	if e.tt != nil {
		e.tt.Clear()
	}
	e.orderer = moveOrderer{}
}

// TT returns the transposition table, nil when disabled.
func (e *Engine) TT() *TranspositionTable {
	return e.tt
}

// Search runs an iterative deepening search from pos, which is left
// untouched. The search stops at limits.Depth, after limits.Nodes nodes, when
// limits.MoveTime has elapsed or when ctx is done, and returns the result of
// the deepest iteration that finished. If no iteration finished the first
// ordered legal move is returned with depth zero.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits Limits) (Result, error) {
	start := time.Now()
	root := pos.Copy()

	moves := root.GenerateLegalMoves()
	if moves.Len() == 0 {
		return Result{}, ErrNoLegalMoves
	}

	if limits.MoveTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.MoveTime)
		defer cancel()
	}

	maxDepth := MaxPly - 1
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, maxDepth)
	}

	e.orderer.clear()
	s := &searcher{
		pos:     root,
		eval:    e.eval,
		tt:      e.tt,
		orderer: &e.orderer,
		budget:  budget{ctx: ctx, nodeLimit: limits.Nodes},
		qcap:    e.qcap,
		history: append(make([]uint64, 0, len(e.rootHistory)+MaxPly), e.rootHistory...),
	}

	orderRootMoves(moves, board.NoMove)
	result := Result{Move: moves.Get(0)}

	for depth := 1; depth <= maxDepth; depth++ {
		move, score, err := s.searchRoot(moves, depth)
		if errors.Is(err, errSearchCancelled) {
			break
		}
		if err != nil {
			return Result{}, err
		}

		result.Move = move
		result.Score = score
		result.Depth = depth
		result.PV = s.pv.line()
		orderRootMoves(moves, move)

		elapsed := time.Since(start)
		log.Debug().
			Int("depth", depth).
			Int("score", score).
			Uint64("nodes", s.nodes).
			Dur("elapsed", elapsed).
			Str("pv", pvString(result.PV)).
			Msg("iteration-complete")

		if e.OnInfo != nil {
			info := SearchInfo{
				Depth: depth,
				Score: score,
				Nodes: s.nodes,
				Time:  elapsed,
				PV:    result.PV,
			}
			if e.tt != nil {
				info.HashFull = e.tt.HashFull()
			}
			e.OnInfo(info)
		}

		// A mate inside the full-width horizon cannot get shorter.
		if MateScore-abs(score) <= depth {
			break
		}
		// Another iteration would not finish in the remaining time.
		if limits.MoveTime > 0 && limits.MoveTime-elapsed < elapsed {
			break
		}
	}

	result.Nodes = s.nodes
	result.Elapsed = time.Since(start)
	return result, nil
}

// orderRootMoves puts best first and the rest by capture value. Killer and
// history scores are left out so that the root order only depends on the
// previous iteration.
func orderRootMoves(moves *board.MoveList, best board.Move) {
	var scores [maxMoveEntries]int
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		switch {
		case m == best:
			scores[i] = hashMoveScore
		case m.IsCapture():
			scores[i] = captureBase + mvvLva(m)
		case m.IsPromotion():
			scores[i] = promotionBase + orderValue[m.Promotion()]
		}
	}
	sortMoves(moves, scores[:])
}

// MateIn returns the number of moves to mate for a mate score: positive when
// the side to move mates, negative when it is mated, zero otherwise.
func MateIn(score int) int {
	switch {
	case score > MateScore-MaxPly:
		return (MateScore - score + 1) / 2
	case score < -MateScore+MaxPly:
		return -(MateScore + score) / 2
	}
	return 0
}

// ScoreString formats a score as pawns or as a mate distance.
func ScoreString(score int) string {
	if score > MateScore-MaxPly || score < -MateScore+MaxPly {
		return fmt.Sprintf("mate %d", MateIn(score))
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func pvString(pv []board.Move) string {
	return strings.Join(lo.Map(pv, func(m board.Move, _ int) string { return m.String() }), " ")
}
