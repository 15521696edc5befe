package engine

import "github.com/hailam/chesscore/internal/board"

// Minimax scores pos to the given depth without pruning, transposition table
// or move ordering. Leaves, mates and draws are scored exactly as Search
// scores them, so for the same position and depth both return the same
// value when both use the same quiescencePly (see Options). Exponential,
// in the quiescence part too; meant for checking the real search on small
// trees with a short quiescence cap.
func Minimax(pos *board.Position, depth, quiescencePly int, eval Evaluator) int {
	mm := &minimaxer{pos: pos.Copy(), eval: eval, qcap: quiescenceCap(quiescencePly)}
	return mm.negamax(depth, 0)
}

type minimaxer struct {
	pos     *board.Position
	eval    Evaluator
	qcap    int
	history []uint64
}

func (mm *minimaxer) evaluate() int {
	return clampEval(mm.eval.Evaluate(mm.pos))
}

func (mm *minimaxer) negamax(depth, ply int) int {
	if depth <= 0 {
		return mm.quiescence(ply, 0)
	}
	if ply >= MaxPly-1 {
		return mm.evaluate()
	}
	if ply > 0 && isDrawn(mm.pos, mm.history) {
		return 0
	}

	moves := mm.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if mm.pos.InCheck() {
			return -MateScore + ply
		}
		return 0
	}

	best := -Infinity
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		mm.history = append(mm.history, mm.pos.Hash())
		undo := mm.pos.MakeMove(m)
		best = max(best, -mm.negamax(depth-1, ply+1))
		mm.pos.UnmakeMove(m, undo)
		mm.history = mm.history[:len(mm.history)-1]
	}
	return best
}

func (mm *minimaxer) quiescence(ply, qply int) int {
	if ply >= MaxPly-1 || qply >= mm.qcap {
		return mm.evaluate()
	}

	var moves *board.MoveList
	best := -Infinity
	if mm.pos.InCheck() {
		moves = mm.pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		best = mm.evaluate()
		moves = mm.pos.GenerateCaptures()
	}

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := mm.pos.MakeMove(m)
		best = max(best, -mm.quiescence(ply+1, qply+1))
		mm.pos.UnmakeMove(m, undo)
	}
	return best
}

// BestMoves returns every root move whose Minimax score equals the best.
func BestMoves(pos *board.Position, depth, quiescencePly int, eval Evaluator) ([]board.Move, int) {
	mm := &minimaxer{pos: pos.Copy(), eval: eval, qcap: quiescenceCap(quiescencePly)}
	moves := mm.pos.GenerateLegalMoves()
	best := -Infinity
	var bestMoves []board.Move
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		mm.history = append(mm.history, mm.pos.Hash())
		undo := mm.pos.MakeMove(m)
		score := -mm.negamax(depth-1, 1)
		mm.pos.UnmakeMove(m, undo)
		mm.history = mm.history[:0]

		switch {
		case score > best:
			best = score
			bestMoves = []board.Move{m}
		case score == best:
			bestMoves = append(bestMoves, m)
		}
	}
	return bestMoves, best
}
