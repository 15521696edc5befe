package engine

import "github.com/hailam/chesscore/internal/board"

// Evaluator scores a quiet position in centipawns from the point of view of
// the side to move. Scores must stay well inside ±MateScore.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(pos *board.Position) int

// Evaluate calls f(pos).
func (f EvaluatorFunc) Evaluate(pos *board.Position) int {
	return f(pos)
}

// maxEval bounds static scores so they never look like mates.
const maxEval = MateScore - 2*MaxPly

func clampEval(score int) int {
	if score > maxEval {
		return maxEval
	}
	if score < -maxEval {
		return -maxEval
	}
	return score
}
