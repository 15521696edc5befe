package engine

import "github.com/hailam/chesscore/internal/board"

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	maxQuiescencePly = 32
)

// quiescenceCap returns the capture-sequence length limit for a requested
// value; zero or less means maxQuiescencePly.
func quiescenceCap(n int) int {
	if n <= 0 {
		return maxQuiescencePly
	}
	return min(n, maxQuiescencePly)
}

// pvTable is a triangular principal variation table.
type pvTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

func (pv *pvTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	for i := ply + 1; i < pv.length[ply+1]; i++ {
		pv.moves[ply][i] = pv.moves[ply+1][i]
	}
	pv.length[ply] = max(pv.length[ply+1], ply+1)
}

func (pv *pvTable) line() []board.Move {
	line := make([]board.Move, pv.length[0])
	copy(line, pv.moves[0][:pv.length[0]])
	return line
}

// searcher holds the state of one search. Cancellation travels back up the
// tree as errSearchCancelled; every frame takes its move back before
// returning, so the position is restored on every path.
type searcher struct {
	pos     *board.Position
	eval    Evaluator
	tt      *TranspositionTable // nil when disabled
	orderer *moveOrderer
	budget  budget
	qcap    int // quiescence plies

	nodes   uint64
	history []uint64 // hashes of the game and of the current path, root excluded
	pv      pvTable
}

func (s *searcher) evaluate() int {
	return clampEval(s.eval.Evaluate(s.pos))
}

func (s *searcher) makeMove(m board.Move) board.Undo {
	s.history = append(s.history, s.pos.Hash())
	return s.pos.MakeMove(m)
}

func (s *searcher) unmakeMove(m board.Move, undo board.Undo) {
	s.pos.UnmakeMove(m, undo)
	s.history = s.history[:len(s.history)-1]
}

// isDraw reports fifty-move, insufficient material and repetition draws.
// A single repetition inside the game or the search path counts.
func (s *searcher) isDraw() bool {
	return isDrawn(s.pos, s.history)
}

func isDrawn(pos *board.Position, history []uint64) bool {
	if pos.IsFiftyMoveDraw() || pos.IsInsufficientMaterial() {
		return true
	}
	hash := pos.Hash()
	// Positions before the last irreversible move cannot repeat.
	limit := max(len(history)-pos.HalfMoveClock(), 0)
	for i := len(history) - 2; i >= limit; i -= 2 {
		if history[i] == hash {
			return true
		}
	}
	return false
}

// searchRoot searches every root move in the given order with a full window.
func (s *searcher) searchRoot(moves *board.MoveList, depth int) (board.Move, int, error) {
	alpha, beta := -Infinity, Infinity
	bestMove := board.NoMove
	s.pv.length[0] = 0

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := s.makeMove(m)
		score, err := s.negamax(depth-1, 1, -beta, -alpha)
		s.unmakeMove(m, undo)
		if err != nil {
			return board.NoMove, 0, err
		}
		score = -score

		if score > alpha || bestMove == board.NoMove {
			alpha = max(alpha, score)
			bestMove = m
			s.pv.update(0, m)
		}
	}
	return bestMove, alpha, nil
}

// negamax is a fail-hard alpha-beta search. Scores are from the point of view
// of the side to move.
func (s *searcher) negamax(depth, ply, alpha, beta int) (int, error) {
	s.pv.length[ply] = ply
	if depth <= 0 {
		return s.quiescence(ply, 0, alpha, beta)
	}

	s.nodes++
	if s.budget.spend(s.nodes) {
		return 0, errSearchCancelled
	}
	if ply >= MaxPly-1 {
		return s.evaluate(), nil
	}
	if s.isDraw() {
		return 0, nil
	}

	hash := s.pos.Hash()
	hashMove := board.NoMove
	if s.tt != nil {
		if entry, ok := s.tt.Probe(hash); ok {
			hashMove = entry.BestMove
			// Deeper entries only order moves; cutting off with them would
			// make the score depend on what the table happened to hold.
			if int(entry.Depth) == depth {
				score := scoreFromTT(int(entry.Score), ply)
				switch {
				case entry.Bound == BoundExact,
					entry.Bound == BoundLower && score >= beta,
					entry.Bound == BoundUpper && score <= alpha:
					return min(max(score, alpha), beta), nil
				}
			}
		}
	}

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if s.pos.InCheck() {
			return -MateScore + ply, nil
		}
		return 0, nil
	}

	var scores [maxMoveEntries]int
	us := s.pos.SideToMove()
	s.orderer.scoreMoves(moves, scores[:], ply, us, hashMove)

	alphaOrig := alpha
	bestMove := board.NoMove
	for i := 0; i < moves.Len(); i++ {
		pickMove(moves, scores[:], i)
		m := moves.Get(i)

		undo := s.makeMove(m)
		score, err := s.negamax(depth-1, ply+1, -beta, -alpha)
		s.unmakeMove(m, undo)
		if err != nil {
			return 0, err
		}
		score = -score

		if score >= beta {
			s.orderer.cutoff(m, us, ply, depth)
			s.store(hash, m, beta, depth, ply, BoundLower)
			return beta, nil
		}
		if score > alpha {
			alpha = score
			bestMove = m
			s.pv.update(ply, m)
		}
	}

	bound := BoundExact
	if alpha == alphaOrig {
		bound = BoundUpper
	}
	s.store(hash, bestMove, alpha, depth, ply, bound)
	return alpha, nil
}

func (s *searcher) store(hash uint64, m board.Move, score, depth, ply int, bound Bound) {
	if s.tt == nil {
		return
	}
	s.tt.Store(hash, TTEntry{
		BestMove: m,
		Score:    int16(scoreToTT(score, ply)),
		Depth:    int8(min(depth, 127)),
		Bound:    bound,
	})
}

// quiescence resolves captures and promotions until the position is quiet.
// In check every evasion is searched and there is no stand-pat.
func (s *searcher) quiescence(ply, qply, alpha, beta int) (int, error) {
	s.nodes++
	if s.budget.spend(s.nodes) {
		return 0, errSearchCancelled
	}
	if ply >= MaxPly-1 || qply >= s.qcap {
		return s.evaluate(), nil
	}

	inCheck := s.pos.InCheck()
	var moves *board.MoveList
	if inCheck {
		moves = s.pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			return -MateScore + ply, nil
		}
	} else {
		standPat := s.evaluate()
		if standPat >= beta {
			return beta, nil
		}
		alpha = max(alpha, standPat)
		moves = s.pos.GenerateCaptures()
	}

	var scores [maxMoveEntries]int
	s.orderer.scoreMoves(moves, scores[:], MaxPly, s.pos.SideToMove(), board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		pickMove(moves, scores[:], i)
		m := moves.Get(i)

		undo := s.makeMove(m)
		score, err := s.quiescence(ply+1, qply+1, -beta, -alpha)
		s.unmakeMove(m, undo)
		if err != nil {
			return 0, err
		}
		score = -score

		if score >= beta {
			return beta, nil
		}
		alpha = max(alpha, score)
	}
	return alpha, nil
}
