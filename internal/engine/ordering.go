package engine

import "github.com/hailam/chesscore/internal/board"

// Move ordering priorities
const (
	hashMoveScore  = 1 << 30 // PV or TT move
	captureBase    = 1 << 20
	promotionBase  = 1 << 19
	killerScore1   = 1 << 18
	killerScore2   = killerScore1 - 1
	maxHistory     = 1 << 16
	maxMoveEntries = 256
)

// orderValue ranks pieces for MVV-LVA; the king is never a victim.
var orderValue = [7]int{1, 3, 3, 5, 9, 10, 0}

// mvvLva scores a capture: most valuable victim first, then least valuable
// attacker. Promotions add the value of the new piece.
func mvvLva(m board.Move) int {
	score := 5*orderValue[m.Captured()] - orderValue[m.Piece()]
	if m.IsPromotion() {
		score += orderValue[m.Promotion()]
	}
	return score
}

// moveOrderer keeps killer moves and history counters for one search.
type moveOrderer struct {
	killers [MaxPly][2]board.Move
	history [2][64][64]int
}

func (mo *moveOrderer) clear() {
	mo.killers = [MaxPly][2]board.Move{}
	for c := range mo.history {
		for from := range mo.history[c] {
			for to := range mo.history[c][from] {
				mo.history[c][from][to] /= 2
			}
		}
	}
}

// scoreMoves fills scores for moves: hashMove first, then captures by
// MVV-LVA, quiet promotions, killers, and quiet moves by history.
func (mo *moveOrderer) scoreMoves(moves *board.MoveList, scores []int, ply int, side board.Color, hashMove board.Move) {
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		switch {
		case m == hashMove:
			scores[i] = hashMoveScore
		case m.IsCapture():
			scores[i] = captureBase + mvvLva(m)
		case m.IsPromotion():
			scores[i] = promotionBase + orderValue[m.Promotion()]
		case ply < MaxPly && m == mo.killers[ply][0]:
			scores[i] = killerScore1
		case ply < MaxPly && m == mo.killers[ply][1]:
			scores[i] = killerScore2
		default:
			scores[i] = mo.history[side][m.From()][m.To()]
		}
	}
}

// pickMove moves the best scored move at or after index to index.
func pickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for i := index + 1; i < moves.Len(); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// sortMoves orders the whole list by descending score, stable for ties.
func sortMoves(moves *board.MoveList, scores []int) {
	for i := 1; i < moves.Len(); i++ {
		for j := i; j > 0 && scores[j] > scores[j-1]; j-- {
			moves.Swap(j, j-1)
			scores[j], scores[j-1] = scores[j-1], scores[j]
		}
	}
}

// cutoff records a quiet move that refuted its parent.
func (mo *moveOrderer) cutoff(m board.Move, side board.Color, ply, depth int) {
	if !m.IsQuiet() || ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] != m {
		mo.killers[ply][1] = mo.killers[ply][0]
		mo.killers[ply][0] = m
	}
	h := &mo.history[side][m.From()][m.To()]
	*h += depth * depth
	if *h > maxHistory {
		for c := range mo.history {
			for from := range mo.history[c] {
				for to := range mo.history[c][from] {
					mo.history[c][from][to] /= 2
				}
			}
		}
	}
}
