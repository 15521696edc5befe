package board

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	ml := &MoveList{}
	p.generate(ml, false)

	var nodes uint64
	for _, m := range ml.Slice() {
		undo := p.MakeMove(m)
		if !p.leavesKingAttacked() {
			if depth == 1 {
				nodes++
			} else {
				nodes += Perft(p, depth-1)
			}
		}
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// DivideEntry is the perft count below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide runs perft to depth-1 below every legal root move, one goroutine per
// move on its own copy of the position. Entries are sorted by move text.
func Divide(ctx context.Context, p *Position, depth int) ([]DivideEntry, error) {
	moves := p.GenerateLegalMoves().Slice()
	entries := make([]DivideEntry, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, m := range moves {
		child := p.Copy()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child.MakeMove(m)
			entries[i] = DivideEntry{Move: m, Nodes: Perft(child, depth-1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Move.String() < entries[j].Move.String()
	})
	return entries, nil
}
