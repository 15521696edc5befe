package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/engine"
)

// DefaultMaxPlies caps self-play games.
const DefaultMaxPlies = 200

// SelfPlay lets eng play both sides of g until the game ends, the ply limit
// is reached or ctx is done. Every move is searched with limits.
func SelfPlay(ctx context.Context, g *Game, eng *engine.Engine, limits engine.Limits, maxPlies int) error {
	if maxPlies <= 0 {
		maxPlies = DefaultMaxPlies
	}
	g.SetMoveLimit(maxPlies)

	for {
		if o, reason := g.Outcome(); o != Ongoing {
			log.Info().Str("result", o.String()).Stringer("reason", reason).Int("plies", g.Plies()).Msg("game-over")
			return nil
		}
		eng.SetRootHistory(g.hashes)
		start := time.Now()
		res, err := eng.Search(ctx, g.pos, limits)
		if err != nil {
			return err
		}
		// an interrupted search is not a move choice
		if err := ctx.Err(); err != nil {
			return err
		}
		san := g.pos.SAN(res.Move)
		if err := g.Play(res.Move); err != nil {
			return err
		}
		log.Debug().
			Int("ply", g.Plies()).
			Str("move", san).
			Str("score", engine.ScoreString(res.Score)).
			Int("depth", res.Depth).
			Dur("took", time.Since(start)).
			Msg("self-play-move")
	}
}
