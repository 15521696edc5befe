// Command chesscore runs perft, searches and self-play games from the
// command line, or speaks UCI on stdin/stdout.
//
// Usage:
//
//	chesscore [flags] perft <depth> [fen]
//	chesscore [flags] divide <depth> [fen]
//	chesscore [flags] search [fen]
//	chesscore [flags] selfplay [fen]
//	chesscore [flags] stats
//	chesscore [flags] uci
package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/eval"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

func main() {
	cfg := config.New()
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.LogLevel())
	log.Debug().Interface("config", cfg.AllSettings()).Msg("loaded-config")

	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args[0], args[1:]); err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("command-failed")
		stop()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: chesscore [flags] perft|divide|search|selfplay|stats|uci [args]")
}

func setupLogging(level zerolog.Level) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "perft":
		return runPerft(ctx, cfg, args)
	case "divide":
		return runDivide(ctx, args)
	case "search":
		return runSearch(ctx, cfg, args)
	case "selfplay":
		return runSelfPlay(ctx, cfg, args)
	case "stats":
		return runStats(cfg)
	case "uci":
		u := uci.New(evaluator(), engineOptions(cfg), os.Stdout)
		return u.Run(ctx, os.Stdin)
	}
	usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func evaluator() engine.Evaluator {
	return engine.EvaluatorFunc(eval.Evaluate)
}

func engineOptions(cfg *config.Config) engine.Options {
	return engine.Options{
		HashMB: cfg.GetInt(config.KeyHashMB),
		UseTT:  cfg.GetBool(config.KeyUseTT),
	}
}

func limits(cfg *config.Config) engine.Limits {
	return engine.Limits{
		Depth:    cfg.GetInt(config.KeyDepth),
		MoveTime: cfg.GetDuration(config.KeyMoveTime),
		Nodes:    cfg.GetUint64(config.KeyNodes),
	}
}

// positionArg parses the FEN made of args, or returns the start position.
func positionArg(args []string) (*board.Position, error) {
	if len(args) == 0 {
		return board.NewPosition(), nil
	}
	return board.ParseFEN(strings.Join(args, " "))
}

func depthArg(args []string) (int, []string, error) {
	if len(args) == 0 {
		return 0, nil, errors.New("missing depth")
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 0 {
		return 0, nil, fmt.Errorf("bad depth %q", args[0])
	}
	return depth, args[1:], nil
}

func runPerft(ctx context.Context, cfg *config.Config, args []string) error {
	depth, rest, err := depthArg(args)
	if err != nil {
		return err
	}
	pos, err := positionArg(rest)
	if err != nil {
		return err
	}

	store, err := storage.OpenDefault(cfg.GetString(config.KeyDataDir))
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	nodes, cached, err := store.Perft(ctx, pos, depth)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	fmt.Printf("perft(%d) = %d\n", depth, nodes)
	log.Info().Uint64("nodes", nodes).Bool("cached", cached).Dur("elapsed", elapsed).
		Float64("mnps", float64(nodes)/elapsed.Seconds()/1e6).Msg("perft")
	return nil
}

func runDivide(ctx context.Context, args []string) error {
	depth, rest, err := depthArg(args)
	if err != nil {
		return err
	}
	if depth < 1 {
		return errors.New("divide needs depth >= 1")
	}
	pos, err := positionArg(rest)
	if err != nil {
		return err
	}

	entries, err := board.Divide(ctx, pos, depth)
	if err != nil {
		return err
	}
	var total uint64
	for _, e := range entries {
		fmt.Printf("%s: %d\n", e.Move, e.Nodes)
		total += e.Nodes
	}
	fmt.Printf("\n%d moves, %d nodes\n", len(entries), total)
	return nil
}

func runSearch(ctx context.Context, cfg *config.Config, args []string) error {
	pos, err := positionArg(args)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(evaluator(), engineOptions(cfg))
	eng.OnInfo = func(info engine.SearchInfo) {
		log.Info().
			Int("depth", info.Depth).
			Str("score", engine.ScoreString(info.Score)).
			Uint64("nodes", info.Nodes).
			Dur("time", info.Time).
			Strs("pv", board.MovesToSAN(pos, info.PV)).
			Msg("info")
	}

	res, err := eng.Search(ctx, pos, limits(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("bestmove %s (%s) score %s depth %d nodes %d time %s\n",
		res.Move, pos.SAN(res.Move), engine.ScoreString(res.Score), res.Depth, res.Nodes,
		res.Elapsed.Round(time.Millisecond))
	if len(res.PV) > 0 {
		fmt.Printf("pv %s\n", strings.Join(board.MovesToSAN(pos, res.PV), " "))
	}
	return nil
}

func runSelfPlay(ctx context.Context, cfg *config.Config, args []string) error {
	g := game.NewStandard()
	if len(args) > 0 {
		var err error
		if g, err = game.New(strings.Join(args, " ")); err != nil {
			return err
		}
	}

	store, err := storage.OpenDefault(cfg.GetString(config.KeyDataDir))
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.NewEngine(evaluator(), engineOptions(cfg))
	start := time.Now()
	playErr := game.SelfPlay(ctx, g, eng, limits(cfg), cfg.GetInt(config.KeyMaxMoves))
	fmt.Println(g)

	// interrupted games are kept too
	id, err := store.RecordGame(storage.NewGameRecord(g, time.Since(start)))
	if err != nil {
		return errors.Join(playErr, err)
	}
	o, reason := g.Outcome()
	log.Info().Uint64("id", id).Str("result", o.String()).Stringer("reason", reason).Msg("game-recorded")
	return playErr
}

func runStats(cfg *config.Config) error {
	store, err := storage.OpenDefault(cfg.GetString(config.KeyDataDir))
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.LoadStats()
	if err != nil {
		return err
	}
	fmt.Printf("games:   %d\n", stats.GamesPlayed)
	fmt.Printf("white:   %d\n", stats.WhiteWins)
	fmt.Printf("black:   %d\n", stats.BlackWins)
	fmt.Printf("draws:   %d (%.1f%%)\n", stats.Draws, stats.DrawRate())
	fmt.Printf("avg len: %.1f plies\n", stats.AveragePlies())
	for _, reason := range slices.Sorted(maps.Keys(stats.ByReason)) {
		fmt.Printf("  %-22s %d\n", reason, stats.ByReason[reason])
	}
	return nil
}
