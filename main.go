// Minimax - one-shot alpha-beta search from the command line
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/minimax/internal/analysis"
	"github.com/hailam/minimax/internal/chess"
	"github.com/hailam/minimax/internal/engine"
	"github.com/hailam/minimax/internal/gametree"
	"github.com/hailam/minimax/internal/storage"
	"github.com/hailam/minimax/internal/toy"
)

var (
	fenFlag     = flag.String("fen", "", "position to search (default: start position)")
	movesFlag   = flag.String("moves", "", "space separated UCI moves played from -fen first")
	depthFlag   = flag.Int("depth", -1, "search depth in plies, 0 evaluates the root (default: stored preference)")
	toyFlag     = flag.Bool("toy", false, "search the demonstration bitboard instead of chess")
	treeFlag    = flag.String("tree", "", "search a game tree read from a JSON file")
	minFlag     = flag.Bool("min", false, "with -tree or -toy: the root minimizes")
	batchFlag   = flag.String("batch", "", "search every FEN listed in a file")
	historyFlag = flag.Int("history", 0, "print the last n journaled searches and exit")
	dbFlag      = flag.String("db", "", "database directory (default: platform data dir)")
	noJournal   = flag.Bool("nojournal", false, "do not open the database")
	logFlag     = flag.String("log", "", "log level (default: stored preference)")
)

func main() {
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error().Err(err).Msg("minimax")
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger) error {
	var db *storage.Storage
	prefs := storage.DefaultPreferences()
	if !*noJournal {
		var err error
		if *dbFlag != "" {
			db, err = storage.Open(*dbFlag)
		} else {
			db, err = storage.NewStorage()
		}
		if err != nil {
			return err
		}
		defer db.Close()

		if prefs, err = db.LoadPreferences(); err != nil {
			return errors.Wrap(err, "load preferences")
		}
	}

	level := prefs.LogLevel
	if *logFlag != "" {
		level = *logFlag
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	log = log.Level(lvl)

	if *historyFlag > 0 {
		if db == nil {
			return errors.New("-history needs the database")
		}
		return printHistory(db, *historyFlag)
	}

	depth := searchDepth(*depthFlag, prefs.DefaultDepth)

	side := engine.Maximizing
	if *minFlag {
		side = engine.Minimizing
	}

	var records []storage.Record
	switch {
	case *batchFlag != "":
		records, err = runBatch(ctx, log, *batchFlag, depth)
	case *treeFlag != "":
		records, err = runTree(ctx, log, *treeFlag, engine.SearchLimits{Depth: depth, Side: side})
	case *toyFlag:
		var b toy.Board
		var info engine.SearchInfo[toy.Move]
		info, err = search[string, toy.Move](ctx, log, &b, engine.SearchLimits{Depth: depth, Side: side})
		records = []storage.Record{record("toy", b.Identity(), info)}
	default:
		records, err = runChess(ctx, log, depth)
	}
	if err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		fmt.Printf("%d %s\n", r.Score, r.Move)
		if db != nil {
			if err := db.SaveRecord(r); err != nil {
				return errors.Wrap(err, "journal search")
			}
		}
	}

	if db != nil {
		if depth > 0 {
			prefs.DefaultDepth = depth
		}
		return db.SavePreferences(prefs)
	}
	return nil
}

// searchDepth picks the -depth flag when it was given, the stored default
// otherwise. A negative flag means unset.
func searchDepth(flagDepth, stored int) int {
	if flagDepth >= 0 {
		return flagDepth
	}
	return stored
}

func search[K comparable, M engine.Move](ctx context.Context, log zerolog.Logger, pos engine.Position[K, M], limits engine.SearchLimits) (engine.SearchInfo[M], error) {
	eng := engine.NewEngine[K, M](engine.WithLogger(log))
	return eng.Search(ctx, pos, limits)
}

func record[M engine.Move](source, position string, info engine.SearchInfo[M]) storage.Record {
	return storage.Record{
		Source:   source,
		Position: position,
		Depth:    info.Depth,
		Score:    info.Score,
		Move:     info.BestMove(),
		Nodes:    info.Nodes,
		Duration: info.Time,
	}
}

func runChess(ctx context.Context, log zerolog.Logger, depth int) ([]storage.Record, error) {
	pos := chess.NewPosition()
	if *fenFlag != "" {
		var err error
		if pos, err = chess.ParseFEN(*fenFlag); err != nil {
			return nil, err
		}
	}
	if err := pos.Play(strings.Fields(*movesFlag)...); err != nil {
		return nil, err
	}

	info, err := search[uint64, chess.Move](ctx, log, pos, engine.SearchLimits{Depth: depth, Side: pos.Side()})
	if err != nil {
		return nil, err
	}
	return []storage.Record{record("chess", pos.FEN(), info)}, nil
}

func runTree(ctx context.Context, log zerolog.Logger, path string, limits engine.SearchLimits) ([]storage.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := gametree.Decode(f)
	if err != nil {
		return nil, err
	}
	info, err := search[string, gametree.Move](ctx, log, gametree.NewPosition(root), limits)
	if err != nil {
		return nil, err
	}
	return []storage.Record{record("tree", path, info)}, nil
}

func runBatch(ctx context.Context, log zerolog.Logger, path string, depth int) ([]storage.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	results, err := analysis.Run(ctx, analysis.ParseLines(string(data)), analysis.Config{Depth: depth, Logger: log})
	if err != nil {
		return nil, err
	}

	records := make([]storage.Record, len(results))
	for i, r := range results {
		records[i] = record("chess", r.FEN, r.Info)
	}
	return records, nil
}

func printHistory(db *storage.Storage, n int) error {
	recs, err := db.History(n)
	if err != nil {
		return err
	}
	for _, r := range recs {
		move := r.Move
		if move == "" {
			move = "-"
		}
		fmt.Printf("%s  %-5s depth %-2d %8s %-6s %8d nodes  %s\n",
			r.At.Local().Format(time.DateTime), r.Source, r.Depth,
			engine.ScoreToString(r.Score), move, r.Nodes, r.Position)
	}
	return nil
}
