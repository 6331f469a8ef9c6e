// Package analysis searches many chess positions at once. Every position
// gets its own engine, and with it its own transposition table, so results
// do not depend on which other positions are in the batch.
package analysis

import (
	"context"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/minimax/internal/chess"
	"github.com/hailam/minimax/internal/engine"
)

// Result is the search outcome for one input position.
type Result struct {
	FEN  string
	Info engine.SearchInfo[chess.Move]
}

// Config controls a batch run.
type Config struct {
	Depth   int
	Workers int // 0 means GOMAXPROCS
	Logger  zerolog.Logger
}

// ParseLines returns the non-empty, non-comment lines of a batch file.
func ParseLines(text string) []string {
	lines := lo.Map(strings.Split(text, "\n"), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Filter(lines, func(s string, _ int) bool {
		return s != "" && !strings.HasPrefix(s, "#")
	})
}

// Run searches every FEN and returns results in input order. The first
// failure cancels the remaining searches.
func Run(ctx context.Context, fens []string, cfg Config) ([]Result, error) {
	positions := make([]*chess.Position, len(fens))
	for i, fen := range fens {
		pos, err := chess.ParseFEN(fen)
		if err != nil {
			return nil, errors.Wrapf(err, "position %d", i+1)
		}
		positions[i] = pos
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(fens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, pos := range positions {
		i, pos := i, pos
		g.Go(func() error {
			eng := engine.NewEngine[uint64, chess.Move](
				engine.WithLogger(cfg.Logger.With().Int("job", i+1).Logger()),
			)
			info, err := eng.Search(gctx, pos, engine.SearchLimits{Depth: cfg.Depth, Side: pos.Side()})
			if err != nil {
				return errors.Wrapf(err, "position %d", i+1)
			}
			results[i] = Result{FEN: fens[i], Info: info}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cfg.Logger.Info().
		Int("positions", len(results)).
		Uint64("nodes", lo.SumBy(results, func(r Result) uint64 { return r.Info.Nodes })).
		Msg("batch-done")
	return results, nil
}
