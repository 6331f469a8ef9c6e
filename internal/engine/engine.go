package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Side selects whether the root of a search maximizes or minimizes.
type Side int

const (
	Maximizing Side = iota
	Minimizing
)

func (s Side) String() string {
	if s == Minimizing {
		return "min"
	}
	return "max"
}

// SearchLimits specifies the search to run.
type SearchLimits struct {
	Depth int  // Plies to search, 0..MaxDepth
	Side  Side // Side to move at the root
}

// SearchInfo contains information about a finished search.
type SearchInfo[M Move] struct {
	Depth     int
	Score     int
	Move      M
	Found     bool
	Nodes     uint64
	Time      time.Duration
	TableSize int     // Positions stored in the transposition table
	HitRate   float64 // Table hit rate in percent
}

// BestMove returns the encoded best move, or "" when there is none.
func (si SearchInfo[M]) BestMove() string {
	return Result[M]{Score: si.Score, Move: si.Move, Found: si.Found}.Encode()
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	tableSize int
	logger    zerolog.Logger
}

// WithTableSize preallocates room for n transposition table entries.
func WithTableSize(n int) Option {
	return func(o *options) { o.tableSize = n }
}

// WithLogger sets the logger used for search reports.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Engine owns a transposition table and the searcher that fills it.
// The table lives as long as the Engine; call Clear between unrelated
// searches. An Engine must not be used by two goroutines at once.
type Engine[K comparable, M Move] struct {
	searcher *Searcher[K, M]
	tt       *TranspositionTable[K, M]
	log      zerolog.Logger

	// Callbacks
	OnInfo func(SearchInfo[M])
}

// NewEngine creates an engine with an empty transposition table.
func NewEngine[K comparable, M Move](opts ...Option) *Engine[K, M] {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	tt := NewTranspositionTable[K, M](o.tableSize)
	return &Engine[K, M]{
		searcher: NewSearcher(tt),
		tt:       tt,
		log:      o.logger,
	}
}

// Search finds the best move for pos within limits, using the full window.
func (e *Engine[K, M]) Search(ctx context.Context, pos Position[K, M], limits SearchLimits) (SearchInfo[M], error) {
	if limits.Depth < 0 || limits.Depth > MaxDepth {
		return SearchInfo[M]{}, errors.Errorf("depth %d out of range [0, %d]", limits.Depth, MaxDepth)
	}

	e.searcher.Reset()
	start := time.Now()

	r, err := e.searcher.SearchContext(ctx, pos, limits.Depth, MinScore, MaxScore, limits.Side == Maximizing)
	if err != nil {
		e.log.Warn().Err(err).Int("depth", limits.Depth).Uint64("nodes", e.searcher.Nodes()).Msg("search-aborted")
		return SearchInfo[M]{}, err
	}

	info := SearchInfo[M]{
		Depth:     limits.Depth,
		Score:     r.Score,
		Move:      r.Move,
		Found:     r.Found,
		Nodes:     e.searcher.Nodes(),
		Time:      time.Since(start),
		TableSize: e.tt.Len(),
		HitRate:   e.tt.HitRate(),
	}

	e.log.Debug().
		Int("depth", info.Depth).
		Stringer("side", limits.Side).
		Int("score", info.Score).
		Str("move", info.BestMove()).
		Uint64("nodes", info.Nodes).
		Dur("time", info.Time).
		Int("tt-size", info.TableSize).
		Float64("tt-hitrate", info.HitRate).
		Msg("search-done")

	if e.OnInfo != nil {
		e.OnInfo(info)
	}
	return info, nil
}

// Stop stops the current search.
func (e *Engine[K, M]) Stop() {
	e.searcher.Stop()
}

// Clear clears the transposition table.
func (e *Engine[K, M]) Clear() {
	e.tt.Clear()
	e.log.Debug().Msg("tt-cleared")
}

// Table returns the engine's transposition table.
func (e *Engine[K, M]) Table() *TranspositionTable[K, M] {
	return e.tt
}

// MateScore is the magnitude collaborators use for a won or lost game.
const MateScore = 1_000_000

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	switch {
	case score == MinScore:
		return "-inf"
	case score == MaxScore:
		return "+inf"
	case score >= MateScore:
		return "Mate"
	case score <= -MateScore:
		return "Mated"
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	cp := score % 100
	pad := ""
	if cp < 10 {
		pad = "0"
	}
	return sign + strconv.Itoa(score/100) + "." + pad + strconv.Itoa(cp)
}
