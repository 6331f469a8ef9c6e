package engine

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Search bounds. They are only ever used as the initial best score and the
// initial window; a leaf stores whatever Evaluate returned.
const (
	MinScore = math.MinInt
	MaxScore = math.MaxInt
)

// MaxDepth is the deepest search the Engine accepts. Recursion depth
// equals the requested depth.
const MaxDepth = 64

var (
	// ErrNegativeDepth is returned for a depth below zero.
	ErrNegativeDepth = errors.New("negative search depth")
	// ErrStopped is returned when a search is interrupted by Stop or by
	// its context.
	ErrStopped = errors.New("search stopped")
)

// Searcher performs the alpha-beta search.
// It consults and fills the transposition table it was created with.
type Searcher[K comparable, M Move] struct {
	tt       *TranspositionTable[K, M]
	nodes    uint64
	stopFlag atomic.Bool
	done     <-chan struct{} // context of the running search
}

// NewSearcher creates a new searcher.
func NewSearcher[K comparable, M Move](tt *TranspositionTable[K, M]) *Searcher[K, M] {
	return &Searcher[K, M]{tt: tt}
}

// Stop signals the search to stop. It is safe to call from another goroutine.
func (s *Searcher[K, M]) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped returns true if the search has been stopped.
func (s *Searcher[K, M]) IsStopped() bool {
	return s.stopFlag.Load()
}

// Reset resets the searcher for a new search.
func (s *Searcher[K, M]) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
}

// Nodes returns the number of nodes visited since the last Reset.
func (s *Searcher[K, M]) Nodes() uint64 {
	return s.nodes
}

// Search runs alpha-beta minimax from pos to the given depth and returns
// the best score and move for the side selected by maximizing.
//
// pos is mutated during the search and restored before Search returns.
func (s *Searcher[K, M]) Search(pos Position[K, M], depth, alpha, beta int, maximizing bool) (Result[M], error) {
	return s.SearchContext(context.Background(), pos, depth, alpha, beta, maximizing)
}

// SearchContext is Search with cancellation. The context is checked once
// per node; an interrupted search leaves no entries for unfinished nodes.
func (s *Searcher[K, M]) SearchContext(ctx context.Context, pos Position[K, M], depth, alpha, beta int, maximizing bool) (Result[M], error) {
	if depth < 0 {
		return Result[M]{}, errors.Wrapf(ErrNegativeDepth, "depth %d", depth)
	}
	if ctx.Err() != nil {
		return Result[M]{}, ErrStopped
	}
	s.done = ctx.Done()
	defer func() { s.done = nil }()

	r, ok := s.alphaBeta(pos, depth, alpha, beta, maximizing)
	if !ok {
		return Result[M]{}, ErrStopped
	}
	return r, nil
}

// alphaBeta returns false when the search was stopped before the node
// completed.
func (s *Searcher[K, M]) alphaBeta(pos Position[K, M], depth, alpha, beta int, maximizing bool) (Result[M], bool) {
	if s.stopped() {
		return Result[M]{}, false
	}
	s.nodes++

	key := pos.Identity()
	if entry, ok := s.tt.Probe(key); ok {
		return entry.result(), true
	}

	if depth == 0 || pos.IsTerminal() {
		return s.leaf(pos, key), true
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		// Not flagged terminal but nothing to play: score it as a leaf.
		return s.leaf(pos, key), true
	}

	best := Result[M]{Score: MaxScore}
	if maximizing {
		best.Score = MinScore
	}

	for _, m := range moves {
		score, ok := s.child(pos, m, depth-1, alpha, beta, !maximizing)
		if !ok {
			return Result[M]{}, false
		}

		// Strict comparison keeps the first move reaching the best score. A
		// child scoring exactly the sentinel never becomes the best move.
		if maximizing {
			if score > best.Score {
				best = Result[M]{Score: score, Move: m, Found: true}
			}
			alpha = max(alpha, score)
		} else {
			if score < best.Score {
				best = Result[M]{Score: score, Move: m, Found: true}
			}
			beta = min(beta, score)
		}

		if beta <= alpha {
			break
		}
	}

	s.tt.Store(key, best.Score, best.Move, best.Found)
	return best, true
}

func (s *Searcher[K, M]) stopped() bool {
	if s.stopFlag.Load() {
		return true
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// child searches the position after m. m is reverted on every exit path.
func (s *Searcher[K, M]) child(pos Position[K, M], m M, depth, alpha, beta int, maximizing bool) (int, bool) {
	pos.Apply(m)
	defer pos.Revert(m)

	r, ok := s.alphaBeta(pos, depth, alpha, beta, maximizing)
	return r.Score, ok
}

func (s *Searcher[K, M]) leaf(pos Position[K, M], key K) Result[M] {
	r := Result[M]{Score: pos.Evaluate()}
	s.tt.Store(key, r.Score, r.Move, false)
	return r
}
