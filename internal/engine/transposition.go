package engine

// TTEntry is the best known result for one position.
type TTEntry[M Move] struct {
	Score    int
	BestMove M
	HasMove  bool // false for leaves and nodes without legal moves
}

// result converts the entry back into a search result.
func (e TTEntry[M]) result() Result[M] {
	return Result[M]{Score: e.Score, Move: e.BestMove, Found: e.HasMove}
}

// TranspositionTable maps a position identity to the last (score, move)
// computed for it.
//
// Entries carry neither the remaining depth nor the alpha-beta window that
// produced them, and a hit is returned as is. A shallow or cut-off result
// can therefore answer a deeper query for the same position reached by a
// different move order. Clear the table between unrelated searches.
//
// The table is not safe for concurrent use.
type TranspositionTable[K comparable, M Move] struct {
	entries map[K]TTEntry[M]

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates an empty table. sizeHint preallocates
// room for that many entries and may be zero.
func NewTranspositionTable[K comparable, M Move](sizeHint int) *TranspositionTable[K, M] {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &TranspositionTable[K, M]{
		entries: make(map[K]TTEntry[M], sizeHint),
	}
}

// Probe looks up a position in the transposition table.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tt *TranspositionTable[K, M]) Probe(key K) (TTEntry[M], bool) {
	tt.probes++
	entry, ok := tt.entries[key]
	if ok {
		tt.hits++
	}
	return entry, ok
}

// Peek reads an entry without counting it as a probe.
func (tt *TranspositionTable[K, M]) Peek(key K) (TTEntry[M], bool) {
	entry, ok := tt.entries[key]
	return entry, ok
}

// Store saves a result, replacing any previous entry for key.
func (tt *TranspositionTable[K, M]) Store(key K, score int, bestMove M, hasMove bool) {
	tt.entries[key] = TTEntry[M]{Score: score, BestMove: bestMove, HasMove: hasMove}
}

// Clear empties the table and resets its statistics.
func (tt *TranspositionTable[K, M]) Clear() {
	clear(tt.entries)
	tt.hits = 0
	tt.probes = 0
}

// Len returns the number of stored positions.
func (tt *TranspositionTable[K, M]) Len() int {
	return len(tt.entries)
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable[K, M]) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}
