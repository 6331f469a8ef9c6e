package engine

// Move is a transition between two positions. Moves are only meaningful
// relative to the position that generated them.
type Move interface {
	comparable
	// String returns the canonical encoding (coordinate notation for chess).
	String() string
}

// Position is a mutable game state searched in place by the engine.
//
// Implementations must keep Identity a pure function of game-relevant
// state, and Apply followed by Revert of the same move must restore an
// identical Identity. The engine always pairs Apply and Revert in LIFO order.
type Position[K comparable, M Move] interface {
	// Identity returns the transposition key of the position.
	Identity() K
	// IsTerminal reports whether the game is over by its own rules.
	IsTerminal() bool
	// Evaluate scores the position from the maximizing side's perspective.
	Evaluate() int
	// LegalMoves returns every move available to the side to move.
	// Order decides which of several equally scored moves is reported.
	LegalMoves() []M
	// Apply plays m on the position.
	Apply(m M)
	// Revert undoes the last Apply(m).
	Revert(m M)
}

// Result is the outcome of a search: a score and, when Found is set, the
// best move. Without a move (leaf nodes, no legal moves) Move is the zero
// value and must not be used.
type Result[M Move] struct {
	Score int
	Move  M
	Found bool
}

// Encode returns the canonical encoding of the best move, or "" when no
// move was found.
func (r Result[M]) Encode() string {
	if !r.Found {
		return ""
	}
	return r.Move.String()
}
