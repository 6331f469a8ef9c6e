// Package toy is a demonstration board: a single occupancy bitboard that
// every move toggles. It always offers the same three pawn pushes and is
// never finished, which makes it a cheap stand-in for a real game when
// exercising the search.
package toy

import (
	"math/bits"
	"strconv"
)

// Square indexes the board from a1 (0) to h8 (63).
type Square uint8

const (
	A2 Square = 8 + iota
	B2
	C2
)

const (
	A3 Square = 16 + iota
	B3
	C3
)

func (sq Square) String() string {
	return string([]byte{'a' + byte(sq%8), '1' + byte(sq/8)})
}

// Move is a from-to pair in coordinate notation.
type Move struct {
	From, To Square
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// moves is the fixed move list offered in every position.
var moves = [...]Move{{A2, A3}, {B2, B3}, {C2, C3}}

// Board is the demonstration position. The zero value is the empty board.
type Board struct {
	Occupancy uint64
}

// Identity is the occupancy in lowercase hex.
func (b *Board) Identity() string {
	return strconv.FormatUint(b.Occupancy, 16)
}

func (b *Board) IsTerminal() bool { return false }

// Evaluate counts occupied squares.
func (b *Board) Evaluate() int {
	return bits.OnesCount64(b.Occupancy)
}

func (b *Board) LegalMoves() []Move {
	out := make([]Move, len(moves))
	copy(out, moves[:])
	return out
}

func (b *Board) Apply(m Move) {
	b.Occupancy ^= 1 << m.From
}

func (b *Board) Revert(m Move) {
	b.Occupancy ^= 1 << m.From
}
