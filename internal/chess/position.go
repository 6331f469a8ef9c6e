// Package chess adapts github.com/notnil/chess positions to the search
// engine's Position contract. Rules, move generation and FEN handling are
// left to notnil/chess; this package adds reversible application, a
// transposition key and a material evaluation from White's perspective.
package chess

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/hailam/minimax/internal/engine"
)

// Piece values in centipawns.
var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
}

// Position is a chess position that can be searched in place. Apply
// pushes the successor position and Revert pops it, so the underlying
// notnil positions are never mutated.
type Position struct {
	stack []*chess.Position
	moves []Move
}

var _ engine.Position[uint64, Move] = (*Position)(nil)

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	return &Position{stack: []*chess.Position{chess.NewGame().Position()}}
}

// ParseFEN parses a position in Forsyth-Edwards Notation.
func ParseFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, errors.Wrapf(err, "parse fen %q", fen)
	}
	return &Position{stack: []*chess.Position{chess.NewGame(opt).Position()}}, nil
}

// Clone returns an independent copy of the current position without the
// applied-move history, so it can be searched while p is read elsewhere.
func (p *Position) Clone() *Position {
	return &Position{stack: []*chess.Position{p.current()}}
}

func (p *Position) current() *chess.Position {
	return p.stack[len(p.stack)-1]
}

// FEN returns the current position in Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	return p.current().String()
}

// Maximizing reports whether White is to move. Scores are from White's
// perspective, so White maximizes.
func (p *Position) Maximizing() bool {
	return p.current().Turn() == chess.White
}

// Side returns the engine side for the player to move.
func (p *Position) Side() engine.Side {
	if p.Maximizing() {
		return engine.Maximizing
	}
	return engine.Minimizing
}

// Identity hashes placement, side to move, castling rights and en passant
// square. Move clocks are left out.
func (p *Position) Identity() uint64 {
	fields := strings.Fields(p.FEN())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return xxhash.Sum64String(strings.Join(fields, " "))
}

func (p *Position) IsTerminal() bool {
	return p.current().Status() != chess.NoMethod
}

// Evaluate returns the material balance, or ±engine.MateScore when the
// side to move is checkmated, or 0 for any other finished game.
func (p *Position) Evaluate() int {
	pos := p.current()
	switch pos.Status() {
	case chess.NoMethod:
	case chess.Checkmate:
		if pos.Turn() == chess.White {
			return -engine.MateScore
		}
		return engine.MateScore
	default:
		return 0
	}

	board := pos.Board()
	score := 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece == chess.NoPiece {
			continue
		}
		v := pieceValues[piece.Type()]
		if piece.Color() == chess.Black {
			v = -v
		}
		score += v
	}
	return score
}

func (p *Position) LegalMoves() []Move {
	valid := p.current().ValidMoves()
	moves := make([]Move, len(valid))
	for i, m := range valid {
		moves[i] = fromNotnil(m)
	}
	return moves
}

// Apply panics if m is not legal in the current position.
func (p *Position) Apply(m Move) {
	nm := p.lookup(m)
	if nm == nil {
		panic(fmt.Sprintf("chess: illegal move %s in %s", m, p.FEN()))
	}
	p.stack = append(p.stack, p.current().Update(nm))
	p.moves = append(p.moves, m)
}

// Revert panics if m is not the last applied move.
func (p *Position) Revert(m Move) {
	if len(p.moves) == 0 || p.moves[len(p.moves)-1] != m {
		panic(fmt.Sprintf("chess: revert %s does not match last applied move", m))
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.moves = p.moves[:len(p.moves)-1]
}

// Play applies a sequence of UCI moves permanently, as when setting up a
// position from a move list.
func (p *Position) Play(uci ...string) error {
	for _, s := range uci {
		m, err := p.ParseMove(s)
		if err != nil {
			return err
		}
		p.Apply(m)
	}
	// Applied moves are history now, not search state.
	p.stack = p.stack[len(p.stack)-1:]
	p.moves = p.moves[:0]
	return nil
}

func (p *Position) lookup(m Move) *chess.Move {
	for _, nm := range p.current().ValidMoves() {
		if fromNotnil(nm) == m {
			return nm
		}
	}
	return nil
}
