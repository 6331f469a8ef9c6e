package chess

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Move is a chess move in comparable form.
type Move struct {
	From  chess.Square
	To    chess.Square
	Promo chess.PieceType // chess.NoPieceType unless promoting
}

var promoLetters = map[chess.PieceType]byte{
	chess.Queen:  'q',
	chess.Rook:   'r',
	chess.Bishop: 'b',
	chess.Knight: 'n',
}

func squareName(sq chess.Square) string {
	return string([]byte{'a' + byte(sq%8), '1' + byte(sq/8)})
}

// String returns the move in UCI coordinate notation, e.g. "e2e4", "e7e8q".
func (m Move) String() string {
	s := squareName(m.From) + squareName(m.To)
	if c, ok := promoLetters[m.Promo]; ok {
		s += string(c)
	}
	return s
}

func fromNotnil(m *chess.Move) Move {
	return Move{From: m.S1(), To: m.S2(), Promo: m.Promo()}
}

// ParseMove decodes a UCI move and checks it against the legal moves of
// the current position.
func (p *Position) ParseMove(s string) (Move, error) {
	for _, m := range p.LegalMoves() {
		if m.String() == s {
			return m, nil
		}
	}
	return Move{}, errors.Errorf("illegal or malformed move %q in %s", s, p.FEN())
}
