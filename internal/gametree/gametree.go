// Package gametree provides a game position backed by an explicit tree,
// used to check search results against hand-built game trees.
package gametree

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Move names the edge leading to a child node.
type Move string

func (m Move) String() string { return string(m) }

// Edge connects a node to one of its children.
type Edge struct {
	Move Move  `json:"move"`
	Node *Node `json:"node"`
}

// Node is one position of the tree. A node without children is terminal
// unless Open is set, in which case it reports no legal moves while not
// being terminal.
type Node struct {
	// ID is the node identity. Nodes sharing an ID are transpositions of
	// each other. Empty IDs are filled in by NewPosition.
	ID       string `json:"id,omitempty"`
	Score    int    `json:"score"`
	Open     bool   `json:"open,omitempty"`
	Children []Edge `json:"children,omitempty"`
}

// Leaf returns a terminal node with the given static score.
func Leaf(score int) *Node {
	return &Node{Score: score}
}

// Branch returns an inner node. Its own score is only used when the search
// runs out of depth on it.
func Branch(edges ...Edge) *Node {
	return &Node{Children: edges}
}

// To builds an edge.
func To(move string, n *Node) Edge {
	return Edge{Move: Move(move), Node: n}
}

// Decode reads a tree in its JSON form.
func Decode(r io.Reader) (*Node, error) {
	var root Node
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrap(err, "decode game tree")
	}
	if err := root.validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

func (n *Node) validate() error {
	seen := make(map[Move]bool, len(n.Children))
	for _, e := range n.Children {
		if e.Node == nil {
			return errors.Errorf("node %q: move %q has no child", n.ID, e.Move)
		}
		if seen[e.Move] {
			return errors.Errorf("node %q: duplicate move %q", n.ID, e.Move)
		}
		seen[e.Move] = true
		if err := e.Node.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Position walks a tree. It implements engine.Position[string, Move].
type Position struct {
	path  []*Node
	moves []Move

	// Evals counts calls to Evaluate.
	Evals int
}

// NewPosition starts at root. Nodes without an ID get a unique one.
func NewPosition(root *Node) *Position {
	next := 0
	var assign func(n *Node)
	assign = func(n *Node) {
		if n.ID == "" {
			n.ID = "#" + strconv.Itoa(next)
			next++
		}
		for _, e := range n.Children {
			assign(e.Node)
		}
	}
	assign(root)
	return &Position{path: []*Node{root}}
}

func (p *Position) node() *Node {
	return p.path[len(p.path)-1]
}

// Ply returns how many moves are currently applied.
func (p *Position) Ply() int {
	return len(p.moves)
}

func (p *Position) Identity() string {
	return p.node().ID
}

func (p *Position) IsTerminal() bool {
	n := p.node()
	return len(n.Children) == 0 && !n.Open
}

func (p *Position) Evaluate() int {
	p.Evals++
	return p.node().Score
}

func (p *Position) LegalMoves() []Move {
	children := p.node().Children
	moves := make([]Move, len(children))
	for i, e := range children {
		moves[i] = e.Move
	}
	return moves
}

// Apply panics if m is not a move of the current node.
func (p *Position) Apply(m Move) {
	for _, e := range p.node().Children {
		if e.Move == m {
			p.path = append(p.path, e.Node)
			p.moves = append(p.moves, m)
			return
		}
	}
	panic(fmt.Sprintf("gametree: move %q not legal at node %q", m, p.node().ID))
}

// Revert panics if m is not the last applied move.
func (p *Position) Revert(m Move) {
	if len(p.moves) == 0 || p.moves[len(p.moves)-1] != m {
		panic(fmt.Sprintf("gametree: revert %q does not match last move", m))
	}
	p.path = p.path[:len(p.path)-1]
	p.moves = p.moves[:len(p.moves)-1]
}

// Minimax returns the plain minimax value of n without pruning or caching.
func Minimax(n *Node, depth int, maximizing bool) int {
	if depth == 0 || len(n.Children) == 0 {
		return n.Score
	}
	best := Minimax(n.Children[0].Node, depth-1, !maximizing)
	for _, e := range n.Children[1:] {
		v := Minimax(e.Node, depth-1, !maximizing)
		if maximizing && v > best || !maximizing && v < best {
			best = v
		}
	}
	return best
}
