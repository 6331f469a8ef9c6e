package engine

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/hailam/minimax/internal/gametree"
)

type treeEngine = Engine[string, gametree.Move]

func newTreeEngine() *treeEngine {
	return NewEngine[string, gametree.Move]()
}

func searchTree(t *testing.T, root *gametree.Node, depth int, maximizing bool) (Result[gametree.Move], *gametree.Position) {
	t.Helper()
	pos := gametree.NewPosition(root)
	s := NewSearcher(NewTranspositionTable[string, gametree.Move](0))
	r, err := s.Search(pos, depth, MinScore, MaxScore, maximizing)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	return r, pos
}

// pruningTree has minimax value 5 via "a". Searching it with alpha-beta
// skips the leaves 9 and B2.
func pruningTree() *gametree.Node {
	return gametree.Branch(
		gametree.To("a", gametree.Branch(
			gametree.To("a1", gametree.Branch(
				gametree.To("a1x", gametree.Leaf(3)),
				gametree.To("a1y", gametree.Leaf(5)),
			)),
			gametree.To("a2", gametree.Branch(
				gametree.To("a2x", gametree.Leaf(6)),
				gametree.To("a2y", gametree.Leaf(9)),
			)),
		)),
		gametree.To("b", gametree.Branch(
			gametree.To("b1", gametree.Branch(
				gametree.To("b1x", gametree.Leaf(1)),
				gametree.To("b1y", gametree.Leaf(2)),
			)),
			gametree.To("b2", gametree.Branch(
				gametree.To("b2x", gametree.Leaf(8)),
				gametree.To("b2y", gametree.Leaf(4)),
			)),
		)),
	)
}

func TestScenarioDepthTwo(t *testing.T) {
	root := gametree.Branch(
		gametree.To("X", gametree.Branch(
			gametree.To("x1", gametree.Leaf(3)),
			gametree.To("x2", gametree.Leaf(7)),
		)),
		gametree.To("Y", gametree.Branch(
			gametree.To("y1", gametree.Leaf(5)),
			gametree.To("y2", gametree.Leaf(9)),
		)),
	)

	r, _ := searchTree(t, root, 2, true)
	if r.Score != 5 || r.Encode() != "Y" {
		t.Errorf("Expected (5, Y), got (%d, %q)", r.Score, r.Encode())
	}
}

func TestLeafAtDepthZero(t *testing.T) {
	root := gametree.Branch(gametree.To("m", gametree.Leaf(1)))
	root.Score = 42

	windows := []struct{ alpha, beta int }{
		{MinScore, MaxScore},
		{0, 10},
		{100, -100},
	}
	for _, w := range windows {
		for _, maximizing := range []bool{true, false} {
			pos := gametree.NewPosition(root)
			s := NewSearcher(NewTranspositionTable[string, gametree.Move](0))
			r, err := s.Search(pos, 0, w.alpha, w.beta, maximizing)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if r.Score != 42 || r.Found {
				t.Errorf("window %v maximizing=%v: got %+v, want score 42 and no move", w, maximizing, r)
			}
			if r.Encode() != "" {
				t.Errorf("Expected empty encoding for no move, got %q", r.Encode())
			}
		}
	}
}

func TestTieBreakFirstSeen(t *testing.T) {
	for _, maximizing := range []bool{true, false} {
		root := gametree.Branch(
			gametree.To("A", gametree.Leaf(4)),
			gametree.To("B", gametree.Leaf(4)),
		)
		r, _ := searchTree(t, root, 1, maximizing)
		if r.Encode() != "A" || r.Score != 4 {
			t.Errorf("maximizing=%v: expected (4, A), got (%d, %q)", maximizing, r.Score, r.Encode())
		}
	}
}

func TestSentinelScoresYieldNoMove(t *testing.T) {
	tests := []struct {
		name       string
		maximizing bool
		a, b       int
		wantScore  int
		wantMove   string
	}{
		{"MaxAllLost", true, MinScore, MinScore, MinScore, ""},
		{"MinAllWon", false, MaxScore, MaxScore, MaxScore, ""},
		{"MaxSecondMove", true, MinScore, 3, 3, "B"},
		{"MinSecondMove", false, MaxScore, -3, -3, "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := gametree.Branch(
				gametree.To("A", gametree.Leaf(tt.a)),
				gametree.To("B", gametree.Leaf(tt.b)),
			)
			r, _ := searchTree(t, root, 1, tt.maximizing)
			if r.Score != tt.wantScore || r.Encode() != tt.wantMove {
				t.Errorf("Expected (%d, %q), got (%d, %q)", tt.wantScore, tt.wantMove, r.Score, r.Encode())
			}
			if r.Found != (tt.wantMove != "") {
				t.Errorf("Found = %v for move %q", r.Found, r.Encode())
			}
		})
	}
}

func TestPruningSoundness(t *testing.T) {
	root := pruningTree()
	want := gametree.Minimax(root, 3, true)

	r, pos := searchTree(t, root, 3, true)
	if r.Score != want {
		t.Errorf("Expected minimax value %d, got %d", want, r.Score)
	}
	if r.Encode() != "a" {
		t.Errorf("Expected move a, got %q", r.Encode())
	}
	if pos.Evals >= 8 {
		t.Errorf("Expected pruning to skip leaves, evaluated %d of 8", pos.Evals)
	}

	// Minimizing root over the same tree.
	want = gametree.Minimax(pruningTree(), 3, false)
	r, _ = searchTree(t, pruningTree(), 3, false)
	if r.Score != want {
		t.Errorf("Minimizing: expected %d, got %d", want, r.Score)
	}
}

func TestNetZeroMutation(t *testing.T) {
	root := pruningTree()
	pos := gametree.NewPosition(root)
	before := pos.Identity()

	s := NewSearcher(NewTranspositionTable[string, gametree.Move](0))
	for depth := 0; depth <= 4; depth++ {
		if _, err := s.Search(pos, depth, MinScore, MaxScore, true); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if pos.Identity() != before || pos.Ply() != 0 {
			t.Errorf("depth %d: position not restored (identity %q, ply %d)", depth, pos.Identity(), pos.Ply())
		}
	}
}

func TestEmptyMoveFallback(t *testing.T) {
	root := &gametree.Node{Score: -7, Open: true}
	r, pos := searchTree(t, root, 3, true)

	if pos.IsTerminal() {
		t.Fatal("Open node should not be terminal")
	}
	if r.Score != -7 || r.Found {
		t.Errorf("Expected (-7, no move), got %+v", r)
	}
}

func TestDeterminism(t *testing.T) {
	first, _ := searchTree(t, pruningTree(), 3, true)
	for i := 0; i < 5; i++ {
		r, _ := searchTree(t, pruningTree(), 3, true)
		if r != first {
			t.Fatalf("Run %d: got %+v, want %+v", i, r, first)
		}
	}
}

func TestTableTransparency(t *testing.T) {
	root := pruningTree()
	pos := gametree.NewPosition(root)
	eng := newTreeEngine()
	limits := SearchLimits{Depth: 3, Side: Maximizing}

	cold, err := eng.Search(context.Background(), pos, limits)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	warm, err := eng.Search(context.Background(), pos, limits)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if cold.Score != warm.Score || cold.Move != warm.Move {
		t.Errorf("Warm table changed the result: cold %+v, warm %+v", cold, warm)
	}
	if warm.Nodes != 1 {
		t.Errorf("Expected the warm search to stop at the root entry, visited %d nodes", warm.Nodes)
	}

	eng.Clear()
	if eng.Table().Len() != 0 {
		t.Fatalf("Clear left %d entries", eng.Table().Len())
	}
	again, err := eng.Search(context.Background(), pos, limits)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if again.Score != cold.Score || again.Move != cold.Move || again.Nodes != cold.Nodes {
		t.Errorf("Cleared table gave %+v, want %+v", again, cold)
	}
}

// The table ignores depth: a position first met at the horizon answers a
// later, deeper visit with its static score.
func TestTableReusesShallowEntries(t *testing.T) {
	shared := &gametree.Node{ID: "t", Score: 1, Children: []gametree.Edge{
		gametree.To("p", gametree.Leaf(100)),
	}}
	root := gametree.Branch(
		gametree.To("a", gametree.Branch(gametree.To("x", shared))),
		gametree.To("b", shared),
	)

	if want := gametree.Minimax(root, 2, true); want != 100 {
		t.Fatalf("Tree setup: plain minimax gives %d, want 100", want)
	}

	r, _ := searchTree(t, root, 2, true)
	if r.Score != 1 || r.Encode() != "a" {
		t.Errorf("Expected the cached horizon score (1, a), got (%d, %q)", r.Score, r.Encode())
	}
}

func TestNegativeDepth(t *testing.T) {
	pos := gametree.NewPosition(pruningTree())
	s := NewSearcher(NewTranspositionTable[string, gametree.Move](0))

	_, err := s.Search(pos, -1, MinScore, MaxScore, true)
	if !errors.Is(err, ErrNegativeDepth) {
		t.Errorf("Expected ErrNegativeDepth, got %v", err)
	}
	if pos.Evals != 0 {
		t.Errorf("Rejected search evaluated %d positions", pos.Evals)
	}

	eng := newTreeEngine()
	if _, err := eng.Search(context.Background(), pos, SearchLimits{Depth: MaxDepth + 1}); err == nil {
		t.Error("Expected an error for depth above MaxDepth")
	}
}

// cancelAfter cancels the search context after n evaluations.
type cancelAfter struct {
	*gametree.Position
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Evaluate() int {
	if c.Evals+1 >= c.n {
		c.cancel()
	}
	return c.Position.Evaluate()
}

func TestStop(t *testing.T) {
	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		eng := newTreeEngine()
		pos := gametree.NewPosition(pruningTree())
		_, err := eng.Search(ctx, pos, SearchLimits{Depth: 3})
		if !errors.Is(err, ErrStopped) {
			t.Errorf("Expected ErrStopped, got %v", err)
		}
		if eng.Table().Len() != 0 {
			t.Errorf("Stopped search stored %d entries", eng.Table().Len())
		}
	})

	t.Run("MidSearch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pos := &cancelAfter{Position: gametree.NewPosition(pruningTree()), n: 2, cancel: cancel}
		tt := NewTranspositionTable[string, gametree.Move](0)
		s := NewSearcher(tt)

		_, err := s.SearchContext(ctx, pos, 3, MinScore, MaxScore, true)
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("Expected ErrStopped, got %v", err)
		}
		if pos.Ply() != 0 {
			t.Errorf("Stopped search left %d moves applied", pos.Ply())
		}
		if _, ok := tt.Probe(pos.Identity()); ok {
			t.Error("Stopped search stored the root")
		}
	})
}

func TestOnInfo(t *testing.T) {
	eng := newTreeEngine()
	var got []SearchInfo[gametree.Move]
	eng.OnInfo = func(info SearchInfo[gametree.Move]) {
		got = append(got, info)
	}

	pos := gametree.NewPosition(pruningTree())
	if _, err := eng.Search(context.Background(), pos, SearchLimits{Depth: 3}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 info report, got %d", len(got))
	}
	if got[0].BestMove() != "a" || got[0].Depth != 3 || got[0].TableSize == 0 {
		t.Errorf("Unexpected info: %+v", got[0])
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{105, "1.05"},
		{-250, "-2.50"},
		{MateScore, "Mate"},
		{-MateScore, "Mated"},
		{MinScore, "-inf"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
