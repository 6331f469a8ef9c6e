package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hailam/minimax/internal/chess"
	"github.com/hailam/minimax/internal/engine"
)

// DefaultDepth is used by "go" without a depth.
const DefaultDepth = 4

// UCI implements the Universal Chess Interface protocol on top of a
// fixed-depth minimax engine.
type UCI struct {
	engine   *engine.Engine[uint64, chess.Move]
	position *chess.Position
	depth    int
	log      zerolog.Logger

	in    io.Reader
	out   io.Writer
	outMu sync.Mutex

	// Search state
	searching  bool
	searchDone chan struct{}
	cancel     context.CancelFunc
}

// New creates a new UCI protocol handler.
func New(eng *engine.Engine[uint64, chess.Move], in io.Reader, out io.Writer, log zerolog.Logger) *UCI {
	return &UCI{
		engine:   eng,
		position: chess.NewPosition(),
		depth:    DefaultDepth,
		log:      log,
		in:       in,
		out:      out,
	}
}

// SetDepth changes the depth used by "go" without an explicit depth.
func (u *UCI) SetDepth(depth int) {
	if depth >= 1 && depth <= engine.MaxDepth {
		u.depth = depth
	}
}

func (u *UCI) println(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands until "quit" or end of input. A search still running
// at end of input is allowed to finish.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.println("%s", u.position.FEN())
		default:
			u.log.Debug().Str("cmd", cmd).Msg("unknown-command")
		}
	}

	u.waitSearch()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name Minimax")
	u.println("id author Minimax Team")
	u.println("")
	u.println("option name Depth type spin default %d min 1 max %d", DefaultDepth, engine.MaxDepth)
	u.println("option name Clear Hash type button")
	u.println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = chess.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.handleStop()

	moveStart := len(args)
	for i, arg := range args {
		if arg == "moves" {
			moveStart = i
			break
		}
	}

	var pos *chess.Position
	switch args[0] {
	case "startpos":
		pos = chess.NewPosition()
	case "fen":
		var err error
		pos, err = chess.ParseFEN(strings.Join(args[1:moveStart], " "))
		if err != nil {
			u.println("info string Invalid FEN: %v", err)
			return
		}
	default:
		return
	}

	if moveStart < len(args) {
		if err := pos.Play(args[moveStart+1:]...); err != nil {
			u.println("info string Invalid move: %v", err)
			return
		}
	}
	u.position = pos
}

// handleGo starts a search. Only "depth" is honoured; time controls do
// not apply to a fixed-depth search.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	depth := u.depth
	for i := 0; i < len(args); i++ {
		if args[i] == "depth" && i+1 < len(args) {
			if d, err := strconv.Atoi(args[i+1]); err == nil {
				depth = d
			}
			i++
		}
	}

	// The search mutates its position; "d" keeps reading u.position.
	pos := u.position.Clone()
	limits := engine.SearchLimits{Depth: depth, Side: pos.Side()}

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.searching = true
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		defer cancel()

		info, err := u.engine.Search(ctx, pos, limits)
		if err != nil {
			u.println("info string search failed: %v", err)
			u.println("bestmove 0000")
			return
		}
		u.sendInfo(pos, info, limits.Side)

		if !info.Found {
			u.println("bestmove 0000")
			return
		}
		u.println("bestmove %s", info.BestMove())
	}()
}

// sendInfo outputs search info in UCI format. UCI scores are from the side
// to move's point of view, engine scores from White's.
func (u *UCI) sendInfo(pos *chess.Position, info engine.SearchInfo[chess.Move], side engine.Side) {
	score := info.Score
	if side == engine.Minimizing {
		score = -score
	}
	pv := u.principalVariation(pos, info.Depth)

	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		"score " + uciScore(score, len(pv)),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if len(pv) > 0 {
		moves := make([]string, len(pv))
		for i, m := range pv {
			moves[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(moves, " "))
	}
	u.println("info %s", strings.Join(parts, " "))
}

// principalVariation follows the stored best moves from pos for at most
// depth plies. pos itself is left unchanged.
func (u *UCI) principalVariation(pos *chess.Position, depth int) []chess.Move {
	line := pos.Clone()
	var pv []chess.Move
	for len(pv) < depth {
		entry, ok := u.engine.Table().Peek(line.Identity())
		if !ok || !entry.HasMove {
			break
		}
		m, err := line.ParseMove(entry.BestMove.String())
		if err != nil {
			break
		}
		line.Apply(m)
		pv = append(pv, m)
	}
	return pv
}

// uciScore renders a side-to-move score. Mate scores become "mate N" in
// moves, negative when the side to move is being mated; plies is the
// length of the line leading to the mate.
func uciScore(score, plies int) string {
	switch {
	case score >= engine.MateScore:
		return fmt.Sprintf("mate %d", (plies+1)/2)
	case score <= -engine.MateScore:
		return fmt.Sprintf("mate %d", -(plies / 2))
	}
	return fmt.Sprintf("cp %d", score)
}

// handleStop stops the current search and waits for it.
func (u *UCI) handleStop() {
	if u.searching {
		u.cancel()
		u.waitSearch()
	}
}

func (u *UCI) waitSearch() {
	if u.searching {
		<-u.searchDone
		u.searching = false
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value []string
	var target *[]string

	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "depth":
		d, err := strconv.Atoi(strings.Join(value, " "))
		if err != nil || d < 1 || d > engine.MaxDepth {
			u.println("info string Invalid depth: %s", strings.Join(value, " "))
			return
		}
		u.depth = d
	case "clear hash":
		u.handleStop()
		u.engine.Clear()
	}
}
