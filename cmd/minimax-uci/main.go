package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/rs/zerolog"

	"github.com/hailam/minimax/internal/chess"
	"github.com/hailam/minimax/internal/engine"
	"github.com/hailam/minimax/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	depth      = flag.Int("depth", uci.DefaultDepth, "default depth for \"go\" without limits")
	tableSize  = flag.Int("tt", 1<<16, "transposition table entries to preallocate")
	logLevel   = flag.String("log", "warn", "log level on stderr")
)

func main() {
	flag.Parse()

	// stdout belongs to the protocol; logs go to stderr.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		log = log.Level(lvl)
	} else {
		log.Warn().Str("level", *logLevel).Msg("unknown log level, using warn")
		log = log.Level(zerolog.WarnLevel)
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu-profiling")
	}

	eng := engine.NewEngine[uint64, chess.Move](
		engine.WithTableSize(*tableSize),
		engine.WithLogger(log),
	)

	// Create and run UCI protocol handler
	protocol := uci.New(eng, os.Stdin, os.Stdout, log)
	protocol.SetDepth(*depth)
	if err := protocol.Run(); err != nil {
		log.Error().Err(err).Msg("uci")
	}
}
