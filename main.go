package main

import (
	"bufio"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	resume := flag.String("resume", "", "Snapshot file to resume from")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call")
	population := flag.Int("population", 0, "Pin the active population and disable autoscale (0 = use config)")
	workers := flag.Int("workers", -1, "Interact worker goroutines (-1 = use config, 0 = GOMAXPROCS, 1 = sequential)")
	interactive := flag.Bool("interactive", false, "Read single-key commands from stdin (p, <, >, s, i)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *workers >= 0 {
		cfg.Physics.Workers = *workers
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g, err := game.NewGameWithOptions(game.Options{
		Seed:            rngSeed,
		LogStats:        *logStats,
		StatsWindowSec:  *statsWindow,
		SnapshotDir:     *snapshotDir,
		OutputDir:       *outputDir,
		StepsPerUpdate:  *stepsPerUpdate,
		ResumeFrom:      *resume,
		FixedPopulation: *population,
	})
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
		"interactive", *interactive,
	)

	var commands <-chan game.Command
	if *interactive {
		commands = readCommands()
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		select {
		case <-interrupt:
			slog.Info("interrupted", "tick", g.Tick())
			return
		case c := <-commands:
			if !g.HandleCommand(c) {
				slog.Warn("unknown command", "command", string(c))
			}
		default:
		}

		g.Update()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick(), "active", g.Active())
			return
		}

		// Avoid spinning while paused
		if g.Paused() {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// readCommands forwards the first rune of each stdin line until EOF.
func readCommands() <-chan game.Command {
	ch := make(chan game.Command)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := []rune(scanner.Text())
			if len(line) == 0 {
				// Bare enter toggles pause
				ch <- game.CmdTogglePause
				continue
			}
			ch <- game.Command(line[0])
		}
	}()
	return ch
}
