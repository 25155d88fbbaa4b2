package game

import "log/slog"

// Command is a single-key runtime control read from the console.
type Command rune

const (
	CmdTogglePause Command = 'p'
	CmdFaster      Command = '>'
	CmdSlower      Command = '<'
	CmdSnapshot    Command = 's'
	CmdStats       Command = 'i'
)

// HandleCommand applies c. It reports false for unknown commands.
// Must be called from the goroutine that calls Update.
func (g *Game) HandleCommand(c Command) bool {
	switch c {
	case CmdTogglePause:
		g.TogglePause()
		slog.Info("pause toggled", "paused", g.paused, "tick", g.tick)

	// Steps-per-update control with < > keys
	case CmdFaster:
		if g.stepsPerUpdate < maxStepsPerUpdate {
			g.stepsPerUpdate++
		}
	case CmdSlower:
		if g.stepsPerUpdate > minStepsPerUpdate {
			g.stepsPerUpdate--
		}

	case CmdSnapshot:
		if g.snapshotDir == "" {
			slog.Warn("snapshot requested but no snapshot dir set")
			return true
		}
		g.saveSnapshot()
	case CmdStats:
		g.logWorldState()
	default:
		return false
	}
	return true
}
