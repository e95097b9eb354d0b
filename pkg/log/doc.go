/*
Package log provides structured logging for ordinatord using zerolog.

The log package wraps zerolog to provide JSON-structured or human-readable
console logging, configurable severity levels, and helper functions for
tagging log lines with the scheduler-domain fields every component needs:
asset, actor id, and tier.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout or custom writer          │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("config.watcher")          │          │
	│  │  - WithAsset("PLATFORM-7")                  │          │
	│  │  - WithActor("strategic:PLATFORM-7")        │          │
	│  │  - WithTier("supervisor")                   │          │
	│  └──────────────────▼─────────────────────────┘          │
	└────────────────────────────────────────────────────────┘

# Usage

Initialize once at process start:

	import "github.com/oceanridge/ordinator/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Then log through the global Logger or a tagged child logger:

	log.WithAsset("PLATFORM-7").Warn().
		Str("actor_id", "tactical:PLATFORM-7").
		Msg("actor exited unexpectedly, respawning")

# Log Levels

  - debug: LNS iteration detail, candidate evaluation traces
  - info: actor lifecycle (spawn, despawn, respawn), config reload, snapshot publish
  - warn: degraded conditions the system recovers from on its own (a respawn, a skipped archive write)
  - error: conditions requiring operator attention (archive open failure, config parse failure)
*/
package log
