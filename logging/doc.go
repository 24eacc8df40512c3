// Package logging provides a tiny abstraction over slog so the rest of the
// module can depend on a minimal interface (Logger) while callers plug in any
// structured logger. It also offers a CollabLogger with contextual helpers
// and domain specific logging for turns, tool calls and breaker transitions.
package logging
