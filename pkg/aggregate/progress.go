package aggregate

import "github.com/rs/zerolog"

// ProgressSink receives fire-and-forget progress notifications from Bounded.
// Implementations must not block; a slow sink stalls result collection.
type ProgressSink interface {
	Report(completed, total int)
}

// NopSink discards progress notifications.
type NopSink struct{}

// Report implements ProgressSink.
func (NopSink) Report(completed, total int) {}

// LogSink reports progress as structured log events.
type LogSink struct {
	Logger zerolog.Logger
}

// Report implements ProgressSink.
func (s LogSink) Report(completed, total int) {
	s.Logger.Info().
		Int("completed", completed).
		Int("total", total).
		Msg("Fetch progress")
}
