package agent

import (
	"github.com/tbxark/collectagent/types"
)

// Trimmer bounds the conversation history kept inside a session record.
type Trimmer interface {
	Trim(history []types.Turn) []types.Turn
}

// KeepLastNTrimmer keeps the last N turns, always starting the kept window
// on a user turn so user/assistant pairs stay intact. N <= 0 keeps nothing.
type KeepLastNTrimmer struct {
	N int
}

func (t KeepLastNTrimmer) Trim(history []types.Turn) []types.Turn {
	if t.N <= 0 {
		return nil
	}
	if len(history) <= t.N {
		return history
	}
	start := len(history) - t.N
	for start < len(history) && history[start].Role != types.RoleUser {
		start++
	}
	return history[start:]
}

// WithHistoryTrimmer bounds persisted session history; by default the full
// conversation is kept.
func WithHistoryTrimmer(t Trimmer) Option {
	return func(o *collectorOptions) { o.trimmer = t }
}
