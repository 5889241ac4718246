package match

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMatchOver is returned by Step once the match reached a terminal phase.
var ErrMatchOver = errors.New("match is over")

// InvalidActionError describes a proposal that violated physical
// constraints. The engine replaces the action with Idle and carries on.
type InvalidActionError struct {
	Tick   uint64
	Player int
	Kind   ActionKind
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("tick %d: player %d: invalid %s action: %s", e.Tick, e.Player, e.Kind, e.Reason)
}

// StateCorruptionError reports a broken invariant after commit. It means a
// logic defect; the match is abandoned and Dump holds the offending state.
type StateCorruptionError struct {
	Tick   uint64
	Reason string
	Dump   []byte
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("tick %d: state corruption: %s", e.Tick, e.Reason)
}

func newStateCorruption(s *Snapshot, format string, args ...any) *StateCorruptionError {
	dump, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		dump = []byte(fmt.Sprintf("%+v", *s))
	}
	return &StateCorruptionError{Tick: s.Tick, Reason: fmt.Sprintf(format, args...), Dump: dump}
}
