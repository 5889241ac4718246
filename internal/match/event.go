package match

import (
	"fmt"
	"time"
)

// EventType categorises a match event.
type EventType uint8

const (
	EventKickoff EventType = iota
	EventPass
	EventInterception
	EventTackle
	EventFoul
	EventShot
	EventSave
	EventGoal
	EventOutOfPlay
	EventThrowIn
	EventCorner
	EventGoalKick
	EventFreeKick
	EventHalfTime
	EventFullTime
	EventAbandoned
	eventTypeCount
)

var eventTypeNames = [...]string{
	"kickoff", "pass", "interception", "tackle", "foul", "shot", "save", "goal",
	"out_of_play", "throw_in", "corner", "goal_kick", "free_kick",
	"half_time", "full_time", "abandoned",
}

// String returns the event type name.
func (t EventType) String() string {
	if t < eventTypeCount {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("EventType(%d)", t)
}

// MarshalText encodes the event type name.
func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes an event type name.
func (t *EventType) UnmarshalText(text []byte) error {
	for i, n := range eventTypeNames {
		if n == string(text) {
			*t = EventType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", string(text))
}

// Outcome qualifies an event.
type Outcome string

const (
	OutcomeNone       Outcome = ""
	OutcomeCompleted  Outcome = "completed"
	OutcomeWon        Outcome = "won"
	OutcomeMissed     Outcome = "missed"
	OutcomeOnTarget   Outcome = "on_target"
	OutcomeOffTarget  Outcome = "off_target"
	OutcomeGoal       Outcome = "goal"
	OutcomeOwnGoal    Outcome = "own_goal"
	OutcomeThrowIn    Outcome = "throw_in"
	OutcomeCorner     Outcome = "corner"
	OutcomeGoalKick   Outcome = "goal_kick"
	OutcomeStopped    Outcome = "stopped"
	OutcomeCorruption Outcome = "state_corruption"
)

// Event is an immutable record of something that happened. Seq is assigned
// by the EventLog; everything else comes from simulated state, so a replay
// with the same seed and rosters yields identical events.
type Event struct {
	Seq       uint64        `json:"seq"`
	Tick      uint64        `json:"tick"`
	Clock     time.Duration `json:"clock"`
	Half      int           `json:"half"`
	Type      EventType     `json:"type"`
	Side      Side          `json:"side"`
	Actor     int           `json:"actor"`
	Secondary int           `json:"secondary"`
	Pos       Vec2          `json:"pos"`
	Outcome   Outcome       `json:"outcome,omitempty"`
}

// Minute is the match minute shown on a scoreboard (1-based).
func (e Event) Minute() int {
	return int(e.Clock/time.Minute) + 1
}

func (e Event) String() string {
	s := fmt.Sprintf("%d' %s %s #%d", e.Minute(), e.Type, e.Side, e.Actor)
	if e.Secondary >= 0 {
		s += fmt.Sprintf(" -> #%d", e.Secondary)
	}
	if e.Outcome != OutcomeNone {
		s += " (" + string(e.Outcome) + ")"
	}
	return s
}
