package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// Intent is what a player is currently trying to do.
type Intent uint8

const (
	IntentIdle Intent = iota
	IntentMovingToPosition
	IntentInPossession
	IntentPressing
	IntentMarking
	IntentSupporting
	IntentRecovering
	IntentDispossessed
	intentCount
)

var intentNames = [...]string{
	"idle", "moving_to_position", "in_possession", "pressing",
	"marking", "supporting", "recovering", "dispossessed",
}

func (i Intent) String() string {
	if i < intentCount {
		return intentNames[i]
	}
	return fmt.Sprintf("Intent(%d)", i)
}

// MarshalText encodes the intent name.
func (i Intent) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func parseIntent(name string) Intent {
	for i, n := range intentNames {
		if n == name {
			return Intent(i)
		}
	}
	return IntentIdle
}

// Intent machine events. gain/lose/release come from physics; the rest
// are requested by role decisions.
const (
	evGain     = "gain"
	evLose     = "lose"
	evRelease  = "release"
	evRecover  = "recover"
	evIdle     = "idle"
	evPosition = "position"
	evPress    = "press"
	evMark     = "mark"
	evSupport  = "support"
	evReset    = "reset"
)

var offBallStates = []string{
	IntentIdle.String(), IntentMovingToPosition.String(), IntentPressing.String(),
	IntentMarking.String(), IntentSupporting.String(), IntentRecovering.String(),
}

var intentEvents = fsm.Events{
	{Name: evGain, Src: append(offBallStates[:len(offBallStates):len(offBallStates)], IntentDispossessed.String()), Dst: IntentInPossession.String()},
	{Name: evLose, Src: []string{IntentInPossession.String()}, Dst: IntentDispossessed.String()},
	{Name: evRelease, Src: []string{IntentInPossession.String()}, Dst: IntentSupporting.String()},
	{Name: evRecover, Src: append(offBallStates[:len(offBallStates):len(offBallStates)], IntentDispossessed.String()), Dst: IntentRecovering.String()},
	{Name: evIdle, Src: offBallStates, Dst: IntentIdle.String()},
	{Name: evPosition, Src: offBallStates, Dst: IntentMovingToPosition.String()},
	{Name: evPress, Src: offBallStates, Dst: IntentPressing.String()},
	{Name: evMark, Src: offBallStates, Dst: IntentMarking.String()},
	{Name: evSupport, Src: offBallStates, Dst: IntentSupporting.String()},
	{Name: evReset, Src: intentNames[:], Dst: IntentIdle.String()},
}

// requestEvent maps an off-ball intent proposed by a role to its event.
var requestEvent = map[Intent]string{
	IntentIdle:             evIdle,
	IntentMovingToPosition: evPosition,
	IntentPressing:         evPress,
	IntentMarking:          evMark,
	IntentSupporting:       evSupport,
	IntentRecovering:       evRecover,
}

// intentMachine wraps the per-player state machine and the dispossessed
// countdown.
type intentMachine struct {
	fsm             *fsm.FSM
	dispossessedFor int
}

func newIntentMachine() *intentMachine {
	return &intentMachine{
		fsm: fsm.NewFSM(IntentIdle.String(), intentEvents, fsm.Callbacks{}),
	}
}

func (m *intentMachine) Current() Intent {
	return parseIntent(m.fsm.Current())
}

// fire applies event. Staying in the same state is not an error.
func (m *intentMachine) fire(ctx context.Context, event string) error {
	err := m.fsm.Event(ctx, event)
	if err == nil {
		if m.Current() == IntentDispossessed {
			m.dispossessedFor = 0
		}
		return nil
	}
	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		return nil
	}
	return err
}

// request tries a role-driven intent. Requests the current state forbids
// (for example pressing while dispossessed) are refused silently.
func (m *intentMachine) request(ctx context.Context, intent Intent) {
	event, ok := requestEvent[intent]
	if !ok || m.Current() == IntentDispossessed {
		return
	}
	_ = m.fire(ctx, event)
}

// tick advances the dispossessed countdown and releases the player into
// Recovering once limit ticks have passed.
func (m *intentMachine) tick(ctx context.Context, limit int) error {
	if m.Current() != IntentDispossessed {
		return nil
	}
	m.dispossessedFor++
	if m.dispossessedFor >= limit {
		return m.fire(ctx, evRecover)
	}
	return nil
}

// reset puts the player back to Idle, used at restarts.
func (m *intentMachine) reset(ctx context.Context) {
	_ = m.fire(ctx, evReset)
	m.dispossessedFor = 0
}
