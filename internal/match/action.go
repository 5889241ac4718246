package match

import (
	"fmt"
	"math"
)

// ActionKind is the physical action a player attempts this tick.
type ActionKind uint8

const (
	ActIdle ActionKind = iota
	ActMove
	ActDribble
	ActPass
	ActShoot
	ActTackle
	actionKindCount
)

var actionNames = [...]string{"idle", "move", "dribble", "pass", "shoot", "tackle"}

func (k ActionKind) String() string {
	if k < actionKindCount {
		return actionNames[k]
	}
	return fmt.Sprintf("ActionKind(%d)", k)
}

// MarshalText encodes the action name.
func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Kicking actions need the ball.
func (k ActionKind) needsBall() bool {
	return k == ActDribble || k == ActPass || k == ActShoot
}

// MaxKickPower caps ball speed off the boot, m/s.
const MaxKickPower = 35.0

// Action is one player's proposal for a tick. Role AI builds it from a read-only
// snapshot; only the engine turns it into state changes.
type Action struct {
	Kind   ActionKind
	Intent Intent
	Target Vec2    // Move/dribble destination, pass or shot target, tackle point
	Effort float64 // 0..1 share of current top speed
	Other  int     // Pass receiver (-1 for a clearance) or tackled carrier
	Power  float64 // Kick speed in m/s; 0 lets physics choose
}

// Idle stands still.
func Idle() Action {
	return Action{Kind: ActIdle, Intent: IntentIdle, Other: -1}
}

// MoveTo runs toward target.
func MoveTo(target Vec2, effort float64, intent Intent) Action {
	return Action{Kind: ActMove, Intent: intent, Target: target, Effort: effort, Other: -1}
}

// DribbleTo carries the ball toward target.
func DribbleTo(target Vec2, effort float64) Action {
	return Action{Kind: ActDribble, Intent: IntentInPossession, Target: target, Effort: effort, Other: -1}
}

// PassTo plays the ball to receiver at target (a lead point).
func PassTo(receiver int, target Vec2) Action {
	return Action{Kind: ActPass, Intent: IntentInPossession, Target: target, Other: receiver}
}

// Clear kicks the ball toward target with no receiver.
func Clear(target Vec2, power float64) Action {
	return Action{Kind: ActPass, Intent: IntentInPossession, Target: target, Other: -1, Power: power}
}

// ShootAt strikes at target.
func ShootAt(target Vec2, power float64) Action {
	return Action{Kind: ActShoot, Intent: IntentInPossession, Target: target, Other: -1, Power: power}
}

// TackleOn challenges carrier.
func TackleOn(carrier int, at Vec2) Action {
	return Action{Kind: ActTackle, Intent: IntentPressing, Target: at, Effort: 1, Other: carrier}
}

// sanitize checks a proposal against physical constraints. An invalid
// proposal is replaced by Idle and reported; it never aborts the tick.
func sanitize(a Action, s *Snapshot, idx int, pitch Pitch) (Action, error) {
	reject := func(reason string) (Action, error) {
		return Idle(), &InvalidActionError{Tick: s.Tick, Player: idx, Kind: a.Kind, Reason: reason}
	}

	if a.Kind >= actionKindCount {
		return reject("unknown action kind")
	}
	if a.Intent >= intentCount {
		return reject("unknown intent")
	}
	if !a.Target.IsFinite() {
		return reject("target is not finite")
	}
	limit := Vec2{pitch.HalfLength() + pitch.RunOff + 2, pitch.HalfWidth() + pitch.RunOff + 2}
	if a.Kind != ActIdle && (math.Abs(a.Target.X) > limit.X || math.Abs(a.Target.Y) > limit.Y) {
		return reject("target outside the pitch")
	}
	if math.IsNaN(a.Effort) || a.Effort < 0 || a.Effort > 1 {
		return reject("effort outside [0, 1]")
	}
	if math.IsNaN(a.Power) || a.Power < 0 || a.Power > MaxKickPower {
		return reject("kick power out of range")
	}

	self := &s.Players[idx]
	hasBall := s.Ball.Possessor == idx
	if a.Kind.needsBall() && !hasBall {
		return reject(a.Kind.String() + " without the ball")
	}
	if a.Intent == IntentDispossessed {
		return reject("dispossessed is not a choice")
	}
	if a.Intent == IntentInPossession && !hasBall {
		return reject("in_possession without the ball")
	}

	switch a.Kind {
	case ActPass:
		if a.Other != -1 {
			if a.Other < 0 || a.Other >= NumPlayers || a.Other == idx {
				return reject("invalid pass receiver")
			}
			if s.Players[a.Other].Side != self.Side {
				return reject("pass receiver is an opponent")
			}
		}
	case ActTackle:
		if a.Other < 0 || a.Other >= NumPlayers || a.Other != s.Ball.Possessor {
			return reject("tackle target does not have the ball")
		}
		if s.Players[a.Other].Side == self.Side {
			return reject("tackle on a teammate")
		}
		if self.TackleCooldown > 0 {
			return reject("tackle while recovering from the last one")
		}
	}

	// A set piece is taken from a dead ball: the taker may only kick and
	// nobody may challenge until the ball is in play.
	if s.SetPiece != RestartNone {
		switch {
		case hasBall && (a.Kind == ActMove || a.Kind == ActDribble):
			a = Idle()
		case a.Kind == ActTackle:
			a = MoveTo(a.Target, a.Effort, IntentPressing)
		}
	}

	if hasBall {
		a.Intent = IntentInPossession
	}
	return a, nil
}
