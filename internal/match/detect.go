package match

import (
	"math"

	"pitchside/internal/roster"
)

// Detect derives events from the state before and after one tick of play.
// It is a pure function of its inputs: the engine calls it after physics,
// and tests can call it on hand-built snapshots.
func Detect(pitch Pitch, pre, post *Snapshot) []Event {
	var out []Event
	emit := func(t EventType, side Side, actor, secondary int, pos Vec2, outcome Outcome) {
		out = append(out, Event{
			Tick: post.Tick, Clock: post.Clock, Half: post.Half,
			Type: t, Side: side, Actor: actor, Secondary: secondary, Pos: pos, Outcome: outcome,
		})
	}

	// Tackles, won or missed.
	tackleWon := NoPlayer
	for i := range post.Players {
		pl := &post.Players[i]
		switch pl.Tackle {
		case TackleWon:
			tackleWon = i
			emit(EventTackle, pl.Side, i, pre.Ball.Possessor, pl.Pos, OutcomeWon)
		case TackleMissed:
			emit(EventTackle, pl.Side, i, pre.Ball.Possessor, pl.Pos, OutcomeMissed)
		}
	}

	for _, f := range post.Fouls {
		emit(EventFoul, SideOf(f.Offender), f.Offender, f.Victim, f.Pos, OutcomeNone)
	}

	// Shot struck this tick.
	b := &post.Ball
	if b.Kick == KickShot && b.KickTick == post.Tick && b.Kicker >= 0 {
		kicker := &post.Players[b.Kicker]
		outcome := OutcomeOffTarget
		if y, ok := pitch.goalLineCrossing(b.Pos, b.Vel); ok &&
			math.Abs(y) <= pitch.GoalWidth/2 && math.Signbit(b.Vel.X) == math.Signbit(kicker.Side.Attack()) {
			outcome = OutcomeOnTarget
		}
		emit(EventShot, kicker.Side, b.Kicker, NoPlayer, kicker.Pos, outcome)
	}

	// A change of possession that was not a tackle ends a kick: completed
	// pass, interception or save.
	now := b.Possessor
	if now >= 0 && now != pre.Ball.Possessor && now != tackleWon && b.Kick != KickNone && b.Kicker >= 0 && b.Kicker != now {
		receiver := &post.Players[now]
		kickerSide := SideOf(b.Kicker)
		switch {
		case receiver.Side == kickerSide && b.Kick == KickPass:
			emit(EventPass, kickerSide, b.Kicker, now, receiver.Pos, OutcomeCompleted)
		case receiver.Side != kickerSide && b.Kick == KickShot && receiver.Role == roster.Goalkeeper:
			emit(EventSave, receiver.Side, now, b.Kicker, receiver.Pos, OutcomeNone)
		case receiver.Side != kickerSide:
			emit(EventInterception, receiver.Side, now, b.Kicker, receiver.Pos, Outcome(b.Kick.String()))
		}
	}

	// Goal or ball out of play.
	if pitch.InBounds(pre.Ball.Pos) && !pitch.InBounds(b.Pos) {
		if side, ok := pitch.GoalScoredBy(b.Pos); ok {
			scorer, outcome := goalScorer(post, side)
			emit(EventGoal, side, scorer, NoPlayer, b.Pos, outcome)
		} else {
			side, outcome := restartFor(pitch, pre.Ball.Pos, b.Pos, b.LastTouch)
			emit(EventOutOfPlay, side, b.LastTouch, NoPlayer, b.Pos, outcome)
		}
	}

	return out
}

// goalScorer credits the shooter when their side scored, otherwise the last
// player to touch the ball.
func goalScorer(s *Snapshot, scoring Side) (int, Outcome) {
	b := &s.Ball
	if b.Kick == KickShot && b.Kicker >= 0 && SideOf(b.Kicker) == scoring {
		return b.Kicker, OutcomeGoal
	}
	if b.LastTouch >= 0 && SideOf(b.LastTouch) != scoring {
		return b.LastTouch, OutcomeOwnGoal
	}
	return b.LastTouch, OutcomeGoal
}

// restartFor decides which line the ball crossed between from and to and
// the restart it earns: a throw-in against the side that last touched it,
// a corner if the defenders put it over their own goal line, otherwise a
// goal kick. The returned side takes the restart.
func restartFor(pitch Pitch, from, to Vec2, lastTouch int) (Side, Outcome) {
	touched := Home
	if lastTouch >= 0 {
		touched = SideOf(lastTouch)
	}

	if crossedTouchline(pitch, from, to) {
		return touched.Opponent(), OutcomeThrowIn
	}

	defending := Away // the +x goal line belongs to the away side
	if to.X < 0 {
		defending = Home
	}
	if lastTouch >= 0 && touched == defending {
		return defending.Opponent(), OutcomeCorner
	}
	return defending, OutcomeGoalKick
}

// crossedTouchline reports whether the segment from-to left the field over
// a touchline before (or without) crossing a goal line.
func crossedTouchline(pitch Pitch, from, to Vec2) bool {
	outY := math.Abs(to.Y) > pitch.HalfWidth()
	outX := math.Abs(to.X) > pitch.HalfLength()
	if !outX {
		return outY
	}
	if !outY {
		return false
	}
	d := to.Sub(from)
	tx := (pitch.HalfLength() - math.Abs(from.X)) / math.Max(math.Abs(d.X), 1e-9)
	ty := (pitch.HalfWidth() - math.Abs(from.Y)) / math.Max(math.Abs(d.Y), 1e-9)
	return ty < tx
}
