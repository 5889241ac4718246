package match

import "math"

const (
	keeperRushRange = 14.0 // Loose balls this close to goal are claimed
	keeperRushSpeed = 6.0  // ...if slower than this
	keeperMaxOut    = 6.0
	keeperHold      = 1.5 // Average seconds the ball is held before distributing
)

// goalkeeper guards the line between ball and goal, rushes loose balls in
// the box and distributes to the safest outlet.
type goalkeeper struct{}

func (goalkeeper) Decide(s *Situation) Action {
	me := s.Me()
	b := s.Ball()
	own := s.Pitch.OwnGoal(me.Side)

	if s.HasBall() {
		return distribute(s)
	}

	// A shot at goal: get across to where it will cross the line.
	if b.Possessor == NoPlayer && b.Kick == KickShot && b.Kicker >= 0 && SideOf(b.Kicker) != me.Side {
		if y, ok := s.Pitch.goalLineCrossing(b.Pos, b.Vel); ok && math.Signbit(b.Vel.X) == math.Signbit(own.X) {
			y = clamp(y, -s.Pitch.GoalWidth/2-1, s.Pitch.GoalWidth/2+1)
			return MoveTo(s.Abs(Vec2{-s.Pitch.HalfLength() + 1, s.Rel(Vec2{0, y}).Y}), 1, IntentRecovering)
		}
	}

	// Claim loose balls near goal.
	if b.Possessor == NoPlayer && b.Pos.Dist(own) < keeperRushRange && b.Vel.Len() < keeperRushSpeed &&
		s.Pitch.InPenaltyArea(b.Pos, me.Side) {
		return MoveTo(interceptPoint(s, s.Self), 1, IntentRecovering)
	}

	// Stand on the line from goal centre to the ball.
	toBall := b.Pos.Sub(own)
	out := math.Min(keeperMaxOut, 0.12*toBall.Len())
	target := own.Add(toBall.Norm().Scale(out))
	if toBall.Len() < 1e-6 {
		target = s.Home()
	}
	return MoveTo(target, 0.8, IntentMovingToPosition)
}

// distribute releases the ball: a short outlet when one is open, otherwise
// a long clearance.
func distribute(s *Situation) Action {
	if s.Snap.SetPiece != RestartNone {
		return takeSetPiece(s)
	}
	opt, ok := bestPass(s)
	if ok && opt.lane > 0.6 && opt.score > passThreshold*0.8 {
		return PassTo(opt.receiver, opt.target)
	}
	pressed := nearestOpponent(s.Snap, s.Side(), s.Me().Pos) <= pressureDistance*2
	if pressed || s.roll(decisionRef/keeperHold) {
		if ok && opt.lane > 0.3 {
			return PassTo(opt.receiver, opt.target)
		}
		return clearance(s)
	}
	return Idle()
}
