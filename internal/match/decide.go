package match

import (
	"math"
	"math/rand/v2"

	"pitchside/internal/roster"
)

// Situation is everything a role sees when deciding. It is built from the
// tick's immutable snapshot; nothing in it may be written.
type Situation struct {
	Snap          *Snapshot
	Self          int
	Skills        roster.Skills
	Anchor        Vec2 // Base position in the team's own frame
	Tactics       roster.Tactics
	Pressing      float64 // Effective pressing intensity
	PressDistance float64
	Pitch         Pitch
	Rand          *rand.Rand
	Dt            float64 // Seconds per tick
}

// Decider is role-specific decision logic.
type Decider interface {
	Decide(sit *Situation) Action
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(sit *Situation) Action

func (f DeciderFunc) Decide(sit *Situation) Action { return f(sit) }

// Director overrides role decisions for scripted runs. Returning false
// leaves the decision to the role.
type Director interface {
	Direct(sit *Situation) (Action, bool)
}

// DirectorFunc adapts a function to Director.
type DirectorFunc func(sit *Situation) (Action, bool)

func (f DirectorFunc) Direct(sit *Situation) (Action, bool) { return f(sit) }

var deciders = [...]Decider{
	roster.Goalkeeper: goalkeeper{},
	roster.CentreBack: centreBack{},
	roster.FullBack:   fullBack{},
	roster.Midfielder: midfielder{},
	roster.Winger:     winger{},
	roster.Striker:    striker{},
}

// DeciderFor returns the decision logic for role.
func DeciderFor(role roster.Role) Decider {
	if int(role) < len(deciders) {
		return deciders[role]
	}
	return midfielder{}
}

func (s *Situation) Me() *PlayerSnapshot { return &s.Snap.Players[s.Self] }
func (s *Situation) Side() Side          { return s.Me().Side }
func (s *Situation) Ball() *BallSnapshot { return &s.Snap.Ball }
func (s *Situation) HasBall() bool       { return s.Snap.Ball.Possessor == s.Self }

// TeamHasBall reports whether a teammate (or the player) has the ball.
func (s *Situation) TeamHasBall() bool {
	side, ok := s.Snap.PossessingSide()
	return ok && side == s.Side()
}

// OpponentHasBall reports whether the other side has the ball.
func (s *Situation) OpponentHasBall() bool {
	side, ok := s.Snap.PossessingSide()
	return ok && side != s.Side()
}

// Rel converts a pitch point into the player's own frame.
func (s *Situation) Rel(v Vec2) Vec2 { return Relative(s.Side(), v) }

// Abs converts a point in the player's own frame to pitch coordinates.
func (s *Situation) Abs(v Vec2) Vec2 { return Relative(s.Side(), v) }

// roll succeeds with probability p per decisionRef of simulated time,
// so behaviour does not depend on the tick rate.
func (s *Situation) roll(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.Rand.Float64() < 1-math.Pow(1-p, s.Dt/decisionRef)
}

// decisionRef is the interval probabilities in role logic are quoted for.
const decisionRef = 0.1

// Home is the player's positional target this tick.
func (s *Situation) Home() Vec2 {
	me := s.Me()
	return positionalTarget(s.Pitch, me.Side, me.Role, s.Anchor, s.Ball().Pos,
		s.Tactics.Line(), s.Tactics.WidthPreference(), s.TeamHasBall())
}

// ===== SHOOTING =====

const (
	shotRangeBase     = 25.0
	shotRangeBonus    = 15.0
	longRange         = 20.0
	minShotAngle      = 0.3 // Share of 30 degrees of visible goal mouth
	shotProbability   = 0.2
	shotPostMargin    = 0.8
	minShotAngleScale = 30.0
)

// shotAngleQuality is the visible goal mouth in units of 30 degrees, capped at 1.
func shotAngleQuality(pitch Pitch, from, goal Vec2) float64 {
	half := pitch.GoalWidth / 2
	a := Vec2{goal.X, goal.Y + half}.Sub(from).Norm()
	b := Vec2{goal.X, goal.Y - half}.Sub(from).Norm()
	deg := math.Acos(clamp(a.Dot(b), -1, 1)) * 180 / math.Pi
	return math.Min(1, deg/minShotAngleScale)
}

// shotChance returns the per-decision chance of shooting from the current
// spot and where to aim. Zero means out of range or no angle.
func shotChance(s *Situation) (float64, Vec2) {
	me := s.Me()
	goal := s.Pitch.TargetGoal(me.Side)
	d := me.Pos.Dist(goal)
	maxD := shotRangeBase + shotRangeBonus*s.Skills.Shooting
	if d > maxD {
		return 0, goal
	}
	if d > longRange && shotAngleQuality(s.Pitch, me.Pos, goal) < minShotAngle {
		return 0, goal
	}

	// Aim for the post further from the goalkeeper.
	aimY := s.Pitch.GoalWidth/2 - shotPostMargin
	if gk := keeperOf(s.Snap, me.Side.Opponent()); gk >= 0 && s.Snap.Players[gk].Pos.Y > 0 {
		aimY = -aimY
	}
	p := (1 - d/maxD) * s.Skills.Shooting * shotProbability
	return p, Vec2{goal.X, aimY}
}

func keeperOf(snap *Snapshot, side Side) int {
	lo, hi := teamRange(side)
	for i := lo; i < hi; i++ {
		if snap.Players[i].Role == roster.Goalkeeper {
			return i
		}
	}
	return NoPlayer
}

// ===== PASSING =====

const (
	passRangeBase     = 30.0
	passRangeBonus    = 30.0
	minPassDistance   = 5.0
	laneBlockDistance = 5.0
	passLaneWeight    = 0.35
	passDistWeight    = 0.15
	passProgWeight    = 0.5
	passThreshold     = 0.3
	pressureDistance  = 4.0
	releaseSpace      = 3.0
	progressiveGain   = 5.0
	progressScale     = 30.0 // Metres of gain toward goal worth a full progress score
	backPassSlack     = 3.0  // Unpressed carriers never give up more ground than this
)

type passOption struct {
	receiver    int
	target      Vec2
	score       float64
	lane        float64
	progressive bool
}

// laneQuality is 1 for an open lane, shrinking as opponents stand close to it.
func laneQuality(snap *Snapshot, side Side, from, to Vec2) float64 {
	if from.Dist(to) < 0.1 {
		return 0
	}
	q := 1.0
	lo, hi := teamRange(side.Opponent())
	for i := lo; i < hi; i++ {
		opp := snap.Players[i].Pos
		d, t := segmentDistance(opp, from, to)
		if t > 0 && t < 1 && d < laneBlockDistance {
			q *= d / laneBlockDistance
		}
	}
	return q
}

// nearestOpponent returns the distance to the closest opponent of side.
func nearestOpponent(snap *Snapshot, side Side, at Vec2) float64 {
	best := math.Inf(1)
	lo, hi := teamRange(side.Opponent())
	for i := lo; i < hi; i++ {
		best = math.Min(best, snap.Players[i].Pos.Dist(at))
	}
	return best
}

// leadPoint is where a pass to idx should be aimed so it meets the runner.
func leadPoint(s *Situation, idx int) Vec2 {
	pl := &s.Snap.Players[idx]
	d := s.Ball().Pos.Dist(pl.Pos)
	travel := d / math.Max(1, 0.6*PassPower(d))
	return s.Pitch.ClampField(pl.Pos.Add(pl.Vel.Scale(travel)), 1)
}

// bestPass scores every teammate in range and returns the best option.
// Progress toward goal dominates the score. Without pressure a carrier
// does not consider passes that lose ground.
func bestPass(s *Situation) (passOption, bool) {
	me := s.Me()
	goal := s.Pitch.TargetGoal(me.Side)
	maxD := passRangeBase + passRangeBonus*s.Skills.Passing
	underPressure := nearestOpponent(s.Snap, me.Side, me.Pos) <= pressureDistance
	vision := 0.55 + 0.45*s.Skills.Vision
	myGoalDist := me.Pos.Dist(goal)

	best := passOption{receiver: NoPlayer, score: math.Inf(-1)}
	lo, hi := teamRange(me.Side)
	for i := lo; i < hi; i++ {
		if i == s.Self {
			continue
		}
		target := leadPoint(s, i)
		d := me.Pos.Dist(target)
		if d > maxD || d < minPassDistance {
			continue
		}
		gain := myGoalDist - target.Dist(goal)
		if gain < -backPassSlack && !underPressure {
			continue
		}
		lane := laneQuality(s.Snap, me.Side, s.Ball().Pos, target)

		prog := clamp(gain/progressScale, 0, 1)
		mult := 1.0
		if nearestOpponent(s.Snap, me.Side, target) < releaseSpace {
			mult *= 0.5
		} else if underPressure {
			mult *= 1.15
		}

		score := (passLaneWeight*lane + passDistWeight*(1-d/maxD) + passProgWeight*prog) * mult * vision
		if score > best.score {
			best = passOption{receiver: i, target: target, score: score, lane: lane, progressive: gain > progressiveGain}
		}
	}
	return best, best.receiver != NoPlayer
}

// ===== MOVEMENT =====

const (
	spaceRadius   = 15.0
	spaceStep     = math.Pi / 6
	dribbleStride = 8.0
	fieldMargin   = 2.0
	markGoalSide  = 2.0
	markRange     = 20.0
	carryEffort   = 0.7 // Pace of an unhurried carry into space
)

// crowding sums inverse distances to opponents; higher is more crowded.
func crowding(snap *Snapshot, side Side, at Vec2) float64 {
	var c float64
	lo, hi := teamRange(side.Opponent())
	for i := lo; i < hi; i++ {
		c += 1 / math.Max(1, snap.Players[i].Pos.Dist(at))
	}
	return c
}

// findSpace looks for the least crowded point near around, favouring
// forward progress.
func findSpace(s *Situation, around Vec2) Vec2 {
	side := s.Side()
	best, bestScore := s.Pitch.ClampField(around, fieldMargin), math.Inf(-1)
	for _, r := range [...]float64{spaceRadius / 3, spaceRadius} {
		for a := 0.0; a < 2*math.Pi-1e-9; a += spaceStep {
			p := s.Pitch.ClampField(around.Add(Vec2{r, 0}.Rotate(a)), fieldMargin)
			score := -crowding(s.Snap, side, p) + 0.01*Relative(side, p).X - 0.01*p.Dist(around)
			if score > bestScore {
				best, bestScore = p, score
			}
		}
	}
	return best
}

// dribbleTarget picks the least crowded heading within 60 degrees of the
// attack direction.
func dribbleTarget(s *Situation) Vec2 {
	me := s.Me()
	goal := s.Pitch.TargetGoal(me.Side)
	ahead := goal.Sub(me.Pos).Norm()
	best, bestScore := me.Pos, math.Inf(-1)
	for a := -math.Pi / 3; a <= math.Pi/3+1e-9; a += math.Pi / 6 {
		p := s.Pitch.ClampField(me.Pos.Add(ahead.Rotate(a).Scale(dribbleStride)), fieldMargin)
		score := -crowding(s.Snap, me.Side, p) - 0.05*p.Dist(goal)/dribbleStride
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	return best
}

// interceptPoint is the first point on the ball's path the player can reach
// in time, or where the ball comes to rest.
func interceptPoint(s *Situation, idx int) Vec2 {
	b := s.Ball()
	pos, vel := b.Pos, b.Vel
	me := &s.Snap.Players[idx]
	top := MaxSpeed(s.Skills, me.Stamina)
	const step = 0.2
	for t := step; t <= 4; t += step {
		speed := vel.Len()
		pos = pos.Add(vel.Scale(step))
		next := speed - (rollDecel+airDrag*speed)*step
		if next <= ballStopSpeed {
			break
		}
		vel = vel.Scale(next / speed)
		if me.Pos.Dist(pos) <= top*t {
			break
		}
	}
	return s.Pitch.ClampRunOff(pos)
}

// closestTo returns the player of side nearest to at (lowest index on
// ties), optionally skipping goalkeepers.
func closestTo(snap *Snapshot, side Side, at Vec2, outfieldOnly bool) int {
	best, bestD := NoPlayer, math.Inf(1)
	lo, hi := teamRange(side)
	for i := lo; i < hi; i++ {
		if outfieldOnly && snap.Players[i].Role == roster.Goalkeeper {
			continue
		}
		if d := snap.Players[i].Pos.Dist(at); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// markTarget picks the most threatening opponent near the player's home.
func markTarget(s *Situation, home Vec2) int {
	side := s.Side()
	own := s.Pitch.OwnGoal(side)
	ball := s.Ball().Pos
	best, bestThreat := NoPlayer, 0.0
	lo, hi := teamRange(side.Opponent())
	for i := lo; i < hi; i++ {
		opp := &s.Snap.Players[i]
		if opp.Role == roster.Goalkeeper || i == s.Ball().Possessor {
			continue
		}
		d := opp.Pos.Dist(home)
		if d > markRange {
			continue
		}
		threat := 0.4*(1-d/markRange) +
			0.3*(1-clamp(opp.Pos.Dist(own)/s.Pitch.Length, 0, 1)) +
			0.3*(1-clamp(opp.Pos.Dist(ball)/s.Pitch.Length, 0, 1))
		if threat > bestThreat {
			best, bestThreat = i, threat
		}
	}
	return best
}

// markPoint stands goal-side of opponent idx.
func markPoint(s *Situation, idx int) Vec2 {
	opp := s.Snap.Players[idx].Pos
	own := s.Pitch.OwnGoal(s.Side())
	return opp.Add(own.Sub(opp).Norm().Scale(markGoalSide))
}

// ===== SHARED BEHAVIOUR =====

// style tunes the shared on-ball logic per role.
type style struct {
	passUrge    float64 // Per-decision chance of taking a good pass
	dribble     float64 // Per-decision chance of carrying instead of waiting
	shootScale  float64
	clearDeep   bool // Clear the ball under pressure in the own third
	pressWeight float64
}

// onBall is the possessor's decision: set piece, shot, pass, clearance or
// dribble, in that order of preference.
func onBall(s *Situation, st style) Action {
	if s.Snap.SetPiece != RestartNone {
		return takeSetPiece(s)
	}
	me := s.Me()

	if p, aim := shotChance(s); s.roll(p * st.shootScale) {
		return ShootAt(aim, 0)
	}

	pressed := nearestOpponent(s.Snap, me.Side, me.Pos) <= pressureDistance
	opt, ok := bestPass(s)
	// Unpressed carriers only release the ball forward; otherwise they run
	// with it.
	if ok && opt.score > passThreshold && (opt.progressive || pressed) {
		urge := st.passUrge
		if pressed {
			urge = math.Min(1, urge*2)
		}
		if s.roll(urge) {
			return PassTo(opt.receiver, opt.target)
		}
	}

	if st.clearDeep && pressed && s.Rel(me.Pos).X < -s.Pitch.Length/6 {
		return clearance(s)
	}
	if pressed && ok && opt.lane > 0.5 {
		return PassTo(opt.receiver, opt.target)
	}
	effort := carryEffort
	if pressed || s.roll(st.dribble) {
		effort = 0.9
	}
	return DribbleTo(dribbleTarget(s), effort)
}

// clearance boots the ball long and wide, away from goal.
func clearance(s *Situation) Action {
	me := s.Me()
	y := s.Pitch.HalfWidth() * 0.6
	if me.Pos.Y < 0 {
		y = -y
	}
	target := s.Abs(Vec2{s.Pitch.HalfLength() * 0.2, s.Rel(Vec2{0, y}).Y})
	return Clear(s.Pitch.ClampField(target, fieldMargin), clearancePower)
}

// takeSetPiece plays the ball from a dead-ball restart.
func takeSetPiece(s *Situation) Action {
	me := s.Me()
	switch s.Snap.SetPiece {
	case RestartCorner:
		spot := s.Abs(Vec2{s.Pitch.HalfLength() - 11, (s.Rand.Float64() - 0.5) * 8})
		return Clear(spot, math.Min(MaxKickPower, PassPower(me.Pos.Dist(spot))))
	case RestartKickoff:
		// Kick off to the nearest teammate.
		mate := NoPlayer
		bestD := math.Inf(1)
		lo, hi := teamRange(me.Side)
		for i := lo; i < hi; i++ {
			if d := s.Snap.Players[i].Pos.Dist(me.Pos); i != s.Self && d < bestD {
				mate, bestD = i, d
			}
		}
		return PassTo(mate, s.Snap.Players[mate].Pos)
	}
	if opt, ok := bestPass(s); ok {
		return PassTo(opt.receiver, opt.target)
	}
	return clearance(s)
}

// offBall is the shared reaction when the player does not have the ball.
func offBall(s *Situation, st style) Action {
	me := s.Me()
	b := s.Ball()
	home := s.Home()

	// An incoming pass: go and meet it.
	if b.Possessor == NoPlayer && b.Receiver == s.Self {
		return MoveTo(interceptPoint(s, s.Self), 1, IntentSupporting)
	}

	if b.Possessor == NoPlayer {
		if closestTo(s.Snap, me.Side, b.Pos, true) == s.Self {
			return MoveTo(interceptPoint(s, s.Self), 1, IntentRecovering)
		}
		return MoveTo(home, 0.7, IntentMovingToPosition)
	}

	if s.TeamHasBall() {
		if me.Pos.Dist(b.Pos) < 25 {
			return MoveTo(findSpace(s, home), 0.85, IntentSupporting)
		}
		return MoveTo(home, 0.85, IntentMovingToPosition)
	}

	// Opponent in possession.
	carrier := b.Possessor
	cpos := s.Snap.Players[carrier].Pos
	d := me.Pos.Dist(cpos)
	if st.pressWeight > 0 && s.Snap.SetPiece == RestartNone && d <= s.PressDistance*st.pressWeight &&
		s.Pressing > 0 && me.Stamina >= 0.3 {
		if d <= tackleRange && me.TackleCooldown == 0 {
			return TackleOn(carrier, cpos)
		}
		return MoveTo(cpos, 1, IntentPressing)
	}
	if mark := markTarget(s, home); mark != NoPlayer {
		return MoveTo(markPoint(s, mark), 0.85, IntentMarking)
	}
	if me.Intent == IntentDispossessed || me.Intent == IntentRecovering {
		return MoveTo(home, 1, IntentRecovering)
	}
	return MoveTo(home, 0.8, IntentMovingToPosition)
}
