package match

import (
	"math"

	"pitchside/internal/roster"
)

var (
	wingerStyle  = style{passUrge: 0.25, dribble: 0.45, shootScale: 0.9, pressWeight: 0.8}
	strikerStyle = style{passUrge: 0.2, dribble: 0.35, shootScale: 1.3, pressWeight: 0.7}
)

const (
	wideLaneInset = 4.0  // Wingers hold this close to the touchline
	cutInsideX    = 18.0 // Distance from goal at which a winger cuts in
	onsideMargin  = 1.0  // Strikers wait this far short of the defensive line
	maxRunAhead   = 30.0 // ...but never further than this beyond the ball
)

// winger stretches play on the flank and cuts inside near the box.
type winger struct{}

func (winger) Decide(s *Situation) Action {
	me := s.Me()
	if s.HasBall() {
		rel := s.Rel(me.Pos)
		if s.Snap.SetPiece == RestartNone && s.Pitch.HalfLength()-rel.X < cutInsideX && math.Abs(rel.Y) > s.Pitch.PenaltyWidth/2 {
			// Cut inside toward the far post.
			if p, aim := shotChance(s); s.roll(p * wingerStyle.shootScale) {
				return ShootAt(aim, 0)
			}
			if opt, ok := bestPass(s); ok && opt.score > passThreshold && s.roll(0.5) {
				return PassTo(opt.receiver, opt.target)
			}
			in := Vec2{s.Pitch.HalfLength() - cutInsideX/2, math.Copysign(s.Pitch.GoalAreaWidth/2, -rel.Y)}
			return DribbleTo(s.Pitch.ClampField(s.Abs(in), fieldMargin), 0.9)
		}
		return onBall(s, wingerStyle)
	}

	b := s.Ball()
	if s.TeamHasBall() && b.Receiver != s.Self && s.Anchor.Y != 0 {
		home := s.Rel(s.Home())
		home.Y = math.Copysign(s.Pitch.HalfWidth()-wideLaneInset, s.Anchor.Y)
		return MoveTo(s.Pitch.ClampField(s.Abs(home), fieldMargin), 0.8, IntentSupporting)
	}
	return offBall(s, wingerStyle)
}

// striker leads the line: runs in behind, finishes chances and presses the
// first defender.
type striker struct{}

func (striker) Decide(s *Situation) Action {
	if s.HasBall() {
		return onBall(s, strikerStyle)
	}
	b := s.Ball()
	if s.TeamHasBall() && b.Receiver != s.Self {
		return MoveTo(runInBehind(s), 0.9, IntentSupporting)
	}
	return offBall(s, strikerStyle)
}

// runInBehind targets the space on the shoulder of the last outfield
// defender, ready to run onto a through ball.
func runInBehind(s *Situation) Vec2 {
	me := s.Me()
	last := math.Inf(-1)
	lo, hi := teamRange(me.Side.Opponent())
	for i := lo; i < hi; i++ {
		if s.Snap.Players[i].Role == roster.Goalkeeper {
			continue
		}
		last = math.Max(last, s.Rel(s.Snap.Players[i].Pos).X)
	}
	ball := s.Rel(s.Ball().Pos)
	target := s.Rel(s.Home())
	line := math.Max(last, ball.X)
	target.X = math.Min(line-onsideMargin, ball.X+maxRunAhead)
	target.X = math.Max(target.X, ball.X-5)
	return findSpaceNear(s, s.Pitch.ClampField(s.Abs(target), fieldMargin+1))
}
