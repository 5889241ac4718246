package match

import (
	"math"

	"pitchside/internal/roster"
)

var (
	centreBackStyle = style{passUrge: 0.35, dribble: 0.05, shootScale: 0.3, clearDeep: true, pressWeight: 0.6}
	fullBackStyle   = style{passUrge: 0.3, dribble: 0.15, shootScale: 0.4, clearDeep: true, pressWeight: 0.8}
)

const (
	overlapDepth = 10.0 // How far a full-back pushes past the ball when overlapping
	lineHoldGap  = 1.5  // Centre-backs drop this far goal-side of the deepest attacker
)

// centreBack holds the line, marks the most dangerous striker and clears
// under pressure.
type centreBack struct{}

func (centreBack) Decide(s *Situation) Action {
	if s.HasBall() {
		return onBall(s, centreBackStyle)
	}
	if s.OpponentHasBall() {
		// Do not let the deepest attacker get behind the line.
		if idx := deepestAttacker(s); idx != NoPlayer {
			home := s.Home()
			att := s.Rel(s.Snap.Players[idx].Pos)
			rel := s.Rel(home)
			if att.X-lineHoldGap < rel.X {
				rel.X = att.X - lineHoldGap
				a := offBall(s, centreBackStyle)
				if a.Intent == IntentMovingToPosition {
					return MoveTo(s.Pitch.ClampField(s.Abs(rel), 1), 0.9, IntentMovingToPosition)
				}
				return a
			}
		}
	}
	return offBall(s, centreBackStyle)
}

// deepestAttacker is the opponent outfield player closest to our goal line.
func deepestAttacker(s *Situation) int {
	best, bestX := NoPlayer, math.Inf(1)
	lo, hi := teamRange(s.Side().Opponent())
	for i := lo; i < hi; i++ {
		if s.Snap.Players[i].Role == roster.Goalkeeper {
			continue
		}
		if x := s.Rel(s.Snap.Players[i].Pos).X; x < bestX {
			best, bestX = i, x
		}
	}
	return best
}

// fullBack guards the flank and overlaps when the team attacks down it.
type fullBack struct{}

func (fullBack) Decide(s *Situation) Action {
	if s.HasBall() {
		return onBall(s, fullBackStyle)
	}
	me := s.Me()
	b := s.Ball()
	if s.TeamHasBall() && b.Possessor != NoPlayer && b.Receiver != s.Self {
		ball := s.Rel(b.Pos)
		mine := s.Rel(me.Pos)
		// Overlap when the ball is on our flank and in the opponent half.
		if ball.X > 0 && math.Signbit(ball.Y) == math.Signbit(s.Anchor.Y) && s.Anchor.Y != 0 {
			run := Vec2{ball.X + overlapDepth, math.Copysign(s.Pitch.HalfWidth()-4, s.Anchor.Y)}
			if mine.X < run.X {
				return MoveTo(s.Pitch.ClampField(s.Abs(run), fieldMargin), 0.9, IntentSupporting)
			}
		}
	}
	return offBall(s, fullBackStyle)
}
