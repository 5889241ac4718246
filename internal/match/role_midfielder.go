package match

import "math"

var midfielderStyle = style{passUrge: 0.4, dribble: 0.2, shootScale: 0.8, pressWeight: 1}

const (
	supportOffset = 10.0 // Distance of a supporting angle from the carrier
	supportAngle  = 0.7  // Radians either side of straight back
)

// midfielder links play: offers an angle to the carrier, then presses and
// screens when the ball is lost.
type midfielder struct{}

func (midfielder) Decide(s *Situation) Action {
	if s.HasBall() {
		return onBall(s, midfielderStyle)
	}
	b := s.Ball()
	if s.TeamHasBall() && b.Receiver != s.Self {
		carrier := s.Snap.Players[b.Possessor].Pos
		me := s.Me()
		if me.Pos.Dist(carrier) < 2.5*supportOffset {
			return MoveTo(supportPoint(s, carrier), 0.8, IntentSupporting)
		}
	}
	return offBall(s, midfielderStyle)
}

// supportPoint offers a diagonal option beside and slightly behind the
// carrier, on the player's side of the pitch, in the least crowded spot.
func supportPoint(s *Situation, carrier Vec2) Vec2 {
	c := s.Rel(carrier)
	side := 1.0
	if s.Rel(s.Me().Pos).Y < c.Y {
		side = -1
	}
	spot := c.Add(Vec2{-math.Cos(supportAngle), side * math.Sin(supportAngle)}.Scale(supportOffset))
	return findSpaceNear(s, s.Abs(spot))
}

// findSpaceNear is findSpace on a small radius, used for fine adjustments.
func findSpaceNear(s *Situation, spot Vec2) Vec2 {
	best, bestScore := s.Pitch.ClampField(spot, fieldMargin), crowdScore(s, spot)
	for a := 0.0; a < 2*math.Pi-1e-9; a += spaceStep {
		p := s.Pitch.ClampField(spot.Add(Vec2{3, 0}.Rotate(a)), fieldMargin)
		if sc := crowdScore(s, p); sc > bestScore {
			best, bestScore = p, sc
		}
	}
	return best
}

func crowdScore(s *Situation, p Vec2) float64 {
	return -crowding(s.Snap, s.Side(), p) + 0.3*laneQuality(s.Snap, s.Side(), s.Ball().Pos, p)
}
