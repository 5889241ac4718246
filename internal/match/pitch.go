package match

import (
	"fmt"
	"math"
)

// Side identifies a team. Home attacks +x for the whole match.
type Side uint8

const (
	Home Side = iota
	Away
)

func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

// MarshalText encodes the side as "home" or "away".
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes "home" or "away".
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "home":
		*s = Home
	case "away":
		*s = Away
	default:
		return fmt.Errorf("unknown side %q", string(text))
	}
	return nil
}

// Opponent returns the other side.
func (s Side) Opponent() Side { return 1 - s }

// Attack is +1 for the side attacking +x, -1 otherwise.
func (s Side) Attack() float64 {
	if s == Home {
		return 1
	}
	return -1
}

// Pitch dimensions in metres. The centre spot is the origin.
type Pitch struct {
	Length        float64
	Width         float64
	GoalWidth     float64
	PenaltyDepth  float64
	PenaltyWidth  float64
	GoalAreaDepth float64
	GoalAreaWidth float64
	CentreCircle  float64
	RunOff        float64 // Players may stray this far outside the lines
}

// StandardPitch returns a 105 × 68 pitch.
func StandardPitch() Pitch {
	return Pitch{
		Length:        105,
		Width:         68,
		GoalWidth:     7.32,
		PenaltyDepth:  16.5,
		PenaltyWidth:  40.32,
		GoalAreaDepth: 5.5,
		GoalAreaWidth: 18.32,
		CentreCircle:  9.15,
		RunOff:        3,
	}
}

func (p Pitch) HalfLength() float64 { return p.Length / 2 }
func (p Pitch) HalfWidth() float64  { return p.Width / 2 }

// InBounds reports whether pos is on the field of play, lines included.
func (p Pitch) InBounds(pos Vec2) bool {
	return math.Abs(pos.X) <= p.HalfLength() && math.Abs(pos.Y) <= p.HalfWidth()
}

// GoalScoredBy reports whether pos is inside a goal and which side scored.
func (p Pitch) GoalScoredBy(pos Vec2) (Side, bool) {
	if math.Abs(pos.X) <= p.HalfLength() || math.Abs(pos.Y) > p.GoalWidth/2 {
		return 0, false
	}
	if pos.X > 0 {
		return Home, true
	}
	return Away, true
}

// OwnGoal is the centre of the goal side defends.
func (p Pitch) OwnGoal(side Side) Vec2 {
	return Vec2{-side.Attack() * p.HalfLength(), 0}
}

// TargetGoal is the centre of the goal side attacks.
func (p Pitch) TargetGoal(side Side) Vec2 {
	return Vec2{side.Attack() * p.HalfLength(), 0}
}

// InPenaltyArea reports whether pos is inside the penalty area defended by side.
func (p Pitch) InPenaltyArea(pos Vec2, side Side) bool {
	depth := p.HalfLength() + side.Attack()*pos.X
	return depth >= 0 && depth <= p.PenaltyDepth && math.Abs(pos.Y) <= p.PenaltyWidth/2
}

// ClampRunOff keeps pos inside the field plus run-off.
func (p Pitch) ClampRunOff(pos Vec2) Vec2 {
	hx, hy := p.HalfLength()+p.RunOff, p.HalfWidth()+p.RunOff
	return Vec2{clamp(pos.X, -hx, hx), clamp(pos.Y, -hy, hy)}
}

// ClampField keeps pos inside the field, margin metres from the lines.
func (p Pitch) ClampField(pos Vec2, margin float64) Vec2 {
	hx, hy := p.HalfLength()-margin, p.HalfWidth()-margin
	return Vec2{clamp(pos.X, -hx, hx), clamp(pos.Y, -hy, hy)}
}

// Relative converts between pitch coordinates and a side's own frame:
// +x toward the goal it attacks, +y toward its left. The transform is its
// own inverse.
func Relative(side Side, v Vec2) Vec2 {
	return v.Scale(side.Attack())
}

// goalLineCrossing projects the ball along vel to the goal line it is
// travelling toward and returns the crossing y, or false if it is not
// heading for either goal line.
func (p Pitch) goalLineCrossing(pos, vel Vec2) (float64, bool) {
	if math.Abs(vel.X) < 1e-6 {
		return 0, false
	}
	lineX := math.Copysign(p.HalfLength(), vel.X)
	t := (lineX - pos.X) / vel.X
	if t < 0 {
		return 0, false
	}
	return pos.Y + vel.Y*t, true
}
