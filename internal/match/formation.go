package match

import (
	"math"

	"pitchside/internal/roster"
)

// Base shape, in a side's own frame (+x attacks, +y is the left touchline).
const (
	keeperDepth    = -48.0
	backLineDepth  = -34.0
	fullBackDepth  = -31.0
	midfieldDepth  = -14.0
	wideMidDepth   = -12.0
	wingerDepth    = -4.0
	strikerDepth   = -3.0
	centreGapBack  = 12.0
	centreGapMid   = 14.0
	centreGapFront = 12.0
	fullBackWidth  = 24.0
	wideMidWidth   = 22.0
	wingerWidth    = 24.0

	ballPull        = 0.35 // How far the block follows the ball up and down
	ballDrift       = 0.25 // Lateral drift toward the ball
	lineShift       = 12.0 // Metres between the deepest and highest line
	possessionPush  = 12.0
	possessionPull  = 0.2 // Extra ball following while the team has the ball
	outfieldMinDist = 6.0 // Outfield anchors stay this far from their goal line
)

// Anchors computes each player's base position in the team's own frame. Players
// sharing a role and lane are spread evenly across the centre.
func Anchors(team roster.Team) [TeamSize]Vec2 {
	var out [TeamSize]Vec2

	// Centre-lane players of the same role share a line.
	type line struct {
		depth, gap float64
		members    []int
	}
	lines := map[roster.Role]*line{
		roster.CentreBack: {depth: backLineDepth, gap: centreGapBack},
		roster.FullBack:   {depth: fullBackDepth, gap: centreGapBack},
		roster.Midfielder: {depth: midfieldDepth, gap: centreGapMid},
		roster.Winger:     {depth: wingerDepth, gap: centreGapFront},
		roster.Striker:    {depth: strikerDepth, gap: centreGapFront},
	}

	for i := range team.Players {
		p := &team.Players[i]
		lane := float64(p.Lane)
		switch {
		case p.Role == roster.Goalkeeper:
			out[i] = Vec2{keeperDepth, 0}
		case p.Lane == roster.Centre:
			lines[p.Role].members = append(lines[p.Role].members, i)
		case p.Role == roster.FullBack || p.Role == roster.CentreBack:
			out[i] = Vec2{fullBackDepth, lane * fullBackWidth}
		case p.Role == roster.Midfielder:
			out[i] = Vec2{wideMidDepth, lane * wideMidWidth}
		default:
			out[i] = Vec2{wingerDepth, lane * wingerWidth}
		}
	}

	for _, l := range lines {
		n := len(l.members)
		for k, i := range l.members {
			// Lower indices take the right side, matching the usual listing.
			out[i] = Vec2{l.depth, (float64(k) - float64(n-1)/2) * l.gap}
		}
	}
	return out
}

// positionalTarget shifts an anchor with the ball, the team's defensive line
// and possession, and returns it in pitch coordinates.
func positionalTarget(pitch Pitch, side Side, role roster.Role, anchor Vec2, ball Vec2, line, width float64, inPossession bool) Vec2 {
	rb := Relative(side, ball)
	t := anchor

	if role == roster.Goalkeeper {
		t.X = -pitch.HalfLength() + 4 + 6*clamp((rb.X+pitch.HalfLength())/pitch.Length, 0, 1)
		t.Y = clamp(rb.Y*0.15, -pitch.GoalWidth/2, pitch.GoalWidth/2)
		return Relative(side, t)
	}

	t.X += ballPull*rb.X + (line-0.5)*lineShift
	if inPossession {
		t.X += possessionPush + possessionPull*rb.X
		t.Y *= 0.8 + 0.4*width
	}
	t.Y += ballDrift * (rb.Y - t.Y) * 0.5
	t.X = math.Max(t.X, -pitch.HalfLength()+outfieldMinDist)
	return Relative(side, pitch.ClampField(t, 1))
}
