package match

import (
	"cmp"
	"math"
	"slices"

	"pitchside/internal/roster"
)

// Ball tuning.
const (
	controlOffset  = 0.45 // Ball sits this far in front of its carrier
	rollDecel      = 2.5  // m/s² rolling resistance
	airDrag        = 0.25 // 1/s, proportional to speed
	ballStopSpeed  = 0.1
	passOverrun    = 4.0 // Passes arrive with enough pace for this much more
	minPassPower   = 6.0
	clearancePower = 24.0
	keeperReach    = 1.8
	deflectionKeep = 0.7
)

// rollDistance is how far a ball struck at v0 rolls before stopping.
func rollDistance(v0 float64) float64 {
	return v0/airDrag - rollDecel/(airDrag*airDrag)*math.Log1p(airDrag*v0/rollDecel)
}

// PassPower solves the kick speed that rolls dist metres plus overrun.
func PassPower(dist float64) float64 {
	want := dist + passOverrun
	lo, hi := 0.0, MaxKickPower
	if rollDistance(hi) <= want {
		return hi
	}
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if rollDistance(mid) < want {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Max(minPassPower, hi)
}

// ShotPower is the default strike speed for a shooting rating.
func ShotPower(sk roster.Skills) float64 {
	return 22 + 8*sk.Shooting
}

// kick releases the ball for the possessor's pass or shot.
func (p *physics) kick(s *Snapshot, actions *[NumPlayers]Action) {
	idx := s.Ball.Possessor
	if idx < 0 {
		return
	}
	a := actions[idx]
	if a.Kind != ActPass && a.Kind != ActShoot {
		return
	}
	sk := &p.skills[idx]
	b := &s.Ball

	var kind KickKind
	var power, skill float64
	dir := a.Target.Sub(b.Pos)
	switch {
	case a.Kind == ActShoot:
		kind, skill, power = KickShot, sk.Shooting, a.Power
		if power == 0 {
			power = ShotPower(*sk)
		}
	case a.Other < 0:
		kind, skill, power = KickClearance, 0.7*sk.Passing+0.3*sk.Strength, a.Power
		if power == 0 {
			power = clearancePower
		}
	default:
		kind, skill, power = KickPass, sk.Passing, a.Power
		if power == 0 {
			power = PassPower(dir.Len())
		}
	}

	sigma := 0.02 + 0.12*(1-skill)
	if pressured(s, idx, pressureRadius) {
		sigma *= 1.5
	}
	angle := p.rng.NormFloat64() * sigma
	power *= 1 + (2*p.rng.Float64()-1)*0.05*(1-skill)
	power = math.Min(power, MaxKickPower)

	heading := dir.Norm()
	if heading == (Vec2{}) {
		heading = Vec2{s.Players[idx].Side.Attack(), 0}
	}
	b.Vel = heading.Rotate(angle).Scale(power)
	b.Possessor = NoPlayer
	b.LastTouch = idx
	b.Kick = kind
	b.Kicker = idx
	b.Receiver = NoPlayer
	if kind == KickPass {
		b.Receiver = a.Other
	}
	b.KickTick = s.Tick
	s.Players[idx].KickCooldown = p.ticksFor(kickCooldown)
	s.SetPiece = RestartNone
}

// carry keeps a possessed ball at the carrier's feet; a loose ball rolls.
// A set-piece ball stays on its spot.
func (p *physics) carry(s *Snapshot) {
	b := &s.Ball
	if b.Possessor >= 0 && s.SetPiece != RestartNone {
		b.Vel = Vec2{} // dead ball until the taker kicks it
		return
	}
	if b.Possessor >= 0 {
		pl := &s.Players[b.Possessor]
		facing := pl.Vel.Norm()
		if facing == (Vec2{}) {
			facing = Vec2{pl.Side.Attack(), 0}
		}
		b.Pos = pl.Pos.Add(facing.Scale(controlOffset))
		b.Vel = pl.Vel
		return
	}

	speed := b.Vel.Len()
	if speed == 0 {
		return
	}
	b.Pos = b.Pos.Add(b.Vel.Scale(p.dt))
	next := speed - (rollDecel+airDrag*speed)*p.dt
	if next < ballStopSpeed {
		b.Vel = Vec2{}
		return
	}
	b.Vel = b.Vel.Scale(next / speed)
}

type contender struct {
	idx  int
	prob float64
	dist float64
}

// contest resolves who controls a loose ball inside the field. Candidates
// roll in order of control probability, then distance, then index; the
// first success wins and each failure deflects the ball.
func (p *physics) contest(s *Snapshot) {
	b := &s.Ball
	if b.Possessor >= 0 || !p.pitch.InBounds(b.Pos) {
		return
	}
	speed := b.Vel.Len()

	p.grid.Clear()
	for i := range s.Players {
		p.grid.Insert(i, s.Players[i].Pos.X, s.Players[i].Pos.Y)
	}
	p.buf = p.grid.QueryRadius(p.buf[:0], b.Pos.X, b.Pos.Y, keeperReach)

	var cs []contender
	for _, i := range p.buf {
		pl := &s.Players[i]
		if i == b.Kicker && pl.KickCooldown > 0 {
			continue
		}
		d := pl.Pos.Dist(b.Pos)
		radius, prob := p.controlChance(s, i, speed)
		if d <= radius {
			cs = append(cs, contender{i, prob, d})
		}
	}
	slices.SortFunc(cs, func(x, y contender) int {
		if r := cmp.Compare(y.prob, x.prob); r != 0 {
			return r
		}
		if r := cmp.Compare(x.dist, y.dist); r != 0 {
			return r
		}
		return cmp.Compare(x.idx, y.idx)
	})

	for _, c := range cs {
		if p.rng.Float64() < c.prob {
			b.Possessor = c.idx
			b.LastTouch = c.idx
			b.Vel = s.Players[c.idx].Vel
			return
		}
		b.LastTouch = c.idx
		b.Vel = b.Vel.Scale(deflectionKeep)
	}
}

// facingShot reports whether idx is the goalkeeper defending against the
// ball's current shot inside their own area.
func facingShot(s *Snapshot, idx int, pitch Pitch) bool {
	pl := &s.Players[idx]
	return pl.Role == roster.Goalkeeper &&
		s.Ball.Kick == KickShot &&
		s.Ball.Kicker >= 0 && s.Players[s.Ball.Kicker].Side != pl.Side &&
		pitch.InPenaltyArea(pl.Pos, pl.Side)
}

// controlChance returns the control radius and success probability of
// player idx against a ball moving at speed.
func (p *physics) controlChance(s *Snapshot, idx int, speed float64) (radius, prob float64) {
	sk := &p.skills[idx]
	if facingShot(s, idx, p.pitch) {
		return keeperReach, SaveProbability(*sk, speed)
	}

	radius = 1.0
	switch {
	case speed > 5:
		radius = 0.6
	case speed > 1.5:
		radius = 0.8
	}
	intended := idx == s.Ball.Receiver
	if intended {
		radius += 0.4
	}
	return radius, ControlProbability(*sk, speed, intended)
}

// ControlProbability is the chance of bringing a loose ball under control.
func ControlProbability(sk roster.Skills, ballSpeed float64, intended bool) float64 {
	p := 0.35 + 0.55*sk.FirstTouch - 0.02*math.Max(0, ballSpeed-5)
	if intended {
		p += 0.1
	}
	return clamp(p, 0.05, 0.97)
}

// SaveProbability is the chance a goalkeeper holds a shot at ballSpeed.
func SaveProbability(sk roster.Skills, ballSpeed float64) float64 {
	return clamp(0.25+0.65*sk.Reflexes-0.015*math.Max(0, ballSpeed-15), 0.05, 0.95)
}
