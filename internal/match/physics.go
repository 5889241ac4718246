package match

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"pitchside/internal/match/spatial"
	"pitchside/internal/roster"
)

// Movement and contact tuning.
const (
	playerRadius   = 0.6
	arriveRadius   = 3.5
	tackleRange    = 2.0
	pressureRadius = 2.0

	baseTopSpeed     = 6.0 // m/s at pace 0
	paceTopSpeed     = 3.0 // extra m/s at pace 100
	minStaminaSpeed  = 0.55
	baseAcceleration = 3.0
	skillAccel       = 4.0

	staminaDrainPerMetre = 0.00006
	staminaRegenRate     = 0.006 // per second when resting
	restSpeed            = 1.0
	fatigueShare         = 0.1

	kickCooldown   = 500 * time.Millisecond
	tackleCooldown = time.Second
)

// MaxSpeed is a player's top speed in m/s at the given stamina level.
func MaxSpeed(sk roster.Skills, stamina float64) float64 {
	return (baseTopSpeed + paceTopSpeed*sk.Pace) * (minStaminaSpeed + (1-minStaminaSpeed)*clamp(stamina, 0, 1))
}

// physics advances continuous state. It owns the commit-phase RNG stream,
// so its methods must run in a fixed order on a single goroutine.
type physics struct {
	pitch  Pitch
	dt     float64
	tick   time.Duration
	skills *[NumPlayers]roster.Skills
	rng    *rand.Rand
	grid   *spatial.Grid
	buf    []int
}

func newPhysics(pitch Pitch, tick time.Duration, skills *[NumPlayers]roster.Skills, rng *rand.Rand) *physics {
	hx, hy := pitch.HalfLength()+pitch.RunOff, pitch.HalfWidth()+pitch.RunOff
	return &physics{
		pitch:  pitch,
		dt:     tick.Seconds(),
		tick:   tick,
		skills: skills,
		rng:    rng,
		grid:   spatial.NewGrid(-hx, -hy, 2*hx, 2*hy, 2, NumPlayers),
		buf:    make([]int, 0, NumPlayers),
	}
}

// ticksFor converts a duration to a whole number of ticks, at least one.
func (p *physics) ticksFor(d time.Duration) int {
	return max(1, int((d+p.tick-1)/p.tick))
}

// beginTick clears per-tick facts and counts down cooldowns.
func (p *physics) beginTick(s *Snapshot) {
	s.Fouls = nil
	for i := range s.Players {
		pl := &s.Players[i]
		pl.Tackle = TackleNone
		if pl.TackleCooldown > 0 {
			pl.TackleCooldown--
		}
		if pl.KickCooldown > 0 {
			pl.KickCooldown--
		}
	}
}

// move integrates every player toward their action target.
func (p *physics) move(s *Snapshot, actions *[NumPlayers]Action) {
	for i := range s.Players {
		pl := &s.Players[i]
		a := &actions[i]
		sk := &p.skills[i]

		top := MaxSpeed(*sk, pl.Stamina)
		if s.Ball.Possessor == i {
			top *= 0.85 + 0.1*sk.Dribbling
		}

		var desired Vec2
		switch a.Kind {
		case ActMove, ActDribble, ActTackle:
			to := a.Target.Sub(pl.Pos)
			d := to.Len()
			speed := top * a.Effort
			if d < arriveRadius {
				speed *= d / arriveRadius
			}
			desired = to.Norm().Scale(speed)
		}

		accel := baseAcceleration + skillAccel*sk.Acceleration
		dv := desired.Sub(pl.Vel).ClampLen(accel * p.dt)
		pl.Vel = pl.Vel.Add(dv).ClampLen(top)
		pl.Pos = p.pitch.ClampRunOff(pl.Pos.Add(pl.Vel.Scale(p.dt)))
		pl.Action = a.Kind
		pl.Target = a.Target
	}
}

// jostle pushes overlapping players apart, the weaker one further.
func (p *physics) jostle(s *Snapshot) {
	p.grid.Clear()
	for i := range s.Players {
		p.grid.Insert(i, s.Players[i].Pos.X, s.Players[i].Pos.Y)
	}

	const minDist = 2 * playerRadius
	for i := range s.Players {
		a := &s.Players[i]
		p.buf = p.grid.QueryRadius(p.buf[:0], a.Pos.X, a.Pos.Y, minDist)
		for _, j := range p.buf {
			if j <= i {
				continue
			}
			b := &s.Players[j]
			delta := b.Pos.Sub(a.Pos)
			dist := delta.Len()
			if dist >= minDist || dist == 0 {
				continue
			}
			n := delta.Scale(1 / dist)
			overlap := minDist - dist
			sa, sb := p.skills[i].Strength, p.skills[j].Strength
			wa := 0.5 + 0.5*(sb-sa) // share of the push taken by a
			wa = clamp(wa, 0.2, 0.8)
			a.Pos = p.pitch.ClampRunOff(a.Pos.Sub(n.Scale(overlap * wa)))
			b.Pos = p.pitch.ClampRunOff(b.Pos.Add(n.Scale(overlap * (1 - wa))))
		}
	}
}

// stamina drains with speed and regenerates near standstill. Fatigue never
// recovers and caps the stamina ceiling.
func (p *physics) stamina(s *Snapshot) {
	for i := range s.Players {
		pl := &s.Players[i]
		speed := pl.Vel.Len()
		drain := staminaDrainPerMetre * speed * p.dt * (1.3 - 0.6*p.skills[i].Stamina)
		pl.Stamina -= drain
		pl.Fatigue = math.Min(1, pl.Fatigue+drain*fatigueShare)
		if speed < restSpeed {
			pl.Stamina += staminaRegenRate * p.dt
		}
		pl.Stamina = clamp(pl.Stamina, 0, 1-pl.Fatigue)
	}
}

type tackler struct {
	idx  int
	dist float64
}

// tackles resolves challenges on the carrier. The first success takes the
// ball; a miss stalls the tackler and may be a foul, which stops play.
func (p *physics) tackles(s *Snapshot, actions *[NumPlayers]Action) {
	carrier := s.Ball.Possessor
	if carrier < 0 || s.SetPiece != RestartNone {
		return
	}
	c := &s.Players[carrier]

	var ts []tackler
	for i := range actions {
		if actions[i].Kind != ActTackle || actions[i].Other != carrier {
			continue
		}
		if d := s.Players[i].Pos.Dist(c.Pos); d <= tackleRange {
			ts = append(ts, tackler{i, d})
		}
	}
	slices.SortFunc(ts, func(a, b tackler) int {
		if r := cmp.Compare(a.dist, b.dist); r != 0 {
			return r
		}
		return cmp.Compare(a.idx, b.idx)
	})

	cs := &p.skills[carrier]
	for _, t := range ts {
		tk := &p.skills[t.idx]
		pl := &s.Players[t.idx]
		prob := TackleProbability(*tk, *cs, t.dist)
		if p.rng.Float64() < prob {
			pl.Tackle = TackleWon
			s.Ball.Possessor = t.idx
			s.Ball.LastTouch = t.idx
			return
		}
		pl.Tackle = TackleMissed
		pl.Vel = pl.Vel.Scale(0.3)
		pl.TackleCooldown = p.ticksFor(tackleCooldown)
		if p.rng.Float64() < FoulProbability(*tk) {
			s.Fouls = append(s.Fouls, Foul{Offender: t.idx, Victim: carrier, Pos: c.Pos})
			return
		}
	}
}

// TackleProbability rises with the tackler's tackling and falls with the
// carrier's dribbling, the strength gap and distance.
func TackleProbability(tackler, carrier roster.Skills, dist float64) float64 {
	p := 0.25 + 0.5*tackler.Tackling - 0.3*carrier.Dribbling - 0.1*(carrier.Strength-tackler.Strength)
	p *= 1 - 0.3*clamp(dist/tackleRange, 0, 1)
	return clamp(p, 0.05, 0.9)
}

// FoulProbability is the chance a missed tackle is penalised.
func FoulProbability(tackler roster.Skills) float64 {
	return clamp(0.08+0.15*(1-tackler.Tackling), 0, 0.3)
}

// pressured reports whether an opponent of idx stands within radius.
func pressured(s *Snapshot, idx int, radius float64) bool {
	side := s.Players[idx].Side
	for i := range s.Players {
		if s.Players[i].Side != side && s.Players[i].Pos.Dist(s.Players[idx].Pos) <= radius {
			return true
		}
	}
	return false
}
