package match

import (
	"cmp"
	"math"
	"slices"

	"pitchside/internal/config"
	"pitchside/internal/roster"
)

// Cover, width and run tuning.
const (
	coverDepth     = 8.0 // Cover point distance goal-side of the engaged player
	coverOccupied  = 6.0 // A teammate this close already covers the point
	lateralPull    = 0.2 // Share of the lateral gap defenders close toward the ball
	runLength      = 8.0 // Candidate run distance for a carrier
	supportSpread  = 4.0 // Metres of extra width at full width preference
	depthWeight    = 0.5 // Width weight is 0.2 + 0.3·width preference
	penetrationWt  = 0.35
	safetyWeight   = 0.25
	safetyDistance = 10.0
)

// tactician applies team principles to the collected proposals, in a fixed
// order per team: pressing, cover and balance, width/depth/penetration,
// then compactness.
type tactician struct {
	pitch   Pitch
	cfg     config.MatchConfig
	tactics [2]roster.Tactics
	skills  *[NumPlayers]roster.Skills
	order   []ranked
}

type ranked struct {
	idx  int
	dist float64
}

func newTactician(pitch Pitch, cfg config.MatchConfig, home, away roster.Tactics, skills *[NumPlayers]roster.Skills) *tactician {
	return &tactician{
		pitch:   pitch,
		cfg:     cfg,
		tactics: [2]roster.Tactics{home, away},
		skills:  skills,
		order:   make([]ranked, 0, TeamSize),
	}
}

// pressing returns side's effective pressing intensity.
func (t *tactician) pressing(side Side) float64 {
	return t.tactics[side].Pressing(t.cfg.PressingIntensityDefault)
}

func (t *tactician) apply(s *Snapshot, actions *[NumPlayers]Action) {
	for _, side := range [...]Side{Home, Away} {
		t.press(s, actions, side)
		t.cover(s, actions, side)
		t.attack(s, actions, side)
		t.compact(s, actions, side)
	}
}

// isPressing reports whether a is a pressing run or a tackle.
func isPressing(a *Action) bool {
	return a.Kind == ActTackle || a.Intent == IntentPressing
}

// press picks at most max_concurrent_pressers of the closest eligible
// players to press the carrier and demotes every other pressing proposal
// to marking.
func (t *tactician) press(s *Snapshot, actions *[NumPlayers]Action, side Side) {
	lo, hi := teamRange(side)
	carrier := s.Ball.Possessor
	if carrier < 0 || SideOf(carrier) == side {
		// Nobody to press: pressing runs become positional.
		for i := lo; i < hi; i++ {
			if actions[i].Intent == IntentPressing {
				actions[i].Intent = IntentMovingToPosition
			}
		}
		return
	}
	cpos := s.Players[carrier].Pos
	intensity := t.pressing(side)
	triggered := intensity >= t.cfg.PressThreshold && s.SetPiece == RestartNone

	t.order = t.order[:0]
	for i := lo; i < hi; i++ {
		pl := &s.Players[i]
		if pl.Role == roster.Goalkeeper {
			continue
		}
		d := pl.Pos.Dist(s.Ball.Pos)
		if triggered {
			if d <= t.cfg.PressDistance && pl.Stamina >= t.cfg.PressMinStamina {
				t.order = append(t.order, ranked{i, d})
			}
		} else if actions[i].Kind == ActTackle && pl.Pos.Dist(cpos) <= tackleRange {
			// Below the trigger only a challenge already in range survives.
			t.order = append(t.order, ranked{i, d})
		}
	}
	slices.SortFunc(t.order, func(a, b ranked) int {
		if r := cmp.Compare(a.dist, b.dist); r != 0 {
			return r
		}
		return cmp.Compare(a.idx, b.idx)
	})
	if len(t.order) > t.cfg.MaxConcurrentPressers {
		t.order = t.order[:t.cfg.MaxConcurrentPressers]
	}

	var chosen [NumPlayers]bool
	for _, r := range t.order {
		chosen[r.idx] = true
		if !triggered {
			continue
		}
		pl := &s.Players[r.idx]
		if pl.Pos.Dist(cpos) <= tackleRange && pl.TackleCooldown == 0 {
			actions[r.idx] = TackleOn(carrier, cpos)
		} else {
			actions[r.idx] = MoveTo(cpos, 0.7+0.3*intensity, IntentPressing)
		}
	}
	for i := lo; i < hi; i++ {
		if !chosen[i] && isPressing(&actions[i]) {
			actions[i] = t.markNearest(s, i)
		}
	}
}

// markNearest tracks the closest opponent other than the carrier.
func (t *tactician) markNearest(s *Snapshot, idx int) Action {
	pl := &s.Players[idx]
	own := t.pitch.OwnGoal(pl.Side)
	best, bestD := NoPlayer, math.Inf(1)
	lo, hi := teamRange(pl.Side.Opponent())
	for i := lo; i < hi; i++ {
		if i == s.Ball.Possessor || s.Players[i].Role == roster.Goalkeeper {
			continue
		}
		if d := s.Players[i].Pos.Dist(pl.Pos); d < bestD {
			best, bestD = i, d
		}
	}
	if best == NoPlayer {
		return MoveTo(pl.Pos, 0, IntentMarking)
	}
	opp := s.Players[best].Pos
	return MoveTo(opp.Add(own.Sub(opp).Norm().Scale(markGoalSide)), 0.85, IntentMarking)
}

// cover sends the nearest free player goal-side of the engaged defender and
// pulls the other defenders across toward the ball.
func (t *tactician) cover(s *Snapshot, actions *[NumPlayers]Action, side Side) {
	carrier := s.Ball.Possessor
	if carrier < 0 || SideOf(carrier) == side {
		return
	}
	lo, hi := teamRange(side)
	cpos := s.Players[carrier].Pos
	own := t.pitch.OwnGoal(side)

	engaged := NoPlayer
	engagedD := math.Inf(1)
	for i := lo; i < hi; i++ {
		if isPressing(&actions[i]) {
			if d := s.Players[i].Pos.Dist(cpos); d < engagedD {
				engaged, engagedD = i, d
			}
		}
	}
	if engaged == NoPlayer {
		// Is the carrier goal-side of our nearest defender?
		def := NoPlayer
		defD := math.Inf(1)
		for i := lo; i < hi; i++ {
			if r := s.Players[i].Role; r != roster.CentreBack && r != roster.FullBack {
				continue
			}
			if d := s.Players[i].Pos.Dist(cpos); d < defD {
				def, defD = i, d
			}
		}
		if def == NoPlayer || Relative(side, cpos).X >= Relative(side, s.Players[def].Pos).X {
			return
		}
		engaged = def
	}

	ep := s.Players[engaged].Pos
	point := t.pitch.ClampField(ep.Add(own.Sub(ep).Norm().Scale(coverDepth)), 1)
	coverer := NoPlayer
	coverD := math.Inf(1)
	occupied := false
	for i := lo; i < hi; i++ {
		pl := &s.Players[i]
		if i == engaged || pl.Role == roster.Goalkeeper || isPressing(&actions[i]) {
			continue
		}
		d := pl.Pos.Dist(point)
		if d <= coverOccupied {
			occupied = true
		}
		if d < coverD {
			coverer, coverD = i, d
		}
	}
	if !occupied && coverer != NoPlayer {
		actions[coverer] = MoveTo(point, 0.9, IntentMovingToPosition)
	}

	// Balance: the rest of the back line shuffles across.
	for i := lo; i < hi; i++ {
		a := &actions[i]
		r := s.Players[i].Role
		if i == coverer || a.Kind != ActMove || a.Intent == IntentMarking || (r != roster.CentreBack && r != roster.FullBack) {
			continue
		}
		a.Target.Y += lateralPull * (s.Ball.Pos.Y - a.Target.Y)
	}
}

// attack re-scores the carrier's pass or run against the team's width,
// depth, penetration and safety, and spreads off-ball supporters.
func (t *tactician) attack(s *Snapshot, actions *[NumPlayers]Action, side Side) {
	carrier := s.Ball.Possessor
	if carrier < 0 || SideOf(carrier) != side {
		return
	}
	width := t.tactics[side].WidthPreference()
	lo, hi := teamRange(side)

	for i := lo; i < hi; i++ {
		a := &actions[i]
		if i == carrier || a.Kind != ActMove || a.Intent != IntentSupporting || i == s.Ball.Receiver {
			continue
		}
		y := a.Target.Y
		a.Target.Y = clamp(y+math.Copysign(supportSpread*width, y), -t.pitch.HalfWidth()+1, t.pitch.HalfWidth()-1)
	}

	if s.SetPiece != RestartNone {
		return
	}
	a := &actions[carrier]
	switch {
	case a.Kind == ActPass && a.Other >= 0:
		t.bestPassFor(s, carrier, a, width)
	case a.Kind == ActDribble:
		t.bestRunFor(s, carrier, a, width)
	}
}

// shapeScore is the weighted width, depth, penetration and safety of
// moving the ball from `from` to p.
func (t *tactician) shapeScore(s *Snapshot, side Side, from, p Vec2, width float64) float64 {
	rf, rp := Relative(side, from), Relative(side, p)
	w := math.Abs(p.Y) / t.pitch.HalfWidth()
	depth := clamp((rp.X-rf.X)/30, -1, 1)

	bypassed := 0
	lo, hi := teamRange(side.Opponent())
	for i := lo; i < hi; i++ {
		x := Relative(side, s.Players[i].Pos).X
		if x > rf.X && x < rp.X {
			bypassed++
		}
	}
	pen := float64(bypassed) / 10
	safety := clamp(nearestOpponent(s, side, p)/safetyDistance, 0, 1)
	return (0.2+0.3*width)*w + depthWeight*depth + penetrationWt*pen + safetyWeight*safety
}

func (t *tactician) bestPassFor(s *Snapshot, carrier int, a *Action, width float64) {
	side := SideOf(carrier)
	from := s.Ball.Pos
	maxD := passRangeBase + passRangeBonus*t.skills[carrier].Passing
	best := t.shapeScore(s, side, from, a.Target, width) * laneQuality(s, side, from, a.Target)
	// Never swap for a pass that gains less ground than the carrier's own.
	depth := Relative(side, a.Target).X
	lo, hi := teamRange(side)
	for i := lo; i < hi; i++ {
		if i == carrier {
			continue
		}
		p := s.Players[i].Pos
		d := from.Dist(p)
		if d < minPassDistance || d > maxD || !t.pitch.InBounds(p) || Relative(side, p).X < depth {
			continue
		}
		lane := laneQuality(s, side, from, p)
		if lane < 0.5 {
			continue
		}
		if sc := t.shapeScore(s, side, from, p, width) * lane; sc > best {
			best = sc
			*a = PassTo(i, p)
		}
	}
}

func (t *tactician) bestRunFor(s *Snapshot, carrier int, a *Action, width float64) {
	side := SideOf(carrier)
	from := s.Players[carrier].Pos
	best := t.shapeScore(s, side, from, a.Target, width)
	ahead := Vec2{side.Attack(), 0}
	for ang := -math.Pi / 3; ang <= math.Pi/3+1e-9; ang += math.Pi / 6 {
		p := from.Add(ahead.Rotate(ang).Scale(runLength))
		if math.Abs(p.Y) > t.pitch.HalfWidth()-fieldMargin || math.Abs(p.X) > t.pitch.HalfLength()-fieldMargin {
			continue
		}
		if sc := t.shapeScore(s, side, from, p, width); sc > best {
			best = sc
			a.Target = p
		}
	}
}

// compact clamps outfield move targets onto the compactness radius around
// the team's outfield centroid.
func (t *tactician) compact(s *Snapshot, actions *[NumPlayers]Action, side Side) {
	c := outfieldCentroid(s, side)
	limit := t.cfg.CompactnessMaxDistance
	lo, hi := teamRange(side)
	for i := lo; i < hi; i++ {
		a := &actions[i]
		if s.Players[i].Role == roster.Goalkeeper || a.Kind == ActIdle || a.Kind == ActPass || a.Kind == ActShoot {
			continue
		}
		if off := a.Target.Sub(c); off.Len() > limit {
			a.Target = c.Add(off.ClampLen(limit))
		}
	}
}

// outfieldCentroid is the mean position of side's outfield players.
func outfieldCentroid(s *Snapshot, side Side) Vec2 {
	var sum Vec2
	n := 0
	lo, hi := teamRange(side)
	for i := lo; i < hi; i++ {
		if s.Players[i].Role == roster.Goalkeeper {
			continue
		}
		sum = sum.Add(s.Players[i].Pos)
		n++
	}
	if n == 0 {
		return Vec2{}
	}
	return sum.Scale(1 / float64(n))
}

// enforceCompactness keeps every outfield player within limit of their team's
// outfield centroid after movement: stragglers are pulled onto the radius,
// then, if that moved the centroid enough to leave someone outside, the team
// is scaled about the new centroid. During a set piece the taker stays on
// the spot and their team is scaled about the taker instead.
func enforceCompactness(s *Snapshot, limit float64) {
	pinned := NoPlayer
	if s.SetPiece != RestartNone && s.Ball.Possessor >= 0 && s.Players[s.Ball.Possessor].Role != roster.Goalkeeper {
		pinned = s.Ball.Possessor
	}
	for _, side := range [...]Side{Home, Away} {
		lo, hi := teamRange(side)
		anchored := pinned >= lo && pinned < hi
		c := outfieldCentroid(s, side)
		if !anchored {
			for i := lo; i < hi; i++ {
				pl := &s.Players[i]
				if pl.Role == roster.Goalkeeper {
					continue
				}
				if off := pl.Pos.Sub(c); off.Len() > limit {
					pl.Pos = c.Add(off.ClampLen(limit))
				}
			}
			c = outfieldCentroid(s, side)
		}

		worst := 0.0
		for i := lo; i < hi; i++ {
			if s.Players[i].Role != roster.Goalkeeper {
				worst = math.Max(worst, s.Players[i].Pos.Dist(c))
			}
		}
		if worst <= limit {
			continue
		}
		// Scaling about any point scales every distance to the centroid by k.
		about := c
		if anchored {
			about = s.Players[pinned].Pos
		}
		k := limit / worst * (1 - 1e-9)
		for i := lo; i < hi; i++ {
			pl := &s.Players[i]
			if pl.Role != roster.Goalkeeper {
				pl.Pos = about.Add(pl.Pos.Sub(about).Scale(k))
			}
		}
	}
}
