package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/looplab/fsm"

	"pitchside/internal/roster"
)

// RestartKind is the set piece that restarts play.
type RestartKind uint8

const (
	RestartNone RestartKind = iota
	RestartKickoff
	RestartThrowIn
	RestartCorner
	RestartGoalKick
	RestartFreeKick
)

var restartNames = [...]string{"none", "kickoff", "throw_in", "corner", "goal_kick", "free_kick"}

func (k RestartKind) String() string {
	if int(k) < len(restartNames) {
		return restartNames[k]
	}
	return fmt.Sprintf("RestartKind(%d)", k)
}

// MarshalText encodes the restart name.
func (k RestartKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event reports the event type announcing the restart.
func (k RestartKind) Event() EventType {
	switch k {
	case RestartThrowIn:
		return EventThrowIn
	case RestartCorner:
		return EventCorner
	case RestartGoalKick:
		return EventGoalKick
	case RestartFreeKick:
		return EventFreeKick
	}
	return EventKickoff
}

// restartFromOutcome maps an out_of_play outcome to its restart.
func restartFromOutcome(o Outcome) RestartKind {
	switch o {
	case OutcomeThrowIn:
		return RestartThrowIn
	case OutcomeCorner:
		return RestartCorner
	case OutcomeGoalKick:
		return RestartGoalKick
	}
	return RestartNone
}

// Set-piece geometry.
const (
	throwInInset     = 0.2
	cornerInset      = 0.5
	goalKickDepth    = 5.0
	freeKickDistance = 9.15
	throwInDistance  = 2.0
	kickoffSupport   = 3.0
	ownHalfMargin    = 1.0
)

// Phase machine events.
const (
	phKickoff  = "kickoff"
	phHalfTime = "half_time"
	phResume   = "resume"
	phFullTime = "full_time"
	phAbandon  = "abandon"
)

var phaseEvents = fsm.Events{
	{Name: phKickoff, Src: []string{PhaseNotStarted.String()}, Dst: PhaseInProgress.String()},
	{Name: phHalfTime, Src: []string{PhaseInProgress.String()}, Dst: PhaseHalfTime.String()},
	{Name: phResume, Src: []string{PhaseHalfTime.String()}, Dst: PhaseInProgress.String()},
	{Name: phFullTime, Src: []string{PhaseInProgress.String()}, Dst: PhaseFullTime.String()},
	{Name: phAbandon, Src: []string{PhaseNotStarted.String(), PhaseInProgress.String(), PhaseHalfTime.String()}, Dst: PhaseAbandoned.String()},
}

// referee owns the match lifecycle: phases, halves, stoppage time and the
// placement of players for every restart.
type referee struct {
	pitch      Pitch
	half       time.Duration // regulation length of one half
	perGoal    time.Duration
	perFoul    time.Duration
	maxAdded   time.Duration
	breakTicks int

	phase     *fsm.FSM
	halfStart time.Duration
	added     time.Duration
	breakLeft int
	kickedOff Side // side that kicked off the first half
	anchors   *[NumPlayers]Vec2
	roles     *[NumPlayers]roster.Role
	lanes     *[NumPlayers]roster.Lane
}

func newReferee(pitch Pitch, duration, perGoal, perFoul, maxAdded time.Duration, breakTicks int,
	anchors *[NumPlayers]Vec2, roles *[NumPlayers]roster.Role, lanes *[NumPlayers]roster.Lane) *referee {
	return &referee{
		pitch:      pitch,
		half:       duration / 2,
		perGoal:    perGoal,
		perFoul:    perFoul,
		maxAdded:   maxAdded,
		breakTicks: breakTicks,
		phase:      fsm.NewFSM(PhaseNotStarted.String(), phaseEvents, fsm.Callbacks{}),
		anchors:    anchors,
		roles:      roles,
		lanes:      lanes,
	}
}

// Phase returns the current lifecycle phase.
func (r *referee) Phase() Phase { return parsePhase(r.phase.Current()) }

// transition fires a phase event and returns the phase left behind.
func (r *referee) transition(ctx context.Context, event string) (Phase, error) {
	from := r.Phase()
	if err := r.phase.Event(ctx, event); err != nil {
		var same fsm.NoTransitionError
		if errors.As(err, &same) {
			return from, nil
		}
		return from, fmt.Errorf("phase %s -> %s: %w", from, event, err)
	}
	return from, nil
}

// halfEnd is the clock reading at which the current half ends.
func (r *referee) halfEnd() time.Duration {
	return r.halfStart + r.half + r.added
}

// addStoppage extends the current half. Nothing is added once regulation
// time is up, and the total is capped.
func (r *referee) addStoppage(clock, d time.Duration) {
	if clock >= r.halfStart+r.half {
		return
	}
	r.added = min(r.maxAdded, r.added+d)
}

// startHalf resets stoppage for a new half starting at clock.
func (r *referee) startHalf(clock time.Duration) {
	r.halfStart = clock
	r.added = 0
}

// Stoppage is the time added to the current half so far.
func (r *referee) Stoppage() time.Duration { return r.added }

// kicker picks the kickoff taker and a supporting teammate: a striker first,
// then a central midfielder, then any outfield player.
func (r *referee) kicker(side Side) (taker, support int) {
	lo, hi := teamRange(side)
	rank := func(i int) int {
		switch {
		case r.roles[i] == roster.Striker:
			return 0
		case r.roles[i] == roster.Midfielder && r.lanes[i] == roster.Centre:
			return 1
		case r.roles[i] == roster.Winger || r.roles[i] == roster.Midfielder:
			return 2
		case r.roles[i] == roster.Goalkeeper:
			return 9
		}
		return 3
	}
	taker, support = NoPlayer, NoPlayer
	for i := lo; i < hi; i++ {
		switch {
		case taker == NoPlayer || rank(i) < rank(taker):
			support, taker = taker, i
		case support == NoPlayer || rank(i) < rank(support):
			support = i
		}
	}
	return taker, support
}

// placeKickoff lines both teams up in their own halves with side on the
// ball at the centre spot.
func (r *referee) placeKickoff(s *Snapshot, side Side) int {
	for i := range s.Players {
		pl := &s.Players[i]
		rel := r.anchors[i]
		rel.X = math.Min(rel.X, -ownHalfMargin)
		pl.Pos = Relative(pl.Side, rel)
		pl.Vel = Vec2{}
	}

	taker, support := r.kicker(side)
	s.Players[taker].Pos = Relative(side, Vec2{-controlOffset, 0})
	if support != NoPlayer {
		s.Players[support].Pos = Relative(side, Vec2{-ownHalfMargin, kickoffSupport})
	}

	r.clearFrom(s, Vec2{}, side, r.pitch.CentreCircle+0.5)
	r.giveBall(s, RestartKickoff, taker, Vec2{})
	return taker
}

// award sets up a throw-in, corner, goal kick or free kick for side with
// the ball at (or near) at, and returns the taker.
func (r *referee) award(s *Snapshot, kind RestartKind, side Side, at Vec2, preferred int) int {
	hl, hw := r.pitch.HalfLength(), r.pitch.HalfWidth()
	for i := range s.Players {
		s.Players[i].Vel = Vec2{}
	}

	var spot, out Vec2 // out points off the field, behind the taker
	taker := NoPlayer
	clearance := freeKickDistance
	switch kind {
	case RestartThrowIn:
		sy := sign(at.Y)
		spot = Vec2{clamp(at.X, -hl+1, hl-1), sy * (hw - throwInInset)}
		out = Vec2{0, sy}
		clearance = throwInDistance
	case RestartCorner:
		spot = Vec2{side.Attack() * (hl - cornerInset), sign(at.Y) * (hw - cornerInset)}
		out = Vec2{side.Attack(), sign(at.Y)}.Norm()
	case RestartGoalKick:
		spot = Relative(side, Vec2{-hl + goalKickDepth, 0})
		out = Vec2{-side.Attack(), 0}
		taker = r.goalkeeper(side)
	default:
		spot = r.pitch.ClampField(at, 1)
		// No penalties: a foul in the box is retaken on the edge of the area.
		defending := side.Opponent()
		if r.pitch.InPenaltyArea(spot, defending) {
			rel := Relative(defending, spot)
			rel.X = -hl + r.pitch.PenaltyDepth + 1
			spot = Relative(defending, rel)
		}
		out = Vec2{-side.Attack(), 0}
		if preferred >= 0 && SideOf(preferred) == side {
			taker = preferred
		}
	}
	if taker == NoPlayer {
		taker = r.nearestOutfield(s, side, spot)
	}

	s.Players[taker].Pos = r.pitch.ClampRunOff(spot.Add(out.Scale(controlOffset)))
	r.clearFrom(s, spot, side, clearance)
	if kind == RestartGoalKick {
		r.clearArea(s, side)
	}
	r.giveBall(s, kind, taker, spot)
	return taker
}

// giveBall hands a dead ball to taker.
func (r *referee) giveBall(s *Snapshot, kind RestartKind, taker int, spot Vec2) {
	s.Ball = BallSnapshot{
		Pos:       spot,
		Possessor: taker,
		LastTouch: taker,
		Kicker:    NoPlayer,
		Receiver:  NoPlayer,
	}
	s.Players[taker].Vel = Vec2{}
	s.SetPiece = kind
}

// clearFrom moves opponents of side at least dist from spot.
func (r *referee) clearFrom(s *Snapshot, spot Vec2, side Side, dist float64) {
	for i := range s.Players {
		pl := &s.Players[i]
		if pl.Side == side {
			continue
		}
		d := pl.Pos.Sub(spot)
		if d.Len() >= dist {
			continue
		}
		dir := d.Norm()
		if dir == (Vec2{}) {
			dir = Vec2{side.Attack(), 0}
		}
		pl.Pos = r.pitch.ClampRunOff(spot.Add(dir.Scale(dist)))
	}
}

// clearArea moves attackers out of the penalty area side defends.
func (r *referee) clearArea(s *Snapshot, side Side) {
	edge := -r.pitch.HalfLength() + r.pitch.PenaltyDepth + 1
	for i := range s.Players {
		pl := &s.Players[i]
		if pl.Side == side || !r.pitch.InPenaltyArea(pl.Pos, side) {
			continue
		}
		rel := Relative(side, pl.Pos)
		rel.X = edge
		pl.Pos = Relative(side, rel)
	}
}

func (r *referee) goalkeeper(side Side) int {
	lo, hi := teamRange(side)
	for i := lo; i < hi; i++ {
		if r.roles[i] == roster.Goalkeeper {
			return i
		}
	}
	return lo
}

// nearestOutfield returns the outfield player of side closest to spot,
// lowest index on ties.
func (r *referee) nearestOutfield(s *Snapshot, side Side, spot Vec2) int {
	lo, hi := teamRange(side)
	best, bestD := NoPlayer, math.Inf(1)
	for i := lo; i < hi; i++ {
		if r.roles[i] == roster.Goalkeeper {
			continue
		}
		if d := s.Players[i].Pos.Dist(spot); d < bestD {
			best, bestD = i, d
		}
	}
	if best == NoPlayer {
		return lo
	}
	return best
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
