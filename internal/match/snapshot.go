package match

import (
	"slices"
	"sync/atomic"
	"time"

	"pitchside/internal/roster"
)

// Squad sizes. Indices 0..10 are home, 11..21 away.
const (
	TeamSize   = roster.SquadSize
	NumPlayers = 2 * TeamSize
	NoPlayer   = -1
)

// SideOf returns the side of player index i.
func SideOf(i int) Side {
	if i < TeamSize {
		return Home
	}
	return Away
}

// teamRange returns the index range [lo, hi) of side.
func teamRange(side Side) (int, int) {
	if side == Home {
		return 0, TeamSize
	}
	return TeamSize, NumPlayers
}

// Phase is the match lifecycle state.
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseHalfTime
	PhaseFullTime
	PhaseAbandoned
)

var phaseNames = [...]string{"not_started", "in_progress", "half_time", "full_time", "abandoned"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// MarshalText encodes the phase name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Terminal reports whether no further ticks will run.
func (p Phase) Terminal() bool { return p == PhaseFullTime || p == PhaseAbandoned }

func parsePhase(name string) Phase {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i)
		}
	}
	return PhaseNotStarted
}

// KickKind describes the last deliberate strike of the ball.
type KickKind uint8

const (
	KickNone KickKind = iota
	KickPass
	KickShot
	KickClearance
)

func (k KickKind) String() string {
	switch k {
	case KickPass:
		return "pass"
	case KickShot:
		return "shot"
	case KickClearance:
		return "clearance"
	}
	return "none"
}

// MarshalText encodes the kick name.
func (k KickKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// TackleOutcome records a tackle attempt resolved during a tick.
type TackleOutcome uint8

const (
	TackleNone TackleOutcome = iota
	TackleWon
	TackleMissed
)

// PlayerSnapshot is an immutable copy of one player's runtime state.
// Uses value types only so copies never alias the engine's state.
type PlayerSnapshot struct {
	Index          int           `json:"index"`
	Side           Side          `json:"side"`
	Role           roster.Role   `json:"role"`
	Lane           roster.Lane   `json:"lane"`
	Number         int           `json:"number"`
	Pos            Vec2          `json:"pos"`
	Vel            Vec2          `json:"vel"`
	Stamina        float64       `json:"stamina"`
	Fatigue        float64       `json:"fatigue"`
	Intent         Intent        `json:"intent"`
	Action         ActionKind    `json:"action"`
	Target         Vec2          `json:"target"`
	Tackle         TackleOutcome `json:"-"`
	TackleCooldown int           `json:"-"`
	KickCooldown   int           `json:"-"`
}

// BallSnapshot is the ball and its possession bookkeeping.
type BallSnapshot struct {
	Pos       Vec2     `json:"pos"`
	Vel       Vec2     `json:"vel"`
	Possessor int      `json:"possessor"`
	LastTouch int      `json:"last_touch"`
	Kick      KickKind `json:"kick"`
	Kicker    int      `json:"kicker"`
	Receiver  int      `json:"receiver"`
	KickTick  uint64   `json:"kick_tick"`
}

// Foul is an infringement committed during a tick.
type Foul struct {
	Offender int  `json:"offender"`
	Victim   int  `json:"victim"`
	Pos      Vec2 `json:"pos"`
}

// Snapshot is the complete world state at the end of a tick. Decisions read
// it; only the engine's commit step produces new ones.
type Snapshot struct {
	Tick    uint64                     `json:"tick"`
	Clock   time.Duration              `json:"clock"`
	Half    int                        `json:"half"`
	Phase   Phase                      `json:"phase"`
	Score   [2]int                     `json:"score"`
	Ball    BallSnapshot               `json:"ball"`
	Players [NumPlayers]PlayerSnapshot `json:"players"`
	Fouls   []Foul                     `json:"fouls,omitempty"`

	// SetPiece is the restart the ball holder must take before play
	// resumes. Kicking the ball clears it.
	SetPiece RestartKind `json:"set_piece"`
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() Snapshot {
	c := *s
	c.Fouls = slices.Clone(s.Fouls)
	return c
}

// PossessingSide returns the side in possession, if any.
func (s *Snapshot) PossessingSide() (Side, bool) {
	if s.Ball.Possessor < 0 {
		return 0, false
	}
	return SideOf(s.Ball.Possessor), true
}

// Team returns the players of side.
func (s *Snapshot) Team(side Side) []PlayerSnapshot {
	lo, hi := teamRange(side)
	return s.Players[lo:hi]
}

// Feed publishes the latest snapshot to concurrent readers without
// blocking the tick loop.
type Feed struct {
	current atomic.Pointer[Snapshot]
}

// Publish stores a private copy of s.
func (f *Feed) Publish(s *Snapshot) {
	c := s.Clone()
	f.current.Store(&c)
}

// Load returns the latest snapshot, or false before the first publish.
func (f *Feed) Load() (Snapshot, bool) {
	p := f.current.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return p.Clone(), true
}
