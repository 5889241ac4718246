// Package roster defines the attribute model: static player ratings and team
// tactical settings. Everything here is read-only once a match starts.
package roster

import (
	"errors"
	"fmt"
	"strings"
)

// Squad limits.
const (
	SquadSize      = 11
	MinAttribute   = 1
	MaxAttribute   = 100
	DefaultRating  = 50
	DefaultTactics = 0.5
)

// Role is the tactical position a player fills.
type Role uint8

const (
	Goalkeeper Role = iota
	CentreBack
	FullBack
	Midfielder
	Winger
	Striker
)

var roleCodes = [...]string{"GK", "CB", "FB", "MF", "W", "ST"}

var roleAliases = map[string]Role{
	"GOALKEEPER": Goalkeeper,
	"CENTREBACK": CentreBack, "CENTERBACK": CentreBack, "CD": CentreBack,
	"FULLBACK": FullBack, "LB": FullBack, "RB": FullBack,
	"MIDFIELDER": Midfielder, "CM": Midfielder, "DM": Midfielder, "AM": Midfielder,
	"WINGER": Winger, "LW": Winger, "RW": Winger,
	"STRIKER": Striker, "CF": Striker, "FW": Striker,
}

func (r Role) String() string {
	if int(r) < len(roleCodes) {
		return roleCodes[r]
	}
	return fmt.Sprintf("Role(%d)", r)
}

// MarshalText encodes the short role code.
func (r Role) MarshalText() ([]byte, error) {
	if int(r) >= len(roleCodes) {
		return nil, fmt.Errorf("unknown role %d", r)
	}
	return []byte(roleCodes[r]), nil
}

// UnmarshalText accepts the short code or a common long form.
func (r *Role) UnmarshalText(text []byte) error {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(string(text)), "-", ""))
	s = strings.ReplaceAll(s, " ", "")
	for i, code := range roleCodes {
		if s == code {
			*r = Role(i)
			return nil
		}
	}
	if role, ok := roleAliases[s]; ok {
		*r = role
		return nil
	}
	return fmt.Errorf("unknown role %q", string(text))
}

// Lane is the side of the pitch a player favours, from the player's own
// perspective facing the opponent goal.
type Lane int8

const (
	Right  Lane = -1
	Centre Lane = 0
	Left   Lane = 1
)

func (l Lane) String() string {
	switch l {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return "C"
	}
}

// MarshalText encodes the lane as L, C or R.
func (l Lane) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText decodes L, C or R (or left/centre/right).
func (l *Lane) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "L", "LEFT":
		*l = Left
	case "", "C", "CENTRE", "CENTER":
		*l = Centre
	case "R", "RIGHT":
		*l = Right
	default:
		return fmt.Errorf("unknown lane %q", string(text))
	}
	return nil
}

// Attributes are 1-100 ratings. Zero means "not given" and is replaced by
// DefaultRating when a roster is loaded.
type Attributes struct {
	Pace         int `yaml:"pace" json:"pace"`
	Acceleration int `yaml:"acceleration" json:"acceleration"`
	Stamina      int `yaml:"stamina" json:"stamina"`
	Strength     int `yaml:"strength" json:"strength"`
	Passing      int `yaml:"passing" json:"passing"`
	Shooting     int `yaml:"shooting" json:"shooting"`
	Dribbling    int `yaml:"dribbling" json:"dribbling"`
	FirstTouch   int `yaml:"first_touch" json:"first_touch"`
	Tackling     int `yaml:"tackling" json:"tackling"`
	Vision       int `yaml:"vision" json:"vision"`
	Positioning  int `yaml:"positioning" json:"positioning"`
	Decisions    int `yaml:"decisions" json:"decisions"`
	Handling     int `yaml:"handling" json:"handling"`
	Reflexes     int `yaml:"reflexes" json:"reflexes"`
}

var attributeNames = [...]string{
	"pace", "acceleration", "stamina", "strength", "passing", "shooting", "dribbling",
	"first_touch", "tackling", "vision", "positioning", "decisions", "handling", "reflexes",
}

func (a *Attributes) fields() [len(attributeNames)]*int {
	return [...]*int{
		&a.Pace, &a.Acceleration, &a.Stamina, &a.Strength, &a.Passing, &a.Shooting, &a.Dribbling,
		&a.FirstTouch, &a.Tackling, &a.Vision, &a.Positioning, &a.Decisions, &a.Handling, &a.Reflexes,
	}
}

// WithDefaults returns a copy with unset ratings replaced by DefaultRating.
func (a Attributes) WithDefaults() Attributes {
	for _, p := range a.fields() {
		if *p == 0 {
			*p = DefaultRating
		}
	}
	return a
}

// Skills is the 0..1 view of Attributes used by the simulation.
type Skills struct {
	Pace, Acceleration, Stamina, Strength    float64
	Passing, Shooting, Dribbling, FirstTouch float64
	Tackling, Vision, Positioning, Decisions float64
	Handling, Reflexes                       float64
}

// Skills normalises the ratings to 0..1.
func (a Attributes) Skills() Skills {
	n := func(v int) float64 { return float64(v) / MaxAttribute }
	return Skills{
		Pace: n(a.Pace), Acceleration: n(a.Acceleration), Stamina: n(a.Stamina), Strength: n(a.Strength),
		Passing: n(a.Passing), Shooting: n(a.Shooting), Dribbling: n(a.Dribbling), FirstTouch: n(a.FirstTouch),
		Tackling: n(a.Tackling), Vision: n(a.Vision), Positioning: n(a.Positioning), Decisions: n(a.Decisions),
		Handling: n(a.Handling), Reflexes: n(a.Reflexes),
	}
}

// Player is one squad member.
type Player struct {
	ID         string     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Number     int        `yaml:"number" json:"number"`
	Role       Role       `yaml:"role" json:"role"`
	Lane       Lane       `yaml:"lane" json:"lane"`
	Attributes Attributes `yaml:"attributes" json:"attributes"`
}

// Tactics are team-level principle weights, each within [0, 1].
// Nil fields fall back to defaults.
type Tactics struct {
	PressingIntensity *float64 `yaml:"pressing_intensity,omitempty" json:"pressing_intensity,omitempty"`
	DefensiveLine     *float64 `yaml:"defensive_line,omitempty" json:"defensive_line,omitempty"`
	Width             *float64 `yaml:"width,omitempty" json:"width,omitempty"`
}

// Pressing returns the team's pressing intensity or fallback when unset.
func (t Tactics) Pressing(fallback float64) float64 {
	if t.PressingIntensity == nil {
		return fallback
	}
	return *t.PressingIntensity
}

// Line returns the defensive line height: 0 deep, 1 high.
func (t Tactics) Line() float64 {
	if t.DefensiveLine == nil {
		return DefaultTactics
	}
	return *t.DefensiveLine
}

// WidthPreference returns how wide the team spreads in possession.
func (t Tactics) WidthPreference() float64 {
	if t.Width == nil {
		return DefaultTactics
	}
	return *t.Width
}

// Team is a full starting eleven with its tactics.
type Team struct {
	Name      string   `yaml:"name" json:"name"`
	Formation string   `yaml:"formation" json:"formation"`
	Tactics   Tactics  `yaml:"tactics" json:"tactics"`
	Players   []Player `yaml:"players" json:"players"`
}

// Goalkeeper returns the index of the team's goalkeeper, or -1.
func (t Team) Goalkeeper() int {
	for i, p := range t.Players {
		if p.Role == Goalkeeper {
			return i
		}
	}
	return -1
}

// Validate checks squad size, ratings, identities and tactics.
func (t Team) Validate() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("team name is required"))
	}
	if len(t.Players) != SquadSize {
		errs = append(errs, fmt.Errorf("team %s: %d players, want %d", t.Name, len(t.Players), SquadSize))
	}

	keepers := 0
	ids := make(map[string]bool, len(t.Players))
	numbers := make(map[int]bool, len(t.Players))
	for i := range t.Players {
		p := &t.Players[i]
		if p.Role > Striker {
			errs = append(errs, fmt.Errorf("player %s: invalid role %d", p.ID, p.Role))
		}
		if p.Role == Goalkeeper {
			keepers++
			if p.Lane != Centre {
				errs = append(errs, fmt.Errorf("player %s: goalkeeper must play centre", p.ID))
			}
		}
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("player %d: id is required", i))
		} else if ids[p.ID] {
			errs = append(errs, fmt.Errorf("player %s: duplicate id", p.ID))
		}
		ids[p.ID] = true
		if p.Number != 0 {
			if numbers[p.Number] {
				errs = append(errs, fmt.Errorf("player %s: duplicate number %d", p.ID, p.Number))
			}
			numbers[p.Number] = true
		}
		for j, v := range p.Attributes.fields() {
			if *v < MinAttribute || *v > MaxAttribute {
				errs = append(errs, fmt.Errorf("player %s: %s=%d outside [%d, %d]",
					p.ID, attributeNames[j], *v, MinAttribute, MaxAttribute))
			}
		}
	}
	if keepers != 1 {
		errs = append(errs, fmt.Errorf("team %s: %d goalkeepers, want 1", t.Name, keepers))
	}

	for name, v := range map[string]*float64{
		"pressing_intensity": t.Tactics.PressingIntensity,
		"defensive_line":     t.Tactics.DefensiveLine,
		"width":              t.Tactics.Width,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			errs = append(errs, fmt.Errorf("team %s: tactic %s=%v outside [0, 1]", t.Name, name, *v))
		}
	}

	return errors.Join(errs...)
}
