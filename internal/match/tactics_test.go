package match

import (
	"math"
	"testing"

	"pitchside/internal/config"
	"pitchside/internal/roster"
)

// pressScene puts an away carrier at the centre spot with every home
// outfield player asking to press.
func pressScene() (*Snapshot, *[NumPlayers]Action) {
	s := baseSnapshot()
	carrier := 16
	s.Players[5].Intent = IntentIdle
	s.Ball = BallSnapshot{Pos: Vec2{}, Possessor: carrier, LastTouch: carrier, Kicker: NoPlayer, Receiver: NoPlayer}
	s.Players[carrier].Pos = Vec2{}
	s.Players[carrier].Intent = IntentInPossession

	var actions [NumPlayers]Action
	for i := range actions {
		actions[i] = Idle()
	}
	for i := 1; i < TeamSize; i++ {
		s.Players[i].Pos = Vec2{-3 - float64(i), 0.5 * float64(i)}
		actions[i] = MoveTo(Vec2{}, 1, IntentPressing)
	}
	return s, &actions
}

func intensity(v float64) roster.Tactics {
	return roster.Tactics{PressingIntensity: &v}
}

// TestPressCapsPressers verifies only the closest eligible players press.
func TestPressCapsPressers(t *testing.T) {
	tests := []struct {
		name      string
		intensity float64
		max       int
		want      []int
	}{
		{"two closest", 0.8, 2, []int{1, 2}},
		{"three closest", 0.8, 3, []int{1, 2, 3}},
		{"nobody allowed", 0.8, 0, nil},
		{"below the trigger", 0.2, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultMatch()
			cfg.MaxConcurrentPressers = tt.max
			var skills [NumPlayers]roster.Skills
			tact := newTactician(StandardPitch(), cfg, intensity(tt.intensity), intensity(0.5), &skills)

			s, actions := pressScene()
			tact.press(s, actions, Home)

			var got []int
			for i := 0; i < TeamSize; i++ {
				if isPressing(&actions[i]) {
					got = append(got, i)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected pressers %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected pressers %v, got %v", tt.want, got)
				}
			}
			for i := 1; i < TeamSize; i++ {
				if !isPressing(&actions[i]) && actions[i].Intent != IntentMarking {
					t.Errorf("Player %d should have been demoted to marking, got %s", i, actions[i].Intent)
				}
			}
		})
	}
}

// TestPressSkipsTiredPlayers verifies stamina gates pressing.
func TestPressSkipsTiredPlayers(t *testing.T) {
	cfg := config.DefaultMatch()
	var skills [NumPlayers]roster.Skills
	tact := newTactician(StandardPitch(), cfg, intensity(0.9), intensity(0.5), &skills)

	s, actions := pressScene()
	s.Players[1].Stamina = cfg.PressMinStamina / 2
	tact.press(s, actions, Home)

	if isPressing(&actions[1]) {
		t.Error("Tired player should not press")
	}
	if !isPressing(&actions[2]) || !isPressing(&actions[3]) {
		t.Error("Next two closest players should press instead")
	}
}

// TestPressTacklesInRange verifies a chosen presser next to the carrier
// challenges instead of running.
func TestPressTacklesInRange(t *testing.T) {
	cfg := config.DefaultMatch()
	var skills [NumPlayers]roster.Skills
	tact := newTactician(StandardPitch(), cfg, intensity(0.9), intensity(0.5), &skills)

	s, actions := pressScene()
	s.Players[1].Pos = Vec2{-1, 0}
	tact.press(s, actions, Home)

	if actions[1].Kind != ActTackle || actions[1].Other != 16 {
		t.Errorf("Expected tackle on 16, got %s on %d", actions[1].Kind, actions[1].Other)
	}
}

// TestPressWithoutOpponentBall verifies pressing runs turn positional when
// there is nobody to press.
func TestPressWithoutOpponentBall(t *testing.T) {
	cfg := config.DefaultMatch()
	var skills [NumPlayers]roster.Skills
	tact := newTactician(StandardPitch(), cfg, intensity(0.9), intensity(0.5), &skills)

	s, actions := pressScene()
	s.Players[16].Intent = IntentIdle
	s.Ball.Possessor = NoPlayer
	tact.press(s, actions, Home)
	for i := 1; i < TeamSize; i++ {
		if actions[i].Intent != IntentMovingToPosition {
			t.Errorf("Player %d: expected moving_to_position, got %s", i, actions[i].Intent)
		}
	}
}

// TestEnforceCompactness verifies stragglers are pulled within the limit
// and goalkeepers are left alone.
func TestEnforceCompactness(t *testing.T) {
	tests := []struct {
		name  string
		limit float64
		far   Vec2
	}{
		{"one straggler", 20, Vec2{40, 30}},
		{"tight limit", 5, Vec2{-50, -30}},
		{"already compact", 100, Vec2{10, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSnapshot()
			s.Players[7].Pos = tt.far
			gk := s.Players[0].Pos
			before := s.Clone()

			enforceCompactness(s, tt.limit)

			for _, side := range [...]Side{Home, Away} {
				c := outfieldCentroid(s, side)
				for _, pl := range s.Team(side) {
					if pl.Role == roster.Goalkeeper {
						continue
					}
					if d := pl.Pos.Dist(c); d > tt.limit+1e-9 {
						t.Errorf("Player %d is %.3f from the centroid, limit %v", pl.Index, d, tt.limit)
					}
				}
			}
			if s.Players[0].Pos != gk {
				t.Error("Goalkeeper was moved")
			}
			if tt.limit >= 100 && s.Players != before.Players {
				t.Error("Compact team should not move")
			}
		})
	}
}

// TestEnforceCompactnessKeepsTaker verifies a set-piece taker stays on the
// spot while teammates close in around them.
func TestEnforceCompactnessKeepsTaker(t *testing.T) {
	tests := []struct {
		name string
		kind RestartKind
		spot Vec2
	}{
		{"throw-in far side", RestartThrowIn, Vec2{30, 34.5}},
		{"corner", RestartCorner, Vec2{52.5, -34}},
		{"free kick deep", RestartFreeKick, Vec2{-45, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const limit = 20.0
			s := baseSnapshot()
			taker := 7
			s.Players[taker].Pos = tt.spot
			s.Ball = BallSnapshot{Pos: tt.spot, Possessor: taker, LastTouch: taker, Kicker: NoPlayer, Receiver: NoPlayer}
			s.SetPiece = tt.kind

			enforceCompactness(s, limit)

			if s.Players[taker].Pos != tt.spot {
				t.Errorf("Expected taker to stay on %v, got %v", tt.spot, s.Players[taker].Pos)
			}
			for _, side := range [...]Side{Home, Away} {
				c := outfieldCentroid(s, side)
				for _, pl := range s.Team(side) {
					if pl.Role == roster.Goalkeeper {
						continue
					}
					if d := pl.Pos.Dist(c); d > limit+1e-9 {
						t.Errorf("Player %d is %.3f from the centroid, limit %v", pl.Index, d, limit)
					}
				}
			}
		})
	}
}

// TestCompactClampsTargets verifies move targets stay on the radius.
func TestCompactClampsTargets(t *testing.T) {
	cfg := config.DefaultMatch()
	cfg.CompactnessMaxDistance = 10
	var skills [NumPlayers]roster.Skills
	tact := newTactician(StandardPitch(), cfg, intensity(0.5), intensity(0.5), &skills)

	s := baseSnapshot()
	var actions [NumPlayers]Action
	for i := range actions {
		actions[i] = MoveTo(Vec2{50, 30}, 1, IntentSupporting)
	}
	tact.compact(s, &actions, Home)

	c := outfieldCentroid(s, Home)
	for i := 1; i < TeamSize; i++ {
		if d := actions[i].Target.Dist(c); d > 10+1e-9 {
			t.Errorf("Player %d target %.2f from centroid", i, d)
		}
	}
	if actions[0].Target != (Vec2{50, 30}) {
		t.Error("Goalkeeper target should not be clamped")
	}
	if actions[TeamSize+1].Target != (Vec2{50, 30}) {
		t.Error("Other side should not be touched")
	}
	if math.IsNaN(actions[1].Target.X) {
		t.Error("Clamped target is NaN")
	}
}
