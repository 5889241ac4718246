package match

import (
	"errors"
	"math"
	"testing"

	"pitchside/internal/roster"
)

// baseSnapshot is a minimal state: both sides in a line across their own
// halves, home player 5 on the ball.
func baseSnapshot() *Snapshot {
	s := &Snapshot{Half: 1, Phase: PhaseInProgress}
	for i := range s.Players {
		side := SideOf(i)
		role := roster.Midfielder
		if i%TeamSize == 0 {
			role = roster.Goalkeeper
		}
		k := float64(i % TeamSize)
		s.Players[i] = PlayerSnapshot{
			Index:   i,
			Side:    side,
			Role:    role,
			Pos:     Relative(side, Vec2{-5 - 3*k, -15 + 3*k}),
			Stamina: 1,
		}
	}
	s.Ball = BallSnapshot{Pos: s.Players[5].Pos, Possessor: 5, LastTouch: 5, Kicker: NoPlayer, Receiver: NoPlayer}
	s.Players[5].Intent = IntentInPossession
	return s
}

// TestSanitize verifies proposals are checked against physical limits.
func TestSanitize(t *testing.T) {
	pitch := StandardPitch()

	tests := []struct {
		name     string
		setPiece RestartKind
		idx      int
		action   Action
		wantErr  bool
		wantKind ActionKind
		intent   Intent
	}{
		{"move is fine", RestartNone, 3, MoveTo(Vec2{10, 5}, 0.8, IntentSupporting), false, ActMove, IntentSupporting},
		{"carrier intent is forced", RestartNone, 5, DribbleTo(Vec2{10, 0}, 1), false, ActDribble, IntentInPossession},
		{"nan target", RestartNone, 3, MoveTo(Vec2{math.NaN(), 0}, 1, IntentIdle), true, ActIdle, IntentIdle},
		{"target far off the pitch", RestartNone, 3, MoveTo(Vec2{200, 0}, 1, IntentIdle), true, ActIdle, IntentIdle},
		{"effort above one", RestartNone, 3, MoveTo(Vec2{}, 1.5, IntentIdle), true, ActIdle, IntentIdle},
		{"pass without the ball", RestartNone, 3, PassTo(4, Vec2{}), true, ActIdle, IntentIdle},
		{"pass to an opponent", RestartNone, 5, PassTo(14, Vec2{}), true, ActIdle, IntentIdle},
		{"pass to self", RestartNone, 5, PassTo(5, Vec2{}), true, ActIdle, IntentIdle},
		{"over-hit shot", RestartNone, 5, ShootAt(Vec2{52.5, 0}, MaxKickPower + 1), true, ActIdle, IntentIdle},
		{"tackle a teammate", RestartNone, 4, TackleOn(5, Vec2{}), true, ActIdle, IntentIdle},
		{"tackle the carrier", RestartNone, 14, TackleOn(5, Vec2{}), false, ActTackle, IntentPressing},
		{"tackle someone without the ball", RestartNone, 14, TackleOn(6, Vec2{}), true, ActIdle, IntentIdle},
		{"choose dispossessed", RestartNone, 3, MoveTo(Vec2{}, 1, IntentDispossessed), true, ActIdle, IntentIdle},
		{"claim possession", RestartNone, 3, MoveTo(Vec2{}, 1, IntentInPossession), true, ActIdle, IntentIdle},
		{"taker may not dribble", RestartThrowIn, 5, DribbleTo(Vec2{10, 0}, 1), false, ActIdle, IntentInPossession},
		{"taker may pass", RestartThrowIn, 5, PassTo(4, Vec2{}), false, ActPass, IntentInPossession},
		{"no tackles on a dead ball", RestartFreeKick, 14, TackleOn(5, Vec2{1, 1}), false, ActMove, IntentPressing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSnapshot()
			s.SetPiece = tt.setPiece
			got, err := sanitize(tt.action, s, tt.idx, pitch)

			var invalid *InvalidActionError
			if tt.wantErr != errors.As(err, &invalid) {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if invalid != nil && invalid.Player != tt.idx {
				t.Errorf("Expected player %d in error, got %d", tt.idx, invalid.Player)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, got.Kind)
			}
			if got.Intent != tt.intent {
				t.Errorf("Expected intent %s, got %s", tt.intent, got.Intent)
			}
		})
	}
}

// TestTackleCooldown verifies a player cannot tackle while recovering.
func TestTackleCooldown(t *testing.T) {
	s := baseSnapshot()
	s.Players[14].TackleCooldown = 3
	if _, err := sanitize(TackleOn(5, Vec2{}), s, 14, StandardPitch()); err == nil {
		t.Fatal("Expected tackle during cooldown to be rejected")
	}
}

// TestPassPower verifies kick speeds stay within range and grow with distance.
func TestPassPower(t *testing.T) {
	prev := 0.0
	for _, d := range []float64{2, 10, 25, 40, 70} {
		p := PassPower(d)
		if p < prev {
			t.Errorf("PassPower(%v) = %v, lower than for a shorter pass", d, p)
		}
		if p <= 0 || p > MaxKickPower {
			t.Errorf("PassPower(%v) = %v out of range", d, p)
		}
		prev = p
	}
}
