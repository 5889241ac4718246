package match

import (
	"math/rand/v2"
	"testing"

	"pitchside/internal/roster"
)

// openScene puts home player 5 on the ball at the centre spot with the rest
// of the home outfield ten metres or more behind, and parks the away side
// deep in its own half.
func openScene() *Snapshot {
	s := baseSnapshot()
	for i := 1; i < TeamSize; i++ {
		s.Players[i].Pos = Vec2{-12, -20 + 4*float64(i-1)}
	}
	s.Players[0].Pos = Vec2{-50, 0}
	for i := TeamSize + 1; i < NumPlayers; i++ {
		s.Players[i].Pos = Vec2{45, -25 + 5*float64(i-TeamSize-1)}
	}
	s.Players[TeamSize].Pos = Vec2{50, 0}
	s.Players[5].Pos = Vec2{}
	s.Ball.Pos = Vec2{}
	return s
}

func situationFor(s *Snapshot, self int) *Situation {
	return &Situation{
		Snap:          s,
		Self:          self,
		Skills:        roster.Attributes{}.WithDefaults().Skills(),
		Pressing:      0.6,
		PressDistance: 15,
		Pitch:         StandardPitch(),
		Rand:          rand.New(rand.NewPCG(1, uint64(self))),
		Dt:            0.1,
	}
}

// TestBestPassSkipsBackPasses verifies a free carrier never looks backwards
// while a pressed one may.
func TestBestPassSkipsBackPasses(t *testing.T) {
	s := openScene()
	if opt, ok := bestPass(situationFor(s, 5)); ok {
		t.Errorf("Expected no option when every teammate is behind, got pass to %d", opt.receiver)
	}

	s.Players[TeamSize+3].Pos = Vec2{1.5, 0}
	opt, ok := bestPass(situationFor(s, 5))
	if !ok {
		t.Fatal("Expected a pressed carrier to find a safe pass")
	}
	if opt.progressive {
		t.Errorf("Pass to %d should not count as progressive", opt.receiver)
	}
}

// TestOnBallPrefersProgress verifies a free carrier runs with the ball
// rather than play it square, and releases it when a teammate is ahead.
func TestOnBallPrefersProgress(t *testing.T) {
	const (
		square  = 6
		forward = 9
	)
	tests := []struct {
		name     string
		ahead    bool
		wantPass bool
	}{
		{"square option only", false, false},
		{"teammate ahead", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openScene()
			s.Players[square].Pos = Vec2{0, 12}
			if tt.ahead {
				s.Players[forward].Pos = Vec2{15, 5}
			}
			sit := situationFor(s, 5)

			passes := 0
			for range 50 {
				a := onBall(sit, midfielderStyle)
				switch a.Kind {
				case ActPass:
					passes++
					if a.Other != forward {
						t.Fatalf("Expected passes to go forward to %d, got %d", forward, a.Other)
					}
				case ActDribble:
					if a.Target.X <= s.Players[5].Pos.X {
						t.Fatalf("Expected the carry to go forward, target %v", a.Target)
					}
				default:
					t.Fatalf("Unexpected %s", a.Kind)
				}
			}
			if tt.wantPass && passes == 0 {
				t.Error("Expected the forward pass to be played")
			}
			if !tt.wantPass && passes != 0 {
				t.Errorf("Expected no square passes, got %d", passes)
			}
		})
	}
}

// TestPositionalTargetInPossession verifies the block steps up when its
// side has the ball, further the higher the ball is.
func TestPositionalTargetInPossession(t *testing.T) {
	pitch := StandardPitch()
	anchor := Vec2{midfieldDepth, 0}
	tests := []struct {
		name string
		ball Vec2
		min  float64
	}{
		{"ball on the centre spot", Vec2{}, possessionPush},
		{"ball in the final third", Vec2{30, 0}, possessionPush + possessionPull*30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, side := range [...]Side{Home, Away} {
				ball := Relative(side, tt.ball)
				out := positionalTarget(pitch, side, roster.Midfielder, anchor, ball, 0.5, 0.5, false)
				in := positionalTarget(pitch, side, roster.Midfielder, anchor, ball, 0.5, 0.5, true)
				if step := Relative(side, in).X - Relative(side, out).X; step < tt.min-1e-9 {
					t.Errorf("%s: Expected the block to step up at least %.1fm, got %.2fm", side, tt.min, step)
				}
			}
		})
	}
}
