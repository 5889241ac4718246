package render

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"pitchside/internal/match"
	"pitchside/internal/roster"
)

func testTeams(t *testing.T) [2]roster.Team {
	t.Helper()
	home, err := roster.Generate("Harbour Town", "4-4-2", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	away, err := roster.Generate("Mill Lane", "4-3-3", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	return [2]roster.Team{home, away}
}

func testSnapshot() *match.Snapshot {
	s := &match.Snapshot{Half: 1, Phase: match.PhaseInProgress, Clock: 754 * time.Second, Score: [2]int{2, 1}}
	for i := range s.Players {
		side := match.SideOf(i)
		s.Players[i] = match.PlayerSnapshot{
			Index:   i,
			Side:    side,
			Number:  i%match.TeamSize + 1,
			Pos:     match.Relative(side, match.Vec2{X: -5 - 4*float64(i%match.TeamSize), Y: 2 * float64(i%5)}),
			Stamina: 1,
		}
	}
	s.Ball = match.BallSnapshot{Pos: match.Vec2{X: 20, Y: -10}, Possessor: match.NoPlayer}
	return s
}

// TestFrameEncodesPNG verifies frames decode back at the advertised size.
func TestFrameEncodesPNG(t *testing.T) {
	teams := testTeams(t)
	r := New(match.StandardPitch(), teams, DefaultOptions())

	var buf bytes.Buffer
	if err := r.Frame(&buf, testSnapshot()); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Frame is not a PNG: %v", err)
	}
	w, h := r.Size()
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		t.Errorf("Expected %dx%d, got %dx%d", w, h, b.Dx(), b.Dy())
	}
}

// TestBallIsDrawn verifies the ball lands where the pitch mapping puts it.
func TestBallIsDrawn(t *testing.T) {
	opts := DefaultOptions()
	opts.Labels = false
	r := New(match.StandardPitch(), testTeams(t), opts)
	snap := testSnapshot()

	img := r.Image(snap)
	x, y := r.toScreen(snap.Ball.Pos)
	got := color.RGBAModel.Convert(img.At(int(x), int(y))).(color.RGBA)
	if got.R < 200 || got.G < 200 || got.B < 200 {
		t.Errorf("Expected a white ball at (%d,%d), got %+v", int(x), int(y), got)
	}
}

// TestToScreen verifies the centre spot and orientation of the mapping.
func TestToScreen(t *testing.T) {
	opts := DefaultOptions()
	opts.Overlay = false
	r := New(match.StandardPitch(), testTeams(t), opts)
	w, h := r.Size()

	cx, cy := r.toScreen(match.Vec2{})
	if cx != float64(w)/2 || cy != float64(h)/2 {
		t.Errorf("Expected centre spot at (%v,%v), got (%v,%v)", float64(w)/2, float64(h)/2, cx, cy)
	}
	_, top := r.toScreen(match.Vec2{Y: 10})
	if top >= cy {
		t.Error("Positive y should draw above the centre line")
	}
	right, _ := r.toScreen(match.Vec2{X: 10})
	if right <= cx {
		t.Error("Positive x should draw right of centre")
	}
}

// TestSavePNG verifies frames land on disk.
func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	r := New(match.StandardPitch(), testTeams(t), Options{})
	if err := r.SavePNG(path, testSnapshot()); err != nil {
		t.Fatal(err)
	}
}

// TestClock verifies scoreboard formatting.
func TestClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{754 * time.Second, "12:34"},
		{93*time.Minute + 5*time.Second, "93:05"},
	}
	for _, tt := range tests {
		if got := Clock(tt.in); got != tt.want {
			t.Errorf("Clock(%v): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
