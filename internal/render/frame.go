// Package render draws match snapshots as top-down PNG frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"time"

	"pitchside/internal/match"
	"pitchside/internal/roster"

	"github.com/fogleman/gg"
)

// Options controls frame size and colours.
type Options struct {
	Scale   float64 // Pixels per metre
	Margin  float64 // Pixels around the run-off
	Kits    [2]string
	Labels  bool // Shirt numbers
	Overlay bool // Scoreboard strip
}

// DefaultOptions renders a 1031 × 726 frame for a standard pitch.
func DefaultOptions() Options {
	return Options{
		Scale:   9,
		Margin:  16,
		Kits:    [2]string{"#d7263d", "#1b98e0"},
		Labels:  true,
		Overlay: true,
	}
}

const overlayHeight = 28.0

var (
	grassDark  = color.RGBA{46, 125, 50, 255}
	grassLight = color.RGBA{56, 142, 60, 255}
	lineColour = color.RGBA{240, 240, 240, 255}
	keeperKit  = color.RGBA{250, 200, 40, 255}
)

// Renderer draws frames for one pitch and pair of teams.
type Renderer struct {
	pitch  match.Pitch
	names  [2]string
	opts   Options
	kits   [2]color.RGBA
	width  int
	height int
}

// New builds a renderer. Zero Scale falls back to DefaultOptions.
func New(pitch match.Pitch, teams [2]roster.Team, opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Scale <= 0 {
		opts = def
	}
	r := &Renderer{
		pitch: pitch,
		names: [2]string{teams[0].Name, teams[1].Name},
		opts:  opts,
	}
	for i, hex := range opts.Kits {
		if hex == "" {
			hex = def.Kits[i]
		}
		r.kits[i] = parseHexColor(hex)
	}
	r.width = int(math.Ceil((pitch.Length+2*pitch.RunOff)*opts.Scale + 2*opts.Margin))
	r.height = int(math.Ceil((pitch.Width+2*pitch.RunOff)*opts.Scale + 2*opts.Margin))
	if opts.Overlay {
		r.height += int(overlayHeight)
	}
	return r
}

// Size returns the frame size in pixels.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

func (r *Renderer) draw(snap *match.Snapshot) *gg.Context {
	dc := gg.NewContext(r.width, r.height)
	r.drawPitch(dc)
	r.drawPlayers(dc, snap)
	r.drawBall(dc, snap)
	if r.opts.Overlay {
		r.drawOverlay(dc, snap)
	}
	return dc
}

// Image draws snap and returns the frame.
func (r *Renderer) Image(snap *match.Snapshot) image.Image {
	return r.draw(snap).Image()
}

// Frame encodes snap as a PNG into w.
func (r *Renderer) Frame(w io.Writer, snap *match.Snapshot) error {
	if err := r.draw(snap).EncodePNG(w); err != nil {
		return fmt.Errorf("encode frame %d: %w", snap.Tick, err)
	}
	return nil
}

// SavePNG writes the frame for snap to path.
func (r *Renderer) SavePNG(path string, snap *match.Snapshot) error {
	if err := gg.SavePNG(path, r.Image(snap)); err != nil {
		return fmt.Errorf("save frame %s: %w", path, err)
	}
	return nil
}

// Frame is a one-shot helper using DefaultOptions.
func Frame(w io.Writer, snap *match.Snapshot, pitch match.Pitch, teams [2]roster.Team) error {
	return New(pitch, teams, DefaultOptions()).Frame(w, snap)
}

// toScreen maps pitch metres (origin at the centre spot, y to the left of
// the home attack) onto pixels.
func (r *Renderer) toScreen(v match.Vec2) (float64, float64) {
	top := r.opts.Margin
	if r.opts.Overlay {
		top += overlayHeight
	}
	x := r.opts.Margin + (v.X+r.pitch.HalfLength()+r.pitch.RunOff)*r.opts.Scale
	y := top + (r.pitch.HalfWidth()+r.pitch.RunOff-v.Y)*r.opts.Scale
	return x, y
}

func (r *Renderer) drawPitch(dc *gg.Context) {
	dc.SetColor(grassDark)
	dc.Clear()

	// Mowing stripes, twelve across the length.
	stripes := 12
	x0, y0 := r.toScreen(match.Vec2{X: -r.pitch.HalfLength(), Y: r.pitch.HalfWidth()})
	x1, y1 := r.toScreen(match.Vec2{X: r.pitch.HalfLength(), Y: -r.pitch.HalfWidth()})
	w := (x1 - x0) / float64(stripes)
	dc.SetColor(grassLight)
	for i := 0; i < stripes; i += 2 {
		dc.DrawRectangle(x0+float64(i)*w, y0, w, y1-y0)
		dc.Fill()
	}

	s := r.opts.Scale
	hl := r.pitch.HalfLength()
	dc.SetColor(lineColour)
	dc.SetLineWidth(2)

	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()
	cx, cy := r.toScreen(match.Vec2{})
	dc.DrawLine(cx, y0, cx, y1)
	dc.Stroke()
	dc.DrawCircle(cx, cy, r.pitch.CentreCircle*s)
	dc.Stroke()
	dc.DrawCircle(cx, cy, 3)
	dc.Fill()

	for _, dir := range [...]float64{-1, 1} {
		line := dir * hl
		r.box(dc, line, dir, r.pitch.PenaltyDepth, r.pitch.PenaltyWidth)
		r.box(dc, line, dir, r.pitch.GoalAreaDepth, r.pitch.GoalAreaWidth)

		// Goal mouth drawn behind the line.
		gx, gy := r.toScreen(match.Vec2{X: line, Y: r.pitch.GoalWidth / 2})
		depth := 2 * s
		if dir < 0 {
			gx -= depth
		}
		dc.DrawRectangle(gx, gy, depth, r.pitch.GoalWidth*s)
		dc.Stroke()
	}
}

// box draws a rectangle of depth × width against the goal line at x.
func (r *Renderer) box(dc *gg.Context, x, dir, depth, width float64) {
	ax, ay := r.toScreen(match.Vec2{X: x, Y: width / 2})
	bx, by := r.toScreen(match.Vec2{X: x - dir*depth, Y: -width / 2})
	dc.DrawRectangle(math.Min(ax, bx), ay, math.Abs(bx-ax), by-ay)
	dc.Stroke()
}

func (r *Renderer) drawPlayers(dc *gg.Context, snap *match.Snapshot) {
	radius := 0.9 * r.opts.Scale
	for i := range snap.Players {
		p := &snap.Players[i]
		x, y := r.toScreen(p.Pos)

		// Shadow
		dc.SetColor(color.RGBA{0, 0, 0, 70})
		dc.DrawCircle(x+1.5, y+2, radius)
		dc.Fill()

		kit := r.kits[p.Side]
		if p.Role == roster.Goalkeeper {
			kit = keeperKit
		}
		dc.SetColor(kit)
		dc.DrawCircle(x, y, radius)
		dc.Fill()

		// Ring marks the carrier and tired legs.
		dc.SetLineWidth(1.5)
		switch {
		case snap.Ball.Possessor == i:
			dc.SetColor(color.White)
			dc.SetLineWidth(3)
		case p.Stamina < 0.3:
			dc.SetColor(color.RGBA{255, 120, 0, 255})
		default:
			dc.SetColor(color.RGBA{20, 25, 35, 255})
		}
		dc.DrawCircle(x, y, radius)
		dc.Stroke()

		if r.opts.Labels && p.Number > 0 {
			dc.SetColor(color.RGBA{20, 25, 35, 255})
			dc.DrawStringAnchored(fmt.Sprint(p.Number), x, y-radius-6, 0.5, 0.5)
		}
	}
}

func (r *Renderer) drawBall(dc *gg.Context, snap *match.Snapshot) {
	x, y := r.toScreen(snap.Ball.Pos)
	dc.SetColor(color.White)
	dc.DrawCircle(x, y, 0.45*r.opts.Scale)
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.DrawCircle(x, y, 0.45*r.opts.Scale)
	dc.Stroke()
}

func (r *Renderer) drawOverlay(dc *gg.Context, snap *match.Snapshot) {
	dc.SetColor(color.RGBA{18, 18, 24, 230})
	dc.DrawRectangle(0, 0, float64(r.width), overlayHeight)
	dc.Fill()

	// Kit swatches either side of the score.
	mid := float64(r.width) / 2
	for side, dx := range [...]float64{-1, 1} {
		dc.SetColor(r.kits[side])
		dc.DrawRectangle(mid+dx*120-6, overlayHeight/2-6, 12, 12)
		dc.Fill()
	}

	dc.SetColor(color.White)
	score := fmt.Sprintf("%s  %d - %d  %s", r.names[0], snap.Score[0], snap.Score[1], r.names[1])
	dc.DrawStringAnchored(score, mid, overlayHeight/2, 0.5, 0.5)
	dc.DrawStringAnchored(Clock(snap.Clock), 12, overlayHeight/2, 0, 0.5)
	dc.DrawStringAnchored(snap.Phase.String(), float64(r.width)-12, overlayHeight/2, 1, 0.5)
}

// Clock formats a match clock as mm:ss.
func Clock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	return color.RGBA{r, g, b, 255}
}
