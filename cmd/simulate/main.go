// Command simulate plays one match headless, as fast as possible, and
// prints the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pitchside/internal/archive"
	"pitchside/internal/config"
	"pitchside/internal/match"
	"pitchside/internal/render"
	"pitchside/internal/roster"

	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath    = flag.String("config", "", "YAML config file")
		homePath      = flag.String("home", "", "home team YAML (generated when empty)")
		awayPath      = flag.String("away", "", "away team YAML (generated when empty)")
		homeFormation = flag.String("home-formation", "4-3-3", "formation for a generated home team")
		awayFormation = flag.String("away-formation", "4-4-2", "formation for a generated away team")
		seed          = flag.Int64("seed", 0, "random seed; 0 keeps the configured one or draws a new one")
		eventsPath    = flag.String("events", "", "write events as NDJSON to this file")
		archivePath   = flag.String("archive", "", "store the finished match in this SQLite file")
		framesDir     = flag.String("frames", "", "write PNG frames to this directory")
		frameEvery    = flag.Int("frame-every", 50, "ticks between frames")
		quiet         = flag.Bool("quiet", false, "only print the summary")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️ .env: %v", err)
	}

	if err := run(options{
		configPath:    *configPath,
		homePath:      *homePath,
		awayPath:      *awayPath,
		homeFormation: *homeFormation,
		awayFormation: *awayFormation,
		seed:          *seed,
		eventsPath:    *eventsPath,
		archivePath:   *archivePath,
		framesDir:     *framesDir,
		frameEvery:    *frameEvery,
		quiet:         *quiet,
	}); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

type options struct {
	configPath, homePath, awayPath string
	homeFormation, awayFormation   string
	seed                           int64
	eventsPath, archivePath        string
	framesDir                      string
	frameEvery                     int
	quiet                          bool
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.seed != 0 {
		cfg.Match.RandomSeed = opts.seed
	}
	if cfg.Match.RandomSeed == 0 {
		if cfg.Match.RandomSeed, err = config.NewSeed(); err != nil {
			return err
		}
	}
	if opts.eventsPath == "" {
		opts.eventsPath = cfg.Storage.EventLogPath
	}
	if opts.archivePath == "" {
		opts.archivePath = cfg.Storage.ArchivePath
	}

	home, err := loadTeam(opts.homePath, "Home", opts.homeFormation, cfg.Match.RandomSeed)
	if err != nil {
		return fmt.Errorf("home team: %w", err)
	}
	away, err := loadTeam(opts.awayPath, "Away", opts.awayFormation, cfg.Match.RandomSeed+1)
	if err != nil {
		return fmt.Errorf("away team: %w", err)
	}

	out := &printer{quiet: opts.quiet, teams: [2]roster.Team{home, away}}
	engine, err := match.New(cfg.Match, home, away, match.WithObserver(out))
	if err != nil {
		return err
	}

	if opts.framesDir != "" {
		if err := os.MkdirAll(opts.framesDir, 0o755); err != nil {
			return fmt.Errorf("frames dir: %w", err)
		}
		out.frames = &frameWriter{
			dir:      opts.framesDir,
			every:    uint64(max(opts.frameEvery, 1)),
			renderer: render.New(engine.Pitch(), engine.Teams(), render.DefaultOptions()),
		}
	}

	if err := engine.Events().Start(opts.eventsPath); err != nil {
		return err
	}
	defer engine.Events().Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !opts.quiet {
		fmt.Printf("⚽ %s (%s) vs %s (%s), seed %d\n",
			home.Name, home.Formation, away.Name, away.Formation, engine.Seed())
	}
	started := time.Now()
	res, runErr := engine.Run(ctx)
	elapsed := time.Since(started)

	printSummary(res, elapsed)
	if out.frames != nil && out.frames.err != nil {
		log.Printf("⚠️ Frames stopped: %v", out.frames.err)
	}

	if opts.archivePath != "" {
		if err := save(opts.archivePath, res, res.Events); err != nil {
			return err
		}
		fmt.Printf("🗄️  Archived %s to %s\n", res.MatchID, opts.archivePath)
	}
	return runErr
}

func loadTeam(path, name, formation string, seed int64) (roster.Team, error) {
	if path != "" {
		return roster.Load(path)
	}
	return roster.Generate(name, formation, 0, seed)
}

func save(path string, res match.Result, events []match.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := archive.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveMatch(ctx, res, [2]string{}, events)
}

// printer prints a score line per simulated minute and writes frames.
type printer struct {
	match.NopObserver
	quiet      bool
	teams      [2]roster.Team
	lastMinute int
	frames     *frameWriter
}

func (p *printer) TickCompleted(s *match.Snapshot, _ time.Duration) {
	if p.frames != nil {
		p.frames.write(s)
	}
	if p.quiet {
		return
	}
	minute := int(s.Clock / time.Minute)
	if minute == p.lastMinute {
		return
	}
	p.lastMinute = minute
	fmt.Printf("%3d' %s %d - %d %s\n", minute, p.teams[match.Home].Name,
		s.Score[match.Home], s.Score[match.Away], p.teams[match.Away].Name)
}

func (p *printer) EventRecorded(ev match.Event) {
	if p.quiet {
		return
	}
	switch ev.Type {
	case match.EventGoal:
		fmt.Printf("     ⚽ GOAL %s #%d\n", p.teams[ev.Side].Name, p.number(ev))
	case match.EventHalfTime, match.EventFullTime, match.EventAbandoned:
		fmt.Printf("     ⏱️  %s\n", ev.Type)
	}
}

func (p *printer) number(ev match.Event) int {
	j := ev.Actor - int(ev.Side)*match.TeamSize
	if j < 0 || j >= len(p.teams[ev.Side].Players) {
		return 0
	}
	return p.teams[ev.Side].Players[j].Number
}

type frameWriter struct {
	dir      string
	every    uint64
	renderer *render.Renderer
	err      error
}

func (f *frameWriter) write(s *match.Snapshot) {
	if f.err != nil || s.Tick%f.every != 0 {
		return
	}
	f.err = f.renderer.SavePNG(filepath.Join(f.dir, fmt.Sprintf("frame_%06d.png", s.Tick)), s)
}

func printSummary(res match.Result, elapsed time.Duration) {
	home, away := res.Teams[match.Home], res.Teams[match.Away]
	poss := res.Possession()

	fmt.Println()
	fmt.Printf("%s %d - %d %s (%s, %s)\n", home.Name, res.Score[match.Home], res.Score[match.Away], away.Name,
		res.Phase, render.Clock(res.Clock))
	fmt.Printf("%-18s %8s %8s\n", "", "home", "away")
	fmt.Printf("%-18s %8d %8d\n", "shots", home.Shots, away.Shots)
	fmt.Printf("%-18s %8d %8d\n", "on target", home.ShotsOnTarget, away.ShotsOnTarget)
	fmt.Printf("%-18s %8s %8s\n", "passes",
		fmt.Sprintf("%d/%d", home.PassesCompleted, home.PassesAttempted),
		fmt.Sprintf("%d/%d", away.PassesCompleted, away.PassesAttempted))
	fmt.Printf("%-18s %7.0f%% %7.0f%%\n", "possession", poss[match.Home]*100, poss[match.Away]*100)
	fmt.Printf("%-18s %8d %8d\n", "fouls", home.Fouls, away.Fouls)
	fmt.Printf("%-18s %8d %8d\n", "corners", home.Corners, away.Corners)
	fmt.Printf("\n%d ticks, %d events, %d rejected actions in %v\n",
		res.Ticks, len(res.Events), res.RejectedActions, elapsed.Round(time.Millisecond))
}
