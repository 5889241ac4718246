package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"pitchside/internal/config"
	"pitchside/internal/roster"
)

// testTeams returns two generated sides with different shapes.
func testTeams(t testing.TB) (roster.Team, roster.Team) {
	t.Helper()
	home, err := roster.Generate("Harbour Town", "4-4-2", 0, 1)
	if err != nil {
		t.Fatalf("generate home: %v", err)
	}
	away, err := roster.Generate("Mill Lane", "4-3-3", 0, 2)
	if err != nil {
		t.Fatalf("generate away: %v", err)
	}
	return home, away
}

func testConfig(seed int64, duration time.Duration) config.MatchConfig {
	cfg := config.DefaultMatch()
	cfg.RandomSeed = seed
	cfg.MatchDuration = duration
	return cfg
}

func newTestEngine(t testing.TB, cfg config.MatchConfig, opts ...Option) *Engine {
	t.Helper()
	home, away := testTeams(t)
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	e, err := New(cfg, home, away, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// TestNewRejectsInvalidInput verifies configuration and roster problems
// surface before any tick runs.
func TestNewRejectsInvalidInput(t *testing.T) {
	home, away := testTeams(t)

	badCfg := config.DefaultMatch()
	badCfg.TickRate = 0
	short := away
	short.Players = short.Players[:10]

	tests := []struct {
		name  string
		cfg   config.MatchConfig
		away  roster.Team
		field string
	}{
		{"zero tick rate", badCfg, away, "tick_rate"},
		{"short squad", config.DefaultMatch(), short, "away"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, home, tt.away)
			var cfgErr *config.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

// TestKickoffState verifies the line-up before the first tick.
func TestKickoffState(t *testing.T) {
	e := newTestEngine(t, testConfig(7, 10*time.Minute))
	s := e.Snapshot()

	if s.Tick != 0 || s.Clock != 0 {
		t.Errorf("Expected tick 0 at 0s, got tick %d at %v", s.Tick, s.Clock)
	}
	if s.Phase != PhaseNotStarted {
		t.Errorf("Expected not_started, got %s", s.Phase)
	}
	if s.Ball.Pos != (Vec2{}) {
		t.Errorf("Expected ball on the centre spot, got %+v", s.Ball.Pos)
	}
	if s.Ball.Possessor < 0 || SideOf(s.Ball.Possessor) != Home {
		t.Fatalf("Expected a home player on the ball, got %d", s.Ball.Possessor)
	}
	if s.Score != [2]int{0, 0} {
		t.Errorf("Expected 0-0, got %v", s.Score)
	}
	if s.SetPiece != RestartKickoff {
		t.Errorf("Expected kickoff set piece, got %s", s.SetPiece)
	}
	for i, pl := range s.Players {
		if i != s.Ball.Possessor && Relative(pl.Side, pl.Pos).X > 0 {
			t.Errorf("Player %d starts in the opponent half at %+v", i, pl.Pos)
		}
		if pl.Stamina != 1 {
			t.Errorf("Player %d stamina %v, want 1", i, pl.Stamina)
		}
		want := IntentIdle
		if i == s.Ball.Possessor {
			want = IntentInPossession
		}
		if pl.Intent != want {
			t.Errorf("Player %d intent %s, want %s", i, pl.Intent, want)
		}
		if pl.Side == Away && pl.Pos.Len() < e.Pitch().CentreCircle {
			t.Errorf("Away player %d inside the centre circle at kickoff", i)
		}
	}
}

// TestFirstStepStartsMatch verifies the first tick starts play.
func TestFirstStepStartsMatch(t *testing.T) {
	e := newTestEngine(t, testConfig(7, 10*time.Minute))
	if err := e.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	s := e.Snapshot()
	if s.Phase != PhaseInProgress {
		t.Errorf("Expected in_progress, got %s", s.Phase)
	}
	if s.Tick != 1 || s.Clock != 100*time.Millisecond {
		t.Errorf("Expected tick 1 at 100ms, got tick %d at %v", s.Tick, s.Clock)
	}
	events := e.Events().All()
	if len(events) == 0 || events[0].Type != EventKickoff || events[0].Seq != 1 {
		t.Fatalf("Expected kickoff as first event, got %v", events)
	}
}

// TestDeterminism verifies equal seeds replay identically, regardless of
// how many decision workers run.
func TestDeterminism(t *testing.T) {
	run := func(workers int) ([]Event, Snapshot) {
		cfg := testConfig(42, 6*time.Minute)
		cfg.Workers = workers
		e := newTestEngine(t, cfg)
		res, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(res.Events) != e.Events().Len() {
			t.Fatalf("Result carries %d events, the log holds %d", len(res.Events), e.Events().Len())
		}
		return res.Events, e.Snapshot()
	}

	ev1, s1 := run(1)
	ev2, s2 := run(8)
	if !reflect.DeepEqual(ev1, ev2) {
		t.Fatalf("Event logs differ: %d vs %d events", len(ev1), len(ev2))
	}
	if !reflect.DeepEqual(s1, s2) {
		t.Fatal("Final snapshots differ")
	}

	ev3, _ := run(4)
	if !reflect.DeepEqual(ev1, ev3) {
		t.Fatal("Third replay differs")
	}
}

// TestDifferentSeedsDiverge verifies the seed actually drives the match.
func TestDifferentSeedsDiverge(t *testing.T) {
	a := newTestEngine(t, testConfig(1, 4*time.Minute))
	b := newTestEngine(t, testConfig(2, 4*time.Minute))
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a.Snapshot().Players, b.Snapshot().Players) {
		t.Error("Different seeds produced identical player states")
	}
	if a.MatchID() == b.MatchID() {
		t.Error("Different seeds produced the same match id")
	}
}

// invariantObserver checks per-tick properties from inside the loop.
type invariantObserver struct {
	NopObserver
	t       *testing.T
	limit   float64
	last    time.Duration
	ticks   int
	phases  []Phase
	rejects int
}

func (o *invariantObserver) TickCompleted(s *Snapshot, _ time.Duration) {
	o.ticks++
	if s.Clock < o.last {
		o.t.Errorf("tick %d: clock went backwards %v -> %v", s.Tick, o.last, s.Clock)
	}
	o.last = s.Clock

	holders := 0
	for i := range s.Players {
		if s.Players[i].Intent == IntentInPossession {
			holders++
			if i != s.Ball.Possessor {
				o.t.Errorf("tick %d: player %d holds intent without the ball", s.Tick, i)
			}
		}
	}
	if holders > 1 {
		o.t.Errorf("tick %d: %d players in possession", s.Tick, holders)
	}

	if s.Phase != PhaseInProgress {
		return
	}
	for _, side := range [...]Side{Home, Away} {
		c := outfieldCentroid(s, side)
		for _, pl := range s.Team(side) {
			if pl.Role == roster.Goalkeeper {
				continue
			}
			if d := pl.Pos.Dist(c); d > o.limit+1e-6 {
				o.t.Errorf("tick %d: player %d is %.2fm from the centroid (limit %.0f)", s.Tick, pl.Index, d, o.limit)
			}
		}
	}
}

func (o *invariantObserver) PhaseChanged(_, to Phase) { o.phases = append(o.phases, to) }

func (o *invariantObserver) ActionRejected(*InvalidActionError) { o.rejects++ }

// TestMatchInvariants runs short matches and checks possession, clock and
// compactness after every tick, restarts included.
func TestMatchInvariants(t *testing.T) {
	for _, seed := range []int64{1, 4, 11} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			checkMatchInvariants(t, testConfig(seed, 12*time.Minute))
		})
	}
}

func checkMatchInvariants(t *testing.T, cfg config.MatchConfig) {
	obs := &invariantObserver{t: t, limit: cfg.CompactnessMaxDistance}
	e := newTestEngine(t, cfg, WithObserver(obs))

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Phase != PhaseFullTime {
		t.Errorf("Expected full_time, got %s", res.Phase)
	}
	if res.Clock < cfg.MatchDuration {
		t.Errorf("Match ended at %v, before %v", res.Clock, cfg.MatchDuration)
	}
	if res.Clock > cfg.MatchDuration+2*cfg.MaxStoppage {
		t.Errorf("Match ran to %v, past regulation plus stoppage", res.Clock)
	}
	if uint64(obs.ticks) != res.Ticks {
		t.Errorf("Observer saw %d ticks, result says %d", obs.ticks, res.Ticks)
	}
	want := []Phase{PhaseInProgress, PhaseHalfTime, PhaseInProgress, PhaseFullTime}
	if !reflect.DeepEqual(obs.phases, want) {
		t.Errorf("Expected phases %v, got %v", want, obs.phases)
	}
	if uint64(obs.rejects) != res.RejectedActions {
		t.Errorf("Observer saw %d rejections, result says %d", obs.rejects, res.RejectedActions)
	}

	counts := map[EventType]int{}
	for _, ev := range e.Events().All() {
		counts[ev.Type]++
	}
	if counts[EventHalfTime] != 1 || counts[EventFullTime] != 1 {
		t.Errorf("Expected one half_time and one full_time, got %d and %d", counts[EventHalfTime], counts[EventFullTime])
	}
	if counts[EventKickoff] != 2+res.Score[Home]+res.Score[Away] {
		t.Errorf("Expected a kickoff per half and per goal, got %d", counts[EventKickoff])
	}
	if counts[EventGoal] != res.Score[Home]+res.Score[Away] {
		t.Errorf("Goal events %d do not match score %v", counts[EventGoal], res.Score)
	}

	if err := e.Step(context.Background()); !errors.Is(err, ErrMatchOver) {
		t.Errorf("Expected ErrMatchOver after full time, got %v", err)
	}
}

// TestSecondHalfKickoff verifies the other side kicks off after the break.
func TestSecondHalfKickoff(t *testing.T) {
	e := newTestEngine(t, testConfig(3, 2*time.Minute))
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	var kickoffs []Event
	for _, ev := range e.Events().All() {
		if ev.Type == EventKickoff {
			kickoffs = append(kickoffs, ev)
		}
	}
	var second *Event
	for i := range kickoffs {
		if kickoffs[i].Half == 2 {
			second = &kickoffs[i]
			break
		}
	}
	if second == nil {
		t.Fatal("No second-half kickoff recorded")
	}
	if second.Side != Away {
		t.Errorf("Expected away to kick off the second half, got %s", second.Side)
	}
}

// placeShot puts a struck shot in flight from pos and clears the way.
func placeShot(e *Engine, kicker int, pos, vel Vec2) {
	s := &e.state
	for i := range s.Players {
		if math.Abs(s.Players[i].Pos.X) > 25 {
			s.Players[i].Pos.X = 0
			s.Players[i].Vel = Vec2{}
		}
	}
	s.Ball = BallSnapshot{
		Pos:       pos,
		Vel:       vel,
		Possessor: NoPlayer,
		LastTouch: kicker,
		Kick:      KickShot,
		Kicker:    kicker,
		Receiver:  NoPlayer,
		KickTick:  s.Tick,
	}
	s.SetPiece = RestartNone
	e.resetIntents(context.Background(), NoPlayer)
}

// TestScriptedGoal verifies a shot into the net scores exactly once and
// hands the kickoff to the conceding side.
func TestScriptedGoal(t *testing.T) {
	e := newTestEngine(t, testConfig(5, 90*time.Minute))
	ctx := context.Background()
	if err := e.Step(ctx); err != nil {
		t.Fatal(err)
	}

	striker := 9
	placeShot(e, striker, Vec2{50, 1}, Vec2{25, 0})
	before := e.Events().Len()

	for range 5 {
		if err := e.Step(ctx); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	var goals []Event
	for _, ev := range e.Events().Since(uint64(before)) {
		if ev.Type == EventGoal {
			goals = append(goals, ev)
		}
	}
	if len(goals) != 1 {
		t.Fatalf("Expected exactly one goal, got %d", len(goals))
	}
	if goals[0].Side != Home || goals[0].Actor != striker || goals[0].Outcome != OutcomeGoal {
		t.Errorf("Unexpected goal event %v", goals[0])
	}

	s := e.Snapshot()
	if s.Score != [2]int{1, 0} {
		t.Errorf("Expected 1-0, got %v", s.Score)
	}
	res := e.Result()
	if res.Teams[Home].Goals != 1 {
		t.Errorf("Expected home stats to count the goal, got %d", res.Teams[Home].Goals)
	}
	if res.Stoppage != e.cfg.StoppagePerGoal {
		t.Errorf("Expected %v stoppage, got %v", e.cfg.StoppagePerGoal, res.Stoppage)
	}
	for _, ev := range e.Events().Since(uint64(before)) {
		if ev.Type == EventKickoff && ev.Side != Away {
			t.Errorf("Expected away to kick off after conceding, got %v", ev)
		}
	}
}

// TestOwnGoal verifies a deflection into one's own net credits the
// opponents.
func TestOwnGoal(t *testing.T) {
	e := newTestEngine(t, testConfig(5, 90*time.Minute))
	ctx := context.Background()
	if err := e.Step(ctx); err != nil {
		t.Fatal(err)
	}

	defender := 2 // home centre back
	placeShot(e, defender, Vec2{-50, -1}, Vec2{-25, 0})
	e.state.Ball.Kick = KickClearance
	for range 5 {
		if err := e.Step(ctx); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if s := e.Snapshot(); s.Score != [2]int{0, 1} {
		t.Fatalf("Expected 0-1, got %v", s.Score)
	}
	for _, ev := range e.Events().All() {
		if ev.Type == EventGoal && ev.Outcome != OutcomeOwnGoal {
			t.Errorf("Expected own_goal outcome, got %q", ev.Outcome)
		}
	}
}

// TestDirectorRejections verifies invalid and panicking decisions become
// Idle without stopping the match.
func TestDirectorRejections(t *testing.T) {
	var mu sync.Mutex
	rejected := map[int]int{}
	obs := &rejectObserver{fn: func(err *InvalidActionError) {
		mu.Lock()
		rejected[err.Player]++
		mu.Unlock()
	}}
	director := DirectorFunc(func(s *Situation) (Action, bool) {
		switch s.Self {
		case 4:
			return MoveTo(Vec2{math.NaN(), 0}, 1, IntentMovingToPosition), true
		case 15:
			panic("boom")
		case 16:
			return TackleOn(17, Vec2{}), true
		}
		return Action{}, false
	})

	e := newTestEngine(t, testConfig(9, 10*time.Minute), WithDirector(director), WithObserver(obs))
	for range 20 {
		if err := e.Step(context.Background()); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	for _, idx := range []int{4, 15, 16} {
		if rejected[idx] != 20 {
			t.Errorf("Player %d: expected 20 rejections, got %d", idx, rejected[idx])
		}
	}
	if got := e.Result().RejectedActions; got < 60 {
		t.Errorf("Expected at least 60 rejected actions, got %d", got)
	}
	if got := e.Phase(); got != PhaseInProgress {
		t.Errorf("Expected play to continue, got %s", got)
	}
}

type rejectObserver struct {
	NopObserver
	fn func(*InvalidActionError)
}

func (o *rejectObserver) ActionRejected(err *InvalidActionError) { o.fn(err) }

// TestRunCancellation verifies a cancelled context abandons the match.
func TestRunCancellation(t *testing.T) {
	e := newTestEngine(t, testConfig(1, 90*time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res.Phase != PhaseAbandoned {
		t.Errorf("Expected abandoned, got %s", res.Phase)
	}
	events := e.Events().All()
	if last := events[len(events)-1]; last.Type != EventAbandoned || last.Outcome != OutcomeStopped {
		t.Errorf("Expected abandoned event last, got %v", last)
	}
}

// TestEngineStartStop verifies the paced loop can be started and stopped.
func TestEngineStartStop(t *testing.T) {
	e := newTestEngine(t, testConfig(1, 90*time.Minute))
	e.Start(context.Background(), 100)
	time.Sleep(50 * time.Millisecond)
	e.Stop()
	e.Stop() // second stop is a no-op

	select {
	case <-e.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Engine did not stop")
	}
	if err := e.Err(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if e.Phase() != PhaseAbandoned {
		t.Errorf("Expected abandoned, got %s", e.Phase())
	}
}

// tickObserver hands every committed snapshot to fn.
type tickObserver struct {
	NopObserver
	fn func(*Snapshot)
}

func (o *tickObserver) TickCompleted(s *Snapshot, _ time.Duration) { o.fn(s) }

// TestStaminaDrops verifies a player made to run flat out for a minute and
// a half tires and is slower on the ticks that follow.
func TestStaminaDrops(t *testing.T) {
	const (
		runner  = 6
		seconds = 90
	)
	var centre Vec2
	// Chasing a point just ahead on a 30 m circle keeps the runner at full
	// effort without ever stopping.
	director := DirectorFunc(func(sit *Situation) (Action, bool) {
		if sit.Self != runner {
			return Idle(), true
		}
		out := sit.Me().Pos.Sub(centre).Norm()
		if out == (Vec2{}) {
			out = Vec2{1, 0}
		}
		return MoveTo(centre.Add(out.Rotate(0.3).Scale(30)), 1, IntentMovingToPosition), true
	})

	var speeds, stamina []float64
	obs := &tickObserver{fn: func(s *Snapshot) {
		pl := &s.Players[runner]
		speeds = append(speeds, pl.Vel.Len())
		stamina = append(stamina, pl.Stamina)
		for i := range s.Players {
			if s.Players[i].Stamina > 1-s.Players[i].Fatigue+1e-12 {
				t.Errorf("tick %d: player %d stamina %v above ceiling %v", s.Tick, i, s.Players[i].Stamina, 1-s.Players[i].Fatigue)
			}
		}
	}}

	cfg := testConfig(21, 20*time.Minute)
	cfg.TacticsEnabled = false
	e := newTestEngine(t, cfg, WithDirector(director), WithObserver(obs))
	if e.Snapshot().Ball.Possessor == runner {
		t.Fatal("Runner should not be taking the kickoff")
	}
	ticks := seconds * cfg.TickRate
	for range ticks {
		if err := e.Step(context.Background()); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	if len(stamina) != ticks {
		t.Fatalf("Expected %d observed ticks, got %d", ticks, len(stamina))
	}
	if got := stamina[len(stamina)-1]; got >= 1 {
		t.Fatalf("Expected the runner to tire, stamina is %v", got)
	}
	for i := 1; i < len(stamina); i++ {
		if stamina[i] > stamina[i-1] {
			t.Fatalf("tick %d: stamina rose from %v to %v while running", i+1, stamina[i-1], stamina[i])
		}
	}

	peak := func(from, to int) float64 {
		return slices.Max(speeds[from:to])
	}
	window := 5 * cfg.TickRate
	fresh := peak(2*cfg.TickRate, 2*cfg.TickRate+window)
	tired := peak(ticks-window, ticks)
	if tired >= fresh {
		t.Errorf("Expected a lower top speed after running, fresh %.3f m/s, tired %.3f m/s", fresh, tired)
	}
	sk := e.skills[runner]
	if limit := MaxSpeed(sk, stamina[ticks-window-1]); tired > limit+1e-9 {
		t.Errorf("Runner reached %.3f m/s, above the %.3f m/s their stamina allows", tired, limit)
	}
	if MaxSpeed(sk, 0.4) >= MaxSpeed(sk, 1) {
		t.Error("Expected lower top speed at lower stamina")
	}
}

// placeCarrier gives the ball to carrier at pos in open play and lines the
// home outfield up across x = -25, leaving each player in near at its
// paired spot.
func placeCarrier(e *Engine, carrier int, pos Vec2, near map[int]Vec2) {
	s := &e.state
	for i := 1; i < TeamSize; i++ {
		s.Players[i].Pos = Vec2{-25, -18 + 4*float64(i-1)}
		if p, ok := near[i]; ok {
			s.Players[i].Pos = p
		}
		s.Players[i].Vel = Vec2{}
	}
	s.Players[carrier].Pos = pos
	s.Players[carrier].Vel = Vec2{}
	s.Ball = BallSnapshot{
		Pos:       pos,
		Possessor: carrier,
		LastTouch: carrier,
		Kicker:    NoPlayer,
		Receiver:  NoPlayer,
	}
	s.SetPiece = RestartNone
	e.resetIntents(context.Background(), carrier)
}

// TestStepPresses verifies the defenders closest to an opposing carrier
// commit to pressing, capped at the configured number.
func TestStepPresses(t *testing.T) {
	const carrier = 16
	at := Vec2{-5, 20}
	tests := []struct {
		name string
		near map[int]Vec2
		want []int
	}{
		{"one defender in range", map[int]Vec2{7: {-10, 20}}, []int{7}},
		{"crowd is capped", map[int]Vec2{6: {-8, 14}, 7: {-10, 20}, 8: {-12, 25}}, []int{6, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(13, 90*time.Minute)
			cfg.PressingIntensityDefault = 0.9
			e := newTestEngine(t, cfg)
			ctx := context.Background()
			if err := e.Step(ctx); err != nil {
				t.Fatal(err)
			}
			placeCarrier(e, carrier, at, tt.near)
			for i := 1; i < TeamSize; i++ {
				if _, ok := tt.near[i]; !ok && e.state.Players[i].Pos.Dist(at) <= cfg.PressDistance {
					t.Fatalf("Player %d should start outside press distance", i)
				}
			}

			if err := e.Step(ctx); err != nil {
				t.Fatalf("Step: %v", err)
			}
			s := e.Snapshot()
			var got []int
			for i := 0; i < TeamSize; i++ {
				if s.Players[i].Intent == IntentPressing {
					got = append(got, i)
				}
			}
			if len(got) > cfg.MaxConcurrentPressers {
				t.Errorf("Expected at most %d pressers, got %v", cfg.MaxConcurrentPressers, got)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected pressers %v, got %v", tt.want, got)
			}
		})
	}
}

// TestFullMatchCreatesChances verifies default full matches get the ball
// into shooting range: every match has shots and the seeds between them
// produce goals, all in a plausible range.
func TestFullMatchCreatesChances(t *testing.T) {
	if testing.Short() {
		t.Skip("plays several full matches")
	}
	goals := 0
	for _, seed := range []int64{1, 2, 3, 4} {
		e := newTestEngine(t, testConfig(seed, 90*time.Minute))
		res, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		shots := res.Teams[Home].Shots + res.Teams[Away].Shots
		scored := res.Score[Home] + res.Score[Away]
		t.Logf("seed %d: %d-%d, %d shots, %d passes", seed, res.Score[Home], res.Score[Away], shots,
			res.Teams[Home].PassesAttempted+res.Teams[Away].PassesAttempted)
		if shots < 4 || shots > 80 {
			t.Errorf("seed %d: Expected between 4 and 80 shots, got %d", seed, shots)
		}
		if scored > 12 {
			t.Errorf("seed %d: Expected a plausible score, got %v", seed, res.Score)
		}
		goals += scored
	}
	if goals == 0 {
		t.Error("Expected at least one goal across the matches")
	}
}

func BenchmarkStep(b *testing.B) {
	e := newTestEngine(b, testConfig(1, 1000*time.Hour))
	ctx := context.Background()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := e.Step(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
