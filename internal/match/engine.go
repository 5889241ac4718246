package match

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"pitchside/internal/config"
	"pitchside/internal/roster"
)

// Engine runs one match. Step is the only writer of match state; readers
// use Snapshot and Events, which never block the tick loop.
type Engine struct {
	mu sync.Mutex // serialises Step, Abandon and Result

	cfg     config.MatchConfig
	pitch   Pitch
	teams   [2]roster.Team
	seed    int64
	matchID uuid.UUID

	// Authoritative state, written only on the tick goroutine
	state    Snapshot
	skills   [NumPlayers]roster.Skills
	anchors  [NumPlayers]Vec2
	roles    [NumPlayers]roster.Role
	lanes    [NumPlayers]roster.Lane
	deciders [NumPlayers]Decider
	intents  [NumPlayers]*intentMachine

	phys *physics
	ref  *referee
	tact *tactician

	// Per-tick scratch, reused
	proposals [NumPlayers]Action
	errs      [NumPlayers]error
	sources   [NumPlayers]*rand.PCG
	rngs      [NumPlayers]*rand.Rand

	events   *EventLog
	feed     Feed
	stats    [2]TeamStats
	rejected uint64

	director Director
	observer Observer
	logger   *log.Logger
	warn     rate.Sometimes
	tracer   trace.Tracer

	kickoff  Side
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
	running  atomic.Bool
	runErr   atomic.Pointer[error]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger (default log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver adds an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if m, ok := e.observer.(multiObserver); ok {
			e.observer = append(m, o)
			return
		}
		if _, ok := e.observer.(NopObserver); ok {
			e.observer = o
			return
		}
		e.observer = multiObserver{e.observer, o}
	}
}

// WithDirector overrides role decisions. The director is called from
// several goroutines at once.
func WithDirector(d Director) Option {
	return func(e *Engine) { e.director = d }
}

// WithKickoffSide chooses the side that kicks off the first half (default Home).
func WithKickoffSide(side Side) Option {
	return func(e *Engine) { e.kickoff = side }
}

// WithPitch replaces the standard pitch.
func WithPitch(p Pitch) Option {
	return func(e *Engine) { e.pitch = p }
}

// WithTracer sets the tracer used for match spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New validates the configuration and both teams, then lines up the
// kickoff. The match starts on the first Step.
func New(cfg config.MatchConfig, home, away roster.Team, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var errs []error
	for _, t := range []struct {
		field string
		team  roster.Team
	}{{"home", home}, {"away", away}} {
		if err := t.team.Validate(); err != nil {
			errs = append(errs, &config.ConfigurationError{Field: t.field, Value: t.team.Name, Reason: err.Error()})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		pitch:    StandardPitch(),
		teams:    [2]roster.Team{home, away},
		seed:     cfg.RandomSeed,
		events:   NewEventLog(),
		observer: NopObserver{},
		logger:   log.Default(),
		warn:     rate.Sometimes{First: 5, Interval: 10 * time.Second},
		tracer:   otel.Tracer("pitchside/match"),
		kickoff:  Home,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.events.logger = e.logger
	e.matchID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("pitchside|%d|%s|%s", e.seed, home.Name, away.Name)))

	for side, team := range e.teams {
		anchors := Anchors(team)
		off := side * TeamSize
		for j, p := range team.Players {
			i := off + j
			e.skills[i] = p.Attributes.Skills()
			e.anchors[i] = anchors[j]
			e.roles[i] = p.Role
			e.lanes[i] = p.Lane
			e.deciders[i] = DeciderFor(p.Role)
			e.intents[i] = newIntentMachine()
			e.sources[i] = rand.NewPCG(0, 0)
			e.rngs[i] = rand.New(e.sources[i])
			e.state.Players[i] = PlayerSnapshot{
				Index:   i,
				Side:    Side(side),
				Role:    p.Role,
				Lane:    p.Lane,
				Number:  p.Number,
				Stamina: 1,
			}
		}
	}

	tick := cfg.TickDuration()
	commitRNG := rand.New(rand.NewPCG(uint64(e.seed), 0xc0ffee))
	e.phys = newPhysics(e.pitch, tick, &e.skills, commitRNG)
	e.ref = newReferee(e.pitch, cfg.MatchDuration, cfg.StoppagePerGoal, cfg.StoppagePerFoul, cfg.MaxStoppage,
		cfg.HalfTimeTicks, &e.anchors, &e.roles, &e.lanes)
	e.ref.kickedOff = e.kickoff
	e.tact = newTactician(e.pitch, cfg, home.Tactics, away.Tactics, &e.skills)
	for side, team := range e.teams {
		e.stats[side].Name = team.Name
	}

	e.state.Half = 1
	e.state.Phase = PhaseNotStarted
	taker := e.ref.placeKickoff(&e.state, e.kickoff)
	e.resetIntents(context.Background(), taker)
	e.feed.Publish(&e.state)
	return e, nil
}

// MatchID is the deterministic identifier of this fixture and seed.
func (e *Engine) MatchID() uuid.UUID { return e.matchID }

// Seed is the random seed driving the match.
func (e *Engine) Seed() int64 { return e.seed }

// Pitch returns the pitch geometry.
func (e *Engine) Pitch() Pitch { return e.pitch }

// Teams returns the home and away rosters.
func (e *Engine) Teams() [2]roster.Team { return e.teams }

// Events returns the match event log.
func (e *Engine) Events() *EventLog { return e.events }

// Snapshot returns the latest published state. Safe from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	s, _ := e.feed.Load()
	return s
}

// Phase returns the current phase. Safe from any goroutine.
func (e *Engine) Phase() Phase { return e.Snapshot().Phase }

// Step advances the match by one tick.
func (e *Engine) Step(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step(ctx)
}

func (e *Engine) step(ctx context.Context) error {
	started := time.Now()
	s := &e.state

	switch e.ref.Phase() {
	case PhaseFullTime, PhaseAbandoned:
		return ErrMatchOver
	case PhaseNotStarted:
		e.changePhase(ctx, phKickoff)
		e.record(ctx, Event{Type: EventKickoff, Side: e.kickoff, Actor: s.Ball.Possessor, Secondary: NoPlayer, Pos: s.Ball.Pos})
	case PhaseHalfTime:
		s.Tick++
		e.ref.breakLeft--
		if e.ref.breakLeft <= 0 {
			e.secondHalf(ctx)
		}
		e.finishTick(started)
		return nil
	}

	pre := s.Clone()
	e.decide(ctx, &pre)
	e.screen(&pre)
	if e.cfg.TacticsEnabled {
		e.tact.apply(&pre, &e.proposals)
		e.screen(&pre)
	}

	s.Tick++
	e.phys.beginTick(s)
	e.phys.kick(s, &e.proposals)
	e.phys.move(s, &e.proposals)
	e.phys.jostle(s)
	if e.cfg.TacticsEnabled {
		enforceCompactness(s, e.cfg.CompactnessMaxDistance)
	}
	e.phys.tackles(s, &e.proposals)
	e.phys.carry(s)
	e.phys.contest(s)
	e.phys.stamina(s)
	s.Clock += e.cfg.TickDuration()

	if err := e.commitIntents(ctx, &pre); err != nil {
		return e.corrupt(ctx, err)
	}
	if err := checkInvariants(&pre, s); err != nil {
		return e.corrupt(ctx, err)
	}

	e.tally(s)
	e.applyEvents(ctx, Detect(e.pitch, &pre, s))
	if s.Ball.Possessor >= 0 {
		s.Ball.Kick, s.Ball.Kicker, s.Ball.Receiver = KickNone, NoPlayer, NoPlayer
	}
	if s.Ball.Possessor >= 0 && s.Players[s.Ball.Possessor].Intent != IntentInPossession {
		return e.corrupt(ctx, newStateCorruption(s, "restart left possessor %d without the ball intent", s.Ball.Possessor))
	}

	if s.Clock >= e.ref.halfEnd() {
		if s.Half == 1 {
			e.changePhase(ctx, phHalfTime)
			e.ref.breakLeft = e.ref.breakTicks
			e.record(ctx, Event{Type: EventHalfTime, Side: Home, Actor: NoPlayer, Secondary: NoPlayer, Pos: s.Ball.Pos})
			e.logger.Printf("⏸️ Half time: %s %d-%d %s", e.teams[Home].Name, s.Score[Home], s.Score[Away], e.teams[Away].Name)
		} else {
			e.changePhase(ctx, phFullTime)
			e.record(ctx, Event{Type: EventFullTime, Side: Home, Actor: NoPlayer, Secondary: NoPlayer, Pos: s.Ball.Pos})
			e.logger.Printf("🏁 Full time: %s %d-%d %s", e.teams[Home].Name, s.Score[Home], s.Score[Away], e.teams[Away].Name)
		}
	}

	e.finishTick(started)
	return nil
}

// decide collects one proposal per player in parallel. Each player draws
// from its own stream seeded by (seed, tick, index), so the result does not
// depend on scheduling.
func (e *Engine) decide(ctx context.Context, pre *Snapshot) {
	var g errgroup.Group
	g.SetLimit(e.cfg.DecisionWorkers())
	for i := range NumPlayers {
		g.Go(func() error {
			e.proposals[i], e.errs[i] = e.decideOne(pre, i)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) decideOne(pre *Snapshot, i int) (a Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			a = Idle()
			err = &InvalidActionError{Tick: pre.Tick, Player: i, Kind: ActIdle, Reason: fmt.Sprintf("decision panicked: %v", r)}
		}
	}()

	e.sources[i].Seed(uint64(e.seed), uint64(pre.Tick)<<8|uint64(i))
	side := SideOf(i)
	sit := &Situation{
		Snap:          pre,
		Self:          i,
		Skills:        e.skills[i],
		Anchor:        e.anchors[i],
		Tactics:       e.teams[side].Tactics,
		Pressing:      e.tact.pressing(side),
		PressDistance: e.cfg.PressDistance,
		Pitch:         e.pitch,
		Rand:          e.rngs[i],
		Dt:            e.cfg.TickDuration().Seconds(),
	}
	if e.director != nil {
		if a, ok := e.director.Direct(sit); ok {
			return a, nil
		}
	}
	return e.deciders[i].Decide(sit), nil
}

// screen replaces every invalid proposal with Idle and reports it.
func (e *Engine) screen(pre *Snapshot) {
	for i := range e.proposals {
		err := e.errs[i]
		e.errs[i] = nil
		if err == nil {
			e.proposals[i], err = sanitize(e.proposals[i], pre, i, e.pitch)
		}
		var invalid *InvalidActionError
		if errors.As(err, &invalid) {
			e.proposals[i] = Idle()
			e.rejected++
			e.stats[SideOf(i)].RejectedActions++
			e.observer.ActionRejected(invalid)
			e.warn.Do(func() { e.logger.Printf("⚠️ %v", invalid) })
		}
	}
}

// commitIntents applies physics-driven possession changes, the
// dispossessed countdown and the intents roles asked for.
func (e *Engine) commitIntents(ctx context.Context, pre *Snapshot) error {
	s := &e.state
	prev, now := pre.Ball.Possessor, s.Ball.Possessor
	var errs []error
	lost := NoPlayer
	if prev != now {
		if prev >= 0 {
			ev := evLose
			if s.Ball.Kicker == prev && s.Ball.KickTick == s.Tick {
				ev = evRelease
			} else {
				lost = prev
			}
			errs = append(errs, e.intents[prev].fire(ctx, ev))
		}
		if now >= 0 {
			errs = append(errs, e.intents[now].fire(ctx, evGain))
		}
	}

	for i := range e.intents {
		if i == now {
			continue
		}
		if i != lost {
			errs = append(errs, e.intents[i].tick(ctx, e.cfg.DispossessedTicks))
		}
		e.intents[i].request(ctx, e.proposals[i].Intent)
	}
	e.syncIntents()

	if err := errors.Join(errs...); err != nil {
		return newStateCorruption(s, "intent transition: %v", err)
	}
	return nil
}

func (e *Engine) syncIntents() {
	for i, m := range e.intents {
		e.state.Players[i].Intent = m.Current()
	}
}

// resetIntents puts everyone back to Idle and gives taker the ball.
func (e *Engine) resetIntents(ctx context.Context, taker int) {
	for _, m := range e.intents {
		m.reset(ctx)
	}
	if taker >= 0 {
		_ = e.intents[taker].fire(ctx, evGain)
	}
	e.syncIntents()
}

// tally updates per-tick statistics.
func (e *Engine) tally(s *Snapshot) {
	if side, ok := s.PossessingSide(); ok {
		e.stats[side].PossessionTicks++
	}
	if s.Ball.KickTick == s.Tick && s.Ball.Kick == KickPass && s.Ball.Kicker >= 0 {
		e.stats[SideOf(s.Ball.Kicker)].PassesAttempted++
	}
}

type pendingRestart struct {
	kind   RestartKind
	side   Side
	at     Vec2
	taker  int
	weight int // goal beats foul beats out of play
}

// applyEvents records detected events and performs what they imply: score,
// stoppage and at most one restart.
func (e *Engine) applyEvents(ctx context.Context, events []Event) {
	s := &e.state
	var restart pendingRestart
	for _, ev := range events {
		e.record(ctx, ev)
		st := &e.stats[ev.Side]
		switch ev.Type {
		case EventPass:
			st.PassesCompleted++
		case EventInterception:
			st.Interceptions++
		case EventTackle:
			st.Tackles++
			if ev.Outcome == OutcomeWon {
				st.TacklesWon++
			}
		case EventFoul:
			st.Fouls++
			e.ref.addStoppage(s.Clock, e.ref.perFoul)
			if restart.weight < 2 {
				victim := ev.Secondary
				restart = pendingRestart{RestartFreeKick, SideOf(victim), ev.Pos, victim, 2}
			}
		case EventShot:
			st.Shots++
			if ev.Outcome == OutcomeOnTarget {
				st.ShotsOnTarget++
			}
		case EventSave:
			st.Saves++
		case EventGoal:
			s.Score[ev.Side]++
			st.Goals++
			e.ref.addStoppage(s.Clock, e.ref.perGoal)
			restart = pendingRestart{RestartKickoff, ev.Side.Opponent(), Vec2{}, NoPlayer, 3}
			e.logger.Printf("⚽ GOAL %s! %s %d-%d %s (%d')", e.teams[ev.Side].Name,
				e.teams[Home].Name, s.Score[Home], s.Score[Away], e.teams[Away].Name, ev.Minute())
		case EventOutOfPlay:
			if restart.weight < 1 {
				restart = pendingRestart{restartFromOutcome(ev.Outcome), ev.Side, ev.Pos, NoPlayer, 1}
			}
		}
	}
	if restart.kind == RestartNone {
		return
	}

	var taker int
	if restart.kind == RestartKickoff {
		taker = e.ref.placeKickoff(s, restart.side)
	} else {
		taker = e.ref.award(s, restart.kind, restart.side, restart.at, restart.taker)
	}
	if restart.kind == RestartCorner {
		e.stats[restart.side].Corners++
	}
	e.settle()
	e.resetIntents(ctx, taker)
	e.record(ctx, Event{Type: restart.kind.Event(), Side: restart.side, Actor: taker, Secondary: NoPlayer, Pos: s.Ball.Pos})
}

// record stamps an event with the current time and appends it.
func (e *Engine) record(ctx context.Context, ev Event) {
	s := &e.state
	ev.Tick, ev.Clock, ev.Half = s.Tick, s.Clock, s.Half
	ev = e.events.Append(ev)
	e.observer.EventRecorded(ev)

	switch ev.Type {
	case EventGoal, EventHalfTime, EventFullTime, EventAbandoned, EventKickoff:
		trace.SpanFromContext(ctx).AddEvent(ev.Type.String(), trace.WithAttributes(
			attribute.Int64("match.tick", int64(ev.Tick)),
			attribute.String("match.side", ev.Side.String()),
			attribute.Int("match.actor", ev.Actor),
			attribute.String("match.outcome", string(ev.Outcome)),
		))
	}
}

// changePhase fires a phase event and mirrors the result into the state.
func (e *Engine) changePhase(ctx context.Context, event string) {
	from, err := e.ref.transition(ctx, event)
	if err != nil {
		e.logger.Printf("⚠️ %v", err)
		return
	}
	to := e.ref.Phase()
	e.state.Phase = to
	if from != to {
		e.observer.PhaseChanged(from, to)
	}
}

// secondHalf restarts play after the break.
func (e *Engine) secondHalf(ctx context.Context) {
	s := &e.state
	s.Half = 2
	e.ref.startHalf(s.Clock)
	e.changePhase(ctx, phResume)
	side := e.ref.kickedOff.Opponent()
	taker := e.ref.placeKickoff(s, side)
	e.settle()
	e.resetIntents(ctx, taker)
	e.record(ctx, Event{Type: EventKickoff, Side: side, Actor: taker, Secondary: NoPlayer, Pos: s.Ball.Pos})
}

// settle re-applies the compactness bound after players were placed for a
// restart.
func (e *Engine) settle() {
	if e.cfg.TacticsEnabled {
		enforceCompactness(&e.state, e.cfg.CompactnessMaxDistance)
	}
}

// corrupt abandons the match after an invariant violation.
func (e *Engine) corrupt(ctx context.Context, err error) error {
	e.logger.Printf("❌ %v", err)
	e.abandon(ctx, OutcomeCorruption)
	e.feed.Publish(&e.state)
	return err
}

// abandon ends the match early. Caller holds e.mu.
func (e *Engine) abandon(ctx context.Context, why Outcome) {
	if e.ref.Phase().Terminal() {
		return
	}
	e.changePhase(ctx, phAbandon)
	e.record(ctx, Event{Type: EventAbandoned, Side: Home, Actor: NoPlayer, Secondary: NoPlayer, Pos: e.state.Ball.Pos, Outcome: why})
	e.logger.Printf("🛑 Match abandoned (%s) at %v", why, e.state.Clock)
}

// Abandon stops the match where it stands.
func (e *Engine) Abandon(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.abandon(ctx, OutcomeStopped)
	e.feed.Publish(&e.state)
}

func (e *Engine) finishTick(started time.Time) {
	e.feed.Publish(&e.state)
	e.observer.TickCompleted(&e.state, time.Since(started))
}

// Run steps the match to a terminal phase as fast as possible. Stop and
// context cancellation are checked after every tick and abandon the match;
// cancellation is reported as the context's error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "match.run", trace.WithAttributes(
		attribute.String("match.id", e.matchID.String()),
		attribute.Int64("match.seed", e.seed),
		attribute.String("match.home", e.teams[Home].Name),
		attribute.String("match.away", e.teams[Away].Name),
	))
	defer span.End()

	err := e.loop(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	res := e.Result()
	span.SetAttributes(attribute.Int("match.home_score", res.Score[Home]), attribute.Int("match.away_score", res.Score[Away]))
	return res, err
}

// loop steps until the match ends, pacing on tick when it is non-nil.
func (e *Engine) loop(ctx context.Context, tick <-chan time.Time) error {
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
			case <-e.stopChan:
			case <-tick:
			}
		}
		select {
		case <-ctx.Done():
			e.Abandon(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-e.stopChan:
			e.Abandon(ctx)
			return nil
		default:
		}

		if err := e.Step(ctx); err != nil {
			if errors.Is(err, ErrMatchOver) {
				return nil
			}
			return err
		}
		if e.Phase().Terminal() {
			return nil
		}
	}
}

// Start runs the match in the background in real time, sped up by pace.
// It returns immediately; Done is closed when the match ends.
func (e *Engine) Start(ctx context.Context, pace float64) {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	if pace <= 0 {
		pace = 1
	}
	interval := time.Duration(float64(e.cfg.TickDuration()) / pace)
	e.logger.Printf("⚽ Kick-off %s vs %s (seed %d, %v per tick)", e.teams[Home].Name, e.teams[Away].Name, e.seed, interval)

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		ctx, span := e.tracer.Start(ctx, "match.live", trace.WithAttributes(
			attribute.String("match.id", e.matchID.String()),
			attribute.Int64("match.seed", e.seed),
		))
		defer span.End()
		if err := e.loop(ctx, ticker.C); err != nil {
			span.RecordError(err)
			e.runErr.Store(&err)
		}
	}()
}

// Stop asks a running match to end after the current tick. Safe to call
// more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
}

// Done is closed when a match started with Start has finished.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Err is the error a Start-ed match ended with, if any.
func (e *Engine) Err() error {
	if p := e.runErr.Load(); p != nil {
		return *p
	}
	return nil
}
