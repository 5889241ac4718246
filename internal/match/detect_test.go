package match

import "testing"

// TestDetect verifies events are derived from a single state transition.
func TestDetect(t *testing.T) {
	pitch := StandardPitch()

	loose := func(pos, vel Vec2, kick KickKind, kicker, lastTouch int) func(pre, post *Snapshot) {
		return func(pre, post *Snapshot) {
			pre.Ball = BallSnapshot{Pos: pos, Possessor: NoPlayer, LastTouch: lastTouch, Kick: kick, Kicker: kicker, Receiver: NoPlayer}
			post.Ball = pre.Ball
			post.Ball.Pos = pos.Add(vel)
			post.Ball.Vel = vel
		}
	}

	tests := []struct {
		name    string
		setup   func(pre, post *Snapshot)
		want    EventType
		side    Side
		actor   int
		outcome Outcome
	}{
		{
			name:  "home shot into the away net",
			setup: loose(Vec2{52, 0}, Vec2{2, 0}, KickShot, 9, 9),
			want:  EventGoal, side: Home, actor: 9, outcome: OutcomeGoal,
		},
		{
			name:  "own goal off a defender",
			setup: loose(Vec2{-52, 1}, Vec2{-2, 0}, KickClearance, 2, 2),
			want:  EventGoal, side: Away, actor: 2, outcome: OutcomeOwnGoal,
		},
		{
			name:  "over the touchline",
			setup: loose(Vec2{10, 33.5}, Vec2{0, 1.5}, KickPass, 3, 3),
			want:  EventOutOfPlay, side: Away, actor: 3, outcome: OutcomeThrowIn,
		},
		{
			name:  "wide of the post off an attacker",
			setup: loose(Vec2{52, 10}, Vec2{2, 0}, KickShot, 9, 9),
			want:  EventOutOfPlay, side: Away, actor: 9, outcome: OutcomeGoalKick,
		},
		{
			name:  "wide of the post off a defender",
			setup: loose(Vec2{52, 10}, Vec2{2, 0}, KickClearance, 13, 13),
			want:  EventOutOfPlay, side: Home, actor: 13, outcome: OutcomeCorner,
		},
		{
			name: "completed pass",
			setup: func(pre, post *Snapshot) {
				pre.Ball = BallSnapshot{Pos: Vec2{0, 0}, Possessor: NoPlayer, LastTouch: 4, Kick: KickPass, Kicker: 4, Receiver: 6}
				post.Ball = pre.Ball
				post.Ball.Possessor = 6
				post.Ball.LastTouch = 6
			},
			want: EventPass, side: Home, actor: 4, outcome: OutcomeCompleted,
		},
		{
			name: "interception",
			setup: func(pre, post *Snapshot) {
				pre.Ball = BallSnapshot{Pos: Vec2{0, 0}, Possessor: NoPlayer, LastTouch: 4, Kick: KickPass, Kicker: 4, Receiver: 6}
				post.Ball = pre.Ball
				post.Ball.Possessor = 15
				post.Ball.LastTouch = 15
			},
			want: EventInterception, side: Away, actor: 15, outcome: Outcome("pass"),
		},
		{
			name: "save",
			setup: func(pre, post *Snapshot) {
				pre.Ball = BallSnapshot{Pos: Vec2{48, 0}, Possessor: NoPlayer, LastTouch: 9, Kick: KickShot, Kicker: 9, Receiver: NoPlayer}
				post.Ball = pre.Ball
				post.Ball.Possessor = 11
				post.Ball.LastTouch = 11
			},
			want: EventSave, side: Away, actor: 11, outcome: OutcomeNone,
		},
		{
			name: "tackle won",
			setup: func(pre, post *Snapshot) {
				post.Ball.Possessor = 14
				post.Players[14].Tackle = TackleWon
			},
			want: EventTackle, side: Away, actor: 14, outcome: OutcomeWon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre := baseSnapshot()
			post := pre.Clone()
			post.Tick = pre.Tick + 1
			tt.setup(pre, &post)

			events := Detect(pitch, pre, &post)
			var found *Event
			for i := range events {
				if events[i].Type == tt.want {
					found = &events[i]
					break
				}
			}
			if found == nil {
				t.Fatalf("Expected %s event, got %v", tt.want, events)
			}
			if found.Side != tt.side || found.Actor != tt.actor || found.Outcome != tt.outcome {
				t.Errorf("Expected %s/%d/%q, got %s/%d/%q", tt.side, tt.actor, tt.outcome, found.Side, found.Actor, found.Outcome)
			}
			if found.Tick != post.Tick {
				t.Errorf("Expected tick %d, got %d", post.Tick, found.Tick)
			}
		})
	}
}

// TestDetectQuietTick verifies nothing is reported when nothing happens.
func TestDetectQuietTick(t *testing.T) {
	pre := baseSnapshot()
	post := pre.Clone()
	post.Tick++
	post.Players[3].Pos = post.Players[3].Pos.Add(Vec2{0.5, 0})
	if events := Detect(StandardPitch(), pre, &post); len(events) != 0 {
		t.Errorf("Expected no events, got %v", events)
	}
}

// TestDetectFoul verifies fouls are attributed to the offender's side.
func TestDetectFoul(t *testing.T) {
	pre := baseSnapshot()
	post := pre.Clone()
	post.Tick++
	post.Players[14].Tackle = TackleMissed
	post.Fouls = []Foul{{Offender: 14, Victim: 5, Pos: post.Players[5].Pos}}

	events := Detect(StandardPitch(), pre, &post)
	types := map[EventType]int{}
	for _, ev := range events {
		types[ev.Type]++
		if ev.Type == EventFoul && (ev.Side != Away || ev.Secondary != 5) {
			t.Errorf("Unexpected foul event %v", ev)
		}
	}
	if types[EventTackle] != 1 || types[EventFoul] != 1 {
		t.Errorf("Expected one tackle and one foul, got %v", types)
	}
}
