package match

import (
	"time"

	"github.com/google/uuid"
)

// TeamStats are per-team counters kept by the engine.
type TeamStats struct {
	Name            string `json:"name"`
	Goals           int    `json:"goals"`
	Shots           int    `json:"shots"`
	ShotsOnTarget   int    `json:"shots_on_target"`
	PassesAttempted int    `json:"passes_attempted"`
	PassesCompleted int    `json:"passes_completed"`
	Interceptions   int    `json:"interceptions"`
	Saves           int    `json:"saves"`
	Tackles         int    `json:"tackles"`
	TacklesWon      int    `json:"tackles_won"`
	Fouls           int    `json:"fouls"`
	Corners         int    `json:"corners"`
	PossessionTicks uint64 `json:"possession_ticks"`
	RejectedActions int    `json:"rejected_actions"`
}

// PassAccuracy is completed over attempted passes, 0 when none were tried.
func (t TeamStats) PassAccuracy() float64 {
	if t.PassesAttempted == 0 {
		return 0
	}
	return float64(t.PassesCompleted) / float64(t.PassesAttempted)
}

// Result summarises a match.
type Result struct {
	MatchID         uuid.UUID     `json:"match_id"`
	Seed            int64         `json:"seed"`
	Phase           Phase         `json:"phase"`
	Score           [2]int        `json:"score"`
	Teams           [2]TeamStats  `json:"teams"`
	Ticks           uint64        `json:"ticks"`
	Clock           time.Duration `json:"clock"`
	Stoppage        time.Duration `json:"stoppage"`
	Events          []Event       `json:"-"` // Every event so far, in order
	RejectedActions uint64        `json:"rejected_actions"`
}

// Possession returns each side's share of possessed ticks.
func (r Result) Possession() [2]float64 {
	total := r.Teams[Home].PossessionTicks + r.Teams[Away].PossessionTicks
	if total == 0 {
		return [2]float64{0.5, 0.5}
	}
	h := float64(r.Teams[Home].PossessionTicks) / float64(total)
	return [2]float64{h, 1 - h}
}

// Winner returns the winning side, or false for a draw.
func (r Result) Winner() (Side, bool) {
	switch {
	case r.Score[Home] > r.Score[Away]:
		return Home, true
	case r.Score[Away] > r.Score[Home]:
		return Away, true
	}
	return Home, false
}

// Result returns the current summary with a copy of the event sequence.
// Safe to call while the match runs.
func (e *Engine) Result() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Result{
		MatchID:         e.matchID,
		Seed:            e.seed,
		Phase:           e.state.Phase,
		Score:           e.state.Score,
		Teams:           e.stats,
		Ticks:           e.state.Tick,
		Clock:           e.state.Clock,
		Stoppage:        e.ref.Stoppage(),
		Events:          e.events.All(),
		RejectedActions: e.rejected,
	}
}
