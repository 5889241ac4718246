package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"pitchside/internal/match"
	"pitchside/internal/render"
)

// MaxEventsPerPage caps one /api/match/events response.
const MaxEventsPerPage = 1000

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.match.Snapshot()
	writeJSON(w, map[string]any{
		"status": "ok",
		"phase":  snap.Phase,
		"tick":   snap.Tick,
	})
}

func (h *routerHandlers) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	snap := h.match.Snapshot()
	writeJSON(w, &snap)
}

// scoreResponse is the lightweight payload scoreboards poll.
type scoreResponse struct {
	Home   string      `json:"home"`
	Away   string      `json:"away"`
	Score  [2]int      `json:"score"`
	Half   int         `json:"half"`
	Minute int         `json:"minute"`
	Clock  string      `json:"clock"`
	Phase  match.Phase `json:"phase"`
}

func (h *routerHandlers) handleGetScore(w http.ResponseWriter, r *http.Request) {
	snap := h.match.Snapshot()
	teams := h.match.Teams()
	writeJSON(w, scoreResponse{
		Home:   teams[match.Home].Name,
		Away:   teams[match.Away].Name,
		Score:  snap.Score,
		Half:   snap.Half,
		Minute: match.Event{Clock: snap.Clock}.Minute(),
		Clock:  render.Clock(snap.Clock),
		Phase:  snap.Phase,
	})
}

// statsResponse adds derived shares to the engine summary.
type statsResponse struct {
	match.Result
	Possession   [2]float64 `json:"possession"`
	PassAccuracy [2]float64 `json:"pass_accuracy"`
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	res := h.match.Result()
	writeJSON(w, statsResponse{
		Result:     res,
		Possession: res.Possession(),
		PassAccuracy: [2]float64{
			res.Teams[match.Home].PassAccuracy(),
			res.Teams[match.Away].PassAccuracy(),
		},
	})
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		since = n
	}

	events := h.match.Events().Since(since)
	more := len(events) > MaxEventsPerPage
	if more {
		events = events[:MaxEventsPerPage]
	}
	next := since
	if len(events) > 0 {
		next = events[len(events)-1].Seq
	}
	if events == nil {
		events = []match.Event{}
	}

	writeJSON(w, map[string]any{
		"events": events,
		"next":   next,
		"more":   more,
	})
}

func (h *routerHandlers) handleGetTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.match.Teams())
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	snap := h.match.Snapshot()

	// Encode fully before writing so a failure can still send a 500.
	var buf bytes.Buffer
	if err := h.renderer.Frame(&buf, &snap); err != nil {
		log.Printf("❌ Frame render failed: %v", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleStop(w http.ResponseWriter, r *http.Request) {
	log.Println("🛑 Match stop requested via API")
	h.match.Stop()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
