package archive

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pitchside/internal/config"
	"pitchside/internal/match"
	"pitchside/internal/roster"

	"github.com/google/uuid"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "matches.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// playMatch runs a short match and returns its result and events.
func playMatch(t *testing.T, seed int64) (match.Result, []match.Event) {
	t.Helper()
	home, err := roster.Generate("Harbour Town", "4-4-2", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	away, err := roster.Generate("Mill Lane", "4-2-3-1", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultMatch()
	cfg.MatchDuration = 4 * time.Minute
	cfg.RandomSeed = seed
	e, err := match.New(cfg, home, away, match.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return res, res.Events
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("Expected empty path error")
	}
}

// TestSaveAndGetMatch verifies a finished match reads back intact.
func TestSaveAndGetMatch(t *testing.T) {
	store := openTempStore(t)
	fixed := time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	res, events := playMatch(t, 21)
	if err := store.SaveMatch(context.Background(), res, [2]string{}, events); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	got, err := store.GetMatch(context.Background(), res.MatchID)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if got.ID != res.MatchID || got.Seed != res.Seed || got.Score != res.Score {
		t.Errorf("Summary mismatch: got %+v", got)
	}
	if got.Home != "Harbour Town" || got.Away != "Mill Lane" {
		t.Errorf("Expected team names from stats, got %q / %q", got.Home, got.Away)
	}
	if got.Phase != "full_time" || got.Ticks != res.Ticks || got.Clock != res.Clock {
		t.Errorf("Expected full_time after %d ticks at %v, got %s %d %v", res.Ticks, res.Clock, got.Phase, got.Ticks, got.Clock)
	}
	if got.Stats != res.Teams {
		t.Errorf("Stats changed in storage:\n got %+v\nwant %+v", got.Stats, res.Teams)
	}
	if !got.CreatedAt.Equal(fixed) {
		t.Errorf("Expected created_at %v, got %v", fixed, got.CreatedAt)
	}

	stored, err := store.Events(context.Background(), res.MatchID, 0, nil)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if !reflect.DeepEqual(stored, events) {
		t.Errorf("Events changed in storage: got %d, want %d", len(stored), len(events))
	}
}

// TestEventFilters verifies the since cursor and type filter.
func TestEventFilters(t *testing.T) {
	store := openTempStore(t)
	res, events := playMatch(t, 8)
	if err := store.SaveMatch(context.Background(), res, [2]string{"H", "A"}, events); err != nil {
		t.Fatal(err)
	}

	tail, err := store.Events(context.Background(), res.MatchID, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != len(events)-3 || (len(tail) > 0 && tail[0].Seq != 4) {
		t.Errorf("Expected events after seq 3, got %d starting at %v", len(tail), tail)
	}

	kickoff := match.EventKickoff
	kickoffs, err := store.Events(context.Background(), res.MatchID, 0, &kickoff)
	if err != nil {
		t.Fatal(err)
	}
	if want := 2 + res.Score[0] + res.Score[1]; len(kickoffs) != want {
		t.Errorf("Expected %d kickoffs, got %d", want, len(kickoffs))
	}
	for _, ev := range kickoffs {
		if ev.Type != match.EventKickoff {
			t.Errorf("Filter let through %s", ev.Type)
		}
	}
}

// TestSaveMatchTwice verifies replays of the same seed are refused.
func TestSaveMatchTwice(t *testing.T) {
	store := openTempStore(t)
	res, events := playMatch(t, 3)
	if err := store.SaveMatch(context.Background(), res, [2]string{}, events); err != nil {
		t.Fatal(err)
	}
	err := store.SaveMatch(context.Background(), res, [2]string{}, events)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Expected ErrExists, got %v", err)
	}

	list, err := store.ListMatches(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("Failed insert should roll back, got %d matches", len(list))
	}
}

// TestListAndDelete verifies ordering and cascading deletes.
func TestListAndDelete(t *testing.T) {
	store := openTempStore(t)
	clock := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	var ids []uuid.UUID
	for _, seed := range []int64{1, 2} {
		res, events := playMatch(t, seed)
		if err := store.SaveMatch(context.Background(), res, [2]string{}, events); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.MatchID)
	}

	list, err := store.ListMatches(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != ids[1] {
		t.Fatalf("Expected newest first, got %v", list)
	}

	if err := store.DeleteMatch(context.Background(), ids[1]); err != nil {
		t.Fatal(err)
	}
	events, err := store.Events(context.Background(), ids[1], 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("Expected events to cascade, %d left", len(events))
	}
	if _, err := store.GetMatch(context.Background(), ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteMatch(context.Background(), ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

// TestReopenKeepsData verifies migrations are not reapplied over data.
func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	res, events := playMatch(t, 4)
	if err := store.SaveMatch(context.Background(), res, [2]string{}, events); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	if _, err := store.GetMatch(context.Background(), res.MatchID); err != nil {
		t.Errorf("Match lost on reopen: %v", err)
	}
}
