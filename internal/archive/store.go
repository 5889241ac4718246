// Package archive keeps finished matches and their event streams in SQLite.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"pitchside/internal/archive/migrations"
	"pitchside/internal/match"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned for an unknown match ID.
	ErrNotFound = errors.New("match not found")
	// ErrExists is returned when a match ID was already archived. Match IDs
	// derive from seed and team names, so this means a replay.
	ErrExists = errors.New("match already archived")
)

// Summary is one archived match without its events.
type Summary struct {
	ID              uuid.UUID          `json:"id"`
	Seed            int64              `json:"seed"`
	Home            string             `json:"home"`
	Away            string             `json:"away"`
	Score           [2]int             `json:"score"`
	Phase           string             `json:"phase"`
	Ticks           uint64             `json:"ticks"`
	Clock           time.Duration      `json:"clock"`
	Stoppage        time.Duration      `json:"stoppage"`
	RejectedActions uint64             `json:"rejected_actions"`
	Stats           [2]match.TeamStats `json:"stats"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Store persists matches in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite archive and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("archive path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ApplyMigrations(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveMatch stores res and its events in one transaction.
func (s *Store) SaveMatch(ctx context.Context, res match.Result, names [2]string, events []match.Event) error {
	if res.MatchID == uuid.Nil {
		return errors.New("match id is required")
	}
	for i := range res.Teams {
		if names[i] == "" {
			names[i] = res.Teams[i].Name
		}
	}
	stats, err := json.Marshal(res.Teams)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO matches (
		   id, seed, home, away, home_goals, away_goals, phase,
		   ticks, clock_ms, stoppage_ms, rejected_actions, stats_json, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.MatchID.String(), res.Seed, names[match.Home], names[match.Away],
		res.Score[match.Home], res.Score[match.Away], res.Phase.String(),
		int64(res.Ticks), res.Clock.Milliseconds(), res.Stoppage.Milliseconds(),
		int64(res.RejectedActions), string(stats), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrExists, res.MatchID)
		}
		return fmt.Errorf("insert match: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_events (
		   match_id, seq, tick, clock_ms, half, type, side, actor, secondary, x, y, outcome
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare events: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			res.MatchID.String(), int64(ev.Seq), int64(ev.Tick), ev.Clock.Milliseconds(), ev.Half,
			ev.Type.String(), ev.Side.String(), ev.Actor, ev.Secondary, ev.Pos.X, ev.Pos.Y, string(ev.Outcome),
		); err != nil {
			return fmt.Errorf("insert event %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const summaryColumns = `id, seed, home, away, home_goals, away_goals, phase,
	ticks, clock_ms, stoppage_ms, rejected_actions, stats_json, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (Summary, error) {
	var (
		sum                       Summary
		id, stats                 string
		ticks, rejected           int64
		clockMS, stoppageMS, made int64
	)
	if err := row.Scan(&id, &sum.Seed, &sum.Home, &sum.Away, &sum.Score[match.Home], &sum.Score[match.Away],
		&sum.Phase, &ticks, &clockMS, &stoppageMS, &rejected, &stats, &made); err != nil {
		return Summary{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Summary{}, fmt.Errorf("match id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(stats), &sum.Stats); err != nil {
		return Summary{}, fmt.Errorf("decode stats for %s: %w", id, err)
	}
	sum.ID = parsed
	sum.Ticks = uint64(ticks)
	sum.RejectedActions = uint64(rejected)
	sum.Clock = time.Duration(clockMS) * time.Millisecond
	sum.Stoppage = time.Duration(stoppageMS) * time.Millisecond
	sum.CreatedAt = time.UnixMilli(made).UTC()
	return sum, nil
}

// GetMatch returns one archived match.
func (s *Store) GetMatch(ctx context.Context, id uuid.UUID) (Summary, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM matches WHERE id = ?`, id.String())
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("get match: %w", err)
	}
	return sum, nil
}

// ListMatches returns up to limit matches, newest first.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM matches ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Events returns the archived events of a match with Seq > since, optionally
// filtered to one type.
func (s *Store) Events(ctx context.Context, id uuid.UUID, since uint64, only *match.EventType) ([]match.Event, error) {
	query := `SELECT seq, tick, clock_ms, half, type, side, actor, secondary, x, y, outcome
		FROM match_events WHERE match_id = ? AND seq > ?`
	args := []any{id.String(), int64(since)}
	if only != nil {
		query += ` AND type = ?`
		args = append(args, only.String())
	}
	query += ` ORDER BY seq`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []match.Event
	for rows.Next() {
		var (
			ev                 match.Event
			seq, tick, clockMS int64
			typ, side, outcome string
		)
		if err := rows.Scan(&seq, &tick, &clockMS, &ev.Half, &typ, &side,
			&ev.Actor, &ev.Secondary, &ev.Pos.X, &ev.Pos.Y, &outcome); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := ev.Type.UnmarshalText([]byte(typ)); err != nil {
			return nil, err
		}
		if err := ev.Side.UnmarshalText([]byte(side)); err != nil {
			return nil, err
		}
		ev.Seq, ev.Tick = uint64(seq), uint64(tick)
		ev.Clock = time.Duration(clockMS) * time.Millisecond
		ev.Outcome = match.Outcome(outcome)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// DeleteMatch removes a match and, through the foreign key, its events.
func (s *Store) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
