package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id               TEXT PRIMARY KEY,
	bot_name         TEXT NOT NULL DEFAULT '',
	resonance_score  REAL NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id          TEXT PRIMARY KEY,
	bot_a_id    TEXT NOT NULL,
	bot_b_id    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE(bot_a_id, bot_b_id),
	CHECK(bot_a_id <> bot_b_id)
);
CREATE INDEX IF NOT EXISTS idx_matches_b ON matches(bot_b_id);
`

// #endregion schema

// #region store-struct
// Store persists profiles, matches and resonance scores in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region profiles
// UpsertProfile creates a profile or renames an existing one. The score is left untouched.
func (s *Store) UpsertProfile(ctx context.Context, id, botName string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("profile id is required")
	}
	now := nowString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, bot_name, resonance_score, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET bot_name = excluded.bot_name, updated_at = excluded.updated_at`,
		id, botName, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", id, err)
	}
	return nil
}

// ListProfileIDs returns every known profile id.
func (s *Store) ListProfileIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResonanceScore returns the persisted score for one agent.
func (s *Store) ResonanceScore(ctx context.Context, id string) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx, `SELECT resonance_score FROM profiles WHERE id = ?`, id).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("score %s: %w", id, ErrProfileNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("score %s: %w", id, err)
	}
	return score, nil
}

// TopProfiles returns up to limit profiles ordered by score, highest first.
func (s *Store) TopProfiles(ctx context.Context, limit int) ([]Profile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bot_name, resonance_score, updated_at
		 FROM profiles ORDER BY resonance_score DESC, id ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		var updatedAt string
		if err := rows.Scan(&p.ID, &p.BotName, &p.ResonanceScore, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// #endregion profiles

// #region scores
// SetResonanceScores writes every score in one transaction.
// Ids without a profile row get one, so a score is never silently dropped.
func (s *Store) SetResonanceScores(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO profiles (id, resonance_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET resonance_score = excluded.resonance_score, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return fmt.Errorf("prepare score write: %w", err)
	}
	defer stmt.Close()

	now := nowString()
	for id, score := range scores {
		if _, err := stmt.ExecContext(ctx, id, score, now, now); err != nil {
			return fmt.Errorf("write score %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion scores

// #region matches
// EnsureMatch records a mutual match once per unordered pair and returns its id.
// Calling it again for the same pair (in either order) returns the existing id.
func (s *Store) EnsureMatch(ctx context.Context, agentA, agentB string) (string, error) {
	if agentA == "" || agentB == "" {
		return "", errors.New("both agent ids are required")
	}
	if agentA == agentB {
		return "", ErrSelfMatch
	}
	a, b := NormalizePair(agentA, agentB)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO matches (id, bot_a_id, bot_b_id, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), a, b, nowString(),
	)
	if err != nil {
		return "", fmt.Errorf("insert match: %w", err)
	}

	var id string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM matches WHERE bot_a_id = ? AND bot_b_id = ?`, a, b,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("read match: %w", err)
	}
	return id, nil
}

// DeleteMatch removes the match between two agents, if any.
func (s *Store) DeleteMatch(ctx context.Context, agentA, agentB string) error {
	a, b := NormalizePair(agentA, agentB)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM matches WHERE bot_a_id = ? AND bot_b_id = ?`, a, b,
	); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}

// CountMatches returns how many matches include the agent.
func (s *Store) CountMatches(ctx context.Context, agentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE bot_a_id = ? OR bot_b_id = ?`, agentID, agentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count matches %s: %w", agentID, err)
	}
	return n, nil
}

// ListMatches returns every stored match.
func (s *Store) ListMatches(ctx context.Context) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bot_a_id, bot_b_id, created_at FROM matches ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var createdAt string
		if err := rows.Scan(&m.ID, &m.A, &m.B, &createdAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// #endregion matches

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
