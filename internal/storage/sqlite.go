// Package storage provides SQLite-based persistence for saved arrangements
// and tower height records.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/stacker/internal/shapes"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// HeightEntry is one completed tower.
type HeightEntry struct {
	ID        int64
	LevelHash int64
	Height    float32
	ShareCode string
	CreatedAt time.Time
}

// LevelStats contains aggregated statistics for a level hash.
type LevelStats struct {
	LevelHash   int64
	Completions int
	BestHeight  float32
	AvgHeight   float64
	LastPlayed  time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS arrangements (
			level_id TEXT PRIMARY KEY,
			level_hash INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS saved_shapes (
			level_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			shape INTEGER NOT NULL,
			state INTEGER NOT NULL,
			modifiers INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			angle REAL NOT NULL,
			PRIMARY KEY (level_id, seq)
		);

		CREATE TABLE IF NOT EXISTS heights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level_hash INTEGER NOT NULL,
			height REAL NOT NULL,
			share_code TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_heights_top ON heights(level_hash, height DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveArrangement replaces the saved arrangement for a level.
func (s *Store) SaveArrangement(levelID string, v shapes.ShapesVec) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec("DELETE FROM saved_shapes WHERE level_id = ?", levelID); err != nil {
		return fmt.Errorf("storage: cannot clear arrangement: %w", err)
	}
	if _, err = tx.Exec(
		`INSERT INTO arrangements (level_id, level_hash, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(level_id) DO UPDATE SET level_hash = excluded.level_hash, updated_at = excluded.updated_at`,
		levelID, v.Hash(),
	); err != nil {
		return fmt.Errorf("storage: cannot save arrangement: %w", err)
	}

	for i, sh := range v {
		if _, err = tx.Exec(
			`INSERT INTO saved_shapes (level_id, seq, shape, state, modifiers, x, y, angle)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			levelID, i, int(sh.Shape), int(sh.State), int(sh.Modifiers),
			sh.Location.Position.X, sh.Location.Position.Y, sh.Location.Angle,
		); err != nil {
			return fmt.Errorf("storage: cannot save shape %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit arrangement: %w", err)
	}
	return nil
}

// LoadArrangement returns the saved arrangement for a level. ok is false if
// none was saved.
func (s *Store) LoadArrangement(levelID string) (v shapes.ShapesVec, ok bool, err error) {
	var hash int64
	err = s.db.QueryRow("SELECT level_hash FROM arrangements WHERE level_id = ?", levelID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: cannot query arrangement: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT shape, state, modifiers, x, y, angle
		 FROM saved_shapes
		 WHERE level_id = ?
		 ORDER BY seq`,
		levelID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("storage: cannot query saved shapes: %w", err)
	}
	defer rows.Close()

	v = shapes.ShapesVec{}
	for rows.Next() {
		var (
			sh                 shapes.EncodableShape
			shape, state, mods int
			x, y, angle        float64
		)
		if err := rows.Scan(&shape, &state, &mods, &x, &y, &angle); err != nil {
			return nil, false, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		sh.Shape = shapes.ShapeIndex(shape)
		sh.State = shapes.ShapeState(state)
		sh.Modifiers = shapes.ShapeModifiers(mods)
		sh.Location.Position.X = float32(x)
		sh.Location.Position.Y = float32(y)
		sh.Location.Angle = float32(angle)
		v = append(v, sh)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return v, true, nil
}

// DeleteArrangement forgets the saved arrangement for a level.
func (s *Store) DeleteArrangement(levelID string) error {
	if _, err := s.db.Exec("DELETE FROM saved_shapes WHERE level_id = ?", levelID); err != nil {
		return fmt.Errorf("storage: cannot delete saved shapes: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM arrangements WHERE level_id = ?", levelID); err != nil {
		return fmt.Errorf("storage: cannot delete arrangement: %w", err)
	}
	return nil
}

// SaveHeight records a completed tower for a level hash.
// Returns the ID of the inserted record.
func (s *Store) SaveHeight(levelHash int64, height float32, shareCode string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO heights (level_hash, height, share_code) VALUES (?, ?, ?)",
		levelHash, height, shareCode,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save height: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// BestHeights retrieves the top N heights for a level hash.
// Results are ordered by height descending.
func (s *Store) BestHeights(levelHash int64, limit int) ([]HeightEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, level_hash, height, share_code, created_at
		 FROM heights
		 WHERE level_hash = ?
		 ORDER BY height DESC, id ASC
		 LIMIT ?`,
		levelHash, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query heights: %w", err)
	}
	defer rows.Close()

	var entries []HeightEntry
	for rows.Next() {
		var (
			e         HeightEntry
			height    float64
			createdAt any
		)
		if err := rows.Scan(&e.ID, &e.LevelHash, &height, &e.ShareCode, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Height = float32(height)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// Best returns the highest tower for a level hash. ok is false if none exists.
func (s *Store) Best(levelHash int64) (float32, bool, error) {
	var height sql.NullFloat64
	err := s.db.QueryRow(
		"SELECT MAX(height) FROM heights WHERE level_hash = ?",
		levelHash,
	).Scan(&height)

	if err != nil {
		return 0, false, fmt.Errorf("storage: cannot query best height: %w", err)
	}

	if !height.Valid {
		return 0, false, nil
	}

	return float32(height.Float64), true, nil
}

// ClearHeights deletes all heights for a level hash.
func (s *Store) ClearHeights(levelHash int64) error {
	_, err := s.db.Exec("DELETE FROM heights WHERE level_hash = ?", levelHash)
	if err != nil {
		return fmt.Errorf("storage: cannot clear heights: %w", err)
	}
	return nil
}

// GetLevelStats retrieves aggregated statistics for a level hash.
func (s *Store) GetLevelStats(levelHash int64) (*LevelStats, error) {
	stats := &LevelStats{LevelHash: levelHash}

	var (
		best       float64
		lastPlayed any
	)
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(height), 0), COALESCE(AVG(height), 0), MAX(created_at)
		 FROM heights WHERE level_hash = ?`,
		levelHash,
	).Scan(&stats.Completions, &best, &stats.AvgHeight, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get level stats: %w", err)
	}
	stats.BestHeight = float32(best)
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
