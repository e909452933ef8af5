// Package storage provides SQLite-based persistence for the winners ledger.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
// Match state is deliberately not persisted; only win totals survive a
// restart.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for win persistence.
type Store struct {
	db *sql.DB
}

// WinRecord is one row of the winners ledger.
type WinRecord struct {
	Name string
	Wins int
}

// Open creates or opens a SQLite database at the given path, creating
// parent directories as needed and running migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS winners (
			name       TEXT PRIMARY KEY,
			wins       INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// Wins returns the persisted win count for a player name, zero when the
// player has never won.
func (s *Store) Wins(name string) (int, error) {
	var wins int
	err := s.db.QueryRow(`SELECT wins FROM winners WHERE name = ?`, name).Scan(&wins)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: query wins for %s: %w", name, err)
	}
	return wins, nil
}

// SetWins upserts a player's win count.
func (s *Store) SetWins(name string, wins int) error {
	_, err := s.db.Exec(`
		INSERT INTO winners (name, wins, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET wins = excluded.wins, updated_at = CURRENT_TIMESTAMP
	`, name, wins)
	if err != nil {
		return fmt.Errorf("storage: set wins for %s: %w", name, err)
	}
	return nil
}

// TopWinners returns up to limit winners ordered by win count descending.
func (s *Store) TopWinners(limit int) ([]WinRecord, error) {
	rows, err := s.db.Query(`SELECT name, wins FROM winners ORDER BY wins DESC, name ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query winners: %w", err)
	}
	defer rows.Close()

	var records []WinRecord
	for rows.Next() {
		var rec WinRecord
		if err := rows.Scan(&rec.Name, &rec.Wins); err != nil {
			return nil, fmt.Errorf("storage: scan winner row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
