// Package sqlite stores lecture summaries and interview turns in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zhouzirui/interviewer/internal/model/interview"
)

// Store implements the interview store contracts on a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	// Expand ~ in path
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", interview.ErrPersistence, err)
		}
		path = filepath.Join(home, path[1:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create database dir: %w", interview.ErrPersistence, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", interview.ErrPersistence, err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate sqlite: %w", interview.ErrPersistence, err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_name TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			file TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			followup TEXT NOT NULL,
			logged_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_summaries_created ON summaries(created_at);
		CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Latest returns the newest summary; rows inserted later win ties.
func (s *Store) Latest(ctx context.Context) (interview.SummaryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_name, summary, created_at
		FROM summaries
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)

	var (
		record    interview.SummaryRecord
		createdAt int64
	)
	err := row.Scan(&record.ID, &record.Text, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return interview.SummaryRecord{}, interview.ErrNotFound
	}
	if err != nil {
		return interview.SummaryRecord{}, fmt.Errorf("%w: query latest summary: %w", interview.ErrPersistence, err)
	}

	record.CreatedAt = time.Unix(0, createdAt).UTC()
	return record, nil
}

// AddSummary inserts a summary row.
func (s *Store) AddSummary(ctx context.Context, record interview.SummaryRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: summary id is required", interview.ErrPersistence)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (file_name, summary, created_at) VALUES (?, ?, ?)`,
		record.ID, record.Text, record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert summary: %w", interview.ErrPersistence, err)
	}
	return nil
}

// AppendTurn inserts one conversation row.
func (s *Store) AppendTurn(ctx context.Context, entry interview.TurnLogEntry) error {
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (session_id, file, question, answer, followup, logged_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.SessionID, entry.SourceID, entry.Question, entry.Answer, entry.Followup, entry.LoggedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: insert turn: %w", interview.ErrPersistence, err)
	}
	return nil
}

// Turns returns the logged turns of a session in insertion order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]interview.TurnLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, file, question, answer, followup, logged_at
		FROM conversations
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: query turns: %w", interview.ErrPersistence, err)
	}
	defer rows.Close()

	var turns []interview.TurnLogEntry
	for rows.Next() {
		var (
			entry    interview.TurnLogEntry
			loggedAt int64
		)
		if err := rows.Scan(&entry.SessionID, &entry.SourceID, &entry.Question, &entry.Answer, &entry.Followup, &loggedAt); err != nil {
			return nil, fmt.Errorf("%w: scan turn: %w", interview.ErrPersistence, err)
		}
		entry.LoggedAt = time.Unix(0, loggedAt).UTC()
		turns = append(turns, entry)
	}
	return turns, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
