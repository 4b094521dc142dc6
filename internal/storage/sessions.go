// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"asesor/internal/engine"
	"asesor/internal/profile"
)

// ============================================================================
// Errors
// ============================================================================

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("storage: session not found")

// SessionError wraps a failed store operation with its context.
type SessionError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("storage: %s session %s: %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// ============================================================================
// Store
// ============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	state        TEXT NOT NULL,
	turn_count   INTEGER NOT NULL DEFAULT 0,
	profile_json TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
`

// SessionMeta is one row of List.
type SessionMeta struct {
	SessionID string    `json:"session_id"`
	State     string    `json:"state"`
	TurnCount int       `json:"turn_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a SQLite-backed session store. Safe for concurrent use; the
// underlying pool serializes writers.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store under dir, creating the directory as
// needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &SessionError{Op: "open", Err: err}
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "sessions.db"))
	if err != nil {
		return nil, &SessionError{Op: "open", Err: err}
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, &SessionError{Op: "open", Err: err}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &SessionError{Op: "migrate", Err: err}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the session row and rewrites its transcript in one
// transaction. Transcripts are small enough that rewriting beats
// tracking deltas.
func (s *Store) Save(conv *engine.Conversation) error {
	profileJSON, err := conv.Profile.ToJSON()
	if err != nil {
		return &SessionError{Op: "save", SessionID: conv.SessionID, Err: err}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &SessionError{Op: "save", SessionID: conv.SessionID, Err: err}
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, state, turn_count, profile_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			turn_count = excluded.turn_count,
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at`,
		conv.SessionID, conv.State.String(), conv.TurnCount, string(profileJSON),
		conv.CreatedAt.Unix(), conv.UpdatedAt.Unix())
	if err != nil {
		return &SessionError{Op: "save", SessionID: conv.SessionID, Err: err}
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", conv.SessionID); err != nil {
		return &SessionError{Op: "save", SessionID: conv.SessionID, Err: err}
	}
	for _, msg := range conv.Messages {
		_, err := tx.Exec(
			"INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
			conv.SessionID, msg.Role, msg.Content, msg.Timestamp.Unix())
		if err != nil {
			return &SessionError{Op: "save", SessionID: conv.SessionID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &SessionError{Op: "save", SessionID: conv.SessionID, Err: err}
	}
	return nil
}

// Load restores a session. The conversation comes back ready for
// engine.Resume; search results and recommendations are not persisted
// and start empty.
func (s *Store) Load(sessionID string) (*engine.Conversation, error) {
	var (
		stateName   string
		turnCount   int
		profileJSON string
		createdAt   int64
		updatedAt   int64
	)
	err := s.db.QueryRow(
		"SELECT state, turn_count, profile_json, created_at, updated_at FROM sessions WHERE id = ?",
		sessionID).Scan(&stateName, &turnCount, &profileJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &SessionError{Op: "load", SessionID: sessionID, Err: ErrSessionNotFound}
	}
	if err != nil {
		return nil, &SessionError{Op: "load", SessionID: sessionID, Err: err}
	}

	prof, err := profile.FromJSON([]byte(profileJSON))
	if err != nil {
		return nil, &SessionError{Op: "load", SessionID: sessionID, Err: err}
	}

	conv := &engine.Conversation{
		SessionID: sessionID,
		Profile:   prof,
		State:     parseState(stateName),
		TurnCount: turnCount,
		CreatedAt: time.Unix(createdAt, 0),
		UpdatedAt: time.Unix(updatedAt, 0),
	}

	rows, err := s.db.Query(
		"SELECT role, content, created_at FROM messages WHERE session_id = ? ORDER BY id",
		sessionID)
	if err != nil {
		return nil, &SessionError{Op: "load", SessionID: sessionID, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role, content string
			createdAt     int64
		)
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, &SessionError{Op: "load", SessionID: sessionID, Err: err}
		}
		conv.Messages = append(conv.Messages, engine.Message{
			Role:      role,
			Content:   content,
			Timestamp: time.Unix(createdAt, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &SessionError{Op: "load", SessionID: sessionID, Err: err}
	}
	return conv, nil
}

// List returns session metadata, most recently updated first.
func (s *Store) List() ([]SessionMeta, error) {
	rows, err := s.db.Query(
		"SELECT id, state, turn_count, updated_at FROM sessions ORDER BY updated_at DESC")
	if err != nil {
		return nil, &SessionError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []SessionMeta
	for rows.Next() {
		var (
			meta      SessionMeta
			updatedAt int64
		)
		if err := rows.Scan(&meta.SessionID, &meta.State, &meta.TurnCount, &updatedAt); err != nil {
			return nil, &SessionError{Op: "list", Err: err}
		}
		meta.UpdatedAt = time.Unix(updatedAt, 0)
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, &SessionError{Op: "list", Err: err}
	}
	return out, nil
}

// Delete removes a session and its transcript.
func (s *Store) Delete(sessionID string) error {
	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return &SessionError{Op: "delete", SessionID: sessionID, Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &SessionError{Op: "delete", SessionID: sessionID, Err: ErrSessionNotFound}
	}
	return nil
}

// ExportMarkdown renders a stored transcript for sharing.
func (s *Store) ExportMarkdown(sessionID string) (string, error) {
	conv, err := s.Load(sessionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Asesoría " + conv.SessionID + "\n\n")
	b.WriteString("Estado: " + conv.State.String() + "\n\n")
	if summary := conv.Profile.Summary(); summary != "" {
		b.WriteString(summary + "\n\n")
	}
	b.WriteString("## Conversación\n\n")
	for _, msg := range conv.Messages {
		speaker := "Cliente"
		if msg.Role == engine.RoleAssistant {
			speaker = "Asesor"
		}
		b.WriteString("**" + speaker + ":** " + msg.Content + "\n\n")
	}
	return b.String(), nil
}

// parseState maps a stored state name back to its value. Unknown names
// fall back to WELCOME rather than poisoning the engine with an invalid
// state.
func parseState(name string) engine.State {
	for s := engine.StateWelcome; s <= engine.StateEnded; s++ {
		if s.String() == name {
			return s
		}
	}
	return engine.StateWelcome
}
