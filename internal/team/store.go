package team

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed Repository implementation.
type Store struct {
	db *sql.DB
}

// Options tunes the store's connection pool.
type Options struct {
	// MaxConns bounds the connection pool. Turn volume is low, so a small
	// pool is enough; zero means the default of 4.
	MaxConns int
}

// NewStore opens (creating if needed) the SQLite database at path and
// migrates the schema.
func NewStore(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps readers from blocking the per-turn write transactions. The
	// _pragma form runs on every pooled connection, which busy_timeout needs.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate team tables: %w", err)
	}
	return store, nil
}

// NewStoreWithDB wraps an existing database connection, migrating the schema.
// Used by tests and callers that manage the pool themselves.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate team tables: %w", err)
	}
	return store, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			standup_active INTEGER NOT NULL DEFAULT 0,
			cur_speaker INTEGER NOT NULL DEFAULT 0,
			silence INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS persons (
			person_id INTEGER PRIMARY KEY AUTOINCREMENT,
			organizer TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL DEFAULT '',
			last_theme TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (organizer) REFERENCES users(user_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS integrations (
			user_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			login TEXT NOT NULL,
			repo TEXT NOT NULL,
			installation TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (user_id, provider),
			FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_persons_organizer ON persons(organizer)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// UserExists reports whether the user id has a session row.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE user_id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateUser inserts a fresh session row with defaults (inactive standup,
// pointer at zero, silence cue enabled).
func (s *Store) CreateUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, standup_active, cur_speaker, silence)
		VALUES (?, 0, 0, 1)
	`, userID)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrUserExists
	}
	return err
}

// GetTeam returns a roster snapshot. Display-only; order is unspecified.
func (s *Store) GetTeam(ctx context.Context, userID string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, first_name, last_name, last_theme
		FROM persons WHERE organizer = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanPersons(rows)
}

// GetTeamMemberAt returns the member at index i in insertion order.
func (s *Store) GetTeamMemberAt(ctx context.Context, userID string, i int) (Person, error) {
	if i < 0 {
		return Person{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT person_id, first_name, last_name, last_theme
		FROM persons WHERE organizer = ?
		ORDER BY person_id ASC
		LIMIT 1 OFFSET ?
	`, userID, i)
	return scanPerson(row)
}

// AddTeamMember appends a member to the roster. Insertion order is the
// rotation order, so members are never reordered.
func (s *Store) AddTeamMember(ctx context.Context, userID string, p Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (organizer, first_name, last_name)
		VALUES (?, ?, ?)
	`, userID, p.FirstName, p.LastName)
	return err
}

// DeleteTeamMember removes at most one member matching (first, last) and
// reports whether a match was removed. Among duplicates the oldest entry
// (lowest surrogate key) goes first.
func (s *Store) DeleteTeamMember(ctx context.Context, userID string, p Person) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM persons WHERE person_id = (
			SELECT person_id FROM persons
			WHERE organizer = ? AND first_name = ? AND last_name = ?
			ORDER BY person_id ASC
			LIMIT 1
		)
	`, userID, p.FirstName, p.LastName)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanTeam removes every roster member.
func (s *Store) CleanTeam(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM persons WHERE organizer = ?`, userID)
	return err
}

// StartStandup raises the active flag. The pointer is reset separately by
// ResetUser, which every standup ends with.
func (s *Store) StartStandup(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET standup_active = 1 WHERE user_id = ?
	`, userID)
	return err
}

// ResetUser atomically deactivates the standup, rewinds the pointer and
// clears every member's theme.
func (s *Store) ResetUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET standup_active = 0, cur_speaker = 0 WHERE user_id = ?
	`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE persons SET last_theme = '' WHERE organizer = ?
	`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// StandupActive reports the active flag; false for unknown users.
func (s *Store) StandupActive(ctx context.Context, userID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `
		SELECT standup_active FROM users WHERE user_id = ?
	`, userID).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

// CallNextSpeaker reads the pointer, fetches the member at that index and
// increments the pointer, all inside one transaction so two concurrent turns
// cannot both observe the same index. ErrNotFound means the rotation is
// exhausted; the increment is rolled back with the rest of the transaction.
func (s *Store) CallNextSpeaker(ctx context.Context, userID string) (Person, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Person{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var idx int
	err = tx.QueryRowContext(ctx, `
		SELECT cur_speaker FROM users WHERE user_id = ?
	`, userID).Scan(&idx)
	if err == sql.ErrNoRows {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, err
	}

	row := tx.QueryRowContext(ctx, `
		SELECT person_id, first_name, last_name, last_theme
		FROM persons WHERE organizer = ?
		ORDER BY person_id ASC
		LIMIT 1 OFFSET ?
	`, userID, idx)
	speaker, err := scanPerson(row)
	if err != nil {
		return Person{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET cur_speaker = cur_speaker + 1 WHERE user_id = ?
	`, userID); err != nil {
		return Person{}, err
	}
	if err := tx.Commit(); err != nil {
		return Person{}, err
	}
	return speaker, nil
}

// SetThemeForSpeakerAt stores a theme on the member at index i in insertion
// order. ErrNotFound when the index does not resolve to a member.
func (s *Store) SetThemeForSpeakerAt(ctx context.Context, userID string, i int, theme string) error {
	if i < 0 {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE persons SET last_theme = ? WHERE person_id = (
			SELECT person_id FROM persons
			WHERE organizer = ?
			ORDER BY person_id ASC
			LIMIT 1 OFFSET ?
		)
	`, theme, userID, i)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetThemeForCurrentSpeaker reads the speaker pointer and stores the theme
// on the member at pointer-1, the speaker most recently called.
func (s *Store) SetThemeForCurrentSpeaker(ctx context.Context, userID, theme string) error {
	var idx int
	err := s.db.QueryRowContext(ctx, `
		SELECT cur_speaker FROM users WHERE user_id = ?
	`, userID).Scan(&idx)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return s.SetThemeForSpeakerAt(ctx, userID, idx-1, theme)
}

// GetTeamThemes returns the roster in rotation order with recorded themes,
// for the end-of-standup summary.
func (s *Store) GetTeamThemes(ctx context.Context, userID string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, first_name, last_name, last_theme
		FROM persons WHERE organizer = ?
		ORDER BY person_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanPersons(rows)
}

// Credentials returns the stored integration for provider, or ErrNotFound.
func (s *Store) Credentials(ctx context.Context, userID string, provider Provider) (Credentials, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT provider, login, repo, installation
		FROM integrations WHERE user_id = ? AND provider = ?
	`, userID, string(provider))

	var c Credentials
	var prov string
	if err := row.Scan(&prov, &c.Login, &c.Repo, &c.Installation); err != nil {
		if err == sql.ErrNoRows {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, err
	}
	c.Provider = Provider(prov)
	return c, nil
}

// RegisterCredentials stores or replaces the integration for the
// credential's provider.
func (s *Store) RegisterCredentials(ctx context.Context, userID string, c Credentials) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integrations (user_id, provider, login, repo, installation)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			login = excluded.login,
			repo = excluded.repo,
			installation = excluded.installation
	`, userID, string(c.Provider), c.Login, c.Repo, c.Installation)
	return err
}

// SetSilence toggles the filler audio cue for spoken responses.
func (s *Store) SetSilence(ctx context.Context, userID string, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET silence = ? WHERE user_id = ?
	`, enabled, userID)
	return err
}

// SilenceEnabled reports the silence-cue flag; true for unknown users to
// match the session default.
func (s *Store) SilenceEnabled(ctx context.Context, userID string) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx, `
		SELECT silence FROM users WHERE user_id = ?
	`, userID).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return enabled, nil
}

func scanPerson(row *sql.Row) (Person, error) {
	var p Person
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.LastTheme); err != nil {
		if err == sql.ErrNoRows {
			return Person{}, ErrNotFound
		}
		return Person{}, err
	}
	return p, nil
}

func scanPersons(rows *sql.Rows) ([]Person, error) {
	var people []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.LastTheme); err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return people, nil
}

var _ Repository = (*Store)(nil)
