package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tohur/webmail/internal/model"
)

// SQLiteStore implements IdentityStore using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// FindOrCreateIdentity returns the identity for email, inserting a new
// record with imap_username = email on first login. The unique email
// index makes concurrent first logins converge: a loser of the insert
// race falls back to reading the winner's row.
func (s *SQLiteStore) FindOrCreateIdentity(
	ctx context.Context,
	email string,
) (*model.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("identity email must not be empty")
	}

	identity, err := s.GetIdentityByEmail(ctx, email)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return nil, err
	}

	const insert = `
		INSERT INTO identities (email, imap_username, is_default)
		VALUES (?, ?, 1)
		ON CONFLICT(email) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, insert, email, email); err != nil {
		return nil, fmt.Errorf("creating identity for %s: %w", email, err)
	}

	return s.GetIdentityByEmail(ctx, email)
}

// GetIdentityByID returns an identity by primary key.
func (s *SQLiteStore) GetIdentityByID(
	ctx context.Context,
	id int64,
) (*model.Identity, error) {
	var identity model.Identity
	err := s.db.GetContext(ctx, &identity,
		"SELECT * FROM identities WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting identity %d: %w", id, err)
	}
	return &identity, nil
}

// GetIdentityByEmail returns an identity by its unique email.
func (s *SQLiteStore) GetIdentityByEmail(
	ctx context.Context,
	email string,
) (*model.Identity, error) {
	var identity model.Identity
	err := s.db.GetContext(ctx, &identity,
		"SELECT * FROM identities WHERE email = ?", strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting identity %s: %w", email, err)
	}
	return &identity, nil
}

// UpdateIdentityProfile updates the profile fields of an identity and
// returns the refreshed record. The email and IMAP username bindings
// are immutable here.
func (s *SQLiteStore) UpdateIdentityProfile(
	ctx context.Context,
	id int64,
	profile model.IdentityProfile,
) (*model.Identity, error) {
	const update = `
		UPDATE identities
		SET name = ?, reply_to = ?, signature = ?, is_default = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, update,
		profile.Name, profile.ReplyTo, profile.Signature, profile.IsDefault, id)
	if err != nil {
		return nil, fmt.Errorf("updating identity %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating identity %d: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrIdentityNotFound
	}

	return s.GetIdentityByID(ctx, id)
}
