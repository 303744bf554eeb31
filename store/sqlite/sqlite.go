package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/originauth/originauth/identity"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT UNIQUE,
	role TEXT NOT NULL,
	permissions TEXT NOT NULL DEFAULT '[]',
	token_version INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS linked_origins (
	user_id TEXT NOT NULL REFERENCES users(id),
	origin TEXT NOT NULL,
	external_id TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	picture TEXT NOT NULL DEFAULT '',
	fields TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (user_id, origin)
);
CREATE UNIQUE INDEX IF NOT EXISTS linked_origins_external
	ON linked_origins (origin, external_id) WHERE external_id <> '';
`

// Store implements identity.CredentialStore over a sql.DB.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a store at the given sqlite DSN.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes per connection; a single connection
	// avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)
	return New(db)
}

// New wraps an existing handle and applies the schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil db handle")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FindByOriginID(ctx context.Context, origin identity.Origin, externalID string) (*identity.User, error) {
	// Empty external ids (local origin) carry no cross-user identity.
	if externalID == "" {
		return nil, identity.ErrUserNotFound
	}
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM linked_origins WHERE origin = ? AND external_id = ?`,
		origin.String(), externalID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return s.FindByID(ctx, userID)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if email == "" {
		return nil, identity.ErrUserNotFound
	}
	var userID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return s.FindByID(ctx, userID)
}

func (s *Store) FindByID(ctx context.Context, userID string) (*identity.User, error) {
	user := &identity.User{UserID: userID}
	var email sql.NullString
	var permsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT email, role, permissions, token_version FROM users WHERE id = ?`, userID,
	).Scan(&email, &user.Role, &permsJSON, &user.TokenVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	user.Email = email.String
	if err := json.Unmarshal([]byte(permsJSON), &user.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions for %s: %w", userID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT origin, external_id, display_name, picture, fields FROM linked_origins WHERE user_id = ?`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	user.LinkedOrigins = map[identity.Origin]identity.OriginProfile{}
	for rows.Next() {
		var originName, fieldsJSON string
		var p identity.OriginProfile
		if err := rows.Scan(&originName, &p.ExternalID, &p.DisplayName, &p.Picture, &fieldsJSON); err != nil {
			return nil, storeErr(err)
		}
		origin, err := identity.ParseOrigin(originName)
		if err != nil {
			return nil, fmt.Errorf("stored origin for %s: %w", userID, err)
		}
		if fieldsJSON != "{}" {
			if err := json.Unmarshal([]byte(fieldsJSON), &p.Fields); err != nil {
				return nil, fmt.Errorf("decode origin fields for %s: %w", userID, err)
			}
		}
		user.LinkedOrigins[origin] = p
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return user, nil
}

func (s *Store) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	if user == nil || user.UserID == "" {
		return nil, errors.New("create: missing user id")
	}
	permsJSON, err := json.Marshal(permsOrEmpty(user.Permissions))
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, role, permissions, token_version) VALUES (?, ?, ?, ?, ?)`,
		user.UserID, nullable(user.Email), user.Role, string(permsJSON), user.TokenVersion)
	if err != nil {
		return nil, storeErr(err)
	}
	for origin, profile := range user.LinkedOrigins {
		if err := insertOrigin(ctx, tx, user.UserID, origin, profile); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	return s.FindByID(ctx, user.UserID)
}

func (s *Store) Update(ctx context.Context, userID string, patch identity.UserPatch) (*identity.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr(err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	if patch.Email != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, nullable(*patch.Email), userID); err != nil {
			return nil, storeErr(err)
		}
	}
	if patch.Role != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, *patch.Role, userID); err != nil {
			return nil, storeErr(err)
		}
	}
	if patch.Permissions != nil {
		permsJSON, err := json.Marshal(permsOrEmpty(patch.Permissions))
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET permissions = ? WHERE id = ?`, string(permsJSON), userID); err != nil {
			return nil, storeErr(err)
		}
	}
	for origin, profile := range patch.Origins {
		res, err := tx.ExecContext(ctx,
			`UPDATE linked_origins SET external_id = ?, display_name = ?, picture = ?, fields = ?
			 WHERE user_id = ? AND origin = ?`,
			profile.ExternalID, profile.DisplayName, profile.Picture, fieldsJSON(profile), userID, origin.String())
		if err != nil {
			return nil, storeErr(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, storeErr(err)
		}
		if n == 0 {
			if err := insertOrigin(ctx, tx, userID, origin, profile); err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	return s.FindByID(ctx, userID)
}

func (s *Store) IncrementTokenVersion(ctx context.Context, userID string) (uint32, error) {
	var version uint32
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET token_version = token_version + 1 WHERE id = ? RETURNING token_version`,
		userID,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, identity.ErrUserNotFound
	}
	if err != nil {
		return 0, storeErr(err)
	}
	return version, nil
}

func insertOrigin(ctx context.Context, tx *sql.Tx, userID string, origin identity.Origin, profile identity.OriginProfile) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO linked_origins (user_id, origin, external_id, display_name, picture, fields)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, origin.String(), profile.ExternalID, profile.DisplayName, profile.Picture, fieldsJSON(profile))
	return storeErr(err)
}

func fieldsJSON(p identity.OriginProfile) string {
	if len(p.Fields) == 0 {
		return "{}"
	}
	data, err := json.Marshal(p.Fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func permsOrEmpty(perms []string) []string {
	if perms == nil {
		return []string{}
	}
	return perms
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// storeErr maps driver errors onto the identity sentinels. Constraint
// violations are detected by message because modernc.org/sqlite does not
// export stable sentinel errors for them.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed") {
		return fmt.Errorf("%w: %v", identity.ErrDuplicateIdentity, err)
	}
	return fmt.Errorf("%w: %v", identity.ErrStoreUnavailable, err)
}
