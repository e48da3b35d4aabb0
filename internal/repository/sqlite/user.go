package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/model"
	"github.com/sakif/readme-generator/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts or updates a user keyed by ProviderID in a single statement.
//
// INSERT ... ON CONFLICT DO UPDATE ... RETURNING:
//   - No row with this provider_id: the new row is inserted with a fresh xid.
//   - A row exists: only the profile fields, token and updated_at change; the
//     stored id and created_at are kept and RETURNING hands them back.
//
// Two concurrent first logins for the same account therefore produce one row,
// and both callers see the same ID. A SELECT-then-INSERT would race.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, provider_id, username, avatar_url, access_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(provider_id) DO UPDATE SET
			username     = excluded.username,
			avatar_url   = excluded.avatar_url,
			access_token = excluded.access_token,
			updated_at   = excluded.updated_at
		 RETURNING id`,
		xid.New().String(),
		user.ProviderID,
		user.Username,
		user.AvatarURL,
		user.ProviderAccessToken,
		now,
		now,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (providerID=%s): %w", user.ProviderID, err)
	}

	// Read the timestamps back through the table so the DATETIME column type
	// drives the conversion to time.Time.
	err = db.conn.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM users WHERE id = ?`, user.ID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading user %s timestamps: %w", user.ID, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, provider_id, username, avatar_url, access_token, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.ProviderID,
		&u.Username,
		&u.AvatarURL,
		&u.ProviderAccessToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
