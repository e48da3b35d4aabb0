// Package repository declares the storage contracts the service layer depends on.
// Backends live in subpackages (sqlite, mongo) and are chosen at startup.
package repository

import (
	"context"

	"github.com/sakif/readme-generator/internal/model"
)

// UserRepository persists User records keyed by their GitHub id.
type UserRepository interface {
	// Upsert inserts a user or refreshes the profile fields and token of the
	// existing record with the same ProviderID, as one atomic statement. On
	// return user.ID, CreatedAt and UpdatedAt hold the stored values; ID and
	// CreatedAt never change for an existing ProviderID.
	Upsert(ctx context.Context, user *model.User) error

	// GetUserByID returns the full record, token included.
	// Returns apperror.ErrNotFound if no user exists with that ID.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Store is a UserRepository backed by a closable connection.
type Store interface {
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}
