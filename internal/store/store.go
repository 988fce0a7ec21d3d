package store

import (
	"context"
	"errors"

	"github.com/tohur/webmail/internal/model"
)

// ErrIdentityNotFound is returned when no identity matches a lookup.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityStore defines the persistence interface for mail identities.
// It is read-mostly: the single write path is the find-or-create that
// runs on first login, plus optional profile updates.
type IdentityStore interface {
	// FindOrCreateIdentity returns the identity for email, creating it
	// with imap_username = email if it does not exist yet. Concurrent
	// calls for the same email converge on a single record.
	FindOrCreateIdentity(ctx context.Context, email string) (*model.Identity, error)

	// GetIdentityByID returns an identity by primary key.
	GetIdentityByID(ctx context.Context, id int64) (*model.Identity, error)

	// GetIdentityByEmail returns an identity by its unique email.
	GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error)

	// UpdateIdentityProfile updates the profile fields of an identity
	// and returns the refreshed record.
	UpdateIdentityProfile(ctx context.Context, id int64, profile model.IdentityProfile) (*model.Identity, error)
}
