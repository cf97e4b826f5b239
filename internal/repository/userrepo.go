// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/openhrm/victimdb/internal/model"
)

// UserRepository provides access to stored accounts. Request handling only
// reads from it; Create exists for out-of-band provisioning (cmd/useradd).
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}
