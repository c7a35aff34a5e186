package user

import (
	"context"

	"github.com/mkrupp/followgraph/internal/domain"
)

// Repository defines the interface for user and followee persistence.
type Repository interface {
	// CreateUser adds a new user with an empty followee list.
	// Returns ErrUserAlreadyExists if the name is already taken.
	CreateUser(ctx context.Context, name string) error

	// GetUser retrieves a user and its ordered followees by name.
	// Returns the record and true if found, or nil and false if not found.
	// Returns an error if the operation fails.
	GetUser(ctx context.Context, name string) (*domain.UserRecord, bool, error)

	// ListUsers returns the names of all users in creation order.
	ListUsers(ctx context.Context) ([]string, error)

	// UpdateFollowees loads the ordered followees of the named user, passes
	// them to fn and stores the list fn returns, all in one transaction.
	// Concurrent updates of the same user, from this or another process,
	// wait until the transaction ends. Nothing is written if fn fails, and
	// the returned error wraps fn's error. Returns ErrUserNotFound if the
	// user does not exist.
	UpdateFollowees(ctx context.Context, name string, fn UpdateFunc) error

	// Close releases any resources held by the repository.
	// Returns an error if cleanup fails.
	Close() error
}

// UpdateFunc receives the current followees of a user and returns the list
// to store in their place.
type UpdateFunc func(followees []string) ([]string, error)

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
