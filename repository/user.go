package repository

import (
	"context"

	"github.com/meetsync/backend/domain"
)

// UserRepository maintains the local shadow copy of identity-service users.
// Upsert and Delete exist solely for applying inbound events.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	// Delete is idempotent: deleting an absent user is a no-op, not an error.
	Delete(ctx context.Context, id string) error
}
