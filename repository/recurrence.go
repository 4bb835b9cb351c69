package repository

import (
	"context"

	"github.com/meetsync/backend/domain"
)

type RecurrenceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Recurrence, error)
	List(ctx context.Context, limit, offset int) ([]domain.Recurrence, error)
	Create(ctx context.Context, recurrence *domain.Recurrence) (*domain.Recurrence, error)
	Update(ctx context.Context, recurrence *domain.Recurrence) error
	Delete(ctx context.Context, id string) error
}
