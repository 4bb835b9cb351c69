package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/repository"
)

type recurrenceRepository struct {
	pool *pgxpool.Pool
}

// NewRecurrenceRepository returns a Postgres-backed implementation of RecurrenceRepository.
func NewRecurrenceRepository(pool *pgxpool.Pool) repository.RecurrenceRepository {
	return &recurrenceRepository{pool: pool}
}

func (r *recurrenceRepository) GetByID(ctx context.Context, id string) (*domain.Recurrence, error) {
	const query = `
	SELECT id, title, rrule, created_at
	FROM recurrences
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var recurrence domain.Recurrence
	if err := row.Scan(&recurrence.ID, &recurrence.Title, &recurrence.RRule, &recurrence.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecurrenceNotFound
		}
		return nil, err
	}
	return &recurrence, nil
}

func (r *recurrenceRepository) List(ctx context.Context, limit, offset int) ([]domain.Recurrence, error) {
	const query = `
	SELECT id, title, rrule, created_at
	FROM recurrences
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recurrences []domain.Recurrence
	for rows.Next() {
		var recurrence domain.Recurrence
		if err := rows.Scan(&recurrence.ID, &recurrence.Title, &recurrence.RRule, &recurrence.CreatedAt); err != nil {
			return nil, err
		}
		recurrences = append(recurrences, recurrence)
	}
	return recurrences, rows.Err()
}

func (r *recurrenceRepository) Create(ctx context.Context, recurrence *domain.Recurrence) (*domain.Recurrence, error) {
	if recurrence == nil {
		return nil, domain.ErrInvalidPayload
	}
	if recurrence.ID == "" {
		recurrence.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO recurrences (id, title, rrule)
	VALUES ($1, $2, $3)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, recurrence.ID, recurrence.Title, recurrence.RRule).Scan(&recurrence.CreatedAt); err != nil {
		return nil, err
	}
	return recurrence, nil
}

func (r *recurrenceRepository) Update(ctx context.Context, recurrence *domain.Recurrence) error {
	if recurrence == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE recurrences
	SET title = $2,
		rrule = $3
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, recurrence.ID, recurrence.Title, recurrence.RRule)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecurrenceNotFound
	}
	return nil
}

func (r *recurrenceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM recurrences WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecurrenceNotFound
	}
	return nil
}
