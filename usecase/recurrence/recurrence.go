package recurrence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meetsync/backend/domain"
	rule "github.com/meetsync/backend/pkg/recurrence"
	"github.com/meetsync/backend/repository"
	"github.com/meetsync/backend/usecase"
)

type UseCase struct {
	recurrences repository.RecurrenceRepository
	events      usecase.EventPublisher
	logger      *zap.Logger
}

func New(recurrences repository.RecurrenceRepository, events usecase.EventPublisher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		recurrences: recurrences,
		events:      events,
		logger:      logger,
	}
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Recurrence, error) {
	return uc.recurrences.GetByID(ctx, id)
}

func (uc *UseCase) List(ctx context.Context, limit, offset int) ([]domain.Recurrence, error) {
	return uc.recurrences.List(ctx, limit, offset)
}

// Create validates the rule expression before anything is written; an
// unparsable rule is rejected here and never stored.
func (uc *UseCase) Create(ctx context.Context, recurrence *domain.Recurrence) (*domain.Recurrence, error) {
	if recurrence == nil {
		return nil, domain.ErrInvalidPayload
	}
	if _, err := rule.Parse(recurrence.RRule); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid recurrence rule", err)
	}

	created, err := uc.recurrences.Create(ctx, recurrence)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventCreate, created)
	return created, nil
}

func (uc *UseCase) Update(ctx context.Context, recurrence *domain.Recurrence) (*domain.Recurrence, error) {
	if recurrence == nil {
		return nil, domain.ErrInvalidPayload
	}
	if _, err := rule.Parse(recurrence.RRule); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid recurrence rule", err)
	}

	if err := uc.recurrences.Update(ctx, recurrence); err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventUpdate, recurrence)
	return recurrence, nil
}

func (uc *UseCase) Delete(ctx context.Context, id string) error {
	if err := uc.recurrences.Delete(ctx, id); err != nil {
		return err
	}
	if uc.events != nil {
		if err := uc.events.Publish(ctx, "recurrence", domain.EventDelete, map[string]any{"id": id}); err != nil {
			uc.logger.Error("failed to publish recurrence event", zap.Error(err))
		}
	}
	return nil
}

// NextDate evaluates the stored rule and returns the first occurrence
// strictly after the given instant.
func (uc *UseCase) NextDate(ctx context.Context, id string, after time.Time) (time.Time, error) {
	recurrence, err := uc.recurrences.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}

	parsed, err := rule.Parse(recurrence.RRule)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrCodeInvalid, "stored recurrence rule is invalid", err)
	}

	next, ok := parsed.NextOccurrence(after, 0)
	if !ok {
		return time.Time{}, domain.NewError(domain.ErrCodeNotFound, "no occurrence after the given instant")
	}
	return next, nil
}

func (uc *UseCase) publish(ctx context.Context, eventType string, recurrence *domain.Recurrence) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, "recurrence", eventType, recurrence); err != nil {
		uc.logger.Error("failed to publish recurrence event",
			zap.String("event_type", eventType), zap.Error(err))
	}
}
