package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/internal/events"
	"github.com/meetsync/backend/repository"
)

// UserProjector applies inbound identity-service events to the local user
// shadow copy. Application is idempotent and tolerates reordering: both
// create and update upsert, so an update arriving before its create still
// converges.
type UserProjector struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserProjector(users repository.UserRepository, logger *zap.Logger) *UserProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserProjector{
		users:  users,
		logger: logger,
	}
}

// Register wires the projector into the subscriber's dispatch table.
func (p *UserProjector) Register(sub *events.Subscriber) {
	sub.Handle(domain.ChannelUsers, domain.EventCreate, p.applyUpsert)
	sub.Handle(domain.ChannelUsers, domain.EventUpdate, p.applyUpsert)
	sub.Handle(domain.ChannelUsers, domain.EventDelete, p.applyDelete)
}

func (p *UserProjector) applyUpsert(ctx context.Context, env domain.Envelope) error {
	user, err := userFromPayload(env.Payload)
	if err != nil {
		return err
	}
	if err := p.users.Upsert(ctx, user); err != nil {
		return err
	}
	p.logger.Info("applied user projection",
		zap.String("event_type", env.EventType),
		zap.String("user_id", user.ID))
	return nil
}

func (p *UserProjector) applyDelete(ctx context.Context, env domain.Envelope) error {
	id := stringField(env.Payload, "id")
	if id == "" {
		return fmt.Errorf("user delete event is missing id")
	}
	// Deleting an absent shadow row is idempotent success, not an error.
	if err := p.users.Delete(ctx, id); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	p.logger.Info("applied user deletion", zap.String("user_id", id))
	return nil
}

// userFromPayload keeps only the fields of the local shadow schema and
// ignores everything else the owning service may attach.
func userFromPayload(payload map[string]any) (*domain.User, error) {
	id := stringField(payload, "id")
	if id == "" {
		return nil, fmt.Errorf("user event payload is missing id")
	}
	return &domain.User{
		ID:        id,
		Email:     stringField(payload, "email"),
		FirstName: stringField(payload, "first_name"),
		LastName:  stringField(payload, "last_name"),
	}, nil
}

func stringField(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}
