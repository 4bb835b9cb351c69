package usecase

import "context"

// EventPublisher abstracts the bus client so use cases stay transport-agnostic.
// Implementations serialize the payload, strip credential fields, and address
// the channel derived from the model name.
type EventPublisher interface {
	Publish(ctx context.Context, model, eventType string, payload interface{}) error
}
