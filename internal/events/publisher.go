package events

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/usecase"
)

// Credential-like fields are stripped from every outbound payload. This is
// enforced here, centrally, never left to callers.
var redactedFields = []string{"password", "hashed_password"}

// publishClient is the slice of go-redis used for outbound events. The
// shared client is stateless and safe for concurrent publish.
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redislib.IntCmd
}

// FallbackBuffer persists envelopes whose publish failed so they can be
// replayed once the bus is reachable again.
type FallbackBuffer interface {
	Enqueue(channel string, body []byte) error
}

// Publisher serializes domain events into wire envelopes and publishes them
// on the channel derived from the model name.
type Publisher struct {
	client publishClient
	buffer FallbackBuffer
	logger *zap.Logger
}

func NewPublisher(client publishClient, buffer FallbackBuffer, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		buffer: buffer,
		logger: logger,
	}
}

// Publish wraps the payload in an envelope and sends it on the model's
// channel. A bus failure falls back to the durable buffer instead of
// failing the caller; delivery then happens when the drainer replays it.
func (p *Publisher) Publish(ctx context.Context, model, eventType string, payload interface{}) error {
	env, err := buildEnvelope(model, eventType, payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	channel := domain.ChannelFor(model)
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		if p.buffer == nil {
			return err
		}
		p.logger.Warn("publish failed, buffering envelope",
			zap.String("channel", channel),
			zap.String("event_type", eventType),
			zap.Error(err))
		if bufErr := p.buffer.Enqueue(channel, body); bufErr != nil {
			return fmt.Errorf("publish failed and buffering failed: %w", bufErr)
		}
		return nil
	}

	p.logger.Debug("published event",
		zap.String("channel", channel),
		zap.String("event_type", eventType))
	return nil
}

// buildEnvelope flattens the payload into a field map and strips credential
// fields before the envelope ever reaches the wire.
func buildEnvelope(model, eventType string, payload interface{}) (*domain.Envelope, error) {
	flat, err := flatten(payload)
	if err != nil {
		return nil, err
	}
	for _, field := range redactedFields {
		delete(flat, field)
	}
	return &domain.Envelope{
		EventType: eventType,
		Model:     model,
		Payload:   flat,
	}, nil
}

func flatten(payload interface{}) (map[string]any, error) {
	switch v := payload.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		flat := make(map[string]any, len(v))
		for key, value := range v {
			flat[key] = value
		}
		return flat, nil
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		var flat map[string]any
		if err := json.Unmarshal(raw, &flat); err != nil {
			return nil, fmt.Errorf("event payload is not a field map: %w", err)
		}
		return flat, nil
	}
}

var _ usecase.EventPublisher = (*Publisher)(nil)
