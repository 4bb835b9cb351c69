package events

import (
	"context"
	"encoding/json"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meetsync/backend/domain"
)

// HandlerFunc processes one inbound envelope. Errors are logged and the
// loop moves on; a bad message must never stop consumption for every other
// entity kind.
type HandlerFunc func(ctx context.Context, env domain.Envelope) error

type handlerKey struct {
	channel   string
	eventType string
}

// Subscriber runs the long-lived consume loop: one logical consumer per
// process, dispatching envelopes to handlers keyed by (channel, event type).
type Subscriber struct {
	client   *redislib.Client
	channels []string
	handlers map[handlerKey]HandlerFunc
	logger   *zap.Logger
}

func NewSubscriber(client *redislib.Client, channels []string, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		client:   client,
		channels: channels,
		handlers: make(map[handlerKey]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers a handler for the given channel and event type.
// Registration happens during startup, before Run.
func (s *Subscriber) Handle(channel, eventType string, fn HandlerFunc) {
	s.handlers[handlerKey{channel: channel, eventType: eventType}] = fn
}

// Run blocks consuming messages until the context is cancelled.
// Cancellation is cooperative: it is observed between receives, never
// mid-handler.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channels...)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	s.logger.Info("subscribed to event channels", zap.Strings("channels", s.channels))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("event subscriber stopping")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.dispatch(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, channel string, body []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.logger.Warn("dropping malformed envelope",
			zap.String("channel", channel), zap.Error(err))
		return
	}
	if env.EventType == "" {
		s.logger.Warn("dropping envelope without event type", zap.String("channel", channel))
		return
	}

	fn, ok := s.handlers[handlerKey{channel: channel, eventType: env.EventType}]
	if !ok {
		s.logger.Warn("no handler for event, dropping",
			zap.String("channel", channel),
			zap.String("event_type", env.EventType))
		return
	}

	if err := fn(ctx, env); err != nil {
		s.logger.Error("event handler failed",
			zap.String("channel", channel),
			zap.String("event_type", env.EventType),
			zap.Error(err))
	}
}
