package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	redislib "github.com/redis/go-redis/v9"

	"github.com/meetsync/backend/domain"
)

type sentMessage struct {
	channel string
	body    []byte
}

type fakeBus struct {
	sent []sentMessage
	err  error
}

func (f *fakeBus) Publish(ctx context.Context, channel string, message interface{}) *redislib.IntCmd {
	cmd := redislib.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	body, _ := message.([]byte)
	f.sent = append(f.sent, sentMessage{channel: channel, body: body})
	cmd.SetVal(1)
	return cmd
}

type fakeBuffer struct {
	enqueued []sentMessage
	err      error
}

func (f *fakeBuffer) Enqueue(channel string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, sentMessage{channel: channel, body: body})
	return nil
}

func decodeEnvelope(t *testing.T, body []byte) domain.Envelope {
	t.Helper()
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("envelope does not decode: %v", err)
	}
	return env
}

func TestPublishWrapsPayloadInEnvelope(t *testing.T) {
	bus := &fakeBus{}
	pub := NewPublisher(bus, nil, nil)

	meeting := &domain.Meeting{ID: "m-1", Title: "standup"}
	if err := pub.Publish(context.Background(), "meeting", domain.EventCreate, meeting); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(bus.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(bus.sent))
	}
	if bus.sent[0].channel != "meeting-events" {
		t.Fatalf("channel = %q, want meeting-events", bus.sent[0].channel)
	}

	env := decodeEnvelope(t, bus.sent[0].body)
	if env.EventType != domain.EventCreate || env.Model != "meeting" {
		t.Fatalf("envelope header = %s/%s", env.Model, env.EventType)
	}
	if env.Payload["id"] != "m-1" || env.Payload["title"] != "standup" {
		t.Fatalf("payload fields missing: %v", env.Payload)
	}
}

func TestPublishDerivesChannelFromModel(t *testing.T) {
	bus := &fakeBus{}
	pub := NewPublisher(bus, nil, nil)

	if err := pub.Publish(context.Background(), "User", domain.EventUpdate, map[string]any{"id": "u-1"}); err != nil {
		t.Fatal(err)
	}
	if bus.sent[0].channel != "user-events" {
		t.Fatalf("channel = %q, want user-events", bus.sent[0].channel)
	}
}

func TestPublishRedactsCredentialFields(t *testing.T) {
	bus := &fakeBus{}
	pub := NewPublisher(bus, nil, nil)

	payload := map[string]any{
		"id":              "u-1",
		"email":           "a@b.c",
		"password":        "hunter2",
		"hashed_password": "$2a$x",
	}
	if err := pub.Publish(context.Background(), "user", domain.EventCreate, payload); err != nil {
		t.Fatal(err)
	}

	env := decodeEnvelope(t, bus.sent[0].body)
	if _, ok := env.Payload["password"]; ok {
		t.Fatal("password leaked into the envelope")
	}
	if _, ok := env.Payload["hashed_password"]; ok {
		t.Fatal("hashed_password leaked into the envelope")
	}
	if env.Payload["email"] != "a@b.c" {
		t.Fatal("non-credential field was dropped")
	}
	// The caller's map must not be mutated.
	if payload["password"] != "hunter2" {
		t.Fatal("redaction mutated the caller's payload")
	}
}

func TestPublishFallsBackToBufferOnBusFailure(t *testing.T) {
	bus := &fakeBus{err: errors.New("connection refused")}
	buf := &fakeBuffer{}
	pub := NewPublisher(bus, buf, nil)

	err := pub.Publish(context.Background(), "meeting", domain.EventComplete, map[string]any{"meeting_id": "m-1"})
	if err != nil {
		t.Fatalf("expected buffered publish to succeed, got %v", err)
	}

	if len(buf.enqueued) != 1 {
		t.Fatalf("buffered %d envelopes, want 1", len(buf.enqueued))
	}
	if buf.enqueued[0].channel != "meeting-events" {
		t.Fatalf("buffered channel = %q", buf.enqueued[0].channel)
	}
	env := decodeEnvelope(t, buf.enqueued[0].body)
	if env.EventType != domain.EventComplete {
		t.Fatalf("buffered event type = %q", env.EventType)
	}
}

func TestPublishFailsWhenBusAndBufferFail(t *testing.T) {
	bus := &fakeBus{err: errors.New("connection refused")}
	buf := &fakeBuffer{err: errors.New("disk full")}
	pub := NewPublisher(bus, buf, nil)

	if err := pub.Publish(context.Background(), "meeting", domain.EventCreate, map[string]any{}); err == nil {
		t.Fatal("expected an error when both bus and buffer fail")
	}
}

func TestPublishWithoutBufferSurfacesBusError(t *testing.T) {
	bus := &fakeBus{err: errors.New("connection refused")}
	pub := NewPublisher(bus, nil, nil)

	if err := pub.Publish(context.Background(), "meeting", domain.EventCreate, map[string]any{}); err == nil {
		t.Fatal("expected the bus error to surface without a buffer")
	}
}

func TestPublishRejectsNonMapPayload(t *testing.T) {
	pub := NewPublisher(&fakeBus{}, nil, nil)
	if err := pub.Publish(context.Background(), "meeting", domain.EventCreate, "just a string"); err == nil {
		t.Fatal("expected scalar payload to be rejected")
	}
}
