package services

import (
	"context"
	"testing"

	"github.com/meetsync/backend/domain"
)

func TestReassignerRejectsPayloadWithoutMeetingID(t *testing.T) {
	r := NewTaskReassigner(nil, nil)
	env := domain.Envelope{
		EventType: domain.EventComplete,
		Model:     "meeting",
		Payload:   map[string]any{"next_meeting_id": "m-2"},
	}
	if err := r.onMeetingComplete(context.Background(), env); err == nil {
		t.Fatal("expected an error for a complete event without meeting_id")
	}
}

func TestReassignerToleratesNullSuccessor(t *testing.T) {
	// A JSON null decodes to nil, not a string; the id must read as empty
	// rather than panicking.
	payload := map[string]any{"meeting_id": "m-1", "next_meeting_id": nil}
	if got := stringField(payload, "next_meeting_id"); got != "" {
		t.Fatalf("stringField returned %q for null, want empty", got)
	}
}
