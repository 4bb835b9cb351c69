package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/internal/events"
	taskUC "github.com/meetsync/backend/usecase/task"
)

// TaskReassigner reacts to meeting completion events by moving the closed
// meeting's open tasks onto its successor.
type TaskReassigner struct {
	tasks  *taskUC.UseCase
	logger *zap.Logger
}

func NewTaskReassigner(tasks *taskUC.UseCase, logger *zap.Logger) *TaskReassigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskReassigner{
		tasks:  tasks,
		logger: logger,
	}
}

// Register wires the reassigner into the subscriber's dispatch table.
func (r *TaskReassigner) Register(sub *events.Subscriber) {
	sub.Handle(domain.ChannelMeetings, domain.EventComplete, r.onMeetingComplete)
}

func (r *TaskReassigner) onMeetingComplete(ctx context.Context, env domain.Envelope) error {
	meetingID := stringField(env.Payload, "meeting_id")
	if meetingID == "" {
		return fmt.Errorf("complete event payload is missing meeting_id")
	}
	// next_meeting_id may be absent or null for non-recurring completions.
	nextMeetingID := stringField(env.Payload, "next_meeting_id")
	return r.tasks.ReassignToMeeting(ctx, meetingID, nextMeetingID)
}
