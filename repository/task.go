package repository

import (
	"context"
	"time"

	"github.com/meetsync/backend/domain"
)

type TaskFilter struct {
	AssigneeID string
	Completed  *bool
	Limit      int
	Offset     int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error

	MarkCompleted(ctx context.Context, id string, at time.Time) (*domain.Task, error)

	// LinkToMeeting attaches a task to a meeting via the join table.
	LinkToMeeting(ctx context.Context, meetingID, taskID string) error
	ByMeeting(ctx context.Context, meetingID string) ([]domain.Task, error)
	IncompleteByMeeting(ctx context.Context, meetingID string) ([]domain.Task, error)

	// ReassignToMeeting moves the join rows for taskIDs from one meeting to
	// another as a single set-based update.
	ReassignToMeeting(ctx context.Context, taskIDs []string, fromMeetingID, toMeetingID string) error
}
