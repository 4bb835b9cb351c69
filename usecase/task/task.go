package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/repository"
	"github.com/meetsync/backend/usecase"
)

type UseCase struct {
	tasks  repository.TaskRepository
	events usecase.EventPublisher
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, events usecase.EventPublisher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		events: events,
		logger: logger,
	}
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) TasksByMeeting(ctx context.Context, meetingID string) ([]domain.Task, error) {
	return uc.tasks.ByMeeting(ctx, meetingID)
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventCreate, created)
	return created, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventUpdate, task)
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}
	uc.publishPayload(ctx, domain.EventDelete, map[string]any{"id": id})
	return nil
}

func (uc *UseCase) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	task, err := uc.tasks.MarkCompleted(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventUpdate, task)
	return task, nil
}

func (uc *UseCase) LinkToMeeting(ctx context.Context, meetingID, taskID string) error {
	if _, err := uc.tasks.GetByID(ctx, taskID); err != nil {
		return err
	}
	return uc.tasks.LinkToMeeting(ctx, meetingID, taskID)
}

// ReassignToMeeting moves every incomplete task attached to the completed
// meeting onto its successor. A missing successor (non-recurring completion)
// is an explicit no-op: open tasks stay with the completed meeting.
func (uc *UseCase) ReassignToMeeting(ctx context.Context, meetingID, nextMeetingID string) error {
	tasks, err := uc.tasks.IncompleteByMeeting(ctx, meetingID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		uc.logger.Info("no incomplete tasks to reassign", zap.String("meeting_id", meetingID))
		return nil
	}
	if nextMeetingID == "" {
		uc.logger.Info("completed meeting has no successor, tasks stay attached",
			zap.String("meeting_id", meetingID),
			zap.Int("open_tasks", len(tasks)))
		return nil
	}

	taskIDs := make([]string, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	if err := uc.tasks.ReassignToMeeting(ctx, taskIDs, meetingID, nextMeetingID); err != nil {
		return err
	}

	uc.logger.Info("reassigned tasks to successor meeting",
		zap.String("meeting_id", meetingID),
		zap.String("next_meeting_id", nextMeetingID),
		zap.Int("count", len(taskIDs)))
	return nil
}

func (uc *UseCase) publish(ctx context.Context, eventType string, task *domain.Task) {
	uc.publishPayload(ctx, eventType, task)
}

func (uc *UseCase) publishPayload(ctx context.Context, eventType string, payload interface{}) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, "task", eventType, payload); err != nil {
		uc.logger.Error("failed to publish task event",
			zap.String("event_type", eventType), zap.Error(err))
	}
}
