package meeting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/pkg/recurrence"
	"github.com/meetsync/backend/repository"
	"github.com/meetsync/backend/usecase"
)

// MaterializeResult reports which candidate dates produced meetings and
// which were skipped because an occurrence already existed.
type MaterializeResult struct {
	Created []domain.Meeting `json:"created"`
	Skipped []time.Time      `json:"skipped"`
}

type UseCase struct {
	meetings    repository.MeetingRepository
	recurrences repository.RecurrenceRepository
	events      usecase.EventPublisher
	logger      *zap.Logger
}

func New(
	meetings repository.MeetingRepository,
	recurrences repository.RecurrenceRepository,
	events usecase.EventPublisher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		meetings:    meetings,
		recurrences: recurrences,
		events:      events,
		logger:      logger,
	}
}

func (uc *UseCase) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	return uc.meetings.GetByID(ctx, id)
}

func (uc *UseCase) ListMeetings(ctx context.Context, filter repository.MeetingFilter) ([]domain.Meeting, error) {
	return uc.meetings.List(ctx, filter)
}

func (uc *UseCase) CreateMeeting(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	if meeting == nil || meeting.StartTime.IsZero() {
		return nil, domain.ErrInvalidPayload
	}
	if meeting.Duration <= 0 {
		meeting.Duration = 30
	}
	if meeting.RecurrenceID != "" {
		rec, err := uc.recurrences.GetByID(ctx, meeting.RecurrenceID)
		if err != nil {
			return nil, err
		}
		applyDefaultTitle(meeting, rec)
	}

	created, err := uc.meetings.Create(ctx, meeting)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventCreate, created)
	return created, nil
}

func (uc *UseCase) UpdateMeeting(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	if err := uc.meetings.Update(ctx, meeting); err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventUpdate, meeting)
	return meeting, nil
}

func (uc *UseCase) DeleteMeeting(ctx context.Context, id string) error {
	if err := uc.meetings.Delete(ctx, id); err != nil {
		return err
	}
	uc.publishPayload(ctx, domain.EventDelete, map[string]any{"id": id})
	return nil
}

// Complete closes a meeting. Completion is terminal: a completed meeting is
// never reopened. Successor resolution happens before the flag commit so a
// resolution failure leaves the meeting untouched; the completion event is
// published only after the flag is durable, trading a brief redelivery
// window (absorbed by idempotent consumers) for never announcing a
// completion that did not commit.
func (uc *UseCase) Complete(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	meeting, err := uc.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Completed {
		return nil, domain.ErrMeetingCompleted
	}

	if !meeting.IsRecurring() {
		// Preserved behavior: a non-recurring meeting still completes, but
		// the caller is told no successor can exist and the event carries a
		// null successor. Open tasks stay attached to the completed meeting.
		if err := uc.meetings.MarkCompleted(ctx, meeting.ID); err != nil {
			return nil, err
		}
		uc.publishPayload(ctx, domain.EventComplete, map[string]any{
			"meeting_id":      meeting.ID,
			"next_meeting_id": nil,
		})
		uc.logger.Info("completed non-recurring meeting", zap.String("meeting_id", meeting.ID))
		return nil, domain.ErrNoRecurrence
	}

	next, err := uc.resolveSuccessor(ctx, meeting)
	if err != nil {
		return nil, err
	}

	if err := uc.meetings.MarkCompleted(ctx, meeting.ID); err != nil {
		return nil, err
	}
	meeting.Completed = true

	uc.publishPayload(ctx, domain.EventComplete, map[string]any{
		"meeting_id":      meeting.ID,
		"next_meeting_id": next.ID,
	})
	uc.logger.Info("completed meeting",
		zap.String("meeting_id", meeting.ID),
		zap.String("next_meeting_id", next.ID))
	return meeting, nil
}

// GetSubsequent resolves the next meeting in the recurrence chain, creating
// one from the rule when no future occurrence exists yet.
func (uc *UseCase) GetSubsequent(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	meeting, err := uc.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsRecurring() {
		return nil, domain.ErrNoRecurrence
	}
	return uc.resolveSuccessor(ctx, meeting)
}

func (uc *UseCase) resolveSuccessor(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	// Strictly after end-of-current: a meeting starting exactly at
	// start+duration is not a successor.
	next, err := uc.meetings.FirstAfter(ctx, meeting.RecurrenceID, meeting.EndTime())
	if err == nil {
		return next, nil
	}
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}
	return uc.createSuccessor(ctx, meeting)
}

func (uc *UseCase) createSuccessor(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	rec, err := uc.recurrences.GetByID(ctx, meeting.RecurrenceID)
	if err != nil {
		return nil, err
	}

	rule, err := recurrence.Parse(rec.RRule)
	if err != nil {
		// Stored rules are validated at creation; a parse failure here means
		// the row was tampered with outside the service.
		return nil, domain.WrapError(domain.ErrCodeInvalid, "stored recurrence rule is invalid", err)
	}

	gap := time.Duration(meeting.Duration) * time.Minute
	nextStart, ok := rule.NextOccurrence(meeting.StartTime, gap)
	if !ok {
		return nil, domain.NewError(domain.ErrCodeInvalid, "no future dates in the recurrence rule")
	}

	successor := &domain.Meeting{
		RecurrenceID: meeting.RecurrenceID,
		Title:        meeting.Title,
		StartTime:    nextStart,
		Duration:     meeting.Duration,
		Location:     meeting.Location,
		Notes:        meeting.Notes,
	}
	applyDefaultTitle(successor, rec)

	created, err := uc.meetings.Create(ctx, successor)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.EventCreate, created)
	uc.logger.Info("created subsequent meeting",
		zap.String("meeting_id", meeting.ID),
		zap.String("next_meeting_id", created.ID),
		zap.Time("start_time", created.StartTime))
	return created, nil
}

// Materialize creates meetings for the candidate dates that do not already
// have an occurrence under the recurrence. The existence check is one
// batched query and the inserts run in one transaction, so a failure never
// leaves a partially created batch.
func (uc *UseCase) Materialize(ctx context.Context, recurrenceID string, template domain.Meeting, dates []time.Time) (*MaterializeResult, error) {
	if len(dates) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "candidate dates cannot be empty")
	}

	rec, err := uc.recurrences.GetByID(ctx, recurrenceID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.meetings.ExistingStartTimes(ctx, recurrenceID, dates)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]struct{}, len(existing))
	for _, ts := range existing {
		taken[ts.UTC().UnixNano()] = struct{}{}
	}

	result := &MaterializeResult{}
	var pending []domain.Meeting
	for _, date := range dates {
		key := date.UTC().UnixNano()
		if _, dup := taken[key]; dup {
			result.Skipped = append(result.Skipped, date)
			continue
		}
		taken[key] = struct{}{}

		meeting := domain.Meeting{
			RecurrenceID: recurrenceID,
			Title:        template.Title,
			StartTime:    date,
			Duration:     template.Duration,
			Location:     template.Location,
			Notes:        template.Notes,
		}
		if meeting.Duration <= 0 {
			meeting.Duration = 30
		}
		applyDefaultTitle(&meeting, rec)
		pending = append(pending, meeting)
	}

	if len(pending) > 0 {
		created, err := uc.meetings.CreateBatch(ctx, pending)
		if err != nil {
			return nil, err
		}
		result.Created = created
	}

	uc.logger.Info("materialized occurrences",
		zap.String("recurrence_id", recurrenceID),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (uc *UseCase) AddAttendees(ctx context.Context, meetingID string, userIDs []string) error {
	if _, err := uc.meetings.GetByID(ctx, meetingID); err != nil {
		return err
	}
	return uc.meetings.AddUsers(ctx, meetingID, userIDs)
}

func (uc *UseCase) GetAttendees(ctx context.Context, meetingID string) ([]domain.User, error) {
	if _, err := uc.meetings.GetByID(ctx, meetingID); err != nil {
		return nil, err
	}
	return uc.meetings.GetUsers(ctx, meetingID)
}

func (uc *UseCase) publish(ctx context.Context, eventType string, meeting *domain.Meeting) {
	uc.publishPayload(ctx, eventType, meeting)
}

func (uc *UseCase) publishPayload(ctx context.Context, eventType string, payload interface{}) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, "meeting", eventType, payload); err != nil {
		uc.logger.Error("failed to publish meeting event",
			zap.String("event_type", eventType), zap.Error(err))
	}
}

// applyDefaultTitle names an untitled recurring meeting after its recurrence
// and date, e.g. "Weekly sync on 2026-08-31".
func applyDefaultTitle(meeting *domain.Meeting, rec *domain.Recurrence) {
	if meeting.Title != "" || rec == nil || rec.Title == "" {
		return
	}
	meeting.Title = rec.Title + " on " + meeting.StartTime.UTC().Format("2006-01-02")
}
