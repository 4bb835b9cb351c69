package repository

import (
	"context"
	"time"

	"github.com/meetsync/backend/domain"
)

type MeetingFilter struct {
	RecurrenceID string
	After        time.Time
	Completed    *bool
	Limit        int
	Offset       int
}

type MeetingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	List(ctx context.Context, filter MeetingFilter) ([]domain.Meeting, error)
	Create(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error)
	Update(ctx context.Context, meeting *domain.Meeting) error
	Delete(ctx context.Context, id string) error

	// MarkCompleted sets the terminal completed flag.
	MarkCompleted(ctx context.Context, id string) error

	// FirstAfter returns the earliest meeting in the recurrence whose start
	// is strictly after the given instant, or ErrMeetingNotFound.
	FirstAfter(ctx context.Context, recurrenceID string, after time.Time) (*domain.Meeting, error)

	// ExistingStartTimes reports which of the candidate instants already
	// have a meeting under the recurrence, as one batched query.
	ExistingStartTimes(ctx context.Context, recurrenceID string, candidates []time.Time) ([]time.Time, error)

	// CreateBatch inserts all meetings inside a single transaction; a
	// failure rolls back every row.
	CreateBatch(ctx context.Context, meetings []domain.Meeting) ([]domain.Meeting, error)

	AddUsers(ctx context.Context, meetingID string, userIDs []string) error
	GetUsers(ctx context.Context, meetingID string) ([]domain.User, error)
}
