package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/repository"
)

type meetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository returns a Postgres-backed implementation of MeetingRepository.
func NewMeetingRepository(pool *pgxpool.Pool) repository.MeetingRepository {
	return &meetingRepository{pool: pool}
}

const meetingColumns = `id, recurrence_id, title, start_time, duration, location, notes, num_reschedules, reminder_sent, completed, created_at`

func (r *meetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	const query = `
	SELECT ` + meetingColumns + `
	FROM meetings
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanMeeting(row)
}

func (r *meetingRepository) List(ctx context.Context, filter repository.MeetingFilter) ([]domain.Meeting, error) {
	const query = `
	SELECT ` + meetingColumns + `
	FROM meetings
	WHERE ($1 = '' OR recurrence_id = $1)
	  AND ($2::timestamptz IS NULL OR start_time > $2)
	  AND ($3::boolean IS NULL OR completed = $3)
	ORDER BY start_time
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.RecurrenceID,
		nullTime(filter.After),
		filter.Completed,
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, *meeting)
	}
	return meetings, rows.Err()
}

func (r *meetingRepository) Create(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	if meeting == nil {
		return nil, domain.ErrInvalidPayload
	}
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO meetings (id, recurrence_id, title, start_time, duration, location, notes, num_reschedules, reminder_sent, completed)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		meeting.ID,
		nullString(meeting.RecurrenceID),
		meeting.Title,
		meeting.StartTime,
		meeting.Duration,
		meeting.Location,
		meeting.Notes,
		meeting.NumReschedules,
		meeting.ReminderSent,
		meeting.Completed,
	).Scan(&meeting.CreatedAt); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (r *meetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	if meeting == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE meetings
	SET title = $2,
		start_time = $3,
		duration = $4,
		location = $5,
		notes = $6,
		num_reschedules = $7,
		reminder_sent = $8
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		meeting.ID,
		meeting.Title,
		meeting.StartTime,
		meeting.Duration,
		meeting.Location,
		meeting.Notes,
		meeting.NumReschedules,
		meeting.ReminderSent,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (r *meetingRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM meetings WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (r *meetingRepository) MarkCompleted(ctx context.Context, id string) error {
	const query = `UPDATE meetings SET completed = TRUE WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (r *meetingRepository) FirstAfter(ctx context.Context, recurrenceID string, after time.Time) (*domain.Meeting, error) {
	const query = `
	SELECT ` + meetingColumns + `
	FROM meetings
	WHERE recurrence_id = $1
	  AND start_time > $2
	ORDER BY start_time
	LIMIT 1
	`
	row := r.pool.QueryRow(ctx, query, recurrenceID, after)
	return scanMeeting(row)
}

func (r *meetingRepository) ExistingStartTimes(ctx context.Context, recurrenceID string, candidates []time.Time) ([]time.Time, error) {
	const query = `
	SELECT start_time
	FROM meetings
	WHERE recurrence_id = $1
	  AND start_time = ANY($2)
	`
	rows, err := r.pool.Query(ctx, query, recurrenceID, candidates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		existing = append(existing, ts)
	}
	return existing, rows.Err()
}

func (r *meetingRepository) CreateBatch(ctx context.Context, meetings []domain.Meeting) ([]domain.Meeting, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const query = `
	INSERT INTO meetings (id, recurrence_id, title, start_time, duration, location, notes, num_reschedules, reminder_sent, completed)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at
	`
	created := make([]domain.Meeting, 0, len(meetings))
	for _, meeting := range meetings {
		if meeting.ID == "" {
			meeting.ID = uuid.NewString()
		}
		if err := tx.QueryRow(ctx, query,
			meeting.ID,
			nullString(meeting.RecurrenceID),
			meeting.Title,
			meeting.StartTime,
			meeting.Duration,
			meeting.Location,
			meeting.Notes,
			meeting.NumReschedules,
			meeting.ReminderSent,
			meeting.Completed,
		).Scan(&meeting.CreatedAt); err != nil {
			return nil, err
		}
		created = append(created, meeting)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *meetingRepository) AddUsers(ctx context.Context, meetingID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	const query = `
	INSERT INTO meeting_users (meeting_id, user_id)
	SELECT $1, unnest($2::text[])
	ON CONFLICT DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, meetingID, userIDs)
	return err
}

func (r *meetingRepository) GetUsers(ctx context.Context, meetingID string) ([]domain.User, error) {
	const query = `
	SELECT u.id, u.email, u.first_name, u.last_name, u.created_at, u.updated_at
	FROM users u
	JOIN meeting_users mu ON mu.user_id = u.id
	WHERE mu.meeting_id = $1
	ORDER BY u.email
	`
	rows, err := r.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanMeeting(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Meeting, error) {
	var meeting domain.Meeting
	var recurrenceID *string

	if err := row.Scan(
		&meeting.ID,
		&recurrenceID,
		&meeting.Title,
		&meeting.StartTime,
		&meeting.Duration,
		&meeting.Location,
		&meeting.Notes,
		&meeting.NumReschedules,
		&meeting.ReminderSent,
		&meeting.Completed,
		&meeting.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, err
	}
	if recurrenceID != nil {
		meeting.RecurrenceID = *recurrenceID
	}
	return &meeting, nil
}
