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

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, assignee_id, title, description, due_date, completed, completed_date, created_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR assignee_id = $1)
	  AND ($2::boolean IS NULL OR completed = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.AssigneeID, filter.Completed, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, assignee_id, title, description, due_date, completed)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.AssigneeID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Completed,
	).Scan(&task.CreatedAt); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET assignee_id = $2,
		title = $3,
		description = $4,
		due_date = $5
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, task.ID, task.AssigneeID, task.Title, task.Description, task.DueDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) MarkCompleted(ctx context.Context, id string, at time.Time) (*domain.Task, error) {
	const query = `
	UPDATE tasks
	SET completed = TRUE,
		completed_date = $2
	WHERE id = $1
	RETURNING ` + taskColumns + `
	`
	row := r.pool.QueryRow(ctx, query, id, at)
	return scanTask(row)
}

func (r *taskRepository) LinkToMeeting(ctx context.Context, meetingID, taskID string) error {
	const query = `
	INSERT INTO meeting_tasks (meeting_id, task_id)
	VALUES ($1, $2)
	ON CONFLICT DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, meetingID, taskID)
	return err
}

func (r *taskRepository) ByMeeting(ctx context.Context, meetingID string) ([]domain.Task, error) {
	const query = `
	SELECT t.id, t.assignee_id, t.title, t.description, t.due_date, t.completed, t.completed_date, t.created_at
	FROM tasks t
	JOIN meeting_tasks mt ON mt.task_id = t.id
	WHERE mt.meeting_id = $1
	ORDER BY t.created_at
	`
	rows, err := r.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) IncompleteByMeeting(ctx context.Context, meetingID string) ([]domain.Task, error) {
	const query = `
	SELECT t.id, t.assignee_id, t.title, t.description, t.due_date, t.completed, t.completed_date, t.created_at
	FROM tasks t
	JOIN meeting_tasks mt ON mt.task_id = t.id
	WHERE mt.meeting_id = $1
	  AND t.completed = FALSE
	ORDER BY t.created_at
	`
	rows, err := r.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ReassignToMeeting relinks all join rows in one statement so a large task
// set moves atomically, never one row at a time.
func (r *taskRepository) ReassignToMeeting(ctx context.Context, taskIDs []string, fromMeetingID, toMeetingID string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	const query = `
	UPDATE meeting_tasks
	SET meeting_id = $2
	WHERE meeting_id = $1
	  AND task_id = ANY($3)
	`
	_, err := r.pool.Exec(ctx, query, fromMeetingID, toMeetingID, taskIDs)
	return err
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.AssigneeID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Completed,
		&task.CompletedDate,
		&task.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
