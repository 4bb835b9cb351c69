package task

import (
	"context"
	"testing"
	"time"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/repository"
)

type reassignCall struct {
	taskIDs []string
	from    string
	to      string
}

type fakeTaskRepo struct {
	tasks      map[string]*domain.Task
	byMeeting  map[string][]string
	reassigned []reassignCall
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:     make(map[string]*domain.Task),
		byMeeting: make(map[string][]string),
	}
}

func (r *fakeTaskRepo) addTask(task *domain.Task, meetingID string) {
	r.tasks[task.ID] = task
	if meetingID != "" {
		r.byMeeting[meetingID] = append(r.byMeeting[meetingID], task.ID)
	}
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (r *fakeTaskRepo) List(_ context.Context, _ repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task.ID == "" {
		task.ID = "task-new"
	}
	r.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) MarkCompleted(_ context.Context, id string, at time.Time) (*domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	task.Completed = true
	task.CompletedDate = &at
	return task, nil
}

func (r *fakeTaskRepo) LinkToMeeting(_ context.Context, meetingID, taskID string) error {
	r.byMeeting[meetingID] = append(r.byMeeting[meetingID], taskID)
	return nil
}

func (r *fakeTaskRepo) ByMeeting(_ context.Context, meetingID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, id := range r.byMeeting[meetingID] {
		out = append(out, *r.tasks[id])
	}
	return out, nil
}

func (r *fakeTaskRepo) IncompleteByMeeting(_ context.Context, meetingID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, id := range r.byMeeting[meetingID] {
		if task := r.tasks[id]; !task.Completed {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) ReassignToMeeting(_ context.Context, taskIDs []string, from, to string) error {
	r.reassigned = append(r.reassigned, reassignCall{taskIDs: taskIDs, from: from, to: to})
	return nil
}

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) Publish(_ context.Context, _, eventType string, _ interface{}) error {
	p.events = append(p.events, eventType)
	return nil
}

func TestReassignMovesOpenTasks(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.addTask(&domain.Task{ID: "t-1", Title: "follow up"}, "m-1")
	repo.addTask(&domain.Task{ID: "t-2", Title: "send notes"}, "m-1")
	repo.addTask(&domain.Task{ID: "t-3", Title: "done already", Completed: true}, "m-1")
	uc := New(repo, &fakePublisher{}, nil)

	if err := uc.ReassignToMeeting(context.Background(), "m-1", "m-2"); err != nil {
		t.Fatalf("ReassignToMeeting failed: %v", err)
	}

	if len(repo.reassigned) != 1 {
		t.Fatalf("expected one bulk reassign call, got %d", len(repo.reassigned))
	}
	call := repo.reassigned[0]
	if call.from != "m-1" || call.to != "m-2" {
		t.Fatalf("reassign moved %s -> %s, want m-1 -> m-2", call.from, call.to)
	}
	if len(call.taskIDs) != 2 {
		t.Fatalf("reassigned %d tasks, want 2 (completed task must stay)", len(call.taskIDs))
	}
	for _, id := range call.taskIDs {
		if id == "t-3" {
			t.Fatal("completed task was reassigned")
		}
	}
}

func TestReassignWithoutSuccessorIsNoOp(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.addTask(&domain.Task{ID: "t-1"}, "m-1")
	uc := New(repo, &fakePublisher{}, nil)

	if err := uc.ReassignToMeeting(context.Background(), "m-1", ""); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(repo.reassigned) != 0 {
		t.Fatal("tasks were reassigned despite a missing successor")
	}
}

func TestReassignWithNoOpenTasksIsNoOp(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.addTask(&domain.Task{ID: "t-1", Completed: true}, "m-1")
	uc := New(repo, &fakePublisher{}, nil)

	if err := uc.ReassignToMeeting(context.Background(), "m-1", "m-2"); err != nil {
		t.Fatal(err)
	}
	if len(repo.reassigned) != 0 {
		t.Fatal("reassign was called with no open tasks")
	}
}

func TestCompleteTaskStampsCompletionDate(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.addTask(&domain.Task{ID: "t-1"}, "")
	pub := &fakePublisher{}
	uc := New(repo, pub, nil)

	task, err := uc.CompleteTask(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if !task.Completed || task.CompletedDate == nil {
		t.Fatalf("task not completed properly: %+v", task)
	}
	if len(pub.events) != 1 || pub.events[0] != domain.EventUpdate {
		t.Fatalf("expected one update event, got %v", pub.events)
	}
}

func TestLinkToMeetingRequiresExistingTask(t *testing.T) {
	uc := New(newFakeTaskRepo(), &fakePublisher{}, nil)
	if err := uc.LinkToMeeting(context.Background(), "m-1", "missing"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
