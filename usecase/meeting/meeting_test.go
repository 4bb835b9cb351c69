package meeting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/meetsync/backend/domain"
	"github.com/meetsync/backend/repository"
)

type fakeMeetingRepo struct {
	meetings map[string]*domain.Meeting
	seq      int
	batchErr error
}

func newFakeMeetingRepo(meetings ...*domain.Meeting) *fakeMeetingRepo {
	repo := &fakeMeetingRepo{meetings: make(map[string]*domain.Meeting)}
	for _, m := range meetings {
		copied := *m
		repo.meetings[m.ID] = &copied
	}
	return repo
}

func (r *fakeMeetingRepo) GetByID(_ context.Context, id string) (*domain.Meeting, error) {
	m, ok := r.meetings[id]
	if !ok {
		return nil, domain.ErrMeetingNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMeetingRepo) List(_ context.Context, filter repository.MeetingFilter) ([]domain.Meeting, error) {
	var out []domain.Meeting
	for _, m := range r.meetings {
		if filter.RecurrenceID != "" && m.RecurrenceID != filter.RecurrenceID {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeMeetingRepo) Create(_ context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	if meeting.ID == "" {
		r.seq++
		meeting.ID = fmt.Sprintf("meeting-%d", r.seq)
	}
	copied := *meeting
	r.meetings[meeting.ID] = &copied
	return meeting, nil
}

func (r *fakeMeetingRepo) Update(_ context.Context, meeting *domain.Meeting) error {
	if _, ok := r.meetings[meeting.ID]; !ok {
		return domain.ErrMeetingNotFound
	}
	copied := *meeting
	r.meetings[meeting.ID] = &copied
	return nil
}

func (r *fakeMeetingRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.meetings[id]; !ok {
		return domain.ErrMeetingNotFound
	}
	delete(r.meetings, id)
	return nil
}

func (r *fakeMeetingRepo) MarkCompleted(_ context.Context, id string) error {
	m, ok := r.meetings[id]
	if !ok {
		return domain.ErrMeetingNotFound
	}
	m.Completed = true
	return nil
}

func (r *fakeMeetingRepo) FirstAfter(_ context.Context, recurrenceID string, after time.Time) (*domain.Meeting, error) {
	var best *domain.Meeting
	for _, m := range r.meetings {
		if m.RecurrenceID != recurrenceID || !m.StartTime.After(after) {
			continue
		}
		if best == nil || m.StartTime.Before(best.StartTime) {
			best = m
		}
	}
	if best == nil {
		return nil, domain.ErrMeetingNotFound
	}
	copied := *best
	return &copied, nil
}

func (r *fakeMeetingRepo) ExistingStartTimes(_ context.Context, recurrenceID string, candidates []time.Time) ([]time.Time, error) {
	var existing []time.Time
	for _, candidate := range candidates {
		for _, m := range r.meetings {
			if m.RecurrenceID == recurrenceID && m.StartTime.Equal(candidate) {
				existing = append(existing, candidate)
				break
			}
		}
	}
	return existing, nil
}

func (r *fakeMeetingRepo) CreateBatch(ctx context.Context, meetings []domain.Meeting) ([]domain.Meeting, error) {
	if r.batchErr != nil {
		return nil, r.batchErr
	}
	created := make([]domain.Meeting, 0, len(meetings))
	for _, m := range meetings {
		stored, err := r.Create(ctx, &m)
		if err != nil {
			return nil, err
		}
		created = append(created, *stored)
	}
	return created, nil
}

func (r *fakeMeetingRepo) AddUsers(_ context.Context, _ string, _ []string) error { return nil }

func (r *fakeMeetingRepo) GetUsers(_ context.Context, _ string) ([]domain.User, error) {
	return nil, nil
}

type fakeRecurrenceRepo struct {
	recurrences map[string]*domain.Recurrence
}

func newFakeRecurrenceRepo(recurrences ...*domain.Recurrence) *fakeRecurrenceRepo {
	repo := &fakeRecurrenceRepo{recurrences: make(map[string]*domain.Recurrence)}
	for _, rec := range recurrences {
		repo.recurrences[rec.ID] = rec
	}
	return repo
}

func (r *fakeRecurrenceRepo) GetByID(_ context.Context, id string) (*domain.Recurrence, error) {
	rec, ok := r.recurrences[id]
	if !ok {
		return nil, domain.ErrRecurrenceNotFound
	}
	return rec, nil
}

func (r *fakeRecurrenceRepo) List(_ context.Context, _, _ int) ([]domain.Recurrence, error) {
	return nil, nil
}

func (r *fakeRecurrenceRepo) Create(_ context.Context, rec *domain.Recurrence) (*domain.Recurrence, error) {
	r.recurrences[rec.ID] = rec
	return rec, nil
}

func (r *fakeRecurrenceRepo) Update(_ context.Context, rec *domain.Recurrence) error {
	r.recurrences[rec.ID] = rec
	return nil
}

func (r *fakeRecurrenceRepo) Delete(_ context.Context, id string) error {
	delete(r.recurrences, id)
	return nil
}

type publishedEvent struct {
	model     string
	eventType string
	payload   interface{}
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, model, eventType string, payload interface{}) error {
	p.events = append(p.events, publishedEvent{model: model, eventType: eventType, payload: payload})
	return nil
}

func (p *fakePublisher) lastOfType(eventType string) (publishedEvent, bool) {
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].eventType == eventType {
			return p.events[i], true
		}
	}
	return publishedEvent{}, false
}

func payloadField(t *testing.T, ev publishedEvent, key string) any {
	t.Helper()
	payload, ok := ev.payload.(map[string]any)
	if !ok {
		t.Fatalf("event payload is %T, want map", ev.payload)
	}
	return payload[key]
}

var baseStart = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) // a Monday

func weeklyRecurrence() *domain.Recurrence {
	return &domain.Recurrence{
		ID:    "rec-1",
		Title: "Weekly sync",
		RRule: "FREQ=WEEKLY;BYDAY=MO",
	}
}

func recurringMeeting(id string, start time.Time) *domain.Meeting {
	return &domain.Meeting{
		ID:           id,
		RecurrenceID: "rec-1",
		Title:        "Weekly sync",
		StartTime:    start,
		Duration:     60,
	}
}

func TestCompleteUsesExistingSuccessor(t *testing.T) {
	current := recurringMeeting("m-1", baseStart)
	successor := recurringMeeting("m-2", baseStart.AddDate(0, 0, 7))
	meetings := newFakeMeetingRepo(current, successor)
	pub := &fakePublisher{}
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), pub, nil)

	completed, err := uc.Complete(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !completed.Completed {
		t.Fatal("returned meeting is not flagged completed")
	}

	stored, _ := meetings.GetByID(context.Background(), "m-1")
	if !stored.Completed {
		t.Fatal("completed flag was not persisted")
	}

	ev, ok := pub.lastOfType(domain.EventComplete)
	if !ok {
		t.Fatal("no complete event published")
	}
	if got := payloadField(t, ev, "next_meeting_id"); got != "m-2" {
		t.Fatalf("next_meeting_id = %v, want m-2", got)
	}
	// An existing successor must not trigger a create.
	if _, ok := pub.lastOfType(domain.EventCreate); ok {
		t.Fatal("unexpected create event for an existing successor")
	}
}

func TestCompleteSynthesizesSuccessorFromRule(t *testing.T) {
	current := recurringMeeting("m-1", baseStart)
	meetings := newFakeMeetingRepo(current)
	pub := &fakePublisher{}
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), pub, nil)

	if _, err := uc.Complete(context.Background(), "m-1"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	createEv, ok := pub.lastOfType(domain.EventCreate)
	if !ok {
		t.Fatal("no create event for the synthesized successor")
	}
	created, ok := createEv.payload.(*domain.Meeting)
	if !ok {
		t.Fatalf("create payload is %T, want *domain.Meeting", createEv.payload)
	}
	if !created.StartTime.After(current.EndTime()) {
		t.Fatalf("successor starts %v, not after current end %v", created.StartTime, current.EndTime())
	}
	if created.RecurrenceID != "rec-1" {
		t.Fatalf("successor recurrence = %q, want rec-1", created.RecurrenceID)
	}
	if created.Duration != 60 || created.Title != "Weekly sync" {
		t.Fatalf("successor did not inherit template fields: %+v", created)
	}

	completeEv, ok := pub.lastOfType(domain.EventComplete)
	if !ok {
		t.Fatal("no complete event published")
	}
	if got := payloadField(t, completeEv, "next_meeting_id"); got != created.ID {
		t.Fatalf("complete event next_meeting_id = %v, want %v", got, created.ID)
	}
}

func TestCompleteExcludesExactBoundarySuccessor(t *testing.T) {
	current := recurringMeeting("m-1", baseStart)
	// Starts exactly at current end: not a valid successor.
	boundary := recurringMeeting("m-2", current.EndTime())
	meetings := newFakeMeetingRepo(current, boundary)
	pub := &fakePublisher{}
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), pub, nil)

	if _, err := uc.Complete(context.Background(), "m-1"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	ev, _ := pub.lastOfType(domain.EventComplete)
	next := payloadField(t, ev, "next_meeting_id")
	if next == "m-2" {
		t.Fatal("boundary meeting was chosen as successor")
	}
}

func TestCompleteNonRecurringCommitsFlag(t *testing.T) {
	standalone := &domain.Meeting{ID: "m-1", Title: "One-off", StartTime: baseStart, Duration: 30}
	meetings := newFakeMeetingRepo(standalone)
	pub := &fakePublisher{}
	uc := New(meetings, newFakeRecurrenceRepo(), pub, nil)

	completed, err := uc.Complete(context.Background(), "m-1")
	if err != domain.ErrNoRecurrence {
		t.Fatalf("expected ErrNoRecurrence, got %v", err)
	}
	if completed != nil {
		t.Fatal("expected a nil meeting alongside ErrNoRecurrence")
	}

	// The flag commits despite the error return.
	stored, _ := meetings.GetByID(context.Background(), "m-1")
	if !stored.Completed {
		t.Fatal("non-recurring completion did not persist the flag")
	}

	ev, ok := pub.lastOfType(domain.EventComplete)
	if !ok {
		t.Fatal("no complete event published")
	}
	if got := payloadField(t, ev, "next_meeting_id"); got != nil {
		t.Fatalf("next_meeting_id = %v, want nil", got)
	}
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	done := recurringMeeting("m-1", baseStart)
	done.Completed = true
	pub := &fakePublisher{}
	uc := New(newFakeMeetingRepo(done), newFakeRecurrenceRepo(weeklyRecurrence()), pub, nil)

	if _, err := uc.Complete(context.Background(), "m-1"); err != domain.ErrMeetingCompleted {
		t.Fatalf("expected ErrMeetingCompleted, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatal("re-completing published events")
	}
}

func TestCompleteSuccessorFailureLeavesMeetingOpen(t *testing.T) {
	// The recurrence row is gone, so successor synthesis fails before the
	// completed flag is written.
	current := recurringMeeting("m-1", baseStart)
	meetings := newFakeMeetingRepo(current)
	uc := New(meetings, newFakeRecurrenceRepo(), &fakePublisher{}, nil)

	if _, err := uc.Complete(context.Background(), "m-1"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	stored, _ := meetings.GetByID(context.Background(), "m-1")
	if stored.Completed {
		t.Fatal("meeting was completed despite successor resolution failure")
	}
}

func TestGetSubsequentWithoutRecurrence(t *testing.T) {
	standalone := &domain.Meeting{ID: "m-1", StartTime: baseStart, Duration: 30}
	uc := New(newFakeMeetingRepo(standalone), newFakeRecurrenceRepo(), &fakePublisher{}, nil)

	if _, err := uc.GetSubsequent(context.Background(), "m-1"); err != domain.ErrNoRecurrence {
		t.Fatalf("expected ErrNoRecurrence, got %v", err)
	}
}

func TestMaterializeSkipsExistingDates(t *testing.T) {
	existing1 := recurringMeeting("m-1", baseStart)
	existing2 := recurringMeeting("m-2", baseStart.AddDate(0, 0, 7))
	meetings := newFakeMeetingRepo(existing1, existing2)
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), &fakePublisher{}, nil)

	dates := []time.Time{
		baseStart,                   // exists
		baseStart.AddDate(0, 0, 7),  // exists
		baseStart.AddDate(0, 0, 14), // new
		baseStart.AddDate(0, 0, 21), // new
		baseStart.AddDate(0, 0, 28), // new
	}
	template := domain.Meeting{Title: "Weekly sync", Duration: 60}

	result, err := uc.Materialize(context.Background(), "rec-1", template, dates)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(result.Created) != 3 {
		t.Fatalf("created %d meetings, want 3", len(result.Created))
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("skipped %d dates, want 2", len(result.Skipped))
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	meetings := newFakeMeetingRepo()
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), &fakePublisher{}, nil)

	dates := []time.Time{baseStart, baseStart.AddDate(0, 0, 7)}
	template := domain.Meeting{Duration: 60}

	first, err := uc.Materialize(context.Background(), "rec-1", template, dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Created) != 2 {
		t.Fatalf("first run created %d, want 2", len(first.Created))
	}

	second, err := uc.Materialize(context.Background(), "rec-1", template, dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Created) != 0 || len(second.Skipped) != 2 {
		t.Fatalf("second run created %d skipped %d, want 0/2", len(second.Created), len(second.Skipped))
	}
}

func TestMaterializeDeduplicatesCandidates(t *testing.T) {
	meetings := newFakeMeetingRepo()
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), &fakePublisher{}, nil)

	// Same instant twice, once in a different zone.
	loc := time.FixedZone("UTC+2", 2*60*60)
	dates := []time.Time{baseStart, baseStart.In(loc)}

	result, err := uc.Materialize(context.Background(), "rec-1", domain.Meeting{Duration: 30}, dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Created) != 1 || len(result.Skipped) != 1 {
		t.Fatalf("created %d skipped %d, want 1/1", len(result.Created), len(result.Skipped))
	}
}

func TestMaterializeRejectsEmptyDates(t *testing.T) {
	uc := New(newFakeMeetingRepo(), newFakeRecurrenceRepo(weeklyRecurrence()), &fakePublisher{}, nil)
	if _, err := uc.Materialize(context.Background(), "rec-1", domain.Meeting{}, nil); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestMaterializeUnknownRecurrence(t *testing.T) {
	uc := New(newFakeMeetingRepo(), newFakeRecurrenceRepo(), &fakePublisher{}, nil)
	_, err := uc.Materialize(context.Background(), "rec-x", domain.Meeting{}, []time.Time{baseStart})
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCreateMeetingAppliesDefaultTitle(t *testing.T) {
	uc := New(newFakeMeetingRepo(), newFakeRecurrenceRepo(weeklyRecurrence()), &fakePublisher{}, nil)

	created, err := uc.CreateMeeting(context.Background(), &domain.Meeting{
		RecurrenceID: "rec-1",
		StartTime:    baseStart,
	})
	if err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	if want := "Weekly sync on 2026-08-31"; created.Title != want {
		t.Fatalf("title = %q, want %q", created.Title, want)
	}
	if created.Duration != 30 {
		t.Fatalf("default duration = %d, want 30", created.Duration)
	}
}

func TestCreateMeetingKeepsExplicitTitle(t *testing.T) {
	uc := New(newFakeMeetingRepo(), newFakeRecurrenceRepo(weeklyRecurrence()), &fakePublisher{}, nil)

	created, err := uc.CreateMeeting(context.Background(), &domain.Meeting{
		RecurrenceID: "rec-1",
		Title:        "Planning",
		StartTime:    baseStart,
		Duration:     45,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Title != "Planning" {
		t.Fatalf("title = %q, want Planning", created.Title)
	}
}

func TestWeeklyChainAcrossCompletions(t *testing.T) {
	// Completing meetings back to back walks the rule one Monday at a time.
	first := recurringMeeting("m-1", baseStart)
	meetings := newFakeMeetingRepo(first)
	pub := &fakePublisher{}
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), pub, nil)

	currentID := "m-1"
	expectedStart := baseStart
	for i := 0; i < 3; i++ {
		if _, err := uc.Complete(context.Background(), currentID); err != nil {
			t.Fatalf("completion %d failed: %v", i, err)
		}
		ev, ok := pub.lastOfType(domain.EventComplete)
		if !ok {
			t.Fatalf("completion %d published no event", i)
		}
		nextID, _ := payloadField(t, ev, "next_meeting_id").(string)
		if nextID == "" || nextID == currentID {
			t.Fatalf("completion %d produced bad successor %q", i, nextID)
		}

		next, err := meetings.GetByID(context.Background(), nextID)
		if err != nil {
			t.Fatalf("successor %q not stored: %v", nextID, err)
		}
		expectedStart = expectedStart.AddDate(0, 0, 7)
		if !next.StartTime.Equal(expectedStart) {
			t.Fatalf("completion %d successor starts %v, want %v", i, next.StartTime, expectedStart)
		}
		if next.StartTime.Weekday() != time.Monday {
			t.Fatalf("completion %d successor falls on %v", i, next.StartTime.Weekday())
		}
		currentID = nextID
	}
}

func TestDeleteMeetingPublishesDeleteEvent(t *testing.T) {
	meetings := newFakeMeetingRepo(recurringMeeting("m-1", baseStart))
	pub := &fakePublisher{}
	uc := New(meetings, newFakeRecurrenceRepo(weeklyRecurrence()), pub, nil)

	if err := uc.DeleteMeeting(context.Background(), "m-1"); err != nil {
		t.Fatal(err)
	}
	ev, ok := pub.lastOfType(domain.EventDelete)
	if !ok {
		t.Fatal("no delete event published")
	}
	if !strings.EqualFold(ev.model, "meeting") {
		t.Fatalf("delete event model = %q, want meeting", ev.model)
	}
}
