package domain

import "time"

// Meeting represents a single scheduled occurrence, standalone or part of
// a recurrence chain.
type Meeting struct {
	ID             string    `json:"id"`
	RecurrenceID   string    `json:"recurrence_id,omitempty"`
	Title          string    `json:"title"`
	StartTime      time.Time `json:"start_time"`
	Duration       int       `json:"duration"` // minutes
	Location       string    `json:"location,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	NumReschedules int       `json:"num_reschedules"`
	ReminderSent   bool      `json:"reminder_sent"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
}

// EndTime returns the instant the meeting is scheduled to finish.
func (m *Meeting) EndTime() time.Time {
	return m.StartTime.Add(time.Duration(m.Duration) * time.Minute)
}

func (m *Meeting) IsRecurring() bool {
	return m != nil && m.RecurrenceID != ""
}
