package domain

import "time"

// Task represents an action item discussed in one or more meetings.
type Task struct {
	ID            string     `json:"id"`
	AssigneeID    string     `json:"assignee_id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}
