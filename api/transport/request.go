package transport

// MeetingRequest carries meeting create/update fields.
type MeetingRequest struct {
	ID           string `json:"id"`
	RecurrenceID string `json:"recurrence_id"`
	Title        string `json:"title"`
	StartTime    string `json:"start_time"`
	Duration     int    `json:"duration"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
}

type RecurrenceRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	RRule string `json:"rrule"`
}

type TaskRequest struct {
	ID          string `json:"id"`
	AssigneeID  string `json:"assignee_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

// MaterializeRequest asks for meetings to be created from a recurrence
// template on the given RFC 3339 dates.
type MaterializeRequest struct {
	Template MeetingRequest `json:"template"`
	Dates    []string       `json:"dates"`
}

type AddAttendeesRequest struct {
	UserIDs []string `json:"user_ids"`
}

type LinkTaskRequest struct {
	TaskID string `json:"task_id"`
}
