package monitor

import "time"

type Status struct {
	Database      bool      `json:"database"`
	Bus           bool      `json:"bus"`
	BufferOK      bool      `json:"buffer_ok"`
	PendingEvents int       `json:"pending_events"`
	LastCheck     time.Time `json:"last_check"`
}
