package domain

import "time"

// Recurrence stores an RFC 5545 recurrence rule string. Rules are not
// timezone aware; all stored instants are treated as UTC.
//
// Examples:
//
//	FREQ=WEEKLY;BYDAY=TU;BYHOUR=17;BYMINUTE=30
//	FREQ=MONTHLY;BYMONTHDAY=15;BYHOUR=9;BYMINUTE=0
type Recurrence struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	RRule     string    `json:"rrule"`
	CreatedAt time.Time `json:"created_at"`
}
