package domain

import "time"

// User is a read-only shadow of the identity service's user entity, kept
// current through inbound events. This service never originates user
// create/update/delete events.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
