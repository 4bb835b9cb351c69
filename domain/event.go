package domain

import "strings"

// Event kinds carried on the bus. Consumers must treat redelivery of the
// same envelope as idempotent.
const (
	EventCreate   = "create"
	EventUpdate   = "update"
	EventDelete   = "delete"
	EventComplete = "complete"
)

// Envelope is the wire-level wrapper around a domain event. It is never
// persisted; it exists only on the bus.
type Envelope struct {
	EventType string         `json:"event_type"`
	Model     string         `json:"model"`
	Payload   map[string]any `json:"payload"`
}

// ChannelFor maps an entity model name to its well-known bus channel.
// Channel identity is fixed configuration shared by all services; there is
// no runtime discovery.
func ChannelFor(model string) string {
	return strings.ToLower(model) + "-events"
}

// Well-known channels this bounded context interacts with.
var (
	ChannelMeetings    = ChannelFor("meeting")
	ChannelRecurrences = ChannelFor("recurrence")
	ChannelTasks       = ChannelFor("task")
	ChannelUsers       = ChannelFor("user")
)
