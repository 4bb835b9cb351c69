package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is one outbound envelope waiting to be replayed onto the bus.
type Item struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	Body      json.RawMessage `json:"body"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
