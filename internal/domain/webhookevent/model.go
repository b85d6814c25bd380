package webhookevent

import (
	"github.com/splitsub/splitsub/internal/types"
)

// Event is a processed inbound processor notification, recorded by the
// processor-assigned event id so redeliveries can be detected and skipped
type Event struct {
	ID        string                 `db:"id" json:"id"`
	EventType types.WebhookEventType `db:"event_type" json:"event_type"`
	types.BaseModel
}

func New(id string, eventType types.WebhookEventType) *Event {
	return &Event{
		ID:        id,
		EventType: eventType,
		BaseModel: types.GetDefaultBaseModel(),
	}
}
