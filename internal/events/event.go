package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types double as AMQP routing keys.
const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
	CategoryCreated    = "category.created"
	CategoryUpdated    = "category.updated"
	CategoryDeleted    = "category.deleted"
)

// Event is the JSON envelope put on the wire. Payload carries the resource
// as it looked after the change and is empty for deletions.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	UserID     uuid.UUID   `json:"userId"`
	ResourceID uuid.UUID   `json:"resourceId"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload,omitempty"`
}

func New(eventType string, userID, resourceID uuid.UUID, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an envelope; Payload comes back as a generic map.
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
