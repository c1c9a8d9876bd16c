package outbox

import "encoding/json"

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AppointmentCreated = "scheduler.appointment.created.v1"
	AppointmentUpdated = "scheduler.appointment.updated.v1"
	AppointmentDeleted = "scheduler.appointment.deleted.v1"
	CustomerCreated    = "scheduler.customer.created.v1"
	CustomerUpdated    = "scheduler.customer.updated.v1"
	CustomerDeleted    = "scheduler.customer.deleted.v1"
)

// NewEvent marshals payload as JSON.
func NewEvent(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
