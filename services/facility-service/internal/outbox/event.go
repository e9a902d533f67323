package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic equals EventType; the key is AggregateID so all events of
// one facility land on the same partition in order.
type Event struct {
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
