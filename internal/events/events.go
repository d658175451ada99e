package events

import "time"

// Event types carried on the storefront order topic.
const (
	EventOrderCreated     = "order.created"
	EventPaymentProcessed = "payment.processed"
	EventOrderConfirmed   = "order.confirmed"
	EventCartAbandoned    = "cart.abandoned"
	EventItemAddedToCart  = "cart.item_added"
)

const ProducerName = "bloomcart-storefront"

// Envelope is the wire shape of every published event. Payload carries the
// event-specific body; the envelope fields are uniform across types so
// downstream consumers can route without decoding the payload.
type Envelope struct {
	EventID       string      `json:"eventId"`
	EventType     string      `json:"eventType"`
	OccurredAt    time.Time   `json:"occurredAt"`
	Producer      string      `json:"producer"`
	CorrelationID string      `json:"correlationId,omitempty"`
	Payload       interface{} `json:"payload"`
}
