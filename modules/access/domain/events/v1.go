package events

import "github.com/google/uuid"

const (
	TopicRequestSubmittedV1 = "access.request.submitted.v1"
	TopicRequestResolvedV1  = "access.request.resolved.v1"
)

// RequestSubmittedV1 notifies the producer of a new request.
type RequestSubmittedV1 struct {
	RequestID   uuid.UUID `json:"request_id"`
	SpecifierID uuid.UUID `json:"specifier_id"`
	ProducerID  uuid.UUID `json:"producer_id"`
	Message     string    `json:"message,omitempty"`
}

// RequestResolvedV1 notifies the specifier of the producer's decision.
type RequestResolvedV1 struct {
	RequestID   uuid.UUID `json:"request_id"`
	SpecifierID uuid.UUID `json:"specifier_id"`
	ProducerID  uuid.UUID `json:"producer_id"`
	Status      string    `json:"status"`
}
