package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/archmarket/platform/modules/access/domain/aggregates/accessrequest"
)

type requestResponse struct {
	ID          uuid.UUID  `json:"id"`
	SpecifierID uuid.UUID  `json:"specifier_id"`
	ProducerID  uuid.UUID  `json:"producer_id"`
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type requesterResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	CompanyName string    `json:"company_name"`
	City        string    `json:"city"`
}

type incomingResponse struct {
	requestResponse
	Requester requesterResponse `json:"requester"`
}

func toRequestResponse(r accessrequest.AccessRequest) requestResponse {
	out := requestResponse{
		ID:          r.ID(),
		SpecifierID: r.SpecifierID(),
		ProducerID:  r.ProducerID(),
		Status:      string(r.Status()),
		Message:     r.Message(),
		CreatedAt:   r.CreatedAt(),
	}
	if at := r.ResolvedAt(); !at.IsZero() {
		out.ResolvedAt = &at
	}
	return out
}
