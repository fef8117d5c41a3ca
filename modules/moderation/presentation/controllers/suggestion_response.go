package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/archmarket/platform/modules/moderation/domain/aggregates/suggestion"
)

type suggestionResponse struct {
	ID             uuid.UUID  `json:"id"`
	Kind           string     `json:"kind"`
	SubmitterID    uuid.UUID  `json:"submitter_id"`
	Status         string     `json:"status"`
	Name           string     `json:"name,omitempty"`
	FieldName      string     `json:"field_name,omitempty"`
	SuggestedValue string     `json:"suggested_value,omitempty"`
	CatalogTypeID  *uuid.UUID `json:"catalog_type_id,omitempty"`
	Description    string     `json:"description,omitempty"`
	AdminMessage   string     `json:"admin_message,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toSuggestionResponse(s suggestion.Suggestion) suggestionResponse {
	out := suggestionResponse{
		ID:           s.ID(),
		Kind:         string(s.Kind()),
		SubmitterID:  s.SubmitterID(),
		Status:       string(s.Status()),
		AdminMessage: s.AdminMessage(),
		CreatedAt:    s.CreatedAt(),
	}
	if s.Kind() == suggestion.KindCatalogType {
		out.Name = s.TypePayload().Name
		out.Description = s.TypePayload().Description
	} else {
		p := s.FieldPayload()
		out.FieldName = p.FieldName
		out.SuggestedValue = p.SuggestedValue
		out.CatalogTypeID = &p.CatalogTypeID
		out.Description = p.Description
	}
	if at := s.ResolvedAt(); !at.IsZero() {
		out.ResolvedAt = &at
	}
	return out
}

func toSuggestionResponses(in []suggestion.Suggestion) []suggestionResponse {
	out := make([]suggestionResponse, 0, len(in))
	for _, s := range in {
		out = append(out, toSuggestionResponse(s))
	}
	return out
}
