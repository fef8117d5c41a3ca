package events

import (
	"github.com/google/uuid"
)

const TopicSuggestionResolvedV1 = "moderation.suggestion.resolved.v1"

type SuggestionResolvedV1 struct {
	SuggestionID uuid.UUID  `json:"suggestion_id"`
	Kind         string     `json:"kind"`
	SubmitterID  uuid.UUID  `json:"submitter_id"`
	Status       string     `json:"status"`
	Title        string     `json:"title"`
	AdminMessage string     `json:"admin_message"`
	ResolvedBy   *uuid.UUID `json:"resolved_by,omitempty"`
	// EntityID is the catalog row created or matched by the approval.
	EntityID *uuid.UUID `json:"entity_id,omitempty"`
}
