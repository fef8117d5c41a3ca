package suggestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/serrors"
)

type Kind string

const (
	KindCatalogType  Kind = "new_catalog_type"
	KindCatalogField Kind = "new_catalog_field"
)

func ParseKind(v string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case KindCatalogType, KindCatalogField:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown suggestion kind %q", ErrNotFound, v)
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus reads a stored status. Rows written before statuses existed
// carry NULL and count as pending.
func ParseStatus(v *string) Status {
	if v == nil || strings.TrimSpace(*v) == "" {
		return StatusPending
	}
	return Status(strings.ToLower(strings.TrimSpace(*v)))
}

const (
	DefaultApprovedMessage = "suggestion approved and entity created"
	DefaultRejectedMessage = "suggestion rejected."
)

// EnvironmentField is the only field name whose approval creates a catalog entity.
const EnvironmentField = "environment"

var ErrNotFound = fmt.Errorf("%w: suggestion", serrors.ErrNotFound)

type TypePayload struct {
	Name        string
	Description string
}

type FieldPayload struct {
	FieldName      string
	SuggestedValue string
	CatalogTypeID  uuid.UUID
	Description    string
}

// Materializes reports whether approving the field creates an environment.
func (p FieldPayload) Materializes() bool {
	return strings.EqualFold(strings.TrimSpace(p.FieldName), EnvironmentField)
}

type Suggestion struct {
	id           uuid.UUID
	kind         Kind
	submitterID  uuid.UUID
	typePayload  TypePayload
	fieldPayload FieldPayload
	status       Status
	adminMessage string
	resolvedBy   uuid.UUID
	resolvedAt   time.Time
	createdAt    time.Time
}

func NewCatalogType(submitterID uuid.UUID, p TypePayload) Suggestion {
	return Suggestion{
		kind:        KindCatalogType,
		submitterID: submitterID,
		typePayload: TypePayload{
			Name:        strings.TrimSpace(p.Name),
			Description: strings.TrimSpace(p.Description),
		},
		status: StatusPending,
	}
}

func NewCatalogField(submitterID uuid.UUID, p FieldPayload) Suggestion {
	return Suggestion{
		kind:        KindCatalogField,
		submitterID: submitterID,
		fieldPayload: FieldPayload{
			FieldName:      strings.TrimSpace(p.FieldName),
			SuggestedValue: strings.TrimSpace(p.SuggestedValue),
			CatalogTypeID:  p.CatalogTypeID,
			Description:    strings.TrimSpace(p.Description),
		},
		status: StatusPending,
	}
}

func Hydrate(
	id uuid.UUID,
	kind Kind,
	submitterID uuid.UUID,
	typePayload TypePayload,
	fieldPayload FieldPayload,
	status Status,
	adminMessage string,
	resolvedBy uuid.UUID,
	resolvedAt time.Time,
	createdAt time.Time,
) Suggestion {
	return Suggestion{
		id:           id,
		kind:         kind,
		submitterID:  submitterID,
		typePayload:  typePayload,
		fieldPayload: fieldPayload,
		status:       status,
		adminMessage: adminMessage,
		resolvedBy:   resolvedBy,
		resolvedAt:   resolvedAt,
		createdAt:    createdAt,
	}
}

func (s Suggestion) ID() uuid.UUID              { return s.id }
func (s Suggestion) Kind() Kind                 { return s.kind }
func (s Suggestion) SubmitterID() uuid.UUID     { return s.submitterID }
func (s Suggestion) TypePayload() TypePayload   { return s.typePayload }
func (s Suggestion) FieldPayload() FieldPayload { return s.fieldPayload }
func (s Suggestion) Status() Status             { return s.status }
func (s Suggestion) AdminMessage() string       { return s.adminMessage }
func (s Suggestion) ResolvedBy() uuid.UUID      { return s.resolvedBy }
func (s Suggestion) ResolvedAt() time.Time      { return s.resolvedAt }
func (s Suggestion) CreatedAt() time.Time       { return s.createdAt }
func (s Suggestion) IsPending() bool            { return s.status == StatusPending }
func (s Suggestion) IsZero() bool               { return s.id == uuid.Nil && s.kind == "" }

// Title is the human label used in notifications: the type name or
// "field: value".
func (s Suggestion) Title() string {
	if s.kind == KindCatalogType {
		return s.typePayload.Name
	}
	return fmt.Sprintf("%s: %s", s.fieldPayload.FieldName, s.fieldPayload.SuggestedValue)
}

// Materializes reports whether approval creates a catalog entity.
func (s Suggestion) Materializes() bool {
	switch s.kind {
	case KindCatalogType:
		return true
	case KindCatalogField:
		return s.fieldPayload.Materializes()
	}
	return false
}
