package accessrequest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/serrors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRefused  Status = "refused"
)

// IsActive reports whether the status blocks a new request for the same pair.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// ParseResolution accepts the two terminal statuses a producer may choose.
func ParseResolution(v string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(v))); s {
	case StatusApproved, StatusRefused:
		return s, true
	}
	return "", false
}

var ErrNotFound = fmt.Errorf("%w: access request", serrors.ErrNotFound)

type AccessRequest struct {
	id          uuid.UUID
	specifierID uuid.UUID
	producerID  uuid.UUID
	status      Status
	message     string
	createdAt   time.Time
	resolvedAt  time.Time
}

func New(specifierID, producerID uuid.UUID, message string) AccessRequest {
	return AccessRequest{
		specifierID: specifierID,
		producerID:  producerID,
		status:      StatusPending,
		message:     strings.TrimSpace(message),
	}
}

func Hydrate(
	id uuid.UUID,
	specifierID uuid.UUID,
	producerID uuid.UUID,
	status Status,
	message string,
	createdAt time.Time,
	resolvedAt time.Time,
) AccessRequest {
	return AccessRequest{
		id:          id,
		specifierID: specifierID,
		producerID:  producerID,
		status:      status,
		message:     message,
		createdAt:   createdAt,
		resolvedAt:  resolvedAt,
	}
}

func (r AccessRequest) ID() uuid.UUID          { return r.id }
func (r AccessRequest) SpecifierID() uuid.UUID { return r.specifierID }
func (r AccessRequest) ProducerID() uuid.UUID  { return r.producerID }
func (r AccessRequest) Status() Status         { return r.status }
func (r AccessRequest) Message() string        { return r.message }
func (r AccessRequest) CreatedAt() time.Time   { return r.createdAt }
func (r AccessRequest) ResolvedAt() time.Time  { return r.resolvedAt }
func (r AccessRequest) IsPending() bool        { return r.status == StatusPending }

// Requester is the specifier profile shown to the producer next to a request.
type Requester struct {
	ID          uuid.UUID
	DisplayName string
	CompanyName string
	City        string
}

type WithRequester struct {
	Request   AccessRequest
	Requester Requester
}
