package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/serrors"
)

type Kind string

const (
	KindSuggestionResolved     Kind = "suggestion_resolved"
	KindAccessRequestSubmitted Kind = "access_request_submitted"
	KindAccessRequestResolved  Kind = "access_request_resolved"
)

var ErrNotFound = fmt.Errorf("%w: notification", serrors.ErrNotFound)

type Metadata map[string]any

// Notification is owned by its recipient. Only the read flag ever changes
// after creation.
type Notification struct {
	id            uuid.UUID
	ownerID       uuid.UUID
	kind          Kind
	title         string
	body          string
	read          bool
	readAt        time.Time
	createdAt     time.Time
	metadata      Metadata
	sourceEventID uuid.UUID
}

type Option func(n *Notification)

func WithMetadata(m Metadata) Option {
	return func(n *Notification) {
		n.metadata = m
	}
}

// WithSourceEvent ties the notification to the event it was built from so a
// redelivered event cannot create it twice.
func WithSourceEvent(eventID uuid.UUID) Option {
	return func(n *Notification) {
		n.sourceEventID = eventID
	}
}

func New(ownerID uuid.UUID, kind Kind, title, body string, opts ...Option) Notification {
	n := Notification{
		ownerID:   ownerID,
		kind:      kind,
		title:     title,
		body:      body,
		metadata:  Metadata{},
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func Hydrate(
	id, ownerID uuid.UUID,
	kind Kind,
	title, body string,
	read bool,
	readAt time.Time,
	createdAt time.Time,
	metadata Metadata,
	sourceEventID uuid.UUID,
) Notification {
	if metadata == nil {
		metadata = Metadata{}
	}
	return Notification{
		id:            id,
		ownerID:       ownerID,
		kind:          kind,
		title:         title,
		body:          body,
		read:          read,
		readAt:        readAt,
		createdAt:     createdAt,
		metadata:      metadata,
		sourceEventID: sourceEventID,
	}
}

func (n Notification) ID() uuid.UUID            { return n.id }
func (n Notification) OwnerID() uuid.UUID       { return n.ownerID }
func (n Notification) Kind() Kind               { return n.kind }
func (n Notification) Title() string            { return n.title }
func (n Notification) Body() string             { return n.body }
func (n Notification) Read() bool               { return n.read }
func (n Notification) ReadAt() time.Time        { return n.readAt }
func (n Notification) CreatedAt() time.Time     { return n.createdAt }
func (n Notification) Metadata() Metadata       { return n.metadata }
func (n Notification) SourceEventID() uuid.UUID { return n.sourceEventID }

// Feed is one consistent snapshot of an owner's newest notifications.
// UnreadCount covers the whole feed, not only Items.
type Feed struct {
	Items       []Notification
	UnreadCount int
}
