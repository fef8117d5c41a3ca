package accessrequest

import "github.com/google/uuid"

// AccessStatus is the specifier-facing view of a producer's catalog.
type AccessStatus string

const (
	AccessNone     AccessStatus = "none"
	AccessPending  AccessStatus = "pending"
	AccessApproved AccessStatus = "approved"
	AccessRefused  AccessStatus = "refused"
)

var precedence = map[Status]int{
	StatusRefused:  1,
	StatusPending:  2,
	StatusApproved: 3,
}

// Statuses folds the requests of one specifier into a status per producer.
// Every producer in producerIDs gets an entry. When several requests exist
// for a pair, approved wins over pending, which wins over refused.
func Statuses(producerIDs []uuid.UUID, requests []AccessRequest) map[uuid.UUID]AccessStatus {
	best := make(map[uuid.UUID]Status, len(requests))
	for _, r := range requests {
		if precedence[r.Status()] > precedence[best[r.ProducerID()]] {
			best[r.ProducerID()] = r.Status()
		}
	}

	out := make(map[uuid.UUID]AccessStatus, len(producerIDs))
	for _, id := range producerIDs {
		switch best[id] {
		case StatusApproved:
			out[id] = AccessApproved
		case StatusPending:
			out[id] = AccessPending
		case StatusRefused:
			out[id] = AccessRefused
		default:
			out[id] = AccessNone
		}
	}
	return out
}
