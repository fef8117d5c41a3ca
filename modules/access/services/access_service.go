package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/modules/access/domain/aggregates/accessrequest"
	"github.com/archmarket/platform/modules/access/domain/entities/product"
	"github.com/archmarket/platform/modules/access/domain/events"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/metrics"
	"github.com/archmarket/platform/pkg/outbox"
	"github.com/archmarket/platform/pkg/serrors"
)

const engine = "access"

type AccessService struct {
	requests  accessrequest.Repository
	products  product.Repository
	publisher outbox.Publisher
	logger    *logrus.Logger
	inTx      func(ctx context.Context, fn func(context.Context) error) error
}

func NewAccessService(
	requests accessrequest.Repository,
	products product.Repository,
	publisher outbox.Publisher,
	logger *logrus.Logger,
) *AccessService {
	return &AccessService{
		requests:  requests,
		products:  products,
		publisher: publisher,
		logger:    logger,
		inTx:      composables.InTx,
	}
}

// Submit files a pending request. An existing pending or approved request for
// the pair fails with serrors.ErrDuplicateRequest; the partial unique index
// on access_requests covers concurrent submissions the check cannot see.
func (s *AccessService) Submit(ctx context.Context, specifierID uuid.UUID, dto *accessrequest.SubmitDTO) (accessrequest.AccessRequest, error) {
	if verrs, ok := dto.Ok(specifierID); !ok {
		return accessrequest.AccessRequest{}, verrs
	}
	draft := dto.ToEntity(specifierID)

	var created accessrequest.AccessRequest
	err := s.inTx(ctx, func(txCtx context.Context) error {
		active, err := s.requests.HasActive(txCtx, draft.SpecifierID(), draft.ProducerID())
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("%w: specifier %s already has an active request for producer %s",
				serrors.ErrDuplicateRequest, draft.SpecifierID(), draft.ProducerID())
		}
		created, err = s.requests.Create(txCtx, draft)
		if err != nil {
			return err
		}
		return s.enqueue(txCtx, specifierID, events.TopicRequestSubmittedV1, events.RequestSubmittedV1{
			RequestID:   created.ID(),
			SpecifierID: created.SpecifierID(),
			ProducerID:  created.ProducerID(),
			Message:     created.Message(),
		})
	})
	s.record("submit", err)
	if err != nil {
		return accessrequest.AccessRequest{}, serrors.Store(err)
	}
	s.log(ctx, created).Info("access request submitted")
	return created, nil
}

// Resolve settles a pending request addressed to producerID. Requests of other
// producers are reported as not found.
func (s *AccessService) Resolve(ctx context.Context, producerID, requestID uuid.UUID, status accessrequest.Status) (accessrequest.AccessRequest, error) {
	if status != accessrequest.StatusApproved && status != accessrequest.StatusRefused {
		return accessrequest.AccessRequest{}, serrors.ValidationErrors{"Status": {
			BaseError: *serrors.NewError("VALIDATION_ONEOF", "status must be approved or refused", "AccessRequest.Fields.Status"),
			Field:     "Status",
		}}
	}

	var resolved accessrequest.AccessRequest
	err := s.inTx(ctx, func(txCtx context.Context) error {
		current, err := s.requests.GetByID(txCtx, requestID)
		if err != nil {
			return err
		}
		if current.ProducerID() != producerID {
			return accessrequest.ErrNotFound
		}
		if !current.IsPending() {
			return fmt.Errorf("%w: access request %s is %s", serrors.ErrInvalidStateTransition, requestID, current.Status())
		}
		resolved, err = s.requests.Resolve(txCtx, producerID, requestID, status)
		if err != nil {
			return err
		}
		return s.enqueue(txCtx, producerID, events.TopicRequestResolvedV1, events.RequestResolvedV1{
			RequestID:   resolved.ID(),
			SpecifierID: resolved.SpecifierID(),
			ProducerID:  resolved.ProducerID(),
			Status:      string(resolved.Status()),
		})
	})
	s.record("resolve", err)
	if err != nil {
		return accessrequest.AccessRequest{}, serrors.Store(err)
	}
	s.log(ctx, resolved).Info("access request resolved")
	return resolved, nil
}

func (s *AccessService) StatusesFor(ctx context.Context, specifierID uuid.UUID, producerIDs []uuid.UUID) (map[uuid.UUID]accessrequest.AccessStatus, error) {
	requests, err := s.requests.ListBySpecifier(ctx, specifierID, producerIDs)
	if err != nil {
		return nil, serrors.Store(err)
	}
	return accessrequest.Statuses(producerIDs, requests), nil
}

func (s *AccessService) ListForProducer(ctx context.Context, producerID uuid.UUID) ([]accessrequest.WithRequester, error) {
	out, err := s.requests.ListForProducer(ctx, producerID)
	if err != nil {
		return nil, serrors.Store(err)
	}
	return out, nil
}

func (s *AccessService) HasAccess(ctx context.Context, specifierID, producerID uuid.UUID) (bool, error) {
	if specifierID == producerID {
		return true, nil
	}
	ok, err := s.requests.HasApproved(ctx, specifierID, producerID)
	if err != nil {
		return false, serrors.Store(err)
	}
	return ok, nil
}

// BrowseProducerCatalog lists every product of producerID, masked unless the
// viewer holds an approved request.
func (s *AccessService) BrowseProducerCatalog(ctx context.Context, viewerID, producerID uuid.UUID) ([]product.Entry, error) {
	full, err := s.HasAccess(ctx, viewerID, producerID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, serrors.Store(err)
	}
	return product.Gate(products, full), nil
}

func (s *AccessService) enqueue(ctx context.Context, actorID uuid.UUID, topic string, payload any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	msg, err := outbox.NewMessage(actorID, topic, payload)
	if err != nil {
		return err
	}
	_, err = s.publisher.Enqueue(ctx, tx, msg)
	return err
}

func (s *AccessService) record(operation string, err error) {
	result := "ok"
	if err != nil {
		if result = serrors.Code(serrors.Store(err)); result == "" {
			result = "INTERNAL"
		}
	}
	metrics.Transition(engine, operation, result)
}

func (s *AccessService) log(ctx context.Context, r accessrequest.AccessRequest) *logrus.Entry {
	return composables.TryUseLogger(ctx, s.logger).WithFields(logrus.Fields{
		"access_request_id": r.ID(),
		"specifier_id":      r.SpecifierID(),
		"producer_id":       r.ProducerID(),
		"status":            r.Status(),
	})
}
