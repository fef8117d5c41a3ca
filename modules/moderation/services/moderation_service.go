package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/modules/moderation/domain/aggregates/suggestion"
	"github.com/archmarket/platform/modules/moderation/domain/entities/catalog"
	"github.com/archmarket/platform/modules/moderation/domain/events"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/metrics"
	"github.com/archmarket/platform/pkg/outbox"
	"github.com/archmarket/platform/pkg/serrors"
)

const engine = "moderation"

type PendingSuggestions struct {
	CatalogTypes  []suggestion.Suggestion
	CatalogFields []suggestion.Suggestion
}

type ReconcileReport struct {
	Scanned  int `json:"scanned"`
	Resolved int `json:"resolved"`
	// Skipped counts suggestions resolved by someone else mid-pass.
	Skipped int `json:"skipped"`
}

type ModerationService struct {
	suggestions suggestion.Repository
	catalog     catalog.Repository
	publisher   outbox.Publisher
	logger      *logrus.Logger
	inTx        func(ctx context.Context, fn func(context.Context) error) error
}

func NewModerationService(
	suggestions suggestion.Repository,
	catalogRepo catalog.Repository,
	publisher outbox.Publisher,
	logger *logrus.Logger,
) *ModerationService {
	return &ModerationService{
		suggestions: suggestions,
		catalog:     catalogRepo,
		publisher:   publisher,
		logger:      logger,
		inTx:        composables.InTx,
	}
}

func (s *ModerationService) ListPending(ctx context.Context) (PendingSuggestions, error) {
	types, err := s.suggestions.ListPending(ctx, suggestion.KindCatalogType)
	if err != nil {
		return PendingSuggestions{}, serrors.Store(err)
	}
	fields, err := s.suggestions.ListPending(ctx, suggestion.KindCatalogField)
	if err != nil {
		return PendingSuggestions{}, serrors.Store(err)
	}
	return PendingSuggestions{CatalogTypes: types, CatalogFields: fields}, nil
}

func (s *ModerationService) Submit(ctx context.Context, submitterID uuid.UUID, dto *suggestion.SubmitDTO) (suggestion.Suggestion, error) {
	if verrs, ok := dto.Ok(); !ok {
		return suggestion.Suggestion{}, verrs
	}
	created, err := s.suggestions.Create(ctx, dto.ToEntity(submitterID))
	s.record("submit", err)
	if err != nil {
		return suggestion.Suggestion{}, serrors.Store(err)
	}
	s.log(ctx, created).Info("suggestion submitted")
	return created, nil
}

// Approve materializes the catalog entity and resolves the suggestion in one
// transaction. The catalog row is keyed by the suggestion id, so retrying an
// approval that failed after materialization reuses the existing row.
func (s *ModerationService) Approve(ctx context.Context, moderatorID uuid.UUID, kind suggestion.Kind, id uuid.UUID, adminMessage *string) (suggestion.Suggestion, error) {
	var (
		resolved     suggestion.Suggestion
		materialized bool
		committing   bool
	)
	err := s.inTx(ctx, func(txCtx context.Context) error {
		current, err := s.pending(txCtx, kind, id)
		if err != nil {
			return err
		}

		entityID, err := s.materialize(txCtx, current)
		if err != nil {
			return err
		}
		materialized = entityID != uuid.Nil

		resolved, err = s.suggestions.Resolve(txCtx, kind, id, suggestion.Resolution{
			Status:       suggestion.StatusApproved,
			AdminMessage: messageOr(adminMessage, suggestion.DefaultApprovedMessage),
			ResolvedBy:   moderatorID,
		})
		if err != nil {
			return err
		}
		if err := s.enqueue(txCtx, moderatorID, resolved, entityID); err != nil {
			return err
		}
		committing = true
		return nil
	})
	if err != nil {
		err = s.classify(ctx, kind, id, materialized && committing, err)
		s.record("approve", err)
		return suggestion.Suggestion{}, err
	}

	s.record("approve", nil)
	s.log(ctx, resolved).WithField("materialized", materialized).Info("suggestion approved")
	return resolved, nil
}

func (s *ModerationService) Reject(ctx context.Context, moderatorID uuid.UUID, kind suggestion.Kind, id uuid.UUID, adminMessage *string) (suggestion.Suggestion, error) {
	var resolved suggestion.Suggestion
	err := s.inTx(ctx, func(txCtx context.Context) error {
		if _, err := s.pending(txCtx, kind, id); err != nil {
			return err
		}
		var err error
		resolved, err = s.suggestions.Resolve(txCtx, kind, id, suggestion.Resolution{
			Status:       suggestion.StatusRejected,
			AdminMessage: messageOr(adminMessage, suggestion.DefaultRejectedMessage),
			ResolvedBy:   moderatorID,
		})
		if err != nil {
			return err
		}
		return s.enqueue(txCtx, moderatorID, resolved, uuid.Nil)
	})
	if err != nil {
		err = s.classify(ctx, kind, id, false, err)
		s.record("reject", err)
		return suggestion.Suggestion{}, err
	}

	s.record("reject", nil)
	s.log(ctx, resolved).Info("suggestion rejected")
	return resolved, nil
}

// Reconcile approves pending suggestions whose catalog entity already exists
// without creating it again. Such rows are left behind when materialization
// committed but resolution did not.
func (s *ModerationService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	for _, kind := range []suggestion.Kind{suggestion.KindCatalogType, suggestion.KindCatalogField} {
		stale, err := s.suggestions.ListPendingMaterialized(ctx, kind)
		if err != nil {
			return report, serrors.Store(err)
		}
		for _, sg := range stale {
			report.Scanned++
			err := s.inTx(ctx, func(txCtx context.Context) error {
				entry, err := s.existingEntry(txCtx, sg)
				if err != nil {
					return err
				}
				resolved, err := s.suggestions.Resolve(txCtx, kind, sg.ID(), suggestion.Resolution{
					Status:       suggestion.StatusApproved,
					AdminMessage: suggestion.DefaultApprovedMessage,
				})
				if err != nil {
					return err
				}
				return s.enqueue(txCtx, uuid.Nil, resolved, entry.ID)
			})
			switch {
			case errors.Is(err, serrors.ErrInvalidStateTransition):
				report.Skipped++
			case err != nil:
				s.record("reconcile", err)
				return report, serrors.Store(err)
			default:
				report.Resolved++
				s.record("reconcile", nil)
				s.log(ctx, sg).Info("reconciled materialized suggestion")
			}
		}
	}
	return report, nil
}

func (s *ModerationService) pending(ctx context.Context, kind suggestion.Kind, id uuid.UUID) (suggestion.Suggestion, error) {
	current, err := s.suggestions.GetByID(ctx, kind, id)
	if err != nil {
		return suggestion.Suggestion{}, err
	}
	if !current.IsPending() {
		return suggestion.Suggestion{}, fmt.Errorf("%w: suggestion %s is %s", serrors.ErrInvalidStateTransition, id, current.Status())
	}
	return current, nil
}

// materialize returns uuid.Nil when the suggestion has nothing to create.
func (s *ModerationService) materialize(ctx context.Context, sg suggestion.Suggestion) (uuid.UUID, error) {
	if !sg.Materializes() {
		return uuid.Nil, nil
	}

	var (
		entry   catalog.Entry
		created bool
		err     error
	)
	switch sg.Kind() {
	case suggestion.KindCatalogType:
		p := sg.TypePayload()
		entry, created, err = s.catalog.CreateType(ctx, catalog.Entry{
			Name:               p.Name,
			Description:        p.Description,
			SourceSuggestionID: sg.ID(),
		})
	case suggestion.KindCatalogField:
		p := sg.FieldPayload()
		entry, created, err = s.catalog.CreateEnvironment(ctx, catalog.Entry{
			Name:               p.SuggestedValue,
			Description:        p.Description,
			SourceSuggestionID: sg.ID(),
		})
	}
	if err != nil {
		return uuid.Nil, err
	}
	if !created {
		s.log(ctx, sg).WithField("entity_id", entry.ID).Warn("catalog entity already materialized, reusing it")
	}
	return entry.ID, nil
}

func (s *ModerationService) existingEntry(ctx context.Context, sg suggestion.Suggestion) (catalog.Entry, error) {
	if sg.Kind() == suggestion.KindCatalogType {
		return s.catalog.GetTypeBySuggestion(ctx, sg.ID())
	}
	return s.catalog.GetEnvironmentBySuggestion(ctx, sg.ID())
}

func (s *ModerationService) enqueue(ctx context.Context, actorID uuid.UUID, sg suggestion.Suggestion, entityID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	ev := events.SuggestionResolvedV1{
		SuggestionID: sg.ID(),
		Kind:         string(sg.Kind()),
		SubmitterID:  sg.SubmitterID(),
		Status:       string(sg.Status()),
		Title:        sg.Title(),
		AdminMessage: sg.AdminMessage(),
	}
	if actorID != uuid.Nil {
		ev.ResolvedBy = &actorID
	}
	if entityID != uuid.Nil {
		ev.EntityID = &entityID
	}
	msg, err := outbox.NewMessage(actorID, events.TopicSuggestionResolvedV1, ev)
	if err != nil {
		return err
	}
	_, err = s.publisher.Enqueue(ctx, tx, msg)
	return err
}

// classify maps a failed resolution onto the error taxonomy. Failures inside
// the transaction roll the catalog row back and are safe to retry. A failed
// commit after materialization leaves the outcome unknown: the caller should
// re-read the suggestion (or run reconcile) before retrying.
func (s *ModerationService) classify(ctx context.Context, kind suggestion.Kind, id uuid.UUID, commitUnknown bool, err error) error {
	log := composables.TryUseLogger(ctx, s.logger).WithFields(logrus.Fields{
		"suggestion_id": id,
		"kind":          kind,
	})
	if commitUnknown && !serrors.IsWorkflow(err) {
		log.WithError(err).WithField("partial_failure", true).Error("suggestion approval commit failed after materialization")
		return fmt.Errorf("%w: approval commit outcome unknown, re-read the suggestion before retrying: %w", serrors.ErrPartialFailure, err)
	}
	err = serrors.Store(err)
	if errors.Is(err, serrors.ErrTransientStore) {
		log.WithError(err).Error("suggestion resolution failed")
	}
	return err
}

func (s *ModerationService) record(operation string, err error) {
	result := "ok"
	if err != nil {
		if result = serrors.Code(serrors.Store(err)); result == "" {
			result = "INTERNAL"
		}
	}
	metrics.Transition(engine, operation, result)
}

func (s *ModerationService) log(ctx context.Context, sg suggestion.Suggestion) *logrus.Entry {
	return composables.TryUseLogger(ctx, s.logger).WithFields(logrus.Fields{
		"suggestion_id": sg.ID(),
		"kind":          sg.Kind(),
		"status":        sg.Status(),
	})
}

func messageOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
