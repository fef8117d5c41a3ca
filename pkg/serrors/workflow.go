package serrors

import (
	"context"
	"errors"
	"fmt"
)

// Workflow error taxonomy shared by the moderation, access, fulfillment and
// notification engines.
var (
	ErrInvalidStateTransition = NewError("INVALID_STATE_TRANSITION", "entity is not in a state that allows this transition", "Errors.InvalidStateTransition")
	ErrNotFound               = NewError("NOT_FOUND", "entity not found", "Errors.NotFound")
	ErrDuplicateRequest       = NewError("DUPLICATE_REQUEST", "an active request already exists", "Errors.DuplicateRequest")
	ErrTransientStore         = NewError("TRANSIENT_STORE_FAILURE", "store temporarily unavailable", "Errors.TransientStoreFailure")
	ErrPartialFailure         = NewError("PARTIAL_FAILURE", "operation partially applied", "Errors.PartialFailure")
)

var taxonomy = []error{
	ErrInvalidStateTransition,
	ErrNotFound,
	ErrDuplicateRequest,
	ErrTransientStore,
	ErrPartialFailure,
}

// IsWorkflow reports whether err already carries a taxonomy error.
func IsWorkflow(err error) bool {
	for _, t := range taxonomy {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// Store classifies an error returned by the persistent store.
// Taxonomy and validation errors pass through unchanged, everything else
// (including context expiry) becomes ErrTransientStore.
func Store(err error) error {
	if err == nil {
		return nil
	}
	if IsWorkflow(err) {
		return err
	}
	var verr ValidationErrors
	if errors.As(err, &verr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: deadline exceeded: %w", ErrTransientStore, err)
	}
	return fmt.Errorf("%w: %w", ErrTransientStore, err)
}

// Code returns the code of the outermost BaseError in the chain, or "".
func Code(err error) string {
	var be *BaseError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
