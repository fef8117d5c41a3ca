package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/archmarket/platform/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// StatusFor maps the workflow error taxonomy onto HTTP statuses.
func StatusFor(err error) int {
	var verr serrors.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, serrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, serrors.ErrInvalidStateTransition),
		errors.Is(err, serrors.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, serrors.ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError renders err with its taxonomy code and message. The
// wrapped cause stays server side; callers log it.
func WriteServiceError(w http.ResponseWriter, requestID string, err error) error {
	status := StatusFor(err)
	env := &ErrorEnvelope{
		Code:    "INTERNAL",
		Message: "internal server error",
		Meta:    map[string]string{"request_id": requestID},
	}
	var verr serrors.ValidationErrors
	if errors.As(err, &verr) {
		env.Code = "VALIDATION_FAILED"
		env.Message = "validation failed"
		env.Fields = make(map[string]string, len(verr))
		for field, fe := range verr {
			env.Fields[field] = fe.Message
		}
	} else {
		env.Code, env.Message = Public(err)
	}
	return WriteJSON(w, status, env)
}

// Public returns the taxonomy code and message of err, safe to show a client.
// Anything outside the taxonomy is INTERNAL.
func Public(err error) (code, message string) {
	var be *serrors.BaseError
	if serrors.IsWorkflow(err) && errors.As(err, &be) {
		return be.Code, be.Message
	}
	return "INTERNAL", "internal server error"
}
