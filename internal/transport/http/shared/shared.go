// Package shared centralizes JSON envelopes and domain-error translation so
// every handler responds identically.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "clinica/pkg/domain-errors"
)

// WriteJSON writes a success payload.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps a coded domain error to an HTTP response. Only the
// user-safe message leaves the process; wrapped causes stay in the logs.
func WriteError(w http.ResponseWriter, err error) {
	status := statusOf(dErrors.CodeOf(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": dErrors.Message(err),
		"code":  string(dErrors.CodeOf(err)),
	})
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeRoleMismatch, dErrors.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case dErrors.CodeInactiveActor, dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeConflict, dErrors.CodeReferentialIntegrity:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeConnectionFailure, dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
