package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/runner"
)

// Error codes of the JSON error body.
const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeInFlight       = "action_in_flight"
	codeNoPending      = "no_pending_action"
	codeRateLimited    = "rate_limited"
	codeInternal       = "internal"
)

// ErrorResponse is the body of every non-2xx answer.
// It is unrelated to ActionResult severities: an "error" result is still a 200.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Error: code, Detail: detail})
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, runner.ErrEmptyInput),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrActionInFlight):
		writeError(w, http.StatusConflict, codeInFlight, err.Error())
	case errors.Is(err, domain.ErrNoPendingAction):
		writeError(w, http.StatusConflict, codeNoPending, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client went away; nobody reads this.
		s.logger.Debug("Request cancelled", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusServiceUnavailable, codeInternal, err.Error())
	default:
		s.logger.Error("Request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
