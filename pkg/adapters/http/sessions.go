package http

import (
	"net/http"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/runner"
	"github.com/go-chi/chi/v5"
)

type startRequest struct {
	ID string `json:"id"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// AutoActionResponse describes the countdown of a session.
type AutoActionResponse struct {
	Pending     bool   `json:"pending"`
	Action      string `json:"action,omitempty"`
	RemainingMS int64  `json:"remainingMs,omitempty"`
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.manager.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := s.decode(w, r, "StartSessionRequest", &req, true); err != nil {
		s.fail(w, r, err)
		return
	}
	session, err := s.manager.Start(r.Context(), req.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Load(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dispatchAction refuses with 409 instead of queueing behind a running action.
func (s *Server) dispatchAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := s.decode(w, r, "SessionActionRequest", &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	action, err := runner.SanitizeMessage(req.Action)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.manager.TryDispatch(r.Context(), sessionID(r), action, domain.OriginUser)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) sessionChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decode(w, r, "SessionChatRequest", &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	message, err := runner.SanitizeMessage(req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	reply, err := s.manager.Chat(r.Context(), sessionID(r), message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) sessionCheckAlerts(w http.ResponseWriter, r *http.Request) {
	alert, err := s.manager.CheckAlerts(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if alert == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) getAutoAction(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if _, err := s.manager.Load(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	action, remaining, ok := s.manager.PendingAutoAction(id)
	writeJSON(w, http.StatusOK, AutoActionResponse{
		Pending:     ok,
		Action:      action,
		RemainingMS: remaining.Milliseconds(),
	})
}

func (s *Server) cancelAutoAction(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.CancelAutoAction(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Reset(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
