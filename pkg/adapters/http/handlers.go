package http

import (
	"net/http"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/runner"
)

// IntentHeader carries the matched intent of a stateless chat answer.
const IntentHeader = "X-Vaultguard-Intent"

// alertRequest mirrors the AlertRequest schema; both fields are required there.
type alertRequest struct {
	RiskScore float64 `json:"riskScore"`
	LTV       float64 `json:"ltv"`
}

// resolveAction handles POST /v1/actions.
func (s *Server) resolveAction(w http.ResponseWriter, r *http.Request) {
	var req engine.ActionRequest
	if err := s.decode(w, r, "ActionRequest", &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	clean, err := runner.SanitizeMessage(req.Action)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req.Action = clean

	result, err := s.manager.Resolver().Decide(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// classifyIntent handles POST /v1/chat and its dashboard alias.
func (s *Server) classifyIntent(w http.ResponseWriter, r *http.Request) {
	var req engine.ChatRequest
	if err := s.decode(w, r, "ChatRequest", &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	clean, err := runner.SanitizeMessage(req.UserMessage)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req.UserMessage = clean
	if req.Status == "" {
		req.Status = domain.AgentIdle
	}

	turn, intent, err := s.manager.Classifier().Decide(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set(IntentHeader, intent)
	writeJSON(w, http.StatusOK, turn)
}

// checkAlert handles POST /v1/alerts.
func (s *Server) checkAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := s.decode(w, r, "AlertRequest", &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	alert, triggered, err := s.manager.Monitor().Check(r.Context(), req.RiskScore, req.LTV)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !triggered {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}
