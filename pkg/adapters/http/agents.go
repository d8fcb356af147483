package http

import (
	"net/http"
	"slices"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// listAgents handles GET /v1/agents.
func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"agents": engine.Agents()})
}

// evaluateAgent handles POST /v1/agents/{agent}.
func (s *Server) evaluateAgent(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")
	if !slices.Contains(engine.Agents(), agent) {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown agent "+agent)
		return
	}

	var req engine.AgentRequest
	if err := s.decode(w, r, "AgentRequest", &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	for _, field := range []*string{&req.Action, &req.Pool} {
		if *field == "" {
			continue
		}
		clean, err := runner.SanitizeMessage(*field)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		*field = clean
	}

	verdict, err := engine.EvaluateAgent(agent, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Debug("Agent evaluated", "agent", agent, "triggered", verdict.Triggered)
	writeJSON(w, http.StatusOK, verdict)
}
