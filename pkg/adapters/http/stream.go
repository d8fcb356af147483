package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vaultguard/pkg/domain"
)

// KeepAlive is the interval of SSE comment frames on an idle stream.
var KeepAlive = 15 * time.Second

// subscribeEvents streams session events as Server-Sent Events.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if _, err := s.manager.Load(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternal, "streaming unsupported")
		return
	}

	keep := parseTypes(r.URL.Query().Get("types"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := s.manager.Subscribe(id)
	defer unsubscribe()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if keep != nil && !keep[ev.Type] {
				continue
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				s.logger.Error("Failed to encode event", "session_id", id, "type", ev.Type, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

// parseTypes returns nil when every event type is wanted.
func parseTypes(raw string) map[domain.EventType]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	keep := make(map[domain.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			keep[domain.EventType(t)] = true
		}
	}
	return keep
}
