package localapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"artiq/cli/internal/actions"
	"artiq/cli/internal/protocol"
	"artiq/cli/internal/scheduler"
)

func (s *Server) registerSessionRoutes() {
	s.mux.HandleFunc("/api/v1/sessions", s.handleSessions)
	s.mux.HandleFunc("/api/v1/sessions/", s.handleSessionActions)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		respondError(w, http.StatusServiceUnavailable, "SESSIONS_UNAVAILABLE", "sessions are unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		views := make([]scheduler.View, 0)
		for _, name := range s.deps.Sessions.List() {
			sched, err := s.deps.Sessions.Get(name)
			if err != nil {
				continue
			}
			views = append(views, sched.View())
		}
		respondOK(w, views)
	case http.MethodPost:
		var req struct {
			Character string `json:"character"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}
		name := strings.TrimSpace(req.Character)
		if name == "" {
			respondError(w, http.StatusBadRequest, "INVALID_CHARACTER", "character is required")
			return
		}
		sched, err := s.deps.Sessions.Open(r.Context(), name)
		if err != nil {
			respondRemoteError(w, "SESSION_OPEN_FAILED", err)
			return
		}
		view := sched.View()
		s.hub.Publish(protocol.OpSessionOpened, view)
		respondOK(w, view)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

// handleSessionActions serves /api/v1/sessions/{character}[/queue[/{index|id}]|/pause].
func (s *Server) handleSessionActions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		respondError(w, http.StatusServiceUnavailable, "SESSIONS_UNAVAILABLE", "sessions are unavailable")
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/"), "/")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		respondError(w, http.StatusBadRequest, "INVALID_CHARACTER", "invalid character")
		return
	}

	if len(parts) == 1 && r.Method == http.MethodDelete {
		if err := s.deps.Sessions.Close(name); err != nil {
			s.respondSessionError(w, err)
			return
		}
		s.hub.Publish(protocol.OpSessionClosed, map[string]any{"character": name})
		respondOK(w, map[string]any{"character": name})
		return
	}

	sched, err := s.deps.Sessions.Get(name)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		respondOK(w, sched.View())
	case len(parts) == 2 && parts[1] == "pause":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		status := sched.TogglePause(r.Context())
		respondOK(w, map[string]any{"status": status, "color": status.Color()})
	case len(parts) == 2 && parts[1] == "queue":
		s.handleQueue(w, r, sched)
	case len(parts) == 3 && parts[1] == "queue" && parts[2] != "":
		if r.Method != http.MethodDelete {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		s.handleDequeue(w, r, sched, parts[2])
	default:
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	}
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request, sched *scheduler.Scheduler) {
	switch r.Method {
	case http.MethodGet:
		respondOK(w, sched.View().Queue)
	case http.MethodPost:
		var spec actions.Spec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}
		cmd, err := actions.Build(r.Context(), spec, s.deps.Catalog)
		if err != nil {
			if errors.Is(err, actions.ErrInvalidSpec) {
				respondError(w, http.StatusBadRequest, "INVALID_COMMAND", err.Error())
				return
			}
			respondRemoteError(w, "COMMAND_BUILD_FAILED", err)
			return
		}
		if err := sched.Enqueue(r.Context(), cmd, spec.Index); err != nil {
			respondError(w, http.StatusBadRequest, "ENQUEUE_FAILED", err.Error())
			return
		}
		respondOK(w, map[string]any{"id": cmd.ID, "label": cmd.Label, "kind": cmd.Kind()})
	case http.MethodDelete:
		respondOK(w, map[string]any{"removed": sched.Clear(r.Context())})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

// handleDequeue removes by queue index when ref is numeric, by command id otherwise.
func (s *Server) handleDequeue(w http.ResponseWriter, r *http.Request, sched *scheduler.Scheduler, ref string) {
	var (
		cmd actions.Command
		ok  bool
	)
	if i, err := strconv.Atoi(ref); err == nil {
		cmd, ok = sched.Remove(r.Context(), i)
	} else {
		cmd, ok = sched.RemoveByID(r.Context(), ref)
	}
	if !ok {
		respondError(w, http.StatusNotFound, "COMMAND_NOT_FOUND", "no pending command at "+ref)
		return
	}
	respondOK(w, map[string]any{"id": cmd.ID, "label": cmd.Label})
}

func (s *Server) respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, scheduler.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "SESSION_FAILED", err.Error())
}
