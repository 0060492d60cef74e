package localapi

import (
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) registerHistoryRoutes() {
	s.mux.HandleFunc("/api/v1/history", s.handleHistory)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		respondError(w, http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "history store is unavailable")
		return
	}
	character := strings.TrimSpace(r.URL.Query().Get("character"))
	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := s.deps.History.List(r.Context(), character, limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "HISTORY_LIST_FAILED", err.Error())
			return
		}
		respondOK(w, entries)
	case http.MethodDelete:
		if err := s.deps.History.Clear(r.Context(), character); err != nil {
			respondError(w, http.StatusInternalServerError, "HISTORY_CLEAR_FAILED", err.Error())
			return
		}
		respondOK(w, map[string]any{"character": character})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}
