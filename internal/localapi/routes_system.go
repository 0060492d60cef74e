package localapi

import "net/http"

func (s *Server) registerSystemRoutes() {
	s.mux.HandleFunc("/api/v1/system/clock", s.handleSystemClock)
}

func (s *Server) handleSystemClock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if s.deps.Clock == nil {
		respondOK(w, map[string]any{"synced": false, "offset_ms": 0})
		return
	}
	synced, at := s.deps.Clock.Synced()
	payload := map[string]any{
		"synced":    synced,
		"offset_ms": s.deps.Clock.Offset().Milliseconds(),
	}
	if synced {
		payload["synced_at"] = at
	}
	respondOK(w, payload)
}
