package localapi

import (
	"net/http"
	"strings"
)

func (s *Server) registerCharacterRoutes() {
	s.mux.HandleFunc("/api/v1/characters/", s.handleCharacter)
	s.mux.HandleFunc("/api/v1/items/", s.handleItem)
}

// handleCharacter returns the cached snapshot; ?refresh=1 re-fetches it first.
func (s *Server) handleCharacter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if s.deps.Characters == nil {
		respondError(w, http.StatusServiceUnavailable, "CHARACTERS_UNAVAILABLE", "character cache is unavailable")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/characters/")
	if name == "" || strings.Contains(name, "/") {
		respondError(w, http.StatusBadRequest, "INVALID_CHARACTER", "invalid character")
		return
	}
	load := s.deps.Characters.Load
	if r.URL.Query().Get("refresh") == "1" {
		load = s.deps.Characters.Refresh
	}
	character, err := load(r.Context(), name)
	if err != nil {
		respondRemoteError(w, "CHARACTER_LOAD_FAILED", err)
		return
	}
	respondOK(w, character)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if s.deps.Catalog == nil {
		respondError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "item catalog is unavailable")
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/api/v1/items/")
	if code == "" || strings.Contains(code, "/") {
		respondError(w, http.StatusBadRequest, "INVALID_ITEM", "invalid item code")
		return
	}
	item, err := s.deps.Catalog.Item(r.Context(), code)
	if err != nil {
		respondRemoteError(w, "ITEM_LOAD_FAILED", err)
		return
	}
	respondOK(w, item)
}
