package localapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"artiq/cli/internal/actions"
	"artiq/cli/internal/game"
	"artiq/cli/internal/gateway"
	"artiq/cli/internal/historydb"
	"artiq/cli/internal/scheduler"
)

type Sessions interface {
	Open(ctx context.Context, character string) (*scheduler.Scheduler, error)
	Get(character string) (*scheduler.Scheduler, error)
	List() []string
	Close(character string) error
}

type Characters interface {
	Load(ctx context.Context, name string) (game.Character, error)
	Refresh(ctx context.Context, name string) (game.Character, error)
}

type History interface {
	List(ctx context.Context, character string, limit int) ([]historydb.Entry, error)
	Clear(ctx context.Context, character string) error
}

type ServerClock interface {
	Offset() time.Duration
	Synced() (bool, time.Time)
}

type Deps struct {
	Sessions   Sessions
	Characters Characters
	Catalog    actions.Catalog
	History    History
	Clock      ServerClock
}

type Server struct {
	deps Deps
	mux  *http.ServeMux
	hub  *WSHub
}

func NewServer(deps Deps) *Server {
	s := &Server{deps: deps, mux: http.NewServeMux(), hub: NewWSHub()}
	s.registerSessionRoutes()
	s.registerCharacterRoutes()
	s.registerHistoryRoutes()
	s.registerSystemRoutes()
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/ws", s.hub.HandleWS)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub is the event stream that schedulers emit into.
func (s *Server) Hub() *WSHub {
	return s.hub
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": data})
}

func respondError(w http.ResponseWriter, code int, errCode string, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": map[string]any{"code": errCode, "message": msg}})
}

// respondRemoteError maps a failed game server call onto the local envelope.
func respondRemoteError(w http.ResponseWriter, errCode string, err error) {
	var remote *gateway.Error
	if errors.As(err, &remote) && remote.Status == http.StatusNotFound {
		respondError(w, http.StatusNotFound, errCode, gateway.Message(err))
		return
	}
	respondError(w, http.StatusBadGateway, errCode, gateway.Message(err))
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
