package localapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"artiq/cli/internal/actions"
	"artiq/cli/internal/game"
	"artiq/cli/internal/gateway"
	"artiq/cli/internal/historydb"
	"artiq/cli/internal/scheduler"
	"artiq/cli/internal/snapshot"
)

type fakeGateway struct{}

func (fakeGateway) Perform(context.Context, string, gateway.Request) (game.ActionResult, error) {
	return game.ActionResult{}, nil
}

type fakeFetcher struct{}

func (fakeFetcher) Character(_ context.Context, name string) (game.Character, error) {
	if name == "ghost" {
		return game.Character{}, &gateway.Error{Status: http.StatusNotFound, Code: 404, Message: "Character not found."}
	}
	return game.Character{Name: name, HP: 90, MaxHP: 100, X: 1, Y: 2}, nil
}

type fakeHistory struct {
	entries []historydb.Entry
	cleared string
}

func (f *fakeHistory) List(_ context.Context, character string, _ int) ([]historydb.Entry, error) {
	out := []historydb.Entry{}
	for _, e := range f.entries {
		if character == "" || e.Character == character {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHistory) Clear(_ context.Context, character string) error {
	f.cleared = character
	return nil
}

type fakeCatalog struct{}

func (fakeCatalog) Item(_ context.Context, code string) (game.Item, error) {
	if code == "iron_sword" {
		return game.Item{Code: code, Name: "Iron Sword", Craft: &game.Craft{Skill: "weaponcrafting", Items: []game.SimpleItem{{Code: "iron", Quantity: 6}}}}, nil
	}
	return game.Item{}, &gateway.Error{Status: http.StatusNotFound, Code: 404, Message: "Item not found."}
}

func (fakeCatalog) Workshop(context.Context, string) (game.MapTile, error) {
	return game.MapTile{X: 2, Y: 1}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *scheduler.Registry, *fakeHistory) {
	t.Helper()
	cache := snapshot.NewCache(fakeFetcher{})
	history := &fakeHistory{}
	var srv *Server
	reg := scheduler.NewRegistry(func(name string) (*scheduler.Scheduler, error) {
		return scheduler.New(scheduler.Options{
			Character: name,
			Gateway:   fakeGateway{},
			Snapshots: cache,
			Emit:      srv.Hub().Emit,
		})
	}, time.Hour)
	t.Cleanup(reg.CloseAll)
	srv = NewServer(Deps{Sessions: reg, Characters: cache, Catalog: fakeCatalog{}, History: history})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, reg, history
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, method, url string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func TestServer_Health(t *testing.T) {
	ts, _, _ := newTestServer(t)
	code, env := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	if code != http.StatusOK || !env.OK {
		t.Fatalf("unexpected health response: %d %+v", code, env)
	}
}

func TestServer_SessionQueueLifecycle(t *testing.T) {
	ts, _, _ := newTestServer(t)

	code, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", map[string]any{"character": "alice"})
	if code != http.StatusOK {
		t.Fatalf("open session: %d %+v", code, env)
	}

	code, env = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/alice/pause", nil)
	if code != http.StatusOK {
		t.Fatalf("pause: %d %+v", code, env)
	}
	var paused struct {
		Status string `json:"status"`
		Color  string `json:"color"`
	}
	_ = json.Unmarshal(env.Data, &paused)
	if paused.Status != "paused" || paused.Color != "secondary" {
		t.Fatalf("unexpected pause payload: %s", env.Data)
	}

	specs := []actions.Spec{
		{Kind: actions.KindMove, Pos: &game.Position{X: 4, Y: 7}},
		{Kind: actions.KindCraft, Code: "iron_sword", Quantity: 5, Requeue: true},
		{Kind: actions.KindSmartCraft, Code: "iron_sword", Quantity: 4},
	}
	for _, spec := range specs {
		code, env = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/alice/queue", spec)
		if code != http.StatusOK {
			t.Fatalf("enqueue %s: %d %+v", spec.Kind, code, env)
		}
	}
	front := 0
	code, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/alice/queue", actions.Spec{Kind: actions.KindRest, Index: &front})
	if code != http.StatusOK {
		t.Fatalf("enqueue rest at front: %d", code)
	}

	code, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/alice", nil)
	if code != http.StatusOK {
		t.Fatalf("get session: %d", code)
	}
	var view scheduler.View
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	want := []string{"Rest", "Move to 4,7", "Repeat Craft 5 x iron_sword", "Smart craft of 4 x Iron Sword @ 2,1"}
	if len(view.Queue) != len(want) {
		t.Fatalf("unexpected queue: %+v", view.Queue)
	}
	for i, label := range want {
		if view.Queue[i].Label != label {
			t.Fatalf("queue[%d]=%q want %q", i, view.Queue[i].Label, label)
		}
	}

	code, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/alice/queue/1", nil)
	if code != http.StatusOK {
		t.Fatalf("dequeue by index: %d", code)
	}
	code, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/alice/queue/"+view.Queue[0].ID, nil)
	if code != http.StatusOK {
		t.Fatalf("dequeue by id: %d", code)
	}
	code, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/alice/queue/9", nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for out of range dequeue, got %d", code)
	}

	code, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/alice/queue", nil)
	if code != http.StatusOK {
		t.Fatalf("get queue: %d", code)
	}
	var items []scheduler.QueueItem
	_ = json.Unmarshal(env.Data, &items)
	if len(items) != 2 || items[0].Label != "Repeat Craft 5 x iron_sword" {
		t.Fatalf("unexpected queue after dequeue: %+v", items)
	}

	code, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/alice", nil)
	if code != http.StatusOK {
		t.Fatalf("close session: %d", code)
	}
	code, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/alice", nil)
	if code != http.StatusNotFound || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Fatalf("expected SESSION_NOT_FOUND, got %d %+v", code, env)
	}
}

func TestServer_EnqueueRejectsInvalidSpec(t *testing.T) {
	ts, _, _ := newTestServer(t)
	if code, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", map[string]any{"character": "alice"}); code != http.StatusOK {
		t.Fatalf("open session: %d", code)
	}

	code, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/alice/queue", actions.Spec{Kind: actions.KindMove})
	if code != http.StatusBadRequest || env.Error.Code != "INVALID_COMMAND" {
		t.Fatalf("expected INVALID_COMMAND, got %d %+v", code, env)
	}

	code, env = doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/alice/queue", actions.Spec{Kind: actions.KindSmartCraft, Code: "unobtainium"})
	if code != http.StatusNotFound || env.Error.Code != "COMMAND_BUILD_FAILED" {
		t.Fatalf("expected COMMAND_BUILD_FAILED 404, got %d %+v", code, env)
	}
}

func TestServer_OpenUnknownCharacter(t *testing.T) {
	ts, reg, _ := newTestServer(t)
	code, env := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", map[string]any{"character": "ghost"})
	if code != http.StatusNotFound || env.Error.Message != "Character not found." {
		t.Fatalf("expected 404 from remote, got %d %+v", code, env)
	}
	if len(reg.List()) != 0 {
		t.Fatalf("failed open must not leave a session")
	}
}

func TestServer_CharacterAndHistory(t *testing.T) {
	ts, _, history := newTestServer(t)
	history.entries = []historydb.Entry{
		{Character: "alice", Label: "Fight", Outcome: historydb.OutcomeDone},
		{Character: "bob", Label: "Rest", Outcome: historydb.OutcomeFailed},
	}

	code, env := doJSON(t, http.MethodGet, ts.URL+"/api/v1/characters/alice?refresh=1", nil)
	if code != http.StatusOK {
		t.Fatalf("get character: %d", code)
	}
	var character game.Character
	_ = json.Unmarshal(env.Data, &character)
	if character.Name != "alice" || character.HP != 90 {
		t.Fatalf("unexpected character: %+v", character)
	}

	code, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/history?character=alice", nil)
	if code != http.StatusOK {
		t.Fatalf("get history: %d", code)
	}
	var entries []historydb.Entry
	_ = json.Unmarshal(env.Data, &entries)
	if len(entries) != 1 || entries[0].Label != "Fight" {
		t.Fatalf("unexpected history: %+v", entries)
	}

	code, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/history?character=bob", nil)
	if code != http.StatusOK || history.cleared != "bob" {
		t.Fatalf("clear history: %d cleared=%q", code, history.cleared)
	}

	code, env = doJSON(t, http.MethodGet, ts.URL+"/api/v1/items/iron_sword", nil)
	if code != http.StatusOK {
		t.Fatalf("get item: %d %+v", code, env)
	}
}

func TestServer_ClockWithoutReconciler(t *testing.T) {
	ts, _, _ := newTestServer(t)
	code, env := doJSON(t, http.MethodGet, ts.URL+"/api/v1/system/clock", nil)
	if code != http.StatusOK || string(env.Data) == "" {
		t.Fatalf("unexpected clock response: %d %s", code, env.Data)
	}
}
