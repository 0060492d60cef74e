package application

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestStartApplication_RequiresConfigDir(t *testing.T) {
	if _, err := StartApplication(context.Background(), StartOptions{}); err == nil {
		t.Fatal("expected error without config dir")
	}
}

func TestStartApplication_ServesSessionsAndShutsDown(t *testing.T) {
	game, rests := newFakeGame(t)
	opts := testOptions(t, game.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := StartApplication(ctx, opts)
	if err != nil {
		t.Fatalf("start application failed: %v", err)
	}
	if app.DBPath() != opts.DBPath {
		t.Fatalf("expected db path %q, got %q", opts.DBPath, app.DBPath())
	}

	runDone := make(chan error, 1)
	go func() {
		runDone <- app.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-runDone:
		case <-time.After(4 * time.Second):
			t.Error("app run goroutine did not exit")
		}
	})

	baseURL := app.LocalAPIBaseURL()
	waitHTTPReady(t, baseURL+"/healthz", 5*time.Second)

	postJSON(t, baseURL+"/api/v1/sessions", map[string]any{"character": "alice"})
	postJSON(t, baseURL+"/api/v1/sessions/alice/queue", map[string]any{"kind": "rest"})

	deadline := time.Now().Add(8 * time.Second)
	for rests.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if rests.Load() == 0 {
		t.Fatal("expected the queued rest to reach the game server")
	}

	var history struct {
		OK   bool `json:"ok"`
		Data []struct {
			Label   string `json:"label"`
			Outcome string `json:"outcome"`
		} `json:"data"`
	}
	deadline = time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		getJSON(t, baseURL+"/api/v1/history?character=alice", &history)
		if len(history.Data) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(history.Data) != 1 || history.Data[0].Label != "Rest" || history.Data[0].Outcome != "done" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func waitHTTPReady(t *testing.T, url string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("http endpoint not ready: %s", url)
}

func postJSON(t *testing.T, url string, body any) {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: expected 200, got %d", url, resp.StatusCode)
	}
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s failed: %v", url, err)
	}
}
