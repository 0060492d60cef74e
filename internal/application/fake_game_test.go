package application

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newFakeGame serves the handful of game endpoints a session touches: status,
// one character and the rest action.
func newFakeGame(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var rests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		// cooldowns are reported as already expired so tests only wait on tick cadences
		expired := time.Now().Add(-10 * time.Second).UTC().Format(time.RFC3339Nano)
		switch r.URL.Path {
		case "/":
			_, _ = fmt.Fprintf(w, `{"data":{"status":"online","server_time":%q}}`, now)
		case "/characters/alice":
			_, _ = fmt.Fprintf(w, `{"data":{"name":"alice","hp":50,"max_hp":100,"cooldown_expiration":%q,"inventory_max_items":100}}`, expired)
		case "/my/alice/action/rest":
			rests.Add(1)
			_, _ = fmt.Fprintf(w, `{"data":{
				"cooldown":{"total_seconds":0,"remaining_seconds":0,"started_at":%q,"expiration":%q,"reason":"rest"},
				"hp_restored":50,
				"character":{"name":"alice","hp":100,"max_hp":100,"inventory_max_items":100}
			}}`, expired, expired)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not found."}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &rests
}
