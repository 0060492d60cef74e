package application

import (
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"artiq/cli/internal/logging"
)

func pickFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen random port failed: %v", err)
	}
	defer func() { _ = ln.Close() }()
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatal("unexpected addr type")
	}
	return addr.Port
}

func testOptions(t *testing.T, apiBaseURL string) StartOptions {
	t.Helper()
	dir := t.TempDir()
	return StartOptions{
		ConfigDir:    dir,
		DBPath:       filepath.Join(dir, "artiq.db"),
		LocalHost:    "127.0.0.1",
		LocalPort:    pickFreePort(t),
		APIBaseURL:   apiBaseURL,
		APIToken:     "tok",
		HTTPTimeout:  2 * time.Second,
		TickInterval: 10 * time.Millisecond,
		Logger:       quietLogger(),
	}
}

func quietLogger() *slog.Logger {
	return logging.Discard()
}
