package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"artiq/cli/internal/clock"
	"artiq/cli/internal/lifecycle"
	"artiq/cli/internal/localapi"
	"artiq/cli/internal/protocol"
	"artiq/cli/internal/scheduler"
)

const defaultLocalPort = 4680

// Application is the serve-mode runtime: the local API in front of one
// scheduler registry.
type Application struct {
	localAPIBaseURL string
	runtime         *Runtime
	registry        *scheduler.Registry
	httpServer      *http.Server
	mgr             *lifecycle.Manager
}

func StartApplication(_ context.Context, opts StartOptions) (*Application, error) {
	rt, err := NewRuntime(opts)
	if err != nil {
		return nil, err
	}

	var srv *localapi.Server
	emit := func(ctx context.Context, msg protocol.Message) error {
		return srv.Hub().Emit(ctx, msg)
	}
	registry := scheduler.NewRegistry(rt.Factory(emit), opts.TickInterval)
	srv = localapi.NewServer(localapi.Deps{
		Sessions:   registry,
		Characters: rt.snapshots,
		Catalog:    rt.catalog,
		History:    rt.history,
		Clock:      rt.clock,
	})

	host := strings.TrimSpace(opts.LocalHost)
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.LocalPort
	if port <= 0 {
		port = defaultLocalPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mgr := lifecycle.NewManager()
	mgr.AddRun("http-server", func(runCtx context.Context) error {
		go func() {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
		rt.logger.Info("local api listening", "addr", addr)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	mgr.AddRun("clock", func(runCtx context.Context) error {
		return rt.clock.Run(runCtx, clock.DefaultSyncInterval)
	})
	mgr.AddRun("accounts-watch", rt.WatchAccounts)
	mgr.AddShutdown("close-sessions", func(context.Context) error {
		registry.CloseAll()
		return nil
	})
	mgr.AddShutdown("close-history-db", func(context.Context) error {
		return rt.Close()
	})

	return &Application{
		localAPIBaseURL: fmt.Sprintf("http://%s", addr),
		runtime:         rt,
		registry:        registry,
		httpServer:      httpServer,
		mgr:             mgr,
	}, nil
}

func (a *Application) LocalAPIBaseURL() string {
	if a == nil {
		return ""
	}
	return a.localAPIBaseURL
}

func (a *Application) DBPath() string {
	if a == nil || a.runtime == nil {
		return ""
	}
	return a.runtime.dbPath
}

// Run serves until ctx ends or a job fails, then closes every session and the db.
func (a *Application) Run(ctx context.Context) error {
	if a == nil || a.mgr == nil {
		return nil
	}
	return a.mgr.StartAndWait(ctx)
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil || a.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
