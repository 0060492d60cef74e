package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"artiq/cli/internal/actions"
	"artiq/cli/internal/clock"
	"artiq/cli/internal/db"
	"artiq/cli/internal/gateway"
	"artiq/cli/internal/global"
	"artiq/cli/internal/historydb"
	"artiq/cli/internal/lifecycle"
	"artiq/cli/internal/plan"
	"artiq/cli/internal/scheduler"
	"artiq/cli/internal/snapshot"
)

var drainPollInterval = 500 * time.Millisecond

var errPlanDrained = errors.New("plan drained")

// Runtime holds the collaborators every session of one process shares.
type Runtime struct {
	opts      StartOptions
	logger    *slog.Logger
	dbPath    string
	closeDB   func() error
	history   *historydb.Store
	accounts  *global.AccountStore
	client    *gateway.Client
	catalog   *gateway.Catalog
	snapshots *snapshot.Cache
	clock     *clock.Reconciler
}

func NewRuntime(opts StartOptions) (*Runtime, error) {
	configDir := strings.TrimSpace(opts.ConfigDir)
	if configDir == "" {
		return nil, fmt.Errorf("config dir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbPath := strings.TrimSpace(opts.DBPath)
	if dbPath == "" {
		dbPath = global.DefaultDBPath(configDir)
	}
	gdb, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", dbPath, err)
	}
	history, err := historydb.NewStore(gdb)
	if err != nil {
		_ = db.Close(gdb)
		return nil, err
	}

	accounts := global.NewAccountStore(configDir)
	token := strings.TrimSpace(opts.APIToken)
	if f, err := accounts.Load(); err != nil {
		logger.Warn("accounts file unreadable", "path", accounts.Path(), "err", err)
	} else if resolved, err := global.ResolveToken(token, opts.Account, f); err == nil {
		token = resolved
	}
	if token == "" {
		logger.Warn("no API token configured; actions will be rejected", "accounts", accounts.Path())
	}

	client := gateway.NewClient(gateway.Options{BaseURL: opts.APIBaseURL, Token: token, Timeout: opts.HTTPTimeout})
	return &Runtime{
		opts:      opts,
		logger:    logger,
		dbPath:    dbPath,
		closeDB:   func() error { return db.Close(gdb) },
		history:   history,
		accounts:  accounts,
		client:    client,
		catalog:   gateway.NewCatalog(client),
		snapshots: snapshot.NewCache(client),
		clock:     clock.NewReconciler(client, logger.With("module", "clock")),
	}, nil
}

// Factory builds schedulers wired to the shared gateway, cache, clock and history.
func (rt *Runtime) Factory(emit scheduler.EventEmitter) scheduler.Factory {
	return func(character string) (*scheduler.Scheduler, error) {
		return scheduler.New(scheduler.Options{
			Character: character,
			Gateway:   rt.client,
			Snapshots: rt.snapshots,
			Clock:     rt.clock,
			Logger:    rt.logger,
			Recorder:  rt.history,
			Emit:      emit,
		})
	}
}

// WatchAccounts swaps the gateway token whenever the accounts file changes. An
// explicit token pins the client and disables reloading.
func (rt *Runtime) WatchAccounts(ctx context.Context) error {
	if strings.TrimSpace(rt.opts.APIToken) != "" {
		<-ctx.Done()
		return nil
	}
	return rt.accounts.Watch(ctx, func(f global.AccountsFile, err error) {
		if err != nil {
			rt.logger.Warn("reload accounts failed", "err", err)
			return
		}
		token, err := global.ResolveToken("", rt.opts.Account, f)
		if err != nil {
			rt.logger.Warn("resolve account token failed", "err", err)
			return
		}
		rt.client.SetToken(token)
		rt.logger.Info("api token reloaded", "account", rt.opts.Account)
	})
}

func (rt *Runtime) Close() error {
	if rt == nil || rt.closeDB == nil {
		return nil
	}
	return rt.closeDB()
}

// RunPlan runs one character headless. It returns once the queue drains, or
// when ctx ends if any command repeats.
func (rt *Runtime) RunPlan(ctx context.Context, p plan.Plan) error {
	logger := rt.logger.With("character", p.Character)
	if err := rt.clock.Sync(ctx); err != nil {
		logger.Warn("initial clock sync failed", "err", err)
	}
	if err := rt.catalog.Prefetch(ctx, catalogCodes(p)); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	cmds, err := p.Build(ctx, rt.catalog)
	if err != nil {
		return err
	}

	sched, err := rt.Factory(nil)(p.Character)
	if err != nil {
		return err
	}
	if err := sched.Prime(ctx); err != nil {
		return fmt.Errorf("load character %s: %w", p.Character, err)
	}
	for _, cmd := range cmds {
		if err := sched.Enqueue(ctx, cmd, nil); err != nil {
			return err
		}
	}
	logger.Info("plan queued", "commands", len(cmds), "repeats", p.Repeats())

	mgr := lifecycle.NewManager()
	mgr.AddRun("scheduler", func(ctx context.Context) error {
		return sched.Run(ctx, rt.opts.TickInterval)
	})
	mgr.AddRun("clock", func(ctx context.Context) error {
		return rt.clock.Run(ctx, clock.DefaultSyncInterval)
	})
	mgr.AddRun("accounts-watch", rt.WatchAccounts)
	if !p.Repeats() {
		mgr.AddRun("drain", func(ctx context.Context) error {
			return waitDrained(ctx, sched)
		})
	}
	err = mgr.StartAndWait(ctx)
	if errors.Is(err, errPlanDrained) {
		logger.Info("plan drained")
		return nil
	}
	return err
}

func waitDrained(ctx context.Context, sched *scheduler.Scheduler) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if sched.Idle() {
				return errPlanDrained
			}
		}
	}
}

// catalogCodes lists the items whose recipes or effects the plan's strategies read.
func catalogCodes(p plan.Plan) []string {
	var codes []string
	for _, spec := range p.Commands {
		switch spec.Kind {
		case actions.KindSmartCraft, actions.KindSmartConsume:
			if spec.Code != "" {
				codes = append(codes, spec.Code)
			}
		}
	}
	return codes
}
