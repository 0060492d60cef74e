// Package clock tracks the skew between the local wall clock and the game server.
package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultSyncInterval = 30 * time.Second

// Probe returns the server's current wall-clock time.
type Probe interface {
	ServerTime(ctx context.Context) (time.Time, error)
}

// Reconciler holds offset = remoteNow - localNow. A failed probe keeps the last known offset.
type Reconciler struct {
	probe  Probe
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	offset   time.Duration
	synced   bool
	syncedAt time.Time
}

func NewReconciler(probe Probe, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{probe: probe, now: time.Now, logger: logger}
}

func (r *Reconciler) Offset() time.Duration {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.offset
}

// RemoteNow converts a local instant into the server's timeline.
func (r *Reconciler) RemoteNow(local time.Time) time.Time {
	return local.Add(r.Offset())
}

// Synced reports whether at least one probe succeeded, and when the latest did.
func (r *Reconciler) Synced() (bool, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.synced, r.syncedAt
}

// Sync probes the server once. The local reference is the midpoint of the round trip.
func (r *Reconciler) Sync(ctx context.Context) error {
	if r.probe == nil {
		return nil
	}
	sent := r.now()
	serverTime, err := r.probe.ServerTime(ctx)
	if err != nil {
		r.logger.Warn("server time probe failed, keeping last offset", "err", err, "offset", r.Offset().String())
		return err
	}
	received := r.now()
	local := sent.Add(received.Sub(sent) / 2)
	offset := serverTime.Sub(local)

	r.mu.Lock()
	r.offset = offset
	r.synced = true
	r.syncedAt = received
	r.mu.Unlock()
	r.logger.Debug("server clock synced", "offset", offset.String())
	return nil
}

// Run syncs immediately and then every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	_ = r.Sync(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = r.Sync(ctx)
		}
	}
}

// Fixed is a constant offset, used when no probe is available.
type Fixed time.Duration

func (f Fixed) RemoteNow(local time.Time) time.Time {
	return local.Add(time.Duration(f))
}
