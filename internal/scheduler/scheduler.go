// Package scheduler runs the single-flight, cooldown-aware command queue of one character.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"artiq/cli/internal/actions"
	"artiq/cli/internal/clock"
	"artiq/cli/internal/game"
	"artiq/cli/internal/gateway"
	"artiq/cli/internal/historydb"
	"artiq/cli/internal/protocol"
	"artiq/cli/internal/queue"
)

// Sub-check cadences. Each runs at most once per interval, in this order, on a tick.
const (
	CooldownCheckInterval = time.Second
	CountdownInterval     = 100 * time.Millisecond
	StalePollInterval     = 5 * time.Second
	DispatchInterval      = 2 * time.Second

	DefaultTickInterval = 100 * time.Millisecond
)

// Clock maps a local instant to the server's clock.
type Clock interface {
	RemoteNow(local time.Time) time.Time
}

type Snapshots interface {
	actions.Snapshots
	Set(character game.Character)
}

type Recorder interface {
	Record(ctx context.Context, entry historydb.Entry) error
}

type EventEmitter func(context.Context, protocol.Message) error

type Options struct {
	Character string
	Gateway   actions.Gateway
	Snapshots Snapshots
	Clock     Clock
	Logger    *slog.Logger
	Recorder  Recorder
	Emit      EventEmitter
	Now       func() time.Time
	// Launch runs a dispatched command or refresh; defaults to a new goroutine.
	Launch func(func())
}

type Scheduler struct {
	character string
	gateway   actions.Gateway
	snapshots Snapshots
	clock     Clock
	logger    *slog.Logger
	recorder  Recorder
	emit      EventEmitter
	now       func() time.Time
	launch    func(func())

	mu         sync.Mutex
	queue      *queue.Queue[actions.Command]
	status     Status
	expiration *time.Time
	remaining  *time.Duration
	running    *actions.Command
	lastAction *LastAction
	lastError  string
	refreshing bool

	lastCooldownCheck time.Time
	lastCountdown     time.Time
	lastStalePoll     time.Time
	lastDispatch      time.Time

	inflight sync.WaitGroup
}

func New(opts Options) (*Scheduler, error) {
	name := strings.TrimSpace(opts.Character)
	if name == "" {
		return nil, errors.New("character is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if opts.Snapshots == nil {
		return nil, errors.New("snapshot cache is required")
	}
	s := &Scheduler{
		character: name,
		gateway:   opts.Gateway,
		snapshots: opts.Snapshots,
		clock:     opts.Clock,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		emit:      opts.Emit,
		now:       opts.Now,
		launch:    opts.Launch,
		queue:     queue.New[actions.Command](),
		status:    StatusReady,
	}
	if s.clock == nil {
		s.clock = clock.Fixed(0)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("module", "scheduler", "character", name)
	if s.now == nil {
		s.now = time.Now
	}
	if s.launch == nil {
		s.launch = func(fn func()) { go fn() }
	}
	return s, nil
}

func (s *Scheduler) Character() string { return s.character }

// Prime loads the current snapshot so the first cooldown check sees the server state.
func (s *Scheduler) Prime(ctx context.Context) error {
	character, err := s.snapshots.Refresh(ctx, s.character)
	if err != nil {
		return fmt.Errorf("load character %s: %w", s.character, err)
	}
	s.mu.Lock()
	s.observeLocked(character.CooldownExpiration)
	s.mu.Unlock()
	return nil
}

// Enqueue appends cmd, or inserts it at *index when index is set.
func (s *Scheduler) Enqueue(ctx context.Context, cmd actions.Command, index *int) error {
	if cmd.Step == nil {
		return errors.New("command has no step")
	}
	s.mu.Lock()
	if index != nil {
		s.queue.Insert(cmd, *index)
	} else {
		s.queue.Push(cmd)
	}
	view := s.viewLocked()
	s.mu.Unlock()
	s.publish(ctx, view)
	return nil
}

// Remove cancels the pending command at index i. Out of range is a no-op.
func (s *Scheduler) Remove(ctx context.Context, i int) (actions.Command, bool) {
	s.mu.Lock()
	cmd, ok := s.queue.Remove(i)
	view := s.viewLocked()
	s.mu.Unlock()
	if ok {
		s.publish(ctx, view)
	}
	return cmd, ok
}

func (s *Scheduler) RemoveByID(ctx context.Context, id string) (actions.Command, bool) {
	s.mu.Lock()
	i := s.queue.IndexFunc(func(c actions.Command) bool { return c.ID == id })
	cmd, ok := s.queue.Remove(i)
	view := s.viewLocked()
	s.mu.Unlock()
	if ok {
		s.publish(ctx, view)
	}
	return cmd, ok
}

// Clear drops every pending command.
func (s *Scheduler) Clear(ctx context.Context) int {
	s.mu.Lock()
	n := s.queue.Size()
	s.queue.Clear()
	view := s.viewLocked()
	s.mu.Unlock()
	if n > 0 {
		s.publish(ctx, view)
	}
	return n
}

// TogglePause flips Ready and Paused. Other statuses are left as they are.
func (s *Scheduler) TogglePause(ctx context.Context) Status {
	s.mu.Lock()
	before := s.status
	switch s.status {
	case StatusReady:
		s.status = StatusPaused
	case StatusPaused:
		s.status = StatusReady
	}
	status := s.status
	view := s.viewLocked()
	s.mu.Unlock()
	if status != before {
		s.publish(ctx, view)
	}
	return status
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Idle reports whether nothing is queued or running.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running == nil && s.status != StatusWaiting && s.queue.Size() == 0
}

// Tick runs the due sub-checks: cooldown-check, countdown, stale-poll, dispatch-check.
func (s *Scheduler) Tick(ctx context.Context) {
	if s == nil {
		return
	}
	now := s.now()

	s.mu.Lock()
	before := s.status
	if due(&s.lastCooldownCheck, CooldownCheckInterval, now) {
		s.checkCooldownLocked(now)
	}
	if due(&s.lastCountdown, CountdownInterval, now) {
		s.countdownLocked(now)
	}
	poll := due(&s.lastStalePoll, StalePollInterval, now) && s.staleLocked()
	if poll {
		s.refreshing = true
	}
	dispatch := due(&s.lastDispatch, DispatchInterval, now) && s.beginDispatchLocked()
	changed := s.status != before
	view := s.viewLocked()
	s.mu.Unlock()

	if changed {
		s.publish(ctx, view)
	}
	if poll {
		s.spawn(func() { s.pollSnapshot(ctx) })
	}
	if dispatch {
		s.spawn(func() { s.dispatch(ctx) })
	}
}

func (s *Scheduler) spawn(fn func()) {
	s.inflight.Add(1)
	s.launch(func() {
		defer s.inflight.Done()
		fn()
	})
}

// Run ticks until ctx is done, then waits for the in-flight command to settle.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.inflight.Wait()
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func due(last *time.Time, interval time.Duration, now time.Time) bool {
	if !last.IsZero() && now.Sub(*last) < interval {
		return false
	}
	*last = now
	return true
}

// observeLocked keeps the latest expiration seen. Earlier values are stale
// reports and never move the cooldown back.
func (s *Scheduler) observeLocked(expiration *time.Time) {
	if expiration == nil || expiration.IsZero() {
		return
	}
	if s.expiration != nil && !expiration.After(*s.expiration) {
		return
	}
	exp := *expiration
	s.expiration = &exp
}

func (s *Scheduler) checkCooldownLocked(now time.Time) {
	if character, ok := s.snapshots.Get(s.character); ok {
		s.observeLocked(character.CooldownExpiration)
	}
	if s.expiration == nil {
		return
	}
	if s.status != StatusReady && s.status != StatusCooldown {
		return
	}
	if s.clock.RemoteNow(now).Before(*s.expiration) {
		s.status = StatusCooldown
		return
	}
	s.status = StatusReady
}

func (s *Scheduler) countdownLocked(now time.Time) {
	if s.expiration == nil {
		s.remaining = nil
		return
	}
	left := s.expiration.Sub(s.clock.RemoteNow(now))
	if left <= 0 {
		s.remaining = nil
		return
	}
	s.remaining = &left
	if s.status == StatusReady {
		s.status = StatusCooldown
	}
}

func (s *Scheduler) staleLocked() bool {
	return s.status == StatusCooldown && s.remaining == nil && !s.refreshing
}

func (s *Scheduler) beginDispatchLocked() bool {
	if !s.status.CanDispatch() || s.queue.Size() == 0 {
		return false
	}
	s.status = StatusWaiting
	return true
}

func (s *Scheduler) pollSnapshot(ctx context.Context) {
	character, err := s.snapshots.Refresh(ctx, s.character)
	s.mu.Lock()
	s.refreshing = false
	if err == nil {
		s.observeLocked(character.CooldownExpiration)
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("stale cooldown refresh failed", "error", err)
	}
}

func (s *Scheduler) dispatch(ctx context.Context) {
	s.mu.Lock()
	cmd, ok := s.queue.Pop()
	if !ok {
		s.status = StatusReady
		view := s.viewLocked()
		s.mu.Unlock()
		s.publish(ctx, view)
		return
	}
	s.running = &cmd
	view := s.viewLocked()
	s.mu.Unlock()
	s.publish(ctx, view)

	started := s.now()
	s.logger.Debug("dispatch command", "command_id", cmd.ID, "label", cmd.Label)
	out, err := s.execute(ctx, cmd)
	finished := s.now()

	s.mu.Lock()
	s.running = nil
	entry := s.applyLocked(cmd, out, err, finished)
	view = s.viewLocked()
	s.mu.Unlock()

	entry.StartedAt = started
	entry.FinishedAt = finished
	switch {
	case err != nil:
		s.logger.Warn("command failed", "command_id", cmd.ID, "label", cmd.Label, "error", entry.Error)
	case out.Aborted:
		s.logger.Debug("strategy aborted", "command_id", cmd.ID, "label", cmd.Label, "reason", out.AbortReason)
	default:
		s.logger.Debug("command finished", "command_id", cmd.ID, "label", cmd.Label, "outcome", entry.Outcome)
	}
	if s.recorder != nil {
		if rerr := s.recorder.Record(context.WithoutCancel(ctx), entry); rerr != nil {
			s.logger.Warn("record history failed", "error", rerr)
		}
	}
	s.publish(ctx, view)
	s.emitEvent(ctx, protocol.OpSchedulerAction, entry)
}

// execute isolates a command: panics become errors.
func (s *Scheduler) execute(ctx context.Context, cmd actions.Command) (out actions.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = actions.Outcome{}
			err = fmt.Errorf("command %q panicked: %v", cmd.Label, r)
		}
	}()
	return cmd.Run(ctx, actions.Env{
		Character: s.character,
		Gateway:   s.gateway,
		Snapshots: s.snapshots,
	})
}

func (s *Scheduler) applyLocked(cmd actions.Command, out actions.Outcome, err error, at time.Time) historydb.Entry {
	entry := historydb.Entry{
		Character: s.character,
		CommandID: cmd.ID,
		Kind:      string(cmd.Kind()),
		Label:     cmd.Label,
	}

	switch {
	case err != nil:
		msg := gateway.Message(err)
		s.status = StatusReady
		s.lastAction = nil
		s.lastError = msg
		entry.Outcome = historydb.OutcomeFailed
		entry.Error = msg
	case out.Result != nil:
		res := *out.Result
		character := res.Character
		if character.Name == "" {
			character.Name = s.character
		}
		if !res.Cooldown.Expiration.IsZero() {
			exp := res.Cooldown.Expiration
			character.CooldownExpiration = &exp
		}
		s.snapshots.Set(character)
		s.observeLocked(character.CooldownExpiration)
		s.status = StatusCooldown
		if s.expiration == nil {
			s.status = StatusReady
		}
		s.lastAction = &LastAction{CommandID: cmd.ID, Label: cmd.Label, At: at, Result: res}
		s.lastError = ""
		entry.Outcome = historydb.OutcomeDone
		entry.CooldownSeconds = res.Cooldown.TotalSeconds
		entry.Reason = res.Cooldown.Reason
	default:
		if out.Observed != nil {
			s.observeLocked(out.Observed.CooldownExpiration)
		}
		if s.expiration != nil {
			s.status = StatusCooldown
		} else {
			s.status = StatusReady
		}
		switch {
		case out.Aborted:
			entry.Outcome = historydb.OutcomeAborted
			entry.Error = out.AbortReason
		case out.Deferred:
			entry.Outcome = historydb.OutcomeDeferred
		default:
			entry.Outcome = historydb.OutcomeExpanded
		}
	}

	if err == nil && len(out.Steps) > 0 {
		steps := actions.Expand(out.Steps)
		for i := len(steps) - 1; i >= 0; i-- {
			s.queue.Insert(steps[i], 0)
		}
	}
	if next, place := cmd.Next(out, err); place != actions.PlaceNone {
		if place == actions.PlaceFront {
			s.queue.Insert(next, 0)
		} else {
			s.queue.Push(next)
		}
	}
	return entry
}

func (s *Scheduler) publish(ctx context.Context, view View) {
	s.emitEvent(ctx, protocol.OpSchedulerState, view)
}

func (s *Scheduler) emitEvent(ctx context.Context, op string, payload any) {
	if s.emit == nil {
		return
	}
	id := fmt.Sprintf("evt_%s_%d", strings.ReplaceAll(op, ".", "_"), s.now().UnixNano())
	msg := protocol.NewEvent(id, op, payload)
	if err := s.emit(ctx, msg); err != nil {
		s.logger.Debug("emit event failed", "op", op, "error", err)
	}
}
