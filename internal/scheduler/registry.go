package scheduler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Factory builds the scheduler of one character.
type Factory func(character string) (*Scheduler, error)

type session struct {
	scheduler *Scheduler
	cancel    context.CancelFunc
	done      chan struct{}
}

// Registry owns one running scheduler per opened character. Sessions share nothing.
type Registry struct {
	factory Factory
	tick    time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(factory Factory, tick time.Duration) *Registry {
	return &Registry{factory: factory, tick: tick, sessions: map[string]*session{}}
}

// Open starts the scheduler for character, or returns the one already running.
func (r *Registry) Open(ctx context.Context, character string) (*Scheduler, error) {
	name := strings.TrimSpace(character)
	if name == "" {
		return nil, errors.New("character is required")
	}
	r.mu.Lock()
	if existing, ok := r.sessions[name]; ok {
		r.mu.Unlock()
		return existing.scheduler, nil
	}
	r.mu.Unlock()

	sched, err := r.factory(name)
	if err != nil {
		return nil, err
	}
	if err := sched.Prime(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[name]; ok {
		return existing.scheduler, nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &session{scheduler: sched, cancel: cancel, done: make(chan struct{})}
	r.sessions[name] = sess
	go func() {
		defer close(sess.done)
		_ = sched.Run(runCtx, r.tick)
	}()
	return sched, nil
}

func (r *Registry) Get(character string) (*Scheduler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[strings.TrimSpace(character)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.scheduler, nil
}

// List returns the open characters in name order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close stops the tick loop and discards the queue of character.
func (r *Registry) Close(character string) error {
	r.mu.Lock()
	sess, ok := r.sessions[strings.TrimSpace(character)]
	if ok {
		delete(r.sessions, strings.TrimSpace(character))
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.cancel()
	<-sess.done
	return nil
}

func (r *Registry) CloseAll() {
	for _, name := range r.List() {
		_ = r.Close(name)
	}
}
