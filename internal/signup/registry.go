package signup

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps the live flows of a process keyed by flow ID. Flows idle for
// longer than the idle timeout are closed by a janitor goroutine.
type Registry struct {
	opts        Options
	idleTimeout time.Duration

	mu    sync.Mutex
	flows map[string]*Controller

	stopCh   chan struct{}
	stopOnce sync.Once
}

func (r *Registry) Create() *Controller {
	flow := NewController(uuid.NewString(), r.opts)
	r.mu.Lock()
	r.flows[flow.ID()] = flow
	r.mu.Unlock()
	return flow
}

func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	flow, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if ok {
		flow.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

func (r *Registry) evictIdle(now time.Time) int {
	var idle []*Controller
	r.mu.Lock()
	for id, flow := range r.flows {
		if now.Sub(flow.LastActive()) > r.idleTimeout {
			idle = append(idle, flow)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()

	for _, flow := range idle {
		flow.Close()
	}
	if len(idle) > 0 {
		r.opts.Logger.Debug("Evicted idle flows", "count", len(idle))
	}
	return len(idle)
}

// Start runs the idle flow janitor until Close is called.
func (r *Registry) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopCh:
				return
			case now := <-ticker.C:
				r.evictIdle(now)
			}
		}
	}()
}

// Close stops the janitor and tears down every flow.
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.mu.Lock()
	flows := r.flows
	r.flows = make(map[string]*Controller)
	r.mu.Unlock()
	for _, flow := range flows {
		flow.Close()
	}
}

func NewRegistry(opts Options, idleTimeout time.Duration) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		opts:        opts,
		idleTimeout: idleTimeout,
		flows:       make(map[string]*Controller),
		stopCh:      make(chan struct{}),
	}
}
