// Package screen keeps one mounted auth screen per browser.
package screen

import (
	"context"
	"sync"
	"time"

	"authgate/internal/authform"
	"authgate/internal/gate"
	"authgate/internal/provider"
	"authgate/internal/toast"

	"go.uber.org/zap"
)

// Screen is the gate, the form and the pending toasts of one browser.
type Screen struct {
	BrowserID string
	Gate      *gate.Gate
	Form      *authform.Form
	Toasts    *toast.Queue

	start    sync.Once
	lastSeen time.Time
}

type Registry struct {
	backend provider.IProvider
	options authform.Options
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	screens map[string]*Screen
	closed  bool
}

func NewRegistry(backend provider.IProvider, options authform.Options, idleTTL time.Duration) *Registry {
	return &Registry{
		backend: backend,
		options: options,
		idleTTL: idleTTL,
		now:     time.Now,
		screens: make(map[string]*Screen),
	}
}

// Open returns the screen of browserID, mounting it on first use.
// The gate is started outside the registry lock since it queries the provider.
// After Close, Open returns a detached screen whose gate never subscribes.
func (r *Registry) Open(ctx context.Context, browserID string) *Screen {
	r.mu.Lock()
	s, ok := r.screens[browserID]
	if !ok {
		toasts := toast.NewQueue()
		s = &Screen{
			BrowserID: browserID,
			Gate:      gate.New(r.backend, browserID),
			Form:      authform.New(r.backend, toasts, browserID, r.options),
			Toasts:    toasts,
		}
		if r.closed {
			r.mu.Unlock()
			s.Gate.Close()
			return s
		}
		r.screens[browserID] = s
		zap.L().Debug("Screen mounted", zap.String("browser_id", browserID))
	}
	s.lastSeen = r.now()
	r.mu.Unlock()

	s.start.Do(func() {
		s.Gate.Start(ctx)
	})
	return s
}

// Sweep tears down screens idle for longer than the configured TTL and returns how many were removed.
func (r *Registry) Sweep(_ context.Context) (int, error) {
	threshold := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Screen
	for id, s := range r.screens {
		if s.lastSeen.Before(threshold) {
			idle = append(idle, s)
			delete(r.screens, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Gate.Close()
	}
	return len(idle), nil
}

// Close tears down every screen. Screens opened afterwards are not retained.
func (r *Registry) Close() {
	r.mu.Lock()
	screens := r.screens
	r.screens = make(map[string]*Screen)
	r.closed = true
	r.mu.Unlock()

	for _, s := range screens {
		s.Gate.Close()
	}
	zap.L().Info("Screens torn down", zap.Int("count", len(screens)))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.screens)
}
