package maintenance

import (
	"context"
	"fmt"
	"sync"

	"github.com/maloquacious/dbmaint/internal/store"
)

// integrityGuard tracks whether foreign key enforcement is switched off.
// disabled is true only between a successful Disable and a successful Restore.
type integrityGuard struct {
	mu       sync.Mutex
	store    store.Store
	disabled bool
}

func (g *integrityGuard) Disable(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Mark first so a failed toggle is still restored.
	g.disabled = true
	if err := g.store.SetForeignKeys(ctx, false); err != nil {
		return fmt.Errorf("failed to disable foreign key enforcement: %w", err)
	}
	return nil
}

// Restore re-enables enforcement if it was disabled. It is a no-op otherwise,
// so concurrent callers re-enable at most once per Disable.
func (g *integrityGuard) Restore(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.disabled {
		return nil
	}
	if err := g.store.SetForeignKeys(ctx, true); err != nil {
		return fmt.Errorf("failed to re-enable foreign key enforcement: %w", err)
	}
	g.disabled = false
	return nil
}

func (g *integrityGuard) Disabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disabled
}

// phaseMarker exposes a completion channel while a destructive phase runs.
type phaseMarker struct {
	mu   sync.Mutex
	done chan struct{}
}

func (p *phaseMarker) begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = make(chan struct{})
}

func (p *phaseMarker) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}

func (p *phaseMarker) inFlight() (<-chan struct{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return nil, false
	}
	return p.done, true
}
