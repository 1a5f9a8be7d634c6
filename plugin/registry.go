package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
)

// defaultTimeout bounds a single hook call.
const defaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onHolderAdded        []OnHolderAdded
	onHolderRemoved      []OnHolderRemoved
	onEquityAdjusted     []OnEquityAdjusted
	onRoundCreated       []OnRoundCreated
	onRoundDeleted       []OnRoundDeleted
	onRevisionCommitted  []OnRevisionCommitted
	onRevisionConflict   []OnRevisionConflict
	onCapTableReconciled []OnCapTableReconciled
	entryValidators      []EntryValidator
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: defaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets how long a single hook may run.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnHolderAdded); ok {
		r.onHolderAdded = append(r.onHolderAdded, v)
	}
	if v, ok := p.(OnHolderRemoved); ok {
		r.onHolderRemoved = append(r.onHolderRemoved, v)
	}
	if v, ok := p.(OnEquityAdjusted); ok {
		r.onEquityAdjusted = append(r.onEquityAdjusted, v)
	}
	if v, ok := p.(OnRoundCreated); ok {
		r.onRoundCreated = append(r.onRoundCreated, v)
	}
	if v, ok := p.(OnRoundDeleted); ok {
		r.onRoundDeleted = append(r.onRoundDeleted, v)
	}
	if v, ok := p.(OnRevisionCommitted); ok {
		r.onRevisionCommitted = append(r.onRevisionCommitted, v)
	}
	if v, ok := p.(OnRevisionConflict); ok {
		r.onRevisionConflict = append(r.onRevisionConflict, v)
	}
	if v, ok := p.(OnCapTableReconciled); ok {
		r.onCapTableReconciled = append(r.onCapTableReconciled, v)
	}
	if v, ok := p.(EntryValidator); ok {
		r.entryValidators = append(r.entryValidators, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnHolderAdded", reflect.TypeOf((*OnHolderAdded)(nil)).Elem()},
	{"OnHolderRemoved", reflect.TypeOf((*OnHolderRemoved)(nil)).Elem()},
	{"OnEquityAdjusted", reflect.TypeOf((*OnEquityAdjusted)(nil)).Elem()},
	{"OnRoundCreated", reflect.TypeOf((*OnRoundCreated)(nil)).Elem()},
	{"OnRoundDeleted", reflect.TypeOf((*OnRoundDeleted)(nil)).Elem()},
	{"OnRevisionCommitted", reflect.TypeOf((*OnRevisionCommitted)(nil)).Elem()},
	{"OnRevisionConflict", reflect.TypeOf((*OnRevisionConflict)(nil)).Elem()},
	{"OnCapTableReconciled", reflect.TypeOf((*OnCapTableReconciled)(nil)).Elem()},
	{"EntryValidator", reflect.TypeOf((*EntryValidator)(nil)).Elem()},
}

// implementedInterfaces returns the hooks a plugin implements.
func implementedInterfaces(p Plugin) []string {
	var out []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			out = append(out, h.name)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitHolderAdded emits a holder added event.
func (r *Registry) EmitHolderAdded(ctx context.Context, accountID string, entry equity.Entry) {
	r.mu.RLock()
	plugins := r.onHolderAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnHolderAdded", p.Name(), func() error {
			return p.OnHolderAdded(ctx, accountID, entry)
		})
	}
}

// EmitHolderRemoved emits a holder removed event.
func (r *Registry) EmitHolderRemoved(ctx context.Context, accountID string, entry equity.Entry) {
	r.mu.RLock()
	plugins := r.onHolderRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnHolderRemoved", p.Name(), func() error {
			return p.OnHolderRemoved(ctx, accountID, entry)
		})
	}
}

// EmitEquityAdjusted emits the stakes a commit moved.
func (r *Registry) EmitEquityAdjusted(ctx context.Context, accountID string, changes []equity.Change) {
	if len(changes) == 0 {
		return
	}
	r.mu.RLock()
	plugins := r.onEquityAdjusted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnEquityAdjusted", p.Name(), func() error {
			return p.OnEquityAdjusted(ctx, accountID, changes)
		})
	}
}

// EmitRoundCreated emits a round created event.
func (r *Registry) EmitRoundCreated(ctx context.Context, rd *round.Round) {
	r.mu.RLock()
	plugins := r.onRoundCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnRoundCreated", p.Name(), func() error {
			return p.OnRoundCreated(ctx, rd)
		})
	}
}

// EmitRoundDeleted emits a round deleted event.
func (r *Registry) EmitRoundDeleted(ctx context.Context, rd *round.Round, investorsRemoved int) {
	r.mu.RLock()
	plugins := r.onRoundDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnRoundDeleted", p.Name(), func() error {
			return p.OnRoundDeleted(ctx, rd, investorsRemoved)
		})
	}
}

// EmitRevisionCommitted emits a revision committed event.
func (r *Registry) EmitRevisionCommitted(ctx context.Context, rev *revision.Revision) {
	r.mu.RLock()
	plugins := r.onRevisionCommitted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnRevisionCommitted", p.Name(), func() error {
			return p.OnRevisionCommitted(ctx, rev)
		})
	}
}

// EmitRevisionConflict emits a lost commit race.
func (r *Registry) EmitRevisionConflict(ctx context.Context, accountID string, attempt int, err error) {
	r.mu.RLock()
	plugins := r.onRevisionConflict
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnRevisionConflict", p.Name(), func() error {
			return p.OnRevisionConflict(ctx, accountID, attempt, err)
		})
	}
}

// EmitCapTableReconciled emits the stakes a forced normalization rewrote.
func (r *Registry) EmitCapTableReconciled(ctx context.Context, accountID string, changes []equity.Change) {
	r.mu.RLock()
	plugins := r.onCapTableReconciled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnCapTableReconciled", p.Name(), func() error {
			return p.OnCapTableReconciled(ctx, accountID, changes)
		})
	}
}

// ValidateEntry runs every EntryValidator and returns the first rejection.
// Unlike the Emit methods, errors here are returned to the caller.
func (r *Registry) ValidateEntry(ctx context.Context, accountID string, entry equity.Entry) error {
	r.mu.RLock()
	validators := r.entryValidators
	r.mu.RUnlock()

	for _, v := range validators {
		if err := r.callWithTimeout(ctx, v.Name(), func() error {
			return v.ValidateEntry(ctx, accountID, entry)
		}); err != nil {
			return fmt.Errorf("plugin %s: %w", v.Name(), err)
		}
	}
	return nil
}

// dispatch calls a hook and logs its failure.
func (r *Registry) dispatch(ctx context.Context, hook, name string, fn func() error) {
	if err := r.callWithTimeout(ctx, name, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", name,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a commit.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
