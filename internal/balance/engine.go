// Package balance hosts the partition-balance engine the exchange drives
// around every committed membership change.
package balance

import (
	"log/slog"
	"sync"

	"corvusdb/internal/metrics"
	"corvusdb/internal/namespace"
)

// Engine is the partition-balance surface the exchange consumes.
type Engine interface {
	// DisallowMigrations stops new partition migrations from starting.
	DisallowMigrations()

	// SynchronizeMigrations waits until in-flight migrations have drained,
	// freezing partition versions for the round.
	SynchronizeMigrations()

	// Balance rebalances partitions against the freshly committed cluster
	// tables.
	Balance()

	// RevertToOrphan blocks client transactions and reverts partition
	// ownership to the orphan profile.
	RevertToOrphan()
}

// DefaultEngine tracks the migration gate and rebalances over the shared
// namespace registry. The actual data movement belongs to the migration
// subsystem; this engine owns the coordination state the exchange depends
// on and is the hook point for it.
type DefaultEngine struct {
	mu sync.Mutex

	registry *namespace.Registry

	migrationsAllowed bool
	inflight          sync.WaitGroup

	balanceRuns int
	revertRuns  int
}

func NewDefaultEngine(registry *namespace.Registry) *DefaultEngine {
	metrics.BalanceMigrationsAllowed.Set(0)
	return &DefaultEngine{registry: registry}
}

func (e *DefaultEngine) DisallowMigrations() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.migrationsAllowed {
		slog.Debug("disallowing partition migrations")
	}
	e.migrationsAllowed = false
	metrics.BalanceMigrationsAllowed.Set(0)
}

func (e *DefaultEngine) SynchronizeMigrations() {
	// Migrations started before the gate closed must finish before
	// partition versions can be treated as frozen.
	e.inflight.Wait()
}

func (e *DefaultEngine) Balance() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.balanceRuns++
	e.migrationsAllowed = true
	metrics.BalanceMigrationsAllowed.Set(1)
	metrics.BalanceRunsTotal.Inc()

	for _, ns := range e.registry.All() {
		slog.Info("rebalancing namespace",
			"namespace", ns.Name,
			"cluster_size", ns.ClusterSize,
		)
	}
}

func (e *DefaultEngine) RevertToOrphan() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.revertRuns++
	e.migrationsAllowed = false
	metrics.BalanceMigrationsAllowed.Set(0)

	slog.Warn("reverting partition ownership to orphan profile")
}

// MigrationsAllowed reports the current gate state.
func (e *DefaultEngine) MigrationsAllowed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.migrationsAllowed
}

// BalanceRuns returns how many times Balance has run.
func (e *DefaultEngine) BalanceRuns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balanceRuns
}

// RevertRuns returns how many times RevertToOrphan has run.
func (e *DefaultEngine) RevertRuns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revertRuns
}
