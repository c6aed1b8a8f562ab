// Package inventory owns the mutable equipment counts.
//
// The ledger is the single source of truth for what is available. All
// operations take one mutex; TryReserve is the only check-and-mutate point,
// so callers never race between reading availability and reserving
// (reserve-then-act). Critical sections only touch integer counters.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/pkg/ids"
	"github.com/rescuemesh/engine/pkg/metrics"
)

// item is the mutable state of one equipment kind.
type item struct {
	total     int
	reserved  int
	threshold int
}

func (it *item) available() int { return it.total - it.reserved }

// Ledger provides atomic access to equipment counts.
type Ledger interface {
	// Status returns the snapshot of one kind, or ErrUnknownItemKind.
	Status(ctx context.Context, kind string) (model.InventoryItemStatus, error)

	// Snapshot returns the snapshot of every kind, sorted by kind name.
	Snapshot(ctx context.Context) []model.InventoryItemStatus

	// TryReserve atomically reserves quantity units of kind. It returns
	// false without reserving anything when fewer than quantity units are
	// available; a reservation never partially succeeds.
	TryReserve(ctx context.Context, kind string, quantity int) (bool, error)

	// Release returns quantity reserved units of kind to the pool.
	// Releasing more than is currently reserved is a caller bookkeeping bug
	// and fails with ErrInvariantViolation without mutating the ledger.
	Release(ctx context.Context, kind string, quantity int) error

	// ScanAlerts raises stock alerts for kinds at or below their threshold.
	// An alert is raised once per kind and level; recovering to OK re-arms
	// the kind.
	ScanAlerts(ctx context.Context) []model.StockAlert

	// Alerts returns every alert raised so far, oldest first.
	Alerts(ctx context.Context) []model.StockAlert
}

// InMemoryLedger implements Ledger over a fixed in-process catalog.
type InMemoryLedger struct {
	mu      sync.Mutex
	items   map[string]*item
	alerted map[string]model.StockStatus
	alerts  []model.StockAlert
	now     func() time.Time
}

// Option applies a configuration option to the InMemoryLedger.
type Option func(*InMemoryLedger)

// WithCatalog replaces the default catalog. Intended for provisioning
// overrides from configuration.
func WithCatalog(catalog map[string]Provisioning) Option {
	return func(l *InMemoryLedger) {
		if len(catalog) == 0 {
			return
		}
		l.items = make(map[string]*item, len(catalog))
		for kind, p := range catalog {
			l.items[kind] = &item{total: p.Total, threshold: p.Threshold}
		}
	}
}

// WithProvisioning overrides the provisioning of a single kind, adding it
// to the catalog if absent.
func WithProvisioning(kind string, p Provisioning) Option {
	return func(l *InMemoryLedger) {
		l.items[kind] = &item{total: p.Total, threshold: p.Threshold}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *InMemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewInMemoryLedger creates a ledger seeded with the default catalog.
func NewInMemoryLedger(opts ...Option) *InMemoryLedger {
	l := &InMemoryLedger{
		items:   make(map[string]*item),
		alerted: make(map[string]model.StockStatus),
		now:     time.Now,
	}
	for kind, p := range DefaultCatalog() {
		l.items[kind] = &item{total: p.Total, threshold: p.Threshold}
	}

	for _, opt := range opts {
		opt(l)
	}

	for kind, it := range l.items {
		metrics.UpdateInventoryAvailable(kind, it.available())
	}
	return l
}

// Status returns the snapshot of one kind.
func (l *InMemoryLedger) Status(ctx context.Context, kind string) (model.InventoryItemStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[kind]
	if !ok {
		metrics.RecordErrorByComponent("ledger", "unknown_kind")
		return model.InventoryItemStatus{}, fmt.Errorf("%w: %s", ErrUnknownItemKind, kind)
	}
	return l.statusLocked(kind, it), nil
}

// Snapshot returns the snapshot of every kind, sorted by kind name.
func (l *InMemoryLedger) Snapshot(ctx context.Context) []model.InventoryItemStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.InventoryItemStatus, 0, len(l.items))
	for kind, it := range l.items {
		out = append(out, l.statusLocked(kind, it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// TryReserve atomically reserves quantity units of kind.
func (l *InMemoryLedger) TryReserve(ctx context.Context, kind string, quantity int) (bool, error) {
	if quantity < 1 {
		return false, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[kind]
	if !ok {
		metrics.RecordErrorByComponent("ledger", "unknown_kind")
		return false, fmt.Errorf("%w: %s", ErrUnknownItemKind, kind)
	}
	if it.available() < quantity {
		return false, nil
	}

	it.reserved += quantity
	metrics.RecordReservation()
	metrics.UpdateInventoryAvailable(kind, it.available())
	return true, nil
}

// Release returns quantity reserved units of kind to the pool.
func (l *InMemoryLedger) Release(ctx context.Context, kind string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[kind]
	if !ok {
		metrics.RecordErrorByComponent("ledger", "unknown_kind")
		return fmt.Errorf("%w: %s", ErrUnknownItemKind, kind)
	}
	if it.reserved-quantity < 0 {
		metrics.RecordErrorByComponent("ledger", "invariant_violation")
		return fmt.Errorf("%w: release of %d would drive %s reserved below zero (reserved=%d)",
			ErrInvariantViolation, quantity, kind, it.reserved)
	}

	it.reserved -= quantity
	metrics.RecordRelease()
	metrics.UpdateInventoryAvailable(kind, it.available())
	return nil
}

// ScanAlerts raises stock alerts for kinds at or below their threshold.
func (l *InMemoryLedger) ScanAlerts(ctx context.Context) []model.StockAlert {
	l.mu.Lock()
	defer l.mu.Unlock()

	var raised []model.StockAlert
	for kind, it := range l.items {
		level := statusFor(it)
		if level == model.StockOK {
			delete(l.alerted, kind)
			continue
		}
		if l.alerted[kind] == level {
			continue
		}

		alert := model.StockAlert{
			AlertID:   ids.NewAlertID(),
			Kind:      kind,
			Level:     level,
			Message:   fmt.Sprintf("%s stock is %s: %d of %d available", kind, level, it.available(), it.total),
			RaisedAt:  l.now().UTC(),
			Available: it.available(),
		}
		l.alerted[kind] = level
		l.alerts = append(l.alerts, alert)
		raised = append(raised, alert)
		metrics.RecordAlert(string(level))
	}

	sort.Slice(raised, func(i, j int) bool { return raised[i].Kind < raised[j].Kind })
	return raised
}

// Alerts returns every alert raised so far, oldest first.
func (l *InMemoryLedger) Alerts(ctx context.Context) []model.StockAlert {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.StockAlert, len(l.alerts))
	copy(out, l.alerts)
	return out
}

func (l *InMemoryLedger) statusLocked(kind string, it *item) model.InventoryItemStatus {
	return model.InventoryItemStatus{
		Kind:      kind,
		Available: it.available(),
		Total:     it.total,
		Reserved:  it.reserved,
		Threshold: it.threshold,
		Status:    statusFor(it),
	}
}

// statusFor derives the stock status of an item. The CRITICAL band is
// 0 < available <= floor(threshold/2); LOW covers the rest of the threshold
// band.
func statusFor(it *item) model.StockStatus {
	available := it.available()
	switch {
	case available <= 0:
		return model.StockOut
	case available <= it.threshold/2:
		return model.StockCritical
	case available <= it.threshold:
		return model.StockLow
	default:
		return model.StockOK
	}
}
