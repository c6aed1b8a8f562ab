// Package repository holds the ordered victim queue.
//
// The queue is a total order, not buckets by tier: score DESC, then
// reportedAt ASC (earlier report first), then victim id ASC as the final
// deterministic tie-break. Backed by a size-augmented treap so peeks and
// ordered listings stay cheap as the queue grows.
package repository

import (
	"context"
	"math/rand"
	"sync"

	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/pkg/metrics"
)

// key is the composite ordering key of one queue entry.
type key struct {
	score      int
	reportedAt int64 // unix nanos
	id         string
}

// before returns true if a ranks earlier than b in the queue.
func (a key) before(b key) bool {
	if a.score != b.score {
		return a.score > b.score // higher score dispatches first
	}
	if a.reportedAt != b.reportedAt {
		return a.reportedAt < b.reportedAt // earlier report served first
	}
	return a.id < b.id
}

// node is one treap node.
type node struct {
	key   key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, k key, prio uint64) *node {
	if n == nil {
		return &node{key: k, prio: prio, size: 1}
	}
	if k.before(n.key) {
		n.left = insert(n.left, k, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if k == n.key {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	} else if k.before(n.key) {
		n.left = deleteNode(n.left, k)
	} else {
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// walk visits entries in queue order until visit returns false.
func walk(n *node, visit func(k key) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n.key) {
		return false
	}
	return walk(n.right, visit)
}

// VictimQueue is the interface consumed by the dispatch layers.
type VictimQueue interface {
	// Admit inserts a scored report. Re-admitting a known victim id
	// replaces the entry (a superseding report) and resets its status to
	// PENDING.
	Admit(ctx context.Context, report model.IncidentReport, result model.PriorityResult) (model.QueueEntry, error)

	// PeekHighestPriority returns the first entry not yet resolved.
	PeekHighestPriority(ctx context.Context) (model.QueueEntry, bool)

	// List returns up to limit entries in queue order. A non-positive
	// limit fails with ErrInvalidLimit.
	List(ctx context.Context, limit int) ([]model.QueueEntry, error)

	// UpdateStatus advances a victim through
	// PENDING -> IN_PROGRESS -> RESOLVED. Skips and backward moves fail
	// with ErrInvalidTransition.
	UpdateStatus(ctx context.Context, victimID string, status model.VictimStatus) (model.QueueEntry, error)

	// Len returns the number of entries, resolved ones included.
	Len(ctx context.Context) int
}

// TreapQueue implements VictimQueue with a treap.
type TreapQueue struct {
	mu   sync.RWMutex
	root *node
	byID map[string]*model.QueueEntry
	rng  *rand.Rand
	now  nowFunc
}

// NewTreapQueue constructs an empty victim queue with configuration options.
func NewTreapQueue(opts ...Option) *TreapQueue {
	q := &TreapQueue{
		byID: make(map[string]*model.QueueEntry),
		rng:  rand.New(rand.NewSource(rand.Int63())), //nolint:gosec // treap balance only, not security sensitive
		now:  defaultNow,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Admit inserts or replaces a scored report.
func (q *TreapQueue) Admit(ctx context.Context, report model.IncidentReport, result model.PriorityResult) (model.QueueEntry, error) {
	if report.ID == "" {
		return model.QueueEntry{}, ErrMissingVictimID
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if old, ok := q.byID[report.ID]; ok {
		q.root = deleteNode(q.root, keyOf(old))
	}

	entry := &model.QueueEntry{
		VictimID:   report.ID,
		Report:     report,
		Priority:   result,
		Status:     model.StatusPending,
		AdmittedAt: q.now().UTC(),
	}
	q.byID[report.ID] = entry
	q.root = insert(q.root, keyOf(entry), q.rng.Uint64())

	metrics.RecordQueueAdmission()
	metrics.UpdateQueueDepth(len(q.byID))
	return *entry, nil
}

// PeekHighestPriority returns the first entry not yet resolved.
func (q *TreapQueue) PeekHighestPriority(ctx context.Context) (model.QueueEntry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var found *model.QueueEntry
	walk(q.root, func(k key) bool {
		entry := q.byID[k.id]
		if entry == nil || entry.Status == model.StatusResolved {
			return true
		}
		found = entry
		return false
	})
	if found == nil {
		return model.QueueEntry{}, false
	}
	return *found, true
}

// List returns up to limit entries in queue order.
func (q *TreapQueue) List(ctx context.Context, limit int) ([]model.QueueEntry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]model.QueueEntry, 0, limit)
	walk(q.root, func(k key) bool {
		if entry := q.byID[k.id]; entry != nil {
			out = append(out, *entry)
		}
		return len(out) < limit
	})
	return out, nil
}

// UpdateStatus advances a victim's lifecycle status.
func (q *TreapQueue) UpdateStatus(ctx context.Context, victimID string, status model.VictimStatus) (model.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.byID[victimID]
	if !ok {
		return model.QueueEntry{}, ErrNotFound
	}
	if !validTransition(entry.Status, status) {
		metrics.RecordErrorByComponent("queue", "invalid_transition")
		return model.QueueEntry{}, ErrInvalidTransition
	}

	entry.Status = status
	metrics.RecordStatusTransition(string(status))
	return *entry, nil
}

// Len returns the number of entries, resolved ones included.
func (q *TreapQueue) Len(ctx context.Context) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.byID)
}

// validTransition enforces PENDING -> IN_PROGRESS -> RESOLVED with no skips
// and no backward moves.
func validTransition(from, to model.VictimStatus) bool {
	switch from {
	case model.StatusPending:
		return to == model.StatusInProgress
	case model.StatusInProgress:
		return to == model.StatusResolved
	default:
		return false
	}
}

func keyOf(entry *model.QueueEntry) key {
	return key{
		score:      entry.Priority.Score,
		reportedAt: entry.Report.ReportedAt.UnixNano(),
		id:         entry.VictimID,
	}
}
