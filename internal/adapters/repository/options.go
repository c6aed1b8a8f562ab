package repository

import (
	"math/rand"
	"time"
)

type nowFunc func() time.Time

func defaultNow() time.Time { return time.Now() }

// Option applies a configuration option to the TreapQueue.
type Option func(*TreapQueue)

// WithRandSource seeds the treap balance priorities, for deterministic
// tests.
func WithRandSource(src rand.Source) Option {
	return func(q *TreapQueue) {
		if src != nil {
			q.rng = rand.New(src) //nolint:gosec // treap balance only
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(q *TreapQueue) {
		if now != nil {
			q.now = now
		}
	}
}
