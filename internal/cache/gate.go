// Package cache decides whether a processing request is served from a stored
// record or runs the pipeline fresh.
package cache

import (
	"context"
	"time"

	"github.com/tzhao11/lectern/internal/domain"
)

// Fresh-run reasons reported on the stream's cache event.
const (
	ReasonForced = "forced"
	ReasonMiss   = "miss"
	ReasonStale  = "stale"
)

// Lookup finds the most recent stored record for a source.
type Lookup interface {
	// FindLatest returns nil with no error when no record exists.
	FindLatest(ctx context.Context, key domain.SourceKey) (*domain.CacheRecord, error)
}

// Decision is the gate's verdict. Exactly one branch applies: Cached is set
// for a replay, otherwise Reason explains the fresh run.
type Decision struct {
	Cached *domain.CacheRecord
	Reason string
}

// FromCache reports whether the decision replays a stored record.
func (d Decision) FromCache() bool { return d.Cached != nil }

// Gate resolves processing requests against stored records.
type Gate struct {
	lookup Lookup
	now    func() time.Time
}

// NewGate creates a gate over a record lookup.
func NewGate(lookup Lookup) *Gate {
	return &Gate{lookup: lookup, now: time.Now}
}

// NewGateWithClock creates a gate with an injected clock. Used by tests.
func NewGateWithClock(lookup Lookup, now func() time.Time) *Gate {
	return &Gate{lookup: lookup, now: now}
}

// Decide resolves one request under the given freshness window. Force
// bypasses the lookup entirely; otherwise the most recent record wins if it
// is younger than the window.
func (g *Gate) Decide(ctx context.Context, key domain.SourceKey, window time.Duration, force bool) (Decision, error) {
	if force {
		return Decision{Reason: ReasonForced}, nil
	}

	rec, err := g.lookup.FindLatest(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if rec == nil {
		return Decision{Reason: ReasonMiss}, nil
	}
	if rec.Age(g.now()) >= window {
		return Decision{Reason: ReasonStale}, nil
	}
	return Decision{Cached: rec}, nil
}
