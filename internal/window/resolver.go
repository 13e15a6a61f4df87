// Package window resolves optional query ranges to concrete half-open
// windows [from, to).
package window

import "time"

// DefaultTrailing is the window used when a query gives no complete range
const DefaultTrailing = 24 * time.Hour

// Resolver turns optional bounds into a concrete window
type Resolver struct {
	trailing time.Duration
	now      func() time.Time
}

// NewResolver creates a resolver. A non-positive trailing duration falls
// back to DefaultTrailing; a nil clock uses time.Now.
func NewResolver(trailing time.Duration, now func() time.Time) *Resolver {
	if trailing <= 0 {
		trailing = DefaultTrailing
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{trailing: trailing, now: now}
}

// Resolve returns both bounds verbatim when both are given, including the
// empty window from == to. If either is missing both are replaced by
// [now-trailing, now): a lone bound is ignored, not treated as open-ended.
func (r *Resolver) Resolve(from, to *time.Time) (time.Time, time.Time) {
	if from != nil && to != nil {
		return from.UTC(), to.UTC()
	}
	end := r.now().UTC()
	return end.Add(-r.trailing), end
}
