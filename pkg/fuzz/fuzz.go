// ------------------------------------------------------
// FuzzKit - Cached Comparison Core
// Reference-string handles with manual lifecycle
// ------------------------------------------------------

package fuzz

import (
	"strings"
	"sync/atomic"
)

// Stats holds package-wide lifecycle counters, used to verify that
// repeated create/score/close cycles release every handle.
type Stats struct {
	HandlesCreated int64 `json:"handles_created"`
	HandlesClosed  int64 `json:"handles_closed"`
	LiveStates     int64 `json:"live_states"`
}

var (
	handlesCreated atomic.Int64
	handlesClosed  atomic.Int64
	liveStates     atomic.Int64
)

// GetStats returns a snapshot of the lifecycle counters.
func GetStats() Stats {
	return Stats{
		HandlesCreated: handlesCreated.Load(),
		HandlesClosed:  handlesClosed.Load(),
		LiveStates:     liveStates.Load(),
	}
}

// CachedRatio caches the precomputed comparison state for one reference
// string so it can be scored against many candidates without rebuilding
// that state on every call.
//
// The zero value is the empty sentinel: it holds no reference and no
// state, Score on it reports maximal dissimilarity, and Close on it is
// a no-op. A handle returns to the sentinel state after Close, so the
// only lifecycle transitions are empty→ready (New) and ready→empty
// (Close).
type CachedRatio struct {
	reference string
	state     State
}

// New builds a cached comparison handle binding alg's precomputed state
// to reference.
//
// The handle keeps its own copy of reference, so the caller may reuse
// or discard its original string immediately. The reference is taken
// with its explicit length: embedded zero bytes are allowed, unlike
// terminator-delimited APIs that would truncate at the first NUL.
//
// If alg is nil, or it fails to produce state, New returns the empty
// sentinel handle rather than an error: every Score against it yields
// 1.0, so callers ranking by lowest score skip it instead of crashing
// or matching everything.
func New(alg Algorithm, reference string) *CachedRatio {
	if alg == nil {
		return &CachedRatio{}
	}

	// Clone detaches the reference from any larger backing array the
	// caller may have sliced it from.
	ref := strings.Clone(reference)

	state := alg.Precompute(ref)
	if state == nil {
		return &CachedRatio{}
	}

	handlesCreated.Add(1)
	liveStates.Add(1)

	return &CachedRatio{
		reference: ref,
		state:     state,
	}
}

// Score returns the distance-like score between the cached reference
// and candidate: 0.0 means identical, 1.0 maximally dissimilar.
//
// An empty handle (zero value, failed creation, or already closed)
// always scores 1.0. Score never mutates the handle; concurrent calls
// on the same handle are safe as long as no goroutine calls Close
// concurrently.
func (c *CachedRatio) Score(candidate string) float64 {
	if c == nil || c.state == nil {
		return 1.0
	}
	return 1.0 - c.state.Ratio(candidate)/100.0
}

// Ready reports whether the handle holds precomputed state. A handle
// that is not ready behaves as always-maximally-dissimilar, not as an
// error.
func (c *CachedRatio) Ready() bool {
	return c != nil && c.state != nil
}

// Reference returns the handle's owned copy of the reference string,
// or "" for an empty handle.
func (c *CachedRatio) Reference() string {
	if c == nil {
		return ""
	}
	return c.reference
}

// Close releases the precomputed state and drops the reference copy,
// leaving the handle in the empty sentinel state.
//
// The state is torn down strictly before the reference is dropped
// because the state may hold views into it. Close is safe to call
// repeatedly: on an already-empty handle it is a no-op, so a handle is
// never double-released.
func (c *CachedRatio) Close() {
	if c == nil {
		return
	}
	if c.state != nil {
		c.state.Close()
		c.state = nil
		liveStates.Add(-1)
		handlesClosed.Add(1)
	}
	c.reference = ""
}

// NormalizedDistance returns the normalized Levenshtein distance
// between a and b in [0, 1]: 0.0 identical, 1.0 completely dissimilar.
//
// Two empty strings are identical (0.0); an empty string against a
// non-empty one is completely dissimilar (1.0). The function retains no
// state and is safe to call concurrently with any inputs.
func NormalizedDistance(a, b string) float64 {
	return 1.0 - levenshteinSimilarity(a, b)/100.0
}
