// Package grant reconciles user-supplied grant codes against the external
// research-funding registry and caches the last validated outcome.
//
// The resolver is deliberately error-free at its boundary: a code either
// resolves to a validated Record or to nil. Transport failures, malformed
// responses, and identifier mismatches are indistinguishable from a genuinely
// unknown code — callers only ever learn "not validated".
package grant

import (
	"context"
	"strings"
	"sync"
)

// maxCodeLen caps the code length ever sent to the registry. Longer input is
// treated the same as a blank code: no grant, no lookup.
const maxCodeLen = 16

// Record is the cached outcome of a successful registry lookup. Reference
// always equals the exact code that was submitted; a Record is only trusted
// while that code is still the session's current grant code.
type Record struct {
	Reference    string
	CanonicalURL string
	MetadataURL  string // best-effort; empty when the registry offers none
}

// Lookup performs a single registry query for a code. Implementations return
// nil for any failure or non-exact match.
type Lookup interface {
	Lookup(ctx context.Context, code string) *Record
}

// Resolver memoizes the last validated Record across lookups. Safe for use
// from the TUI's background lookup goroutines.
type Resolver struct {
	client Lookup

	mu     sync.Mutex
	cached *Record
}

// NewResolver returns a Resolver backed by client.
func NewResolver(client Lookup) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the validated Record for code, or nil when the code is
// absent or cannot be validated.
//
//   - Blank codes and codes longer than maxCodeLen resolve to nil immediately
//     and clear the cache; they are never sent to the registry.
//   - An exact cache hit (cached.Reference == code, no normalization) returns
//     the cached Record without a network call.
//   - Otherwise one lookup is issued and its outcome, match or nil, replaces
//     the cache.
func (r *Resolver) Resolve(ctx context.Context, code string) *Record {
	if strings.TrimSpace(code) == "" || len(code) > maxCodeLen {
		r.store(nil)
		return nil
	}

	if rec := r.cachedFor(code); rec != nil {
		return rec
	}

	rec := r.client.Lookup(ctx, code)
	if rec != nil && rec.Reference != code {
		// The client already enforces exact identity; guard anyway so a
		// misbehaving Lookup can never poison the cache.
		rec = nil
	}
	r.store(rec)
	return rec
}

// Cached returns the current cached Record, or nil.
func (r *Resolver) Cached() *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached
}

func (r *Resolver) cachedFor(code string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached != nil && r.cached.Reference == code {
		return r.cached
	}
	return nil
}

func (r *Resolver) store(rec *Record) {
	r.mu.Lock()
	r.cached = rec
	r.mu.Unlock()
}
