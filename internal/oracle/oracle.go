// Package oracle decides whether a candidate response is equivalent to a
// baseline response.
//
// Two baseline responses to the unmodified request characterize the
// server's natural noise: the attributes they agree on (minus an ignore
// list) are the baseline invariants. A candidate is equivalent when it
// still agrees with the baseline on every invariant; differences in any
// other attribute are irrelevant.
package oracle

import (
	"github.com/usestring/reqmin/internal/compare"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// BaselineInvariants returns the attributes equal between a and b, minus
// the ignored attributes.
func BaselineInvariants(engine *compare.Engine, a, b *rawhttp.Response, ignore []string) compare.AttrSet {
	return engine.Diff(a, b).Without(ignore...)
}

// Oracle tests candidates against a fixed baseline. It is immutable and
// safe for concurrent use.
type Oracle struct {
	engine     *compare.Engine
	baseline   compare.Fingerprint
	invariants compare.AttrSet
}

// New creates an oracle over baseline and its invariants. The baseline
// fingerprint is computed once.
func New(engine *compare.Engine, baseline *rawhttp.Response, invariants compare.AttrSet) *Oracle {
	return &Oracle{
		engine:     engine,
		baseline:   engine.Fingerprint(baseline),
		invariants: invariants,
	}
}

// FromBaselines builds the invariants from two baseline responses and
// returns an oracle over the first.
func FromBaselines(engine *compare.Engine, a, b *rawhttp.Response, ignore []string) *Oracle {
	return New(engine, a, BaselineInvariants(engine, a, b, ignore))
}

// Invariants returns the baseline invariants.
func (o *Oracle) Invariants() compare.AttrSet {
	return o.invariants
}

// IsEquivalent reports whether candidate preserves every baseline invariant.
// A nil candidate (the transport failed) is never equivalent.
func (o *Oracle) IsEquivalent(candidate *rawhttp.Response) bool {
	if candidate == nil {
		return false
	}
	return o.shared(candidate).IsSupersetOf(o.invariants)
}

// Lost returns the invariants candidate fails to reproduce, sorted.
func (o *Oracle) Lost(candidate *rawhttp.Response) []string {
	if candidate == nil {
		return o.invariants.Names()
	}
	return o.shared(candidate).Missing(o.invariants)
}

func (o *Oracle) shared(candidate *rawhttp.Response) compare.AttrSet {
	return o.engine.DiffFingerprints(o.baseline, o.engine.Fingerprint(candidate))
}
