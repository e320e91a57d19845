package compare

import (
	"slices"
	"strings"

	"github.com/usestring/reqmin/internal/markers"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// Engine fingerprints responses and diffs them. It is safe for concurrent
// use; markers are evaluated on every fingerprint.
type Engine struct {
	registry *Registry
	markers  []*markers.Compiled
}

// NewEngine creates an engine that adds one attribute per marker.
func NewEngine(reg *Registry, ms []*markers.Compiled) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Engine{registry: reg, markers: ms}
}

// Registry returns the attribute registry sets from this engine belong to.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Fingerprint computes the built-in attributes and marker attributes of resp.
func (e *Engine) Fingerprint(resp *rawhttp.Response) Fingerprint {
	fp := fingerprintResponse(resp)
	ct := resp.Headers.Get("Content-Type")
	for _, m := range e.markers {
		fp[MarkerPrefix+m.Name] = m.Evaluate(resp.Body, ct)
	}
	return fp
}

// Diff returns the attributes whose values are equal in a and b.
func (e *Engine) Diff(a, b *rawhttp.Response) AttrSet {
	return e.DiffFingerprints(e.Fingerprint(a), e.Fingerprint(b))
}

// DiffFingerprints returns the attributes present in both fingerprints with
// equal values.
func (e *Engine) DiffFingerprints(a, b Fingerprint) AttrSet {
	set := NewAttrSet(e.registry)
	for name, va := range a {
		if vb, ok := b[name]; ok && va == vb {
			set.bm.Add(e.registry.ID(name))
		}
	}
	return set
}

// HeaderValueDiff describes a response header whose values differ.
type HeaderValueDiff struct {
	Name      string   `json:"name"`
	Baseline  []string `json:"baseline"`
	Candidate []string `json:"candidate"`
}

// Comparison is a human-facing diff of two responses.
type Comparison struct {
	Invariant      []string          `json:"invariant"`
	Variant        []string          `json:"variant"`
	HeadersMissing []string          `json:"headers_missing,omitempty"`
	HeadersExtra   []string          `json:"headers_extra,omitempty"`
	HeadersChanged []HeaderValueDiff `json:"headers_changed,omitempty"`
	IgnoredHeaders []string          `json:"ignored_headers,omitempty"`
}

// Compare diffs a and b. Attributes in ignore are reported in neither list.
func (e *Engine) Compare(a, b *rawhttp.Response, ignore []string) *Comparison {
	fa, fb := e.Fingerprint(a), e.Fingerprint(b)
	same := e.DiffFingerprints(fa, fb).Without(ignore...)

	var variant []string
	for name := range fa {
		if !same.Contains(name) && !slices.Contains(ignore, name) {
			variant = append(variant, name)
		}
	}
	slices.Sort(variant)

	missing, extra, changed, ignored := diffHeaders(
		normalizeHeaders(a.Headers),
		normalizeHeaders(b.Headers),
		DefaultIgnoreHeaders,
	)

	return &Comparison{
		Invariant:      same.Names(),
		Variant:        variant,
		HeadersMissing: missing,
		HeadersExtra:   extra,
		HeadersChanged: changed,
		IgnoredHeaders: ignored,
	}
}

// normalizeHeaders groups header values by lowercased name.
func normalizeHeaders(headers rawhttp.Headers) map[string][]string {
	result := make(map[string][]string)
	for _, pair := range headers {
		if len(pair) >= 2 {
			name := strings.ToLower(pair[0])
			result[name] = append(result[name], pair[1])
		}
	}
	return result
}

// diffHeaders compares header presence and values. All returned slices are
// sorted by header name.
func diffHeaders(baseline, candidate map[string][]string, ignore []string) (missing, extra []string, changed []HeaderValueDiff, ignored []string) {
	ignoreSet := make(map[string]struct{}, len(ignore))
	for _, h := range ignore {
		ignoreSet[strings.ToLower(h)] = struct{}{}
	}

	missing, extra, changed, ignored = []string{}, []string{}, []HeaderValueDiff{}, []string{}

	// Find missing and changed headers
	for name, baselineValues := range baseline {
		if _, skip := ignoreSet[name]; skip {
			if _, inCandidate := candidate[name]; inCandidate {
				ignored = append(ignored, name)
			}
			continue
		}

		candidateValues, exists := candidate[name]
		if !exists {
			missing = append(missing, name)
			continue
		}

		if !slices.Equal(baselineValues, candidateValues) {
			changed = append(changed, HeaderValueDiff{
				Name:      name,
				Baseline:  baselineValues,
				Candidate: candidateValues,
			})
		}
	}

	// Find extra headers
	for name := range candidate {
		if _, skip := ignoreSet[name]; skip {
			continue
		}
		if _, exists := baseline[name]; !exists {
			extra = append(extra, name)
		}
	}

	slices.Sort(missing)
	slices.Sort(extra)
	slices.Sort(ignored)
	slices.SortFunc(changed, func(a, b HeaderValueDiff) int { return strings.Compare(a.Name, b.Name) })
	return missing, extra, changed, ignored
}
