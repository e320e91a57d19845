package compare

import (
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Registry assigns stable bitmap positions to attribute names. Built-in
// attributes are registered up front; marker attributes are added on first
// use.
type Registry struct {
	mu    sync.RWMutex
	ids   map[string]uint32
	names []string
}

// NewRegistry creates a registry holding the built-in attributes.
func NewRegistry() *Registry {
	r := &Registry{ids: make(map[string]uint32, len(Attributes))}
	for _, name := range Attributes {
		r.ID(name)
	}
	return r
}

// ID returns the position of name, registering it if needed.
func (r *Registry) ID(name string) uint32 {
	r.mu.RLock()
	id, ok := r.ids[name]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id = uint32(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

// lookup returns the position of name without registering it.
func (r *Registry) lookup(name string) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[name]
	return id, ok
}

// Name returns the attribute name at position id.
func (r *Registry) Name(id uint32) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// AttrSet is an immutable set of attribute names backed by a roaring bitmap.
// Sets are only comparable when they come from the same Registry.
type AttrSet struct {
	reg *Registry
	bm  *roaring.Bitmap
}

// NewAttrSet builds a set from attribute names.
func NewAttrSet(reg *Registry, names ...string) AttrSet {
	bm := roaring.New()
	for _, n := range names {
		bm.Add(reg.ID(n))
	}
	return AttrSet{reg: reg, bm: bm}
}

// Len returns the number of attributes in the set.
func (s AttrSet) Len() int {
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

// Contains reports whether name is in the set.
func (s AttrSet) Contains(name string) bool {
	if s.bm == nil {
		return false
	}
	id, ok := s.reg.lookup(name)
	return ok && s.bm.Contains(id)
}

// Names returns the attribute names in sorted order.
func (s AttrSet) Names() []string {
	names := make([]string, 0, s.Len())
	if s.bm == nil {
		return names
	}
	it := s.bm.Iterator()
	for it.HasNext() {
		names = append(names, s.reg.Name(it.Next()))
	}
	slices.Sort(names)
	return names
}

// Without returns a copy of the set minus the given names.
func (s AttrSet) Without(names ...string) AttrSet {
	out := roaring.New()
	if s.bm != nil {
		out = s.bm.Clone()
	}
	for _, n := range names {
		if id, ok := s.reg.lookup(n); ok {
			out.Remove(id)
		}
	}
	return AttrSet{reg: s.reg, bm: out}
}

// IsSupersetOf reports whether every attribute of o is also in s.
func (s AttrSet) IsSupersetOf(o AttrSet) bool {
	if o.Len() == 0 {
		return true
	}
	if s.bm == nil {
		return false
	}
	return roaring.AndNot(o.bm, s.bm).IsEmpty()
}

// Missing returns the attributes of o that s lacks, sorted.
func (s AttrSet) Missing(o AttrSet) []string {
	if o.bm == nil {
		return []string{}
	}
	diff := o.bm
	if s.bm != nil {
		diff = roaring.AndNot(o.bm, s.bm)
	}
	return AttrSet{reg: o.reg, bm: diff}.Names()
}
