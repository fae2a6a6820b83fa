package highlight

import "strings"

// LookupTable maps exact keys to values, optionally ignoring case. It backs
// keyword groups and prev/next marker lookups. Keys are normalized once on
// insert, so lookups only have to normalize the probed text.
type LookupTable[V any] struct {
	ignoreCase bool
	entries    map[string]V
}

// NewLookupTable creates an empty table. Case sensitivity is fixed for the
// lifetime of the table.
func NewLookupTable[V any](ignoreCase bool) *LookupTable[V] {
	return &LookupTable[V]{
		ignoreCase: ignoreCase,
		entries:    make(map[string]V),
	}
}

func (t *LookupTable[V]) normalize(key string) string {
	if t.ignoreCase {
		return strings.ToUpper(key)
	}
	return key
}

// IgnoreCase reports whether the table folds case.
func (t *LookupTable[V]) IgnoreCase() bool { return t.ignoreCase }

// Insert stores value under key and reports whether an existing entry was
// replaced.
func (t *LookupTable[V]) Insert(key string, value V) bool {
	k := t.normalize(key)
	_, existed := t.entries[k]
	t.entries[k] = value
	return existed
}

// Get returns the value stored under key.
func (t *LookupTable[V]) Get(key string) (V, bool) {
	if t == nil {
		var zero V
		return zero, false
	}
	v, ok := t.entries[t.normalize(key)]
	return v, ok
}

// Lookup returns the value whose key equals src[offset:offset+length].
// Out-of-range requests miss rather than panic.
func (t *LookupTable[V]) Lookup(src []rune, offset, length int) (V, bool) {
	var zero V
	if t == nil || len(t.entries) == 0 || length <= 0 || offset < 0 || offset+length > len(src) {
		return zero, false
	}
	return t.Get(string(src[offset : offset+length]))
}

// Delete removes key from the table.
func (t *LookupTable[V]) Delete(key string) {
	delete(t.entries, t.normalize(key))
}

// Len returns the number of entries.
func (t *LookupTable[V]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Each calls fn for every entry; iteration order is unspecified.
func (t *LookupTable[V]) Each(fn func(key string, value V)) {
	if t == nil {
		return
	}
	for k, v := range t.entries {
		fn(k, v)
	}
}

func (t *LookupTable[V]) clone() *LookupTable[V] {
	c := NewLookupTable[V](t.ignoreCase)
	for k, v := range t.entries {
		c.entries[k] = v
	}
	return c
}

// mergeFrom copies every entry of other over t, renormalizing keys for t's
// case mode.
func (t *LookupTable[V]) mergeFrom(other *LookupTable[V]) {
	if other == nil {
		return
	}
	for k, v := range other.entries {
		t.entries[t.normalize(k)] = v
	}
}
