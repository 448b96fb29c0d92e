package httpx

import "strings"

// Header is a case-insensitive multimap of HTTP header fields. Keys are
// stored lowercased; the parser folds values too, which keeps downstream
// comparisons simple.
//
// Insertion order is preserved per key's first appearance so the serializer
// can emit headers in the order they were added; header order is observable
// on the wire.
type Header struct {
	order  []string
	values map[string][]string
}

// NewHeader returns an empty Header.
func NewHeader() *Header {
	return &Header{values: make(map[string][]string)}
}

// Add appends value under key, lowercasing the key. A repeated key keeps
// every value (a true multimap), matching HTTP semantics for headers like
// Cookie or Set-Cookie that may legally repeat.
func (h *Header) Add(key, value string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = append(h.values[key], value)
}

// Set replaces all values for key with value.
func (h *Header) Set(key, value string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = []string{value}
}

// Get returns the first value for key, or "" if absent.
func (h *Header) Get(key string) string {
	vs := h.values[strings.ToLower(key)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Values returns every value stored under key.
func (h *Header) Values(key string) []string {
	return h.values[strings.ToLower(key)]
}

// Has reports whether key has at least one value.
func (h *Header) Has(key string) bool {
	return len(h.values[strings.ToLower(key)]) > 0
}

// Del removes all values for key.
func (h *Header) Del(key string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Each calls fn once per (key, value) pair in insertion order. A key with
// multiple values yields one call per value.
func (h *Header) Each(fn func(key, value string)) {
	for _, key := range h.order {
		for _, v := range h.values[key] {
			fn(key, v)
		}
	}
}

// Clone returns a deep copy of h.
func (h *Header) Clone() *Header {
	c := NewHeader()
	h.Each(func(k, v string) { c.Add(k, v) })
	return c
}
