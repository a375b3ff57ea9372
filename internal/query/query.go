// Package query encodes the state kept in a URL fragment: the filter query of
// the replay feed and the turn/perspective of a shared replay link.
package query

import (
	"strings"

	"github.com/iancoleman/orderedmap"
)

// Query is a flat key-value filter query that keeps insertion order, so a
// serialized fragment is stable across round trips.
//
// An empty value means the key is absent.
type Query struct {
	m *orderedmap.OrderedMap
}

// New returns an empty query.
func New() *Query {
	return &Query{m: orderedmap.New()}
}

// Parse decodes a fragment such as "name=rdu&mode=ranked". A leading "#" is
// ignored. A term is kept only when splitting it on "=" yields exactly a
// non-empty key and a non-empty value, so values containing "=" are dropped.
func Parse(fragment string) *Query {
	q := New()
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return q
	}

	for _, term := range strings.Split(fragment, "&") {
		kv := strings.Split(term, "=")
		if len(kv) == 2 && kv[0] != "" && kv[1] != "" {
			q.m.Set(kv[0], kv[1])
		}
	}
	return q
}

// Get returns the value for key, or "" when absent.
func (q *Query) Get(key string) string {
	v, ok := q.m.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Has reports whether key has a non-empty value.
func (q *Query) Has(key string) bool {
	return q.Get(key) != ""
}

// Set assigns value to key, keeping the key's original position when it
// already exists. Setting an empty value removes the key.
func (q *Query) Set(key, value string) {
	if key == "" {
		return
	}
	if value == "" {
		q.m.Delete(key)
		return
	}
	q.m.Set(key, value)
}

// Delete removes key.
func (q *Query) Delete(key string) {
	q.m.Delete(key)
}

// Keys returns the keys with non-empty values in insertion order.
func (q *Query) Keys() []string {
	keys := make([]string, 0, len(q.m.Keys()))
	for _, k := range q.m.Keys() {
		if k != "" && q.Get(k) != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len is the number of non-empty entries.
func (q *Query) Len() int {
	return len(q.Keys())
}

// String serializes the query as "key=value" pairs joined with "&" in
// insertion order. Pairs with an empty key or value are omitted.
func (q *Query) String() string {
	keys := q.Keys()
	if len(keys) == 0 {
		return ""
	}
	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		terms = append(terms, k+"="+q.Get(k))
	}
	return strings.Join(terms, "&")
}

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	c := New()
	for _, k := range q.Keys() {
		c.m.Set(k, q.Get(k))
	}
	return c
}

// Equal reports whether both queries hold the same non-empty entries,
// regardless of order.
func (q *Query) Equal(o *Query) bool {
	if q.Len() != o.Len() {
		return false
	}
	for _, k := range q.Keys() {
		if o.Get(k) != q.Get(k) {
			return false
		}
	}
	return true
}
