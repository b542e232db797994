// Package store holds a flow instance's property values as strings keyed by
// namespace and name, along with a transient cache of decoded values
package store

import (
	"slices"

	"github.com/kode4food/argyll/wizard/pkg/api"
)

type (
	// Key addresses one stored value. The empty namespace is the global
	// namespace
	Key struct {
		Namespace string
		Name      api.Name
	}

	// Entry is one exported key and value
	Entry struct {
		Key   Key
		Value string
	}

	// Store is the namespaced value store. It is not safe for concurrent
	// use; a flow instance is driven by one caller at a time
	Store struct {
		values map[Key]string
		order  []Key
		cache  map[Key]any
	}
)

// Global is the namespace shared by every flow
const Global = ""

// NewKey returns the key for name within namespace
func NewKey(namespace string, name api.Name) Key {
	return Key{Namespace: namespace, Name: name}
}

func (k Key) String() string {
	if k.Namespace == Global {
		return string(k.Name)
	}
	return k.Namespace + ":" + string(k.Name)
}

// New returns an empty store
func New() *Store {
	return &Store{
		values: map[Key]string{},
		cache:  map[Key]any{},
	}
}

// Get returns the raw value stored under k
func (s *Store) Get(k Key) (string, bool) {
	v, ok := s.values[k]
	return v, ok
}

// Has reports whether a value is stored under k
func (s *Store) Has(k Key) bool {
	_, ok := s.values[k]
	return ok
}

// Set stores v under k. A replaced value keeps its export position, and
// any cached decoding of the old value is dropped
func (s *Store) Set(k Key, v string) {
	if _, ok := s.values[k]; !ok {
		s.order = append(s.order, k)
	}
	s.values[k] = v
	delete(s.cache, k)
}

// Remove deletes the value stored under k, reporting whether there was one
func (s *Store) Remove(k Key) bool {
	if _, ok := s.values[k]; !ok {
		return false
	}
	delete(s.values, k)
	delete(s.cache, k)
	s.order = slices.DeleteFunc(s.order, func(o Key) bool {
		return o == k
	})
	return true
}

// RemoveNamespace deletes every value stored in namespace and returns the
// removed keys
func (s *Store) RemoveNamespace(namespace string) []Key {
	var res []Key
	for _, k := range s.Keys() {
		if k.Namespace == namespace {
			s.Remove(k)
			res = append(res, k)
		}
	}
	return res
}

// Keys returns the stored keys in insertion order
func (s *Store) Keys() []Key {
	return slices.Clone(s.order)
}

// Len returns the number of stored values
func (s *Store) Len() int {
	return len(s.order)
}

// Export returns every stored value in insertion order
func (s *Store) Export() []Entry {
	res := make([]Entry, len(s.order))
	for i, k := range s.order {
		res[i] = Entry{Key: k, Value: s.values[k]}
	}
	return res
}

// Import stores every entry, in order, over the current contents
func (s *Store) Import(entries []Entry) {
	for _, e := range entries {
		s.Set(e.Key, e.Value)
	}
}

// Cached returns the decoded value cached for k
func (s *Store) Cached(k Key) (any, bool) {
	v, ok := s.cache[k]
	return v, ok
}

// Cache remembers the decoded value for k until the raw value changes or
// the cache is cleared
func (s *Store) Cache(k Key, v any) {
	s.cache[k] = v
}

// Uncache drops the decoded value cached for k
func (s *Store) Uncache(k Key) {
	delete(s.cache, k)
}

// ClearCache drops every cached decoded value
func (s *Store) ClearCache() {
	clear(s.cache)
}
