package qname

import (
	"fmt"
	"maps"
	"slices"
)

// Resolver maps prefixes to namespace URIs and back.
type Resolver interface {
	NamespaceURI(prefix string) (NamespaceURI, bool)
	Prefix(uri NamespaceURI) (string, bool)
}

// MapResolver is a bidirectional prefix/URI map. The zero value is empty
// but must be created with NewMapResolver before Bind is called.
type MapResolver struct {
	byPrefix map[string]NamespaceURI
	byURI    map[NamespaceURI]string
}

// NewMapResolver returns an empty resolver.
func NewMapResolver() *MapResolver {
	return &MapResolver{
		byPrefix: make(map[string]NamespaceURI),
		byURI:    make(map[NamespaceURI]string),
	}
}

// Bind registers prefix for uri. Rebinding a prefix to a different URI fails.
func (m *MapResolver) Bind(prefix string, uri NamespaceURI) error {
	if existing, ok := m.byPrefix[prefix]; ok {
		if existing == uri {
			return nil
		}
		return fmt.Errorf("prefix %s already bound to %s", prefix, existing)
	}
	m.byPrefix[prefix] = uri
	if _, ok := m.byURI[uri]; !ok {
		m.byURI[uri] = prefix
	}
	return nil
}

// NamespaceURI implements Resolver.
func (m *MapResolver) NamespaceURI(prefix string) (NamespaceURI, bool) {
	if m == nil {
		return "", false
	}
	uri, ok := m.byPrefix[prefix]
	return uri, ok
}

// Prefix implements Resolver.
func (m *MapResolver) Prefix(uri NamespaceURI) (string, bool) {
	if m == nil {
		return "", false
	}
	prefix, ok := m.byURI[uri]
	return prefix, ok
}

// Prefixes returns bound prefixes in sorted order.
func (m *MapResolver) Prefixes() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.byPrefix))
}

// ChainResolver consults each resolver in order.
type ChainResolver []Resolver

// NamespaceURI implements Resolver.
func (c ChainResolver) NamespaceURI(prefix string) (NamespaceURI, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if uri, ok := r.NamespaceURI(prefix); ok {
			return uri, true
		}
	}
	return "", false
}

// Prefix implements Resolver.
func (c ChainResolver) Prefix(uri NamespaceURI) (string, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if prefix, ok := r.Prefix(uri); ok {
			return prefix, true
		}
	}
	return "", false
}
