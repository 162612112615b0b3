package qname

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// NamespaceURI represents a namespace URI.
// This is a newtype over string to provide type safety for namespace URIs.
type NamespaceURI string

// NamespaceEmpty represents an empty namespace URI (no namespace).
const NamespaceEmpty NamespaceURI = ""

// String returns the namespace URI as a string.
func (ns NamespaceURI) String() string {
	return string(ns)
}

// IsEmpty returns true if the namespace URI is empty.
func (ns NamespaceURI) IsEmpty() bool {
	return ns == NamespaceEmpty
}

// QName represents a qualified name with namespace and local part.
type QName struct {
	Namespace NamespaceURI
	Local     string
}

// New builds a QName from a namespace URI and local name.
func New(ns NamespaceURI, local string) QName {
	return QName{Namespace: ns, Local: local}
}

// String returns the QName in {namespace}local format, or just local if no namespace.
func (q QName) String() string {
	if q.Namespace.IsEmpty() {
		return q.Local
	}
	return "{" + q.Namespace.String() + "}" + q.Local
}

// IsZero returns true if the QName is the zero value.
func (q QName) IsZero() bool {
	return q.Namespace.IsEmpty() && q.Local == ""
}

// Equal returns true if two QNames are equal.
func (q QName) Equal(other QName) bool {
	return q.Namespace == other.Namespace && q.Local == other.Local
}

// SplitPrefixed splits a prefixed name into prefix/local without validation.
func SplitPrefixed(name string) (prefix, local string, hasPrefix bool) {
	prefix, local, hasPrefix = strings.Cut(name, ":")
	if !hasPrefix {
		return "", name, false
	}
	return prefix, local, true
}

// Parse resolves a prefixed name ("cm:content") or Clark notation
// ("{uri}content") into a QName.
func Parse(name string, r Resolver) (QName, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return QName{}, fmt.Errorf("invalid qname: empty string")
	}
	if strings.HasPrefix(trimmed, "{") {
		end := strings.IndexByte(trimmed, '}')
		if end < 0 {
			return QName{}, fmt.Errorf("invalid qname %q: missing closing brace", trimmed)
		}
		local := trimmed[end+1:]
		if !isValidLocal(local) {
			return QName{}, fmt.Errorf("invalid qname %q: bad local name", trimmed)
		}
		return QName{Namespace: NamespaceURI(trimmed[1:end]), Local: local}, nil
	}

	prefix, local, hasPrefix := SplitPrefixed(trimmed)
	if !isValidLocal(local) || (hasPrefix && !isValidLocal(prefix)) {
		return QName{}, fmt.Errorf("invalid qname %q", trimmed)
	}
	var ns NamespaceURI
	ok := false
	if r != nil {
		ns, ok = r.NamespaceURI(prefix)
	}
	if !ok {
		if !hasPrefix {
			return QName{Local: local}, nil
		}
		return QName{}, fmt.Errorf("prefix %s not found in namespace context", prefix)
	}
	return QName{Namespace: ns, Local: local}, nil
}

// MustParse is like Parse but panics on error. Intended for static names.
func MustParse(name string, r Resolver) QName {
	q, err := Parse(name, r)
	if err != nil {
		panic(err)
	}
	return q
}

// Format renders q as prefix:local when r knows a prefix for its namespace,
// otherwise in Clark notation.
func Format(q QName, r Resolver) string {
	if q.Namespace.IsEmpty() {
		return q.Local
	}
	if r != nil {
		if prefix, ok := r.Prefix(q.Namespace); ok {
			if prefix == "" {
				return q.Local
			}
			return prefix + ":" + q.Local
		}
	}
	return q.String()
}

// Compare orders QNames by namespace and then local name.
func Compare(left, right QName) int {
	if c := cmp.Compare(left.Namespace, right.Namespace); c != 0 {
		return c
	}
	return cmp.Compare(left.Local, right.Local)
}

// SortedMapKeys returns the keys of m in Compare order.
func SortedMapKeys[V any](m map[QName]V) []QName {
	return slices.SortedFunc(maps.Keys(m), Compare)
}

// SortAndDedupe sorts names in place and drops duplicates.
func SortAndDedupe(names []QName) []QName {
	slices.SortFunc(names, Compare)
	return slices.Compact(names)
}

func isValidLocal(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r > 0x7f:
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}
