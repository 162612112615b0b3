// Package registry holds the compiled models visible to one tenant.
//
// A Registry publishes immutable snapshots through an atomic pointer: reads
// never lock, mutations are serialized by a per-registry mutex and publish a
// fresh snapshot when they succeed.
package registry

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/compiler"
	"github.com/jacoelho/dictionary/internal/qname"
)

// Registry is a tenant-scoped collection of compiled models. Lookups that
// miss in the registry fall through to its parent.
type Registry struct {
	tenant string
	parent *Registry
	log    *slog.Logger

	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

// New returns an empty registry for tenant. parent may be nil.
func New(tenant string, parent *Registry, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default().With("component", "registry")
	}
	r := &Registry{tenant: tenant, parent: parent, log: log.With("tenant", tenant)}
	r.snap.Store(emptySnapshot())
	return r
}

// Tenant returns the tenant the registry belongs to.
func (r *Registry) Tenant() string { return r.tenant }

// Parent returns the registry lookups delegate to, or nil.
func (r *Registry) Parent() *Registry { return r.parent }

// Snapshot returns the currently published snapshot.
func (r *Registry) Snapshot() *Snapshot { return r.snap.Load() }

// Generation identifies the currently published snapshot.
func (r *Registry) Generation() string { return r.snap.Load().generation }

// PutModel registers m, replacing a model with the same name. A namespace URI
// or prefix declared by a different model of this registry or its parent is
// a NamespaceConflict.
func (r *Registry) PutModel(m *compiler.CompiledModel) error {
	if m == nil {
		return dicterrors.InvalidModel("", "compiled model is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	models := make([]*compiler.CompiledModel, 0, len(cur.order)+1)
	replaced := false
	for _, existing := range cur.Models() {
		if existing.Name() == m.Name() {
			models = append(models, m)
			replaced = true
			continue
		}
		models = append(models, existing)
	}
	if !replaced {
		models = append(models, m)
	}
	return r.publish(models)
}

// RemoveModel unregisters the model named name.
func (r *Registry) RemoveModel(name qname.QName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	if _, ok := cur.byName[name]; !ok {
		return dicterrors.ModelNotFound(name.String())
	}
	models := slices.DeleteFunc(cur.Models(), func(m *compiler.CompiledModel) bool {
		return m.Name() == name
	})
	return r.publish(models)
}

// Replace publishes models as the registry's complete contents. The previous
// snapshot stays visible until the new one is built.
func (r *Registry) Replace(models []*compiler.CompiledModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publish(slices.Clone(models))
}

// publish must be called with r.mu held.
func (r *Registry) publish(models []*compiler.CompiledModel) error {
	start := time.Now()
	next, err := buildSnapshot(models, r.parent)
	if err != nil {
		r.log.Warn("registry update rejected", "error", err)
		return err
	}
	r.snap.Store(next)
	r.log.Info("registry published",
		"generation", next.generation,
		"models", len(next.order),
		"duration", time.Since(start))
	return nil
}

// Model returns the model named name from the registry or its parent.
func (r *Registry) Model(name qname.QName) (*compiler.CompiledModel, error) {
	for cur := r; cur != nil; cur = cur.parent {
		if m := cur.snap.Load().byName[name]; m != nil {
			return m, nil
		}
	}
	return nil, dicterrors.ModelNotFound(name.String())
}

// IsModelRegistered reports whether the registry or its parent holds name.
func (r *Registry) IsModelRegistered(name qname.QName) bool {
	_, err := r.Model(name)
	return err == nil
}

// Models returns the registry's own models followed by the parent's, in
// registration order. Parent models shadowed by a local model of the same
// name are omitted.
func (r *Registry) Models() []*compiler.CompiledModel {
	var out []*compiler.CompiledModel
	seen := make(map[qname.QName]bool)
	for cur := r; cur != nil; cur = cur.parent {
		for _, m := range cur.snap.Load().Models() {
			if seen[m.Name()] {
				continue
			}
			seen[m.Name()] = true
			out = append(out, m)
		}
	}
	return out
}

// lookup returns the first non-nil result of get across the registry chain.
func lookup[T any](r *Registry, get func(*compiler.CompiledModel) *T) *T {
	for cur := r; cur != nil; cur = cur.parent {
		for _, m := range cur.snap.Load().Models() {
			if v := get(m); v != nil {
				return v
			}
		}
	}
	return nil
}

func (r *Registry) DataType(q qname.QName) *compiler.DataTypeDefinition {
	return lookup(r, func(m *compiler.CompiledModel) *compiler.DataTypeDefinition { return m.DataType(q) })
}

func (r *Registry) Class(q qname.QName) *compiler.ClassDefinition {
	return lookup(r, func(m *compiler.CompiledModel) *compiler.ClassDefinition { return m.Class(q) })
}

// Type returns the class named q when it is a type.
func (r *Registry) Type(q qname.QName) *compiler.ClassDefinition {
	if cls := r.Class(q); cls != nil && !cls.IsAspect() {
		return cls
	}
	return nil
}

// Aspect returns the class named q when it is an aspect.
func (r *Registry) Aspect(q qname.QName) *compiler.ClassDefinition {
	if cls := r.Class(q); cls != nil && cls.IsAspect() {
		return cls
	}
	return nil
}

func (r *Registry) Property(q qname.QName) *compiler.PropertyDefinition {
	return lookup(r, func(m *compiler.CompiledModel) *compiler.PropertyDefinition { return m.Property(q) })
}

func (r *Registry) Association(q qname.QName) *compiler.AssociationDefinition {
	return lookup(r, func(m *compiler.CompiledModel) *compiler.AssociationDefinition { return m.Association(q) })
}

func (r *Registry) Constraint(q qname.QName) *compiler.ConstraintDefinition {
	return lookup(r, func(m *compiler.CompiledModel) *compiler.ConstraintDefinition { return m.Constraint(q) })
}

// ModelsForURI returns the names of the models that declare uri.
func (r *Registry) ModelsForURI(uri qname.NamespaceURI) []qname.QName {
	for cur := r; cur != nil; cur = cur.parent {
		if owner, ok := cur.snap.Load().owners[uri]; ok {
			return []qname.QName{owner}
		}
	}
	return nil
}

// Dependents returns the names of this registry's own models that import a
// namespace of the model named name, directly or through another dependent.
// The model itself may live in the parent. Names are sorted.
func (r *Registry) Dependents(name qname.QName) []qname.QName {
	target, err := r.Model(name)
	if err != nil {
		return nil
	}
	uris := make(map[qname.NamespaceURI]bool)
	for _, ns := range target.Namespaces() {
		uris[ns.URI()] = true
	}
	models := r.snap.Load().Models()
	found := map[qname.QName]bool{name: true}
	var out []qname.QName
	for grew := true; grew; {
		grew = false
		for _, m := range models {
			if found[m.Name()] || !importsAny(m, uris) {
				continue
			}
			found[m.Name()] = true
			out = append(out, m.Name())
			for _, ns := range m.Namespaces() {
				uris[ns.URI()] = true
			}
			grew = true
		}
	}
	return qname.SortAndDedupe(out)
}

func importsAny(m *compiler.CompiledModel, uris map[qname.NamespaceURI]bool) bool {
	for _, ns := range m.Imports() {
		if uris[ns.URI()] {
			return true
		}
	}
	return false
}

// URIs returns every declared namespace URI, sorted.
func (r *Registry) URIs() []qname.NamespaceURI {
	seen := make(map[qname.NamespaceURI]bool)
	for cur := r; cur != nil; cur = cur.parent {
		for uri := range cur.snap.Load().owners {
			seen[uri] = true
		}
	}
	out := make([]qname.NamespaceURI, 0, len(seen))
	for uri := range seen {
		out = append(out, uri)
	}
	slices.Sort(out)
	return out
}

// Prefixes returns every declared prefix, sorted.
func (r *Registry) Prefixes() []string {
	seen := make(map[string]bool)
	for cur := r; cur != nil; cur = cur.parent {
		for prefix := range cur.snap.Load().prefixURI {
			seen[prefix] = true
		}
	}
	out := make([]string, 0, len(seen))
	for prefix := range seen {
		out = append(out, prefix)
	}
	slices.Sort(out)
	return out
}

// NamespaceURI returns the URI bound to prefix.
func (r *Registry) NamespaceURI(prefix string) (qname.NamespaceURI, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		if uri, ok := cur.snap.Load().prefixURI[prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

// PrefixesOf returns the prefixes bound to uri.
func (r *Registry) PrefixesOf(uri qname.NamespaceURI) []string {
	for cur := r; cur != nil; cur = cur.parent {
		if prefixes := cur.snap.Load().uriPrefixes[uri]; len(prefixes) > 0 {
			return slices.Clone(prefixes)
		}
	}
	return nil
}

// Prefix returns the first prefix bound to uri, so a Registry can format
// names as a qname.Resolver.
func (r *Registry) Prefix(uri qname.NamespaceURI) (string, bool) {
	prefixes := r.PrefixesOf(uri)
	if len(prefixes) == 0 {
		return "", false
	}
	return prefixes[0], true
}

// SubClasses returns the classes whose parent is super. With follow set it
// returns every transitive sub class. Results are ordered by name.
func (r *Registry) SubClasses(super qname.QName, follow bool) []*compiler.ClassDefinition {
	var out []*compiler.ClassDefinition
	for _, m := range r.Models() {
		for _, cls := range m.Classes() {
			if cls.Name() == super {
				continue
			}
			if follow && cls.IsSubClassOf(super) || !follow && cls.ParentName() == super {
				out = append(out, cls)
			}
		}
	}
	slices.SortFunc(out, func(a, b *compiler.ClassDefinition) int {
		return qname.Compare(a.Name(), b.Name())
	})
	return out
}

// TypesOf returns the types declared by the model named name.
func (r *Registry) TypesOf(name qname.QName) ([]*compiler.ClassDefinition, error) {
	m, err := r.Model(name)
	if err != nil {
		return nil, err
	}
	return m.Types(), nil
}

// AspectsOf returns the aspects declared by the model named name.
func (r *Registry) AspectsOf(name qname.QName) ([]*compiler.ClassDefinition, error) {
	m, err := r.Model(name)
	if err != nil {
		return nil, err
	}
	return m.Aspects(), nil
}

// PropertiesOfDataType returns the declared properties whose data type is
// dataType, ordered by name.
func (r *Registry) PropertiesOfDataType(dataType qname.QName) []*compiler.PropertyDefinition {
	var out []*compiler.PropertyDefinition
	for _, m := range r.Models() {
		for _, p := range m.Properties() {
			if p.DataTypeName() == dataType {
				out = append(out, p)
			}
		}
	}
	slices.SortFunc(out, func(a, b *compiler.PropertyDefinition) int {
		return qname.Compare(a.Name(), b.Name())
	})
	return out
}

// Snapshot is an immutable view of a registry's models and namespaces.
type Snapshot struct {
	generation  string
	published   time.Time
	order       []qname.QName
	byName      map[qname.QName]*compiler.CompiledModel
	owners      map[qname.NamespaceURI]qname.QName
	prefixURI   map[string]qname.NamespaceURI
	uriPrefixes map[qname.NamespaceURI][]string
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		generation:  uuid.NewString(),
		published:   time.Now(),
		byName:      make(map[qname.QName]*compiler.CompiledModel),
		owners:      make(map[qname.NamespaceURI]qname.QName),
		prefixURI:   make(map[string]qname.NamespaceURI),
		uriPrefixes: make(map[qname.NamespaceURI][]string),
	}
}

// Generation returns the snapshot's unique id.
func (s *Snapshot) Generation() string { return s.generation }

// Published returns the time the snapshot was built.
func (s *Snapshot) Published() time.Time { return s.published }

// ModelNames returns the snapshot's own model names in registration order.
func (s *Snapshot) ModelNames() []qname.QName { return slices.Clone(s.order) }

// Model returns the snapshot's own model named name, or nil.
func (s *Snapshot) Model(name qname.QName) *compiler.CompiledModel { return s.byName[name] }

// Models returns the snapshot's own models in registration order.
func (s *Snapshot) Models() []*compiler.CompiledModel {
	out := make([]*compiler.CompiledModel, len(s.order))
	for i, name := range s.order {
		out[i] = s.byName[name]
	}
	return out
}

func buildSnapshot(models []*compiler.CompiledModel, parent *Registry) (*Snapshot, error) {
	s := emptySnapshot()
	for _, m := range models {
		name := m.Name()
		if _, dup := s.byName[name]; dup {
			return nil, dicterrors.DuplicateDefinition(name.String(), "model", m.Model().PrefixedName())
		}
		for _, ns := range m.Namespaces() {
			if err := s.bind(m, ns, parent); err != nil {
				return nil, err
			}
		}
		s.byName[name] = m
		s.order = append(s.order, name)
	}
	return s, nil
}

func (s *Snapshot) bind(m *compiler.CompiledModel, ns *compiler.NamespaceDefinition, parent *Registry) error {
	model := m.Model().PrefixedName()
	uri, prefix := ns.URI(), ns.Prefix()
	if owner, ok := s.owners[uri]; ok && owner != m.Name() {
		return dicterrors.NamespaceConflict(model, uri.String(), owner.String())
	}
	if bound, ok := s.prefixURI[prefix]; ok && bound != uri {
		return dicterrors.NamespaceConflict(model, prefix, s.owners[bound].String())
	}
	for cur := parent; cur != nil; cur = cur.parent {
		ps := cur.snap.Load()
		if owner, ok := ps.owners[uri]; ok && owner != m.Name() {
			return dicterrors.NamespaceConflict(model, uri.String(), owner.String())
		}
		if bound, ok := ps.prefixURI[prefix]; ok && bound != uri {
			return dicterrors.NamespaceConflict(model, prefix, ps.owners[bound].String())
		}
	}
	s.owners[uri] = m.Name()
	s.prefixURI[prefix] = uri
	if !slices.Contains(s.uriPrefixes[uri], prefix) {
		s.uriPrefixes[uri] = append(s.uriPrefixes[uri], prefix)
	}
	return nil
}
