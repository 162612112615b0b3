package dictionary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/compiler"
	"github.com/jacoelho/dictionary/internal/m2"
	"github.com/jacoelho/dictionary/internal/registry"
	"github.com/jacoelho/dictionary/internal/store"
)

// CoreTenant is the tenant whose registry is the parent of every other one.
const CoreTenant = ""

const defaultRefreshTimeout = 30 * time.Second

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Store persists model documents; nil uses an in-memory store.
	Store Store
	// Notifier spreads invalidations to other nodes; optional.
	Notifier Notifier
	Logger   *slog.Logger
	// Metrics records compilations; nil records nothing.
	Metrics     *Metrics
	LoadOptions LoadOptions
	// RefreshTimeout bounds a background registry rebuild.
	RefreshTimeout time.Duration
}

// Service manages one registry per tenant, backed by a model store.
// Registries are built on first use and rebuilt copy-on-write: readers keep
// the previous snapshot until a rebuild publishes.
type Service struct {
	cfg       ServiceConfig
	log       *slog.Logger
	bootstrap []*CompiledModel
	group     singleflight.Group

	mu         sync.Mutex
	registries map[string]*registry.Registry
	writers    map[string]*sync.Mutex
	closed     bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService compiles the built-in models and subscribes to invalidations.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.LoadOptions.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default().With("component", "dictionary")
	}
	if cfg.LoadOptions.logger == nil {
		cfg.LoadOptions = cfg.LoadOptions.WithLogger(log)
	}
	s := &Service{
		cfg:        cfg,
		log:        log,
		registries: make(map[string]*registry.Registry),
		writers:    make(map[string]*sync.Mutex),
	}
	if !cfg.LoadOptions.withoutBootstrap {
		core, err := compileBootstrap(cfg.LoadOptions)
		if err != nil {
			return nil, err
		}
		s.bootstrap = core
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if cfg.Notifier != nil {
		if err := cfg.Notifier.Subscribe(ctx, s.drop); err != nil {
			cancel()
			return nil, fmt.Errorf("subscribe invalidations: %w", err)
		}
	}
	return s, nil
}

// Registry returns tenant's registry, building it from the store on first
// use.
func (s *Service) Registry(ctx context.Context, tenant string) (*Registry, error) {
	if reg, err := s.cached(tenant); reg != nil || err != nil {
		return reg, err
	}
	v, err, _ := s.group.Do("build:"+tenant, func() (any, error) {
		if reg, err := s.cached(tenant); reg != nil || err != nil {
			return reg, err
		}
		var parent *registry.Registry
		if tenant != CoreTenant {
			p, err := s.Registry(ctx, CoreTenant)
			if err != nil {
				return nil, err
			}
			parent = p
		}
		reg := registry.New(tenant, parent, s.log)
		if err := s.rebuild(ctx, reg); err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return nil, errServiceClosed
		}
		s.registries[tenant] = reg
		return reg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*registry.Registry), nil
}

var errServiceClosed = errors.New("dictionary service closed")

func (s *Service) cached(tenant string) (*registry.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errServiceClosed
	}
	return s.registries[tenant], nil
}

// writer returns the lock serializing store reads and writes that feed
// tenant's registry.
func (s *Service) writer(tenant string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.writers[tenant]
	if !ok {
		l = new(sync.Mutex)
		s.writers[tenant] = l
	}
	return l
}

// rebuild compiles tenant's stored models into a scratch registry and
// publishes the result into reg in one step. Writes to the tenant wait until
// it has published.
func (s *Service) rebuild(ctx context.Context, reg *registry.Registry) error {
	tenant := reg.Tenant()
	w := s.writer(tenant)
	w.Lock()
	defer w.Unlock()

	ctx, done := s.cfg.Metrics.StartRefresh(ctx, tenant)
	start := time.Now()

	records, err := s.cfg.Store.List(ctx, tenant)
	if err != nil {
		done(err)
		return fmt.Errorf("rebuild tenant %q: %w", tenant, err)
	}
	scratch := registry.New(tenant, reg.Parent(), s.log)
	if tenant == CoreTenant {
		if err := scratch.Replace(s.bootstrap); err != nil {
			done(err)
			return err
		}
	}
	models := make([]*m2.Model, 0, len(records))
	for _, rec := range records {
		m, err := decodeRecord(rec)
		if err != nil {
			s.log.WarnContext(ctx, "skipping stored model", "tenant", tenant, "model", rec.Name, "error", err)
			continue
		}
		models = append(models, m)
	}
	res := compileInto(ctx, scratch, models, s.cfg.LoadOptions, s.cfg.Metrics)
	for _, f := range res.Failures {
		s.log.WarnContext(ctx, "stored model does not compile", "tenant", tenant, "model", f.Model, "error", f.Err)
	}
	err = reg.Replace(scratch.Snapshot().Models())
	done(err)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "tenant registry rebuilt",
		"tenant", tenant,
		"models", len(res.Models),
		"failures", len(res.Failures),
		"generation", reg.Generation(),
		"duration", time.Since(start))
	return nil
}

func decodeRecord(rec store.Record) (*m2.Model, error) {
	format, err := m2.ParseFormat(rec.Format)
	if err != nil {
		return nil, err
	}
	return m2.DecodeBytes(rec.Document, format)
}

// PutModel compiles m against tenant's registry, persists it and registers
// it. Replacing a model recompiles the models that import it; the update is
// rejected when one of them no longer compiles. It returns the model name.
func (s *Service) PutModel(ctx context.Context, tenant string, m *Model) (QName, error) {
	if m == nil {
		return QName{}, dicterrors.InvalidModel("", "model is nil")
	}
	reg, err := s.Registry(ctx, tenant)
	if err != nil {
		return QName{}, err
	}
	w := s.writer(tenant)
	w.Lock()
	defer w.Unlock()

	_, done := s.cfg.Metrics.StartCompile(ctx, tenant, m.Name)
	cm, err := compiler.Compile(m, reg, s.cfg.LoadOptions.compilerOptions())
	done(err)
	if err != nil {
		return QName{}, err
	}
	doc, err := m2.Canonical(m)
	if err != nil {
		return QName{}, err
	}
	next, err := s.withModel(ctx, reg, cm)
	if err != nil {
		return QName{}, err
	}

	previous := reg.Snapshot().Models()
	if err := reg.Replace(next); err != nil {
		return QName{}, dicterrors.Compiled(m.Name, err)
	}
	name := cm.Name()
	rec := store.Record{
		Tenant:   tenant,
		Name:     name.String(),
		Format:   m2.FormatJSON.String(),
		Document: doc,
		Checksum: cm.Model().Checksum(),
	}
	if v := cm.Model().Version(); v != nil {
		rec.Version = v.String()
	}
	if err := s.cfg.Store.Put(ctx, rec); err != nil {
		s.restore(reg, previous)
		return QName{}, fmt.Errorf("put model %s: %w", m.Name, err)
	}
	s.dropChildren(tenant)
	s.log.InfoContext(ctx, "model registered", "tenant", tenant, "model", m.Name, "generation", reg.Generation())
	s.publish(ctx, tenant)
	return name, nil
}

// withModel returns reg's models with cm in place of the model of the same
// name and every model depending on it recompiled from the store.
func (s *Service) withModel(ctx context.Context, reg *registry.Registry, cm *CompiledModel) ([]*CompiledModel, error) {
	name := cm.Name()
	dependents := reg.Dependents(name)
	scratch := registry.New(reg.Tenant(), reg.Parent(), s.log)
	keep := slices.DeleteFunc(reg.Snapshot().Models(), func(c *CompiledModel) bool {
		return c.Name() == name || slices.Contains(dependents, c.Name())
	})
	if err := scratch.Replace(keep); err != nil {
		return nil, err
	}
	if err := scratch.PutModel(cm); err != nil {
		return nil, dicterrors.Compiled(cm.Model().PrefixedName(), err)
	}
	if len(dependents) == 0 {
		return scratch.Snapshot().Models(), nil
	}

	sources := make([]*m2.Model, 0, len(dependents))
	for _, dep := range dependents {
		rec, err := s.cfg.Store.Get(ctx, reg.Tenant(), dep.String())
		if err != nil {
			return nil, fmt.Errorf("load dependent model %s: %w", dep, err)
		}
		src, err := decodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("decode dependent model %s: %w", dep, err)
		}
		sources = append(sources, src)
	}
	res := compileInto(ctx, scratch, sources, s.cfg.LoadOptions, s.cfg.Metrics)
	if len(res.Failures) > 0 {
		return nil, fmt.Errorf("models importing %s do not compile: %w", cm.Model().PrefixedName(), res.Failures)
	}
	return scratch.Snapshot().Models(), nil
}

// restore puts back the models a failed store write replaced.
func (s *Service) restore(reg *registry.Registry, previous []*CompiledModel) {
	if err := reg.Replace(previous); err != nil {
		s.log.Error("registry restore failed", "tenant", reg.Tenant(), "error", err)
	}
}

// RemoveModel unregisters the model named name and deletes it from the
// store. A model still imported by another model is not removed.
func (s *Service) RemoveModel(ctx context.Context, tenant string, name QName) error {
	reg, err := s.Registry(ctx, tenant)
	if err != nil {
		return err
	}
	w := s.writer(tenant)
	w.Lock()
	defer w.Unlock()

	if reg.Snapshot().Model(name) == nil {
		return dicterrors.ModelNotFound(name.String())
	}
	if deps := s.dependents(reg, name); len(deps) > 0 {
		return dicterrors.ModelInUse(name.String(), deps)
	}
	if err := s.cfg.Store.Delete(ctx, tenant, name.String()); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("remove model %s: %w", name, err)
	}
	if err := reg.RemoveModel(name); err != nil {
		return err
	}
	s.dropChildren(tenant)
	s.log.InfoContext(ctx, "model removed", "tenant", tenant, "model", name.String(), "generation", reg.Generation())
	s.publish(ctx, tenant)
	return nil
}

// dependents lists the models importing name in reg and, when reg is the
// core registry, in every cached tenant registry. Tenant models are
// prefixed with their tenant.
func (s *Service) dependents(reg *registry.Registry, name QName) []string {
	regs := []*registry.Registry{reg}
	if reg.Tenant() == CoreTenant {
		s.mu.Lock()
		for tenant, r := range s.registries {
			if tenant != CoreTenant {
				regs = append(regs, r)
			}
		}
		s.mu.Unlock()
	}
	var out []string
	for _, r := range regs {
		for _, dep := range r.Dependents(name) {
			if r == reg {
				out = append(out, dep.String())
				continue
			}
			out = append(out, r.Tenant()+"/"+dep.String())
		}
	}
	slices.Sort(out)
	return out
}

// dropChildren forgets the cached tenant registries after a core change so
// they recompile against it on next use.
func (s *Service) dropChildren(tenant string) {
	if tenant != CoreTenant {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for t := range s.registries {
		if t != CoreTenant {
			delete(s.registries, t)
		}
	}
}

// Model returns the model named name visible to tenant.
func (s *Service) Model(ctx context.Context, tenant string, name QName) (*CompiledModel, error) {
	reg, err := s.Registry(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return reg.Model(name)
}

// IsModelRegistered reports whether tenant sees a model named name.
func (s *Service) IsModelRegistered(ctx context.Context, tenant string, name QName) (bool, error) {
	reg, err := s.Registry(ctx, tenant)
	if err != nil {
		return false, err
	}
	return reg.IsModelRegistered(name), nil
}

// ModelsForURI returns the models that declare uri for tenant.
func (s *Service) ModelsForURI(ctx context.Context, tenant string, uri NamespaceURI) ([]QName, error) {
	reg, err := s.Registry(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return reg.ModelsForURI(uri), nil
}

func serviceLookup[T any](ctx context.Context, s *Service, tenant string, get func(*registry.Registry) *T) (*T, error) {
	reg, err := s.Registry(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return get(reg), nil
}

// DataType returns the data type named q visible to tenant, or nil. The
// lookups below search the tenant's models first, then the shared ones.
func (s *Service) DataType(ctx context.Context, tenant string, q QName) (*DataTypeDefinition, error) {
	return serviceLookup(ctx, s, tenant, func(r *registry.Registry) *DataTypeDefinition { return r.DataType(q) })
}

func (s *Service) Class(ctx context.Context, tenant string, q QName) (*ClassDefinition, error) {
	return serviceLookup(ctx, s, tenant, func(r *registry.Registry) *ClassDefinition { return r.Class(q) })
}

func (s *Service) Type(ctx context.Context, tenant string, q QName) (*ClassDefinition, error) {
	return serviceLookup(ctx, s, tenant, func(r *registry.Registry) *ClassDefinition { return r.Type(q) })
}

func (s *Service) Aspect(ctx context.Context, tenant string, q QName) (*ClassDefinition, error) {
	return serviceLookup(ctx, s, tenant, func(r *registry.Registry) *ClassDefinition { return r.Aspect(q) })
}

func (s *Service) Property(ctx context.Context, tenant string, q QName) (*PropertyDefinition, error) {
	return serviceLookup(ctx, s, tenant, func(r *registry.Registry) *PropertyDefinition { return r.Property(q) })
}

func (s *Service) Association(ctx context.Context, tenant string, q QName) (*AssociationDefinition, error) {
	return serviceLookup(ctx, s, tenant, func(r *registry.Registry) *AssociationDefinition { return r.Association(q) })
}

func (s *Service) Constraint(ctx context.Context, tenant string, q QName) (*ConstraintDefinition, error) {
	return serviceLookup(ctx, s, tenant, func(r *registry.Registry) *ConstraintDefinition { return r.Constraint(q) })
}

// Refresh rebuilds tenant's registry from the store in the background and
// returns at once. Concurrent refreshes of one tenant share a rebuild. The
// returned channel yields the outcome.
func (s *Service) Refresh(ctx context.Context, tenant string) <-chan error {
	out := make(chan error, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		out <- errServiceClosed
		close(out)
		return out
	}
	s.wg.Add(1)
	s.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh:"+tenant, func() (any, error) {
		rctx, cancel := context.WithTimeout(bg, s.cfg.RefreshTimeout)
		defer cancel()
		reg, err := s.cached(tenant)
		if err != nil {
			return nil, err
		}
		if reg == nil {
			_, err := s.Registry(rctx, tenant)
			return nil, err
		}
		return nil, s.rebuild(rctx, reg)
	})
	go func() {
		defer s.wg.Done()
		res := <-ch
		if res.Err != nil {
			s.log.WarnContext(bg, "registry refresh failed", "tenant", tenant, "error", res.Err)
		}
		out <- res.Err
		close(out)
	}()
	return out
}

// RefreshWait rebuilds tenant's registry and waits for the outcome.
func (s *Service) RefreshWait(ctx context.Context, tenant string) error {
	select {
	case err := <-s.Refresh(ctx, tenant):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invalidate drops tenant's cached registry on this node and on every node
// reached by the notifier. Invalidating the core tenant drops every tenant.
func (s *Service) Invalidate(ctx context.Context, tenant string) error {
	s.drop(tenant)
	if s.cfg.Notifier == nil {
		return nil
	}
	return s.cfg.Notifier.Publish(ctx, tenant)
}

func (s *Service) drop(tenant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant == CoreTenant {
		clear(s.registries)
	} else {
		delete(s.registries, tenant)
	}
	s.log.Debug("registry invalidated", "tenant", tenant)
}

func (s *Service) publish(ctx context.Context, tenant string) {
	if s.cfg.Notifier == nil {
		return
	}
	if err := s.cfg.Notifier.Publish(ctx, tenant); err != nil {
		s.log.WarnContext(ctx, "invalidation not published", "tenant", tenant, "error", err)
	}
}

// Close stops listening for invalidations and waits for background
// refreshes. The store and notifier are left open.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
	return nil
}
