package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/bootstrap"
	"github.com/jacoelho/dictionary/internal/compiler"
	"github.com/jacoelho/dictionary/internal/graphcycle"
	"github.com/jacoelho/dictionary/internal/m2"
	"github.com/jacoelho/dictionary/internal/registry"
)

type modelSetEntry struct {
	fsys     fs.FS
	location string
	data     []byte
	format   m2.Format
	model    *m2.Model
}

func (e modelSetEntry) source() string {
	if e.model != nil {
		return e.model.Name
	}
	return e.location
}

func (e modelSetEntry) decode() (*m2.Model, error) {
	switch {
	case e.model != nil:
		return e.model, nil
	case e.fsys != nil:
		return m2.DecodeFile(e.fsys, e.location)
	default:
		m, err := m2.DecodeBytes(e.data, e.format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.location, err)
		}
		return m, nil
	}
}

// ModelSet owns model sources and compiles them as one unit.
type ModelSet struct {
	entries  []modelSetEntry
	loadOpts LoadOptions
}

// NewModelSet creates an empty model set.
func NewModelSet(opts ...LoadOptions) *ModelSet {
	loadOpts := NewLoadOptions()
	if len(opts) > 0 {
		loadOpts = opts[0]
	}
	return &ModelSet{loadOpts: loadOpts}
}

// WithLoadOptions replaces model-set load options.
func (s *ModelSet) WithLoadOptions(opts LoadOptions) *ModelSet {
	if s == nil {
		return nil
	}
	s.loadOpts = opts
	return s
}

// AddFS adds the model document at location in fsys. The format is taken
// from the file extension.
func (s *ModelSet) AddFS(fsys fs.FS, location string) error {
	if s == nil {
		return fmt.Errorf("model set: nil set")
	}
	if fsys == nil {
		return fmt.Errorf("model set: nil fs")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return fmt.Errorf("model set: empty location")
	}
	s.entries = append(s.entries, modelSetEntry{fsys: fsys, location: location})
	return nil
}

// AddBytes adds an in-memory model document. name labels it in errors.
func (s *ModelSet) AddBytes(name string, data []byte, format Format) error {
	if s == nil {
		return fmt.Errorf("model set: nil set")
	}
	if len(data) == 0 {
		return fmt.Errorf("model set: empty document %s", name)
	}
	s.entries = append(s.entries, modelSetEntry{location: name, data: slices.Clone(data), format: format})
	return nil
}

// AddModel adds a decoded model.
func (s *ModelSet) AddModel(m *Model) error {
	if s == nil {
		return fmt.Errorf("model set: nil set")
	}
	if m == nil {
		return fmt.Errorf("model set: nil model")
	}
	s.entries = append(s.entries, modelSetEntry{model: m})
	return nil
}

// Len returns the number of sources in the set.
func (s *ModelSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// CompileResult holds the outcome of compiling a model set.
type CompileResult struct {
	// Models holds the compiled models of the set in compilation order.
	Models []*CompiledModel
	// Failures holds one entry per model that did not compile.
	Failures dicterrors.CompilationList
	// Registry holds the built-in models (unless disabled) and Models.
	Registry *Registry
}

// Model returns the compiled model named name, or nil.
func (r *CompileResult) Model(name QName) *CompiledModel {
	for _, m := range r.Models {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Compile compiles every model of the set. Models are ordered so that a
// model compiles after the models declaring the namespaces it imports. A
// failing model is reported in CompileResult.Failures and does not stop its
// siblings; the returned error is then the failure list.
func (s *ModelSet) Compile() (*CompileResult, error) {
	if s == nil {
		return nil, fmt.Errorf("model set: nil set")
	}
	if err := s.loadOpts.Validate(); err != nil {
		return nil, err
	}
	reg := registry.New("", nil, s.loadOpts.log())
	if !s.loadOpts.withoutBootstrap {
		core, err := compileBootstrap(s.loadOpts)
		if err != nil {
			return nil, err
		}
		if err := reg.Replace(core); err != nil {
			return nil, err
		}
	}
	var models []*m2.Model
	var failures dicterrors.CompilationList
	for _, e := range s.entries {
		m, err := e.decode()
		if err != nil {
			failures = append(failures, &dicterrors.Compilation{
				Model: e.source(),
				Err:   dicterrors.InvalidModel(e.source(), "%v", err),
			})
			continue
		}
		models = append(models, m)
	}
	res := compileInto(context.Background(), reg, models, s.loadOpts, nil)
	res.Failures = append(failures, res.Failures...)
	if len(res.Failures) > 0 {
		return res, res.Failures
	}
	return res, nil
}

// compileBootstrap compiles the built-in models.
func compileBootstrap(opts LoadOptions) ([]*CompiledModel, error) {
	models, err := bootstrap.Models()
	if err != nil {
		return nil, err
	}
	var q compiler.ChainQuery
	out := make([]*CompiledModel, 0, len(models))
	for _, m := range models {
		cm, err := compiler.Compile(m, q, opts.compilerOptions())
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		q = append(q, cm)
		out = append(out, cm)
	}
	return out, nil
}

// compileInto compiles models in import order against reg and registers each
// success in reg.
func compileInto(ctx context.Context, reg *registry.Registry, models []*m2.Model, opts LoadOptions, metrics *Metrics) *CompileResult {
	res := &CompileResult{Registry: reg}
	order, cyclic := importOrder(models)
	for _, idx := range cyclic {
		m := models[idx]
		res.Failures = append(res.Failures, &dicterrors.Compilation{
			Model: m.Name,
			Err:   dicterrors.CyclicReference(m.Name, m.Name, nil),
		})
	}
	for _, idx := range order {
		m := models[idx]
		_, done := metrics.StartCompile(ctx, reg.Tenant(), m.Name)
		cm, err := compileOne(reg, m, opts)
		done(err)
		if err != nil {
			var c *dicterrors.Compilation
			if !errors.As(err, &c) {
				c = &dicterrors.Compilation{Model: m.Name, Err: err}
			}
			res.Failures = append(res.Failures, c)
			continue
		}
		res.Models = append(res.Models, cm)
	}
	return res
}

func compileOne(reg *registry.Registry, m *m2.Model, opts LoadOptions) (*CompiledModel, error) {
	cm, err := compiler.Compile(m, reg, opts.compilerOptions())
	if err != nil {
		return nil, err
	}
	if reg.Snapshot().Model(cm.Name()) != nil {
		return nil, dicterrors.Compiled(m.Name, dicterrors.DuplicateDefinition(m.Name, "model", m.Name))
	}
	if err := reg.PutModel(cm); err != nil {
		return nil, dicterrors.Compiled(m.Name, err)
	}
	return cm, nil
}

// importOrder orders model indexes so that the declarer of a namespace comes
// before its importers. Models on an import cycle are returned separately.
func importOrder(models []*m2.Model) (order, cyclic []int) {
	declarers := make(map[string][]int)
	for i, m := range models {
		for _, uri := range m.DeclaredURIs() {
			declarers[uri] = append(declarers[uri], i)
		}
	}
	excluded := make(map[int]bool)
	starts := make([]int, len(models))
	for i := range models {
		starts[i] = i
	}
	for {
		cfg := graphcycle.Config[int]{
			Starts: starts,
			Exists: func(i int) bool { return !excluded[i] },
			Next: func(i int) ([]int, error) {
				var next []int
				for _, uri := range models[i].ImportedURIs() {
					for _, j := range declarers[uri] {
						if j != i {
							next = append(next, j)
						}
					}
				}
				return next, nil
			},
		}
		got, err := graphcycle.TopoOrder(cfg)
		var cycle graphcycle.CycleError[int]
		if !errors.As(err, &cycle) {
			return got, cyclic
		}
		for _, i := range cycle.Path {
			if !excluded[i] {
				excluded[i] = true
				cyclic = append(cyclic, i)
			}
		}
		if !excluded[cycle.Key] {
			excluded[cycle.Key] = true
			cyclic = append(cyclic, cycle.Key)
		}
	}
}
