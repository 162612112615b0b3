package dictionary

import (
	"fmt"
	"log/slog"

	"github.com/jacoelho/dictionary/internal/compiler"
	"github.com/jacoelho/dictionary/internal/constraint"
)

// LoadOptions configures model compilation. The zero value is valid.
type LoadOptions struct {
	skipConstraintInitialization bool
	withoutBootstrap             bool
	constraints                  *constraint.Registry
	logger                       *slog.Logger
}

// NewLoadOptions returns a default, valid load options value.
func NewLoadOptions() LoadOptions {
	return LoadOptions{}
}

// WithSkipConstraintInitialization controls whether constraint
// implementations and data type kinds are left unchecked.
func (o LoadOptions) WithSkipConstraintInitialization(value bool) LoadOptions {
	o.skipConstraintInitialization = value
	return o
}

// WithConstraintRegistry sets the registry constraint types are looked up in
// (nil uses the built-in types).
func (o LoadOptions) WithConstraintRegistry(value *ConstraintRegistry) LoadOptions {
	o.constraints = value
	return o
}

// WithoutBootstrap controls whether the built-in dictionary and system models
// are left out of compilation.
func (o LoadOptions) WithoutBootstrap(value bool) LoadOptions {
	o.withoutBootstrap = value
	return o
}

// WithLogger sets the logger compilation reports to.
func (o LoadOptions) WithLogger(value *slog.Logger) LoadOptions {
	o.logger = value
	return o
}

// Validate validates load options values.
func (o LoadOptions) Validate() error {
	if o.constraints != nil && !o.skipConstraintInitialization && len(o.constraints.Types()) == 0 {
		return fmt.Errorf("load options: constraint registry has no types")
	}
	return nil
}

func (o LoadOptions) compilerOptions() compiler.Options {
	return compiler.Options{
		Constraints:                  o.constraints,
		SkipConstraintInitialization: o.skipConstraintInitialization,
		Logger:                       o.logger,
	}
}

func (o LoadOptions) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default().With("component", "dictionary")
}
