package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a dictionary error.
type ErrorCode string

const (
	// ErrDuplicateDefinition indicates a name declared twice in one model.
	ErrDuplicateDefinition ErrorCode = "duplicate-definition"
	// ErrCyclicReference indicates a class hierarchy or import graph loops.
	ErrCyclicReference ErrorCode = "cyclic-reference"
	// ErrUnresolvedReference indicates a data type, parent, aspect, target or constraint was not found.
	ErrUnresolvedReference ErrorCode = "unresolved-reference"
	// ErrMandatoryRelaxation indicates an override relaxed an inherited mandatory property.
	ErrMandatoryRelaxation ErrorCode = "mandatory-relaxation"
	// ErrNamespaceConflict indicates a namespace URI or prefix owned by another model.
	ErrNamespaceConflict ErrorCode = "namespace-conflict"
	// ErrInvalidModel indicates a structurally invalid model document.
	ErrInvalidModel ErrorCode = "invalid-model"
	// ErrInvalidConstraint indicates a constraint could not be initialized from its parameters.
	ErrInvalidConstraint ErrorCode = "invalid-constraint"
	// ErrModelNotFound indicates a model is not registered.
	ErrModelNotFound ErrorCode = "model-not-found"
	// ErrModelInUse indicates a model is imported by other registered models.
	ErrModelInUse ErrorCode = "model-in-use"
)

// Definition describes a dictionary error tied to a model and, optionally,
// the definition that caused it.
//
//nolint:errname // public API name uses dictionary domain term.
type Definition struct {
	Code    ErrorCode
	Model   string
	Name    string
	Message string
	Err     error
}

// Error formats the error with code, message and context.
func (d *Definition) Error() string {
	if d == nil {
		return "definition error <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	switch {
	case d.Model != "" && d.Name != "":
		fmt.Fprintf(&b, " (model: %s, name: %s)", d.Model, d.Name)
	case d.Model != "":
		fmt.Fprintf(&b, " (model: %s)", d.Model)
	case d.Name != "":
		fmt.Fprintf(&b, " (name: %s)", d.Name)
	}
	if d.Err != nil {
		fmt.Fprintf(&b, ": %v", d.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (d *Definition) Unwrap() error {
	if d == nil {
		return nil
	}
	return d.Err
}

// Is matches another *Definition by code so errors.Is works with the
// package-level sentinels.
func (d *Definition) Is(target error) bool {
	var other *Definition
	if !errors.As(target, &other) || other == nil || d == nil {
		return false
	}
	return other.Code == d.Code && other.Message == "" && other.Model == "" && other.Name == ""
}

// newf builds a Definition with a formatted message.
func newf(code ErrorCode, model, name, format string, args ...any) *Definition {
	return &Definition{Code: code, Model: model, Name: name, Message: fmt.Sprintf(format, args...)}
}

// DuplicateDefinition reports a name declared twice in one model.
func DuplicateDefinition(model, kind, name string) *Definition {
	return newf(ErrDuplicateDefinition, model, name, "%s %s is already defined", kind, name)
}

// CyclicReference reports a class or import cycle. path lists the loop.
func CyclicReference(model, name string, path []string) *Definition {
	msg := fmt.Sprintf("%s has a cyclic reference", name)
	if len(path) > 1 {
		msg = fmt.Sprintf("%s has a cyclic reference: %s", name, strings.Join(path, " -> "))
	}
	return &Definition{Code: ErrCyclicReference, Model: model, Name: name, Message: msg}
}

// UnresolvedReference reports a reference from owner to a missing kind/name.
func UnresolvedReference(model, owner, kind, name string) *Definition {
	return newf(ErrUnresolvedReference, model, owner, "%s %s referenced by %s not found", kind, name, owner)
}

// MandatoryRelaxation reports an override that relaxes an inherited mandatory flag.
func MandatoryRelaxation(model, class, property, flag string) *Definition {
	return newf(ErrMandatoryRelaxation, model, property,
		"override of %s in %s cannot relax inherited %s", property, class, flag)
}

// NamespaceConflict reports a namespace URI or prefix already owned by another model.
func NamespaceConflict(model, namespace, owner string) *Definition {
	return newf(ErrNamespaceConflict, model, namespace, "namespace %s is already defined by model %s", namespace, owner)
}

// InvalidModel reports a structural problem with a model document.
func InvalidModel(model, format string, args ...any) *Definition {
	return newf(ErrInvalidModel, model, "", format, args...)
}

// InvalidConstraint reports a constraint whose parameters cannot be used.
func InvalidConstraint(model, name string, err error) *Definition {
	return &Definition{Code: ErrInvalidConstraint, Model: model, Name: name, Message: "constraint cannot be initialized", Err: err}
}

// ModelNotFound reports a missing model.
func ModelNotFound(model string) *Definition {
	return newf(ErrModelNotFound, model, "", "model %s is not registered", model)
}

// ModelInUse reports a model that dependents still import.
func ModelInUse(model string, dependents []string) *Definition {
	return newf(ErrModelInUse, model, "", "model %s is imported by %s", model, strings.Join(dependents, ", "))
}

// Sentinels usable with errors.Is.
var (
	Duplicate     = &Definition{Code: ErrDuplicateDefinition}
	Cyclic        = &Definition{Code: ErrCyclicReference}
	Unresolved    = &Definition{Code: ErrUnresolvedReference}
	Relaxation    = &Definition{Code: ErrMandatoryRelaxation}
	Conflict      = &Definition{Code: ErrNamespaceConflict}
	Invalid       = &Definition{Code: ErrInvalidModel}
	BadConstraint = &Definition{Code: ErrInvalidConstraint}
	NotFound      = &Definition{Code: ErrModelNotFound}
	InUse         = &Definition{Code: ErrModelInUse}
)

// Compilation wraps a compilation failure with the offending model's name.
type Compilation struct {
	Model string
	Err   error
}

// Error formats the failure for user-facing diagnostics.
func (c *Compilation) Error() string {
	if c == nil {
		return "compilation <nil>"
	}
	return fmt.Sprintf("compile model %s: %v", c.Model, c.Err)
}

// Unwrap returns the wrapped definition error.
func (c *Compilation) Unwrap() error {
	if c == nil {
		return nil
	}
	return c.Err
}

// Compiled wraps err with model unless it already carries a Compilation.
func Compiled(model string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Compilation
	if errors.As(err, &existing) {
		return err
	}
	return &Compilation{Model: model, Err: err}
}

// CompilationList reports per-model failures of a multi-model compile.
type CompilationList []*Compilation //nolint:errname // public API name.

// Error returns a compact summary of the failures.
func (l CompilationList) Error() string {
	switch len(l) {
	case 0:
		return "no compilation errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// Unwrap exposes every failure to errors.Is / errors.As.
func (l CompilationList) Unwrap() []error {
	out := make([]error, len(l))
	for i, c := range l {
		out[i] = c
	}
	return out
}

// Models returns the names of the failed models.
func (l CompilationList) Models() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Model
	}
	return out
}

// CodeOf returns the ErrorCode carried by err.
func CodeOf(err error) (ErrorCode, bool) {
	var def *Definition
	if errors.As(err, &def) && def != nil {
		return def.Code, true
	}
	return "", false
}

// Is reports whether err carries code.
func Is(err error, code ErrorCode) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}

// AsCompilations extracts per-model failures from an error returned by a model set compile.
func AsCompilations(err error) (CompilationList, bool) {
	if err == nil {
		return nil, false
	}
	var list CompilationList
	if errors.As(err, &list) {
		return list, true
	}
	var single *Compilation
	if errors.As(err, &single) {
		return CompilationList{single}, true
	}
	return nil, false
}
