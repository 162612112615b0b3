package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDefinitionErrorFormatting(t *testing.T) {
	err := DuplicateDefinition("cm:contentmodel", "property", "cm:name")
	got := err.Error()
	want := "[duplicate-definition] property cm:name is already defined (model: cm:contentmodel, name: cm:name)"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestCyclicReferenceMessageIncludesPath(t *testing.T) {
	err := CyclicReference("my:model", "my:a", []string{"my:a", "my:b", "my:a"})
	if !strings.Contains(err.Error(), "my:a -> my:b -> my:a") {
		t.Fatalf("Error() = %q, want loop path", err.Error())
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	base := MandatoryRelaxation("my:model", "my:doc", "cm:title", "mandatory")
	wrapped := fmt.Errorf("resolve inheritance: %w", Compiled("my:model", base))

	code, ok := CodeOf(wrapped)
	if !ok || code != ErrMandatoryRelaxation {
		t.Fatalf("CodeOf() = %q, %v, want %q", code, ok, ErrMandatoryRelaxation)
	}
	if !Is(wrapped, ErrMandatoryRelaxation) {
		t.Fatal("Is() = false, want true")
	}
	if !errors.Is(wrapped, Relaxation) {
		t.Fatal("errors.Is(Relaxation) = false, want true")
	}
	if errors.Is(wrapped, Cyclic) {
		t.Fatal("errors.Is(Cyclic) = true, want false")
	}

	var comp *Compilation
	if !errors.As(wrapped, &comp) || comp.Model != "my:model" {
		t.Fatalf("errors.As(Compilation) = %+v", comp)
	}
}

func TestCompiledDoesNotDoubleWrap(t *testing.T) {
	first := Compiled("a:model", InvalidModel("a:model", "bad"))
	second := Compiled("b:model", first)
	if second != first {
		t.Fatal("Compiled() re-wrapped an existing Compilation")
	}
	if Compiled("x", nil) != nil {
		t.Fatal("Compiled(nil) != nil")
	}
}

func TestCompilationList(t *testing.T) {
	list := CompilationList{
		{Model: "a:one", Err: UnresolvedReference("a:one", "a:doc", "parent", "b:missing")},
		{Model: "a:two", Err: ModelNotFound("a:two")},
	}
	if !strings.HasSuffix(list.Error(), "(and 1 more)") {
		t.Fatalf("Error() = %q", list.Error())
	}
	if !errors.Is(list, Unresolved) || !errors.Is(list, NotFound) {
		t.Fatal("errors.Is() on list did not reach entries")
	}
	got, ok := AsCompilations(fmt.Errorf("compile: %w", list))
	if !ok || len(got) != 2 {
		t.Fatalf("AsCompilations() = %v, %v", got, ok)
	}
	if models := got.Models(); models[0] != "a:one" || models[1] != "a:two" {
		t.Fatalf("Models() = %v", models)
	}
	if (CompilationList{}).Error() != "no compilation errors" {
		t.Fatal("empty list message mismatch")
	}
}

func TestNilReceivers(t *testing.T) {
	var d *Definition
	if d.Error() != "definition error <nil>" {
		t.Fatalf("nil Definition Error() = %q", d.Error())
	}
	var c *Compilation
	if c.Error() != "compilation <nil>" {
		t.Fatalf("nil Compilation Error() = %q", c.Error())
	}
}

func TestModelInUse(t *testing.T) {
	err := ModelInUse("{urn:a}base", []string{"{urn:b}ext", "{urn:c}more"})
	want := "[model-in-use] model {urn:a}base is imported by {urn:b}ext, {urn:c}more (model: {urn:a}base)"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(fmt.Errorf("remove: %w", err), InUse) {
		t.Fatal("errors.Is(InUse) = false, want true")
	}
}
