// Package m2 holds declarative, uncompiled model documents.
package m2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Model is a named collection of namespace declarations, data types,
// constraints, types and aspects.
type Model struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Author      string       `json:"author,omitempty" yaml:"author,omitempty"`
	Published   string       `json:"published,omitempty" yaml:"published,omitempty"`
	Version     Scalar       `json:"version,omitempty" yaml:"version,omitempty"`
	Imports     []Namespace  `json:"imports,omitempty" yaml:"imports,omitempty"`
	Namespaces  []Namespace  `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`
	DataTypes   []DataType   `json:"dataTypes,omitempty" yaml:"dataTypes,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Types       []Class      `json:"types,omitempty" yaml:"types,omitempty"`
	Aspects     []Class      `json:"aspects,omitempty" yaml:"aspects,omitempty"`
}

// Namespace binds a prefix to a URI.
type Namespace struct {
	URI    string `json:"uri" yaml:"uri"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

// DataType declares a data type and the value kind implementing it.
type DataType struct {
	Name                   string `json:"name" yaml:"name"`
	Title                  string `json:"title,omitempty" yaml:"title,omitempty"`
	Description            string `json:"description,omitempty" yaml:"description,omitempty"`
	Kind                   string `json:"kind" yaml:"kind"`
	AnalyserResourceBundle string `json:"analyserResourceBundle,omitempty" yaml:"analyserResourceBundle,omitempty"`
}

// Class declares a type or an aspect.
type Class struct {
	Name                     string             `json:"name" yaml:"name"`
	Title                    string             `json:"title,omitempty" yaml:"title,omitempty"`
	Description              string             `json:"description,omitempty" yaml:"description,omitempty"`
	Parent                   string             `json:"parent,omitempty" yaml:"parent,omitempty"`
	Archive                  *bool              `json:"archive,omitempty" yaml:"archive,omitempty"`
	IncludedInSuperTypeQuery *bool              `json:"includedInSuperTypeQuery,omitempty" yaml:"includedInSuperTypeQuery,omitempty"`
	Properties               []Property         `json:"properties,omitempty" yaml:"properties,omitempty"`
	Overrides                []PropertyOverride `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Associations             []Association      `json:"associations,omitempty" yaml:"associations,omitempty"`
	ChildAssociations        []ChildAssociation `json:"childAssociations,omitempty" yaml:"childAssociations,omitempty"`
	MandatoryAspects         []string           `json:"mandatoryAspects,omitempty" yaml:"mandatoryAspects,omitempty"`
}

// Property declares a class property.
type Property struct {
	Name              string       `json:"name" yaml:"name"`
	Title             string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description       string       `json:"description,omitempty" yaml:"description,omitempty"`
	Type              string       `json:"type" yaml:"type"`
	Protected         bool         `json:"protected,omitempty" yaml:"protected,omitempty"`
	Mandatory         bool         `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	MandatoryEnforced bool         `json:"mandatoryEnforced,omitempty" yaml:"mandatoryEnforced,omitempty"`
	MultiValued       bool         `json:"multiValued,omitempty" yaml:"multiValued,omitempty"`
	Default           *Scalar      `json:"default,omitempty" yaml:"default,omitempty"`
	Index             *Index       `json:"index,omitempty" yaml:"index,omitempty"`
	Constraints       []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Index carries the indexing flags of a property.
type Index struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Atomic    bool   `json:"atomic,omitempty" yaml:"atomic,omitempty"`
	Stored    bool   `json:"stored,omitempty" yaml:"stored,omitempty"`
	Tokenised Scalar `json:"tokenised,omitempty" yaml:"tokenised,omitempty"`
}

// PropertyOverride refines an inherited property in a sub class.
type PropertyOverride struct {
	Name              string       `json:"name" yaml:"name"`
	Mandatory         *bool        `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	MandatoryEnforced *bool        `json:"mandatoryEnforced,omitempty" yaml:"mandatoryEnforced,omitempty"`
	Default           *Scalar      `json:"default,omitempty" yaml:"default,omitempty"`
	Constraints       []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Constraint declares a constraint. Inside a property it is either a
// reference (Ref) to a model-level constraint or an inline declaration whose
// Name may be empty.
type Constraint struct {
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Ref         string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	Type        string      `json:"type,omitempty" yaml:"type,omitempty"`
	Title       string      `json:"title,omitempty" yaml:"title,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Parameter is a named constraint parameter holding a scalar or a list.
type Parameter struct {
	Name  string   `json:"name" yaml:"name"`
	Value *Scalar  `json:"value,omitempty" yaml:"value,omitempty"`
	List  []Scalar `json:"list,omitempty" yaml:"list,omitempty"`
}

// Scalar is a textual value that may be written as a string, number or
// boolean in YAML and JSON documents.
type Scalar string

// UnmarshalJSON accepts JSON strings, numbers and booleans.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
		return fmt.Errorf("scalar value expected, got %s", trimmed)
	}
	*s = Scalar(trimmed)
	return nil
}

// String returns the value text.
func (s Scalar) String() string {
	return string(s)
}

// Strings converts a scalar list to strings.
func Strings(values []Scalar) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// IsList reports whether the parameter carries a list value.
func (p Parameter) IsList() bool {
	return p.Value == nil && p.List != nil
}

// End describes one end of an association.
type End struct {
	Class             string `json:"class,omitempty" yaml:"class,omitempty"`
	Role              string `json:"role,omitempty" yaml:"role,omitempty"`
	Mandatory         bool   `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	MandatoryEnforced bool   `json:"mandatoryEnforced,omitempty" yaml:"mandatoryEnforced,omitempty"`
	Many              bool   `json:"many,omitempty" yaml:"many,omitempty"`
}

// Association declares a peer association.
type Association struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Protected   bool   `json:"protected,omitempty" yaml:"protected,omitempty"`
	Source      End    `json:"source" yaml:"source"`
	Target      End    `json:"target" yaml:"target"`
}

// ChildAssociation declares a parent-child association.
type ChildAssociation struct {
	Association         `yaml:",inline"`
	ChildName           string `json:"childName,omitempty" yaml:"childName,omitempty"`
	Duplicate           *bool  `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
	PropagateTimestamps bool   `json:"propagateTimestamps,omitempty" yaml:"propagateTimestamps,omitempty"`
}

// Validate performs structural checks that need no name resolution.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("model is nil")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("model name is empty")
	}
	if m.Version != "" {
		if _, err := semver.NewVersion(string(m.Version)); err != nil {
			return fmt.Errorf("model %s: version %q: %w", m.Name, m.Version, err)
		}
	}
	prefixes := make(map[string]string)
	check := func(kind string, ns Namespace) error {
		if strings.TrimSpace(ns.URI) == "" {
			return fmt.Errorf("model %s: %s with prefix %q has no uri", m.Name, kind, ns.Prefix)
		}
		if prev, ok := prefixes[ns.Prefix]; ok && prev != ns.URI {
			return fmt.Errorf("model %s: prefix %q bound to both %s and %s", m.Name, ns.Prefix, prev, ns.URI)
		}
		prefixes[ns.Prefix] = ns.URI
		return nil
	}
	for _, ns := range m.Namespaces {
		if err := check("namespace", ns); err != nil {
			return err
		}
	}
	for _, ns := range m.Imports {
		if err := check("import", ns); err != nil {
			return err
		}
	}
	if len(m.Namespaces) == 0 {
		return fmt.Errorf("model %s: declares no namespace", m.Name)
	}
	for _, c := range m.Constraints {
		if c.Ref != "" {
			return fmt.Errorf("model %s: model-level constraint %s cannot be a reference", m.Name, c.Name)
		}
		if c.Name == "" {
			return fmt.Errorf("model %s: model-level constraint without a name", m.Name)
		}
	}
	return nil
}

// DeclaredURIs returns the namespace URIs declared (not imported) by the model.
func (m *Model) DeclaredURIs() []string {
	out := make([]string, 0, len(m.Namespaces))
	for _, ns := range m.Namespaces {
		out = append(out, ns.URI)
	}
	return out
}

// ImportedURIs returns the namespace URIs imported by the model.
func (m *Model) ImportedURIs() []string {
	out := make([]string, 0, len(m.Imports))
	for _, ns := range m.Imports {
		out = append(out, ns.URI)
	}
	return out
}
